package claims

import (
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes for the remote-failure taxonomy. Every error that crosses a
// package boundary carries one of these so callers can branch without
// string matching.
const (
	ErrCodeNetwork           = "CLAIMS_NETWORK"
	ErrCodeUnauthorized      = "CLAIMS_UNAUTHORIZED"
	ErrCodeMissingFields     = "CLAIMS_MISSING_REQUIRED_FIELDS"
	ErrCodeFieldErrors       = "CLAIMS_FIELD_ERRORS"
	ErrCodeNotEditable       = "CLAIMS_FIELDS_NOT_EDITABLE"
	ErrCodeInvalidTransition = "CLAIMS_INVALID_TRANSITION"
	ErrCodeUploadLimit       = "CLAIMS_UPLOAD_LIMIT"
	ErrCodeUnknown           = "CLAIMS_UNKNOWN"
)

// Metadata keys used alongside the sentinels above.
const (
	MetaMissingFields = "missing_fields" // []Field
	MetaFieldErrors   = "field_errors"   // []FieldMessage
	MetaFields        = "fields"         // []Field (not-editable violations)
	MetaTargetStatus  = "target_status"  // Status
	MetaFromStatus    = "from_status"    // Status
)

var (
	// ErrNetwork covers transport-unreachable failures with no HTTP status.
	ErrNetwork = errors.New("service unreachable", errors.CategoryExternal).
			WithTextCode(ErrCodeNetwork)

	// ErrUnauthorized indicates an expired or rejected session.
	ErrUnauthorized = errors.New("session expired", errors.CategoryAuth).
			WithTextCode(ErrCodeUnauthorized)

	// ErrMissingFields is a server-reported invariant violation: the target
	// status requires fields the record does not carry.
	ErrMissingFields = errors.New("missing required fields", errors.CategoryValidation).
				WithTextCode(ErrCodeMissingFields)

	// ErrFieldErrors carries per-field messages, e.g. malformed values.
	ErrFieldErrors = errors.New("field validation failed", errors.CategoryValidation).
			WithTextCode(ErrCodeFieldErrors)

	// ErrNotEditable means an update touched a field outside the current
	// status's editable set.
	ErrNotEditable = errors.New("fields not editable in current status", errors.CategoryValidation).
			WithTextCode(ErrCodeNotEditable)

	// ErrInvalidTransition marks a move the transition table does not allow.
	ErrInvalidTransition = errors.New("transition not allowed", errors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidTransition)

	// ErrUploadLimit marks an attempt to add files past the pipeline cap.
	ErrUploadLimit = errors.New("upload limit reached", errors.CategoryBadInput).
			WithTextCode(ErrCodeUploadLimit)

	// ErrUnknown is the generic bucket for everything unclassified.
	ErrUnknown = errors.New("unexpected error", errors.CategoryInternal).
			WithTextCode(ErrCodeUnknown)
)

// FieldMessage pairs a field identifier with a server-reported message.
type FieldMessage struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// CloneError derives a call-site error from one of the sentinels, keeping
// the category and text code while attaching a message, source and metadata.
func CloneError(base *errors.Error, message string, source error, metadata map[string]any) *errors.Error {
	if base == nil {
		base = ErrUnknown
	}
	err := base.Clone()
	if text := strings.TrimSpace(message); text != "" {
		err.Message = text
	}
	if source != nil {
		err.Source = source
	}
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// ErrorCode extracts the taxonomy text code, empty for foreign errors.
func ErrorCode(err error) string {
	var ge *errors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

// ErrorMetadata returns the structured metadata attached to a taxonomy
// error, nil for foreign errors.
func ErrorMetadata(err error) map[string]any {
	var ge *errors.Error
	if stderrors.As(err, &ge) {
		return ge.Metadata
	}
	return nil
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
