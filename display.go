package claims

import "fmt"

// DisplayItem is one renderable line of a structured failure, already
// translated from field identifiers to labels.
type DisplayItem struct {
	Field   Field  `json:"field,omitempty"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message"`
}

// DisplayError is the shape every remote-call failure is reduced to at the
// orchestrator/form boundary. Nothing in it references raw identifiers.
type DisplayError struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Items       []DisplayItem `json:"items,omitempty"`
}

// Display maps a taxonomy error onto the structured display shape. Foreign
// errors land in the generic bucket with their message as description.
func Display(err error) *DisplayError {
	if err == nil {
		return nil
	}
	meta := ErrorMetadata(err)

	switch ErrorCode(err) {
	case ErrCodeNetwork:
		return &DisplayError{
			Title:       "Connection problem",
			Description: "The claims service could not be reached. Check your connection and try again.",
		}
	case ErrCodeUnauthorized:
		return &DisplayError{
			Title:       "Session expired",
			Description: "Your session is no longer valid. Sign in again to continue.",
		}
	case ErrCodeMissingFields:
		out := &DisplayError{
			Title:       "Required fields are missing",
			Description: missingFieldsDescription(meta),
		}
		for _, f := range metaFields(meta, MetaMissingFields) {
			out.Items = append(out.Items, DisplayItem{
				Field:   f,
				Label:   f.Label(),
				Message: fmt.Sprintf("%s is required", f.Label()),
			})
		}
		return out
	case ErrCodeFieldErrors:
		out := &DisplayError{
			Title:       "Some fields need attention",
			Description: "Correct the fields below and try again.",
		}
		for _, fm := range metaFieldMessages(meta) {
			out.Items = append(out.Items, DisplayItem{
				Field:   fm.Field,
				Label:   fm.Field.Label(),
				Message: fm.Message,
			})
		}
		return out
	case ErrCodeNotEditable:
		out := &DisplayError{
			Title:       "Fields cannot be changed",
			Description: "Some of the edited fields are locked in the claim's current status.",
		}
		for _, f := range metaFields(meta, MetaFields) {
			out.Items = append(out.Items, DisplayItem{
				Field:   f,
				Label:   f.Label(),
				Message: fmt.Sprintf("%s is not editable right now", f.Label()),
			})
		}
		return out
	case ErrCodeInvalidTransition:
		return &DisplayError{
			Title:       "Move not allowed",
			Description: invalidTransitionDescription(meta),
		}
	case ErrCodeUploadLimit:
		return &DisplayError{
			Title:       "Too many files",
			Description: "The attachment limit for this claim has been reached.",
		}
	default:
		return &DisplayError{
			Title:       "Something went wrong",
			Description: err.Error(),
		}
	}
}

func missingFieldsDescription(meta map[string]any) string {
	if target, ok := meta[MetaTargetStatus].(Status); ok && target.Valid() {
		return fmt.Sprintf("The claim cannot move to %s until the fields below are filled in.", target.Label())
	}
	return "Fill in the fields below and try again."
}

func invalidTransitionDescription(meta map[string]any) string {
	from, okFrom := meta[MetaFromStatus].(Status)
	target, okTo := meta[MetaTargetStatus].(Status)
	if okFrom && okTo {
		return fmt.Sprintf("A claim in %s cannot move to %s.", from.Label(), target.Label())
	}
	return "The claim's current status does not allow this move."
}

func metaFields(meta map[string]any, key string) []Field {
	if meta == nil {
		return nil
	}
	switch v := meta[key].(type) {
	case []Field:
		return v
	case []string:
		out := make([]Field, 0, len(v))
		for _, s := range v {
			out = append(out, Field(s))
		}
		return out
	default:
		return nil
	}
}

func metaFieldMessages(meta map[string]any) []FieldMessage {
	if meta == nil {
		return nil
	}
	if v, ok := meta[MetaFieldErrors].([]FieldMessage); ok {
		return v
	}
	return nil
}
