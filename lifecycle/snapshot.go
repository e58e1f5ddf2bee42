package lifecycle

import (
	claims "github.com/goliatone/go-claims"
)

// TransitionInfo describes one legal outgoing move for rendering.
type TransitionInfo struct {
	To             claims.Status `json:"to"`
	Label          string        `json:"label"`
	ReasonRequired bool          `json:"reason_required"`
}

// Snapshot summarizes everything a detail view needs to render a status:
// the legal moves, the editable surface and the pre-rendered requirements.
type Snapshot struct {
	Status             claims.Status    `json:"status"`
	Label              string           `json:"label"`
	Terminal           bool             `json:"terminal"`
	AllowedTransitions []TransitionInfo `json:"allowed_transitions"`
	EditableFields     []claims.Field   `json:"editable_fields"`
	RequiredFields     []claims.Field   `json:"required_fields"`
}

// SnapshotFor builds the rendering snapshot for a status. Order of allowed
// transitions follows the table.
func SnapshotFor(status claims.Status) Snapshot {
	var allowed []TransitionInfo
	for _, to := range transitions[status] {
		allowed = append(allowed, TransitionInfo{
			To:             to,
			Label:          to.Label(),
			ReasonRequired: IsReasonRequired(status, to),
		})
	}
	return Snapshot{
		Status:             status,
		Label:              status.Label(),
		Terminal:           IsTerminal(status),
		AllowedTransitions: allowed,
		EditableFields:     EditableFields(status),
		RequiredFields:     RequiredFields(status),
	}
}

// MissingRequiredFields pre-renders the invariant check a server rejection
// would report: which required fields of the target status are empty on the
// record. The backend stays authoritative; this only feeds the form.
func MissingRequiredFields(record *claims.Claim, target claims.Status) []claims.Field {
	var missing []claims.Field
	for _, f := range required[target] {
		if isEmptyValue(record.Field(f)) {
			missing = append(missing, f)
		}
	}
	return missing
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	default:
		return false
	}
}
