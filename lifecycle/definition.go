// Package lifecycle is the single source of truth for the claim lifecycle:
// which transitions are legal, which fields are editable or required per
// status, and which moves demand an operator-supplied reason. The tables
// are immutable map literals; only the query functions below see them, and
// every query returns a copy.
package lifecycle

import (
	claims "github.com/goliatone/go-claims"
)

// AnyStatus is the wildcard source in the reason-required rule set.
const AnyStatus claims.Status = "*"

// transitions maps every status to the statuses reachable in one step, in
// presentation order. Missing entries do not exist: the table is total.
var transitions = map[claims.Status][]claims.Status{
	claims.StatusDraft:       {claims.StatusInReview, claims.StatusCancelled},
	claims.StatusInReview:    {claims.StatusSubmitted, claims.StatusReturned, claims.StatusCancelled},
	claims.StatusSubmitted:   {claims.StatusPendingInfo, claims.StatusSettled, claims.StatusCancelled},
	claims.StatusPendingInfo: {claims.StatusSubmitted, claims.StatusCancelled},
	claims.StatusReturned:    {},
	claims.StatusSettled:     {},
	claims.StatusCancelled:   {},
}

// editable maps each status to the fields that may change while the record
// sits in it. Statuses with no legal in-place edits map to nil.
var editable = map[claims.Status][]claims.Field{
	claims.StatusDraft:       claims.CoreFields(),
	claims.StatusInReview:    union(claims.CoreFields(), claims.SubmissionFields()),
	claims.StatusSubmitted:   claims.SettlementFields(),
	claims.StatusPendingInfo: nil,
	claims.StatusReturned:    nil,
	claims.StatusSettled:     nil,
	claims.StatusCancelled:   nil,
}

// required maps each status to the fields that must be non-empty for a
// record to validly occupy it. Non-decreasing along the happy path.
var required = map[claims.Status][]claims.Field{
	claims.StatusDraft:       nil,
	claims.StatusInReview:    claims.CoreFields(),
	claims.StatusSubmitted:   union(claims.CoreFields(), claims.SubmissionFields()),
	claims.StatusPendingInfo: union(claims.CoreFields(), claims.SubmissionFields()),
	claims.StatusReturned:    claims.CoreFields(),
	claims.StatusSettled:     union(claims.CoreFields(), claims.SubmissionFields(), claims.SettlementFields()),
	claims.StatusCancelled:   nil,
}

type reasonRule struct {
	from claims.Status
	to   claims.Status
}

// reasonRequired lists the transitions that mandate a free-text
// justification. Wildcard rules compose with specific pairs by union.
var reasonRequired = map[reasonRule]struct{}{
	{claims.StatusInReview, claims.StatusReturned}:    {},
	{claims.StatusSubmitted, claims.StatusPendingInfo}: {},
	{claims.StatusPendingInfo, claims.StatusSubmitted}: {},
	{AnyStatus, claims.StatusCancelled}:               {},
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status claims.Status) bool {
	return len(transitions[status]) == 0
}

// AllowedTransitions returns the statuses reachable in one step, in table
// order. Terminal statuses yield an empty slice.
func AllowedTransitions(status claims.Status) []claims.Status {
	return append([]claims.Status(nil), transitions[status]...)
}

// CanTransition reports whether from→to exists in the transition table.
// No other code path may decide legality.
func CanTransition(from, to claims.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EditableFields returns the fields that may change in the given status.
func EditableFields(status claims.Status) []claims.Field {
	return append([]claims.Field(nil), editable[status]...)
}

// RequiredFields returns the fields that must be populated for a record to
// validly occupy the given status.
func RequiredFields(status claims.Status) []claims.Field {
	return append([]claims.Field(nil), required[status]...)
}

// IsEditable reports whether a single field may change in the given status.
func IsEditable(status claims.Status, field claims.Field) bool {
	for _, f := range editable[status] {
		if f == field {
			return true
		}
	}
	return false
}

// IsReasonRequired reports whether the from→to move mandates a free-text
// reason, either as a specific pair or via a wildcard source.
func IsReasonRequired(from, to claims.Status) bool {
	if _, ok := reasonRequired[reasonRule{from, to}]; ok {
		return true
	}
	_, ok := reasonRequired[reasonRule{AnyStatus, to}]
	return ok
}

func union(sets ...[]claims.Field) []claims.Field {
	var out []claims.Field
	seen := make(map[claims.Field]struct{})
	for _, set := range sets {
		for _, f := range set {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}
