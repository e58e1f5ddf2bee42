package claims

import "strings"

// Status is one of the seven lifecycle stages a claim occupies.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusInReview    Status = "IN_REVIEW"
	StatusSubmitted   Status = "SUBMITTED"
	StatusPendingInfo Status = "PENDING_INFO"
	StatusReturned    Status = "RETURNED"
	StatusSettled     Status = "SETTLED"
	StatusCancelled   Status = "CANCELLED"
)

var statusLabels = map[Status]string{
	StatusDraft:       "Draft",
	StatusInReview:    "In review",
	StatusSubmitted:   "Submitted",
	StatusPendingInfo: "Pending information",
	StatusReturned:    "Returned",
	StatusSettled:     "Settled",
	StatusCancelled:   "Cancelled",
}

// Statuses returns every lifecycle status in declaration order.
func Statuses() []Status {
	return []Status{
		StatusDraft,
		StatusInReview,
		StatusSubmitted,
		StatusPendingInfo,
		StatusReturned,
		StatusSettled,
		StatusCancelled,
	}
}

// ParseStatus normalizes arbitrary input into a known Status.
func ParseStatus(input string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(input)))
	_, ok := statusLabels[s]
	return s, ok
}

// Valid reports whether s is a member of the enumeration.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human-readable label for rendering. Raw status
// identifiers are never shown to the end user.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) String() string {
	return string(s)
}
