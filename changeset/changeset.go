// Package changeset turns an edited claim draft into the minimal change-set
// transmitted to the update operation. Only fields whose value actually
// differs are included, so a concurrent edit to an untouched field by
// another actor is never clobbered.
package changeset

import (
	"reflect"

	claims "github.com/goliatone/go-claims"
)

// Values is the flat map both the original record and the edited draft are
// expressed in. Keys come from the editable field set of the claim's status.
type Values map[claims.Field]any

// FromClaim extracts the form values backing an edit surface.
func FromClaim(c *claims.Claim) Values {
	if c == nil || c.Fields == nil {
		return Values{}
	}
	out := make(Values, len(c.Fields))
	for k, v := range c.Fields {
		out[k] = v
	}
	return out
}

// Diff returns the minimal change-set between the original values and an
// edited draft. Values are compared structurally, not by reference;
// nil↔value moves count as changes. An unmodified draft yields an empty map.
func Diff(original, draft Values) Values {
	out := Values{}
	for field, value := range draft {
		prev, existed := original[field]
		if existed && reflect.DeepEqual(prev, value) {
			continue
		}
		if !existed && value == nil {
			continue
		}
		out[field] = value
	}
	// A field cleared out of the draft entirely is an explicit nil update.
	for field := range original {
		if _, ok := draft[field]; !ok {
			out[field] = nil
		}
	}
	return out
}

// IsEmpty reports whether the change-set carries no updates.
func (v Values) IsEmpty() bool {
	return len(v) == 0
}

// Fields returns the touched field identifiers, unordered.
func (v Values) Fields() []claims.Field {
	out := make([]claims.Field, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	return out
}

// Disallowed returns the subset of touched fields that fall outside the
// given editable set. The edit form consults this before submitting; the
// backend remains the enforcer.
func (v Values) Disallowed(editable []claims.Field) []claims.Field {
	allowed := make(map[claims.Field]struct{}, len(editable))
	for _, f := range editable {
		allowed[f] = struct{}{}
	}
	var out []claims.Field
	for f := range v {
		if _, ok := allowed[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}
