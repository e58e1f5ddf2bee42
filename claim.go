package claims

import "time"

// Claim is the record being edited. Business fields live in a flat map so
// the edit form, the diff helper and the lifecycle field sets all speak the
// same shape.
type Claim struct {
	ID        string         `json:"id"`
	Status    Status         `json:"status"`
	Fields    map[Field]any  `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Projection is the status-bearing shape remote operations respond with.
type Projection struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Field returns the named field value, nil when unset.
func (c *Claim) Field(name Field) any {
	if c == nil || c.Fields == nil {
		return nil
	}
	return c.Fields[name]
}

// Clone returns a deep-enough copy for draft editing: the field map is
// copied, field values are shared.
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Fields != nil {
		cp.Fields = make(map[Field]any, len(c.Fields))
		for k, v := range c.Fields {
			cp.Fields[k] = v
		}
	}
	return &cp
}
