package types

import "time"

// Entity is the base type for all Steward entities with timestamps.
// Timestamps come from the caller's clock, never from ambient time.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates an Entity stamped at now.
func NewEntity(now time.Time) Entity {
	now = now.UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch sets UpdatedAt to now.
func (e *Entity) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
}
