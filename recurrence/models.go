// Package recurrence models recurring task templates and decides on which
// calendar days they produce concrete tasks.
package recurrence

import (
	"time"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/types"
)

type Frequency string

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly:
		return true
	}
	return false
}

// Template is a rule from which tasks are spawned.
//
// DaysOfWeek uses time.Weekday numbering (0 = Sunday) and matters only for
// weekly and biweekly templates. PreferredStartTime is "HH:MM" or empty.
// StartDate and EndDate are calendar dates; their time of day is ignored.
type Template struct {
	types.Entity
	ID                       id.TemplateID `json:"id"`
	OwnerID                  string        `json:"owner_id"`
	Title                    string        `json:"title"`
	Description              string        `json:"description,omitempty"`
	DomicileID               id.DomicileID `json:"domicile_id"`
	AssignedExecutorID       string        `json:"assigned_executor_id"`
	Frequency                Frequency     `json:"frequency"`
	DaysOfWeek               []int         `json:"days_of_week,omitempty"`
	PreferredStartTime       string        `json:"preferred_start_time,omitempty"`
	EstimatedDurationMinutes *int          `json:"estimated_duration_minutes,omitempty"`
	StartDate                time.Time     `json:"start_date"`
	EndDate                  *time.Time    `json:"end_date,omitempty"`
	IsActive                 bool          `json:"is_active"`
	LastGeneratedAt          *time.Time    `json:"last_generated_at,omitempty"`
}

// Generation records that a template produced a task for a date.
type Generation struct {
	Key       Key       `json:"key"`
	TaskID    id.TaskID `json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
}
