// Package timelog models the time-log approval ledger: spans of worked time
// submitted by executors and reviewed by administrators.
package timelog

import (
	"time"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/types"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Entry is a ledger entry. DomicileID is copied from the task on submission
// so aggregates can filter by site without a join.
type Entry struct {
	types.Entity
	ID              id.TimeLogID  `json:"id"`
	TaskID          id.TaskID     `json:"task_id"`
	DomicileID      id.DomicileID `json:"domicile_id"`
	ExecutorID      string        `json:"executor_id"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	DurationSeconds int64         `json:"duration_seconds"`
	HoursWorked     float64       `json:"hours_worked"`
	Status          Status        `json:"status"`
	Notes           string        `json:"notes,omitempty"`
	ValidatedBy     string        `json:"validated_by,omitempty"`
	ValidatedAt     *time.Time    `json:"validated_at,omitempty"`
}

// Pending reports whether the entry is still awaiting review.
func (e *Entry) Pending() bool { return e.Status == StatusPending }

// Aggregate is a (domicile, executor) group of ledger entries.
type Aggregate struct {
	DomicileID id.DomicileID `json:"domicile_id"`
	ExecutorID string        `json:"executor_id"`
	Seconds    int64         `json:"seconds"`
	Entries    int64         `json:"entries"`
}

// Hours returns the group's total in hours.
func (a Aggregate) Hours() float64 { return Hours(a.Seconds) }
