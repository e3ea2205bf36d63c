// Package task models work items assigned to executors at a domicile.
package task

import (
	"time"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/types"
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	types.Entity
	ID                 id.TaskID     `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description,omitempty"`
	DomicileID         id.DomicileID `json:"domicile_id"`
	AssignedExecutorID string        `json:"assigned_executor_id"`
	Status             Status        `json:"status"`
	PlannedStart       time.Time     `json:"planned_start"`
	PlannedEnd         time.Time     `json:"planned_end"`
	ActualStart        *time.Time    `json:"actual_start,omitempty"`
	ActualEnd          *time.Time    `json:"actual_end,omitempty"`
	TemplateID         id.TemplateID `json:"template_id,omitempty"`
	CreatedBy          string        `json:"created_by"`
}

// AssignedTo reports whether executorID is the task's assignee.
func (t *Task) AssignedTo(executorID string) bool {
	return executorID != "" && t.AssignedExecutorID == executorID
}

// Completed reports whether the task reached its terminal status.
func (t *Task) Completed() bool { return t.Status == StatusCompleted }
