package task

import (
	"context"
	"time"

	"github.com/xraph/steward/id"
)

type Store interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, taskID id.TaskID) (*Task, error)
	Update(ctx context.Context, t *Task) error
	List(ctx context.Context, opts ListOpts) ([]*Task, error)
}

// ListOpts filters task listings. Zero values mean "any".
// PlannedFrom is inclusive, PlannedTo exclusive.
type ListOpts struct {
	DomicileID  id.DomicileID
	ExecutorID  string
	Status      Status
	TemplateID  id.TemplateID
	PlannedFrom time.Time
	PlannedTo   time.Time
	Limit       int
	Offset      int
}

// Match reports whether t satisfies the filter.
func (o ListOpts) Match(t *Task) bool {
	if !o.DomicileID.IsNil() && t.DomicileID != o.DomicileID {
		return false
	}
	if o.ExecutorID != "" && t.AssignedExecutorID != o.ExecutorID {
		return false
	}
	if o.Status != "" && t.Status != o.Status {
		return false
	}
	if !o.TemplateID.IsNil() && t.TemplateID != o.TemplateID {
		return false
	}
	if !o.PlannedFrom.IsZero() && t.PlannedStart.Before(o.PlannedFrom) {
		return false
	}
	if !o.PlannedTo.IsZero() && !t.PlannedStart.Before(o.PlannedTo) {
		return false
	}
	return true
}
