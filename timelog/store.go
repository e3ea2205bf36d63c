package timelog

import (
	"context"
	"time"

	"github.com/xraph/steward/id"
)

type Store interface {
	Create(ctx context.Context, e *Entry) error
	Get(ctx context.Context, entryID id.TimeLogID) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, entryID id.TimeLogID) error
	List(ctx context.Context, opts ListOpts) ([]*Entry, error)
	Sum(ctx context.Context, opts ListOpts) ([]*Aggregate, error)
	CountTasks(ctx context.Context, opts ListOpts) (int64, error)
}

// ListOpts filters ledger queries. Zero values mean "any". Results are
// ordered newest StartTime first.
//
// StartFrom is inclusive and StartBefore exclusive on StartTime; EndBy is an
// inclusive upper bound on EndTime.
type ListOpts struct {
	TaskID      id.TaskID
	ExecutorID  string
	DomicileIDs []id.DomicileID
	Status      Status
	StartFrom   time.Time
	StartBefore time.Time
	EndBy       time.Time
	Limit       int
	Offset      int
}

// Match reports whether e satisfies the filter. In-memory backends use it;
// SQL and document backends translate the same rules into queries.
func (o ListOpts) Match(e *Entry) bool {
	if !o.TaskID.IsNil() && e.TaskID != o.TaskID {
		return false
	}
	if o.ExecutorID != "" && e.ExecutorID != o.ExecutorID {
		return false
	}
	if len(o.DomicileIDs) > 0 {
		found := false
		for _, d := range o.DomicileIDs {
			if d == e.DomicileID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if o.Status != "" && e.Status != o.Status {
		return false
	}
	if !o.StartFrom.IsZero() && e.StartTime.Before(o.StartFrom) {
		return false
	}
	if !o.StartBefore.IsZero() && !e.StartTime.Before(o.StartBefore) {
		return false
	}
	if !o.EndBy.IsZero() && e.EndTime.After(o.EndBy) {
		return false
	}
	return true
}
