package invoice

import (
	"context"
	"time"

	"github.com/xraph/steward/id"
)

type Store interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, invID id.InvoiceID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, invID id.InvoiceID) error
	List(ctx context.Context, opts ListOpts) ([]*Invoice, error)
	// NextSequence atomically increments and returns the counter for period.
	NextSequence(ctx context.Context, period string) (int64, error)
}

// ListOpts filters invoice listings, newest first.
type ListOpts struct {
	DomicileIDs []id.DomicileID
	ExecutorID  string
	Status      Status
	Period      string
	DueBefore   time.Time
	Limit       int
	Offset      int
}

// Match reports whether inv satisfies the filter.
func (o ListOpts) Match(inv *Invoice) bool {
	if len(o.DomicileIDs) > 0 {
		found := false
		for _, d := range o.DomicileIDs {
			if d == inv.DomicileID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if o.ExecutorID != "" && inv.ExecutorID != o.ExecutorID {
		return false
	}
	if o.Status != "" && inv.Status != o.Status {
		return false
	}
	if o.Period != "" && inv.Period != o.Period {
		return false
	}
	if !o.DueBefore.IsZero() && !inv.DueDate.Before(o.DueBefore) {
		return false
	}
	return true
}
