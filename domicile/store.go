package domicile

import (
	"context"

	"github.com/xraph/steward/id"
)

type Store interface {
	Create(ctx context.Context, d *Domicile) error
	Get(ctx context.Context, domicileID id.DomicileID) (*Domicile, error)
	List(ctx context.Context, ownerID string) ([]*Domicile, error)
	SetRate(ctx context.Context, r *ExecutorRate) error
	GetRate(ctx context.Context, domicileID id.DomicileID, executorID string) (*ExecutorRate, error)
}
