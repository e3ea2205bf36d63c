package budget

import (
	"context"

	"github.com/xraph/steward/id"
)

type Store interface {
	// Upsert stores b, replacing any budget for the same domicile and month.
	Upsert(ctx context.Context, b *MonthlyBudget) error
	Get(ctx context.Context, domicileID id.DomicileID, year, month int) (*MonthlyBudget, error)
}
