package steward

import (
	"context"
	"strings"

	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/domicile"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/types"
)

// CreateDomicile registers a client site owned by the calling administrator.
func (e *Engine) CreateDomicile(ctx context.Context, p authz.Principal, name, address string) (*domicile.Domicile, error) {
	g, err := e.authorize(ctx, p, authz.CapManageSites)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	d := &domicile.Domicile{
		Entity:  types.NewEntity(e.clock.Now()),
		ID:      id.NewDomicileID(),
		Name:    name,
		Address: strings.TrimSpace(address),
		OwnerID: g.UserID(),
	}
	if err := e.store.CreateDomicile(ctx, d); err != nil {
		return nil, err
	}

	e.logger.Debug("domicile created", "domicile_id", d.ID.String(), "owner_id", d.OwnerID)
	return d, nil
}

// GetDomicile returns a site owned by the caller.
func (e *Engine) GetDomicile(ctx context.Context, p authz.Principal, domicileID id.DomicileID) (*domicile.Domicile, error) {
	g, err := e.authorize(ctx, p, authz.CapManageSites)
	if err != nil {
		return nil, err
	}
	return e.ownedDomicile(ctx, g, domicileID)
}

// ListDomiciles returns the caller's sites.
func (e *Engine) ListDomiciles(ctx context.Context, p authz.Principal) ([]*domicile.Domicile, error) {
	g, err := e.authorize(ctx, p, authz.CapManageSites)
	if err != nil {
		return nil, err
	}
	return e.store.ListDomiciles(ctx, g.UserID())
}

// SetExecutorRate sets the hourly rate, in minor units, billed for executorID
// at domicileID.
func (e *Engine) SetExecutorRate(ctx context.Context, p authz.Principal, domicileID id.DomicileID, executorID string, hourlyCents int64) (*domicile.ExecutorRate, error) {
	g, err := e.authorize(ctx, p, authz.CapManageSites)
	if err != nil {
		return nil, err
	}
	if executorID == "" {
		return nil, invalid("executor_id", "is required")
	}
	if hourlyCents <= 0 {
		return nil, ErrInvalidRate
	}
	if _, err := e.ownedDomicile(ctx, g, domicileID); err != nil {
		return nil, err
	}

	r := &domicile.ExecutorRate{
		Entity:     types.NewEntity(e.clock.Now()),
		ID:         id.NewRateID(),
		DomicileID: domicileID,
		ExecutorID: executorID,
		HourlyRate: e.money(hourlyCents),
	}
	if err := e.store.SetExecutorRate(ctx, r); err != nil {
		return nil, err
	}

	e.logger.Debug("executor rate set",
		"domicile_id", domicileID.String(),
		"executor_id", executorID,
		"hourly_rate", r.HourlyRate.String(),
	)
	return r, nil
}

// ownedDomicile loads a domicile and checks that the caller owns it.
func (e *Engine) ownedDomicile(ctx context.Context, g authz.Grants, domicileID id.DomicileID) (*domicile.Domicile, error) {
	if domicileID.IsNil() {
		return nil, invalid("domicile_id", "is required")
	}
	d, err := e.store.GetDomicile(ctx, domicileID)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != g.UserID() {
		return nil, ErrNotOwner
	}
	return d, nil
}
