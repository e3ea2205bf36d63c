// Package domicile models client sites and the per-site executor rates.
package domicile

import (
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/types"
)

// Domicile is a client site. OwnerID is the administrator who manages it.
type Domicile struct {
	types.Entity
	ID       id.DomicileID     `json:"id"`
	Name     string            `json:"name"`
	Address  string            `json:"address,omitempty"`
	OwnerID  string            `json:"owner_id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ExecutorRate is the hourly billing rate for one executor at one domicile.
type ExecutorRate struct {
	types.Entity
	ID         id.RateID     `json:"id"`
	DomicileID id.DomicileID `json:"domicile_id"`
	ExecutorID string        `json:"executor_id"`
	HourlyRate types.Money   `json:"hourly_rate"`
}

// Configured reports whether the rate can be used for billing.
func (r *ExecutorRate) Configured() bool {
	return r != nil && r.HourlyRate.IsPositive()
}
