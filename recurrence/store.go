package recurrence

import (
	"context"

	"github.com/xraph/steward/id"
)

type Store interface {
	Create(ctx context.Context, t *Template) error
	Get(ctx context.Context, templateID id.TemplateID) (*Template, error)
	Update(ctx context.Context, t *Template) error
	List(ctx context.Context, opts ListOpts) ([]*Template, error)
	// Claim records g unless its key is already taken. It reports whether
	// this call won the key.
	Claim(ctx context.Context, g *Generation) (bool, error)
	// Release frees a key whose task could not be created.
	Release(ctx context.Context, key Key) error
}

type ListOpts struct {
	OwnerID    string
	DomicileID id.DomicileID
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Match reports whether t satisfies the filter.
func (o ListOpts) Match(t *Template) bool {
	if o.OwnerID != "" && t.OwnerID != o.OwnerID {
		return false
	}
	if !o.DomicileID.IsNil() && t.DomicileID != o.DomicileID {
		return false
	}
	if o.ActiveOnly && !t.IsActive {
		return false
	}
	return true
}
