// Package authz resolves what a caller may do.
//
// Steward never authenticates. The host application hands every operation a
// Principal (user id plus role); an Authorizer turns that into a Grants set
// once per call, and the operation consults only the Grants.
package authz

import (
	"context"
	"sort"
)

// Role is the coarse role supplied by the identity collaborator.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleExecutor Role = "executor"
)

// Principal identifies the caller of an operation.
type Principal struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Admin returns a Principal with the administrator role.
func Admin(userID string) Principal { return Principal{UserID: userID, Role: RoleAdmin} }

// Executor returns a Principal with the executor role.
func Executor(userID string) Principal { return Principal{UserID: userID, Role: RoleExecutor} }

// Capability is a single permission checked by an operation.
type Capability string

const (
	// CapLogTime allows submitting time against tasks assigned to the caller.
	CapLogTime Capability = "timelog:submit"
	// CapReviewTime allows approving and rejecting ledger entries.
	CapReviewTime Capability = "timelog:review"
	// CapManageTimeLogs allows viewing, editing and deleting anyone's entries.
	CapManageTimeLogs Capability = "timelog:manage"
	CapManageTasks    Capability = "task:manage"
	CapManageInvoices Capability = "invoice:manage"
	CapManageSites    Capability = "domicile:manage"
	CapViewBudgets    Capability = "budget:view"
	CapManageRecur    Capability = "recurrence:manage"
	CapEstimate       Capability = "estimate:view"
)

// Grants is the resolved capability set for one call.
type Grants struct {
	Principal Principal
	caps      map[Capability]struct{}
}

// NewGrants builds a Grants set for p.
func NewGrants(p Principal, caps ...Capability) Grants {
	g := Grants{Principal: p, caps: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		g.caps[c] = struct{}{}
	}
	return g
}

// Can reports whether c was granted.
func (g Grants) Can(c Capability) bool {
	_, ok := g.caps[c]
	return ok
}

// UserID is shorthand for g.Principal.UserID.
func (g Grants) UserID() string { return g.Principal.UserID }

// Capabilities returns the granted capabilities, sorted.
func (g Grants) Capabilities() []Capability {
	out := make([]Capability, 0, len(g.caps))
	for c := range g.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Authorizer resolves a Principal into Grants.
type Authorizer interface {
	Authorize(ctx context.Context, p Principal) (Grants, error)
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, p Principal) (Grants, error)

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, p Principal) (Grants, error) {
	return f(ctx, p)
}

// RoleAuthorizer maps roles to fixed capability sets.
type RoleAuthorizer struct {
	table map[Role][]Capability
}

// NewRoleAuthorizer returns the default role table: administrators hold every
// capability, executors may log time and read estimates.
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{table: map[Role][]Capability{
		RoleAdmin: {
			CapLogTime, CapReviewTime, CapManageTimeLogs, CapManageTasks,
			CapManageInvoices, CapManageSites, CapViewBudgets, CapManageRecur,
			CapEstimate,
		},
		RoleExecutor: {CapLogTime, CapEstimate},
	}}
}

// WithRole replaces the capability set for role.
func (a *RoleAuthorizer) WithRole(role Role, caps ...Capability) *RoleAuthorizer {
	a.table[role] = caps
	return a
}

// Authorize implements Authorizer. Unknown roles get an empty set.
func (a *RoleAuthorizer) Authorize(_ context.Context, p Principal) (Grants, error) {
	return NewGrants(p, a.table[p.Role]...), nil
}
