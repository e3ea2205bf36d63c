package authz

import (
	"context"
	"testing"
)

func TestRoleAuthorizer(t *testing.T) {
	a := NewRoleAuthorizer()
	ctx := context.Background()

	tests := []struct {
		name      string
		principal Principal
		cap       Capability
		want      bool
	}{
		{"admin reviews", Admin("u1"), CapReviewTime, true},
		{"admin manages invoices", Admin("u1"), CapManageInvoices, true},
		{"executor logs time", Executor("u2"), CapLogTime, true},
		{"executor cannot review", Executor("u2"), CapReviewTime, false},
		{"executor cannot see budgets", Executor("u2"), CapViewBudgets, false},
		{"unknown role has nothing", Principal{UserID: "u3", Role: "guest"}, CapLogTime, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := a.Authorize(ctx, tt.principal)
			if err != nil {
				t.Fatal(err)
			}
			if got := g.Can(tt.cap); got != tt.want {
				t.Errorf("Can(%s) = %v, want %v", tt.cap, got, tt.want)
			}
			if g.UserID() != tt.principal.UserID {
				t.Errorf("UserID() = %q", g.UserID())
			}
		})
	}
}

func TestWithRole(t *testing.T) {
	a := NewRoleAuthorizer().WithRole(RoleExecutor, CapLogTime, CapViewBudgets)
	g, _ := a.Authorize(context.Background(), Executor("u"))
	if !g.Can(CapViewBudgets) {
		t.Error("expected overridden executor to view budgets")
	}
	if g.Can(CapEstimate) {
		t.Error("override should replace, not extend")
	}
	if got := len(g.Capabilities()); got != 2 {
		t.Errorf("Capabilities() len = %d, want 2", got)
	}
}
