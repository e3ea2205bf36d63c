// Package plugin provides an extensible plugin system for Steward.
// Plugins hook into ledger, invoice, recurrence and budget events. Hooks run
// after the triggering operation has committed and cannot veto it.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *steward.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTimeLogSubmitted is called when an executor submits time.
type OnTimeLogSubmitted interface {
	Plugin
	OnTimeLogSubmitted(ctx context.Context, entry *timelog.Entry) error
}

// OnTimeLogApproved is called when an entry is approved.
type OnTimeLogApproved interface {
	Plugin
	OnTimeLogApproved(ctx context.Context, entry *timelog.Entry) error
}

// OnTimeLogRejected is called when an entry is rejected.
type OnTimeLogRejected interface {
	Plugin
	OnTimeLogRejected(ctx context.Context, entry *timelog.Entry, reason string) error
}

// ──────────────────────────────────────────────────
// Task hooks
// ──────────────────────────────────────────────────

// OnTaskCompleted is called when an approval completes a task.
type OnTaskCompleted interface {
	Plugin
	OnTaskCompleted(ctx context.Context, t *task.Task, ev task.EntryApproved) error
}

// OnTasksGenerated is called after a recurrence run created tasks.
type OnTasksGenerated interface {
	Plugin
	OnTasksGenerated(ctx context.Context, date time.Time, tasks []*task.Task) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated is called when an invoice is generated.
type OnInvoiceGenerated interface {
	Plugin
	OnInvoiceGenerated(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceSent is called when a draft is sent.
type OnInvoiceSent interface {
	Plugin
	OnInvoiceSent(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoicePaid is called when an invoice is paid.
type OnInvoicePaid interface {
	Plugin
	OnInvoicePaid(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceOverdue is called when the sweep marks an invoice overdue.
type OnInvoiceOverdue interface {
	Plugin
	OnInvoiceOverdue(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceCancelled is called when an invoice is cancelled.
type OnInvoiceCancelled interface {
	Plugin
	OnInvoiceCancelled(ctx context.Context, inv *invoice.Invoice, reason string) error
}

// ──────────────────────────────────────────────────
// Budget hooks
// ──────────────────────────────────────────────────

// OnBudgetThreshold is called for each domicile whose budget line is in
// warning or over when an overview is computed.
type OnBudgetThreshold interface {
	Plugin
	OnBudgetThreshold(ctx context.Context, year, month int, line budget.Line) error
}
