// Package audithook bridges Steward lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// particular audit system. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnTimeLogSubmitted = (*Extension)(nil)
	_ plugin.OnTimeLogApproved  = (*Extension)(nil)
	_ plugin.OnTimeLogRejected  = (*Extension)(nil)
	_ plugin.OnTaskCompleted    = (*Extension)(nil)
	_ plugin.OnTasksGenerated   = (*Extension)(nil)
	_ plugin.OnInvoiceGenerated = (*Extension)(nil)
	_ plugin.OnInvoiceSent      = (*Extension)(nil)
	_ plugin.OnInvoicePaid      = (*Extension)(nil)
	_ plugin.OnInvoiceOverdue   = (*Extension)(nil)
	_ plugin.OnInvoiceCancelled = (*Extension)(nil)
	_ plugin.OnBudgetThreshold  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral audit record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Steward lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	logger   *slog.Logger

	only        map[string]struct{}
	skip        map[string]struct{}
	minSeverity int
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTimeLogSubmitted implements plugin.OnTimeLogSubmitted.
func (e *Extension) OnTimeLogSubmitted(ctx context.Context, entry *timelog.Entry) error {
	return e.record(ctx, ActionTimeLogSubmitted, SeverityInfo, OutcomeSuccess,
		ResourceTimeLog, entry.ID.String(), CategoryLedger, nil,
		"task_id", entry.TaskID.String(),
		"executor_id", entry.ExecutorID,
		"duration_seconds", entry.DurationSeconds,
	)
}

// OnTimeLogApproved implements plugin.OnTimeLogApproved.
func (e *Extension) OnTimeLogApproved(ctx context.Context, entry *timelog.Entry) error {
	return e.record(ctx, ActionTimeLogApproved, SeverityInfo, OutcomeSuccess,
		ResourceTimeLog, entry.ID.String(), CategoryLedger, nil,
		"task_id", entry.TaskID.String(),
		"executor_id", entry.ExecutorID,
		"validated_by", entry.ValidatedBy,
		"duration_seconds", entry.DurationSeconds,
	)
}

// OnTimeLogRejected implements plugin.OnTimeLogRejected.
func (e *Extension) OnTimeLogRejected(ctx context.Context, entry *timelog.Entry, reason string) error {
	return e.record(ctx, ActionTimeLogRejected, SeverityWarning, OutcomeSuccess,
		ResourceTimeLog, entry.ID.String(), CategoryLedger, nil,
		"task_id", entry.TaskID.String(),
		"executor_id", entry.ExecutorID,
		"validated_by", entry.ValidatedBy,
		"reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Task hooks
// ──────────────────────────────────────────────────

// OnTaskCompleted implements plugin.OnTaskCompleted.
func (e *Extension) OnTaskCompleted(ctx context.Context, t *task.Task, ev task.EntryApproved) error {
	return e.record(ctx, ActionTaskCompleted, SeverityInfo, OutcomeSuccess,
		ResourceTask, t.ID.String(), CategoryScheduling, nil,
		"entry_id", ev.EntryID.String(),
		"approved_by", ev.ApprovedBy,
	)
}

// OnTasksGenerated implements plugin.OnTasksGenerated.
func (e *Extension) OnTasksGenerated(ctx context.Context, date time.Time, tasks []*task.Task) error {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID.String())
	}
	return e.record(ctx, ActionTasksGenerated, SeverityInfo, OutcomeSuccess,
		ResourceTemplate, "", CategoryScheduling, nil,
		"date", date.Format(time.DateOnly),
		"task_ids", ids,
	)
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated implements plugin.OnInvoiceGenerated.
func (e *Extension) OnInvoiceGenerated(ctx context.Context, inv *invoice.Invoice) error {
	return e.invoice(ctx, ActionInvoiceGenerated, SeverityInfo, CategoryBilling, inv,
		"entries", inv.EntryCount,
		"total", inv.Total.Amount,
		"currency", inv.Total.Currency,
	)
}

// OnInvoiceSent implements plugin.OnInvoiceSent.
func (e *Extension) OnInvoiceSent(ctx context.Context, inv *invoice.Invoice) error {
	return e.invoice(ctx, ActionInvoiceSent, SeverityInfo, CategoryBilling, inv,
		"due_date", inv.DueDate.Format(time.DateOnly),
	)
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (e *Extension) OnInvoicePaid(ctx context.Context, inv *invoice.Invoice) error {
	return e.invoice(ctx, ActionInvoicePaid, SeverityInfo, CategoryPayment, inv,
		"total", inv.Total.Amount,
	)
}

// OnInvoiceOverdue implements plugin.OnInvoiceOverdue.
func (e *Extension) OnInvoiceOverdue(ctx context.Context, inv *invoice.Invoice) error {
	return e.invoice(ctx, ActionInvoiceOverdue, SeverityWarning, CategoryPayment, inv,
		"due_date", inv.DueDate.Format(time.DateOnly),
	)
}

// OnInvoiceCancelled implements plugin.OnInvoiceCancelled.
func (e *Extension) OnInvoiceCancelled(ctx context.Context, inv *invoice.Invoice, reason string) error {
	return e.invoice(ctx, ActionInvoiceCancelled, SeverityWarning, CategoryBilling, inv,
		"cancel_reason", reason,
	)
}

func (e *Extension) invoice(ctx context.Context, action, severity, category string, inv *invoice.Invoice, kv ...any) error {
	kv = append([]any{"number", inv.Number, "domicile_id", inv.DomicileID.String()}, kv...)
	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), category, nil, kv...)
}

// ──────────────────────────────────────────────────
// Budget hooks
// ──────────────────────────────────────────────────

// OnBudgetThreshold implements plugin.OnBudgetThreshold.
func (e *Extension) OnBudgetThreshold(ctx context.Context, year, month int, line budget.Line) error {
	severity := SeverityWarning
	if line.Status == budget.StatusOver {
		severity = SeverityCritical
	}
	kv := []any{
		"year", year,
		"month", month,
		"status", string(line.Status),
		"spent", line.Spent.Amount,
	}
	if line.PercentUsed != nil {
		kv = append(kv, "percent_used", *line.PercentUsed)
	}
	return e.record(ctx, ActionBudgetThreshold, severity, OutcomeSuccess,
		ResourceBudget, line.DomicileID.String(), CategoryBudget, nil, kv...)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the filters allow it.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if !e.allows(action, severity) {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
