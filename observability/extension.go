// Package observability provides a metrics extension for Steward that records
// ledger, invoice, recurrence and budget event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnTimeLogSubmitted = (*MetricsExtension)(nil)
	_ plugin.OnTimeLogApproved  = (*MetricsExtension)(nil)
	_ plugin.OnTimeLogRejected  = (*MetricsExtension)(nil)
	_ plugin.OnTaskCompleted    = (*MetricsExtension)(nil)
	_ plugin.OnTasksGenerated   = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceGenerated = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceSent      = (*MetricsExtension)(nil)
	_ plugin.OnInvoicePaid      = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceOverdue   = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCancelled = (*MetricsExtension)(nil)
	_ plugin.OnBudgetThreshold  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Steward plugin to track workforce metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Ledger metrics
	TimeLogSubmitted Counter
	TimeLogApproved  Counter
	TimeLogRejected  Counter
	ApprovedHours    Histogram
	ReviewLatency    Histogram

	// Task metrics
	TaskCompleted  Counter
	TasksGenerated Counter
	GenerationRuns Counter

	// Invoice metrics
	InvoiceGenerated Counter
	InvoiceSent      Counter
	InvoicePaid      Counter
	InvoiceOverdue   Counter
	InvoiceCancelled Counter
	InvoiceTotal     Histogram

	// Budget metrics
	BudgetWarning Counter
	BudgetOver    Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		TimeLogSubmitted: factory.Counter("steward.timelog.submitted"),
		TimeLogApproved:  factory.Counter("steward.timelog.approved"),
		TimeLogRejected:  factory.Counter("steward.timelog.rejected"),
		ApprovedHours:    factory.Histogram("steward.timelog.approved_hours"),
		ReviewLatency:    factory.Histogram("steward.timelog.review_latency_s"),

		TaskCompleted:  factory.Counter("steward.task.completed"),
		TasksGenerated: factory.Counter("steward.recurrence.tasks_generated"),
		GenerationRuns: factory.Counter("steward.recurrence.runs"),

		InvoiceGenerated: factory.Counter("steward.invoice.generated"),
		InvoiceSent:      factory.Counter("steward.invoice.sent"),
		InvoicePaid:      factory.Counter("steward.invoice.paid"),
		InvoiceOverdue:   factory.Counter("steward.invoice.overdue"),
		InvoiceCancelled: factory.Counter("steward.invoice.cancelled"),
		InvoiceTotal:     factory.Histogram("steward.invoice.total_amount"),

		BudgetWarning: factory.Counter("steward.budget.warning"),
		BudgetOver:    factory.Counter("steward.budget.over"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTimeLogSubmitted implements plugin.OnTimeLogSubmitted.
func (m *MetricsExtension) OnTimeLogSubmitted(_ context.Context, _ *timelog.Entry) error {
	m.TimeLogSubmitted.Inc()
	return nil
}

// OnTimeLogApproved implements plugin.OnTimeLogApproved.
func (m *MetricsExtension) OnTimeLogApproved(_ context.Context, entry *timelog.Entry) error {
	m.TimeLogApproved.Inc()
	m.ApprovedHours.Observe(entry.HoursWorked)
	m.observeReview(entry)
	return nil
}

// OnTimeLogRejected implements plugin.OnTimeLogRejected.
func (m *MetricsExtension) OnTimeLogRejected(_ context.Context, entry *timelog.Entry, _ string) error {
	m.TimeLogRejected.Inc()
	m.observeReview(entry)
	return nil
}

func (m *MetricsExtension) observeReview(entry *timelog.Entry) {
	if entry.ValidatedAt == nil {
		return
	}
	m.ReviewLatency.Observe(entry.ValidatedAt.Sub(entry.CreatedAt).Seconds())
}

// ──────────────────────────────────────────────────
// Task hooks
// ──────────────────────────────────────────────────

// OnTaskCompleted implements plugin.OnTaskCompleted.
func (m *MetricsExtension) OnTaskCompleted(_ context.Context, _ *task.Task, _ task.EntryApproved) error {
	m.TaskCompleted.Inc()
	return nil
}

// OnTasksGenerated implements plugin.OnTasksGenerated.
func (m *MetricsExtension) OnTasksGenerated(_ context.Context, _ time.Time, tasks []*task.Task) error {
	m.GenerationRuns.Inc()
	m.TasksGenerated.Add(float64(len(tasks)))
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated implements plugin.OnInvoiceGenerated.
func (m *MetricsExtension) OnInvoiceGenerated(_ context.Context, inv *invoice.Invoice) error {
	m.InvoiceGenerated.Inc()
	m.InvoiceTotal.Observe(float64(inv.Total.Amount))
	return nil
}

// OnInvoiceSent implements plugin.OnInvoiceSent.
func (m *MetricsExtension) OnInvoiceSent(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceSent.Inc()
	return nil
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (m *MetricsExtension) OnInvoicePaid(_ context.Context, _ *invoice.Invoice) error {
	m.InvoicePaid.Inc()
	return nil
}

// OnInvoiceOverdue implements plugin.OnInvoiceOverdue.
func (m *MetricsExtension) OnInvoiceOverdue(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceOverdue.Inc()
	return nil
}

// OnInvoiceCancelled implements plugin.OnInvoiceCancelled.
func (m *MetricsExtension) OnInvoiceCancelled(_ context.Context, _ *invoice.Invoice, _ string) error {
	m.InvoiceCancelled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Budget hooks
// ──────────────────────────────────────────────────

// OnBudgetThreshold implements plugin.OnBudgetThreshold.
func (m *MetricsExtension) OnBudgetThreshold(_ context.Context, _, _ int, line budget.Line) error {
	switch line.Status {
	case budget.StatusOver:
		m.BudgetOver.Inc()
	case budget.StatusWarning:
		m.BudgetWarning.Inc()
	}
	return nil
}
