package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onTimeLogSubmitted []OnTimeLogSubmitted
	onTimeLogApproved  []OnTimeLogApproved
	onTimeLogRejected  []OnTimeLogRejected
	onTaskCompleted    []OnTaskCompleted
	onTasksGenerated   []OnTasksGenerated
	onInvoiceGenerated []OnInvoiceGenerated
	onInvoiceSent      []OnInvoiceSent
	onInvoicePaid      []OnInvoicePaid
	onInvoiceOverdue   []OnInvoiceOverdue
	onInvoiceCancelled []OnInvoiceCancelled
	onBudgetThreshold  []OnBudgetThreshold
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTimeLogSubmitted); ok {
		r.onTimeLogSubmitted = append(r.onTimeLogSubmitted, v)
	}
	if v, ok := p.(OnTimeLogApproved); ok {
		r.onTimeLogApproved = append(r.onTimeLogApproved, v)
	}
	if v, ok := p.(OnTimeLogRejected); ok {
		r.onTimeLogRejected = append(r.onTimeLogRejected, v)
	}
	if v, ok := p.(OnTaskCompleted); ok {
		r.onTaskCompleted = append(r.onTaskCompleted, v)
	}
	if v, ok := p.(OnTasksGenerated); ok {
		r.onTasksGenerated = append(r.onTasksGenerated, v)
	}
	if v, ok := p.(OnInvoiceGenerated); ok {
		r.onInvoiceGenerated = append(r.onInvoiceGenerated, v)
	}
	if v, ok := p.(OnInvoiceSent); ok {
		r.onInvoiceSent = append(r.onInvoiceSent, v)
	}
	if v, ok := p.(OnInvoicePaid); ok {
		r.onInvoicePaid = append(r.onInvoicePaid, v)
	}
	if v, ok := p.(OnInvoiceOverdue); ok {
		r.onInvoiceOverdue = append(r.onInvoiceOverdue, v)
	}
	if v, ok := p.(OnInvoiceCancelled); ok {
		r.onInvoiceCancelled = append(r.onInvoiceCancelled, v)
	}
	if v, ok := p.(OnBudgetThreshold); ok {
		r.onBudgetThreshold = append(r.onBudgetThreshold, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", Implements(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnTimeLogSubmitted", reflect.TypeOf((*OnTimeLogSubmitted)(nil)).Elem()},
	{"OnTimeLogApproved", reflect.TypeOf((*OnTimeLogApproved)(nil)).Elem()},
	{"OnTimeLogRejected", reflect.TypeOf((*OnTimeLogRejected)(nil)).Elem()},
	{"OnTaskCompleted", reflect.TypeOf((*OnTaskCompleted)(nil)).Elem()},
	{"OnTasksGenerated", reflect.TypeOf((*OnTasksGenerated)(nil)).Elem()},
	{"OnInvoiceGenerated", reflect.TypeOf((*OnInvoiceGenerated)(nil)).Elem()},
	{"OnInvoiceSent", reflect.TypeOf((*OnInvoiceSent)(nil)).Elem()},
	{"OnInvoicePaid", reflect.TypeOf((*OnInvoicePaid)(nil)).Elem()},
	{"OnInvoiceOverdue", reflect.TypeOf((*OnInvoiceOverdue)(nil)).Elem()},
	{"OnInvoiceCancelled", reflect.TypeOf((*OnInvoiceCancelled)(nil)).Elem()},
	{"OnBudgetThreshold", reflect.TypeOf((*OnBudgetThreshold)(nil)).Elem()},
}

// Implements lists the hook interfaces p satisfies.
func Implements(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnInit", func() error { return p.OnInit(ctx, engine) })
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnShutdown", func() error { return p.OnShutdown(ctx) })
	}
}

// EmitTimeLogSubmitted emits a time log submitted event.
func (r *Registry) EmitTimeLogSubmitted(ctx context.Context, entry *timelog.Entry) {
	r.mu.RLock()
	plugins := r.onTimeLogSubmitted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnTimeLogSubmitted", func() error { return p.OnTimeLogSubmitted(ctx, entry) })
	}
}

// EmitTimeLogApproved emits a time log approved event.
func (r *Registry) EmitTimeLogApproved(ctx context.Context, entry *timelog.Entry) {
	r.mu.RLock()
	plugins := r.onTimeLogApproved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnTimeLogApproved", func() error { return p.OnTimeLogApproved(ctx, entry) })
	}
}

// EmitTimeLogRejected emits a time log rejected event.
func (r *Registry) EmitTimeLogRejected(ctx context.Context, entry *timelog.Entry, reason string) {
	r.mu.RLock()
	plugins := r.onTimeLogRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnTimeLogRejected", func() error { return p.OnTimeLogRejected(ctx, entry, reason) })
	}
}

// EmitTaskCompleted emits a task completed event.
func (r *Registry) EmitTaskCompleted(ctx context.Context, t *task.Task, ev task.EntryApproved) {
	r.mu.RLock()
	plugins := r.onTaskCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnTaskCompleted", func() error { return p.OnTaskCompleted(ctx, t, ev) })
	}
}

// EmitTasksGenerated emits a recurrence run event.
func (r *Registry) EmitTasksGenerated(ctx context.Context, date time.Time, tasks []*task.Task) {
	r.mu.RLock()
	plugins := r.onTasksGenerated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnTasksGenerated", func() error { return p.OnTasksGenerated(ctx, date, tasks) })
	}
}

// EmitInvoiceGenerated emits an invoice generated event.
func (r *Registry) EmitInvoiceGenerated(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceGenerated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnInvoiceGenerated", func() error { return p.OnInvoiceGenerated(ctx, inv) })
	}
}

// EmitInvoiceSent emits an invoice sent event.
func (r *Registry) EmitInvoiceSent(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceSent
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnInvoiceSent", func() error { return p.OnInvoiceSent(ctx, inv) })
	}
}

// EmitInvoicePaid emits an invoice paid event.
func (r *Registry) EmitInvoicePaid(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoicePaid
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnInvoicePaid", func() error { return p.OnInvoicePaid(ctx, inv) })
	}
}

// EmitInvoiceOverdue emits an invoice overdue event.
func (r *Registry) EmitInvoiceOverdue(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceOverdue
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnInvoiceOverdue", func() error { return p.OnInvoiceOverdue(ctx, inv) })
	}
}

// EmitInvoiceCancelled emits an invoice cancelled event.
func (r *Registry) EmitInvoiceCancelled(ctx context.Context, inv *invoice.Invoice, reason string) {
	r.mu.RLock()
	plugins := r.onInvoiceCancelled
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnInvoiceCancelled", func() error { return p.OnInvoiceCancelled(ctx, inv, reason) })
	}
}

// EmitBudgetThreshold emits a budget threshold event.
func (r *Registry) EmitBudgetThreshold(ctx context.Context, year, month int, line budget.Line) {
	r.mu.RLock()
	plugins := r.onBudgetThreshold
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p, "OnBudgetThreshold", func() error { return p.OnBudgetThreshold(ctx, year, month, line) })
	}
}

// dispatch runs one hook and logs its failure. Hook errors never reach the
// caller of the triggering operation.
func (r *Registry) dispatch(ctx context.Context, p Plugin, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, p.Name(), fn); err != nil {
		r.logger.Warn("plugin hook failed",
			"plugin", p.Name(),
			"hook", hook,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
