package steward

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/clock"
	"github.com/xraph/steward/estimate"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/sequence"
	"github.com/xraph/steward/store"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/types"
)

// Default configuration values.
const (
	DefaultInvoiceDueDays    = 30
	DefaultFallbackRateCents = 2500
	DefaultBudgetFanOut      = 8
)

// Engine runs the workforce ledger: time-log approval, invoicing, budget
// projection, recurrence generation and duration estimates. All operations
// are synchronous; sweeps and generation runs are triggered by the caller.
type Engine struct {
	store   store.Store
	tx      store.Transactor
	plugins *plugin.Registry
	logger  *slog.Logger

	clock      clock.Clock
	authorizer authz.Authorizer
	sequencer  sequence.Sequencer
	completion *task.CompletionHandler

	// Configuration
	currency       string
	defaultTaxRate decimal.Decimal
	fallbackRate   int64
	dueDays        int
	sampleSize     int
	budgetFanOut   int

	estimates singleflight.Group
}

// New creates a new Engine on top of s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:          s,
		plugins:        plugin.NewRegistry(),
		logger:         slog.Default(),
		clock:          clock.System,
		authorizer:     authz.NewRoleAuthorizer(),
		currency:       types.DefaultCurrency,
		defaultTaxRate: invoice.DefaultTaxRate,
		fallbackRate:   DefaultFallbackRateCents,
		dueDays:        DefaultInvoiceDueDays,
		sampleSize:     estimate.SampleSize,
		budgetFanOut:   DefaultBudgetFanOut,
	}

	if tx, ok := s.(store.Transactor); ok {
		e.tx = tx
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.sequencer == nil {
		e.sequencer = sequence.Func(s.NextInvoiceSequence)
	}
	e.completion = task.NewCompletionHandler(taskStore{s}, e.clock.Now)

	return e
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("steward started",
		"currency", e.currency,
		"default_tax_rate", e.defaultTaxRate.String(),
		"invoice_due_days", e.dueDays,
		"transactional", e.tx != nil,
	)
	return nil
}

// Stop notifies plugins and closes the store.
func (e *Engine) Stop(ctx context.Context) error {
	e.plugins.EmitShutdown(ctx)
	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// authorize resolves the caller's grants once and checks every required
// capability against them.
func (e *Engine) authorize(ctx context.Context, p authz.Principal, required ...authz.Capability) (authz.Grants, error) {
	if p.UserID == "" {
		return authz.Grants{}, ErrNoPrincipal
	}

	g, err := e.authorizer.Authorize(ctx, p)
	if err != nil {
		return authz.Grants{}, fmt.Errorf("%w: %w", ErrForbidden, err)
	}

	for _, c := range required {
		if !g.Can(c) {
			return authz.Grants{}, fmt.Errorf("%w: %s", ErrMissingCapability, c)
		}
	}
	return g, nil
}

// inTx runs fn inside the store's transaction boundary when it has one.
func (e *Engine) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.tx != nil {
		return e.tx.RunInTx(ctx, fn)
	}
	return fn(ctx)
}

func (e *Engine) money(cents int64) types.Money { return types.New(cents, e.currency) }

// billable rejects stored amounts recorded in another currency, for example
// rates saved before the billing currency changed.
func (e *Engine) billable(m types.Money) error {
	if m.Currency != e.currency {
		return fmt.Errorf("%w: %s, billing in %s", ErrCurrencyMismatch, m.Currency, e.currency)
	}
	return nil
}

// taskStore narrows store.Store to task.Store for the completion handler.
type taskStore struct{ s store.Store }

func (t taskStore) Create(ctx context.Context, tk *task.Task) error { return t.s.CreateTask(ctx, tk) }
func (t taskStore) Get(ctx context.Context, taskID id.TaskID) (*task.Task, error) {
	return t.s.GetTask(ctx, taskID)
}
func (t taskStore) Update(ctx context.Context, tk *task.Task) error { return t.s.UpdateTask(ctx, tk) }
func (t taskStore) List(ctx context.Context, opts task.ListOpts) ([]*task.Task, error) {
	return t.s.ListTasks(ctx, opts)
}
