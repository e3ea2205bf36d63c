// Package memory provides an in-memory Store for tests and single-process
// deployments. Values are copied on the way in and out so callers never
// share state with the store.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/xraph/steward"
	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/domicile"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/recurrence"
	"github.com/xraph/steward/store"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
)

var (
	_ store.Store      = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)

type Store struct {
	mu sync.RWMutex
	// txMu serializes units of work run through RunInTx.
	txMu sync.Mutex

	domiciles map[string]*domicile.Domicile
	rates     map[string]*domicile.ExecutorRate // domicile|executor
	budgets   map[string]*budget.MonthlyBudget  // domicile|year|month
	tasks     map[string]*task.Task
	timeLogs  map[string]*timelog.Entry
	invoices  map[string]*invoice.Invoice
	sequences map[string]int64 // YYYYMM
	templates map[string]*recurrence.Template
	claims    map[string]*recurrence.Generation
}

func New() *Store {
	return &Store{
		domiciles: make(map[string]*domicile.Domicile),
		rates:     make(map[string]*domicile.ExecutorRate),
		budgets:   make(map[string]*budget.MonthlyBudget),
		tasks:     make(map[string]*task.Task),
		timeLogs:  make(map[string]*timelog.Entry),
		invoices:  make(map[string]*invoice.Invoice),
		sequences: make(map[string]int64),
		templates: make(map[string]*recurrence.Template),
		claims:    make(map[string]*recurrence.Generation),
	}
}

type txKey struct{}

// RunInTx runs fn while holding the store's unit-of-work lock. When fn fails
// every map is restored to its state before the call. Nested calls join the
// outer unit of work.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// state holds shallow copies of the store maps. Stored values are replaced
// on write and never mutated in place, so copying the maps is enough.
type state struct {
	domiciles map[string]*domicile.Domicile
	rates     map[string]*domicile.ExecutorRate
	budgets   map[string]*budget.MonthlyBudget
	tasks     map[string]*task.Task
	timeLogs  map[string]*timelog.Entry
	invoices  map[string]*invoice.Invoice
	sequences map[string]int64
	templates map[string]*recurrence.Template
	claims    map[string]*recurrence.Generation
}

func (s *Store) snapshot() state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return state{
		domiciles: maps.Clone(s.domiciles),
		rates:     maps.Clone(s.rates),
		budgets:   maps.Clone(s.budgets),
		tasks:     maps.Clone(s.tasks),
		timeLogs:  maps.Clone(s.timeLogs),
		invoices:  maps.Clone(s.invoices),
		sequences: maps.Clone(s.sequences),
		templates: maps.Clone(s.templates),
		claims:    maps.Clone(s.claims),
	}
}

func (s *Store) restore(st state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domiciles = st.domiciles
	s.rates = st.rates
	s.budgets = st.budgets
	s.tasks = st.tasks
	s.timeLogs = st.timeLogs
	s.invoices = st.invoices
	s.sequences = st.sequences
	s.templates = st.templates
	s.claims = st.claims
}

// ──────────────────────────────────────────────────
// Domicile Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateDomicile(_ context.Context, d *domicile.Domicile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.domiciles[d.ID.String()]; exists {
		return steward.ErrAlreadyExists
	}
	c := *d
	s.domiciles[d.ID.String()] = &c
	return nil
}

func (s *Store) GetDomicile(_ context.Context, domicileID id.DomicileID) (*domicile.Domicile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, ok := s.domiciles[domicileID.String()]; ok {
		c := *d
		return &c, nil
	}
	return nil, steward.ErrDomicileNotFound
}

func (s *Store) ListDomiciles(_ context.Context, ownerID string) ([]*domicile.Domicile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domicile.Domicile, 0)
	for _, d := range s.domiciles {
		if ownerID == "" || d.OwnerID == ownerID {
			c := *d
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) SetExecutorRate(_ context.Context, r *domicile.ExecutorRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rateKey(r.DomicileID, r.ExecutorID)
	c := *r
	if existing, ok := s.rates[key]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		r.ID = existing.ID
		r.CreatedAt = existing.CreatedAt
	}
	s.rates[key] = &c
	return nil
}

func (s *Store) GetExecutorRate(_ context.Context, domicileID id.DomicileID, executorID string) (*domicile.ExecutorRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.rates[rateKey(domicileID, executorID)]; ok {
		c := *r
		return &c, nil
	}
	return nil, steward.ErrRateNotFound
}

// ──────────────────────────────────────────────────
// Budget Store implementation
// ──────────────────────────────────────────────────

func (s *Store) UpsertBudget(_ context.Context, b *budget.MonthlyBudget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := budgetKey(b.DomicileID, b.Year, b.Month)
	c := *b
	if existing, ok := s.budgets[key]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		b.ID = existing.ID
		b.CreatedAt = existing.CreatedAt
	}
	s.budgets[key] = &c
	return nil
}

func (s *Store) GetBudget(_ context.Context, domicileID id.DomicileID, year, month int) (*budget.MonthlyBudget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.budgets[budgetKey(domicileID, year, month)]; ok {
		c := *b
		return &c, nil
	}
	return nil, steward.ErrBudgetNotFound
}

// ──────────────────────────────────────────────────
// Task Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateTask(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.ID.String()]; exists {
		return steward.ErrAlreadyExists
	}
	c := *t
	s.tasks[t.ID.String()] = &c
	return nil
}

func (s *Store) GetTask(_ context.Context, taskID id.TaskID) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tasks[taskID.String()]; ok {
		c := *t
		return &c, nil
	}
	return nil, steward.ErrTaskNotFound
}

func (s *Store) UpdateTask(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID.String()]; !ok {
		return steward.ErrTaskNotFound
	}
	c := *t
	s.tasks[t.ID.String()] = &c
	return nil
}

func (s *Store) ListTasks(_ context.Context, opts task.ListOpts) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*task.Task, 0)
	for _, t := range s.tasks {
		if opts.Match(t) {
			c := *t
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PlannedStart.Before(result[j].PlannedStart)
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Time log Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateTimeLog(_ context.Context, e *timelog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.timeLogs[e.ID.String()]; exists {
		return steward.ErrAlreadyExists
	}
	c := *e
	s.timeLogs[e.ID.String()] = &c
	return nil
}

func (s *Store) GetTimeLog(_ context.Context, entryID id.TimeLogID) (*timelog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.timeLogs[entryID.String()]; ok {
		c := *e
		return &c, nil
	}
	return nil, steward.ErrTimeLogNotFound
}

func (s *Store) UpdateTimeLog(_ context.Context, e *timelog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timeLogs[e.ID.String()]; !ok {
		return steward.ErrTimeLogNotFound
	}
	c := *e
	s.timeLogs[e.ID.String()] = &c
	return nil
}

func (s *Store) DeleteTimeLog(_ context.Context, entryID id.TimeLogID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timeLogs[entryID.String()]; !ok {
		return steward.ErrTimeLogNotFound
	}
	delete(s.timeLogs, entryID.String())
	return nil
}

func (s *Store) ListTimeLogs(_ context.Context, opts timelog.ListOpts) ([]*timelog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.matchTimeLogs(opts)
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) SumTimeLogs(_ context.Context, opts timelog.ListOpts) ([]*timelog.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[string]*timelog.Aggregate)
	for _, e := range s.matchTimeLogs(opts) {
		key := rateKey(e.DomicileID, e.ExecutorID)
		a, ok := groups[key]
		if !ok {
			a = &timelog.Aggregate{DomicileID: e.DomicileID, ExecutorID: e.ExecutorID}
			groups[key] = a
		}
		a.Seconds += e.DurationSeconds
		a.Entries++
	}

	result := make([]*timelog.Aggregate, 0, len(groups))
	for _, a := range groups {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DomicileID != result[j].DomicileID {
			return result[i].DomicileID.String() < result[j].DomicileID.String()
		}
		return result[i].ExecutorID < result[j].ExecutorID
	})
	return result, nil
}

func (s *Store) CountTimeLogTasks(_ context.Context, opts timelog.ListOpts) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range s.matchTimeLogs(opts) {
		seen[e.TaskID.String()] = struct{}{}
	}
	return int64(len(seen)), nil
}

// matchTimeLogs returns copies of the matching entries, newest start first.
// Callers hold s.mu.
func (s *Store) matchTimeLogs(opts timelog.ListOpts) []*timelog.Entry {
	result := make([]*timelog.Entry, 0)
	for _, e := range s.timeLogs {
		if opts.Match(e) {
			c := *e
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.After(result[j].StartTime)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return result
}

// ──────────────────────────────────────────────────
// Invoice Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID.String()]; exists {
		return steward.ErrAlreadyExists
	}
	for _, other := range s.invoices {
		if other.Number == inv.Number {
			return fmt.Errorf("%w: invoice number %s", steward.ErrAlreadyExists, inv.Number)
		}
	}
	c := *inv
	s.invoices[inv.ID.String()] = &c
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[invID.String()]; ok {
		c := *inv
		return &c, nil
	}
	return nil, steward.ErrInvoiceNotFound
}

func (s *Store) UpdateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[inv.ID.String()]; !ok {
		return steward.ErrInvoiceNotFound
	}
	c := *inv
	s.invoices[inv.ID.String()] = &c
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, invID id.InvoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[invID.String()]; !ok {
		return steward.ErrInvoiceNotFound
	}
	delete(s.invoices, invID.String())
	return nil
}

func (s *Store) ListInvoices(_ context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if opts.Match(inv) {
			c := *inv
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number > result[j].Number })
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) NextInvoiceSequence(_ context.Context, period string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequences[period]++
	return s.sequences[period], nil
}

// ──────────────────────────────────────────────────
// Recurrence Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateTemplate(_ context.Context, t *recurrence.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[t.ID.String()]; exists {
		return steward.ErrAlreadyExists
	}
	s.templates[t.ID.String()] = cloneTemplate(t)
	return nil
}

func (s *Store) GetTemplate(_ context.Context, templateID id.TemplateID) (*recurrence.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.templates[templateID.String()]; ok {
		return cloneTemplate(t), nil
	}
	return nil, steward.ErrTemplateNotFound
}

func (s *Store) UpdateTemplate(_ context.Context, t *recurrence.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[t.ID.String()]; !ok {
		return steward.ErrTemplateNotFound
	}
	s.templates[t.ID.String()] = cloneTemplate(t)
	return nil
}

func (s *Store) ListTemplates(_ context.Context, opts recurrence.ListOpts) ([]*recurrence.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*recurrence.Template, 0)
	for _, t := range s.templates {
		if opts.Match(t) {
			result = append(result, cloneTemplate(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ClaimGeneration(_ context.Context, g *recurrence.Generation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := g.Key.String()
	if _, taken := s.claims[key]; taken {
		return false, nil
	}
	c := *g
	s.claims[key] = &c
	return true, nil
}

func (s *Store) ReleaseGeneration(_ context.Context, key recurrence.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.claims, key.String())
	return nil
}

// ──────────────────────────────────────────────────
// Store management
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// Helper functions
func rateKey(domicileID id.DomicileID, executorID string) string {
	return domicileID.String() + "|" + executorID
}

func budgetKey(domicileID id.DomicileID, year, month int) string {
	return fmt.Sprintf("%s|%04d|%02d", domicileID, year, month)
}

func cloneTemplate(t *recurrence.Template) *recurrence.Template {
	c := *t
	c.DaysOfWeek = append([]int(nil), t.DaysOfWeek...)
	return &c
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
