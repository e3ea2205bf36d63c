package steward

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/domicile"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/timelog"
	"github.com/xraph/steward/types"
)

// SetMonthlyBudget creates or replaces the budget of a domicile for a month.
func (e *Engine) SetMonthlyBudget(ctx context.Context, p authz.Principal, domicileID id.DomicileID, year, month int, amountCents int64) (*budget.MonthlyBudget, error) {
	g, err := e.authorize(ctx, p, authz.CapManageSites)
	if err != nil {
		return nil, err
	}

	var errs MultiError
	if year < 1 {
		errs.Add(invalid("year", "must be positive"))
	}
	if month < 1 || month > 12 {
		errs.Add(invalid("month", "must be between 1 and 12"))
	}
	if amountCents < 0 {
		errs.Add(invalid("budget_amount", "must not be negative"))
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	if _, err := e.ownedDomicile(ctx, g, domicileID); err != nil {
		return nil, err
	}

	b := &budget.MonthlyBudget{
		Entity:     types.NewEntity(e.clock.Now()),
		ID:         id.NewBudgetID(),
		DomicileID: domicileID,
		Year:       year,
		Month:      month,
		Amount:     e.money(amountCents),
		SetBy:      g.UserID(),
	}
	if err := e.store.UpsertBudget(ctx, b); err != nil {
		return nil, err
	}

	e.logger.Debug("budget set",
		"domicile_id", domicileID.String(),
		"year", year,
		"month", month,
		"amount", b.Amount.String(),
	)
	return b, nil
}

// BudgetOverview computes spend, projection and budget usage of every
// domicile owned by the caller for the given month. Spend counts APPROVED
// entries that started within the month.
func (e *Engine) BudgetOverview(ctx context.Context, p authz.Principal, year, month int) (*budget.Overview, error) {
	g, err := e.authorize(ctx, p, authz.CapViewBudgets)
	if err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, invalid("month", "must be between 1 and 12")
	}

	doms, err := e.store.ListDomiciles(ctx, g.UserID())
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	days := budget.DaysIn(year, month)
	elapsed := budget.ElapsedDays(year, month, now)
	from, to := budget.MonthBounds(year, month, now.Location())

	lines := make([]budget.Line, len(doms))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.budgetFanOut)
	for i, d := range doms {
		eg.Go(func() error {
			line, err := e.budgetLine(egCtx, d, year, month, from, to, days, elapsed)
			if err != nil {
				return err
			}
			lines[i] = line
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ov := &budget.Overview{
		Year:             year,
		Month:            month,
		DaysInMonth:      days,
		ElapsedDays:      elapsed,
		ProjectionFactor: budget.Factor(days, elapsed),
		Lines:            lines,
		TotalBudget:      types.Zero(e.currency),
		TotalSpent:       types.Zero(e.currency),
	}
	budgeted := false
	for _, l := range lines {
		ov.TotalSpent = ov.TotalSpent.Add(l.Spent)
		if l.Budget != nil {
			budgeted = true
			ov.TotalBudget = ov.TotalBudget.Add(*l.Budget)
		}
	}
	ov.TotalProjected = budget.Project(ov.TotalSpent, days, elapsed)
	if budgeted {
		ov.PercentUsed = budget.PercentUsed(ov.TotalSpent, &ov.TotalBudget)
	}
	ov.Status = budget.Classify(ov.PercentUsed)

	for _, l := range lines {
		if l.Status != budget.StatusOK {
			e.plugins.EmitBudgetThreshold(ctx, year, month, l)
		}
	}
	return ov, nil
}

func (e *Engine) budgetLine(ctx context.Context, d *domicile.Domicile, year, month int, from, to time.Time, days, elapsed int) (budget.Line, error) {
	line := budget.Line{
		DomicileID:   d.ID,
		DomicileName: d.Name,
	}

	b, err := e.store.GetBudget(ctx, d.ID, year, month)
	switch {
	case err == nil:
		if err := e.billable(b.Amount); err != nil {
			return line, err
		}
		amount := b.Amount
		line.Budget = &amount
	case !IsNotFound(err):
		return line, err
	}

	groups, err := e.store.SumTimeLogs(ctx, timelog.ListOpts{
		DomicileIDs: []id.DomicileID{d.ID},
		Status:      timelog.StatusApproved,
		StartFrom:   from,
		StartBefore: to,
	})
	if err != nil {
		return line, err
	}

	hours, spent, _, err := e.price(ctx, groups)
	if err != nil {
		return line, err
	}
	line.Hours = hours
	line.Spent = spent
	line.Projected = budget.Project(spent, days, elapsed)
	line.PercentUsed = budget.PercentUsed(spent, line.Budget)
	line.Status = budget.Classify(line.PercentUsed)
	return line, nil
}

// BudgetToday prices the approved work started on the current date across
// every domicile owned by the caller.
func (e *Engine) BudgetToday(ctx context.Context, p authz.Principal) (*budget.Today, error) {
	g, err := e.authorize(ctx, p, authz.CapViewBudgets)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	out := &budget.Today{
		Date:  start,
		Hours: decimal.Zero,
		Spent: types.Zero(e.currency),
	}

	owned, err := e.ownedDomicileIDs(ctx, g)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return out, nil
	}

	opts := timelog.ListOpts{
		DomicileIDs: owned,
		Status:      timelog.StatusApproved,
		StartFrom:   start,
		StartBefore: start.AddDate(0, 0, 1),
	}
	groups, err := e.store.SumTimeLogs(ctx, opts)
	if err != nil {
		return nil, err
	}
	hours, spent, entries, err := e.price(ctx, groups)
	if err != nil {
		return nil, err
	}
	tasks, err := e.store.CountTimeLogTasks(ctx, opts)
	if err != nil {
		return nil, err
	}

	out.Hours = hours
	out.Spent = spent
	out.Entries = entries
	out.TaskCount = tasks
	return out, nil
}

// price costs each (domicile, executor) group at its configured rate, or the
// fallback rate when none is set. Rates are looked up once per pair.
func (e *Engine) price(ctx context.Context, groups []*timelog.Aggregate) (decimal.Decimal, types.Money, int64, error) {
	var (
		seconds int64
		entries int64
		spent   = types.Zero(e.currency)
	)
	for _, a := range groups {
		rate, err := e.effectiveRate(ctx, a.DomicileID, a.ExecutorID)
		if err != nil {
			return decimal.Zero, spent, 0, err
		}
		seconds += a.Seconds
		entries += a.Entries
		spent = spent.Add(budget.Cost(a.Seconds, rate))
	}
	return invoice.HoursFromSeconds(seconds), spent, entries, nil
}

func (e *Engine) effectiveRate(ctx context.Context, domicileID id.DomicileID, executorID string) (types.Money, error) {
	r, err := e.store.GetExecutorRate(ctx, domicileID, executorID)
	switch {
	case err == nil && r.Configured():
		if err := e.billable(r.HourlyRate); err != nil {
			return types.Money{}, err
		}
		return r.HourlyRate, nil
	case err == nil || IsNotFound(err):
		return e.money(e.fallbackRate), nil
	default:
		return types.Money{}, err
	}
}
