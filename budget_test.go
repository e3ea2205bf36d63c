package steward_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/steward"
	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/clock"
)

var april10 = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func TestBudgetOverview(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, april10, steward.WithPlugin(rec))
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.SetMonthlyBudget(f.ctx, f.admin, f.site.ID, 2026, 4, 100000); err != nil {
		t.Fatal(err)
	}

	// 20 approved hours in April at 25.00/h: spent 500.00.
	tk := f.task(t, time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	for day := 1; day <= 4; day++ {
		f.approved(t, tk, time.Date(2026, 4, day, 8, 0, 0, 0, time.UTC), 5*time.Hour)
	}
	// Excluded: March work and pending April work.
	f.approved(t, tk, time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC), 5*time.Hour)
	f.log(t, tk, time.Date(2026, 4, 5, 8, 0, 0, 0, time.UTC), 5*time.Hour)

	// A second site without rate or budget bills at the fallback rate.
	chalet, err := f.engine.CreateDomicile(f.ctx, f.admin, "Chalet", "")
	if err != nil {
		t.Fatal(err)
	}
	other, err := f.engine.CreateTask(f.ctx, f.admin, steward.TaskInput{
		Title: "Stack firewood", DomicileID: chalet.ID, ExecutorID: executorID, PlannedStart: april10,
	})
	if err != nil {
		t.Fatal(err)
	}
	f.approved(t, other, time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC), 2*time.Hour)

	ov, err := f.engine.BudgetOverview(f.ctx, f.admin, 2026, 4)
	if err != nil {
		t.Fatal(err)
	}

	if ov.DaysInMonth != 30 || ov.ElapsedDays != 10 {
		t.Errorf("days = %d/%d, want 30/10", ov.DaysInMonth, ov.ElapsedDays)
	}
	if !ov.ProjectionFactor.Equal(decimal.NewFromInt(3)) {
		t.Errorf("factor = %s, want 3", ov.ProjectionFactor)
	}
	if len(ov.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(ov.Lines))
	}

	lines := make(map[string]budget.Line)
	for _, l := range ov.Lines {
		lines[l.DomicileName] = l
	}

	rosa := lines["Villa Rosa"]
	if rosa.Spent.Amount != 50000 || rosa.Projected.Amount != 150000 {
		t.Errorf("Villa Rosa spent/projected = %d/%d, want 50000/150000", rosa.Spent.Amount, rosa.Projected.Amount)
	}
	if rosa.PercentUsed == nil || *rosa.PercentUsed != 50 || rosa.Status != budget.StatusOK {
		t.Errorf("Villa Rosa usage = %v %s, want 50 ok", rosa.PercentUsed, rosa.Status)
	}

	ch := lines["Chalet"]
	if ch.Spent.Amount != 5000 || ch.Budget != nil || ch.PercentUsed != nil || ch.Status != budget.StatusOK {
		t.Errorf("Chalet = %+v, want 5000 spent without budget", ch)
	}

	if ov.TotalSpent.Amount != 55000 || ov.TotalProjected.Amount != 165000 || ov.TotalBudget.Amount != 100000 {
		t.Errorf("totals = %d/%d/%d", ov.TotalSpent.Amount, ov.TotalProjected.Amount, ov.TotalBudget.Amount)
	}
	if ov.PercentUsed == nil || *ov.PercentUsed != 55 || ov.Status != budget.StatusOK {
		t.Errorf("overall usage = %v %s, want 55 ok", ov.PercentUsed, ov.Status)
	}
	if len(rec.thresholds) != 0 {
		t.Errorf("threshold hook fired for %d lines, want 0", len(rec.thresholds))
	}

	if _, err := f.engine.SetMonthlyBudget(f.ctx, f.admin, f.site.ID, 2026, 4, 60000); err != nil {
		t.Fatal(err)
	}
	ov, err = f.engine.BudgetOverview(f.ctx, f.admin, 2026, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.thresholds) != 1 || rec.thresholds[0].Status != budget.StatusWarning {
		t.Errorf("thresholds = %+v, want one warning", rec.thresholds)
	}
	if *ov.PercentUsed != 92 || ov.Status != budget.StatusWarning {
		t.Errorf("overall usage = %d %s, want 92 warning", *ov.PercentUsed, ov.Status)
	}
}

func TestBudgetOverviewPastMonth(t *testing.T) {
	f := newFixture(t, april10)
	tk := f.task(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	f.approved(t, tk, time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC), 4*time.Hour)

	ov, err := f.engine.BudgetOverview(f.ctx, f.admin, 2026, 3)
	if err != nil {
		t.Fatal(err)
	}
	if ov.ElapsedDays != 31 || !ov.ProjectionFactor.Equal(decimal.NewFromInt(1)) {
		t.Errorf("past month elapsed/factor = %d/%s, want 31/1", ov.ElapsedDays, ov.ProjectionFactor)
	}
	if ov.TotalSpent.Amount != 10000 || ov.TotalProjected.Amount != 10000 {
		t.Errorf("spent/projected = %d/%d, want 10000/10000", ov.TotalSpent.Amount, ov.TotalProjected.Amount)
	}
	if ov.PercentUsed != nil {
		t.Errorf("percent = %d without any budget", *ov.PercentUsed)
	}
}

func TestBudgetValidation(t *testing.T) {
	f := newFixture(t, april10)

	if _, err := f.engine.SetMonthlyBudget(f.ctx, f.admin, f.site.ID, 2026, 13, -1); !steward.IsValidation(err) {
		t.Errorf("err = %v, want validation", err)
	}
	if _, err := f.engine.BudgetOverview(f.ctx, f.exec, 2026, 4); !steward.IsForbidden(err) {
		t.Errorf("executor overview: err = %v, want forbidden", err)
	}
}

func TestRatesInAnotherCurrency(t *testing.T) {
	f := newFixture(t, april10)
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500); err != nil {
		t.Fatal(err)
	}
	tk := f.task(t, april10)
	f.approved(t, tk, time.Date(2026, 4, 9, 8, 0, 0, 0, time.UTC), time.Hour)

	usd := steward.New(f.store,
		steward.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		steward.WithClock(clock.NewFixed(april10)),
		steward.WithCurrency("USD"),
	)

	_, err := usd.BudgetOverview(f.ctx, f.admin, 2026, 4)
	if !errors.Is(err, steward.ErrCurrencyMismatch) || !steward.IsConfiguration(err) {
		t.Errorf("overview: err = %v, want ErrCurrencyMismatch", err)
	}
	_, err = usd.GenerateInvoice(f.ctx, f.admin, steward.GenerateInvoiceInput{
		DomicileID:  f.site.ID,
		ExecutorID:  executorID,
		PeriodStart: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   april10,
	})
	if !errors.Is(err, steward.ErrCurrencyMismatch) {
		t.Errorf("invoice: err = %v, want ErrCurrencyMismatch", err)
	}

	// Re-pricing the executor in the new currency clears the error.
	if _, err := usd.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 3000); err != nil {
		t.Fatal(err)
	}
	ov, err := usd.BudgetOverview(f.ctx, f.admin, 2026, 4)
	if err != nil {
		t.Fatal(err)
	}
	if ov.TotalSpent.Currency != "usd" || ov.TotalSpent.Amount != 3000 {
		t.Errorf("spent = %+v, want 3000 usd", ov.TotalSpent)
	}
}

func TestBudgetToday(t *testing.T) {
	f := newFixture(t, april10)
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 3000); err != nil {
		t.Fatal(err)
	}

	a := f.task(t, april10)
	b := f.task(t, april10)
	f.approved(t, a, time.Date(2026, 4, 10, 7, 0, 0, 0, time.UTC), time.Hour)
	f.approved(t, a, time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC), time.Hour)
	f.approved(t, b, time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC), 30*time.Minute)
	f.approved(t, b, time.Date(2026, 4, 9, 10, 0, 0, 0, time.UTC), time.Hour)

	today, err := f.engine.BudgetToday(f.ctx, f.admin)
	if err != nil {
		t.Fatal(err)
	}
	if today.Entries != 3 || today.TaskCount != 2 {
		t.Errorf("entries/tasks = %d/%d, want 3/2", today.Entries, today.TaskCount)
	}
	if !today.Hours.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("hours = %s, want 2.5", today.Hours)
	}
	if today.Spent.Amount != 7500 {
		t.Errorf("spent = %d, want 7500", today.Spent.Amount)
	}
}
