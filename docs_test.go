package steward_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/steward"
	"github.com/xraph/steward/clock"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/store/memory"
	"github.com/xraph/steward/task"
)

// TestDocumentationExamples walks the package documentation end to end.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()
		now := time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC)

		// Memory store for the demo; use store/postgres in production.
		eng := steward.New(memory.New(),
			steward.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			steward.WithClock(clock.NewFixed(now)),
			steward.WithCurrency("EUR"),
		)
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer func() { _ = eng.Stop(ctx) }()

		admin := steward.Admin("user-1")
		worker := steward.Executor("exec-7")

		site, err := eng.CreateDomicile(ctx, admin, "Villa Rosa", "Via Roma 1")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := eng.SetExecutorRate(ctx, admin, site.ID, "exec-7", 2500); err != nil {
			t.Fatal(err)
		}

		start := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
		tk, err := eng.CreateTask(ctx, admin, steward.TaskInput{
			Title:        "Garden maintenance",
			DomicileID:   site.ID,
			ExecutorID:   "exec-7",
			PlannedStart: start,
			PlannedEnd:   start.Add(3 * time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}

		entry, err := eng.SubmitTimeLog(ctx, worker, steward.SubmitTimeLogInput{
			TaskID: tk.ID,
			Start:  start,
			End:    start.Add(3 * time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}

		res, err := eng.ApproveTimeLog(ctx, admin, entry.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !res.TaskCompleted || res.Task.Status != task.StatusCompleted {
			t.Errorf("first approval should complete the task, got %+v", res.Task)
		}

		inv, err := eng.GenerateInvoice(ctx, admin, steward.GenerateInvoiceInput{
			DomicileID:  site.ID,
			ExecutorID:  "exec-7",
			PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatal(err)
		}

		// 3h at 25.00 plus 20% tax.
		if inv.Subtotal.Amount != 7500 || inv.TaxAmount.Amount != 1500 || inv.Total.Amount != 9000 {
			t.Errorf("amounts = %d/%d/%d, want 7500/1500/9000",
				inv.Subtotal.Amount, inv.TaxAmount.Amount, inv.Total.Amount)
		}
		if inv.Number != "INV-202603-0001" || inv.Status != invoice.StatusDraft {
			t.Errorf("invoice = %s %s", inv.Number, inv.Status)
		}
	})

	t.Run("ScheduledWorkExample", func(t *testing.T) {
		ctx := context.Background()
		eng := steward.New(memory.New(),
			steward.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			steward.WithClock(clock.NewFixed(time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC))),
		)

		swept, err := eng.SweepOverdueInvoices(ctx)
		if err != nil || len(swept) != 0 {
			t.Errorf("empty sweep = %v, %v", swept, err)
		}

		res, err := eng.GenerateRecurringTasks(ctx, steward.Admin("user-1"), time.Now())
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Created) != 0 {
			t.Errorf("no templates should create nothing, got %v", res.Created)
		}
	})
}
