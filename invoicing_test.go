package steward_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/steward"
	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/types"
)

// recorder captures the hooks the engine tests care about.
type recorder struct {
	mu         sync.Mutex
	generated  []string
	overdue    []string
	thresholds []budget.Line
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnInvoiceGenerated(_ context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generated = append(r.generated, inv.Number)
	return nil
}

func (r *recorder) OnInvoiceOverdue(_ context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overdue = append(r.overdue, inv.Number)
	return nil
}

func (r *recorder) OnBudgetThreshold(_ context.Context, _, _ int, line budget.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thresholds = append(r.thresholds, line)
	return nil
}

// fortyHours logs and approves a 40-hour week (8h Mon-Fri, March 2-6).
func fortyHours(t *testing.T, f *fixture) {
	t.Helper()

	tk := f.task(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	for day := 2; day <= 6; day++ {
		f.approved(t, tk, time.Date(2026, 3, day, 8, 0, 0, 0, time.UTC), 8*time.Hour)
	}
}

func (f *fixture) march(t *testing.T) steward.GenerateInvoiceInput {
	t.Helper()
	return steward.GenerateInvoiceInput{
		DomicileID:  f.site.ID,
		ExecutorID:  executorID,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerateInvoice(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, march10, steward.WithPlugin(rec))
	fortyHours(t, f)
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500); err != nil {
		t.Fatal(err)
	}

	// Pending and out-of-window time must not be billed.
	tk := f.task(t, march10)
	f.log(t, tk, time.Date(2026, 3, 5, 18, 0, 0, 0, time.UTC), time.Hour)
	f.approved(t, tk, time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC), time.Hour)

	inv, err := f.engine.GenerateInvoice(f.ctx, f.admin, f.march(t))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		got  int64
		want int64
	}{
		{"TotalSeconds", inv.TotalSeconds, 40 * 3600},
		{"EntryCount", inv.EntryCount, 5},
		{"Subtotal", inv.Subtotal.Amount, 100000},
		{"TaxAmount", inv.TaxAmount.Amount, 20000},
		{"Total", inv.Total.Amount, 120000},
		{"Total = Subtotal + Tax", inv.Total.Amount, inv.Subtotal.Amount + inv.TaxAmount.Amount},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}

	if inv.Number != "INV-202603-0001" {
		t.Errorf("number = %s, want INV-202603-0001", inv.Number)
	}
	if inv.Status != invoice.StatusDraft {
		t.Errorf("status = %s, want DRAFT", inv.Status)
	}
	if !inv.TotalHours.Equal(invoice.HoursFromSeconds(40 * 3600)) {
		t.Errorf("hours = %s, want 40", inv.TotalHours)
	}
	if want := march10.AddDate(0, 0, 30); !inv.DueDate.Equal(want) {
		t.Errorf("due = %v, want %v", inv.DueDate, want)
	}
	if want := time.Date(2026, 3, 6, 23, 59, 59, 0, time.UTC); !inv.PeriodEnd.Equal(want) {
		t.Errorf("period end = %v, want %v", inv.PeriodEnd, want)
	}
	if len(rec.generated) != 1 || rec.generated[0] != inv.Number {
		t.Errorf("generated hook = %v", rec.generated)
	}
}

func TestInvoiceRates(t *testing.T) {
	f := newFixture(t, march10)
	fortyHours(t, f)

	_, err := f.engine.GenerateInvoice(f.ctx, f.admin, f.march(t))
	if !errors.Is(err, steward.ErrRateNotConfigured) || !steward.IsConfiguration(err) {
		t.Errorf("no rate: err = %v, want ErrRateNotConfigured", err)
	}

	in := f.march(t)
	zero := types.EUR(0)
	in.HourlyRate = &zero
	if _, err := f.engine.GenerateInvoice(f.ctx, f.admin, in); !errors.Is(err, steward.ErrInvalidRate) {
		t.Errorf("zero supplied rate: err = %v, want ErrInvalidRate", err)
	}

	rate := types.EUR(3000)
	in.HourlyRate = &rate
	inv, err := f.engine.GenerateInvoice(f.ctx, f.admin, in)
	if err != nil {
		t.Fatal(err)
	}
	if inv.Subtotal.Amount != 120000 {
		t.Errorf("supplied rate subtotal = %d, want 120000", inv.Subtotal.Amount)
	}
}

func TestInvoiceSameDayWindow(t *testing.T) {
	f := newFixture(t, march10)
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500); err != nil {
		t.Fatal(err)
	}
	tk := f.task(t, march10)
	f.approved(t, tk, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), 2*time.Hour)

	inv, err := f.engine.GenerateInvoice(f.ctx, f.admin, steward.GenerateInvoiceInput{
		DomicileID:  f.site.ID,
		ExecutorID:  executorID,
		PeriodStart: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if inv.TotalSeconds != 2*3600 || inv.Subtotal.Amount != 5000 {
		t.Errorf("billed %ds / %d, want 7200s / 5000", inv.TotalSeconds, inv.Subtotal.Amount)
	}

	_, err = f.engine.GenerateInvoice(f.ctx, f.admin, steward.GenerateInvoiceInput{
		DomicileID:  f.site.ID,
		ExecutorID:  executorID,
		PeriodStart: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, steward.ErrInvalidRange) {
		t.Errorf("inverted period: err = %v, want ErrInvalidRange", err)
	}
}

func TestInvoiceNumbering(t *testing.T) {
	f := newFixture(t, march10)
	fortyHours(t, f)
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500); err != nil {
		t.Fatal(err)
	}

	first, err := f.engine.GenerateInvoice(f.ctx, f.admin, f.march(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.engine.DeleteInvoice(f.ctx, f.admin, first.ID); err != nil {
		t.Fatal(err)
	}

	want := []string{"INV-202603-0002", "INV-202603-0003"}
	for _, w := range want {
		inv, err := f.engine.GenerateInvoice(f.ctx, f.admin, f.march(t))
		if err != nil {
			t.Fatal(err)
		}
		if inv.Number != w {
			t.Errorf("number = %s, want %s", inv.Number, w)
		}
	}

	f.clock.Set(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	inv, err := f.engine.GenerateInvoice(f.ctx, f.admin, f.march(t))
	if err != nil {
		t.Fatal(err)
	}
	if inv.Number != "INV-202604-0001" {
		t.Errorf("new month number = %s, want INV-202604-0001", inv.Number)
	}
}

func TestInvoiceStateMachine(t *testing.T) {
	f := newFixture(t, march10)
	fortyHours(t, f)
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500); err != nil {
		t.Fatal(err)
	}
	generate := func() *invoice.Invoice {
		inv, err := f.engine.GenerateInvoice(f.ctx, f.admin, f.march(t))
		if err != nil {
			t.Fatal(err)
		}
		return inv
	}

	t.Run("SendThenPay", func(t *testing.T) {
		inv := generate()
		sent, err := f.engine.SendInvoice(f.ctx, f.admin, inv.ID)
		if err != nil {
			t.Fatal(err)
		}
		if sent.Status != invoice.StatusSent || sent.SentAt == nil {
			t.Errorf("send: %s", sent.Status)
		}
		if err := f.engine.DeleteInvoice(f.ctx, f.admin, inv.ID); !errors.Is(err, steward.ErrInvoiceNotDraft) {
			t.Errorf("delete sent: err = %v, want ErrInvoiceNotDraft", err)
		}

		paid, err := f.engine.MarkInvoicePaid(f.ctx, f.admin, inv.ID)
		if err != nil {
			t.Fatal(err)
		}
		if paid.Status != invoice.StatusPaid || paid.PaidDate == nil {
			t.Errorf("pay: %s", paid.Status)
		}

		if _, err := f.engine.SendInvoice(f.ctx, f.admin, inv.ID); !errors.Is(err, steward.ErrInvoicePaid) {
			t.Errorf("send paid: err = %v, want ErrInvoicePaid", err)
		}
		if _, err := f.engine.CancelInvoice(f.ctx, f.admin, inv.ID, "duplicate"); !errors.Is(err, steward.ErrInvoicePaid) {
			t.Errorf("cancel paid: err = %v, want ErrInvoicePaid", err)
		}
		if _, err := f.engine.UpdateInvoiceNotes(f.ctx, f.admin, inv.ID, "x"); !errors.Is(err, steward.ErrInvoicePaid) {
			t.Errorf("edit paid: err = %v, want ErrInvoicePaid", err)
		}
	})

	t.Run("CancelThenPay", func(t *testing.T) {
		inv := generate()
		cancelled, err := f.engine.CancelInvoice(f.ctx, f.admin, inv.ID, "client left")
		if err != nil {
			t.Fatal(err)
		}
		if cancelled.Status != invoice.StatusCancelled || cancelled.Notes != "Cancelled: client left" {
			t.Errorf("cancel: %s %q", cancelled.Status, cancelled.Notes)
		}
		_, err = f.engine.MarkInvoicePaid(f.ctx, f.admin, inv.ID)
		if !errors.Is(err, steward.ErrInvoiceCancelled) || !steward.IsInvalidTransition(err) {
			t.Errorf("pay cancelled: err = %v, want ErrInvoiceCancelled", err)
		}
	})

	t.Run("DraftCannotBePaid", func(t *testing.T) {
		inv := generate()
		_, err := f.engine.MarkInvoicePaid(f.ctx, f.admin, inv.ID)
		if !steward.IsInvalidTransition(err) {
			t.Fatalf("pay draft: err = %v, want invalid transition", err)
		}
		got, err := f.engine.GetInvoice(f.ctx, f.admin, inv.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != invoice.StatusDraft || got.PaidDate != nil {
			t.Errorf("draft changed: %s paid=%v", got.Status, got.PaidDate)
		}
	})

	t.Run("ResendIsInvalid", func(t *testing.T) {
		inv := generate()
		if _, err := f.engine.SendInvoice(f.ctx, f.admin, inv.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := f.engine.SendInvoice(f.ctx, f.admin, inv.ID); !steward.IsInvalidTransition(err) {
			t.Errorf("resend: err = %v, want invalid transition", err)
		}
	})

	t.Run("ExecutorCannotManage", func(t *testing.T) {
		inv := generate()
		if err := f.engine.DeleteInvoice(f.ctx, f.exec, inv.ID); !steward.IsForbidden(err) {
			t.Errorf("executor delete: err = %v, want forbidden", err)
		}
		got, err := f.engine.GetInvoice(f.ctx, f.exec, inv.ID)
		if err != nil {
			t.Fatalf("executor cannot read own invoice: %v", err)
		}
		if got.ID != inv.ID {
			t.Errorf("got %s, want %s", got.ID, inv.ID)
		}
	})
}

func TestSweepOverdueInvoices(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, march10, steward.WithPlugin(rec))
	fortyHours(t, f)
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500); err != nil {
		t.Fatal(err)
	}

	sent, err := f.engine.GenerateInvoice(f.ctx, f.admin, f.march(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.SendInvoice(f.ctx, f.admin, sent.ID); err != nil {
		t.Fatal(err)
	}
	draft, err := f.engine.GenerateInvoice(f.ctx, f.admin, f.march(t))
	if err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(30 * 24 * time.Hour)
	marked, err := f.engine.SweepOverdueInvoices(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(marked) != 0 {
		t.Fatalf("marked %d invoices on the due date, want 0", len(marked))
	}

	f.clock.Advance(time.Second)
	marked, err = f.engine.SweepOverdueInvoices(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(marked) != 1 || marked[0].ID != sent.ID || marked[0].Status != invoice.StatusOverdue {
		t.Fatalf("marked = %+v, want only the sent invoice", marked)
	}
	if len(rec.overdue) != 1 {
		t.Errorf("overdue hook fired %d times, want 1", len(rec.overdue))
	}

	d, err := f.engine.GetInvoice(f.ctx, f.admin, draft.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Status != invoice.StatusDraft {
		t.Errorf("draft swept to %s", d.Status)
	}

	paid, err := f.engine.MarkInvoicePaid(f.ctx, f.admin, sent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if paid.Status != invoice.StatusPaid {
		t.Errorf("pay overdue: %s", paid.Status)
	}
}

func TestListInvoicesScopes(t *testing.T) {
	f := newFixture(t, march10)
	fortyHours(t, f)
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.GenerateInvoice(f.ctx, f.admin, f.march(t)); err != nil {
		t.Fatal(err)
	}

	other, err := f.engine.ListInvoices(f.ctx, steward.Admin("admin-2"), invoice.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("foreign admin sees %d invoices", len(other))
	}

	mine, err := f.engine.ListInvoices(f.ctx, f.exec, invoice.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 {
		t.Errorf("executor sees %d invoices, want 1", len(mine))
	}
}
