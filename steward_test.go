package steward_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/steward"
	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/clock"
	"github.com/xraph/steward/domicile"
	"github.com/xraph/steward/store/memory"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
)

const (
	adminID    = "admin-1"
	executorID = "exec-1"
)

type fixture struct {
	ctx    context.Context
	engine *steward.Engine
	store  *memory.Store
	clock  *clock.Fixed
	admin  authz.Principal
	exec   authz.Principal
	site   *domicile.Domicile
}

func newFixture(t *testing.T, now time.Time, opts ...steward.Option) *fixture {
	t.Helper()

	f := &fixture{
		ctx:   context.Background(),
		store: memory.New(),
		clock: clock.NewFixed(now),
		admin: authz.Admin(adminID),
		exec:  authz.Executor(executorID),
	}
	opts = append([]steward.Option{
		steward.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		steward.WithClock(f.clock),
	}, opts...)
	f.engine = steward.New(f.store, opts...)

	if err := f.engine.Start(f.ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = f.engine.Stop(f.ctx) })

	site, err := f.engine.CreateDomicile(f.ctx, f.admin, "Villa Rosa", "12 Garden Lane")
	if err != nil {
		t.Fatal(err)
	}
	f.site = site
	return f
}

func (f *fixture) task(t *testing.T, start time.Time) *task.Task {
	t.Helper()

	tk, err := f.engine.CreateTask(f.ctx, f.admin, steward.TaskInput{
		Title:        "Clean windows",
		DomicileID:   f.site.ID,
		ExecutorID:   executorID,
		PlannedStart: start,
		PlannedEnd:   start.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	return tk
}

func (f *fixture) log(t *testing.T, tk *task.Task, start time.Time, d time.Duration) *timelog.Entry {
	t.Helper()

	e, err := f.engine.SubmitTimeLog(f.ctx, f.exec, steward.SubmitTimeLogInput{
		TaskID: tk.ID,
		Start:  start,
		End:    start.Add(d),
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func (f *fixture) approved(t *testing.T, tk *task.Task, start time.Time, d time.Duration) *timelog.Entry {
	t.Helper()

	e := f.log(t, tk, start, d)
	res, err := f.engine.ApproveTimeLog(f.ctx, f.admin, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	return res.Entry
}

var march10 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestSubmitTimeLog(t *testing.T) {
	f := newFixture(t, march10)
	tk := f.task(t, march10)
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("DerivesHours", func(t *testing.T) {
		e := f.log(t, tk, start, 90*time.Minute)
		if e.Status != timelog.StatusPending {
			t.Errorf("status = %s, want PENDING", e.Status)
		}
		if e.DurationSeconds != 5400 || e.HoursWorked != 1.5 {
			t.Errorf("duration = %ds / %vh, want 5400s / 1.5h", e.DurationSeconds, e.HoursWorked)
		}
		if e.DomicileID != f.site.ID {
			t.Errorf("domicile = %s, want %s", e.DomicileID, f.site.ID)
		}
	})

	t.Run("InvalidRange", func(t *testing.T) {
		for _, d := range []time.Duration{0, -time.Hour} {
			_, err := f.engine.SubmitTimeLog(f.ctx, f.exec, steward.SubmitTimeLogInput{
				TaskID: tk.ID, Start: start, End: start.Add(d),
			})
			if !errors.Is(err, steward.ErrInvalidRange) || !steward.IsValidation(err) {
				t.Errorf("duration %v: err = %v, want ErrInvalidRange", d, err)
			}
		}
	})

	t.Run("SubSecond", func(t *testing.T) {
		_, err := f.engine.SubmitTimeLog(f.ctx, f.exec, steward.SubmitTimeLogInput{
			TaskID: tk.ID, Start: start, End: start.Add(600 * time.Millisecond),
		})
		if !errors.Is(err, steward.ErrSpanTooShort) || !steward.IsValidation(err) {
			t.Errorf("err = %v, want ErrSpanTooShort", err)
		}
	})

	t.Run("FractionalSecondsDropped", func(t *testing.T) {
		from := start.Add(2*time.Hour + 900*time.Millisecond)
		e := f.log(t, tk, from, 30*time.Minute+200*time.Millisecond)
		if e.DurationSeconds != 1800 || !e.EndTime.Equal(e.StartTime.Add(30*time.Minute)) {
			t.Errorf("span = %v..%v (%ds), want 1800s", e.StartTime, e.EndTime, e.DurationSeconds)
		}
	})

	t.Run("NotAssigned", func(t *testing.T) {
		_, err := f.engine.SubmitTimeLog(f.ctx, authz.Executor("exec-2"), steward.SubmitTimeLogInput{
			TaskID: tk.ID, Start: start, End: start.Add(time.Hour),
		})
		if !errors.Is(err, steward.ErrNotAssigned) || !steward.IsForbidden(err) {
			t.Errorf("err = %v, want ErrNotAssigned", err)
		}
	})

	t.Run("NoPrincipal", func(t *testing.T) {
		_, err := f.engine.SubmitTimeLog(f.ctx, authz.Principal{}, steward.SubmitTimeLogInput{
			TaskID: tk.ID, Start: start, End: start.Add(time.Hour),
		})
		if !steward.IsForbidden(err) {
			t.Errorf("err = %v, want forbidden", err)
		}
	})
}

func TestApprovalCompletesTaskOnce(t *testing.T) {
	f := newFixture(t, march10)
	tk := f.task(t, march10)

	first := f.log(t, tk, time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC), 2*time.Hour)
	second := f.log(t, tk, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 3*time.Hour)

	res, err := f.engine.ApproveTimeLog(f.ctx, f.admin, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !res.TaskCompleted || res.Task.Status != task.StatusCompleted {
		t.Fatalf("task not completed: %+v", res.Task)
	}
	if !res.Task.ActualStart.Equal(first.StartTime) || !res.Task.ActualEnd.Equal(first.EndTime) {
		t.Errorf("actuals = %v-%v, want %v-%v", res.Task.ActualStart, res.Task.ActualEnd, first.StartTime, first.EndTime)
	}
	if res.Entry.ValidatedBy != adminID || res.Entry.ValidatedAt == nil {
		t.Errorf("validation not stamped: %+v", res.Entry)
	}

	res, err = f.engine.ApproveTimeLog(f.ctx, f.admin, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.TaskCompleted {
		t.Error("second approval reported completing the task")
	}
	got, err := f.engine.GetTask(f.ctx, f.admin, tk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != task.StatusCompleted || !got.ActualStart.Equal(first.StartTime) {
		t.Errorf("task regressed or restamped: %+v", got)
	}
}

func TestDoubleApprovalFails(t *testing.T) {
	f := newFixture(t, march10)
	tk := f.task(t, march10)
	e := f.log(t, tk, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), time.Hour)

	if _, err := f.engine.ApproveTimeLog(f.ctx, f.admin, e.ID); err != nil {
		t.Fatal(err)
	}
	before, err := f.engine.GetTimeLog(f.ctx, f.admin, e.ID)
	if err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(time.Hour)
	_, err = f.engine.ApproveTimeLog(f.ctx, authz.Admin("admin-2"), e.ID)
	if !errors.Is(err, steward.ErrAlreadyFinal) || !steward.IsInvalidTransition(err) {
		t.Fatalf("err = %v, want ErrAlreadyFinal", err)
	}
	if _, err := f.engine.RejectTimeLog(f.ctx, f.admin, e.ID, "late"); !errors.Is(err, steward.ErrAlreadyFinal) {
		t.Errorf("reject after approve: err = %v, want ErrAlreadyFinal", err)
	}

	after, err := f.engine.GetTimeLog(f.ctx, f.admin, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.ValidatedBy != before.ValidatedBy || !after.ValidatedAt.Equal(*before.ValidatedAt) || after.Status != before.Status {
		t.Errorf("ledger changed: before %+v, after %+v", before, after)
	}
}

// failingTaskWrites fails the next UpdateTask calls while budget is positive.
type failingTaskWrites struct {
	*memory.Store
	budget int
}

var errTaskWrite = errors.New("task write failed")

func (s *failingTaskWrites) UpdateTask(ctx context.Context, t *task.Task) error {
	if s.budget > 0 {
		s.budget--
		return errTaskWrite
	}
	return s.Store.UpdateTask(ctx, t)
}

func TestApprovalRollsBackWhenCompletionFails(t *testing.T) {
	ctx := context.Background()
	st := &failingTaskWrites{Store: memory.New()}
	engine := steward.New(st,
		steward.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		steward.WithClock(clock.NewFixed(march10)),
	)
	admin, exec := authz.Admin(adminID), authz.Executor(executorID)

	site, err := engine.CreateDomicile(ctx, admin, "Villa Rosa", "12 Garden Lane")
	if err != nil {
		t.Fatal(err)
	}
	tk, err := engine.CreateTask(ctx, admin, steward.TaskInput{
		Title:        "Clean windows",
		DomicileID:   site.ID,
		ExecutorID:   executorID,
		PlannedStart: march10,
	})
	if err != nil {
		t.Fatal(err)
	}
	e, err := engine.SubmitTimeLog(ctx, exec, steward.SubmitTimeLogInput{
		TaskID: tk.ID,
		Start:  march10.Add(-3 * time.Hour),
		End:    march10.Add(-time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	st.budget = 1
	if _, err := engine.ApproveTimeLog(ctx, admin, e.ID); !errors.Is(err, errTaskWrite) {
		t.Fatalf("err = %v, want %v", err, errTaskWrite)
	}
	entry, err := engine.GetTimeLog(ctx, admin, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Status != timelog.StatusPending || entry.ValidatedAt != nil {
		t.Fatalf("entry after failed approval = %+v, want pending", entry)
	}

	res, err := engine.ApproveTimeLog(ctx, admin, e.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !res.TaskCompleted || res.Task.Status != task.StatusCompleted {
		t.Errorf("retry did not complete task: %+v", res.Task)
	}
}

func TestExecutorCannotReview(t *testing.T) {
	f := newFixture(t, march10)
	tk := f.task(t, march10)
	e := f.log(t, tk, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), time.Hour)

	_, err := f.engine.ApproveTimeLog(f.ctx, f.exec, e.ID)
	if !errors.Is(err, steward.ErrMissingCapability) || !steward.IsForbidden(err) {
		t.Errorf("err = %v, want ErrMissingCapability", err)
	}
}

func TestRejectStoresReason(t *testing.T) {
	f := newFixture(t, march10)
	tk := f.task(t, march10)
	e := f.log(t, tk, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), time.Hour)

	got, err := f.engine.RejectTimeLog(f.ctx, f.admin, e.ID, "wrong task")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != timelog.StatusRejected || got.Notes != "wrong task" {
		t.Errorf("got %s %q, want REJECTED \"wrong task\"", got.Status, got.Notes)
	}

	tk, err = f.engine.GetTask(f.ctx, f.admin, tk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tk.Status == task.StatusCompleted {
		t.Error("rejection completed the task")
	}
}

func TestUpdateAndDeleteTimeLog(t *testing.T) {
	f := newFixture(t, march10)
	tk := f.task(t, march10)
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	e := f.log(t, tk, start, time.Hour)

	notes := "traffic"
	got, err := f.engine.UpdateTimeLog(f.ctx, f.exec, e.ID, steward.UpdateTimeLogInput{
		Start: start, End: start.Add(45 * time.Minute), Notes: &notes,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.HoursWorked != 0.75 || got.Notes != "traffic" {
		t.Errorf("got %vh %q, want 0.75h \"traffic\"", got.HoursWorked, got.Notes)
	}

	_, err = f.engine.UpdateTimeLog(f.ctx, authz.Executor("exec-2"), e.ID, steward.UpdateTimeLogInput{
		Start: start, End: start.Add(time.Hour),
	})
	if !errors.Is(err, steward.ErrNotOwner) {
		t.Errorf("foreign update: err = %v, want ErrNotOwner", err)
	}
	if err := f.engine.DeleteTimeLog(f.ctx, authz.Executor("exec-2"), e.ID); !errors.Is(err, steward.ErrNotOwner) {
		t.Errorf("foreign delete: err = %v, want ErrNotOwner", err)
	}
	if f.engine.CanViewTimeLog(f.ctx, authz.Executor("exec-2"), got) {
		t.Error("foreign executor can view entry")
	}

	if _, err := f.engine.ApproveTimeLog(f.ctx, f.admin, e.ID); err != nil {
		t.Fatal(err)
	}
	_, err = f.engine.UpdateTimeLog(f.ctx, f.admin, e.ID, steward.UpdateTimeLogInput{
		Start: start, End: start.Add(2 * time.Hour),
	})
	if !errors.Is(err, steward.ErrAlreadyFinal) {
		t.Errorf("update approved: err = %v, want ErrAlreadyFinal", err)
	}
	if err := f.engine.DeleteTimeLog(f.ctx, f.admin, e.ID); !errors.Is(err, steward.ErrNotPending) {
		t.Errorf("delete approved: err = %v, want ErrNotPending", err)
	}

	annotated, err := f.engine.AnnotateTimeLog(f.ctx, f.admin, e.ID, "checked")
	if err != nil {
		t.Fatal(err)
	}
	if annotated.Notes != "checked" || annotated.DurationSeconds != 2700 {
		t.Errorf("annotate changed span or lost notes: %+v", annotated)
	}

	pending := f.log(t, tk, start.Add(4*time.Hour), time.Hour)
	if err := f.engine.DeleteTimeLog(f.ctx, f.exec, pending.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.GetTimeLog(f.ctx, f.admin, pending.ID); !steward.IsNotFound(err) {
		t.Errorf("deleted entry still readable: %v", err)
	}
}

func TestListTimeLogsScopesExecutors(t *testing.T) {
	f := newFixture(t, march10)
	tk := f.task(t, march10)
	f.log(t, tk, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), time.Hour)

	other, err := f.engine.CreateTask(f.ctx, f.admin, steward.TaskInput{
		Title: "Mow lawn", DomicileID: f.site.ID, ExecutorID: "exec-2", PlannedStart: march10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.SubmitTimeLog(f.ctx, authz.Executor("exec-2"), steward.SubmitTimeLogInput{
		TaskID: other.ID, Start: march10, End: march10.Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	mine, err := f.engine.ListTimeLogs(f.ctx, f.exec, timelog.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ExecutorID != executorID {
		t.Errorf("executor sees %d entries, want 1 own", len(mine))
	}

	all, err := f.engine.ListTimeLogs(f.ctx, f.admin, timelog.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("admin sees %d entries, want 2", len(all))
	}
}

func TestTaskLifecycle(t *testing.T) {
	f := newFixture(t, march10)
	tk := f.task(t, march10)

	started, err := f.engine.StartTask(f.ctx, f.exec, tk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if started.Status != task.StatusInProgress || started.ActualStart == nil {
		t.Errorf("start: %+v", started)
	}
	if _, err := f.engine.StartTask(f.ctx, f.exec, tk.ID); !errors.Is(err, steward.ErrTaskStarted) {
		t.Errorf("restart: err = %v, want ErrTaskStarted", err)
	}
	if _, err := f.engine.StartTask(f.ctx, authz.Executor("exec-2"), tk.ID); !errors.Is(err, steward.ErrNotAssigned) {
		t.Errorf("foreign start: err = %v, want ErrNotAssigned", err)
	}

	moved, err := f.engine.PostponeTask(f.ctx, f.admin, tk.ID, march10.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if got := moved.PlannedEnd.Sub(moved.PlannedStart); got != 2*time.Hour {
		t.Errorf("postpone changed window length to %v", got)
	}

	reassigned, err := f.engine.ReassignTask(f.ctx, f.admin, tk.ID, "exec-2")
	if err != nil {
		t.Fatal(err)
	}
	if reassigned.AssignedExecutorID != "exec-2" {
		t.Errorf("assignee = %s, want exec-2", reassigned.AssignedExecutorID)
	}
	if _, err := f.engine.GetTask(f.ctx, f.exec, tk.ID); !errors.Is(err, steward.ErrNotOwner) {
		t.Errorf("previous assignee can still read task: %v", err)
	}
}

func TestDomicileOwnership(t *testing.T) {
	f := newFixture(t, march10)
	other := authz.Admin("admin-2")

	if _, err := f.engine.GetDomicile(f.ctx, other, f.site.ID); !errors.Is(err, steward.ErrNotOwner) {
		t.Errorf("foreign admin: err = %v, want ErrNotOwner", err)
	}
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 0); !errors.Is(err, steward.ErrInvalidRate) {
		t.Errorf("zero rate: err = %v, want ErrInvalidRate", err)
	}
	if _, err := f.engine.CreateDomicile(f.ctx, f.admin, "  ", ""); !steward.IsValidation(err) {
		t.Errorf("blank name: err = %v, want validation", err)
	}

	r1, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 3000)
	if err != nil {
		t.Fatal(err)
	}
	if r1.ID != r2.ID {
		t.Errorf("rate upsert created a second rate: %s != %s", r1.ID, r2.ID)
	}
	if r2.HourlyRate.Amount != 3000 {
		t.Errorf("rate = %d, want 3000", r2.HourlyRate.Amount)
	}
}

func TestCustomTaxRateOption(t *testing.T) {
	f := newFixture(t, march10, steward.WithDefaultTaxRate(decimal.NewFromInt(10)))
	tk := f.task(t, march10)
	f.approved(t, tk, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), 4*time.Hour)
	if _, err := f.engine.SetExecutorRate(f.ctx, f.admin, f.site.ID, executorID, 2500); err != nil {
		t.Fatal(err)
	}

	inv, err := f.engine.GenerateInvoice(f.ctx, f.admin, steward.GenerateInvoiceInput{
		DomicileID:  f.site.ID,
		ExecutorID:  executorID,
		PeriodStart: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if inv.Subtotal.Amount != 10000 || inv.TaxAmount.Amount != 1000 || inv.Total.Amount != 11000 {
		t.Errorf("amounts = %d/%d/%d, want 10000/1000/11000", inv.Subtotal.Amount, inv.TaxAmount.Amount, inv.Total.Amount)
	}
}
