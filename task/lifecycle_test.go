package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/steward/id"
)

var base = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newTask() *Task {
	return &Task{
		ID:                 id.NewTaskID(),
		Title:              "Clean kitchen",
		AssignedExecutorID: "exec-1",
		Status:             StatusTodo,
		PlannedStart:       base,
		PlannedEnd:         base.Add(2 * time.Hour),
	}
}

func approval(t *Task, start time.Time, d time.Duration) EntryApproved {
	return EntryApproved{
		EntryID: id.NewTimeLogID(),
		TaskID:  t.ID,
		Start:   start,
		End:     start.Add(d),
	}
}

func TestApplyApprovalFirstWins(t *testing.T) {
	tk := newTask()

	first := approval(tk, base.Add(time.Hour), 2*time.Hour)
	if !ApplyApproval(tk, first) {
		t.Fatal("first approval should change the task")
	}
	if tk.Status != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", tk.Status)
	}

	second := approval(tk, base.Add(5*time.Hour), time.Hour)
	if ApplyApproval(tk, second) {
		t.Error("second approval must not change a completed task")
	}
	if !tk.ActualStart.Equal(first.Start) || !tk.ActualEnd.Equal(first.End) {
		t.Errorf("actual window = %v..%v, want first approval %v..%v",
			tk.ActualStart, tk.ActualEnd, first.Start, first.End)
	}
}

func TestApplyApprovalKeepsExistingStart(t *testing.T) {
	tk := newTask()
	started := base.Add(-30 * time.Minute)
	if !Start(tk, started) {
		t.Fatal("Start should succeed on TODO task")
	}

	ev := approval(tk, base, time.Hour)
	ApplyApproval(tk, ev)

	if !tk.ActualStart.Equal(started) {
		t.Errorf("ActualStart overwritten: %v", tk.ActualStart)
	}
	if !tk.ActualEnd.Equal(ev.End) {
		t.Errorf("ActualEnd = %v, want %v", tk.ActualEnd, ev.End)
	}
}

func TestTransitionsBlockedWhenCompleted(t *testing.T) {
	tk := newTask()
	tk.Status = StatusCompleted

	if Start(tk, base) {
		t.Error("Start on completed task")
	}
	if Postpone(tk, base.Add(24*time.Hour)) {
		t.Error("Postpone on completed task")
	}
	if Reassign(tk, "exec-2") {
		t.Error("Reassign on completed task")
	}
}

func TestPostponeKeepsLength(t *testing.T) {
	tk := newTask()
	next := base.Add(48 * time.Hour)
	if !Postpone(tk, next) {
		t.Fatal("Postpone failed")
	}
	if !tk.PlannedStart.Equal(next) || tk.PlannedEnd.Sub(tk.PlannedStart) != 2*time.Hour {
		t.Errorf("window = %v..%v", tk.PlannedStart, tk.PlannedEnd)
	}
}

type fakeStore struct {
	tasks   map[string]*Task
	updates int
}

func (f *fakeStore) Create(_ context.Context, t *Task) error {
	f.tasks[t.ID.String()] = t
	return nil
}

func (f *fakeStore) Get(_ context.Context, taskID id.TaskID) (*Task, error) {
	t, ok := f.tasks[taskID.String()]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, t *Task) error {
	f.updates++
	f.tasks[t.ID.String()] = t
	return nil
}

func (f *fakeStore) List(context.Context, ListOpts) ([]*Task, error) { return nil, nil }

func TestCompletionHandler(t *testing.T) {
	tk := newTask()
	fs := &fakeStore{tasks: map[string]*Task{tk.ID.String(): tk}}
	h := NewCompletionHandler(fs, func() time.Time { return base })
	ctx := context.Background()

	got, changed, err := h.HandleEntryApproved(ctx, approval(tk, base, time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !changed || got.Status != StatusCompleted {
		t.Fatalf("changed=%v status=%s", changed, got.Status)
	}

	_, changed, err = h.HandleEntryApproved(ctx, approval(tk, base.Add(time.Hour), time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("second event should be a no-op")
	}
	if fs.updates != 1 {
		t.Errorf("updates = %d, want 1", fs.updates)
	}

	if _, _, err := h.HandleEntryApproved(ctx, EntryApproved{TaskID: id.NewTaskID()}); err == nil {
		t.Error("expected error for unknown task")
	}
}
