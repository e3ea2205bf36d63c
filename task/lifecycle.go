package task

import (
	"context"
	"time"

	"github.com/xraph/steward/id"
)

// EntryApproved is published when a ledger entry is approved. It is the only
// path by which ledger state influences task state.
type EntryApproved struct {
	EntryID    id.TimeLogID `json:"entry_id"`
	TaskID     id.TaskID    `json:"task_id"`
	ExecutorID string       `json:"executor_id"`
	Start      time.Time    `json:"start"`
	End        time.Time    `json:"end"`
	ApprovedBy string       `json:"approved_by"`
	ApprovedAt time.Time    `json:"approved_at"`
}

// ApplyApproval completes t from an approval event. A completed task is left
// untouched; otherwise actual times are back-filled only where unset, so the
// first approval to complete the task stamps it. Returns whether t changed.
func ApplyApproval(t *Task, ev EntryApproved) bool {
	if t.Completed() {
		return false
	}

	t.Status = StatusCompleted
	if t.ActualStart == nil {
		start := ev.Start
		t.ActualStart = &start
	}
	if t.ActualEnd == nil {
		end := ev.End
		t.ActualEnd = &end
	}
	return true
}

// Start marks t in progress at now. Only TODO tasks can start.
func Start(t *Task, now time.Time) bool {
	if t.Status != StatusTodo {
		return false
	}
	t.Status = StatusInProgress
	if t.ActualStart == nil {
		t.ActualStart = &now
	}
	return true
}

// Postpone moves the planned window to begin at start, keeping its length.
func Postpone(t *Task, start time.Time) bool {
	if t.Completed() {
		return false
	}
	length := t.PlannedEnd.Sub(t.PlannedStart)
	t.PlannedStart = start
	t.PlannedEnd = start.Add(length)
	return true
}

// Reassign hands t to another executor.
func Reassign(t *Task, executorID string) bool {
	if t.Completed() || executorID == "" {
		return false
	}
	t.AssignedExecutorID = executorID
	return true
}

// CompletionHandler consumes EntryApproved events and advances the task
// state machine. It runs inside the approving transaction.
type CompletionHandler struct {
	store Store
	now   func() time.Time
}

// NewCompletionHandler returns a handler writing through s.
func NewCompletionHandler(s Store, now func() time.Time) *CompletionHandler {
	return &CompletionHandler{store: s, now: now}
}

// HandleEntryApproved loads the task, applies the event and persists the
// result when it changed. The returned task reflects the stored state.
func (h *CompletionHandler) HandleEntryApproved(ctx context.Context, ev EntryApproved) (*Task, bool, error) {
	t, err := h.store.Get(ctx, ev.TaskID)
	if err != nil {
		return nil, false, err
	}

	if !ApplyApproval(t, ev) {
		return t, false, nil
	}

	t.Touch(h.now())
	if err := h.store.Update(ctx, t); err != nil {
		return nil, false, err
	}
	return t, true, nil
}
