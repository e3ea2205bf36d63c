package steward

import (
	"context"
	"time"

	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
	"github.com/xraph/steward/types"
)

// SubmitTimeLogInput is the payload of SubmitTimeLog.
type SubmitTimeLogInput struct {
	TaskID id.TaskID
	Start  time.Time
	End    time.Time
	Notes  string
}

// UpdateTimeLogInput changes an entry's span. Notes is left untouched when nil.
type UpdateTimeLogInput struct {
	Start time.Time
	End   time.Time
	Notes *string
}

// ApprovalResult is returned by ApproveTimeLog. Task is the parent task after
// the approval was applied; TaskCompleted reports whether this approval was
// the one that completed it.
type ApprovalResult struct {
	Entry         *timelog.Entry `json:"entry"`
	Task          *task.Task     `json:"task"`
	TaskCompleted bool           `json:"task_completed"`
}

// SubmitTimeLog records a PENDING span of work against a task assigned to the
// caller.
func (e *Engine) SubmitTimeLog(ctx context.Context, p authz.Principal, in SubmitTimeLogInput) (*timelog.Entry, error) {
	g, err := e.authorize(ctx, p, authz.CapLogTime)
	if err != nil {
		return nil, err
	}
	if err := checkSpan(in.Start, in.End); err != nil {
		return nil, err
	}

	var entry *timelog.Entry
	err = e.inTx(ctx, func(ctx context.Context) error {
		t, err := e.store.GetTask(ctx, in.TaskID)
		if err != nil {
			return err
		}
		if !t.AssignedTo(g.UserID()) {
			return ErrNotAssigned
		}

		entry = &timelog.Entry{
			Entity:     types.NewEntity(e.clock.Now()),
			ID:         id.NewTimeLogID(),
			TaskID:     t.ID,
			DomicileID: t.DomicileID,
			ExecutorID: g.UserID(),
			Status:     timelog.StatusPending,
			Notes:      in.Notes,
		}
		entry.SetSpan(in.Start, in.End)
		return e.store.CreateTimeLog(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitTimeLogSubmitted(ctx, entry)
	e.logger.Debug("time log submitted",
		"entry_id", entry.ID.String(),
		"task_id", entry.TaskID.String(),
		"duration_seconds", entry.DurationSeconds,
	)
	return entry, nil
}

// UpdateTimeLog changes an entry's span and optionally its notes.
// Executors may only edit their own pending entries; approved entries are
// immutable.
func (e *Engine) UpdateTimeLog(ctx context.Context, p authz.Principal, entryID id.TimeLogID, in UpdateTimeLogInput) (*timelog.Entry, error) {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := checkSpan(in.Start, in.End); err != nil {
		return nil, err
	}

	var entry *timelog.Entry
	err = e.inTx(ctx, func(ctx context.Context) error {
		cur, err := e.store.GetTimeLog(ctx, entryID)
		if err != nil {
			return err
		}
		if err := modifyGuard(cur, g); err != nil {
			return err
		}

		cur.SetSpan(in.Start, in.End)
		if in.Notes != nil {
			cur.Notes = *in.Notes
		}
		cur.Touch(e.clock.Now())
		if err := e.store.UpdateTimeLog(ctx, cur); err != nil {
			return err
		}
		entry = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("time log updated", "entry_id", entry.ID.String(), "duration_seconds", entry.DurationSeconds)
	return entry, nil
}

// AnnotateTimeLog replaces an entry's notes. Managers may annotate entries in
// any status, including approved ones; the span stays untouched.
func (e *Engine) AnnotateTimeLog(ctx context.Context, p authz.Principal, entryID id.TimeLogID, notes string) (*timelog.Entry, error) {
	if _, err := e.authorize(ctx, p, authz.CapManageTimeLogs); err != nil {
		return nil, err
	}

	var entry *timelog.Entry
	err := e.inTx(ctx, func(ctx context.Context) error {
		cur, err := e.store.GetTimeLog(ctx, entryID)
		if err != nil {
			return err
		}
		cur.Notes = notes
		cur.Touch(e.clock.Now())
		if err := e.store.UpdateTimeLog(ctx, cur); err != nil {
			return err
		}
		entry = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ApproveTimeLog approves a pending entry and completes its task if this is
// the first approval to reach it. Reviewing an entry twice fails with
// ErrAlreadyFinal and leaves the ledger unchanged.
func (e *Engine) ApproveTimeLog(ctx context.Context, p authz.Principal, entryID id.TimeLogID) (*ApprovalResult, error) {
	g, err := e.authorize(ctx, p, authz.CapReviewTime)
	if err != nil {
		return nil, err
	}

	var (
		res = &ApprovalResult{}
		ev  task.EntryApproved
	)
	err = e.inTx(ctx, func(ctx context.Context) error {
		entry, err := e.review(ctx, g, entryID, timelog.StatusApproved)
		if err != nil {
			return err
		}
		res.Entry = entry

		ev = task.EntryApproved{
			EntryID:    entry.ID,
			TaskID:     entry.TaskID,
			ExecutorID: entry.ExecutorID,
			Start:      entry.StartTime,
			End:        entry.EndTime,
			ApprovedBy: entry.ValidatedBy,
			ApprovedAt: *entry.ValidatedAt,
		}
		t, changed, err := e.completion.HandleEntryApproved(ctx, ev)
		if err != nil {
			return err
		}
		res.Task = t
		res.TaskCompleted = changed
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitTimeLogApproved(ctx, res.Entry)
	if res.TaskCompleted {
		e.plugins.EmitTaskCompleted(ctx, res.Task, ev)
	}

	e.logger.Info("time log approved",
		"entry_id", res.Entry.ID.String(),
		"task_id", res.Entry.TaskID.String(),
		"task_completed", res.TaskCompleted,
	)
	return res, nil
}

// RejectTimeLog rejects a pending entry. A non-empty reason replaces the
// entry's notes.
func (e *Engine) RejectTimeLog(ctx context.Context, p authz.Principal, entryID id.TimeLogID, reason string) (*timelog.Entry, error) {
	g, err := e.authorize(ctx, p, authz.CapReviewTime)
	if err != nil {
		return nil, err
	}

	var entry *timelog.Entry
	err = e.inTx(ctx, func(ctx context.Context) error {
		entry, err = e.review(ctx, g, entryID, timelog.StatusRejected, func(en *timelog.Entry) {
			if reason != "" {
				en.Notes = reason
			}
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitTimeLogRejected(ctx, entry, reason)
	e.logger.Info("time log rejected", "entry_id", entry.ID.String(), "reason", reason)
	return entry, nil
}

// review moves a pending entry to a final status and persists it.
func (e *Engine) review(ctx context.Context, g authz.Grants, entryID id.TimeLogID, to timelog.Status, mutate ...func(*timelog.Entry)) (*timelog.Entry, error) {
	entry, err := e.store.GetTimeLog(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.Pending() {
		return nil, ErrAlreadyFinal
	}

	now := e.clock.Now().UTC()
	entry.Status = to
	entry.ValidatedBy = g.UserID()
	entry.ValidatedAt = &now
	for _, fn := range mutate {
		fn(entry)
	}
	entry.Touch(now)

	if err := e.store.UpdateTimeLog(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteTimeLog removes a pending entry owned by the caller, or any pending
// entry when the caller manages time logs.
func (e *Engine) DeleteTimeLog(ctx context.Context, p authz.Principal, entryID id.TimeLogID) error {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return err
	}

	err = e.inTx(ctx, func(ctx context.Context) error {
		entry, err := e.store.GetTimeLog(ctx, entryID)
		if err != nil {
			return err
		}
		if !timelog.CanDelete(entry, g) {
			if !entry.Pending() {
				return ErrNotPending
			}
			return ErrNotOwner
		}
		return e.store.DeleteTimeLog(ctx, entryID)
	})
	if err != nil {
		return err
	}

	e.logger.Debug("time log deleted", "entry_id", entryID.String())
	return nil
}

// GetTimeLog returns an entry visible to the caller.
func (e *Engine) GetTimeLog(ctx context.Context, p authz.Principal, entryID id.TimeLogID) (*timelog.Entry, error) {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	entry, err := e.store.GetTimeLog(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !timelog.CanView(entry, g) {
		return nil, ErrNotOwner
	}
	return entry, nil
}

// ListTimeLogs lists ledger entries. Executors only see their own.
func (e *Engine) ListTimeLogs(ctx context.Context, p authz.Principal, opts timelog.ListOpts) ([]*timelog.Entry, error) {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	if !g.Can(authz.CapManageTimeLogs) {
		opts.ExecutorID = g.UserID()
	}
	return e.store.ListTimeLogs(ctx, opts)
}

// CanViewTimeLog reports whether p may read entry.
func (e *Engine) CanViewTimeLog(ctx context.Context, p authz.Principal, entry *timelog.Entry) bool {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return false
	}
	return timelog.CanView(entry, g)
}

// CanModifyTimeLog reports whether p may change entry.
func (e *Engine) CanModifyTimeLog(ctx context.Context, p authz.Principal, entry *timelog.Entry) bool {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return false
	}
	return timelog.CanModify(entry, g)
}

func modifyGuard(entry *timelog.Entry, g authz.Grants) error {
	if timelog.CanModify(entry, g) {
		return nil
	}
	switch {
	case entry.Status == timelog.StatusApproved:
		return ErrAlreadyFinal
	case entry.ExecutorID != g.UserID():
		return ErrNotOwner
	default:
		return ErrNotPending
	}
}

// checkSpan maps a span check to its validation error.
func checkSpan(start, end time.Time) error {
	_, _, _, check := timelog.Span(start, end)
	switch check {
	case timelog.SpanInverted:
		return ErrInvalidRange
	case timelog.SpanTooShort:
		return ErrSpanTooShort
	default:
		return nil
	}
}
