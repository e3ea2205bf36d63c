package steward

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/estimate"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/timelog"
)

// EstimateDuration predicts how long work takes from the most recent
// approved entries matching the optional domicile and executor filters. An
// empty scoped history falls back to the global history; an empty global
// history yields confidence "none" rather than an error.
func (e *Engine) EstimateDuration(ctx context.Context, p authz.Principal, domicileID id.DomicileID, executorID string) (*estimate.Estimate, error) {
	if _, err := e.authorize(ctx, p, authz.CapEstimate); err != nil {
		return nil, err
	}

	scope := estimate.ScopeGlobal
	switch {
	case !domicileID.IsNil() && executorID != "":
		scope = estimate.ScopeDomicileExecutor
	case !domicileID.IsNil():
		scope = estimate.ScopeDomicile
	case executorID != "":
		scope = estimate.ScopeExecutor
	}

	// The shared call outlives any single caller's cancellation; each caller
	// still stops waiting when its own ctx is done.
	key := string(scope) + "|" + domicileID.String() + "|" + executorID
	flightCtx := context.WithoutCancel(ctx)
	ch := e.estimates.DoChan(key, func() (any, error) {
		opts := timelog.ListOpts{
			ExecutorID: executorID,
			Status:     timelog.StatusApproved,
			Limit:      e.sampleSize,
		}
		if !domicileID.IsNil() {
			opts.DomicileIDs = []id.DomicileID{domicileID}
		}

		hours, err := e.sampleHours(flightCtx, opts)
		if err != nil {
			return nil, err
		}
		if len(hours) > 0 || scope == estimate.ScopeGlobal {
			est := estimate.New(scope, false, hours)
			return &est, nil
		}

		hours, err = e.sampleHours(flightCtx, timelog.ListOpts{
			Status: timelog.StatusApproved,
			Limit:  e.sampleSize,
		})
		if err != nil {
			return nil, err
		}
		est := estimate.New(estimate.ScopeGlobal, true, hours)
		return &est, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		e.logger.Debug("estimate shared", "key", key)
	}

	out := *res.Val.(*estimate.Estimate)
	if out.Stats != nil {
		s := *out.Stats
		out.Stats = &s
	}
	return &out, nil
}

func (e *Engine) sampleHours(ctx context.Context, opts timelog.ListOpts) ([]float64, error) {
	entries, err := e.store.ListTimeLogs(ctx, opts)
	if err != nil {
		return nil, err
	}
	hours := make([]float64, 0, len(entries))
	for _, en := range entries {
		hours = append(hours, en.HoursWorked)
	}
	return hours, nil
}

// CheckOverrun compares currentSeconds of work on a task with the average
// approved duration at the task's domicile.
func (e *Engine) CheckOverrun(ctx context.Context, p authz.Principal, taskID id.TaskID, currentSeconds int64) (*estimate.Overrun, error) {
	g, err := e.authorize(ctx, p, authz.CapEstimate)
	if err != nil {
		return nil, err
	}
	if currentSeconds < 0 {
		return nil, invalid("current_seconds", "must not be negative")
	}

	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !g.Can(authz.CapManageTasks) && !t.AssignedTo(g.UserID()) {
		return nil, ErrNotAssigned
	}

	groups, err := e.store.SumTimeLogs(ctx, timelog.ListOpts{
		DomicileIDs: []id.DomicileID{t.DomicileID},
		Status:      timelog.StatusApproved,
	})
	if err != nil {
		return nil, err
	}
	var seconds, entries int64
	for _, a := range groups {
		seconds += a.Seconds
		entries += a.Entries
	}

	out := estimate.CheckOverrun(seconds, entries, currentSeconds)
	return &out, nil
}
