package steward

import (
	"context"
	"strings"
	"time"

	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/types"
)

// TaskInput describes a task created by an administrator.
type TaskInput struct {
	Title        string
	Description  string
	DomicileID   id.DomicileID
	ExecutorID   string
	PlannedStart time.Time
	PlannedEnd   time.Time
}

// CreateTask creates a TODO task at one of the caller's domiciles.
func (e *Engine) CreateTask(ctx context.Context, p authz.Principal, in TaskInput) (*task.Task, error) {
	g, err := e.authorize(ctx, p, authz.CapManageTasks)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return nil, invalid("title", "is required")
	case in.ExecutorID == "":
		return nil, invalid("executor_id", "is required")
	case in.PlannedStart.IsZero():
		return nil, invalid("planned_start", "is required")
	case !in.PlannedEnd.IsZero() && in.PlannedEnd.Before(in.PlannedStart):
		return nil, invalid("planned_end", "must not precede planned_start")
	}
	if _, err := e.ownedDomicile(ctx, g, in.DomicileID); err != nil {
		return nil, err
	}

	end := in.PlannedEnd
	if end.IsZero() {
		end = in.PlannedStart
	}
	t := &task.Task{
		Entity:             types.NewEntity(e.clock.Now()),
		ID:                 id.NewTaskID(),
		Title:              title,
		Description:        in.Description,
		DomicileID:         in.DomicileID,
		AssignedExecutorID: in.ExecutorID,
		Status:             task.StatusTodo,
		PlannedStart:       in.PlannedStart,
		PlannedEnd:         end,
		CreatedBy:          g.UserID(),
	}
	if err := e.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	e.logger.Debug("task created", "task_id", t.ID.String(), "executor_id", t.AssignedExecutorID)
	return t, nil
}

// GetTask returns a task. Executors only see tasks assigned to them.
func (e *Engine) GetTask(ctx context.Context, p authz.Principal, taskID id.TaskID) (*task.Task, error) {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !g.Can(authz.CapManageTasks) && !t.AssignedTo(g.UserID()) {
		return nil, ErrNotOwner
	}
	return t, nil
}

// ListTasks lists tasks. Executors are scoped to their own assignments.
func (e *Engine) ListTasks(ctx context.Context, p authz.Principal, opts task.ListOpts) ([]*task.Task, error) {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	if !g.Can(authz.CapManageTasks) {
		opts.ExecutorID = g.UserID()
	}
	return e.store.ListTasks(ctx, opts)
}

// ReassignTask hands an open task to another executor.
func (e *Engine) ReassignTask(ctx context.Context, p authz.Principal, taskID id.TaskID, executorID string) (*task.Task, error) {
	if executorID == "" {
		return nil, invalid("executor_id", "is required")
	}
	return e.mutateTask(ctx, p, taskID, authz.CapManageTasks, func(t *task.Task) error {
		if !task.Reassign(t, executorID) {
			return ErrTaskCompleted
		}
		return nil
	})
}

// PostponeTask moves an open task's planned window to start at newStart.
func (e *Engine) PostponeTask(ctx context.Context, p authz.Principal, taskID id.TaskID, newStart time.Time) (*task.Task, error) {
	if newStart.IsZero() {
		return nil, invalid("planned_start", "is required")
	}
	return e.mutateTask(ctx, p, taskID, authz.CapManageTasks, func(t *task.Task) error {
		if !task.Postpone(t, newStart) {
			return ErrTaskCompleted
		}
		return nil
	})
}

// StartTask marks a TODO task in progress. Only the assignee may start it.
func (e *Engine) StartTask(ctx context.Context, p authz.Principal, taskID id.TaskID) (*task.Task, error) {
	var caller string
	return e.mutateTask(ctx, p, taskID, authz.CapLogTime, func(t *task.Task) error {
		if !t.AssignedTo(caller) {
			return ErrNotAssigned
		}
		if t.Completed() {
			return ErrTaskCompleted
		}
		if !task.Start(t, e.clock.Now()) {
			return ErrTaskStarted
		}
		return nil
	}, func(g authz.Grants) { caller = g.UserID() })
}

func (e *Engine) mutateTask(
	ctx context.Context,
	p authz.Principal,
	taskID id.TaskID,
	required authz.Capability,
	apply func(*task.Task) error,
	onGrants ...func(authz.Grants),
) (*task.Task, error) {
	g, err := e.authorize(ctx, p, required)
	if err != nil {
		return nil, err
	}
	for _, fn := range onGrants {
		fn(g)
	}

	var out *task.Task
	err = e.inTx(ctx, func(ctx context.Context) error {
		t, err := e.store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		if required == authz.CapManageTasks {
			if _, err := e.ownedDomicile(ctx, g, t.DomicileID); err != nil {
				return err
			}
		}
		if err := apply(t); err != nil {
			return err
		}
		t.Touch(e.clock.Now())
		if err := e.store.UpdateTask(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("task updated", "task_id", out.ID.String(), "status", string(out.Status))
	return out, nil
}
