package steward

import (
	"context"
	"strings"
	"time"

	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/recurrence"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/types"
)

// TemplateInput describes a recurring task template.
type TemplateInput struct {
	Title                    string
	Description              string
	DomicileID               id.DomicileID
	ExecutorID               string
	Frequency                recurrence.Frequency
	DaysOfWeek               []int
	PreferredStartTime       string
	EstimatedDurationMinutes *int
	StartDate                time.Time
	EndDate                  *time.Time
}

// GenerationResult reports a recurrence run. Created holds the titles of the
// tasks created; Skipped counts matching templates whose task for the date
// already existed.
type GenerationResult struct {
	Date    time.Time    `json:"date"`
	Created []string     `json:"created"`
	Tasks   []*task.Task `json:"tasks"`
	Skipped int          `json:"skipped"`
}

func validateTemplate(in TemplateInput) error {
	var errs MultiError
	if strings.TrimSpace(in.Title) == "" {
		errs.Add(invalid("title", "is required"))
	}
	if in.ExecutorID == "" {
		errs.Add(invalid("executor_id", "is required"))
	}
	if !in.Frequency.Valid() {
		errs.Add(invalid("frequency", "unknown frequency %q", in.Frequency))
	}
	if (in.Frequency == recurrence.Weekly || in.Frequency == recurrence.Biweekly) && len(in.DaysOfWeek) == 0 {
		errs.Add(invalid("days_of_week", "is required for %s templates", in.Frequency))
	}
	for _, d := range in.DaysOfWeek {
		if d < 0 || d > 6 {
			errs.Add(invalid("days_of_week", "day %d out of range 0-6", d))
		}
	}
	if in.PreferredStartTime != "" {
		if _, _, err := recurrence.ParseClock(in.PreferredStartTime); err != nil {
			errs.Add(invalid("preferred_start_time", "must be HH:MM"))
		}
	}
	if in.EstimatedDurationMinutes != nil && *in.EstimatedDurationMinutes <= 0 {
		errs.Add(invalid("estimated_duration_minutes", "must be positive"))
	}
	if in.StartDate.IsZero() {
		errs.Add(invalid("start_date", "is required"))
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		errs.Add(invalid("end_date", "must not precede start_date"))
	}
	return errs.ErrOrNil()
}

// CreateTemplate registers an active recurring template owned by the caller.
func (e *Engine) CreateTemplate(ctx context.Context, p authz.Principal, in TemplateInput) (*recurrence.Template, error) {
	g, err := e.authorize(ctx, p, authz.CapManageRecur)
	if err != nil {
		return nil, err
	}
	if err := validateTemplate(in); err != nil {
		return nil, err
	}
	if _, err := e.ownedDomicile(ctx, g, in.DomicileID); err != nil {
		return nil, err
	}

	t := &recurrence.Template{
		Entity:   types.NewEntity(e.clock.Now()),
		ID:       id.NewTemplateID(),
		OwnerID:  g.UserID(),
		IsActive: true,
	}
	applyTemplate(t, in)
	if err := e.store.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}

	e.logger.Debug("template created",
		"template_id", t.ID.String(),
		"frequency", string(t.Frequency),
	)
	return t, nil
}

// UpdateTemplate replaces a template's rule. Tasks already generated are
// left untouched.
func (e *Engine) UpdateTemplate(ctx context.Context, p authz.Principal, templateID id.TemplateID, in TemplateInput) (*recurrence.Template, error) {
	if err := validateTemplate(in); err != nil {
		return nil, err
	}
	return e.mutateTemplate(ctx, p, templateID, func(g authz.Grants, t *recurrence.Template) error {
		if in.DomicileID != t.DomicileID {
			if _, err := e.ownedDomicile(ctx, g, in.DomicileID); err != nil {
				return err
			}
		}
		applyTemplate(t, in)
		return nil
	})
}

// SetTemplateActive pauses or resumes a template.
func (e *Engine) SetTemplateActive(ctx context.Context, p authz.Principal, templateID id.TemplateID, active bool) (*recurrence.Template, error) {
	return e.mutateTemplate(ctx, p, templateID, func(_ authz.Grants, t *recurrence.Template) error {
		t.IsActive = active
		return nil
	})
}

// GetTemplate returns a template owned by the caller.
func (e *Engine) GetTemplate(ctx context.Context, p authz.Principal, templateID id.TemplateID) (*recurrence.Template, error) {
	g, err := e.authorize(ctx, p, authz.CapManageRecur)
	if err != nil {
		return nil, err
	}
	t, err := e.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != g.UserID() {
		return nil, ErrNotOwner
	}
	return t, nil
}

// ListTemplates lists the caller's templates.
func (e *Engine) ListTemplates(ctx context.Context, p authz.Principal, opts recurrence.ListOpts) ([]*recurrence.Template, error) {
	g, err := e.authorize(ctx, p, authz.CapManageRecur)
	if err != nil {
		return nil, err
	}
	opts.OwnerID = g.UserID()
	return e.store.ListTemplates(ctx, opts)
}

// ShouldGenerate reports whether t produces a task on date.
func (e *Engine) ShouldGenerate(t *recurrence.Template, date time.Time) bool {
	return recurrence.ShouldGenerate(t, date)
}

// GenerateRecurringTasks creates the tasks due on date from every active
// template owned by the caller. Each (template, date) pair produces at most
// one task no matter how often the run is repeated.
func (e *Engine) GenerateRecurringTasks(ctx context.Context, p authz.Principal, date time.Time) (*GenerationResult, error) {
	g, err := e.authorize(ctx, p, authz.CapManageRecur)
	if err != nil {
		return nil, err
	}

	templates, err := e.store.ListTemplates(ctx, recurrence.ListOpts{
		OwnerID:    g.UserID(),
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}

	res := &GenerationResult{
		Date:    recurrence.Date(date),
		Created: []string{},
		Tasks:   []*task.Task{},
	}
	for _, tpl := range templates {
		if !recurrence.ShouldGenerate(tpl, date) {
			continue
		}

		created, err := e.generateOne(ctx, g, tpl, date)
		if err != nil {
			return res, err
		}
		if created == nil {
			res.Skipped++
			continue
		}
		res.Created = append(res.Created, created.Title)
		res.Tasks = append(res.Tasks, created)
	}

	if len(res.Tasks) > 0 {
		e.plugins.EmitTasksGenerated(ctx, res.Date, res.Tasks)
	}
	e.logger.Info("recurring tasks generated",
		"date", res.Date.Format(time.DateOnly),
		"created", len(res.Created),
		"skipped", res.Skipped,
	)
	return res, nil
}

// generateOne claims the (template, date) key and creates the task. It
// returns nil when another run already holds the key.
func (e *Engine) generateOne(ctx context.Context, g authz.Grants, tpl *recurrence.Template, date time.Time) (*task.Task, error) {
	var out *task.Task
	err := e.inTx(ctx, func(ctx context.Context) error {
		now := e.clock.Now()
		key := recurrence.KeyFor(tpl.ID, date)
		t := &task.Task{
			Entity:             types.NewEntity(now),
			ID:                 id.NewTaskID(),
			Title:              tpl.Title,
			Description:        tpl.Description,
			DomicileID:         tpl.DomicileID,
			AssignedExecutorID: tpl.AssignedExecutorID,
			Status:             task.StatusTodo,
			TemplateID:         tpl.ID,
			CreatedBy:          g.UserID(),
		}
		t.PlannedStart, t.PlannedEnd = recurrence.Window(tpl, date)

		won, err := e.store.ClaimGeneration(ctx, &recurrence.Generation{
			Key:       key,
			TaskID:    t.ID,
			CreatedAt: now.UTC(),
		})
		if err != nil || !won {
			return err
		}

		if err := e.store.CreateTask(ctx, t); err != nil {
			if rerr := e.store.ReleaseGeneration(ctx, key); rerr != nil {
				e.logger.Warn("release generation key failed", "key", key.String(), "error", rerr)
			}
			return err
		}

		stamp := now.UTC()
		tpl.LastGeneratedAt = &stamp
		tpl.Touch(now)
		if err := e.store.UpdateTemplate(ctx, tpl); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

func (e *Engine) mutateTemplate(ctx context.Context, p authz.Principal, templateID id.TemplateID, apply func(authz.Grants, *recurrence.Template) error) (*recurrence.Template, error) {
	g, err := e.authorize(ctx, p, authz.CapManageRecur)
	if err != nil {
		return nil, err
	}

	var out *recurrence.Template
	err = e.inTx(ctx, func(ctx context.Context) error {
		t, err := e.store.GetTemplate(ctx, templateID)
		if err != nil {
			return err
		}
		if t.OwnerID != g.UserID() {
			return ErrNotOwner
		}
		if err := apply(g, t); err != nil {
			return err
		}
		t.Touch(e.clock.Now())
		if err := e.store.UpdateTemplate(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyTemplate(t *recurrence.Template, in TemplateInput) {
	t.Title = strings.TrimSpace(in.Title)
	t.Description = in.Description
	t.DomicileID = in.DomicileID
	t.AssignedExecutorID = in.ExecutorID
	t.Frequency = in.Frequency
	t.DaysOfWeek = append([]int(nil), in.DaysOfWeek...)
	t.PreferredStartTime = in.PreferredStartTime
	t.EstimatedDurationMinutes = in.EstimatedDurationMinutes
	t.StartDate = recurrence.Date(in.StartDate)
	t.EndDate = nil
	if in.EndDate != nil {
		end := recurrence.Date(*in.EndDate)
		t.EndDate = &end
	}
}
