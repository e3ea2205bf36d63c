package steward_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/steward"
	"github.com/xraph/steward/recurrence"
	"github.com/xraph/steward/task"
)

func (f *fixture) weekly(t *testing.T) *recurrence.Template {
	t.Helper()

	minutes := 90
	tpl, err := f.engine.CreateTemplate(f.ctx, f.admin, steward.TemplateInput{
		Title:                    "Pool maintenance",
		DomicileID:               f.site.ID,
		ExecutorID:               executorID,
		Frequency:                recurrence.Weekly,
		DaysOfWeek:               []int{1, 3, 5},
		PreferredStartTime:       "09:30",
		EstimatedDurationMinutes: &minutes,
		StartDate:                time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	return tpl
}

func TestGenerateSkipsNonMatchingDay(t *testing.T) {
	f := newFixture(t, march10)
	tpl := f.weekly(t)

	tuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	if f.engine.ShouldGenerate(tpl, tuesday) {
		t.Error("weekly Mon/Wed/Fri template matched a Tuesday")
	}

	res, err := f.engine.GenerateRecurringTasks(f.ctx, f.admin, tuesday)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 0 {
		t.Errorf("created %v on a Tuesday", res.Created)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	f := newFixture(t, march10)
	tpl := f.weekly(t)
	wednesday := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	res, err := f.engine.GenerateRecurringTasks(f.ctx, f.admin, wednesday)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 1 || res.Created[0] != "Pool maintenance" {
		t.Fatalf("created = %v, want [Pool maintenance]", res.Created)
	}
	tk := res.Tasks[0]
	wantStart := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	if !tk.PlannedStart.Equal(wantStart) || !tk.PlannedEnd.Equal(wantStart.Add(90*time.Minute)) {
		t.Errorf("window = %v-%v", tk.PlannedStart, tk.PlannedEnd)
	}
	if tk.Status != task.StatusTodo || tk.TemplateID != tpl.ID || tk.AssignedExecutorID != executorID {
		t.Errorf("task = %+v", tk)
	}

	// A retitled template must still not produce a second task for the day.
	edited := steward.TemplateInput{
		Title:      "Pool cleaning",
		DomicileID: f.site.ID,
		ExecutorID: executorID,
		Frequency:  recurrence.Weekly,
		DaysOfWeek: []int{1, 3, 5},
		StartDate:  tpl.StartDate,
	}
	if _, err := f.engine.UpdateTemplate(f.ctx, f.admin, tpl.ID, edited); err != nil {
		t.Fatal(err)
	}

	res, err = f.engine.GenerateRecurringTasks(f.ctx, f.admin, wednesday)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 0 || res.Skipped != 1 {
		t.Errorf("rerun created %v skipped %d, want none and 1", res.Created, res.Skipped)
	}

	tasks, err := f.engine.ListTasks(f.ctx, f.admin, task.ListOpts{TemplateID: tpl.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Errorf("template produced %d tasks, want 1", len(tasks))
	}

	got, err := f.engine.GetTemplate(f.ctx, f.admin, tpl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastGeneratedAt == nil || !got.LastGeneratedAt.Equal(march10) {
		t.Errorf("last generated = %v, want %v", got.LastGeneratedAt, march10)
	}
}

func TestGenerateRespectsActiveFlag(t *testing.T) {
	f := newFixture(t, march10)
	tpl := f.weekly(t)
	if _, err := f.engine.SetTemplateActive(f.ctx, f.admin, tpl.ID, false); err != nil {
		t.Fatal(err)
	}

	res, err := f.engine.GenerateRecurringTasks(f.ctx, f.admin, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 0 {
		t.Errorf("paused template created %v", res.Created)
	}

	other, err := f.engine.GenerateRecurringTasks(f.ctx, steward.Admin("admin-2"), time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(other.Created) != 0 {
		t.Errorf("foreign admin generated %v", other.Created)
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	f := newFixture(t, march10)

	_, err := f.engine.CreateTemplate(f.ctx, f.admin, steward.TemplateInput{
		DomicileID:         f.site.ID,
		Frequency:          recurrence.Biweekly,
		PreferredStartTime: "25:99",
	})
	if !steward.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	var multi steward.MultiError
	if !errors.As(err, &multi) || len(multi.Errors) < 4 {
		t.Errorf("want every field reported, got %v", err)
	}

	tpl := f.weekly(t)
	if !tpl.IsActive || tpl.OwnerID != adminID {
		t.Errorf("new template = active %v owner %s", tpl.IsActive, tpl.OwnerID)
	}
}
