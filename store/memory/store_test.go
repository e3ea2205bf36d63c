package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/steward"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/types"
)

func newTask(title string) *task.Task {
	return &task.Task{
		Entity: types.NewEntity(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		ID:     id.NewTaskID(),
		Title:  title,
		Status: task.StatusTodo,
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	kept := newTask("kept")
	if err := s.CreateTask(ctx, kept); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	dropped := newTask("dropped")
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.CreateTask(ctx, dropped); err != nil {
			return err
		}
		edited := *kept
		edited.Status = task.StatusCompleted
		if err := s.UpdateTask(ctx, &edited); err != nil {
			return err
		}
		if _, err := s.NextInvoiceSequence(ctx, "202603"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	if _, err := s.GetTask(ctx, dropped.ID); !errors.Is(err, steward.ErrTaskNotFound) {
		t.Errorf("created task survived rollback: err = %v", err)
	}
	got, err := s.GetTask(ctx, kept.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != task.StatusTodo {
		t.Errorf("status = %s, want %s", got.Status, task.StatusTodo)
	}
	if seq, _ := s.NextInvoiceSequence(ctx, "202603"); seq != 1 {
		t.Errorf("sequence = %d, want 1", seq)
	}
}

func TestRunInTxCommitsAndNests(t *testing.T) {
	ctx := context.Background()
	s := New()
	tk := newTask("nested")

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		return s.RunInTx(ctx, func(ctx context.Context) error {
			return s.CreateTask(ctx, tk)
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTask(ctx, tk.ID); err != nil {
		t.Errorf("task not committed: %v", err)
	}
}
