package audithook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/timelog"
	"github.com/xraph/steward/types"
)

func collect(events *[]*AuditEvent) RecorderFunc {
	return func(_ context.Context, ev *AuditEvent) error {
		*events = append(*events, ev)
		return nil
	}
}

func TestRecordsInvoiceEvents(t *testing.T) {
	var events []*AuditEvent
	ext := New(collect(&events))
	ctx := context.Background()

	inv := &invoice.Invoice{
		ID:     id.NewInvoiceID(),
		Number: "INV-202603-0001",
		Total:  types.EUR(120000),
	}
	if err := ext.OnInvoiceGenerated(ctx, inv); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnInvoiceCancelled(ctx, inv, "duplicate"); err != nil {
		t.Fatal(err)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	gen := events[0]
	if gen.Action != ActionInvoiceGenerated || gen.ResourceID != inv.ID.String() || gen.Resource != ResourceInvoice {
		t.Errorf("generated event = %+v", gen)
	}
	if gen.Metadata["number"] != inv.Number || gen.Metadata["total"] != int64(120000) {
		t.Errorf("generated metadata = %v", gen.Metadata)
	}
	if events[1].Severity != SeverityWarning || events[1].Metadata["cancel_reason"] != "duplicate" {
		t.Errorf("cancelled event = %+v", events[1])
	}
}

func TestBudgetSeverity(t *testing.T) {
	var events []*AuditEvent
	ext := New(collect(&events))

	pct := int64(104)
	line := budget.Line{DomicileID: id.NewDomicileID(), Status: budget.StatusOver, PercentUsed: &pct}
	if err := ext.OnBudgetThreshold(context.Background(), 2026, 4, line); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Severity != SeverityCritical || events[0].Metadata["percent_used"] != pct {
		t.Errorf("events = %+v", events)
	}
}

func TestActionFilters(t *testing.T) {
	entry := &timelog.Entry{ID: id.NewTimeLogID(), ExecutorID: "exec-1"}
	ctx := context.Background()

	tests := []struct {
		name string
		opt  Option
		want int
	}{
		{"all enabled by default", nil, 2},
		{"enabled subset", WithEnabledActions(ActionTimeLogApproved), 1},
		{"disabled subset", WithDisabledActions(ActionTimeLogSubmitted, ActionTimeLogApproved), 0},
		{"disabled wins over enabled", func(e *Extension) {
			WithEnabledActions(ActionTimeLogApproved)(e)
			WithDisabledActions(ActionTimeLogApproved)(e)
		}, 0},
		{"info below warning floor", WithMinimumSeverity(SeverityWarning), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []*AuditEvent
			var opts []Option
			if tt.opt != nil {
				opts = append(opts, tt.opt)
			}
			ext := New(collect(&events), opts...)
			_ = ext.OnTimeLogSubmitted(ctx, entry)
			_ = ext.OnTimeLogApproved(ctx, entry)
			if len(events) != tt.want {
				t.Errorf("events = %d, want %d", len(events), tt.want)
			}
		})
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := New(
		RecorderFunc(func(context.Context, *AuditEvent) error { return errors.New("backend down") }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	entry := &timelog.Entry{ID: id.NewTimeLogID()}
	if err := ext.OnTimeLogRejected(context.Background(), entry, "late"); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}
