package observability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
	"github.com/xraph/steward/types"
)

type fakeMetric struct {
	mu     sync.Mutex
	count  float64
	values []float64
}

func (f *fakeMetric) Inc() { f.Add(1) }

func (f *fakeMetric) Add(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count += v
}

func (f *fakeMetric) Observe(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = append(f.values, v)
}

type fakeFactory struct {
	metrics map[string]*fakeMetric
}

func (f *fakeFactory) get(name string) *fakeMetric {
	if m, ok := f.metrics[name]; ok {
		return m
	}
	m := &fakeMetric{}
	f.metrics[name] = m
	return m
}

func (f *fakeFactory) Counter(name string) Counter     { return f.get(name) }
func (f *fakeFactory) Histogram(name string) Histogram { return f.get(name) }

func TestMetricsExtensionCountsEvents(t *testing.T) {
	factory := &fakeFactory{metrics: make(map[string]*fakeMetric)}
	m := NewMetricsExtension(factory)

	reg := plugin.NewRegistry()
	if err := reg.Register(m); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	created := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	reviewed := created.Add(2 * time.Hour)
	entry := &timelog.Entry{
		Entity:      types.NewEntity(created),
		HoursWorked: 1.5,
		ValidatedAt: &reviewed,
	}

	reg.EmitTimeLogSubmitted(ctx, entry)
	reg.EmitTimeLogApproved(ctx, entry)
	reg.EmitTasksGenerated(ctx, created, []*task.Task{{}, {}, {}})
	reg.EmitInvoiceGenerated(ctx, &invoice.Invoice{Total: types.EUR(120000)})
	reg.EmitBudgetThreshold(ctx, 2026, 3, budget.Line{Status: budget.StatusOver})
	reg.EmitBudgetThreshold(ctx, 2026, 3, budget.Line{Status: budget.StatusWarning})

	tests := []struct {
		name string
		want float64
	}{
		{"steward.timelog.submitted", 1},
		{"steward.timelog.approved", 1},
		{"steward.recurrence.runs", 1},
		{"steward.recurrence.tasks_generated", 3},
		{"steward.invoice.generated", 1},
		{"steward.budget.over", 1},
		{"steward.budget.warning", 1},
		{"steward.invoice.paid", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := factory.metrics[tt.name].count; got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if got := factory.metrics["steward.timelog.review_latency_s"].values; len(got) != 1 || got[0] != 7200 {
		t.Errorf("review latency = %v, want [7200]", got)
	}
	if got := factory.metrics["steward.invoice.total_amount"].values; len(got) != 1 || got[0] != 120000 {
		t.Errorf("invoice total = %v, want [120000]", got)
	}
}
