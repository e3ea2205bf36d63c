package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/steward/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"DomicileID", id.NewDomicileID, "dom_"},
		{"TaskID", id.NewTaskID, "task_"},
		{"TimeLogID", id.NewTimeLogID, "tlog_"},
		{"InvoiceID", id.NewInvoiceID, "inv_"},
		{"RateID", id.NewRateID, "rate_"},
		{"BudgetID", id.NewBudgetID, "bud_"},
		{"TemplateID", id.NewTemplateID, "rtpl_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseTaskID rejects tlog_", id.NewTimeLogID().String(), id.ParseTaskID},
		{"ParseTimeLogID rejects task_", id.NewTaskID().String(), id.ParseTimeLogID},
		{"ParseInvoiceID rejects dom_", id.NewDomicileID().String(), id.ParseInvoiceID},
		{"ParseTemplateID rejects bud_", id.NewBudgetID().String(), id.ParseTemplateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parseFn(tt.input); err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseOptional(t *testing.T) {
	got, err := id.ParseOptional("", id.PrefixTask)
	if err != nil {
		t.Fatalf("ParseOptional(\"\") failed: %v", err)
	}
	if !got.IsNil() {
		t.Error("expected Nil for empty input")
	}

	original := id.NewTaskID()
	got, err = id.ParseOptional(original.String(), id.PrefixTask)
	if err != nil {
		t.Fatalf("ParseOptional failed: %v", err)
	}
	if got != original {
		t.Errorf("mismatch: %q != %q", got, original)
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}

	val, err := i.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected NULL value for nil ID, got %v", val)
	}
}

func TestScanString(t *testing.T) {
	original := id.NewInvoiceID()

	var scanned id.ID
	if err := scanned.Scan(original.String()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewTimeLogID()
	b := id.NewTimeLogID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewTimeLogID() calls returned the same ID: %q", a.String())
	}
}
