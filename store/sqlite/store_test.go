package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/grove/drivers/sqlitedriver"

	steward "github.com/xraph/steward"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/timelog"
)

func TestClauseKeepsPositionalMarkers(t *testing.T) {
	w := timeLogClause(timelog.ListOpts{ExecutorID: "exec-1", Status: timelog.StatusApproved})
	if got, want := w.String(), "executor_id = ? AND status = ?"; got != want {
		t.Errorf("clause = %q, want %q", got, want)
	}

	var empty clause
	if empty.String() != "1 = 1" {
		t.Errorf("empty clause = %q", empty.String())
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	if encodeMetadata(nil) != "{}" {
		t.Error("nil metadata should encode as {}")
	}
	meta, err := decodeMetadata(encodeMetadata(map[string]string{"gate": "4411"}))
	if err != nil || meta["gate"] != "4411" {
		t.Errorf("decode = %v, %v", meta, err)
	}
}

func TestMapInsertErr(t *testing.T) {
	err := mapInsertErr(errors.New("constraint failed: UNIQUE constraint failed: steward_invoices.invoice_number (2067)"))
	if !errors.Is(err, steward.ErrAlreadyExists) {
		t.Errorf("got %v", err)
	}
	if mapInsertErr(nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestInvoiceModelKeepsDecimals(t *testing.T) {
	inv := &invoice.Invoice{Number: "INV-202603-0001"}
	m := toInvoiceModel(inv)
	if m.TotalHours != "0" || m.TaxRate != "0" {
		t.Errorf("zero decimals encoded as %q / %q", m.TotalHours, m.TaxRate)
	}
}

func TestQueryerFollowsContext(t *testing.T) {
	s := &Store{}
	if got := s.q(context.Background()); got != queryer(s.sdb) {
		t.Errorf("q without tx = %T, want the pool", got)
	}

	tx := new(sqlitedriver.SqliteTx)
	ctx := context.WithValue(context.Background(), txKey{}, tx)
	if got := s.q(ctx); got != queryer(tx) {
		t.Errorf("q with tx = %v, want the bound transaction", got)
	}
}

func TestRunInTxJoinsOuterTransaction(t *testing.T) {
	s := &Store{}
	outer := context.WithValue(context.Background(), txKey{}, new(sqlitedriver.SqliteTx))

	called := false
	err := s.RunInTx(outer, func(ctx context.Context) error {
		called = true
		if ctx != outer {
			t.Error("nested RunInTx replaced the outer context")
		}
		return nil
	})
	if err != nil || !called {
		t.Errorf("RunInTx = %v, called %v", err, called)
	}
}
