// Package invoice models billable invoices built from approved ledger time.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/types"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// Invoice bills one executor's approved time at one domicile over a period.
//
// TotalHours is TotalSeconds/3600. Subtotal, TaxAmount and Total are in
// minor units and satisfy Total == Subtotal + TaxAmount.
type Invoice struct {
	types.Entity
	ID           id.InvoiceID    `json:"id"`
	Number       string          `json:"invoice_number"`
	Period       string          `json:"period"` // YYYYMM numbering bucket
	Sequence     int64           `json:"sequence"`
	DomicileID   id.DomicileID   `json:"domicile_id"`
	ExecutorID   string          `json:"executor_id"`
	PeriodStart  time.Time       `json:"period_start"`
	PeriodEnd    time.Time       `json:"period_end"`
	TotalSeconds int64           `json:"total_seconds"`
	TotalHours   decimal.Decimal `json:"total_hours"`
	EntryCount   int64           `json:"entry_count"`
	HourlyRate   types.Money     `json:"hourly_rate"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Subtotal     types.Money     `json:"subtotal"`
	TaxAmount    types.Money     `json:"tax_amount"`
	Total        types.Money     `json:"total"`
	Status       Status          `json:"status"`
	DueDate      time.Time       `json:"due_date"`
	SentAt       *time.Time      `json:"sent_at,omitempty"`
	PaidDate     *time.Time      `json:"paid_date,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	CreatedBy    string          `json:"created_by"`
}

// Overdue reports whether a sent invoice is past its due date at now.
func (inv *Invoice) Overdue(now time.Time) bool {
	return inv.Status == StatusSent && now.After(inv.DueDate)
}
