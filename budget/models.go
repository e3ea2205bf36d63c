// Package budget models monthly spending limits per domicile and the
// projections derived from approved ledger time.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/types"
)

// MonthlyBudget is the spending limit for one domicile in one month.
type MonthlyBudget struct {
	types.Entity
	ID         id.BudgetID   `json:"id"`
	DomicileID id.DomicileID `json:"domicile_id"`
	Year       int           `json:"year"`
	Month      int           `json:"month"`
	Amount     types.Money   `json:"budget_amount"`
	SetBy      string        `json:"set_by"`
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusOver    Status = "over"
)

// Line is the budget view of a single domicile.
type Line struct {
	DomicileID   id.DomicileID   `json:"domicile_id"`
	DomicileName string          `json:"domicile_name"`
	Budget       *types.Money    `json:"budget,omitempty"`
	Hours        decimal.Decimal `json:"hours"`
	Spent        types.Money     `json:"spent"`
	Projected    types.Money     `json:"projected"`
	PercentUsed  *int64          `json:"percent_used"`
	Status       Status          `json:"status"`
}

// Overview aggregates every domicile owned by an administrator for a month.
type Overview struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	DaysInMonth      int             `json:"days_in_month"`
	ElapsedDays      int             `json:"elapsed_days"`
	ProjectionFactor decimal.Decimal `json:"projection_factor"`
	Lines            []Line          `json:"domiciles"`
	TotalBudget      types.Money     `json:"total_budget"`
	TotalSpent       types.Money     `json:"total_spent"`
	TotalProjected   types.Money     `json:"total_projected"`
	PercentUsed      *int64          `json:"percent_used"`
	Status           Status          `json:"status"`
}

// Today is the cost of work started on the current date.
type Today struct {
	Date      time.Time       `json:"date"`
	Hours     decimal.Decimal `json:"hours"`
	Spent     types.Money     `json:"spent"`
	Entries   int64           `json:"entries"`
	TaskCount int64           `json:"task_count"`
}
