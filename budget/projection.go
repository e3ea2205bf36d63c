package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/steward/types"
)

const (
	warningPercent = 80
	overPercent    = 100
)

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthBounds returns [start, end) of the month in loc.
func MonthBounds(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// ElapsedDays returns how many days of the month count toward the projection
// at now. The current month counts up to today; other months count in full.
func ElapsedDays(year, month int, now time.Time) int {
	days := DaysIn(year, month)
	if now.Year() != year || int(now.Month()) != month {
		return days
	}
	return min(now.Day(), days)
}

// Factor returns daysInMonth / elapsed.
func Factor(daysInMonth, elapsed int) decimal.Decimal {
	if elapsed <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(daysInMonth)).Div(decimal.NewFromInt(int64(elapsed)))
}

// Project scales month-to-date spend to the whole month, rounded to cents.
func Project(spent types.Money, daysInMonth, elapsed int) types.Money {
	if elapsed <= 0 {
		return spent
	}
	scaled := spent.Cents().
		Mul(decimal.NewFromInt(int64(daysInMonth))).
		Div(decimal.NewFromInt(int64(elapsed)))
	return types.FromDecimal(scaled, spent.Currency)
}

// Cost prices seconds of work at rate, rounded to cents.
func Cost(seconds int64, rate types.Money) types.Money {
	return types.FromDecimal(
		decimal.NewFromInt(seconds).Mul(rate.Cents()).Div(decimal.NewFromInt(3600)),
		rate.Currency,
	)
}

// PercentUsed returns round(spent/budget*100), or nil without a budget.
func PercentUsed(spent types.Money, budget *types.Money) *int64 {
	if budget == nil || !budget.IsPositive() {
		return nil
	}
	pct := types.RoundHalfUp(
		spent.Cents().Mul(decimal.NewFromInt(100)).Div(budget.Cents()),
	).IntPart()
	return &pct
}

// Classify maps a usage percentage to a status. No budget reads as ok.
func Classify(percent *int64) Status {
	switch {
	case percent == nil:
		return StatusOK
	case *percent >= overPercent:
		return StatusOver
	case *percent >= warningPercent:
		return StatusWarning
	default:
		return StatusOK
	}
}
