package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/steward/types"
)

var secondsPerHour = decimal.NewFromInt(3600)

// DefaultTaxRate is the tax percentage applied when none is given.
var DefaultTaxRate = decimal.NewFromInt(20)

// Amounts is the monetary breakdown of an invoice.
type Amounts struct {
	TotalHours decimal.Decimal
	Subtotal   types.Money
	TaxAmount  types.Money
	Total      types.Money
}

// HoursFromSeconds converts a second count to decimal hours.
func HoursFromSeconds(seconds int64) decimal.Decimal {
	return decimal.NewFromInt(seconds).Div(secondsPerHour)
}

// Compute prices totalSeconds of work at rate plus taxRate percent.
// The subtotal is taken from the exact seconds*rate product and the tax from
// the rounded subtotal, each rounded half-up once, and Total is their sum.
func Compute(totalSeconds int64, rate types.Money, taxRate decimal.Decimal) Amounts {
	subtotal := types.FromDecimal(
		decimal.NewFromInt(totalSeconds).Mul(rate.Cents()).Div(secondsPerHour),
		rate.Currency,
	)
	tax := subtotal.Percent(taxRate)
	return Amounts{
		TotalHours: HoursFromSeconds(totalSeconds),
		Subtotal:   subtotal,
		TaxAmount:  tax,
		Total:      subtotal.Add(tax),
	}
}

// EndOfDay extends t to 23:59:59 of its calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
