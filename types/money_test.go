package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"New upper-case", New(2550, "GBP"), 2550, "gbp", "£25.50"},
		{"New empty currency", New(100, ""), 100, "eur", "€1.00"},
		{"Zero", Zero("EUR"), 0, "eur", "€0.00"},
		{"Negative", EUR(-1205), -1205, "eur", "€-12.05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestFromDecimalRoundsHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0.5", 1},
		{"1.49", 1},
		{"1.5", 2},
		{"2.5", 3},
		{"-2.5", -3},
		{"333.3333333", 333},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FromDecimal(decimal.RequireFromString(tt.in), "eur")
			if got.Amount != tt.want {
				t.Errorf("FromDecimal(%s) = %d, want %d", tt.in, got.Amount, tt.want)
			}
		})
	}
}

func TestFromMajor(t *testing.T) {
	m, err := FromMajor("25.005", "eur")
	if err != nil {
		t.Fatal(err)
	}
	if m.Amount != 2501 {
		t.Errorf("got %d, want 2501", m.Amount)
	}

	if _, err := FromMajor("twenty", "eur"); err == nil {
		t.Error("expected parse error")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name string
		base Money
		rate string
		want int64
	}{
		{"20% of 1000.00", EUR(100000), "20", 20000},
		{"0% of anything", EUR(12345), "0", 0},
		{"7.7% of 10.05", EUR(1005), "7.7", 77},
		{"19.6% of 0.25", EUR(25), "19.6", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.base.Percent(decimal.RequireFromString(tt.rate))
			if got.Amount != tt.want {
				t.Errorf("got %d, want %d", got.Amount, tt.want)
			}
		})
	}
}

func TestMulDecimal(t *testing.T) {
	got := EUR(50000).MulDecimal(decimal.NewFromInt(30).Div(decimal.NewFromInt(10)))
	if got.Amount != 150000 {
		t.Errorf("got %d, want 150000", got.Amount)
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	_ = EUR(100).Add(USD(100))
}

func TestSum(t *testing.T) {
	if got := Sum(EUR(100), EUR(250), EUR(-50)); got.Amount != 300 {
		t.Errorf("Sum = %d, want 300", got.Amount)
	}
	if got := Sum(); !got.IsZero() || got.Currency != DefaultCurrency {
		t.Errorf("empty Sum = %v", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(EUR(120000))
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["display"] != "€1200.00" {
		t.Errorf("display = %v", out["display"])
	}
	if out["amount"].(float64) != 120000 {
		t.Errorf("amount = %v", out["amount"])
	}
}
