package steward

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/clock"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/sequence"
	"github.com/xraph/steward/types"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithAuthorizer replaces the default role-based authorizer.
func WithAuthorizer(a authz.Authorizer) Option {
	return func(e *Engine) {
		e.authorizer = a
	}
}

// WithSequencer sets the invoice-number counter. Defaults to the store's.
func WithSequencer(s sequence.Sequencer) Option {
	return func(e *Engine) {
		e.sequencer = s
	}
}

// WithCurrency sets the billing currency.
func WithCurrency(currency string) Option {
	return func(e *Engine) {
		if currency != "" {
			e.currency = types.NormalizeCurrency(currency)
		}
	}
}

// WithDefaultTaxRate sets the tax percentage used when a request omits one.
func WithDefaultTaxRate(rate decimal.Decimal) Option {
	return func(e *Engine) {
		if !rate.IsNegative() {
			e.defaultTaxRate = rate
		}
	}
}

// WithFallbackHourlyRate sets the rate, in minor units, budgets use for
// executors without a configured rate.
func WithFallbackHourlyRate(cents int64) Option {
	return func(e *Engine) {
		if cents > 0 {
			e.fallbackRate = cents
		}
	}
}

// WithInvoiceDueDays sets how many days after creation invoices fall due.
func WithInvoiceDueDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.dueDays = days
		}
	}
}

// WithEstimateSampleSize sets how many recent entries feed an estimate.
func WithEstimateSampleSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.sampleSize = n
		}
	}
}

// WithBudgetFanOut bounds concurrent per-domicile queries in overviews.
func WithBudgetFanOut(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.budgetFanOut = n
		}
	}
}
