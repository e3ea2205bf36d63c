package extension

import (
	steward "github.com/xraph/steward"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/sequence"
	"github.com/xraph/steward/store"
)

// Option configures the Steward Forge extension.
type Option func(*Extension)

// WithStore sets the store for the steward engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a steward.Option through to the underlying engine.
func WithEngineOption(opt steward.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a steward plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, steward.WithPlugin(p))
	}
}

// WithSequencer sets the invoice-number sequencer. It takes precedence over
// a configured Redis URL.
func WithSequencer(s sequence.Sequencer) Option {
	return func(e *Extension) { e.sequencer = s }
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithCurrency sets the billing currency.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithInvoiceDueDays sets the payment term of generated invoices.
func WithInvoiceDueDays(days int) Option {
	return func(e *Extension) { e.config.InvoiceDueDays = days }
}

// WithRedisURL numbers invoices from a Redis counter at url.
func WithRedisURL(url string) Option {
	return func(e *Extension) { e.config.RedisURL = url }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
