// Package extension provides the Forge extension adapter for Steward.
//
// It implements the forge.Extension interface to integrate Steward
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions,
// via YAML configuration files under "extensions.steward" or "steward" keys,
// or via STEWARD_* environment variables, which override file values.
package extension

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	steward "github.com/xraph/steward"
	"github.com/xraph/steward/sequence"
	"github.com/xraph/steward/store"
	"github.com/xraph/steward/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "steward"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Home-service workforce ledger, invoicing and scheduling"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

const redisDialTimeout = 5 * time.Second

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Steward as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *steward.Engine
	store      store.Store
	sequencer  sequence.Sequencer
	redis      *sequence.Redis
	engineOpts []steward.Option
}

// New creates a new Steward Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Steward engine.
// This is nil until Register is called.
func (e *Extension) Engine() *steward.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	if e.sequencer == nil && e.config.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
		defer cancel()
		r, err := sequence.NewRedisFromURL(ctx, e.config.RedisURL, e.config.RedisPrefix)
		if err != nil {
			return err
		}
		e.redis = r
		e.sequencer = r
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	e.engine = steward.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*steward.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("steward: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error {
	var errs []error
	if e.engine != nil {
		if err := e.engine.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.MarkStopped()
	return errors.Join(errs...)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("steward: store not initialized")
	}
	if err := e.store.Ping(ctx); err != nil {
		return err
	}
	if e.redis != nil {
		return e.redis.Ping(ctx)
	}
	return nil
}

// buildEngineOpts constructs steward.Option values from the resolved config.
// Pass-through options come last and win.
func (e *Extension) buildEngineOpts() ([]steward.Option, error) {
	rate, err := e.config.TaxRate()
	if err != nil {
		return nil, err
	}

	opts := make([]steward.Option, 0, len(e.engineOpts)+6)
	opts = append(opts,
		steward.WithCurrency(e.config.Currency),
		steward.WithDefaultTaxRate(rate),
		steward.WithFallbackHourlyRate(e.config.FallbackHourlyRateCents),
		steward.WithInvoiceDueDays(e.config.InvoiceDueDays),
		steward.WithEstimateSampleSize(e.config.EstimateSampleSize),
	)
	if e.sequencer != nil {
		opts = append(opts, steward.WithSequencer(e.sequencer))
	}

	return append(opts, e.engineOpts...), nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files, the environment and
// programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded && programmaticConfig.RequireConfig {
		return errors.New("steward: configuration is required but not found in config files; " +
			"ensure 'extensions.steward' or 'steward' key exists in your config")
	}

	env, err := readEnv()
	if err != nil {
		return err
	}

	if configLoaded {
		e.config = e.mergeConfigurations(overlayEnv(fileConfig, env), programmaticConfig)
	} else {
		e.config = e.mergeWithDefaults(overlayEnv(programmaticConfig, env))
	}

	e.Logger().Debug("steward: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("currency", e.config.Currency),
		forge.F("default_tax_rate", e.config.DefaultTaxRate),
		forge.F("fallback_hourly_rate_cents", e.config.FallbackHourlyRateCents),
		forge.F("invoice_due_days", e.config.InvoiceDueDays),
		forge.F("estimate_sample_size", e.config.EstimateSampleSize),
		forge.F("redis_sequencer", e.config.RedisURL != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.steward", "steward"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("steward: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("steward: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.DefaultTaxRate == "" {
		cfg.DefaultTaxRate = defaults.DefaultTaxRate
	}
	if cfg.FallbackHourlyRateCents == 0 {
		cfg.FallbackHourlyRateCents = defaults.FallbackHourlyRateCents
	}
	if cfg.InvoiceDueDays == 0 {
		cfg.InvoiceDueDays = defaults.InvoiceDueDays
	}
	if cfg.EstimateSampleSize == 0 {
		cfg.EstimateSampleSize = defaults.EstimateSampleSize
	}
	return cfg
}

// mergeConfigurations merges file config with programmatic options.
// File config takes precedence; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(fileConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		fileConfig.DisableMigrate = true
	}
	if fileConfig.Currency == "" {
		fileConfig.Currency = programmaticConfig.Currency
	}
	if fileConfig.DefaultTaxRate == "" {
		fileConfig.DefaultTaxRate = programmaticConfig.DefaultTaxRate
	}
	if fileConfig.FallbackHourlyRateCents == 0 {
		fileConfig.FallbackHourlyRateCents = programmaticConfig.FallbackHourlyRateCents
	}
	if fileConfig.InvoiceDueDays == 0 {
		fileConfig.InvoiceDueDays = programmaticConfig.InvoiceDueDays
	}
	if fileConfig.EstimateSampleSize == 0 {
		fileConfig.EstimateSampleSize = programmaticConfig.EstimateSampleSize
	}
	if fileConfig.RedisURL == "" {
		fileConfig.RedisURL = programmaticConfig.RedisURL
	}
	if fileConfig.RedisPrefix == "" {
		fileConfig.RedisPrefix = programmaticConfig.RedisPrefix
	}

	return e.mergeWithDefaults(fileConfig)
}
