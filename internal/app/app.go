// Package app is the composition root shared by the CLI server and the
// serverless function entrypoint: it turns a config.Config into api.Deps.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/api"
	"github.com/projectaghoy/aghoy/internal/infra/config"
	"github.com/projectaghoy/aghoy/internal/infra/eventbus"
	"github.com/projectaghoy/aghoy/internal/infra/llm"
	"github.com/projectaghoy/aghoy/internal/infra/logging"
	"github.com/projectaghoy/aghoy/internal/infra/ratelimit"
	"github.com/projectaghoy/aghoy/internal/infra/sqlite"
	"github.com/projectaghoy/aghoy/internal/privacy"
	"github.com/projectaghoy/aghoy/internal/version"
)

// App owns the long-lived collaborators behind the HTTP layer.
type App struct {
	Deps   api.Deps
	Logger *log.Logger

	bus       *eventbus.Bus
	db        *sql.DB
	cancel    context.CancelFunc
	closeOnce sync.Once

	providerTimeout time.Duration
}

// New wires logging, the provider router, the attempt log subscriber and the
// rate limiter. A broken provider configuration does not fail New: the broker
// answers every call with the configuration error so preflight and health
// keep working. A requested SQLite counter store that cannot be opened does.
func New(cfg config.Config, logOut io.Writer) (*App, error) {
	logger := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{Logger: logger, bus: eventbus.New(), cancel: cancel, providerTimeout: cfg.ProviderTimeout}
	if a.providerTimeout <= 0 {
		a.providerTimeout = llm.DefaultTimeout
	}

	store, err := a.rateStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	go llm.LogAttempts(a.bus.Subscribe(llm.TopicAttempt), logger)

	broker, providers := a.broker(cfg)
	a.Deps = api.Deps{
		Broker:    broker,
		Providers: providers,
		Limiter: ratelimit.New(store,
			ratelimit.WithLimit(cfg.RateLimit),
			ratelimit.WithWindow(cfg.RateWindow),
		),
		Logger:          logger,
		TrustedIPHeader: cfg.TrustedIPHeader,
		FingerprintKey:  a.fingerprintKey(cfg),
	}
	return a, nil
}

func (a *App) broker(cfg config.Config) (llm.Completer, []llm.ProviderConfig) {
	providers, err := cfg.Providers()
	if err != nil {
		var cfgErr *llm.ConfigurationError
		if !errors.As(err, &cfgErr) {
			cfgErr = &llm.ConfigurationError{Reason: err.Error()}
		}
		a.Logger.WithField("event", "misconfigured").Error(cfgErr.Error())
		return llm.Misconfigured(cfgErr), nil
	}

	usable := 0
	for _, p := range providers {
		if p.Usable() {
			usable++
		}
		a.Logger.WithFields(log.Fields{
			"provider": p.Name,
			"kind":     p.Kind,
			"model":    p.Model,
			"priority": p.Priority,
			"usable":   p.Usable(),
		}).Info("Provider configured")
	}
	if usable == 0 {
		a.Logger.WithField("event", "misconfigured").Error("No LLM provider has a usable credential")
	}

	opts := []llm.Option{
		llm.WithTimeout(a.providerTimeout),
		llm.WithUserAgent(version.UserAgent()),
	}
	adapters := map[llm.Kind]llm.Adapter{
		llm.KindOpenAI: llm.NewOpenAIAdapter(opts...),
		llm.KindOllama: llm.NewOllamaAdapter(opts...),
	}
	return llm.NewRouter(providers, adapters, llm.WithEvents(a.bus)), providers
}

func (a *App) rateStore(ctx context.Context, cfg config.Config) (ratelimit.Store, error) {
	switch cfg.RateStore {
	case "", config.RateStoreMemory:
		store := ratelimit.NewMemoryStore()
		go store.Start(ctx, cfg.RateWindow, cfg.RateWindow)
		return store, nil
	case config.RateStoreSQLite:
		db, err := sqlite.NewDB(cfg.RateDBPath)
		if err != nil {
			return nil, fmt.Errorf("app: rate store: %w", err)
		}
		a.db = db
		applied, err := sqlite.Migrate(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("app: rate store: %w", err)
		}
		for _, name := range applied {
			a.Logger.WithFields(log.Fields{"event": "migration_applied", "migration": name}).Info("Applied rate store migration")
		}
		store := sqlite.NewRateWindowStore(db)
		go store.Start(ctx, cfg.RateWindow, cfg.RateWindow)
		return store, nil
	}
	return nil, fmt.Errorf("app: unknown RATE_STORE %q", cfg.RateStore)
}

func (a *App) fingerprintKey(cfg config.Config) string {
	if cfg.FingerprintKey != "" {
		return cfg.FingerprintKey
	}
	a.Logger.WithField("event", "fingerprint_key_generated").
		Warn("FINGERPRINT_KEY not set; using a random per-process key, identity hashes will not match across restarts")
	return privacy.NewFingerprintKey()
}

// FailoverBudget is the longest a single broker call can take: every usable
// provider timing out in turn.
func (a *App) FailoverBudget() (perAttempt time.Duration, attempts int) {
	for _, p := range a.Deps.Providers {
		if p.Usable() {
			attempts++
		}
	}
	return a.providerTimeout, attempts
}

// Close stops background janitors and the log subscriber and closes the
// counter database. Safe to call more than once.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.cancel()
		a.bus.Close()
		if n := a.bus.Dropped(); n > 0 {
			a.Logger.WithFields(log.Fields{"event": "attempt_events_dropped", "count": n}).Warn("Attempt log subscriber fell behind")
		}
		if a.db != nil {
			err = a.db.Close()
		}
	})
	return err
}
