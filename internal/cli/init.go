// Package cli provides common initialization shared by cmd/denaro,
// cmd/denaro-worker and cmd/denaroctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"denaro/internal/amqp"
	"denaro/internal/backend"
	"denaro/internal/config"
	"denaro/internal/core"
	"denaro/internal/ledger"
	"denaro/internal/log"
	"denaro/internal/services"
	"denaro/internal/storage"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Handler = nil
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads and validates configuration from the environment.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Runtime bundles the ledger service with the resources behind it.
type Runtime struct {
	Service *services.LedgerService
	KV      storage.KV
	AMQP    *amqp.Client
	Cleanup backend.CleanupFunc
}

// Ready pings the backend when it supports health checks.
func (rt *Runtime) Ready(ctx context.Context) error {
	if p, ok := rt.KV.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// OpenLedger creates the configured backend and loads the store. Problems
// reading persisted data are logged; the store still opens with defaults.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runtime, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		res.Cleanup()
		return nil, err
	}

	store, err := ledger.Open(ctx, ledger.Options{
		Backend:  res.KV,
		Key:      cfg.StoreKey,
		Location: loc,
		Logger:   logger,
	})
	if err != nil && !core.IsPersistence(err) {
		res.Cleanup()
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err != nil {
		logger.WarnContext(ctx, "Ledger opened with defaults after a storage error", log.FieldError, err)
	}

	rep := store.LastLoad()
	logger.InfoContext(ctx, "Ledger loaded",
		log.FieldStoreKey, cfg.StoreKey,
		log.FieldVersion, store.Version(),
		"found", rep.Found,
		"fallback", rep.Fallback,
		"periods", len(store.Periods()))

	var pub services.Publisher
	if res.AMQP != nil {
		pub = res.AMQP
	}
	return &Runtime{
		Service: services.NewLedgerService(store, pub, logger),
		KV:      res.KV,
		AMQP:    res.AMQP,
		Cleanup: res.Cleanup,
	}, nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
