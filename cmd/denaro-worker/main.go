package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"denaro/internal/cli"
	"denaro/internal/log"
	"denaro/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.SetupLogger("info").Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)
	logger.Info("Starting denaro-worker")

	ctx, cancel := cli.ShutdownContext(context.Background(), logger)
	defer cancel()

	rt, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	processor := services.NewReconcileProcessor(rt.Service, services.ReconcileProcessorConfig{
		Interval: cfg.ReconcileInterval,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	if err := processor.Start(gctx); err != nil {
		logger.Error("Failed to start reconcile processor", log.FieldError, err)
		os.Exit(1)
	}

	if rt.AMQP != nil {
		g.Go(func() error {
			err := rt.AMQP.Consume(gctx, processor.HandleLedgerChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP message consumption - no broker configured")
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down worker...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return processor.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
