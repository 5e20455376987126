package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"denaro/internal/amqp"
	"denaro/internal/log"
)

// ReconcileProcessorConfig holds configuration for the reconcile processor
type ReconcileProcessorConfig struct {
	// Interval is how often the store is reloaded and reconciled (default: 15m)
	Interval time.Duration
}

// DefaultReconcileProcessorConfig returns sensible defaults
func DefaultReconcileProcessorConfig() ReconcileProcessorConfig {
	return ReconcileProcessorConfig{Interval: 15 * time.Minute}
}

// ReconcileProcessor keeps a long-running process's store current. It reloads
// when another process announces a newer version and periodically repairs
// income-total drift.
type ReconcileProcessor struct {
	service *LedgerService
	config  ReconcileProcessorConfig
	logger  *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewReconcileProcessor creates a new reconcile processor
func NewReconcileProcessor(service *LedgerService, config ReconcileProcessorConfig, logger *log.Logger) *ReconcileProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultReconcileProcessorConfig().Interval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ReconcileProcessor{
		service: service,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the reconcile loop. Returns an error if already running.
func (p *ReconcileProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("reconcile processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Reconcile processor started", "interval", p.config.Interval.String())
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ReconcileProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "Reconcile processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Reconcile processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ReconcileProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReconcileProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.RunOnce(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce reloads the store and fixes any drift. It returns the number of
// periods corrected.
func (p *ReconcileProcessor) RunOnce(ctx context.Context) int {
	if err := p.service.Reload(ctx); err != nil {
		p.logger.WarnContext(ctx, "Reload before reconcile failed", log.FieldError, err)
	}
	drift, err := p.service.Reconcile(ctx, true)
	if err != nil {
		p.logger.ErrorContext(ctx, "Reconcile failed", log.FieldOperation, log.OpReconcile, log.FieldError, err)
	}
	if len(drift) > 0 {
		p.logger.InfoContext(ctx, "Reconciled income totals", "periods", len(drift))
	}
	return len(drift)
}

// HandleLedgerChanged reloads the store when msg announces a version newer
// than the one held in memory. Messages this process published itself are
// ignored because the version is already current.
func (p *ReconcileProcessor) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if msg.Version <= p.service.Version() {
		p.logger.DebugContext(ctx, "Ledger change already applied",
			log.FieldOperation, msg.Operation, log.FieldVersion, msg.Version)
		return nil
	}
	if err := p.service.Reload(ctx); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "Store reloaded after ledger change",
		log.FieldOperation, msg.Operation,
		log.FieldPeriod, msg.Period,
		log.FieldVersion, p.service.Version())
	return nil
}
