// Package services orchestrates store mutations with the side effects that
// follow a successful write: change notifications and derived-value caching.
package services

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"denaro/internal/amqp"
	"denaro/internal/cache"
	"denaro/internal/core"
	"denaro/internal/ledger"
	"denaro/internal/log"
	"denaro/internal/period"
	"denaro/internal/report"
)

// Operation names carried by change notifications.
const (
	OpEnsurePeriod   = "period.ensure"
	OpSetBudget      = "period.budget"
	OpClearPeriod    = "period.clear"
	OpRestorePeriod  = "period.restore"
	OpAddExpense     = "expense.add"
	OpEditExpense    = "expense.edit"
	OpDeleteExpense  = "expense.delete"
	OpAddIncome      = "income.add"
	OpEditIncome     = "income.edit"
	OpDeleteIncome   = "income.delete"
	OpAddCategory    = "category.add"
	OpRenameCategory = "category.rename"
	OpDeleteCategory = "category.delete"
	OpAddGoal        = "goal.add"
	OpEditGoal       = "goal.edit"
	OpDeleteGoal     = "goal.delete"
	OpUpdateSettings = "settings.update"
	OpImport         = "store.import"
	OpReset          = "store.reset"
	OpReconcile      = "store.reconcile"
)

const (
	publishTimeout    = 5 * time.Second
	reportCacheSize   = 256
	reportCacheMaxAge = 10 * time.Minute
)

// Publisher sends change notifications. *amqp.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// LedgerService wraps a store. Mutations that reach the backend are announced
// through the publisher; reads are promoted from the embedded store.
type LedgerService struct {
	*ledger.Store
	publisher Publisher
	logger    *log.Logger

	summaries *cache.LRUCache[report.Summary]
	trends    *cache.LRUCache[[]report.TrendPoint]
	breakdown *cache.LRUCache[[]report.CategoryAmount]
}

// NewLedgerService creates the service. publisher may be nil.
func NewLedgerService(store *ledger.Store, publisher Publisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		Store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		summaries: cache.NewLRUCache[report.Summary](reportCacheSize, reportCacheMaxAge),
		trends:    cache.NewLRUCache[[]report.TrendPoint](reportCacheSize, reportCacheMaxAge),
		breakdown: cache.NewLRUCache[[]report.CategoryAmount](reportCacheSize, reportCacheMaxAge),
	}
}

// RegisterCaches hands the report caches to m for periodic expiry sweeps.
func (s *LedgerService) RegisterCaches(m *cache.Manager) {
	m.Register(s.summaries)
	m.Register(s.trends)
	m.Register(s.breakdown)
}

// CacheStats reports lookups on the summary cache.
func (s *LedgerService) CacheStats() cache.Stats {
	return s.summaries.Stats()
}

// announce publishes a change when err shows the write reached the backend.
// Publish failures are logged and never surface to the caller.
func (s *LedgerService) announce(ctx context.Context, period, op string, err error) {
	if err != nil || s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(period, op, s.Version())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if perr := s.publisher.Publish(ctx, msg); perr != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, op, log.FieldPeriod, period, log.FieldError, perr)
	}
}

func (s *LedgerService) EnsurePeriod(ctx context.Context, key string) error {
	before := s.Revision()
	err := s.Store.EnsurePeriod(ctx, key)
	if s.Revision() != before {
		s.announce(ctx, key, OpEnsurePeriod, err)
	}
	return err
}

func (s *LedgerService) SetBudget(ctx context.Context, key string, amount decimal.Decimal) error {
	err := s.Store.SetBudget(ctx, key, amount)
	s.announceWrite(ctx, key, OpSetBudget, err)
	return err
}

func (s *LedgerService) ClearPeriod(ctx context.Context, key string) (core.Ledger, error) {
	snap, err := s.Store.ClearPeriod(ctx, key)
	s.announceWrite(ctx, key, OpClearPeriod, err)
	return snap, err
}

func (s *LedgerService) RestorePeriod(ctx context.Context, key string, snapshot core.Ledger) error {
	err := s.Store.RestorePeriod(ctx, key, snapshot)
	s.announceWrite(ctx, key, OpRestorePeriod, err)
	return err
}

func (s *LedgerService) AddExpense(ctx context.Context, key, name string, amount decimal.Decimal, category, date string) (core.Expense, error) {
	e, err := s.Store.AddExpense(ctx, key, name, amount, category, date)
	s.announceWrite(ctx, key, OpAddExpense, err)
	return e, err
}

func (s *LedgerService) EditExpense(ctx context.Context, key string, ref core.Ref, patch core.TransactionPatch) (core.Expense, error) {
	e, err := s.Store.EditExpense(ctx, key, ref, patch)
	s.announceWrite(ctx, key, OpEditExpense, err)
	return e, err
}

func (s *LedgerService) DeleteExpense(ctx context.Context, key string, ref core.Ref) (core.Expense, error) {
	e, err := s.Store.DeleteExpense(ctx, key, ref)
	s.announceWrite(ctx, key, OpDeleteExpense, err)
	return e, err
}

func (s *LedgerService) AddIncome(ctx context.Context, key, source string, amount decimal.Decimal, category, date string) (core.Income, error) {
	in, err := s.Store.AddIncome(ctx, key, source, amount, category, date)
	s.announceWrite(ctx, key, OpAddIncome, err)
	return in, err
}

func (s *LedgerService) EditIncome(ctx context.Context, key string, ref core.Ref, patch core.TransactionPatch) (core.Income, error) {
	in, err := s.Store.EditIncome(ctx, key, ref, patch)
	s.announceWrite(ctx, key, OpEditIncome, err)
	return in, err
}

func (s *LedgerService) DeleteIncome(ctx context.Context, key string, ref core.Ref) (core.Income, error) {
	in, err := s.Store.DeleteIncome(ctx, key, ref)
	s.announceWrite(ctx, key, OpDeleteIncome, err)
	return in, err
}

func (s *LedgerService) AddCategory(ctx context.Context, name string) (string, error) {
	c, err := s.Store.AddCategory(ctx, name)
	s.announceWrite(ctx, "", OpAddCategory, err)
	return c, err
}

func (s *LedgerService) RenameCategory(ctx context.Context, oldName, newName string) (string, error) {
	c, err := s.Store.RenameCategory(ctx, oldName, newName)
	s.announceWrite(ctx, "", OpRenameCategory, err)
	return c, err
}

func (s *LedgerService) DeleteCategory(ctx context.Context, name string) error {
	err := s.Store.DeleteCategory(ctx, name)
	s.announceWrite(ctx, "", OpDeleteCategory, err)
	return err
}

func (s *LedgerService) AddGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	out, err := s.Store.AddGoal(ctx, g)
	s.announceWrite(ctx, "", OpAddGoal, err)
	return out, err
}

func (s *LedgerService) EditGoal(ctx context.Context, id string, patch core.GoalPatch) (core.Goal, error) {
	out, err := s.Store.EditGoal(ctx, id, patch)
	s.announceWrite(ctx, "", OpEditGoal, err)
	return out, err
}

func (s *LedgerService) DeleteGoal(ctx context.Context, id string) error {
	err := s.Store.DeleteGoal(ctx, id)
	s.announceWrite(ctx, "", OpDeleteGoal, err)
	return err
}

func (s *LedgerService) UpdateSettings(ctx context.Context, patch core.SettingsPatch) (core.Settings, error) {
	st, err := s.Store.UpdateSettings(ctx, patch)
	s.announceWrite(ctx, "", OpUpdateSettings, err)
	return st, err
}

func (s *LedgerService) Import(ctx context.Context, data []byte) (ledger.MigrationReport, error) {
	rep, err := s.Store.Import(ctx, data)
	s.announceWrite(ctx, "", OpImport, err)
	return rep, err
}

func (s *LedgerService) Reset(ctx context.Context) error {
	err := s.Store.Reset(ctx)
	s.announceWrite(ctx, "", OpReset, err)
	return err
}

func (s *LedgerService) Reconcile(ctx context.Context, fix bool) ([]ledger.Drift, error) {
	drift, err := s.Store.Reconcile(ctx, fix)
	if fix && len(drift) > 0 {
		s.announce(ctx, "", OpReconcile, err)
	}
	return drift, err
}

// announceWrite publishes only for writes that changed the store. Validation
// and lookup failures leave the store untouched.
func (s *LedgerService) announceWrite(ctx context.Context, key, op string, err error) {
	if err == nil {
		s.announce(ctx, key, op, nil)
	}
}

// Summary returns the figures for one period without creating it.
func (s *LedgerService) Summary(key string) (report.Summary, error) {
	if err := period.Validate(key); err != nil {
		return report.Summary{}, err
	}
	return cache.GetOrCompute[report.Summary](s.summaries, cache.Key(s.Revision(), key), func() (report.Summary, error) {
		l, _ := s.Lookup(key)
		return report.Summarize(l), nil
	})
}

// Breakdown groups the period's expenses dated within its month by category.
func (s *LedgerService) Breakdown(key string) ([]report.CategoryAmount, error) {
	if err := period.Validate(key); err != nil {
		return nil, err
	}
	y, m, _ := period.Parse(key)
	return cache.GetOrCompute[[]report.CategoryAmount](s.breakdown, cache.Key(s.Revision(), key), func() ([]report.CategoryAmount, error) {
		l, _ := s.Lookup(key)
		return report.CategoryBreakdown(l, y, m), nil
	})
}

// Trend returns window points ending at end, oldest first.
func (s *LedgerService) Trend(end string, window int) ([]report.TrendPoint, error) {
	key := cache.Key(s.Revision(), end, strconv.Itoa(window))
	return cache.GetOrCompute[[]report.TrendPoint](s.trends, key, func() ([]report.TrendPoint, error) {
		return report.TrendSeries(s.Store, end, window)
	})
}
