package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/log"
	"denaro/internal/period"
)

// EnsurePeriod creates the zero-value ledger for key if it does not exist.
func (s *Store) EnsurePeriod(ctx context.Context, key string) error {
	if err := period.Validate(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, created := s.ensure(key); created {
		return s.persist(ctx, log.OpCreate)
	}
	return nil
}

// ensure must be called with mu held.
func (s *Store) ensure(key string) (*core.Ledger, bool) {
	if l, ok := s.root.Periods[key]; ok {
		return l, false
	}
	l := core.NewLedger()
	s.root.Periods[key] = l
	return l, true
}

// Period ensures key exists and returns a copy of its ledger. A
// *core.PersistenceError may accompany a valid ledger.
func (s *Store) Period(ctx context.Context, key string) (core.Ledger, error) {
	if err := period.Validate(key); err != nil {
		return core.Ledger{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, created := s.ensure(key)
	var err error
	if created {
		err = s.persist(ctx, log.OpCreate)
	}
	return l.Clone(), err
}

// Lookup returns a copy of the ledger for key without creating it.
func (s *Store) Lookup(key string) (core.Ledger, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.root.Periods[key]
	if !ok {
		return core.Ledger{}, false
	}
	return l.Clone(), true
}

// Periods lists every known period key in ascending order.
func (s *Store) Periods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.root.Periods)
}

// SetBudget overwrites the period's budget.
func (s *Store) SetBudget(ctx context.Context, key string, amount decimal.Decimal) error {
	if err := period.Validate(key); err != nil {
		return err
	}
	if err := core.RequireNonNegative("budget", amount); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, _ := s.ensure(key)
	l.Budget = amount
	return s.persist(ctx, log.OpUpdate)
}

// ClearPeriod resets the period to the zero-value ledger and returns what it
// held before, for RestorePeriod.
func (s *Store) ClearPeriod(ctx context.Context, key string) (core.Ledger, error) {
	if err := period.Validate(key); err != nil {
		return core.Ledger{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, _ := s.ensure(key)
	snapshot := l.Clone()
	s.root.Periods[key] = core.NewLedger()
	s.logger.InfoContext(ctx, "Period cleared",
		log.FieldPeriod, key, "expenses", len(snapshot.Expenses), "income", len(snapshot.Income))
	return snapshot, s.persist(ctx, log.OpClear)
}

// RestorePeriod replaces the period with a snapshot taken by ClearPeriod.
// The snapshot's income total is recomputed rather than trusted.
func (s *Store) RestorePeriod(ctx context.Context, key string, snapshot core.Ledger) error {
	if err := period.Validate(key); err != nil {
		return err
	}
	if err := core.RequireNonNegative("budget", snapshot.Budget); err != nil {
		return err
	}
	restored := snapshot.Clone()
	for _, e := range restored.Expenses {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	for _, in := range restored.Income {
		if err := in.Validate(); err != nil {
			return err
		}
	}
	restored.Added = restored.IncomeSum()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.Periods[key] = &restored
	return s.persist(ctx, log.OpRestore)
}
