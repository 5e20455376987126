package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/log"
	"denaro/internal/period"
)

const (
	KindExpense = "expense"
	KindIncome  = "income"
)

// AddExpense validates and appends an expense. An empty category becomes
// "Other" and an empty date becomes today.
func (s *Store) AddExpense(ctx context.Context, key, name string, amount decimal.Decimal, category, date string) (core.Expense, error) {
	if err := period.Validate(key); err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		Name:     strings.TrimSpace(name),
		Amount:   amount,
		Category: defaultCategory(category),
		Date:     strings.TrimSpace(date),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Date == "" {
		e.Date = s.today()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = s.ids.NewID()
	e.Timestamp = s.clock.Now().UnixMilli()

	l, _ := s.ensure(key)
	l.Expenses = append(l.Expenses, e)
	s.logRecorded(ctx, log.OpCreate, key, KindExpense, e.ID, e.Amount, e.Category)
	return e, s.persist(ctx, log.OpCreate)
}

// AddIncome validates and appends an income, raising the period's income
// total by the same amount.
func (s *Store) AddIncome(ctx context.Context, key, source string, amount decimal.Decimal, category, date string) (core.Income, error) {
	if err := period.Validate(key); err != nil {
		return core.Income{}, err
	}
	in := core.Income{
		Source:   strings.TrimSpace(source),
		Amount:   amount,
		Category: defaultCategory(category),
		Date:     strings.TrimSpace(date),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Date == "" {
		in.Date = s.today()
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	in.ID = s.ids.NewID()
	in.Timestamp = s.clock.Now().UnixMilli()

	l, _ := s.ensure(key)
	l.Income = append(l.Income, in)
	l.Added = l.Added.Add(in.Amount)
	s.logRecorded(ctx, log.OpCreate, key, KindIncome, in.ID, in.Amount, in.Category)
	return in, s.persist(ctx, log.OpCreate)
}

// EditExpense applies patch to an existing expense. ID and timestamp are kept.
func (s *Store) EditExpense(ctx context.Context, key string, ref core.Ref, patch core.TransactionPatch) (core.Expense, error) {
	if err := period.Validate(key); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.root.Periods[key]
	if !ok {
		return core.Expense{}, notFound("period", key)
	}
	i, err := findExpense(l, ref)
	if err != nil {
		return core.Expense{}, err
	}
	updated := l.Expenses[i].Apply(patch)
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}
	l.Expenses[i] = updated
	s.logRecorded(ctx, log.OpUpdate, key, KindExpense, updated.ID, updated.Amount, updated.Category)
	return updated, s.persist(ctx, log.OpUpdate)
}

// EditIncome applies patch to an existing income and moves the period's
// income total by the difference between the new and old amounts.
func (s *Store) EditIncome(ctx context.Context, key string, ref core.Ref, patch core.TransactionPatch) (core.Income, error) {
	if err := period.Validate(key); err != nil {
		return core.Income{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.root.Periods[key]
	if !ok {
		return core.Income{}, notFound("period", key)
	}
	i, err := findIncome(l, ref)
	if err != nil {
		return core.Income{}, err
	}
	old := l.Income[i]
	updated := old.Apply(patch)
	if err := updated.Validate(); err != nil {
		return core.Income{}, err
	}
	l.Income[i] = updated
	l.Added = l.Added.Sub(old.Amount).Add(updated.Amount)
	s.logRecorded(ctx, log.OpUpdate, key, KindIncome, updated.ID, updated.Amount, updated.Category)
	return updated, s.persist(ctx, log.OpUpdate)
}

// DeleteExpense removes an expense and returns it.
func (s *Store) DeleteExpense(ctx context.Context, key string, ref core.Ref) (core.Expense, error) {
	if err := period.Validate(key); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.root.Periods[key]
	if !ok {
		return core.Expense{}, notFound("period", key)
	}
	i, err := findExpense(l, ref)
	if err != nil {
		return core.Expense{}, err
	}
	removed := l.Expenses[i]
	l.Expenses = append(l.Expenses[:i], l.Expenses[i+1:]...)
	s.logRecorded(ctx, log.OpDelete, key, KindExpense, removed.ID, removed.Amount, removed.Category)
	return removed, s.persist(ctx, log.OpDelete)
}

// DeleteIncome removes an income, lowering the income total by its amount.
func (s *Store) DeleteIncome(ctx context.Context, key string, ref core.Ref) (core.Income, error) {
	if err := period.Validate(key); err != nil {
		return core.Income{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.root.Periods[key]
	if !ok {
		return core.Income{}, notFound("period", key)
	}
	i, err := findIncome(l, ref)
	if err != nil {
		return core.Income{}, err
	}
	removed := l.Income[i]
	l.Income = append(l.Income[:i], l.Income[i+1:]...)
	l.Added = l.Added.Sub(removed.Amount)
	s.logRecorded(ctx, log.OpDelete, key, KindIncome, removed.ID, removed.Amount, removed.Category)
	return removed, s.persist(ctx, log.OpDelete)
}

func (s *Store) logRecorded(ctx context.Context, op, key, kind, id string, amount decimal.Decimal, category string) {
	fields := log.NewFields().
		WithTransaction(key, kind, id, amount.String(), category).
		WithOperation(op)
	s.logger.DebugContext(ctx, "Transaction recorded", fields.ToSlice()...)
}

func findExpense(l *core.Ledger, ref core.Ref) (int, error) {
	if ref.IsIndex() {
		if ref.Index < 0 || ref.Index >= len(l.Expenses) {
			return 0, notFound(KindExpense, ref.String())
		}
		return ref.Index, nil
	}
	for i, e := range l.Expenses {
		if e.ID == ref.ID {
			return i, nil
		}
	}
	return 0, notFound(KindExpense, ref.String())
}

func findIncome(l *core.Ledger, ref core.Ref) (int, error) {
	if ref.IsIndex() {
		if ref.Index < 0 || ref.Index >= len(l.Income) {
			return 0, notFound(KindIncome, ref.String())
		}
		return ref.Index, nil
	}
	for i, in := range l.Income {
		if in.ID == ref.ID {
			return i, nil
		}
	}
	return 0, notFound(KindIncome, ref.String())
}

func defaultCategory(c string) string {
	if c = strings.TrimSpace(c); c == "" {
		return core.OtherCategory
	}
	return c
}

func notFound(what, ref string) error {
	return fmt.Errorf("%s %q: %w", what, ref, core.ErrNotFound)
}
