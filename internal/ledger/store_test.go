package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/storage/memory"
)

func TestAddExpenseUpdatesTotals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	mustNoErr(t, s.EnsurePeriod(ctx, "2025-01"))
	e, err := s.AddExpense(ctx, "2025-01", "Coffee", dec("150"), "Food", "2025-01-05")
	mustNoErr(t, err)
	if e.ID == "" || e.Timestamp != testNow.UnixMilli() {
		t.Fatalf("id/timestamp not assigned: %+v", e)
	}

	l, _ := s.Lookup("2025-01")
	if len(l.Expenses) != 1 || !l.Expenses[0].Amount.Equal(dec("150")) {
		t.Fatalf("unexpected ledger %+v", l)
	}
	if !l.Budget.IsZero() || !l.Added.IsZero() {
		t.Fatalf("expense must not touch budget or added: %+v", l)
	}
}

func TestBudgetAndIncomeTotals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	mustNoErr(t, s.SetBudget(ctx, "2025-01", dec("10000")))
	_, err := s.AddIncome(ctx, "2025-01", "Freelance", dec("2000"), "Income", "2025-01-10")
	mustNoErr(t, err)

	l, _ := s.Lookup("2025-01")
	if !l.Added.Equal(dec("2000")) || !l.Budget.Equal(dec("10000")) {
		t.Fatalf("budget=%s added=%s", l.Budget, l.Added)
	}
	assertInvariant(t, l)
}

func TestAddIncomeRaisesAddedByAmount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	amounts := []string{"10.50", "0.01", "999.99", "42"}
	prev := decimal.Zero
	for _, a := range amounts {
		_, err := s.AddIncome(ctx, "2025-02", "Job", dec(a), "Salary", "2025-02-01")
		mustNoErr(t, err)
		l, _ := s.Lookup("2025-02")
		if !l.Added.Sub(prev).Equal(dec(a)) {
			t.Fatalf("added moved by %s, want %s", l.Added.Sub(prev), a)
		}
		assertInvariant(t, l)
		prev = l.Added
	}
}

func TestEditIncomeAdjustsAddedByDelta(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	for _, a := range []string{"100", "250"} {
		_, err := s.AddIncome(ctx, "2025-01", "Other", dec(a), "Gift", "2025-01-02")
		mustNoErr(t, err)
	}
	target, err := s.AddIncome(ctx, "2025-01", "Bonus", dec("500"), "Salary", "2025-01-03")
	mustNoErr(t, err)

	before, _ := s.Lookup("2025-01")
	amount := dec("800")
	updated, err := s.EditIncome(ctx, "2025-01", core.ByID(target.ID), core.TransactionPatch{Amount: &amount})
	mustNoErr(t, err)
	after, _ := s.Lookup("2025-01")

	if !after.Added.Sub(before.Added).Equal(dec("300")) {
		t.Fatalf("added moved by %s, want 300", after.Added.Sub(before.Added))
	}
	if updated.ID != target.ID || updated.Timestamp != target.Timestamp || updated.Source != "Bonus" {
		t.Fatalf("identity not preserved: %+v", updated)
	}
	assertInvariant(t, after)
}

func TestDeleteIncomeLowersAdded(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	_, _ = s.AddIncome(ctx, "2025-01", "A", dec("70"), "Gift", "2025-01-02")
	_, _ = s.AddIncome(ctx, "2025-01", "B", dec("30"), "Gift", "2025-01-02")

	removed, err := s.DeleteIncome(ctx, "2025-01", core.ByIndex(0))
	mustNoErr(t, err)
	if removed.Source != "A" {
		t.Fatalf("removed wrong entry %+v", removed)
	}
	l, _ := s.Lookup("2025-01")
	if !l.Added.Equal(dec("30")) || len(l.Income) != 1 {
		t.Fatalf("unexpected ledger %+v", l)
	}
	assertInvariant(t, l)
}

func TestInvalidAmountsLeaveLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	_, err := s.AddExpense(ctx, "2025-01", "Tea", dec("3"), "Food", "2025-01-01")
	mustNoErr(t, err)
	before, _ := s.Lookup("2025-01")
	v := s.Version()

	for _, a := range []string{"0", "-5"} {
		if _, err := s.AddExpense(ctx, "2025-01", "X", dec(a), "Food", "2025-01-01"); !core.IsValidation(err) {
			t.Fatalf("amount %s: expected validation error, got %v", a, err)
		}
		if _, err := s.AddIncome(ctx, "2025-01", "X", dec(a), "Gift", "2025-01-01"); !core.IsValidation(err) {
			t.Fatalf("income amount %s: expected validation error, got %v", a, err)
		}
	}
	if _, err := s.AddExpense(ctx, "2025-01", "  ", dec("1"), "Food", "2025-01-01"); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	after, _ := s.Lookup("2025-01")
	if !sameJSON(before, after) || s.Version() != v {
		t.Fatalf("ledger mutated by rejected writes")
	}
}

func TestEnsurePeriodIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	mustNoErr(t, s.EnsurePeriod(ctx, "2025-03"))
	once, _ := s.Lookup("2025-03")
	v := s.Version()
	mustNoErr(t, s.EnsurePeriod(ctx, "2025-03"))
	twice, _ := s.Lookup("2025-03")
	if !sameJSON(once, twice) || len(s.Periods()) != 1 {
		t.Fatalf("ensure is not idempotent")
	}
	if s.Version() != v {
		t.Fatalf("second ensure should not persist")
	}
}

func TestPeriodKeysAreValidated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	for _, k := range []string{"2025-1", "2025-13", "January", ""} {
		if err := s.EnsurePeriod(ctx, k); !core.IsFormat(err) {
			t.Errorf("%q: expected FormatError, got %v", k, err)
		}
	}
	if len(s.Periods()) != 0 {
		t.Fatalf("invalid keys created periods: %v", s.Periods())
	}
}

func TestLookupDoesNotCreate(t *testing.T) {
	s := newTestStore(t, nil)
	if _, ok := s.Lookup("2025-05"); ok {
		t.Fatal("lookup found a period that was never created")
	}
	if len(s.Periods()) != 0 {
		t.Fatal("lookup created a period")
	}
}

func TestPeriodReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	_, _ = s.AddExpense(ctx, "2025-01", "Bread", dec("2"), "Food", "2025-01-02")
	l, err := s.Period(ctx, "2025-01")
	mustNoErr(t, err)
	l.Expenses[0].Name = "tampered"
	l.Budget = dec("1")
	again, _ := s.Period(ctx, "2025-01")
	if again.Expenses[0].Name != "Bread" || !again.Budget.IsZero() {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestEditAndDeleteByRef(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	a, _ := s.AddExpense(ctx, "2025-01", "A", dec("1"), "Food", "2025-01-01")
	_, _ = s.AddExpense(ctx, "2025-01", "B", dec("2"), "Food", "2025-01-01")

	name := "A2"
	cat := "Bills"
	e, err := s.EditExpense(ctx, "2025-01", core.ByIndex(0), core.TransactionPatch{Label: &name, Category: &cat})
	mustNoErr(t, err)
	if e.ID != a.ID || e.Name != "A2" || e.Category != "Bills" || !e.Amount.Equal(dec("1")) {
		t.Fatalf("unexpected edit result %+v", e)
	}

	zero := decimal.Zero
	if _, err := s.EditExpense(ctx, "2025-01", core.ByID(a.ID), core.TransactionPatch{Amount: &zero}); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	cases := []struct {
		name string
		key  string
		ref  core.Ref
	}{
		{"unknown id", "2025-01", core.ByID("nope")},
		{"index out of range", "2025-01", core.ByIndex(5)},
		{"unknown period", "2024-01", core.ByIndex(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.DeleteExpense(ctx, tc.key, tc.ref); !errors.Is(err, core.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}

	_, err = s.DeleteExpense(ctx, "2025-01", core.ByID(a.ID))
	mustNoErr(t, err)
	l, _ := s.Lookup("2025-01")
	if len(l.Expenses) != 1 || l.Expenses[0].Name != "B" {
		t.Fatalf("unexpected expenses %+v", l.Expenses)
	}
}

func TestDefaultsForCategoryAndDate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	e, err := s.AddExpense(ctx, "2025-01", "Misc", dec("5"), "", "")
	mustNoErr(t, err)
	if e.Category != core.OtherCategory || e.Date != "2025-01-15" {
		t.Fatalf("defaults not applied: %+v", e)
	}
}

func TestBudgetMustNotBeNegative(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	if err := s.SetBudget(ctx, "2025-01", dec("-1")); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	mustNoErr(t, s.SetBudget(ctx, "2025-01", decimal.Zero))
}

func TestClearAndRestore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	mustNoErr(t, s.SetBudget(ctx, "2025-01", dec("900")))
	_, _ = s.AddExpense(ctx, "2025-01", "Rent", dec("500"), "Bills", "2025-01-01")
	_, _ = s.AddIncome(ctx, "2025-01", "Gift", dec("50"), "Gift", "2025-01-01")
	before, _ := s.Lookup("2025-01")

	snap, err := s.ClearPeriod(ctx, "2025-01")
	mustNoErr(t, err)
	cleared, _ := s.Lookup("2025-01")
	if !sameJSON(cleared, core.NewLedger()) {
		t.Fatalf("clear did not reset: %+v", cleared)
	}

	mustNoErr(t, s.RestorePeriod(ctx, "2025-01", snap))
	after, _ := s.Lookup("2025-01")
	if !sameJSON(before, after) {
		t.Fatalf("restore mismatch:\n%+v\n%+v", before, after)
	}
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, failingKV{memory.New()})
	rev := s.Revision()

	e, err := s.AddExpense(ctx, "2025-01", "Lunch", dec("12"), "Food", "2025-01-02")
	if !core.IsPersistence(err) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if e.ID == "" {
		t.Fatal("result should still be returned")
	}
	l, ok := s.Lookup("2025-01")
	if !ok || len(l.Expenses) != 1 {
		t.Fatal("in-memory mutation should stand")
	}
	if s.Revision() <= rev || s.Version() != 0 {
		t.Fatalf("revision %d (was %d), version %d", s.Revision(), rev, s.Version())
	}
}

func TestVersionConflictBetweenStores(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	a := newTestStore(t, kv)
	b := newTestStore(t, kv)

	_, err := a.AddExpense(ctx, "2025-01", "A", dec("1"), "Food", "2025-01-01")
	mustNoErr(t, err)

	_, err = b.AddExpense(ctx, "2025-01", "B", dec("1"), "Food", "2025-01-01")
	if !errors.Is(err, core.ErrVersionConflict) || !core.IsPersistence(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	mustNoErr(t, b.Reload(ctx))
	l, _ := b.Lookup("2025-01")
	if len(l.Expenses) != 1 || l.Expenses[0].Name != "A" {
		t.Fatalf("reload should see the winning write: %+v", l.Expenses)
	}
	_, err = b.AddExpense(ctx, "2025-01", "B", dec("1"), "Food", "2025-01-01")
	mustNoErr(t, err)
}

func TestReopenRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	a := newTestStore(t, kv)
	_, _ = a.AddIncome(ctx, "2024-12", "Job", dec("1234.56"), "Salary", "2024-12-28")
	_, _ = a.AddCategory(ctx, "Pets")

	b := newTestStore(t, kv)
	if b.Version() != a.Version() {
		t.Fatalf("versions differ: %d vs %d", a.Version(), b.Version())
	}
	ja, _ := a.Export()
	jb, _ := b.Export()
	if string(ja) != string(jb) {
		t.Fatalf("reopened store differs:\n%s\n%s", ja, jb)
	}
	if b.LastLoad().Persisted {
		t.Fatal("a clean reload must not rewrite the store")
	}
}

func TestCorruptStoreFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	if _, err := kv.Put(ctx, DefaultKey, []byte("{not json"), 0); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, kv)
	if !s.LastLoad().Fallback {
		t.Fatal("expected fallback")
	}
	if len(s.Periods()) != 0 || s.Settings() != core.DefaultSettings() {
		t.Fatal("expected default root")
	}
	// The next write replaces the corrupt record.
	_, err := s.AddExpense(ctx, "2025-01", "A", dec("1"), "Food", "2025-01-01")
	mustNoErr(t, err)
	rec, _ := kv.Get(ctx, DefaultKey)
	if !json.Valid(rec.Value) {
		t.Fatal("corrupt record was not replaced")
	}
}

func TestLoadKeepsUnreadableLegacyRecords(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	raw := `{"2024-11":{"budget":500,"expenses":[
		{"name":"X","amount":10,"date":"2024-11-02"},
		{"name":"Y","amount":"abc","date":"2024-11-03"}]}}`
	if _, err := kv.Put(ctx, DefaultKey, []byte(raw), 0); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, kv)

	l, ok := s.Lookup("2024-11")
	if !ok || !l.Budget.Equal(dec("500")) || len(l.Expenses) != 1 || l.Expenses[0].Name != "X" {
		t.Fatalf("period not kept: %+v", l)
	}
	if q := s.LastLoad().Migration.Quarantined; len(q) != 1 || q[0] != "2024-11.expenses[1]" {
		t.Fatalf("quarantined = %v", q)
	}

	// The migrated record still carries the unreadable expense.
	rec, err := kv.Get(ctx, DefaultKey)
	mustNoErr(t, err)
	if !strings.Contains(string(rec.Value), `"abc"`) {
		t.Fatalf("unreadable expense lost on persist: %s", rec.Value)
	}
	reopened := newTestStore(t, kv)
	if reopened.LastLoad().Migration.Changed() {
		t.Fatalf("second load changed the store: %+v", reopened.LastLoad().Migration)
	}
}

func TestLoadFixesDrift(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	raw := `{"periods":{"2025-01":{"budget":0,"added":999,"expenses":[],
		"income":[{"id":"a","source":"Job","amount":100,"category":"Salary","date":"2025-01-01","timestamp":1}]}},
		"settings":{},"categories":["Food"],"goals":[]}`
	if _, err := kv.Put(ctx, DefaultKey, []byte(raw), 0); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, kv)
	rep := s.LastLoad()
	if len(rep.Drift) != 1 || !rep.Drift[0].Recorded.Equal(dec("999")) || !rep.Persisted {
		t.Fatalf("unexpected load report %+v", rep)
	}
	l, _ := s.Lookup("2025-01")
	assertInvariant(t, l)
}

func TestReconcileReportsAndFixes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	_, _ = s.AddIncome(ctx, "2025-01", "Job", dec("100"), "Salary", "2025-01-01")
	_, _ = s.AddIncome(ctx, "2025-02", "Job", dec("100"), "Salary", "2025-02-01")

	s.mu.Lock()
	s.root.Periods["2025-02"].Added = dec("150")
	s.mu.Unlock()

	drift, err := s.Reconcile(ctx, false)
	mustNoErr(t, err)
	if len(drift) != 1 || drift[0].Period != "2025-02" || !drift[0].Actual.Equal(dec("100")) {
		t.Fatalf("unexpected drift %+v", drift)
	}
	if l, _ := s.Lookup("2025-02"); l.Added.Equal(l.IncomeSum()) {
		t.Fatal("report-only reconcile must not fix")
	}

	drift, err = s.Reconcile(ctx, true)
	mustNoErr(t, err)
	if len(drift) != 1 {
		t.Fatalf("expected one drift, got %v", drift)
	}
	l, _ := s.Lookup("2025-02")
	assertInvariant(t, l)
	if drift, _ := s.Reconcile(ctx, false); len(drift) != 0 {
		t.Fatalf("drift remains after fix: %v", drift)
	}
}

func TestConcurrentIncomeKeepsInvariant(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 25; j++ {
				_, _ = s.AddIncome(ctx, "2025-01", "Job", dec("1.25"), "Salary", "2025-01-01")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	l, _ := s.Lookup("2025-01")
	if len(l.Income) != 200 || !l.Added.Equal(dec("250")) {
		t.Fatalf("got %d entries, added %s", len(l.Income), l.Added)
	}
	assertInvariant(t, l)
}
