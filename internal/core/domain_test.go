package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ID:       "x",
		Name:     "Coffee",
		Amount:   decimal.NewFromInt(150),
		Category: "Food",
		Date:     "2025-01-05",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Name: "", Amount: decimal.NewFromInt(1), Category: "c", Date: "2025-01-01"},
		{Name: "   ", Amount: decimal.NewFromInt(1), Category: "c", Date: "2025-01-01"},
		{Name: "a", Amount: decimal.Zero, Category: "c", Date: "2025-01-01"},
		{Name: "a", Amount: decimal.NewFromInt(-5), Category: "c", Date: "2025-01-01"},
		{Name: "a", Amount: decimal.NewFromInt(1), Category: "", Date: "2025-01-01"},
		{Name: "a", Amount: decimal.NewFromInt(1), Category: "c", Date: "01/05/2025"},
		{Name: strings.Repeat("x", 201), Amount: decimal.NewFromInt(1), Category: "c", Date: "2025-01-01"},
	}
	for i, e := range bads {
		err := e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected ValidationError, got %T", i, err)
		}
	}
}

func TestGoalValidate(t *testing.T) {
	date := "2026-06-30"
	bad := "June"
	cases := []struct {
		name string
		g    Goal
		ok   bool
	}{
		{"ok", Goal{Name: "Car", TargetAmount: decimal.NewFromInt(1000)}, true},
		{"with date", Goal{Name: "Car", TargetAmount: decimal.NewFromInt(1000), TargetDate: &date}, true},
		{"bad date", Goal{Name: "Car", TargetAmount: decimal.NewFromInt(1000), TargetDate: &bad}, false},
		{"zero target", Goal{Name: "Car"}, false},
		{"negative current", Goal{Name: "Car", TargetAmount: decimal.NewFromInt(1), CurrentAmount: decimal.NewFromInt(-1)}, false},
		{"no name", Goal{TargetAmount: decimal.NewFromInt(1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.g.Validate()
			if tc.ok != (err == nil) {
				t.Fatalf("ok=%v, err=%v", tc.ok, err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2025-02-28"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := ParseDate("2025-02-30")
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestLocalDate(t *testing.T) {
	// 1700000000000 ms is 2023-11-14T22:13:20Z.
	if got := LocalDate(1700000000000, time.UTC); got != "2023-11-14" {
		t.Fatalf("UTC: got %s", got)
	}
	tokyo := time.FixedZone("JST", 9*3600)
	if got := LocalDate(1700000000000, tokyo); got != "2023-11-15" {
		t.Fatalf("JST: got %s", got)
	}
}

func TestLedgerCloneIsDeep(t *testing.T) {
	l := NewLedger()
	l.Expenses = append(l.Expenses, Expense{ID: "a", Amount: decimal.NewFromInt(1)})
	c := l.Clone()
	c.Expenses[0].ID = "b"
	if l.Expenses[0].ID != "a" {
		t.Fatal("clone shares expense storage")
	}
}

func TestRootJSONLayout(t *testing.T) {
	r := NewRoot()
	l := NewLedger()
	l.Budget = decimal.NewFromInt(500)
	l.Income = append(l.Income, Income{ID: "i", Source: "Job", Amount: decimal.RequireFromString("12.5"), Category: "Salary", Date: "2025-01-01"})
	l.Added = l.IncomeSum()
	r.Periods["2025-01"] = l

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{`"budget":500`, `"added":12.5`, `"source":"Job"`, `"settings":{`, `"categories":[`, `"goals":[]`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %s", want, s)
		}
	}
}

func TestParseRef(t *testing.T) {
	r, err := ParseRef("#2")
	if err != nil || !r.IsIndex() || r.Index != 2 {
		t.Fatalf("got %+v, %v", r, err)
	}
	r, err = ParseRef("abc-123")
	if err != nil || r.IsIndex() || r.ID != "abc-123" {
		t.Fatalf("got %+v, %v", r, err)
	}
	for _, bad := range []string{"", "#", "#-1", "#x"} {
		if _, err := ParseRef(bad); err == nil {
			t.Errorf("%q expected error", bad)
		}
	}
}

func TestGoalApplyPreservesIdentity(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g := Goal{ID: "g1", Name: "Car", TargetAmount: decimal.NewFromInt(100), CreatedAt: created}
	name := "Bike"
	empty := ""
	out := g.Apply(GoalPatch{Name: &name, TargetDate: &empty})
	if out.ID != "g1" || !out.CreatedAt.Equal(created) || out.Name != "Bike" || out.TargetDate != nil {
		t.Fatalf("unexpected goal %+v", out)
	}
}
