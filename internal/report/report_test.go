package report

import (
	"testing"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expense(name, amount, cat, date string) core.Expense {
	return core.Expense{Name: name, Amount: d(amount), Category: cat, Date: date}
}

func income(amount string) core.Income {
	return core.Income{Source: "src", Amount: d(amount), Category: "Gift", Date: "2025-01-10"}
}

func TestSummaryTotals(t *testing.T) {
	l := core.NewLedger().Clone()
	l.Expenses = append(l.Expenses, expense("Coffee", "150", "Food", "2025-01-05"))
	if !TotalExpenses(l).Equal(d("150")) || !BiggestExpense(l).Equal(d("150")) {
		t.Fatalf("total=%s biggest=%s", TotalExpenses(l), BiggestExpense(l))
	}

	l.Budget = d("10000")
	l.Income = append(l.Income, income("2000"))
	l.Added = d("2000")
	if !TotalIncome(l).Equal(d("12000")) {
		t.Fatalf("totalIncome=%s", TotalIncome(l))
	}
	if !Savings(l).Equal(d("11850")) {
		t.Fatalf("savings=%s", Savings(l))
	}
}

func TestTotalIncomeIgnoresStaleAdded(t *testing.T) {
	l := core.Ledger{Budget: d("100"), Added: d("9999"), Income: []core.Income{income("50")}}
	if !TotalIncome(l).Equal(d("150")) {
		t.Fatalf("totalIncome=%s", TotalIncome(l))
	}
}

func TestEmptyLedger(t *testing.T) {
	l := core.NewLedger().Clone()
	s := Summarize(l)
	if !s.TotalExpenses.IsZero() || !s.BiggestExpense.IsZero() || s.TopCategory != "" || s.TransactionCount != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !BudgetUsed(l).IsZero() {
		t.Fatal("budget used should be zero without income")
	}
}

func TestTopCategoryByCount(t *testing.T) {
	l := core.Ledger{Expenses: []core.Expense{
		expense("Rent", "900", "Transport", "2025-01-01"),
		expense("Bread", "2", "Food", "2025-01-02"),
		expense("Milk", "1", "Food", "2025-01-03"),
	}}
	if got := TopCategory(l); got != "Food" {
		t.Fatalf("topCategory=%s", got)
	}
}

func TestTopCategoryTieKeepsFirstSeen(t *testing.T) {
	l := core.Ledger{Expenses: []core.Expense{
		expense("a", "1", "Bills", "2025-01-01"),
		expense("b", "1", "Food", "2025-01-01"),
		expense("c", "1", "Food", "2025-01-01"),
		expense("d", "1", "Bills", "2025-01-01"),
	}}
	if got := TopCategory(l); got != "Bills" {
		t.Fatalf("topCategory=%s", got)
	}
}

func TestCategoryBreakdownFiltersByDate(t *testing.T) {
	l := core.Ledger{Expenses: []core.Expense{
		expense("a", "10", "Food", "2025-01-02"),
		expense("b", "5", "Food", "2025-01-20"),
		expense("c", "30", "Bills", "2025-01-05"),
		expense("back-dated", "100", "Food", "2024-12-31"),
	}}
	got := CategoryBreakdown(l, 2025, 1)
	if len(got) != 2 {
		t.Fatalf("breakdown=%+v", got)
	}
	if got[0].Name != "Bills" || !got[0].Amount.Equal(d("30")) {
		t.Fatalf("first=%+v", got[0])
	}
	if got[1].Name != "Food" || !got[1].Amount.Equal(d("15")) || got[1].Count != 2 {
		t.Fatalf("second=%+v", got[1])
	}
	if dec := CategoryBreakdown(l, 2024, 12); len(dec) != 1 || !dec[0].Amount.Equal(d("100")) {
		t.Fatalf("december=%+v", dec)
	}
}

type mapReader map[string]core.Ledger

func (m mapReader) Lookup(k string) (core.Ledger, bool) {
	l, ok := m[k]
	return l, ok
}

func TestTrendSeriesZeroFillsAndCrossesYear(t *testing.T) {
	r := mapReader{
		"2024-11": {Budget: d("100"), Expenses: []core.Expense{expense("a", "40", "Food", "2024-11-01")}},
		"2025-01": {Income: []core.Income{income("70")}},
	}
	got, err := TrendSeries(r, "2025-02", 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		period, income, expenses, savings string
		present                           bool
	}{
		{"2024-11", "100", "40", "60", true},
		{"2024-12", "0", "0", "0", false},
		{"2025-01", "70", "0", "70", true},
		{"2025-02", "0", "0", "0", false},
	}
	if len(got) != len(want) {
		t.Fatalf("len=%d", len(got))
	}
	for i, w := range want {
		p := got[i]
		if p.Period != w.period || !p.Income.Equal(d(w.income)) || !p.Expenses.Equal(d(w.expenses)) ||
			!p.Savings.Equal(d(w.savings)) || p.Present != w.present {
			t.Errorf("point %d = %+v, want %+v", i, p, w)
		}
	}
	if len(r) != 2 {
		t.Fatal("trend must not create periods")
	}
}

func TestTrendSeriesRejectsBadInput(t *testing.T) {
	if _, err := TrendSeries(mapReader{}, "2025-13", 6); !core.IsFormat(err) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if _, err := TrendSeries(mapReader{}, "2025-01", 0); !core.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGoalProgress(t *testing.T) {
	cases := []struct {
		current, target, want string
	}{
		{"0", "100", "0"},
		{"25", "100", "25"},
		{"1", "3", "33.33"},
		{"500", "100", "100"},
	}
	for _, tc := range cases {
		g := core.Goal{CurrentAmount: d(tc.current), TargetAmount: d(tc.target)}
		if got := GoalProgress(g); !got.Equal(d(tc.want)) {
			t.Errorf("%s/%s = %s, want %s", tc.current, tc.target, got, tc.want)
		}
	}
	if !GoalProgress(core.Goal{}).IsZero() {
		t.Error("zero target should yield zero progress")
	}

	ins := Goals([]core.Goal{
		{CurrentAmount: d("10"), TargetAmount: d("100")},
		{CurrentAmount: d("100"), TargetAmount: d("100")},
	})
	if ins.Active != 1 || ins.Completed != 1 || !ins.TotalSaved.Equal(d("110")) || !ins.TotalTarget.Equal(d("200")) {
		t.Fatalf("insights=%+v", ins)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(d("1234.5"), "usd"); got != "$1,234.50" {
		t.Fatalf("USD = %q", got)
	}
	if got := FormatAmount(d("12"), "XYZ"); got != "12.00 XYZ" {
		t.Fatalf("unknown = %q", got)
	}
	// Beyond what fits in int64 minor units.
	if got := FormatAmount(d("100000000000000000000"), "USD"); got != "100000000000000000000.00 USD" {
		t.Fatalf("huge = %q", got)
	}
	if got := FormatAmount(d("-100000000000000000000"), "JPY"); got != "-100000000000000000000 JPY" {
		t.Fatalf("huge negative = %q", got)
	}
}

func TestBudgetUsed(t *testing.T) {
	l := core.Ledger{Budget: d("200"), Expenses: []core.Expense{expense("a", "50", "Food", "2025-01-01")}}
	if got := BudgetUsed(l); !got.Equal(d("25")) {
		t.Fatalf("budgetUsed=%s", got)
	}
}
