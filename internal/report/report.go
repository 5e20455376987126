// Package report derives read-only figures from period ledgers. Every
// function is pure; none of them create periods or touch the store.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/period"
)

var hundred = decimal.NewFromInt(100)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Summary is every headline figure for one period.
type Summary struct {
	Budget           decimal.Decimal `json:"budget"`
	Added            decimal.Decimal `json:"added"`
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	Savings          decimal.Decimal `json:"savings"`
	BiggestExpense   decimal.Decimal `json:"biggestExpense"`
	TopCategory      string          `json:"topCategory"`
	ExpenseCount     int             `json:"expenseCount"`
	IncomeCount      int             `json:"incomeCount"`
	TransactionCount int             `json:"transactionCount"`
}

// TotalExpenses sums every expense amount.
func TotalExpenses(l core.Ledger) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range l.Expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// TotalIncome is the budget plus the sum of the income list. The cached
// income total is not used.
func TotalIncome(l core.Ledger) decimal.Decimal {
	return l.Budget.Add(l.IncomeSum())
}

// Savings is total income minus total expenses. It may be negative.
func Savings(l core.Ledger) decimal.Decimal {
	return TotalIncome(l).Sub(TotalExpenses(l))
}

// BiggestExpense is the largest single expense, or zero.
func BiggestExpense(l core.Ledger) decimal.Decimal {
	biggest := decimal.Zero
	for _, e := range l.Expenses {
		if e.Amount.GreaterThan(biggest) {
			biggest = e.Amount
		}
	}
	return biggest
}

// TopCategory is the category with the most expenses, counted not summed.
// On a tie the category seen first wins. Empty ledgers yield "".
func TopCategory(l core.Ledger) string {
	counts := map[string]int{}
	var order []string
	for _, e := range l.Expenses {
		if _, seen := counts[e.Category]; !seen {
			order = append(order, e.Category)
		}
		counts[e.Category]++
	}
	top, best := "", 0
	for _, c := range order {
		if counts[c] > best {
			top, best = c, counts[c]
		}
	}
	return top
}

// CategoryBreakdown sums expenses per category for those dated in the given
// year and month, largest first.
func CategoryBreakdown(l core.Ledger, year, month int) []CategoryAmount {
	key := period.Format(year, month)
	byName := map[string]*CategoryAmount{}
	var out []*CategoryAmount
	for _, e := range l.Expenses {
		if !period.Contains(key, e.Date) {
			continue
		}
		ca, ok := byName[e.Category]
		if !ok {
			ca = &CategoryAmount{Name: e.Category, Amount: decimal.Zero}
			byName[e.Category] = ca
			out = append(out, ca)
		}
		ca.Amount = ca.Amount.Add(e.Amount)
		ca.Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.GreaterThan(out[j].Amount) })
	res := make([]CategoryAmount, len(out))
	for i, ca := range out {
		res[i] = *ca
	}
	return res
}

// Summarize computes every headline figure for l.
func Summarize(l core.Ledger) Summary {
	return Summary{
		Budget:           l.Budget,
		Added:            l.Added,
		TotalIncome:      TotalIncome(l),
		TotalExpenses:    TotalExpenses(l),
		Savings:          Savings(l),
		BiggestExpense:   BiggestExpense(l),
		TopCategory:      TopCategory(l),
		ExpenseCount:     len(l.Expenses),
		IncomeCount:      len(l.Income),
		TransactionCount: len(l.Expenses) + len(l.Income),
	}
}

// BudgetUsed is total expenses as a percentage of total income, rounded to
// two places. Zero income yields zero.
func BudgetUsed(l core.Ledger) decimal.Decimal {
	in := TotalIncome(l)
	if !in.IsPositive() {
		return decimal.Zero
	}
	return TotalExpenses(l).Div(in).Mul(hundred).Round(2)
}
