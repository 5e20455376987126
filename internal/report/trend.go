package report

import (
	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/period"
)

// DefaultWindow is the number of periods a trend covers unless told otherwise.
const DefaultWindow = 6

// Reader gives read-only access to period ledgers without creating them.
type Reader interface {
	Lookup(key string) (core.Ledger, bool)
}

// TrendPoint holds one period of a trend series.
type TrendPoint struct {
	Period   string          `json:"period"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Savings  decimal.Decimal `json:"savings"`
	Present  bool            `json:"present"`
}

// TrendSeries walks window periods back from end, oldest first. Periods the
// reader does not know contribute zeros.
func TrendSeries(r Reader, end string, window int) ([]TrendPoint, error) {
	if err := period.Validate(end); err != nil {
		return nil, err
	}
	keys, err := period.Window(end, window)
	if err != nil {
		return nil, err
	}
	out := make([]TrendPoint, len(keys))
	for i, k := range keys {
		p := TrendPoint{Period: k, Income: decimal.Zero, Expenses: decimal.Zero, Savings: decimal.Zero}
		if l, ok := r.Lookup(k); ok {
			p.Present = true
			p.Income = TotalIncome(l)
			p.Expenses = TotalExpenses(l)
			p.Savings = p.Income.Sub(p.Expenses)
		}
		out[i] = p
	}
	return out, nil
}
