package report

import (
	"github.com/shopspring/decimal"

	"denaro/internal/core"
)

// GoalInsights totals the goal list.
type GoalInsights struct {
	Active      int             `json:"active"`
	Completed   int             `json:"completed"`
	TotalSaved  decimal.Decimal `json:"totalSaved"`
	TotalTarget decimal.Decimal `json:"totalTarget"`
}

// GoalProgress is the saved share of the target as a percentage, capped at
// 100 and rounded to two places.
func GoalProgress(g core.Goal) decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	p := g.CurrentAmount.Div(g.TargetAmount).Mul(hundred).Round(2)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

func Goals(goals []core.Goal) GoalInsights {
	out := GoalInsights{TotalSaved: decimal.Zero, TotalTarget: decimal.Zero}
	for _, g := range goals {
		out.TotalSaved = out.TotalSaved.Add(g.CurrentAmount)
		out.TotalTarget = out.TotalTarget.Add(g.TargetAmount)
		if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
			out.Completed++
		} else {
			out.Active++
		}
	}
	return out
}
