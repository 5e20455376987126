package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/log"
)

// Drift is a period whose recorded income total disagrees with its income list.
type Drift struct {
	Period   string          `json:"period"`
	Recorded decimal.Decimal `json:"recorded"`
	Actual   decimal.Decimal `json:"actual"`
}

// Reconcile re-sums income for every period and reports each drift. With fix
// set the totals are rewritten and the store is persisted.
func (s *Store) Reconcile(ctx context.Context, fix bool) ([]Drift, error) {
	if !fix {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return reconcile(&s.root, false), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	drift := reconcile(&s.root, true)
	if len(drift) == 0 {
		return nil, nil
	}
	for _, d := range drift {
		s.logger.WarnContext(ctx, "Income total drifted, corrected",
			log.FieldPeriod, d.Period, "recorded", d.Recorded.String(), "actual", d.Actual.String())
	}
	return drift, s.persist(ctx, log.OpReconcile)
}

func reconcile(root *core.Root, fix bool) []Drift {
	var out []Drift
	for _, k := range sortedKeys(root.Periods) {
		l := root.Periods[k]
		actual := l.IncomeSum()
		if l.Added.Equal(actual) {
			continue
		}
		out = append(out, Drift{Period: k, Recorded: l.Added, Actual: actual})
		if fix {
			l.Added = actual
		}
	}
	return out
}
