package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Ref addresses a transaction inside a period either by its id or by its
// position in the list.
type Ref struct {
	ID      string
	Index   int
	byIndex bool
}

// ByID addresses a transaction by its id.
func ByID(id string) Ref { return Ref{ID: id} }

// ByIndex addresses a transaction by its position in the period.
func ByIndex(i int) Ref { return Ref{Index: i, byIndex: true} }

// IsIndex reports whether the reference is positional.
func (r Ref) IsIndex() bool { return r.byIndex }

func (r Ref) String() string {
	if r.byIndex {
		return "#" + strconv.Itoa(r.Index)
	}
	return r.ID
}

// ParseRef reads "#<n>" as a positional reference and anything else as an id.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, &ValidationError{Field: "ref", Reason: "must not be empty", Err: ErrNotFound}
	}
	if strings.HasPrefix(s, "#") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return Ref{}, &ValidationError{Field: "ref", Reason: fmt.Sprintf("bad index %q", s), Err: ErrNotFound}
		}
		return ByIndex(n), nil
	}
	return ByID(s), nil
}

// TransactionPatch carries the editable fields of an expense or income.
// Nil fields are left untouched.
type TransactionPatch struct {
	Label    *string          `json:"label,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Category *string          `json:"category,omitempty"`
	Date     *string          `json:"date,omitempty"`
}

// GoalPatch carries the editable fields of a goal. An empty TargetDate
// clears the date.
type GoalPatch struct {
	Name          *string          `json:"name,omitempty"`
	TargetAmount  *decimal.Decimal `json:"targetAmount,omitempty"`
	TargetDate    *string          `json:"targetDate,omitempty"`
	Description   *string          `json:"description,omitempty"`
	CurrentAmount *decimal.Decimal `json:"currentAmount,omitempty"`
}

// SettingsPatch carries the settings to change. Nil fields are kept.
type SettingsPatch struct {
	Theme         *string `json:"theme,omitempty"`
	Currency      *string `json:"currency,omitempty"`
	Language      *string `json:"language,omitempty"`
	DateFormat    *string `json:"dateFormat,omitempty"`
	AccentColor   *string `json:"accentColor,omitempty"`
	CloudSync     *bool   `json:"cloudSync,omitempty"`
	DefaultPeriod *string `json:"defaultPeriod,omitempty"`
}

func (p TransactionPatch) applyExpense(e Expense) Expense {
	if p.Label != nil {
		e.Name = strings.TrimSpace(*p.Label)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	if p.Date != nil {
		e.Date = strings.TrimSpace(*p.Date)
	}
	return e
}

func (p TransactionPatch) applyIncome(in Income) Income {
	if p.Label != nil {
		in.Source = strings.TrimSpace(*p.Label)
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Category != nil {
		in.Category = strings.TrimSpace(*p.Category)
	}
	if p.Date != nil {
		in.Date = strings.TrimSpace(*p.Date)
	}
	return in
}

// Apply returns a copy of e with the patch applied.
func (e Expense) Apply(p TransactionPatch) Expense { return p.applyExpense(e) }

// Apply returns a copy of in with the patch applied.
func (in Income) Apply(p TransactionPatch) Income { return p.applyIncome(in) }

// Apply returns a copy of g with the patch applied. Timestamps are not touched.
func (g Goal) Apply(p GoalPatch) Goal {
	g = g.Clone()
	if p.Name != nil {
		g.Name = strings.TrimSpace(*p.Name)
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.TargetDate != nil {
		if d := strings.TrimSpace(*p.TargetDate); d == "" {
			g.TargetDate = nil
		} else {
			g.TargetDate = &d
		}
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	return g
}

// Apply returns a copy of s with the patch applied. The result is not validated.
func (s Settings) Apply(p SettingsPatch) Settings {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&s.Theme, p.Theme)
	set(&s.Currency, p.Currency)
	set(&s.Language, p.Language)
	set(&s.DateFormat, p.DateFormat)
	set(&s.AccentColor, p.AccentColor)
	set(&s.DefaultPeriod, p.DefaultPeriod)
	if p.CloudSync != nil {
		s.CloudSync = *p.CloudSync
	}
	return s
}
