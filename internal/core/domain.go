package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date layout used for transaction dates.
const DateLayout = "2006-01-02"

// OtherCategory is the fallback label for records without a category.
const OtherCategory = "Other"

func init() {
	// The persisted layout stores amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type (
	// Expense is a single outgoing transaction.
	Expense struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Amount    decimal.Decimal `json:"amount"`
		Category  string          `json:"category"`
		Date      string          `json:"date"`
		Timestamp int64           `json:"timestamp"`
	}

	// Income is a single incoming transaction. It shares the Expense shape
	// but is labelled by its source.
	Income struct {
		ID        string          `json:"id"`
		Source    string          `json:"source"`
		Amount    decimal.Decimal `json:"amount"`
		Category  string          `json:"category"`
		Date      string          `json:"date"`
		Timestamp int64           `json:"timestamp"`
	}

	// Ledger holds everything recorded against one period.
	// Added is a cache of the income amounts and must always equal their sum.
	Ledger struct {
		Budget   decimal.Decimal `json:"budget"`
		Added    decimal.Decimal `json:"added"`
		Expenses []Expense       `json:"expenses"`
		Income   []Income        `json:"income"`
	}

	// Goal is a savings target tracked across periods.
	Goal struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		TargetDate    *string         `json:"targetDate"`
		Description   string          `json:"description"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	// Settings are the user's display and behaviour preferences.
	Settings struct {
		Theme         string `json:"theme"`
		Currency      string `json:"currency"`
		Language      string `json:"language"`
		DateFormat    string `json:"dateFormat"`
		AccentColor   string `json:"accentColor"`
		CloudSync     bool   `json:"cloudSync"`
		DefaultPeriod string `json:"defaultPeriod"`
	}

	// Root is the whole persisted store. Quarantine holds values loaded from
	// an older store that could not be decoded, keyed by where they were
	// found; they are carried along untouched.
	Root struct {
		Periods    map[string]*Ledger         `json:"periods"`
		Settings   Settings                   `json:"settings"`
		Categories []string                   `json:"categories"`
		Goals      []Goal                     `json:"goals"`
		Quarantine map[string]json.RawMessage `json:"quarantine,omitempty"`
	}
)

// DefaultCategories are the built-in expense categories a new store starts with.
var DefaultCategories = []string{"Food", "Transport", "Shopping", "Entertainment", "Healthcare", "Education", "Bills", OtherCategory}

// IncomeCategories are the suggested income categories.
var IncomeCategories = []string{"Salary", "Freelance", "Investment", "Gift", OtherCategory}

// DefaultSettings returns the settings of a fresh store.
func DefaultSettings() Settings {
	return Settings{
		Theme:         "auto",
		Currency:      "INR",
		Language:      "en",
		DateFormat:    "MM/DD/YYYY",
		AccentColor:   "blue",
		CloudSync:     false,
		DefaultPeriod: "current",
	}
}

// NewLedger returns the zero-value period ledger.
func NewLedger() *Ledger {
	return &Ledger{
		Budget:   decimal.Zero,
		Added:    decimal.Zero,
		Expenses: []Expense{},
		Income:   []Income{},
	}
}

// NewRoot returns an empty store with default settings and categories.
func NewRoot() Root {
	return Root{
		Periods:    map[string]*Ledger{},
		Settings:   DefaultSettings(),
		Categories: append([]string(nil), DefaultCategories...),
		Goals:      []Goal{},
	}
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() Ledger {
	out := Ledger{
		Budget:   l.Budget,
		Added:    l.Added,
		Expenses: make([]Expense, len(l.Expenses)),
		Income:   make([]Income, len(l.Income)),
	}
	copy(out.Expenses, l.Expenses)
	copy(out.Income, l.Income)
	return out
}

// IncomeSum recomputes the income total from the income list.
func (l *Ledger) IncomeSum() decimal.Decimal {
	sum := decimal.Zero
	for _, in := range l.Income {
		sum = sum.Add(in.Amount)
	}
	return sum
}

// Clone returns a deep copy of the goal.
func (g Goal) Clone() Goal {
	if g.TargetDate != nil {
		d := *g.TargetDate
		g.TargetDate = &d
	}
	return g
}

// Clone returns a deep copy of the root.
func (r Root) Clone() Root {
	out := Root{
		Periods:    make(map[string]*Ledger, len(r.Periods)),
		Settings:   r.Settings,
		Categories: append([]string{}, r.Categories...),
		Goals:      make([]Goal, len(r.Goals)),
	}
	for k, l := range r.Periods {
		c := l.Clone()
		out.Periods[k] = &c
	}
	for i, g := range r.Goals {
		out.Goals[i] = g.Clone()
	}
	if r.Quarantine != nil {
		out.Quarantine = make(map[string]json.RawMessage, len(r.Quarantine))
		for k, v := range r.Quarantine {
			out.Quarantine[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD", Err: ErrInvalidDate}
	}
	return t, nil
}

// LocalDate formats an epoch-millisecond timestamp as a calendar date in loc.
func LocalDate(timestampMs int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(timestampMs).In(loc).Format(DateLayout)
}
