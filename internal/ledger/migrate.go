package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/period"
)

// MigrationReport lists what Migrate had to change to reach the current layout.
type MigrationReport struct {
	Empty               bool     `json:"empty"`
	Legacy              bool     `json:"legacy"`
	PeriodsMoved        int      `json:"periodsMoved"`
	Rekeyed             int      `json:"rekeyed"`
	Skipped             []string `json:"skipped,omitempty"`
	DatesBackfilled     int      `json:"datesBackfilled"`
	IDsGenerated        int      `json:"idsGenerated"`
	CategoriesDefaulted int      `json:"categoriesDefaulted"`
	SectionsDefaulted   []string `json:"sectionsDefaulted,omitempty"`
	SettingsReset       []string `json:"settingsReset,omitempty"`
	Quarantined         []string `json:"quarantined,omitempty"`
}

// Changed reports whether the migrated root differs from its input.
func (r MigrationReport) Changed() bool {
	return r.Legacy || r.PeriodsMoved > 0 || r.Rekeyed > 0 || len(r.Skipped) > 0 ||
		r.DatesBackfilled > 0 || r.IDsGenerated > 0 || r.CategoriesDefaulted > 0 ||
		len(r.SectionsDefaulted) > 0 || len(r.SettingsReset) > 0 || len(r.Quarantined) > 0
}

// flexID accepts ids persisted as strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// flexMillis accepts epoch milliseconds as integers, floats or numeric strings.
type flexMillis int64

func (f *flexMillis) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*f = flexMillis(int64(v))
	return nil
}

// flexAmount accepts amounts persisted as numbers, numeric strings, empty
// strings or null.
type flexAmount decimal.Decimal

func (f *flexAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "null" || s == "" {
		*f = flexAmount(decimal.Zero)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("amount %s: %w", s, err)
	}
	*f = flexAmount(d)
	return nil
}

func (f flexAmount) dec() decimal.Decimal { return decimal.Decimal(f) }

type rawTx struct {
	ID        flexID     `json:"id"`
	Name      string     `json:"name"`
	Source    string     `json:"source"`
	Amount    flexAmount `json:"amount"`
	Category  string     `json:"category"`
	Date      string     `json:"date"`
	Timestamp flexMillis `json:"timestamp"`
}

// rawLedger defers decoding of each value so that one unreadable record
// does not take the rest of its period down with it.
type rawLedger struct {
	Budget   json.RawMessage   `json:"budget"`
	Added    json.RawMessage   `json:"added"`
	Expenses []json.RawMessage `json:"expenses"`
	Income   []json.RawMessage `json:"income"`
}

type rawGoal struct {
	ID            flexID     `json:"id"`
	Name          string     `json:"name"`
	TargetAmount  flexAmount `json:"targetAmount"`
	TargetDate    *string    `json:"targetDate"`
	Description   string     `json:"description"`
	CurrentAmount flexAmount `json:"currentAmount"`
	CreatedAt     string     `json:"createdAt"`
	UpdatedAt     string     `json:"updatedAt"`
}

// Migrate decodes a persisted store in either the current or the legacy flat
// layout and returns a normalized current root. Running it on its own encoded
// output changes nothing. Empty input yields a default root; anything that is
// not a JSON object is a *core.FormatError.
//
// Period data that cannot be decoded is never dropped: the raw value is kept
// in Root.Quarantine under its location and listed in the report.
func Migrate(raw []byte, ids core.IDGenerator, loc *time.Location) (core.Root, MigrationReport, error) {
	var report MigrationReport
	if ids == nil {
		ids = core.UUIDGenerator{}
	}
	if loc == nil {
		loc = time.Local
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		report.Empty = true
		return core.NewRoot(), report, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return core.Root{}, report, &core.FormatError{Reason: "persisted store is not a JSON object", Err: err}
	}

	m := migrator{ids: ids, loc: loc, report: &report, held: map[string]json.RawMessage{}}
	root := core.NewRoot()

	_, hasPeriods := top["periods"]
	_, hasSettings := top["settings"]
	if hasPeriods || hasSettings {
		if err := m.current(top, &root); err != nil {
			return core.Root{}, report, err
		}
	} else {
		report.Legacy = true
		if err := m.periods(top, &root, true); err != nil {
			return core.Root{}, report, err
		}
	}
	if len(m.held) > 0 {
		root.Quarantine = m.held
	}
	sort.Strings(report.Skipped)
	sort.Strings(report.Quarantined)
	return root, report, nil
}

type migrator struct {
	ids    core.IDGenerator
	loc    *time.Location
	report *MigrationReport
	held   map[string]json.RawMessage
}

// quarantine keeps raw under path and reports it.
func (m migrator) quarantine(path string, raw json.RawMessage) {
	m.held[path] = append(json.RawMessage(nil), raw...)
	m.report.Quarantined = append(m.report.Quarantined, path)
}

func (m migrator) current(top map[string]json.RawMessage, root *core.Root) error {
	if b, ok := top["quarantine"]; ok && !isNull(b) {
		var held map[string]json.RawMessage
		if err := json.Unmarshal(b, &held); err != nil {
			return &core.FormatError{Input: "quarantine", Reason: "must be an object", Err: err}
		}
		for path, raw := range held {
			m.held[path] = raw
		}
	}

	if b, ok := top["periods"]; ok && !isNull(b) {
		var periods map[string]json.RawMessage
		if err := json.Unmarshal(b, &periods); err != nil {
			return &core.FormatError{Input: "periods", Reason: "must be an object", Err: err}
		}
		if err := m.periods(periods, root, false); err != nil {
			return err
		}
	} else {
		m.report.SectionsDefaulted = append(m.report.SectionsDefaulted, "periods")
	}

	if b, ok := top["settings"]; ok && !isNull(b) {
		st := core.DefaultSettings()
		if err := json.Unmarshal(b, &st); err != nil {
			return &core.FormatError{Input: "settings", Reason: "must be an object", Err: err}
		}
		var reset []string
		root.Settings, reset = normalizeSettings(st)
		m.report.SettingsReset = append(m.report.SettingsReset, reset...)
	} else {
		m.report.SectionsDefaulted = append(m.report.SectionsDefaulted, "settings")
	}

	if b, ok := top["categories"]; ok && !isNull(b) {
		var cats []string
		if err := json.Unmarshal(b, &cats); err != nil {
			return &core.FormatError{Input: "categories", Reason: "must be a list of strings", Err: err}
		}
		norm := normalizeCategories(cats)
		if len(norm) != len(cats) {
			m.report.CategoriesDefaulted++
		}
		root.Categories = norm
	} else {
		m.report.SectionsDefaulted = append(m.report.SectionsDefaulted, "categories")
	}

	if b, ok := top["goals"]; ok && !isNull(b) {
		var goals []json.RawMessage
		if err := json.Unmarshal(b, &goals); err != nil {
			return &core.FormatError{Input: "goals", Reason: "must be a list of goals", Err: err}
		}
		root.Goals = make([]core.Goal, 0, len(goals))
		for i, raw := range goals {
			var g rawGoal
			if err := json.Unmarshal(raw, &g); err != nil {
				m.quarantine(fmt.Sprintf("goals[%d]", i), raw)
				continue
			}
			root.Goals = append(root.Goals, m.goal(g))
		}
	} else {
		m.report.SectionsDefaulted = append(m.report.SectionsDefaulted, "goals")
	}
	return nil
}

// periods decodes every period-shaped key of src into root. In the legacy
// layout other keys are expected and only reported; period data that cannot
// be placed is quarantined.
func (m migrator) periods(src map[string]json.RawMessage, root *core.Root, legacy bool) error {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		canonical, ok := canonicalKey(k)
		_, dup := root.Periods[canonical]
		if !ok || dup {
			m.report.Skipped = append(m.report.Skipped, k)
			if !legacy || periodShaped(k) {
				m.quarantine(k, src[k])
			}
			continue
		}
		var rl rawLedger
		if err := json.Unmarshal(src[k], &rl); err != nil {
			m.report.Skipped = append(m.report.Skipped, k)
			m.quarantine(k, src[k])
			continue
		}
		if canonical != k {
			m.report.Rekeyed++
		}
		if legacy {
			m.report.PeriodsMoved++
		}
		root.Periods[canonical] = m.ledger(canonical, rl)
	}
	return nil
}

func (m migrator) ledger(key string, rl rawLedger) *core.Ledger {
	l := core.NewLedger()
	if err := decodeAmount(rl.Budget, &l.Budget); err != nil {
		m.quarantine(key+".budget", rl.Budget)
	}
	// A bad cached total is recomputed by reconcile.
	_ = decodeAmount(rl.Added, &l.Added)
	for i, raw := range rl.Expenses {
		var tx rawTx
		if err := json.Unmarshal(raw, &tx); err != nil {
			m.quarantine(fmt.Sprintf("%s.expenses[%d]", key, i), raw)
			continue
		}
		id, cat, date, ts := m.tx(key, tx)
		l.Expenses = append(l.Expenses, core.Expense{
			ID: id, Name: tx.Name, Amount: tx.Amount.dec(), Category: cat, Date: date, Timestamp: ts,
		})
	}
	for i, raw := range rl.Income {
		var tx rawTx
		if err := json.Unmarshal(raw, &tx); err != nil {
			m.quarantine(fmt.Sprintf("%s.income[%d]", key, i), raw)
			continue
		}
		id, cat, date, ts := m.tx(key, tx)
		label := tx.Source
		if label == "" {
			label = tx.Name
		}
		l.Income = append(l.Income, core.Income{
			ID: id, Source: label, Amount: tx.Amount.dec(), Category: cat, Date: date, Timestamp: ts,
		})
	}
	return l
}

func (m migrator) tx(key string, tx rawTx) (id, category, date string, ts int64) {
	id = strings.TrimSpace(string(tx.ID))
	if id == "" {
		id = m.ids.NewID()
		m.report.IDsGenerated++
	}
	category = strings.TrimSpace(tx.Category)
	if category == "" {
		category = core.OtherCategory
		m.report.CategoriesDefaulted++
	}
	ts = int64(tx.Timestamp)
	date = strings.TrimSpace(tx.Date)
	if _, err := core.ParseDate(date); err != nil {
		if ts > 0 {
			date = core.LocalDate(ts, m.loc)
		} else {
			date, _ = period.FirstDay(key)
		}
		m.report.DatesBackfilled++
	}
	return id, category, date, ts
}

func (m migrator) goal(g rawGoal) core.Goal {
	out := core.Goal{
		ID:            strings.TrimSpace(string(g.ID)),
		Name:          strings.TrimSpace(g.Name),
		TargetAmount:  g.TargetAmount.dec(),
		Description:   g.Description,
		CurrentAmount: g.CurrentAmount.dec(),
		CreatedAt:     parseTime(g.CreatedAt),
		UpdatedAt:     parseTime(g.UpdatedAt),
	}
	if out.ID == "" {
		out.ID = m.ids.NewID()
		m.report.IDsGenerated++
	}
	if g.TargetDate != nil {
		if d := strings.TrimSpace(*g.TargetDate); d != "" {
			out.TargetDate = &d
		}
	}
	return out
}

// canonicalKey accepts digits-digits keys with a month in range and returns
// the zero-padded form.
func canonicalKey(k string) (string, bool) {
	y, mo, err := period.Parse(k)
	if err != nil {
		return "", false
	}
	c := period.Format(y, mo)
	if period.Validate(c) != nil {
		return "", false
	}
	return c, true
}

// periodShaped reports whether k looks like a period key, valid or not.
func periodShaped(k string) bool {
	_, _, err := period.Parse(k)
	return err == nil
}

// decodeAmount decodes raw into dst, leaving zero for a missing value.
func decodeAmount(raw json.RawMessage, dst *decimal.Decimal) error {
	*dst = decimal.Zero
	if len(raw) == 0 {
		return nil
	}
	var a flexAmount
	if err := json.Unmarshal(raw, &a); err != nil {
		return err
	}
	*dst = a.dec()
	return nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func isNull(b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
