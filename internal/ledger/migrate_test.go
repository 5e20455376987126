package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"denaro/internal/core"
)

const legacyStore = `{
  "2024-11": {"budget": 500, "added": 0,
    "expenses": [{"name": "X", "amount": 10, "timestamp": 1700000000000}],
    "income": []},
  "2024-12": {"budget": "250", "added": 40,
    "expenses": [{"id": 17, "name": "Y", "amount": "3.5", "category": "Food", "date": "2024-12-03", "timestamp": 1701600000000}],
    "income": [{"source": "Gift", "amount": 40, "timestamp": 0}]},
  "2025-2": {"budget": 0, "added": 0, "expenses": [], "income": []},
  "theme": "dark",
  "2025-13": {"budget": 1}
}`

func migrateOrFail(t *testing.T, raw string, loc *time.Location) (core.Root, MigrationReport) {
	t.Helper()
	root, rep, err := Migrate([]byte(raw), &seqIDs{}, loc)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return root, rep
}

func TestLegacyMigrationMovesPeriods(t *testing.T) {
	root, rep := migrateOrFail(t, legacyStore, time.UTC)

	l := root.Periods["2024-11"]
	if l == nil || len(l.Expenses) != 1 {
		t.Fatalf("2024-11 not migrated: %+v", root.Periods)
	}
	if got := l.Expenses[0].Date; got != core.LocalDate(1700000000000, time.UTC) || got != "2023-11-14" {
		t.Fatalf("date backfill = %q", got)
	}
	if !l.Budget.Equal(dec("500")) {
		t.Fatalf("budget = %s", l.Budget)
	}
	if root.Settings != core.DefaultSettings() || len(root.Categories) != len(core.DefaultCategories) || root.Goals == nil {
		t.Fatal("settings/categories/goals not defaulted")
	}

	if !rep.Legacy || rep.PeriodsMoved != 3 || rep.Rekeyed != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if len(rep.Skipped) != 2 || rep.Skipped[0] != "2025-13" || rep.Skipped[1] != "theme" {
		t.Fatalf("skipped = %v", rep.Skipped)
	}
	if len(rep.Quarantined) != 1 || string(root.Quarantine["2025-13"]) != `{"budget": 1}` {
		t.Fatalf("out-of-range period not quarantined: %v %s", rep.Quarantined, root.Quarantine["2025-13"])
	}
	if _, ok := root.Periods["2025-02"]; !ok {
		t.Fatal("2025-2 should be rekeyed to 2025-02")
	}
}

func TestMigrationUsesLocalCalendarDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	root, _ := migrateOrFail(t, legacyStore, tokyo)
	if got := root.Periods["2024-11"].Expenses[0].Date; got != "2023-11-15" {
		t.Fatalf("expected local date 2023-11-15, got %s", got)
	}
}

func TestMigrationNormalizesRecords(t *testing.T) {
	root, rep := migrateOrFail(t, legacyStore, time.UTC)
	dec12 := root.Periods["2024-12"]

	if e := dec12.Expenses[0]; e.ID != "17" || !e.Amount.Equal(dec("3.5")) || e.Date != "2024-12-03" {
		t.Fatalf("expense = %+v", e)
	}
	in := dec12.Income[0]
	if in.ID == "" || in.Category != core.OtherCategory || in.Date != "2024-12-01" || in.Source != "Gift" {
		t.Fatalf("income = %+v", in)
	}
	if !dec12.Budget.Equal(dec("250")) {
		t.Fatalf("string budget not decoded: %s", dec12.Budget)
	}
	if rep.DatesBackfilled != 2 || rep.IDsGenerated != 2 {
		t.Fatalf("unexpected counts %+v", rep)
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	inputs := map[string]string{
		"legacy":  legacyStore,
		"current": `{"periods":{"2025-01":{"budget":1,"added":0,"expenses":[],"income":[]}},"settings":{"currency":"usd"}}`,
		"empty":   ``,
	}
	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			first, _ := migrateOrFail(t, raw, time.UTC)
			enc, err := json.Marshal(first)
			if err != nil {
				t.Fatal(err)
			}
			second, rep := migrateOrFail(t, string(enc), time.UTC)
			if !sameJSON(first, second) {
				t.Fatalf("second pass changed the root:\n%s", enc)
			}
			if rep.Changed() {
				t.Fatalf("second pass reported changes: %+v", rep)
			}
		})
	}
}

func TestMigrateCurrentLayout(t *testing.T) {
	raw := `{"periods":{},"settings":{"theme":"neon","currency":"EUR","language":"it"},
		"categories":["Food"," Food ","","Pets"],
		"goals":[{"name":"Car","targetAmount":"5000","targetDate":"","currentAmount":100,"createdAt":"2025-01-01T00:00:00Z"}]}`
	root, rep := migrateOrFail(t, raw, time.UTC)
	if rep.Legacy {
		t.Fatal("current layout detected as legacy")
	}
	if root.Settings.Theme != "auto" || root.Settings.Currency != "EUR" || root.Settings.Language != "it" {
		t.Fatalf("settings = %+v", root.Settings)
	}
	if len(rep.SettingsReset) != 1 || rep.SettingsReset[0] != "theme" {
		t.Fatalf("settingsReset = %v", rep.SettingsReset)
	}
	if len(root.Categories) != 2 || root.Categories[1] != "Pets" {
		t.Fatalf("categories = %v", root.Categories)
	}
	g := root.Goals[0]
	if g.ID == "" || g.TargetDate != nil || !g.TargetAmount.Equal(dec("5000")) || g.CreatedAt.Year() != 2025 {
		t.Fatalf("goal = %+v", g)
	}
}

func TestMigrationQuarantinesOnlyBadRecords(t *testing.T) {
	raw := `{
	  "2024-11": {"budget": 500,
	    "expenses": [
	      {"name": "X", "amount": 10, "date": "2024-11-02"},
	      {"name": "Y", "amount": "abc", "date": "2024-11-03"}],
	    "income": [{"source": "Job", "amount": 20, "timestamp": "soon"}]},
	  "2024-12": {"budget": "lots", "expenses": [{"name": "Z", "amount": 1}]},
	  "2025-01": "not a ledger"
	}`
	root, rep := migrateOrFail(t, raw, time.UTC)

	nov := root.Periods["2024-11"]
	if nov == nil || !nov.Budget.Equal(dec("500")) || len(nov.Expenses) != 1 || nov.Expenses[0].Name != "X" || len(nov.Income) != 0 {
		t.Fatalf("2024-11 = %+v", nov)
	}
	dec12 := root.Periods["2024-12"]
	if dec12 == nil || !dec12.Budget.IsZero() || len(dec12.Expenses) != 1 {
		t.Fatalf("2024-12 = %+v", dec12)
	}
	if _, ok := root.Periods["2025-01"]; ok {
		t.Fatal("non-object period should not be placed")
	}

	want := []string{"2024-11.expenses[1]", "2024-11.income[0]", "2024-12.budget", "2025-01"}
	if len(rep.Quarantined) != len(want) {
		t.Fatalf("quarantined = %v", rep.Quarantined)
	}
	for i, path := range want {
		if rep.Quarantined[i] != path {
			t.Fatalf("quarantined = %v, want %v", rep.Quarantined, want)
		}
		if len(root.Quarantine[path]) == 0 {
			t.Fatalf("no raw value kept for %s", path)
		}
	}
	if rep.PeriodsMoved != 2 {
		t.Fatalf("periodsMoved = %d", rep.PeriodsMoved)
	}

	enc, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	again, rep2 := migrateOrFail(t, string(enc), time.UTC)
	if !sameJSON(root, again) || rep2.Changed() {
		t.Fatalf("quarantine not carried unchanged: %+v", rep2)
	}
}

func TestMigrateEmptyAndCorrupt(t *testing.T) {
	for _, raw := range []string{"", "   ", "null"} {
		root, rep, err := Migrate([]byte(raw), nil, nil)
		if err != nil || !rep.Empty || len(root.Periods) != 0 {
			t.Fatalf("%q: root=%+v rep=%+v err=%v", raw, root, rep, err)
		}
	}
	for _, raw := range []string{"{oops", "[1,2]", `"text"`, `{"periods":[1]}`} {
		if _, _, err := Migrate([]byte(raw), nil, nil); !core.IsFormat(err) {
			t.Fatalf("%q: expected FormatError, got %v", raw, err)
		}
	}
}
