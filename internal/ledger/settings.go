package ledger

import (
	"context"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"

	"denaro/internal/core"
	"denaro/internal/log"
	"denaro/internal/period"
)

var (
	themes      = []string{"light", "dark", "auto"}
	dateFormats = []string{"MM/DD/YYYY", "DD/MM/YYYY", "YYYY-MM-DD"}
	accentRe    = regexp.MustCompile(`^([a-z]+|#[0-9a-fA-F]{6})$`)
)

// CurrentPeriod is the defaultPeriod value that follows the clock.
const CurrentPeriod = "current"

// Settings returns the current settings.
func (s *Store) Settings() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Settings
}

// UpdateSettings validates the patched settings as a whole and stores them.
func (s *Store) UpdateSettings(ctx context.Context, patch core.SettingsPatch) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.root.Settings.Apply(patch)
	next.Currency = strings.ToUpper(next.Currency)
	if err := ValidateSettings(next); err != nil {
		return core.Settings{}, err
	}
	s.root.Settings = next
	return next, s.persist(ctx, log.OpUpdate)
}

// DefaultPeriodKey resolves the defaultPeriod setting to a period key.
func (s *Store) DefaultPeriodKey() string {
	st := s.Settings()
	if st.DefaultPeriod != CurrentPeriod && period.Validate(st.DefaultPeriod) == nil {
		return st.DefaultPeriod
	}
	return period.Current(s.clock)
}

// ValidateSettings checks every field against its allowed values.
func ValidateSettings(st core.Settings) error {
	for _, check := range settingChecks {
		if err := check.valid(st); err != nil {
			return err
		}
	}
	return nil
}

type settingCheck struct {
	field string
	valid func(core.Settings) error
	reset func(*core.Settings, core.Settings)
}

var settingChecks = []settingCheck{
	{
		field: "theme",
		valid: func(st core.Settings) error { return oneOf("theme", st.Theme, themes) },
		reset: func(st *core.Settings, d core.Settings) { st.Theme = d.Theme },
	},
	{
		field: "currency",
		valid: func(st core.Settings) error {
			if money.GetCurrency(st.Currency) == nil {
				return badSetting("currency", "unknown ISO 4217 code")
			}
			return nil
		},
		reset: func(st *core.Settings, d core.Settings) { st.Currency = d.Currency },
	},
	{
		field: "language",
		valid: func(st core.Settings) error { return oneOf("language", st.Language, period.Languages()) },
		reset: func(st *core.Settings, d core.Settings) { st.Language = d.Language },
	},
	{
		field: "dateFormat",
		valid: func(st core.Settings) error { return oneOf("dateFormat", st.DateFormat, dateFormats) },
		reset: func(st *core.Settings, d core.Settings) { st.DateFormat = d.DateFormat },
	},
	{
		field: "accentColor",
		valid: func(st core.Settings) error {
			if !accentRe.MatchString(st.AccentColor) {
				return badSetting("accentColor", "must be a color name or #rrggbb")
			}
			return nil
		},
		reset: func(st *core.Settings, d core.Settings) { st.AccentColor = d.AccentColor },
	},
	{
		field: "defaultPeriod",
		valid: func(st core.Settings) error {
			if st.DefaultPeriod == CurrentPeriod {
				return nil
			}
			if err := period.Validate(st.DefaultPeriod); err != nil {
				return badSetting("defaultPeriod", `must be "current" or YYYY-MM`)
			}
			return nil
		},
		reset: func(st *core.Settings, d core.Settings) { st.DefaultPeriod = d.DefaultPeriod },
	},
}

// normalizeSettings replaces every invalid field with its default and reports
// which fields were reset.
func normalizeSettings(st core.Settings) (core.Settings, []string) {
	d := core.DefaultSettings()
	st.Currency = strings.ToUpper(strings.TrimSpace(st.Currency))
	var reset []string
	for _, check := range settingChecks {
		if check.valid(st) != nil {
			check.reset(&st, d)
			reset = append(reset, check.field)
		}
	}
	return st, reset
}

func oneOf(field, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return badSetting(field, "must be one of "+strings.Join(allowed, ", "))
}

func badSetting(field, reason string) error {
	return &core.ValidationError{Field: field, Reason: reason, Err: core.ErrInvalidSetting}
}
