// Package period encodes calendar months as sortable "YYYY-MM" keys and
// provides calendar-correct navigation between them.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"denaro/internal/core"
)

var keyPattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// Format encodes a year and month. The month is not range checked; callers
// that need rollover go through Shift.
func Format(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// Parse decodes a key into its year and month.
func Parse(key string) (year, month int, err error) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, &core.FormatError{Input: key, Reason: "period key must be digits-digits"}
	}
	year, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, &core.FormatError{Input: key, Reason: "year out of range", Err: err}
	}
	month, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, &core.FormatError{Input: key, Reason: "month out of range", Err: err}
	}
	return year, month, nil
}

// Validate accepts only canonical keys: a four digit year and a zero padded
// month in 1..12.
func Validate(key string) error {
	y, m, err := Parse(key)
	if err != nil {
		return err
	}
	if m < 1 || m > 12 {
		return &core.FormatError{Input: key, Reason: "month must be between 01 and 12"}
	}
	if y < 1000 || y > 9999 {
		return &core.FormatError{Input: key, Reason: "year must have four digits"}
	}
	if Format(y, m) != key {
		return &core.FormatError{Input: key, Reason: "month must be zero padded"}
	}
	return nil
}

// Shift moves key by delta months, carrying into the year as needed.
func Shift(key string, delta int) (string, error) {
	y, m, err := Parse(key)
	if err != nil {
		return "", err
	}
	t := time.Date(y, time.Month(m)+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return Format(t.Year(), int(t.Month())), nil
}

// Window returns size consecutive keys ending at end, oldest first.
func Window(end string, size int) ([]string, error) {
	if size <= 0 {
		return nil, &core.ValidationError{Field: "window", Reason: "must be positive", Err: core.ErrInvalidAmount}
	}
	out := make([]string, size)
	for i := 0; i < size; i++ {
		k, err := Shift(end, -i)
		if err != nil {
			return nil, err
		}
		out[size-1-i] = k
	}
	return out, nil
}

// Of returns the key of the month containing t.
func Of(t time.Time) string {
	return Format(t.Year(), int(t.Month()))
}

// Current returns the key of the clock's current month.
func Current(c core.Clock) string {
	return Of(c.Now())
}

// FromDate returns the key of an ISO calendar date.
func FromDate(date string) (string, error) {
	t, err := core.ParseDate(date)
	if err != nil {
		return "", err
	}
	return Of(t), nil
}

// FirstDay returns the ISO date of the first day of the period.
func FirstDay(key string) (string, error) {
	y, m, err := Parse(key)
	if err != nil {
		return "", err
	}
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC).Format(core.DateLayout), nil
}

// Contains reports whether the ISO date falls inside the period.
func Contains(key, date string) bool {
	return strings.HasPrefix(strings.TrimSpace(date), key+"-")
}
