package core

import (
	"strings"
	"unicode/utf8"
)

const maxNameLength = 200

// RequireName rejects blank names and names over the length limit.
func RequireName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid(field, ErrEmptyName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return &ValidationError{Field: field, Reason: "too long (max 200 characters)", Err: ErrEmptyName}
	}
	return nil
}

func (e Expense) Validate() error {
	if err := RequireName("name", e.Name); err != nil {
		return err
	}
	if err := RequirePositive("amount", e.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return invalid("category", ErrEmptyName)
	}
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	return nil
}

func (in Income) Validate() error {
	if err := RequireName("source", in.Source); err != nil {
		return err
	}
	if err := RequirePositive("amount", in.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return invalid("category", ErrEmptyName)
	}
	if _, err := ParseDate(in.Date); err != nil {
		return err
	}
	return nil
}

func (g Goal) Validate() error {
	if err := RequireName("name", g.Name); err != nil {
		return err
	}
	if err := RequirePositive("targetAmount", g.TargetAmount); err != nil {
		return err
	}
	if err := RequireNonNegative("currentAmount", g.CurrentAmount); err != nil {
		return err
	}
	if g.TargetDate != nil {
		if _, err := ParseDate(*g.TargetDate); err != nil {
			return &ValidationError{Field: "targetDate", Reason: "must be YYYY-MM-DD", Err: ErrInvalidDate}
		}
	}
	return nil
}
