// Package core provides amount parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and checking the sign constraints the store enforces at its write boundary.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an amount rounded to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Signs are rejected and the
// result must be strictly positive.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil (half-up)
//	ParseAmount("0")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, invalid("amount", ErrInvalidAmount)
			}
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	return d, nil
}

// RequirePositive rejects zero and negative amounts.
func RequirePositive(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return &ValidationError{Field: field, Reason: "must be greater than zero", Err: ErrInvalidAmount}
	}
	return nil
}

// RequireNonNegative rejects negative amounts.
func RequireNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: field, Reason: "must not be negative", Err: ErrInvalidAmount}
	}
	return nil
}
