// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for decoding and validating request data.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/period"
)

const maxBodyBytes = 4 << 20

// Amount decodes a JSON number or string. Strings may use a comma as the
// decimal separator. Values are rounded to two places; sign checks are left
// to the store.
type Amount struct {
	decimal.Decimal
	Set bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return &core.ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a number", s), Err: core.ErrInvalidAmount}
	}
	a.Decimal = d.Round(2)
	a.Set = true
	return nil
}

// ptr returns nil for an unset amount.
func (a *Amount) ptr() *decimal.Decimal {
	if a == nil || !a.Set {
		return nil
	}
	d := a.Decimal
	return &d
}

// decodeJSON reads one JSON object into dst and rejects unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &core.FormatError{Reason: "request body is empty"}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		return &core.FormatError{Reason: "invalid JSON body", Err: err}
	}
	if dec.More() {
		return &core.FormatError{Reason: "request body must hold a single JSON object"}
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &core.FormatError{Reason: "cannot read request body", Err: err}
	}
	if len(body) > maxBodyBytes {
		return nil, &core.FormatError{Reason: "request body too large"}
	}
	return body, nil
}

// pathPeriod returns the validated {period} path value.
func pathPeriod(r *http.Request) (string, error) {
	key := r.PathValue("period")
	if err := period.Validate(key); err != nil {
		return "", err
	}
	return key, nil
}

// pathRef parses the {ref} path value: a transaction id or "#<index>".
func pathRef(r *http.Request) (core.Ref, error) {
	return core.ParseRef(r.PathValue("ref"))
}

// queryInt reads a positive integer query parameter, falling back to def
// when it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &core.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return n, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}
