package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"denaro/internal/core"
)

func TestJSONResponseBuilder_Data(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Data(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Header().Get("X-Test") != "1" {
		t.Error("custom header not set")
	}
	if got := w.Body.String(); got != "{\"data\":{\"n\":1}}\n" {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_Warning(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data("ok").Warning(&core.PersistenceError{Op: "create", Err: errors.New("disk full")}).Write(w)

	if w.Header().Get(PersistenceWarningHeader) != "true" {
		t.Error("warning header not set")
	}
	var body struct {
		Warning string `json:"warning"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Warning != "persist create: disk full" {
		t.Errorf("warning = %q", body.Warning)
	}

	w = httptest.NewRecorder()
	NewJSONResponse().Warning(nil).Write(w)
	if w.Header().Get(PersistenceWarningHeader) != "" {
		t.Error("nil warning should not set the header")
	}
}

func TestJSONResponseBuilder_NoContentAndRaw(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Data("ignored").Write(w)
	if w.Body.Len() != 0 {
		t.Errorf("204 body = %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	NewJSONResponse().Raw([]byte(`{"periods":{}}`)).Write(w)
	if w.Body.String() != `{"periods":{}}` {
		t.Errorf("raw body = %q", w.Body.String())
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		field  string
	}{
		{"validation", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, http.StatusUnprocessableEntity, CodeValidation, "amount"},
		{"not found", fmt.Errorf("goal %q: %w", "x", core.ErrNotFound), http.StatusNotFound, CodeNotFound, ""},
		{"format", &core.FormatError{Input: "2025-1", Reason: "month must be zero padded"}, http.StatusBadRequest, CodeFormat, ""},
		{"conflict", &core.PersistenceError{Op: "update", Err: core.ErrVersionConflict}, http.StatusConflict, CodeConflict, ""},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, CodeInternal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := FromError(tt.err)
			if resp == nil {
				t.Fatal("FromError returned nil")
			}
			w := httptest.NewRecorder()
			resp.Write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body struct {
				Error ErrorBody `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.code || body.Error.Field != tt.field {
				t.Errorf("error = %+v", body.Error)
			}
		})
	}

	if FromError(nil) != nil {
		t.Error("nil error should map to nil")
	}
	if FromError(&core.PersistenceError{Op: "create", Err: errors.New("disk full")}) != nil {
		t.Error("plain persistence failure should not be an error response")
	}
}
