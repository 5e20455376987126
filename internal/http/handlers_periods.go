package http

import (
	"net/http"

	"denaro/internal/core"
	"denaro/internal/period"
)

type periodResponse struct {
	Period string `json:"period"`
	Label  string `json:"label"`
	core.Ledger
}

func (s *Server) periodView(key string, l core.Ledger) periodResponse {
	label, _ := period.Label(key, s.svc.Settings().Language)
	return periodResponse{Period: key, Label: label, Ledger: l}
}

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"periods": s.svc.Periods(),
		"default": s.svc.DefaultPeriodKey(),
	}).Write(w)
}

func (s *Server) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	err = s.svc.EnsurePeriod(r.Context(), key)
	l, _ := s.svc.Lookup(key)
	s.respond(w, r, http.StatusOK, s.periodView(key, l), err)
}

type budgetRequest struct {
	Amount Amount `json:"amount"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	if !req.Amount.Set {
		s.respond(w, r, http.StatusOK, nil, &core.ValidationError{Field: "amount", Reason: "is required", Err: core.ErrInvalidAmount})
		return
	}
	err = s.svc.SetBudget(r.Context(), key, req.Amount.Decimal)
	l, _ := s.svc.Lookup(key)
	s.respond(w, r, http.StatusOK, s.periodView(key, l), err)
}

func (s *Server) handleClearPeriod(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	snapshot, err := s.svc.ClearPeriod(r.Context(), key)
	s.respond(w, r, http.StatusOK, map[string]any{"period": key, "snapshot": snapshot}, err)
}

func (s *Server) handleRestorePeriod(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	var snapshot core.Ledger
	if err := decodeJSON(r, &snapshot); err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	err = s.svc.RestorePeriod(r.Context(), key, snapshot)
	l, _ := s.svc.Lookup(key)
	s.respond(w, r, http.StatusOK, s.periodView(key, l), err)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	sum, err := s.svc.Summary(key)
	s.respond(w, r, http.StatusOK, sum, err)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	rows, err := s.svc.Breakdown(key)
	s.respond(w, r, http.StatusOK, rows, err)
}

const maxTrendWindow = 60

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	window, err := queryInt(r, "window", s.trendWindow)
	if err == nil && (window < 1 || window > maxTrendWindow) {
		err = &core.ValidationError{Field: "window", Reason: "must be between 1 and 60"}
	}
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	points, err := s.svc.Trend(key, window)
	s.respond(w, r, http.StatusOK, points, err)
}
