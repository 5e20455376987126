package http

import (
	"net/http"

	"denaro/internal/core"
)

type expenseRequest struct {
	Name     string `json:"name"`
	Amount   Amount `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

type incomeRequest struct {
	Source   string `json:"source"`
	Amount   Amount `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

// transactionPatch accepts "name" for expenses and "source" for income.
type transactionPatch struct {
	Name     *string `json:"name"`
	Source   *string `json:"source"`
	Amount   Amount  `json:"amount"`
	Category *string `json:"category"`
	Date     *string `json:"date"`
}

func (p transactionPatch) toCore(labelField string) (core.TransactionPatch, error) {
	label := p.Name
	other := p.Source
	if labelField == "source" {
		label, other = p.Source, p.Name
	}
	if other != nil {
		return core.TransactionPatch{}, &core.ValidationError{Field: labelField, Reason: "use " + labelField + " to relabel this record"}
	}
	return core.TransactionPatch{
		Label:    sanitizePtr(label),
		Amount:   p.Amount.ptr(),
		Category: sanitizePtr(p.Category),
		Date:     sanitizePtr(p.Date),
	}, nil
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	e, err := s.svc.AddExpense(r.Context(), key, sanitizeInput(req.Name), req.Amount.Decimal, sanitizeInput(req.Category), sanitizeInput(req.Date))
	s.respond(w, r, http.StatusCreated, e, err)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	in, err := s.svc.AddIncome(r.Context(), key, sanitizeInput(req.Source), req.Amount.Decimal, sanitizeInput(req.Category), sanitizeInput(req.Date))
	s.respond(w, r, http.StatusCreated, in, err)
}

// parseEdit reads the period, reference and patch shared by both edit routes.
func parseEdit(r *http.Request, labelField string) (string, core.Ref, core.TransactionPatch, error) {
	key, err := pathPeriod(r)
	if err != nil {
		return "", core.Ref{}, core.TransactionPatch{}, err
	}
	ref, err := pathRef(r)
	if err != nil {
		return "", core.Ref{}, core.TransactionPatch{}, err
	}
	var req transactionPatch
	if err := decodeJSON(r, &req); err != nil {
		return "", core.Ref{}, core.TransactionPatch{}, err
	}
	patch, err := req.toCore(labelField)
	return key, ref, patch, err
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	key, ref, patch, err := parseEdit(r, "name")
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	e, err := s.svc.EditExpense(r.Context(), key, ref, patch)
	s.respond(w, r, http.StatusOK, e, err)
}

func (s *Server) handleEditIncome(w http.ResponseWriter, r *http.Request) {
	key, ref, patch, err := parseEdit(r, "source")
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	in, err := s.svc.EditIncome(r.Context(), key, ref, patch)
	s.respond(w, r, http.StatusOK, in, err)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	ref, err := pathRef(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	e, err := s.svc.DeleteExpense(r.Context(), key, ref)
	s.respond(w, r, http.StatusOK, e, err)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	key, err := pathPeriod(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	ref, err := pathRef(r)
	if err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	in, err := s.svc.DeleteIncome(r.Context(), key, ref)
	s.respond(w, r, http.StatusOK, in, err)
}
