package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/report"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"expense": s.svc.Categories(),
		"income":  core.IncomeCategories,
	}).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	name, err := s.svc.AddCategory(r.Context(), sanitizeInput(req.Name))
	s.respond(w, r, http.StatusCreated, map[string]string{"name": name}, err)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	name, err := s.svc.RenameCategory(r.Context(), r.PathValue("name"), sanitizeInput(req.Name))
	s.respond(w, r, http.StatusOK, map[string]string{"name": name}, err)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := s.svc.DeleteCategory(r.Context(), name)
	s.respond(w, r, http.StatusOK, map[string]string{"deleted": name}, err)
}

type goalRequest struct {
	Name          string  `json:"name"`
	TargetAmount  Amount  `json:"targetAmount"`
	TargetDate    *string `json:"targetDate"`
	Description   string  `json:"description"`
	CurrentAmount Amount  `json:"currentAmount"`
}

type goalPatchRequest struct {
	Name          *string `json:"name"`
	TargetAmount  Amount  `json:"targetAmount"`
	TargetDate    *string `json:"targetDate"`
	Description   *string `json:"description"`
	CurrentAmount Amount  `json:"currentAmount"`
}

type goalView struct {
	core.Goal
	Progress decimal.Decimal `json:"progress"`
}

func newGoalView(g core.Goal) goalView {
	return goalView{Goal: g, Progress: report.GoalProgress(g)}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals := s.svc.Goals()
	views := make([]goalView, len(goals))
	for i, g := range goals {
		views[i] = newGoalView(g)
	}
	NewJSONResponse().Data(map[string]any{
		"goals":    views,
		"insights": report.Goals(goals),
	}).Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Goal(r.PathValue("id"))
	s.respond(w, r, http.StatusOK, newGoalView(g), err)
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	g, err := s.svc.AddGoal(r.Context(), core.Goal{
		Name:          sanitizeInput(req.Name),
		TargetAmount:  req.TargetAmount.Decimal,
		TargetDate:    sanitizePtr(req.TargetDate),
		Description:   sanitizeInput(req.Description),
		CurrentAmount: req.CurrentAmount.Decimal,
	})
	s.respond(w, r, http.StatusCreated, newGoalView(g), err)
}

func (s *Server) handleEditGoal(w http.ResponseWriter, r *http.Request) {
	var req goalPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	g, err := s.svc.EditGoal(r.Context(), r.PathValue("id"), core.GoalPatch{
		Name:          sanitizePtr(req.Name),
		TargetAmount:  req.TargetAmount.ptr(),
		TargetDate:    sanitizePtr(req.TargetDate),
		Description:   sanitizePtr(req.Description),
		CurrentAmount: req.CurrentAmount.ptr(),
	})
	s.respond(w, r, http.StatusOK, newGoalView(g), err)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.svc.DeleteGoal(r.Context(), id)
	s.respond(w, r, http.StatusOK, map[string]string{"deleted": id}, err)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Settings()).Write(w)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch core.SettingsPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.respond(w, r, http.StatusOK, nil, err)
		return
	}
	patch.Theme = sanitizePtr(patch.Theme)
	patch.Currency = sanitizePtr(patch.Currency)
	patch.Language = sanitizePtr(patch.Language)
	patch.DateFormat = sanitizePtr(patch.DateFormat)
	patch.AccentColor = sanitizePtr(patch.AccentColor)
	patch.DefaultPeriod = sanitizePtr(patch.DefaultPeriod)
	st, err := s.svc.UpdateSettings(r.Context(), patch)
	s.respond(w, r, http.StatusOK, st, err)
}
