package ledger

import (
	"context"
	"sort"
	"strings"

	"denaro/internal/core"
	"denaro/internal/log"
)

// Goals returns a copy of every goal, newest first.
func (s *Store) Goals() []core.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Goal, len(s.root.Goals))
	for i, g := range s.root.Goals {
		out[i] = g.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Goal returns one goal by id.
func (s *Store) Goal(id string) (core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.goalIndex(id)
	if i < 0 {
		return core.Goal{}, notFound("goal", id)
	}
	return s.root.Goals[i].Clone(), nil
}

// AddGoal stores a new goal. ID and timestamps are assigned here; the
// caller's values for them are ignored.
func (s *Store) AddGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g = g.Clone()
	g.Name = strings.TrimSpace(g.Name)
	if g.TargetDate != nil && strings.TrimSpace(*g.TargetDate) == "" {
		g.TargetDate = nil
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.goalNameTaken(g.Name, "") {
		return core.Goal{}, &core.ValidationError{Field: "name", Reason: "goal with this name already exists", Err: core.ErrDuplicateName}
	}
	now := s.clock.Now().UTC()
	g.ID = s.ids.NewID()
	g.CreatedAt = now
	g.UpdatedAt = now
	s.root.Goals = append(s.root.Goals, g)
	return g.Clone(), s.persist(ctx, log.OpCreate)
}

// EditGoal applies patch to a goal, keeping its id and creation time.
func (s *Store) EditGoal(ctx context.Context, id string, patch core.GoalPatch) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(id)
	if i < 0 {
		return core.Goal{}, notFound("goal", id)
	}
	updated := s.root.Goals[i].Apply(patch)
	if err := updated.Validate(); err != nil {
		return core.Goal{}, err
	}
	if s.goalNameTaken(updated.Name, id) {
		return core.Goal{}, &core.ValidationError{Field: "name", Reason: "goal with this name already exists", Err: core.ErrDuplicateName}
	}
	updated.UpdatedAt = s.clock.Now().UTC()
	s.root.Goals[i] = updated
	return updated.Clone(), s.persist(ctx, log.OpUpdate)
}

// DeleteGoal removes a goal by id.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(id)
	if i < 0 {
		return notFound("goal", id)
	}
	s.root.Goals = append(s.root.Goals[:i], s.root.Goals[i+1:]...)
	return s.persist(ctx, log.OpDelete)
}

func (s *Store) goalIndex(id string) int {
	for i, g := range s.root.Goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) goalNameTaken(name, exceptID string) bool {
	for _, g := range s.root.Goals {
		if g.Name == name && g.ID != exceptID {
			return true
		}
	}
	return false
}
