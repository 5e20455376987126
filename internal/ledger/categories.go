package ledger

import (
	"context"
	"slices"
	"strings"

	"denaro/internal/core"
	"denaro/internal/log"
)

// Categories returns the user's expense categories in order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.root.Categories...)
}

// AddCategory appends a new category. Names are trimmed and compared
// case-sensitively.
func (s *Store) AddCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := core.RequireName("category", name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.root.Categories, name) {
		return "", &core.ValidationError{Field: "category", Reason: "category already exists", Err: core.ErrDuplicateName}
	}
	s.root.Categories = append(s.root.Categories, name)
	return name, s.persist(ctx, log.OpCreate)
}

// RenameCategory renames a category in the list. Transactions already filed
// under the old name keep it.
func (s *Store) RenameCategory(ctx context.Context, oldName, newName string) (string, error) {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if err := core.RequireName("category", newName); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.root.Categories, oldName)
	if i < 0 {
		return "", notFound("category", oldName)
	}
	if newName == oldName {
		return newName, nil
	}
	if slices.Contains(s.root.Categories, newName) {
		return "", &core.ValidationError{Field: "category", Reason: "category already exists", Err: core.ErrDuplicateName}
	}
	s.root.Categories[i] = newName
	return newName, s.persist(ctx, log.OpUpdate)
}

// DeleteCategory removes a category from the list. Existing transactions are
// not touched.
func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.root.Categories, name)
	if i < 0 {
		return notFound("category", name)
	}
	s.root.Categories = slices.Delete(s.root.Categories, i, i+1)
	return s.persist(ctx, log.OpDelete)
}

// normalizeCategories trims, drops blanks and keeps the first of duplicates.
func normalizeCategories(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
