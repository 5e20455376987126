package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"denaro/internal/core"
	"denaro/internal/log"
)

// Export returns the whole store as indented JSON in the persisted layout.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := json.MarshalIndent(s.root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return b, nil
}

// Import replaces the store with a backup. Only the current layout is
// accepted: the document must carry both periods and settings. Every record
// must pass the same checks as a direct write, and a backup with values that
// cannot be decoded is refused. Income totals are recomputed.
func (s *Store) Import(ctx context.Context, data []byte) (MigrationReport, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &top); err != nil {
		return MigrationReport{}, &core.FormatError{Reason: "backup is not a JSON object", Err: err}
	}
	for _, section := range []string{"periods", "settings"} {
		if _, ok := top[section]; !ok {
			return MigrationReport{}, &core.FormatError{Reason: "backup is missing " + section}
		}
	}

	root, report, err := Migrate(data, s.ids, s.loc)
	if err != nil {
		return report, err
	}
	if len(report.Quarantined) > 0 {
		return report, &core.FormatError{Reason: "backup has unreadable values: " + strings.Join(report.Quarantined, ", ")}
	}
	if err := validateRoot(root); err != nil {
		return report, err
	}
	reconcile(&root, true)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	s.logger.InfoContext(ctx, "Backup imported", "periods", len(root.Periods), "goals", len(root.Goals))
	return report, s.persist(ctx, log.OpImport)
}

// Reset discards all data and starts over from a default root.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = core.NewRoot()
	s.logger.WarnContext(ctx, "Store reset to defaults")
	return s.persist(ctx, log.OpReset)
}

// validateRoot applies the write-boundary checks to every record of root.
// The field of a returned *core.ValidationError names the offending record.
func validateRoot(root core.Root) error {
	keys := make([]string, 0, len(root.Periods))
	for k := range root.Periods {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		l := root.Periods[key]
		if err := core.RequireNonNegative("budget", l.Budget); err != nil {
			return within("periods."+key, err)
		}
		for i, e := range l.Expenses {
			if err := e.Validate(); err != nil {
				return within(fmt.Sprintf("periods.%s.expenses[%d]", key, i), err)
			}
		}
		for i, in := range l.Income {
			if err := in.Validate(); err != nil {
				return within(fmt.Sprintf("periods.%s.income[%d]", key, i), err)
			}
		}
	}

	names := make(map[string]bool, len(root.Goals))
	for i, g := range root.Goals {
		where := fmt.Sprintf("goals[%d]", i)
		if err := g.Validate(); err != nil {
			return within(where, err)
		}
		if names[g.Name] {
			return &core.ValidationError{Field: where + ".name", Reason: "goal with this name already exists", Err: core.ErrDuplicateName}
		}
		names[g.Name] = true
	}
	return nil
}

// within prefixes the field of a validation error with the record's location.
func within(where string, err error) error {
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return &core.ValidationError{Field: where + "." + ve.Field, Reason: ve.Reason, Err: ve.Err}
}
