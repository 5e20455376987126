// Package memory is an in-process storage.KV, optionally seeded from files.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"denaro/internal/storage"
)

type entry struct {
	value   []byte
	version int64
}

type Store struct {
	mu    sync.Mutex
	items map[string]entry
}

func New() *Store {
	return &Store{items: map[string]entry{}}
}

// NewFromFiles seeds one key per *.json file in base, named after the file.
// A missing directory yields an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	matches, _ := filepath.Glob(filepath.Join(base, "*.json"))
	for _, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		key := strings.TrimSuffix(filepath.Base(path), ".json")
		s.items[key] = entry{value: b, version: 1}
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return storage.Record{}, storage.ErrNotFound
	}
	return storage.Record{Value: append([]byte(nil), e.value...), Version: e.version}, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte, expect int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.items[key].version
	if cur != expect {
		return 0, fmt.Errorf("put %s at version %d (current %d): %w", key, expect, cur, storage.ErrConflict)
	}
	s.items[key] = entry{value: append([]byte(nil), value...), version: cur + 1}
	return cur + 1, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *Store) Close() error { return nil }
