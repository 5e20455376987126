// Package file is a storage.KV that keeps one JSON document per key in a
// directory, replacing files atomically on write.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"denaro/internal/storage"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

type document struct {
	Version int64  `json:"version"`
	Value   string `json:"value"`
}

type Store struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *Store) read(key string) (document, error) {
	p, err := s.path(key)
	if err != nil {
		return document{}, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, storage.ErrNotFound
	}
	if err != nil {
		return document{}, fmt.Errorf("read %s: %w", key, err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return document{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, nil
}

func (s *Store) Get(_ context.Context, key string) (storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read(key)
	if err != nil {
		return storage.Record{}, err
	}
	return storage.Record{Value: []byte(doc.Value), Version: doc.Version}, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte, expect int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur int64
	doc, err := s.read(key)
	switch {
	case err == nil:
		cur = doc.Version
	case errors.Is(err, storage.ErrNotFound):
	default:
		return 0, err
	}
	if cur != expect {
		return 0, fmt.Errorf("put %s at version %d (current %d): %w", key, expect, cur, storage.ErrConflict)
	}

	b, err := json.MarshalIndent(document{Version: cur + 1, Value: string(value)}, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", key, err)
	}

	p, _ := s.path(key)
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("write %s: %w", key, err)
	}
	return cur + 1, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
