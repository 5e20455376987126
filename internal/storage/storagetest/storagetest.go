// Package storagetest runs the behaviour every storage.KV implementation
// must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"denaro/internal/storage"
)

// Run exercises kv. The store must start empty.
func Run(t *testing.T, kv storage.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		if _, err := kv.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("create and update", func(t *testing.T) {
		v, err := kv.Put(ctx, "k", []byte(`{"a":1}`), 0)
		if err != nil || v != 1 {
			t.Fatalf("create: v=%d err=%v", v, err)
		}
		rec, err := kv.Get(ctx, "k")
		if err != nil || string(rec.Value) != `{"a":1}` || rec.Version != 1 {
			t.Fatalf("get after create: %+v err=%v", rec, err)
		}
		v, err = kv.Put(ctx, "k", []byte(`{"a":2}`), 1)
		if err != nil || v != 2 {
			t.Fatalf("update: v=%d err=%v", v, err)
		}
		rec, _ = kv.Get(ctx, "k")
		if string(rec.Value) != `{"a":2}` || rec.Version != 2 {
			t.Fatalf("get after update: %+v", rec)
		}
	})

	t.Run("stale writer conflicts", func(t *testing.T) {
		if _, err := kv.Put(ctx, "k", []byte("x"), 1); !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if _, err := kv.Put(ctx, "k", []byte("x"), 0); !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("expected conflict on re-create, got %v", err)
		}
		rec, _ := kv.Get(ctx, "k")
		if string(rec.Value) != `{"a":2}` {
			t.Fatalf("conflicting write leaked: %q", rec.Value)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := kv.Delete(ctx, "k"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := kv.Get(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := kv.Delete(ctx, "k"); err != nil {
			t.Fatalf("delete of missing key should be a no-op: %v", err)
		}
		if v, err := kv.Put(ctx, "k", []byte("again"), 0); err != nil || v != 1 {
			t.Fatalf("recreate: v=%d err=%v", v, err)
		}
	})
}
