package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"denaro/internal/storage"
	"denaro/internal/storage/storagetest"
)

func TestSQLiteRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "denaro.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	storagetest.Run(t, repo)
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "denaro.db")
	ctx := context.Background()

	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := repo.Put(ctx, "denaro_store", []byte(`{}`), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	repo.Close()

	// Migrations must be a no-op the second time.
	repo, err = storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	rec, err := repo.Get(ctx, "denaro_store")
	if err != nil || rec.Version != 1 {
		t.Fatalf("after reopen: %+v err=%v", rec, err)
	}

	v, dirty, err := storage.SchemaVersion(path)
	if err != nil || dirty || v != 1 {
		t.Fatalf("schema version=%d dirty=%v err=%v", v, dirty, err)
	}
}
