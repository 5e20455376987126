package file

import (
	"context"
	"strings"
	"testing"

	"denaro/internal/storage/storagetest"
)

func TestFileStore(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	storagetest.Run(t, s)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	a, _ := New(dir)
	if _, err := a.Put(ctx, "denaro_store", []byte(`{"periods":{}}`), 0); err != nil {
		t.Fatal(err)
	}
	b, _ := New(dir)
	rec, err := b.Get(ctx, "denaro_store")
	if err != nil || rec.Version != 1 || !strings.Contains(string(rec.Value), "periods") {
		t.Fatalf("unexpected record %+v err=%v", rec, err)
	}
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, _ := New(t.TempDir())
	if _, err := s.Put(context.Background(), "../escape", []byte("{}"), 0); err == nil {
		t.Fatal("expected error for key with path separator")
	}
}
