package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"denaro/internal/core"
	"denaro/internal/storage"
	"denaro/internal/storage/memory"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

var testNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, kv storage.KV) *Store {
	t.Helper()
	if kv == nil {
		kv = memory.New()
	}
	s, err := Open(context.Background(), Options{
		Backend:  kv,
		IDs:      &seqIDs{},
		Clock:    core.FixedClock{T: testNow},
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// failingKV accepts reads and rejects every write.
type failingKV struct{ storage.KV }

func (failingKV) Put(context.Context, string, []byte, int64) (int64, error) {
	return 0, errors.New("quota exceeded")
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertInvariant(t *testing.T, l core.Ledger) {
	t.Helper()
	if !l.Added.Equal(l.IncomeSum()) {
		t.Fatalf("added=%s but income sums to %s", l.Added, l.IncomeSum())
	}
}

func sameJSON(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ja) == string(jb)
}
