// Package ledger owns the period-keyed store: the canonical data model, its
// migration from older layouts, and every mutation that must keep the model
// consistent.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"denaro/internal/core"
	"denaro/internal/log"
	"denaro/internal/storage"
)

// DefaultKey is the backend key the whole store is persisted under.
const DefaultKey = "denaro_store"

// Options configures a Store. Backend is required.
type Options struct {
	Backend  storage.KV
	Key      string
	IDs      core.IDGenerator
	Clock    core.Clock
	Location *time.Location
	Logger   *log.Logger
}

// LoadReport describes what Load found and changed.
type LoadReport struct {
	Found     bool            `json:"found"`
	Fallback  bool            `json:"fallback"`
	Migration MigrationReport `json:"migration"`
	Drift     []Drift         `json:"drift,omitempty"`
	Persisted bool            `json:"persisted"`
}

// Store is the single owner of a Root. All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	kv      storage.KV
	key     string
	ids     core.IDGenerator
	clock   core.Clock
	loc     *time.Location
	logger  *log.Logger
	root    core.Root
	version int64
	rev     uint64
	last    LoadReport
}

// New returns a store holding a default root. Call Load to read the backend.
func New(opts Options) (*Store, error) {
	if opts.Backend == nil {
		return nil, errors.New("ledger: backend is required")
	}
	s := &Store{
		kv:     opts.Backend,
		key:    opts.Key,
		ids:    opts.IDs,
		clock:  opts.Clock,
		loc:    opts.Location,
		logger: opts.Logger,
		root:   core.NewRoot(),
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.ids == nil {
		s.ids = core.UUIDGenerator{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.clock == nil {
		s.clock = core.SystemClock{Location: s.loc}
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	return s, nil
}

// Open creates a store and loads it. A *core.PersistenceError comes back with
// a usable store; any other error means no store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		if core.IsPersistence(err) {
			return s, err
		}
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory root with the persisted one, migrating and
// reconciling it. Unreadable or corrupt data degrades to a default root.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Reload discards in-memory state and reads the backend again.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Store) load(ctx context.Context) error {
	s.rev++
	report := LoadReport{}
	rec, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.root = core.NewRoot()
		s.version = 0
		s.last = report
		return nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Store unreadable, continuing with defaults",
			log.FieldStoreKey, s.key, log.FieldError, err)
		s.root = core.NewRoot()
		s.version = 0
		report.Fallback = true
		s.last = report
		return &core.PersistenceError{Op: log.OpRead, Err: err}
	}
	report.Found = true
	s.version = rec.Version

	root, mr, err := Migrate(rec.Value, s.ids, s.loc)
	if err != nil {
		s.logger.ErrorContext(ctx, "Persisted store is corrupt, falling back to defaults; previous data will be overwritten on next save",
			log.FieldStoreKey, s.key, log.FieldVersion, rec.Version, log.FieldError, err)
		s.root = core.NewRoot()
		report.Fallback = true
		s.last = report
		return nil
	}
	s.root = root
	report.Migration = mr
	report.Drift = reconcile(&s.root, true)
	for _, d := range report.Drift {
		s.logger.WarnContext(ctx, "Income total drifted, corrected",
			log.FieldPeriod, d.Period, "recorded", d.Recorded.String(), "actual", d.Actual.String())
	}
	if mr.Legacy {
		s.logger.InfoContext(ctx, "Migrated legacy store layout",
			"periods", mr.PeriodsMoved, "skipped", len(mr.Skipped))
	}
	if len(mr.Quarantined) > 0 {
		s.logger.WarnContext(ctx, "Unreadable values kept in quarantine",
			log.FieldStoreKey, s.key, "paths", mr.Quarantined)
	}

	if mr.Changed() || len(report.Drift) > 0 {
		if err := s.persist(ctx, log.OpMigrate); err != nil {
			s.last = report
			return err
		}
		report.Persisted = true
	}
	s.last = report
	return nil
}

// LastLoad returns the report of the most recent Load.
func (s *Store) LastLoad() LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Save writes the whole root to the backend.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, log.OpSave)
}

// Version is the backend version the in-memory root was last read or written at.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Revision counts in-memory changes, including ones that failed to persist.
// It only ever grows and is suitable for keying derived values.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// Location is the time zone used for calendar dates.
func (s *Store) Location() *time.Location { return s.loc }

// Clock is the store's time source.
func (s *Store) Clock() core.Clock { return s.clock }

// Snapshot returns a deep copy of the whole root.
func (s *Store) Snapshot() core.Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Clone()
}

// persist must be called with mu held. The in-memory root is kept whatever
// the outcome.
func (s *Store) persist(ctx context.Context, op string) error {
	s.rev++
	b, err := json.Marshal(s.root)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode store", log.FieldOperation, op, log.FieldError, err)
		return &core.PersistenceError{Op: op, Err: fmt.Errorf("encode: %w", err)}
	}
	v, err := s.kv.Put(ctx, s.key, b, s.version)
	if err != nil {
		msg := "Failed to persist store"
		if errors.Is(err, core.ErrVersionConflict) {
			msg = "Store changed by another writer, reload required"
		}
		s.logger.ErrorContext(ctx, msg,
			log.FieldOperation, op, log.FieldStoreKey, s.key, log.FieldVersion, s.version, log.FieldError, err)
		return &core.PersistenceError{Op: op, Err: err}
	}
	s.version = v
	s.logger.DebugContext(ctx, "Store persisted", log.FieldOperation, op, log.FieldVersion, v)
	return nil
}

func (s *Store) today() string {
	return s.clock.Now().In(s.loc).Format(core.DateLayout)
}

func sortedKeys(m map[string]*core.Ledger) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
