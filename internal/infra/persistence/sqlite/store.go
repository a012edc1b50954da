// Package sqlite keeps the in-memory Entity Store durable in a SQLite file.
// After each commit only the buckets the transaction touched are rewritten.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"registrar/internal/infra/persistence/memory"
	"registrar/internal/infra/persistence/snapshot"
	"registrar/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "registrar.db"

// Store is a memory.Store whose committed state survives restarts.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the store
// from it.
func NewStore(path string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; modernc serialises access per connection.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := snapshot.EnsureTable(ctx, db, snapshot.SQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	snap, found, err := snapshot.Load(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore(engine, opts...)
	if found {
		mem.ImportState(snap)
	}
	return &Store{Store: mem, db: db, path: path}, nil
}

// RunInTransaction commits fn in memory, then writes the touched buckets to
// SQLite. Unlike a failed fn or a blocking rule, a failed snapshot write does
// not undo anything: the error is returned while the in-memory commit stays
// visible, and the next successful commit rewrites the buckets it touches.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, changes, err := s.RunInTransactionWithChanges(ctx, fn)
	if err != nil {
		return res, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := snapshot.Save(ctx, s.db, snapshot.SQLite, s.ExportState(), snapshot.TouchedBuckets(changes)); err != nil {
		return res, fmt.Errorf("persist sqlite snapshot: %w", err)
	}
	return res, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }
