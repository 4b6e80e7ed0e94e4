// Package store is the data access layer for stash: the item tables, the
// synchronized FTS5 search index, tags, and url metadata.
//
// Missing rows are reported as (nil, nil); the service layer maps those to
// its not-found error. All write paths that touch more than one table run
// in a single transaction, and the FTS5 triggers ride along, so a reader
// never observes the items table and the search index disagreeing.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Store wraps the stash database.
type Store struct {
	DB        *sql.DB
	markStart string
	markEnd   string
}

// Option customises a Store.
type Option func(*Store)

// WithHighlightMarkers sets the snippet marker pair. Default: <mark>…</mark>.
func WithHighlightMarkers(start, end string) Option {
	return func(s *Store) {
		s.markStart = start
		s.markEnd = end
	}
}

// NewStore creates a Store from an already-opened database.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{DB: db, markStart: "<mark>", markEnd: "</mark>"}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open opens the stash database at path, applies the production pragmas
// (WAL, foreign keys, busy timeout) and the schema, and returns a Store.
// Parent directories are created as needed.
func Open(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	// Pragmas ride the DSN so they apply to every pooled connection; a
	// db.Exec would only configure whichever connection it happened to grab,
	// leaving FK enforcement off everywhere else.
	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(10000)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return NewStore(db, opts...), nil
}

// OpenMemory opens an in-memory store for tests. MaxOpenConns(1) keeps all
// queries on the same connection (each :memory: connection is a separate
// database). Closed automatically via t.Cleanup.
func OpenMemory(t testing.TB, opts ...Option) *Store {
	t.Helper()
	s, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	s.DB.SetMaxOpenConns(1)
	t.Cleanup(func() { s.DB.Close() })
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}
