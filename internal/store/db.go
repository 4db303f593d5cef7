// Package store owns the embedded graph database: schema, identity, batched
// writes, transactional updates, and the indexes that make the graph
// queryable without full scans.
//
// The database is single-writer, guarded by a PID lock file next to the
// database. Two interchangeable backends exist: the native cgo SQLite driver
// and the portable pure-Go one.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// DBFileName is the database file inside the project's hidden directory.
const DBFileName = "graph.db"

// Store manages the graph database.
type Store struct {
	db      *sql.DB
	backend Backend
	path    string
	lock    *Lock

	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

// Options configures Open.
type Options struct {
	// Backend selects the SQLite engine; nil picks DefaultBackend().
	Backend Backend
	// ReadOnly skips lock acquisition. Readers open the database
	// independently of the single writer.
	ReadOnly bool
}

// Open opens or creates the graph database inside dir (the project's hidden
// directory, usually <root>/.codegraph). Writers take the PID lock; a live
// lock owner makes Open fail with a LockHeldError.
func Open(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &DatabaseError{Op: "create database directory", Err: err}
	}

	backend := opts.Backend
	if backend == nil {
		backend = DefaultBackend()
	}

	var lock *Lock
	if !opts.ReadOnly {
		l, err := AcquireLock(dir)
		if err != nil {
			return nil, err
		}
		lock = l
	}

	dbPath := filepath.Join(dir, DBFileName)
	db, err := sql.Open(backend.DriverName(), backend.DSN(dbPath))
	if err != nil {
		if lock != nil {
			lock.Release()
		}
		return nil, &DatabaseError{Op: "open database", Err: err}
	}

	// SQLite serializes writers per connection; one connection keeps the
	// single-writer model honest inside the process too.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:      db,
		backend: backend,
		path:    dbPath,
		lock:    lock,
		stmts:   make(map[string]*sql.Stmt),
	}

	for _, pragma := range backend.Pragmas() {
		if _, err := db.Exec(pragma); err != nil {
			s.Close()
			return nil, &DatabaseError{Op: "apply pragma", Err: fmt.Errorf("%s: %w", pragma, err)}
		}
	}

	if err := s.initSchema(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// Close finalizes every prepared statement, closes the database, and
// releases the lock. Statements must be finalized first or the portable
// engine keeps the file lock alive.
func (s *Store) Close() error {
	s.mu.Lock()
	for key, stmt := range s.stmts {
		stmt.Close()
		delete(s.stmts, key)
	}
	s.mu.Unlock()

	var err error
	if s.db != nil {
		err = s.db.Close()
		s.db = nil
	}
	if s.lock != nil {
		s.lock.Release()
		s.lock = nil
	}
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Backend returns the active backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// prepared returns a cached prepared statement for the query, preparing it
// on first use. The query is rewritten for the backend before preparation.
func (s *Store) prepared(query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := s.db.Prepare(s.backend.Rewrite(query))
	if err != nil {
		return nil, &DatabaseError{Op: "prepare statement", Err: err}
	}
	s.stmts[query] = stmt
	return stmt, nil
}

// execNamed executes a query written with :name binds, letting the backend
// translate them.
func (s *Store) execNamed(op, query string, args map[string]any) error {
	stmt, err := s.prepared(query)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(s.backend.RewriteArgs(query, args)...); err != nil {
		return &DatabaseError{Op: op, Err: err}
	}
	return nil
}

// Tx groups store writes into one transaction.
type Tx struct {
	tx      *sql.Tx
	backend Backend
}

// Transaction runs fn atomically: if fn returns an error the transaction
// rolls back and nothing took effect.
func (s *Store) Transaction(fn func(tx *Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &DatabaseError{Op: "begin transaction", Err: err}
	}
	if err := fn(&Tx{tx: tx, backend: s.backend}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &DatabaseError{Op: "commit transaction", Err: err}
	}
	return nil
}

// GetMeta reads a key from the meta table; missing keys return "".
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow(s.backend.Rewrite(`SELECT value FROM meta WHERE key = ?`), key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", &DatabaseError{Op: "get meta", Err: err}
	}
	return value, nil
}

// SetMeta writes a key to the meta table.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(s.backend.Rewrite(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`), key, value)
	if err != nil {
		return &DatabaseError{Op: "set meta", Err: err}
	}
	return nil
}

// timeString formats timestamps the way they are stored.
func timeString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime reads a stored timestamp, tolerating empty values.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
