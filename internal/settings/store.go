// Package settings persists user settings in a local SQLite database.
// Values are JSON encoded and kept in memory; Set only changes the memory
// copy and Flush writes changed keys to disk.
package settings

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

var (
	// ErrStoreClosed is returned when the store is used after Close.
	ErrStoreClosed = errors.New("settings store is closed")
	// ErrInvalidValue is returned when a stored value cannot be decoded into the target.
	ErrInvalidValue = errors.New("invalid settings value")
)

const schema = `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)
`

// Store is a key-value settings store backed by SQLite.
// It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	values map[string]string
	dirty  map[string]struct{}
	logger *zap.Logger
}

// Open opens or creates the settings database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	// Open database
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite|sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	// Create table
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	store := &Store{
		conn:   conn,
		values: make(map[string]string),
		dirty:  make(map[string]struct{}),
		logger: logger.Named("settings"),
	}

	// Load existing values
	err = sqlitex.ExecuteTransient(conn, "SELECT key, value FROM settings", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			store.values[stmt.ColumnText(0)] = stmt.ColumnText(1)
			return nil
		},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	store.logger.Debug("Loaded settings",
		zap.String("path", path),
		zap.Int("keys", len(store.values)))

	return store, nil
}

// Get decodes the value stored under key into target.
// Returns false without touching target when the key is not set.
func (s *Store) Get(key string, target any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}

	if err := sonic.UnmarshalString(raw, target); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}

	return true, nil
}

// Set stores a value under key. The change is persisted by the next Flush.
func (s *Store) Set(key string, value any) error {
	raw, err := sonic.MarshalString(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrStoreClosed
	}

	if current, ok := s.values[key]; ok && current == raw {
		return nil
	}

	s.values[key] = raw
	s.dirty[key] = struct{}{}

	return nil
}

// Keys returns all keys that hold a value, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Sorted(maps.Keys(s.values))
}

// Flush writes every changed key in a single transaction.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if s.conn == nil {
		return ErrStoreClosed
	}
	if len(s.dirty) == 0 {
		return nil
	}

	if err := s.writeDirty(); err != nil {
		return err
	}

	s.logger.Debug("Flushed settings", zap.Int("keys", len(s.dirty)))
	clear(s.dirty)

	return nil
}

// writeDirty upserts the changed keys in one transaction.
func (s *Store) writeDirty() (err error) {
	endFn := sqlitex.Transaction(s.conn)
	defer endFn(&err)

	now := time.Now().Unix()
	for key := range s.dirty {
		err = sqlitex.Execute(s.conn, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, &sqlitex.ExecOptions{
			Args: []any{key, s.values[key], now},
		})
		if err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	return nil
}

// Close flushes pending changes and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	flushErr := s.flushLocked()
	closeErr := s.conn.Close()
	s.conn = nil

	return errors.Join(flushErr, closeErr)
}
