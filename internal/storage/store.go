// Package storage provides Meridian's SQLite-backed persistence layer: a
// small key-value state table and a generic per-kind document table that
// internal/episode, internal/learning, and internal/consolidate all
// persist through.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	meridianerrors "github.com/meridian-mem/meridian/internal/errors"
)

// Store wraps a SQLite database holding Meridian's state and document
// tables. A single Store is safe for concurrent use from one process;
// cross-process access is serialized with a FileLock acquired at Open.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	lock   *FileLock
	path   string
	closed bool
}

// Open opens (creating if necessary) the SQLite database at path. An empty
// path opens an in-memory database, used for tests and the "memory"
// storage backend. File-backed stores acquire an exclusive FileLock on the
// containing directory for the lifetime of the Store.
func Open(path string, cacheMB int) (*Store, error) {
	var dsn string
	var fileLock *FileLock

	if path == "" || path == ":memory:" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, meridianerrors.Storage("failed to create storage directory", err)
		}

		if err := validateIntegrity(path); err != nil {
			slog.Warn("meridian_store_corrupted",
				slog.String("path", path), slog.String("error", err.Error()))
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, meridianerrors.Storage(fmt.Sprintf("corrupted store at %s and cannot remove", path), removeErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			slog.Info("meridian_store_cleared", slog.String("path", path), slog.String("reason", "corruption detected"))
		}

		fileLock = NewFileLock(dir)
		if err := fileLock.Lock(); err != nil {
			return nil, meridianerrors.Storage("failed to acquire store lock", err)
		}

		dsn = path
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		if fileLock != nil {
			_ = fileLock.Unlock()
		}
		return nil, meridianerrors.Storage("failed to open database", err)
	}

	// Single writer avoids SQLITE_BUSY under WAL with concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if cacheMB <= 0 {
		cacheMB = 64
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA cache_size = -%d", cacheMB*1024),
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			if fileLock != nil {
				_ = fileLock.Unlock()
			}
			return nil, meridianerrors.Storage("failed to set pragma", err)
		}
	}

	s := &Store{db: db, lock: fileLock, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		if fileLock != nil {
			_ = fileLock.Unlock()
		}
		return nil, meridianerrors.Storage("failed to initialize schema", err)
	}

	return s, nil
}

// validateIntegrity checks an existing database file for corruption before
// it is opened for real. A missing file is not an error.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open(driverName, path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);
	INSERT OR IGNORE INTO schema_version (version) VALUES (1);

	CREATE TABLE IF NOT EXISTS kv_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		kind       TEXT NOT NULL,
		id         TEXT NOT NULL,
		data       BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (kind, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_kind ON documents(kind);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle and any held file lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// GetState reads a single key from the state table.
func (s *Store) GetState(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, meridianerrors.Storage("get state", err)
	}
	return value, true, nil
}

// SetState upserts a key in the state table.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return meridianerrors.Storage("set state", err)
	}
	return nil
}

// DeleteState removes a key from the state table. Deleting a missing key
// is not an error.
func (s *Store) DeleteState(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_state WHERE key = ?", key); err != nil {
		return meridianerrors.Storage("delete state", err)
	}
	return nil
}

// PutDocument upserts a JSON (or gob) blob under (kind, id).
func (s *Store) PutDocument(ctx context.Context, kind, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (kind, id, data, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(kind, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`, kind, id, data)
	if err != nil {
		return meridianerrors.Storage(fmt.Sprintf("put document %s/%s", kind, id), err)
	}
	return nil
}

// GetDocument retrieves a document's raw bytes. The bool is false if no
// document exists under (kind, id).
func (s *Store) GetDocument(ctx context.Context, kind, id string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE kind = ? AND id = ?", kind, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, meridianerrors.Storage(fmt.Sprintf("get document %s/%s", kind, id), err)
	}
	return data, true, nil
}

// ListDocuments returns every document under kind, keyed by id.
func (s *Store) ListDocuments(ctx context.Context, kind string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, data FROM documents WHERE kind = ?", kind)
	if err != nil {
		return nil, meridianerrors.Storage(fmt.Sprintf("list documents %s", kind), err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, meridianerrors.Storage(fmt.Sprintf("scan document %s", kind), err)
		}
		result[id] = data
	}
	return result, rows.Err()
}

// DeleteDocument removes a document. Deleting a missing document is not an
// error.
func (s *Store) DeleteDocument(ctx context.Context, kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE kind = ? AND id = ?", kind, id); err != nil {
		return meridianerrors.Storage(fmt.Sprintf("delete document %s/%s", kind, id), err)
	}
	return nil
}

// CountDocuments returns the number of documents stored under kind.
func (s *Store) CountDocuments(ctx context.Context, kind string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE kind = ?", kind).Scan(&n); err != nil {
		return 0, meridianerrors.Storage(fmt.Sprintf("count documents %s", kind), err)
	}
	return n, nil
}
