// Package store is the client's local SQLite state: a small key/value
// table mirroring the original client-storage (the persisted "user"
// session snapshot lives there) and an audit log of mutating operations.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"alsun-go/internal/academy"
	"alsun-go/internal/model"
	"alsun-go/internal/sealing"
	"alsun-go/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// sessionKey is the client_storage key holding the active session.
const sessionKey = "user"

// Store wraps the SQLite state database. It implements
// academy.SessionStore.
type Store struct {
	db     *sql.DB
	sealer sealing.Sealer
	path   string
}

var _ academy.SessionStore = (*Store)(nil)

// Open opens (creating if needed) the state database at path and runs
// pending migrations. path can be ":memory:" for tests.
func Open(path string, sealer sealing.Sealer) (*Store, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating state database: %w", err)
	}

	if sealer == nil {
		sealer = sealing.Plain{}
	}
	return &Store{db: db, sealer: sealer, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the store relies on. Exported for tools and tests.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite disables foreign keys by default for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key/value storage

// Set stores value under key, replacing any existing value.
func (s *Store) Set(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO client_storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key, with ok=false when absent.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM client_storage WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

// Delete removes the value stored under key. Missing keys are a no-op.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM client_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Session persistence (academy.SessionStore)

// SaveSession seals and stores the user snapshot under the session key.
func (s *Store) SaveSession(user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	sealed, err := s.sealer.Seal(data)
	if err != nil {
		return fmt.Errorf("sealing session: %w", err)
	}
	return s.Set(sessionKey, sealed)
}

// LoadSession returns the persisted session snapshot, if any.
func (s *Store) LoadSession() (model.User, bool, error) {
	sealed, ok, err := s.Get(sessionKey)
	if err != nil || !ok {
		return model.User{}, false, err
	}

	data, err := s.sealer.Open(sealed)
	if err != nil {
		return model.User{}, false, fmt.Errorf("unsealing session: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return model.User{}, false, fmt.Errorf("decoding session: %w", err)
	}
	return user, true, nil
}

// ClearSession removes the persisted session snapshot.
func (s *Store) ClearSession() error {
	return s.Delete(sessionKey)
}

// Operation audit log

// Operation is one recorded client operation.
type Operation struct {
	ID         string
	Operation  string
	Parameters string
	Status     string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// CreateOperation records the start of a mutating operation.
func (s *Store) CreateOperation(id, operation, parameters string, startedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO operations (id, operation, parameters, status, started_at) VALUES (?, ?, ?, 'running', ?)`,
		id, operation, parameters, startedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	return nil
}

// FinishOperation records an operation's outcome.
func (s *Store) FinishOperation(id, status string, finishedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE operations SET status = ?, finished_at = ? WHERE id = ?`,
		status, finishedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no operation with id %s", id)
	}
	return nil
}

// RecentOperations returns the most recent operations, newest first.
func (s *Store) RecentOperations(limit int) ([]Operation, error) {
	rows, err := s.db.Query(
		`SELECT id, operation, parameters, status, started_at, finished_at
		 FROM operations ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		var op Operation
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.Status, &op.StartedAt, &op.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}
