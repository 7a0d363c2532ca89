package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/sirupsen/logrus"

	"github.com/zappabad/papertrade/internal/session"
)

// ErrUnavailable marks store failures. Callers treat it as advisory: the
// session keeps running in memory when the store is unreachable.
var ErrUnavailable = errors.New("persistence_unavailable")

// stateKey is the fixed key the session document lives under.
const stateKey = "session-v1"

// Store keeps the session document as a JSON value in a single-row SQLite
// KV table.
type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session table: %w", err)
	}

	return &Store{
		db:  db,
		log: logrus.WithField("component", "store"),
	}, nil
}

// Load reads the stored session document. A missing row reports ok=false; a
// row that no longer parses is dropped and likewise reports ok=false, so the
// caller falls back to the default session.
func (s *Store) Load(ctx context.Context) (session.State, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM session WHERE key = ?", stateKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return session.State{}, false, nil
	}
	if err != nil {
		return session.State{}, false, fmt.Errorf("%w: load: %v", ErrUnavailable, err)
	}

	var st session.State
	if err := json.Unmarshal([]byte(value), &st); err != nil {
		s.log.WithError(err).Warn("stored session unparsable, starting fresh")
		return session.State{}, false, nil
	}
	return st, true, nil
}

// Save writes the session document, replacing any previous one.
func (s *Store) Save(ctx context.Context, st session.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrUnavailable, err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO session (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		stateKey, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: save: %v", ErrUnavailable, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
