// Package sqlite is the durable session store. One row per room code holding
// the whole session document; the version column carries the
// compare-and-commit token.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"semantra.io/internal/game"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			code TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			doc TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (st *Store) Close() error {
	return st.db.Close()
}

func (st *Store) Create(ctx context.Context, s *game.Session) error {
	s.Version = 1
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = st.db.ExecContext(ctx,
		`INSERT INTO sessions(code, version, doc, updated_at) VALUES(?,?,?,?)`,
		s.Code, s.Version, string(doc), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create %s: %w", s.Code, game.ErrExists)
		}
		return fmt.Errorf("create %s: %w", s.Code, err)
	}
	return nil
}

func (st *Store) Load(ctx context.Context, code string) (*game.Session, error) {
	var (
		version int64
		doc     string
	)
	row := st.db.QueryRowContext(ctx, `SELECT version, doc FROM sessions WHERE code=?`, code)
	if err := row.Scan(&version, &doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("load %s: %w", code, game.ErrNotFound)
		}
		return nil, fmt.Errorf("load %s: %w", code, err)
	}
	var s game.Session
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", code, err)
	}
	s.Version = version
	return &s, nil
}

// Commit is the serialization point for all session mutation. The version
// guard in the WHERE clause is what makes concurrent writers lose cleanly
// instead of overwriting each other.
func (st *Store) Commit(ctx context.Context, s *game.Session, expectedVersion int64) error {
	next := expectedVersion + 1
	doc, err := marshalAt(s, next)
	if err != nil {
		return err
	}
	res, err := st.db.ExecContext(ctx,
		`UPDATE sessions SET version=?, doc=?, updated_at=? WHERE code=? AND version=?`,
		next, doc, time.Now().UTC().Format(time.RFC3339Nano), s.Code, expectedVersion)
	if err != nil {
		return fmt.Errorf("commit %s: %w", s.Code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("commit %s: %w", s.Code, err)
	}
	if n == 0 {
		// Either the row vanished or someone committed first.
		var exists int
		row := st.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE code=?`, s.Code)
		if scanErr := row.Scan(&exists); scanErr == sql.ErrNoRows {
			return fmt.Errorf("commit %s: %w", s.Code, game.ErrNotFound)
		}
		return fmt.Errorf("commit %s: expected v%d: %w", s.Code, expectedVersion, game.ErrVersionConflict)
	}
	s.Version = next
	return nil
}

func (st *Store) Delete(ctx context.Context, code string) error {
	res, err := st.db.ExecContext(ctx, `DELETE FROM sessions WHERE code=?`, code)
	if err != nil {
		return fmt.Errorf("delete %s: %w", code, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s: %w", code, game.ErrNotFound)
	}
	return nil
}

func marshalAt(s *game.Session, version int64) (string, error) {
	old := s.Version
	s.Version = version
	doc, err := json.Marshal(s)
	s.Version = old
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	return string(doc), nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint failures in the message; the
	// driver does not export a typed error for them.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
