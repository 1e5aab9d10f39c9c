package words

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"semantra.io/internal/game"
)

// SQLite reads the word set from a words table, typically seeded by
// `admin words seed`.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty words db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// EnsureSchema creates the words table. Shared with the admin seeder.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS words (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		definition TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		z REAL NOT NULL
	);`)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) WordSet(ctx context.Context) ([]game.Word, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, definition, x, y, z FROM words ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var out []game.Word
	for rows.Next() {
		var w game.Word
		if err := rows.Scan(&w.ID, &w.Label, &w.Definition, &w.Pos.X, &w.Pos.Y, &w.Pos.Z); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Seed replaces the stored word set with the given one.
func Seed(db *sql.DB, set []game.Word) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM words`); err != nil {
		return err
	}
	for _, w := range set {
		if _, err := tx.Exec(`INSERT INTO words(id,label,definition,x,y,z) VALUES(?,?,?,?,?,?)`,
			w.ID, w.Label, w.Definition, w.Pos.X, w.Pos.Y, w.Pos.Z); err != nil {
			return fmt.Errorf("insert word %s: %w", w.ID, err)
		}
	}
	return tx.Commit()
}
