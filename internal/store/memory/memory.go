// Package memory backs the session store with an in-process map. Documents
// are kept serialized so every Load hands back an independent copy, matching
// the stateless-per-request model the durable store enforces for real.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"semantra.io/internal/game"
)

type record struct {
	version int64
	doc     []byte
}

type Store struct {
	mu   sync.Mutex
	docs map[string]record
}

func New() *Store {
	return &Store{docs: make(map[string]record)}
}

func (m *Store) Create(ctx context.Context, s *game.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[s.Code]; ok {
		return fmt.Errorf("create %s: %w", s.Code, game.ErrExists)
	}
	s.Version = 1
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	m.docs[s.Code] = record{version: 1, doc: doc}
	return nil
}

func (m *Store) Load(ctx context.Context, code string) (*game.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	rec, ok := m.docs[code]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("load %s: %w", code, game.ErrNotFound)
	}
	var s game.Session
	if err := json.Unmarshal(rec.doc, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", code, err)
	}
	s.Version = rec.version
	return &s, nil
}

func (m *Store) Commit(ctx context.Context, s *game.Session, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.docs[s.Code]
	if !ok {
		return fmt.Errorf("commit %s: %w", s.Code, game.ErrNotFound)
	}
	if rec.version != expectedVersion {
		return fmt.Errorf("commit %s: have v%d want v%d: %w", s.Code, rec.version, expectedVersion, game.ErrVersionConflict)
	}
	s.Version = expectedVersion + 1
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	m.docs[s.Code] = record{version: s.Version, doc: doc}
	return nil
}

func (m *Store) Delete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[code]; !ok {
		return fmt.Errorf("delete %s: %w", code, game.ErrNotFound)
	}
	delete(m.docs, code)
	return nil
}
