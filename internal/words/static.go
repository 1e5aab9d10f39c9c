package words

import (
	"context"

	"semantra.io/internal/game"
)

// Static serves a fixed in-memory word set. Used by tests and by servers
// pointed at a yaml file instead of a database.
type Static struct {
	Set []game.Word
}

func NewStaticFromFile(path string) (*Static, error) {
	set, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &Static{Set: set}, nil
}

func (s *Static) WordSet(ctx context.Context) ([]game.Word, error) {
	out := make([]game.Word, len(s.Set))
	copy(out, s.Set)
	return out, nil
}
