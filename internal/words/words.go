// Package words supplies the candidate pool: word labels, their definitions,
// and their positions in the embedding space. The game snapshots the pool
// into the session at start, so sources are read-only lookups.
package words

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"semantra.io/internal/game"
)

type fileSet struct {
	Words []fileEntry `yaml:"words"`
}

type fileEntry struct {
	ID         string     `yaml:"id"`
	Label      string     `yaml:"label"`
	Definition string     `yaml:"definition"`
	Pos        [3]float64 `yaml:"pos"`
}

// LoadFile reads a yaml word set (dev and test fixture format).
func LoadFile(path string) ([]game.Word, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set fileSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("words yaml: %w", err)
	}
	out := make([]game.Word, 0, len(set.Words))
	for i, w := range set.Words {
		if w.ID == "" || w.Label == "" {
			return nil, fmt.Errorf("words yaml: entry %d missing id or label", i)
		}
		out = append(out, game.Word{
			ID:         w.ID,
			Label:      w.Label,
			Definition: w.Definition,
			Pos:        game.Vec3{X: w.Pos[0], Y: w.Pos[1], Z: w.Pos[2]},
		})
	}
	return out, nil
}
