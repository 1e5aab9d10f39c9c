package words

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"semantra.io/internal/game"
)

const fixtureYAML = `words:
  - id: w_gravity
    label: gravity
    definition: keeps moons on a leash
    pos: [1.0, 2.0, 3.0]
  - id: w_echo
    label: echo
    definition: answers with your words
    pos: [-4.0, 0.5, 9.0]
`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	set, err := LoadFile(writeFixture(t, fixtureYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("len = %d", len(set))
	}
	w := set[0]
	if w.ID != "w_gravity" || w.Label != "gravity" || w.Definition == "" {
		t.Fatalf("entry: %+v", w)
	}
	if w.Pos != (game.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("pos: %+v", w.Pos)
	}
}

func TestLoadFileRejectsMissingID(t *testing.T) {
	_, err := LoadFile(writeFixture(t, "words:\n  - label: orphan\n"))
	if err == nil {
		t.Fatal("entry without id accepted")
	}
}

func TestStaticCopies(t *testing.T) {
	src := &Static{Set: []game.Word{{ID: "w1", Label: "tide"}}}
	got, err := src.WordSet(context.Background())
	if err != nil {
		t.Fatalf("word set: %v", err)
	}
	got[0].Label = "mutated"
	if src.Set[0].Label != "tide" {
		t.Fatal("WordSet returned the backing slice")
	}
}

func TestSQLiteSeedAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.db")
	src, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	set := []game.Word{
		{ID: "w_tide", Label: "tide", Definition: "the sea breathing", Pos: game.Vec3{X: 7}},
		{ID: "w_anchor", Label: "anchor", Definition: "holds you in place"},
	}
	if err := Seed(src.db, set); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := src.WordSet(context.Background())
	if err != nil {
		t.Fatalf("word set: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	// Ordered by id.
	if got[0].ID != "w_anchor" || got[1].ID != "w_tide" {
		t.Fatalf("order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[1].Pos.X != 7 {
		t.Fatalf("pos lost: %+v", got[1].Pos)
	}

	// Reseeding replaces, not appends.
	if err := Seed(src.db, set[:1]); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	got, err = src.WordSet(context.Background())
	if err != nil {
		t.Fatalf("word set: %v", err)
	}
	if len(got) != 1 || got[0].ID != "w_tide" {
		t.Fatalf("after reseed: %+v", got)
	}
}
