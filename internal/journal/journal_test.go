package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"semantra.io/internal/protocol"
)

func readBack(t *testing.T, dir string) []Entry {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "actions-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("journal files: %v (err %v)", matches, err)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var entries []Entry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad journal line %q: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return entries
}

func TestRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, log.New(io.Discard, "", 0))

	events := []protocol.Event{{
		Type:            protocol.TypePlayerReady,
		ProtocolVersion: protocol.Version,
		Session:         "ROOM01",
		At:              time.Now().UTC(),
	}}
	w.Record("ready", "ROOM01", 4, events)
	w.Record("guess", "ROOM01", 5, nil)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries := readBack(t, dir)
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Action != "ready" || entries[0].Version != 4 || len(entries[0].Events) != 1 {
		t.Fatalf("first entry: %+v", entries[0])
	}
	if entries[0].Events[0].Type != protocol.TypePlayerReady {
		t.Fatalf("event type: %s", entries[0].Events[0].Type)
	}
	if entries[1].Action != "guess" || entries[1].Session != "ROOM01" {
		t.Fatalf("second entry: %+v", entries[1])
	}
}

func TestWriteFailureLogsNotPanics(t *testing.T) {
	var buf bytes.Buffer
	// A file path in place of the directory makes rotation fail.
	dir := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWriter(filepath.Join(dir, "sub"), log.New(&buf, "", 0))
	w.Record("ready", "ROOM01", 1, nil)
	if buf.Len() == 0 {
		t.Fatal("write failure was not logged")
	}
}
