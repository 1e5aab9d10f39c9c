// Package journal appends one compressed JSONL record per committed action.
// The journal is an operator tool (replay, debugging), not the source of
// truth; writes are best-effort and never fail an action.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"semantra.io/internal/protocol"
)

// Entry is one journal line.
type Entry struct {
	Time    time.Time        `json:"time"`
	Session string           `json:"session"`
	Action  string           `json:"action"`
	Version int64            `json:"version"`
	Events  []protocol.Event `json:"events,omitempty"`
}

// Writer rotates hourly zstd-compressed JSONL files under baseDir.
type Writer struct {
	baseDir string
	prefix  string
	log     *log.Logger

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(baseDir string, logger *log.Logger) *Writer {
	return &Writer{baseDir: baseDir, prefix: "actions", log: logger}
}

// Record satisfies game.Recorder.
func (w *Writer) Record(action, code string, version int64, events []protocol.Event) {
	entry := Entry{
		Time:    time.Now().UTC(),
		Session: code,
		Action:  action,
		Version: version,
		Events:  events,
	}
	if err := w.write(entry); err != nil {
		w.log.Printf("journal: %v", err)
	}
}

func (w *Writer) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}
