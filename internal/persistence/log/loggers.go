package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"botarena.ai/internal/sim/match"
)

// JSONLZstdWriter appends JSON lines to a single zstd-compressed file. The
// file is created on the first write.
type JSONLZstdWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewJSONLZstdWriter(path string) *JSONLZstdWriter {
	return &JSONLZstdWriter{path: path}
}

func (w *JSONLZstdWriter) Path() string { return w.path }

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		if err := w.openLocked(); err != nil {
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

func (w *JSONLZstdWriter) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
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
	w.w = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
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

// TurnsPath is where a match's turn log lives under dataDir.
func TurnsPath(dataDir, matchID string) string {
	return filepath.Join(dataDir, matchID, "turns.jsonl.zst")
}

// NarrativePath is where a match's human-readable log lives under dataDir.
func NarrativePath(dataDir, matchID string) string {
	return filepath.Join(dataDir, matchID, "narrative.jsonl.zst")
}

// TurnLogger writes one JSONL entry per turn (compressed).
type TurnLogger struct{ w *JSONLZstdWriter }

func NewTurnLogger(dataDir, matchID string) *TurnLogger {
	return &TurnLogger{w: NewJSONLZstdWriter(TurnsPath(dataDir, matchID))}
}

func (l *TurnLogger) WriteTurn(v match.TurnLogEntry) error { return l.w.Write(v) }
func (l *TurnLogger) Close() error                         { return l.w.Close() }

// NarrativeLine is one line of the arena's running commentary.
type NarrativeLine struct {
	Time string `json:"time"`
	Line string `json:"line"`
}

// NarrativeLogger persists the lines the match would otherwise print.
type NarrativeLogger struct{ w *JSONLZstdWriter }

func NewNarrativeLogger(dataDir, matchID string) *NarrativeLogger {
	return &NarrativeLogger{w: NewJSONLZstdWriter(NarrativePath(dataDir, matchID))}
}

// Line matches the controller's logger signature. Write errors are dropped.
func (l *NarrativeLogger) Line(s string) {
	_ = l.w.Write(NarrativeLine{Time: time.Now().UTC().Format(time.RFC3339Nano), Line: s})
}

func (l *NarrativeLogger) Close() error { return l.w.Close() }

// ReadTurns decodes a turn log in order, calling fn for every entry.
func ReadTurns(path string, fn func(match.TurnLogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var entry match.TurnLogEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s:%d: unmarshal: %w", filepath.Base(path), line, err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return sc.Err()
}
