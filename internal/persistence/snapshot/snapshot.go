package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Version is the current snapshot layout.
const Version = 1

type Header struct {
	Version int    `json:"version"`
	MatchID string `json:"match_id"`
	Turn    int    `json:"turn"`
}

// MatchV1 is a full, resumable image of one match.
type MatchV1 struct {
	Header Header `json:"header"`

	Seed   int64    `json:"seed"`
	Tuning TuningV1 `json:"tuning"`

	Phase   string    `json:"phase"`
	Turn    int       `json:"turn"`
	Clock   int       `json:"clock"`
	Outcome OutcomeV1 `json:"outcome"`

	Programs []ProgramV1 `json:"programs"`
	Agents   []AgentV1   `json:"agents"`
}

// TuningV1 captures the arena constants the match was started with, so a
// resumed match plays by the same rules even if tuning.yaml changed.
type TuningV1 struct {
	BoardWidth     int `json:"board_width"`
	BoardHeight    int `json:"board_height"`
	MaxTurns       int `json:"max_turns"`
	StartHP        int `json:"start_hp"`
	MaxScriptCost  int `json:"max_script_cost"`
	AttackRange    int `json:"attack_range"`
	AttackCooldown int `json:"attack_cooldown"`
	ScanRange      int `json:"scan_range"`
	VMStepLimit    int `json:"vm_step_limit"`
}

type OutcomeV1 struct {
	Status string `json:"status"`
	Winner int    `json:"winner"`
}

type ProgramV1 struct {
	Name string `json:"name"`
	Code []int  `json:"code"`
	Cost int    `json:"cost"`
}

type AgentV1 struct {
	Name     string `json:"name"`
	Glyph    byte   `json:"glyph"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Facing   int    `json:"facing"`
	HP       int    `json:"hp"`
	LastHP   int    `json:"last_hp"`
	Damaged  bool   `json:"damaged"`
	Alive    bool   `json:"alive"`
	ScanDist int    `json:"scan_dist"`
	ScanDir  int    `json:"scan_dir"`
	Cooldown int    `json:"cooldown"`
	Signal   int    `json:"signal"`
}

// WriteSnapshot stores snap as a zstd stream: one JSON header line followed
// by the gob-encoded body.
func WriteSnapshot(path string, snap MatchV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (MatchV1, error) {
	var snap MatchV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the leading header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}

// PathFor names the snapshot of matchID at turn under dir.
func PathFor(dir, matchID string, turn int) string {
	return filepath.Join(dir, matchID, fmt.Sprintf("turn-%04d.snap.zst", turn))
}
