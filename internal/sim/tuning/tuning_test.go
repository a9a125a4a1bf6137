package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RepoConfigMatchesDefaults(t *testing.T) {
	got, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != Defaults() {
		t.Fatalf("configs/tuning.yaml drifted from Defaults:\n got %+v\nwant %+v", got, Defaults())
	}
}

func TestLoad_FillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("max_turns: 7\nboard_width: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MaxTurns != 7 || got.BoardWidth != 8 {
		t.Fatalf("explicit values lost: %+v", got)
	}
	if got.BoardHeight != 12 || got.AttackCooldown != 2 || got.ScanRange != 12 {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestLoad_RejectsWideBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("board_width: 40\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for 40-wide board")
	}
}
