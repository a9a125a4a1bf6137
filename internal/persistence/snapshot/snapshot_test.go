package snapshot

import (
	"path/filepath"
	"reflect"
	"testing"
)

func sampleMatch() MatchV1 {
	return MatchV1{
		Header: Header{Version: Version, MatchID: "m-1", Turn: 7},
		Seed:   99,
		Tuning: TuningV1{BoardWidth: 12, BoardHeight: 12, MaxTurns: 40, StartHP: 5, MaxScriptCost: 20, AttackRange: 4, AttackCooldown: 2, ScanRange: 12, VMStepLimit: 4096},
		Phase:  "running",
		Turn:   7,
		Clock:  7,
		Outcome: OutcomeV1{
			Status: "ongoing",
			Winner: -1,
		},
		Programs: []ProgramV1{{Name: "Pusher", Code: []int{6, 12, 0, 19, 9, 7, 5, 1, 1, 4, 1, 21}, Cost: 8}},
		Agents: []AgentV1{
			{Name: "Pusher", Glyph: 'A', X: 4, Y: 3, Facing: 5, HP: 3, LastHP: 4, Damaged: true, Alive: true, ScanDist: 2, ScanDir: 5, Cooldown: 1, Signal: -1},
			{Name: "Shy", Glyph: 'B', X: 0, Y: 0, Facing: 1, HP: 0, LastHP: 1, Alive: false, ScanDir: -1, Signal: -1},
		},
	}
}

func TestWriteReadSnapshot_RoundTrip(t *testing.T) {
	path := PathFor(t.TempDir(), "m-1", 7)
	want := sampleMatch()
	if err := WriteSnapshot(path, want); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, want)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h != want.Header {
		t.Fatalf("header=%+v want %+v", h, want.Header)
	}
}

func TestReadSnapshot_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	snap := sampleMatch()
	snap.Header.Version = 9
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestReadSnapshot_MissingFile(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error")
	}
}
