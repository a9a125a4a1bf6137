package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"botarena.ai/internal/persistence/snapshot"
)

type MatchArchiveMeta struct {
	MatchID   string `json:"match_id"`
	Turn      int    `json:"turn"`
	Seed      int64  `json:"seed"`
	Outcome   string `json:"outcome"`
	Winner    int    `json:"winner"`
	Snapshot  string `json:"snapshot"`
	TurnLog   string `json:"turn_log,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ArchiveMatch copies the final snapshot of an ended match, and its turn log
// when turnLogPath is set, into `dataDir/archives/<match_id>/` next to a
// meta.json. Snapshots of running matches are not archived.
func ArchiveMatch(dataDir, snapshotPath, turnLogPath string, snap snapshot.MatchV1) (dir string, archived bool, err error) {
	if snap.Phase != "ended" {
		return "", false, nil
	}
	if snap.Header.MatchID == "" {
		return "", false, fmt.Errorf("archive: snapshot without match id")
	}

	dir = filepath.Join(dataDir, "archives", snap.Header.MatchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}

	meta := MatchArchiveMeta{
		MatchID:   snap.Header.MatchID,
		Turn:      snap.Header.Turn,
		Seed:      snap.Seed,
		Outcome:   snap.Outcome.Status,
		Winner:    snap.Outcome.Winner,
		Snapshot:  filepath.Base(snapshotPath),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := copyFile(snapshotPath, filepath.Join(dir, meta.Snapshot)); err != nil {
		return "", false, err
	}
	if turnLogPath != "" {
		meta.TurnLog = filepath.Base(turnLogPath)
		if err := copyFile(turnLogPath, filepath.Join(dir, meta.TurnLog)); err != nil {
			return "", false, err
		}
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644); err != nil {
		return "", false, err
	}
	return dir, true, nil
}

// ReadMeta loads the meta.json of an archived match.
func ReadMeta(dir string) (MatchArchiveMeta, error) {
	var m MatchArchiveMeta
	b, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
