package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"botarena.ai/internal/persistence/archive"
	"botarena.ai/internal/persistence/snapshot"
	"botarena.ai/internal/sim/match"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "edit":
			editCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "bootstrap":
			bootstrapCmd(os.Args[2:])
			return
		case "metrics":
			metricsCmd(os.Args[2:])
			return
		case "archives":
			archivesCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "snapshots")
	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		latest := latestSnapshot(filepath.Join(base, e.Name()))
		if latest == "" {
			fmt.Println(e.Name())
			continue
		}
		h, err := snapshot.ReadHeader(latest)
		if err != nil {
			fmt.Printf("%s latest=%s err=%v\n", e.Name(), filepath.Base(latest), err)
			continue
		}
		fmt.Printf("%s latest_turn=%d snapshot=%s\n", e.Name(), h.Turn, filepath.Base(latest))
	}
}

// editCmd rewrites the board of a snapshot from a state string and writes the
// result as a new snapshot that cmd/arena can resume from.
func editCmd(args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	matchID := fs.String("match", "", "match id")
	snapPath := fs.String("snapshot", "", "snapshot to edit (optional; defaults to the match's latest)")
	state := fs.String("state", "", "state string: turn;x,y,hp,alive,dir;... (required)")
	outPath := fs.String("out", "", "output snapshot path (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*state) == "" {
		fmt.Fprintln(os.Stderr, "missing -state")
		os.Exit(2)
	}
	src := strings.TrimSpace(*snapPath)
	if src == "" {
		if strings.TrimSpace(*matchID) == "" {
			fmt.Fprintln(os.Stderr, "missing -match or -snapshot")
			os.Exit(2)
		}
		src = latestSnapshot(filepath.Join(*dataDir, "snapshots", *matchID))
	}
	if src == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run the arena until it writes one")
		os.Exit(2)
	}

	res, err := editSnapshot(src, *state, *outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "edit:", err)
		os.Exit(1)
	}
	fmt.Printf("edit ok: snapshot=%s out=%s phase=%s outcome=%s\n before: %s\n after:  %s\n",
		filepath.Base(src), res.Out, res.Phase, res.Outcome, res.Before, res.After)
}

type editResult struct {
	Out     string
	Before  string
	After   string
	Phase   string
	Outcome string
}

func editSnapshot(src, state, out string) (editResult, error) {
	var res editResult
	snap, err := snapshot.ReadSnapshot(src)
	if err != nil {
		return res, err
	}
	c := match.New(match.Config{MatchID: snap.Header.MatchID})
	if err := c.ImportSnapshot(snap); err != nil {
		return res, err
	}
	res.Before = c.Serialize()
	if err := c.Deserialize(state); err != nil {
		return res, err
	}
	res.After = c.Serialize()
	res.Phase = c.Phase().String()
	res.Outcome = c.QueryOutcome().Status.String()

	edited, err := c.ExportSnapshot()
	if err != nil {
		return res, err
	}
	if out == "" {
		out = filepath.Join(filepath.Dir(src), fmt.Sprintf("turn-%04d.edit.snap.zst", edited.Header.Turn))
	}
	if err := snapshot.WriteSnapshot(out, edited); err != nil {
		return res, err
	}
	res.Out = out
	return res, nil
}

func archivesCmd(args []string) {
	fs := flag.NewFlagSet("archives", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "archives")
	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := archive.ReadMeta(filepath.Join(base, e.Name()))
		if err != nil {
			fmt.Printf("%s err=%v\n", e.Name(), err)
			continue
		}
		fmt.Printf("%s turn=%d seed=%d outcome=%s winner=%d snapshot=%s turn_log=%s created=%s\n",
			m.MatchID, m.Turn, m.Seed, m.Outcome, m.Winner, m.Snapshot, m.TurnLog, m.CreatedAt)
	}
}

// latestSnapshot picks the highest turn-NNNN.snap.zst in dir. Edited
// snapshots are never picked.
func latestSnapshot(dir string) string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	bestTurn := -1
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "turn-") || !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(strings.TrimPrefix(name, "turn-"), ".snap.zst")
		turn, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		if turn > bestTurn {
			bestTurn = turn
			best = filepath.Join(dir, name)
		}
	}
	return best
}
