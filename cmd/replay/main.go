package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"botarena.ai/internal/persistence/indexdb"
	"botarena.ai/internal/persistence/snapshot"
	"botarena.ai/internal/script"
	"botarena.ai/internal/sim/match"
	"botarena.ai/internal/sim/tuning"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst to start from (optional; default: fresh match)")
		turnsPath  = flag.String("turns", "", "turn log (turns.jsonl.zst) to verify against")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		scriptsDir = flag.String("scripts", "", "bot script directory (default: <configs>/scripts)")
		bots       = flag.String("bots", "", "comma separated built-in bots (overrides -scripts)")
		seed       = flag.Int64("seed", 1337, "seed of a fresh match (ignored with -snapshot)")
		matchID    = flag.String("match", "", "match id (fresh replays, and -db lookups)")
		toTurn     = flag.Int("to_turn", 0, "stop after this turn (optional)")
		dbPath     = flag.String("db", "", "sqlite index; verifies against its turns table when -turns is empty")
		list       = flag.Int("list", 0, "list the N most recent matches in -db and exit")
	)
	flag.Parse()

	var idx *indexdb.SQLiteIndex
	if *dbPath != "" {
		var err error
		idx, err = indexdb.OpenSQLite(*dbPath)
		if err != nil {
			fail("open index", err)
		}
		defer idx.Close()
	}
	if *list > 0 {
		if idx == nil {
			fmt.Fprintln(os.Stderr, "-list needs -db")
			os.Exit(2)
		}
		if err := listMatches(idx, *list); err != nil {
			fail("list matches", err)
		}
		return
	}

	var c *match.Controller
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fail("read snapshot", err)
		}
		fmt.Printf("snapshot v%d match=%s turn=%d seed=%d phase=%s agents=%d\n",
			snap.Header.Version, snap.Header.MatchID, snap.Header.Turn, snap.Seed, snap.Phase, len(snap.Agents))
		c = match.New(match.Config{MatchID: snap.Header.MatchID})
		if err := c.ImportSnapshot(snap); err != nil {
			fail("import snapshot", err)
		}
	} else {
		tp := *tuningPath
		if tp == "" {
			tp = filepath.Join(*configDir, "tuning.yaml")
		}
		tune, err := tuning.Load(tp)
		if err != nil {
			fail("load tuning", err)
		}
		sd := *scriptsDir
		if sd == "" {
			sd = filepath.Join(*configDir, "scripts")
		}
		progs, err := script.LoadRoster(sd, *bots)
		if err != nil {
			fail("load roster", err)
		}
		c = match.New(match.Config{MatchID: *matchID, Tuning: tune, Seed: *seed})
		if err := c.Initialize(progs); err != nil {
			fail("initialize", err)
		}
	}

	var src turnSource
	switch {
	case *turnsPath != "":
		src = fileSource(*turnsPath)
	case idx != nil:
		id := *matchID
		if id == "" {
			id = c.MatchID()
		}
		src = indexSource(idx, id)
	default:
		fmt.Fprintln(os.Stderr, "missing -turns (or -db)")
		os.Exit(2)
	}

	start := c.Turn()
	checked, err := verify(c, src, *toTurn)
	if err != nil {
		fail("replay", err)
	}
	o := c.QueryOutcome()
	fmt.Printf("replay ok: checked=%d turns (from turn=%d) outcome=%s winner=%s\n", checked, start, o.Status, o.WinnerName)
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func listMatches(idx *indexdb.SQLiteIndex, n int) error {
	rows, err := idx.ListMatches(context.Background(), n)
	if err != nil {
		return err
	}
	for _, m := range rows {
		fmt.Printf("%s seed=%d turns=%d status=%s winner=%s roster=%s started=%s\n",
			m.ID, m.Seed, m.Turns, m.Status, m.WinnerName, strings.Join(m.Roster, ","), m.StartedAt)
	}
	return nil
}
