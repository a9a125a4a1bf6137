package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; default: <data>/index/arena.sqlite)")
	matchID := fs.String("match", "", "match id (required for turns, events, snapshots, kills)")
	kind := fs.String("kind", "", "event kind filter (events)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "matches"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "arena.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if q != "matches" && strings.TrimSpace(*matchID) == "" {
		fmt.Fprintln(os.Stderr, "missing -match")
		os.Exit(2)
	}

	var rows *sql.Rows
	var scan func() (any, error)

	switch q {
	case "matches":
		rows, err = db.Query(`SELECT match_id,seed,roster_json,started_at,turns,status,winner,winner_name,COALESCE(ended_at,'') FROM matches ORDER BY started_at DESC LIMIT ?`, *limit)
		scan = func() (any, error) {
			var r struct {
				MatchID    string          `json:"match_id"`
				Seed       int64           `json:"seed"`
				Roster     json.RawMessage `json:"roster"`
				StartedAt  string          `json:"started_at"`
				Turns      int             `json:"turns"`
				Status     string          `json:"status"`
				Winner     int             `json:"winner"`
				WinnerName string          `json:"winner_name,omitempty"`
				EndedAt    string          `json:"ended_at,omitempty"`
			}
			var roster string
			err := rows.Scan(&r.MatchID, &r.Seed, &roster, &r.StartedAt, &r.Turns, &r.Status, &r.Winner, &r.WinnerName, &r.EndedAt)
			r.Roster = json.RawMessage(roster)
			return r, err
		}

	case "turns":
		rows, err = db.Query(`SELECT turn,digest,alive,outcome,state,events FROM turns WHERE match_id=? ORDER BY turn DESC LIMIT ?`, *matchID, *limit)
		scan = func() (any, error) {
			var r struct {
				Turn    int    `json:"turn"`
				Digest  string `json:"digest"`
				Alive   int    `json:"alive"`
				Outcome string `json:"outcome"`
				State   string `json:"state"`
				Events  int    `json:"events"`
			}
			err := rows.Scan(&r.Turn, &r.Digest, &r.Alive, &r.Outcome, &r.State, &r.Events)
			return r, err
		}

	case "events":
		query := `SELECT turn,seq,kind,actor,target,x,y,value,text FROM events WHERE match_id=? ORDER BY turn DESC, seq DESC LIMIT ?`
		qargs := []any{*matchID, *limit}
		if k := strings.ToUpper(strings.TrimSpace(*kind)); k != "" {
			query = `SELECT turn,seq,kind,actor,target,x,y,value,text FROM events WHERE match_id=? AND kind=? ORDER BY turn DESC, seq DESC LIMIT ?`
			qargs = []any{*matchID, k, *limit}
		}
		rows, err = db.Query(query, qargs...)
		scan = func() (any, error) {
			var r struct {
				Turn   int    `json:"turn"`
				Seq    int    `json:"seq"`
				Kind   string `json:"kind"`
				Actor  int    `json:"actor"`
				Target int    `json:"target"`
				X      int    `json:"x"`
				Y      int    `json:"y"`
				Value  int    `json:"value"`
				Text   string `json:"text,omitempty"`
			}
			err := rows.Scan(&r.Turn, &r.Seq, &r.Kind, &r.Actor, &r.Target, &r.X, &r.Y, &r.Value, &r.Text)
			return r, err
		}

	case "snapshots":
		rows, err = db.Query(`SELECT turn,path,phase,agents,alive FROM snapshots WHERE match_id=? ORDER BY turn DESC LIMIT ?`, *matchID, *limit)
		scan = func() (any, error) {
			var r struct {
				Turn   int    `json:"turn"`
				Path   string `json:"path"`
				Phase  string `json:"phase"`
				Agents int    `json:"agents"`
				Alive  int    `json:"alive"`
			}
			err := rows.Scan(&r.Turn, &r.Path, &r.Phase, &r.Agents, &r.Alive)
			return r, err
		}

	case "kills":
		rows, err = db.Query(`SELECT actor,COUNT(*),MIN(turn) FROM events WHERE match_id=? AND kind='DESTROY' GROUP BY actor ORDER BY COUNT(*) DESC, actor LIMIT ?`, *matchID, *limit)
		scan = func() (any, error) {
			var r struct {
				Actor     int `json:"actor"`
				Kills     int `json:"kills"`
				FirstTurn int `json:"first_turn"`
			}
			err := rows.Scan(&r.Actor, &r.Kills, &r.FirstTurn)
			return r, err
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data|-db PATH] [-match ID] [-kind K] [-limit N] matches|turns|events|snapshots|kills")
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scan()
		if err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		printJSON(r)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
