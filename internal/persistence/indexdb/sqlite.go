package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"botarena.ai/internal/persistence/snapshot"
	"botarena.ai/internal/sim/match"
	"botarena.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable read model of finished and running matches. All
// writes go through one goroutine; the public write methods never block and
// drop under backpressure. The JSONL turn logs stay the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropMatch    atomic.Uint64
	dropTurn     atomic.Uint64
	dropSnapshot atomic.Uint64
	dropResult   atomic.Uint64
}

type reqKind int

const (
	reqMatch reqKind = iota + 1
	reqTurn
	reqSnapshot
	reqResult
	reqSync
)

type req struct {
	kind reqKind

	match    matchRow
	turn     match.TurnLogEntry
	snapshot snapshotRow
	result   resultRow
	done     chan struct{}
}

type matchRow struct {
	ID         string
	Seed       int64
	RosterJSON string
	TuningJSON string
	TuningHash string
	StartedAt  string
}

type snapshotRow struct {
	MatchID string
	Turn    int
	Path    string
	Phase   string
	Agents  int
	Alive   int
}

type resultRow struct {
	MatchID    string
	Turns      int
	Status     string
	Winner     int
	WinnerName string
	EndedAt    string
}

// MatchInfo describes a match when it starts.
type MatchInfo struct {
	ID     string
	Seed   int64
	Roster []string
	Tuning tuning.Tuning
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 8192),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS matches (
			match_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			roster_json TEXT NOT NULL,
			tuning_json TEXT NOT NULL,
			tuning_digest TEXT NOT NULL,
			started_at TEXT NOT NULL,
			turns INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'ongoing',
			winner INTEGER NOT NULL DEFAULT -1,
			winner_name TEXT NOT NULL DEFAULT '',
			ended_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			match_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			digest TEXT NOT NULL,
			alive INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			state TEXT NOT NULL,
			events INTEGER NOT NULL,
			PRIMARY KEY (match_id, turn)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			match_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			actor INTEGER NOT NULL,
			target INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			value INTEGER NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (match_id, turn, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(match_id, kind, turn);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			match_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			path TEXT NOT NULL,
			phase TEXT NOT NULL,
			agents INTEGER NOT NULL,
			alive INTEGER NOT NULL,
			PRIMARY KEY (match_id, turn)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue, commits and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Sync blocks until every request queued before it has been committed.
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqSync, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

func (s *SQLiteIndex) RecordMatchStart(info MatchInfo) {
	if s == nil {
		return
	}
	roster, _ := json.Marshal(info.Roster)
	tb, _ := json.Marshal(info.Tuning)
	sum := sha256.Sum256(tb)
	s.enqueue(req{kind: reqMatch, match: matchRow{
		ID:         info.ID,
		Seed:       info.Seed,
		RosterJSON: string(roster),
		TuningJSON: string(tb),
		TuningHash: hex.EncodeToString(sum[:]),
		StartedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}}, &s.dropMatch)
}

// WriteTurn satisfies match.TurnLogger.
func (s *SQLiteIndex) WriteTurn(entry match.TurnLogEntry) error {
	if s == nil {
		return nil
	}
	s.enqueue(req{kind: reqTurn, turn: entry}, &s.dropTurn)
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.MatchV1) {
	if s == nil {
		return
	}
	alive := 0
	for _, a := range snap.Agents {
		if a.Alive {
			alive++
		}
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: snapshotRow{
		MatchID: snap.Header.MatchID,
		Turn:    snap.Header.Turn,
		Path:    path,
		Phase:   snap.Phase,
		Agents:  len(snap.Agents),
		Alive:   alive,
	}}, &s.dropSnapshot)
}

func (s *SQLiteIndex) RecordResult(matchID string, turns int, o match.Outcome) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqResult, result: resultRow{
		MatchID:    matchID,
		Turns:      turns,
		Status:     o.Status.String(),
		Winner:     o.Winner,
		WinnerName: o.WinnerName,
		EndedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}}, &s.dropResult)
}

type QueueStats struct {
	QueueDepth        int
	QueueCapacity     int
	DropMatchTotal    uint64
	DropTurnTotal     uint64
	DropSnapshotTotal uint64
	DropResultTotal   uint64
}

func (s *SQLiteIndex) Stats() QueueStats {
	return QueueStats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropMatchTotal:    s.dropMatch.Load(),
		DropTurnTotal:     s.dropTurn.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
		DropResultTotal:   s.dropResult.Load(),
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertMatch, _ := s.db.Prepare(`INSERT OR REPLACE INTO matches(match_id,seed,roster_json,tuning_json,tuning_digest,started_at) VALUES(?,?,?,?,?,?)`)
	insertTurn, _ := s.db.Prepare(`INSERT OR REPLACE INTO turns(match_id,turn,digest,alive,outcome,state,events) VALUES(?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO events(match_id,turn,seq,kind,actor,target,x,y,value,text) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(match_id,turn,path,phase,agents,alive) VALUES(?,?,?,?,?,?)`)
	updateResult, _ := s.db.Prepare(`UPDATE matches SET turns=?, status=?, winner=?, winner_name=?, ended_at=? WHERE match_id=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertMatch, insertTurn, insertEvent, insertSnapshot, updateResult} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqMatch:
			m := r.match
			exec(insertMatch, m.ID, m.Seed, m.RosterJSON, m.TuningJSON, m.TuningHash, m.StartedAt)

		case reqTurn:
			e := r.turn
			if !exec(insertTurn, e.MatchID, e.Turn, e.Digest, e.Alive, e.Outcome, e.State, len(e.Events)) {
				continue
			}
			for i, ev := range e.Events {
				if !exec(insertEvent, e.MatchID, e.Turn, i, string(ev.Kind), ev.Actor, ev.Target, ev.X, ev.Y, ev.Value, ev.Text) {
					break
				}
			}

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.MatchID, sn.Turn, sn.Path, sn.Phase, sn.Agents, sn.Alive)

		case reqResult:
			re := r.result
			exec(updateResult, re.Turns, re.Status, re.Winner, re.WinnerName, re.EndedAt, re.MatchID)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

// ErrNotFound is returned by lookups for unknown matches.
var ErrNotFound = errors.New("not found")

type MatchRow struct {
	ID         string
	Seed       int64
	Roster     []string
	StartedAt  string
	Turns      int
	Status     string
	Winner     int
	WinnerName string
	EndedAt    string
}

type TurnRow struct {
	Turn    int
	Digest  string
	Alive   int
	Outcome string
	State   string
	Events  int
}

// Match reads one match row. Reads see only committed writes; call Sync first
// when the caller also wrote.
func (s *SQLiteIndex) Match(ctx context.Context, id string) (MatchRow, error) {
	var (
		m      MatchRow
		roster string
		ended  sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT match_id,seed,roster_json,started_at,turns,status,winner,winner_name,ended_at FROM matches WHERE match_id=?`, id,
	).Scan(&m.ID, &m.Seed, &roster, &m.StartedAt, &m.Turns, &m.Status, &m.Winner, &m.WinnerName, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return m, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal([]byte(roster), &m.Roster); err != nil {
		return m, fmt.Errorf("match %s roster: %w", id, err)
	}
	m.EndedAt = ended.String
	return m, nil
}

// ListMatches returns the most recently started matches first.
func (s *SQLiteIndex) ListMatches(ctx context.Context, limit int) ([]MatchRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT match_id FROM matches ORDER BY started_at DESC, match_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	out := make([]MatchRow, 0, len(ids))
	for _, id := range ids {
		m, err := s.Match(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *SQLiteIndex) Turns(ctx context.Context, matchID string) ([]TurnRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT turn,digest,alive,outcome,state,events FROM turns WHERE match_id=? ORDER BY turn`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TurnRow
	for rows.Next() {
		var t TurnRow
		if err := rows.Scan(&t.Turn, &t.Digest, &t.Alive, &t.Outcome, &t.State, &t.Events); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountEvents counts a match's events of one kind.
func (s *SQLiteIndex) CountEvents(ctx context.Context, matchID, kind string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE match_id=? AND kind=?`, matchID, kind).Scan(&n)
	return n, err
}

// LatestSnapshot returns the path of the newest recorded snapshot of a match.
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context, matchID string) (string, int, error) {
	var (
		path string
		turn int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT path,turn FROM snapshots WHERE match_id=? ORDER BY turn DESC LIMIT 1`, matchID).Scan(&path, &turn)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, fmt.Errorf("snapshot for %s: %w", matchID, ErrNotFound)
	}
	return path, turn, err
}
