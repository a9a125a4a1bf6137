package main

import (
	"context"
	"errors"
	"fmt"

	"botarena.ai/internal/persistence/indexdb"
	persistlog "botarena.ai/internal/persistence/log"
	"botarena.ai/internal/sim/match"
)

// recordedTurn is what a recording says the match looked like after a turn.
type recordedTurn struct {
	Turn   int
	State  string
	Digest string
}

type turnSource func(fn func(recordedTurn) error) error

func fileSource(path string) turnSource {
	return func(fn func(recordedTurn) error) error {
		return persistlog.ReadTurns(path, func(e match.TurnLogEntry) error {
			return fn(recordedTurn{Turn: e.Turn, State: e.State, Digest: e.Digest})
		})
	}
}

func indexSource(idx *indexdb.SQLiteIndex, matchID string) turnSource {
	return func(fn func(recordedTurn) error) error {
		rows, err := idx.Turns(context.Background(), matchID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no turns indexed for match %s", matchID)
		}
		for _, r := range rows {
			if err := fn(recordedTurn{Turn: r.Turn, State: r.State, Digest: r.Digest}); err != nil {
				return err
			}
		}
		return nil
	}
}

var errStop = errors.New("stop")

// verify advances c through every recorded turn after its current one and
// checks the serialized state and digest of each. Records at or before the
// starting turn are skipped, so a snapshot can resume mid-log.
func verify(c *match.Controller, src turnSource, toTurn int) (int, error) {
	checked := 0
	err := src(func(r recordedTurn) error {
		if r.Turn <= c.Turn() {
			return nil
		}
		if toTurn > 0 && r.Turn > toTurn {
			return errStop
		}
		if c.Phase() != match.PhaseRunning {
			return fmt.Errorf("turn %d recorded after the match ended at turn %d", r.Turn, c.Turn())
		}
		if r.Turn != c.Turn()+1 {
			return fmt.Errorf("gap in recording: have turn %d, next record is %d", c.Turn(), r.Turn)
		}
		c.AdvanceTurn()
		if got := c.Serialize(); got != r.State {
			return fmt.Errorf("turn %d: state mismatch\n got: %s\nwant: %s", r.Turn, got, r.State)
		}
		if got := c.Digest(); got != r.Digest {
			return fmt.Errorf("turn %d: digest mismatch got=%s want=%s", r.Turn, got, r.Digest)
		}
		checked++
		return nil
	})
	if errors.Is(err, errStop) {
		err = nil
	}
	return checked, err
}
