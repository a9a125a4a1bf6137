package match

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"botarena.ai/internal/sim/grid"
)

// ErrMalformedState is wrapped by every Deserialize parse or validation error.
var ErrMalformedState = errors.New("malformed match state")

// Serialize renders the compact state string
//
//	turn;x,y,hp,alive,dir;x,y,hp,alive,dir;...
//
// with alive as 1 or 0 and every agent record terminated by ';'.
func (c *Controller) Serialize() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(c.turn))
	sb.WriteByte(';')
	for _, ag := range c.Agents() {
		alive := 0
		if ag.Alive {
			alive = 1
		}
		fmt.Fprintf(&sb, "%d,%d,%d,%d,%d;", ag.X, ag.Y, ag.HP, alive, int(ag.Facing))
	}
	return sb.String()
}

type agentRecord struct {
	x, y, hp int
	alive    bool
	facing   grid.Direction
}

// Deserialize loads a string produced by Serialize. The whole string is
// validated before anything is applied; on error the match is unchanged.
//
// Records beyond the roster are ignored and agents without a record keep
// their state. Restored agents start with no pending damage (last hp = hp).
// The match is running again afterwards and termination is re-checked.
func (c *Controller) Deserialize(s string) error {
	if c.phase == PhaseSetup || c.arena == nil {
		return ErrNotInitialized
	}
	turn, recs, err := c.parseState(s)
	if err != nil {
		return err
	}

	for i, r := range recs {
		ag := c.arena.Agent(i)
		ag.X, ag.Y = r.x, r.y
		ag.HP, ag.LastHP = r.hp, r.hp
		ag.Damaged = false
		ag.Alive = r.alive
		ag.Facing = r.facing
		c.arena.Replace(i, ag)
	}
	c.turn = turn
	c.arena.SetClock(turn)
	c.phase = PhaseRunning
	c.outcome = Outcome{Status: Ongoing, Winner: -1}
	c.evaluate(false)
	return nil
}

func (c *Controller) parseState(s string) (int, []agentRecord, error) {
	fields := strings.Split(strings.TrimSuffix(s, ";"), ";")
	turn, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: turn: %w", ErrMalformedState, err)
	}
	if turn < 0 {
		return 0, nil, fmt.Errorf("%w: negative turn %d", ErrMalformedState, turn)
	}

	records := fields[1:]
	if n := c.arena.Len(); len(records) > n {
		records = records[:n]
	}
	out := make([]agentRecord, 0, len(records))
	for i, rec := range records {
		r, err := c.parseRecord(rec)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: record %d: %w", ErrMalformedState, i, err)
		}
		out = append(out, r)
	}
	return turn, out, nil
}

func (c *Controller) parseRecord(rec string) (agentRecord, error) {
	parts := strings.Split(rec, ",")
	if len(parts) != 5 {
		return agentRecord{}, fmt.Errorf("want 5 fields, got %d", len(parts))
	}
	var v [5]int
	for j, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return agentRecord{}, fmt.Errorf("field %d: %w", j, err)
		}
		v[j] = n
	}
	r := agentRecord{x: v[0], y: v[1], hp: v[2], alive: v[3] != 0, facing: grid.Direction(v[4])}
	switch {
	case !c.arena.InBounds(r.x, r.y):
		return r, fmt.Errorf("position (%d,%d) out of bounds", r.x, r.y)
	case v[3] != 0 && v[3] != 1:
		return r, fmt.Errorf("alive flag %d", v[3])
	case !r.facing.Valid():
		return r, fmt.Errorf("invalid facing %d", v[4])
	case r.alive && r.hp <= 0:
		return r, fmt.Errorf("alive with hp %d", r.hp)
	}
	return r, nil
}
