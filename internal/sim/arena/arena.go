// Package arena holds the shared simulation state of a match and the
// primitive verbs bot programs use to sense and change it.
//
// An Arena is not safe for concurrent use. Within a turn agents act strictly
// one after another.
package arena

import (
	"math/rand/v2"

	"botarena.ai/internal/sim/grid"
	"botarena.ai/internal/sim/tuning"
)

type Config struct {
	Width          int
	Height         int
	StartHP        int
	AttackRange    int
	AttackCooldown int
	ScanRange      int
	Seed           int64
}

func ConfigFrom(t tuning.Tuning, seed int64) Config {
	return Config{
		Width:          t.BoardWidth,
		Height:         t.BoardHeight,
		StartHP:        t.StartHP,
		AttackRange:    t.AttackRange,
		AttackCooldown: t.AttackCooldown,
		ScanRange:      t.ScanRange,
		Seed:           seed,
	}
}

type Arena struct {
	cfg    Config
	agents []Agent

	signals []Pos   // positions that broadcast this turn
	events  []Event // events since the last StartTurn

	clock int    // number of StartTurn calls
	draws uint64 // random draws this turn

	log func(string)
}

func New(cfg Config) *Arena {
	return &Arena{cfg: cfg}
}

func (a *Arena) Config() Config { return a.cfg }

// SetLogger installs the narrative sink. nil disables logging.
func (a *Arena) SetLogger(fn func(line string)) { a.log = fn }

// AddAgent places a fresh agent and returns its identity.
func (a *Arena) AddAgent(name string, x, y int) int {
	id := len(a.agents)
	a.agents = append(a.agents, Agent{
		Name:    name,
		Glyph:   byte('A' + id%26),
		X:       x,
		Y:       y,
		Facing:  grid.East,
		HP:      a.cfg.StartHP,
		LastHP:  a.cfg.StartHP,
		Alive:   true,
		ScanDir: grid.None,
		Signal:  -1,
	})
	return id
}

func (a *Arena) Len() int { return len(a.agents) }

func (a *Arena) Agent(id int) Agent { return a.agents[id] }

// Agents returns a copy of every agent in identity order.
func (a *Arena) Agents() []Agent {
	out := make([]Agent, len(a.agents))
	copy(out, a.agents)
	return out
}

// Replace overwrites an agent wholesale. It is meant for state restore;
// simulation code goes through the verbs.
func (a *Arena) Replace(id int, ag Agent) { a.agents[id] = ag }

func (a *Arena) Clock() int         { return a.clock }
func (a *Arena) SetClock(turns int) { a.clock = turns }

func (a *Arena) Alive(id int) bool { return a.agents[id].Alive }

// AliveCount returns the number of living agents and the lowest living id
// (-1 when none).
func (a *Arena) AliveCount() (n int, first int) {
	first = -1
	for i := range a.agents {
		if a.agents[i].Alive {
			if first == -1 {
				first = i
			}
			n++
		}
	}
	return n, first
}

func (a *Arena) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < a.cfg.Width && y < a.cfg.Height
}

// AgentAt returns the lowest identity of a living agent on (x,y), or -1.
func (a *Arena) AgentAt(x, y int) int {
	for i := range a.agents {
		o := &a.agents[i]
		if o.Alive && o.X == x && o.Y == y {
			return i
		}
	}
	return -1
}

// StartTurn resets per-turn state. It must run once per turn before any
// program executes so the damage flag reflects the previous turn only.
func (a *Arena) StartTurn() {
	a.signals = a.signals[:0]
	a.events = a.events[:0]
	a.clock++
	a.draws = 0
	for i := range a.agents {
		b := &a.agents[i]
		if !b.Alive {
			continue
		}
		b.Damaged = b.HP < b.LastHP
		b.LastHP = b.HP
		if b.Cooldown > 0 {
			b.Cooldown--
		}
		b.Signal = -1
	}
}

// RandomDirection draws a heading from a stream keyed by seed, turn and draw
// index, so a resumed match draws the same values as an uninterrupted one.
func (a *Arena) RandomDirection() grid.Direction {
	r := rand.New(rand.NewPCG(uint64(a.cfg.Seed), uint64(a.clock)<<32|a.draws))
	a.draws++
	return grid.Direction(r.IntN(8))
}
