// Package match runs one arena match: it owns the arena and one VM per agent,
// advances turns and decides when the match is over.
package match

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"botarena.ai/internal/script"
	"botarena.ai/internal/sim/arena"
	"botarena.ai/internal/sim/tuning"
	"botarena.ai/internal/sim/vm"
)

var (
	ErrNotInitialized     = errors.New("match not initialized")
	ErrAlreadyInitialized = errors.New("match already initialized")
	ErrTooManyAgents      = errors.New("more agents than spawn points")
)

type Phase int

const (
	PhaseSetup Phase = iota
	PhaseRunning
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseRunning:
		return "running"
	case PhaseEnded:
		return "ended"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func parsePhase(s string) (Phase, bool) {
	for _, p := range []Phase{PhaseSetup, PhaseRunning, PhaseEnded} {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

type Status int

const (
	Ongoing Status = iota
	Won
	Draw
)

func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Won:
		return "winner"
	case Draw:
		return "draw"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func parseStatus(s string) (Status, bool) {
	for _, st := range []Status{Ongoing, Won, Draw} {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// Outcome is the lifecycle answer: still running, won by one agent or drawn.
type Outcome struct {
	Status     Status
	Winner     int // agent identity, -1 unless Status == Won
	WinnerName string
}

type Config struct {
	MatchID string
	Tuning  tuning.Tuning
	Seed    int64
}

type Controller struct {
	cfg Config

	phase    Phase
	arena    *arena.Arena
	programs []script.Program
	machines []*vm.Machine
	turn     int
	outcome  Outcome

	log        func(string)
	turnLogger TurnLogger
}

func New(cfg Config) *Controller {
	cfg.Tuning.ApplyDefaults()
	return &Controller{cfg: cfg, outcome: Outcome{Winner: -1}}
}

func (c *Controller) Config() Config  { return c.cfg }
func (c *Controller) MatchID() string { return c.cfg.MatchID }
func (c *Controller) Phase() Phase    { return c.phase }
func (c *Controller) Turn() int       { return c.turn }

// SetLogger installs the narrative sink shared with the arena. nil disables it.
func (c *Controller) SetLogger(fn func(line string)) {
	c.log = fn
	if c.arena != nil {
		c.arena.SetLogger(fn)
	}
}

// SetTurnLogger receives one entry per completed turn. May be nil.
func (c *Controller) SetTurnLogger(l TurnLogger) { c.turnLogger = l }

func (c *Controller) logf(format string, args ...any) {
	if c.log != nil {
		c.log(fmt.Sprintf(format, args...))
	}
}

// Initialize sets up the roster, one agent per program in order. Budget
// overruns are reported but never rejected.
func (c *Controller) Initialize(programs []script.Program) error {
	if c.phase != PhaseSetup {
		return ErrAlreadyInitialized
	}
	t := c.cfg.Tuning
	spawns := SpawnPoints(t.BoardWidth, t.BoardHeight)
	if len(programs) > len(spawns) {
		return fmt.Errorf("%w: %d agents, %d spawns", ErrTooManyAgents, len(programs), len(spawns))
	}
	rng := rand.New(rand.NewPCG(uint64(c.cfg.Seed), 0))
	rng.Shuffle(len(spawns), func(i, j int) { spawns[i], spawns[j] = spawns[j], spawns[i] })

	a := arena.New(arena.ConfigFrom(t, c.cfg.Seed))
	a.SetLogger(c.log)
	c.arena = a
	c.programs = make([]script.Program, 0, len(programs))
	c.machines = make([]*vm.Machine, 0, len(programs))
	for i, p := range programs {
		line := fmt.Sprintf("%s script cost %d/%d", p.Name(), p.Cost(), t.MaxScriptCost)
		if p.OverBudget(t.MaxScriptCost) {
			line += " (EXCEEDS LIMIT)"
		}
		c.logf("%s", line)
		id := a.AddAgent(p.Name(), spawns[i].X, spawns[i].Y)
		c.programs = append(c.programs, p)
		c.machines = append(c.machines, vm.New(a, p, id, t.VMStepLimit))
	}
	c.turn = 0
	c.phase = PhaseRunning
	c.outcome = Outcome{Status: Ongoing, Winner: -1}
	return nil
}

// SpawnPoints lists the interior lattice cells agents start on, row by row.
func SpawnPoints(width, height int) []arena.Pos {
	var out []arena.Pos
	for y := 1; y < height-1; y += 2 {
		for x := 1; x < width-1; x += 3 {
			out = append(out, arena.Pos{X: x, Y: y})
		}
	}
	return out
}

// AdvanceTurn plays one turn. It does nothing unless the match is running.
// Agents act in identity order; an agent destroyed earlier in the turn does
// not act.
func (c *Controller) AdvanceTurn() {
	if c.phase != PhaseRunning {
		return
	}
	c.arena.StartTurn()
	for i, m := range c.machines {
		if c.arena.Alive(i) {
			m.Run(c.turn + 1)
		}
	}
	c.turn++
	c.evaluate(true)

	if c.turnLogger != nil {
		n, _ := c.arena.AliveCount()
		_ = c.turnLogger.WriteTurn(TurnLogEntry{
			MatchID: c.cfg.MatchID,
			Turn:    c.turn,
			Alive:   n,
			Outcome: c.outcome.Status.String(),
			Events:  c.arena.Events(),
			State:   c.Serialize(),
			Digest:  c.Digest(),
		})
	}
}

// evaluate latches the end of the match once a termination condition holds.
func (c *Controller) evaluate(announce bool) {
	n, first := c.arena.AliveCount()
	switch {
	case n == 1:
		name := c.arena.Agent(first).Name
		c.end(Outcome{Status: Won, Winner: first, WinnerName: name})
		if announce {
			c.arena.Announce(arena.EventWin, first, fmt.Sprintf("%s wins!", name))
		}
	case n == 0:
		c.end(Outcome{Status: Draw, Winner: -1})
		if announce {
			c.arena.Announce(arena.EventDraw, -1, "Draw: no survivors.")
		}
	case c.turn >= c.cfg.Tuning.MaxTurns:
		c.end(Outcome{Status: Draw, Winner: -1})
		if announce {
			c.arena.Announce(arena.EventDraw, -1, "Draw: maximum turns reached.")
		}
	}
}

func (c *Controller) end(o Outcome) {
	c.phase = PhaseEnded
	c.outcome = o
}

func (c *Controller) QueryOutcome() Outcome { return c.outcome }

// Reset drops the arena, machines and counters and returns to setup.
func (c *Controller) Reset() {
	c.arena = nil
	c.programs = nil
	c.machines = nil
	c.turn = 0
	c.phase = PhaseSetup
	c.outcome = Outcome{Winner: -1}
}

// Agents returns copies of every agent in identity order.
func (c *Controller) Agents() []arena.Agent {
	if c.arena == nil {
		return nil
	}
	return c.arena.Agents()
}

// Programs returns the roster's programs in identity order.
func (c *Controller) Programs() []script.Program {
	out := make([]script.Program, len(c.programs))
	copy(out, c.programs)
	return out
}

// Events returns what happened during the last played turn.
func (c *Controller) Events() []arena.Event {
	if c.arena == nil {
		return nil
	}
	return c.arena.Events()
}
