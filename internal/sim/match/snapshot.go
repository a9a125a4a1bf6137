package match

import (
	"fmt"

	"botarena.ai/internal/persistence/snapshot"
	"botarena.ai/internal/script"
	"botarena.ai/internal/sim/arena"
	"botarena.ai/internal/sim/grid"
	"botarena.ai/internal/sim/tuning"
	"botarena.ai/internal/sim/vm"
)

// ExportSnapshot captures everything needed to resume the match exactly.
// It must be called from the goroutine driving the controller.
func (c *Controller) ExportSnapshot() (snapshot.MatchV1, error) {
	if c.arena == nil {
		return snapshot.MatchV1{}, ErrNotInitialized
	}
	t := c.cfg.Tuning
	snap := snapshot.MatchV1{
		Header: snapshot.Header{Version: snapshot.Version, MatchID: c.cfg.MatchID, Turn: c.turn},
		Seed:   c.cfg.Seed,
		Tuning: snapshot.TuningV1{
			BoardWidth:     t.BoardWidth,
			BoardHeight:    t.BoardHeight,
			MaxTurns:       t.MaxTurns,
			StartHP:        t.StartHP,
			MaxScriptCost:  t.MaxScriptCost,
			AttackRange:    t.AttackRange,
			AttackCooldown: t.AttackCooldown,
			ScanRange:      t.ScanRange,
			VMStepLimit:    t.VMStepLimit,
		},
		Phase:   c.phase.String(),
		Turn:    c.turn,
		Clock:   c.arena.Clock(),
		Outcome: snapshot.OutcomeV1{Status: c.outcome.Status.String(), Winner: c.outcome.Winner},
	}
	for _, p := range c.programs {
		snap.Programs = append(snap.Programs, snapshot.ProgramV1{Name: p.Name(), Code: p.Code(), Cost: p.Cost()})
	}
	for _, ag := range c.arena.Agents() {
		snap.Agents = append(snap.Agents, snapshot.AgentV1{
			Name:     ag.Name,
			Glyph:    ag.Glyph,
			X:        ag.X,
			Y:        ag.Y,
			Facing:   int(ag.Facing),
			HP:       ag.HP,
			LastHP:   ag.LastHP,
			Damaged:  ag.Damaged,
			Alive:    ag.Alive,
			ScanDist: ag.ScanDist,
			ScanDir:  int(ag.ScanDir),
			Cooldown: ag.Cooldown,
			Signal:   ag.Signal,
		})
	}
	return snap, nil
}

// ImportSnapshot replaces the controller's state with snap. Tuning and seed
// come from the snapshot; the logger hooks are kept.
func (c *Controller) ImportSnapshot(snap snapshot.MatchV1) error {
	if snap.Header.Version != snapshot.Version {
		return fmt.Errorf("snapshot: unsupported version %d", snap.Header.Version)
	}
	if len(snap.Programs) != len(snap.Agents) {
		return fmt.Errorf("snapshot: %d programs for %d agents", len(snap.Programs), len(snap.Agents))
	}
	phase, ok := parsePhase(snap.Phase)
	if !ok || phase == PhaseSetup {
		return fmt.Errorf("snapshot: bad phase %q", snap.Phase)
	}
	status, ok := parseStatus(snap.Outcome.Status)
	if !ok {
		return fmt.Errorf("snapshot: bad outcome %q", snap.Outcome.Status)
	}

	t := tuning.Tuning{
		BoardWidth:     snap.Tuning.BoardWidth,
		BoardHeight:    snap.Tuning.BoardHeight,
		MaxTurns:       snap.Tuning.MaxTurns,
		StartHP:        snap.Tuning.StartHP,
		MaxScriptCost:  snap.Tuning.MaxScriptCost,
		AttackRange:    snap.Tuning.AttackRange,
		AttackCooldown: snap.Tuning.AttackCooldown,
		ScanRange:      snap.Tuning.ScanRange,
		VMStepLimit:    snap.Tuning.VMStepLimit,
		// Pacing is an operator setting, not match state.
		TurnRateHz:         c.cfg.Tuning.TurnRateHz,
		SnapshotEveryTurns: c.cfg.Tuning.SnapshotEveryTurns,
	}
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	a := arena.New(arena.ConfigFrom(t, snap.Seed))
	programs := make([]script.Program, 0, len(snap.Programs))
	machines := make([]*vm.Machine, 0, len(snap.Programs))
	for i, pv := range snap.Programs {
		av := snap.Agents[i]
		if !a.InBounds(av.X, av.Y) {
			return fmt.Errorf("snapshot: agent %d out of bounds", i)
		}
		p := script.NewProgram(pv.Name, pv.Code, pv.Cost)
		id := a.AddAgent(av.Name, av.X, av.Y)
		a.Replace(id, arena.Agent{
			Name:     av.Name,
			Glyph:    av.Glyph,
			X:        av.X,
			Y:        av.Y,
			Facing:   grid.Direction(av.Facing),
			HP:       av.HP,
			LastHP:   av.LastHP,
			Damaged:  av.Damaged,
			Alive:    av.Alive,
			ScanDist: av.ScanDist,
			ScanDir:  grid.Direction(av.ScanDir),
			Cooldown: av.Cooldown,
			Signal:   av.Signal,
		})
		programs = append(programs, p)
		machines = append(machines, vm.New(a, p, id, t.VMStepLimit))
	}
	a.SetClock(snap.Clock)
	a.SetLogger(c.log)

	c.cfg.MatchID = snap.Header.MatchID
	c.cfg.Seed = snap.Seed
	c.cfg.Tuning = t
	c.arena = a
	c.programs = programs
	c.machines = machines
	c.turn = snap.Turn
	c.phase = phase
	c.outcome = Outcome{Status: status, Winner: snap.Outcome.Winner}
	if status == Won && snap.Outcome.Winner >= 0 && snap.Outcome.Winner < a.Len() {
		c.outcome.WinnerName = a.Agent(snap.Outcome.Winner).Name
	}
	return nil
}
