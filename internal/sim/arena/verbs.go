package arena

import (
	"fmt"

	"botarena.ai/internal/sim/grid"
)

// Move steps self up to dist cells along its facing. Each step is checked on
// its own; the first wall or occupied cell ends the move and earlier steps
// are kept.
func (a *Arena) Move(self, dist int) {
	b := &a.agents[self]
	sx, sy := b.X, b.Y
	ox, oy := b.Facing.Offset()
	if ox == 0 && oy == 0 {
		return
	}
	for ; dist > 0 && b.Alive; dist-- {
		nx, ny := b.X+ox, b.Y+oy
		if !a.InBounds(nx, ny) || a.AgentAt(nx, ny) != -1 {
			break
		}
		b.X, b.Y = nx, ny
	}
	if b.X != sx || b.Y != sy {
		a.record(Event{
			Kind: EventMove, Actor: self, Target: -1, X: b.X, Y: b.Y,
			Text: fmt.Sprintf("%s moves to %s", b.label(), grid.SquareName(b.X, b.Y)),
		})
	}
}

// Turn sets the facing. Invalid directions are ignored.
func (a *Arena) Turn(self int, d grid.Direction) {
	if !d.Valid() {
		return
	}
	a.agents[self].Facing = d
}

// TurnRandom faces a direction drawn from the arena's seeded stream.
func (a *Arena) TurnRandom(self int) {
	a.Turn(self, a.RandomDirection())
}

// Attack fires along d. While the weapon is cooling down the call does
// nothing at all, not even refreshing the cooldown. Otherwise the first
// living agent within range loses one hit point, and the weapon cools down
// whether or not anything was hit.
func (a *Arena) Attack(self int, d grid.Direction) {
	b := &a.agents[self]
	if b.Cooldown > 0 || !d.Valid() {
		return
	}
	ox, oy := d.Offset()
	x, y := b.X, b.Y
	for step := 1; step <= a.cfg.AttackRange; step++ {
		x += ox
		y += oy
		if !a.InBounds(x, y) {
			break
		}
		t := a.AgentAt(x, y)
		if t == -1 {
			continue
		}
		tg := &a.agents[t]
		tg.HP--
		a.record(Event{
			Kind: EventHit, Actor: self, Target: t, X: x, Y: y, Value: 1,
			Text: fmt.Sprintf("%s attacks %s for 1 point!", b.label(), tg.label()),
		})
		if tg.HP <= 0 {
			tg.Alive = false
			a.record(Event{
				Kind: EventDestroy, Actor: self, Target: t, X: x, Y: y,
				Text: fmt.Sprintf("%s is destroyed!", tg.label()),
			})
		}
		b.Cooldown = a.cfg.AttackCooldown
		return
	}
	b.Cooldown = a.cfg.AttackCooldown
	a.record(Event{
		Kind: EventMiss, Actor: self, Target: -1, X: b.X, Y: b.Y,
		Text: fmt.Sprintf("%s fires and misses.", b.label()),
	})
}

// AttackScan fires toward the last scan result, if there is one.
func (a *Arena) AttackScan(self int) {
	if d := a.agents[self].ScanDir; d.Valid() {
		a.Attack(self, d)
	}
}

// Scan records the distance and heading of the nearest living agent within
// scan range. Equal distances resolve to the lowest identity.
func (a *Arena) Scan(self int) {
	b := &a.agents[self]
	best, dir := 0, grid.None
	for i := range a.agents {
		if i == self {
			continue
		}
		o := &a.agents[i]
		if !o.Alive {
			continue
		}
		d := grid.Chebyshev(b.X, b.Y, o.X, o.Y)
		if d == 0 || d > a.cfg.ScanRange {
			continue
		}
		if best == 0 || d < best {
			best = d
			dir = grid.Toward(o.X-b.X, o.Y-b.Y)
		}
	}
	b.ScanDist = best
	b.ScanDir = dir
}

// TurnTowardScan faces the last scan heading; no-op without one.
func (a *Arena) TurnTowardScan(self int) {
	if d := a.agents[self].ScanDir; d.Valid() {
		a.Turn(self, d)
	}
}

// TurnAwayFromScan faces directly away from the last scan heading.
func (a *Arena) TurnAwayFromScan(self int) {
	if d := a.agents[self].ScanDir; d.Valid() {
		a.Turn(self, d.Opposite())
	}
}

// Signal broadcasts value from self's position for the rest of the turn.
// Other agents only learn that a signal is near, never its value.
func (a *Arena) Signal(self, value int) {
	b := &a.agents[self]
	b.Signal = value
	a.signals = append(a.signals, Pos{X: b.X, Y: b.Y})
	a.record(Event{Kind: EventSignal, Actor: self, Target: -1, X: b.X, Y: b.Y, Value: value,
		Text: fmt.Sprintf("%s signals %d", b.label(), value)})
}

// HasSignalNearby reports a signal this turn within Chebyshev radius.
func (a *Arena) HasSignalNearby(self, radius int) bool {
	b := &a.agents[self]
	for _, p := range a.signals {
		if grid.Chebyshev(b.X, b.Y, p.X, p.Y) <= radius {
			return true
		}
	}
	return false
}

// EnemyAdjacent reports a living agent on the neighbouring cell in dir.
func (a *Arena) EnemyAdjacent(self int, d grid.Direction) bool {
	if !d.Valid() {
		return false
	}
	b := &a.agents[self]
	ox, oy := d.Offset()
	t := a.AgentAt(b.X+ox, b.Y+oy)
	return t != -1 && t != self
}

// EdgeDistance is the number of cells between self and the nearest wall.
func (a *Arena) EdgeDistance(self int) int {
	b := &a.agents[self]
	return min(b.X, a.cfg.Width-1-b.X, b.Y, a.cfg.Height-1-b.Y)
}
