package arena

import (
	"testing"

	"botarena.ai/internal/sim/grid"
	"botarena.ai/internal/sim/tuning"
)

func newTestArena(t *testing.T) *Arena {
	t.Helper()
	return New(ConfigFrom(tuning.Defaults(), 42))
}

func TestScan_TieBreaksOnLowestIdentity(t *testing.T) {
	a := newTestArena(t)
	a.AddAgent("self", 5, 5)  // 0
	a.AddAgent("far", 0, 0)   // 1: distance 5
	a.AddAgent("east", 8, 5)  // 2: distance 3
	a.AddAgent("dead", 6, 5)  // 3: distance 1 but dead
	a.AddAgent("far2", 11, 0) // 4: distance 6
	a.AddAgent("north", 5, 2) // 5: distance 3
	dead := a.Agent(3)
	dead.Alive = false
	dead.HP = 0
	a.Replace(3, dead)

	a.Scan(0)
	got := a.Agent(0)
	if got.ScanDist != 3 || got.ScanDir != grid.East {
		t.Fatalf("scan=(%d,%v) want (3,E) from identity 2", got.ScanDist, got.ScanDir)
	}
}

func TestScan_NothingInRange(t *testing.T) {
	a := New(Config{Width: 12, Height: 12, StartHP: 5, AttackRange: 4, AttackCooldown: 2, ScanRange: 2})
	a.AddAgent("self", 0, 0)
	a.AddAgent("far", 9, 9)
	a.Scan(0)
	if got := a.Agent(0); got.ScanDist != 0 || got.ScanDir != grid.None {
		t.Fatalf("scan=(%d,%v) want (0,NONE)", got.ScanDist, got.ScanDir)
	}
}

func TestAttack_CooldownGuard(t *testing.T) {
	a := newTestArena(t)
	a.AddAgent("shooter", 2, 2)
	a.AddAgent("target", 5, 2)

	a.Attack(0, grid.East)
	if got := a.Agent(1).HP; got != 4 {
		t.Fatalf("target hp=%d want 4", got)
	}
	if got := a.Agent(0).Cooldown; got != a.Config().AttackCooldown {
		t.Fatalf("cooldown=%d want %d", got, a.Config().AttackCooldown)
	}

	// Firing again while cooling down is a complete no-op.
	a.StartTurn()
	a.Attack(0, grid.East)
	if got := a.Agent(1).HP; got != 4 {
		t.Fatalf("attack on cooldown landed: hp=%d", got)
	}
	if got := a.Agent(0).Cooldown; got != 1 {
		t.Fatalf("cooldown refreshed by rejected attack: %d", got)
	}

	a.StartTurn()
	if got := a.Agent(0).Cooldown; got != 0 {
		t.Fatalf("cooldown=%d want 0", got)
	}
	a.Attack(0, grid.East)
	if got := a.Agent(1).HP; got != 3 {
		t.Fatalf("target hp=%d want 3", got)
	}
}

func TestAttack_MissStillCoolsDown(t *testing.T) {
	a := newTestArena(t)
	a.AddAgent("shooter", 2, 2)
	a.AddAgent("out of range", 7, 2) // five cells away, range is four

	var lines []string
	a.SetLogger(func(s string) { lines = append(lines, s) })
	a.Attack(0, grid.East)
	if a.Agent(1).HP != 5 {
		t.Fatalf("target outside range was hit")
	}
	if a.Agent(0).Cooldown != 2 {
		t.Fatalf("miss did not incur cooldown")
	}
	if len(lines) != 1 || lines[0] != "shooter fires and misses." {
		t.Fatalf("log=%q", lines)
	}
}

func TestAttack_KillsAtZeroAndHitsOnlyFirst(t *testing.T) {
	a := newTestArena(t)
	a.AddAgent("shooter", 0, 0)
	a.AddAgent("front", 1, 1)
	a.AddAgent("back", 2, 2)
	front := a.Agent(1)
	front.HP = 1
	a.Replace(1, front)

	a.Attack(0, grid.SouthEast)
	if a.Agent(1).Alive || a.Agent(1).HP != 0 {
		t.Fatalf("front should be dead: %+v", a.Agent(1))
	}
	if a.Agent(2).HP != 5 {
		t.Fatalf("shot passed through first target")
	}
	kinds := []EventKind{}
	for _, e := range a.Events() {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) != 2 || kinds[0] != EventHit || kinds[1] != EventDestroy {
		t.Fatalf("events=%v", kinds)
	}
	if n, first := a.AliveCount(); n != 2 || first != 0 {
		t.Fatalf("AliveCount=(%d,%d)", n, first)
	}
}

func TestMove_StopsWhenBlocked(t *testing.T) {
	a := newTestArena(t)
	a.AddAgent("mover", 2, 5) // faces east
	a.AddAgent("wall", 4, 5)

	a.Move(0, 3)
	if got := a.Agent(0); got.X != 3 || got.Y != 5 {
		t.Fatalf("mover at (%d,%d) want (3,5)", got.X, got.Y)
	}
}

func TestMove_StopsAtBoardEdge(t *testing.T) {
	a := newTestArena(t)
	a.AddAgent("mover", 1, 1)
	a.Turn(0, grid.NorthWest)
	var lines []string
	a.SetLogger(func(s string) { lines = append(lines, s) })
	a.Move(0, 5)
	if got := a.Agent(0); got.X != 0 || got.Y != 0 {
		t.Fatalf("mover at (%d,%d) want (0,0)", got.X, got.Y)
	}
	if len(lines) != 1 || lines[0] != "mover moves to A1" {
		t.Fatalf("log=%q", lines)
	}
	a.Move(0, 1)
	if len(lines) != 1 {
		t.Fatalf("blocked move was logged: %q", lines)
	}
}

func TestStartTurn_DamageFlagReflectsPreviousTurn(t *testing.T) {
	a := newTestArena(t)
	a.AddAgent("shooter", 0, 5)
	a.AddAgent("target", 3, 5)

	a.StartTurn()
	a.Attack(0, grid.East)
	if a.Agent(1).Damaged {
		t.Fatalf("damage flag set before the next StartTurn")
	}
	a.StartTurn()
	if !a.Agent(1).Damaged {
		t.Fatalf("damage from previous turn not flagged")
	}
	a.StartTurn()
	if a.Agent(1).Damaged {
		t.Fatalf("damage flag should clear after an undamaged turn")
	}
}

func TestSignal_VisibleOnlyThisTurn(t *testing.T) {
	a := newTestArena(t)
	a.AddAgent("caller", 2, 2)
	a.AddAgent("near", 4, 3)
	a.AddAgent("far", 10, 10)

	a.StartTurn()
	a.Signal(0, 7)
	if a.Agent(0).Signal != 7 {
		t.Fatalf("signal value not stored")
	}
	if !a.HasSignalNearby(1, 2) {
		t.Fatalf("signal at distance 2 not seen with radius 2")
	}
	if a.HasSignalNearby(1, 1) {
		t.Fatalf("signal at distance 2 seen with radius 1")
	}
	if a.HasSignalNearby(2, 5) {
		t.Fatalf("far agent heard signal")
	}
	a.StartTurn()
	if a.HasSignalNearby(1, 2) || a.Agent(0).Signal != -1 {
		t.Fatalf("signal survived StartTurn")
	}
}

func TestTurnAwayAndEdgeDistance(t *testing.T) {
	a := newTestArena(t)
	a.AddAgent("self", 1, 6)
	a.AddAgent("other", 1, 3)
	a.Scan(0)
	a.TurnAwayFromScan(0)
	if got := a.Agent(0).Facing; got != grid.South {
		t.Fatalf("facing=%v want S", got)
	}
	if got := a.EdgeDistance(0); got != 1 {
		t.Fatalf("EdgeDistance=%d want 1", got)
	}
	if a.EnemyAdjacent(0, grid.North) {
		t.Fatalf("EnemyAdjacent reported a gap as occupied")
	}
	other := a.Agent(1)
	other.Y = 5
	a.Replace(1, other)
	if !a.EnemyAdjacent(0, grid.North) {
		t.Fatalf("EnemyAdjacent missed neighbour at (1,5)")
	}
}

func TestRandomDirection_DeterministicPerTurn(t *testing.T) {
	draw := func() []grid.Direction {
		a := newTestArena(t)
		var out []grid.Direction
		for turn := 0; turn < 5; turn++ {
			a.StartTurn()
			out = append(out, a.RandomDirection(), a.RandomDirection())
		}
		return out
	}
	x, y := draw(), draw()
	if len(x) != len(y) {
		t.Fatal("length mismatch")
	}
	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("draw %d differs: %v vs %v", i, x[i], y[i])
		}
		if !x[i].Valid() {
			t.Fatalf("invalid direction drawn: %v", x[i])
		}
	}
}
