package match

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"botarena.ai/internal/script"
	"botarena.ai/internal/sim/arena"
	"botarena.ai/internal/sim/grid"
	"botarena.ai/internal/sim/tuning"
)

func roster(t *testing.T) []script.Program {
	t.Helper()
	progs, err := script.BuiltinRoster()
	if err != nil {
		t.Fatalf("BuiltinRoster: %v", err)
	}
	return progs
}

func newMatch(t *testing.T, seed int64, progs []script.Program) *Controller {
	t.Helper()
	c := New(Config{MatchID: "test", Tuning: tuning.Defaults(), Seed: seed})
	if err := c.Initialize(progs); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c
}

func program(t *testing.T, name string, fn func(b *script.Builder)) script.Program {
	t.Helper()
	b := script.NewBuilder(name)
	fn(b)
	p, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return p
}

func TestInitialize_PlacesAgentsOnDistinctInteriorSpawns(t *testing.T) {
	c := newMatch(t, 7, roster(t))
	seen := map[arena.Pos]bool{}
	for i, ag := range c.Agents() {
		p := arena.Pos{X: ag.X, Y: ag.Y}
		if seen[p] {
			t.Fatalf("agent %d shares spawn %v", i, p)
		}
		seen[p] = true
		if ag.X%3 != 1 || ag.Y%2 != 1 || ag.X >= 11 || ag.Y >= 11 {
			t.Fatalf("agent %d spawned off the lattice at %v", i, p)
		}
		if ag.HP != 5 || !ag.Alive || ag.Facing != grid.East {
			t.Fatalf("agent %d initial state: %+v", i, ag)
		}
	}
	if c.Phase() != PhaseRunning || c.QueryOutcome().Status != Ongoing {
		t.Fatalf("phase=%v outcome=%v", c.Phase(), c.QueryOutcome().Status)
	}
}

func TestInitialize_ReportsScriptCost(t *testing.T) {
	over := script.NewProgram("Greedy", []int{int(script.OpWait), int(script.OpEnd)}, 25)
	var lines []string
	c := New(Config{Tuning: tuning.Defaults(), Seed: 1})
	c.SetLogger(func(s string) { lines = append(lines, s) })
	if err := c.Initialize(append(roster(t)[:1], over)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	want := []string{"Pusher script cost 8/20", "Greedy script cost 25/20 (EXCEEDS LIMIT)"}
	if len(lines) != 2 || lines[0] != want[0] || lines[1] != want[1] {
		t.Fatalf("lines=%q want %q", lines, want)
	}
}

func TestInitialize_Errors(t *testing.T) {
	c := newMatch(t, 1, roster(t))
	if err := c.Initialize(roster(t)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Initialize err=%v", err)
	}

	progs := make([]script.Program, len(SpawnPoints(12, 12))+1)
	for i := range progs {
		progs[i] = roster(t)[0]
	}
	c2 := New(Config{Tuning: tuning.Defaults(), Seed: 1})
	if err := c2.Initialize(progs); !errors.Is(err, ErrTooManyAgents) {
		t.Fatalf("oversized roster err=%v", err)
	}
	if c2.Phase() != PhaseSetup {
		t.Fatalf("failed Initialize left phase %v", c2.Phase())
	}
}

func TestSpawnPoints_DefaultBoard(t *testing.T) {
	got := SpawnPoints(12, 12)
	if len(got) != 20 {
		t.Fatalf("len=%d want 20", len(got))
	}
	if got[0] != (arena.Pos{X: 1, Y: 1}) || got[len(got)-1] != (arena.Pos{X: 10, Y: 9}) {
		t.Fatalf("first=%v last=%v", got[0], got[len(got)-1])
	}
}

func TestAdvanceTurn_DeterministicForSeed(t *testing.T) {
	a := newMatch(t, 1234, roster(t))
	b := newMatch(t, 1234, roster(t))
	for i := 0; i < 40; i++ {
		a.AdvanceTurn()
		b.AdvanceTurn()
		if a.Serialize() != b.Serialize() {
			t.Fatalf("turn %d diverged:\n%s\n%s", i+1, a.Serialize(), b.Serialize())
		}
		if a.Digest() != b.Digest() {
			t.Fatalf("turn %d digest diverged", i+1)
		}
	}
}

func TestAdvanceTurn_FullMatchAlwaysTerminates(t *testing.T) {
	for seed := int64(0); seed < 8; seed++ {
		c := newMatch(t, seed, roster(t))
		for i := 0; i < 40; i++ {
			c.AdvanceTurn()
		}
		o := c.QueryOutcome()
		if o.Status == Ongoing || c.Phase() != PhaseEnded {
			t.Fatalf("seed %d: still ongoing after 40 turns", seed)
		}
		if o.Status == Won && (o.Winner < 0 || o.WinnerName == "") {
			t.Fatalf("seed %d: bad winner %+v", seed, o)
		}
		turn, state := c.Turn(), c.Serialize()
		c.AdvanceTurn()
		if c.Turn() != turn || c.Serialize() != state {
			t.Fatalf("seed %d: AdvanceTurn changed an ended match", seed)
		}
	}
}

func TestAdvanceTurn_MaxTurnsDraw(t *testing.T) {
	idle := program(t, "Idle", func(b *script.Builder) { b.Wait() })
	var lines []string
	c := New(Config{Tuning: tuning.Defaults(), Seed: 3})
	c.SetLogger(func(s string) { lines = append(lines, s) })
	if err := c.Initialize([]script.Program{idle, idle}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 39; i++ {
		c.AdvanceTurn()
	}
	if c.QueryOutcome().Status != Ongoing {
		t.Fatalf("ended early at turn %d", c.Turn())
	}
	c.AdvanceTurn()
	if c.QueryOutcome().Status != Draw || c.Turn() != 40 {
		t.Fatalf("outcome=%v turn=%d", c.QueryOutcome().Status, c.Turn())
	}
	if last := lines[len(lines)-1]; last != "Draw: maximum turns reached." {
		t.Fatalf("last log line %q", last)
	}
}

type memTurnLog struct{ entries []TurnLogEntry }

func (m *memTurnLog) WriteTurn(e TurnLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestAdvanceTurn_DestroyedAgentDoesNotAct(t *testing.T) {
	shooter := program(t, "Shooter", func(b *script.Builder) { b.Attack(grid.East) })
	caller := program(t, "Caller", func(b *script.Builder) { b.Signal(9) })
	c := newMatch(t, 1, []script.Program{shooter, caller})
	if err := c.Deserialize("0;1,1,5,1,1;2,1,1,1,3;"); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	tl := &memTurnLog{}
	c.SetTurnLogger(tl)

	c.AdvanceTurn()
	var kinds []string
	for _, e := range c.Events() {
		kinds = append(kinds, string(e.Kind))
	}
	if got := strings.Join(kinds, ","); got != "HIT,DESTROY,WIN" {
		t.Fatalf("events=%s", got)
	}
	o := c.QueryOutcome()
	if o.Status != Won || o.Winner != 0 || o.WinnerName != "Shooter" {
		t.Fatalf("outcome=%+v", o)
	}
	if len(tl.entries) != 1 {
		t.Fatalf("turn log entries=%d", len(tl.entries))
	}
	e := tl.entries[0]
	if e.Turn != 1 || e.Alive != 1 || e.Outcome != "winner" || e.State != c.Serialize() || e.Digest != c.Digest() {
		t.Fatalf("turn log entry=%+v", e)
	}
}

func TestSerialize_Format(t *testing.T) {
	c := newMatch(t, 1, roster(t)[:2])
	if err := c.Deserialize("3;0,0,5,1,0;11,11,0,0,7;"); err != nil {
		t.Fatal(err)
	}
	if got, want := c.Serialize(), "3;0,0,5,1,0;11,11,0,0,7;"; got != want {
		t.Fatalf("Serialize=%q want %q", got, want)
	}
}

func TestDeserialize_RoundTrip(t *testing.T) {
	src := newMatch(t, 55, roster(t))
	for i := 0; i < 6; i++ {
		src.AdvanceTurn()
	}
	state := src.Serialize()

	dst := newMatch(t, 99, roster(t))
	if err := dst.Deserialize(state); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got := dst.Serialize(); got != state {
		t.Fatalf("round trip:\n got=%s\nwant=%s", got, state)
	}
	if dst.Turn() != 6 {
		t.Fatalf("turn=%d want 6", dst.Turn())
	}
	for i, ag := range dst.Agents() {
		if ag.LastHP != ag.HP || ag.Damaged {
			t.Fatalf("agent %d carries stale damage: %+v", i, ag)
		}
	}
}

func TestDeserialize_RejectsMalformedAtomically(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		isErr error
	}{
		{"non-numeric turn", "x;1,1,5,1,0;", strconv.ErrSyntax},
		{"non-numeric field", "2;1,1,5,1,0;1,q,5,1,0;", strconv.ErrSyntax},
		{"short record", "2;1,1,5,1,0;1,1,5,1;", nil},
		{"long record", "2;1,1,5,1,0,9;", nil},
		{"empty record", "2;;1,1,5,1,0;", nil},
		{"out of bounds", "2;12,0,5,1,0;", nil},
		{"negative position", "2;0,-1,5,1,0;", nil},
		{"bad facing", "2;1,1,5,1,8;", nil},
		{"none facing", "2;1,1,5,1,-1;", nil},
		{"alive without hp", "2;1,1,0,1,0;", nil},
		{"bad alive flag", "2;1,1,3,2,0;", nil},
		{"negative turn", "-1;1,1,5,1,0;", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newMatch(t, 5, roster(t))
			c.AdvanceTurn()
			before, digest := c.Serialize(), c.Digest()

			err := c.Deserialize(tc.in)
			if !errors.Is(err, ErrMalformedState) {
				t.Fatalf("err=%v want ErrMalformedState", err)
			}
			if tc.isErr != nil && !errors.Is(err, tc.isErr) {
				t.Fatalf("err=%v does not wrap %v", err, tc.isErr)
			}
			if c.Serialize() != before || c.Digest() != digest {
				t.Fatalf("failed Deserialize changed state")
			}
		})
	}
}

func TestDeserialize_PartialAndExtraRecords(t *testing.T) {
	c := newMatch(t, 5, roster(t))
	before := c.Agents()

	if err := c.Deserialize("4;0,0,2,1,2;"); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	after := c.Agents()
	if a := after[0]; a.X != 0 || a.Y != 0 || a.HP != 2 || a.Facing != grid.South {
		t.Fatalf("agent 0 not restored: %+v", a)
	}
	for i := 1; i < len(after); i++ {
		if after[i] != before[i] {
			t.Fatalf("agent %d changed without a record", i)
		}
	}

	extra := "1;0,0,5,1,0;3,0,5,1,0;6,0,5,1,0;9,0,5,1,0;11,11,5,1,0;garbage"
	if err := c.Deserialize(extra); err != nil {
		t.Fatalf("extra records should be ignored: %v", err)
	}
}

func TestDeserialize_ReevaluatesOutcome(t *testing.T) {
	c := newMatch(t, 5, roster(t))
	if err := c.Deserialize("7;1,1,3,1,0;4,1,0,0,0;7,1,0,0,0;10,1,0,0,0;"); err != nil {
		t.Fatal(err)
	}
	if o := c.QueryOutcome(); o.Status != Won || o.Winner != 0 {
		t.Fatalf("outcome=%+v want winner 0", o)
	}
	if c.Phase() != PhaseEnded {
		t.Fatalf("phase=%v", c.Phase())
	}

	// Loading a live position re-enters the running phase.
	if err := c.Deserialize("7;1,1,3,1,0;4,1,2,1,0;"); err != nil {
		t.Fatal(err)
	}
	if c.Phase() != PhaseRunning || c.QueryOutcome().Status != Ongoing {
		t.Fatalf("phase=%v outcome=%v", c.Phase(), c.QueryOutcome().Status)
	}

	if err := c.Deserialize("40;1,1,3,1,0;4,1,2,1,0;"); err != nil {
		t.Fatal(err)
	}
	if c.QueryOutcome().Status != Draw {
		t.Fatalf("turn 40 with two survivors should be a draw")
	}
}

func TestDeserialize_BeforeInitialize(t *testing.T) {
	c := New(Config{Tuning: tuning.Defaults()})
	if err := c.Deserialize("0;"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("err=%v", err)
	}
}

func TestReset_ReturnsToSetup(t *testing.T) {
	c := newMatch(t, 1, roster(t))
	c.AdvanceTurn()
	c.Reset()
	if c.Phase() != PhaseSetup || c.Turn() != 0 || c.Agents() != nil {
		t.Fatalf("Reset left phase=%v turn=%d agents=%d", c.Phase(), c.Turn(), len(c.Agents()))
	}
	if got := c.Serialize(); got != "0;" {
		t.Fatalf("Serialize after Reset=%q", got)
	}
	c.AdvanceTurn()
	if err := c.Initialize(roster(t)); err != nil {
		t.Fatalf("Initialize after Reset: %v", err)
	}
}
