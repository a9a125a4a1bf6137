package script

import (
	"errors"
	"reflect"
	"testing"

	"botarena.ai/internal/sim/grid"
)

func TestBuilder_IfPatchesToEndOfBlock(t *testing.T) {
	p, err := Builtin(Pusher)
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	want := []int{
		int(OpScan),
		int(OpIfSeen), 0,
		int(OpJumpIfFalse), 7,
		int(OpTurnScan),
		int(OpAttackScan),
		int(OpMove), 1,
		int(OpSignal), 1,
		int(OpEnd),
	}
	if got := p.Code(); !reflect.DeepEqual(got, want) {
		t.Fatalf("code mismatch:\n got %v\nwant %v", got, want)
	}
	if p.Cost() != 8 {
		t.Fatalf("cost=%d want 8", p.Cost())
	}
}

func TestBuilder_ElseLowering(t *testing.T) {
	p, err := Builtin(Shy)
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	want := []int{
		int(OpScan),
		int(OpIfScanLE), 5,
		int(OpJumpIfFalse), 12, // start of else body
		int(OpTurnAway),
		int(OpMove), 2,
		int(OpSignal), 2,
		int(OpJump), 14, // skip else body
		int(OpMove), 1,
		int(OpEnd),
	}
	if got := p.Code(); !reflect.DeepEqual(got, want) {
		t.Fatalf("code mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestBuilder_Costs(t *testing.T) {
	want := map[Kind]int{Pusher: 8, Kamikaze: 12, Shy: 9, Hunter: 18}
	for k, c := range want {
		p, err := Builtin(k)
		if err != nil {
			t.Fatalf("Builtin(%v): %v", k, err)
		}
		if p.Cost() != c {
			t.Fatalf("%v cost=%d want %d", k, p.Cost(), c)
		}
		if p.OverBudget(20) {
			t.Fatalf("%v unexpectedly over budget", k)
		}
	}
}

// buildNested emits depth levels of nested conditionals, alternating plain
// and else blocks, with a move in every body.
func buildNested(b *Builder, depth int) {
	if depth == 0 {
		b.Move(1)
		return
	}
	if depth%2 == 0 {
		b.If(OpIfHPLE, depth, func() {
			b.Turn(grid.East)
			buildNested(b, depth-1)
		})
		b.Wait()
		return
	}
	b.IfElse(OpIfTurnLess, depth, func() {
		buildNested(b, depth-1)
	}, func() {
		b.Attack(grid.North)
		buildNested(b, depth-1)
	})
}

func TestBuilder_NestedJumpTargetsAreForwardAndInRange(t *testing.T) {
	for depth := 1; depth <= 8; depth++ {
		b := NewBuilder("nested")
		buildNested(b, depth)
		if b.Depth() != 0 {
			t.Fatalf("depth %d: %d blocks left open", depth, b.Depth())
		}
		p, err := b.Finalize()
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		starts := map[int]bool{}
		for _, in := range p.Instructions() {
			starts[in.Index] = true
		}
		lastCond := -1
		jumps := 0
		for _, in := range p.Instructions() {
			if in.Op.IsCondition() {
				lastCond = in.Index
			}
			if !in.Op.IsJump() {
				continue
			}
			jumps++
			if in.Operand < 0 || in.Operand >= p.Len() {
				t.Fatalf("depth %d: %v at %d targets %d outside [0,%d)", depth, in.Op, in.Index, in.Operand, p.Len())
			}
			if in.Operand <= in.Index || in.Operand <= lastCond {
				t.Fatalf("depth %d: %v at %d jumps backward to %d", depth, in.Op, in.Index, in.Operand)
			}
			if !starts[in.Operand] {
				t.Fatalf("depth %d: jump at %d lands mid-instruction (%d)", depth, in.Index, in.Operand)
			}
		}
		if jumps == 0 {
			t.Fatalf("depth %d: no jumps emitted", depth)
		}
		if last, _ := p.Word(p.Len() - 1); Opcode(last) != OpEnd {
			t.Fatalf("program not terminated by END")
		}
	}
}

func TestBuilder_FinalizeRejectsOpenBlock(t *testing.T) {
	b := NewBuilder("open")
	b.Begin(OpIfSeen, 0)
	if _, err := b.Finalize(); !errors.Is(err, ErrUnclosedBlock) {
		t.Fatalf("Finalize err=%v want ErrUnclosedBlock", err)
	}
}

func TestBuilder_OutOfOrderEndPanics(t *testing.T) {
	b := NewBuilder("bad")
	outer := b.Begin(OpIfSeen, 0)
	b.Begin(OpIfDamaged, 0)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on out-of-order End")
		}
	}()
	outer.End()
}

func TestBuilder_OverBudgetIsNotAnError(t *testing.T) {
	b := NewBuilder("greedy")
	b.Move(11)
	p, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !p.OverBudget(20) || p.Cost() != 22 {
		t.Fatalf("cost=%d, want 22 and over budget", p.Cost())
	}
}
