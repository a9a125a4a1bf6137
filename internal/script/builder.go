package script

import (
	"errors"
	"fmt"

	"botarena.ai/internal/sim/grid"
)

// ErrUnclosedBlock is returned by Finalize when a conditional block was
// opened but never ended.
var ErrUnclosedBlock = errors.New("script: unclosed conditional block")

// Builder assembles a Program in a single pass. Conditional blocks emit a
// JUMP_IF_FALSE with a placeholder target that is patched when the block (or
// its else branch) closes, so no second pass is needed.
type Builder struct {
	name  string
	code  []int
	cost  int
	ctx   []blockCtx
	final bool
}

// blockCtx is the pending-patch record of one open conditional.
type blockCtx struct {
	jumpIfFalse int // index of the JUMP_IF_FALSE operand
	jumpToEnd   int // index of the else-skipping JUMP operand, -1 if no else
}

func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

func (b *Builder) emit(op Opcode, args ...int) {
	if b.final {
		panic("script: emit after Finalize")
	}
	b.code = append(b.code, int(op))
	b.code = append(b.code, args...)
	b.cost += costOf(op, firstOr(args, 0))
}

func (b *Builder) Wait()                   { b.emit(OpWait) }
func (b *Builder) Move(n int)              { b.emit(OpMove, n) }
func (b *Builder) Turn(d grid.Direction)   { b.emit(OpTurn, int(d)) }
func (b *Builder) Attack(d grid.Direction) { b.emit(OpAttack, int(d)) }
func (b *Builder) AttackScan()             { b.emit(OpAttackScan) }
func (b *Builder) Signal(v int)            { b.emit(OpSignal, v) }
func (b *Builder) Scan()                   { b.emit(OpScan) }
func (b *Builder) TurnScan()               { b.emit(OpTurnScan) }
func (b *Builder) TurnAway()               { b.emit(OpTurnAway) }
func (b *Builder) TurnRandom()             { b.emit(OpTurnRandom) }
func (b *Builder) Cost() int               { return b.cost }
func (b *Builder) Depth() int              { return len(b.ctx) }

// Block is the handle of one open conditional. End must be called exactly
// once; Else at most once, before End.
type Block struct {
	b     *Builder
	depth int
	done  bool
}

// Begin opens a conditional block on cond with operand arg.
func (b *Builder) Begin(cond Opcode, arg int) *Block {
	if !cond.IsCondition() {
		panic(fmt.Sprintf("script: %v is not a condition", cond))
	}
	b.emit(cond, arg)
	b.emit(OpJumpIfFalse, 0)
	b.ctx = append(b.ctx, blockCtx{jumpIfFalse: len(b.code) - 1, jumpToEnd: -1})
	return &Block{b: b, depth: len(b.ctx)}
}

func (blk *Block) top() *blockCtx {
	b := blk.b
	if blk.done || len(b.ctx) != blk.depth {
		panic("script: conditional blocks closed out of order")
	}
	return &b.ctx[len(b.ctx)-1]
}

// Else ends the success branch: it emits a JUMP over the else body and points
// the pending JUMP_IF_FALSE at the first else instruction.
func (blk *Block) Else() {
	ctx := blk.top()
	if ctx.jumpToEnd != -1 {
		panic("script: duplicate else")
	}
	b := blk.b
	b.emit(OpJump, 0)
	ctx.jumpToEnd = len(b.code) - 1
	b.code[ctx.jumpIfFalse] = len(b.code)
}

// End closes the block, patching the outstanding jump to the current end of
// the buffer.
func (blk *Block) End() {
	ctx := blk.top()
	b := blk.b
	if ctx.jumpToEnd == -1 {
		b.code[ctx.jumpIfFalse] = len(b.code)
	} else {
		b.code[ctx.jumpToEnd] = len(b.code)
	}
	b.ctx = b.ctx[:len(b.ctx)-1]
	blk.done = true
}

// If emits then under cond. The block is closed when then returns.
func (b *Builder) If(cond Opcode, arg int, then func()) {
	blk := b.Begin(cond, arg)
	defer blk.End()
	then()
}

// IfElse emits then under cond and otherwise when cond is false.
func (b *Builder) IfElse(cond Opcode, arg int, then, otherwise func()) {
	blk := b.Begin(cond, arg)
	defer blk.End()
	then()
	blk.Else()
	otherwise()
}

// Finalize appends END and seals the builder.
func (b *Builder) Finalize() (Program, error) {
	if len(b.ctx) != 0 {
		return Program{}, fmt.Errorf("%w: %d open in %q", ErrUnclosedBlock, len(b.ctx), b.name)
	}
	b.emit(OpEnd)
	b.final = true
	return Program{name: b.name, code: b.code, cost: b.cost}, nil
}

func firstOr(v []int, def int) int {
	if len(v) == 0 {
		return def
	}
	return v[0]
}
