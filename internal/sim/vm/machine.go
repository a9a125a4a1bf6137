// Package vm executes compiled bot programs against an arena.
package vm

import (
	"botarena.ai/internal/script"
	"botarena.ai/internal/sim/arena"
	"botarena.ai/internal/sim/grid"
)

// DefaultStepLimit bounds a single run when the caller passes no limit.
const DefaultStepLimit = 4096

// Machine runs one agent's program. It holds the arena by reference and never
// owns it.
type Machine struct {
	arena     *arena.Arena
	prog      script.Program
	id        int
	stepLimit int
}

func New(a *arena.Arena, prog script.Program, id int, stepLimit int) *Machine {
	if stepLimit <= 0 {
		stepLimit = DefaultStepLimit
	}
	return &Machine{arena: a, prog: prog, id: id, stepLimit: stepLimit}
}

func (m *Machine) ID() int                 { return m.id }
func (m *Machine) Program() script.Program { return m.prog }

// Run executes the program once from the top. turn is the 1-based number of
// the turn being played. It returns the number of instructions executed.
//
// The run stops on END, an unknown opcode, a missing operand, a jump outside
// the buffer, the agent dying mid-program or the step limit.
func (m *Machine) Run(turn int) int {
	pc, flag := 0, false
	steps := 0
	for ; steps < m.stepLimit; steps++ {
		if !m.arena.Alive(m.id) {
			return steps
		}
		w, ok := m.prog.Word(pc)
		if !ok {
			return steps
		}
		op := script.Opcode(w)
		if !op.Known() || op == script.OpEnd {
			return steps
		}
		arg := 0
		if op.Arity() == 1 {
			if arg, ok = m.prog.Word(pc + 1); !ok {
				return steps
			}
		}
		next := pc + 1 + op.Arity()

		switch {
		case op.IsJump():
			if op == script.OpJump || !flag {
				if arg < 0 || arg >= m.prog.Len() {
					return steps
				}
				next = arg
			}
		case op.IsCondition():
			flag = m.test(op, arg, turn)
		default:
			m.act(op, arg)
		}
		pc = next
	}
	return steps
}

func (m *Machine) act(op script.Opcode, arg int) {
	a, id := m.arena, m.id
	switch op {
	case script.OpWait:
	case script.OpMove:
		a.Move(id, arg)
	case script.OpTurn:
		a.Turn(id, grid.Direction(arg))
	case script.OpAttack:
		a.Attack(id, grid.Direction(arg))
	case script.OpSignal:
		a.Signal(id, arg)
	case script.OpAttackScan:
		a.AttackScan(id)
	case script.OpScan:
		a.Scan(id)
	case script.OpTurnScan:
		a.TurnTowardScan(id)
	case script.OpTurnAway:
		a.TurnAwayFromScan(id)
	case script.OpTurnRandom:
		a.TurnRandom(id)
	}
}

func (m *Machine) test(op script.Opcode, arg, turn int) bool {
	a, id := m.arena, m.id
	self := a.Agent(id)
	switch op {
	case script.OpIfEnemy:
		return a.EnemyAdjacent(id, grid.Direction(arg))
	case script.OpIfTurnLess:
		return turn < arg
	case script.OpIfSeen:
		return self.ScanDist > 0
	case script.OpIfScanLE:
		return self.ScanDist > 0 && self.ScanDist <= arg
	case script.OpIfNearSignal:
		return a.HasSignalNearby(id, arg)
	case script.OpIfDamaged:
		return self.Damaged
	case script.OpIfHPLE:
		return self.HP <= arg
	case script.OpIfCanAttack:
		return self.Cooldown == 0
	case script.OpIfNearEdge:
		return a.EdgeDistance(id) <= arg
	}
	return false
}
