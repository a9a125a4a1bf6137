package script

import "fmt"

// Opcode is a single instruction tag in a compiled Program.
type Opcode int

const (
	// Actions.
	OpWait Opcode = iota
	OpMove
	OpTurn
	OpAttack
	OpSignal
	OpAttackScan
	OpScan
	OpTurnScan
	OpTurnAway
	OpTurnRandom

	// Conditions. Each sets the flag register and carries one operand
	// (a zero placeholder for the argument-less ones).
	OpIfEnemy
	OpIfTurnLess
	OpIfSeen
	OpIfScanLE
	OpIfNearSignal
	OpIfDamaged
	OpIfHPLE
	OpIfCanAttack
	OpIfNearEdge

	// Flow control.
	OpJumpIfFalse
	OpJump
	OpEnd
)

type opcodeInfo struct {
	Name  string
	Arity int
	Cost  int // compile-time cost; MOVE is scaled by its operand
}

var opcodeTable = map[Opcode]opcodeInfo{
	OpWait:       {"WAIT", 0, CostWait},
	OpMove:       {"MOVE", 1, CostMove},
	OpTurn:       {"TURN", 1, CostTurn},
	OpAttack:     {"ATTACK", 1, CostAttack},
	OpSignal:     {"SIGNAL", 1, CostSignal},
	OpAttackScan: {"ATTACK_SCAN", 0, CostAttack},
	OpScan:       {"SCAN", 0, CostScan},
	OpTurnScan:   {"TURN_SCAN", 0, CostTurn},
	OpTurnAway:   {"TURN_AWAY", 0, CostTurn},
	OpTurnRandom: {"TURN_RANDOM", 0, CostTurn},

	OpIfEnemy:      {"IF_ENEMY", 1, 0},
	OpIfTurnLess:   {"IF_TURN_LT", 1, 0},
	OpIfSeen:       {"IF_SEEN", 1, 0},
	OpIfScanLE:     {"IF_SCAN_LE", 1, 0},
	OpIfNearSignal: {"IF_NEAR_SIGNAL", 1, 0},
	OpIfDamaged:    {"IF_DAMAGED", 1, 0},
	OpIfHPLE:       {"IF_HP_LE", 1, 0},
	OpIfCanAttack:  {"IF_CAN_ATTACK", 1, 0},
	OpIfNearEdge:   {"IF_NEAR_EDGE", 1, 0},

	OpJumpIfFalse: {"JUMP_IF_FALSE", 1, 0},
	OpJump:        {"JUMP", 1, 0},
	OpEnd:         {"END", 0, 0},
}

// Compile-time action costs. They only feed the script budget report.
const (
	CostWait   = 0
	CostTurn   = 1
	CostSignal = 1
	CostMove   = 2
	CostAttack = 3
	CostScan   = 1
)

// Known reports whether op is part of the instruction set.
func (op Opcode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Arity is the number of immediate operands following op (0 or 1).
func (op Opcode) Arity() int { return opcodeTable[op].Arity }

// IsCondition reports whether op sets the flag register.
func (op Opcode) IsCondition() bool { return op >= OpIfEnemy && op <= OpIfNearEdge }

// IsJump reports whether op's operand is a code index.
func (op Opcode) IsJump() bool { return op == OpJumpIfFalse || op == OpJump }

func (op Opcode) String() string {
	if info, ok := opcodeTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(op))
}

// costOf returns the budget charge for emitting op with operand arg.
func costOf(op Opcode, arg int) int {
	c := opcodeTable[op].Cost
	if op == OpMove {
		return c * arg
	}
	return c
}

// ParseOpcode looks up an opcode by its mnemonic.
func ParseOpcode(name string) (Opcode, bool) {
	for op, info := range opcodeTable {
		if info.Name == name {
			return op, true
		}
	}
	return 0, false
}
