package script

import (
	"fmt"
	"strings"

	"botarena.ai/internal/sim/grid"
)

// Disassemble renders a listing of p, one instruction per line, prefixed with
// its code index.
func (p Program) Disassemble() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; %s (cost %d, %d words)\n", p.name, p.cost, len(p.code))
	decoded := 0
	for _, in := range p.Instructions() {
		decoded = in.Index + 1
		if in.HasArg {
			decoded++
		}
		fmt.Fprintf(&sb, "%04d  %-14s", in.Index, in.Op)
		if in.HasArg {
			sb.WriteString(" " + operandString(in))
		}
		sb.WriteByte('\n')
	}
	if decoded < len(p.code) {
		fmt.Fprintf(&sb, "%04d  <undecodable: %d trailing words>\n", decoded, len(p.code)-decoded)
	}
	return sb.String()
}

func operandString(in Instr) string {
	switch in.Op {
	case OpTurn, OpAttack, OpIfEnemy:
		return grid.Direction(in.Operand).String()
	case OpJump, OpJumpIfFalse:
		return fmt.Sprintf("-> %04d", in.Operand)
	}
	return fmt.Sprintf("%d", in.Operand)
}
