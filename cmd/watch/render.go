package main

import (
	"fmt"
	"strings"

	"botarena.ai/internal/protocol"
)

const hpBarWidth = 10

// renderTurn draws the board, one status line per agent and the turn's
// events. Live agents show their glyph, destroyed ones an 'x'.
func renderTurn(board protocol.BoardParams, tm protocol.TurnMsg) string {
	var b strings.Builder
	fmt.Fprintf(&b, "turn %d/%d  %s\n", tm.Turn, board.MaxTurns, outcomeLine(tm.Outcome))

	cells := make([][]byte, board.Height)
	for y := range cells {
		cells[y] = []byte(strings.Repeat(".", board.Width))
	}
	// Dead first so a live agent on the same cell stays visible.
	for _, alive := range []bool{false, true} {
		for _, a := range tm.Agents {
			if a.Alive != alive {
				continue
			}
			x, y := a.Pos[0], a.Pos[1]
			if y < 0 || y >= board.Height || x < 0 || x >= board.Width {
				continue
			}
			g := byte('x')
			if a.Alive && a.Glyph != "" {
				g = a.Glyph[0]
			}
			cells[y][x] = g
		}
	}
	for _, row := range cells {
		b.WriteString(" ")
		for i, c := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(c)
		}
		b.WriteByte('\n')
	}

	for _, a := range tm.Agents {
		state := "    "
		switch {
		case !a.Alive:
			state = "dead"
		case a.Damaged:
			state = "hit!"
		}
		fmt.Fprintf(&b, " %s %-10s %s hp=%-2d %-5s cd=%d %s\n",
			a.Glyph, a.Name, hpBar(a.HP, board.StartHP), a.HP, a.Facing, a.Cooldown, state)
	}

	for _, e := range tm.Events {
		if e.Text != "" {
			fmt.Fprintf(&b, " > %s\n", e.Text)
			continue
		}
		fmt.Fprintf(&b, " > %s actor=%d target=%d pos=%d,%d value=%d\n", e.Kind, e.Actor, e.Target, e.Pos[0], e.Pos[1], e.Value)
	}
	return b.String()
}

func hpBar(hp, full int) string {
	if full <= 0 {
		full = 1
	}
	hp = min(max(hp, 0), full)
	fill := hp * hpBarWidth / full
	return "[" + strings.Repeat("#", fill) + strings.Repeat("-", hpBarWidth-fill) + "]"
}

func outcomeLine(o protocol.OutcomeMsg) string {
	switch o.Status {
	case "winner":
		return fmt.Sprintf("%s wins!", o.WinnerName)
	case "draw":
		return "draw"
	default:
		return o.Status
	}
}
