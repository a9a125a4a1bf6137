// Package grid holds the board geometry shared by bot scripts and the arena:
// compass directions, the king-move metric and square naming.
package grid

import "strconv"

// Direction is one of the eight compass headings. The numeric values are part
// of the script encoding and the serialized match state.
type Direction int

const (
	North Direction = iota
	East
	South
	West
	NorthEast
	SouthEast
	SouthWest
	NorthWest

	// None marks an absent direction (for example an empty scan result).
	None Direction = -1
)

var (
	dx = [8]int{0, 1, 0, -1, 1, 1, -1, -1}
	dy = [8]int{-1, 0, 1, 0, -1, 1, 1, -1}

	opposite = [8]Direction{South, West, North, East, SouthWest, NorthWest, NorthEast, SouthEast}

	dirNames = [8]string{"N", "E", "S", "W", "NE", "SE", "SW", "NW"}
)

func (d Direction) Valid() bool { return d >= North && d <= NorthWest }

// Offset returns the unit step for d. y grows southward.
func (d Direction) Offset() (int, int) {
	if !d.Valid() {
		return 0, 0
	}
	return dx[d], dy[d]
}

// Opposite returns the heading pointing directly away from d.
func (d Direction) Opposite() Direction {
	if !d.Valid() {
		return None
	}
	return opposite[d]
}

func (d Direction) String() string {
	if !d.Valid() {
		return "NONE"
	}
	return dirNames[d]
}

// ParseDirection accepts the short compass names used by String.
func ParseDirection(s string) (Direction, bool) {
	for i, n := range dirNames {
		if n == s {
			return Direction(i), true
		}
	}
	return None, false
}

// Toward quantizes an offset to a compass heading by the sign of each axis.
// A zero offset has no heading.
func Toward(ox, oy int) Direction {
	sx, sy := sign(ox), sign(oy)
	switch {
	case sx == 0 && sy == -1:
		return North
	case sx == 1 && sy == 0:
		return East
	case sx == 0 && sy == 1:
		return South
	case sx == -1 && sy == 0:
		return West
	case sx == 1 && sy == -1:
		return NorthEast
	case sx == 1 && sy == 1:
		return SouthEast
	case sx == -1 && sy == 1:
		return SouthWest
	case sx == -1 && sy == -1:
		return NorthWest
	}
	return None
}

// Chebyshev is the king-move distance: diagonal steps count as one.
func Chebyshev(x1, y1, x2, y2 int) int {
	return max(abs(x2-x1), abs(y2-y1))
}

// SquareName renders a cell in board notation: column letter, 1-based row.
func SquareName(x, y int) string {
	return string(rune('A'+x)) + strconv.Itoa(y+1)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
