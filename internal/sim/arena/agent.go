package arena

import "botarena.ai/internal/sim/grid"

// Agent is the ground-truth state of one bot. The arena owns every Agent;
// callers only ever receive copies.
type Agent struct {
	Name  string
	Glyph byte

	X, Y   int
	Facing grid.Direction

	HP      int
	LastHP  int  // hp at the start of the previous turn
	Damaged bool // hp dropped during the previous turn
	Alive   bool

	ScanDist int            // 0 = nothing seen
	ScanDir  grid.Direction // grid.None = nothing seen
	Cooldown int            // turns until the weapon is ready
	Signal   int            // value broadcast this turn, -1 = none
}

func (a Agent) label() string {
	if a.Name == "" {
		return "Bot"
	}
	return a.Name
}

// Pos is a grid cell.
type Pos struct {
	X, Y int
}
