package rules

import "github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"

// AllDirections lists cursor directions in the order they are offered to
// agents.
var AllDirections = []core.Direction{core.Up, core.Down, core.Left, core.Right}

// LegalDirections returns the directions the cursor can move in without
// leaving the grid.
func LegalDirections(c core.Cursor, w, h int) []core.Direction {
	dirs := make([]core.Direction, 0, len(AllDirections))
	for _, d := range AllDirections {
		if c.CanMove(d, w, h) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// CountAdjacentPairs counts horizontally and vertically adjacent cells that
// hold the same non-empty tile. It is a cheap proxy for how close the board
// is to a scoring run.
func CountAdjacentPairs(g *core.Grid) int {
	pairs := 0
	for row := 0; row < g.H; row++ {
		for col := 0; col < g.W; col++ {
			t := g.CellAt(row, col)
			if t.IsEmpty() {
				continue
			}
			if col+1 < g.W && g.CellAt(row, col+1) == t {
				pairs++
			}
			if row+1 < g.H && g.CellAt(row+1, col) == t {
				pairs++
			}
		}
	}
	return pairs
}
