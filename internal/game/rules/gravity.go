package rules

import "github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"

// ApplyGravity compacts every column downward in place, keeping the relative
// order of tiles and leaving the empties at the top. It reports whether any
// tile moved.
func ApplyGravity(g *core.Grid) bool {
	moved := false
	for col := 0; col < g.W; col++ {
		write := g.H - 1
		for row := g.H - 1; row >= 0; row-- {
			idx := g.Idx(row, col)
			t := g.T[idx]
			if t.IsEmpty() {
				continue
			}
			if row != write {
				g.T[g.Idx(write, col)] = t
				g.T[idx] = core.Empty
				moved = true
			}
			write--
		}
	}
	return moved
}

// IsSettled reports whether no empty cell sits directly below a tile.
func IsSettled(g *core.Grid) bool {
	for row := 0; row < g.H-1; row++ {
		for col := 0; col < g.W; col++ {
			if !g.CellAt(row, col).IsEmpty() && g.CellAt(row+1, col).IsEmpty() {
				return false
			}
		}
	}
	return true
}
