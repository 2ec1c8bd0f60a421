package rules

import "github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"

// CascadeResult summarises one ResolveCascade call.
type CascadeResult struct {
	Score   int
	Passes  int
	Cleared int
	// PassScores holds the score of every pass, in order.
	PassScores []int
}

// ResolveCascade repeats detect, clear and gravity on g in place until a pass
// scores nothing. Gravity still runs on that last pass, so a tile it drops
// into a new run stays on the board until the next cascade. Every scoring
// pass removes at least three tiles, so the loop ends on a finite grid.
func ResolveCascade(g *core.Grid) CascadeResult {
	var res CascadeResult
	for {
		cleared, d := ScoreTiles(g)
		copy(g.T, cleared.T)
		ApplyGravity(g)

		res.Passes++
		res.Score += d.Score
		res.Cleared += d.Cleared()
		res.PassScores = append(res.PassScores, d.Score)

		if d.Score == 0 {
			return res
		}
	}
}
