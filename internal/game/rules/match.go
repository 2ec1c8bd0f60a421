package rules

import "github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"

// MinRunLength is the shortest run that scores.
const MinRunLength = 3

// runScores maps run length to score for lengths 3 through 6. Longer runs
// add 10 per extra tile on top of the length-6 value.
var runScores = map[int]int{
	3: 3,
	4: 20,
	5: 30,
	6: 50,
}

// RunScore returns the score for a single run of the given length.
func RunScore(length int) int {
	if length < MinRunLength {
		return 0
	}
	if s, ok := runScores[length]; ok {
		return s
	}
	return runScores[6] + 10*(length-6)
}

// Run is a maximal line of identical non-empty tiles.
type Run struct {
	Tile       core.Tile
	Row, Col   int // first cell (leftmost or topmost)
	Length     int
	Horizontal bool
}

// Detection is the result of one scan over a grid.
type Detection struct {
	// Scored has one entry per cell in row-major order; true cells belong to
	// at least one run.
	Scored []bool
	Score  int
	Runs   []Run
}

// Cleared returns the number of distinct cells that belong to a run.
func (d Detection) Cleared() int {
	n := 0
	for _, s := range d.Scored {
		if s {
			n++
		}
	}
	return n
}

// DetectRuns scans every row and every column of g for runs of at least
// MinRunLength. Rows and columns are scanned independently over the same
// grid, so a cell can be part of a horizontal and a vertical run at once and
// both runs score.
func DetectRuns(g *core.Grid) Detection {
	d := Detection{Scored: make([]bool, len(g.T))}

	for row := 0; row < g.H; row++ {
		scanLine(g.W, func(i int) core.Tile { return g.T[g.Idx(row, i)] }, func(start, length int, t core.Tile) {
			d.Runs = append(d.Runs, Run{Tile: t, Row: row, Col: start, Length: length, Horizontal: true})
			d.Score += RunScore(length)
			for col := start; col < start+length; col++ {
				d.Scored[g.Idx(row, col)] = true
			}
		})
	}

	for col := 0; col < g.W; col++ {
		scanLine(g.H, func(i int) core.Tile { return g.T[g.Idx(i, col)] }, func(start, length int, t core.Tile) {
			d.Runs = append(d.Runs, Run{Tile: t, Row: start, Col: col, Length: length})
			d.Score += RunScore(length)
			for row := start; row < start+length; row++ {
				d.Scored[g.Idx(row, col)] = true
			}
		})
	}

	return d
}

// scanLine walks n cells and calls emit for every maximal run of at least
// MinRunLength identical non-empty tiles.
func scanLine(n int, at func(int) core.Tile, emit func(start, length int, t core.Tile)) {
	i := 0
	for i < n {
		t := at(i)
		j := i + 1
		for j < n && at(j) == t {
			j++
		}
		if !t.IsEmpty() && j-i >= MinRunLength {
			emit(i, j-i, t)
		}
		i = j
	}
}

// HasRuns reports whether g contains any scoreable run.
func HasRuns(g *core.Grid) bool {
	return DetectRuns(g).Score > 0
}

// ScoreTiles detects runs in g and returns a new grid with the scored cells
// cleared. Unscored cells are copied unchanged; g is not modified.
func ScoreTiles(g *core.Grid) (*core.Grid, Detection) {
	d := DetectRuns(g)
	out := g.Clone()
	for i, scored := range d.Scored {
		if scored {
			out.T[i] = core.Empty
		}
	}
	return out, d
}
