package mapgen

import (
	"fmt"
	"math/rand"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/rules"
	"github.com/rs/zerolog"
)

// DefaultMaxAttempts bounds how many candidate rows AppendRow draws before it
// gives up and accepts the last one.
const DefaultMaxAttempts = 100

// RowConfig holds configuration for row generation
type RowConfig struct {
	Width       int
	Alphabet    core.Alphabet
	MaxAttempts int
}

// DefaultRowConfig returns a sensible default configuration
func DefaultRowConfig(width int, alphabet core.Alphabet) RowConfig {
	return RowConfig{
		Width:       width,
		Alphabet:    alphabet,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Validate checks the configuration can produce rows.
func (c RowConfig) Validate() error {
	if c.Width < 1 {
		return fmt.Errorf("%w: row width %d", core.ErrInvalidDimension, c.Width)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	return c.Alphabet.Validate()
}

// Outcome tags how AppendRow settled on the row it inserted.
type Outcome int

const (
	// RowMatched means a candidate passed the no-run check.
	RowMatched Outcome = iota
	// RowExhaustedFallback means every attempt produced a run and the last
	// candidate was accepted anyway.
	RowExhaustedFallback
)

func (o Outcome) String() string {
	switch o {
	case RowMatched:
		return "matched"
	case RowExhaustedFallback:
		return "exhausted-fallback"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// AppendResult describes one AppendRow call.
type AppendResult struct {
	Row      []core.Tile
	Cursor   core.Cursor
	Outcome  Outcome
	Attempts int
}

// Generator handles row generation with deterministic RNG
type Generator struct {
	config RowConfig
	rng    *rand.Rand
	logger zerolog.Logger
}

// NewGenerator creates a new row generator
func NewGenerator(config RowConfig, rng *rand.Rand, logger zerolog.Logger) *Generator {
	return &Generator{
		config: config,
		rng:    rng,
		logger: logger.With().Str("component", "RowGenerator").Logger(),
	}
}

func (g *Generator) Config() RowConfig { return g.config }

func (g *Generator) pick(from core.Alphabet) core.Tile {
	return from[g.rng.Intn(len(from))]
}

// GenerateRow fills a row left to right. When the two tiles to the left of a
// position equal the drawn tile, it redraws from the alphabet without that
// tile, so a single row never contains three in a row.
func (g *Generator) GenerateRow() []core.Tile {
	row := make([]core.Tile, g.config.Width)
	for idx := range row {
		t := g.pick(g.config.Alphabet)
		if idx > 1 && row[idx-2] == t && row[idx-1] == t {
			if rest := g.config.Alphabet.Without(t); len(rest) > 0 {
				t = g.pick(rest)
			}
		}
		row[idx] = t
	}
	return row
}

// AppendRow pushes a new bottom row into grid, shedding the top row. A
// candidate is rejected when it forms a run together with the two rows that
// will sit above it. After MaxAttempts rejections the last candidate is used
// and the result is tagged RowExhaustedFallback. The returned cursor moves up
// one row, unless already on row 0, so it stays on the same tiles.
func (g *Generator) AppendRow(grid *core.Grid, cursor core.Cursor) (AppendResult, error) {
	if grid.W != g.config.Width {
		return AppendResult{}, fmt.Errorf("%w: grid is %d wide, generator makes %d", core.ErrRowWidth, grid.W, g.config.Width)
	}

	above := contextRows(grid)
	window := core.NewGrid(grid.W, len(above)+1)
	for i, r := range above {
		copy(window.T[i*grid.W:], grid.Row(r))
	}
	last := (window.H - 1) * grid.W

	res := AppendResult{Outcome: RowExhaustedFallback}
	for res.Attempts < g.config.MaxAttempts {
		res.Attempts++
		res.Row = g.GenerateRow()
		copy(window.T[last:], res.Row)
		if !rules.HasRuns(window) {
			res.Outcome = RowMatched
			break
		}
	}

	if res.Outcome == RowExhaustedFallback {
		g.logger.Warn().
			Int("attempts", res.Attempts).
			Str("row", rowString(res.Row)).
			Msg("Row generation exhausted, accepting last candidate")
	}

	if err := grid.PushBottom(res.Row); err != nil {
		return AppendResult{}, err
	}

	res.Cursor = cursor
	if res.Cursor.Row > 0 {
		res.Cursor.Row--
	}
	return res, nil
}

// contextRows returns the indices of the rows that will sit directly above
// the appended row: the current bottom two, or fewer on very short grids.
func contextRows(grid *core.Grid) []int {
	n := grid.H - 1
	if n > 2 {
		n = 2
	}
	rows := make([]int, 0, n)
	for r := grid.H - n; r < grid.H; r++ {
		rows = append(rows, r)
	}
	return rows
}

func rowString(row []core.Tile) string {
	b := make([]byte, len(row))
	for i, t := range row {
		b[i] = t.String()[0]
	}
	return string(b)
}
