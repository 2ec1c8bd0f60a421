package mapgen

import (
	"testing"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/rules"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(width int, alphabet core.Alphabet, seed int64) *Generator {
	return NewGenerator(DefaultRowConfig(width, alphabet), testutil.NewTestRNG(seed), testutil.NopLogger())
}

func TestDefaultRowConfig(t *testing.T) {
	cfg := DefaultRowConfig(6, testutil.DefaultAlphabet)
	assert.Equal(t, 6, cfg.Width)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.NoError(t, cfg.Validate())

	cfg.MaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultRowConfig(0, testutil.DefaultAlphabet)
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidDimension)

	cfg = DefaultRowConfig(3, core.Alphabet{'a'})
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidAlphabet)
}

func TestGenerateRow_NeverThreeInARow(t *testing.T) {
	gen := newTestGenerator(12, testutil.TrainingAlphabet, 12345)

	for i := 0; i < 500; i++ {
		row := gen.GenerateRow()
		require.Len(t, row, 12)
		for idx, tile := range row {
			assert.True(t, testutil.TrainingAlphabet.Contains(tile))
			if idx > 1 {
				assert.False(t, row[idx-2] == tile && row[idx-1] == tile, "row %s has a run", rowString(row))
			}
		}
	}
}

func TestGenerateRow_Deterministic(t *testing.T) {
	a := newTestGenerator(6, testutil.DefaultAlphabet, 99)
	b := newTestGenerator(6, testutil.DefaultAlphabet, 99)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.GenerateRow(), b.GenerateRow())
	}
}

func TestAppendRow_NoRunsWithContext(t *testing.T) {
	gen := newTestGenerator(3, testutil.TrainingAlphabet, 7)
	grid := core.NewGrid(3, 4)
	cursor := core.NewCursor(3, 0)

	for i := 0; i < 50; i++ {
		res, err := gen.AppendRow(grid, cursor)
		require.NoError(t, err)
		cursor = res.Cursor

		if res.Outcome == RowMatched {
			window := core.NewGrid(3, 3)
			for r := 0; r < 3; r++ {
				copy(window.T[r*3:], grid.Row(grid.H-3+r))
			}
			assert.False(t, rules.HasRuns(window), "bottom rows after append:\n%s", window)
			assert.LessOrEqual(t, res.Attempts, DefaultMaxAttempts)
		}
		assert.Equal(t, res.Row, grid.Row(grid.H-1))
	}
}

func TestAppendRow_ShiftsRowsUp(t *testing.T) {
	gen := newTestGenerator(3, testutil.TrainingAlphabet, 1)
	grid := testutil.MustGrid(t,
		"...",
		"...",
		"za.",
		"aza",
	)

	res, err := gen.AppendRow(grid, core.NewCursor(2, 1))
	require.NoError(t, err)

	assert.Equal(t, RowMatched, res.Outcome)
	assert.Equal(t, []core.Tile{'z', 'a', core.Empty}, grid.Row(1))
	assert.Equal(t, []core.Tile{'a', 'z', 'a'}, grid.Row(2))
	assert.Equal(t, core.NewCursor(1, 1), res.Cursor)
}

func TestAppendRow_CursorStaysOnTopRow(t *testing.T) {
	gen := newTestGenerator(3, testutil.TrainingAlphabet, 1)
	grid := core.NewGrid(3, 4)

	res, err := gen.AppendRow(grid, core.NewCursor(0, 1))
	require.NoError(t, err)
	assert.Equal(t, core.NewCursor(0, 1), res.Cursor)
}

func TestAppendRow_ExhaustedFallback(t *testing.T) {
	logger, sink := testutil.CaptureLogger()
	cfg := DefaultRowConfig(3, testutil.TrainingAlphabet)
	cfg.MaxAttempts = 5
	gen := NewGenerator(cfg, testutil.NewTestRNG(3), logger)

	// The bottom row is already a run, so every candidate window scores.
	grid := testutil.MustGrid(t,
		"...",
		"...",
		"...",
		"zzz",
	)

	res, err := gen.AppendRow(grid, core.NewCursor(3, 0))
	require.NoError(t, err)

	assert.Equal(t, RowExhaustedFallback, res.Outcome)
	assert.Equal(t, "exhausted-fallback", res.Outcome.String())
	assert.Equal(t, 5, res.Attempts)
	assert.Equal(t, res.Row, grid.Row(3), "last candidate is still inserted")
	assert.True(t, sink.Contains("Row generation exhausted, accepting last candidate"))
}

func TestAppendRow_WidthMismatch(t *testing.T) {
	gen := newTestGenerator(4, testutil.TrainingAlphabet, 1)
	_, err := gen.AppendRow(core.NewGrid(3, 4), core.NewCursor(0, 0))
	assert.ErrorIs(t, err, core.ErrRowWidth)
}

func TestAppendRow_SingleRowGrid(t *testing.T) {
	gen := newTestGenerator(4, testutil.TrainingAlphabet, 5)
	grid := core.NewGrid(4, 1)

	res, err := gen.AppendRow(grid, core.NewCursor(0, 0))
	require.NoError(t, err)
	assert.Equal(t, RowMatched, res.Outcome)
	assert.Equal(t, res.Row, grid.Row(0))
}
