package renderer

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/states"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/testutil"
)

// plainRenderer writes to a non-terminal, so styles render without escapes.
func plainRenderer() *BoardRenderer {
	return NewBoardRenderer(lipgloss.NewRenderer(io.Discard), testutil.TrainingAlphabet)
}

func TestBoard_CursorBrackets(t *testing.T) {
	br := plainRenderer()
	snap := game.Snapshot{
		Grid:    testutil.MustGrid(t, "...", "za.", "azz"),
		Cursor:  core.NewCursor(1, 0),
		Phase:   states.PhasePlaying,
		Playing: true,
	}

	assert.Equal(t, " . . . \n[z a]. \n a z z \n", br.Board(snap))

	snap.Cursor = core.NewCursor(2, 1)
	assert.Equal(t, " . . . \n z a . \n a[z z]\n", br.Board(snap))
}

func TestBoard_NoCursorAfterGameOver(t *testing.T) {
	br := plainRenderer()
	snap := game.Snapshot{
		Grid:   testutil.MustGrid(t, "za", "az"),
		Cursor: core.NewCursor(1, 0),
		Phase:  states.PhaseGameOver,
	}
	assert.NotContains(t, br.Board(snap), "[")
}

func TestBoard_NilGrid(t *testing.T) {
	assert.Empty(t, plainRenderer().Board(game.Snapshot{}))
}

func TestStatus(t *testing.T) {
	br := plainRenderer()
	snap := game.Snapshot{
		Grid:         testutil.MustGrid(t, "..", "za"),
		Score:        12,
		RowsInserted: 5,
		Elapsed:      1234 * time.Millisecond,
		Phase:        states.PhasePlaying,
		Playing:      true,
	}
	assert.Equal(t, "score 12  rows 5  time 1.2s", br.Status(snap))

	snap.Phase, snap.Playing = states.PhaseGameOver, false
	status := br.Status(snap)
	assert.True(t, strings.HasSuffix(status, "GAME OVER  final score 12"), status)
}

func TestRender_UnknownTileIsPlain(t *testing.T) {
	br := NewBoardRenderer(lipgloss.NewRenderer(io.Discard), core.Alphabet{'z', 'a'})
	snap := game.Snapshot{Grid: testutil.MustGrid(t, "qz"), Phase: states.PhaseIdle}
	out := br.Render(snap)
	assert.Contains(t, out, " q z ")
}
