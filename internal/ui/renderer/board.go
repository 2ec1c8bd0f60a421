// Package renderer draws game snapshots for the terminal with lipgloss.
package renderer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/states"
)

// -----------------------------------------------------------------------------
// Colour definitions
// -----------------------------------------------------------------------------

// TileColors is assigned to alphabet symbols in order and wraps around.
var TileColors = []lipgloss.Color{
	"#C83232", // red
	"#3264C8", // blue
	"#32C832", // green
	"#C8C832", // yellow
	"#A050C8", // purple
	"#32C8C8", // cyan
}

var (
	EmptyColor      = lipgloss.Color("#3C3C3C")
	CursorColor     = lipgloss.Color("#FFFFFF")
	GameOverColor   = lipgloss.Color("#FF5F5F")
	StatusTextColor = lipgloss.Color("#A0A0A0")
)

// -----------------------------------------------------------------------------
// Renderer
// -----------------------------------------------------------------------------

// BoardRenderer draws a snapshot as a grid of coloured cells with the cursor
// pair in brackets. It only reads snapshots, never the live engine.
type BoardRenderer struct {
	tiles  map[core.Tile]lipgloss.Style
	empty  lipgloss.Style
	cursor lipgloss.Style
	status lipgloss.Style
	over   lipgloss.Style
}

// NewBoardRenderer builds styles for alphabet. A nil r uses the default
// lipgloss renderer for stdout.
func NewBoardRenderer(r *lipgloss.Renderer, alphabet core.Alphabet) *BoardRenderer {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	br := &BoardRenderer{
		tiles:  make(map[core.Tile]lipgloss.Style, len(alphabet)),
		empty:  r.NewStyle().Foreground(EmptyColor),
		cursor: r.NewStyle().Foreground(CursorColor).Bold(true),
		status: r.NewStyle().Foreground(StatusTextColor),
		over:   r.NewStyle().Foreground(GameOverColor).Bold(true),
	}
	for i, t := range alphabet {
		br.tiles[t] = r.NewStyle().Foreground(TileColors[i%len(TileColors)]).Bold(true)
	}
	return br
}

// Board renders the grid only.
func (br *BoardRenderer) Board(s game.Snapshot) string {
	g := s.Grid
	if g == nil {
		return ""
	}

	var sb strings.Builder
	for r := 0; r < g.H; r++ {
		onCursorRow := r == s.Cursor.Row && s.Playing
		for c := 0; c < g.W; c++ {
			switch {
			case onCursorRow && c == s.Cursor.Col:
				sb.WriteString(br.cursor.Render("["))
			case onCursorRow && c == s.Cursor.Col+2:
				sb.WriteString(br.cursor.Render("]"))
			default:
				sb.WriteByte(' ')
			}
			sb.WriteString(br.cell(g.CellAt(r, c)))
		}
		if onCursorRow && s.Cursor.Col+2 == g.W {
			sb.WriteString(br.cursor.Render("]"))
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (br *BoardRenderer) cell(t core.Tile) string {
	if t.IsEmpty() {
		return br.empty.Render(t.String())
	}
	if style, ok := br.tiles[t]; ok {
		return style.Render(t.String())
	}
	return t.String()
}

// Status renders the score line, and the game over banner once the session
// has ended.
func (br *BoardRenderer) Status(s game.Snapshot) string {
	line := br.status.Render(fmt.Sprintf("score %d  rows %d  time %s",
		s.Score, s.RowsInserted, s.Elapsed.Truncate(100*time.Millisecond)))
	if s.Phase == states.PhaseGameOver {
		line += "\n" + br.over.Render(fmt.Sprintf("GAME OVER  final score %d", s.Score))
	}
	return line
}

// Render is Board followed by Status.
func (br *BoardRenderer) Render(s game.Snapshot) string {
	return br.Board(s) + br.Status(s)
}
