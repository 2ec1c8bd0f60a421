package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/states"
)

// Snapshot is a read-only copy of a session. It shares no memory with the
// engine, so renderers and encoders can hold on to it.
type Snapshot struct {
	GameID        string
	Grid          *core.Grid
	Cursor        core.Cursor
	Score         int
	Phase         states.GamePhase
	Playing       bool
	Ticks         int
	Elapsed       time.Duration
	RowsInserted  int
	ExhaustedRows int
}

// Snapshot copies the current session state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	phase := e.sm.CurrentPhase()
	return Snapshot{
		GameID:        e.gameID,
		Grid:          e.grid.Clone(),
		Cursor:        e.cursor,
		Score:         e.score,
		Phase:         phase,
		Playing:       phase == states.PhasePlaying,
		Ticks:         e.ticks,
		Elapsed:       e.elapsedLocked(),
		RowsInserted:  e.rowsInserted,
		ExhaustedRows: e.exhausted,
	}
}

// Render draws the grid as text with the cursor pair in brackets, followed
// by a status line:
//
//	 . . . .
//	 a[z a]b
//	score=3 phase=Playing
func (s Snapshot) Render() string {
	var sb strings.Builder
	g := s.Grid
	for r := 0; r < g.H; r++ {
		onCursorRow := r == s.Cursor.Row
		for c := 0; c < g.W; c++ {
			switch {
			case onCursorRow && c == s.Cursor.Col:
				sb.WriteByte('[')
			case onCursorRow && c == s.Cursor.Col+2:
				sb.WriteByte(']')
			default:
				sb.WriteByte(' ')
			}
			sb.WriteString(g.CellAt(r, c).String())
		}
		if onCursorRow && s.Cursor.Col+2 == g.W {
			sb.WriteByte(']')
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "score=%d phase=%s\n", s.Score, s.Phase)
	return sb.String()
}
