package events

import (
	"time"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
)

// Event type constants
const (
	TypeGameStarted     = "game.started"
	TypeRowInserted     = "row.inserted"
	TypeRowExhausted    = "row.exhausted"
	TypeCursorMoved     = "cursor.moved"
	TypeTilesSwapped    = "tiles.swapped"
	TypeCascadeResolved = "cascade.resolved"
	TypeGameOver        = "game.over"
	TypeStateTransition = "state.transition"
)

// GameStartedEvent is published when a session enters Playing
type GameStartedEvent struct {
	BaseEvent
	Width       int
	Height      int
	StarterRows int
	Tiles       string
}

func NewGameStartedEvent(gameID string, width, height, starterRows int, tiles string) *GameStartedEvent {
	return &GameStartedEvent{
		BaseEvent:   newBase(TypeGameStarted, gameID),
		Width:       width,
		Height:      height,
		StarterRows: starterRows,
		Tiles:       tiles,
	}
}

// RowInsertedEvent is published each time a row is pushed in at the bottom
type RowInsertedEvent struct {
	BaseEvent
	Row      string
	Attempts int
	Outcome  string
	Tick     int
}

func NewRowInsertedEvent(gameID, row string, attempts int, outcome string, tick int) *RowInsertedEvent {
	return &RowInsertedEvent{
		BaseEvent: newBase(TypeRowInserted, gameID),
		Row:       row,
		Attempts:  attempts,
		Outcome:   outcome,
		Tick:      tick,
	}
}

// RowExhaustedEvent is published when row generation hit its attempt bound
// and a row containing a run was inserted anyway.
type RowExhaustedEvent struct {
	BaseEvent
	Attempts int
	Tick     int
}

func NewRowExhaustedEvent(gameID string, attempts, tick int) *RowExhaustedEvent {
	return &RowExhaustedEvent{
		BaseEvent: newBase(TypeRowExhausted, gameID),
		Attempts:  attempts,
		Tick:      tick,
	}
}

// CursorMovedEvent is published after an accepted cursor move
type CursorMovedEvent struct {
	BaseEvent
	Direction string
	From      core.Cursor
	To        core.Cursor
}

func NewCursorMovedEvent(gameID string, dir core.Direction, from, to core.Cursor) *CursorMovedEvent {
	return &CursorMovedEvent{
		BaseEvent: newBase(TypeCursorMoved, gameID),
		Direction: dir.String(),
		From:      from,
		To:        to,
	}
}

// TilesSwappedEvent is published after the two tiles under the cursor were
// exchanged, before the cascade runs.
type TilesSwappedEvent struct {
	BaseEvent
	Cursor    core.Cursor
	Left      core.Tile
	Right     core.Tile
	Identical bool
}

func NewTilesSwappedEvent(gameID string, cursor core.Cursor, left, right core.Tile) *TilesSwappedEvent {
	return &TilesSwappedEvent{
		BaseEvent: newBase(TypeTilesSwapped, gameID),
		Cursor:    cursor,
		Left:      left,
		Right:     right,
		Identical: left == right,
	}
}

// CascadeResolvedEvent reports the outcome of the cascade that followed a
// swap. It is only published when the cascade scored.
type CascadeResolvedEvent struct {
	BaseEvent
	Score      int
	Passes     int
	Cleared    int
	TotalScore int
}

func NewCascadeResolvedEvent(gameID string, score, passes, cleared, total int) *CascadeResolvedEvent {
	return &CascadeResolvedEvent{
		BaseEvent:  newBase(TypeCascadeResolved, gameID),
		Score:      score,
		Passes:     passes,
		Cleared:    cleared,
		TotalScore: total,
	}
}

// GameOverEvent is published when a session leaves Playing for GameOver
type GameOverEvent struct {
	BaseEvent
	FinalScore int
	Ticks      int
	Elapsed    time.Duration
	Reason     string
}

func NewGameOverEvent(gameID string, finalScore, ticks int, elapsed time.Duration, reason string) *GameOverEvent {
	return &GameOverEvent{
		BaseEvent:  newBase(TypeGameOver, gameID),
		FinalScore: finalScore,
		Ticks:      ticks,
		Elapsed:    elapsed,
		Reason:     reason,
	}
}

// StateTransitionEvent is published on every state machine transition
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string
	ToPhase   string
	Reason    string
}

func NewStateTransitionEvent(gameID, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: newBase(TypeStateTransition, gameID),
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}
