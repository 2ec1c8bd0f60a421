package states

import (
	"time"

	"github.com/rs/zerolog"
)

// GameContext provides session information to states
type GameContext struct {
	// GameID uniquely identifies this game instance
	GameID string

	// Logger for state-specific logging
	Logger zerolog.Logger

	// StartTime is when Playing was last entered
	StartTime time.Time

	// EndTime is when GameOver was last entered
	EndTime time.Time

	// Sessions counts how many times Playing has been entered
	Sessions int

	// EndReason describes why the last session ended
	EndReason string
}

// NewGameContext creates a new game context
func NewGameContext(gameID string, logger zerolog.Logger) *GameContext {
	return &GameContext{
		GameID: gameID,
		Logger: logger.With().Str("game_id", gameID).Logger(),
	}
}

// GetElapsedTime returns the wall-clock duration of the current or last session
func (ctx *GameContext) GetElapsedTime() time.Duration {
	if ctx.StartTime.IsZero() {
		return 0
	}
	if ctx.EndTime.Before(ctx.StartTime) {
		return time.Since(ctx.StartTime)
	}
	return ctx.EndTime.Sub(ctx.StartTime)
}
