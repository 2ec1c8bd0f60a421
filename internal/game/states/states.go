package states

import (
	"errors"
	"time"
)

// IdleState is the phase before a session starts and between restarts
type IdleState struct{}

func NewIdleState() State {
	return &IdleState{}
}

func (s *IdleState) Phase() GamePhase {
	return PhaseIdle
}

func (s *IdleState) Enter(ctx *GameContext) error {
	ctx.Logger.Debug().Msg("Entering Idle state")
	return nil
}

func (s *IdleState) Exit(ctx *GameContext) error {
	ctx.Logger.Debug().Msg("Exiting Idle state")
	return nil
}

func (s *IdleState) Validate(ctx *GameContext) error {
	return nil
}

// PlayingState is an active session
type PlayingState struct{}

func NewPlayingState() State {
	return &PlayingState{}
}

func (s *PlayingState) Phase() GamePhase {
	return PhasePlaying
}

func (s *PlayingState) Enter(ctx *GameContext) error {
	ctx.StartTime = time.Now()
	ctx.EndReason = ""
	ctx.Sessions++
	ctx.Logger.Info().
		Int("session", ctx.Sessions).
		Msg("Game started")
	return nil
}

func (s *PlayingState) Exit(ctx *GameContext) error {
	ctx.Logger.Debug().
		Dur("elapsed", time.Since(ctx.StartTime)).
		Msg("Exiting Playing state")
	return nil
}

func (s *PlayingState) Validate(ctx *GameContext) error {
	if ctx.GameID == "" {
		return errors.New("game id is required to start playing")
	}
	return nil
}

// GameOverState is the terminal phase of a session
type GameOverState struct{}

func NewGameOverState() State {
	return &GameOverState{}
}

func (s *GameOverState) Phase() GamePhase {
	return PhaseGameOver
}

func (s *GameOverState) Enter(ctx *GameContext) error {
	ctx.EndTime = time.Now()
	ctx.Logger.Info().
		Dur("elapsed", ctx.GetElapsedTime()).
		Str("reason", ctx.EndReason).
		Msg("Game over")
	return nil
}

func (s *GameOverState) Exit(ctx *GameContext) error {
	ctx.Logger.Debug().Msg("Leaving GameOver for restart")
	return nil
}

func (s *GameOverState) Validate(ctx *GameContext) error {
	return nil
}
