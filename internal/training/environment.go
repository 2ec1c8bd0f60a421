package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/encoding"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/states"
)

// EnvConfig controls how an environment step maps onto game time.
type EnvConfig struct {
	// TicksPerStep game ticks run after every action, so rows keep arriving
	// while the agent thinks.
	TicksPerStep int
	// MaxEpisodeDuration caps simulated play time (ticks × tick interval).
	MaxEpisodeDuration time.Duration
	// MaxSteps caps actions per episode; 0 means no cap.
	MaxSteps int
	// StepDelay optionally sleeps between steps.
	StepDelay time.Duration
}

func DefaultEnvConfig() EnvConfig {
	return EnvConfig{
		TicksPerStep:       1,
		MaxEpisodeDuration: 60 * time.Second,
	}
}

func (c EnvConfig) Validate() error {
	switch {
	case c.TicksPerStep < 0:
		return fmt.Errorf("ticks per step must be non-negative, got %d", c.TicksPerStep)
	case c.MaxEpisodeDuration <= 0:
		return fmt.Errorf("max episode duration must be positive, got %v", c.MaxEpisodeDuration)
	case c.MaxSteps < 0:
		return fmt.Errorf("max steps must be non-negative, got %d", c.MaxSteps)
	case c.StepDelay < 0:
		return fmt.Errorf("step delay must be non-negative, got %v", c.StepDelay)
	case c.TicksPerStep == 0 && c.MaxSteps == 0:
		return fmt.Errorf("an episode without ticks needs a step cap")
	}
	return nil
}

// StepResult is what the agent sees after one action.
type StepResult struct {
	NextState string
	Reward    float64
	// Done is set when the game ended or the watchdog fired.
	Done bool
	// TimedOut is set when the watchdog, not the game, ended the episode.
	TimedOut bool
	Outcome  game.Outcome
	Snapshot game.Snapshot
}

// Environment wraps an engine as step(action) → (state, reward, done).
type Environment struct {
	engine  *game.Engine
	encoder encoding.Encoder
	shaper  RewardShaper
	config  EnvConfig
	logger  zerolog.Logger

	steps int
}

// NewEnvironment creates an environment; a nil shaper uses ShapedReward
// with the default weights.
func NewEnvironment(engine *game.Engine, encoder encoding.Encoder, shaper RewardShaper, cfg EnvConfig, logger zerolog.Logger) (*Environment, error) {
	if engine == nil || encoder == nil {
		return nil, errors.New("environment needs an engine and an encoder")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if shaper == nil {
		shaper = NewShapedReward(nil)
	}
	return &Environment{
		engine:  engine,
		encoder: encoder,
		shaper:  shaper,
		config:  cfg,
		logger:  logger.With().Str("component", "Environment").Str("encoder", encoder.Name()).Logger(),
	}, nil
}

func (env *Environment) Engine() *game.Engine      { return env.engine }
func (env *Environment) Encoder() encoding.Encoder { return env.encoder }
func (env *Environment) Actions() []game.Action    { return game.AgentActions }
func (env *Environment) Steps() int                { return env.steps }

// Reset restarts the game and returns the encoded initial state.
func (env *Environment) Reset() (string, error) {
	if err := env.engine.Restart(); err != nil {
		return "", fmt.Errorf("reset environment: %w", err)
	}
	env.steps = 0
	return env.encode(env.engine.Snapshot()), nil
}

// Step applies action, advances the game by TicksPerStep ticks and scores
// the transition. Once the episode is done the engine is left in GameOver.
func (env *Environment) Step(ctx context.Context, action game.Action) (StepResult, error) {
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}

	before := env.engine.Snapshot()
	if before.Phase != states.PhasePlaying {
		return StepResult{}, fmt.Errorf("step: %w", game.ErrNotPlaying)
	}

	outcome := env.engine.Apply(action)
	for i := 0; i < env.config.TicksPerStep; i++ {
		if res := env.engine.Tick(); !res.Advanced || res.GameOver {
			break
		}
	}
	after := env.engine.Snapshot()
	env.steps++

	res := StepResult{
		NextState: env.encode(after),
		Reward:    env.shaper.Reward(Transition{Before: before, After: after, Outcome: outcome}),
		Done:      after.Phase == states.PhaseGameOver,
		Outcome:   outcome,
		Snapshot:  after,
	}

	if !res.Done && env.watchdogExpired(after) {
		env.logger.Warn().
			Str("game_id", after.GameID).
			Dur("elapsed", after.Elapsed).
			Int("steps", env.steps).
			Int("score", after.Score).
			Msg("Episode watchdog fired, ending episode")
		env.engine.Stop()
		res.Done = true
		res.TimedOut = true
	}

	env.logger.Debug().
		Str("action", action.String()).
		Float64("reward", res.Reward).
		Int("score", after.Score).
		Bool("done", res.Done).
		Msg("Step")

	if env.config.StepDelay > 0 && !res.Done {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(env.config.StepDelay):
		}
	}
	return res, nil
}

func (env *Environment) watchdogExpired(s game.Snapshot) bool {
	if s.Elapsed >= env.config.MaxEpisodeDuration {
		return true
	}
	return env.config.MaxSteps > 0 && env.steps >= env.config.MaxSteps
}

func (env *Environment) encode(s game.Snapshot) string {
	return env.encoder.Encode(s.Grid, s.Cursor)
}
