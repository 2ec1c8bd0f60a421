package training

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/encoding"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/states"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/testutil"
)

// testGameConfig is a 4x5 board with two starter rows and a new row every
// third tick, so with the board left alone the top row fills at tick 9 and
// the game ends at tick 12.
func testGameConfig(seed int64) game.GameConfig {
	cfg := game.DefaultGameConfig()
	cfg.Width = 4
	cfg.Height = 5
	cfg.Alphabet = testutil.TrainingAlphabet
	cfg.StarterRows = 2
	cfg.TickInterval = 10 * time.Millisecond
	cfg.RowInsertInterval = 30 * time.Millisecond
	cfg.GameID = "training-test"
	cfg.Rng = testutil.NewTestRNG(seed)
	cfg.Logger = testutil.NopLogger()
	return cfg
}

func newTestEnv(t *testing.T, envCfg EnvConfig, logger zerolog.Logger) *Environment {
	t.Helper()
	engine, err := game.NewEngine(testGameConfig(1))
	require.NoError(t, err)
	enc, err := encoding.New(encoding.NameLocalWindow, encoding.DefaultOptions())
	require.NoError(t, err)
	env, err := NewEnvironment(engine, enc, nil, envCfg, logger)
	require.NoError(t, err)
	return env
}

func TestEnvConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultEnvConfig().Validate())

	bad := []EnvConfig{
		{TicksPerStep: -1, MaxEpisodeDuration: time.Second},
		{TicksPerStep: 1},
		{TicksPerStep: 1, MaxEpisodeDuration: time.Second, MaxSteps: -1},
		{TicksPerStep: 1, MaxEpisodeDuration: time.Second, StepDelay: -time.Millisecond},
		{TicksPerStep: 0, MaxEpisodeDuration: time.Second},
	}
	for _, cfg := range bad {
		assert.Error(t, cfg.Validate(), "%+v", cfg)
	}

	noTicks := EnvConfig{MaxEpisodeDuration: time.Second, MaxSteps: 10}
	assert.NoError(t, noTicks.Validate())
}

func TestNewEnvironment_RequiresEngineAndEncoder(t *testing.T) {
	_, err := NewEnvironment(nil, encoding.FullGrid{}, nil, DefaultEnvConfig(), testutil.NopLogger())
	assert.Error(t, err)

	engine, err := game.NewEngine(testGameConfig(1))
	require.NoError(t, err)
	_, err = NewEnvironment(engine, nil, nil, DefaultEnvConfig(), testutil.NopLogger())
	assert.Error(t, err)
}

func TestEnvironment_Reset(t *testing.T) {
	env := newTestEnv(t, DefaultEnvConfig(), testutil.NopLogger())

	state, err := env.Reset()
	require.NoError(t, err)

	snap := env.Engine().Snapshot()
	assert.Equal(t, states.PhasePlaying, snap.Phase)
	assert.Equal(t, env.Encoder().Encode(snap.Grid, snap.Cursor), state)
	assert.Equal(t, 0, env.Steps())
	assert.Equal(t, game.AgentActions, env.Actions())

	// Reset mid-episode starts over.
	_, err = env.Step(context.Background(), game.ActionMoveUp)
	require.NoError(t, err)
	_, err = env.Reset()
	require.NoError(t, err)
	assert.Equal(t, 0, env.Steps())
	assert.Equal(t, 0, env.Engine().Snapshot().Ticks)
}

func TestEnvironment_StepBeforeReset(t *testing.T) {
	env := newTestEnv(t, DefaultEnvConfig(), testutil.NopLogger())
	_, err := env.Step(context.Background(), game.ActionSwap)
	assert.ErrorIs(t, err, game.ErrNotPlaying)
}

func TestEnvironment_StepCancelledContext(t *testing.T) {
	env := newTestEnv(t, DefaultEnvConfig(), testutil.NopLogger())
	_, err := env.Reset()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.Step(ctx, game.ActionSwap)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, env.Engine().Snapshot().Ticks)
}

func TestEnvironment_EpisodeEndsAtGameOver(t *testing.T) {
	env := newTestEnv(t, DefaultEnvConfig(), testutil.NopLogger())
	_, err := env.Reset()
	require.NoError(t, err)

	ctx := context.Background()
	for i := 1; i < 12; i++ {
		res, err := env.Step(ctx, game.ActionMoveUp)
		require.NoError(t, err)
		require.False(t, res.Done, "step %d", i)
		assert.Equal(t, env.Encoder().Encode(res.Snapshot.Grid, res.Snapshot.Cursor), res.NextState)
	}

	res, err := env.Step(ctx, game.ActionMoveUp)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.False(t, res.TimedOut)
	assert.Equal(t, states.PhaseGameOver, res.Snapshot.Phase)

	// The cursor has been pinned to row 0 since step 3, so the move hits
	// the wall on top of the game-over penalty.
	cfg := DefaultRewardConfig()
	assert.Equal(t, game.RejectWall, res.Outcome.Rejected)
	assert.InDelta(t, cfg.StepPenalty+cfg.WallPenalty+cfg.GameOverPenalty, res.Reward, 1e-9)

	_, err = env.Step(ctx, game.ActionMoveUp)
	assert.ErrorIs(t, err, game.ErrNotPlaying)
}

func TestEnvironment_WatchdogOnSimulatedTime(t *testing.T) {
	logger, sink := testutil.CaptureLogger()
	env := newTestEnv(t, EnvConfig{TicksPerStep: 1, MaxEpisodeDuration: 50 * time.Millisecond}, logger)
	_, err := env.Reset()
	require.NoError(t, err)

	var res StepResult
	for i := 1; i <= 5; i++ {
		res, err = env.Step(context.Background(), game.ActionMoveLeft)
		require.NoError(t, err)
		if i < 5 {
			require.False(t, res.Done, "step %d", i)
		}
	}

	assert.True(t, res.Done)
	assert.True(t, res.TimedOut)
	assert.Equal(t, 50*time.Millisecond, res.Snapshot.Elapsed)
	assert.Greater(t, res.Reward, DefaultRewardConfig().GameOverPenalty, "a timeout is not a loss")
	assert.Equal(t, states.PhaseGameOver, env.Engine().Phase())

	entry := sink.Last("Episode watchdog fired, ending episode")
	require.NotNil(t, entry)
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, 5, entry["steps"])
}

func TestEnvironment_MaxSteps(t *testing.T) {
	env := newTestEnv(t, EnvConfig{TicksPerStep: 0, MaxEpisodeDuration: time.Minute, MaxSteps: 3}, testutil.NopLogger())
	_, err := env.Reset()
	require.NoError(t, err)

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		res, err := env.Step(ctx, game.ActionSwap)
		require.NoError(t, err)
		assert.Equal(t, i == 3, res.Done, "step %d", i)
		assert.Equal(t, i == 3, res.TimedOut, "step %d", i)
	}
	assert.Equal(t, 0, env.Engine().Snapshot().Ticks)
}

func TestEnvironment_TicksPerStep(t *testing.T) {
	env := newTestEnv(t, EnvConfig{TicksPerStep: 3, MaxEpisodeDuration: time.Minute}, testutil.NopLogger())
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(context.Background(), game.ActionMoveLeft)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Snapshot.Ticks)
	assert.Equal(t, 3, res.Snapshot.RowsInserted, "two starter rows plus one inserted row")
}

func TestEnvironment_StepDelay(t *testing.T) {
	env := newTestEnv(t, EnvConfig{TicksPerStep: 1, MaxEpisodeDuration: time.Minute, StepDelay: time.Hour}, testutil.NopLogger())
	_, err := env.Reset()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := env.Step(ctx, game.ActionMoveLeft)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, res.Snapshot.Ticks, "the step itself completed")
	assert.Less(t, time.Since(start), time.Minute)
}
