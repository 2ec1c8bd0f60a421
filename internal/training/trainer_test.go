package training

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/encoding"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/states"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/qlearning"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/tablestore"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/testutil"
)

type recordingSaver struct {
	mu      sync.Mutex
	async   []int
	final   []tablestore.Snapshot
	saveErr error
}

func (r *recordingSaver) SaveAsync(snap tablestore.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.async = append(r.async, snap.Episode)
	return true
}

func (r *recordingSaver) Save(snap tablestore.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.final = append(r.final, snap)
	return r.saveErr
}

func newTestTrainer(t *testing.T, cfg TrainerConfig, saver SnapshotSaver, logger zerolog.Logger) *Trainer {
	t.Helper()
	engine, err := game.NewEngine(testGameConfig(3))
	require.NoError(t, err)
	env, err := NewEnvironment(engine, encoding.LocalWindow{}, nil,
		EnvConfig{TicksPerStep: 1, MaxEpisodeDuration: time.Second}, testutil.NopLogger())
	require.NoError(t, err)

	agent, err := qlearning.NewAgent(qlearning.DefaultConfig(), env.Actions(), nil, testutil.NewTestRNG(7), testutil.NopLogger())
	require.NoError(t, err)

	tr, err := NewTrainer(env, agent, saver, cfg, logger)
	require.NoError(t, err)
	return tr
}

func TestNewTrainer_Validation(t *testing.T) {
	engine, err := game.NewEngine(testGameConfig(1))
	require.NoError(t, err)
	env, err := NewEnvironment(engine, encoding.FullGrid{}, nil, DefaultEnvConfig(), testutil.NopLogger())
	require.NoError(t, err)
	agent, err := qlearning.NewAgent(qlearning.DefaultConfig(), env.Actions(), nil, testutil.NewTestRNG(1), testutil.NopLogger())
	require.NoError(t, err)

	_, err = NewTrainer(env, agent, nil, TrainerConfig{Episodes: 0}, testutil.NopLogger())
	assert.Error(t, err)
	_, err = NewTrainer(env, agent, nil, TrainerConfig{Episodes: 1, SnapshotEvery: -1}, testutil.NopLogger())
	assert.Error(t, err)

	tr, err := NewTrainer(env, agent, nil, DefaultTrainerConfig(), testutil.NopLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, tr.Session().RunID)
	assert.Equal(t, encoding.NameFullGrid, tr.Session().Encoder)
}

func TestTrainer_RunEpisode(t *testing.T) {
	tr := newTestTrainer(t, TrainerConfig{Episodes: 1}, nil, testutil.NopLogger())

	res, err := tr.RunEpisode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Episode)
	assert.Greater(t, res.Steps, 0)
	assert.LessOrEqual(t, res.Elapsed, time.Second)
	assert.Equal(t, 1, tr.Session().Episode)
	assert.Equal(t, res.Steps, tr.Session().TotalSteps)
	assert.Greater(t, tr.agent.Table().Len(), 0, "every step updates the table")
	assert.Equal(t, states.PhaseGameOver, tr.env.Engine().Phase())
}

func TestTrainer_Run(t *testing.T) {
	saver := &recordingSaver{}
	logger, sink := testutil.CaptureLogger()
	tr := newTestTrainer(t, TrainerConfig{Episodes: 5, LogEvery: 1, SnapshotEvery: 2}, saver, logger)

	session, err := tr.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, session.Episode)
	assert.GreaterOrEqual(t, session.BestScore, 0)
	assert.GreaterOrEqual(t, session.TotalSteps, 5)
	if session.BestScore > 0 {
		assert.True(t, session.BestEpisode >= 1 && session.BestEpisode <= 5)
	}

	assert.Equal(t, []int{2, 4}, saver.async)
	require.Len(t, saver.final, 1)
	final := saver.final[0]
	assert.Equal(t, 5, final.Episode)
	assert.Equal(t, session.RunID, final.RunID)
	assert.Equal(t, encoding.NameLocalWindow, final.Encoder)
	assert.Equal(t, tr.agent.Table().Len(), len(final.Entries))

	var episodes int
	for _, m := range sink.Messages() {
		if m == "Episode finished" {
			episodes++
		}
	}
	assert.Equal(t, 5, episodes)
	assert.True(t, sink.Contains("Training started"))
	assert.True(t, sink.Contains("Training finished"))
}

func TestTrainer_FinalSaveFailureIsLogged(t *testing.T) {
	saver := &recordingSaver{saveErr: errors.New("read-only filesystem")}
	logger, sink := testutil.CaptureLogger()
	tr := newTestTrainer(t, TrainerConfig{Episodes: 1}, saver, logger)

	_, err := tr.Run(context.Background())
	assert.NoError(t, err, "persistence failures never fail training")
	entry := sink.Last("Final snapshot failed")
	require.NotNil(t, entry)
	assert.Equal(t, "error", entry["level"])
}

func TestTrainer_Cancelled(t *testing.T) {
	saver := &recordingSaver{}
	tr := newTestTrainer(t, TrainerConfig{Episodes: 1000}, saver, testutil.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := tr.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, session.Episode)
	assert.Len(t, saver.final, 1, "the table is saved on the way out")
}

func TestTrainer_Deterministic(t *testing.T) {
	run := func() (*Session, []qlearning.Entry) {
		tr := newTestTrainer(t, TrainerConfig{Episodes: 4}, nil, testutil.NopLogger())
		s, err := tr.Run(context.Background())
		require.NoError(t, err)
		return s, tr.agent.Table().Snapshot()
	}

	s1, table1 := run()
	s2, table2 := run()
	assert.Equal(t, s1.BestScore, s2.BestScore)
	assert.Equal(t, s1.BestEpisode, s2.BestEpisode)
	assert.Equal(t, s1.TotalSteps, s2.TotalSteps)
	assert.Equal(t, s1.Timeouts, s2.Timeouts)
	assert.Equal(t, table1, table2)
	assert.NotEqual(t, s1.RunID, s2.RunID)
}

func TestTrainer_BestScoreSchedule(t *testing.T) {
	engine, err := game.NewEngine(testGameConfig(3))
	require.NoError(t, err)
	env, err := NewEnvironment(engine, encoding.LocalWindow{}, nil,
		EnvConfig{TicksPerStep: 1, MaxEpisodeDuration: time.Second}, testutil.NopLogger())
	require.NoError(t, err)

	cfg := qlearning.DefaultConfig()
	cfg.Schedule = qlearning.DecayOnBestScore
	cfg.ExplorationDecay = 0.5
	agent, err := qlearning.NewAgent(cfg, env.Actions(), nil, testutil.NewTestRNG(7), testutil.NopLogger())
	require.NoError(t, err)

	tr, err := NewTrainer(env, agent, nil, TrainerConfig{Episodes: 3}, testutil.NopLogger())
	require.NoError(t, err)

	bests := 0
	for i := 0; i < 3; i++ {
		res, err := tr.RunEpisode(context.Background())
		require.NoError(t, err)
		if res.NewBest {
			bests++
		}
	}
	assert.InDelta(t, math.Pow(0.5, float64(bests)), agent.Exploration(), 1e-12)
}
