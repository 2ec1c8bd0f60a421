package training

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/qlearning"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/tablestore"
)

// TrainerConfig controls the episode loop.
type TrainerConfig struct {
	Episodes int
	// LogEvery logs an episode summary every N episodes; 0 disables it.
	LogEvery int
	// SnapshotEvery saves the table every N episodes; 0 saves only at the end.
	SnapshotEvery int
}

func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{Episodes: 1000, LogEvery: 1, SnapshotEvery: 25}
}

// SnapshotSaver persists table snapshots. SaveAsync must not block the
// training loop.
type SnapshotSaver interface {
	SaveAsync(snap tablestore.Snapshot) bool
	Save(snap tablestore.Snapshot) error
}

// Session holds the bookkeeping of one training run.
type Session struct {
	RunID     string
	Encoder   string
	StartedAt time.Time

	// Episode is the number of completed episodes.
	Episode     int
	BestScore   int
	BestEpisode int
	TotalSteps  int
	Timeouts    int
	LastScore   int
}

// EpisodeResult summarises one episode.
type EpisodeResult struct {
	Episode     int
	Score       int
	Steps       int
	TotalReward float64
	Elapsed     time.Duration
	TimedOut    bool
	NewBest     bool
	Exploration float64
}

// Trainer runs episodes of an environment against a learning agent.
type Trainer struct {
	env     *Environment
	agent   *qlearning.Agent
	saver   SnapshotSaver
	config  TrainerConfig
	session *Session
	logger  zerolog.Logger
}

// NewTrainer creates a trainer. saver may be nil to keep the table in memory only.
func NewTrainer(env *Environment, agent *qlearning.Agent, saver SnapshotSaver, cfg TrainerConfig, logger zerolog.Logger) (*Trainer, error) {
	if cfg.Episodes < 1 {
		return nil, fmt.Errorf("trainer needs at least one episode, got %d", cfg.Episodes)
	}
	if cfg.LogEvery < 0 || cfg.SnapshotEvery < 0 {
		return nil, fmt.Errorf("log and snapshot cadence must be non-negative")
	}

	session := &Session{
		RunID:     uuid.New().String(),
		Encoder:   env.Encoder().Name(),
		StartedAt: time.Now(),
	}
	return &Trainer{
		env:     env,
		agent:   agent,
		saver:   saver,
		config:  cfg,
		session: session,
		logger: logger.With().
			Str("component", "Trainer").
			Str("run_id", session.RunID).
			Logger(),
	}, nil
}

// Session returns the live session bookkeeping.
func (t *Trainer) Session() *Session { return t.session }

// Snapshot copies the agent's table for persistence.
func (t *Trainer) Snapshot() tablestore.Snapshot {
	return tablestore.NewSnapshot(t.agent.Table(), t.session.Encoder, t.session.RunID, t.session.Episode)
}

// Run plays the configured number of episodes. A cancelled ctx stops the run
// after the current step; the table is saved either way.
func (t *Trainer) Run(ctx context.Context) (*Session, error) {
	t.logger.Info().
		Int("episodes", t.config.Episodes).
		Str("encoder", t.session.Encoder).
		Msg("Training started")

	var runErr error
	for t.session.Episode < t.config.Episodes {
		res, err := t.RunEpisode(ctx)
		if err != nil {
			runErr = err
			break
		}
		t.logEpisode(res)

		if t.saver != nil && t.config.SnapshotEvery > 0 && res.Episode%t.config.SnapshotEvery == 0 {
			t.saver.SaveAsync(t.Snapshot())
		}
	}

	if t.saver != nil {
		if err := t.saver.Save(t.Snapshot()); err != nil {
			t.logger.Error().Err(err).Msg("Final snapshot failed")
		}
	}

	t.logger.Info().
		Int("episodes", t.session.Episode).
		Int("best_score", t.session.BestScore).
		Int("best_episode", t.session.BestEpisode).
		Int("total_steps", t.session.TotalSteps).
		Int("timeouts", t.session.Timeouts).
		Int("states", t.agent.Table().States()).
		Dur("took", time.Since(t.session.StartedAt)).
		Msg("Training finished")

	return t.session, runErr
}

// RunEpisode plays one episode from a fresh game until it ends or the
// watchdog fires, updating the agent after every step.
func (t *Trainer) RunEpisode(ctx context.Context) (EpisodeResult, error) {
	state, err := t.env.Reset()
	if err != nil {
		return EpisodeResult{}, err
	}

	res := EpisodeResult{Episode: t.session.Episode + 1}
	actions := t.env.Actions()
	for {
		action := t.agent.ChooseAction(state, actions)
		step, err := t.env.Step(ctx, action)
		if err != nil {
			return res, err
		}

		if step.Done && !step.TimedOut {
			t.agent.UpdateTerminal(state, action, step.Reward)
		} else {
			t.agent.Update(state, action, step.Reward, step.NextState)
		}

		res.Steps++
		res.TotalReward += step.Reward
		res.Score = step.Snapshot.Score
		res.Elapsed = step.Snapshot.Elapsed
		state = step.NextState

		if step.Done {
			res.TimedOut = step.TimedOut
			break
		}
	}

	s := t.session
	s.Episode = res.Episode
	s.TotalSteps += res.Steps
	s.LastScore = res.Score
	if res.TimedOut {
		s.Timeouts++
	}
	if res.Score > s.BestScore {
		s.BestScore = res.Score
		s.BestEpisode = res.Episode
		res.NewBest = true
	}

	t.agent.EndEpisode(res.NewBest)
	res.Exploration = t.agent.Exploration()
	return res, nil
}

func (t *Trainer) logEpisode(res EpisodeResult) {
	if t.config.LogEvery == 0 || (res.Episode%t.config.LogEvery != 0 && !res.NewBest) {
		return
	}
	t.logger.Info().
		Int("episode", res.Episode).
		Int("score", res.Score).
		Int("best_score", t.session.BestScore).
		Int("best_episode", t.session.BestEpisode).
		Int("steps", res.Steps).
		Float64("reward", res.TotalReward).
		Float64("epsilon", res.Exploration).
		Dur("elapsed", res.Elapsed).
		Bool("timed_out", res.TimedOut).
		Msg("Episode finished")
}
