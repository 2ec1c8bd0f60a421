// Package bot plays a live game greedily from a trained Q-table. It never
// learns; the table is only read.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/encoding"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/rules"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/qlearning"
)

// Config holds the bot settings.
type Config struct {
	Interval time.Duration
	// DefaultAction is played when the table has no preference for a state.
	DefaultAction game.Action
	// StopOnGameOver makes Run return once the game ends instead of waiting
	// for a restart.
	StopOnGameOver bool
}

func DefaultConfig() Config {
	return Config{Interval: 200 * time.Millisecond, DefaultAction: game.ActionSwap}
}

func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("bot interval must be positive, got %v", c.Interval)
	}
	if c.DefaultAction == game.ActionRestart {
		return fmt.Errorf("bot default action cannot be %s", c.DefaultAction)
	}
	if _, err := game.ParseAction(c.DefaultAction.String()); err != nil {
		return err
	}
	return nil
}

// Decision is one choice made by the bot.
type Decision struct {
	State  string
	Action game.Action
	Value  float64
	// Fallback is set when every legal action had the same value and the
	// default action was played.
	Fallback bool
}

// Stats counts decisions since the bot was created.
type Stats struct {
	Decisions int64
	Fallbacks int64
}

// Bot replays a Q-table against an engine.
type Bot struct {
	engine        *game.Engine
	encoder       encoding.Encoder
	table         *qlearning.Table
	defaultAction game.Action
	stopOnOver    bool
	logger        zerolog.Logger

	interval  atomic.Int64
	decisions atomic.Int64
	fallbacks atomic.Int64
}

// New creates a bot. encoder must be the one the table was trained with.
func New(engine *game.Engine, encoder encoding.Encoder, table *qlearning.Table, cfg Config, logger zerolog.Logger) (*Bot, error) {
	if engine == nil || encoder == nil || table == nil {
		return nil, errors.New("bot needs an engine, an encoder and a table")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Bot{
		engine:        engine,
		encoder:       encoder,
		table:         table,
		defaultAction: cfg.DefaultAction,
		stopOnOver:    cfg.StopOnGameOver,
		logger: logger.With().
			Str("component", "Bot").
			Str("game_id", engine.ID()).
			Str("encoder", encoder.Name()).
			Logger(),
	}
	b.interval.Store(int64(cfg.Interval))
	return b, nil
}

// Interval returns the current decision interval.
func (b *Bot) Interval() time.Duration { return time.Duration(b.interval.Load()) }

// SetInterval changes the decision interval of a running bot. Non-positive
// values are ignored.
func (b *Bot) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	if old := time.Duration(b.interval.Swap(int64(d))); old != d {
		b.logger.Info().Dur("old", old).Dur("new", d).Msg("Bot interval changed")
	}
}

func (b *Bot) Stats() Stats {
	return Stats{Decisions: b.decisions.Load(), Fallbacks: b.fallbacks.Load()}
}

// Decide picks the best legal action for snap. Moves that would leave the
// grid are never considered; swap always is.
func (b *Bot) Decide(snap game.Snapshot) Decision {
	d := Decision{State: b.encoder.Encode(snap.Grid, snap.Cursor)}

	legal := LegalActions(snap)
	best, value, decisive := b.table.Best(d.State, legal)
	if decisive {
		d.Action, d.Value = best, value
	} else {
		d.Action, d.Value, d.Fallback = b.defaultAction, b.table.Get(d.State, b.defaultAction), true
	}
	return d
}

// Step makes and applies one decision. The decision is made from the state
// it is applied to: a row pushed in by the tick source lands either before
// the snapshot or after the action. ok is false when the game is not
// playing and nothing was done.
func (b *Bot) Step() (d Decision, out game.Outcome, ok bool) {
	out, ok = b.engine.ApplyChosen(func(snap game.Snapshot) game.Action {
		d = b.Decide(snap)
		return d.Action
	})
	if !ok {
		return Decision{}, game.Outcome{}, false
	}

	b.decisions.Add(1)
	if d.Fallback {
		b.fallbacks.Add(1)
	}
	b.logger.Debug().
		Str("action", d.Action.String()).
		Float64("value", d.Value).
		Bool("fallback", d.Fallback).
		Int("score_delta", out.ScoreDelta).
		Msg("Bot decision")
	return d, out, true
}

// Run makes a decision every interval until ctx is cancelled. With
// StopOnGameOver it also returns when the game ends.
func (b *Bot) Run(ctx context.Context) error {
	interval := b.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.logger.Info().Dur("interval", interval).Msg("Bot started")
	defer b.logger.Info().Int64("decisions", b.decisions.Load()).Msg("Bot stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, ok := b.Step(); !ok && b.stopOnOver {
				return nil
			}
			if next := b.Interval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// LegalActions returns the moves that keep the cursor on the grid of snap,
// followed by swap.
func LegalActions(snap game.Snapshot) []game.Action {
	dirs := rules.LegalDirections(snap.Cursor, snap.Grid.W, snap.Grid.H)
	actions := make([]game.Action, 0, len(dirs)+1)
	for _, d := range dirs {
		actions = append(actions, game.ActionForDirection(d))
	}
	return append(actions, game.ActionSwap)
}
