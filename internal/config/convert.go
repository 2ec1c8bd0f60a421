package config

import (
	"strings"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/bot"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/encoding"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/qlearning"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/training"
)

// EngineConfig converts the section into an engine configuration. The
// caller fills in the RNG, logger and event bus.
func (g GameConfig) EngineConfig() (game.GameConfig, error) {
	alphabet, err := core.ParseAlphabet(strings.Split(g.Tiles, ","))
	if err != nil {
		return game.GameConfig{}, err
	}

	gc := game.DefaultGameConfig()
	gc.Width = g.Width
	gc.Height = g.Height
	gc.Alphabet = alphabet
	gc.StarterRows = g.StarterRows
	gc.TickInterval = g.TickInterval
	gc.RowInsertInterval = g.RowInsertInterval
	gc.MaxRowAttempts = g.MaxRowAttempts
	return gc, gc.Validate()
}

// QLearning converts the agent section into agent hyperparameters.
func (a AgentConfig) QLearning() (qlearning.Config, error) {
	schedule, err := qlearning.ParseDecaySchedule(a.DecaySchedule)
	if err != nil {
		return qlearning.Config{}, err
	}
	qc := qlearning.Config{
		LearningRate:       a.LearningRate,
		DiscountFactor:     a.DiscountFactor,
		ExplorationRate:    a.ExplorationRate,
		MinExplorationRate: a.MinExplorationRate,
		ExplorationDecay:   a.ExplorationDecay,
		Schedule:           schedule,
	}
	return qc, qc.Validate()
}

// Shaping converts the rewards section into reward weights.
func (r RewardsConfig) Shaping() *training.RewardConfig {
	return &training.RewardConfig{
		ScoreCap:        r.ScoreCap,
		StepPenalty:     r.StepPenalty,
		WallPenalty:     r.WallPenalty,
		NoopSwapPenalty: r.NoopSwapPenalty,
		PotentialBonus:  r.PotentialBonus,
		GameOverPenalty: r.GameOverPenalty,
	}
}

// Environment returns the step settings of the training section.
func (t TrainingConfig) Environment() training.EnvConfig {
	return training.EnvConfig{
		TicksPerStep:       t.TicksPerStep,
		MaxEpisodeDuration: t.MaxEpisodeDuration,
		MaxSteps:           t.MaxSteps,
		StepDelay:          t.StepDelay,
	}
}

func (t TrainingConfig) EncoderOptions() encoding.Options {
	return encoding.Options{AdjacencyRows: t.AdjacencyRows}
}

// BotSettings converts the bot section. The game keeps running after a game
// over so the player can restart it.
func (b BotConfig) BotSettings() (bot.Config, error) {
	action, err := game.ParseAction(b.DefaultAction)
	if err != nil {
		return bot.Config{}, err
	}
	bc := bot.Config{Interval: b.Interval, DefaultAction: action}
	return bc, bc.Validate()
}
