package training

import (
	"math"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/rules"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/states"
)

// RewardConfig holds configurable reward values
type RewardConfig struct {
	ScoreCap        float64 // Largest reward a single swap can earn
	StepPenalty     float64
	WallPenalty     float64 // Added when a move is rejected at the edge
	NoopSwapPenalty float64 // Added when a swap exchanges two equal tiles
	PotentialBonus  float64 // Added when the number of adjacent equal pairs grows
	GameOverPenalty float64
}

// DefaultRewardConfig returns the default reward configuration
func DefaultRewardConfig() *RewardConfig {
	return &RewardConfig{
		ScoreCap:        30,
		StepPenalty:     -0.01,
		WallPenalty:     -0.1,
		NoopSwapPenalty: -0.1,
		PotentialBonus:  0.1,
		GameOverPenalty: -1,
	}
}

// Transition is one environment step seen by a reward shaper.
type Transition struct {
	Before  game.Snapshot
	After   game.Snapshot
	Outcome game.Outcome
}

// EndedGame reports whether the step moved the session into GameOver.
func (t Transition) EndedGame() bool {
	return t.Before.Phase != states.PhaseGameOver && t.After.Phase == states.PhaseGameOver
}

// RewardShaper turns a transition into a scalar reward.
type RewardShaper interface {
	Reward(t Transition) float64
}

// ShapedReward is the default shaper.
//
// A swap that scores earns min(ScoreCap, delta). Any other step earns
// StepPenalty, plus WallPenalty if the move hit an edge, plus NoopSwapPenalty
// for a swap of identical tiles, plus PotentialBonus if the board gained
// adjacent equal pairs. Ending the game adds GameOverPenalty on top.
type ShapedReward struct {
	Config *RewardConfig
}

// NewShapedReward creates the default shaper; a nil config uses the defaults.
func NewShapedReward(config *RewardConfig) *ShapedReward {
	if config == nil {
		config = DefaultRewardConfig()
	}
	return &ShapedReward{Config: config}
}

func (s *ShapedReward) Reward(t Transition) float64 {
	cfg := s.Config
	reward := 0.0

	if delta := t.After.Score - t.Before.Score; delta > 0 {
		reward = math.Min(cfg.ScoreCap, float64(delta))
	} else {
		reward = cfg.StepPenalty
		if t.Outcome.Rejected == game.RejectWall {
			reward += cfg.WallPenalty
		}
		if t.Outcome.IdenticalSwap {
			reward += cfg.NoopSwapPenalty
		}
		if potentialIncreased(t) {
			reward += cfg.PotentialBonus
		}
	}

	if t.EndedGame() {
		reward += cfg.GameOverPenalty
	}
	return reward
}

// potentialIncreased compares adjacent equal pairs before and after. Rows
// pushed in by ticks during the step count too.
func potentialIncreased(t Transition) bool {
	if t.Before.Grid == nil || t.After.Grid == nil {
		return false
	}
	return rules.CountAdjacentPairs(t.After.Grid) > rules.CountAdjacentPairs(t.Before.Grid)
}

// ScoreReward rewards the raw score delta and nothing else.
type ScoreReward struct{}

func (ScoreReward) Reward(t Transition) float64 {
	return float64(t.After.Score - t.Before.Score)
}
