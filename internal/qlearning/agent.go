package qlearning

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/rs/zerolog"
)

// DecaySchedule decides when DecayExploration is applied.
type DecaySchedule string

const (
	// DecayEveryStep decays after every update.
	DecayEveryStep DecaySchedule = "step"
	// DecayEveryEpisode decays once at the end of each episode.
	DecayEveryEpisode DecaySchedule = "episode"
	// DecayOnBestScore decays only when an episode beats the best score so far.
	DecayOnBestScore DecaySchedule = "best_score"
)

// ParseDecaySchedule validates a schedule name.
func ParseDecaySchedule(s string) (DecaySchedule, error) {
	switch d := DecaySchedule(strings.ToLower(s)); d {
	case DecayEveryStep, DecayEveryEpisode, DecayOnBestScore:
		return d, nil
	default:
		return "", fmt.Errorf("unknown decay schedule %q", s)
	}
}

// Config holds the agent hyperparameters.
type Config struct {
	LearningRate       float64
	DiscountFactor     float64
	ExplorationRate    float64
	MinExplorationRate float64
	ExplorationDecay   float64
	Schedule           DecaySchedule
}

// DefaultConfig returns the training defaults.
func DefaultConfig() Config {
	return Config{
		LearningRate:       0.1,
		DiscountFactor:     0.95,
		ExplorationRate:    1.0,
		MinExplorationRate: 0.001,
		ExplorationDecay:   0.9995,
		Schedule:           DecayEveryStep,
	}
}

// Validate checks every parameter lies in its range.
func (c Config) Validate() error {
	switch {
	case c.LearningRate <= 0 || c.LearningRate > 1:
		return fmt.Errorf("learning rate must be in (0, 1], got %v", c.LearningRate)
	case c.DiscountFactor < 0 || c.DiscountFactor >= 1:
		return fmt.Errorf("discount factor must be in [0, 1), got %v", c.DiscountFactor)
	case c.ExplorationRate < 0 || c.ExplorationRate > 1:
		return fmt.Errorf("exploration rate must be in [0, 1], got %v", c.ExplorationRate)
	case c.MinExplorationRate < 0 || c.MinExplorationRate > c.ExplorationRate:
		return fmt.Errorf("min exploration rate must be in [0, exploration rate], got %v", c.MinExplorationRate)
	case c.ExplorationDecay <= 0 || c.ExplorationDecay > 1:
		return fmt.Errorf("exploration decay must be in (0, 1], got %v", c.ExplorationDecay)
	}
	if _, err := ParseDecaySchedule(string(c.Schedule)); err != nil {
		return err
	}
	return nil
}

// Agent is a tabular Q-learning agent with ε-greedy action selection.
type Agent struct {
	config  Config
	table   *Table
	actions []game.Action
	epsilon float64
	rng     *rand.Rand
	logger  zerolog.Logger
}

// NewAgent creates an agent over a fixed action set. table may be nil for a
// fresh table, or a loaded one to continue training.
func NewAgent(cfg Config, actions []game.Action, table *Table, rng *rand.Rand, logger zerolog.Logger) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("agent needs at least one action")
	}
	if table == nil {
		table = NewTable()
	}
	return &Agent{
		config:  cfg,
		table:   table,
		actions: append([]game.Action(nil), actions...),
		epsilon: cfg.ExplorationRate,
		rng:     rng,
		logger:  logger.With().Str("component", "QAgent").Logger(),
	}, nil
}

func (a *Agent) Table() *Table           { return a.table }
func (a *Agent) Actions() []game.Action  { return a.actions }
func (a *Agent) Exploration() float64    { return a.epsilon }
func (a *Agent) Schedule() DecaySchedule { return a.config.Schedule }

// ChooseAction picks a uniformly random action with probability ε and the
// best known action otherwise. Exactly one random draw decides between the
// two, so a fixed seed and table give a fixed action sequence.
func (a *Agent) ChooseAction(state string, actions []game.Action) game.Action {
	if len(actions) == 0 {
		actions = a.actions
	}
	if a.rng.Float64() < a.epsilon {
		return actions[a.rng.Intn(len(actions))]
	}
	best, _, _ := a.table.Best(state, actions)
	return best
}

// Update applies Q ← Q + α·(r + γ·max_a' Q(next, a') − Q) and returns the
// new value. The max ranges over the agent's whole action set.
func (a *Agent) Update(state string, action game.Action, reward float64, next string) float64 {
	return a.update(state, action, reward+a.config.DiscountFactor*a.table.MaxValue(next, a.actions))
}

// UpdateTerminal is Update for a step that ended the game: there is no
// next state, so the target is the reward alone.
func (a *Agent) UpdateTerminal(state string, action game.Action, reward float64) float64 {
	return a.update(state, action, reward)
}

func (a *Agent) update(state string, action game.Action, target float64) float64 {
	q := a.table.Get(state, action)
	q += a.config.LearningRate * (target - q)
	a.table.Set(state, action, q)

	if a.config.Schedule == DecayEveryStep {
		a.DecayExploration()
	}
	return q
}

// DecayExploration multiplies ε by the decay factor, never going below the
// configured minimum.
func (a *Agent) DecayExploration() {
	a.epsilon *= a.config.ExplorationDecay
	if a.epsilon < a.config.MinExplorationRate {
		a.epsilon = a.config.MinExplorationRate
	}
}

// EndEpisode applies the episode-level decay schedules.
func (a *Agent) EndEpisode(newBest bool) {
	switch {
	case a.config.Schedule == DecayEveryEpisode:
		a.DecayExploration()
	case a.config.Schedule == DecayOnBestScore && newBest:
		a.DecayExploration()
		a.logger.Debug().Float64("epsilon", a.epsilon).Msg("New best score, exploration decayed")
	}
}
