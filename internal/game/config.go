package game

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/events"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/mapgen"
	"github.com/rs/zerolog"
)

// GameConfig holds configuration for creating a new game engine
type GameConfig struct {
	Width             int
	Height            int
	Alphabet          core.Alphabet
	StarterRows       int
	TickInterval      time.Duration
	RowInsertInterval time.Duration
	MaxRowAttempts    int

	// GameID defaults to a random UUID.
	GameID string
	// Rng defaults to a time-seeded source.
	Rng    *rand.Rand
	Logger zerolog.Logger
	// EventBus defaults to a private bus; pass one to observe the engine.
	EventBus *events.EventBus
}

// DefaultGameConfig returns the interactive game defaults: a 12x6 board with
// five tile kinds, a tick every 20ms and a new row every 3s.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Width:             6,
		Height:            12,
		Alphabet:          core.Alphabet{'z', 'i', 'e', 'w', 'a'},
		StarterRows:       4,
		TickInterval:      20 * time.Millisecond,
		RowInsertInterval: 3 * time.Second,
		MaxRowAttempts:    mapgen.DefaultMaxAttempts,
		Logger:            zerolog.Nop(),
	}
}

// Validate checks that a session can be built from the configuration. It is
// the only fatal error class in the engine.
func (c GameConfig) Validate() error {
	var problems []string

	if c.Width < 2 {
		problems = append(problems, fmt.Sprintf("width must be at least 2 for a cursor pair, got %d", c.Width))
	}
	if c.Height < 2 {
		problems = append(problems, fmt.Sprintf("height must be at least 2, got %d", c.Height))
	}
	if c.StarterRows < 0 || (c.Height >= 2 && c.StarterRows >= c.Height) {
		problems = append(problems, fmt.Sprintf("starter rows must be in [0, height), got %d", c.StarterRows))
	}
	if err := c.Alphabet.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.TickInterval <= 0 {
		problems = append(problems, fmt.Sprintf("tick interval must be positive, got %s", c.TickInterval))
	}
	if c.RowInsertInterval <= 0 {
		problems = append(problems, fmt.Sprintf("row insert interval must be positive, got %s", c.RowInsertInterval))
	}
	if c.MaxRowAttempts < 1 {
		problems = append(problems, fmt.Sprintf("max row attempts must be at least 1, got %d", c.MaxRowAttempts))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// StartCursor is where the cursor is placed when a session starts: on the
// topmost starter row, left of centre.
func (c GameConfig) StartCursor() core.Cursor {
	row := c.Height - c.StarterRows
	if row > c.Height-1 {
		row = c.Height - 1
	}
	return core.NewCursor(row, c.Width/2-1)
}
