// Package input turns terminal key presses into action tokens from the
// engine's input vocabulary.
package input

import (
	"sort"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
)

// Handler maps key names, as reported by bubbletea's KeyMsg.String(), to
// action tokens.
type Handler struct {
	bindings map[string]string
	quit     map[string]bool
}

// DefaultBindings covers arrows, vim keys and WASD. Swap is on space, enter
// and x.
func DefaultBindings() map[string]game.Action {
	return map[string]game.Action{
		"up":    game.ActionMoveUp,
		"k":     game.ActionMoveUp,
		"w":     game.ActionMoveUp,
		"down":  game.ActionMoveDown,
		"j":     game.ActionMoveDown,
		"s":     game.ActionMoveDown,
		"left":  game.ActionMoveLeft,
		"h":     game.ActionMoveLeft,
		"a":     game.ActionMoveLeft,
		"right": game.ActionMoveRight,
		"l":     game.ActionMoveRight,
		"d":     game.ActionMoveRight,
		" ":     game.ActionSwap,
		"space": game.ActionSwap,
		"enter": game.ActionSwap,
		"x":     game.ActionSwap,
		"r":     game.ActionRestart,
	}
}

func NewHandler(bindings map[string]game.Action) *Handler {
	h := &Handler{
		bindings: make(map[string]string, len(bindings)),
		quit:     map[string]bool{"q": true, "ctrl+c": true, "esc": true},
	}
	for key, a := range bindings {
		h.bindings[key] = a.String()
	}
	return h
}

// Token returns the action token bound to key.
func (h *Handler) Token(key string) (string, bool) {
	tok, ok := h.bindings[key]
	return tok, ok
}

func (h *Handler) IsQuit(key string) bool {
	return h.quit[key]
}

// IsRestart reports whether key restarts the game. Restart stays available
// to the player while a bot is driving.
func (h *Handler) IsRestart(key string) bool {
	return h.bindings[key] == game.ActionRestart.String()
}

// Keys lists the keys bound to token, sorted.
func (h *Handler) Keys(token string) []string {
	var keys []string
	for k, t := range h.bindings {
		if t == token && k != " " {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
