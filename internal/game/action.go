package game

import (
	"fmt"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
)

// Action is one entry of the input vocabulary.
type Action int

const (
	ActionMoveUp Action = iota
	ActionMoveDown
	ActionMoveLeft
	ActionMoveRight
	ActionSwap
	ActionRestart
)

var actionTokens = map[Action]string{
	ActionMoveUp:    "moveUp",
	ActionMoveDown:  "moveDown",
	ActionMoveLeft:  "moveLeft",
	ActionMoveRight: "moveRight",
	ActionSwap:      "swap",
	ActionRestart:   "restart",
}

// AgentActions is the fixed action set offered to learning agents and bots.
// Restart is deliberately absent: episodes end, they are not reset from inside.
var AgentActions = []Action{ActionMoveUp, ActionMoveDown, ActionMoveLeft, ActionMoveRight, ActionSwap}

func (a Action) String() string {
	if tok, ok := actionTokens[a]; ok {
		return tok
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction maps an input token to an Action.
func ParseAction(token string) (Action, error) {
	for a, tok := range actionTokens {
		if tok == token {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, token)
}

// Direction returns the cursor direction of a move action.
func (a Action) Direction() (core.Direction, bool) {
	switch a {
	case ActionMoveUp:
		return core.Up, true
	case ActionMoveDown:
		return core.Down, true
	case ActionMoveLeft:
		return core.Left, true
	case ActionMoveRight:
		return core.Right, true
	default:
		return 0, false
	}
}

// ActionForDirection is the inverse of Direction.
func ActionForDirection(d core.Direction) Action {
	switch d {
	case core.Up:
		return ActionMoveUp
	case core.Down:
		return ActionMoveDown
	case core.Left:
		return ActionMoveLeft
	default:
		return ActionMoveRight
	}
}
