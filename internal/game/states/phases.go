package states

import "fmt"

// GamePhase represents the current phase of a game session
type GamePhase int

const (
	// PhaseIdle - no session running; the only phase Start is valid from
	PhaseIdle GamePhase = iota

	// PhasePlaying - ticks and actions are processed
	PhasePlaying

	// PhaseGameOver - terminal; only a restart leaves it
	PhaseGameOver
)

// String returns the string representation of a GamePhase
func (p GamePhase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhasePlaying:
		return "Playing"
	case PhaseGameOver:
		return "GameOver"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true if the phase represents a terminal state
func (p GamePhase) IsTerminal() bool {
	return p == PhaseGameOver
}

// CanReceiveActions returns true if the game can process actions and ticks in this phase
func (p GamePhase) CanReceiveActions() bool {
	return p == PhasePlaying
}

// AllowedTransitions returns the valid phases this phase can transition to.
// Playing -> Idle is the first half of a restart.
func (p GamePhase) AllowedTransitions() []GamePhase {
	switch p {
	case PhaseIdle:
		return []GamePhase{PhasePlaying}
	case PhasePlaying:
		return []GamePhase{PhaseGameOver, PhaseIdle}
	case PhaseGameOver:
		return []GamePhase{PhaseIdle}
	default:
		return []GamePhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p GamePhase) CanTransitionTo(target GamePhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to a GamePhase
func ParsePhase(s string) (GamePhase, error) {
	switch s {
	case "Idle":
		return PhaseIdle, nil
	case "Playing":
		return PhasePlaying, nil
	case "GameOver":
		return PhaseGameOver, nil
	default:
		return PhaseIdle, fmt.Errorf("unknown game phase %q", s)
	}
}
