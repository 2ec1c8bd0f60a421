package game

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid game configuration")
	ErrGameOver       = errors.New("game is over")
	ErrNotPlaying     = errors.New("game is not playing")
	ErrAlreadyPlaying = errors.New("game is already playing")
	ErrUnknownAction  = errors.New("unknown action")
)
