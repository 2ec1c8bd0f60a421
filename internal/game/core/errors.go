package core

import "errors"

var (
	ErrOutOfBounds      = errors.New("coordinates out of bounds")
	ErrInvalidCursor    = errors.New("cursor does not cover a horizontal pair")
	ErrInvalidAlphabet  = errors.New("invalid tile alphabet")
	ErrInvalidDimension = errors.New("invalid grid dimensions")
	ErrRowWidth         = errors.New("row width does not match grid width")
)
