package core

import "fmt"

// Cursor selects the horizontally adjacent pair (Row, Col) and (Row, Col+1).
type Cursor struct {
	Row, Col int
}

func NewCursor(row, col int) Cursor {
	return Cursor{Row: row, Col: col}
}

// IsValid checks 0 <= Row < h and 0 <= Col < w-1.
func (c Cursor) IsValid(w, h int) bool {
	return c.Row >= 0 && c.Row < h && c.Col >= 0 && c.Col < w-1
}

// CanMove reports whether the cursor can take one step in d and still cover
// a full pair.
func (c Cursor) CanMove(d Direction, w, h int) bool {
	switch d {
	case Up:
		return c.Row > 0
	case Down:
		return c.Row < h-1
	case Left:
		return c.Col > 0
	case Right:
		return c.Col < w-2
	default:
		return false
	}
}

// Move returns the cursor one step in d without any bounds check.
func (c Cursor) Move(d Direction) Cursor {
	if offset, ok := DirectionVectors[d]; ok {
		return Cursor{Row: c.Row + offset.Row, Col: c.Col + offset.Col}
	}
	return c
}

func (c Cursor) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Direction is a cursor movement direction.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// DirectionVectors provides row/col offsets for each direction
var DirectionVectors = map[Direction]Cursor{
	Up:    {Row: -1, Col: 0},
	Down:  {Row: 1, Col: 0},
	Left:  {Row: 0, Col: -1},
	Right: {Row: 0, Col: 1},
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}
