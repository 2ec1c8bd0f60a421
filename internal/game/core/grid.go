package core

import (
	"fmt"
	"strings"
)

// Grid is the fixed-size board. Row 0 is the top row. Cells are stored in
// row-major order; the dimensions never change after creation.
type Grid struct {
	W, H int
	T    []Tile // length = W*H
}

// NewGrid returns an empty grid.
func NewGrid(w, h int) *Grid {
	if w < 1 || h < 1 {
		panic(fmt.Sprintf("core.NewGrid: %v: %dx%d", ErrInvalidDimension, w, h))
	}
	return &Grid{W: w, H: h, T: make([]Tile, w*h)}
}

// GridFromRows builds a grid from equal-length rows. Mostly used by tests
// and fixtures.
func GridFromRows(rows [][]Tile) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrInvalidDimension
	}
	g := NewGrid(len(rows[0]), len(rows))
	for r, row := range rows {
		if len(row) != g.W {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRowWidth, r, len(row), g.W)
		}
		copy(g.T[r*g.W:(r+1)*g.W], row)
	}
	return g, nil
}

func (g *Grid) Idx(row, col int) int { return row*g.W + col }

func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.H && col >= 0 && col < g.W
}

// CellAt returns the tile at (row, col), or Empty when out of bounds.
func (g *Grid) CellAt(row, col int) Tile {
	if !g.InBounds(row, col) {
		return Empty
	}
	return g.T[g.Idx(row, col)]
}

func (g *Grid) SetCell(row, col int, t Tile) error {
	if !g.InBounds(row, col) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, row, col)
	}
	g.T[g.Idx(row, col)] = t
	return nil
}

// Swap exchanges the two cells covered by the cursor.
func (g *Grid) Swap(c Cursor) error {
	if !c.IsValid(g.W, g.H) {
		return fmt.Errorf("%w: %s on %dx%d grid", ErrInvalidCursor, c, g.W, g.H)
	}
	left, right := g.Idx(c.Row, c.Col), g.Idx(c.Row, c.Col+1)
	g.T[left], g.T[right] = g.T[right], g.T[left]
	return nil
}

// IsTopRowEmpty is the game-over predicate: the game is lost once a tile
// reaches row 0 when a new row is due.
func (g *Grid) IsTopRowEmpty() bool {
	for col := 0; col < g.W; col++ {
		if !g.T[col].IsEmpty() {
			return false
		}
	}
	return true
}

// Row returns a copy of row r.
func (g *Grid) Row(r int) []Tile {
	out := make([]Tile, g.W)
	copy(out, g.T[r*g.W:(r+1)*g.W])
	return out
}

// PushBottom drops the top row, moves every other row up by one and writes
// row as the new bottom row.
func (g *Grid) PushBottom(row []Tile) error {
	if len(row) != g.W {
		return fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(row), g.W)
	}
	copy(g.T, g.T[g.W:])
	copy(g.T[(g.H-1)*g.W:], row)
	return nil
}

// Clone returns a deep copy that shares nothing with g.
func (g *Grid) Clone() *Grid {
	c := &Grid{W: g.W, H: g.H, T: make([]Tile, len(g.T))}
	copy(c.T, g.T)
	return c
}

func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.W != other.W || g.H != other.H {
		return false
	}
	for i := range g.T {
		if g.T[i] != other.T[i] {
			return false
		}
	}
	return true
}

// TileCount returns the number of non-empty cells.
func (g *Grid) TileCount() int {
	n := 0
	for _, t := range g.T {
		if !t.IsEmpty() {
			n++
		}
	}
	return n
}

// String renders one line per row, cells separated by spaces.
func (g *Grid) String() string {
	var sb strings.Builder
	for r := 0; r < g.H; r++ {
		for c := 0; c < g.W; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(g.T[g.Idx(r, c)].String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseGrid builds a grid from text rows, one character per cell, with '.'
// for empty cells: ParseGrid("aba", "b.b").
func ParseGrid(rows ...string) (*Grid, error) {
	tiles := make([][]Tile, len(rows))
	for r, s := range rows {
		tiles[r] = make([]Tile, len(s))
		for c := 0; c < len(s); c++ {
			if s[c] != EmptySymbol {
				tiles[r][c] = Tile(s[c])
			}
		}
	}
	return GridFromRows(tiles)
}
