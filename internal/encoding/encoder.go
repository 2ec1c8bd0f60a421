// Package encoding turns a grid and cursor into a state key for the Q-table.
//
// Every encoder is a pure function of its inputs. Empty cells are written as
// '.', cells outside the grid as '#'; both symbols are reserved and can never
// be tiles, so the two are never confused.
package encoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
)

// ErrUnknownEncoder is returned by New for an unrecognised encoder name.
var ErrUnknownEncoder = errors.New("unknown state encoder")

const (
	EmptySymbol      = core.EmptySymbol
	OutOfBoundSymbol = '#'

	rowSeparator   = '/'
	fieldSeparator = '|'
)

// Encoder names accepted by New and the training.encoder setting.
const (
	NameFullGrid    = "full_grid"
	NameLocalWindow = "local_window"
	NameAdjacency   = "adjacency"
)

// Names lists every encoder New understands.
var Names = []string{NameFullGrid, NameLocalWindow, NameAdjacency}

// Encoder maps a grid and cursor to a comparable state key. A table trained
// with one encoder is meaningless under another.
type Encoder interface {
	Name() string
	Encode(g *core.Grid, c core.Cursor) string
}

// Options tune encoders that take parameters.
type Options struct {
	// AdjacencyRows is the number of bottom rows the adjacency encoder looks at.
	AdjacencyRows int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{AdjacencyRows: 3}
}

// New returns the encoder registered under name.
func New(name string, opts Options) (Encoder, error) {
	switch name {
	case NameFullGrid:
		return FullGrid{}, nil
	case NameLocalWindow:
		return LocalWindow{}, nil
	case NameAdjacency:
		if opts.AdjacencyRows < 1 {
			return nil, fmt.Errorf("adjacency rows must be at least 1, got %d", opts.AdjacencyRows)
		}
		return Adjacency{Rows: opts.AdjacencyRows}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownEncoder, name, strings.Join(Names, ", "))
	}
}

func writeCursor(sb *strings.Builder, c core.Cursor) {
	sb.WriteString(strconv.Itoa(c.Row))
	sb.WriteByte(',')
	sb.WriteString(strconv.Itoa(c.Col))
	sb.WriteByte(fieldSeparator)
}

// writeRow appends row r of g, or a run of OutOfBoundSymbol when r is not
// inside the grid.
func writeRow(sb *strings.Builder, g *core.Grid, r int) {
	for c := 0; c < g.W; c++ {
		if r < 0 || r >= g.H {
			sb.WriteByte(OutOfBoundSymbol)
			continue
		}
		t := g.CellAt(r, c)
		if t.IsEmpty() {
			sb.WriteByte(EmptySymbol)
		} else {
			sb.WriteByte(byte(t))
		}
	}
}

// FullGrid encodes the cursor and every row: "3,1|..../zaza/azaz".
type FullGrid struct{}

func (FullGrid) Name() string { return NameFullGrid }

func (FullGrid) Encode(g *core.Grid, c core.Cursor) string {
	var sb strings.Builder
	sb.Grow(8 + g.H*(g.W+1))
	writeCursor(&sb, c)
	for r := 0; r < g.H; r++ {
		if r > 0 {
			sb.WriteByte(rowSeparator)
		}
		writeRow(&sb, g, r)
	}
	return sb.String()
}

// LocalWindow encodes the cursor and the rows directly above, at and below
// the cursor row: "0,1|####/zaza/azaz".
type LocalWindow struct{}

func (LocalWindow) Name() string { return NameLocalWindow }

func (LocalWindow) Encode(g *core.Grid, c core.Cursor) string {
	var sb strings.Builder
	sb.Grow(8 + 3*(g.W+1))
	writeCursor(&sb, c)
	for r := c.Row - 1; r <= c.Row+1; r++ {
		if r > c.Row-1 {
			sb.WriteByte(rowSeparator)
		}
		writeRow(&sb, g, r)
	}
	return sb.String()
}

// Adjacency encodes, for the bottom Rows rows, whether neighbouring cells
// match rather than which tiles they hold. Each horizontal and vertical pair
// is written as '1' (equal), '0' (different) or '?' (either side empty):
// "3,1|h:1?0/010|v:0?1?". Rows reaching above the grid are written with
// OutOfBoundSymbol.
type Adjacency struct {
	Rows int
}

func (Adjacency) Name() string { return NameAdjacency }

func (a Adjacency) Encode(g *core.Grid, c core.Cursor) string {
	first := g.H - a.Rows

	var sb strings.Builder
	writeCursor(&sb, c)

	sb.WriteString("h:")
	for r := first; r < g.H; r++ {
		if r > first {
			sb.WriteByte(rowSeparator)
		}
		for col := 0; col+1 < g.W; col++ {
			sb.WriteByte(pairSymbol(g, r, col, r, col+1))
		}
	}

	sb.WriteByte(fieldSeparator)
	sb.WriteString("v:")
	for r := first; r+1 < g.H; r++ {
		if r > first {
			sb.WriteByte(rowSeparator)
		}
		for col := 0; col < g.W; col++ {
			sb.WriteByte(pairSymbol(g, r, col, r+1, col))
		}
	}
	return sb.String()
}

func pairSymbol(g *core.Grid, r1, c1, r2, c2 int) byte {
	if !g.InBounds(r1, c1) || !g.InBounds(r2, c2) {
		return OutOfBoundSymbol
	}
	a, b := g.CellAt(r1, c1), g.CellAt(r2, c2)
	switch {
	case a.IsEmpty() || b.IsEmpty():
		return '?'
	case a == b:
		return '1'
	default:
		return '0'
	}
}
