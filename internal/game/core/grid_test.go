package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, rows ...string) *Grid {
	t.Helper()
	g, err := ParseGrid(rows...)
	require.NoError(t, err)
	return g
}

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"default board", 6, 12},
		{"training board", 3, 4},
		{"minimum board", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(tt.width, tt.height)

			assert.Equal(t, tt.width, g.W)
			assert.Equal(t, tt.height, g.H)
			assert.Len(t, g.T, tt.width*tt.height)
			for i, tile := range g.T {
				assert.True(t, tile.IsEmpty(), "cell %d should start empty", i)
			}
			assert.True(t, g.IsTopRowEmpty())
		})
	}
}

func TestNewGrid_PanicsOnBadDimensions(t *testing.T) {
	assert.Panics(t, func() { NewGrid(0, 3) })
	assert.Panics(t, func() { NewGrid(3, 0) })
}

func TestGrid_CellAtAndSetCell(t *testing.T) {
	g := NewGrid(3, 4)

	require.NoError(t, g.SetCell(2, 1, 'a'))
	assert.Equal(t, Tile('a'), g.CellAt(2, 1))
	assert.Equal(t, 2*3+1, g.Idx(2, 1))

	err := g.SetCell(4, 0, 'a')
	assert.ErrorIs(t, err, ErrOutOfBounds)
	err = g.SetCell(0, -1, 'a')
	assert.ErrorIs(t, err, ErrOutOfBounds)

	assert.Equal(t, Empty, g.CellAt(-1, 0), "out of bounds reads as empty")
	assert.Equal(t, Empty, g.CellAt(0, 3))
}

func TestGrid_Swap(t *testing.T) {
	g := mustParse(t,
		"abz",
		"zza",
	)

	require.NoError(t, g.Swap(NewCursor(0, 1)))
	assert.Equal(t, "a z b\nz z a\n", g.String())

	require.NoError(t, g.Swap(NewCursor(1, 0)))
	assert.Equal(t, "a z b\nz z a\n", g.String(), "swapping identical tiles is a no-op")

	assert.ErrorIs(t, g.Swap(NewCursor(0, 2)), ErrInvalidCursor)
	assert.ErrorIs(t, g.Swap(NewCursor(2, 0)), ErrInvalidCursor)
}

func TestGrid_IsTopRowEmpty(t *testing.T) {
	assert.True(t, mustParse(t, "...", "abz").IsTopRowEmpty())
	assert.False(t, mustParse(t, "..a", "abz").IsTopRowEmpty())
}

func TestGrid_PushBottom(t *testing.T) {
	g := mustParse(t,
		"...",
		"a..",
		"bza",
	)

	require.NoError(t, g.PushBottom([]Tile{'z', 'z', 'a'}))
	assert.Equal(t, "a . .\nb z a\nz z a\n", g.String())

	assert.ErrorIs(t, g.PushBottom([]Tile{'a'}), ErrRowWidth)
}

func TestGrid_CloneIsIndependent(t *testing.T) {
	g := mustParse(t, "ab", "ba")
	c := g.Clone()
	require.True(t, g.Equal(c))

	require.NoError(t, c.SetCell(0, 0, 'z'))
	assert.Equal(t, Tile('a'), g.CellAt(0, 0))
	assert.False(t, g.Equal(c))
	assert.False(t, g.Equal(nil))
}

func TestGrid_RowAndTileCount(t *testing.T) {
	g := mustParse(t, "a.b", "...")
	row := g.Row(0)
	assert.Equal(t, []Tile{'a', Empty, 'b'}, row)

	row[0] = 'z'
	assert.Equal(t, Tile('a'), g.CellAt(0, 0), "Row returns a copy")
	assert.Equal(t, 2, g.TileCount())
}

func TestParseGrid_Errors(t *testing.T) {
	_, err := ParseGrid()
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = ParseGrid("ab", "abc")
	assert.ErrorIs(t, err, ErrRowWidth)
}
