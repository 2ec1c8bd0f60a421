package encoding

import (
	"testing"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			enc, err := New(name, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, name, enc.Name())
		})
	}

	_, err := New("pixels", DefaultOptions())
	assert.ErrorIs(t, err, ErrUnknownEncoder)

	_, err = New(NameAdjacency, Options{})
	assert.Error(t, err)
}

func TestFullGrid(t *testing.T) {
	g := testutil.MustGrid(t,
		"...",
		"za.",
		"aza",
	)
	key := FullGrid{}.Encode(g, core.NewCursor(1, 0))
	assert.Equal(t, "1,0|.../za./aza", key)
}

func TestLocalWindow(t *testing.T) {
	g := testutil.MustGrid(t,
		"...",
		"za.",
		"aza",
	)

	tests := []struct {
		name   string
		cursor core.Cursor
		want   string
	}{
		{"top row", core.NewCursor(0, 1), "0,1|###/.../za."},
		{"middle", core.NewCursor(1, 0), "1,0|.../za./aza"},
		{"bottom row", core.NewCursor(2, 1), "2,1|za./aza/###"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalWindow{}.Encode(g, tt.cursor))
		})
	}
}

func TestLocalWindow_EmptyIsNotOutOfBounds(t *testing.T) {
	// An empty top row and a missing row above the grid must encode differently.
	g := testutil.MustGrid(t,
		"..",
		"..",
		"za",
	)
	atTop := LocalWindow{}.Encode(g, core.NewCursor(0, 0))
	assert.Contains(t, atTop, "##")
	assert.NotEqual(t, atTop, LocalWindow{}.Encode(g, core.NewCursor(1, 0)))

	// Shift the same pattern down one row inside a taller grid.
	tall := testutil.MustGrid(t,
		"..",
		"..",
		"..",
		"za",
	)
	assert.NotEqual(t,
		LocalWindow{}.Encode(g, core.NewCursor(0, 0))[4:],
		LocalWindow{}.Encode(tall, core.NewCursor(1, 0))[4:],
	)
}

func TestAdjacency(t *testing.T) {
	g := testutil.MustGrid(t,
		"....",
		"z.a.",
		"zaaz",
	)
	key := Adjacency{Rows: 2}.Encode(g, core.NewCursor(2, 1))
	// h: row1 z.|.a|a. -> ???, row2 za|aa|az -> 010
	// v: row1->row2 zz|.a|aa|.z -> 1?1?
	assert.Equal(t, "2,1|h:???/010|v:1?1?", key)
}

func TestAdjacency_RowsAboveGrid(t *testing.T) {
	g := testutil.MustGrid(t,
		"za",
		"az",
	)
	key := Adjacency{Rows: 3}.Encode(g, core.NewCursor(0, 0))
	assert.Equal(t, "0,0|h:#/0/0|v:##/00", key)
}

func TestEncodersArePure(t *testing.T) {
	rng := testutil.NewTestRNG(11)
	for _, name := range Names {
		enc, err := New(name, DefaultOptions())
		require.NoError(t, err)

		for i := 0; i < 50; i++ {
			g := testutil.RandomSparseGrid(rng, 6, 8, testutil.DefaultAlphabet, 0.6)
			c := core.NewCursor(rng.Intn(8), rng.Intn(5))
			clone := g.Clone()

			assert.Equal(t, enc.Encode(g, c), enc.Encode(clone, c), "%s must depend only on contents", name)
			assert.True(t, g.Equal(clone), "%s must not mutate the grid", name)
		}
	}
}

func TestFullGrid_DistinguishesCursor(t *testing.T) {
	g := testutil.MustGrid(t, "za", "az")
	assert.NotEqual(t,
		FullGrid{}.Encode(g, core.NewCursor(0, 0)),
		FullGrid{}.Encode(g, core.NewCursor(1, 0)),
	)
}
