package testutil

import (
	"math/rand"
	"testing"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/stretchr/testify/require"
)

// TrainingAlphabet is the two-tile alphabet used by the small training board.
var TrainingAlphabet = core.Alphabet{'z', 'a'}

// DefaultAlphabet is the five-tile alphabet of the full game.
var DefaultAlphabet = core.Alphabet{'z', 'i', 'e', 'w', 'a'}

// MustGrid parses text rows into a grid ('.' is empty) and fails the test on
// malformed input.
func MustGrid(t *testing.T, rows ...string) *core.Grid {
	t.Helper()
	g, err := core.ParseGrid(rows...)
	require.NoError(t, err)
	return g
}

// RandomSparseGrid fills each cell with a random tile with the given
// probability and leaves it empty otherwise. The result is generally not
// settled and may contain runs.
func RandomSparseGrid(rng *rand.Rand, w, h int, alphabet core.Alphabet, density float64) *core.Grid {
	g := core.NewGrid(w, h)
	for i := range g.T {
		if rng.Float64() < density {
			g.T[i] = alphabet[rng.Intn(len(alphabet))]
		}
	}
	return g
}
