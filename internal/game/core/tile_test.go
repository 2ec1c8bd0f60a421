package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlphabet(t *testing.T) {
	a, err := ParseAlphabet([]string{"z", "i", "e", "w", "a"})
	require.NoError(t, err)
	assert.Equal(t, Alphabet{'z', 'i', 'e', 'w', 'a'}, a)
	assert.Equal(t, []string{"z", "i", "e", "w", "a"}, a.Strings())
}

func TestParseAlphabet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
	}{
		{"empty", nil},
		{"single symbol", []string{"a"}},
		{"multi-character symbol", []string{"ab", "c"}},
		{"duplicate", []string{"a", "a"}},
		{"reserved dot", []string{"a", "."}},
		{"reserved hash", []string{"#", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAlphabet(tt.symbols)
			assert.ErrorIs(t, err, ErrInvalidAlphabet)
		})
	}
}

func TestAlphabet_Without(t *testing.T) {
	a := Alphabet{'z', 'a', 'e'}
	assert.Equal(t, Alphabet{'z', 'e'}, a.Without('a'))
	assert.Equal(t, Alphabet{'z', 'a', 'e'}, a, "original untouched")
	assert.True(t, a.Contains('e'))
	assert.False(t, a.Contains('q'))
}

func TestTile_String(t *testing.T) {
	assert.Equal(t, ".", Empty.String())
	assert.Equal(t, "z", Tile('z').String())
	assert.True(t, Empty.IsEmpty())
	assert.False(t, Tile('z').IsEmpty())
}
