package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
)

func TestHandler_Token(t *testing.T) {
	h := NewHandler(DefaultBindings())

	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"up", "moveUp", true},
		{"j", "moveDown", true},
		{"a", "moveLeft", true},
		{"right", "moveRight", true},
		{" ", "swap", true},
		{"enter", "swap", true},
		{"r", "restart", true},
		{"z", "", false},
		{"q", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			tok, ok := h.Token(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, tok)
			if ok {
				_, err := game.ParseAction(tok)
				assert.NoError(t, err, "every bound token is in the vocabulary")
			}
		})
	}
}

func TestHandler_QuitAndRestart(t *testing.T) {
	h := NewHandler(DefaultBindings())
	assert.True(t, h.IsQuit("q"))
	assert.True(t, h.IsQuit("ctrl+c"))
	assert.False(t, h.IsQuit("r"))
	assert.True(t, h.IsRestart("r"))
	assert.False(t, h.IsRestart("x"))
}

func TestHandler_Keys(t *testing.T) {
	h := NewHandler(DefaultBindings())
	assert.Equal(t, []string{"enter", "space", "x"}, h.Keys("swap"))
	assert.Equal(t, []string{"r"}, h.Keys("restart"))
	assert.Empty(t, h.Keys("jump"))
}
