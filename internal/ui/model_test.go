package ui

import (
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/bot"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/encoding"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/states"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/qlearning"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/testutil"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/ui/renderer"
)

func newTestEngine(t *testing.T) *game.Engine {
	t.Helper()
	cfg := game.DefaultGameConfig()
	cfg.Width = 4
	cfg.Height = 5
	cfg.Alphabet = testutil.TrainingAlphabet
	cfg.StarterRows = 2
	cfg.TickInterval = 10 * time.Millisecond
	cfg.RowInsertInterval = time.Second
	cfg.Rng = testutil.NewTestRNG(5)
	cfg.Logger = testutil.NopLogger()
	e, err := game.NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Start())
	return e
}

func newTestModel(t *testing.T, e *game.Engine, opts Options) Model {
	t.Helper()
	opts.Renderer = renderer.NewBoardRenderer(lipgloss.NewRenderer(io.Discard), e.Config().Alphabet)
	m, err := NewModel(e, opts, testutil.NopLogger())
	require.NoError(t, err)
	return m
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel_Validation(t *testing.T) {
	_, err := NewModel(nil, Options{}, testutil.NopLogger())
	assert.Error(t, err)

	_, err = NewModel(newTestEngine(t), Options{Mode: ModeBot}, testutil.NopLogger())
	assert.Error(t, err)
}

func TestHumanKeysDriveTheEngine(t *testing.T) {
	e := newTestEngine(t)
	m := newTestModel(t, e, Options{})
	start := e.Snapshot().Cursor

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Nil(t, cmd)
	assert.Equal(t, start.Col-1, e.Snapshot().Cursor.Col)
	assert.Equal(t, e.Snapshot().Cursor, m.Snapshot().Cursor, "the view follows the engine")

	m, _ = press(t, m, runes("k"))
	assert.Equal(t, start.Row-1, e.Snapshot().Cursor.Row)

	// Unbound keys are ignored.
	before := e.Snapshot()
	_, _ = press(t, m, runes("?"))
	assert.Equal(t, before.Cursor, e.Snapshot().Cursor)
	assert.True(t, before.Grid.Equal(e.Snapshot().Grid))
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, newTestEngine(t), Options{})
	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRestartAfterGameOver(t *testing.T) {
	e := newTestEngine(t)
	m := newTestModel(t, e, Options{})

	e.Stop()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, states.PhaseGameOver, m.Snapshot().Phase)
	assert.Contains(t, m.View(), "GAME OVER")

	m, _ = press(t, m, runes("r"))
	assert.Equal(t, states.PhasePlaying, m.Snapshot().Phase)
	assert.NotContains(t, m.View(), "GAME OVER")
}

func TestEventFeed(t *testing.T) {
	e := newTestEngine(t)
	m := newTestModel(t, e, Options{})

	e.Stop()
	msg := waitForEvent(m.feed)()
	next, cmd := m.Update(msg)
	m = next.(Model)
	require.NotNil(t, cmd)
	require.Len(t, m.Recent(), 1)
	assert.Contains(t, m.Recent()[0], "game over (stopped)")
	assert.Contains(t, m.View(), "game over (stopped)")
}

func TestRecentIsBounded(t *testing.T) {
	m := newTestModel(t, newTestEngine(t), Options{})
	for i := 0; i < maxRecentEvents+3; i++ {
		next, _ := m.Update(eventMsg("line"))
		m = next.(Model)
	}
	assert.Len(t, m.Recent(), maxRecentEvents)
}

func TestBotMode(t *testing.T) {
	e := newTestEngine(t)
	b, err := bot.New(e, encoding.LocalWindow{}, qlearning.NewTable(), bot.DefaultConfig(), testutil.NopLogger())
	require.NoError(t, err)
	m := newTestModel(t, e, Options{Mode: ModeBot, Bot: b})

	next, cmd := m.Update(botTickMsg{})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, int64(1), b.Stats().Decisions)
	assert.Contains(t, m.View(), "last swap")

	// Movement keys belong to the bot; speed keys do not move the cursor.
	cursor := e.Snapshot().Cursor
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, cursor, e.Snapshot().Cursor)

	m, _ = press(t, m, runes("+"))
	assert.Equal(t, 100*time.Millisecond, b.Interval())
	_, _ = press(t, m, runes("-"))
	assert.Equal(t, 200*time.Millisecond, b.Interval())
}
