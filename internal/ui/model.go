// Package ui is the terminal client: a bubbletea model that renders engine
// snapshots and feeds key presses, or bot decisions, back into the engine.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/bot"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/events"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/ui/input"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/ui/renderer"
)

type Mode int

const (
	ModeHuman Mode = iota
	ModeBot
)

func (m Mode) String() string {
	if m == ModeBot {
		return "bot"
	}
	return "human"
}

const maxRecentEvents = 5

// Options configures a Model. Keys and Renderer default when nil.
type Options struct {
	Mode            Mode
	Bot             *bot.Bot
	Keys            *input.Handler
	Renderer        *renderer.BoardRenderer
	RefreshInterval time.Duration
}

type refreshMsg time.Time

type botTickMsg struct{}

type eventMsg string

// Model is the bubbletea model. All engine input goes through Update, so a
// bot and the player never act concurrently.
type Model struct {
	engine   *game.Engine
	bot      *bot.Bot
	mode     Mode
	keys     *input.Handler
	renderer *renderer.BoardRenderer
	refresh  time.Duration
	feed     chan string
	logger   zerolog.Logger

	snap     game.Snapshot
	decision *bot.Decision
	recent   []string
}

// NewModel subscribes to the engine's event bus for the status feed. The
// engine should already be started.
func NewModel(engine *game.Engine, opts Options, logger zerolog.Logger) (Model, error) {
	if engine == nil {
		return Model{}, errors.New("ui needs an engine")
	}
	if opts.Mode == ModeBot && opts.Bot == nil {
		return Model{}, errors.New("bot mode needs a bot")
	}
	if opts.Keys == nil {
		opts.Keys = input.NewHandler(input.DefaultBindings())
	}
	if opts.Renderer == nil {
		opts.Renderer = renderer.NewBoardRenderer(nil, engine.Config().Alphabet)
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 50 * time.Millisecond
	}

	m := Model{
		engine:   engine,
		bot:      opts.Bot,
		mode:     opts.Mode,
		keys:     opts.Keys,
		renderer: opts.Renderer,
		refresh:  opts.RefreshInterval,
		feed:     make(chan string, 32),
		logger:   logger.With().Str("component", "UI").Str("mode", opts.Mode.String()).Logger(),
		snap:     engine.Snapshot(),
	}
	m.subscribe(engine.EventBus())
	return m, nil
}

// subscribe forwards a few events to the feed. Handlers run on the engine's
// ticker goroutine, so they only do a non-blocking send.
func (m Model) subscribe(bus *events.EventBus) {
	send := func(s string) {
		select {
		case m.feed <- s:
		default:
		}
	}
	bus.SubscribeFunc(events.TypeGameStarted, func(events.Event) {
		send("new game")
	})
	bus.SubscribeFunc(events.TypeCascadeResolved, func(ev events.Event) {
		if e, ok := ev.(*events.CascadeResolvedEvent); ok {
			send(fmt.Sprintf("+%d (%d passes, %d cleared)", e.Score, e.Passes, e.Cleared))
		}
	})
	bus.SubscribeFunc(events.TypeRowExhausted, func(events.Event) {
		send("row generator fell back to an unchecked row")
	})
	bus.SubscribeFunc(events.TypeGameOver, func(ev events.Event) {
		if e, ok := ev.(*events.GameOverEvent); ok {
			send(fmt.Sprintf("game over (%s), score %d", e.Reason, e.FinalScore))
		}
	})
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refreshCmd(), waitForEvent(m.feed)}
	if m.mode == ModeBot {
		cmds = append(cmds, m.botCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) refreshCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// botCmd re-reads the interval every time, so hot-reloaded settings apply
// from the next decision.
func (m Model) botCmd() tea.Cmd {
	return tea.Tick(m.bot.Interval(), func(time.Time) tea.Msg { return botTickMsg{} })
}

func waitForEvent(feed <-chan string) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-feed)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case refreshMsg:
		m.snap = m.engine.Snapshot()
		return m, m.refreshCmd()
	case botTickMsg:
		if d, _, ok := m.bot.Step(); ok {
			m.decision = &d
		}
		m.snap = m.engine.Snapshot()
		return m, m.botCmd()
	case eventMsg:
		m.recent = append([]string{string(msg)}, m.recent...)
		if len(m.recent) > maxRecentEvents {
			m.recent = m.recent[:maxRecentEvents]
		}
		return m, waitForEvent(m.feed)
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if m.keys.IsQuit(key) {
		return m, tea.Quit
	}

	switch {
	case m.keys.IsRestart(key):
		m.logger.Info().Int("score", m.snap.Score).Msg("Restart requested")
		m.engine.HandleAction(game.ActionRestart.String())
		m.decision = nil
	case m.mode == ModeBot:
		switch key {
		case "+", "=":
			m.bot.SetInterval(m.bot.Interval() / 2)
		case "-":
			m.bot.SetInterval(m.bot.Interval() * 2)
		}
	default:
		if tok, ok := m.keys.Token(key); ok {
			m.engine.HandleAction(tok)
		}
	}
	m.snap = m.engine.Snapshot()
	return m, nil
}

// Snapshot is the state the last View was drawn from.
func (m Model) Snapshot() game.Snapshot { return m.snap }

// Recent returns the newest status lines first.
func (m Model) Recent() []string { return m.recent }

func (m Model) View() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "match-three (%s)\n\n", m.mode)
	sb.WriteString(m.renderer.Render(m.snap))
	sb.WriteString("\n")

	if m.mode == ModeBot {
		fmt.Fprintf(&sb, "bot every %s", m.bot.Interval())
		if d := m.decision; d != nil {
			fmt.Fprintf(&sb, "  last %s (%.3f)", d.Action, d.Value)
			if d.Fallback {
				sb.WriteString(" default")
			}
		}
		sb.WriteString("\n")
	}

	for _, line := range m.recent {
		sb.WriteString("  " + line + "\n")
	}

	sb.WriteString("\n")
	if m.mode == ModeHuman {
		sb.WriteString("arrows/hjkl/wasd move, space/enter swap, ")
	} else {
		sb.WriteString("+/- bot speed, ")
	}
	sb.WriteString("r restart, q quit\n")
	return sb.String()
}
