package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/core"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/events"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/mapgen"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/rules"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/states"
	"github.com/rs/zerolog"
)

// Engine owns one game session: the grid, the cursor, the score and the
// clock. All mutation goes through its methods, which are serialized by a
// mutex, so a bot, a human and the tick source can share one engine.
// Events are published after the mutex is released.
type Engine struct {
	mu sync.Mutex

	config    GameConfig
	gameID    string
	logger    zerolog.Logger
	eventBus  *events.EventBus
	outbox    outbox
	sm        *states.StateMachine
	generator *mapgen.Generator

	grid         *core.Grid
	cursor       core.Cursor
	score        int
	ticks        int
	sinceInsert  time.Duration
	rowsInserted int
	exhausted    int

	ticker tickerState
}

// NewEngine validates cfg and creates an engine in the Idle phase.
func NewEngine(cfg GameConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Rng == nil {
		cfg.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.GameID == "" {
		cfg.GameID = uuid.NewString()
	}
	cfg.Alphabet = append(core.Alphabet(nil), cfg.Alphabet...)

	logger := cfg.Logger.With().
		Str("component", "GameEngine").
		Str("game_id", cfg.GameID).
		Logger()

	bus := cfg.EventBus
	if bus == nil {
		bus = events.NewEventBus(cfg.Logger)
	}

	e := &Engine{
		config:   cfg,
		gameID:   cfg.GameID,
		logger:   logger,
		eventBus: bus,
		grid:     core.NewGrid(cfg.Width, cfg.Height),
		cursor:   cfg.StartCursor(),
	}

	rowCfg := mapgen.RowConfig{Width: cfg.Width, Alphabet: cfg.Alphabet, MaxAttempts: cfg.MaxRowAttempts}
	e.generator = mapgen.NewGenerator(rowCfg, cfg.Rng, logger)
	e.sm = states.NewStateMachine(states.NewGameContext(cfg.GameID, cfg.Logger), &e.outbox)

	logger.Debug().
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Str("tiles", strings.Join(cfg.Alphabet.Strings(), ",")).
		Msg("Engine created")

	return e, nil
}

// ID returns the game identifier carried by every event.
func (e *Engine) ID() string { return e.gameID }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() GameConfig { return e.config }

// EventBus returns the bus the engine publishes to.
func (e *Engine) EventBus() *events.EventBus { return e.eventBus }

// Start begins a session from Idle: an empty grid with the starter rows
// pushed in, zero score and zero elapsed time. It does not start the
// real-time tick source; see StartTicker.
func (e *Engine) Start() error {
	e.mu.Lock()
	err := e.startLocked("start")
	e.unlockAndFlush()
	return err
}

func (e *Engine) startLocked(reason string) error {
	switch e.sm.CurrentPhase() {
	case states.PhasePlaying:
		return ErrAlreadyPlaying
	case states.PhaseGameOver:
		return fmt.Errorf("%w: restart instead of start", ErrGameOver)
	}

	e.grid = core.NewGrid(e.config.Width, e.config.Height)
	e.cursor = e.config.StartCursor()
	e.score = 0
	e.ticks = 0
	e.sinceInsert = 0
	e.rowsInserted = 0
	e.exhausted = 0

	for i := 0; i < e.config.StarterRows; i++ {
		if _, err := e.appendRowLocked(); err != nil {
			return err
		}
	}
	// The starter rows shift the cursor; it is placed afterwards.
	e.cursor = e.config.StartCursor()

	if err := e.sm.TransitionTo(states.PhasePlaying, reason); err != nil {
		return err
	}

	e.outbox.Publish(events.NewGameStartedEvent(
		e.gameID,
		e.config.Width,
		e.config.Height,
		e.config.StarterRows,
		strings.Join(e.config.Alphabet.Strings(), ","),
	))
	return nil
}

// TickResult describes one Tick call.
type TickResult struct {
	// Advanced is false when the tick was ignored because no session is playing.
	Advanced    bool
	RowInserted bool
	// RowsInserted counts the rows pushed in by this tick. It exceeds one
	// only when the tick interval is longer than the row insert interval.
	RowsInserted int
	// Append is the last row pushed in.
	Append   mapgen.AppendResult
	GameOver bool
}

// Tick advances the session clock by one tick interval. For every full row
// insert interval that has elapsed the game-over predicate is checked first:
// a non-empty top row ends the session, otherwise a new row is pushed in.
// Ticks outside Playing are no-ops.
func (e *Engine) Tick() TickResult {
	e.mu.Lock()
	defer e.unlockAndFlush()

	if !e.sm.CurrentPhase().CanReceiveActions() {
		return TickResult{}
	}

	res := TickResult{Advanced: true}
	e.ticks++
	e.sinceInsert += e.config.TickInterval
	for e.sinceInsert >= e.config.RowInsertInterval {
		e.sinceInsert -= e.config.RowInsertInterval

		if !e.grid.IsTopRowEmpty() {
			e.endLocked("top row reached")
			res.GameOver = true
			return res
		}

		appended, err := e.appendRowLocked()
		if err != nil {
			// Widths are fixed at construction, so this cannot happen for a valid engine.
			e.logger.Error().Err(err).Msg("Failed to append row")
			return res
		}
		res.RowInserted = true
		res.RowsInserted++
		res.Append = appended
	}
	return res
}

func (e *Engine) appendRowLocked() (mapgen.AppendResult, error) {
	res, err := e.generator.AppendRow(e.grid, e.cursor)
	if err != nil {
		return res, err
	}
	e.cursor = res.Cursor
	e.rowsInserted++

	e.outbox.Publish(events.NewRowInsertedEvent(e.gameID, rowString(res.Row), res.Attempts, res.Outcome.String(), e.ticks))
	if res.Outcome == mapgen.RowExhaustedFallback {
		e.exhausted++
		e.outbox.Publish(events.NewRowExhaustedEvent(e.gameID, res.Attempts, e.ticks))
	}
	return res, nil
}

func (e *Engine) endLocked(reason string) {
	ctx := e.sm.GetContext()
	ctx.EndReason = reason
	if err := e.sm.TransitionTo(states.PhaseGameOver, reason); err != nil {
		e.logger.Error().Err(err).Msg("Failed to end game")
		return
	}
	e.outbox.Publish(events.NewGameOverEvent(e.gameID, e.score, e.ticks, e.elapsedLocked(), reason))
	e.ticker.cancelLocked()
}

// RejectReason says why Apply did not change the session.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectNotPlaying
	RejectWall
	RejectUnknownAction
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectNotPlaying:
		return "not playing"
	case RejectWall:
		return "wall"
	case RejectUnknownAction:
		return "unknown action"
	default:
		return fmt.Sprintf("RejectReason(%d)", int(r))
	}
}

// Outcome reports what an action did. Rejected actions leave the session
// untouched.
type Outcome struct {
	Action   Action
	Applied  bool
	Rejected RejectReason
	// IdenticalSwap is set when a swap exchanged two equal tiles, including
	// two empty cells.
	IdenticalSwap bool
	ScoreDelta    int
	Cascade       rules.CascadeResult
	Phase         states.GamePhase
}

// Apply performs one action. Moves that would leave the grid and any action
// outside Playing are rejected without error. Restart is valid in every
// phase.
func (e *Engine) Apply(a Action) Outcome {
	if a == ActionRestart {
		err := e.Restart()
		out := Outcome{Action: a, Applied: err == nil, Phase: e.Phase()}
		if err != nil {
			out.Rejected = RejectNotPlaying
		}
		return out
	}

	e.mu.Lock()
	defer e.unlockAndFlush()
	return e.applyLocked(a)
}

// ApplyChosen snapshots the session and applies the action choose picks
// from that snapshot without releasing the engine lock, so no tick can
// shift the grid in between. choose runs with the lock held and must not
// call back into the engine. ok is false, and choose is not called, when
// the session is not playing. Restart cannot be chosen this way.
func (e *Engine) ApplyChosen(choose func(Snapshot) Action) (out Outcome, ok bool) {
	e.mu.Lock()
	defer e.unlockAndFlush()

	if !e.sm.CurrentPhase().CanReceiveActions() {
		return Outcome{Rejected: RejectNotPlaying, Phase: e.sm.CurrentPhase()}, false
	}
	a := choose(e.snapshotLocked())
	if a == ActionRestart {
		return Outcome{Action: a, Rejected: RejectUnknownAction, Phase: e.sm.CurrentPhase()}, true
	}
	return e.applyLocked(a), true
}

func (e *Engine) applyLocked(a Action) Outcome {
	out := Outcome{Action: a, Phase: e.sm.CurrentPhase()}
	if !out.Phase.CanReceiveActions() {
		out.Rejected = RejectNotPlaying
		return out
	}

	if dir, ok := a.Direction(); ok {
		if !e.cursor.CanMove(dir, e.grid.W, e.grid.H) {
			out.Rejected = RejectWall
			return out
		}
		from := e.cursor
		e.cursor = e.cursor.Move(dir)
		e.outbox.Publish(events.NewCursorMovedEvent(e.gameID, dir, from, e.cursor))
		out.Applied = true
		return out
	}

	if a != ActionSwap {
		out.Rejected = RejectUnknownAction
		return out
	}

	left := e.grid.CellAt(e.cursor.Row, e.cursor.Col)
	right := e.grid.CellAt(e.cursor.Row, e.cursor.Col+1)
	if err := e.grid.Swap(e.cursor); err != nil {
		e.logger.Error().Err(err).Str("cursor", e.cursor.String()).Msg("Swap with invalid cursor")
		out.Rejected = RejectWall
		return out
	}
	e.outbox.Publish(events.NewTilesSwappedEvent(e.gameID, e.cursor, left, right))

	out.Applied = true
	out.IdenticalSwap = left == right
	out.Cascade = rules.ResolveCascade(e.grid)
	out.ScoreDelta = out.Cascade.Score
	e.score += out.ScoreDelta

	if out.ScoreDelta > 0 {
		e.outbox.Publish(events.NewCascadeResolvedEvent(
			e.gameID, out.ScoreDelta, out.Cascade.Passes, out.Cascade.Cleared, e.score))
	}
	return out
}

// HandleAction is the input entry point: it parses a token from the action
// vocabulary and applies it. Unrecognised tokens are ignored.
func (e *Engine) HandleAction(token string) {
	a, err := ParseAction(token)
	if err != nil {
		e.logger.Debug().Str("token", token).Msg("Ignoring unknown action token")
		return
	}
	e.Apply(a)
}

// Stop ends a playing session and stops the tick source. Calling it again,
// or on a session that is not playing, only makes sure the tick source is
// stopped.
func (e *Engine) Stop() {
	e.stopTicker()

	e.mu.Lock()
	if e.sm.CurrentPhase() == states.PhasePlaying {
		e.endLocked("stopped")
	}
	e.unlockAndFlush()
}

// Restart discards the current session and starts a new one. If the tick
// source was running it is stopped first and started again for the new
// session, so at most one tick source is ever alive.
func (e *Engine) Restart() error {
	parent := e.stopTicker()

	e.mu.Lock()
	switch e.sm.CurrentPhase() {
	case states.PhasePlaying, states.PhaseGameOver:
		if err := e.sm.TransitionTo(states.PhaseIdle, "restart"); err != nil {
			e.unlockAndFlush()
			return err
		}
	}
	err := e.startLocked("restart")
	e.unlockAndFlush()
	if err != nil {
		return err
	}

	if parent != nil {
		return e.StartTicker(parent)
	}
	return nil
}

// Phase returns the current state machine phase.
func (e *Engine) Phase() states.GamePhase {
	return e.sm.CurrentPhase()
}

// IsPlaying reports whether the session accepts actions and ticks.
func (e *Engine) IsPlaying() bool {
	return e.Phase() == states.PhasePlaying
}

// Score returns the accumulated score of the current session.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

// Elapsed returns simulated session time: ticks times the tick interval.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked()
}

func (e *Engine) elapsedLocked() time.Duration {
	return time.Duration(e.ticks) * e.config.TickInterval
}

// LegalActions returns the moves that keep the cursor on the grid, followed
// by swap.
func (e *Engine) LegalActions() []Action {
	e.mu.Lock()
	defer e.mu.Unlock()

	dirs := rules.LegalDirections(e.cursor, e.grid.W, e.grid.H)
	actions := make([]Action, 0, len(dirs)+1)
	for _, d := range dirs {
		actions = append(actions, ActionForDirection(d))
	}
	return append(actions, ActionSwap)
}

// History returns the state machine transition history.
func (e *Engine) History() []states.Transition {
	return e.sm.GetHistory()
}

func (e *Engine) unlockAndFlush() {
	pending := e.outbox.drain()
	e.mu.Unlock()
	for _, ev := range pending {
		e.eventBus.Publish(ev)
	}
}

// outbox buffers events raised while the engine mutex is held.
type outbox struct {
	pending []events.Event
}

func (o *outbox) Publish(ev events.Event) {
	o.pending = append(o.pending, ev)
}

func (o *outbox) drain() []events.Event {
	p := o.pending
	o.pending = nil
	return p
}

func rowString(row []core.Tile) string {
	var sb strings.Builder
	for _, t := range row {
		sb.WriteString(t.String())
	}
	return sb.String()
}
