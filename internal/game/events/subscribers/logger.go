package subscribers

import (
	"encoding/json"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/events"
	"github.com/rs/zerolog"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool)
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants to receive this event type
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	eventLogger := ls.logger.With().
		Str("event_type", event.Type()).
		Str("game_id", event.GameID()).
		Time("event_time", event.Timestamp()).
		Logger()

	logEvent := eventLogger.WithLevel(ls.logLevel)
	if ls.logLevel == zerolog.NoLevel {
		logEvent = eventLogger.Info()
	}

	switch e := event.(type) {
	case *events.GameStartedEvent:
		logEvent.
			Int("width", e.Width).
			Int("height", e.Height).
			Int("starter_rows", e.StarterRows).
			Str("tiles", e.Tiles)

	case *events.RowInsertedEvent:
		logEvent.
			Str("row", e.Row).
			Int("attempts", e.Attempts).
			Str("outcome", e.Outcome).
			Int("tick", e.Tick)

	case *events.RowExhaustedEvent:
		logEvent.
			Int("attempts", e.Attempts).
			Int("tick", e.Tick)

	case *events.CursorMovedEvent:
		logEvent.
			Str("direction", e.Direction).
			Str("from", e.From.String()).
			Str("to", e.To.String())

	case *events.TilesSwappedEvent:
		logEvent.
			Str("cursor", e.Cursor.String()).
			Str("left", e.Left.String()).
			Str("right", e.Right.String()).
			Bool("identical", e.Identical)

	case *events.CascadeResolvedEvent:
		logEvent.
			Int("score", e.Score).
			Int("passes", e.Passes).
			Int("cleared", e.Cleared).
			Int("total_score", e.TotalScore)

	case *events.GameOverEvent:
		logEvent.
			Int("final_score", e.FinalScore).
			Int("ticks", e.Ticks).
			Dur("elapsed", e.Elapsed).
			Str("reason", e.Reason)

	case *events.StateTransitionEvent:
		logEvent.
			Str("from_phase", e.FromPhase).
			Str("to_phase", e.ToPhase).
			Str("reason", e.Reason)
	}

	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	logEvent.Msg("Game event")
}
