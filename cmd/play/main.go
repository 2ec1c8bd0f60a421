// Command play runs the match-three game in the terminal, driven either by
// the keyboard or by a bot replaying a trained Q-table.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/bot"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/config"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/encoding"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/events"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/monitoring"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/tablestore"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", os.Getenv("APP_ENV"), "Environment overlay (loads config.<env>.yaml)")
	useBot := flag.Bool("bot", false, "Let a bot play from a trained Q-table")
	tablePath := flag.String("table", "", "Q-table snapshot for the bot (empty to use config default)")
	tableType := flag.String("table-type", "", "Snapshot format, json or parquet (empty to guess from the file name)")
	seed := flag.Int64("seed", 0, "RNG seed for row generation (0 for time based)")
	logFile := flag.String("log-file", "match3.log", "Where to write logs while the terminal is in use")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *env != "" {
		if err := config.LoadEnvironmentConfig(*env); err != nil {
			fmt.Fprintf(os.Stderr, "config overlay %q: %v\n", *env, err)
			os.Exit(1)
		}
	}
	cfg := config.Get()

	if *tablePath == "" {
		*tablePath = cfg.Bot.TablePath
	}
	if *logLevel == "" {
		*logLevel = cfg.Logging.Level
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	// The terminal belongs to the UI, so logs go to a file.
	f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	setupLogging(f, *logLevel, cfg.Logging.Format)

	gc, err := cfg.Game.EngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid game settings")
	}
	bus := events.NewEventBus(log.Logger)
	bus.Subscribe(subscribers.NewLoggerSubscriber("play-events", log.Logger, zerolog.InfoLevel))
	gc.Rng = rand.New(rand.NewSource(*seed))
	gc.Logger = log.Logger
	gc.EventBus = bus

	engine, err := game.NewEngine(gc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine")
	}

	opts := ui.Options{Mode: ui.ModeHuman}
	if *useBot {
		b, err := newBot(engine, cfg, *tablePath, *tableType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bot: %v\n", err)
			log.Fatal().Err(err).Msg("Failed to create bot")
		}
		opts = ui.Options{Mode: ui.ModeBot, Bot: b}
		watchBotSettings(b)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := monitoring.NewGoroutineMonitor(monitoring.DefaultConfig(), log.Logger)
	go monitor.Run(ctx)

	if err := engine.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start game")
	}
	if err := engine.StartTicker(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start tick source")
	}
	defer engine.Stop()

	model, err := ui.NewModel(engine, opts, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create UI")
	}

	log.Info().
		Str("config", config.ConfigFilePath()).
		Str("game_id", engine.ID()).
		Bool("bot", *useBot).
		Int64("seed", *seed).
		Msg("Starting game")
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		log.Error().Err(err).Msg("UI exited with error")
	}

	snap := engine.Snapshot()
	log.Info().Int("score", snap.Score).Int("ticks", snap.Ticks).Msg("Game closed")
	fmt.Printf("final score %d\n", snap.Score)
}

// newBot loads the trained table. The encoder must be the one the table was
// trained with, so it comes from the snapshot when recorded there.
func newBot(engine *game.Engine, cfg *config.Config, path, kind string) (*bot.Bot, error) {
	if kind == "" {
		kind = string(tablestore.PersistenceTypeJSON)
		if strings.HasSuffix(path, ".parquet") {
			kind = string(tablestore.PersistenceTypeParquet)
		}
	}
	store, err := tablestore.NewStore(tablestore.PersistenceType(kind), path)
	if err != nil {
		return nil, err
	}
	table, snap, err := tablestore.LoadTable(store, "")
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	encoderName := snap.Encoder
	if encoderName == "" {
		encoderName = cfg.Training.Encoder
	}
	encoder, err := encoding.New(encoderName, cfg.Training.EncoderOptions())
	if err != nil {
		return nil, err
	}

	bc, err := cfg.Bot.BotSettings()
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("path", path).
		Str("encoder", encoderName).
		Str("run_id", snap.RunID).
		Int("episode", snap.Episode).
		Int("entries", table.Len()).
		Msg("Loaded Q-table for bot")
	return bot.New(engine, encoder, table, bc, log.Logger)
}

// watchBotSettings applies edits to bot.interval in the config file while
// the game runs.
func watchBotSettings(b *bot.Bot) {
	config.WatchConfig(func(c *config.Config, err error) {
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring invalid config change")
			return
		}
		b.SetInterval(c.Bot.Interval)
	})
}

func setupLogging(out *os.File, level, format string) {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" || format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    true,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}
