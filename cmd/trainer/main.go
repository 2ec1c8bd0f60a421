// Command trainer runs headless Q-learning episodes against the match-three
// engine and writes the learned table to disk.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/config"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/encoding"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/events"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/monitoring"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/qlearning"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/tablestore"
	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/training"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", os.Getenv("APP_ENV"), "Environment overlay (loads config.<env>.yaml)")
	episodes := flag.Int("episodes", -1, "Episodes to train (-1 to use config default)")
	seed := flag.Int64("seed", -1, "RNG seed, 0 for time based (-1 to use config default)")
	encoderName := flag.String("encoder", "", "State encoder (empty to use config default)")
	tablePath := flag.String("table", "", "Q-table snapshot path (empty to use config default)")
	resume := flag.Bool("resume", false, "Continue from the existing Q-table snapshot")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	statusPort := flag.Int("status-port", -1, "Health endpoint port, 0 to disable (-1 to use config default)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if *env != "" {
		if err := config.LoadEnvironmentConfig(*env); err != nil {
			log.Fatal().Err(err).Str("env", *env).Msg("Failed to load environment config")
		}
	}

	// Flags given on the command line override the config file.
	overrides := []struct {
		key   string
		set   bool
		value interface{}
	}{
		{"training.episodes", *episodes != -1, *episodes},
		{"training.seed", *seed != -1, *seed},
		{"training.encoder", *encoderName != "", *encoderName},
		{"persistence.path", *tablePath != "", *tablePath},
		{"logging.level", *logLevel != "", *logLevel},
		{"server.status.enabled", *statusPort == 0, false},
		{"server.status.port", *statusPort > 0, *statusPort},
	}
	for _, o := range overrides {
		if !o.set {
			continue
		}
		if err := config.Set(o.key, o.value); err != nil {
			log.Fatal().Err(err).Msg("Invalid command line override")
		}
	}
	cfg := config.Get()

	runSeed := cfg.Training.Seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	setupLogging(cfg.Logging.Level, cfg.Logging.Format)

	log.Info().
		Str("config", config.ConfigFilePath()).
		Int("episodes", cfg.Training.Episodes).
		Int64("seed", runSeed).
		Str("encoder", cfg.Training.Encoder).
		Str("persistence", cfg.Persistence.Type).
		Str("table", cfg.Persistence.Path).
		Msg("Starting trainer")

	// One seeded source drives both row generation and exploration, so a
	// seed reproduces a run exactly.
	rng := rand.New(rand.NewSource(runSeed))

	gc, err := cfg.Training.Game.EngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid training board")
	}
	bus := events.NewEventBus(log.Logger)
	eventLogger := subscribers.NewLoggerSubscriber("trainer-events", log.Logger, zerolog.DebugLevel)
	eventLogger.SetEventFilter([]string{events.TypeRowExhausted, events.TypeGameOver})
	bus.Subscribe(eventLogger)
	gc.Rng = rng
	gc.Logger = log.Logger
	gc.EventBus = bus

	engine, err := game.NewEngine(gc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine")
	}

	encoder, err := encoding.New(cfg.Training.Encoder, cfg.Training.EncoderOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create state encoder")
	}

	store, err := tablestore.NewStore(tablestore.PersistenceType(cfg.Persistence.Type), cfg.Persistence.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create table store")
	}
	table := loadTable(store, encoder.Name(), *resume)

	qc, err := cfg.Agent.QLearning()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid agent settings")
	}
	agent, err := qlearning.NewAgent(qc, game.AgentActions, table, rng, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create agent")
	}

	environment, err := training.NewEnvironment(engine, encoder,
		training.NewShapedReward(cfg.Rewards.Shaping()), cfg.Training.Environment(), log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create training environment")
	}

	saver := tablestore.NewSaver(store, log.Logger)
	trainer, err := training.NewTrainer(environment, agent, saver, training.TrainerConfig{
		Episodes:      cfg.Training.Episodes,
		LogEvery:      cfg.Training.LogEvery,
		SnapshotEvery: cfg.Persistence.EveryEpisodes,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create trainer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	monitor := monitoring.NewGoroutineMonitor(monitoring.DefaultConfig(), log.Logger)
	go monitor.Run(ctx)

	var status *statusServer
	if cfg.Server.Status.Enabled {
		status, err = newStatusServer(cfg.Server.Status.Host, cfg.Server.Status.Port, cfg.Server.Status.EnableReflection)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start status server")
		}
		go status.Serve()
		status.SetServing(true)
	}

	session, err := trainer.Run(ctx)
	saver.Wait()

	if status != nil {
		status.Stop(500 * time.Millisecond)
	}

	stats := saver.Stats()
	evt := log.Info()
	if err != nil && !errors.Is(err, context.Canceled) {
		evt = log.Error().Err(err)
	}
	evt.
		Str("run_id", session.RunID).
		Str("table", store.Path()).
		Int("entries", agent.Table().Len()).
		Int64("snapshots_saved", stats.Saved).
		Int64("snapshots_skipped", stats.Skipped).
		Int64("snapshots_failed", stats.Failed).
		Msg("Trainer shutdown complete")

	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

// loadTable returns the table to continue training from. Without resume, or
// when no snapshot exists yet, training starts from an empty table.
func loadTable(store tablestore.Store, encoder string, resume bool) *qlearning.Table {
	if !resume {
		return qlearning.NewTable()
	}

	table, snap, err := tablestore.LoadTable(store, encoder)
	switch {
	case err == nil:
		log.Info().
			Str("path", store.Path()).
			Str("run_id", snap.RunID).
			Int("episode", snap.Episode).
			Int("entries", table.Len()).
			Msg("Resuming from Q-table snapshot")
		return table
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, tablestore.ErrPersistenceNotConfigured):
		log.Warn().Err(err).Msg("No Q-table snapshot to resume from, starting fresh")
		return qlearning.NewTable()
	default:
		log.Fatal().Err(err).Str("path", store.Path()).Msg("Failed to load Q-table snapshot")
		return nil
	}
}

func setupLogging(level, format string) {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" || format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
