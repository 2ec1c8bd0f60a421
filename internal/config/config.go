package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Game        GameConfig        `mapstructure:"game"`
	Training    TrainingConfig    `mapstructure:"training"`
	Agent       AgentConfig       `mapstructure:"agent"`
	Rewards     RewardsConfig     `mapstructure:"rewards"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Bot         BotConfig         `mapstructure:"bot"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Server      ServerConfig      `mapstructure:"server"`
}

// GameConfig holds board and timing settings for one game
type GameConfig struct {
	Height            int           `mapstructure:"height"`
	Width             int           `mapstructure:"width"`
	Tiles             string        `mapstructure:"tiles"`
	StarterRows       int           `mapstructure:"starter_rows"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	RowInsertInterval time.Duration `mapstructure:"row_insert_interval"`
	MaxRowAttempts    int           `mapstructure:"max_row_attempts"`
}

// TrainingConfig holds the training loop settings. Game is the board used
// during training, which runs on much shorter intervals than interactive play.
type TrainingConfig struct {
	Game               GameConfig    `mapstructure:"game"`
	Episodes           int           `mapstructure:"episodes"`
	Seed               int64         `mapstructure:"seed"`
	Encoder            string        `mapstructure:"encoder"`
	AdjacencyRows      int           `mapstructure:"adjacency_rows"`
	TicksPerStep       int           `mapstructure:"ticks_per_step"`
	MaxEpisodeDuration time.Duration `mapstructure:"max_episode_duration"`
	MaxSteps           int           `mapstructure:"max_steps"`
	StepDelay          time.Duration `mapstructure:"step_delay"`
	LogEvery           int           `mapstructure:"log_every"`
}

// AgentConfig holds Q-learning hyperparameters
type AgentConfig struct {
	LearningRate       float64 `mapstructure:"learning_rate"`
	DiscountFactor     float64 `mapstructure:"discount_factor"`
	ExplorationRate    float64 `mapstructure:"exploration_rate"`
	MinExplorationRate float64 `mapstructure:"min_exploration_rate"`
	ExplorationDecay   float64 `mapstructure:"exploration_decay"`
	DecaySchedule      string  `mapstructure:"decay_schedule"`
}

// RewardsConfig holds reward shaping weights
type RewardsConfig struct {
	ScoreCap        float64 `mapstructure:"score_cap"`
	StepPenalty     float64 `mapstructure:"step_penalty"`
	WallPenalty     float64 `mapstructure:"wall_penalty"`
	NoopSwapPenalty float64 `mapstructure:"noop_swap_penalty"`
	PotentialBonus  float64 `mapstructure:"potential_bonus"`
	GameOverPenalty float64 `mapstructure:"game_over_penalty"`
}

// PersistenceConfig holds Q-table snapshot settings
type PersistenceConfig struct {
	Type          string `mapstructure:"type"`
	Path          string `mapstructure:"path"`
	EveryEpisodes int    `mapstructure:"every_episodes"`
}

// BotConfig holds settings for the greedy player
type BotConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	DefaultAction string        `mapstructure:"default_action"`
	TablePath     string        `mapstructure:"table_path"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds network endpoints
type ServerConfig struct {
	Status StatusServerConfig `mapstructure:"status"`
}

// StatusServerConfig holds the gRPC health endpoint settings
type StatusServerConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	EnableReflection bool   `mapstructure:"enable_reflection"`
}

var (
	cfg *Config
	v   *viper.Viper
)

func setViperDefaults(v *viper.Viper) {
	// Interactive game defaults
	v.SetDefault("game.height", 12)
	v.SetDefault("game.width", 6)
	v.SetDefault("game.tiles", "z,i,e,w,a")
	v.SetDefault("game.starter_rows", 4)
	v.SetDefault("game.tick_interval", 20*time.Millisecond)
	v.SetDefault("game.row_insert_interval", 3*time.Second)
	v.SetDefault("game.max_row_attempts", 100)

	// Training board runs fast
	v.SetDefault("training.game.height", 12)
	v.SetDefault("training.game.width", 6)
	v.SetDefault("training.game.tiles", "z,i,e,w,a")
	v.SetDefault("training.game.starter_rows", 4)
	v.SetDefault("training.game.tick_interval", time.Millisecond)
	v.SetDefault("training.game.row_insert_interval", 10*time.Millisecond)
	v.SetDefault("training.game.max_row_attempts", 100)

	v.SetDefault("training.episodes", 1000)
	v.SetDefault("training.seed", 0)
	v.SetDefault("training.encoder", "local_window")
	v.SetDefault("training.adjacency_rows", 3)
	v.SetDefault("training.ticks_per_step", 1)
	v.SetDefault("training.max_episode_duration", 60*time.Second)
	v.SetDefault("training.max_steps", 0)
	v.SetDefault("training.step_delay", 0)
	v.SetDefault("training.log_every", 1)

	// Agent defaults
	v.SetDefault("agent.learning_rate", 0.1)
	v.SetDefault("agent.discount_factor", 0.95)
	v.SetDefault("agent.exploration_rate", 1.0)
	v.SetDefault("agent.min_exploration_rate", 0.001)
	v.SetDefault("agent.exploration_decay", 0.9995)
	v.SetDefault("agent.decay_schedule", "step")

	// Reward shaping defaults
	v.SetDefault("rewards.score_cap", 30.0)
	v.SetDefault("rewards.step_penalty", -0.01)
	v.SetDefault("rewards.wall_penalty", -0.1)
	v.SetDefault("rewards.noop_swap_penalty", -0.1)
	v.SetDefault("rewards.potential_bonus", 0.1)
	v.SetDefault("rewards.game_over_penalty", -1.0)

	// Persistence defaults
	v.SetDefault("persistence.type", "json")
	v.SetDefault("persistence.path", "qtable.json")
	v.SetDefault("persistence.every_episodes", 25)

	// Bot defaults
	v.SetDefault("bot.interval", 200*time.Millisecond)
	v.SetDefault("bot.default_action", "swap")
	v.SetDefault("bot.table_path", "qtable.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Status server defaults
	v.SetDefault("server.status.enabled", true)
	v.SetDefault("server.status.host", "0.0.0.0")
	v.SetDefault("server.status.port", 50061)
	v.SetDefault("server.status.enable_reflection", true)
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	// Set defaults before loading any config
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/match3-rl")
	}

	v.SetEnvPrefix("M3RL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath == "" && !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// An explicit path that does not exist falls back to defaults
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig merges config.<env>.yaml over the loaded configuration
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	envFile := fmt.Sprintf("config.%s.yaml", env)

	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error merging environment config %s: %w", envFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}

	return Validate(cfg)
}

// Set overrides one key at runtime, for example from a command line flag,
// and re-decodes the global config. The previous config is kept when the
// override does not decode or validate.
func Set(key string, value interface{}) error {
	prev := v.Get(key)
	v.Set(key, value)

	next := &Config{}
	err := v.Unmarshal(next)
	if err == nil {
		err = Validate(next)
	}
	if err != nil {
		v.Set(key, prev)
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	cfg = next
	return nil
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of the config file. onChange receives the
// freshly decoded config; a reload that fails validation keeps the previous one.
func WatchConfig(onChange func(*Config, error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		err := v.Unmarshal(next)
		if err == nil {
			err = Validate(next)
		}
		if err == nil {
			cfg = next
		}
		if onChange != nil {
			onChange(cfg, err)
		}
	})
	v.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if err := validateGame("game", c.Game); err != nil {
		return err
	}
	if err := validateGame("training.game", c.Training.Game); err != nil {
		return err
	}

	// Training loop
	if c.Training.Episodes < 1 {
		return fmt.Errorf("training.episodes must be at least 1")
	}
	switch c.Training.Encoder {
	case "full_grid", "local_window", "adjacency":
	default:
		return fmt.Errorf("training.encoder must be one of full_grid, local_window, adjacency, got %q", c.Training.Encoder)
	}
	if c.Training.AdjacencyRows < 1 {
		return fmt.Errorf("training.adjacency_rows must be at least 1")
	}
	if c.Training.TicksPerStep < 0 {
		return fmt.Errorf("training.ticks_per_step must be non-negative")
	}
	if c.Training.MaxEpisodeDuration <= 0 {
		return fmt.Errorf("training.max_episode_duration must be positive")
	}
	if c.Training.MaxSteps < 0 {
		return fmt.Errorf("training.max_steps must be non-negative")
	}
	if c.Training.StepDelay < 0 {
		return fmt.Errorf("training.step_delay must be non-negative")
	}
	if c.Training.LogEvery < 0 {
		return fmt.Errorf("training.log_every must be non-negative")
	}

	// Agent
	if c.Agent.LearningRate <= 0 || c.Agent.LearningRate > 1 {
		return fmt.Errorf("agent.learning_rate must be in (0, 1]")
	}
	if c.Agent.DiscountFactor < 0 || c.Agent.DiscountFactor >= 1 {
		return fmt.Errorf("agent.discount_factor must be in [0, 1)")
	}
	if c.Agent.ExplorationRate < 0 || c.Agent.ExplorationRate > 1 {
		return fmt.Errorf("agent.exploration_rate must be between 0 and 1")
	}
	if c.Agent.MinExplorationRate < 0 || c.Agent.MinExplorationRate > c.Agent.ExplorationRate {
		return fmt.Errorf("agent.min_exploration_rate must be between 0 and agent.exploration_rate")
	}
	if c.Agent.ExplorationDecay <= 0 || c.Agent.ExplorationDecay > 1 {
		return fmt.Errorf("agent.exploration_decay must be in (0, 1]")
	}
	switch c.Agent.DecaySchedule {
	case "step", "episode", "best_score":
	default:
		return fmt.Errorf("agent.decay_schedule must be one of step, episode, best_score, got %q", c.Agent.DecaySchedule)
	}

	if c.Rewards.ScoreCap <= 0 {
		return fmt.Errorf("rewards.score_cap must be positive")
	}

	// Persistence
	switch c.Persistence.Type {
	case "none":
	case "json", "parquet":
		if c.Persistence.Path == "" {
			return fmt.Errorf("persistence.path is required for persistence.type %q", c.Persistence.Type)
		}
	default:
		return fmt.Errorf("persistence.type must be one of none, json, parquet, got %q", c.Persistence.Type)
	}
	if c.Persistence.EveryEpisodes < 0 {
		return fmt.Errorf("persistence.every_episodes must be non-negative")
	}

	// Bot
	if c.Bot.Interval <= 0 {
		return fmt.Errorf("bot.interval must be positive")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}

	if c.Server.Status.Port <= 0 || c.Server.Status.Port > 65535 {
		return fmt.Errorf("server.status.port must be between 1 and 65535")
	}

	return nil
}

func validateGame(section string, g GameConfig) error {
	if g.Width < 2 || g.Height < 2 {
		return fmt.Errorf("%s board must be at least 2x2", section)
	}
	if g.StarterRows < 0 || g.StarterRows >= g.Height {
		return fmt.Errorf("%s.starter_rows must be between 0 and height-1", section)
	}
	if strings.TrimSpace(g.Tiles) == "" {
		return fmt.Errorf("%s.tiles must not be empty", section)
	}
	if g.TickInterval <= 0 || g.RowInsertInterval <= 0 {
		return fmt.Errorf("%s intervals must be positive", section)
	}
	if g.MaxRowAttempts < 1 {
		return fmt.Errorf("%s.max_row_attempts must be at least 1", section)
	}
	return nil
}
