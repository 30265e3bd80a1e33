package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"nodandknow"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	StoreDriver    string `env:"STORE_DRIVER" envDefault:"memory"`
	PostgresDSN    string `env:"POSTGRES_DSN"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"nodandknow.db"`
	RedisURL       string `env:"REDIS_URL"`
	RedisPrefix    string `env:"REDIS_CHANNEL_PREFIX" envDefault:"nodandknow:session"`
	CatalogPath    string `env:"CATALOG_PATH"`
	PersistQueue   int    `env:"PERSIST_QUEUE_SIZE" envDefault:"256"`
	CommandBuffer  int    `env:"SESSION_COMMAND_BUFFER" envDefault:"256"`
	EnableForwards bool   `env:"ENABLE_NOTIFICATION_FORWARDER" envDefault:"true"`

	InfoDurationSeconds     int `env:"INFO_DURATION_SECONDS" envDefault:"5"`
	QuestionDurationSeconds int `env:"QUESTION_DURATION_SECONDS" envDefault:"5"`
	ResultsDurationSeconds  int `env:"RESULTS_DURATION_SECONDS" envDefault:"5"`
	RotationIntervalSeconds int `env:"QUESTION_ROTATION_INTERVAL_SECONDS" envDefault:"0"`

	MinorityThreshold float64 `env:"MINORITY_THRESHOLD" envDefault:"0.25"`
	MinorityMinVotes  int     `env:"MINORITY_MIN_VOTES" envDefault:"3"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set win over the file.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error.
func LoadFile(dotenvPath string) (Config, error) {
	if path := strings.TrimSpace(dotenvPath); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load dotenv %s: %w", path, err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.InfoDurationSeconds <= 0 || c.QuestionDurationSeconds <= 0 || c.ResultsDurationSeconds <= 0 {
		return fmt.Errorf("phase durations must be positive")
	}
	if c.RotationIntervalSeconds < 0 {
		return fmt.Errorf("question rotation interval must not be negative")
	}
	if c.MinorityThreshold <= 0 || c.MinorityThreshold > 0.5 {
		return fmt.Errorf("minority threshold must be in (0, 0.5], got %v", c.MinorityThreshold)
	}
	if c.MinorityMinVotes < 1 {
		return fmt.Errorf("minority min votes must be at least 1, got %d", c.MinorityMinVotes)
	}
	switch c.StoreDriver {
	case StoreDriverMemory, StoreDriverSQLite:
	case StoreDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	return nil
}

func (c Config) InfoDuration() time.Duration {
	return time.Duration(c.InfoDurationSeconds) * time.Second
}

func (c Config) QuestionDuration() time.Duration {
	return time.Duration(c.QuestionDurationSeconds) * time.Second
}

func (c Config) ResultsDuration() time.Duration {
	return time.Duration(c.ResultsDurationSeconds) * time.Second
}

func (c Config) RotationInterval() time.Duration {
	return time.Duration(c.RotationIntervalSeconds) * time.Second
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(c.LogFormat), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler).With("service", c.ServiceName)
}
