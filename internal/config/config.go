// Package config loads runtime settings from the environment and an
// optional dotenv file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/quizmind/internal/llm"
)

// Config holds every runtime setting of the service.
type Config struct {
	// LLM configures the text completer.
	LLM llm.Config

	// DBPath is the SQLite database file. Empty means the default data dir.
	DBPath string

	// HTTPAddr is the listen address of the API server.
	HTTPAddr string

	// LogMode is "development" or "production".
	LogMode string

	// Bus selects where leaderboard events are published.
	Bus BusConfig

	// SweepSchedule is a cron spec for the abandoned-session sweeper.
	SweepSchedule string

	// InactivityWindow is how long an active session may sit idle before
	// the sweeper abandons it.
	InactivityWindow time.Duration

	// CORSOrigins lists allowed browser origins. Empty allows all.
	CORSOrigins []string

	// Adaptive makes new quizzes follow the learner's difficulty ladder
	// unless the request says otherwise.
	Adaptive bool

	// NegationAware makes short-answer grading reject answers that negate
	// the reference, e.g. "not Paris" for "Paris".
	NegationAware bool
}

// BusConfig selects and configures the event bus.
type BusConfig struct {
	// Kind is "memory", "redis" or "amqp".
	Kind string

	RedisAddr    string
	RedisChannel string

	AMQPURL      string
	AMQPExchange string
}

// Default returns a Config with defaults for every field.
func Default() Config {
	return Config{
		LLM:      llm.DefaultConfig(),
		HTTPAddr: ":8080",
		LogMode:  "development",
		Bus: BusConfig{
			Kind:         "memory",
			RedisChannel: "quizmind:leaderboard",
			AMQPExchange: "quizmind.events",
		},
		SweepSchedule:    "@every 15m",
		InactivityWindow: 24 * time.Hour,
		Adaptive:         true,
	}
}

// Load reads envFile (or ".env" when empty) if it exists, then builds a
// Config from QUIZMIND_* variables. Variables already set in the process
// environment win over the file.
func Load(envFile string) (Config, error) {
	path := envFile
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.LLM = llm.LoadConfig()

	cfg.DBPath = os.Getenv("QUIZMIND_DB")
	if v := os.Getenv("QUIZMIND_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("QUIZMIND_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}

	if v := os.Getenv("QUIZMIND_BUS"); v != "" {
		cfg.Bus.Kind = strings.ToLower(v)
	}
	cfg.Bus.RedisAddr = os.Getenv("QUIZMIND_REDIS_ADDR")
	if v := os.Getenv("QUIZMIND_REDIS_CHANNEL"); v != "" {
		cfg.Bus.RedisChannel = v
	}
	cfg.Bus.AMQPURL = os.Getenv("QUIZMIND_AMQP_URL")
	if v := os.Getenv("QUIZMIND_AMQP_EXCHANGE"); v != "" {
		cfg.Bus.AMQPExchange = v
	}

	if v := os.Getenv("QUIZMIND_SWEEP_SCHEDULE"); v != "" {
		cfg.SweepSchedule = v
	}
	if v := os.Getenv("QUIZMIND_INACTIVITY_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("QUIZMIND_INACTIVITY_WINDOW: %w", err)
		}
		cfg.InactivityWindow = d
	}
	if v := os.Getenv("QUIZMIND_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	var err error
	if cfg.Adaptive, err = boolEnv("QUIZMIND_ADAPTIVE", cfg.Adaptive); err != nil {
		return Config{}, err
	}
	if cfg.NegationAware, err = boolEnv("QUIZMIND_NEGATION_AWARE", cfg.NegationAware); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate checks settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Bus.Kind {
	case "memory":
	case "redis":
		if c.Bus.RedisAddr == "" {
			return fmt.Errorf("QUIZMIND_REDIS_ADDR is required for the redis bus")
		}
	case "amqp":
		if c.Bus.AMQPURL == "" {
			return fmt.Errorf("QUIZMIND_AMQP_URL is required for the amqp bus")
		}
	default:
		return fmt.Errorf("unknown bus kind: %q", c.Bus.Kind)
	}
	if c.InactivityWindow <= 0 {
		return fmt.Errorf("inactivity window must be positive, got %s", c.InactivityWindow)
	}
	return nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
