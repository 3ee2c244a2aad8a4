package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const APIKeyEnvVar = "GEMINI_API_KEY"

// serverOnlyVars are read by the web front-ends and the pruning job only.
var serverOnlyVars = []string{"PORT", "HISTORY_RETENTION", "HISTORY_PRUNE_SPEC"}

type Config struct {
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL"       envDefault:"gemini-2.5-flash"`
	GeminiBaseURL string        `env:"GEMINI_BASE_URL"    envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	GeminiTimeout time.Duration `env:"GEMINI_TIMEOUT"     envDefault:"0s"`
	PromptStyle   string        `env:"PROMPT_STYLE"`
	Port          int           `env:"PORT"               envDefault:"5000"`
	LogLevel      string        `env:"LOG_LEVEL"          envDefault:"info"`

	HistoryDBPath    string        `env:"HISTORY_DB_PATH"`
	HistoryRetention time.Duration `env:"HISTORY_RETENTION"  envDefault:"720h"`
	HistoryPruneSpec string        `env:"HISTORY_PRUNE_SPEC" envDefault:"@hourly"`

	AnswerCacheSize  int           `env:"ANSWER_CACHE_SIZE"  envDefault:"0"`
	AnswerCacheTTL   time.Duration `env:"ANSWER_CACHE_TTL"   envDefault:"10m"`
	ModelMinInterval time.Duration `env:"MODEL_MIN_INTERVAL" envDefault:"0s"`
}

// LoadConfig reads an optional .env file and then parses the process
// environment. Variables already set in the environment win over .env.
func LoadConfig() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	return parse(env.Options{})
}

// LoadCLIConfig is LoadConfig for the command-line front-end: server-only
// variables are ignored and keep their defaults, so a bad PORT does not
// stop a question from being answered.
func LoadCLIConfig() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	environment := make(map[string]string)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			environment[key] = value
		}
	}

	return LoadCLIConfigFrom(environment)
}

func LoadCLIConfigFrom(environment map[string]string) (Config, error) {
	filtered := make(map[string]string, len(environment))
	for key, value := range environment {
		if !slices.Contains(serverOnlyVars, key) {
			filtered[key] = value
		}
	}

	return parse(env.Options{Environment: filtered})
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env file: %w", err)
	}

	return nil
}

// LoadConfigFrom parses the given variables only. Used by tests and by
// callers that assemble the environment themselves.
func LoadConfigFrom(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.GeminiModel = strings.TrimSpace(cfg.GeminiModel)
	cfg.PromptStyle = strings.ToLower(strings.TrimSpace(cfg.PromptStyle))
	cfg.HistoryDBPath = strings.TrimSpace(cfg.HistoryDBPath)

	if cfg.GeminiModel == "" {
		return Config{}, errors.New("GEMINI_MODEL is empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT is out of range (port = %d)", cfg.Port)
	}
	if cfg.GeminiTimeout < 0 {
		return Config{}, fmt.Errorf("GEMINI_TIMEOUT is negative (timeout = %s)", cfg.GeminiTimeout)
	}

	return cfg, nil
}

// StyleOr returns the configured prompt style or def when none is set.
func (c Config) StyleOr(def string) string {
	if c.PromptStyle == "" {
		return def
	}
	return c.PromptStyle
}

// HistoryEnabled reports whether questions should be persisted.
func (c Config) HistoryEnabled() bool {
	return c.HistoryDBPath != ""
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
