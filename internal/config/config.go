package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const envPrefix = "DOCPARSE_"

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth; bearer auth is enabled when set
	APIKey string `env:"API_KEY"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB
	MaxBatchFiles  int   `env:"MAX_BATCH_FILES" envDefault:"32"`

	// Batch crawling
	BatchWorkers int `env:"BATCH_WORKERS" envDefault:"4"`

	SummaryLimit int           `env:"SUMMARY_LIMIT" envDefault:"1000"`
	StatsWindow  time.Duration `env:"STATS_WINDOW" envDefault:"1h"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads a .env file when present, then the DOCPARSE_ environment.
// Variables already set take precedence over the file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix: envPrefix,
	})
	if err != nil {
		return Config{}, errors.WithStack(err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("DOCPARSE_PORT is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.Errorf("DOCPARSE_MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.MaxBatchFiles <= 0 {
		return errors.Errorf("DOCPARSE_MAX_BATCH_FILES must be positive, got %d", c.MaxBatchFiles)
	}
	if c.BatchWorkers <= 0 {
		return errors.Errorf("DOCPARSE_BATCH_WORKERS must be positive, got %d", c.BatchWorkers)
	}
	if c.SummaryLimit <= 0 {
		return errors.Errorf("DOCPARSE_SUMMARY_LIMIT must be positive, got %d", c.SummaryLimit)
	}
	if c.StatsWindow <= 0 {
		return errors.Errorf("DOCPARSE_STATS_WINDOW must be positive, got %s", c.StatsWindow)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Errorf("invalid log level %q", s)
	}
	return l, nil
}
