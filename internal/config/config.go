package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ArtifactSourceLocal = "local"
	ArtifactSourceS3    = "s3"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	ArtifactSource string `env:"ARTIFACT_SOURCE" envDefault:"local"`
	ArtifactDir    string `env:"ARTIFACT_DIR" envDefault:"./artifacts"`
	ArtifactBucket string `env:"ARTIFACT_BUCKET" envDefault:"models"`
	ArtifactPrefix string `env:"ARTIFACT_PREFIX" envDefault:""`
	ScalerKey      string `env:"SCALER_KEY" envDefault:"scaler.json"`
	ModelKey       string `env:"MODEL_KEY" envDefault:"model.json"`
	ColumnsKey     string `env:"COLUMNS_KEY" envDefault:"model_columns.json"`

	// ArtifactSeedDir, when set, is uploaded into an empty artifact store at start-up.
	ArtifactSeedDir string `env:"ARTIFACT_SEED_DIR"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION"`

	ShowDiagnostics    bool          `env:"SHOW_DIAGNOSTICS" envDefault:"false"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.ArtifactSource {
	case ArtifactSourceLocal:
		if c.ArtifactDir == "" {
			return fmt.Errorf("ARTIFACT_DIR must be set when ARTIFACT_SOURCE is local")
		}
	case ArtifactSourceS3:
		if c.S3EndpointURL != "" && (c.S3AccessKeyID == "" || c.S3SecretAccessKey == "") {
			slog.Warn("S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing")
		}
	default:
		return fmt.Errorf("invalid ARTIFACT_SOURCE '%s': must be '%s' or '%s'", c.ArtifactSource, ArtifactSourceLocal, ArtifactSourceS3)
	}

	if c.ArtifactBucket == "" {
		return fmt.Errorf("ARTIFACT_BUCKET must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL '%s': %w", c.LogLevel, err)
	}
	return level, nil
}
