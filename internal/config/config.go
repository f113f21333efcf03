package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int             `yaml:"port"`
	MetricsPort int             `yaml:"metrics_port"`
	AdminToken  string          `yaml:"admin_token"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds the API request rate. A zero RequestsPerSecond
// disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	// Template is an inline weight template. TemplatePath takes precedence.
	Template            *TemplateConfig `yaml:"template"`
	TemplatePath        string          `yaml:"template_path"`
	MaxConsistencyRatio float64         `yaml:"max_consistency_ratio"`
	RejectInconsistent  bool            `yaml:"reject_inconsistent"`
	RecomputeWorkers    int             `yaml:"recompute_workers"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level name onto slog. Unknown names fall back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w from the logging section.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// WeightTree resolves the effective weight template: the template file if
// configured, then the inline template, then the stock template.
func (c *Config) WeightTree() (scoring.WeightTree, error) {
	if c.Scoring.TemplatePath != "" {
		return LoadTemplate(c.Scoring.TemplatePath)
	}
	if c.Scoring.Template != nil {
		return c.Scoring.Template.Tree()
	}
	return scoring.DefaultTemplate(), nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		Database: DatabaseConfig{
			Migrate: true,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Scoring: ScoringConfig{
			MaxConsistencyRatio: scoring.DefaultMaxConsistencyRatio,
			RejectInconsistent:  true,
			RecomputeWorkers:    4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Scoring.RecomputeWorkers < 1 {
		cfg.Scoring.RecomputeWorkers = 1
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PRIORITIZER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("PRIORITIZER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("PRIORITIZER_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("PRIORITIZER_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimit.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("PRIORITIZER_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("PRIORITIZER_DATABASE_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.Migrate = b
		}
	}
	if v := os.Getenv("PRIORITIZER_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("PRIORITIZER_TEMPLATE_PATH"); v != "" {
		cfg.Scoring.TemplatePath = v
	}
	if v := os.Getenv("PRIORITIZER_MAX_CONSISTENCY_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.MaxConsistencyRatio = f
		}
	}
	if v := os.Getenv("PRIORITIZER_REJECT_INCONSISTENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scoring.RejectInconsistent = b
		}
	}
	if v := os.Getenv("PRIORITIZER_RECOMPUTE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.RecomputeWorkers = n
		}
	}
	if v := os.Getenv("PRIORITIZER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PRIORITIZER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
