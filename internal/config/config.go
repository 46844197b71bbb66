// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type SchedulingConfig struct {
	// DurationAware makes court conflicts interval checks over each match's duration
	// instead of exact start time equality.
	DurationAware bool   `yaml:"duration_aware"`
	DayStart      string `yaml:"day_start"`
	DayEnd        string `yaml:"day_end"`
}

type BracketConfig struct {
	QualifiersPerGroup int `yaml:"qualifiers_per_group"`
}

type HTTPConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
	// TrustProxy reads client IPs from X-Forwarded-For. Enable only behind a proxy.
	TrustProxy bool `yaml:"trust_proxy"`
}

type Config struct {
	App struct {
		Name                   string `yaml:"name"`
		Environment            string `yaml:"environment"`
		Port                   int    `yaml:"port"`
		BaseURL                string `yaml:"base_url"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Scheduling SchedulingConfig `yaml:"scheduling"`

	Bracket BracketConfig `yaml:"bracket"`

	HTTP HTTPConfig `yaml:"http"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableLive    bool `yaml:"enable_live"`
	} `yaml:"features"`
}

// Default returns the configuration used when a field is left out of the YAML file.
func Default() *Config {
	var cfg Config
	cfg.App.Name = "padeldraw"
	cfg.App.Environment = "development"
	cfg.App.Port = 8080
	cfg.App.ShutdownTimeoutSeconds = 10
	cfg.Database.Driver = "sqlite"
	cfg.Database.Filename = "data/padeldraw.db"
	cfg.Scheduling.DurationAware = true
	cfg.Scheduling.DayStart = "09:00"
	cfg.Scheduling.DayEnd = "21:00"
	cfg.Bracket.QualifiersPerGroup = 2
	cfg.HTTP.RateLimitRPS = 20
	cfg.HTTP.RateLimitBurst = 40
	cfg.Features.EnableMetrics = true
	cfg.Features.EnableLive = true
	return &cfg
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if filename := os.Getenv("DATABASE_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if env := os.Getenv("APP_ENVIRONMENT"); env != "" {
		c.App.Environment = env
	}
	if raw := os.Getenv("APP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid APP_PORT %q: %w", raw, err)
		}
		c.App.Port = port
	}
	return nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.App.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("shutdown timeout must not be negative")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	dayStart, err := time.Parse("15:04", c.Scheduling.DayStart)
	if err != nil {
		return fmt.Errorf("scheduling day_start must be HH:MM: %q", c.Scheduling.DayStart)
	}
	dayEnd, err := time.Parse("15:04", c.Scheduling.DayEnd)
	if err != nil {
		return fmt.Errorf("scheduling day_end must be HH:MM: %q", c.Scheduling.DayEnd)
	}
	if !dayEnd.After(dayStart) {
		return fmt.Errorf("scheduling day_end must be after day_start")
	}
	if c.Bracket.QualifiersPerGroup < 1 {
		return fmt.Errorf("bracket qualifiers_per_group must be at least 1")
	}
	if c.HTTP.RateLimitRPS < 0 || c.HTTP.RateLimitBurst < 0 {
		return fmt.Errorf("http rate limits must not be negative")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "" || c.App.Environment == "development"
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.App.ShutdownTimeoutSeconds) * time.Second
}
