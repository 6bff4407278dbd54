package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Config keeps runtime settings for the planner service.
type Config struct {
	ListenAddr       string   `yaml:"listen_addr"`
	DatabaseURL      string   `yaml:"database_url"`
	GeneratorURL     string   `yaml:"generator_url"`
	CalendarURL      string   `yaml:"calendar_url"`
	GeneratorTimeout Duration `yaml:"generator_timeout"`
	GeneratorRPM     int      `yaml:"generator_rpm"`
	SweepInterval    Duration `yaml:"sweep_interval"`
	LogLevel         string   `yaml:"log_level"`
}

// Load reads configuration from environment variables with sane defaults.
// When PLANNER_CONFIG points at a YAML file, its values are applied first and
// environment variables override them.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:       ":8080",
		DatabaseURL:      "goalplanner.db",
		GeneratorTimeout: Duration(60 * time.Second),
		GeneratorRPM:     10,
		SweepInterval:    Duration(6 * time.Hour),
		LogLevel:         "info",
	}

	if path := strings.TrimSpace(os.Getenv("PLANNER_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)

	if cfg.GeneratorURL == "" {
		return cfg, fmt.Errorf("GENERATOR_URL is required")
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("LISTEN_ADDR", &cfg.ListenAddr)
	setString("DATABASE_URL", &cfg.DatabaseURL)
	setString("GENERATOR_URL", &cfg.GeneratorURL)
	setString("CALENDAR_URL", &cfg.CalendarURL)
	setString("LOG_LEVEL", &cfg.LogLevel)

	if v := parseHours(os.Getenv("SWEEP_INTERVAL_HOURS")); v > 0 {
		cfg.SweepInterval = Duration(v)
	}
}

func parseHours(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
