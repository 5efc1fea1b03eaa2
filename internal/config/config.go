package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of the CLI and the HTTP server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Feed      FeedConfig      `yaml:"feed"`
	Solver    SolverConfig    `yaml:"solver"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// FeedConfig says where games come from and how long a loaded season is reused.
type FeedConfig struct {
	// SnapshotPath is a YAML or JSON season file. When empty, games are read from Postgres.
	SnapshotPath string        `yaml:"snapshot_path"`
	TTL          time.Duration `yaml:"ttl"`
}

// SolverConfig bounds scenario searches.
type SolverConfig struct {
	MaxNodes  int           `yaml:"max_nodes"`
	MaxLeaves int           `yaml:"max_leaves"`
	MaxPaths  int           `yaml:"max_paths"`
	Timeout   time.Duration `yaml:"timeout"`
}

// RateLimitConfig limits evaluation requests per client.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used for anything the file and environment leave unset.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Feed: FeedConfig{TTL: time.Minute},
		Solver: SolverConfig{
			MaxNodes:  100_000,
			MaxLeaves: 1_500,
			MaxPaths:  5,
			Timeout:   750 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
		Log:       LogConfig{Level: "info"},
	}
}

// LoadConfig loads the configuration from a YAML file, then applies environment overrides.
// A missing file yields the defaults plus the environment.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		cfg.Feed.SnapshotPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	durations := map[string]*time.Duration{
		"FEED_TTL":       &cfg.Feed.TTL,
		"SOLVER_TIMEOUT": &cfg.Solver.Timeout,
	}
	for name, dst := range durations {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", name, err)
			}
			*dst = d
		}
	}
	ints := map[string]*int{
		"SOLVER_MAX_NODES":  &cfg.Solver.MaxNodes,
		"SOLVER_MAX_LEAVES": &cfg.Solver.MaxLeaves,
		"RATE_LIMIT_BURST":  &cfg.RateLimit.Burst,
	}
	for name, dst := range ints {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", name, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = f
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (cfg *Config) Validate() error {
	if cfg.Solver.MaxNodes < 0 || cfg.Solver.MaxLeaves < 0 || cfg.Solver.MaxPaths < 0 {
		return fmt.Errorf("solver bounds must not be negative")
	}
	if cfg.RateLimit.RPS < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1 when rps is set")
	}
	if cfg.Feed.TTL < 0 {
		return fmt.Errorf("feed ttl must not be negative")
	}
	return nil
}
