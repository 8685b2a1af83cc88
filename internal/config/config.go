// Package config loads CLI defaults from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	Output  OutputConfig  `envPrefix:"ERDSCHEMA_"`
	Infer   InferConfig   `envPrefix:"ERDSCHEMA_"`
	Logging LoggingConfig `envPrefix:"ERDSCHEMA_"`
}

// OutputConfig controls what the compiler writes
type OutputConfig struct {
	// Title and Database override the values carried by the schema when set
	Title    string `env:"TITLE"`
	Database string `env:"DATABASE"`
	Format   string `env:"FORMAT" envDefault:"all"` // drawdb, dbml, markdown, text, all
}

// InferConfig controls relationship inference
type InferConfig struct {
	Disabled      bool     `env:"NO_INFER"       envDefault:"false"`
	TableSuffixes []string `env:"INFER_SUFFIXES" envDefault:"_info" envSeparator:","`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"warn"`    // debug, info, warn, error
	Format string `env:"LOG_FORMAT" envDefault:"console"` // console, json
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// LoadWithEnvironment reads the configuration from the given variables instead of the process environment
func LoadWithEnvironment(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
