// Package config loads the storage engine's runtime settings from a YAML
// file, falling back to sane defaults when the file is absent.
package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	// DataDir is where index files live.
	DataDir string `yaml:"data_dir"`

	// PoolSize is the buffer pool capacity in pages.
	PoolSize int `yaml:"pool_size"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		DataDir:  "data",
		PoolSize: 50,
		LogLevel: "info",
	}
}

// Load reads the config file at path, layering it over the defaults. A
// missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive, got %d", c.PoolSize)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// BuildLogger constructs a production zap logger at the configured level.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
