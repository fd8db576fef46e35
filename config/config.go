// Package config loads the solver configuration from a YAML or JSON file
// with RCPSP_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/rcpsp/core/metrics"
	"github.com/kilianp07/rcpsp/core/optimizer"
	"github.com/kilianp07/rcpsp/core/results"
	"github.com/kilianp07/rcpsp/infra/mqtt"
)

// EnvPrefix marks environment overrides; "__" separates levels, so
// RCPSP_OPTIMIZER__SEED sets optimizer.seed.
const EnvPrefix = "RCPSP_"

type Config struct {
	Optimizer optimizer.Config `json:"optimizer"`
	Results   results.Config   `json:"results"`
	Metrics   metrics.Config   `json:"metrics"`
	MQTT      mqtt.Config      `json:"mqtt"`
	Batch     BatchConfig      `json:"batch"`
}

// BatchConfig drives independent runs on one instance.
type BatchConfig struct {
	// Runs is the number of optimizer runs.
	Runs int `json:"runs"`
	// Concurrency bounds how many runs execute at once. Zero runs all at once.
	Concurrency int `json:"concurrency"`
}

// SetDefaults applies sane defaults.
func (c *BatchConfig) SetDefaults() {
	if c.Runs == 0 {
		c.Runs = 4
	}
}

// Validate checks bounds.
func (c BatchConfig) Validate() error {
	if c.Runs < 1 {
		return fmt.Errorf("batch runs must be positive")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("batch concurrency must not be negative")
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Optimizer: optimizer.DefaultConfig()}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Optimizer.SetDefaults()
	c.Results.SetDefaults()
	c.Metrics.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
	c.Batch.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	if err := c.Results.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	return c.Batch.Validate()
}

// Load reads path, applies environment overrides and validates the result.
// An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	// Keys absent from the sources keep their default values.
	cfg := &Config{Optimizer: optimizer.DefaultConfig()}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
