// Package config loads pulse defaults from an optional YAML file.
//
// Command-line flags always win; the file only supplies values for flags
// the user did not set.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pulse/internal/ir"
)

// DefaultMaxSteps is the per-tick signal budget applied by the CLI. The
// engine itself has no budget unless one is configured.
const DefaultMaxSteps = 1_000_000

// Config holds run defaults.
type Config struct {
	Trigger        string `yaml:"trigger"`
	Presses        int64  `yaml:"presses"`
	MaxSteps       int64  `yaml:"max_steps"`
	MaxTicks       int64  `yaml:"max_ticks"`
	Database       string `yaml:"database"`
	Parallelism    int    `yaml:"parallelism"`
	Strict         bool   `yaml:"strict"`
	LazyGateInputs bool   `yaml:"lazy_gate_inputs"`
	CycleSkip      bool   `yaml:"cycle_skip"`
	LogFile        string `yaml:"log_file"`
	MetricsFile    string `yaml:"metrics_file"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Trigger:  string(ir.Broadcaster),
		Presses:  1000,
		MaxSteps: DefaultMaxSteps,
	}
}

// Load reads path over the defaults. Unknown keys are rejected. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Trigger == "" {
		errs = append(errs, errors.New("trigger must not be empty"))
	}
	if c.Presses < 0 {
		errs = append(errs, fmt.Errorf("presses must not be negative: %d", c.Presses))
	}
	if c.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("max_steps must not be negative: %d", c.MaxSteps))
	}
	if c.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("max_ticks must not be negative: %d", c.MaxTicks))
	}
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism must not be negative: %d", c.Parallelism))
	}
	return errors.Join(errs...)
}
