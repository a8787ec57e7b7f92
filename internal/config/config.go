// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package config loads the deferloop command's configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/go-deferloop/izerolog"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// DefaultTaskLimit bounds scenario runs unless configured otherwise, so a
// scenario with a self-rescheduling microtask terminates with an error.
const DefaultTaskLimit = 100_000

type (
	Config struct {
		Log       LogConfig   `json:"log"`
		Watch     WatchConfig `json:"watch"`
		TaskLimit int         `json:"task_limit"`
	}

	LogConfig struct {
		// Level is a logiface level name, e.g. "debug" or "info".
		Level string `json:"level"`
		// Format is either "console" or "json".
		Format string `json:"format"`
	}

	WatchConfig struct {
		Enabled bool `json:"enabled"`
		// Debounce is a Go duration string, waited after the last change
		// before the scenario is reloaded.
		Debounce string `json:"debounce"`
	}
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: FormatConsole,
		},
		Watch: WatchConfig{
			Debounce: "250ms",
		},
		TaskLimit: DefaultTaskLimit,
	}
}

// Load reads the file at path (YAML or JSON) over the defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, b)
}

// Parse is Load without the file read, path selects the format.
func Parse(path string, data []byte) (*Config, error) {
	cfg := Default()
	if err := DecodeStrict(path, data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, ok := izerolog.LookupLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("log.format: must be %q or %q, got %q", FormatConsole, FormatJSON, c.Log.Format)
	}
	if c.TaskLimit < 0 {
		return fmt.Errorf("task_limit: must be >= 0, got %d", c.TaskLimit)
	}
	if _, err := ParseDurationField("watch.debounce", c.Watch.Debounce); err != nil {
		return err
	}
	return nil
}

// DebounceDuration returns the watch debounce, falling back to 250ms when
// unset or zero. Call Validate first.
func (c *Config) DebounceDuration() time.Duration {
	d, err := ParseDurationField("watch.debounce", c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 250 * time.Millisecond
	}
	return d
}
