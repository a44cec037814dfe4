// Copyright 2026 workturnedplay
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config reads the overlay's settings from OVERLAY_* environment
// variables.
package config

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
)

// Prefix of every environment variable.
const Prefix = "overlay"

// Config holds all overlay configuration.
type Config struct {
	// Module and Symbol name the presentation function to hook.
	Module string `envconfig:"MODULE" default:"opengl32.dll"`
	Symbol string `envconfig:"SYMBOL" default:"wglSwapBuffers"`

	PixelsPerPoint float32 `envconfig:"PIXELS_PER_POINT" default:"1"`
	// Disabled makes the loader skip installing the hook entirely.
	Disabled bool `envconfig:"DISABLED" default:"false"`

	// ErrorLogRate and ErrorLogBurst throttle per-frame error logs
	// (events per second, bucket size).
	ErrorLogRate  float64 `envconfig:"ERROR_LOG_RATE" default:"1"`
	ErrorLogBurst int     `envconfig:"ERROR_LOG_BURST" default:"5"`

	Log LogConfig `envconfig:"LOG"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// File is where log lines go; empty disables logging.
	File  string `envconfig:"FILE"`
	Level string `envconfig:"LEVEL" default:"info"`
	// Queue is the number of lines buffered before new ones are dropped.
	Queue int `envconfig:"QUEUE" default:"4096"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns the
// defaults, together with the load error if there was one.
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Module:         "opengl32.dll",
		Symbol:         "wglSwapBuffers",
		PixelsPerPoint: 1,
		ErrorLogRate:   1,
		ErrorLogBurst:  5,
		Log: LogConfig{
			Level: "info",
			Queue: 4096,
		},
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Module == "" || c.Symbol == "" {
		errs = append(errs, errors.New("module and symbol must be set"))
	}
	if c.PixelsPerPoint <= 0 {
		errs = append(errs, fmt.Errorf("pixels per point must be positive, got %g", c.PixelsPerPoint))
	}
	if c.ErrorLogRate < 0 || c.ErrorLogBurst < 0 {
		errs = append(errs, fmt.Errorf("error log rate %g / burst %d must not be negative", c.ErrorLogRate, c.ErrorLogBurst))
	}
	if c.Log.Queue <= 0 {
		errs = append(errs, fmt.Errorf("log queue must be positive, got %d", c.Log.Queue))
	}
	if _, err := c.Log.ZapLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ZapLevel parses Level.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return lvl, nil
}
