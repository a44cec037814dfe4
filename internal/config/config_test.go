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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OVERLAY_MODULE", "opengl32.dll")
	t.Setenv("OVERLAY_SYMBOL", "SwapBuffers")
	t.Setenv("OVERLAY_PIXELS_PER_POINT", "1.5")
	t.Setenv("OVERLAY_DISABLED", "true")
	t.Setenv("OVERLAY_LOG_FILE", `C:\temp\overlay.log`)
	t.Setenv("OVERLAY_LOG_LEVEL", "debug")
	t.Setenv("OVERLAY_LOG_QUEUE", "128")
	t.Setenv("OVERLAY_ERROR_LOG_BURST", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "SwapBuffers", cfg.Symbol)
	assert.Equal(t, float32(1.5), cfg.PixelsPerPoint)
	assert.True(t, cfg.Disabled)
	assert.Equal(t, `C:\temp\overlay.log`, cfg.Log.File)
	assert.Equal(t, 128, cfg.Log.Queue)
	assert.Equal(t, 2, cfg.ErrorLogBurst)

	lvl, err := cfg.Log.ZapLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"OVERLAY_PIXELS_PER_POINT": "0",
		"OVERLAY_LOG_QUEUE":        "0",
		"OVERLAY_LOG_LEVEL":        "chatty",
		"OVERLAY_ERROR_LOG_RATE":   "-1",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("OVERLAY_LOG_QUEUE", "lots")
	cfg, err := LoadOrDefault()
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}
