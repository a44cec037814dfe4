//go:build windows

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

// Command overlayhook is built with -buildmode=c-shared into a DLL. Once
// loaded into a process it hooks wglSwapBuffers and draws a small demo
// overlay. Settings come from OVERLAY_* environment variables.
package main

import "C"

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/workturnedplay/overlayhook"
	"github.com/workturnedplay/overlayhook/internal/config"
	"github.com/workturnedplay/overlayhook/internal/logq"
)

const (
	installAttempts = 120
	installInterval = 500 * time.Millisecond
)

var (
	mu      sync.Mutex
	overlay *overlayhook.Overlay
	logger  = logq.Nop()
	stop    = make(chan struct{})
	stopped bool
)

func init() {
	go start()
}

func start() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("overlay start panicked: %v\n%s", r, debug.Stack())
		}
	}()

	cfg, cfgErr := config.LoadOrDefault()
	l, err := logq.Open(cfg.Log)
	if err != nil {
		l = logq.Nop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	if cfgErr != nil {
		logger.Warnf("bad configuration, using defaults: %v", cfgErr)
	}
	if cfg.Disabled {
		logger.Infof("overlay disabled by configuration")
		return
	}

	o, err := overlayhook.NewDefault(cfg, logger)
	if err != nil {
		logger.Errorf("overlay setup: %v", err)
		return
	}
	if err := o.RegisterUIBuilder(newDemo().build); err != nil {
		logger.Errorf("register demo UI: %v", err)
		return
	}
	if err := installWhenLoaded(o, cfg); err != nil {
		logger.Errorf("overlay not installed: %v", err)
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if stopped {
		_ = o.Close()
		return
	}
	overlay = o
}

// installWhenLoaded retries while the target module is not mapped yet: the
// DLL may be injected before the host loads its renderer.
func installWhenLoaded(o *overlayhook.Overlay, cfg *config.Config) error {
	var err error
	for attempt := 1; attempt <= installAttempts; attempt++ {
		err = o.Install()
		if !errors.Is(err, overlayhook.ErrSymbolResolution) {
			return err
		}
		if attempt == 1 {
			logger.Infof("%s not loaded yet, waiting: %v", cfg.Module, err)
		}
		select {
		case <-stop:
			return fmt.Errorf("stopped while waiting for %s", cfg.Module)
		case <-time.After(installInterval):
		}
	}
	return err
}

// OverlayShutdown unhooks everything and flushes the log. The host, or
// whatever injected the DLL, calls it before unloading.
//
//export OverlayShutdown
func OverlayShutdown() {
	mu.Lock()
	defer mu.Unlock()
	if stopped {
		return
	}
	stopped = true
	close(stop)
	if overlay != nil {
		if err := overlay.Close(); err != nil {
			logger.Errorf("%v", err)
		}
	}
	_ = logger.Close()
}

func main() {}
