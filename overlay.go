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

// Package overlayhook draws an immediate-mode overlay into a host
// application's OpenGL frames. It hooks the host's presentation function,
// composes the overlay through a private context right before each frame is
// presented, and subclasses the host window so the overlay can take the
// input it wants.
package overlayhook

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/workturnedplay/overlayhook/internal/compose"
	"github.com/workturnedplay/overlayhook/internal/config"
	"github.com/workturnedplay/overlayhook/internal/detour"
	"github.com/workturnedplay/overlayhook/internal/input"
	"github.com/workturnedplay/overlayhook/internal/logq"
	"github.com/workturnedplay/overlayhook/internal/metrics"
	"github.com/workturnedplay/overlayhook/internal/once"
	"github.com/workturnedplay/overlayhook/internal/paint"
	"github.com/workturnedplay/overlayhook/internal/shadow"
	"github.com/workturnedplay/overlayhook/internal/ui"
	"github.com/workturnedplay/overlayhook/internal/winproc"
)

// Options are the collaborators of an Overlay. Detours, Driver and
// NewRasterizer are required; without Subclasser and Callback the overlay
// draws but never sees input.
type Options struct {
	Target         detour.Target
	PixelsPerPoint float32

	Detours       *detour.Manager
	Driver        shadow.Driver
	NewRasterizer func() (paint.Rasterizer, error)
	Subclasser    *winproc.Subclasser
	// Callback turns a Go func into a native entry point
	// (windows.NewCallback).
	Callback func(fn any) uintptr
	// Engine defaults to the built-in immediate-mode engine.
	Engine ui.Engine

	Log           *logq.Logger
	Metrics       *metrics.Metrics
	ErrorLogRate  rate.Limit
	ErrorLogBurst int
}

// OptionsFromConfig fills the configurable part of Options.
func OptionsFromConfig(cfg *config.Config, log *logq.Logger) Options {
	return Options{
		Target:         detour.Target{Module: cfg.Module, Symbol: cfg.Symbol},
		PixelsPerPoint: cfg.PixelsPerPoint,
		Log:            log,
		ErrorLogRate:   rate.Limit(cfg.ErrorLogRate),
		ErrorLogBurst:  cfg.ErrorLogBurst,
	}
}

// Overlay owns everything the hook needs. The render thread enters through
// Present, the window's message thread through WndProc; what they share is
// published once.
type Overlay struct {
	opts     Options
	log      *logq.Logger
	m        *metrics.Metrics
	router   *input.Router
	engine   ui.Engine
	shadow   *shadow.Context
	composer *compose.Composer

	wndProc      uintptr
	inputLimiter *rate.Limiter

	builder  once.Cell[func(*ui.Context)]
	binding  once.Cell[*detour.Binding]
	subclass once.Cell[*winproc.Subclass]

	installing atomic.Bool
	closed     atomic.Bool
}

// New wires an overlay. Nothing in the host changes until Install.
func New(opts Options) (*Overlay, error) {
	if opts.Detours == nil || opts.Driver == nil || opts.NewRasterizer == nil {
		return nil, errors.New("overlayhook: Detours, Driver and NewRasterizer are required")
	}
	if opts.Target.Module == "" || opts.Target.Symbol == "" {
		def := config.Default()
		opts.Target = detour.Target{Module: def.Module, Symbol: def.Symbol}
	}
	if opts.PixelsPerPoint <= 0 {
		opts.PixelsPerPoint = 1
	}
	if opts.ErrorLogRate == 0 && opts.ErrorLogBurst == 0 {
		opts.ErrorLogRate, opts.ErrorLogBurst = 1, 5
	}

	o := &Overlay{opts: opts, log: opts.Log, m: opts.Metrics, engine: opts.Engine}
	if o.log == nil {
		o.log = logq.Nop()
	}
	if o.m == nil {
		o.m = metrics.New()
	}
	if o.engine == nil {
		o.engine = ui.NewImmediate(ui.WithPixelsPerPoint(opts.PixelsPerPoint))
	}
	o.router = input.NewRouter()
	o.shadow = shadow.New(opts.Driver, opts.NewRasterizer)
	o.inputLimiter = rate.NewLimiter(opts.ErrorLogRate, opts.ErrorLogBurst)

	c, err := compose.New(compose.Config{
		Shadow:       o.shadow,
		Input:        o.router,
		Engine:       o.engine,
		Builder:      o.builder.Get,
		Original:     o.callOriginal,
		OnInit:       o.attach,
		Log:          o.log,
		Metrics:      o.m,
		ErrorLimiter: rate.NewLimiter(opts.ErrorLogRate, opts.ErrorLogBurst),
	})
	if err != nil {
		return nil, err
	}
	o.composer = c

	if opts.Subclasser != nil && opts.Callback != nil {
		o.wndProc = opts.Callback(o.WndProc)
	}
	return o, nil
}

// Metrics exposes the overlay's counters.
func (o *Overlay) Metrics() *metrics.Metrics { return o.m }

// RegisterUIBuilder sets the callback that builds the overlay each frame.
// The first registration wins; later ones fail with ErrBuilderRegistered.
func (o *Overlay) RegisterUIBuilder(build func(*ui.Context)) error {
	if build == nil {
		return errors.New("overlayhook: nil UI builder")
	}
	if !o.builder.Set(build) {
		return ErrBuilderRegistered
	}
	return nil
}

// Install resolves the target, prepares the detour, publishes it and only
// then enables it, so the first redirected call always finds a way back to
// the original. On failure the host keeps running unhooked, or hooked but
// not yet redirected. Only a failed resolution can be retried; any later
// failure makes further calls return ErrAlreadyInstalled.
func (o *Overlay) Install() error {
	if o.closed.Load() {
		return ErrClosed
	}
	if !o.installing.CompareAndSwap(false, true) {
		return ErrAlreadyInstalled
	}
	t := o.opts.Target
	addr, err := o.opts.Detours.Resolve(t.Module, t.Symbol)
	if err != nil {
		// nothing was touched yet, the module may simply not be loaded: allow another try
		o.installing.Store(false)
		return err
	}
	b, err := o.opts.Detours.Install(t, addr, o.Present)
	if err != nil {
		return err
	}
	o.binding.Set(b)
	if err := b.Enable(); err != nil {
		return err
	}
	o.log.Infof("hooked %s at %#x, replacement %#x, trampoline %#x", t, addr, b.ReplacementAddress(), b.Trampoline())
	return nil
}

// Present is the replacement for the hooked presentation function.
func (o *Overlay) Present(surface uintptr) (ret uintptr) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("panic in presentation hook: %v\n%s", r, debug.Stack())
		}
	}()
	return o.composer.OnFrame(surface)
}

func (o *Overlay) callOriginal(surface uintptr) uintptr {
	b, ok := o.binding.Get()
	if !ok {
		o.log.Errorf("frame on %#x arrived before the hook was published", surface)
		return 0
	}
	return b.CallThrough(surface)
}

// attach runs once, after the shadow context came up: resize messages now
// have somewhere to go and the window gets subclassed.
func (o *Overlay) attach(shadow.Surface) error {
	o.router.AttachSurface(o.shadow, o.shadow)
	if o.wndProc == 0 {
		return nil
	}
	window, err := o.shadow.Window()
	if err != nil {
		return err
	}
	sub, err := o.opts.Subclasser.Subclass(uintptr(window), o.wndProc)
	if err != nil {
		return err
	}
	o.subclass.Set(sub)
	o.log.Infof("subclassed window %#x, original procedure %#x", window, sub.Original())
	return nil
}

// WndProc is the subclassed window procedure. Every message goes to the
// input router first; input messages are then kept while the overlay wants
// keyboard or pointer input, everything else reaches the original
// procedure.
func (o *Overlay) WndProc(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	if o.route(msg, wparam, lparam) {
		o.m.Messages.WithLabelValues(metrics.RouteConsumed).Inc()
		return 1
	}
	o.m.Messages.WithLabelValues(metrics.RouteForwarded).Inc()
	sub, ok := o.subclass.Get()
	if !ok {
		return 0
	}
	return sub.CallOriginal(hwnd, msg, wparam, lparam)
}

// route feeds the router and reports whether the message is consumed.
// A panic here forwards the message.
func (o *Overlay) route(msg uint32, wparam, lparam uintptr) (consumed bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("panic in window procedure (msg 0x%04x): %v\n%s", msg, r, debug.Stack())
			consumed = false
		}
	}()
	if err := o.router.HandleMessage(msg, wparam, lparam); err != nil {
		o.m.InputErrors.Inc()
		if o.inputLimiter.Allow() {
			o.log.Warnf("window message 0x%04x: %v", msg, err)
		}
	}
	if o.closed.Load() || !input.IsInputMessage(msg) {
		return false
	}
	return o.engine.WantsKeyboardInput() || o.engine.WantsPointerInput()
}

// Close restores the window procedure, disables the hook and destroys the
// shadow context. Later frames and messages pass straight through.
func (o *Overlay) Close() error {
	if !o.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if sub, ok := o.subclass.Get(); ok {
		if err := sub.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	if b, ok := o.binding.Get(); ok {
		if err := b.Disable(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := o.shadow.Destroy(); err != nil && !errors.Is(err, shadow.ErrDestroyed) {
		errs = append(errs, err)
	}
	s := o.m.Snapshot()
	o.log.Infof("overlay closed on surface %#x (disabled %t): %d frames intercepted, %d called through, %d composed, %d failed %v; %d messages consumed, %d forwarded, %d input events never drawn",
		o.composer.Surface(), o.composer.Disabled(), s.Intercepted, s.CallThroughs, s.Composed, s.Failed, s.FailedBy, s.Consumed, s.Forwarded, o.router.Pending())
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close overlay: %w", err)
	}
	return nil
}
