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

// Package compose draws one overlay frame inside an intercepted
// presentation call and always hands the call on to the original.
package compose

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/input"
	"github.com/workturnedplay/overlayhook/internal/logq"
	"github.com/workturnedplay/overlayhook/internal/metrics"
	"github.com/workturnedplay/overlayhook/internal/once"
	"github.com/workturnedplay/overlayhook/internal/paint"
	"github.com/workturnedplay/overlayhook/internal/shadow"
	"github.com/workturnedplay/overlayhook/internal/ui"
)

var (
	ErrUICallbackMissing = errors.New("no UI builder registered")
	ErrDisabled          = errors.New("overlay disabled after failed initialization")
)

// InputSource hands over the input gathered since the last frame.
type InputSource interface {
	Collect() input.Snapshot
}

// Config wires a Composer. Shadow, Input, Engine, Builder and Original are
// required.
type Config struct {
	Shadow *shadow.Context
	Input  InputSource
	Engine ui.Engine
	// Builder returns the registered UI build callback, if any.
	Builder func() (func(*ui.Context), bool)
	// Original calls the hooked function's original implementation.
	Original func(surface uintptr) uintptr
	// OnInit runs once, right after the shadow context came up for the
	// first surface. An error is logged; composing goes on.
	OnInit func(surface shadow.Surface) error

	Log          *logq.Logger
	Metrics      *metrics.Metrics
	ErrorLimiter *rate.Limiter
}

// Composer is the body of the replacement presentation function.
type Composer struct {
	cfg Config
	log *logq.Logger
	m   *metrics.Metrics
	lim *rate.Limiter

	// surface is the first surface seen; a failed initialization is
	// sticky and disables composing.
	surface      once.Cell[shadow.Surface]
	otherSurface atomic.Bool

	// busy serializes frames; a frame arriving while another composes is
	// passed straight through.
	busy    sync.Mutex
	pending ui.TexturesDelta
}

func New(cfg Config) (*Composer, error) {
	if cfg.Shadow == nil || cfg.Input == nil || cfg.Engine == nil || cfg.Builder == nil || cfg.Original == nil {
		return nil, errors.New("compose: shadow, input, engine, builder and original are required")
	}
	c := &Composer{cfg: cfg, log: cfg.Log, m: cfg.Metrics, lim: cfg.ErrorLimiter}
	if c.log == nil {
		c.log = logq.Nop()
	}
	if c.m == nil {
		c.m = metrics.New()
	}
	if c.lim == nil {
		c.lim = rate.NewLimiter(1, 5)
	}
	return c, nil
}

// Disabled reports whether first-frame initialization failed.
func (c *Composer) Disabled() bool { return c.surface.Err() != nil }

// Surface is the first surface seen, 0 before the first frame.
func (c *Composer) Surface() shadow.Surface {
	s, _ := c.surface.Get()
	return s
}

// OnFrame composes the overlay into the frame of surface, then calls the
// original presentation function and returns its result unchanged. Nothing
// that goes wrong while composing stops the call-through.
func (c *Composer) OnFrame(surface uintptr) uintptr {
	c.m.Intercepted.Inc()
	c.compose(surface)
	ret := c.cfg.Original(surface)
	c.m.CallThroughs.Inc()
	return ret
}

func (c *Composer) compose(surface uintptr) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(metrics.StagePanic, fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
		}
	}()
	if c.Disabled() {
		return
	}
	if !c.busy.TryLock() {
		c.log.Debugf("frame on surface %#x overlaps a frame in progress, not composing", surface)
		return
	}
	defer c.busy.Unlock()

	if stage, err := c.frame(shadow.Surface(surface)); err != nil {
		c.fail(stage, err)
		return
	}
}

func (c *Composer) fail(stage string, err error) {
	c.m.Failed.WithLabelValues(stage).Inc()
	if c.lim.Allow() {
		c.log.Errorf("overlay frame skipped at %s: %v", stage, err)
	}
}

// frame runs one composition. The returned stage names where it failed.
func (c *Composer) frame(surface shadow.Surface) (stage string, err error) {
	if stage, err := c.ensureSurface(surface); err != nil || stage == "" {
		return stage, err
	}

	g, err := c.cfg.Shadow.Bind()
	if err != nil {
		return metrics.StageBind, err
	}
	defer func() {
		if rerr := g.Release(); rerr != nil {
			if err == nil {
				stage = metrics.StageRestore
			}
			err = errors.Join(err, rerr)
		}
	}()

	in := c.cfg.Input.Collect()

	build, ok := c.cfg.Builder()
	if !ok {
		return metrics.StageBuild, ErrUICallbackMissing
	}
	out := c.cfg.Engine.Run(in, build)

	if !out.Textures.IsEmpty() {
		c.log.Debugf("frame textures: %d set, %d freed", len(out.Textures.Set), len(out.Textures.Free))
		c.pending.Append(out.Textures)
	}
	raster, err := c.cfg.Shadow.Rasterizer()
	if err != nil {
		return metrics.StagePaint, err
	}
	if err := c.applySets(raster); err != nil {
		return metrics.StageTexture, err
	}

	size, err := c.cfg.Shadow.Dimensions()
	if err != nil {
		return metrics.StagePaint, err
	}
	prims := clipToSurface(c.cfg.Engine.Tessellate(out.Shapes, out.PixelsPerPoint), size)
	if err := raster.Paint(size, out.PixelsPerPoint, prims); err != nil {
		return metrics.StagePaint, err
	}

	for _, id := range c.pending.Free {
		raster.FreeTexture(id)
	}
	c.pending.Free = c.pending.Free[:0]
	c.m.Composed.Inc()
	return "", nil
}

// ensureSurface initializes the shadow context on the very first frame and
// filters out frames for any other surface (stage "" with no error).
func (c *Composer) ensureSurface(surface shadow.Surface) (string, error) {
	first, err := c.surface.GetOrInit(func() (shadow.Surface, error) {
		if err := c.cfg.Shadow.EnsureInitialized(surface); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrDisabled, err)
		}
		c.log.Infof("overlay initialized on surface %#x", surface)
		if c.cfg.OnInit != nil {
			if err := c.cfg.OnInit(surface); err != nil {
				c.log.Errorf("overlay input setup failed, drawing only: %v", err)
			}
		}
		return surface, nil
	})
	if err != nil {
		return metrics.StageInit, err
	}
	if first != surface {
		c.m.Failed.WithLabelValues(metrics.StageSurface).Inc()
		if c.otherSurface.CompareAndSwap(false, true) {
			c.log.Warnf("frame presented on surface %#x, overlay only draws on %#x; passing it through", surface, first)
		}
		return "", nil
	}
	return metrics.StageInit, nil
}

// applySets uploads pending texture sets in order. A set the rasterizer
// rejects is dropped and handed back to the engine to emit again; the ones
// after it stay pending for the next frame.
func (c *Composer) applySets(raster paint.Rasterizer) error {
	for i, s := range c.pending.Set {
		if err := raster.SetTexture(s.ID, s.Delta); err != nil {
			c.pending.Set = append(c.pending.Set[:0], c.pending.Set[i+1:]...)
			c.cfg.Engine.ForgetTexture(s.ID)
			return fmt.Errorf("texture %d: %w", s.ID, err)
		}
	}
	c.pending.Set = c.pending.Set[:0]
	return nil
}

// clipToSurface narrows every clip rect to the surface and drops
// primitives that end up outside it.
func clipToSurface(prims []ui.ClippedPrimitive, size geom.Size) []ui.ClippedPrimitive {
	bounds := geom.Rect{Max: geom.Pt(float32(size.Width), float32(size.Height))}
	out := prims[:0]
	for _, p := range prims {
		p.Clip = p.Clip.Intersect(bounds)
		if p.Clip.Empty() {
			continue
		}
		out = append(out, p)
	}
	return out
}
