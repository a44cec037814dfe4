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

// Package shadow owns the overlay's private graphics context. It shares the
// host's drawable surface but is only ever current inside a Guard, so the
// host's own context is back in place before control returns to it.
package shadow

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/input"
	"github.com/workturnedplay/overlayhook/internal/paint"
)

var (
	ErrContextCreation = errors.New("graphics context creation failed")
	ErrSurfaceQuery    = input.ErrSurfaceQuery
	ErrNotInitialized  = errors.New("shadow context not initialized")
	ErrDestroyed       = errors.New("shadow context destroyed")
)

// Surface is the host's drawable (an HDC on Windows).
type Surface uintptr

// Handle is a graphics context (an HGLRC on Windows).
type Handle uintptr

// Window owns a surface (an HWND on Windows).
type Window uintptr

// Driver is the platform's context API. All calls act on the calling
// thread's current context.
type Driver interface {
	CurrentContext() Handle
	CurrentSurface() Surface
	CreateContext(s Surface) (Handle, error)
	MakeCurrent(s Surface, h Handle) error
	DeleteContext(h Handle) error
	WindowFromSurface(s Surface) (Window, error)
	ClientSize(w Window) (geom.Size, error)
}

const (
	stateNew uint32 = iota
	stateReady
	stateDestroyed
)

// Context is the shadow context plus the rasterizer drawing through it.
//
// EnsureInitialized, Bind and Destroy serialize on an internal mutex that a
// Guard holds until released, so Destroy waits for an in-flight frame.
// Resize and Dimensions are lock-free and may be called from any thread.
type Context struct {
	drv           Driver
	newRasterizer func() (paint.Rasterizer, error)

	mu      sync.Mutex
	state   atomic.Uint32
	surface Surface
	window  Window
	handle  Handle
	raster  paint.Rasterizer

	dims atomic.Uint64
}

// New returns an uninitialized context. newRasterizer is called once, with
// the new context current.
func New(drv Driver, newRasterizer func() (paint.Rasterizer, error)) *Context {
	return &Context{drv: drv, newRasterizer: newRasterizer}
}

// EnsureInitialized creates the context for surface on first use and is a
// no-op afterwards. The previously current context is restored before it
// returns, on success and on failure.
func (c *Context) EnsureInitialized(surface Surface) (err error) {
	switch c.state.Load() {
	case stateReady:
		return nil
	case stateDestroyed:
		return ErrDestroyed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.Load() {
	case stateReady:
		return nil
	case stateDestroyed:
		return ErrDestroyed
	}

	window, err := c.drv.WindowFromSurface(surface)
	if err != nil {
		return fmt.Errorf("%w: window of surface %#x: %w", ErrSurfaceQuery, surface, err)
	}
	h, err := c.drv.CreateContext(surface)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContextCreation, err)
	}
	defer func() {
		if err != nil {
			if derr := c.drv.DeleteContext(h); derr != nil {
				err = errors.Join(err, fmt.Errorf("delete half-initialized context: %w", derr))
			}
		}
	}()

	g, err := c.makeCurrent(surface, h)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := g.restore(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	r, err := c.newRasterizer()
	if err != nil {
		return fmt.Errorf("%w: rasterizer setup: %w", ErrContextCreation, err)
	}
	size, err := c.drv.ClientSize(window)
	if err != nil {
		r.Destroy()
		return fmt.Errorf("%w: client size: %w", ErrSurfaceQuery, err)
	}

	c.surface, c.window, c.handle, c.raster = surface, window, h, r
	c.dims.Store(size.Pack())
	c.state.Store(stateReady)
	return nil
}

// Guard keeps the shadow context current until Release.
type Guard struct {
	c           *Context
	drv         Driver
	prevSurface Surface
	prevContext Handle
	released    bool
}

// makeCurrent saves whatever is current and makes h current on s.
func (c *Context) makeCurrent(s Surface, h Handle) (*Guard, error) {
	g := &Guard{drv: c.drv, prevSurface: c.drv.CurrentSurface(), prevContext: c.drv.CurrentContext()}
	if err := c.drv.MakeCurrent(s, h); err != nil {
		err = fmt.Errorf("%w: make current: %w", ErrContextCreation, err)
		if rerr := g.restore(); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return nil, err
	}
	return g, nil
}

func (g *Guard) restore() error {
	if g.released {
		return nil
	}
	g.released = true
	if err := g.drv.MakeCurrent(g.prevSurface, g.prevContext); err != nil {
		return fmt.Errorf("%w: restore previous context: %w", ErrContextCreation, err)
	}
	return nil
}

// Release restores the context that was current before Bind. Calling it
// more than once is a no-op.
func (g *Guard) Release() error {
	if g == nil || g.released {
		return nil
	}
	err := g.restore()
	if g.c != nil {
		g.c.mu.Unlock()
	}
	return err
}

// Bind makes the shadow context current on the calling thread. The caller
// must Release the guard on every path.
func (c *Context) Bind() (*Guard, error) {
	c.mu.Lock()
	switch c.state.Load() {
	case stateNew:
		c.mu.Unlock()
		return nil, ErrNotInitialized
	case stateDestroyed:
		c.mu.Unlock()
		return nil, ErrDestroyed
	}
	g, err := c.makeCurrent(c.surface, c.handle)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	g.c = c
	return g, nil
}

// Resize records new surface dimensions. It never touches the graphics
// context.
func (c *Context) Resize(size geom.Size) error {
	if c.state.Load() == stateDestroyed {
		return ErrDestroyed
	}
	c.dims.Store(size.Pack())
	return nil
}

// Dimensions returns the last stored surface size.
func (c *Context) Dimensions() (geom.Size, error) {
	if c.state.Load() == stateDestroyed {
		return geom.Size{}, ErrDestroyed
	}
	return geom.UnpackSize(c.dims.Load()), nil
}

// ClientSize asks the platform for the current client area of the window
// owning the surface.
func (c *Context) ClientSize() (geom.Size, error) {
	switch c.state.Load() {
	case stateNew:
		return geom.Size{}, ErrNotInitialized
	case stateDestroyed:
		return geom.Size{}, ErrDestroyed
	}
	size, err := c.drv.ClientSize(c.window)
	if err != nil {
		return geom.Size{}, fmt.Errorf("%w: %w", ErrSurfaceQuery, err)
	}
	return size, nil
}

func (c *Context) ready() error {
	switch c.state.Load() {
	case stateNew:
		return ErrNotInitialized
	case stateDestroyed:
		return ErrDestroyed
	}
	return nil
}

// Surface is the surface the context was created for.
func (c *Context) Surface() (Surface, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	return c.surface, nil
}

// Window is the window owning Surface.
func (c *Context) Window() (Window, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	return c.window, nil
}

// Rasterizer is only valid while a Guard from Bind is held.
func (c *Context) Rasterizer() (paint.Rasterizer, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.raster, nil
}

// Destroy releases the rasterizer and the graphics context. It succeeds
// once; later calls, and every other method afterwards, return ErrDestroyed.
func (c *Context) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.Swap(stateDestroyed) {
	case stateDestroyed:
		return ErrDestroyed
	case stateNew:
		return nil
	}
	c.raster.Destroy()
	c.raster = nil
	if err := c.drv.DeleteContext(c.handle); err != nil {
		return fmt.Errorf("delete context: %w", err)
	}
	return nil
}
