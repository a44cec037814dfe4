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

package overlayhook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/workturnedplay/overlayhook/internal/detour"
	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/input"
	"github.com/workturnedplay/overlayhook/internal/logq"
	"github.com/workturnedplay/overlayhook/internal/paint"
	"github.com/workturnedplay/overlayhook/internal/shadow"
	"github.com/workturnedplay/overlayhook/internal/ui"
	"github.com/workturnedplay/overlayhook/internal/winproc"
)

const (
	swapAddr   uintptr = 0x7FF0_1000
	hdc        uintptr = 0xDC
	hwnd       uintptr = 0x1234
	hostProc   uintptr = 0x9000
	wndProcPtr uintptr = 0xAAAA
)

type fakeResolver struct{ err error }

func (r fakeResolver) Resolve(module, symbol string) (uintptr, error) {
	if r.err != nil {
		return 0, r.err
	}
	return swapAddr, nil
}

type fakePatch struct {
	replacement func(uintptr) uintptr
	enabled     bool
	enableErr   error
	originals   []uintptr
}

func (p *fakePatch) Replacement() uintptr { return 0xCAFE }
func (p *fakePatch) Trampoline() uintptr { return 0xBEEF }
func (p *fakePatch) Enable() error {
	if p.enableErr != nil {
		return p.enableErr
	}
	p.enabled = true
	return nil
}
func (p *fakePatch) Disable() error {
	p.enabled = false
	return nil
}
func (p *fakePatch) CallOriginal(args ...uintptr) uintptr {
	p.originals = append(p.originals, args[0])
	return 1
}

// hostCall is what the host's call to the hooked function turns into.
func (p *fakePatch) hostCall(surface uintptr) uintptr {
	if p.enabled {
		return p.replacement(surface)
	}
	return p.CallOriginal(surface)
}

type fakePatcher struct {
	patch      *fakePatch
	prepareErr error
}

func (f *fakePatcher) Prepare(_ detour.Target, _ uintptr, replacement any) (detour.Patch, error) {
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	f.patch.replacement = replacement.(func(uintptr) uintptr)
	return f.patch, nil
}

type fakeDriver struct {
	current shadow.Handle
	size    geom.Size
}

func (d *fakeDriver) CurrentContext() shadow.Handle { return d.current }
func (d *fakeDriver) CurrentSurface() shadow.Surface { return 0 }
func (d *fakeDriver) CreateContext(shadow.Surface) (shadow.Handle, error) {
	return 0x66, nil
}
func (d *fakeDriver) MakeCurrent(_ shadow.Surface, h shadow.Handle) error {
	d.current = h
	return nil
}
func (d *fakeDriver) DeleteContext(shadow.Handle) error { return nil }
func (d *fakeDriver) WindowFromSurface(shadow.Surface) (shadow.Window, error) {
	return shadow.Window(hwnd), nil
}
func (d *fakeDriver) ClientSize(shadow.Window) (geom.Size, error) { return d.size, nil }

type nullRasterizer struct {
	paints    int
	destroyed bool
}

func (r *nullRasterizer) SetTexture(ui.TextureID, ui.ImageDelta) error { return nil }
func (r *nullRasterizer) FreeTexture(ui.TextureID) {}
func (r *nullRasterizer) Paint(geom.Size, float32, []ui.ClippedPrimitive) error {
	r.paints++
	return nil
}
func (r *nullRasterizer) Destroy() { r.destroyed = true }

type fakeInstaller struct {
	procs     map[uintptr]uintptr
	forwarded []uint32
}

func (f *fakeInstaller) Swap(window, proc uintptr) (uintptr, error) {
	prev := f.procs[window]
	f.procs[window] = proc
	return prev, nil
}

func (f *fakeInstaller) Current(window uintptr) (uintptr, error) { return f.procs[window], nil }

func (f *fakeInstaller) Call(prev, _ uintptr, msg uint32, _, _ uintptr) uintptr {
	f.forwarded = append(f.forwarded, msg)
	return 0
}

type fixture struct {
	o       *Overlay
	patch   *fakePatch
	patcher *fakePatcher
	drv     *fakeDriver
	raster  *nullRasterizer
	inst    *fakeInstaller
	res     *fakeResolver
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		patch:  &fakePatch{},
		drv:    &fakeDriver{size: geom.Size{Width: 800, Height: 600}},
		raster: &nullRasterizer{},
		inst:   &fakeInstaller{procs: map[uintptr]uintptr{hwnd: hostProc}},
		res:    &fakeResolver{},
	}
	f.patcher = &fakePatcher{patch: f.patch}
	o := Options{
		Detours:       detour.NewManager(f.res, f.patcher),
		Driver:        f.drv,
		NewRasterizer: func() (paint.Rasterizer, error) { return f.raster, nil },
		Subclasser:    winproc.New(f.inst),
		Callback:      func(any) uintptr { return wndProcPtr },
	}
	for _, opt := range opts {
		opt(&o)
	}
	ov, err := New(o)
	require.NoError(t, err)
	f.o = ov
	return f
}

func TestInstallEnablesAndCallsThrough(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.o.Install())
	assert.True(t, f.patch.enabled)

	assert.Equal(t, uintptr(1), f.patch.hostCall(hdc))
	assert.Equal(t, []uintptr{hdc}, f.patch.originals)

	assert.ErrorIs(t, f.o.Install(), ErrAlreadyInstalled)
}

func TestInstallFailuresLeaveHostWorking(t *testing.T) {
	t.Run("resolve", func(t *testing.T) {
		f := newFixture(t)
		f.res.err = errors.New("module not loaded")
		assert.ErrorIs(t, f.o.Install(), ErrSymbolResolution)
		assert.Equal(t, uintptr(1), f.patch.hostCall(hdc))

		// the module shows up later
		f.res.err = nil
		require.NoError(t, f.o.Install())
		assert.True(t, f.patch.enabled)
		assert.ErrorIs(t, f.o.Install(), ErrAlreadyInstalled)
	})
	t.Run("install", func(t *testing.T) {
		f := newFixture(t)
		f.patcher.prepareErr = errors.New("prologue too short")
		assert.ErrorIs(t, f.o.Install(), ErrHookInstall)
		assert.ErrorIs(t, f.o.Install(), ErrAlreadyInstalled)
	})
	t.Run("enable", func(t *testing.T) {
		f := newFixture(t)
		f.patch.enableErr = errors.New("VirtualProtect denied")
		assert.ErrorIs(t, f.o.Install(), ErrHookEnable)
		assert.False(t, f.patch.enabled)
		assert.Equal(t, uintptr(1), f.patch.hostCall(hdc))
		assert.Zero(t, f.o.Metrics().Snapshot().Intercepted)
	})
}

func TestRegisterUIBuilderFirstWins(t *testing.T) {
	f := newFixture(t)
	var first, second int
	require.NoError(t, f.o.RegisterUIBuilder(func(*ui.Context) { first++ }))
	assert.ErrorIs(t, f.o.RegisterUIBuilder(func(*ui.Context) { second++ }), ErrBuilderRegistered)
	assert.Error(t, f.o.RegisterUIBuilder(nil))

	require.NoError(t, f.o.Install())
	f.patch.hostCall(hdc)
	assert.Equal(t, 1, first)
	assert.Zero(t, second)
}

func TestFirstFrameSubclassesWindow(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.o.Install())
	f.patch.hostCall(hdc)
	assert.Equal(t, wndProcPtr, f.inst.procs[hwnd])

	f.o.WndProc(hwnd, input.WM_SIZE, 0, 0)
	assert.Equal(t, []uint32{input.WM_SIZE}, f.inst.forwarded)
}

func TestFocusArbitration(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.o.RegisterUIBuilder(func(c *ui.Context) {
		c.Panel("stats", geom.XYWH(200, 200, 100, 100), func() { c.Label("fps") })
	}))
	require.NoError(t, f.o.Install())
	f.patch.hostCall(hdc)
	o := f.o

	// the move into the panel is still forwarded: the UI only learns
	// about it on the next frame
	assert.Zero(t, o.WndProc(hwnd, input.WM_MOUSEMOVE, 0, 0x00FA00FA))
	assert.Equal(t, []uint32{input.WM_MOUSEMOVE}, f.inst.forwarded)

	f.patch.hostCall(hdc)
	assert.Equal(t, uintptr(1), o.WndProc(hwnd, input.WM_LBUTTONDOWN, 0, 0x00FA00FA))
	assert.Len(t, f.inst.forwarded, 1)

	// non-input messages always reach the host
	o.WndProc(hwnd, input.WM_SIZE, 0, 0)
	assert.Equal(t, []uint32{input.WM_MOUSEMOVE, input.WM_SIZE}, f.inst.forwarded)

	// leaving the panel: consumed until the next frame releases focus
	assert.Equal(t, uintptr(1), o.WndProc(hwnd, input.WM_LBUTTONUP, 0, 0x01F401F4))
	assert.Equal(t, uintptr(1), o.WndProc(hwnd, input.WM_MOUSEMOVE, 0, 0x01F401F4))
	f.patch.hostCall(hdc)
	o.WndProc(hwnd, input.WM_MOUSEMOVE, 0, 0x01F401F4)
	assert.Equal(t, []uint32{input.WM_MOUSEMOVE, input.WM_SIZE, input.WM_MOUSEMOVE}, f.inst.forwarded)

	s := o.Metrics().Snapshot()
	assert.Equal(t, uint64(3), s.Consumed)
	assert.Equal(t, uint64(3), s.Forwarded)
}

func TestResizeMessageReachesNextFrame(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.o.Install())
	f.patch.hostCall(hdc)

	f.drv.size = geom.Size{Width: 1280, Height: 720}
	f.o.WndProc(hwnd, input.WM_SIZE, 0, 720<<16|1280)
	size, err := f.o.shadow.Dimensions()
	require.NoError(t, err)
	assert.Equal(t, geom.Size{Width: 1280, Height: 720}, size)
}

func TestCloseRestoresEverything(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.o.Install())
	f.patch.hostCall(hdc)

	require.NoError(t, f.o.Close())
	assert.Equal(t, hostProc, f.inst.procs[hwnd])
	assert.False(t, f.patch.enabled)
	assert.True(t, f.raster.destroyed)
	require.NoError(t, f.o.Close())
	assert.ErrorIs(t, f.o.Install(), ErrClosed)

	// a message already on its way still reaches the host
	f.o.WndProc(hwnd, input.WM_KEYDOWN, 0x41, 0)
	assert.Equal(t, []uint32{input.WM_KEYDOWN}, f.inst.forwarded)
}

func TestInstallAndCloseAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := logq.New(zap.New(core), 64)
	f := newFixture(t, func(o *Options) { o.Log = log })
	require.NoError(t, f.o.RegisterUIBuilder(func(*ui.Context) {}))
	require.NoError(t, f.o.Install())
	f.patch.hostCall(hdc)
	require.NoError(t, f.o.Close())
	require.NoError(t, log.Close())

	hooked := logs.FilterMessageSnippet("hooked").All()
	require.Len(t, hooked, 1)
	assert.Contains(t, hooked[0].Message, "replacement 0xcafe, trampoline 0xbeef")

	closed := logs.FilterMessageSnippet("overlay closed").All()
	require.Len(t, closed, 1)
	assert.Contains(t, closed[0].Message, "surface 0xdc (disabled false)")
	assert.Contains(t, closed[0].Message, "1 composed, 0 failed")
}

func TestCallThroughCountMatches(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.o.Install())
	for i := 0; i < 10; i++ {
		if i == 4 {
			require.NoError(t, f.o.RegisterUIBuilder(func(*ui.Context) {}))
		}
		f.o.WndProc(hwnd, input.WM_MOUSEMOVE, 0, uintptr(i))
		f.patch.hostCall(hdc)
	}
	s := f.o.Metrics().Snapshot()
	assert.Equal(t, uint64(10), s.Intercepted)
	assert.Equal(t, s.Intercepted, s.CallThroughs)
	assert.Len(t, f.patch.originals, 10)
	assert.Equal(t, uint64(4), s.Failed)
	assert.Equal(t, 6, f.raster.paints)
}
