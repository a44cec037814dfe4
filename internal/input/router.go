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

package input

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf16"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/vkey"
)

// Window messages, see WinUser.h.
const (
	WM_SIZE          = 0x0005
	WM_KEYDOWN       = 0x0100
	WM_KEYUP         = 0x0101
	WM_CHAR          = 0x0102
	WM_SYSKEYDOWN    = 0x0104
	WM_SYSKEYUP      = 0x0105
	WM_MOUSEMOVE     = 0x0200
	WM_LBUTTONDOWN   = 0x0201
	WM_LBUTTONUP     = 0x0202
	WM_LBUTTONDBLCLK = 0x0203
	WM_RBUTTONDOWN   = 0x0204
	WM_RBUTTONUP     = 0x0205
	WM_RBUTTONDBLCLK = 0x0206
	WM_MBUTTONDOWN   = 0x0207
	WM_MBUTTONUP     = 0x0208
	WM_MBUTTONDBLCLK = 0x0209
	WM_MOUSEWHEEL    = 0x020A
	WM_MOUSEHWHEEL   = 0x020E

	WM_KEYFIRST   = 0x0100
	WM_KEYLAST    = 0x0109
	WM_MOUSEFIRST = 0x0200
	WM_MOUSELAST  = 0x020E

	WHEEL_DELTA = 120
	KF_REPEAT   = 0x4000
)

// scrollPointsPerNotch is how far one WHEEL_DELTA scrolls, in points.
const scrollPointsPerNotch = 10

// ErrSurfaceQuery is returned when the client area of the target window
// cannot be read.
var ErrSurfaceQuery = errors.New("surface query failed")

// SurfaceSizer reports the current client size of the target window.
type SurfaceSizer interface {
	ClientSize() (geom.Size, error)
}

// Resizer stores new surface dimensions.
type Resizer interface {
	Resize(geom.Size) error
}

type surface struct {
	sizer   SurfaceSizer
	resizer Resizer
}

// Router accumulates events from the message-pump thread and drains them on
// the render thread.
//
// HandleMessage must only be called from one thread at a time (the thread
// owning the window procedure); Collect may run concurrently with it.
type Router struct {
	queue   Queue
	surface atomic.Pointer[surface]
	clock   func() time.Duration

	// pending high surrogate of a WM_CHAR pair, message thread only
	highSurrogate rune
}

// Option configures a Router.
type Option func(*Router)

// WithClock replaces the monotonic time source stamped onto snapshots.
func WithClock(clock func() time.Duration) Option {
	return func(r *Router) { r.clock = clock }
}

// NewRouter returns an empty router.
func NewRouter(opts ...Option) *Router {
	start := time.Now()
	r := &Router{clock: func() time.Duration { return time.Since(start) }}
	for _, o := range opts {
		o(r)
	}
	return r
}

// AttachSurface publishes where WM_SIZE should read and store dimensions.
// Until it is called, resize messages are ignored.
func (r *Router) AttachSurface(sizer SurfaceSizer, resizer Resizer) {
	r.surface.Store(&surface{sizer: sizer, resizer: resizer})
}

func loword(v uintptr) int16 { return int16(uint16(v & 0xFFFF)) }
func hiword(v uintptr) int16 { return int16(uint16((v >> 16) & 0xFFFF)) }

// PointerPos decodes the client coordinates packed into a mouse message
// lparam (GET_X_LPARAM / GET_Y_LPARAM).
func PointerPos(lparam uintptr) geom.Vec2 {
	return geom.Vec2{X: float32(loword(lparam)), Y: float32(hiword(lparam))}
}

// WheelDelta converts the wparam of a wheel message into points.
func WheelDelta(wparam uintptr) float32 {
	return float32(hiword(wparam)) * scrollPointsPerNotch / WHEEL_DELTA
}

// HandleMessage maps one window message onto at most one queued event.
// Unknown messages are ignored. The only error is ErrSurfaceQuery from a
// WM_SIZE whose client rectangle could not be read.
func (r *Router) HandleMessage(msg uint32, wparam, lparam uintptr) error {
	switch msg {
	case WM_MOUSEMOVE:
		r.queue.Push(Event{Kind: PointerMoved, Pos: PointerPos(lparam)})
	case WM_LBUTTONDOWN, WM_LBUTTONDBLCLK:
		r.button(Primary, true, lparam)
	case WM_LBUTTONUP:
		r.button(Primary, false, lparam)
	case WM_RBUTTONDOWN, WM_RBUTTONDBLCLK:
		r.button(Secondary, true, lparam)
	case WM_RBUTTONUP:
		r.button(Secondary, false, lparam)
	case WM_MBUTTONDOWN, WM_MBUTTONDBLCLK:
		r.button(Middle, true, lparam)
	case WM_MBUTTONUP:
		r.button(Middle, false, lparam)
	case WM_CHAR:
		r.char(uint16(wparam))
	case WM_MOUSEWHEEL:
		r.queue.Push(Event{Kind: Scroll, Delta: geom.Vec2{Y: WheelDelta(wparam)}})
	case WM_MOUSEHWHEEL:
		r.queue.Push(Event{Kind: Scroll, Delta: geom.Vec2{X: WheelDelta(wparam)}})
	case WM_KEYDOWN, WM_SYSKEYDOWN:
		r.key(true, wparam, lparam)
	case WM_KEYUP, WM_SYSKEYUP:
		r.key(false, wparam, lparam)
	case WM_SIZE:
		return r.resize()
	}
	return nil
}

func (r *Router) button(b Button, pressed bool, lparam uintptr) {
	r.queue.Push(Event{Kind: PointerButton, Pos: PointerPos(lparam), Button: b, Pressed: pressed})
}

func (r *Router) char(unit uint16) {
	c := rune(unit)
	switch {
	case utf16.IsSurrogate(c) && c < 0xDC00:
		r.highSurrogate = c
		return
	case utf16.IsSurrogate(c):
		high := r.highSurrogate
		r.highSurrogate = 0
		if high == 0 {
			return
		}
		c = utf16.DecodeRune(high, c)
		if c == unicode.ReplacementChar {
			return
		}
	default:
		r.highSurrogate = 0
	}
	if unicode.IsControl(c) {
		return
	}
	r.queue.Push(Event{Kind: Text, Text: string(c)})
}

func (r *Router) key(pressed bool, wparam, lparam uintptr) {
	k, ok := vkey.Translate(uint32(wparam))
	if !ok {
		return
	}
	// KF_REPEAT lives in the high word of the key-message flags.
	repeat := (lparam>>16)&KF_REPEAT != 0
	r.queue.Push(Event{Kind: Key, Key: k, Pressed: pressed, Repeat: repeat})
}

func (r *Router) resize() error {
	s := r.surface.Load()
	if s == nil {
		return nil
	}
	size, err := s.sizer.ClientSize()
	if err != nil {
		if errors.Is(err, ErrSurfaceQuery) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSurfaceQuery, err)
	}
	return s.resizer.Resize(size)
}

// IsInputMessage reports whether msg is a keyboard or mouse message, the
// only kind the overlay may keep from the host window.
func IsInputMessage(msg uint32) bool {
	return (msg >= WM_KEYFIRST && msg <= WM_KEYLAST) || (msg >= WM_MOUSEFIRST && msg <= WM_MOUSELAST)
}

// Pending reports how many events are waiting for the next Collect.
func (r *Router) Pending() int { return r.queue.Len() }

// Collect drains every pending event into a snapshot for one frame.
func (r *Router) Collect() Snapshot {
	return Snapshot{
		Events:      r.queue.Drain(),
		Time:        r.clock(),
		PredictedDT: PredictedFrameDuration,
		Focused:     true,
	}
}
