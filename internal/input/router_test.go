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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/vkey"
)

type fakeSurface struct {
	size   geom.Size
	err    error
	stored []geom.Size
}

func (f *fakeSurface) ClientSize() (geom.Size, error) { return f.size, f.err }
func (f *fakeSurface) Resize(s geom.Size) error {
	f.stored = append(f.stored, s)
	return nil
}

func single(t *testing.T, r *Router) Event {
	t.Helper()
	snap := r.Collect()
	require.Len(t, snap.Events, 1)
	return snap.Events[0]
}

func TestPointerPosDecoding(t *testing.T) {
	assert.Equal(t, geom.Pt(50, 100), PointerPos(0x00640032))

	neg := PointerPos(0x0000FFFB)
	assert.Equal(t, float32(-5), neg.X)
	assert.Equal(t, float32(0), neg.Y)

	both := PointerPos(0xFFFEFFFB)
	assert.Equal(t, geom.Pt(-5, -2), both)
}

func TestPointerMessages(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.HandleMessage(WM_MOUSEMOVE, 0, 0x00640032))
	ev := single(t, r)
	assert.Equal(t, PointerMoved, ev.Kind)
	assert.Equal(t, geom.Pt(50, 100), ev.Pos)

	cases := []struct {
		msg     uint32
		button  Button
		pressed bool
	}{
		{WM_LBUTTONDOWN, Primary, true},
		{WM_LBUTTONDBLCLK, Primary, true},
		{WM_LBUTTONUP, Primary, false},
		{WM_RBUTTONDOWN, Secondary, true},
		{WM_RBUTTONDBLCLK, Secondary, true},
		{WM_RBUTTONUP, Secondary, false},
		{WM_MBUTTONDOWN, Middle, true},
		{WM_MBUTTONDBLCLK, Middle, true},
		{WM_MBUTTONUP, Middle, false},
	}
	for _, tc := range cases {
		require.NoError(t, r.HandleMessage(tc.msg, 0, 0x000A0014))
		ev := single(t, r)
		assert.Equal(t, PointerButton, ev.Kind)
		assert.Equal(t, tc.button, ev.Button, "msg %#x", tc.msg)
		assert.Equal(t, tc.pressed, ev.Pressed, "msg %#x", tc.msg)
		assert.Equal(t, geom.Pt(20, 10), ev.Pos)
	}
}

func TestScrollDelta(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.HandleMessage(WM_MOUSEWHEEL, 120<<16, 0))
	ev := single(t, r)
	assert.Equal(t, Scroll, ev.Kind)
	assert.Equal(t, geom.Vec2{X: 0, Y: 10}, ev.Delta)

	require.NoError(t, r.HandleMessage(WM_MOUSEHWHEEL, 120<<16, 0))
	ev = single(t, r)
	assert.Equal(t, geom.Vec2{X: 10, Y: 0}, ev.Delta)

	// -120 as a signed high word scrolls the other way
	require.NoError(t, r.HandleMessage(WM_MOUSEWHEEL, uintptr(0xFF88)<<16, 0))
	ev = single(t, r)
	assert.Equal(t, float32(-10), ev.Delta.Y)
}

func TestCharMessages(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.HandleMessage(WM_CHAR, 'a', 0))
	ev := single(t, r)
	assert.Equal(t, Text, ev.Kind)
	assert.Equal(t, "a", ev.Text)

	for _, ctl := range []uintptr{0x08, 0x0D, 0x1B, 0x7F} {
		require.NoError(t, r.HandleMessage(WM_CHAR, ctl, 0))
	}
	assert.Equal(t, 0, r.Pending())

	require.NoError(t, r.HandleMessage(WM_CHAR, 0xE9, 0))
	assert.Equal(t, "é", single(t, r).Text)
}

func TestCharSurrogatePair(t *testing.T) {
	r := NewRouter()
	// U+1F600 as UTF-16
	require.NoError(t, r.HandleMessage(WM_CHAR, 0xD83D, 0))
	assert.Equal(t, 0, r.Pending())
	require.NoError(t, r.HandleMessage(WM_CHAR, 0xDE00, 0))
	assert.Equal(t, "\U0001F600", single(t, r).Text)

	// a lone low surrogate is dropped
	require.NoError(t, r.HandleMessage(WM_CHAR, 0xDE00, 0))
	assert.Equal(t, 0, r.Pending())
}

func TestKeyMessages(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.HandleMessage(WM_KEYDOWN, '7', 0))
	ev := single(t, r)
	assert.Equal(t, Key, ev.Kind)
	assert.Equal(t, vkey.Num7, ev.Key)
	assert.True(t, ev.Pressed)
	assert.False(t, ev.Repeat)

	require.NoError(t, r.HandleMessage(WM_SYSKEYDOWN, 'Q', uintptr(KF_REPEAT)<<16|1))
	ev = single(t, r)
	assert.Equal(t, vkey.Q, ev.Key)
	assert.True(t, ev.Repeat)

	require.NoError(t, r.HandleMessage(WM_KEYUP, 0x74, 0)) // VK_F5
	ev = single(t, r)
	assert.Equal(t, vkey.F5, ev.Key)
	assert.False(t, ev.Pressed)

	require.NoError(t, r.HandleMessage(WM_SYSKEYUP, vkey.VK_ESCAPE, 0))
	assert.Equal(t, vkey.Escape, single(t, r).Key)
}

func TestUnmappedKeyIsDropped(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.HandleMessage(WM_MOUSEMOVE, 0, 0))
	before := r.Pending()
	require.NoError(t, r.HandleMessage(WM_KEYDOWN, 0x5B, 0)) // VK_LWIN
	require.NoError(t, r.HandleMessage(WM_KEYUP, 0xA0, 0))   // VK_LSHIFT
	assert.Equal(t, before, r.Pending())
}

func TestUnknownMessageIsNoop(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.HandleMessage(0x000F, 1, 2)) // WM_PAINT
	assert.Equal(t, 0, r.Pending())
}

func TestResizeUpdatesDimensionsSynchronously(t *testing.T) {
	r := NewRouter()
	// without a surface the message is ignored
	require.NoError(t, r.HandleMessage(WM_SIZE, 0, 0))

	s := &fakeSurface{size: geom.Size{Width: 800, Height: 600}}
	r.AttachSurface(s, s)
	require.NoError(t, r.HandleMessage(WM_SIZE, 0, 0))
	assert.Equal(t, []geom.Size{{Width: 800, Height: 600}}, s.stored)
	assert.Equal(t, 0, r.Pending(), "resize does not enqueue input")

	s.err = errors.New("GetClientRect: invalid window handle")
	err := r.HandleMessage(WM_SIZE, 0, 0)
	assert.ErrorIs(t, err, ErrSurfaceQuery)
	assert.Len(t, s.stored, 1)
}

func TestCollectDrainsInOrder(t *testing.T) {
	now := 3 * time.Second
	r := NewRouter(WithClock(func() time.Duration { return now }))
	require.NoError(t, r.HandleMessage(WM_MOUSEMOVE, 0, 0x00010001))
	require.NoError(t, r.HandleMessage(WM_LBUTTONDOWN, 0, 0x00010001))
	require.NoError(t, r.HandleMessage(WM_CHAR, 'x', 0))
	require.NoError(t, r.HandleMessage(WM_LBUTTONUP, 0, 0x00010001))

	snap := r.Collect()
	require.Len(t, snap.Events, 4)
	assert.Equal(t, []Kind{PointerMoved, PointerButton, Text, PointerButton},
		[]Kind{snap.Events[0].Kind, snap.Events[1].Kind, snap.Events[2].Kind, snap.Events[3].Kind})
	assert.Equal(t, now, snap.Time)
	assert.Equal(t, time.Second/60, snap.PredictedDT)
	assert.True(t, snap.Focused)

	assert.Empty(t, r.Collect().Events)
}

func TestQueueConcurrentPushDrain(t *testing.T) {
	var q Queue
	const n = 5000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Push(Event{Kind: Scroll, Delta: geom.Vec2{X: float32(i)}})
		}
	}()

	var got []Event
	for len(got) < n {
		got = append(got, q.Drain()...)
	}
	wg.Wait()
	got = append(got, q.Drain()...)

	require.Len(t, got, n)
	for i, ev := range got {
		assert.Equal(t, float32(i), ev.Delta.X)
	}
}

func TestIsInputMessage(t *testing.T) {
	for _, m := range []uint32{WM_KEYDOWN, WM_SYSKEYUP, WM_CHAR, WM_MOUSEMOVE, WM_LBUTTONDOWN, WM_MOUSEWHEEL, WM_MOUSEHWHEEL} {
		assert.True(t, IsInputMessage(m), "%#x", m)
	}
	for _, m := range []uint32{WM_SIZE, 0x000F, 0x0010, 0x0002, 0x0300} {
		assert.False(t, IsInputMessage(m), "%#x", m)
	}
}
