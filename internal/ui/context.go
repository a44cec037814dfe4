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

package ui

import (
	"fmt"
	"math"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/input"
	"github.com/workturnedplay/overlayhook/internal/vkey"
)

// Layout and palette of the built-in widgets.
const (
	Spacing     = 4
	Padding     = 6
	TitleHeight = GlyphHeight + 5
	RowHeight   = GlyphHeight + 5
)

var (
	PanelFill   = Color{24, 24, 28, 220}
	TitleFill   = Color{48, 86, 150, 255}
	WidgetFill  = Color{60, 60, 68, 255}
	HoverFill   = Color{80, 80, 92, 255}
	FocusFill   = Color{40, 40, 48, 255}
	TextColor   = Color{230, 230, 230, 255}
	CaretColor  = Color{255, 191, 0, 255}
	defaultClip = geom.Everything
)

type click struct {
	from, to geom.Vec2
}

// Context is handed to the UI build callback once per frame. Widgets lay
// themselves out top to bottom starting at the cursor.
type Context struct {
	e  *Immediate
	in input.Snapshot

	shapes   []ClippedShape
	textures TexturesDelta
	panels   []geom.Rect

	clip   geom.Rect
	cursor geom.Vec2
	left   float32

	pressed      bool
	presses      []geom.Vec2
	clicks       []click
	keys         []vkey.Key
	scroll       geom.Vec2
	focusClaimed bool

	// icons rasterized this frame, committed to the engine after build
	newIcons map[iconKey]*iconTexture
}

func newContext(e *Immediate, in input.Snapshot) *Context {
	start := geom.Pt(Padding, Padding)
	return &Context{e: e, in: in, clip: defaultClip, cursor: start, left: start.X}
}

func (c *Context) scanEvents() {
	e := c.e
	inv := 1 / e.pixelsPerPoint
	for _, ev := range c.in.Events {
		switch ev.Kind {
		case input.PointerMoved:
			e.pointer = ev.Pos.Scale(inv)
		case input.PointerButton:
			pos := ev.Pos.Scale(inv)
			e.pointer = pos
			if ev.Button != input.Primary {
				continue
			}
			if ev.Pressed {
				e.primaryDown = true
				e.pressOrigin = pos
				e.pressOnUI = e.overPanel(pos)
				c.pressed = true
				c.presses = append(c.presses, pos)
			} else {
				e.primaryDown = false
				c.clicks = append(c.clicks, click{from: e.pressOrigin, to: pos})
			}
		case input.Key:
			if ev.Pressed {
				c.keys = append(c.keys, ev.Key)
			}
		case input.Scroll:
			c.scroll = c.scroll.Add(ev.Delta)
		}
	}
}

// Input is the raw snapshot of this frame.
func (c *Context) Input() input.Snapshot { return c.in }

// Pointer is the last known pointer position in points.
func (c *Context) Pointer() geom.Vec2 { return c.e.pointer }

// Scroll is the scroll delta accumulated this frame, in points.
func (c *Context) Scroll() geom.Vec2 { return c.scroll }

// PixelsPerPoint is the current UI scale.
func (c *Context) PixelsPerPoint() float32 { return c.e.pixelsPerPoint }

// Cursor is where the next widget goes.
func (c *Context) Cursor() geom.Vec2 { return c.cursor }

// KeyPressed reports whether k went down this frame.
func (c *Context) KeyPressed(k vkey.Key) bool {
	for _, p := range c.keys {
		if p == k {
			return true
		}
	}
	return false
}

// Rect fills r.
func (c *Context) Rect(r geom.Rect, fill Color) {
	c.shapes = append(c.shapes, ClippedShape{Clip: c.clip, Shape: Shape{Kind: RectShape, Rect: r, Fill: fill}})
}

// Text draws s with its top-left corner at pos.
func (c *Context) Text(pos geom.Vec2, s string, col Color) {
	if s == "" {
		return
	}
	r := geom.Rect{Min: pos, Max: pos.Add(geom.Pt(TextWidth(s), GlyphHeight))}
	c.shapes = append(c.shapes, ClippedShape{Clip: c.clip, Shape: Shape{Kind: TextShape, Rect: r, Fill: col, Text: s}})
}

// Image draws the uv part of texture tex into r.
func (c *Context) Image(r geom.Rect, tex TextureID, uv geom.Rect) {
	c.shapes = append(c.shapes, ClippedShape{Clip: c.clip, Shape: Shape{Kind: ImageShape, Rect: r, Texture: tex, UV: uv, Fill: White}})
}

// Panel draws a titled window at r and lays body out inside it. The pointer
// hovering a panel makes the overlay claim pointer input.
func (c *Context) Panel(title string, r geom.Rect, body func()) {
	c.panels = append(c.panels, r)
	c.Rect(r, PanelFill)
	c.Rect(geom.Rect{Min: r.Min, Max: geom.Pt(r.Max.X, r.Min.Y+TitleHeight)}, TitleFill)

	prevClip, prevCursor, prevLeft := c.clip, c.cursor, c.left
	c.clip = r.Intersect(prevClip)
	c.Text(r.Min.Add(geom.Pt(Padding, 2)), title, TextColor)

	c.cursor = r.Min.Add(geom.Pt(Padding, TitleHeight+Spacing))
	c.left = c.cursor.X
	if body != nil {
		body()
	}
	c.clip, c.cursor, c.left = prevClip, prevCursor, prevLeft
}

// next reserves a w by h box at the cursor and moves the cursor below it.
func (c *Context) next(w, h float32) geom.Rect {
	r := geom.XYWH(c.cursor.X, c.cursor.Y, w, h)
	c.cursor = geom.Pt(c.left, r.Max.Y+Spacing)
	return r
}

// Label draws one line of text.
func (c *Context) Label(s string) {
	r := c.next(TextWidth(s), GlyphHeight)
	c.Text(r.Min, s, TextColor)
}

// Labelf is Label with formatting.
func (c *Context) Labelf(format string, args ...any) {
	c.Label(fmt.Sprintf(format, args...))
}

// Button draws a push button and reports whether it was clicked this frame
// (pressed and released inside it).
func (c *Context) Button(label string) bool {
	r := c.next(TextWidth(label)+2*Padding, RowHeight)
	visible := r.Intersect(c.clip)
	fill := WidgetFill
	if visible.Contains(c.e.pointer) {
		fill = HoverFill
	}
	c.Rect(r, fill)
	c.Text(r.Min.Add(geom.Pt(Padding, 2)), label, TextColor)

	for _, k := range c.clicks {
		if visible.Contains(k.from) && visible.Contains(k.to) {
			return true
		}
	}
	return false
}

// TextField edits *value. Clicking it takes keyboard focus, Enter or
// Escape gives it back. It reports whether *value changed.
func (c *Context) TextField(id string, value *string, width float32) bool {
	r := c.next(width, RowHeight)
	visible := r.Intersect(c.clip)
	for _, p := range c.presses {
		if visible.Contains(p) {
			c.e.focus = id
			c.focusClaimed = true
		}
	}

	focused := c.e.focus == id
	changed := false
	if focused {
		for _, ev := range c.in.Events {
			switch {
			case ev.Kind == input.Text && c.e.focus == id:
				*value += ev.Text
				changed = true
			case ev.Kind == input.Key && ev.Pressed && c.e.focus == id:
				switch ev.Key {
				case vkey.Backspace:
					if rs := []rune(*value); len(rs) > 0 {
						*value = string(rs[:len(rs)-1])
						changed = true
					}
				case vkey.Enter, vkey.Escape:
					c.e.focus = ""
				}
			}
		}
	}

	fill := WidgetFill
	if focused {
		fill = FocusFill
	}
	c.Rect(r, fill)
	textPos := r.Min.Add(geom.Pt(Padding, 2))
	c.Text(textPos, *value, TextColor)
	if c.e.focus == id {
		x := textPos.X + TextWidth(*value)
		c.Rect(geom.XYWH(x, textPos.Y, 1, GlyphHeight), CaretColor)
	}
	return changed
}

// Icon draws an SVG icon of size points. The rasterized texture is uploaded
// once and freed after the first frame that does not draw it.
func (c *Context) Icon(name, svg string, size float32) error {
	px := int(math.Ceil(float64(size * c.e.pixelsPerPoint)))
	if px <= 0 {
		return fmt.Errorf("icon %q: size %g too small", name, size)
	}
	key := iconKey{name: name, px: px}
	ic, ok := c.e.icons[key]
	if !ok {
		ic, ok = c.newIcons[key]
	}
	if !ok {
		img, err := rasterizeSVG(svg, px)
		if err != nil {
			return fmt.Errorf("icon %q: %w", name, err)
		}
		ic = &iconTexture{id: c.e.allocTexture()}
		if c.newIcons == nil {
			c.newIcons = make(map[iconKey]*iconTexture)
		}
		c.newIcons[key] = ic
		c.textures.Set = append(c.textures.Set, TextureSet{ID: ic.id, Delta: ImageDelta{Image: img}})
	}
	ic.used = true
	c.Image(c.next(size, size), ic.id, geom.Rect{Max: geom.Pt(1, 1)})
	return nil
}
