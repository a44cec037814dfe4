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
	"maps"
	"slices"
	"sync/atomic"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/input"
)

// Immediate is the built-in engine: the UI is rebuilt from scratch by the
// build callback on every Run.
type Immediate struct {
	pixelsPerPoint float32

	font        *fontAtlas
	fontSent    bool
	nextTexture TextureID
	icons       map[iconKey]*iconTexture

	pointer     geom.Vec2
	primaryDown bool
	pressOrigin geom.Vec2
	pressOnUI   bool
	focus       string
	panels      []geom.Rect

	wantsKeyboard atomic.Bool
	wantsPointer  atomic.Bool
}

// Option configures an Immediate engine.
type Option func(*Immediate)

// WithPixelsPerPoint sets the UI scale. Values <= 0 are ignored.
func WithPixelsPerPoint(ppp float32) Option {
	return func(e *Immediate) {
		if ppp > 0 {
			e.pixelsPerPoint = ppp
		}
	}
}

// NewImmediate returns an engine with the font atlas prepared.
func NewImmediate(opts ...Option) *Immediate {
	e := &Immediate{
		pixelsPerPoint: 1,
		font:           newFontAtlas(),
		nextTexture:    firstUserTexture,
		icons:          make(map[iconKey]*iconTexture),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// PixelsPerPoint is the scale every FullOutput reports.
func (e *Immediate) PixelsPerPoint() float32 { return e.pixelsPerPoint }

func (e *Immediate) WantsKeyboardInput() bool { return e.wantsKeyboard.Load() }
func (e *Immediate) WantsPointerInput() bool { return e.wantsPointer.Load() }

// Run feeds one input snapshot through build and collects what it drew.
func (e *Immediate) Run(in input.Snapshot, build func(*Context)) FullOutput {
	c := newContext(e, in)
	c.scanEvents()

	if !e.fontSent {
		c.textures.Set = append(c.textures.Set, TextureSet{ID: FontTexture, Delta: ImageDelta{Image: e.font.img}})
	}
	for _, ic := range e.icons {
		ic.used = false
	}

	if build != nil {
		build(c)
	}

	// Textures count as sent only once build returned: a panicking build
	// loses the whole output, sets included.
	e.fontSent = true
	maps.Copy(e.icons, c.newIcons)

	var unused []TextureID
	for k, ic := range e.icons {
		if !ic.used {
			unused = append(unused, ic.id)
			delete(e.icons, k)
		}
	}
	slices.Sort(unused)
	c.textures.Free = append(c.textures.Free, unused...)

	if c.pressed && !c.focusClaimed {
		e.focus = ""
	}
	e.panels = c.panels

	e.wantsPointer.Store(e.overPanel(e.pointer) || (e.primaryDown && e.pressOnUI))
	e.wantsKeyboard.Store(e.focus != "")

	return FullOutput{Shapes: c.shapes, Textures: c.textures, PixelsPerPoint: e.pixelsPerPoint}
}

func (e *Immediate) overPanel(p geom.Vec2) bool {
	for _, r := range e.panels {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// ForgetTexture drops the engine's record of an uploaded texture. The font
// atlas is re-sent on the next Run; an icon is rasterized again under a new
// id the next time it is drawn.
func (e *Immediate) ForgetTexture(id TextureID) {
	if id == FontTexture {
		e.fontSent = false
		return
	}
	for k, ic := range e.icons {
		if ic.id == id {
			delete(e.icons, k)
		}
	}
}

// allocTexture hands out a fresh user texture id.
func (e *Immediate) allocTexture() TextureID {
	id := e.nextTexture
	e.nextTexture++
	return id
}
