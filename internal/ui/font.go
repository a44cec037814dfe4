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
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/workturnedplay/overlayhook/internal/geom"
)

// Glyph metrics of the built-in fixed-width face, in points.
const (
	GlyphWidth  = 7
	GlyphHeight = 13

	atlasColumns = 16
	firstGlyph   = ' '
	lastGlyph    = '~'
)

type fontAtlas struct {
	img *image.RGBA
	uv  map[rune]geom.Rect
}

// newFontAtlas renders the printable ASCII range of basicfont.Face7x13
// white-on-transparent into one texture.
func newFontAtlas() *fontAtlas {
	face := basicfont.Face7x13
	count := int(lastGlyph - firstGlyph + 1)
	rows := (count + atlasColumns - 1) / atlasColumns
	w, h := atlasColumns*GlyphWidth, rows*GlyphHeight

	a := &fontAtlas{
		img: image.NewRGBA(image.Rect(0, 0, w, h)),
		uv:  make(map[rune]geom.Rect, count),
	}
	d := &font.Drawer{Dst: a.img, Src: image.White, Face: face}
	for r := rune(firstGlyph); r <= lastGlyph; r++ {
		i := int(r - firstGlyph)
		x, y := (i%atlasColumns)*GlyphWidth, (i/atlasColumns)*GlyphHeight
		d.Dot = fixed.P(x, y+face.Ascent)
		d.DrawString(string(r))
		a.uv[r] = geom.Rect{
			Min: geom.Pt(float32(x)/float32(w), float32(y)/float32(h)),
			Max: geom.Pt(float32(x+GlyphWidth)/float32(w), float32(y+GlyphHeight)/float32(h)),
		}
	}
	return a
}

func (a *fontAtlas) glyph(r rune) geom.Rect {
	if uv, ok := a.uv[r]; ok {
		return uv
	}
	return a.uv['?']
}

// TextWidth is the advance of s in points.
func TextWidth(s string) float32 {
	n := 0
	for range s {
		n++
	}
	return float32(n * GlyphWidth)
}
