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

package paint

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/ui"
)

type recorder struct {
	frames []*image.RGBA
	err    error
}

func (r *recorder) Present(frame *image.RGBA) error {
	cp := image.NewRGBA(frame.Bounds())
	copy(cp.Pix, frame.Pix)
	r.frames = append(r.frames, cp)
	return r.err
}

var (
	red  = ui.Color{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func tessellate(shapes ...ui.ClippedShape) []ui.ClippedPrimitive {
	return ui.NewImmediate().Tessellate(shapes, 1)
}

func rect(r geom.Rect, fill ui.Color) ui.ClippedShape {
	return ui.ClippedShape{Clip: geom.Everything, Shape: ui.Shape{Kind: ui.RectShape, Rect: r, Fill: fill}}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestPaintFillsRect(t *testing.T) {
	rec := &recorder{}
	s := NewSoftware(rec)
	err := s.Paint(geom.Size{Width: 40, Height: 40}, 1, tessellate(rect(geom.XYWH(10, 10, 10, 10), red)))
	require.NoError(t, err)
	require.Len(t, rec.frames, 1)

	f := rec.frames[0]
	assert.Equal(t, image.Rect(0, 0, 40, 40), f.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, f.RGBAAt(15, 15))
	assert.Equal(t, color.RGBA{}, f.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{}, f.RGBAAt(25, 25))
}

func TestPaintHonoursClip(t *testing.T) {
	rec := &recorder{}
	s := NewSoftware(rec)
	shape := rect(geom.XYWH(0, 0, 30, 30), red)
	shape.Clip = geom.XYWH(0, 0, 10, 10)
	require.NoError(t, s.Paint(geom.Size{Width: 30, Height: 30}, 1, tessellate(shape)))

	f := rec.frames[0]
	assert.Equal(t, uint8(255), f.RGBAAt(5, 5).R)
	assert.Equal(t, color.RGBA{}, f.RGBAAt(15, 15))
}

func TestPaintClearsBetweenFrames(t *testing.T) {
	rec := &recorder{}
	s := NewSoftware(rec)
	size := geom.Size{Width: 20, Height: 20}
	require.NoError(t, s.Paint(size, 1, tessellate(rect(geom.XYWH(0, 0, 20, 20), red))))
	require.NoError(t, s.Paint(size, 1, nil))
	assert.Equal(t, color.RGBA{}, rec.frames[1].RGBAAt(10, 10))
}

func TestPaintTexturedQuad(t *testing.T) {
	rec := &recorder{}
	s := NewSoftware(rec)
	require.NoError(t, s.SetTexture(5, ui.ImageDelta{Image: solid(2, 2, blue)}))

	img := ui.ClippedShape{Clip: geom.Everything, Shape: ui.Shape{
		Kind: ui.ImageShape, Rect: geom.XYWH(2, 2, 4, 4), Fill: ui.White,
		Texture: 5, UV: geom.Rect{Max: geom.Pt(1, 1)},
	}}
	require.NoError(t, s.Paint(geom.Size{Width: 10, Height: 10}, 1, tessellate(img)))
	assert.Equal(t, blue, rec.frames[0].RGBAAt(3, 3))
	assert.Equal(t, color.RGBA{}, rec.frames[0].RGBAAt(8, 8))
}

func TestPaintTintsThroughMask(t *testing.T) {
	rec := &recorder{}
	s := NewSoftware(rec)
	require.NoError(t, s.SetTexture(6, ui.ImageDelta{Image: solid(3, 3, color.RGBA{255, 255, 255, 255})}))

	img := ui.ClippedShape{Clip: geom.Everything, Shape: ui.Shape{
		Kind: ui.ImageShape, Rect: geom.XYWH(0, 0, 3, 3), Fill: red,
		Texture: 6, UV: geom.Rect{Max: geom.Pt(1, 1)},
	}}
	require.NoError(t, s.Paint(geom.Size{Width: 3, Height: 3}, 1, tessellate(img)))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rec.frames[0].RGBAAt(1, 1))
}

func TestPaintUnknownTexture(t *testing.T) {
	rec := &recorder{}
	s := NewSoftware(rec)
	img := ui.ClippedShape{Clip: geom.Everything, Shape: ui.Shape{
		Kind: ui.ImageShape, Rect: geom.XYWH(0, 0, 3, 3), Fill: ui.White,
		Texture: 99, UV: geom.Rect{Max: geom.Pt(1, 1)},
	}}
	err := s.Paint(geom.Size{Width: 3, Height: 3}, 1, tessellate(img))
	assert.ErrorIs(t, err, ErrUnknownTexture)
	assert.Empty(t, rec.frames)
}

func TestSetTexturePatch(t *testing.T) {
	s := NewSoftware(&recorder{})
	require.NoError(t, s.SetTexture(7, ui.ImageDelta{Image: solid(4, 4, blue)}))

	green := color.RGBA{G: 255, A: 255}
	require.NoError(t, s.SetTexture(7, ui.ImageDelta{Image: solid(1, 1, green), Pos: &image.Point{X: 2, Y: 1}}))
	tex, ok := s.Texture(7)
	require.True(t, ok)
	assert.Equal(t, green, tex.RGBAAt(2, 1))
	assert.Equal(t, blue, tex.RGBAAt(0, 0))

	err := s.SetTexture(7, ui.ImageDelta{Image: solid(2, 2, green), Pos: &image.Point{X: 3, Y: 3}})
	assert.ErrorIs(t, err, ErrBadDelta)
	err = s.SetTexture(8, ui.ImageDelta{Image: solid(1, 1, green), Pos: &image.Point{}})
	assert.ErrorIs(t, err, ErrUnknownTexture)
	assert.ErrorIs(t, s.SetTexture(9, ui.ImageDelta{}), ErrBadDelta)

	s.FreeTexture(7)
	_, ok = s.Texture(7)
	assert.False(t, ok)
}

func TestPaintSkipsEmptySurface(t *testing.T) {
	rec := &recorder{}
	s := NewSoftware(rec)
	require.NoError(t, s.Paint(geom.Size{}, 1, tessellate(rect(geom.XYWH(0, 0, 5, 5), red))))
	assert.Empty(t, rec.frames)
}

func TestPresenterErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	s := NewSoftware(PresenterFunc(func(*image.RGBA) error { return boom }))
	assert.ErrorIs(t, s.Paint(geom.Size{Width: 1, Height: 1}, 1, nil), boom)
}

func TestDestroyed(t *testing.T) {
	s := NewSoftware(&recorder{})
	s.Destroy()
	assert.ErrorIs(t, s.Paint(geom.Size{Width: 1, Height: 1}, 1, nil), ErrDestroyed)
	assert.ErrorIs(t, s.SetTexture(1, ui.ImageDelta{Image: solid(1, 1, blue)}), ErrDestroyed)
}
