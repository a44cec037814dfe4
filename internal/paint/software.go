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
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/ui"
)

// Software rasterizes into an in-memory frame and hands it to a Presenter.
// Flat triangles go through rasterx, textured quads are scaled with
// x/image/draw and tinted through a mask.
type Software struct {
	presenter Presenter
	textures  map[ui.TextureID]*image.RGBA
	frame     *image.RGBA
	scratch   *image.RGBA
	destroyed bool
}

// NewSoftware returns a rasterizer presenting through p.
func NewSoftware(p Presenter) *Software {
	return &Software{presenter: p, textures: make(map[ui.TextureID]*image.RGBA)}
}

// Texture returns the cached texture id, for inspection.
func (s *Software) Texture(id ui.TextureID) (*image.RGBA, bool) {
	t, ok := s.textures[id]
	return t, ok
}

// SetTexture creates, replaces or patches a texture.
func (s *Software) SetTexture(id ui.TextureID, delta ui.ImageDelta) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if delta.Image == nil {
		return fmt.Errorf("%w: texture %d has no image", ErrBadDelta, id)
	}
	src := delta.Image
	if delta.IsWhole() {
		dst := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		s.textures[id] = dst
		return nil
	}
	dst, ok := s.textures[id]
	if !ok {
		return fmt.Errorf("%w: patch of texture %d", ErrUnknownTexture, id)
	}
	r := image.Rectangle{Min: *delta.Pos, Max: delta.Pos.Add(src.Bounds().Size())}
	if !r.In(dst.Bounds()) {
		return fmt.Errorf("%w: patch %v outside texture %d %v", ErrBadDelta, r, id, dst.Bounds())
	}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
	return nil
}

func (s *Software) FreeTexture(id ui.TextureID) { delete(s.textures, id) }

// Paint clears the frame to transparent, draws prims in order and presents
// the result.
func (s *Software) Paint(size geom.Size, pixelsPerPoint float32, prims []ui.ClippedPrimitive) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if size.Width == 0 || size.Height == 0 {
		return nil
	}
	w, h := int(size.Width), int(size.Height)
	if s.frame == nil || s.frame.Bounds().Dx() != w || s.frame.Bounds().Dy() != h {
		s.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		clear(s.frame.Pix)
	}

	for i, p := range prims {
		clip := pixelRect(p.Clip).Intersect(s.frame.Bounds())
		if clip.Empty() || len(p.Mesh.Indices) == 0 {
			continue
		}
		var err error
		if p.Mesh.Texture == ui.NoTexture {
			s.fill(clip, p.Mesh)
		} else {
			err = s.blit(clip, p.Mesh)
		}
		if err != nil {
			return fmt.Errorf("primitive %d: %w", i, err)
		}
	}
	if err := s.presenter.Present(s.frame); err != nil {
		return fmt.Errorf("present %dx%d: %w", w, h, err)
	}
	return nil
}

// fill draws the triangles of an untextured mesh. Runs of triangles sharing
// a color are filled as one non-zero path so quad diagonals leave no seam.
func (s *Software) fill(clip image.Rectangle, m ui.Mesh) {
	b := s.frame.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), s.frame, b)
	scanner.SetClip(clip)
	filler := rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
	filler.SetWinding(true)

	var current ui.Color
	pending := false
	flush := func() {
		if pending {
			filler.SetColor(current)
			filler.Draw()
			filler.Clear()
			pending = false
		}
	}
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, ok1 := vertex(m, t)
		bv, ok2 := vertex(m, t+1)
		c, ok3 := vertex(m, t+2)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		if pending && a.Color != current {
			flush()
		}
		current = a.Color
		filler.Start(fixedPt(a.Pos))
		filler.Line(fixedPt(bv.Pos))
		filler.Line(fixedPt(c.Pos))
		filler.Stop(true)
		pending = true
	}
	flush()
}

// blit draws a textured mesh made of quads (two triangles sharing the
// first and third index, as ui.Mesh quads are emitted).
func (s *Software) blit(clip image.Rectangle, m ui.Mesh) error {
	tex, ok := s.textures[m.Texture]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, m.Texture)
	}
	dst := s.frame.SubImage(clip).(*image.RGBA)
	tw, th := float32(tex.Bounds().Dx()), float32(tex.Bounds().Dy())

	for q := 0; q+5 < len(m.Indices); q += 6 {
		v0, ok0 := vertex(m, q)
		v2, ok2 := vertex(m, q+2)
		if !ok0 || !ok2 {
			continue
		}
		dr := pixelRect(geom.Rect{Min: v0.Pos, Max: v2.Pos})
		sr := pixelRect(geom.Rect{
			Min: geom.Pt(v0.UV.X*tw, v0.UV.Y*th),
			Max: geom.Pt(v2.UV.X*tw, v2.UV.Y*th),
		})
		if dr.Empty() || sr.Empty() || dr.Intersect(clip).Empty() {
			continue
		}
		if v0.Color == ui.White {
			scaler(dr, sr).Scale(dst, dr, tex, sr, draw.Over, nil)
			continue
		}
		s.tinted(dst, dr, tex, sr, v0.Color)
	}
	return nil
}

// tinted scales the source region into scratch and uses its alpha as the
// mask for a uniform tint color.
func (s *Software) tinted(dst *image.RGBA, dr image.Rectangle, tex *image.RGBA, sr image.Rectangle, tint color.NRGBA) {
	size := image.Rect(0, 0, dr.Dx(), dr.Dy())
	if s.scratch == nil || !size.In(s.scratch.Bounds()) {
		s.scratch = image.NewRGBA(size.Union(boundsOf(s.scratch)))
	}
	mask := s.scratch.SubImage(size).(*image.RGBA)
	clear(s.scratch.Pix)
	scaler(dr, sr).Scale(mask, size, tex, sr, draw.Src, nil)
	draw.DrawMask(dst, dr, image.NewUniform(tint), image.Point{}, mask, image.Point{}, draw.Over)
}

func boundsOf(img *image.RGBA) image.Rectangle {
	if img == nil {
		return image.Rectangle{}
	}
	return img.Bounds()
}

// scaler picks nearest-neighbour for 1:1 copies, which keeps glyphs crisp.
func scaler(dr, sr image.Rectangle) draw.Scaler {
	if dr.Size() == sr.Size() {
		return draw.NearestNeighbor
	}
	return draw.ApproxBiLinear
}

func (s *Software) Destroy() {
	s.textures = nil
	s.frame = nil
	s.scratch = nil
	s.destroyed = true
}

func vertex(m ui.Mesh, i int) (ui.Vertex, bool) {
	idx := m.Indices[i]
	if int(idx) >= len(m.Vertices) {
		return ui.Vertex{}, false
	}
	return m.Vertices[idx], true
}

func fixedPt(p geom.Vec2) fixed.Point26_6 { return rasterx.ToFixedP(float64(p.X), float64(p.Y)) }

func pixelRect(r geom.Rect) image.Rectangle {
	return image.Rect(
		clampInt(math.Floor(float64(r.Min.X))), clampInt(math.Floor(float64(r.Min.Y))),
		clampInt(math.Ceil(float64(r.Max.X))), clampInt(math.Ceil(float64(r.Max.Y))),
	)
}

func clampInt(v float64) int {
	const limit = 1 << 24
	return int(max(-limit, min(limit, v)))
}
