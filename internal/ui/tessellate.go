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
	"github.com/workturnedplay/overlayhook/internal/geom"
)

// Tessellate turns shapes into triangle meshes in physical pixels. Shapes
// whose clip does not overlap them are dropped.
func (e *Immediate) Tessellate(shapes []ClippedShape, pixelsPerPoint float32) []ClippedPrimitive {
	if pixelsPerPoint <= 0 {
		pixelsPerPoint = 1
	}
	out := make([]ClippedPrimitive, 0, len(shapes))
	for _, cs := range shapes {
		clip := cs.Clip.Scale(pixelsPerPoint)
		s := cs.Shape
		if s.Rect.Scale(pixelsPerPoint).Intersect(clip).Empty() {
			continue
		}
		var m Mesh
		switch s.Kind {
		case RectShape:
			m.Texture = NoTexture
			m.addQuad(s.Rect.Scale(pixelsPerPoint), geom.Rect{}, s.Fill)
		case ImageShape:
			m.Texture = s.Texture
			m.addQuad(s.Rect.Scale(pixelsPerPoint), s.UV, s.Fill)
		case TextShape:
			m.Texture = FontTexture
			pen := s.Rect.Min
			for _, r := range s.Text {
				g := geom.XYWH(pen.X, pen.Y, GlyphWidth, GlyphHeight)
				if r != ' ' {
					m.addQuad(g.Scale(pixelsPerPoint), e.font.glyph(r), s.Fill)
				}
				pen.X += GlyphWidth
			}
		default:
			continue
		}
		if len(m.Indices) == 0 {
			continue
		}
		out = append(out, ClippedPrimitive{Clip: clip, Mesh: m})
	}
	return out
}

// addQuad appends r as two triangles, corners in clockwise order from the
// top-left.
func (m *Mesh) addQuad(r, uv geom.Rect, col Color) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices,
		Vertex{Pos: r.Min, UV: uv.Min, Color: col},
		Vertex{Pos: geom.Pt(r.Max.X, r.Min.Y), UV: geom.Pt(uv.Max.X, uv.Min.Y), Color: col},
		Vertex{Pos: r.Max, UV: uv.Max, Color: col},
		Vertex{Pos: geom.Pt(r.Min.X, r.Max.Y), UV: geom.Pt(uv.Min.X, uv.Max.Y), Color: col},
	)
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
}
