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

// Package ui defines what the overlay's UI engine produces each frame
// (shapes, texture deltas, tessellated meshes) and ships a small
// immediate-mode engine implementing that contract.
package ui

import (
	"image"
	"image/color"

	"github.com/workturnedplay/overlayhook/internal/geom"
)

// Color is a straight-alpha RGBA color.
type Color = color.NRGBA

var (
	White       = Color{255, 255, 255, 255}
	Transparent = Color{}
)

// TextureID names a texture in the rasterizer's cache.
type TextureID uint64

const (
	// NoTexture marks untextured, flat-colored meshes.
	NoTexture TextureID = 0
	// FontTexture is the glyph atlas of the built-in engine.
	FontTexture TextureID = 1

	firstUserTexture TextureID = 2
)

// ShapeKind discriminates Shape.
type ShapeKind uint8

const (
	RectShape ShapeKind = iota + 1
	TextShape
	ImageShape
)

// Shape is one draw request in logical points.
type Shape struct {
	Kind ShapeKind
	// Rect is the filled area, the image destination, or for text the box
	// whose top-left is the pen origin.
	Rect geom.Rect
	Fill Color
	Text string
	// Texture and UV describe an ImageShape; UV is normalized to 0..1.
	Texture TextureID
	UV      geom.Rect
}

// ClippedShape is a shape together with the rectangle it may draw into.
type ClippedShape struct {
	Clip  geom.Rect
	Shape Shape
}

// ImageDelta replaces a whole texture (Pos == nil) or patches a region of
// an existing one starting at *Pos.
type ImageDelta struct {
	Image *image.RGBA
	Pos   *image.Point
}

// IsWhole reports whether the delta replaces the full texture.
func (d ImageDelta) IsWhole() bool { return d.Pos == nil }

// TextureSet is one entry of TexturesDelta.Set.
type TextureSet struct {
	ID    TextureID
	Delta ImageDelta
}

// TexturesDelta is what must happen to the rasterizer's texture cache: every
// Set before painting, every Free after.
type TexturesDelta struct {
	Set  []TextureSet
	Free []TextureID
}

// IsEmpty reports whether applying d would be a no-op.
func (d *TexturesDelta) IsEmpty() bool { return len(d.Set) == 0 && len(d.Free) == 0 }

// Append merges newer into d so that applying d once equals applying the
// old d and then newer. Sets are kept in order; a pending free of a texture
// that newer creates again is dropped, otherwise the free (which runs after
// all sets) would delete the new texture.
func (d *TexturesDelta) Append(newer TexturesDelta) {
	if len(d.Free) > 0 && len(newer.Set) > 0 {
		recreated := make(map[TextureID]struct{}, len(newer.Set))
		for _, s := range newer.Set {
			if s.Delta.IsWhole() {
				recreated[s.ID] = struct{}{}
			}
		}
		kept := d.Free[:0]
		for _, id := range d.Free {
			if _, ok := recreated[id]; !ok {
				kept = append(kept, id)
			}
		}
		d.Free = kept
	}
	d.Set = append(d.Set, newer.Set...)
	d.Free = append(d.Free, newer.Free...)
}

// FullOutput is everything one engine run produced.
type FullOutput struct {
	Shapes         []ClippedShape
	Textures       TexturesDelta
	PixelsPerPoint float32
}

// Vertex is a mesh vertex in physical pixels.
type Vertex struct {
	Pos   geom.Vec2
	UV    geom.Vec2
	Color Color
}

// Mesh is an indexed triangle list drawn with one texture.
type Mesh struct {
	Texture  TextureID
	Vertices []Vertex
	Indices  []uint32
}

// ClippedPrimitive is a mesh with its clip rectangle, both in physical
// pixels.
type ClippedPrimitive struct {
	Clip geom.Rect
	Mesh Mesh
}
