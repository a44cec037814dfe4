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

// Package geom holds the small value types shared by the input, UI and
// paint layers.
package geom

// Vec2 is a 2D vector or position in logical points.
type Vec2 struct {
	X, Y float32
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float32) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) In(r Rect) bool { return r.Contains(v) }
func (v Vec2) Eq(o Vec2) bool { return v.X == o.X && v.Y == o.Y }
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

func Pt(x, y float32) Vec2 { return Vec2{x, y} }
func XYWH(x, y, w, h float32) Rect { return Rect{Min: Vec2{x, y}, Max: Vec2{x + w, y + h}} }

// Rect is an axis aligned rectangle, Min inclusive, Max exclusive.
type Rect struct {
	Min, Max Vec2
}

// Everything is used as the clip rect of shapes that are not clipped.
var Everything = Rect{Min: Vec2{-1 << 20, -1 << 20}, Max: Vec2{1 << 20, 1 << 20}}

func (r Rect) Size() Vec2 { return r.Max.Sub(r.Min) }
func (r Rect) Width() float32 { return r.Max.X - r.Min.X }
func (r Rect) Height() float32 { return r.Max.Y - r.Min.Y }
func (r Rect) Empty() bool { return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y }
func (r Rect) Scale(f float32) Rect { return Rect{r.Min.Scale(f), r.Max.Scale(f)} }
func (r Rect) Translate(d Vec2) Rect { return Rect{r.Min.Add(d), r.Max.Add(d)} }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Intersect returns the overlap of r and o, which may be empty.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Min: Vec2{max(r.Min.X, o.Min.X), max(r.Min.Y, o.Min.Y)},
		Max: Vec2{min(r.Max.X, o.Max.X), min(r.Max.Y, o.Max.Y)},
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Shrink moves every edge of r inwards by d.
func (r Rect) Shrink(d float32) Rect {
	return Rect{Min: r.Min.Add(Vec2{d, d}), Max: r.Max.Sub(Vec2{d, d})}
}

// Size is a surface size in physical pixels.
type Size struct {
	Width, Height uint32
}

// Pack encodes s into a single word so it can be published atomically.
func (s Size) Pack() uint64 { return uint64(s.Width)<<32 | uint64(s.Height) }

// UnpackSize is the inverse of Size.Pack.
func UnpackSize(v uint64) Size { return Size{Width: uint32(v >> 32), Height: uint32(v)} }

// SizeFromRect converts a client rectangle (left, top, right, bottom) into a
// size, clamping inverted edges to zero.
func SizeFromRect(left, top, right, bottom int32) Size {
	w, h := right-left, bottom-top
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Size{Width: uint32(w), Height: uint32(h)}
}
