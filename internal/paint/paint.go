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

// Package paint draws tessellated UI primitives onto the overlay surface.
package paint

import (
	"errors"
	"image"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/ui"
)

var (
	ErrUnknownTexture = errors.New("unknown texture")
	ErrBadDelta       = errors.New("invalid texture delta")
	ErrDestroyed      = errors.New("rasterizer destroyed")
)

// Rasterizer owns the texture cache and turns primitives into pixels on the
// currently bound surface. All methods run on the render thread with the
// shadow context current.
type Rasterizer interface {
	SetTexture(id ui.TextureID, delta ui.ImageDelta) error
	FreeTexture(id ui.TextureID)
	Paint(size geom.Size, pixelsPerPoint float32, prims []ui.ClippedPrimitive) error
	Destroy()
}

// Presenter puts a finished premultiplied RGBA frame on screen.
type Presenter interface {
	Present(frame *image.RGBA) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(frame *image.RGBA) error

func (f PresenterFunc) Present(frame *image.RGBA) error { return f(frame) }
