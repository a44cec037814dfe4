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
	"github.com/workturnedplay/overlayhook/internal/input"
)

// Engine is the immediate-mode UI engine the frame composer drives.
//
// Run and Tessellate are called on the render thread only.
// WantsKeyboardInput and WantsPointerInput are read from the window
// procedure and must be safe from any thread; they reflect the most
// recently finished Run.
type Engine interface {
	Run(in input.Snapshot, build func(*Context)) FullOutput
	Tessellate(shapes []ClippedShape, pixelsPerPoint float32) []ClippedPrimitive
	WantsKeyboardInput() bool
	WantsPointerInput() bool
	// ForgetTexture tells the engine a texture it emitted never reached the
	// rasterizer; the next Run that needs it sends it again. Called from
	// the thread that calls Run.
	ForgetTexture(id TextureID)
}
