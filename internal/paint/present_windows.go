//go:build windows

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
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	opengl32 = windows.NewLazySystemDLL("opengl32.dll")

	procGlViewport     = opengl32.NewProc("glViewport")
	procGlMatrixMode   = opengl32.NewProc("glMatrixMode")
	procGlLoadIdentity = opengl32.NewProc("glLoadIdentity")
	procGlDisable      = opengl32.NewProc("glDisable")
	procGlEnable       = opengl32.NewProc("glEnable")
	procGlBlendFunc    = opengl32.NewProc("glBlendFunc")
	procGlPixelStorei  = opengl32.NewProc("glPixelStorei")
	procGlRasterPos2i  = opengl32.NewProc("glRasterPos2i")
	procGlDrawPixels   = opengl32.NewProc("glDrawPixels")
	procGlGetError     = opengl32.NewProc("glGetError")
)

const (
	GL_MODELVIEW           = 0x1700
	GL_PROJECTION          = 0x1701
	GL_DEPTH_TEST          = 0x0B71
	GL_SCISSOR_TEST        = 0x0C11
	GL_TEXTURE_2D          = 0x0DE1
	GL_BLEND               = 0x0BE2
	GL_ONE                 = 1
	GL_ONE_MINUS_SRC_ALPHA = 0x0303
	GL_UNPACK_ALIGNMENT    = 0x0CF5
	GL_RGBA                = 0x1908
	GL_UNSIGNED_BYTE       = 0x1401
)

// GLPresenter blits frames with legacy glDrawPixels on the context that is
// current on the calling thread. Frames are premultiplied, so blending is
// ONE, ONE_MINUS_SRC_ALPHA.
type GLPresenter struct {
	flipped []byte
}

func NewGLPresenter() *GLPresenter { return &GLPresenter{} }

func (p *GLPresenter) Present(frame *image.RGBA) error {
	if err := opengl32.Load(); err != nil {
		return err
	}
	w, h := frame.Bounds().Dx(), frame.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil
	}

	// glDrawPixels wants rows bottom-up
	row := w * 4
	need := row * h
	if cap(p.flipped) < need {
		p.flipped = make([]byte, need)
	}
	p.flipped = p.flipped[:need]
	for y := 0; y < h; y++ {
		src := frame.Pix[y*frame.Stride : y*frame.Stride+row]
		copy(p.flipped[(h-1-y)*row:], src)
	}

	procGlViewport.Call(0, 0, uintptr(w), uintptr(h))
	procGlMatrixMode.Call(GL_PROJECTION)
	procGlLoadIdentity.Call()
	procGlMatrixMode.Call(GL_MODELVIEW)
	procGlLoadIdentity.Call()
	procGlDisable.Call(GL_DEPTH_TEST)
	procGlDisable.Call(GL_SCISSOR_TEST)
	procGlDisable.Call(GL_TEXTURE_2D)
	procGlEnable.Call(GL_BLEND)
	procGlBlendFunc.Call(GL_ONE, GL_ONE_MINUS_SRC_ALPHA)
	procGlPixelStorei.Call(GL_UNPACK_ALIGNMENT, 1)

	minusOne := int32(-1)
	procGlRasterPos2i.Call(uintptr(minusOne), uintptr(minusOne))
	procGlDrawPixels.Call(uintptr(w), uintptr(h), GL_RGBA, GL_UNSIGNED_BYTE, uintptr(unsafe.Pointer(&p.flipped[0])))

	if code, _, _ := procGlGetError.Call(); code != 0 {
		return fmt.Errorf("glDrawPixels: GL error 0x%04x", code)
	}
	return nil
}
