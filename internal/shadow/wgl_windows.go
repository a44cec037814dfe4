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

package shadow

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/workturnedplay/overlayhook/internal/geom"
)

var (
	opengl32 = windows.NewLazySystemDLL("opengl32.dll")
	user32   = windows.NewLazySystemDLL("user32.dll")

	procWglGetCurrentContext = opengl32.NewProc("wglGetCurrentContext")
	procWglGetCurrentDC      = opengl32.NewProc("wglGetCurrentDC")
	procWglCreateContext     = opengl32.NewProc("wglCreateContext")
	procWglMakeCurrent       = opengl32.NewProc("wglMakeCurrent")
	procWglDeleteContext     = opengl32.NewProc("wglDeleteContext")

	procWindowFromDC  = user32.NewProc("WindowFromDC")
	procGetClientRect = user32.NewProc("GetClientRect")
)

type rect struct {
	Left, Top, Right, Bottom int32
}

// WGL is the Driver backed by opengl32.dll and user32.dll.
type WGL struct{}

func (WGL) CurrentContext() Handle {
	h, _, _ := procWglGetCurrentContext.Call()
	return Handle(h)
}

func (WGL) CurrentSurface() Surface {
	dc, _, _ := procWglGetCurrentDC.Call()
	return Surface(dc)
}

func (WGL) CreateContext(s Surface) (Handle, error) {
	// the new context takes the pixel format the host already set on this DC, so no SetPixelFormat here
	//(a DC's pixel format can only be set once anyway)
	h, _, err := procWglCreateContext.Call(uintptr(s))
	if h == 0 {
		return 0, fmt.Errorf("wglCreateContext(%#x): %w", s, lastErr(err))
	}
	return Handle(h), nil
}

func (WGL) MakeCurrent(s Surface, h Handle) error {
	// MakeCurrent(0, 0) is how the host's "nothing current" state gets restored, that's valid
	ok, _, err := procWglMakeCurrent.Call(uintptr(s), uintptr(h))
	if ok == 0 {
		return fmt.Errorf("wglMakeCurrent(%#x, %#x): %w", s, h, lastErr(err))
	}
	return nil
}

func (WGL) DeleteContext(h Handle) error {
	ok, _, err := procWglDeleteContext.Call(uintptr(h))
	if ok == 0 {
		return fmt.Errorf("wglDeleteContext(%#x): %w", h, lastErr(err))
	}
	return nil
}

func (WGL) WindowFromSurface(s Surface) (Window, error) {
	hwnd, _, err := procWindowFromDC.Call(uintptr(s))
	if hwnd == 0 {
		return 0, fmt.Errorf("WindowFromDC(%#x): %w", s, lastErr(err))
	}
	return Window(hwnd), nil
}

func (WGL) ClientSize(w Window) (geom.Size, error) {
	var r rect
	ok, _, err := procGetClientRect.Call(uintptr(w), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return geom.Size{}, fmt.Errorf("GetClientRect(%#x): %w", w, lastErr(err))
	}
	return geom.SizeFromRect(r.Left, r.Top, r.Right, r.Bottom), nil
}

// lastErr keeps the Errno from Proc.Call unless it is ERROR_SUCCESS, which
// some of these functions leave in place when they fail.
func lastErr(err error) error {
	if errno, ok := err.(windows.Errno); ok && errno != windows.ERROR_SUCCESS {
		return errno
	}
	return windows.ERROR_INVALID_HANDLE
}
