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

package winproc

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetWindowLong, procGetWindowLong = windowLongProcs()
	procCallWindowProc                   = user32.NewProc("CallWindowProcW")
	procSetLastError                     = kernel32.NewProc("SetLastError")
)

// GWLP_WNDPROC, passed sign-extended.
var gwlpWndProc = int32(-4)

// windowLongProcs picks the *Ptr variants where pointers are 64-bit; on
// 32-bit Windows user32 only exports the plain ones.
func windowLongProcs() (set, get *windows.LazyProc) {
	if unsafe.Sizeof(uintptr(0)) == 4 {
		return user32.NewProc("SetWindowLongW"), user32.NewProc("GetWindowLongW")
	}
	return user32.NewProc("SetWindowLongPtrW"), user32.NewProc("GetWindowLongPtrW")
}

// Win32 is the Installer backed by user32.dll.
type Win32 struct{}

// checkLastError tells a legitimate 0 result from a failure: the last
// error was cleared before the call, so only a real failure sets it.
func checkLastError(name string, ret uintptr) (uintptr, error) {
	if ret == 0 {
		if lastErr := windows.GetLastError(); !errors.Is(lastErr, windows.ERROR_SUCCESS) {
			return 0, fmt.Errorf("%s: %w", name, lastErr)
		}
	}
	return ret, nil
}

func (Win32) Swap(window, proc uintptr) (uintptr, error) {
	// 0 is both a valid previous value and the failure result, only the last error tells them apart
	procSetLastError.Call(0)
	ret, _, _ := procSetWindowLong.Call(window, uintptr(gwlpWndProc), proc)
	return checkLastError(procSetWindowLong.Name, ret)
}

func (Win32) Current(window uintptr) (uintptr, error) {
	if window == 0 {
		return 0, fmt.Errorf("%s: hwnd is 0", procGetWindowLong.Name)
	}
	procSetLastError.Call(0)
	ret, _, _ := procGetWindowLong.Call(window, uintptr(gwlpWndProc))
	return checkLastError(procGetWindowLong.Name, ret)
}

func (Win32) Call(prev, hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	// prev may be a unicode/ansi thunk handle rather than code, calling it directly would crash;
	// CallWindowProcW knows how to unwrap it
	ret, _, _ := procCallWindowProc.Call(prev, hwnd, uintptr(msg), wparam, lparam)
	return ret
}
