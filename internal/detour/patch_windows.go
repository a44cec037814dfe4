//go:build windows && (amd64 || 386)

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

package detour

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procFlushInstructionCache = kernel32.NewProc("FlushInstructionCache")
	procSuspendThread         = kernel32.NewProc("SuspendThread")
	procGetThreadContext      = kernel32.NewProc("GetThreadContext")
	procSetThreadContext      = kernel32.NewProc("SetThreadContext")
)

// readable prologue window; StolenLength never needs more than this
const prologueWindow = 32

// inlinePatcher overwrites the first instructions of the target with an
// absolute jump and moves them into an executable trampoline.
type inlinePatcher struct {
	arch Arch
}

func newPatcher() Patcher { return inlinePatcher{arch: hostArch} }

func (pt inlinePatcher) Prepare(t Target, address uintptr, replacement any) (Patch, error) {
	code := unsafe.Slice((*byte)(unsafe.Pointer(address)), prologueWindow)
	n, err := pt.arch.StolenLength(code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}

	tramp := pt.arch.Trampoline(code[:n], address+uintptr(n))
	mem, err := windows.VirtualAlloc(0, uintptr(len(tramp)), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("VirtualAlloc trampoline: %w", err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(mem)), len(tramp)), tramp)

	p := &inlinePatch{
		arch:        pt.arch,
		target:      address,
		trampoline:  mem,
		replacement: windows.NewCallback(replacement),
		stolen:      append([]byte(nil), code[:n]...),
	}
	return p, nil
}

type inlinePatch struct {
	arch        Arch
	target      uintptr
	trampoline  uintptr
	replacement uintptr
	stolen      []byte
	enabled     atomic.Bool
}

func (p *inlinePatch) Replacement() uintptr { return p.replacement }
func (p *inlinePatch) Trampoline() uintptr { return p.trampoline }

// Enable redirects the target. A thread caught inside the prologue is moved
// to the same instruction in the trampoline, which carries on exactly where
// it was.
func (p *inlinePatch) Enable() error {
	if err := p.write(p.arch.PatchBytes(p.replacement, len(p.stolen)), p.target, p.trampoline); err != nil {
		return err
	}
	p.enabled.Store(true)
	return nil
}

// Disable puts the original prologue back, moving threads the other way.
func (p *inlinePatch) Disable() error {
	p.enabled.Store(false)
	return p.write(p.stolen, p.trampoline, p.target)
}

// write replaces the prologue with b while every other thread of the
// process is suspended, so nothing runs half-written code. Suspended threads
// whose instruction pointer is inside the stolen bytes at from are moved to
// the same offset at to.
func (p *inlinePatch) write(b []byte, from, to uintptr) error {
	// freeze skips the calling thread, so the goroutine must stay on it
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	f, err := freeze()
	if err != nil {
		return err
	}
	defer f.thaw()
	f.relocate(from, to, len(p.stolen))

	var old uint32
	if err := windows.VirtualProtect(p.target, uintptr(len(b)), windows.PAGE_EXECUTE_READWRITE, &old); err != nil {
		return fmt.Errorf("VirtualProtect: %w", err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p.target)), len(b)), b)
	var ignored uint32
	if err := windows.VirtualProtect(p.target, uintptr(len(b)), old, &ignored); err != nil {
		return fmt.Errorf("VirtualProtect restore: %w", err)
	}
	procFlushInstructionCache.Call(uintptr(windows.CurrentProcess()), p.target, uintptr(len(b)))
	return nil
}

func (p *inlinePatch) CallOriginal(args ...uintptr) uintptr {
	fn := p.target
	if p.enabled.Load() {
		fn = p.trampoline
	}
	r, _, _ := syscall.SyscallN(fn, args...)
	return r
}
