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
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// threadAccess is what freeze needs on every thread it stops.
const threadAccess = windows.THREAD_SUSPEND_RESUME | windows.THREAD_GET_CONTEXT | windows.THREAD_SET_CONTEXT

// frozen holds the other threads of the process, suspended while a prologue
// is rewritten.
type frozen struct {
	threads []windows.Handle
	ctx     *threadContext
}

// freeze suspends every other thread of the process. Handles are opened and
// the procs resolved before the first thread stops, so nothing after that
// point waits on the loader. Threads that exit before they can be opened or
// suspended are skipped; threads started after the snapshot are not seen.
func freeze() (*frozen, error) {
	for _, proc := range []*windows.LazyProc{procSuspendThread, procGetThreadContext, procSetThreadContext, procFlushInstructionCache} {
		if err := proc.Find(); err != nil {
			return nil, err
		}
	}

	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	pid, self := windows.GetCurrentProcessId(), windows.GetCurrentThreadId()
	f := &frozen{ctx: newThreadContext()}
	te := windows.ThreadEntry32{Size: uint32(unsafe.Sizeof(windows.ThreadEntry32{}))}
	for err = windows.Thread32First(snap, &te); err == nil; err = windows.Thread32Next(snap, &te) {
		if te.OwnerProcessID != pid || te.ThreadID == self {
			continue
		}
		h, oerr := windows.OpenThread(threadAccess, false, te.ThreadID)
		if oerr != nil {
			continue
		}
		f.threads = append(f.threads, h)
	}
	if !errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		f.close()
		return nil, fmt.Errorf("enumerate threads: %w", err)
	}

	kept := f.threads[:0]
	for _, h := range f.threads {
		// SuspendThread returns (DWORD)-1 on failure
		if r, _, _ := procSuspendThread.Call(uintptr(h)); uint32(r) == 0xFFFFFFFF {
			windows.CloseHandle(h)
			continue
		}
		kept = append(kept, h)
	}
	f.threads = kept
	return f, nil
}

// relocate moves every frozen thread whose instruction pointer lies within
// the n bytes at from to the same offset at to.
func (f *frozen) relocate(from, to uintptr, n int) {
	for _, h := range f.threads {
		f.ctx.reset()
		if r, _, _ := procGetThreadContext.Call(uintptr(h), f.ctx.addr()); r == 0 {
			continue
		}
		ip, moved := relocateIP(f.ctx.ip(), from, to, n)
		if !moved {
			continue
		}
		f.ctx.setIP(ip)
		procSetThreadContext.Call(uintptr(h), f.ctx.addr())
	}
}

// thaw resumes and releases every frozen thread.
func (f *frozen) thaw() {
	for _, h := range f.threads {
		windows.ResumeThread(h)
	}
	f.close()
}

func (f *frozen) close() {
	for _, h := range f.threads {
		windows.CloseHandle(h)
	}
	f.threads = nil
}

// threadContext is a CONTEXT record limited to CONTEXT_CONTROL. The layout
// constants come from the per-architecture files.
type threadContext struct {
	buf []byte
	p   unsafe.Pointer
}

func newThreadContext() *threadContext {
	buf := make([]byte, contextSize+contextAlign)
	off := (contextAlign - uintptr(unsafe.Pointer(&buf[0]))%contextAlign) % contextAlign
	return &threadContext{buf: buf, p: unsafe.Pointer(&buf[off])}
}

func (c *threadContext) reset() {
	clear(c.buf)
	*(*uint32)(unsafe.Add(c.p, contextFlagsOffset)) = contextControl
}

func (c *threadContext) addr() uintptr { return uintptr(c.p) }

func (c *threadContext) ip() uintptr { return *(*uintptr)(unsafe.Add(c.p, contextIPOffset)) }

func (c *threadContext) setIP(ip uintptr) { *(*uintptr)(unsafe.Add(c.p, contextIPOffset)) = ip }
