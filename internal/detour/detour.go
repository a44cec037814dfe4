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

// Package detour redirects calls to an exported function of an already
// loaded module to a replacement, keeping the original reachable.
package detour

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrSymbolResolution means the exported symbol was not found in the
	// target module, or the module is not loaded.
	ErrSymbolResolution = errors.New("symbol resolution failed")
	// ErrHookInstall means the trampoline could not be built.
	ErrHookInstall = errors.New("hook install failed")
	// ErrHookEnable means the entry of the target could not be redirected.
	ErrHookEnable = errors.New("hook enable failed")
	// ErrAlreadyHooked is returned by Install for an address that already
	// has a live binding.
	ErrAlreadyHooked = fmt.Errorf("%w: target already hooked", ErrHookInstall)
	// ErrUnsupported is returned where no patcher exists for the platform.
	ErrUnsupported = errors.New("detours are not supported on this platform")
)

// State is the lifecycle of a Binding.
type State uint32

const (
	Uninitialized State = iota
	Installed
	Enabled
	Disabled
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Installed:
		return "installed"
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// Target names a hooked function.
type Target struct {
	Module string
	Symbol string
}

func (t Target) String() string { return t.Module + "!" + t.Symbol }

// Resolver finds exported symbols in modules already mapped into the
// process. It must not load anything.
type Resolver interface {
	Resolve(module, symbol string) (uintptr, error)
}

// Patcher builds the per-target machinery of a detour. replacement is a Go
// func whose signature matches the target; the patcher turns it into a
// native entry point.
type Patcher interface {
	Prepare(t Target, address uintptr, replacement any) (Patch, error)
}

// Patch is one prepared detour.
type Patch interface {
	// Replacement is the native entry point calls are redirected to, or 0
	// if the patcher does not expose it.
	Replacement() uintptr
	// Trampoline is the address that runs the original implementation.
	Trampoline() uintptr
	Enable() error
	Disable() error
	// CallOriginal runs the original implementation. Before Enable and
	// after Disable it calls the target address directly.
	CallOriginal(args ...uintptr) uintptr
}

// Binding is the single detour of one target function.
type Binding struct {
	Target        Target
	TargetAddress uintptr

	mgr   *Manager
	patch Patch
	state atomic.Uint32
	mu    sync.Mutex
}

// State reports the current lifecycle state.
func (b *Binding) State() State { return State(b.state.Load()) }

// Trampoline is the address of the preserved original entry code.
func (b *Binding) Trampoline() uintptr { return b.patch.Trampoline() }

// ReplacementAddress is where calls to the target now go.
func (b *Binding) ReplacementAddress() uintptr { return b.patch.Replacement() }

// Enable redirects the target entry to the replacement.
func (b *Binding) Enable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s := b.State(); s != Installed {
		return fmt.Errorf("%w: %s is %s", ErrHookEnable, b.Target, s)
	}
	if err := b.patch.Enable(); err != nil {
		if errors.Is(err, ErrHookEnable) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrHookEnable, b.Target, err)
	}
	b.state.Store(uint32(Enabled))
	return nil
}

// Disable restores the original entry code. The binding cannot be enabled
// again; a new one may be installed for the same target afterwards.
func (b *Binding) Disable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.State() {
	case Disabled:
		return nil
	case Enabled:
		if err := b.patch.Disable(); err != nil {
			return fmt.Errorf("disable %s: %w", b.Target, err)
		}
	}
	b.state.Store(uint32(Disabled))
	b.mgr.forget(b)
	return nil
}

// CallThrough invokes the original implementation with args and returns its
// result unchanged.
func (b *Binding) CallThrough(args ...uintptr) uintptr {
	return b.patch.CallOriginal(args...)
}

// Manager owns every binding of the process.
type Manager struct {
	resolver Resolver
	patcher  Patcher

	mu       sync.Mutex
	bindings map[uintptr]*Binding
}

// NewManager wires a resolver and patcher together.
func NewManager(r Resolver, p Patcher) *Manager {
	return &Manager{resolver: r, patcher: p, bindings: make(map[uintptr]*Binding)}
}

// Resolve returns the address of symbol exported by module.
func (m *Manager) Resolve(module, symbol string) (uintptr, error) {
	addr, err := m.resolver.Resolve(module, symbol)
	if err != nil {
		if errors.Is(err, ErrSymbolResolution) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %s!%s: %w", ErrSymbolResolution, module, symbol, err)
	}
	if addr == 0 {
		return 0, fmt.Errorf("%w: %s!%s resolved to a null address", ErrSymbolResolution, module, symbol)
	}
	return addr, nil
}

// Install prepares a detour of address to replacement and returns it in
// the Installed state.
func (m *Manager) Install(t Target, address uintptr, replacement any) (*Binding, error) {
	if address == 0 {
		return nil, fmt.Errorf("%w: %s: null target address", ErrHookInstall, t)
	}
	if replacement == nil {
		return nil, fmt.Errorf("%w: %s: nil replacement", ErrHookInstall, t)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.bindings[address]; ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrAlreadyHooked, t, prev.State())
	}
	patch, err := m.patcher.Prepare(t, address, replacement)
	if err != nil {
		if errors.Is(err, ErrHookInstall) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrHookInstall, t, err)
	}
	b := &Binding{Target: t, TargetAddress: address, mgr: m, patch: patch}
	b.state.Store(uint32(Installed))
	m.bindings[address] = b
	return b, nil
}

func (m *Manager) forget(b *Binding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bindings[b.TargetAddress] == b {
		delete(m.bindings, b.TargetAddress)
	}
}
