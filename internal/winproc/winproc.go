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

// Package winproc subclasses a window: its procedure is swapped for ours,
// the original is kept so messages can be forwarded and so it can be put
// back on Release.
package winproc

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrSubclass       = errors.New("subclass window")
	ErrSubclassedOver = errors.New("window procedure was replaced by someone else")
	ErrNoOriginal     = errors.New("window has no original procedure")
)

// Installer is the platform's window procedure slot.
type Installer interface {
	// Swap stores proc as the procedure of window and returns the previous one.
	Swap(window, proc uintptr) (uintptr, error)
	// Current returns the procedure of window.
	Current(window uintptr) (uintptr, error)
	// Call invokes procedure prev with a message.
	Call(prev, hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr
}

// Subclasser acquires subclasses through an Installer.
type Subclasser struct {
	inst Installer
}

func New(inst Installer) *Subclasser { return &Subclasser{inst: inst} }

// Subclass makes proc the procedure of window.
func (s *Subclasser) Subclass(window, proc uintptr) (*Subclass, error) {
	if window == 0 || proc == 0 {
		return nil, fmt.Errorf("%w: window %#x, proc %#x", ErrSubclass, window, proc)
	}
	prev, err := s.inst.Swap(window, proc)
	if err != nil {
		return nil, fmt.Errorf("%w %#x: %w", ErrSubclass, window, err)
	}
	if prev == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSubclass, ErrNoOriginal)
	}
	return &Subclass{inst: s.inst, window: window, proc: proc, original: prev}, nil
}

// Subclass is an acquired window subclass.
type Subclass struct {
	inst     Installer
	window   uintptr
	proc     uintptr
	original uintptr
	released atomic.Bool
}

func (s *Subclass) Window() uintptr { return s.window }
func (s *Subclass) Original() uintptr { return s.original }

// CallOriginal forwards a message to the saved procedure. It keeps working
// after Release, for messages already on their way to us.
func (s *Subclass) CallOriginal(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	return s.inst.Call(s.original, hwnd, msg, wparam, lparam)
}

// Release puts the original procedure back. If another subclass was stacked
// on top of ours the slot is left alone and ErrSubclassedOver is returned;
// that subclass still forwards through us, so nothing breaks.
func (s *Subclass) Release() error {
	if !s.released.CompareAndSwap(false, true) {
		return nil
	}
	cur, err := s.inst.Current(s.window)
	if err != nil {
		return fmt.Errorf("release subclass of %#x: %w", s.window, err)
	}
	if cur != s.proc {
		return fmt.Errorf("release subclass of %#x: %w (now %#x)", s.window, ErrSubclassedOver, cur)
	}
	if _, err := s.inst.Swap(s.window, s.original); err != nil {
		return fmt.Errorf("release subclass of %#x: %w", s.window, err)
	}
	return nil
}
