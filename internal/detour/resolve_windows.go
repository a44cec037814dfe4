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

package detour

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// moduleResolver looks symbols up in modules that are already mapped; it
// never calls LoadLibrary, so resolving has no side effects on the host.
type moduleResolver struct{}

func (moduleResolver) Resolve(module, symbol string) (uintptr, error) {
	name, err := windows.UTF16PtrFromString(module)
	if err != nil {
		return 0, fmt.Errorf("%w: module name %q: %w", ErrSymbolResolution, module, err)
	}
	var h windows.Handle
	if err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, name, &h); err != nil {
		return 0, fmt.Errorf("%w: %s is not loaded: %w", ErrSymbolResolution, module, err)
	}
	addr, err := windows.GetProcAddress(h, symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %s!%s: %w", ErrSymbolResolution, module, symbol, err)
	}
	return addr, nil
}

// Default returns the manager for the running process.
func Default() *Manager {
	return NewManager(moduleResolver{}, newPatcher())
}
