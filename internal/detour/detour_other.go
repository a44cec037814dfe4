//go:build !windows

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

type unsupportedResolver struct{}

func (unsupportedResolver) Resolve(module, symbol string) (uintptr, error) {
	return 0, ErrUnsupported
}

type unsupportedPatcher struct{}

func (unsupportedPatcher) Prepare(t Target, address uintptr, replacement any) (Patch, error) {
	return nil, ErrUnsupported
}

// Default returns a manager whose every operation fails with
// ErrUnsupported.
func Default() *Manager {
	return NewManager(unsupportedResolver{}, unsupportedPatcher{})
}
