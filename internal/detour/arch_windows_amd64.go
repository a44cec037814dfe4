//go:build windows && amd64

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

var hostArch = AMD64

// CONTEXT layout on x64 (winnt.h).
const (
	contextSize        = 0x4D0
	contextAlign       = 16
	contextFlagsOffset = 0x30
	contextIPOffset    = 0xF8       // Rip
	contextControl     = 0x00100001 // CONTEXT_AMD64 | CONTEXT_CONTROL
)
