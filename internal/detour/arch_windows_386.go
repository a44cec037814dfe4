//go:build windows && 386

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

var hostArch = I386

// CONTEXT layout on x86 (winnt.h).
const (
	contextSize        = 0x2CC
	contextAlign       = 4
	contextFlagsOffset = 0
	contextIPOffset    = 0xB8       // Eip
	contextControl     = 0x00010001 // CONTEXT_i386 | CONTEXT_CONTROL
)
