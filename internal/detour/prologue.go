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
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Arch is the instruction set a detour is written for: how the prologue is
// decoded and how an absolute jump is encoded.
type Arch struct {
	// Mode is the x86asm decoding mode, 32 or 64.
	Mode int
	// JumpLen is the size of the jump Jump encodes, and so the least number
	// of prologue bytes a detour overwrites.
	JumpLen int
}

var (
	// AMD64 jumps with `jmp qword ptr [rip+0]; dq target`.
	AMD64 = Arch{Mode: 64, JumpLen: 14}
	// I386 jumps with `push imm32; ret`, which needs no relocation.
	I386 = Arch{Mode: 32, JumpLen: 6}
)

// ErrRelativeInstruction means the prologue contains an instruction whose
// meaning depends on its address, so it cannot be moved to a trampoline.
var ErrRelativeInstruction = errors.New("relative instruction in prologue")

// StolenLength decodes whole instructions from the start of code until at
// least JumpLen bytes are covered and returns how many bytes that is.
func (a Arch) StolenLength(code []byte) (int, error) {
	n := 0
	for n < a.JumpLen {
		if n >= len(code) {
			return 0, fmt.Errorf("prologue shorter than %d bytes", a.JumpLen)
		}
		inst, err := x86asm.Decode(code[n:], a.Mode)
		if err != nil {
			return 0, fmt.Errorf("decode at +%d: %w", n, err)
		}
		if isRelative(inst) {
			return 0, fmt.Errorf("%w: %v at +%d", ErrRelativeInstruction, inst, n)
		}
		n += inst.Len
	}
	return n, nil
}

func isRelative(inst x86asm.Inst) bool {
	for _, a := range inst.Args {
		switch a := a.(type) {
		case nil:
			return false
		case x86asm.Rel:
			return true
		case x86asm.Mem:
			if a.Base == x86asm.RIP {
				return true
			}
		}
	}
	return false
}

// Jump encodes an absolute jump to target.
func (a Arch) Jump(target uintptr) []byte {
	b := make([]byte, a.JumpLen)
	if a.Mode == 32 {
		b[0] = 0x68 // push imm32
		binary.LittleEndian.PutUint32(b[1:], uint32(target))
		b[5] = 0xC3 // ret
		return b
	}
	b[0], b[1] = 0xFF, 0x25 // jmp [rip+disp32], disp32 = 0
	binary.LittleEndian.PutUint64(b[6:], uint64(target))
	return b
}

// Trampoline returns the stolen prologue followed by a jump back to the
// first instruction after it. The stolen bytes keep their offsets, so an
// instruction pointer inside them maps one to one (see relocateIP).
func (a Arch) Trampoline(stolen []byte, resume uintptr) []byte {
	out := make([]byte, 0, len(stolen)+a.JumpLen)
	out = append(out, stolen...)
	return append(out, a.Jump(resume)...)
}

// PatchBytes returns the bytes written over the first n bytes of the
// target: a jump to replacement padded with int3.
func (a Arch) PatchBytes(replacement uintptr, n int) []byte {
	b := make([]byte, n)
	copy(b, a.Jump(replacement))
	for i := a.JumpLen; i < n; i++ {
		b[i] = 0xCC
	}
	return b
}

// relocateIP maps an instruction pointer inside the n bytes at from to the
// same offset at to. It reports false, and returns ip unchanged, when ip is
// outside that range.
func relocateIP(ip, from, to uintptr, n int) (uintptr, bool) {
	if ip < from || ip-from >= uintptr(n) {
		return ip, false
	}
	return to + (ip - from), true
}
