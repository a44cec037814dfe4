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

// Package vkey maps Win32 virtual-key codes onto the semantic keys the
// overlay UI understands.
package vkey

import "fmt"

// Key is a platform independent key identifier.
type Key uint8

const (
	Unknown Key = iota

	ArrowDown
	ArrowLeft
	ArrowRight
	ArrowUp

	Escape
	Tab
	Backspace
	Enter
	Space

	Insert
	Delete
	Home
	End
	PageUp
	PageDown

	Num0
	Num1
	Num2
	Num3
	Num4
	Num5
	Num6
	Num7
	Num8
	Num9

	A
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z

	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	F13
	F14
	F15
	F16
	F17
	F18
	F19
	F20
	F21
	F22
	F23
	F24

	keyCount
)

// Win32 virtual-key codes, see WinUser.h.
const (
	VK_BACK   = 0x08
	VK_TAB    = 0x09
	VK_RETURN = 0x0D
	VK_ESCAPE = 0x1B
	VK_SPACE  = 0x20
	VK_PRIOR  = 0x21
	VK_NEXT   = 0x22
	VK_END    = 0x23
	VK_HOME   = 0x24
	VK_LEFT   = 0x25
	VK_UP     = 0x26
	VK_RIGHT  = 0x27
	VK_DOWN   = 0x28
	VK_INSERT = 0x2D
	VK_DELETE = 0x2E
	VK_0      = 0x30
	VK_9      = 0x39
	VK_A      = 0x41
	VK_Z      = 0x5A
	VK_F1     = 0x70
	VK_F24    = 0x87
)

// keyRange maps a contiguous block of virtual-key codes onto a contiguous
// block of keys.
type keyRange struct {
	first, last uint32
	base        Key
}

var ranges = [...]keyRange{
	{VK_0, VK_9, Num0},
	{VK_A, VK_Z, A},
	{VK_F1, VK_F24, F1},
}

var singles = map[uint32]Key{
	VK_DOWN:   ArrowDown,
	VK_LEFT:   ArrowLeft,
	VK_RIGHT:  ArrowRight,
	VK_UP:     ArrowUp,
	VK_ESCAPE: Escape,
	VK_TAB:    Tab,
	VK_BACK:   Backspace,
	VK_RETURN: Enter,
	VK_SPACE:  Space,
	VK_INSERT: Insert,
	VK_DELETE: Delete,
	VK_HOME:   Home,
	VK_END:    End,
	VK_PRIOR:  PageUp,
	VK_NEXT:   PageDown,
}

// Translate returns the semantic key for vk. Codes outside the table
// report false.
func Translate(vk uint32) (Key, bool) {
	for _, r := range ranges {
		if vk >= r.first && vk <= r.last {
			return r.base + Key(vk-r.first), true
		}
	}
	k, ok := singles[vk]
	return k, ok
}

var names = [keyCount]string{
	Unknown:    "Unknown",
	ArrowDown:  "ArrowDown",
	ArrowLeft:  "ArrowLeft",
	ArrowRight: "ArrowRight",
	ArrowUp:    "ArrowUp",
	Escape:     "Escape",
	Tab:        "Tab",
	Backspace:  "Backspace",
	Enter:      "Enter",
	Space:      "Space",
	Insert:     "Insert",
	Delete:     "Delete",
	Home:       "Home",
	End:        "End",
	PageUp:     "PageUp",
	PageDown:   "PageDown",
}

func (k Key) String() string {
	switch {
	case k >= Num0 && k <= Num9:
		return fmt.Sprintf("Num%d", k-Num0)
	case k >= A && k <= Z:
		return string(rune('A' + (k - A)))
	case k >= F1 && k <= F24:
		return fmt.Sprintf("F%d", k-F1+1)
	case k < keyCount && names[k] != "":
		return names[k]
	}
	return fmt.Sprintf("Key(%d)", uint8(k))
}
