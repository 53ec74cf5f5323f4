// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import (
	"math/rand"
	"time"
)

// Frame is a copy of the display sub-range of memory: 64x32 pixels, one bit
// per pixel, row-major, most significant bit leftmost.
type Frame [SCREEN_SIZE]byte

// KeyState is one snapshot of the 16-key pad.
type KeyState struct {
	Keys   [NUM_KEYS]bool
	Latest uint8
}

// Renderer receives the display after every executed instruction.
type Renderer interface {
	Render(frame Frame) error
}

// KeySource is polled once per cycle and is the only writer of the keypad.
type KeySource interface {
	PollKeys() KeyState
}

type MachineState struct {
	Memory    Memory
	Registers Registers
	Stack     Stack
	Delay     Timer
	Sound     Timer
	Keypad    Keypad
	Program   uint16
	Cycles    uint64
	Halted    bool
}

type Machine struct {
	State    MachineState
	Renderer Renderer
	Keys     KeySource

	// Instructions per second. Zero selects DEFAULT_HZ, negative disables
	// pacing entirely.
	Hz int

	Rand  *rand.Rand
	Now   func() time.Time
	Sleep func(time.Duration)
}
