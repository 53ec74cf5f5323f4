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

import "time"

const (
	MEMORY_SIZE     = 0x1000
	MEMSPACE_FONT   = 0x050
	MEMSPACE_USER   = 0x200
	MEMSPACE_SCREEN = 0xF00
	MAX_ADDRESS     = 0xFFF
)

const (
	SCREEN_WIDTH  = 64
	SCREEN_HEIGHT = 32
	SCREEN_PITCH  = SCREEN_WIDTH / 8
	SCREEN_SIZE   = SCREEN_PITCH * SCREEN_HEIGHT
)

const (
	GLYPH_SIZE = 5
	NUM_KEYS   = 16
	NUM_REGS   = 16

	// Register VF doubles as the carry/borrow/collision flag
	REG_FLAG = 0xF

	// Reported as the latest key when nothing is pressed
	KEY_NONE uint8 = 16
)

const (
	DEFAULT_HZ     = 700
	TIMER_INTERVAL = 16 * time.Millisecond
)

const (
	OP_SYS  uint8 = 0x0
	OP_JP   uint8 = 0x1
	OP_CALL uint8 = 0x2
	OP_SE   uint8 = 0x3
	OP_SNE  uint8 = 0x4
	OP_SER  uint8 = 0x5
	OP_LD   uint8 = 0x6
	OP_ADD  uint8 = 0x7
	OP_ALU  uint8 = 0x8
	OP_SNER uint8 = 0x9
	OP_LDI  uint8 = 0xA
	OP_JPV0 uint8 = 0xB
	OP_RND  uint8 = 0xC
	OP_DRW  uint8 = 0xD
	OP_KEY  uint8 = 0xE
	OP_MISC uint8 = 0xF
)

var Font = [NUM_KEYS * GLYPH_SIZE]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// GlyphAddr returns the address of the font glyph for hex digit d.
func GlyphAddr(d uint8) uint16 {
	return MEMSPACE_FONT + GLYPH_SIZE*uint16(d&0xF)
}
