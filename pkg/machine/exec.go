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

import "errors"

func (mc *Machine) skip() {
	mc.State.Program += 2
}

// Execute applies one decoded instruction to the machine state. The program
// counter is expected to already point past the instruction.
func (mc *Machine) Execute(in Instruction) error {
	regs := &mc.State.Registers
	mem := &mc.State.Memory
	addr := mc.State.Program - 2

	x, y, n := in.X(), in.Y(), in.N()

	switch in[0] {
	// CLS  |0000|0000|1110|0000| Clear display
	// RET  |0000|0000|1110|1110| Return from subroutine
	// SYS  |0000|NNN           | Machine code call (ignored)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SYS:
		switch in.Word() {
		case 0x00E0:
			mem.ClearDisplay()

		case 0x00EE:
			ret, ok := mc.State.Stack.Pop()

			if !ok {
				return &StackUnderflowError{Addr: addr}
			}

			mc.State.Program = ret
		}

	// JP   |0001|NNN           | Jump
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JP:
		mc.State.Program = in.NNN()

	// CALL |0010|NNN           | Call subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_CALL:
		mc.State.Stack.Push(mc.State.Program)
		mc.State.Program = in.NNN()

	// SE   |0011|X   |NN       | Skip if VX == NN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SE:
		if regs.Get(x) == in.NN() {
			mc.skip()
		}

	// SNE  |0100|X   |NN       | Skip if VX != NN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SNE:
		if regs.Get(x) != in.NN() {
			mc.skip()
		}

	// SE   |0101|X   |Y   |0000| Skip if VX == VY
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SER:
		if n != 0 {
			return &UnknownInstructionError{addr, in.Word()}
		}

		if regs.Get(x) == regs.Get(y) {
			mc.skip()
		}

	// LD   |0110|X   |NN       | VX = NN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD:
		regs.Set(x, in.NN())

	// ADD  |0111|X   |NN       | VX += NN, flag untouched
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD:
		regs.Set(x, regs.Get(x)+in.NN())

	// 8XY_ |1000|X   |Y   |OP  | Register arithmetic
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ALU:
		return mc.executeALU(in, addr)

	// SNE  |1001|X   |Y   |0000| Skip if VX != VY
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SNER:
		if n != 0 {
			return &UnknownInstructionError{addr, in.Word()}
		}

		if regs.Get(x) != regs.Get(y) {
			mc.skip()
		}

	// LD   |1010|NNN           | I = NNN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDI:
		regs.SetIndex(in.NNN())

	// JP   |1011|NNN           | Jump to NNN + V0
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JPV0:
		mc.State.Program = in.NNN() + uint16(regs.Get(0))

	// RND  |1100|X   |NN       | VX = random & NN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RND:
		regs.Set(x, mc.random()&in.NN())

	// DRW  |1101|X   |Y   |N   | Draw 8xN sprite at (VX, VY)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_DRW:
		mc.draw(regs.Get(x)%SCREEN_WIDTH, regs.Get(y)%SCREEN_HEIGHT, n)

	// SKP  |1110|X   |1001|1110| Skip if key VX pressed
	// SKNP |1110|X   |1010|0001| Skip if key VX not pressed
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_KEY:
		switch in.NN() {
		case 0x9E:
			if mc.State.Keypad.Pressed(regs.Get(x)) {
				mc.skip()
			}

		case 0xA1:
			if !mc.State.Keypad.Pressed(regs.Get(x)) {
				mc.skip()
			}

		default:
			return &UnknownInstructionError{addr, in.Word()}
		}

	// FX__ |1111|X   |OP       | Timers, keys, index and memory
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_MISC:
		return mc.executeMisc(in, addr)

	default:
		return &UnknownInstructionError{addr, in.Word()}
	}

	return nil
}

func (mc *Machine) executeALU(in Instruction, addr uint16) error {
	regs := &mc.State.Registers
	x, y := in.X(), in.Y()

	switch in.N() {
	// LD   VX, VY
	case 0x0:
		regs.Set(x, regs.Get(y))

	// OR   VX, VY
	case 0x1:
		regs.Set(x, regs.Get(x)|regs.Get(y))

	// AND  VX, VY
	case 0x2:
		regs.Set(x, regs.Get(x)&regs.Get(y))

	// XOR  VX, VY
	case 0x3:
		regs.Set(x, regs.Get(x)^regs.Get(y))

	// ADD  VX, VY (VF = carry)
	case 0x4:
		sum := uint16(regs.Get(x)) + uint16(regs.Get(y))
		regs.SetFlag(0)

		if sum >= 0x100 {
			sum -= 0x100
			regs.SetFlag(1)
		}

		regs.Set(x, uint8(sum))

	// SUB  VX, VY (VF = not borrow)
	case 0x5:
		regs.Set(x, mc.subtract(regs.Get(x), regs.Get(y)))

	// SHR  VX (VF = bit 0 of X itself, not of VX)
	case 0x6:
		value := regs.Get(x)
		regs.SetFlag(x & 0x1)
		regs.Set(x, value>>1)

	// SUBN VX, VY (VX = VY - VX)
	case 0x7:
		regs.Set(x, mc.subtract(regs.Get(y), regs.Get(x)))

	// SHL  VX (VF = bit 7 of X itself, not of VX)
	case 0xE:
		value := regs.Get(x)
		regs.SetFlag((x & 0x80) >> 7)
		regs.Set(x, value<<1)

	default:
		return &UnknownInstructionError{addr, in.Word()}
	}

	return nil
}

// subtract returns a - b wrapped to a byte, leaving VF set when no borrow
// occurred.
func (mc *Machine) subtract(a, b uint8) uint8 {
	diff := 0x100 + uint16(a) - uint16(b)
	mc.State.Registers.SetFlag(0)

	if diff >= 0x100 {
		diff -= 0x100
		mc.State.Registers.SetFlag(1)
	}

	return uint8(diff)
}

// draw XORs an n-row sprite read from I onto the screen at (x, y). Rows and
// columns past the screen edge are clipped. VF reports whether any lit pixel
// was turned off.
func (mc *Machine) draw(x, y, n uint8) {
	regs := &mc.State.Registers
	mem := &mc.State.Memory

	regs.SetFlag(0)

	for row := uint8(0); row < n; row++ {
		if y+row >= SCREEN_HEIGHT {
			break
		}

		sprite := mem.Read(regs.Index() + uint16(row))

		for col := uint8(0); col < 8; col++ {
			if x+col >= SCREEN_WIDTH {
				break
			}

			if sprite&(0x80>>col) == 0 {
				continue
			}

			if mem.FlipPixel(x+col, y+row) {
				regs.SetFlag(1)
			}
		}
	}
}

func (mc *Machine) executeMisc(in Instruction, addr uint16) error {
	regs := &mc.State.Registers
	mem := &mc.State.Memory
	x := in.X()

	switch in.NN() {
	// LD   VX, DT
	case 0x07:
		regs.Set(x, mc.State.Delay.Get())

	// LD   VX, K (repeats until a key is down)
	case 0x0A:
		if key := mc.State.Keypad.Latest(); key == KEY_NONE {
			mc.State.Program -= 2
		} else {
			regs.Set(x, key)
		}

	// LD   DT, VX
	case 0x15:
		mc.State.Delay.Set(regs.Get(x), mc.now())

	// LD   ST, VX
	case 0x18:
		mc.State.Sound.Set(regs.Get(x), mc.now())

	// ADD  I, VX (VF = 1 on 12-bit overflow, untouched otherwise)
	case 0x1E:
		sum := regs.Index() + uint16(regs.Get(x))

		if sum > MAX_ADDRESS {
			sum -= MEMORY_SIZE
			regs.SetFlag(1)
		}

		regs.SetIndex(sum)

	// LD   F, VX
	case 0x29:
		regs.SetIndex(GlyphAddr(regs.Get(x)))

	// LD   B, VX
	case 0x33:
		value := regs.Get(x)
		digits := [3]uint8{value / 100, (value % 100) / 10, value % 10}

		for i, digit := range digits {
			if err := mem.Write(regs.Index()+uint16(i), digit); err != nil {
				return storeFault(err, addr, in)
			}
		}

	// LD   [I], VX
	case 0x55:
		for i := uint8(0); i <= x; i++ {
			if err := mem.Write(regs.Index()+uint16(i), regs.Get(i)); err != nil {
				return storeFault(err, addr, in)
			}
		}

	// LD   VX, [I]
	case 0x65:
		for i := uint8(0); i <= x; i++ {
			regs.Set(i, mem.Read(regs.Index()+uint16(i)))
		}

	default:
		return &UnknownInstructionError{addr, in.Word()}
	}

	return nil
}

func storeFault(err error, addr uint16, in Instruction) error {
	var addrErr *AddressError
	if errors.As(err, &addrErr) {
		addrErr.Instruction = addr
		addrErr.Word = in.Word()
	}

	return err
}
