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
	"fmt"

	"github.com/lassandro/gochip8/pkg/encoding"
)

// Instruction is a decoded word as four nibbles, most significant first.
type Instruction [4]uint8

func Decode(word uint16) Instruction {
	n0, n1, n2, n3 := encoding.Nibbles(word)
	return Instruction{n0, n1, n2, n3}
}

func (in Instruction) Word() uint16 {
	return encoding.Word(encoding.Byte(in[0], in[1]), encoding.Byte(in[2], in[3]))
}

func (in Instruction) X() uint8 { return in[1] }
func (in Instruction) Y() uint8 { return in[2] }
func (in Instruction) N() uint8 { return in[3] }

func (in Instruction) NN() uint8 {
	return encoding.Byte(in[2], in[3])
}

func (in Instruction) NNN() uint16 {
	return encoding.Addr(in[1], in[2], in[3])
}

func (in Instruction) String() string {
	return fmt.Sprintf("%X%X%X%X", in[0], in[1], in[2], in[3])
}
