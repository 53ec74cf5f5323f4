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
	"errors"
	"fmt"
)

var ErrProgramTooLarge = errors.New("Program does not fit in memory")

type UnknownInstructionError struct {
	Addr uint16
	Word uint16
}

func (err *UnknownInstructionError) Error() string {
	return fmt.Sprintf("%#04x: Unknown instruction %04X", err.Addr, err.Word)
}

type StackUnderflowError struct {
	Addr uint16
}

func (err *StackUnderflowError) Error() string {
	return fmt.Sprintf("%#04x: Return with empty call stack", err.Addr)
}

// AddressError is a write outside of writable memory. Instruction and Word
// identify the store that faulted and stay zero for writes made while
// loading a program.
type AddressError struct {
	Addr     uint16
	ReadOnly bool

	Instruction uint16
	Word        uint16
}

func (err *AddressError) Error() string {
	kind := "invalid"
	if err.ReadOnly {
		kind = "read-only"
	}

	if err.Word == 0 {
		return fmt.Sprintf("Write to %s address %#04x", kind, err.Addr)
	}

	return fmt.Sprintf(
		"%#04x: Write to %s address %#04x by %04X",
		err.Instruction, kind, err.Addr, err.Word,
	)
}
