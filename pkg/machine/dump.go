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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/gochip8/pkg/encoding"
)

// DumpProgram writes one "NN: WWWW" line per instruction word of program. A
// trailing odd byte is not listed.
func DumpProgram(w io.Writer, program []byte) error {
	out := bufio.NewWriter(w)

	for i := 0; i+1 < len(program); i += 2 {
		word := encoding.Word(program[i], program[i+1])
		fmt.Fprintf(out, "%02X: %04X\n", i/2, word)
	}

	return out.Flush()
}

// DumpMemory writes the whole address space as a table of 32 columns.
func DumpMemory(w io.Writer, mem *Memory) error {
	out := bufio.NewWriter(w)

	fmt.Fprint(out, "     ")
	for col := 0; col < 32; col++ {
		fmt.Fprintf(out, "%02X ", col)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "     %s\n", strings.Repeat("-", 32*3))

	for row := 0; row < MEMORY_SIZE/32; row++ {
		fmt.Fprintf(out, "%03X: ", row*32)

		for col := 0; col < 32; col++ {
			fmt.Fprintf(out, "%02X ", mem.Read(uint16(row*32+col)))
		}

		fmt.Fprintln(out)
	}

	return out.Flush()
}
