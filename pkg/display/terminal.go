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

package display

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash"
	"golang.org/x/term"

	"github.com/lassandro/gochip8/pkg/machine"
)

const (
	// Refreshes a pixel stays visible after it is switched off
	PERSISTENCE = 4

	TERM_COLUMNS = machine.SCREEN_WIDTH*2 + 2
	TERM_ROWS    = machine.SCREEN_HEIGHT + 2

	// Row the cursor is parked on after each redraw
	TERM_PARK_ROW = TERM_ROWS + 2
)

type TerminalSizeError struct {
	Columns int
	Rows    int
}

func (err *TerminalSizeError) Error() string {
	return fmt.Sprintf(
		"Terminal too small\n\twant:%dx%d\n\thave:%dx%d",
		TERM_COLUMNS, TERM_ROWS, err.Columns, err.Rows,
	)
}

// Terminal draws frames with ANSI cursor addressing inside a box drawn with
// double-line characters, each pixel two cells wide. Switched off pixels
// fade over PERSISTENCE refreshes which hides the flicker of XOR sprites.
type Terminal struct {
	out    *bufio.Writer
	pixels [machine.SCREEN_HEIGHT][machine.SCREEN_WIDTH]uint8
	hash   uint64
	fading bool
	drawn  bool
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{out: bufio.NewWriter(w)}
}

// CheckSize reports a *TerminalSizeError when the terminal behind fd cannot
// hold the frame.
func CheckSize(fd int) error {
	columns, rows, err := term.GetSize(fd)

	if err != nil {
		return err
	}

	if columns < TERM_COLUMNS || rows < TERM_ROWS {
		return &TerminalSizeError{columns, rows}
	}

	return nil
}

// Clear blanks the terminal and homes the cursor.
func (t *Terminal) Clear() error {
	t.out.WriteString("\033[2J\033[H")
	return t.out.Flush()
}

// Update ages the persistence grid by one refresh and reports whether any
// pixel changed visibility.
func (t *Terminal) Update(frame machine.Frame) bool {
	changed := false
	t.fading = false

	for y := 0; y < machine.SCREEN_HEIGHT; y++ {
		for x := 0; x < machine.SCREEN_WIDTH; x++ {
			cell := &t.pixels[y][x]

			if frame.Pixel(x, y) {
				if *cell == 0 {
					changed = true
				}

				*cell = PERSISTENCE
			} else if *cell > 0 {
				*cell--

				if *cell == 0 {
					changed = true
				} else {
					t.fading = true
				}
			}
		}
	}

	return changed
}

// Visible reports whether the pixel at x, y is currently drawn.
func (t *Terminal) Visible(x, y int) bool {
	return t.pixels[y][x] > 0
}

func (t *Terminal) Render(frame machine.Frame) error {
	hash := xxhash.Sum64(frame[:])

	// Nothing can change until the frame does or a pixel finishes fading
	if t.drawn && hash == t.hash && !t.fading {
		return nil
	}

	t.hash = hash

	if !t.Update(frame) && t.drawn {
		return nil
	}

	t.drawn = true
	t.draw()

	return t.out.Flush()
}

func (t *Terminal) draw() {
	border := strings.Repeat("═", TERM_COLUMNS-2)

	fmt.Fprintf(t.out, "\033[1;1H╔%s╗", border)

	for y := 0; y < machine.SCREEN_HEIGHT; y++ {
		fmt.Fprintf(t.out, "\033[%d;1H║", y+2)

		for x := 0; x < machine.SCREEN_WIDTH; x++ {
			if t.pixels[y][x] > 0 {
				t.out.WriteString("██")
			} else {
				t.out.WriteString("  ")
			}
		}

		t.out.WriteString("║")
	}

	fmt.Fprintf(t.out, "\033[%d;1H╚%s╝", TERM_ROWS, border)
	fmt.Fprintf(t.out, "\033[%d;1H", TERM_PARK_ROW)
}
