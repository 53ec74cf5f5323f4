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

//go:build headless

package window

import (
	"errors"

	"github.com/lassandro/gochip8/pkg/machine"
)

var ErrUnavailable = errors.New("Window support not built (headless)")

type Window struct {
	Title string
	Scale int
}

func New(title string, scale int) *Window {
	return &Window{Title: title, Scale: max(scale, 1)}
}

func (w *Window) Render(frame machine.Frame) error {
	return nil
}

func (w *Window) PollKeys() machine.KeyState {
	return machine.NewKeyState([machine.NUM_KEYS]bool{})
}

func (w *Window) Run() error {
	return ErrUnavailable
}

func PickFile(startDir string) (string, error) {
	return "", ErrUnavailable
}
