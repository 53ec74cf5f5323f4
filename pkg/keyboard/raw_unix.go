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

//go:build unix

package keyboard

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

type rawState = *term.State

const pollInterval = 5 * time.Millisecond

// Open puts the terminal behind fd in raw non-blocking mode and starts
// feeding its input to a new Keyboard. Close restores the terminal.
func Open(fd int) (*Keyboard, error) {
	if !term.IsTerminal(fd) {
		return nil, errors.New("Input is not a terminal")
	}

	state, err := term.MakeRaw(fd)

	if err != nil {
		return nil, err
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		term.Restore(fd, state)
		return nil, err
	}

	k := New()
	k.fd = fd
	k.raw = true
	k.state = state
	k.stop = make(chan struct{})
	k.done = make(chan struct{})

	go k.readLoop()

	return k, nil
}

func (k *Keyboard) readLoop() {
	defer close(k.done)

	buf := make([]byte, 64)

	for {
		select {
		case <-k.stop:
			return
		default:
		}

		n, err := unix.Read(k.fd, buf)

		if n > 0 {
			k.Feed(buf[:n])
			continue
		}

		if err != nil && err != unix.EAGAIN && err != unix.EWOULDBLOCK && err != unix.EINTR {
			return
		}

		time.Sleep(pollInterval)
	}
}

func (k *Keyboard) Close() error {
	if !k.raw {
		return nil
	}

	close(k.stop)
	<-k.done

	k.raw = false

	if err := unix.SetNonblock(k.fd, false); err != nil {
		term.Restore(k.fd, k.state)
		return err
	}

	return term.Restore(k.fd, k.state)
}
