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

// Package keyboard reads the keypad from a terminal. Terminals only report
// key presses, so a key counts as held for a short window after its last
// byte arrives; the terminal's autorepeat keeps a held key alive.
package keyboard

import (
	"sync"
	"time"

	"github.com/lassandro/gochip8/pkg/machine"
)

// Keys for keypad indices 0 through F
const Layout = "X123QWEASDZC4RFV"

const DEFAULT_HOLD = 150 * time.Millisecond

// Byte sent by Ctrl-C while the terminal is raw
const ETX = 0x03

func KeyIndex(b byte) (uint8, bool) {
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}

	for i := 0; i < len(Layout); i++ {
		if Layout[i] == b {
			return uint8(i), true
		}
	}

	return 0, false
}

type Keyboard struct {
	Hold time.Duration
	Now  func() time.Time

	mu        sync.Mutex
	seen      [machine.NUM_KEYS]time.Time
	interrupt chan struct{}
	once      sync.Once

	// Set by Open
	fd    int
	stop  chan struct{}
	done  chan struct{}
	raw   bool
	state rawState
}

func New() *Keyboard {
	return &Keyboard{
		Hold:      DEFAULT_HOLD,
		interrupt: make(chan struct{}),
	}
}

func (k *Keyboard) now() time.Time {
	if k.Now != nil {
		return k.Now()
	}

	return time.Now()
}

// Feed records the bytes read from the terminal.
func (k *Keyboard) Feed(data []byte) {
	now := k.now()

	k.mu.Lock()
	defer k.mu.Unlock()

	for _, b := range data {
		if b == ETX {
			k.once.Do(func() { close(k.interrupt) })
			continue
		}

		if key, ok := KeyIndex(b); ok {
			k.seen[key] = now
		}
	}
}

func (k *Keyboard) PollKeys() machine.KeyState {
	var keys [machine.NUM_KEYS]bool

	now := k.now()

	k.mu.Lock()
	for i, seen := range k.seen {
		keys[i] = !seen.IsZero() && now.Sub(seen) < k.Hold
	}
	k.mu.Unlock()

	return machine.NewKeyState(keys)
}

// Interrupted is closed once Ctrl-C is read.
func (k *Keyboard) Interrupted() <-chan struct{} {
	return k.interrupt
}
