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

// Memory is the 4K address space. The font occupies 0x050-0x09F and the
// display is mapped onto the last 256 bytes.
type Memory struct {
	bytes [MEMORY_SIZE]byte
}

func (m *Memory) Reset() {
	for i := range m.bytes {
		m.bytes[i] = 0x00
	}

	copy(m.bytes[MEMSPACE_FONT:], Font[:])
}

// Read never faults, addresses past the end read as zero.
func (m *Memory) Read(addr uint16) uint8 {
	if int(addr) >= len(m.bytes) {
		return 0
	}

	return m.bytes[addr]
}

func (m *Memory) Write(addr uint16, value uint8) error {
	if int(addr) >= len(m.bytes) {
		return &AddressError{Addr: addr}
	}

	if addr >= MEMSPACE_FONT && addr < MEMSPACE_FONT+uint16(len(Font)) {
		return &AddressError{Addr: addr, ReadOnly: true}
	}

	m.bytes[addr] = value
	return nil
}

// FlipPixel toggles the pixel at (x, y) and reports whether it was set
// before the flip. Coordinates off the screen are ignored.
func (m *Memory) FlipPixel(x, y uint8) bool {
	if x >= SCREEN_WIDTH || y >= SCREEN_HEIGHT {
		return false
	}

	addr := MEMSPACE_SCREEN + (uint16(x)+uint16(y)*SCREEN_WIDTH)/8
	mask := uint8(1) << (7 - x%8)

	current := m.bytes[addr]
	m.bytes[addr] = current ^ mask

	return current&mask != 0
}

func (m *Memory) ClearDisplay() {
	for i := MEMSPACE_SCREEN; i <= MAX_ADDRESS; i++ {
		m.bytes[i] = 0x00
	}
}

func (m *Memory) Display() Frame {
	var frame Frame
	copy(frame[:], m.bytes[MEMSPACE_SCREEN:])
	return frame
}

// Pixel reports whether the pixel at (x, y) is lit. Coordinates outside the
// screen are never lit.
func (f *Frame) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= SCREEN_WIDTH || y >= SCREEN_HEIGHT {
		return false
	}

	return f[y*SCREEN_PITCH+x/8]&(1<<(7-x%8)) != 0
}

// Registers holds V0-VF and the index register I.
type Registers struct {
	V [NUM_REGS]uint8
	I uint16
}

func (r *Registers) Get(idx uint8) uint8 {
	if int(idx) >= len(r.V) {
		return 0
	}

	return r.V[idx]
}

func (r *Registers) Set(idx uint8, value uint8) {
	if int(idx) >= len(r.V) {
		panic("Invalid register index")
	}

	r.V[idx] = value
}

func (r *Registers) SetFlag(value uint8) {
	r.V[REG_FLAG] = value
}

func (r *Registers) Index() uint16 {
	return r.I
}

func (r *Registers) SetIndex(addr uint16) {
	if addr > MAX_ADDRESS {
		panic("Invalid index register value")
	}

	r.I = addr
}

// Stack holds return addresses. It grows without bound.
type Stack []uint16

func (s *Stack) Push(addr uint16) {
	*s = append(*s, addr)
}

func (s *Stack) Pop() (uint16, bool) {
	if len(*s) == 0 {
		return 0, false
	}

	top := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return top, true
}

// Timer counts down by one every TIMER_INTERVAL once set.
type Timer struct {
	Value uint8
	last  time.Time
}

func (t *Timer) Get() uint8 {
	return t.Value
}

func (t *Timer) Set(value uint8, now time.Time) {
	t.Value = value
	t.last = now
}

// Update decrements the timer if a full interval has passed since the last
// decrement. The clock is left alone while the timer sits at zero.
func (t *Timer) Update(now time.Time) {
	if t.Value == 0 {
		return
	}

	if now.Sub(t.last) >= TIMER_INTERVAL {
		t.Value--
		t.last = now
	}
}

// Keypad latches the key state once per cycle.
type Keypad struct {
	state KeyState
}

// NewKeyState builds a snapshot, taking the highest pressed key as the
// latest one.
func NewKeyState(keys [NUM_KEYS]bool) KeyState {
	state := KeyState{Keys: keys, Latest: KEY_NONE}

	for i, pressed := range keys {
		if pressed {
			state.Latest = uint8(i)
		}
	}

	return state
}

func (k *Keypad) Reset() {
	k.state = KeyState{Latest: KEY_NONE}
}

func (k *Keypad) Set(state KeyState) {
	k.state = state
}

// Update replaces the whole snapshot from src. A nil source releases every
// key.
func (k *Keypad) Update(src KeySource) {
	if src == nil {
		k.Reset()
		return
	}

	k.state = src.PollKeys()
}

func (k *Keypad) Pressed(key uint8) bool {
	if int(key) >= len(k.state.Keys) {
		return false
	}

	return k.state.Keys[key]
}

func (k *Keypad) Latest() uint8 {
	return k.state.Latest
}
