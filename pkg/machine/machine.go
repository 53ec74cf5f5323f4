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
	"context"
	"io"
	"math/rand"
	"time"

	"github.com/lassandro/gochip8/pkg/encoding"
)

func New() *Machine {
	var mc Machine
	mc.State.Reset()
	return &mc
}

func (mc *MachineState) Reset() {
	mc.Memory.Reset()
	mc.Registers = Registers{}
	mc.Stack = nil
	mc.Delay = Timer{}
	mc.Sound = Timer{}
	mc.Keypad.Reset()

	mc.Program = MEMSPACE_USER
	mc.Cycles = 0
	mc.Halted = false
}

// Load resets the machine and copies program into memory at MEMSPACE_USER.
func (mc *Machine) Load(program []byte) error {
	if len(program) > MEMORY_SIZE-MEMSPACE_USER {
		return ErrProgramTooLarge
	}

	mc.State.Reset()

	for i, b := range program {
		if err := mc.State.Memory.Write(MEMSPACE_USER+uint16(i), b); err != nil {
			return err
		}
	}

	return nil
}

func (mc *Machine) LoadBin(reader io.Reader) error {
	program, err := io.ReadAll(reader)

	if err != nil {
		return err
	}

	return mc.Load(program)
}

func (mc *Machine) now() time.Time {
	if mc.Now != nil {
		return mc.Now()
	}

	return time.Now()
}

func (mc *Machine) sleep(d time.Duration) {
	if d <= 0 {
		return
	}

	if mc.Sleep != nil {
		mc.Sleep(d)
	} else {
		time.Sleep(d)
	}
}

func (mc *Machine) random() uint8 {
	if mc.Rand == nil {
		mc.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return uint8(mc.Rand.Intn(256))
}

// Period is the time budget of one cycle at the configured frequency.
func (mc *Machine) Period() time.Duration {
	hz := mc.Hz

	if hz == 0 {
		hz = DEFAULT_HZ
	} else if hz < 0 {
		return 0
	}

	return time.Duration(1000000/hz) * time.Microsecond
}

// Step runs a single cycle: timers, keypad, fetch, execute and render. A zero
// word halts the machine without executing anything.
func (mc *Machine) Step() error {
	if mc.State.Halted {
		return nil
	}

	now := mc.now()
	mc.State.Delay.Update(now)
	mc.State.Sound.Update(now)
	mc.State.Keypad.Update(mc.Keys)

	hi := mc.State.Memory.Read(mc.State.Program)
	lo := mc.State.Memory.Read(mc.State.Program + 1)
	mc.State.Program += 2

	if hi == 0 && lo == 0 {
		mc.State.Halted = true
		return nil
	}

	if err := mc.Execute(Decode(encoding.Word(hi, lo))); err != nil {
		return err
	}

	mc.State.Cycles++

	if mc.Renderer != nil {
		return mc.Renderer.Render(mc.State.Memory.Display())
	}

	return nil
}

// Run steps the machine until it halts, an instruction faults or ctx is done,
// sleeping between cycles to hold the configured frequency.
func (mc *Machine) Run(ctx context.Context) error {
	period := mc.Period()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := mc.Step(); err != nil {
			return err
		}

		if mc.State.Halted {
			return nil
		}

		mc.sleep(period)
	}
}
