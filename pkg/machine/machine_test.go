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

package machine_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/lassandro/gochip8/pkg/machine"
)

type testMachineState struct {
	Registers [16]uint8
	Index     uint16
	Program   uint16
	Stack     []uint16
	Delay     uint8
	Sound     uint8
	Memory    map[uint16]uint8
}

type testCase struct {
	Name   string
	Steps  uint
	Keys   []uint8
	Input  testMachineState
	Output testMachineState
}

type failCase struct {
	Name  string
	Steps uint
	Input testMachineState
	Error error
}

type fixedKeys machine.KeyState

func (k fixedKeys) PollKeys() machine.KeyState {
	return machine.KeyState(k)
}

var epoch = time.Unix(1000, 0)

// program lays out instruction words from addr onwards.
func program(addr uint16, words ...uint16) map[uint16]uint8 {
	memory := make(map[uint16]uint8, len(words)*2)

	for i, word := range words {
		memory[addr+uint16(i*2)] = uint8(word >> 8)
		memory[addr+uint16(i*2)+1] = uint8(word)
	}

	return memory
}

func merge(maps ...map[uint16]uint8) map[uint16]uint8 {
	result := make(map[uint16]uint8)

	for _, m := range maps {
		for addr, value := range m {
			result[addr] = value
		}
	}

	return result
}

func newTestMachine(t *testing.T, input *testMachineState, keys []uint8) *machine.Machine {
	mc := machine.New()
	mc.Now = func() time.Time { return epoch }

	mc.State.Registers.V = input.Registers
	mc.State.Registers.I = input.Index
	mc.State.Program = input.Program
	mc.State.Delay.Set(input.Delay, epoch)
	mc.State.Sound.Set(input.Sound, epoch)

	for _, addr := range input.Stack {
		mc.State.Stack.Push(addr)
	}

	if mc.State.Program == 0 {
		mc.State.Program = machine.MEMSPACE_USER
	}

	for addr, value := range input.Memory {
		if err := mc.State.Memory.Write(addr, value); err != nil {
			t.Fatal(err)
		}
	}

	if keys != nil {
		var pressed [machine.NUM_KEYS]bool
		for _, key := range keys {
			pressed[key] = true
		}

		mc.Keys = fixedKeys(machine.NewKeyState(pressed))
	}

	return mc
}

func testMachineSuccess(t *testing.T, test *testCase) {
	mc := newTestMachine(t, &test.Input, test.Keys)

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < machine.NUM_REGS; i++ {
		want := test.Output.Registers[i]
		have := mc.State.Registers.V[i]
		if have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#02x (test.Output.Registers[%#x])\nhave:%#02x",
				want,
				i,
				have,
			)
		}
	}

	if mc.State.Registers.I != test.Output.Index {
		t.Errorf(
			"Index register mismatch"+
				"\nwant:%#04x (test.Output.Index)\nhave:%#04x",
			test.Output.Index,
			mc.State.Registers.I,
		)
	}

	if mc.State.Program != test.Output.Program {
		t.Errorf(
			"Program counter mismatch"+
				"\nwant:%#04x (test.Output.Program)\nhave:%#04x",
			test.Output.Program,
			mc.State.Program,
		)
	}

	if len(mc.State.Stack) != len(test.Output.Stack) {
		t.Errorf(
			"Stack depth mismatch"+
				"\nwant:%d (test.Output.Stack)\nhave:%d",
			len(test.Output.Stack),
			len(mc.State.Stack),
		)
	} else {
		for i, want := range test.Output.Stack {
			if have := mc.State.Stack[i]; have != want {
				t.Errorf(
					"Stack mismatch"+
						"\nwant:%#04x (test.Output.Stack[%d])\nhave:%#04x",
					want,
					i,
					have,
				)
			}
		}
	}

	if have := mc.State.Delay.Get(); have != test.Output.Delay {
		t.Errorf(
			"Delay timer mismatch"+
				"\nwant:%#02x (test.Output.Delay)\nhave:%#02x",
			test.Output.Delay,
			have,
		)
	}

	if have := mc.State.Sound.Get(); have != test.Output.Sound {
		t.Errorf(
			"Sound timer mismatch"+
				"\nwant:%#02x (test.Output.Sound)\nhave:%#02x",
			test.Output.Sound,
			have,
		)
	}

	var pristine machine.Memory
	pristine.Reset()

	for i := 0; i < machine.MEMORY_SIZE; i++ {
		addr := uint16(i)
		value := mc.State.Memory.Read(addr)

		input, expectingInput := test.Input.Memory[addr]
		output, expectingOutput := test.Output.Memory[addr]

		if expectingOutput {
			// Value was supposed to change
			if value != output {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Output.Memory[%#04x])\nhave:%#02x",
					output,
					addr,
					value,
				)
			}
		} else if expectingInput {
			// Value was supposed to remain
			if value != input {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Input.Memory[%#04x])\nhave:%#02x",
					input,
					addr,
					value,
				)
			}
		} else if want := pristine.Read(addr); value != want {
			// Value was expected to keep its reset state
			t.Fatalf(
				"Memory unexpectedly changed"+
					"\nwant:%#02x (pristine[%#04x])\nhave:%#02x",
				want,
				addr,
				value,
			)
		}
	}
}

func testMachineFail(t *testing.T, test *failCase) {
	if test.Error == nil {
		panic("Fail case missing error value")
	}

	mc := newTestMachine(t, &test.Input, nil)

	if test.Steps == 0 {
		test.Steps = 1
	}

	var err error
	for i := uint(0); i < test.Steps && err == nil; i++ {
		err = mc.Step()
	}

	if err == nil {
		t.Fatalf(
			"%s produced no error"+
				"\nwant:%T (test.Error)\nhave:<nil>",
			t.Name(),
			test.Error,
		)
	}

	if reflect.TypeOf(err) != reflect.TypeOf(test.Error) {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:%T",
			t.Name(),
			test.Error,
			err,
		)
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

func testFail(t *testing.T, tests []failCase) {
	t.Run("Fail", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineFail(t, &test)
			})
		}
	})
}
