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

package encoding_test

import (
	"testing"

	"github.com/lassandro/gochip8/pkg/encoding"
)

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		Name   string
		Input  string
		Output uint16
		Valid  bool
	}{
		{"Prefixed", "0x2A", 0x2A, true},
		{"Short Prefix", "x2A", 0x2A, true},
		{"Upper Prefix", "0XFFF", 0xFFF, true},
		{"Word", "0xFFFF", 0xFFFF, true},
		{"Overflow", "0x10000", 0, false},
		{"No Prefix", "2A", 0, false},
		{"Bad Prefix", "1x2A", 0, false},
		{"Bad Digit", "0xG", 0, false},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			have, err := encoding.DecodeHex(test.Input)

			if (err == nil) != test.Valid || have != test.Output {
				t.Fatalf("want:%#x, %t\nhave:%#x, %v", test.Output, test.Valid, have, err)
			}
		})
	}
}

func TestDecodeInt(t *testing.T) {
	tests := []struct {
		Name   string
		Input  string
		Output int
		Valid  bool
	}{
		{"Plain", "42", 42, true},
		{"Hash", "#42", 42, true},
		{"Negative", "#-1", -1, true},
		{"Empty", "#", 0, false},
		{"Hex", "0x2A", 0, false},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			have, err := encoding.DecodeInt(test.Input)

			if (err == nil) != test.Valid || have != test.Output {
				t.Fatalf("want:%d, %t\nhave:%d, %v", test.Output, test.Valid, have, err)
			}
		})
	}
}

func TestPacking(t *testing.T) {
	n0, n1, n2, n3 := encoding.Nibbles(0xD12F)

	if n0 != 0xD || n1 != 0x1 || n2 != 0x2 || n3 != 0xF {
		t.Fatalf("want:D 1 2 F\nhave:%X %X %X %X", n0, n1, n2, n3)
	}

	if have := encoding.Byte(0xA, 0x8); have != 0xA8 {
		t.Fatalf("want:0xA8\nhave:%#x", have)
	}

	if have := encoding.Addr(0xA, 0x2, 0x8); have != 0xA28 {
		t.Fatalf("want:0xA28\nhave:%#x", have)
	}

	if have := encoding.Word(0xA4, 0x8E); have != 0xA48E {
		t.Fatalf("want:0xA48E\nhave:%#x", have)
	}
}
