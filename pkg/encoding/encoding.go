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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

// Decodes a hexidecimal string in the formats: 0xFFF, xFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 || s[0] != '0' {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (int, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 32)

	if err != nil {
		return 0, err
	}

	return int(result), nil
}

// Nibbles splits an instruction word into its four hex digits, most
// significant first.
func Nibbles(word uint16) (n0, n1, n2, n3 uint8) {
	n0 = uint8(word>>12) & 0xF
	n1 = uint8(word>>8) & 0xF
	n2 = uint8(word>>4) & 0xF
	n3 = uint8(word) & 0xF
	return
}

// Byte joins two nibbles into a byte, hi being the most significant.
func Byte(hi, lo uint8) uint8 {
	return (hi&0xF)<<4 | lo&0xF
}

// Addr joins three nibbles into a 12-bit address.
func Addr(hi, mid, lo uint8) uint16 {
	return uint16(hi&0xF)<<8 | uint16(mid&0xF)<<4 | uint16(lo&0xF)
}

// Word joins two bytes into a big-endian 16-bit word.
func Word(hi, lo uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
