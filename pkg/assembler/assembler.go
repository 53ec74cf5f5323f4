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

package assembler

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

type labelRef struct {
	Label    string
	Addr     uint16
	Mask     uint16
	Position Cursor
}

type assembly struct {
	image    [machine.MEMORY_SIZE]byte
	program  uint32
	end      uint32
	labels   map[string]uint16
	refs     []labelRef
	errs     []error
	overflow bool
}

func parseDirective(ident string) DirectiveType {
	return directives[strings.ToUpper(ident)]
}

func parseInstruction(ident string) InstructionType {
	return instructions[strings.ToUpper(ident)]
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	var value int

	if strings.HasPrefix(token.Value, "0x") || strings.HasPrefix(token.Value, "0X") {
		result, err := encoding.DecodeHex(token.Value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		value = int(result)
	} else {
		result, err := encoding.DecodeInt(token.Value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		value = result
	}

	limit := (1 << bits) - 1

	// Negative decimals wrap into the field, i.e. #-1 is 0xFF as a byte
	if value > limit || value < -(limit+1)/2 {
		return 0, &OversizedLiteralError{token.Position, limit, value}
	}

	return uint16(value & limit), nil
}

func parseRegister(token *Token) (uint16, bool) {
	ident := token.Value

	if len(ident) != 2 || (ident[0] != 'V' && ident[0] != 'v') {
		return 0, false
	}

	value, err := encoding.DecodeHex("0x" + ident[1:])

	if err != nil {
		return 0, false
	}

	return value, true
}

func parseOperand(token *Token) OperandType {
	switch token.Type {
	case TOKEN_LITERAL:
		return OPERAND_LITERAL
	case TOKEN_IDENT:
	default:
		return OPERAND_INVALID
	}

	if _, ok := parseRegister(token); ok {
		return OPERAND_REGISTER
	}

	switch strings.ToUpper(token.Value) {
	case "I":
		return OPERAND_I
	case "DT":
		return OPERAND_DT
	case "ST":
		return OPERAND_ST
	case "K":
		return OPERAND_K
	case "F":
		return OPERAND_F
	case "B":
		return OPERAND_B
	case "[I]":
		return OPERAND_MEMI
	}

	if strings.ContainsAny(token.Value, "[]") {
		return OPERAND_INVALID
	}

	return OPERAND_LABEL
}

// Splits a single source line into tokens. Parsing stops at a comment.
func tokenize(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int = 0
	var tokenType TokenType = TOKEN_NONE

	builder.Grow(len(line))

	for column, char := range line {
		cursor.Column = column + 1

		var flush bool = false
		var skip bool = false

		if tokenType == TOKEN_NONE {
			tokenStart = cursor.Column
		}

		switch {
		// Whitespace
		case unicode.IsSpace(char):
			if tokenType == TOKEN_NONE {
				continue
			}

			flush = true

		// Comments
		case char == ';':
			flush = true
			skip = true

		// Operand Separator
		case char == ',':
			flush = true

		// Assembler Directives
		case char == '.':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_DIRECTIVE
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Base 10 Literal (i.e. #42)
		case char == '#':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Numeric Literal (i.e. 42, 0x2A)
		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

		// Numeric Sign
		case char == '-':
			if tokenType != TOKEN_LITERAL && tokenType != TOKEN_NONE {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			tokenType = TOKEN_LITERAL

		// Memory Operand (i.e. [I])
		case char == '[' || char == ']':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			} else if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Identifier
		case char == '_' || unicode.IsLetter(char):
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			}

			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			}

		default:
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}
		}

		if !flush && !skip {
			builder.WriteRune(char)
		}

		if cursor.Column == len(line) {
			if char == ',' {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			flush = true
		}

		if flush {
			if builder.Len() > 0 {
				tokens = append(tokens, Token{
					Type: tokenType,
					Position: Cursor{
						Line:     cursor.Line,
						Column:   tokenStart,
						Byte:     cursor.Byte + int64(tokenStart-1),
						Size:     int64(builder.Len()),
						LineByte: cursor.Byte,
					},
					Value: builder.String(),
				})
				builder.Reset()
			}

			tokenType = TOKEN_NONE
		}

		if skip {
			break
		}
	}

	return tokens, errs
}

// Assembles CHIP-8 source into a memory image that loads at 0x200. Labels
// may be referenced before they are declared.
func AssembleSource(input io.Reader) (result []byte, errs []error) {
	var asm = assembly{
		program: machine.MEMSPACE_USER,
		end:     machine.MEMSPACE_USER,
		labels:  make(map[string]uint16),
	}

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1}

	for scanner.Scan() {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		done := asm.assembleLine(line, cursor)

		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)

		if done {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		asm.errs = append(asm.errs, err)
	}

	for _, ref := range asm.refs {
		if int(ref.Addr)+1 >= machine.MEMORY_SIZE {
			continue
		}

		addr, exists := asm.labels[ref.Label]

		if !exists {
			asm.errs = append(
				asm.errs, &UnknownLabelError{ref.Position, ref.Label},
			)

			continue
		}

		word := encoding.Word(asm.image[ref.Addr], asm.image[ref.Addr+1])
		word = (word &^ ref.Mask) | (addr & ref.Mask)

		asm.image[ref.Addr] = uint8(word >> 8)
		asm.image[ref.Addr+1] = uint8(word)
	}

	if len(asm.errs) > 0 {
		return nil, asm.errs
	}

	result = make([]byte, asm.end-machine.MEMSPACE_USER)
	copy(result, asm.image[machine.MEMSPACE_USER:asm.end])

	return result, nil
}

// Returns true once .END is reached
func (asm *assembly) assembleLine(line string, cursor Cursor) bool {
	tokens, errs := tokenize(line, cursor)

	// Pass any potential assembler errors if we already had parser errors
	if len(errs) > 0 {
		asm.errs = append(asm.errs, errs...)
		return false
	}

	if len(tokens) == 0 {
		return false
	}

	var directive DirectiveType
	var instruction InstructionType
	var keyword *Token = nil
	var operands []Token

	for i := range tokens {
		if instruction = parseInstruction(tokens[i].Value); instruction != INSTRUCTION_INVALID {
			keyword = &tokens[i]
		} else if directive = parseDirective(tokens[i].Value); directive != DIRECTIVE_INVALID {
			keyword = &tokens[i]
		} else if i == 0 && tokens[0].Type == TOKEN_IDENT {
			label := &tokens[0]

			if _, exists := asm.labels[label.Value]; exists {
				asm.errs = append(
					asm.errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			} else {
				asm.labels[label.Value] = uint16(asm.program)
			}

			continue
		}

		if keyword == nil {
			asm.errs = append(
				asm.errs,
				&UnknownIdentifierError{tokens[i].Position, tokens[i].Value},
			)

			return false
		}

		operands = tokens[i+1:]
		break
	}

	// Label-only statement
	if keyword == nil {
		return false
	}

	if instruction != INSTRUCTION_INVALID {
		word := asm.encode(instruction, keyword, operands)

		asm.emit(uint8(word >> 8))
		asm.emit(uint8(word))

		return false
	}

	return asm.directive(directive, keyword, operands)
}

func (asm *assembly) directive(directive DirectiveType, keyword *Token, operands []Token) bool {
	switch directive {
	// .END
	case DIRECTIVE_END:
		asm.expect(keyword, operands, 0)
		return true

	// .ORIG 0x200
	case DIRECTIVE_ORIG:
		if !asm.expect(keyword, operands, 1) {
			break
		}

		origin, ok := asm.literal(&operands[0], LITERAL_ADDR)

		if !ok {
			break
		}

		if origin < machine.MEMSPACE_USER {
			asm.errs = append(
				asm.errs, &InvalidOriginError{operands[0].Position, origin},
			)

			break
		}

		asm.program = uint32(origin)

	// .BYTE 0xF0
	case DIRECTIVE_BYTE:
		if !asm.expect(keyword, operands, 1) {
			break
		}

		if value, ok := asm.literal(&operands[0], LITERAL_BYTE); ok {
			asm.emit(uint8(value))
		}

	// .WORD 0x1234 / .WORD label
	case DIRECTIVE_WORD:
		if !asm.expect(keyword, operands, 1) {
			break
		}

		var value uint16

		switch parseOperand(&operands[0]) {
		case OPERAND_LITERAL:
			value, _ = asm.literal(&operands[0], LITERAL_WORD)
		case OPERAND_LABEL:
			value = asm.reference(&operands[0], 0xFFFF)
		default:
			asm.invalid(&operands[0], "Literal or Label")
		}

		asm.emit(uint8(value >> 8))
		asm.emit(uint8(value))

	// .BLKB #16
	case DIRECTIVE_BLKB:
		if !asm.expect(keyword, operands, 1) {
			break
		}

		if count, ok := asm.literal(&operands[0], LITERAL_ADDR); ok {
			for i := uint16(0); i < count; i++ {
				asm.emit(0)
			}
		}
	}

	return false
}

func (asm *assembly) emit(value uint8) {
	if asm.program > machine.MAX_ADDRESS {
		if !asm.overflow {
			asm.errs = append(asm.errs, &OversizedBinaryError{})
			asm.overflow = true
		}

		return
	}

	asm.image[asm.program] = value
	asm.program++

	if asm.program > asm.end {
		asm.end = asm.program
	}
}

func (asm *assembly) expect(keyword *Token, operands []Token, counts ...int) bool {
	for _, count := range counts {
		if len(operands) == count {
			return true
		}
	}

	asm.errs = append(
		asm.errs,
		&InvalidNumArgumentsError{keyword.Position, counts[0], len(operands)},
	)

	return false
}

func (asm *assembly) invalid(token *Token, required string) {
	asm.errs = append(
		asm.errs, &InvalidOperandError{token.Position, required, token.Value},
	)
}

func (asm *assembly) literal(token *Token, bits LiteralType) (uint16, bool) {
	if token.Type != TOKEN_LITERAL {
		asm.invalid(token, "Literal")
		return 0, false
	}

	value, err := parseLiteral(token, bits)

	if err != nil {
		asm.errs = append(asm.errs, err)
		return 0, false
	}

	return value, true
}

func (asm *assembly) register(token *Token) uint16 {
	if token.Type != TOKEN_IDENT {
		asm.invalid(token, "Register")
		return 0
	}

	reg, ok := parseRegister(token)

	if !ok {
		asm.errs = append(asm.errs, &InvalidRegisterError{token.Position})
	}

	return reg
}

// Records a label to be patched into the word at the current address once
// every label is known
func (asm *assembly) reference(token *Token, mask uint16) uint16 {
	if parseInstruction(token.Value) != INSTRUCTION_INVALID {
		asm.errs = append(
			asm.errs, &ReservedLabelError{token.Position, token.Value},
		)

		return 0
	}

	asm.refs = append(
		asm.refs,
		labelRef{token.Value, uint16(asm.program), mask, token.Position},
	)

	return 0
}

func (asm *assembly) address(token *Token) uint16 {
	switch parseOperand(token) {
	case OPERAND_LITERAL:
		value, _ := asm.literal(token, LITERAL_ADDR)
		return value
	case OPERAND_LABEL:
		return asm.reference(token, 0x0FFF)
	}

	asm.invalid(token, "Address or Label")
	return 0
}

func (asm *assembly) encode(instruction InstructionType, keyword *Token, operands []Token) uint16 {
	switch instruction {
	// CLS
	case INSTRUCTION_CLS:
		asm.expect(keyword, operands, 0)
		return 0x00E0

	// RET
	case INSTRUCTION_RET:
		asm.expect(keyword, operands, 0)
		return 0x00EE

	// SYS addr
	case INSTRUCTION_SYS:
		if asm.expect(keyword, operands, 1) {
			return 0x0000 | asm.address(&operands[0])
		}

	// CALL addr
	case INSTRUCTION_CALL:
		if asm.expect(keyword, operands, 1) {
			return 0x2000 | asm.address(&operands[0])
		}

	// JP addr / JP V0, addr
	case INSTRUCTION_JP:
		if !asm.expect(keyword, operands, 1, 2) {
			break
		}

		if len(operands) == 1 {
			return 0x1000 | asm.address(&operands[0])
		}

		if reg := asm.register(&operands[0]); reg != 0 {
			asm.errs = append(
				asm.errs, &InvalidRegisterError{operands[0].Position},
			)
		}

		return 0xB000 | asm.address(&operands[1])

	// SE Vx, byte / SE Vx, Vy
	case INSTRUCTION_SE, INSTRUCTION_SNE:
		if !asm.expect(keyword, operands, 2) {
			break
		}

		x := asm.register(&operands[0])

		switch parseOperand(&operands[1]) {
		case OPERAND_REGISTER:
			y := asm.register(&operands[1])

			if instruction == INSTRUCTION_SE {
				return 0x5000 | x<<8 | y<<4
			}

			return 0x9000 | x<<8 | y<<4
		case OPERAND_LITERAL:
			nn, _ := asm.literal(&operands[1], LITERAL_BYTE)

			if instruction == INSTRUCTION_SE {
				return 0x3000 | x<<8 | nn
			}

			return 0x4000 | x<<8 | nn
		}

		asm.invalid(&operands[1], "Register or Literal")

	case INSTRUCTION_LD:
		if asm.expect(keyword, operands, 2) {
			return asm.encodeLoad(&operands[0], &operands[1])
		}

	// ADD Vx, byte / ADD Vx, Vy / ADD I, Vx
	case INSTRUCTION_ADD:
		if !asm.expect(keyword, operands, 2) {
			break
		}

		if parseOperand(&operands[0]) == OPERAND_I {
			return 0xF01E | asm.register(&operands[1])<<8
		}

		x := asm.register(&operands[0])

		switch parseOperand(&operands[1]) {
		case OPERAND_REGISTER:
			return 0x8004 | x<<8 | asm.register(&operands[1])<<4
		case OPERAND_LITERAL:
			nn, _ := asm.literal(&operands[1], LITERAL_BYTE)
			return 0x7000 | x<<8 | nn
		}

		asm.invalid(&operands[1], "Register or Literal")

	// OR Vx, Vy / SHR Vx {, Vy}
	case INSTRUCTION_OR,
		INSTRUCTION_AND,
		INSTRUCTION_XOR,
		INSTRUCTION_SUB,
		INSTRUCTION_SUBN,
		INSTRUCTION_SHR,
		INSTRUCTION_SHL:

		counts := []int{2}

		if instruction == INSTRUCTION_SHR || instruction == INSTRUCTION_SHL {
			counts = []int{1, 2}
		}

		if !asm.expect(keyword, operands, counts...) {
			break
		}

		x := asm.register(&operands[0])
		y := uint16(0)

		if len(operands) == 2 {
			y = asm.register(&operands[1])
		}

		return 0x8000 | x<<8 | y<<4 | aluOps[instruction]

	// RND Vx, byte
	case INSTRUCTION_RND:
		if !asm.expect(keyword, operands, 2) {
			break
		}

		x := asm.register(&operands[0])
		nn, _ := asm.literal(&operands[1], LITERAL_BYTE)

		return 0xC000 | x<<8 | nn

	// DRW Vx, Vy, nibble
	case INSTRUCTION_DRW:
		if !asm.expect(keyword, operands, 3) {
			break
		}

		x := asm.register(&operands[0])
		y := asm.register(&operands[1])
		n, _ := asm.literal(&operands[2], LITERAL_NIBBLE)

		return 0xD000 | x<<8 | y<<4 | n

	// SKP Vx
	case INSTRUCTION_SKP:
		if asm.expect(keyword, operands, 1) {
			return 0xE09E | asm.register(&operands[0])<<8
		}

	// SKNP Vx
	case INSTRUCTION_SKNP:
		if asm.expect(keyword, operands, 1) {
			return 0xE0A1 | asm.register(&operands[0])<<8
		}
	}

	return 0
}

// LD has a form for each source and destination pairing
func (asm *assembly) encodeLoad(dst *Token, src *Token) uint16 {
	switch parseOperand(dst) {
	case OPERAND_REGISTER:
		x := asm.register(dst) << 8

		switch parseOperand(src) {
		case OPERAND_REGISTER:
			return 0x8000 | x | asm.register(src)<<4
		case OPERAND_LITERAL:
			nn, _ := asm.literal(src, LITERAL_BYTE)
			return 0x6000 | x | nn
		case OPERAND_DT:
			return 0xF007 | x
		case OPERAND_K:
			return 0xF00A | x
		case OPERAND_MEMI:
			return 0xF065 | x
		}

		asm.invalid(src, "Register, Literal, DT, K or [I]")
		return 0

	case OPERAND_I:
		return 0xA000 | asm.address(src)
	case OPERAND_DT:
		return 0xF015 | asm.register(src)<<8
	case OPERAND_ST:
		return 0xF018 | asm.register(src)<<8
	case OPERAND_F:
		return 0xF029 | asm.register(src)<<8
	case OPERAND_B:
		return 0xF033 | asm.register(src)<<8
	case OPERAND_MEMI:
		return 0xF055 | asm.register(src)<<8
	}

	asm.invalid(dst, "Register, I, DT, ST, F, B or [I]")
	return 0
}
