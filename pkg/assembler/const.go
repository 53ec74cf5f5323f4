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

const (
	TOKEN_NONE TokenType = iota
	TOKEN_IDENT
	TOKEN_DIRECTIVE
	TOKEN_LITERAL
)

const (
	LITERAL_NIBBLE LiteralType = 4
	LITERAL_BYTE               = 8
	LITERAL_ADDR               = 12
	LITERAL_WORD               = 16
)

const (
	OPERAND_INVALID OperandType = iota
	OPERAND_REGISTER
	OPERAND_LITERAL
	OPERAND_LABEL
	OPERAND_I
	OPERAND_DT
	OPERAND_ST
	OPERAND_K
	OPERAND_F
	OPERAND_B
	OPERAND_MEMI
)

const (
	INSTRUCTION_INVALID InstructionType = iota
	INSTRUCTION_CLS
	INSTRUCTION_RET
	INSTRUCTION_SYS
	INSTRUCTION_JP
	INSTRUCTION_CALL
	INSTRUCTION_SE
	INSTRUCTION_SNE
	INSTRUCTION_LD
	INSTRUCTION_ADD
	INSTRUCTION_OR
	INSTRUCTION_AND
	INSTRUCTION_XOR
	INSTRUCTION_SUB
	INSTRUCTION_SHR
	INSTRUCTION_SUBN
	INSTRUCTION_SHL
	INSTRUCTION_RND
	INSTRUCTION_DRW
	INSTRUCTION_SKP
	INSTRUCTION_SKNP
)

const (
	DIRECTIVE_INVALID DirectiveType = iota
	DIRECTIVE_ORIG
	DIRECTIVE_BYTE
	DIRECTIVE_WORD
	DIRECTIVE_BLKB
	DIRECTIVE_END
)

var instructions = map[string]InstructionType{
	"CLS":  INSTRUCTION_CLS,
	"RET":  INSTRUCTION_RET,
	"SYS":  INSTRUCTION_SYS,
	"JP":   INSTRUCTION_JP,
	"CALL": INSTRUCTION_CALL,
	"SE":   INSTRUCTION_SE,
	"SNE":  INSTRUCTION_SNE,
	"LD":   INSTRUCTION_LD,
	"ADD":  INSTRUCTION_ADD,
	"OR":   INSTRUCTION_OR,
	"AND":  INSTRUCTION_AND,
	"XOR":  INSTRUCTION_XOR,
	"SUB":  INSTRUCTION_SUB,
	"SHR":  INSTRUCTION_SHR,
	"SUBN": INSTRUCTION_SUBN,
	"SHL":  INSTRUCTION_SHL,
	"RND":  INSTRUCTION_RND,
	"DRW":  INSTRUCTION_DRW,
	"SKP":  INSTRUCTION_SKP,
	"SKNP": INSTRUCTION_SKNP,
}

var directives = map[string]DirectiveType{
	".ORIG": DIRECTIVE_ORIG,
	".BYTE": DIRECTIVE_BYTE,
	".WORD": DIRECTIVE_WORD,
	".BLKB": DIRECTIVE_BLKB,
	".END":  DIRECTIVE_END,
}

// Low nibble of the 8XY_ register operations
var aluOps = map[InstructionType]uint16{
	INSTRUCTION_OR:   0x1,
	INSTRUCTION_AND:  0x2,
	INSTRUCTION_XOR:  0x3,
	INSTRUCTION_SUB:  0x5,
	INSTRUCTION_SHR:  0x6,
	INSTRUCTION_SUBN: 0x7,
	INSTRUCTION_SHL:  0xE,
}
