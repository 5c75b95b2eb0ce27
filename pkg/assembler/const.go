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
	DIR_ORIG    = ".ORIG"
	DIR_FILL    = ".FILL"
	DIR_BLKW    = ".BLKW"
	DIR_STRINGZ = ".STRINGZ"
	DIR_END     = ".END"
)

// Trap service routines assemble directly to their TRAP encodings.
var trapAliases = map[string]uint16{
	"GETC":  0xF020,
	"OUT":   0xF021,
	"PUTS":  0xF022,
	"IN":    0xF023,
	"PUTSP": 0xF024,
	"HALT":  0xF025,
}

// Every mnemonic the assembler recognizes; anything else in the first column
// of a line is a label.
var mnemonics = map[string]bool{
	"ADD":   true,
	"AND":   true,
	"NOT":   true,
	"BR":    true,
	"BRN":   true,
	"BRZ":   true,
	"BRP":   true,
	"BRNZ":  true,
	"BRNP":  true,
	"BRZP":  true,
	"BRNZP": true,
	"JMP":   true,
	"RET":   true,
	"JSR":   true,
	"JSRR":  true,
	"LD":    true,
	"LDI":   true,
	"LDR":   true,
	"LEA":   true,
	"ST":    true,
	"STI":   true,
	"STR":   true,
	"TRAP":  true,

	"GETC":  true,
	"OUT":   true,
	"PUTS":  true,
	"IN":    true,
	"PUTSP": true,
	"HALT":  true,

	DIR_ORIG:    true,
	DIR_FILL:    true,
	DIR_BLKW:    true,
	DIR_STRINGZ: true,
	DIR_END:     true,
}

// Condition masks for the BR variants, N|Z|P in bits 11-9.
var branchMasks = map[string]uint16{
	"BR":    0b111,
	"BRN":   0b100,
	"BRZ":   0b010,
	"BRP":   0b001,
	"BRNZ":  0b110,
	"BRNP":  0b101,
	"BRZP":  0b011,
	"BRNZP": 0b111,
}
