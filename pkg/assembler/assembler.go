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
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/Harmful-Alchemist/lc3vm/pkg/encoding"
)

// Assemble translates LC-3 assembly source into a loadable program. Two
// passes: the first resolves label addresses and statement sizes, the second
// encodes words.
func Assemble(source string) (*Program, error) {
	statements, origin, labels, err := parse(source)

	if err != nil {
		return nil, err
	}

	program := &Program{Origin: origin}

	for i := range statements {
		words, err := encode(&statements[i], labels)

		if err != nil {
			return nil, err
		}

		program.Words = append(program.Words, words...)
	}

	return program, nil
}

// WriteImage emits the program in the loader's format: a big-endian origin
// word followed by big-endian code words.
func (program *Program) WriteImage(writer io.Writer) error {
	scratch := make([]byte, 2)

	binary.BigEndian.PutUint16(scratch, program.Origin)

	if _, err := writer.Write(scratch); err != nil {
		return err
	}

	for _, word := range program.Words {
		binary.BigEndian.PutUint16(scratch, word)

		if _, err := writer.Write(scratch); err != nil {
			return err
		}
	}

	return nil
}

func parse(
	source string,
) ([]statement, uint16, map[string]uint16, error) {
	var statements []statement
	var origin uint16
	var addr uint16
	var seenOrig bool

	labels := make(map[string]uint16)

	for i, line := range strings.Split(source, "\n") {
		lineno := i + 1

		tokens, err := tokenize(line, lineno)

		if err != nil {
			return nil, 0, nil, err
		}

		if len(tokens) == 0 {
			continue
		}

		mnemonic := strings.ToUpper(tokens[0])

		if !mnemonics[mnemonic] {
			label := strings.TrimSuffix(mnemonic, ":")

			if !isIdentifier(label) {
				return nil, 0, nil, &SyntaxError{
					Line:    lineno,
					Message: fmt.Sprintf("unknown mnemonic %q", tokens[0]),
				}
			}

			if !seenOrig {
				return nil, 0, nil, &SyntaxError{
					Line:    lineno,
					Message: "label before .ORIG",
				}
			}

			if _, exists := labels[label]; exists {
				return nil, 0, nil, &DuplicateLabelError{
					Line:  lineno,
					Label: label,
				}
			}

			labels[label] = addr

			tokens = tokens[1:]

			if len(tokens) == 0 {
				continue
			}

			mnemonic = strings.ToUpper(tokens[0])

			if !mnemonics[mnemonic] {
				return nil, 0, nil, &SyntaxError{
					Line:    lineno,
					Message: fmt.Sprintf("unknown mnemonic %q", tokens[0]),
				}
			}
		}

		operands := tokens[1:]

		if mnemonic == DIR_ORIG {
			if seenOrig {
				return nil, 0, nil, &SyntaxError{
					Line:    lineno,
					Message: "duplicate .ORIG",
				}
			}

			if len(operands) != 1 {
				return nil, 0, nil, &SyntaxError{
					Line:    lineno,
					Message: ".ORIG takes one operand",
				}
			}

			value, err := parseWord(operands[0], lineno)

			if err != nil {
				return nil, 0, nil, err
			}

			origin = value
			addr = value
			seenOrig = true

			continue
		}

		if mnemonic == DIR_END {
			break
		}

		if !seenOrig {
			return nil, 0, nil, &SyntaxError{
				Line:    lineno,
				Message: ".ORIG must precede code",
			}
		}

		stmt := statement{
			Line:     lineno,
			Address:  addr,
			Mnemonic: mnemonic,
			Operands: operands,
		}

		size, err := statementSize(&stmt)

		if err != nil {
			return nil, 0, nil, err
		}

		statements = append(statements, stmt)
		addr += size
	}

	if !seenOrig {
		return nil, 0, nil, &SyntaxError{Line: 1, Message: "missing .ORIG"}
	}

	return statements, origin, labels, nil
}

// tokenize splits a source line on whitespace and commas, keeping quoted
// strings whole and dropping ; comments.
func tokenize(line string, lineno int) ([]string, error) {
	var tokens []string
	var current strings.Builder
	var quoted bool
	var escaped bool

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, char := range line {
		if quoted {
			current.WriteRune(char)

			if escaped {
				escaped = false
			} else if char == '\\' {
				escaped = true
			} else if char == '"' {
				quoted = false
				flush()
			}

			continue
		}

		switch {
		case char == ';':
			flush()
			return tokens, nil
		case char == '"':
			flush()
			quoted = true
			current.WriteRune(char)
		case char == ',' || char == ' ' || char == '\t' || char == '\r':
			flush()
		default:
			current.WriteRune(char)
		}
	}

	if quoted {
		return nil, &SyntaxError{Line: lineno, Message: "unterminated string"}
	}

	flush()

	return tokens, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, char := range s {
		alpha := (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') || char == '_'
		digit := char >= '0' && char <= '9'

		if !alpha && (i == 0 || !digit) {
			return false
		}
	}

	return true
}

// statementSize is the number of memory words a statement occupies.
func statementSize(stmt *statement) (uint16, error) {
	switch stmt.Mnemonic {
	case DIR_BLKW:
		if len(stmt.Operands) != 1 {
			return 0, &SyntaxError{
				Line:    stmt.Line,
				Message: ".BLKW takes one operand",
			}
		}

		count, err := parseWord(stmt.Operands[0], stmt.Line)

		if err != nil {
			return 0, err
		}

		if count == 0 {
			return 0, &SyntaxError{
				Line:    stmt.Line,
				Message: ".BLKW count must be nonzero",
			}
		}

		return count, nil

	case DIR_STRINGZ:
		text, err := parseString(stmt, 0)

		if err != nil {
			return 0, err
		}

		return uint16(len(text)) + 1, nil

	default:
		return 1, nil
	}
}

func encode(stmt *statement, labels map[string]uint16) ([]uint16, error) {
	if trap, ok := trapAliases[stmt.Mnemonic]; ok {
		if err := expectOperands(stmt, 0); err != nil {
			return nil, err
		}

		return []uint16{trap}, nil
	}

	if mask, ok := branchMasks[stmt.Mnemonic]; ok {
		if err := expectOperands(stmt, 1); err != nil {
			return nil, err
		}

		offset, err := pcOffset(stmt, 0, labels, 9)

		if err != nil {
			return nil, err
		}

		return []uint16{0b0000<<12 | mask<<9 | offset}, nil
	}

	switch stmt.Mnemonic {
	case "ADD", "AND":
		return encodeALU(stmt)

	case "NOT":
		if err := expectOperands(stmt, 2); err != nil {
			return nil, err
		}

		dest, err := parseRegister(stmt, 0)
		if err != nil {
			return nil, err
		}

		src, err := parseRegister(stmt, 1)
		if err != nil {
			return nil, err
		}

		return []uint16{0b1001<<12 | dest<<9 | src<<6 | 0x3F}, nil

	case "JMP":
		if err := expectOperands(stmt, 1); err != nil {
			return nil, err
		}

		base, err := parseRegister(stmt, 0)
		if err != nil {
			return nil, err
		}

		return []uint16{0b1100<<12 | base<<6}, nil

	case "RET":
		if err := expectOperands(stmt, 0); err != nil {
			return nil, err
		}

		return []uint16{0b1100<<12 | 7<<6}, nil

	case "JSR":
		if err := expectOperands(stmt, 1); err != nil {
			return nil, err
		}

		offset, err := pcOffset(stmt, 0, labels, 11)
		if err != nil {
			return nil, err
		}

		return []uint16{0b0100<<12 | 1<<11 | offset}, nil

	case "JSRR":
		if err := expectOperands(stmt, 1); err != nil {
			return nil, err
		}

		base, err := parseRegister(stmt, 0)
		if err != nil {
			return nil, err
		}

		return []uint16{0b0100<<12 | base<<6}, nil

	case "LD", "LDI", "LEA", "ST", "STI":
		var opcode uint16

		switch stmt.Mnemonic {
		case "LD":
			opcode = 0b0010
		case "LDI":
			opcode = 0b1010
		case "LEA":
			opcode = 0b1110
		case "ST":
			opcode = 0b0011
		case "STI":
			opcode = 0b1011
		}

		if err := expectOperands(stmt, 2); err != nil {
			return nil, err
		}

		reg, err := parseRegister(stmt, 0)
		if err != nil {
			return nil, err
		}

		offset, err := pcOffset(stmt, 1, labels, 9)
		if err != nil {
			return nil, err
		}

		return []uint16{opcode<<12 | reg<<9 | offset}, nil

	case "LDR", "STR":
		var opcode uint16 = 0b0110

		if stmt.Mnemonic == "STR" {
			opcode = 0b0111
		}

		if err := expectOperands(stmt, 3); err != nil {
			return nil, err
		}

		reg, err := parseRegister(stmt, 0)
		if err != nil {
			return nil, err
		}

		base, err := parseRegister(stmt, 1)
		if err != nil {
			return nil, err
		}

		offset, err := parseSigned(stmt, 2, 6)
		if err != nil {
			return nil, err
		}

		return []uint16{opcode<<12 | reg<<9 | base<<6 | offset}, nil

	case "TRAP":
		if err := expectOperands(stmt, 1); err != nil {
			return nil, err
		}

		vector, err := parseWord(stmt.Operands[0], stmt.Line)
		if err != nil {
			return nil, err
		}

		if vector > 0xFF {
			return nil, &RangeError{
				Line:     stmt.Line,
				Value:    int(vector),
				Bitcount: 8,
			}
		}

		return []uint16{0b1111<<12 | vector}, nil

	case DIR_FILL:
		if err := expectOperands(stmt, 1); err != nil {
			return nil, err
		}

		if target, ok := labels[strings.ToUpper(stmt.Operands[0])]; ok {
			return []uint16{target}, nil
		}

		value, err := parseWord(stmt.Operands[0], stmt.Line)
		if err != nil {
			return nil, err
		}

		return []uint16{value}, nil

	case DIR_BLKW:
		count, err := statementSize(stmt)
		if err != nil {
			return nil, err
		}

		return make([]uint16, count), nil

	case DIR_STRINGZ:
		text, err := parseString(stmt, 0)
		if err != nil {
			return nil, err
		}

		words := make([]uint16, 0, len(text)+1)

		for _, char := range []byte(text) {
			words = append(words, uint16(char))
		}

		return append(words, 0), nil
	}

	return nil, &SyntaxError{
		Line:    stmt.Line,
		Message: fmt.Sprintf("unknown mnemonic %q", stmt.Mnemonic),
	}
}

// encodeALU covers ADD and AND, whose third operand selects register or
// immediate mode.
func encodeALU(stmt *statement) ([]uint16, error) {
	var opcode uint16 = 0b0001

	if stmt.Mnemonic == "AND" {
		opcode = 0b0101
	}

	if err := expectOperands(stmt, 3); err != nil {
		return nil, err
	}

	dest, err := parseRegister(stmt, 0)
	if err != nil {
		return nil, err
	}

	src1, err := parseRegister(stmt, 1)
	if err != nil {
		return nil, err
	}

	if isRegister(stmt.Operands[2]) {
		src2, err := parseRegister(stmt, 2)
		if err != nil {
			return nil, err
		}

		return []uint16{opcode<<12 | dest<<9 | src1<<6 | src2}, nil
	}

	imm5, err := parseSigned(stmt, 2, 5)
	if err != nil {
		return nil, err
	}

	return []uint16{opcode<<12 | dest<<9 | src1<<6 | 1<<5 | imm5}, nil
}

func expectOperands(stmt *statement, count int) error {
	if len(stmt.Operands) != count {
		return &SyntaxError{
			Line: stmt.Line,
			Message: fmt.Sprintf(
				"%s takes %d operands, have %d",
				stmt.Mnemonic,
				count,
				len(stmt.Operands),
			),
		}
	}

	return nil
}

func isRegister(token string) bool {
	if len(token) != 2 {
		return false
	}

	if token[0] != 'R' && token[0] != 'r' {
		return false
	}

	return token[1] >= '0' && token[1] <= '7'
}

func parseRegister(stmt *statement, index int) (uint16, error) {
	token := stmt.Operands[index]

	if !isRegister(token) {
		return 0, &SyntaxError{
			Line:    stmt.Line,
			Message: fmt.Sprintf("expected register, have %q", token),
		}
	}

	return uint16(token[1] - '0'), nil
}

// parseWord decodes an unsigned 16-bit literal: hex (x3000) or decimal
// (#5, 5). Negative decimals wrap to their two's-complement word.
func parseWord(token string, lineno int) (uint16, error) {
	if value, err := encoding.DecodeHex(token); err == nil {
		return value, nil
	}

	value, err := encoding.DecodeInt(token)

	if err != nil {
		return 0, &SyntaxError{
			Line:    lineno,
			Message: fmt.Sprintf("invalid literal %q", token),
		}
	}

	return uint16(value), nil
}

// parseSigned decodes a literal destined for a bitcount-wide signed field
// and masks it to that field.
func parseSigned(stmt *statement, index int, bitcount uint16) (uint16, error) {
	token := stmt.Operands[index]

	value, err := encoding.DecodeInt(token)

	if err != nil {
		hex, hexErr := encoding.DecodeHex(token)

		if hexErr != nil {
			return 0, &SyntaxError{
				Line:    stmt.Line,
				Message: fmt.Sprintf("invalid literal %q", token),
			}
		}

		value = int16(hex)
	}

	if !encoding.FitsSigned(value, bitcount) {
		return 0, &RangeError{
			Line:     stmt.Line,
			Value:    int(value),
			Bitcount: bitcount,
		}
	}

	return uint16(value) & (1<<bitcount - 1), nil
}

// pcOffset resolves a label or literal operand into a PC-relative field of
// the given width, measured from the address after the instruction.
func pcOffset(
	stmt *statement,
	index int,
	labels map[string]uint16,
	bitcount uint16,
) (uint16, error) {
	token := stmt.Operands[index]

	if target, ok := labels[strings.ToUpper(token)]; ok {
		diff := int32(target) - (int32(stmt.Address) + 1)

		limit := int32(1) << (bitcount - 1)

		if diff < -limit || diff >= limit {
			return 0, &RangeError{
				Line:     stmt.Line,
				Value:    int(diff),
				Bitcount: bitcount,
			}
		}

		return uint16(diff) & (1<<bitcount - 1), nil
	}

	if isIdentifier(strings.TrimSuffix(token, ":")) &&
		!strings.ContainsAny(token, "#") {
		// Identifiers that decode as hex (like x10) still resolve as labels
		// first above; anything else identifier-shaped is a missing label.
		if _, err := encoding.DecodeHex(token); err != nil {
			return 0, &UndefinedLabelError{Line: stmt.Line, Label: token}
		}
	}

	return parseSigned(stmt, index, bitcount)
}

// parseString unescapes a .STRINGZ quoted operand.
func parseString(stmt *statement, index int) (string, error) {
	if len(stmt.Operands) != index+1 {
		return "", &SyntaxError{
			Line:    stmt.Line,
			Message: ".STRINGZ takes one operand",
		}
	}

	token := stmt.Operands[index]

	if len(token) < 2 || token[0] != '"' || token[len(token)-1] != '"' {
		return "", &SyntaxError{
			Line:    stmt.Line,
			Message: ".STRINGZ operand must be quoted",
		}
	}

	var result strings.Builder
	var escaped bool

	for _, char := range token[1 : len(token)-1] {
		if !escaped {
			if char == '\\' {
				escaped = true
			} else {
				result.WriteRune(char)
			}

			continue
		}

		escaped = false

		switch char {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case '0':
			result.WriteByte(0)
		case '\\', '"':
			result.WriteRune(char)
		default:
			return "", &SyntaxError{
				Line:    stmt.Line,
				Message: fmt.Sprintf("unknown escape \\%c", char),
			}
		}
	}

	return result.String(), nil
}
