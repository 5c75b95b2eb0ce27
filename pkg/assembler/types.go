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
	"fmt"
)

// Program is an assembled image: the load origin and the code words that
// follow it, in the order the loader will place them.
type Program struct {
	Origin uint16
	Words  []uint16
}

type SyntaxError struct {
	Line    int
	Message string
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("%d: %s", err.Line, err.Message)
}

type RangeError struct {
	Line     int
	Value    int
	Bitcount uint16
}

func (err *RangeError) Error() string {
	return fmt.Sprintf(
		"%d: value %d does not fit in %d bits",
		err.Line,
		err.Value,
		err.Bitcount,
	)
}

type UndefinedLabelError struct {
	Line  int
	Label string
}

func (err *UndefinedLabelError) Error() string {
	return fmt.Sprintf("%d: undefined label %q", err.Line, err.Label)
}

type DuplicateLabelError struct {
	Line  int
	Label string
}

func (err *DuplicateLabelError) Error() string {
	return fmt.Sprintf("%d: duplicate label %q", err.Line, err.Label)
}

// statement is one pass-one line: a mnemonic or directive, its operands, and
// the address its first word will occupy.
type statement struct {
	Line     int
	Address  uint16
	Mnemonic string
	Operands []string
}
