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
	"errors"
	"fmt"
)

var (
	ErrShortOrigin    = errors.New("image too short to hold an origin word")
	ErrTruncatedImage = errors.New("image ends with a truncated word")
	ErrNoKeyboard     = errors.New("no keyboard device attached")
	ErrNoDisplay      = errors.New("no display device attached")
)

// DecodeError reports an instruction whose opcode has no handler: the two
// reserved/unused slots RTI (0b1000) and 0b1101.
type DecodeError struct {
	Address     uint16
	Instruction uint16
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf(
		"illegal opcode %#06b in instruction %#04x at %#04x",
		err.Instruction>>12,
		err.Instruction,
		err.Address,
	)
}

// TrapError reports a TRAP instruction whose vector names no service
// routine.
type TrapError struct {
	Address uint16
	Vector  uint16
}

func (err *TrapError) Error() string {
	return fmt.Sprintf(
		"unknown trap vector %#02x at %#04x", err.Vector, err.Address,
	)
}
