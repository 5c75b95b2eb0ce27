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
	"bufio"
)

// ConditionFlag holds exactly one of FLAG_POS, FLAG_ZERO or FLAG_NEG. It is
// a distinct type so the condition register can never carry a mixed bitmask.
type ConditionFlag uint16

// DeviceHandler connects the machine to its byte-oriented peripherals. The
// keyboard reader serves both the blocking GETC/IN traps and the
// non-blocking keyboard-status poll; there is deliberately only one of it.
type DeviceHandler struct {
	Keyboard *bufio.Reader
	Display  *bufio.Writer
}

// MachineState is the entire mutable state of one machine: the register
// file, the 64K-word memory, and the lifecycle flag cleared by HALT.
type MachineState struct {
	Registers [REG_COUNT]uint16
	Memory    [1 << 16]uint16
	Running   bool
}

type Machine struct {
	Devices *DeviceHandler
	State   MachineState
}

// Flags returns the current condition register value.
func (mc *MachineState) Flags() ConditionFlag {
	return ConditionFlag(mc.Registers[REG_COND])
}
