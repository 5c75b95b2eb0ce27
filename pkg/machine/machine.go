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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Harmful-Alchemist/lc3vm/pkg/encoding"
)

func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0x0000
	}

	for i := range mc.Memory {
		mc.Memory[i] = 0x0000
	}

	mc.Registers[REG_PC] = PC_START
	mc.Running = false
}

// LoadImage resets the machine and reads a program image: one big-endian
// origin word, then big-endian code words placed at origin, origin+1, and so
// on until the stream ends. The address cursor wraps modulo 2^16. A short
// origin or an odd trailing byte fails the whole load.
func (mc *Machine) LoadImage(reader io.Reader) error {
	mc.State.Reset()

	scratch := make([]byte, 2)

	if _, err := io.ReadFull(reader, scratch); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrShortOrigin
		}
		return fmt.Errorf("reading image origin: %w", err)
	}

	addr := binary.BigEndian.Uint16(scratch)

	for {
		_, err := io.ReadFull(reader, scratch)

		if err == io.EOF {
			return nil
		} else if err == io.ErrUnexpectedEOF {
			return ErrTruncatedImage
		} else if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}

		mc.State.Memory[addr] = binary.BigEndian.Uint16(scratch)
		addr++
	}
}

// read is the single memory-read primitive. Reading DEV_KBSR polls the
// keyboard without blocking and refreshes the status/data registers before
// the requested cell is returned; every other address is plain storage.
func (mc *Machine) read(addr uint16) (uint16, error) {
	if addr == DEV_KBSR {
		if mc.Devices != nil && mc.Devices.Keyboard != nil {
			key, err := mc.Devices.Keyboard.ReadByte()

			if err == io.EOF {
				mc.State.Memory[DEV_KBSR] = 0
			} else if err != nil {
				return 0, fmt.Errorf("polling keyboard: %w", err)
			} else if key == '\n' {
				// A pending newline reports as no key ready and is
				// swallowed. Inherited quirk, kept as-is.
				mc.State.Memory[DEV_KBSR] = 0
			} else {
				mc.State.Memory[DEV_KBSR] = 1 << 15
				mc.State.Memory[DEV_KBDR] = uint16(key)
			}
		} else {
			mc.State.Memory[DEV_KBSR] = 0
		}
	}

	return mc.State.Memory[addr], nil
}

// write never carries a device side effect; DEV_KBDR and DEV_KBSR behave as
// plain cells when stored to.
func (mc *Machine) write(addr uint16, value uint16) {
	mc.State.Memory[addr] = value
}

func (mc *Machine) setFlags(value uint16) {
	if value == 0 {
		mc.State.Registers[REG_COND] = uint16(FLAG_ZERO)
	} else if value>>15 == 1 {
		mc.State.Registers[REG_COND] = uint16(FLAG_NEG)
	} else {
		mc.State.Registers[REG_COND] = uint16(FLAG_POS)
	}
}

// Run executes from the current program counter until the HALT trap clears
// the running flag or a fatal engine error surfaces.
func (mc *Machine) Run() error {
	mc.State.Running = true

	for mc.State.Running {
		if err := mc.Step(); err != nil {
			mc.State.Running = false
			return err
		}
	}

	return nil
}

// Step fetches, decodes and executes a single instruction. The program
// counter is incremented before the handler runs, so PC-relative operands
// resolve against the next instruction's address.
func (mc *Machine) Step() error {
	fetched := mc.State.Registers[REG_PC]

	instruction, err := mc.read(fetched)
	if err != nil {
		return err
	}

	mc.State.Registers[REG_PC]++

	opcode := instruction >> 12

	switch opcode {
	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD:
		dest := (instruction >> 9) & 0x7
		src1 := (instruction >> 6) & 0x7

		if (instruction>>5)&0x1 == 1 {
			imm5 := encoding.SignExtend(instruction&0x1F, 5)

			mc.State.Registers[dest] = mc.State.Registers[src1] + imm5
		} else {
			src2 := instruction & 0x7

			mc.State.Registers[dest] = mc.State.Registers[src1] +
				mc.State.Registers[src2]
		}

		mc.setFlags(mc.State.Registers[dest])

	// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
	// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_AND:
		dest := (instruction >> 9) & 0x7
		src1 := (instruction >> 6) & 0x7

		if (instruction>>5)&0x1 == 1 {
			imm5 := encoding.SignExtend(instruction&0x1F, 5)

			mc.State.Registers[dest] = mc.State.Registers[src1] & imm5
		} else {
			src2 := instruction & 0x7

			mc.State.Registers[dest] = mc.State.Registers[src1] &
				mc.State.Registers[src2]
		}

		mc.setFlags(mc.State.Registers[dest])

	// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_NOT:
		dest := (instruction >> 9) & 0x7
		src := (instruction >> 6) & 0x7

		mc.State.Registers[dest] = ^mc.State.Registers[src]

		mc.setFlags(mc.State.Registers[dest])

	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_BR:
		mask := (instruction >> 9) & 0x7

		if mask&mc.State.Registers[REG_COND] > 0 {
			mc.State.Registers[REG_PC] +=
				encoding.SignExtend(instruction&0x1FF, 9)
		}

	// JMP  |1100    |000  |BaseR|000000      | Jump
	// RET  |1100    |000  |111  |000000      | Return
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JMP:
		src := (instruction >> 6) & 0x7

		mc.State.Registers[REG_PC] = mc.State.Registers[src]

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JSR:
		mc.State.Registers[REG_R7] = mc.State.Registers[REG_PC]

		if (instruction>>11)&0x1 == 1 {
			mc.State.Registers[REG_PC] +=
				encoding.SignExtend(instruction&0x7FF, 11)
		} else {
			src := (instruction >> 6) & 0x7

			mc.State.Registers[REG_PC] = mc.State.Registers[src]
		}

	// LD   |0010    |DR   |PCoffset9         | Load
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD:
		dest := (instruction >> 9) & 0x7
		addr := mc.State.Registers[REG_PC] +
			encoding.SignExtend(instruction&0x1FF, 9)

		value, err := mc.read(addr)
		if err != nil {
			return err
		}

		mc.State.Registers[dest] = value

		mc.setFlags(mc.State.Registers[dest])

	// LDI  |1010    |DR   |PCoffset9         | Load indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDI:
		dest := (instruction >> 9) & 0x7
		addr := mc.State.Registers[REG_PC] +
			encoding.SignExtend(instruction&0x1FF, 9)

		indirect, err := mc.read(addr)
		if err != nil {
			return err
		}

		value, err := mc.read(indirect)
		if err != nil {
			return err
		}

		mc.State.Registers[dest] = value

		mc.setFlags(mc.State.Registers[dest])

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDR:
		dest := (instruction >> 9) & 0x7
		src := (instruction >> 6) & 0x7
		addr := mc.State.Registers[src] +
			encoding.SignExtend(instruction&0x3F, 6)

		value, err := mc.read(addr)
		if err != nil {
			return err
		}

		mc.State.Registers[dest] = value

		mc.setFlags(mc.State.Registers[dest])

	// LEA  |1110    |DR   |PCoffset9         | Load effective address
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LEA:
		dest := (instruction >> 9) & 0x7

		mc.State.Registers[dest] = mc.State.Registers[REG_PC] +
			encoding.SignExtend(instruction&0x1FF, 9)

		mc.setFlags(mc.State.Registers[dest])

	// ST   |0011    |SR   |PCoffset9         | Store
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ST:
		src := (instruction >> 9) & 0x7
		addr := mc.State.Registers[REG_PC] +
			encoding.SignExtend(instruction&0x1FF, 9)

		mc.write(addr, mc.State.Registers[src])

	// STI  |1011    |SR   |PCoffset9         | Store indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STI:
		src := (instruction >> 9) & 0x7
		addr := mc.State.Registers[REG_PC] +
			encoding.SignExtend(instruction&0x1FF, 9)

		indirect, err := mc.read(addr)
		if err != nil {
			return err
		}

		mc.write(indirect, mc.State.Registers[src])

	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STR:
		src := (instruction >> 9) & 0x7
		base := (instruction >> 6) & 0x7
		addr := mc.State.Registers[base] +
			encoding.SignExtend(instruction&0x3F, 6)

		mc.write(addr, mc.State.Registers[src])

	// TRAP |1111    |0000 |trapvect8         | Service routine call
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_TRAP:
		if err := mc.trap(instruction&0xFF, fetched); err != nil {
			return err
		}

	// RTI  |1000    |000000000000            | Unused
	// RES  |1101    |                        | Reserved (illegal)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	default:
		return &DecodeError{Address: fetched, Instruction: instruction}
	}

	return nil
}
