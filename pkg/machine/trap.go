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
	"fmt"
	"io"
)

// trap dispatches one of the six service routines. vector is the low byte of
// the TRAP instruction, addr the address it was fetched from (for
// diagnostics only).
func (mc *Machine) trap(vector uint16, addr uint16) error {
	switch vector {
	case TRAP_GETC:
		return mc.trapGetc()
	case TRAP_OUT:
		return mc.trapOut()
	case TRAP_PUTS:
		return mc.trapPuts()
	case TRAP_IN:
		return mc.trapIn()
	case TRAP_PUTSP:
		return mc.trapPutsp()
	case TRAP_HALT:
		return mc.trapHalt()
	default:
		return &TrapError{Address: addr, Vector: vector}
	}
}

// readKey blocks until the keyboard yields a byte. Under the raw terminal
// settings an idle keyboard reads as io.EOF, so EOF means retry; a source
// that is drained for good spins here, which is the engine's known
// no-timeout limitation.
func (mc *Machine) readKey() (byte, error) {
	if mc.Devices == nil || mc.Devices.Keyboard == nil {
		return 0, ErrNoKeyboard
	}

	for {
		key, err := mc.Devices.Keyboard.ReadByte()

		if err == io.EOF {
			continue
		} else if err != nil {
			return 0, fmt.Errorf("reading keyboard: %w", err)
		}

		return key, nil
	}
}

func (mc *Machine) putChar(char byte) error {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return ErrNoDisplay
	}

	if err := mc.Devices.Display.WriteByte(char); err != nil {
		return fmt.Errorf("writing display: %w", err)
	}

	return nil
}

func (mc *Machine) flush() error {
	if err := mc.Devices.Display.Flush(); err != nil {
		return fmt.Errorf("flushing display: %w", err)
	}

	return nil
}

// GETC: one keyboard byte into the low byte of R0, no echo, no flag update.
func (mc *Machine) trapGetc() error {
	key, err := mc.readKey()

	if err != nil {
		return err
	}

	mc.State.Registers[REG_R0] = uint16(key)

	return nil
}

// OUT: the low byte of R0 to the display.
func (mc *Machine) trapOut() error {
	if err := mc.putChar(byte(mc.State.Registers[REG_R0] & 0xFF)); err != nil {
		return err
	}

	return mc.flush()
}

// PUTS: one character per word starting at memory[R0], stopping before the
// zero word.
func (mc *Machine) trapPuts() error {
	addr := mc.State.Registers[REG_R0]

	for mc.State.Memory[addr] != 0 {
		char := byte(mc.State.Memory[addr] & 0xFF)

		if err := mc.putChar(char); err != nil {
			return err
		}

		addr++
	}

	if mc.Devices == nil || mc.Devices.Display == nil {
		return ErrNoDisplay
	}

	return mc.flush()
}

// IN: prompt, then GETC.
func (mc *Machine) trapIn() error {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return ErrNoDisplay
	}

	if _, err := mc.Devices.Display.WriteString(inputPrompt); err != nil {
		return fmt.Errorf("writing display: %w", err)
	}

	if err := mc.flush(); err != nil {
		return err
	}

	return mc.trapGetc()
}

// PUTSP: two packed characters per word, low byte first. A zero low byte
// ends the string; a zero high byte ends it after the low byte is written.
func (mc *Machine) trapPutsp() error {
	addr := mc.State.Registers[REG_R0]

	for mc.State.Memory[addr]&0xFF != 0 {
		word := mc.State.Memory[addr]

		if err := mc.putChar(byte(word & 0xFF)); err != nil {
			return err
		}

		if word>>8 == 0 {
			break
		}

		if err := mc.putChar(byte(word >> 8)); err != nil {
			return err
		}

		addr++
	}

	if mc.Devices == nil || mc.Devices.Display == nil {
		return ErrNoDisplay
	}

	return mc.flush()
}

// HALT: farewell message, then the one and only transition out of RUNNING.
func (mc *Machine) trapHalt() error {
	if mc.Devices != nil && mc.Devices.Display != nil {
		if _, err := mc.Devices.Display.WriteString(haltMessage); err != nil {
			return fmt.Errorf("writing display: %w", err)
		}

		if err := mc.flush(); err != nil {
			return err
		}
	}

	mc.State.Running = false

	return nil
}
