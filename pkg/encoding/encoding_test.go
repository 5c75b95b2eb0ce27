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

package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Harmful-Alchemist/lc3vm/pkg/encoding"
)

func TestSignExtend(t *testing.T) {
	tests := []struct {
		Name     string
		Value    uint16
		Bitcount uint16
		Want     uint16
	}{
		{"Imm5 Positive", 0x000F, 5, 0x000F},
		{"Imm5 Negative One", 0x001F, 5, 0xFFFF},
		{"Imm5 Minimum", 0x0010, 5, 0xFFF0},
		{"Offset6 Positive", 0x001F, 6, 0x001F},
		{"Offset6 Negative", 0x0020, 6, 0xFFE0},
		{"Offset9 Positive", 0x00FF, 9, 0x00FF},
		{"Offset9 Negative", 0x0100, 9, 0xFF00},
		{"Offset11 Positive", 0x03FF, 11, 0x03FF},
		{"Offset11 Negative", 0x0400, 11, 0xFC00},
		{"Zero", 0x0000, 5, 0x0000},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			assert.Equal(
				t, test.Want, encoding.SignExtend(test.Value, test.Bitcount),
			)
		})
	}
}

// A field with its top bit set extends to all ones above the field; a field
// with its top bit clear is unchanged. The low bits always survive.
func TestSignExtendRoundTrip(t *testing.T) {
	for bits := uint16(2); bits <= 11; bits++ {
		mask := uint16(1)<<bits - 1

		for value := uint16(0); value <= mask; value++ {
			extended := encoding.SignExtend(value, bits)

			assert.Equal(t, value, extended&mask)

			if (value>>(bits-1))&0x1 == 1 {
				assert.Equal(t, 0xFFFF&^mask, extended&^mask)
			} else {
				assert.Equal(t, uint16(0), extended&^mask)
			}
		}
	}
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		Input string
		Want  uint16
		Fails bool
	}{
		{Input: "x3000", Want: 0x3000},
		{Input: "0x3000", Want: 0x3000},
		{Input: "xFF", Want: 0x00FF},
		{Input: "0xff", Want: 0x00FF},
		{Input: "XBEEF", Want: 0xBEEF},
		{Input: "3000", Fails: true},
		{Input: "xG", Fails: true},
		{Input: "x10000", Fails: true},
		{Input: "", Fails: true},
	}

	for _, test := range tests {
		t.Run(test.Input, func(t *testing.T) {
			result, err := encoding.DecodeHex(test.Input)

			if test.Fails {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, test.Want, result)
			}
		})
	}
}

func TestDecodeInt(t *testing.T) {
	tests := []struct {
		Input string
		Want  int16
		Fails bool
	}{
		{Input: "#5", Want: 5},
		{Input: "#-16", Want: -16},
		{Input: "123", Want: 123},
		{Input: "-1", Want: -1},
		{Input: "#32767", Want: 32767},
		{Input: "#32768", Fails: true},
		{Input: "#x10", Fails: true},
		{Input: "", Fails: true},
	}

	for _, test := range tests {
		t.Run(test.Input, func(t *testing.T) {
			result, err := encoding.DecodeInt(test.Input)

			if test.Fails {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, test.Want, result)
			}
		})
	}
}

func TestFitsSigned(t *testing.T) {
	assert.True(t, encoding.FitsSigned(15, 5))
	assert.True(t, encoding.FitsSigned(-16, 5))
	assert.False(t, encoding.FitsSigned(16, 5))
	assert.False(t, encoding.FitsSigned(-17, 5))
	assert.True(t, encoding.FitsSigned(255, 9))
	assert.False(t, encoding.FitsSigned(256, 9))
	assert.True(t, encoding.FitsSigned(-1024, 11))
	assert.False(t, encoding.FitsSigned(1024, 11))
}
