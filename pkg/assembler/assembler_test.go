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

package assembler_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harmful-Alchemist/lc3vm/pkg/assembler"
	"github.com/Harmful-Alchemist/lc3vm/pkg/machine"
)

func TestAssembleInstructions(t *testing.T) {
	tests := []struct {
		Name   string
		Source string
		Words  []uint16
	}{
		{
			Name:   "ADD Register",
			Source: "ADD R0, R1, R2",
			Words:  []uint16{0b0001_000_001_000_010},
		},
		{
			Name:   "ADD Immediate",
			Source: "ADD R0, R1, #-1",
			Words:  []uint16{0b0001_000_001_1_11111},
		},
		{
			Name:   "AND Register",
			Source: "AND R3, R3, R4",
			Words:  []uint16{0b0101_011_011_000_100},
		},
		{
			Name:   "AND Immediate Zero",
			Source: "AND R0, R0, #0",
			Words:  []uint16{0b0101_000_000_1_00000},
		},
		{
			Name:   "NOT",
			Source: "NOT R0, R1",
			Words:  []uint16{0b1001_000_001_1_11111},
		},
		{
			Name:   "BRnzp Literal Offset",
			Source: "BRnzp #-2",
			Words:  []uint16{0b0000_111_111111110},
		},
		{
			Name:   "BRn",
			Source: "BRn #5",
			Words:  []uint16{0b0000_100_000000101},
		},
		{
			Name:   "JMP",
			Source: "JMP R2",
			Words:  []uint16{0b1100_000_010_000000},
		},
		{
			Name:   "RET",
			Source: "RET",
			Words:  []uint16{0b1100_000_111_000000},
		},
		{
			Name:   "JSR Literal Offset",
			Source: "JSR #4",
			Words:  []uint16{0b0100_1_00000000100},
		},
		{
			Name:   "JSRR",
			Source: "JSRR R3",
			Words:  []uint16{0b0100_0_00_011_000000},
		},
		{
			Name:   "LDR",
			Source: "LDR R1, R2, #3",
			Words:  []uint16{0b0110_001_010_000011},
		},
		{
			Name:   "STR Negative Offset",
			Source: "STR R2, R3, #-1",
			Words:  []uint16{0b0111_010_011_111111},
		},
		{
			Name:   "TRAP",
			Source: "TRAP x21",
			Words:  []uint16{0xF021},
		},
		{
			Name:   "Trap Alias",
			Source: "HALT",
			Words:  []uint16{0xF025},
		},
		{
			Name:   "Lowercase",
			Source: "add r0, r1, r2",
			Words:  []uint16{0b0001_000_001_000_010},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			program, err := assembler.Assemble(
				".ORIG x3000\n" + test.Source + "\n.END\n",
			)

			require.NoError(t, err)

			assert.Equal(t, uint16(0x3000), program.Origin)
			assert.Equal(t, test.Words, program.Words)
		})
	}
}

func TestAssembleLabels(t *testing.T) {
	t.Run("BackwardBranch", func(t *testing.T) {
		program, err := assembler.Assemble(
			".ORIG x3000\n" +
				"LOOP ADD R0, R0, #-1\n" +
				"BRp LOOP\n" +
				"HALT\n" +
				".END\n",
		)

		require.NoError(t, err)

		assert.Equal(t, []uint16{
			0b0001_000_000_1_11111,
			// LOOP is at 0x3000, the branch resolves from 0x3002
			0b0000_001_111111110,
			0xF025,
		}, program.Words)
	})

	t.Run("ForwardLoad", func(t *testing.T) {
		program, err := assembler.Assemble(
			".ORIG x3000\n" +
				"LD R1, VALUE\n" +
				"HALT\n" +
				"VALUE .FILL x1234\n" +
				".END\n",
		)

		require.NoError(t, err)

		assert.Equal(t, []uint16{
			0b0010_001_000000001,
			0xF025,
			0x1234,
		}, program.Words)
	})

	t.Run("LeaString", func(t *testing.T) {
		program, err := assembler.Assemble(
			".ORIG x3000\n" +
				"LEA R0, MSG\n" +
				"PUTS\n" +
				"HALT\n" +
				"MSG .STRINGZ \"HI\"\n" +
				".END\n",
		)

		require.NoError(t, err)

		assert.Equal(t, []uint16{
			0b1110_000_000000010,
			0xF022,
			0xF025,
			0x0048,
			0x0049,
			0x0000,
		}, program.Words)
	})

	t.Run("FillWithLabel", func(t *testing.T) {
		program, err := assembler.Assemble(
			".ORIG x3000\n" +
				"START HALT\n" +
				"PTR .FILL START\n" +
				".END\n",
		)

		require.NoError(t, err)

		assert.Equal(t, []uint16{0xF025, 0x3000}, program.Words)
	})

	t.Run("LabelOnOwnLine", func(t *testing.T) {
		program, err := assembler.Assemble(
			".ORIG x3000\n" +
				"LOOP\n" +
				"BRnzp LOOP\n" +
				".END\n",
		)

		require.NoError(t, err)

		assert.Equal(t, []uint16{0b0000_111_111111111}, program.Words)
	})
}

func TestAssembleDirectives(t *testing.T) {
	t.Run("Blkw", func(t *testing.T) {
		program, err := assembler.Assemble(
			".ORIG x3000\n" +
				"BUF .BLKW #3\n" +
				"END .FILL END\n" +
				".END\n",
		)

		require.NoError(t, err)

		assert.Equal(t, []uint16{0, 0, 0, 0x3003}, program.Words)
	})

	t.Run("StringzEscapes", func(t *testing.T) {
		program, err := assembler.Assemble(
			".ORIG x3000\n" +
				".STRINGZ \"A\\n\\\"B\\\\\"\n" +
				".END\n",
		)

		require.NoError(t, err)

		assert.Equal(t, []uint16{
			0x0041, 0x000A, 0x0022, 0x0042, 0x005C, 0x0000,
		}, program.Words)
	})

	t.Run("CommentsAndBlankLines", func(t *testing.T) {
		program, err := assembler.Assemble(
			"; whole-line comment\n" +
				".ORIG x3000\n" +
				"\n" +
				"HALT ; trailing comment\n" +
				".END\n",
		)

		require.NoError(t, err)

		assert.Equal(t, []uint16{0xF025}, program.Words)
	})
}

func TestAssembleErrors(t *testing.T) {
	t.Run("MissingOrig", func(t *testing.T) {
		_, err := assembler.Assemble("HALT\n")

		var syntaxErr *assembler.SyntaxError
		assert.ErrorAs(t, err, &syntaxErr)
	})

	t.Run("UnknownMnemonic", func(t *testing.T) {
		_, err := assembler.Assemble(".ORIG x3000\nFROB R0, R1\n")

		var syntaxErr *assembler.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.Equal(t, 2, syntaxErr.Line)
	})

	t.Run("UndefinedLabel", func(t *testing.T) {
		_, err := assembler.Assemble(".ORIG x3000\nBRnzp NOWHERE\n")

		var labelErr *assembler.UndefinedLabelError
		require.ErrorAs(t, err, &labelErr)
		assert.Equal(t, "NOWHERE", labelErr.Label)
	})

	t.Run("DuplicateLabel", func(t *testing.T) {
		_, err := assembler.Assemble(
			".ORIG x3000\nA HALT\nA HALT\n",
		)

		var labelErr *assembler.DuplicateLabelError
		require.ErrorAs(t, err, &labelErr)
		assert.Equal(t, "A", labelErr.Label)
	})

	t.Run("ImmediateOutOfRange", func(t *testing.T) {
		_, err := assembler.Assemble(".ORIG x3000\nADD R0, R0, #16\n")

		var rangeErr *assembler.RangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, 16, rangeErr.Value)
		assert.Equal(t, uint16(5), rangeErr.Bitcount)
	})

	t.Run("BranchOutOfRange", func(t *testing.T) {
		_, err := assembler.Assemble(
			".ORIG x3000\n" +
				"BRnzp FAR\n" +
				".BLKW #300\n" +
				"FAR HALT\n",
		)

		var rangeErr *assembler.RangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, uint16(9), rangeErr.Bitcount)
	})

	t.Run("TrapVectorOutOfRange", func(t *testing.T) {
		_, err := assembler.Assemble(".ORIG x3000\nTRAP x100\n")

		var rangeErr *assembler.RangeError
		assert.ErrorAs(t, err, &rangeErr)
	})

	t.Run("UnterminatedString", func(t *testing.T) {
		_, err := assembler.Assemble(".ORIG x3000\n.STRINGZ \"oops\n")

		var syntaxErr *assembler.SyntaxError
		assert.ErrorAs(t, err, &syntaxErr)
	})
}

func TestWriteImage(t *testing.T) {
	program := &assembler.Program{
		Origin: 0x3000,
		Words:  []uint16{0x1234, 0xBEEF},
	}

	var buf bytes.Buffer

	require.NoError(t, program.WriteImage(&buf))

	assert.Equal(
		t, []byte{0x30, 0x00, 0x12, 0x34, 0xBE, 0xEF}, buf.Bytes(),
	)
}

// Assembled output feeds straight through the loader and runs.
func TestAssembleAndRun(t *testing.T) {
	program, err := assembler.Assemble(
		".ORIG x3000\n" +
			"LEA R0, MSG\n" +
			"PUTS\n" +
			"HALT\n" +
			"MSG .STRINGZ \"HI\"\n" +
			".END\n",
	)

	require.NoError(t, err)

	var image bytes.Buffer
	require.NoError(t, program.WriteImage(&image))

	var mc machine.Machine
	var displayBuf bytes.Buffer

	mc.Devices = &machine.DeviceHandler{
		Display: bufio.NewWriter(&displayBuf),
	}

	require.NoError(t, mc.LoadImage(&image))
	require.NoError(t, mc.Run())

	assert.Equal(t, "HIGoodbye!\n", displayBuf.String())
}
