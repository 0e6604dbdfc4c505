// Copyright (c) 2024 The Anvil Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package tdl_test

import (
	"testing"

	"anvil/internal/diag"
	"anvil/target"
	"anvil/tdl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTDLRoundTrip(t *testing.T) {
	src := `
target = "x86_64"
endian = little
regclass [ GPR64 ]
register RAX { width = 64 class = GPR64 }
instr nop() { format = "nop" () }
`
	out, err := tdl.Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "x86_64", out.TargetName)
	assert.Equal(t, tdl.EndianLittle, out.Endian)
	require.Len(t, out.Registers, 1)
	assert.Equal(t, "RAX", out.Registers[0].Name)
	assert.EqualValues(t, 64, out.Registers[0].Width)
	assert.Equal(t, "GPR64", out.Registers[0].Class)

	mdl, err := tdl.Generate(out)
	require.NoError(t, err)
	require.Len(t, mdl.Registers, 1)
	assert.Equal(t, "RAX", mdl.Registers[0].Name)
	assert.EqualValues(t, 64, mdl.Registers[0].Width)
	assert.Equal(t, "GPR64", mdl.Registers[0].Class)

	nop, ok := mdl.FindInstr("nop")
	require.True(t, ok)
	assert.Empty(t, nop.Operands)
	assert.Empty(t, nop.Clobbers)
	assert.Equal(t, "nop", nop.FormatLiteral)
	assert.Empty(t, nop.Formatees)
}

func TestTDLInstructionWithOperands(t *testing.T) {
	src := `
regclass [ GPR64 ]
register RAX { width = 64 class = GPR64 }
instr add(GPR64 dst, GPR64 src) {
    result = dst
    clobber = [ ]
    format = "add {}, {}" (dst.name, src.name)
}
`
	out, err := tdl.Parse([]byte(src))
	require.NoError(t, err)
	mdl, err := tdl.Generate(out)
	require.NoError(t, err)

	add, ok := mdl.FindInstr("add")
	require.True(t, ok)
	require.Len(t, add.Operands, 2)
	assert.Equal(t, target.OperandRegClass, add.Operands[0].Kind)
	assert.Equal(t, "dst", add.Result)
	require.Len(t, add.Formatees, 2)
	assert.Equal(t, "name", add.Formatees[0].Field)
}

func TestTDLClobberCapRejected(t *testing.T) {
	src := `
regclass [ GPR64 ]
register R0 { width = 64 class = GPR64 }
register R1 { width = 64 class = GPR64 }
register R2 { width = 64 class = GPR64 }
register R3 { width = 64 class = GPR64 }
register R4 { width = 64 class = GPR64 }
register R5 { width = 64 class = GPR64 }
register R6 { width = 64 class = GPR64 }
instr clobbers_too_many() {
    clobber = [ R0 R1 R2 R3 R4 R5 R6 ]
    format = "x" ()
}
`
	out, err := tdl.Parse([]byte(src))
	require.NoError(t, err)
	_, genErr := tdl.Generate(out)
	require.Error(t, genErr)
	// The clobber names in this case aren't declared operands of
	// clobbers_too_many, but the cap check runs before the reference
	// check, so the clobber-count violation is what's reported.
	var modelErr *diag.ModelError
	assert.ErrorAs(t, genErr, &modelErr)
}

func TestTDLUnknownRegisterClassRejected(t *testing.T) {
	src := `
regclass [ GPR64 ]
register RAX { width = 64 class = GPR32 }
`
	out, err := tdl.Parse([]byte(src))
	require.NoError(t, err)
	_, genErr := tdl.Generate(out)
	assert.Error(t, genErr)
}

func TestTDLParentRegister(t *testing.T) {
	src := `
regclass [ GPR64 GPR32 ]
register RAX { width = 64 class = GPR64 }
register EAX { width = 32 class = GPR32 parent RAX }
`
	out, err := tdl.Parse([]byte(src))
	require.NoError(t, err)
	mdl, err := tdl.Generate(out)
	require.NoError(t, err)

	eax, ok := mdl.FindRegister("EAX")
	require.True(t, ok)
	assert.Equal(t, "RAX", eax.Parent)
}

func TestTDLFailFastReturnsPartialOutput(t *testing.T) {
	src := `
target = "x86_64"
regclass [ GPR64 ]
register RAX { width = 64 class = GPR64 }
instr broken(
`
	out, err := tdl.Parse([]byte(src))
	require.Error(t, err)
	assert.Equal(t, "x86_64", out.TargetName)
	assert.Len(t, out.Registers, 1)
}
