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
package ir_test

import (
	"testing"

	"anvil/ir"
	"anvil/target"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeInterningStructuralEquality(t *testing.T) {
	in := ir.NewInterner()

	a := in.GetInteger(32)
	b := in.GetInteger(32)
	assert.Equal(t, a, b, "equal structural keys must share a handle")

	c := in.GetInteger(64)
	assert.NotEqual(t, a, c)

	p1 := in.GetPointer(a)
	p2 := in.GetPointer(b)
	assert.Equal(t, p1, p2, "pointer interning must follow its pointee's handle")

	v1 := in.GetVoid()
	v2 := in.GetVoid()
	assert.Equal(t, v1, v2)
}

func TestTypeStringForms(t *testing.T) {
	in := ir.NewInterner()
	i32, _ := in.Resolve(in.GetInteger(32))
	assert.Equal(t, "i32", i32.String())

	f64, _ := in.Resolve(in.GetFloat(ir.F64))
	assert.Equal(t, "f64", f64.String())

	ptr, _ := in.Resolve(in.GetPointer(in.GetVoid()))
	assert.Equal(t, "ptr", ptr.String())

	void, _ := in.Resolve(in.GetVoid())
	assert.Equal(t, "void", void.String())
}

func testTriple() target.Triple {
	return target.ParseTriple("x86_64-linux-gnu")
}

func TestFrameConstructionAndVerify(t *testing.T) {
	fr := ir.NewFrame(testTriple())
	i32 := fr.Types.GetInteger(32)

	fn := fr.AddFunc("add_one", i32, []ir.Param{{Name: "x", Ty: i32}}, 8, 0)
	entry := fr.AddBlock(fn, "entry", ir.GenerateLabel)

	one := fr.NewValue(fn, i32)
	sum := fr.NewValue(fn, i32)
	param := fr.NewValue(fn, i32)

	fr.EmitMov(entry, param, param) // self-mov keeps the test single-block
	fr.EmitBinOp(entry, ir.BinAdd, sum, param, one)
	fr.EmitRet(entry, sum)

	require.NoError(t, ir.VerifyFrame(fr))
}

func TestVerifyFrameCatchesDanglingOperand(t *testing.T) {
	// A Null value handle is the well-formed void-return encoding and
	// must verify cleanly.
	fr := ir.NewFrame(testTriple())
	i32 := fr.Types.GetInteger(32)
	fn := fr.AddFunc("void_ret", fr.Types.GetVoid(), nil, 8, 0)
	entry := fr.AddBlock(fn, "entry", ir.GenerateLabel)
	fr.EmitRet(entry, ir.ValueHandle{})
	require.NoError(t, ir.VerifyFrame(fr))

	// A handle minted in one frame's arena does not resolve against a
	// different frame's arena, so referencing it counts as dangling.
	other := ir.NewFrame(testTriple())
	otherFn := other.AddFunc("x", i32, nil, 8, 0)
	foreignVal := other.NewValue(otherFn, i32)

	fn2 := fr.AddFunc("uses_foreign_value", i32, nil, 8, 0)
	block2 := fr.AddBlock(fn2, "entry", ir.GenerateLabel)
	fr.EmitRet(block2, foreignVal)

	assert.Error(t, ir.VerifyFrame(fr))
}

func TestVerifyFrameDetectsUseBeforeDomination(t *testing.T) {
	fr := ir.NewFrame(testTriple())
	i32 := fr.Types.GetInteger(32)
	fn := fr.AddFunc("branchy", i32, nil, 8, 0)

	entry := fr.AddBlock(fn, "entry", ir.GenerateLabel)
	left := fr.AddBlock(fn, "left", ir.GenerateLabel)
	right := fr.AddBlock(fn, "right", ir.GenerateLabel)
	fr.ConnectBlocks(entry, left)
	fr.ConnectBlocks(entry, right)

	definedInLeft := fr.NewValue(fn, i32)
	amount := fr.NewValue(fn, i32)
	fr.EmitAlloc(left, definedInLeft, amount)

	// right never runs after left, so a value defined in left cannot
	// dominate a use in right.
	fr.EmitRet(right, definedInLeft)

	err := ir.VerifyFrame(fr)
	assert.Error(t, err)
}

func TestParseStringRoundTrip(t *testing.T) {
	src := `
func i32 add_one(x: i32) {
entry:
	%1 = mov i32 %0
	%2 = add i32 %1, %1
	ret i32 %2
}
`
	fr, err := ir.ParseString(src, testTriple())
	require.NoError(t, err)
	require.Len(t, fr.Funcs, 1)

	f, ok := fr.Func(fr.Funcs[0])
	require.True(t, ok)
	assert.Equal(t, "add_one", f.Name)
	require.Len(t, f.Params, 1)
	assert.Equal(t, "x", f.Params[0].Name)
	require.Len(t, f.Blocks, 1)

	b, ok := fr.Block(f.Blocks[0])
	require.True(t, ok)
	assert.Equal(t, "entry", b.Name)
	require.Len(t, b.Instrs, 3)

	require.NoError(t, ir.VerifyFrame(fr))
}

func TestParseStringRejectsUndefinedValue(t *testing.T) {
	src := `
func void bad() {
entry:
	ret i32 %9
}
`
	_, err := ir.ParseString(src, testTriple())
	assert.Error(t, err)
}

func TestParseStringVoidReturn(t *testing.T) {
	src := `
func void noop() {
entry:
	ret void
}
`
	fr, err := ir.ParseString(src, testTriple())
	require.NoError(t, err)
	require.NoError(t, ir.VerifyFrame(fr))
}
