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
package lower_test

import (
	"testing"

	"anvil/ir"
	"anvil/lower"
	"anvil/target"
	"anvil/tdl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func x86Model(t *testing.T) *target.Model {
	t.Helper()
	out, err := tdl.Parse([]byte(target.X86_64Source))
	require.NoError(t, err)
	mdl, err := tdl.Generate(out)
	require.NoError(t, err)
	mdl.Triple = target.ParseTriple("x86_64-linux-gnu")
	return mdl
}

func TestSelectSimpleFunction(t *testing.T) {
	mdl := x86Model(t)
	fr := ir.NewFrame(mdl.Triple)
	i32 := fr.Types.GetInteger(32)

	fn := fr.AddFunc("add_one", i32, []ir.Param{{Name: "x", Ty: i32}}, 8, 0)
	entry := fr.AddBlock(fn, "entry", ir.GenerateLabel)
	param := fr.NewValue(fn, i32)
	one := fr.NewValue(fn, i32)
	sum := fr.NewValue(fn, i32)
	fr.EmitMov(entry, param, param)
	fr.EmitBinOp(entry, ir.BinAdd, sum, param, one)
	fr.EmitRet(entry, sum)

	rep := lower.Select(fr, mdl)
	require.True(t, rep.OK(), "%v", rep.Errors)
	require.Len(t, rep.Output.Funcs, 1)

	lf := rep.Output.Funcs[0]
	assert.Equal(t, "add_one", lf.Name)
	require.Len(t, lf.Blocks, 1)
	assert.NotEmpty(t, lf.Blocks[0].Instrs)

	last := lf.Blocks[0].Instrs[len(lf.Blocks[0].Instrs)-1]
	assert.Equal(t, "ret", last.Instr.Name)
}

func TestSelectReportsPerFunctionError(t *testing.T) {
	mdl := &target.Model{Name: "empty"} // no registers at all
	fr := ir.NewFrame(target.Triple{})
	i32 := fr.Types.GetInteger(32)
	fn := fr.AddFunc("broken", i32, nil, 8, 0)
	entry := fr.AddBlock(fn, "entry", ir.GenerateLabel)
	v := fr.NewValue(fn, i32)
	fr.EmitRet(entry, v)

	rep := lower.Select(fr, mdl)
	assert.False(t, rep.OK())
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0].Error(), "broken")
}

func TestSelectPopulatesResultAndClobbers(t *testing.T) {
	mdl := x86Model(t)
	fr := ir.NewFrame(mdl.Triple)
	i32 := fr.Types.GetInteger(32)

	fn := fr.AddFunc("div_one", i32, []ir.Param{{Name: "x", Ty: i32}}, 8, 0)
	entry := fr.AddBlock(fn, "entry", ir.GenerateLabel)
	param := fr.NewValue(fn, i32)
	one := fr.NewValue(fn, i32)
	quot := fr.NewValue(fn, i32)
	fr.EmitMov(entry, param, param)
	fr.EmitBinOp(entry, ir.BinDiv, quot, param, one)
	fr.EmitRet(entry, quot)

	rep := lower.Select(fr, mdl)
	require.True(t, rep.OK(), "%v", rep.Errors)

	var idiv *lower.TargetInstruction
	for i, in := range rep.Output.Funcs[0].Blocks[0].Instrs {
		if in.Instr.Name == "idiv" {
			idiv = &rep.Output.Funcs[0].Blocks[0].Instrs[i]
		}
	}
	require.NotNil(t, idiv)
	require.NotNil(t, idiv.Result)
	require.Len(t, idiv.Clobbers, 1)
	assert.Equal(t, *idiv.Result, idiv.Clobbers[0])
}

func TestSelectPrefersNarrowerRegisterClassForWidth(t *testing.T) {
	mdl := x86Model(t)
	fr := ir.NewFrame(mdl.Triple)
	i32 := fr.Types.GetInteger(32)

	fn := fr.AddFunc("add_one", i32, []ir.Param{{Name: "x", Ty: i32}}, 8, 0)
	entry := fr.AddBlock(fn, "entry", ir.GenerateLabel)
	param := fr.NewValue(fn, i32)
	one := fr.NewValue(fn, i32)
	sum := fr.NewValue(fn, i32)
	fr.EmitMov(entry, param, param)
	fr.EmitBinOp(entry, ir.BinAdd, sum, param, one)
	fr.EmitRet(entry, sum)

	rep := lower.Select(fr, mdl)
	require.True(t, rep.OK(), "%v", rep.Errors)

	instrs := rep.Output.Funcs[0].Blocks[0].Instrs
	require.NotEmpty(t, instrs)
	require.NotNil(t, instrs[0].Result)
	assert.Equal(t, "GPR32", instrs[0].Result.Class, "a 32-bit value should round-robin over GPR32, not GPR64")
}

func TestSelectFailsWhenValueWidthExceedsEveryClass(t *testing.T) {
	mdl := x86Model(t)
	fr := ir.NewFrame(mdl.Triple)
	i256 := fr.Types.GetInteger(256)

	fn := fr.AddFunc("too_wide", i256, []ir.Param{{Name: "x", Ty: i256}}, 8, 0)
	entry := fr.AddBlock(fn, "entry", ir.GenerateLabel)
	param := fr.NewValue(fn, i256)
	dup := fr.NewValue(fn, i256)
	fr.EmitMov(entry, dup, param)
	fr.EmitRet(entry, dup)

	rep := lower.Select(fr, mdl)
	assert.False(t, rep.OK())
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0].Error(), "too_wide")
}

func TestSelectStoreAndLoad(t *testing.T) {
	mdl := x86Model(t)
	fr := ir.NewFrame(mdl.Triple)
	i32 := fr.Types.GetInteger(32)
	ptr := fr.Types.GetPointer(i32)

	fn := fr.AddFunc("roundtrip", fr.Types.GetVoid(), nil, 8, 0)
	entry := fr.AddBlock(fn, "entry", ir.GenerateLabel)
	addr := fr.NewValue(fn, ptr)
	val := fr.NewValue(fn, i32)
	loaded := fr.NewValue(fn, i32)
	fr.EmitStore(entry, addr, val)
	fr.EmitLoad(entry, loaded, addr)
	fr.EmitRet(entry, ir.ValueHandle{})

	rep := lower.Select(fr, mdl)
	require.True(t, rep.OK(), "%v", rep.Errors)
	instrs := rep.Output.Funcs[0].Blocks[0].Instrs
	require.Len(t, instrs, 3)
	assert.Equal(t, "movStore", instrs[0].Instr.Name)
	assert.Equal(t, "movLoad", instrs[1].Instr.Name)
	assert.Equal(t, "ret", instrs[2].Instr.Name)
}
