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

// Package lower selects target instructions for an ir.Frame against a
// target.Model and assembles a LoweredOutput the assembly printer
// consumes. Grounded on compile/codegen/lir.go's Instruction/IOperand
// shape: each value gets a register from the narrowest declared class
// its width fits in. Register allocation proper is out of scope, so
// lowering assigns a small round-robin set of registers per function
// instead of running a real allocator.
package lower

import "anvil/target"

// TargetInstruction is one emitted machine instruction: the target
// model's Instruction record, the resolved textual argument for each
// of its Formatees in order, the register bound to its result (nil if
// it has none), and the registers bound to its clobber set.
type TargetInstruction struct {
	Instr    target.Instruction
	Args     []string
	Result   *target.Register
	Clobbers []target.Register
}

// LoweredBlock is one basic block's worth of target instructions.
type LoweredBlock struct {
	Name    string
	Labeled bool // mirrors ir.GenerateLabel: whether the printer emits a label for this block
	Instrs  []TargetInstruction
}

// LoweredFunction is one function's lowered body plus the layout
// metadata the assembly printer needs (global symbol, alignment).
type LoweredFunction struct {
	Name        string
	Global      bool
	ManualAlign bool   // when false, the printer uses its default p2align exponent
	Align       uint32 // p2align exponent, meaningful when ManualAlign is true
	Blocks      []LoweredBlock
}

// LoweredOutput is a whole translation unit's lowered form, ready for
// asmprint.
type LoweredOutput struct {
	Triple target.Triple
	Funcs  []LoweredFunction
}

// Report is Select's result: the lowered output built from whichever
// functions lowered cleanly, plus one *diag.LoweringError per function
// that did not. A per-function lowering failure is recoverable:
// lowering continues with the rest of the frame.
type Report struct {
	Output LoweredOutput
	Errors []error
}

// OK reports whether every function lowered without error.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}
