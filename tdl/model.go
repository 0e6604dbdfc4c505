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
package tdl

import (
	"fmt"

	"anvil/internal/diag"
	"anvil/target"
)

const maxClobbers = 6

// Generate validates out and builds a compile-time-usable
// target.Model: one record per register, one target.Instruction per
// instruction, and the list of class names. The clobber cap and result/clobber reference
// checks are enforced here rather than at parse time, since they need
// the fully-parsed set of classes and registers to check against.
func Generate(out TargetOutput) (*target.Model, error) {
	classSet := make(map[string]bool, len(out.RegClasses))
	for _, c := range out.RegClasses {
		classSet[c] = true
	}

	regs := make([]target.Register, 0, len(out.Registers))
	regIndex := make(map[string]int, len(out.Registers))
	for _, r := range out.Registers {
		if !classSet[r.Class] {
			return nil, &diag.ModelError{What: fmt.Sprintf("register %s: unknown class %s", r.Name, r.Class)}
		}
		reg := target.Register{Name: r.Name, Width: r.Width, Class: r.Class, Parent: r.Parent}
		regIndex[r.Name] = len(regs)
		regs = append(regs, reg)
	}

	dataBlocks := make([]target.DataBlock, 0, len(out.DataBlocks))
	for _, d := range out.DataBlocks {
		fields := make([]target.DataField, 0, len(d.Fields))
		for _, f := range d.Fields {
			fields = append(fields, target.DataField{Name: f.Name, Width: f.Width, Init: f.Init})
		}
		dataBlocks = append(dataBlocks, target.DataBlock{Name: d.Name, Fields: fields})
	}

	instrs := make([]target.Instruction, 0, len(out.Instrs))
	for _, in := range out.Instrs {
		if len(in.Clobbers) > maxClobbers {
			return nil, &diag.ModelError{What: fmt.Sprintf("instruction %s: %d clobbers exceeds the cap of %d", in.Name, len(in.Clobbers), maxClobbers)}
		}

		bound := make(map[string]OperandDecl, len(in.Operands))
		operands := make([]target.Operand, 0, len(in.Operands))
		for _, op := range in.Operands {
			bound[op.Name] = op
			operands = append(operands, target.Operand{
				Kind:  target.OperandKind(op.Kind),
				Ref:   op.Ref,
				Width: op.Width,
				Name:  op.Name,
			})
		}

		if in.Result != "" {
			op, ok := bound[in.Result]
			if !ok {
				return nil, &diag.ModelError{What: fmt.Sprintf("instruction %s: result %s is not a declared operand", in.Name, in.Result)}
			}
			if !isRegisterOperand(op.Kind) {
				return nil, &diag.ModelError{What: fmt.Sprintf("instruction %s: result %s must be a register or regclass operand", in.Name, in.Result)}
			}
		}
		for _, c := range in.Clobbers {
			op, ok := bound[c]
			if !ok {
				return nil, &diag.ModelError{What: fmt.Sprintf("instruction %s: clobber %s is not a declared operand", in.Name, c)}
			}
			if !isRegisterOperand(op.Kind) {
				return nil, &diag.ModelError{What: fmt.Sprintf("instruction %s: clobber %s must be a register or regclass operand", in.Name, c)}
			}
		}
		for _, f := range in.Formatees {
			if _, ok := bound[f.Operand]; !ok {
				return nil, &diag.ModelError{What: fmt.Sprintf("instruction %s: format argument %s is not a declared operand", in.Name, f.Operand)}
			}
		}

		formatees := make([]target.Formatee, 0, len(in.Formatees))
		for _, f := range in.Formatees {
			formatees = append(formatees, target.Formatee{Operand: f.Operand, Field: f.Field})
		}

		instrs = append(instrs, target.Instruction{
			Name:          in.Name,
			Operands:      operands,
			Result:        in.Result,
			Clobbers:      append([]string(nil), in.Clobbers...),
			FormatLiteral: in.FormatLiteral,
			Formatees:     formatees,
		})
	}

	return &target.Model{
		Name:       out.TargetName,
		Endian:     target.Endian(out.Endian),
		Classes:    append([]string(nil), out.RegClasses...),
		Registers:  regs,
		DataBlocks: dataBlocks,
		Extensions: append([]string(nil), out.Extensions...),
		Instrs:     instrs,
	}, nil
}

// isRegisterOperand reports whether kind binds to an actual register
// at lowering time (a bare register or a register-class reference),
// as opposed to an immediate or string literal: result and clobber
// references must name one of these, since both describe something
// the lowering register allocator assigns a physical register to.
func isRegisterOperand(kind OperandKind) bool {
	return kind == OperandRegister || kind == OperandRegClass
}
