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
package lower

import (
	"fmt"

	"anvil/internal/diag"
	"anvil/ir"
	"anvil/target"
)

const generalClass = "GPR64"

// Select lowers every function in fr against mdl, collecting a
// *diag.LoweringError for any function that fails instead of aborting
// the whole frame.
func Select(fr *ir.Frame, mdl *target.Model) *Report {
	rep := &Report{}
	rep.Output.Triple = fr.Triple

	for _, fh := range fr.Funcs {
		f, ok := fr.Func(fh)
		if !ok {
			continue
		}
		lf, err := selectFunc(fr, f, mdl)
		if err != nil {
			rep.Errors = append(rep.Errors, &diag.LoweringError{FuncName: f.Name, What: err.Error()})
			continue
		}
		rep.Output.Funcs = append(rep.Output.Funcs, lf)
	}
	return rep
}

// registerAllocator hands out a small round-robin set of registers,
// one per distinct SSA value, per function. This is a deliberate
// simplification, not real register allocation: values never spill
// and correctness depends on there being few enough live values in a
// function, which holds for every function this selector can
// express.
//
// Each value is bound from the narrowest register class whose
// registers fit its IR type's width, so a 32-bit value round-robins
// over GPR32 while a 64-bit value round-robins over GPR64 — a
// separate counter per class keeps that choice independent of any
// other width's allocation.
type registerAllocator struct {
	mdl    *target.Model
	next   map[string]int
	assign map[ir.ValueHandle]target.Register
}

func newRegisterAllocator(mdl *target.Model) (*registerAllocator, error) {
	if len(mdl.RegistersInClass(generalClass)) == 0 {
		return nil, fmt.Errorf("target model %s has no %s registers", mdl.Name, generalClass)
	}
	return &registerAllocator{mdl: mdl, next: make(map[string]int), assign: make(map[ir.ValueHandle]target.Register)}, nil
}

// regFor returns the register bound to v, choosing one from the
// narrowest class that fits width on first use. width == 0 (type
// could not be resolved) falls back to generalClass. It fails if no
// declared register class is wide enough to hold width.
func (a *registerAllocator) regFor(v ir.ValueHandle, width uint32) (target.Register, error) {
	if r, ok := a.assign[v]; ok {
		return r, nil
	}
	class, err := classForWidth(a.mdl, width)
	if err != nil {
		return target.Register{}, err
	}
	regs := a.mdl.RegistersInClass(class)
	r := regs[a.next[class]%len(regs)]
	a.next[class]++
	a.assign[v] = r
	return r, nil
}

// classForWidth returns the narrowest of mdl's register classes whose
// registers can hold a value of the given width. width == 0 means the
// caller couldn't resolve a type and gets generalClass. An error means
// width exceeds every declared class's register width — the overflow
// a selected function must fail on rather than silently truncate.
func classForWidth(mdl *target.Model, width uint32) (string, error) {
	if width == 0 {
		return generalClass, nil
	}
	best := ""
	var bestWidth, maxWidth uint32
	for _, class := range mdl.Classes {
		regs := mdl.RegistersInClass(class)
		if len(regs) == 0 {
			continue
		}
		w := regs[0].Width
		if w > maxWidth {
			maxWidth = w
		}
		if w >= width && (best == "" || w < bestWidth) {
			best, bestWidth = class, w
		}
	}
	if best == "" {
		return "", fmt.Errorf("value width %d exceeds the widest available register class (%d bits)", width, maxWidth)
	}
	return best, nil
}

// valueWidth resolves v's IR type to a bit width for register-class
// selection: an integer's declared width, 32 or 64 for a float, or 64
// for a pointer (this core's registers are all general-purpose, so a
// pointer just needs a full-width slot). 0 means the type could not be
// resolved, which regFor treats as "use the default class".
func valueWidth(fr *ir.Frame, v ir.ValueHandle) uint32 {
	val, ok := fr.Value(v)
	if !ok {
		return 0
	}
	ty, ok := fr.Types.Resolve(val.Ty)
	if !ok {
		return 0
	}
	switch ty.Kind {
	case ir.TypeInteger:
		return ty.Width
	case ir.TypeFloat:
		if ty.FloatKind == ir.F64 {
			return 64
		}
		return 32
	case ir.TypePointer:
		return 64
	default:
		return 0
	}
}

func selectFunc(fr *ir.Frame, f *ir.Func, mdl *target.Model) (LoweredFunction, error) {
	alloc, err := newRegisterAllocator(mdl)
	if err != nil {
		return LoweredFunction{}, err
	}

	lf := LoweredFunction{
		Name:        f.Name,
		Global:      !f.HasFlag(ir.Local),
		ManualAlign: f.HasFlag(ir.ManualAlign),
		Align:       f.Align,
	}
	for _, bh := range f.Blocks {
		b, ok := fr.Block(bh)
		if !ok {
			continue
		}
		lb := LoweredBlock{Name: b.Name, Labeled: b.HasFlag(ir.GenerateLabel)}
		for _, ih := range b.Instrs {
			in, ok := fr.Instr(ih)
			if !ok {
				continue
			}
			emitted, err := selectInstr(fr, mdl, in, alloc)
			if err != nil {
				return LoweredFunction{}, fmt.Errorf("block %s: %w", b.Name, err)
			}
			lb.Instrs = append(lb.Instrs, emitted...)
		}
		lf.Blocks = append(lf.Blocks, lb)
	}
	return lf, nil
}

// selectInstr maps one IR instruction to zero or more target
// instructions.
func selectInstr(fr *ir.Frame, mdl *target.Model, in *ir.Instr, alloc *registerAllocator) ([]TargetInstruction, error) {
	regFor := func(v ir.ValueHandle) (target.Register, error) {
		return alloc.regFor(v, valueWidth(fr, v))
	}

	switch in.Op {
	case ir.OpAlloc:
		// Stack-slot bookkeeping, not a machine instruction at this
		// lowering granularity; no stack slot is laid out for it here
		// or in the printer.
		return nil, nil

	case ir.OpMov:
		dst, err := regFor(in.Dest)
		if err != nil {
			return nil, err
		}
		src, err := regFor(in.Args[0])
		if err != nil {
			return nil, err
		}
		instr, ok := findFirst(mdl, "mov")
		if !ok {
			return nil, fmt.Errorf("target model has no mov instruction")
		}
		return []TargetInstruction{build(instr, dst, src)}, nil

	case ir.OpBinOp:
		dst, err := regFor(in.Dest)
		if err != nil {
			return nil, err
		}
		lhs, err := regFor(in.Args[0])
		if err != nil {
			return nil, err
		}
		rhs, err := regFor(in.Args[1])
		if err != nil {
			return nil, err
		}
		name, ok := binOpCandidates(in.BinKind)
		if !ok {
			return nil, fmt.Errorf("unknown binary operator %s", in.BinKind)
		}
		instr, ok := findFirst(mdl, name...)
		if !ok {
			return nil, fmt.Errorf("target model has no %s instruction", in.BinKind)
		}
		var out []TargetInstruction
		if dst != lhs {
			movInstr, ok := findFirst(mdl, "mov")
			if !ok {
				return nil, fmt.Errorf("target model has no mov instruction")
			}
			out = append(out, build(movInstr, dst, lhs))
		}
		out = append(out, build(instr, dst, rhs))
		return out, nil

	case ir.OpLoad:
		dst, err := regFor(in.Dest)
		if err != nil {
			return nil, err
		}
		addr, err := regFor(in.Args[0])
		if err != nil {
			return nil, err
		}
		instr, ok := findFirst(mdl, "movLoad", "ldr")
		if !ok {
			return nil, fmt.Errorf("target model has no load instruction")
		}
		return []TargetInstruction{build(instr, dst, addr)}, nil

	case ir.OpStore:
		addr, err := regFor(in.Args[0])
		if err != nil {
			return nil, err
		}
		val, err := regFor(in.Args[1])
		if err != nil {
			return nil, err
		}
		instr, ok := findFirst(mdl, "movStore", "strReg")
		if !ok {
			return nil, fmt.Errorf("target model has no store instruction")
		}
		return []TargetInstruction{build(instr, addr, val)}, nil

	case ir.OpRet:
		instr, ok := findFirst(mdl, "ret")
		if !ok {
			return nil, fmt.Errorf("target model has no ret instruction")
		}
		return []TargetInstruction{{Instr: instr}}, nil

	default:
		return nil, fmt.Errorf("unhandled opcode %s", in.Op)
	}
}

// findFirst returns the first of names that mdl declares.
func findFirst(mdl *target.Model, names ...string) (target.Instruction, bool) {
	for _, n := range names {
		if instr, ok := mdl.FindInstr(n); ok {
			return instr, true
		}
	}
	return target.Instruction{}, false
}

func binOpCandidates(k ir.BinOpKind) ([]string, bool) {
	switch k {
	case ir.BinAdd:
		return []string{"add"}, true
	case ir.BinSub:
		return []string{"sub"}, true
	case ir.BinMul:
		return []string{"imul", "mul"}, true
	case ir.BinDiv:
		return []string{"idiv", "sdiv"}, true
	default:
		return nil, false
	}
}

// build zips instr's declared operands, in order, against regs and
// resolves every Formatee to the bound register's name.
func build(instr target.Instruction, regs ...target.Register) TargetInstruction {
	bindings := make(map[string]target.Register, len(instr.Operands))
	for i, op := range instr.Operands {
		if i < len(regs) {
			bindings[op.Name] = regs[i]
		}
	}
	args := make([]string, len(instr.Formatees))
	for i, f := range instr.Formatees {
		if r, ok := bindings[f.Operand]; ok {
			args[i] = r.Name
		}
	}

	ti := TargetInstruction{Instr: instr, Args: args}
	if instr.Result != "" {
		if r, ok := bindings[instr.Result]; ok {
			ti.Result = &r
		}
	}
	for _, c := range instr.Clobbers {
		if r, ok := bindings[c]; ok {
			ti.Clobbers = append(ti.Clobbers, r)
		}
	}
	return ti
}
