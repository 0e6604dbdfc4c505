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
package ir

import (
	"anvil/arena"
	"anvil/target"
)

// Frame is a translation unit: every function plus the target
// triple, backed by one arena and one type interner.
type Frame struct {
	Arena   *arena.Arena
	Types   *Interner
	Funcs   []FuncHandle
	Triple  target.Triple
	nextVal map[uint32]uint32 // per-function next SSA id, keyed by Func index
}

// NewFrame returns an empty Frame targeting triple.
func NewFrame(triple target.Triple) *Frame {
	return &Frame{
		Arena:   arena.New(),
		Types:   NewInterner(),
		Triple:  triple,
		nextVal: make(map[uint32]uint32),
	}
}

// AddFunc allocates a new function and appends it to the frame.
func (fr *Frame) AddFunc(name string, ret TypeHandle, params []Param, align uint32, flags FuncFlag) FuncHandle {
	h := arena.Alloc(fr.Arena, Func{
		Name:       name,
		ReturnType: ret,
		Params:     params,
		Align:      align,
		Flags:      flags,
	})
	fr.Funcs = append(fr.Funcs, h)
	return h
}

// AddBlock appends a new block to fn.
func (fr *Frame) AddBlock(fn FuncHandle, name string, flags BlockFlag) BlockHandle {
	h := arena.Alloc(fr.Arena, Block{Name: name, Flags: flags, Func: fn})
	f, ok := arena.Resolve(fr.Arena, fn)
	if ok {
		f.Blocks = append(f.Blocks, h)
	}
	return h
}

// ConnectBlocks records a CFG edge from -> to, used only by the
// verifier's dominance check.
func (fr *Frame) ConnectBlocks(from, to BlockHandle) {
	fb, ok := arena.Resolve(fr.Arena, from)
	if ok {
		fb.Succs = append(fb.Succs, to)
	}
	tb, ok := arena.Resolve(fr.Arena, to)
	if ok {
		tb.Preds = append(tb.Preds, from)
	}
}

// NewValue allocates a fresh SSA value of type ty, numbered uniquely
// within fn.
func (fr *Frame) NewValue(fn FuncHandle, ty TypeHandle) ValueHandle {
	id := fr.nextVal[fn.Index()]
	fr.nextVal[fn.Index()] = id + 1
	return arena.Alloc(fr.Arena, Value{ID: id, Ty: ty})
}

// emit appends instr to block and, if it has a destination, stamps
// the destination Value's Def back-reference.
func (fr *Frame) emit(block BlockHandle, instr Instr) InstrHandle {
	instr.Block = block
	h := arena.Alloc(fr.Arena, instr)
	if instr.HasDest() {
		if v, ok := arena.Resolve(fr.Arena, instr.Dest); ok {
			v.Def = h
		}
	}
	b, ok := arena.Resolve(fr.Arena, block)
	if ok {
		b.Instrs = append(b.Instrs, h)
	}
	return h
}

// EmitAlloc emits `dest = alloc amount`.
func (fr *Frame) EmitAlloc(block BlockHandle, dest, amount ValueHandle) InstrHandle {
	return fr.emit(block, Instr{Op: OpAlloc, Dest: dest, Args: []ValueHandle{amount}})
}

// EmitBinOp emits `dest = op lhs, rhs`.
func (fr *Frame) EmitBinOp(block BlockHandle, op BinOpKind, dest, lhs, rhs ValueHandle) InstrHandle {
	return fr.emit(block, Instr{Op: OpBinOp, Dest: dest, Args: []ValueHandle{lhs, rhs}, BinKind: op})
}

// EmitMov emits `dest = mov src`.
func (fr *Frame) EmitMov(block BlockHandle, dest, src ValueHandle) InstrHandle {
	return fr.emit(block, Instr{Op: OpMov, Dest: dest, Args: []ValueHandle{src}})
}

// EmitLoad emits `dest = load addr`.
func (fr *Frame) EmitLoad(block BlockHandle, dest, addr ValueHandle) InstrHandle {
	return fr.emit(block, Instr{Op: OpLoad, Dest: dest, Args: []ValueHandle{addr}})
}

// EmitStore emits `store addr, value`.
func (fr *Frame) EmitStore(block BlockHandle, addr, value ValueHandle) InstrHandle {
	return fr.emit(block, Instr{Op: OpStore, Args: []ValueHandle{addr, value}})
}

// EmitRet emits `ret value` (value may be Null for a void return).
func (fr *Frame) EmitRet(block BlockHandle, value ValueHandle) InstrHandle {
	var args []ValueHandle
	if !value.IsNull() {
		args = []ValueHandle{value}
	}
	return fr.emit(block, Instr{Op: OpRet, Args: args})
}

// Func, Block, Value, Instr resolve their respective handles against
// this frame's arena; they return the zero value and false when the
// handle is null, destroyed, or out of range.
func (fr *Frame) Func(h FuncHandle) (*Func, bool)   { return arena.Resolve(fr.Arena, h) }
func (fr *Frame) Block(h BlockHandle) (*Block, bool) { return arena.Resolve(fr.Arena, h) }
func (fr *Frame) Value(h ValueHandle) (*Value, bool) { return arena.Resolve(fr.Arena, h) }
func (fr *Frame) Instr(h InstrHandle) (*Instr, bool) { return arena.Resolve(fr.Arena, h) }
