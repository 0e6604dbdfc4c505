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

import "anvil/arena"

// Op is the instruction tag of the six-member tagged union below.
type Op int

const (
	OpAlloc Op = iota
	OpBinOp
	OpMov
	OpLoad
	OpStore
	OpRet
)

func (op Op) String() string {
	switch op {
	case OpAlloc:
		return "alloc"
	case OpBinOp:
		return "binop"
	case OpMov:
		return "mov"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpRet:
		return "ret"
	default:
		return "?"
	}
}

// BinOpKind is the arithmetic operator carried by an OpBinOp
// instruction.
type BinOpKind int

const (
	BinAdd BinOpKind = iota
	BinSub
	BinMul
	BinDiv
)

func (k BinOpKind) String() string {
	switch k {
	case BinAdd:
		return "add"
	case BinSub:
		return "sub"
	case BinMul:
		return "mul"
	case BinDiv:
		return "div"
	default:
		return "?"
	}
}

// InstrHandle is a stable reference to an Instr.
type InstrHandle = arena.Handle[Instr]

// Instr is the tagged union of the six IR instruction kinds. Rather
// than one struct type per kind, it's expressed as a sum type: a
// single struct keyed on Op, where Dest and Args carry the operand
// shape for every kind and BinKind disambiguates OpBinOp's four
// arithmetic operators.
//
//	Alloc{dest, amount}   -> Op=OpAlloc,  Dest=dest,  Args=[amount]
//	BinOp{op,dest,lhs,rhs}-> Op=OpBinOp,  Dest=dest,  Args=[lhs,rhs], BinKind=op
//	Mov{dest,src}         -> Op=OpMov,    Dest=dest,  Args=[src]
//	Load{dest,addr}       -> Op=OpLoad,   Dest=dest,  Args=[addr]
//	Store{addr,value}     -> Op=OpStore,  Dest=Null,  Args=[addr,value]
//	Ret{value?}           -> Op=OpRet,    Dest=Null,  Args=[value] or []
type Instr struct {
	Op      Op
	Dest    ValueHandle
	Args    []ValueHandle
	BinKind BinOpKind
	Block   BlockHandle // back reference to the parent block
}

// HasDest reports whether this instruction carries a destination
// value (every kind but Store and Ret).
func (in Instr) HasDest() bool {
	return !in.Dest.IsNull()
}
