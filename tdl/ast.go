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

// Package tdl implements the Target Description Language: its AST,
// its single-pass fail-fast parser, and the target-model generator
// that turns a parsed TargetOutput into a target.Model.
package tdl

// Endian is the byte order a target description declares.
type Endian int

const (
	EndianNone Endian = iota
	EndianLittle
	EndianBig
)

// OperandKind distinguishes the four operand binding forms: a
// register-class reference, a bare register reference, an immediate
// of a declared width, and a string literal operand.
type OperandKind int

const (
	OperandRegClass OperandKind = iota
	OperandRegister
	OperandImm
	OperandStr
)

// OperandDecl is one formal operand in an instruction's parameter
// list.
type OperandDecl struct {
	Kind  OperandKind
	Ref   string // register-class name or register name; empty for Imm/Str
	Width uint32 // meaningful when Kind == OperandImm
	Name  string // local binding used by result/clobber/format
	Line  int
}

// RegisterDecl is one `register NAME { ... }` declaration.
type RegisterDecl struct {
	Name   string
	Width  uint32
	Class  string
	Parent string // "" when this register has no parent
	Line   int
}

// DataFieldDecl is one bitfield inside a `data` block.
type DataFieldDecl struct {
	Name  string
	Width uint32 // 1 for a bare `bit`, N for `bit<N>`
	Init  uint64
}

// DataBlockDecl is one `data NAME { ... }` declaration.
type DataBlockDecl struct {
	Name   string
	Fields []DataFieldDecl
	Line   int
}

// Formatee is one parenthesized argument to a `format` directive: a
// binding name, optionally followed by a `.field` accessor.
type Formatee struct {
	Operand string
	Field   string // "" means "use the operand's textual representation"
}

// InstrDecl is one `instr NAME(operands) { ... }` declaration.
type InstrDecl struct {
	Name          string
	Operands      []OperandDecl
	Result        string // binding name, or "" for none
	Clobbers      []string
	FormatLiteral string
	Formatees     []Formatee
	Line          int
}

// TargetOutput is the parser's accumulated result: every top-level
// declaration seen in a TDL file, in declaration order. Partially
// populated when the parser fails fast mid-file.
type TargetOutput struct {
	TargetName string
	Endian     Endian
	RegClasses []string
	Registers  []RegisterDecl
	DataBlocks []DataBlockDecl
	Extensions []string
	Instrs     []InstrDecl
	CppIncs    []string
}
