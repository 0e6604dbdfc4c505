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

// FuncFlag is a bitset of per-function flags.
type FuncFlag uint32

const (
	// Local suppresses the assembly printer's global symbol
	// directive.
	Local FuncFlag = 1 << iota
	// ManualAlign requests the function's declared Align instead of
	// the target's default alignment.
	ManualAlign
)

// Param is one formal parameter: a name and a type.
type Param struct {
	Name string
	Ty   TypeHandle
}

// FuncHandle is a stable reference to a Func.
type FuncHandle = arena.Handle[Func]

// Func is an ordered sequence of blocks plus signature and layout
// metadata.
type Func struct {
	Name       string
	ReturnType TypeHandle
	Params     []Param
	Blocks     []BlockHandle
	Align      uint32 // power of two
	Flags      FuncFlag
}

// HasFlag reports whether f is set.
func (fn Func) HasFlag(f FuncFlag) bool {
	return fn.Flags&f != 0
}
