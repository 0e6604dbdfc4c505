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

// BlockFlag is a bitset of per-block flags.
type BlockFlag uint32

const (
	// GenerateLabel requests that the assembly printer emit a label
	// for this block.
	GenerateLabel BlockFlag = 1 << iota
)

// BlockHandle is a stable reference to a Block.
type BlockHandle = arena.Handle[Block]

// Block is an ordered sequence of instructions plus the
// predecessor/successor handles the verifier's dominance check uses.
type Block struct {
	Name   string
	Flags  BlockFlag
	Instrs []InstrHandle
	Preds  []BlockHandle
	Succs  []BlockHandle
	Func   FuncHandle // back reference to the parent function
}

// HasFlag reports whether f is set.
func (b Block) HasFlag(f BlockFlag) bool {
	return b.Flags&f != 0
}
