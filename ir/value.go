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

// ValueHandle is a stable reference to a Value.
type ValueHandle = arena.Handle[Value]

// Value is an SSA value: a unique id within its function and a
// type. Def additionally records the instruction that defines it,
// enabling def-use traversal without a separate side table.
type Value struct {
	ID  uint32
	Ty  TypeHandle
	Def InstrHandle
}
