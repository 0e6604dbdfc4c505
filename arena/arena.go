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

// Package arena implements a process-local, single-owner region
// allocator. Every allocation returns a Handle: a (generation, index)
// pair into a pointer table, never a raw pointer, so the backing
// store can relocate on growth without invalidating anything a caller
// is holding.
package arena

import (
	"github.com/dolthub/swiss"
)

type entry struct {
	value      any
	generation uint32
	alive      bool
}

// Arena owns a pointer table that grows by doubling and a destructor
// registry for non-trivially-destructible allocations. It is not
// thread-safe; it must stay within one owning goroutine.
type Arena struct {
	table       []entry
	nextGen     uint32
	destructors *swiss.Map[uint32, func()]
	closed      bool
}

// New returns an empty Arena.
func New() *Arena {
	return &Arena{
		destructors: swiss.NewMap[uint32, func()](8),
	}
}

func (a *Arena) push(e entry) uint32 {
	if len(a.table) == cap(a.table) {
		newCap := cap(a.table) * 2
		if newCap == 0 {
			newCap = 8
		}
		grown := make([]entry, len(a.table), newCap)
		copy(grown, a.table)
		a.table = grown
	}
	a.table = append(a.table, e)
	return uint32(len(a.table) - 1)
}

// Alloc constructs a copy of v in arena-owned storage and returns a
// stable handle to it. Alloc is a free function, not a method,
// because Go methods cannot carry their own type parameters beyond
// the receiver's.
func Alloc[T any](a *Arena, v T) Handle[T] {
	if a.closed {
		return Null[T]()
	}
	p := new(T)
	*p = v
	a.nextGen++
	gen := a.nextGen
	idx := a.push(entry{value: p, generation: gen, alive: true})
	return Handle[T]{generation: gen, index: idx}
}

// Resolve indexes the pointer table. A handle whose index exceeds the
// current table, or whose generation does not match a live entry
// (destroyed or never allocated), yields (nil, false).
func Resolve[T any](a *Arena, h Handle[T]) (*T, bool) {
	if h.IsNull() || int(h.index) >= len(a.table) {
		return nil, false
	}
	e := a.table[h.index]
	if !e.alive || e.generation != h.generation {
		return nil, false
	}
	p, ok := e.value.(*T)
	if !ok {
		return nil, false
	}
	return p, true
}

// RegisterDestructor arranges for fn to run when h is explicitly
// destroyed, or when the owning Arena is closed, whichever comes
// first.
func RegisterDestructor[T any](a *Arena, h Handle[T], fn func()) {
	if h.IsNull() {
		return
	}
	a.destructors.Put(h.index, fn)
}

// Destroy runs h's registered destructor (if any), nulls its
// pointer-table entry, and makes every future Resolve of h fail.
func Destroy[T any](a *Arena, h Handle[T]) {
	if h.IsNull() || int(h.index) >= len(a.table) {
		return
	}
	e := &a.table[h.index]
	if !e.alive || e.generation != h.generation {
		return
	}
	if fn, ok := a.destructors.Get(h.index); ok {
		fn()
		a.destructors.Delete(h.index)
	}
	e.alive = false
	e.value = nil
}

// Len reports the number of live and dead entries in the pointer
// table (i.e. the high-water mark of allocations, not live count).
func (a *Arena) Len() int {
	return len(a.table)
}

// Close runs every remaining registered destructor and marks the
// arena closed; further Alloc calls return null handles.
func (a *Arena) Close() {
	if a.closed {
		return
	}
	a.destructors.Iter(func(_ uint32, fn func()) bool {
		fn()
		return false
	})
	a.closed = true
}
