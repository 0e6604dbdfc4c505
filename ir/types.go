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

// Package ir implements the typed, SSA-based IR: an interned type
// system, values, the six-instruction tagged union, blocks,
// functions, and the translation-unit frame, all backed by an arena
// with stable handles.
package ir

import (
	"anvil/arena"

	"github.com/dolthub/swiss"
)

// TypeKind distinguishes the four type constructors: Integer, Float,
// Pointer, Void.
type TypeKind int

const (
	TypeInteger TypeKind = iota
	TypeFloat
	TypePointer
	TypeVoid
)

// FloatKind distinguishes the two float widths.
type FloatKind int

const (
	F32 FloatKind = iota
	F64
)

// TypeHandle is a stable reference to an interned Type.
type TypeHandle = arena.Handle[Type]

// Type is an interned IR type. Two requests with equal structural
// key always return the same handle: structural equality implies
// handle equality.
type Type struct {
	Kind      TypeKind
	Width     uint32 // meaningful when Kind == TypeInteger
	FloatKind FloatKind
	Pointee   TypeHandle // meaningful when Kind == TypePointer
}

type typeKey struct {
	kind      TypeKind
	width     uint32
	floatKind FloatKind
	pointee   uint32
}

// Interner owns the type arena and the structural-key -> handle map
// that makes interning work. github.com/dolthub/swiss backs the map
// because type requests are high-churn during IR construction.
type Interner struct {
	arena *arena.Arena
	table *swiss.Map[typeKey, TypeHandle]
}

// NewInterner returns an empty type interner.
func NewInterner() *Interner {
	return &Interner{
		arena: arena.New(),
		table: swiss.NewMap[typeKey, TypeHandle](16),
	}
}

func (in *Interner) intern(k typeKey, build func() Type) TypeHandle {
	if h, ok := in.table.Get(k); ok {
		return h
	}
	h := arena.Alloc(in.arena, build())
	in.table.Put(k, h)
	return h
}

// GetInteger returns the shared handle for Integer(width).
func (in *Interner) GetInteger(width uint32) TypeHandle {
	return in.intern(typeKey{kind: TypeInteger, width: width}, func() Type {
		return Type{Kind: TypeInteger, Width: width}
	})
}

// GetFloat returns the shared handle for Float(kind).
func (in *Interner) GetFloat(kind FloatKind) TypeHandle {
	return in.intern(typeKey{kind: TypeFloat, floatKind: kind}, func() Type {
		return Type{Kind: TypeFloat, FloatKind: kind}
	})
}

// GetPointer returns the shared handle for Pointer(pointee).
func (in *Interner) GetPointer(pointee TypeHandle) TypeHandle {
	return in.intern(typeKey{kind: TypePointer, pointee: pointee.Index()}, func() Type {
		return Type{Kind: TypePointer, Pointee: pointee}
	})
}

// GetVoid returns the shared handle for Void.
func (in *Interner) GetVoid() TypeHandle {
	return in.intern(typeKey{kind: TypeVoid}, func() Type {
		return Type{Kind: TypeVoid}
	})
}

// Resolve dereferences a TypeHandle.
func (in *Interner) Resolve(h TypeHandle) (*Type, bool) {
	return arena.Resolve(in.arena, h)
}

// IsInteger, IsFloat, IsPointer, IsVoid are convenience predicates
// used by the selector's pattern matching, grounded on
// ast/type.go's Is* predicate style.
func (t Type) IsInteger() bool { return t.Kind == TypeInteger }
func (t Type) IsFloat() bool   { return t.Kind == TypeFloat }
func (t Type) IsPointer() bool { return t.Kind == TypePointer }
func (t Type) IsVoid() bool    { return t.Kind == TypeVoid }

func (t Type) String() string {
	switch t.Kind {
	case TypeInteger:
		return "i" + itoa(t.Width)
	case TypeFloat:
		if t.FloatKind == F32 {
			return "f32"
		}
		return "f64"
	case TypePointer:
		return "ptr"
	case TypeVoid:
		return "void"
	default:
		return "?"
	}
}

func itoa(w uint32) string {
	if w == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for w > 0 {
		i--
		buf[i] = byte('0' + w%10)
		w /= 10
	}
	return string(buf[i:])
}
