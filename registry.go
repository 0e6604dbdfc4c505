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

// Package anvil is the compiler backend toolkit's library surface: it
// wires package tdl's front end to package target's builtin
// descriptions (neither of which may import the other, see
// target/registry.go) and exposes the one top-level Compile entry
// point cmd/anvilc and other callers use.
package anvil

import (
	"fmt"

	"anvil/target"
	"anvil/tdl"
)

// BuiltinModel resolves a target triple string (e.g.
// "x86_64-linux-gnu") to the parsed, generated *target.Model of its
// architecture's builtin description, with Triple set from the
// parsed, validated triple. This is the one place in
// the module that imports both target and tdl: target exposes raw
// TDL source text precisely so no lower-level package has to.
func BuiltinModel(triple string) (*target.Model, error) {
	t := target.ParseTriple(triple)
	if !t.Valid() {
		return nil, fmt.Errorf("invalid target triple %q", triple)
	}

	src, ok := target.BuiltinSource(t.Arch.String())
	if !ok {
		return nil, fmt.Errorf("no builtin target description for arch %q (have: %v)", t.Arch, target.BuiltinArches())
	}

	out, err := tdl.Parse([]byte(src))
	if err != nil {
		return nil, err
	}
	mdl, err := tdl.Generate(out)
	if err != nil {
		return nil, err
	}
	mdl.Triple = t
	return mdl, nil
}
