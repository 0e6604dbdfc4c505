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
	"fmt"

	"anvil/internal/diag"
)

// VerifyFrame walks every function, block, and instruction of fr and
// reports the first violation found: an operand handle that fails to
// resolve, or a use that is not dominated by its def.
func VerifyFrame(fr *Frame) error {
	for _, fh := range fr.Funcs {
		f, ok := fr.Func(fh)
		if !ok {
			return diag.Wrap(fmt.Errorf("dangling function handle"), "ir.VerifyFrame")
		}
		if err := verifyFunc(fr, fh, f); err != nil {
			return diag.Wrap(err, "ir.VerifyFrame")
		}
	}
	return nil
}

func verifyFunc(fr *Frame, fh FuncHandle, f *Func) error {
	for _, bh := range f.Blocks {
		b, ok := fr.Block(bh)
		if !ok {
			return fmt.Errorf("function %s: dangling block handle", f.Name)
		}
		for _, ih := range b.Instrs {
			in, ok := fr.Instr(ih)
			if !ok {
				return fmt.Errorf("function %s: dangling instruction handle", f.Name)
			}
			for _, argH := range in.Args {
				v, ok := fr.Value(argH)
				if !ok {
					return fmt.Errorf("function %s, block %s: operand does not resolve", f.Name, b.Name)
				}
				if v.Def.IsNull() {
					continue // a parameter or otherwise externally-defined value
				}
				defIn, ok := fr.Instr(v.Def)
				if !ok {
					return fmt.Errorf("function %s: value %d's def instruction does not resolve", f.Name, v.ID)
				}
				if !Dominates(fr, fh, defIn.Block, bh) {
					return fmt.Errorf("function %s: value %%%d used in block %s before its def dominates", f.Name, v.ID, b.Name)
				}
			}
		}
	}
	return nil
}
