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
package anvil

import (
	"io"

	"anvil/asmprint"
	"anvil/ir"
	"anvil/lower"
	"anvil/target"
)

// Compile runs the full pipeline on a parsed IR frame: instruction
// selection against mdl, then assembly printing to w. It returns the
// lowering report so a caller can inspect per-function errors even
// when the overall pipeline "succeeds" by emitting the functions that
// did lower. Each function that fails to lower is skipped rather than
// aborting the whole pipeline; collect rep.Errors to see what failed.
func Compile(fr *ir.Frame, mdl *target.Model, w io.Writer) (*lower.Report, error) {
	rep := lower.Select(fr, mdl)
	if err := asmprint.New().Print(rep.Output, w); err != nil {
		return rep, err
	}
	return rep, nil
}
