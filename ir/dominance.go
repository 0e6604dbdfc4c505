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

// Dominates reports whether block a dominates block b within fn's
// CFG: every path from the entry block (fn.Blocks[0]) to b passes
// through a. This is trimmed from compile/ssa/domtree.go's full
// iterative dominator-tree computation down to the single fact the
// verifier needs (VerifyFrame's "every def dominates its uses"
// check) — a full optimizer, which is what domtree.go's immediate-
// dominator queries otherwise serve, is out of scope.
func Dominates(fr *Frame, fn FuncHandle, a, b BlockHandle) bool {
	if a.Index() == b.Index() {
		return true
	}
	f, ok := fr.Func(fn)
	if !ok || len(f.Blocks) == 0 {
		return false
	}
	entry := f.Blocks[0]

	visited := map[uint32]bool{entry.Index(): true}
	queue := []BlockHandle{entry}
	reached := false

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Index() == b.Index() {
			reached = true
			continue
		}
		if cur.Index() == a.Index() {
			continue // don't expand through the candidate dominator
		}
		blk, ok := fr.Block(cur)
		if !ok {
			continue
		}
		for _, succ := range blk.Succs {
			if !visited[succ.Index()] {
				visited[succ.Index()] = true
				queue = append(queue, succ)
			}
		}
	}
	return !reached
}
