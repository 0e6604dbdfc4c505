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

// Command anvilc is a thin demonstration driver over package anvil: it
// parses one IR source file, selects instructions against a builtin
// target, and prints GNU AS assembly to stdout. It is intentionally
// minimal: no linking, no shelling out to an assembler, no serialized
// object writer beyond what package elfwriter exposes as a library.
package main

import (
	"flag"
	"fmt"
	"os"

	"anvil"
	"anvil/internal/config"
	"anvil/ir"
	"anvil/target"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "anvilc: loading config:", err)
		os.Exit(1)
	}

	triple := flag.String("target", cfg.Triple, "target triple (e.g. x86_64-linux-gnu)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: anvilc [-target triple] source.ir")
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *triple, cfg.Debug); err != nil {
		fmt.Fprintln(os.Stderr, "anvilc:", err)
		os.Exit(1)
	}
}

func run(path, tripleStr string, debug bool) error {
	mdl, err := anvil.BuiltinModel(tripleStr)
	if err != nil {
		return err
	}

	t := target.ParseTriple(tripleStr)
	fr, err := ir.ParseFile(path, t)
	if err != nil {
		return err
	}

	rep, err := anvil.Compile(fr, mdl, os.Stdout)
	if err != nil {
		return err
	}
	if debug {
		for _, ferr := range rep.Errors {
			fmt.Fprintln(os.Stderr, "anvilc: lowering error:", ferr)
		}
	}
	if !rep.OK() {
		return fmt.Errorf("%d function(s) failed to lower", len(rep.Errors))
	}
	return nil
}
