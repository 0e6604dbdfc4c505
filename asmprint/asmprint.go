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

// Package asmprint renders a lower.LoweredOutput as GNU AS style
// textual assembly. Grounded on compile/codegen/asm_x86.go's
// Assembler: a buffer built up by small per-construct emit helpers,
// one function per function in the lowered output, prologue and
// epilogue bracketing a body that walks blocks in order.
package asmprint

import (
	"fmt"
	"io"
	"strings"

	"anvil/lower"
	"anvil/target"
)

// defaultAlign is the p2align exponent used when a function does not
// declare MANUAL_ALIGN.
const defaultAlign = 4

// RegisterPrefixFunc renders a register's model name (e.g. "RAX") as
// a syntax-specific operand (e.g. "%rax"). WidthSuffixFunc renders a
// bit width as a mnemonic suffix (e.g. 32 -> "l"). Both are exposed
// as swappable fields on Printer so an alternative syntax can be
// plugged in without touching the per-function structure.
type RegisterPrefixFunc func(name string) string
type WidthSuffixFunc func(width uint32) string

// DefaultRegisterPrefix is GNU AS's "%reg" register syntax.
func DefaultRegisterPrefix(name string) string {
	return "%" + strings.ToLower(name)
}

// DefaultWidthSuffix is GNU AS's b/w/l/q integer mnemonic suffixes.
func DefaultWidthSuffix(width uint32) string {
	switch width {
	case 8:
		return "b"
	case 16:
		return "w"
	case 32:
		return "l"
	case 64:
		return "q"
	default:
		return ""
	}
}

// Printer renders a LoweredOutput to GNU AS text.
type Printer struct {
	RegisterPrefix RegisterPrefixFunc
	WidthSuffix    WidthSuffixFunc
}

// New returns a Printer configured for the default GNU AS syntax.
func New() *Printer {
	return &Printer{
		RegisterPrefix: DefaultRegisterPrefix,
		WidthSuffix:    DefaultWidthSuffix,
	}
}

// Print writes complete assembly for out to w.
func (p *Printer) Print(out lower.LoweredOutput, w io.Writer) error {
	var buf strings.Builder
	buf.WriteString("\t.text\n")
	elf := out.Triple.FileFormat == target.FileFormatELF
	for _, fn := range out.Funcs {
		p.printFunc(&buf, fn, elf)
	}
	_, err := w.Write([]byte(buf.String()))
	return err
}

func (p *Printer) printFunc(buf *strings.Builder, fn lower.LoweredFunction, elf bool) {
	if fn.Global {
		fmt.Fprintf(buf, "\t.globl %s\n", fn.Name)
	}

	align := uint32(defaultAlign)
	if fn.ManualAlign {
		align = fn.Align
	}
	fmt.Fprintf(buf, "\t.p2align %d\n", align)

	if elf {
		fmt.Fprintf(buf, "\t.type %s,@function\n", fn.Name)
	}

	fmt.Fprintf(buf, "%s:\n", fn.Name)
	buf.WriteString("\t.cfi_startproc\n")

	for _, block := range fn.Blocks {
		if block.Labeled {
			fmt.Fprintf(buf, "%s:\n", block.Name)
		}
		for _, instr := range block.Instrs {
			buf.WriteString("\t")
			buf.WriteString(p.emit(instr))
			buf.WriteString("\n")
		}
	}

	fmt.Fprintf(buf, ".Lfunc_%s_end:\n", fn.Name)
	fmt.Fprintf(buf, "\t.size %s, .Lfunc_%s_end-%s\n", fn.Name, fn.Name, fn.Name)
	buf.WriteString("\t.cfi_endproc\n\n")
}

// emit renders one target instruction's format literal with its
// formatees substituted, qualifying the mnemonic with a width suffix
// deduced from its result (or first) operand.
func (p *Printer) emit(ti lower.TargetInstruction) string {
	mnemonic, rest := splitMnemonic(ti.Instr.FormatLiteral)
	if width, ok := operandWidth(ti.Instr); ok {
		mnemonic += p.WidthSuffix(width)
	}
	return mnemonic + substitutePlaceholders(rest, p.renderArgs(ti))
}

// renderArgs renders each resolved formatee argument according to
// its operand kind: registers get the syntax's register prefix,
// immediates get a "$" lead, everything else (strings, labels) is
// passed through unchanged.
func (p *Printer) renderArgs(ti lower.TargetInstruction) []string {
	rendered := make([]string, len(ti.Args))
	for i, arg := range ti.Args {
		switch operandKindFor(ti.Instr, i) {
		case target.OperandRegClass, target.OperandRegister:
			rendered[i] = p.RegisterPrefix(arg)
		case target.OperandImm:
			rendered[i] = "$" + arg
		default:
			rendered[i] = arg
		}
	}
	return rendered
}

// operandKindFor returns the OperandKind bound to the i'th formatee
// of instr, defaulting to OperandStr (pass the argument through
// unchanged) when no binding can be found.
func operandKindFor(instr target.Instruction, i int) target.OperandKind {
	if i >= len(instr.Formatees) {
		return target.OperandStr
	}
	name := instr.Formatees[i].Operand
	for _, op := range instr.Operands {
		if op.Name == name {
			return op.Kind
		}
	}
	return target.OperandStr
}

// operandWidth returns the width of instr's result operand, falling
// back to its first operand, for mnemonic-suffix purposes.
func operandWidth(instr target.Instruction) (uint32, bool) {
	if op, ok := instr.ResultOperand(); ok {
		return op.Width, true
	}
	if len(instr.Operands) > 0 {
		return instr.Operands[0].Width, true
	}
	return 0, false
}

// splitMnemonic splits a format literal like "mov {}, {}" into its
// leading bare mnemonic ("mov") and the remainder ( {}, {}"),
// preserving the separating space in rest.
func splitMnemonic(literal string) (mnemonic, rest string) {
	idx := strings.IndexByte(literal, ' ')
	if idx < 0 {
		return literal, ""
	}
	return literal[:idx], literal[idx:]
}

// substitutePlaceholders replaces each "{}" in rest, in order, with
// the corresponding entry of args.
func substitutePlaceholders(rest string, args []string) string {
	var out strings.Builder
	i := 0
	for {
		idx := strings.Index(rest, "{}")
		if idx < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:idx])
		if i < len(args) {
			out.WriteString(args[i])
			i++
		}
		rest = rest[idx+2:]
	}
	return out.String()
}
