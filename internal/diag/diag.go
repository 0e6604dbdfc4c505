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

// Package diag holds the error taxonomy shared by every pipeline
// stage: lexer, parser, model generator, lowering, and writers. Each
// error type carries just enough context to print as a single
// diagnostic line.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// IoError wraps a file or stream I/O failure.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error on %s: %v", e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// NewIoError wraps err with path context.
func NewIoError(path string, err error) *IoError {
	return &IoError{Path: path, Err: errors.Wrapf(err, "reading %s", path)}
}

// LexError reports a malformed UTF-8 sequence or literal at a line.
type LexError struct {
	Line int
	What string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at line %d: %s", e.Line, e.What)
}

// ParseError reports a syntactic TDL or IR violation at a line.
type ParseError struct {
	Line int
	What string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.What)
}

// ModelError reports a target-model validation failure: unknown
// class, dangling result reference, too many clobbers.
type ModelError struct {
	What string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error: %s", e.What)
}

// LoweringError reports a per-function lowering failure. The
// pipeline recovers from this by skipping the function and
// continuing with the rest of the frame.
type LoweringError struct {
	FuncName string
	What     string
}

func (e *LoweringError) Error() string {
	return fmt.Sprintf("lowering error in %s: %s", e.FuncName, e.What)
}

// WriterError reports an assembly or ELF layout invariant violation.
// Fatal to the current output.
type WriterError struct {
	What string
}

func (e *WriterError) Error() string {
	return fmt.Sprintf("writer error: %s", e.What)
}

// ErrOutOfMemory is returned when the arena or heap allocator fails.
var ErrOutOfMemory = errors.New("out of memory")

// Wrap attaches component context to err using pkg/errors, preserving
// the underlying typed error for errors.As.
func Wrap(err error, component string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, component)
}

// Diagnostic renders err as a single printable diagnostic line: no
// stack trace, just the cause chain.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}

// Assertf panics on an internal invariant violation — a bug, not a
// user-facing syntax error. Never used for lexer/parser/model errors.
func Assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
