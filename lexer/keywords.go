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
package lexer

// KeywordTable maps a keyword's spelling to a stable id. Two
// preconfigured tables are supplied: TDLKeywords and IRKeywords.
type KeywordTable struct {
	byWord map[string]int
	byID   map[int]string
}

// NewKeywordTable builds a table from an ordered keyword list; ids
// are assigned by position so round-tripping (word -> id -> word) is
// exact.
func NewKeywordTable(words []string) KeywordTable {
	t := KeywordTable{
		byWord: make(map[string]int, len(words)),
		byID:   make(map[int]string, len(words)),
	}
	for i, w := range words {
		t.byWord[w] = i
		t.byID[i] = w
	}
	return t
}

// Lookup reports the keyword id for word, if any.
func (t KeywordTable) Lookup(word string) (int, bool) {
	id, ok := t.byWord[word]
	return id, ok
}

// Word reports the keyword spelling for id, the inverse of Lookup.
func (t KeywordTable) Word(id int) (string, bool) {
	w, ok := t.byID[id]
	return w, ok
}

// TDL keyword ids, in declaration order.
const (
	KwTarget = iota
	KwEndian
	KwLittle
	KwBig
	KwRegclass
	KwRegister
	KwData
	KwBit
	KwExtension
	KwInstr
	KwImm
	KwStr
	KwResult
	KwClobber
	KwFormat
	KwWidth
	KwClass
	KwParent
	KwInit
	KwName
	KwCppInc
)

// TDLKeywords is the keyword table the TDL parser configures the
// shared lexer with.
var TDLKeywords = NewKeywordTable([]string{
	"target",
	"endian",
	"little",
	"big",
	"regclass",
	"register",
	"data",
	"bit",
	"extension",
	"instr",
	"imm",
	"str",
	"result",
	"clobber",
	"format",
	"width",
	"class",
	"parent",
	"init",
	"name",
	"__cpp_inc__",
})

// IR keyword ids, in declaration order. "func" is the one structural
// keyword the IR grammar needs beyond the instruction mnemonics (one
// per opcode, with binop spelled add/sub/mul/div), which are
// themselves keywords so the lexer can classify them without parser
// lookahead.
const (
	KwFunc = iota
	KwAlloc
	KwBinOpAdd
	KwBinOpSub
	KwBinOpMul
	KwBinOpDiv
	KwMov
	KwLoad
	KwStore
	KwRet
)

// IRKeywords is the keyword table the IR text parser configures the
// shared lexer with.
var IRKeywords = NewKeywordTable([]string{
	"func",
	"alloc",
	"add",
	"sub",
	"mul",
	"div",
	"mov",
	"load",
	"store",
	"ret",
})
