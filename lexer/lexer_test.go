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
package lexer_test

import (
	"context"
	"strings"
	"testing"

	"anvil/lexer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordTokenization(t *testing.T) {
	// "target = x86_64" under the TDL keyword table.
	out, err := lexer.Lex([]byte("target = x86_64"), lexer.TDLKeywords)
	require.NoError(t, err)
	require.Len(t, out.Tokens, 3)

	assert.Equal(t, lexer.KindKeyword, out.Tokens[0].Kind)
	assert.Equal(t, lexer.KwTarget, out.Tokens[0].Extra)

	assert.Equal(t, lexer.KindPunct, out.Tokens[1].Kind)
	assert.Equal(t, int('='), out.Tokens[1].Extra)

	// x86_64 leads with a letter, so the recorded lead rule puts it
	// in Alpha/Ident even though most of it is digits.
	assert.Equal(t, lexer.KindIdent, out.Tokens[2].Kind)
	assert.Equal(t, "x86_64", out.Tokens[2].Text)
}

func TestKeywordRoundTrip(t *testing.T) {
	// Every keyword's Extra maps back to the same spelling via
	// KeywordTable.Word.
	for _, kw := range []string{"target", "endian", "regclass", "register", "instr"} {
		out, err := lexer.Lex([]byte(kw), lexer.TDLKeywords)
		require.NoError(t, err)
		require.Len(t, out.Tokens, 1)
		require.Equal(t, lexer.KindKeyword, out.Tokens[0].Kind)
		word, ok := lexer.TDLKeywords.Word(out.Tokens[0].Extra)
		require.True(t, ok)
		assert.Equal(t, kw, word)
	}
}

func TestOperatorGreedyMatch(t *testing.T) {
	out, err := lexer.Lex([]byte("<<= << < = =="), lexer.IRKeywords)
	require.NoError(t, err)
	require.Len(t, out.Tokens, 5)
	assert.Equal(t, lexer.KindOperator, out.Tokens[0].Kind)
	assert.Equal(t, int(lexer.OpLShiftAssign), out.Tokens[0].Extra)
	assert.Equal(t, int(lexer.OpLShift), out.Tokens[1].Extra)
	assert.Equal(t, lexer.KindPunct, out.Tokens[2].Kind)
	assert.Equal(t, lexer.KindPunct, out.Tokens[3].Kind)
	assert.Equal(t, int(lexer.OpEq), out.Tokens[4].Extra)
}

func TestNumberLiterals(t *testing.T) {
	out, err := lexer.Lex([]byte("42 0xFF 0b1010 3.14"), lexer.IRKeywords)
	require.NoError(t, err)
	require.Len(t, out.Tokens, 4)
	assert.Equal(t, lexer.KindInt, out.Tokens[0].Kind)
	assert.Equal(t, lexer.KindHex, out.Tokens[1].Kind)
	assert.Equal(t, lexer.KindBinary, out.Tokens[2].Kind)
	assert.Equal(t, lexer.KindFloat, out.Tokens[3].Kind)
}

func TestLineCommentsAndBlockComments(t *testing.T) {
	src := "a // comment\nb /* block\ncomment */ c"
	out, err := lexer.Lex([]byte(src), lexer.IRKeywords)
	require.NoError(t, err)
	require.Len(t, out.Tokens, 3)
	assert.Equal(t, "a", out.Tokens[0].Text)
	assert.Equal(t, 1, out.Tokens[0].Line)
	assert.Equal(t, "b", out.Tokens[1].Text)
	assert.Equal(t, 2, out.Tokens[1].Line)
	assert.Equal(t, "c", out.Tokens[2].Text)
	assert.Equal(t, 3, out.Tokens[2].Line)
}

func TestStrayContinuationByteIsLexError(t *testing.T) {
	_, err := lexer.Lex([]byte{0x80}, lexer.IRKeywords)
	assert.Error(t, err)
}

func TestLexParallelMergeDeterminism(t *testing.T) {
	// lex(B) == merge(lex(B[..s]), lex(B[s..])) for a valid split
	// point, modulo the line offset the merge applies.
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("add sub mul div load store\n")
	}
	src := []byte(sb.String())

	sequential, err := lexer.Lex(src, lexer.IRKeywords)
	require.NoError(t, err)

	parallel, err := lexer.LexParallel(context.Background(), src, lexer.IRKeywords)
	require.NoError(t, err)

	require.Equal(t, len(sequential.Tokens), len(parallel.Tokens))
	for i := range sequential.Tokens {
		assert.Equal(t, sequential.Tokens[i].Kind, parallel.Tokens[i].Kind)
		assert.Equal(t, sequential.Tokens[i].Text, parallel.Tokens[i].Text)
		assert.Equal(t, sequential.Tokens[i].Line, parallel.Tokens[i].Line)
	}
}
