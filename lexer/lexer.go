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

// Package lexer implements the table-driven, UTF-8-aware lexer
// shared by the TDL parser and the IR parser. It is configured with
// a KeywordTable (TDLKeywords or IRKeywords) and can optionally split
// its input for a two-way concurrent lex whose merged result is
// identical to a single-threaded lex over the same bytes.
package lexer

import (
	"bytes"
	"context"
	"fmt"

	"anvil/internal/diag"

	"golang.org/x/sync/errgroup"
)

// scanner holds the mutable state of one sequential lex pass.
type scanner struct {
	src     []byte
	pos     int
	line    int
	kw      KeywordTable
	lineCmt string
	mlStart string
	mlEnd   string
}

func newScanner(src []byte, kw KeywordTable) *scanner {
	return &scanner{src: src, line: 1, kw: kw, lineCmt: "//", mlStart: "/*", mlEnd: "*/"}
}

func (s *scanner) matchesAt(pos int, lit string) bool {
	if pos+len(lit) > len(s.src) {
		return false
	}
	return string(s.src[pos:pos+len(lit)]) == lit
}

// Lex runs a sequential lex over src using the given keyword table.
func Lex(src []byte, kw KeywordTable) (Output, error) {
	s := newScanner(src, kw)
	var out Output
	for {
		tok, ok, err := s.next()
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out.Tokens = append(out.Tokens, tok)
	}
	return out, nil
}

// LexParallel finds a safe split point and lexes both halves
// concurrently via errgroup, then merges results single-threaded,
// offsetting the second half's line numbers. The arena is never
// touched here — this stage only produces token vectors.
func LexParallel(ctx context.Context, src []byte, kw KeywordTable) (Output, error) {
	if len(src) == 0 {
		return Output{}, nil
	}
	if ctx.Err() != nil {
		return Output{}, ctx.Err()
	}

	split, err := findSplit(src, kw)
	if err != nil {
		return Output{}, err
	}
	if split <= 0 || split >= len(src) {
		return Lex(src, kw)
	}

	left := src[:split]
	right := src[split:]

	var leftOut, rightOut Output
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := Lex(left, kw)
		leftOut = o
		return err
	})
	g.Go(func() error {
		o, err := Lex(right, kw)
		rightOut = o
		return err
	})
	if err := g.Wait(); err != nil {
		return Output{}, err
	}

	// The left half ends on line 1 plus its newline count, including
	// newlines after its last token; that is the right half's line 1.
	lastLine := 1 + bytes.Count(left, []byte{'\n'})
	offset := lastLine - 1

	merged := make([]Token, 0, len(leftOut.Tokens)+len(rightOut.Tokens))
	merged = append(merged, leftOut.Tokens...)
	for _, t := range rightOut.Tokens {
		t.Line += offset
		t.Start += split
		t.End += split
		merged = append(merged, t)
	}
	return Output{Tokens: merged}, nil
}

// findSplit locates a safe near-middle split point: the start offset
// of some token, guaranteed outside strings, comments, and
// multi-char operators because token starts always are.
func findSplit(src []byte, kw KeywordTable) (int, error) {
	out, err := Lex(src, kw)
	if err != nil {
		return 0, err
	}
	mid := len(src) / 2
	best := -1
	bestDist := len(src) + 1
	for _, t := range out.Tokens {
		d := t.Start - mid
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			bestDist = d
			best = t.Start
		}
	}
	if best < 0 {
		return 0, nil
	}
	return best, nil
}

// next scans and returns the next token. ok is false at end of
// input.
func (s *scanner) next() (Token, bool, error) {
	if err := s.skipTrivia(); err != nil {
		return Token{}, false, err
	}
	if s.pos >= len(s.src) {
		return Token{}, false, nil
	}

	start := s.pos
	startLine := s.line
	c := s.src[s.pos]
	kind := byteKindTable[c]

	switch kind {
	case bkDigit:
		return s.lexNumber(start, startLine)
	case bkAlpha:
		return s.lexIdent(start, startLine)
	case bkQuote1:
		return s.lexQuoted(start, startLine, '\'', KindChar)
	case bkQuote2:
		return s.lexQuoted(start, startLine, '"', KindString)
	case bkSymbol:
		return s.lexSymbol(start, startLine)
	case bkUTF8Lead2:
		return s.lexUTF8(start, startLine, 2)
	case bkUTF8Lead3:
		return s.lexUTF8(start, startLine, 3)
	case bkUTF8Lead4:
		return s.lexUTF8(start, startLine, 4)
	case bkUTF8Cont:
		return Token{}, false, &diag.LexError{Line: startLine, What: "stray UTF-8 continuation byte outside a multibyte sequence"}
	default:
		return Token{}, false, &diag.LexError{Line: startLine, What: fmt.Sprintf("unexpected byte 0x%02X", c)}
	}
}

func (s *scanner) skipTrivia() error {
	for {
		if s.pos >= len(s.src) {
			return nil
		}
		c := s.src[s.pos]
		switch byteKindTable[c] {
		case bkWhitespace:
			s.pos++
			continue
		case bkNewline:
			s.pos++
			s.line++
			continue
		}
		if s.matchesAt(s.pos, s.lineCmt) {
			s.pos += len(s.lineCmt)
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		if s.matchesAt(s.pos, s.mlStart) {
			s.pos += len(s.mlStart)
			for s.pos < len(s.src) && !s.matchesAt(s.pos, s.mlEnd) {
				if s.src[s.pos] == '\n' {
					s.line++
				}
				s.pos++
			}
			if s.pos >= len(s.src) {
				return &diag.LexError{Line: s.line, What: "unterminated block comment"}
			}
			s.pos += len(s.mlEnd)
			continue
		}
		return nil
	}
}

func (s *scanner) lexNumber(start, line int) (Token, bool, error) {
	if s.src[start] == '0' && start+1 < len(s.src) && (s.src[start+1] == 'x' || s.src[start+1] == 'X') {
		s.pos = start + 2
		for s.pos < len(s.src) && isHexDigit(s.src[s.pos]) {
			s.pos++
		}
		return s.finish(start, line, KindHex), true, nil
	}
	if s.src[start] == '0' && start+1 < len(s.src) && (s.src[start+1] == 'b' || s.src[start+1] == 'B') {
		s.pos = start + 2
		for s.pos < len(s.src) && (s.src[s.pos] == '0' || s.src[s.pos] == '1') {
			s.pos++
		}
		return s.finish(start, line, KindBinary), true, nil
	}
	s.pos = start
	isFloat := false
	for s.pos < len(s.src) && byteKindTable[s.src[s.pos]] == bkDigit {
		s.pos++
	}
	if s.pos < len(s.src) && s.src[s.pos] == '.' && s.pos+1 < len(s.src) && byteKindTable[s.src[s.pos+1]] == bkDigit {
		isFloat = true
		s.pos++
		for s.pos < len(s.src) && byteKindTable[s.src[s.pos]] == bkDigit {
			s.pos++
		}
	}
	kind := KindInt
	if isFloat {
		kind = KindFloat
	}
	return s.finish(start, line, kind), true, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (s *scanner) lexIdent(start, line int) (Token, bool, error) {
	s.pos = start
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		k := byteKindTable[c]
		if k == bkAlpha || k == bkDigit {
			s.pos++
			continue
		}
		break
	}
	text := string(s.src[start:s.pos])
	if id, ok := s.kw.Lookup(text); ok {
		return Token{Start: start, End: s.pos, Line: line, Kind: KindKeyword, Extra: id, Text: text}, true, nil
	}
	return Token{Start: start, End: s.pos, Line: line, Kind: KindIdent, Text: text}, true, nil
}

func (s *scanner) lexQuoted(start, line int, quote byte, kind Kind) (Token, bool, error) {
	s.pos = start + 1
	for s.pos < len(s.src) && s.src[s.pos] != quote {
		if s.src[s.pos] == '\\' && s.pos+1 < len(s.src) {
			s.pos += 2
			continue
		}
		if s.src[s.pos] == '\n' {
			return Token{}, false, &diag.LexError{Line: line, What: "unterminated literal"}
		}
		s.pos++
	}
	if s.pos >= len(s.src) {
		return Token{}, false, &diag.LexError{Line: line, What: "unterminated literal"}
	}
	s.pos++ // consume closing quote
	return s.finish(start, line, kind), true, nil
}

func (s *scanner) lexSymbol(start, line int) (Token, bool, error) {
	window := 3
	if start+window > len(s.src) {
		window = len(s.src) - start
	}
	for w := window; w >= 1; w-- {
		cand := string(s.src[start : start+w])
		if w == 1 {
			break
		}
		if op, ok := operatorTable[cand]; ok {
			s.pos = start + w
			return Token{Start: start, End: s.pos, Line: line, Kind: KindOperator, Extra: int(op), Text: cand}, true, nil
		}
	}
	s.pos = start + 1
	return Token{Start: start, End: s.pos, Line: line, Kind: KindPunct, Extra: int(s.src[start]), Text: string(s.src[start])}, true, nil
}

func (s *scanner) lexUTF8(start, line, width int) (Token, bool, error) {
	if start+width > len(s.src) {
		return Token{}, false, &diag.LexError{Line: line, What: "truncated UTF-8 sequence"}
	}
	for i := 1; i < width; i++ {
		if byteKindTable[s.src[start+i]] != bkUTF8Cont {
			return Token{}, false, &diag.LexError{Line: line, What: "malformed UTF-8 continuation byte"}
		}
	}
	s.pos = start + width
	return s.finish(start, line, KindUTF8), true, nil
}

func (s *scanner) finish(start, line int, kind Kind) Token {
	return Token{Start: start, End: s.pos, Line: line, Kind: kind, Text: string(s.src[start:s.pos])}
}
