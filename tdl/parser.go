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
package tdl

import (
	"strconv"

	"anvil/internal/diag"
	"anvil/lexer"
)

// Parser is a single-pass, one-token-lookahead, fail-fast TDL parser.
// On a syntactic violation it returns the TargetOutput accumulated so
// far alongside the error, rather than discarding partial progress.
type Parser struct {
	toks []lexer.Token
	pos  int
	out  TargetOutput

	classNames map[string]bool
	regNames   map[string]bool
}

// Parse lexes src under the TDL keyword table and parses a
// TargetOutput.
func Parse(src []byte) (TargetOutput, error) {
	toks, err := lexer.Lex(src, lexer.TDLKeywords)
	if err != nil {
		return TargetOutput{}, err
	}
	p := &Parser{
		toks:       toks.Tokens,
		classNames: make(map[string]bool),
		regNames:   make(map[string]bool),
	}
	err = p.parseFile()
	return p.out, err
}

func (p *Parser) cur() (lexer.Token, bool) {
	if p.pos >= len(p.toks) {
		return lexer.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *Parser) advance() (lexer.Token, bool) {
	t, ok := p.cur()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *Parser) line() int {
	if t, ok := p.cur(); ok {
		return t.Line
	}
	if n := len(p.toks); n > 0 {
		return p.toks[n-1].Line
	}
	return 0
}

func (p *Parser) errf(what string) error {
	return &diag.ParseError{Line: p.line(), What: what}
}

func (p *Parser) expectPunct(c byte) error {
	t, ok := p.advance()
	if !ok || t.Kind != lexer.KindPunct || byte(t.Extra) != c {
		return p.errf("expected '" + string(c) + "'")
	}
	return nil
}

func (p *Parser) expectKeyword(id int) error {
	t, ok := p.advance()
	if !ok || t.Kind != lexer.KindKeyword || t.Extra != id {
		return p.errf("expected keyword")
	}
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	t, ok := p.advance()
	if !ok || t.Kind != lexer.KindIdent {
		return "", p.errf("expected identifier")
	}
	return t.Text, nil
}

func (p *Parser) expectInt() (uint64, error) {
	t, ok := p.advance()
	if !ok || t.Kind != lexer.KindInt {
		return 0, p.errf("expected integer")
	}
	n, err := strconv.ParseUint(t.Text, 10, 64)
	if err != nil {
		return 0, p.errf("malformed integer literal")
	}
	return n, nil
}

// expectString consumes a quoted-string token and strips its quotes.
func (p *Parser) expectString() (string, error) {
	t, ok := p.advance()
	if !ok || t.Kind != lexer.KindString {
		return "", p.errf("expected string literal")
	}
	if len(t.Text) >= 2 {
		return t.Text[1 : len(t.Text)-1], nil
	}
	return "", nil
}

func (p *Parser) peekIsPunct(c byte) bool {
	t, ok := p.cur()
	return ok && t.Kind == lexer.KindPunct && byte(t.Extra) == c
}

func (p *Parser) peekIsKeyword(id int) bool {
	t, ok := p.cur()
	return ok && t.Kind == lexer.KindKeyword && t.Extra == id
}

// parseFile parses zero or more top-level declarations. An
// unrecognized top-level token stops parsing with a *diag.ParseError;
// the declarations parsed before it stay in p.out.
func (p *Parser) parseFile() error {
	for {
		t, ok := p.cur()
		if !ok {
			return nil
		}
		if t.Kind != lexer.KindKeyword {
			return p.errf("expected a top-level declaration")
		}
		var err error
		switch t.Extra {
		case lexer.KwTarget:
			err = p.parseTarget()
		case lexer.KwEndian:
			err = p.parseEndian()
		case lexer.KwRegclass:
			err = p.parseRegclass()
		case lexer.KwRegister:
			err = p.parseRegister()
		case lexer.KwData:
			err = p.parseData()
		case lexer.KwExtension:
			err = p.parseExtension()
		case lexer.KwInstr:
			err = p.parseInstr()
		case lexer.KwCppInc:
			err = p.parseCppInc()
		default:
			return p.errf("unexpected top-level keyword")
		}
		if err != nil {
			return err
		}
	}
}

func (p *Parser) parseTarget() error {
	if err := p.expectKeyword(lexer.KwTarget); err != nil {
		return err
	}
	if err := p.expectPunct('='); err != nil {
		return err
	}
	s, err := p.expectString()
	if err != nil {
		return err
	}
	p.out.TargetName = s
	return nil
}

func (p *Parser) parseEndian() error {
	if err := p.expectKeyword(lexer.KwEndian); err != nil {
		return err
	}
	if err := p.expectPunct('='); err != nil {
		return err
	}
	t, ok := p.advance()
	if !ok || t.Kind != lexer.KindKeyword {
		return p.errf("expected 'little' or 'big'")
	}
	switch t.Extra {
	case lexer.KwLittle:
		p.out.Endian = EndianLittle
	case lexer.KwBig:
		p.out.Endian = EndianBig
	default:
		return p.errf("expected 'little' or 'big'")
	}
	return nil
}

func (p *Parser) parseIdentList() ([]string, error) {
	if err := p.expectPunct('['); err != nil {
		return nil, err
	}
	var names []string
	for !p.peekIsPunct(']') {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := p.expectPunct(']'); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) parseRegclass() error {
	if err := p.expectKeyword(lexer.KwRegclass); err != nil {
		return err
	}
	names, err := p.parseIdentList()
	if err != nil {
		return err
	}
	for _, n := range names {
		p.classNames[n] = true
	}
	p.out.RegClasses = append(p.out.RegClasses, names...)
	return nil
}

func (p *Parser) parseExtension() error {
	if err := p.expectKeyword(lexer.KwExtension); err != nil {
		return err
	}
	names, err := p.parseIdentList()
	if err != nil {
		return err
	}
	p.out.Extensions = append(p.out.Extensions, names...)
	return nil
}

func (p *Parser) parseCppInc() error {
	if err := p.expectKeyword(lexer.KwCppInc); err != nil {
		return err
	}
	s, err := p.expectString()
	if err != nil {
		return err
	}
	p.out.CppIncs = append(p.out.CppIncs, s)
	return nil
}

// skipOpaqueBlock consumes a balanced `{ ... }` block without
// imposing any grammar on its contents; used for `init { ... }`
// bodies, which are opaque at this layer.
func (p *Parser) skipOpaqueBlock() error {
	if err := p.expectPunct('{'); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		t, ok := p.advance()
		if !ok {
			return p.errf("unterminated block")
		}
		if t.Kind == lexer.KindPunct {
			switch byte(t.Extra) {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
	}
	return nil
}

func (p *Parser) parseRegister() error {
	line := p.line()
	if err := p.expectKeyword(lexer.KwRegister); err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	decl := RegisterDecl{Name: name, Line: line}

	if err := p.expectPunct('{'); err != nil {
		return err
	}
	for !p.peekIsPunct('}') {
		if p.peekIsKeyword(lexer.KwWidth) {
			p.advance()
			if err := p.expectPunct('='); err != nil {
				return err
			}
			w, err := p.expectInt()
			if err != nil {
				return err
			}
			decl.Width = uint32(w)
			continue
		}
		if p.peekIsKeyword(lexer.KwClass) {
			p.advance()
			if err := p.expectPunct('='); err != nil {
				return err
			}
			cls, err := p.expectIdent()
			if err != nil {
				return err
			}
			decl.Class = cls
			continue
		}
		if p.peekIsKeyword(lexer.KwParent) {
			p.advance()
			parent, err := p.expectIdent()
			if err != nil {
				return err
			}
			decl.Parent = parent
			continue
		}
		if p.peekIsKeyword(lexer.KwInit) {
			p.advance()
			if err := p.skipOpaqueBlock(); err != nil {
				return err
			}
			continue
		}
		return p.errf("unexpected token in register body")
	}
	if err := p.expectPunct('}'); err != nil {
		return err
	}

	p.regNames[name] = true
	p.out.Registers = append(p.out.Registers, decl)
	return nil
}

func (p *Parser) parseData() error {
	line := p.line()
	if err := p.expectKeyword(lexer.KwData); err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	decl := DataBlockDecl{Name: name, Line: line}

	if err := p.expectPunct('{'); err != nil {
		return err
	}
	for !p.peekIsPunct('}') {
		if err := p.expectKeyword(lexer.KwBit); err != nil {
			return err
		}
		width := uint32(1)
		if p.peekIsPunct('<') {
			p.advance()
			w, err := p.expectInt()
			if err != nil {
				return err
			}
			width = uint32(w)
			if err := p.expectPunct('>'); err != nil {
				return err
			}
		}
		fname, err := p.expectIdent()
		if err != nil {
			return err
		}
		if err := p.expectPunct('='); err != nil {
			return err
		}
		init, err := p.expectInt()
		if err != nil {
			return err
		}
		decl.Fields = append(decl.Fields, DataFieldDecl{Name: fname, Width: width, Init: init})
	}
	if err := p.expectPunct('}'); err != nil {
		return err
	}

	p.out.DataBlocks = append(p.out.DataBlocks, decl)
	return nil
}

// parseOperand parses one formal operand in an instruction's
// parameter list, classifying it into one of the operand binding
// forms.
func (p *Parser) parseOperand() (OperandDecl, error) {
	line := p.line()
	if p.peekIsKeyword(lexer.KwImm) {
		p.advance()
		width := uint32(0)
		if p.peekIsPunct('<') {
			p.advance()
			w, err := p.expectInt()
			if err != nil {
				return OperandDecl{}, err
			}
			width = uint32(w)
			if err := p.expectPunct('>'); err != nil {
				return OperandDecl{}, err
			}
		}
		name, err := p.expectIdent()
		if err != nil {
			return OperandDecl{}, err
		}
		return OperandDecl{Kind: OperandImm, Width: width, Name: name, Line: line}, nil
	}
	if p.peekIsKeyword(lexer.KwStr) {
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return OperandDecl{}, err
		}
		return OperandDecl{Kind: OperandStr, Name: name, Line: line}, nil
	}
	ref, err := p.expectIdent()
	if err != nil {
		return OperandDecl{}, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return OperandDecl{}, err
	}
	kind := OperandRegClass
	if p.regNames[ref] && !p.classNames[ref] {
		kind = OperandRegister
	}
	return OperandDecl{Kind: kind, Ref: ref, Name: name, Line: line}, nil
}

func (p *Parser) parseInstr() error {
	line := p.line()
	if err := p.expectKeyword(lexer.KwInstr); err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	decl := InstrDecl{Name: name, Line: line}

	if err := p.expectPunct('('); err != nil {
		return err
	}
	for !p.peekIsPunct(')') {
		op, err := p.parseOperand()
		if err != nil {
			return err
		}
		decl.Operands = append(decl.Operands, op)
		if p.peekIsPunct(',') {
			p.advance()
		}
	}
	if err := p.expectPunct(')'); err != nil {
		return err
	}

	if err := p.expectPunct('{'); err != nil {
		return err
	}
	for !p.peekIsPunct('}') {
		if p.peekIsKeyword(lexer.KwResult) {
			p.advance()
			if err := p.expectPunct('='); err != nil {
				return err
			}
			name, err := p.expectIdent()
			if err != nil {
				return err
			}
			decl.Result = name
			continue
		}
		if p.peekIsKeyword(lexer.KwClobber) {
			p.advance()
			if err := p.expectPunct('='); err != nil {
				return err
			}
			names, err := p.parseIdentList()
			if err != nil {
				return err
			}
			decl.Clobbers = names
			continue
		}
		if p.peekIsKeyword(lexer.KwFormat) {
			p.advance()
			if err := p.expectPunct('='); err != nil {
				return err
			}
			lit, err := p.expectString()
			if err != nil {
				return err
			}
			decl.FormatLiteral = lit
			if err := p.expectPunct('('); err != nil {
				return err
			}
			for !p.peekIsPunct(')') {
				f, err := p.parseFormatee()
				if err != nil {
					return err
				}
				decl.Formatees = append(decl.Formatees, f)
				if p.peekIsPunct(',') {
					p.advance()
				}
			}
			if err := p.expectPunct(')'); err != nil {
				return err
			}
			continue
		}
		return p.errf("unexpected token in instruction body")
	}
	if err := p.expectPunct('}'); err != nil {
		return err
	}

	p.out.Instrs = append(p.out.Instrs, decl)
	return nil
}

func (p *Parser) parseFormatee() (Formatee, error) {
	name, err := p.expectIdent()
	if err != nil {
		return Formatee{}, err
	}
	f := Formatee{Operand: name}
	if p.peekIsPunct('.') {
		p.advance()
		t, ok := p.advance()
		if !ok {
			return Formatee{}, p.errf("expected field accessor")
		}
		switch {
		case t.Kind == lexer.KindKeyword && t.Extra == lexer.KwName:
			f.Field = "name"
		case t.Kind == lexer.KindIdent:
			f.Field = t.Text
		default:
			return Formatee{}, p.errf("expected field accessor")
		}
	}
	return f, nil
}
