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
	"os"
	"strconv"

	"anvil/arena"
	"anvil/internal/diag"
	"anvil/lexer"
	"anvil/target"
)

// Parser consumes the shared lexer's output under lexer.IRKeywords
// and builds a Frame. It peeks ahead by token index (up to three
// tokens past the current one, to classify a binop line); every failure
// returns a *diag.ParseError instead of exiting the process, so
// callers can recover and report instead of crashing.
type Parser struct {
	toks []lexer.Token
	pos  int
	fr   *Frame

	valueByID map[uint32]ValueHandle
}

// ParseFile reads path, lexes it under the IR keyword table, and
// parses a single Frame targeting triple.
func ParseFile(path string, triple target.Triple) (*Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.NewIoError(path, err)
	}
	return ParseString(string(data), triple)
}

// ParseString parses src (the IR text format) into a Frame.
func ParseString(src string, triple target.Triple) (*Frame, error) {
	out, err := lexer.Lex([]byte(src), lexer.IRKeywords)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: out.Tokens, fr: NewFrame(triple)}
	if err := p.parseFrame(); err != nil {
		return p.fr, err
	}
	return p.fr, nil
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
	if len(p.toks) > 0 {
		return p.toks[len(p.toks)-1].Line
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

// parseFrame parses zero or more function definitions until EOF.
func (p *Parser) parseFrame() error {
	for {
		if _, ok := p.cur(); !ok {
			return nil
		}
		if err := p.parseFunc(); err != nil {
			return err
		}
	}
}

// parseType parses one of i<N>, f32, f64, void, ptr.
func (p *Parser) parseType() (TypeHandle, error) {
	t, ok := p.advance()
	if !ok || t.Kind != lexer.KindIdent {
		return TypeHandle{}, p.errf("expected type")
	}
	switch t.Text {
	case "void":
		return p.fr.Types.GetVoid(), nil
	case "f32":
		return p.fr.Types.GetFloat(F32), nil
	case "f64":
		return p.fr.Types.GetFloat(F64), nil
	case "ptr":
		return p.fr.Types.GetPointer(p.fr.Types.GetVoid()), nil
	}
	if len(t.Text) > 1 && t.Text[0] == 'i' {
		if w, err := strconv.Atoi(t.Text[1:]); err == nil && w > 0 {
			return p.fr.Types.GetInteger(uint32(w)), nil
		}
	}
	return TypeHandle{}, p.errf("unknown type " + t.Text)
}

// parseValueRef parses '%' Int and resolves it against the current
// function's value table.
func (p *Parser) parseValueRef() (ValueHandle, error) {
	if err := p.expectPunct('%'); err != nil {
		return ValueHandle{}, err
	}
	t, ok := p.advance()
	if !ok || t.Kind != lexer.KindInt {
		return ValueHandle{}, p.errf("expected value number after '%'")
	}
	id, err := strconv.Atoi(t.Text)
	if err != nil {
		return ValueHandle{}, p.errf("malformed value number")
	}
	h, exists := p.valueByID[uint32(id)]
	if !exists {
		return ValueHandle{}, p.errf("use of undefined value %" + t.Text)
	}
	return h, nil
}

func (p *Parser) peekIsPunct(c byte) bool {
	t, ok := p.cur()
	return ok && t.Kind == lexer.KindPunct && byte(t.Extra) == c
}

// parseFunc parses `func TYPE name(p0: TYPE, ...) { block... }`.
func (p *Parser) parseFunc() error {
	if err := p.expectKeyword(lexer.KwFunc); err != nil {
		return err
	}
	ret, err := p.parseType()
	if err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectPunct('('); err != nil {
		return err
	}
	var params []Param
	for !p.peekIsPunct(')') {
		pname, err := p.expectIdent()
		if err != nil {
			return err
		}
		if err := p.expectPunct(':'); err != nil {
			return err
		}
		pty, err := p.parseType()
		if err != nil {
			return err
		}
		params = append(params, Param{Name: pname, Ty: pty})
		if p.peekIsPunct(',') {
			p.advance()
		}
	}
	if err := p.expectPunct(')'); err != nil {
		return err
	}

	fn := p.fr.AddFunc(name, ret, params, 4, 0)
	p.valueByID = make(map[uint32]ValueHandle)
	// Parameters occupy the first len(params) SSA numbers, matching
	// the order they're declared in the signature; the function body
	// refers to them as %0, %1, ... like any other value.
	for i, param := range params {
		p.valueByID[uint32(i)] = arena.Alloc(p.fr.Arena, Value{ID: uint32(i), Ty: param.Ty})
	}

	if err := p.expectPunct('{'); err != nil {
		return err
	}
	for !p.peekIsPunct('}') {
		if err := p.parseBlock(fn); err != nil {
			return err
		}
	}
	return p.expectPunct('}')
}

// parseBlock parses `label: instr*` up to the next label or the
// function's closing brace.
func (p *Parser) parseBlock(fn FuncHandle) error {
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectPunct(':'); err != nil {
		return err
	}
	block := p.fr.AddBlock(fn, name, GenerateLabel)

	for {
		if p.peekIsPunct('}') {
			return nil
		}
		if t, ok := p.cur(); ok && t.Kind == lexer.KindIdent {
			if nt, ok := p.peekAhead(1); ok && nt.Kind == lexer.KindPunct && byte(nt.Extra) == ':' {
				return nil // next block label
			}
		}
		if err := p.parseInstr(block); err != nil {
			return err
		}
	}
}

func (p *Parser) peekAhead(n int) (lexer.Token, bool) {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return lexer.Token{}, false
	}
	return p.toks[idx], true
}

// parseInstr parses one instruction line for any of the six opcodes.
func (p *Parser) parseInstr(block BlockHandle) error {
	if p.peekIsPunct('%') {
		return p.parseAssigningInstr(block)
	}
	t, ok := p.cur()
	if !ok || t.Kind != lexer.KindKeyword {
		return p.errf("expected instruction")
	}
	switch t.Extra {
	case lexer.KwStore:
		p.advance()
		if _, err := p.parseType(); err != nil {
			return err
		}
		addr, err := p.parseValueRef()
		if err != nil {
			return err
		}
		if err := p.expectPunct(','); err != nil {
			return err
		}
		val, err := p.parseValueRef()
		if err != nil {
			return err
		}
		p.fr.EmitStore(block, addr, val)
		return nil
	case lexer.KwRet:
		p.advance()
		if nt, ok := p.cur(); ok && nt.Kind == lexer.KindIdent && nt.Text == "void" {
			p.advance()
			p.fr.EmitRet(block, ValueHandle{})
			return nil
		}
		if _, err := p.parseType(); err != nil {
			return err
		}
		v, err := p.parseValueRef()
		if err != nil {
			return err
		}
		p.fr.EmitRet(block, v)
		return nil
	default:
		return p.errf("expected store or ret instruction")
	}
}

// parseAssigningInstr parses `%N = op TYPE operands...`.
func (p *Parser) parseAssigningInstr(block BlockHandle) error {
	start := p.pos
	if err := p.expectPunct('%'); err != nil {
		return err
	}
	if _, ok := p.advance(); !ok {
		return p.errf("expected value number")
	}
	if err := p.expectPunct('='); err != nil {
		return err
	}
	t, ok := p.cur()
	if !ok || t.Kind != lexer.KindKeyword {
		return p.errf("expected opcode")
	}
	p.pos = start // rewind; destAndOpcode re-reads %N = OPCODE from here

	switch t.Extra {
	case lexer.KwAlloc:
		return p.finishAlloc(block)
	case lexer.KwBinOpAdd, lexer.KwBinOpSub, lexer.KwBinOpMul, lexer.KwBinOpDiv:
		return p.finishBinOp(block)
	case lexer.KwMov:
		return p.finishMov(block)
	case lexer.KwLoad:
		return p.finishLoad(block)
	default:
		return p.errf("unknown opcode")
	}
}

func (p *Parser) finishAlloc(block BlockHandle) error {
	_, dest, err := p.destAndOpcode(lexer.KwAlloc)
	if err != nil {
		return err
	}
	amount, err := p.parseValueRef()
	if err != nil {
		return err
	}
	p.fr.EmitAlloc(block, dest, amount)
	return nil
}

func (p *Parser) finishBinOp(block BlockHandle) error {
	t, ok := p.peekAhead(3) // %, N, =, OP
	if !ok {
		return p.errf("malformed binop")
	}
	var kind BinOpKind
	switch t.Extra {
	case lexer.KwBinOpAdd:
		kind = BinAdd
	case lexer.KwBinOpSub:
		kind = BinSub
	case lexer.KwBinOpMul:
		kind = BinMul
	case lexer.KwBinOpDiv:
		kind = BinDiv
	default:
		return p.errf("unknown binop")
	}

	_, dest, err := p.destAndOpcode(t.Extra)
	if err != nil {
		return err
	}
	lhs, err := p.parseValueRef()
	if err != nil {
		return err
	}
	if err := p.expectPunct(','); err != nil {
		return err
	}
	rhs, err := p.parseValueRef()
	if err != nil {
		return err
	}
	p.fr.EmitBinOp(block, kind, dest, lhs, rhs)
	return nil
}

func (p *Parser) finishMov(block BlockHandle) error {
	_, dest, err := p.destAndOpcode(lexer.KwMov)
	if err != nil {
		return err
	}
	src, err := p.parseValueRef()
	if err != nil {
		return err
	}
	p.fr.EmitMov(block, dest, src)
	return nil
}

func (p *Parser) finishLoad(block BlockHandle) error {
	_, dest, err := p.destAndOpcode(lexer.KwLoad)
	if err != nil {
		return err
	}
	addr, err := p.parseValueRef()
	if err != nil {
		return err
	}
	p.fr.EmitLoad(block, dest, addr)
	return nil
}

// destAndOpcode parses `%N = OPCODE TYPE` and returns the parsed
// type and the newly defined destination value.
func (p *Parser) destAndOpcode(opcodeID int) (TypeHandle, ValueHandle, error) {
	if err := p.expectPunct('%'); err != nil {
		return TypeHandle{}, ValueHandle{}, err
	}
	idTok, ok := p.advance()
	if !ok || idTok.Kind != lexer.KindInt {
		return TypeHandle{}, ValueHandle{}, p.errf("expected value number")
	}
	if err := p.expectPunct('='); err != nil {
		return TypeHandle{}, ValueHandle{}, err
	}
	if err := p.expectKeyword(opcodeID); err != nil {
		return TypeHandle{}, ValueHandle{}, err
	}
	ty, err := p.parseType()
	if err != nil {
		return TypeHandle{}, ValueHandle{}, err
	}
	id, err := strconv.Atoi(idTok.Text)
	if err != nil {
		return TypeHandle{}, ValueHandle{}, p.errf("malformed value number")
	}
	dest := arena.Alloc(p.fr.Arena, Value{ID: uint32(id), Ty: ty})
	p.valueByID[uint32(id)] = dest
	return ty, dest, nil
}
