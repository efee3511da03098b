// Package qlparse implements the QL grammar-driven parser: turns QL source
// into the qlast tree while resolving rangevar names against a scope stack.
// The parser is purely functional over its input — it has no side effects
// beyond AST construction.
package qlparse

import (
	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qltype"
)

// thisRV is the sentinel RangeVar used by a bare field reference with no
// explicit rangevar prefix: the empty name resolves to whatever "this"
// rangevar the surrounding context establishes at translate time.
var thisRV = &qlast.RangeVar{Name: ""}

type parser struct {
	src    string
	toks   []token
	pos    int
	scopes []map[string]*qlast.RangeVar
	top    map[string]*qlast.RangeVar
}

// Parse parses QL source src into a Rel AST.
func Parse(src string) (*qlast.Rel, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks, top: make(map[string]*qlast.RangeVar)}
	rel, err := p.parseRel()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tEOF {
		return nil, newSyntaxError(p.src)
	}
	return rel, nil
}

// ParseExpr parses a bare QL expression (used for CHECK constraints and
// other contexts where only an Expr, not a full Rel, is expected).
func ParseExpr(src string) (*qlast.Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks, top: make(map[string]*qlast.RangeVar)}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tEOF {
		return nil, newSyntaxError(p.src)
	}
	return &e, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(off int) token {
	i := p.pos + off
	if i >= len(p.toks) {
		return token{kind: tEOF}
	}
	return p.toks[i]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokKind) (token, error) {
	if p.peek().kind != k {
		return token{}, newSyntaxError(p.src)
	}
	return p.advance(), nil
}

// --- rangevar scope stack ---

func (p *parser) enterScope() {
	p.scopes = append(p.scopes, make(map[string]*qlast.RangeVar))
}

func (p *parser) exitScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

// bindRangeVar creates one shared RangeVar for name in the current (top)
// scope, bound to rel — all occurrences of name within this scope resolve
// to the same *RangeVar instance.
func (p *parser) bindRangeVar(name string, rel *qlast.Rel) *qlast.RangeVar {
	rv := &qlast.RangeVar{Name: name, Rel: rel}
	p.scopes[len(p.scopes)-1][name] = rv
	return rv
}

// lookupRangeVar resolves name innermost-scope-first; if unbound anywhere,
// an implicit top-level RangeVar(name, Base(name)) is created and cached.
func (p *parser) lookupRangeVar(name string) *qlast.RangeVar {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if rv, ok := p.scopes[i][name]; ok {
			return rv
		}
	}
	if rv, ok := p.top[name]; ok {
		return rv
	}
	rv := &qlast.RangeVar{Name: name, Rel: qlast.NewBase(name)}
	p.top[name] = rv
	return rv
}

// --- rel := "for" rvdef rel | "union" "(" rel ("," rel)+ ")" | select ---

func (p *parser) parseRel() (*qlast.Rel, error) {
	switch p.peek().kind {
	case tFor:
		return p.parseFor()
	case tUnion:
		return p.parseUnion()
	default:
		return p.parseSelect()
	}
}

func (p *parser) parseFor() (*qlast.Rel, error) {
	p.advance() // "for"
	names, rel, err := p.parseRvDef()
	if err != nil {
		return nil, err
	}

	p.enterScope()
	for _, n := range names {
		p.bindRangeVar(n, rel)
	}
	body, err := p.parseRel()
	p.exitScope()
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (p *parser) parseUnion() (*qlast.Rel, error) {
	p.advance() // "union"
	if _, err := p.expect(tLParen); err != nil {
		return nil, err
	}
	first, err := p.parseRel()
	if err != nil {
		return nil, err
	}
	rels := []*qlast.Rel{first}
	for p.peek().kind == tComma {
		p.advance()
		r, err := p.parseRel()
		if err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	if _, err := p.expect(tRParen); err != nil {
		return nil, err
	}
	if len(rels) < 2 {
		return nil, newSyntaxError(p.src)
	}
	out := rels[0]
	for _, r := range rels[1:] {
		out = qlast.NewUnion(out, r)
	}
	return out, nil
}

// select := header ("where" expr)?
func (p *parser) parseSelect() (*qlast.Rel, error) {
	protos, err := p.parseHeader()
	if err != nil {
		return nil, err
	}
	where := qlast.Literal(qltype.NewBoolean(true))
	if p.peek().kind == tWhere {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return qlast.NewSelect(protos, where), nil
}

// header := "{" proto ("," proto)* "}" | proto
func (p *parser) parseHeader() ([]qlast.Proto, error) {
	if p.peek().kind != tLBrace {
		proto, err := p.parseProto()
		if err != nil {
			return nil, err
		}
		return []qlast.Proto{proto}, nil
	}

	p.advance() // "{"
	var protos []qlast.Proto
	var names []string
	for {
		proto, err := p.parseProto()
		if err != nil {
			return nil, err
		}
		protos = append(protos, proto)
		names = append(names, protoKey(proto))
		if p.peek().kind == tComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tRBrace); err != nil {
		return nil, err
	}
	if hasDuplicates(names) {
		return nil, newDuplicateError()
	}
	return protos, nil
}

func protoKey(p qlast.Proto) string {
	switch p.Tag {
	case qlast.ProtoNamedExpr:
		return p.Name
	case qlast.ProtoRangeVar:
		return p.RV.Name
	default:
		return p.Field.RV.Name
	}
}

// proto := id ":" expr | id ("." pathTail | "[" pathTail) | id
func (p *parser) parseProto() (qlast.Proto, error) {
	idTok, err := p.expect(tIdent)
	if err != nil {
		return qlast.Proto{}, err
	}
	id := idTok.text

	switch p.peek().kind {
	case tColon:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return qlast.Proto{}, err
		}
		return qlast.Proto{Tag: qlast.ProtoNamedExpr, Name: id, Expr: e}, nil

	case tDot:
		p.advance()
		seg, err := p.parseEntry()
		if err != nil {
			return qlast.Proto{}, err
		}
		path, err := p.parseArrowChain(seg)
		if err != nil {
			return qlast.Proto{}, err
		}
		rv := p.lookupRangeVar(id)
		mf := &qlast.MultiField{RV: rv, Path: path}
		return qlast.Proto{Tag: qlast.ProtoMultiField, RV: rv, Field: mf}, nil

	case tLBracket:
		seg, err := p.parseBracketEntry()
		if err != nil {
			return qlast.Proto{}, err
		}
		path, err := p.parseArrowChain(seg)
		if err != nil {
			return qlast.Proto{}, err
		}
		rv := p.lookupRangeVar(id)
		mf := &qlast.MultiField{RV: rv, Path: path}
		return qlast.Proto{Tag: qlast.ProtoMultiField, RV: rv, Field: mf}, nil

	default:
		rv := p.lookupRangeVar(id)
		return qlast.Proto{Tag: qlast.ProtoRangeVar, RV: rv}, nil
	}
}

// path := entry ("->" entry)*; entry := id | "[" id ("," id)* "]"

func (p *parser) parseEntry() (qlast.PathSeg, error) {
	if p.peek().kind == tLBracket {
		return p.parseBracketEntry()
	}
	idTok, err := p.expect(tIdent)
	if err != nil {
		return qlast.PathSeg{}, err
	}
	return qlast.PathSeg{Names: []string{idTok.text}}, nil
}

func (p *parser) parseBracketEntry() (qlast.PathSeg, error) {
	if _, err := p.expect(tLBracket); err != nil {
		return qlast.PathSeg{}, err
	}
	names, err := p.parseIdentList()
	if err != nil {
		return qlast.PathSeg{}, err
	}
	if _, err := p.expect(tRBracket); err != nil {
		return qlast.PathSeg{}, err
	}
	return qlast.PathSeg{Names: names}, nil
}

func (p *parser) parseArrowChain(first qlast.PathSeg) ([]qlast.PathSeg, error) {
	path := []qlast.PathSeg{first}
	for p.peek().kind == tArrow {
		p.advance()
		seg, err := p.parseEntry()
		if err != nil {
			return nil, err
		}
		path = append(path, seg)
	}
	return path, nil
}

func (p *parser) parseIdentList() ([]string, error) {
	first, err := p.expect(tIdent)
	if err != nil {
		return nil, err
	}
	ids := []string{first.text}
	for p.peek().kind == tComma {
		p.advance()
		t, err := p.expect(tIdent)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.text)
	}
	return ids, nil
}

func hasDuplicates(names []string) bool {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return true
		}
		seen[n] = true
	}
	return false
}

// rvdef := "(" id ("," id)* "in" rel ")"
func (p *parser) parseRvDef() ([]string, *qlast.Rel, error) {
	if _, err := p.expect(tLParen); err != nil {
		return nil, nil, err
	}
	ids, err := p.parseIdentList()
	if err != nil {
		return nil, nil, err
	}
	if hasDuplicates(ids) {
		return nil, nil, newDuplicateError()
	}
	if _, err := p.expect(tIn); err != nil {
		return nil, nil, err
	}
	var rel *qlast.Rel
	if t := p.peek(); t.kind == tIdent && p.peekAt(1).kind == tRParen {
		// A lone relvar name (not a rangevar bound in an enclosing scope)
		// binds the new rangevars straight to that base relvar.
		if rv := p.lookupRangeVar(t.text); rv == p.top[t.text] {
			p.advance()
			rel = rv.Rel
		}
	}
	if rel == nil {
		if rel, err = p.parseRel(); err != nil {
			return nil, nil, err
		}
	}
	if _, err := p.expect(tRParen); err != nil {
		return nil, nil, err
	}
	return ids, rel, nil
}
