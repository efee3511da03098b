package qlparse

import (
	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qltype"
)

// expr := quant | cond
func (p *parser) parseExpr() (qlast.Expr, error) {
	if p.peek().kind == tForsome || p.peek().kind == tForall {
		return p.parseQuant()
	}
	return p.parseCond()
}

// quant := ("forsome"|"forall") ( rvdef | "(" id ("," id)* ")" ) expr
func (p *parser) parseQuant() (qlast.Expr, error) {
	universal := p.peek().kind == tForall
	p.advance()

	if _, err := p.expect(tLParen); err != nil {
		return qlast.Expr{}, err
	}
	ids, err := p.parseIdentList()
	if err != nil {
		return qlast.Expr{}, err
	}
	if hasDuplicates(ids) {
		return qlast.Expr{}, newDuplicateError()
	}

	var rvs []*qlast.RangeVar
	pushedScope := false

	if p.peek().kind == tIn {
		p.advance()
		var rel *qlast.Rel
		if t := p.peek(); t.kind == tIdent && p.peekAt(1).kind == tRParen {
			// A lone relvar name binds straight to that base relvar, as in
			// parseRvDef.
			if rv := p.lookupRangeVar(t.text); rv == p.top[t.text] {
				p.advance()
				rel = rv.Rel
			}
		}
		if rel == nil {
			if rel, err = p.parseRel(); err != nil {
				return qlast.Expr{}, err
			}
		}
		if _, err := p.expect(tRParen); err != nil {
			return qlast.Expr{}, err
		}
		p.enterScope()
		pushedScope = true
		for _, id := range ids {
			rvs = append(rvs, p.bindRangeVar(id, rel))
		}
	} else {
		if _, err := p.expect(tRParen); err != nil {
			return qlast.Expr{}, err
		}
		for _, id := range ids {
			rvs = append(rvs, p.lookupRangeVar(id))
		}
	}

	pred, err := p.parseExpr()
	if pushedScope {
		p.exitScope()
	}
	if err != nil {
		return qlast.Expr{}, err
	}
	return qlast.Quant(universal, rvs, pred), nil
}

// cond := or ("?" expr ":" cond)?
func (p *parser) parseCond() (qlast.Expr, error) {
	e, err := p.parseOr()
	if err != nil {
		return qlast.Expr{}, err
	}
	if p.peek().kind != tQuestion {
		return e, nil
	}
	p.advance()
	yes, err := p.parseExpr()
	if err != nil {
		return qlast.Expr{}, err
	}
	if _, err := p.expect(tColon); err != nil {
		return qlast.Expr{}, err
	}
	no, err := p.parseCond()
	if err != nil {
		return qlast.Expr{}, err
	}
	return qlast.Cond(e, yes, no), nil
}

func (p *parser) parseOr() (qlast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return qlast.Expr{}, err
	}
	for p.peek().kind == tOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return qlast.Expr{}, err
		}
		left = qlast.Binary(qltype.OpOr, left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (qlast.Expr, error) {
	left, err := p.parseEq()
	if err != nil {
		return qlast.Expr{}, err
	}
	for p.peek().kind == tAnd {
		p.advance()
		right, err := p.parseEq()
		if err != nil {
			return qlast.Expr{}, err
		}
		left = qlast.Binary(qltype.OpAnd, left, right)
	}
	return left, nil
}

func (p *parser) parseEq() (qlast.Expr, error) {
	left, err := p.parseCmp()
	if err != nil {
		return qlast.Expr{}, err
	}
	for p.peek().kind == tEq || p.peek().kind == tNe {
		op := qltype.OpEq
		if p.peek().kind == tNe {
			op = qltype.OpNe
		}
		p.advance()
		right, err := p.parseCmp()
		if err != nil {
			return qlast.Expr{}, err
		}
		left = qlast.Binary(op, left, right)
	}
	return left, nil
}

func (p *parser) parseCmp() (qlast.Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return qlast.Expr{}, err
	}
	for {
		var op qltype.BinaryOp
		switch p.peek().kind {
		case tLt:
			op = qltype.OpLt
		case tGt:
			op = qltype.OpGt
		case tLe:
			op = qltype.OpLe
		case tGe:
			op = qltype.OpGe
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return qlast.Expr{}, err
		}
		left = qlast.Binary(op, left, right)
	}
}

func (p *parser) parseAdd() (qlast.Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return qlast.Expr{}, err
	}
	for {
		var op qltype.BinaryOp
		switch p.peek().kind {
		case tPlus:
			op = qltype.OpAdd
		case tMinus:
			op = qltype.OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMul()
		if err != nil {
			return qlast.Expr{}, err
		}
		left = qlast.Binary(op, left, right)
	}
}

func (p *parser) parseMul() (qlast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return qlast.Expr{}, err
	}
	for {
		var op qltype.BinaryOp
		switch p.peek().kind {
		case tStar:
			op = qltype.OpMul
		case tSlash:
			op = qltype.OpDiv
		case tPercent:
			op = qltype.OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return qlast.Expr{}, err
		}
		left = qlast.Binary(op, left, right)
	}
}

func (p *parser) parseUnary() (qlast.Expr, error) {
	switch p.peek().kind {
	case tPlus:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return qlast.Expr{}, err
		}
		return qlast.Unary(qltype.OpPos, x), nil
	case tMinus:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return qlast.Expr{}, err
		}
		return qlast.Unary(qltype.OpNeg, x), nil
	case tNot:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return qlast.Expr{}, err
		}
		return qlast.Unary(qltype.OpNot, x), nil
	default:
		return p.parsePrimary()
	}
}

// primary := number | string | bool | "(" expr ")" | "$"uint? | fieldExpr
//          | "cast" "(" expr "as" ident ")"
func (p *parser) parsePrimary() (qlast.Expr, error) {
	switch p.peek().kind {
	case tNumber:
		t := p.advance()
		return qlast.Literal(qltype.NewNumber(t.num)), nil

	case tString:
		t := p.advance()
		return qlast.Literal(qltype.NewString(t.text)), nil

	case tBool:
		t := p.advance()
		return qlast.Literal(qltype.NewBoolean(t.bval)), nil

	case tLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return qlast.Expr{}, err
		}
		if _, err := p.expect(tRParen); err != nil {
			return qlast.Expr{}, err
		}
		return e, nil

	case tDollar:
		t := p.advance()
		idx := 1
		if t.text != "" {
			idx = int(t.num)
		}
		return qlast.PosArg(idx), nil

	case tCast:
		return p.parseCast()

	case tIdent:
		return p.parseFieldExprPrimary()

	default:
		return qlast.Expr{}, newSyntaxError(p.src)
	}
}

// parseCast implements the explicit cast(expr as type) surface syntax.
func (p *parser) parseCast() (qlast.Expr, error) {
	p.advance() // "cast"
	if _, err := p.expect(tLParen); err != nil {
		return qlast.Expr{}, err
	}
	x, err := p.parseExpr()
	if err != nil {
		return qlast.Expr{}, err
	}
	if _, err := p.expect(tAs); err != nil {
		return qlast.Expr{}, err
	}
	typeTok, err := p.expect(tIdent)
	if err != nil {
		return qlast.Expr{}, err
	}
	target, err := qltype.ReadType(typeTok.text)
	if err != nil {
		return qlast.Expr{}, err
	}
	if _, err := p.expect(tRParen); err != nil {
		return qlast.Expr{}, err
	}
	return qlast.Cast(target, x), nil
}

// fieldExpr: an identifier, optionally followed by a path. A bare
// identifier with no path resolves to a field of "this" (the empty
// rangevar name). An identifier followed by "." or "[" is a rangevar name
// with a path.
func (p *parser) parseFieldExprPrimary() (qlast.Expr, error) {
	idTok := p.advance()
	id := idTok.text

	switch p.peek().kind {
	case tDot:
		p.advance()
		seg, err := p.parseEntry()
		if err != nil {
			return qlast.Expr{}, err
		}
		path, err := p.parseArrowChain(seg)
		if err != nil {
			return qlast.Expr{}, err
		}
		rv := p.lookupRangeVar(id)
		return qlast.FieldExpr(&qlast.MultiField{RV: rv, Path: path}), nil

	case tLBracket:
		seg, err := p.parseBracketEntry()
		if err != nil {
			return qlast.Expr{}, err
		}
		path, err := p.parseArrowChain(seg)
		if err != nil {
			return qlast.Expr{}, err
		}
		rv := p.lookupRangeVar(id)
		return qlast.FieldExpr(&qlast.MultiField{RV: rv, Path: path}), nil

	default:
		mf := &qlast.MultiField{RV: thisRV, Path: []qlast.PathSeg{{Names: []string{id}}}}
		return qlast.FieldExpr(mf), nil
	}
}
