package qltranslate

import (
	"fmt"
	"strings"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
)

// emitExpr writes e's SQL rendering to the current buffer and returns its
// natural (uncoerced) type.
func (c *ctx) emitExpr(e *qlast.Expr) (qltype.Type, error) {
	switch e.Tag {
	case qlast.ExprLiteral:
		c.write(e.Value.Render())
		return e.Value.Type(), nil

	case qlast.ExprPosArg:
		return c.emitPosArg(e.Index)

	case qlast.ExprMultiField:
		return c.emitMultiFieldExpr(e.Field)

	case qlast.ExprQuant:
		return c.emitQuant(e)

	case qlast.ExprBinary:
		return c.emitBinary(e)

	case qlast.ExprUnary:
		return c.emitUnary(e)

	case qlast.ExprCond:
		return c.emitCond(e)

	case qlast.ExprCast:
		return c.emitCast(e)

	default:
		return 0, qlerr.New(qlerr.NotImplemented, "unhandled expression kind")
	}
}

func (c *ctx) emitPosArg(index int) (qltype.Type, error) {
	if index < 1 || index > len(c.params) {
		return 0, qlerr.New(qlerr.Query, "no such parameter: $%d", index)
	}
	v, err := c.params[index-1].Realize(Dummy)
	if err != nil {
		return 0, err
	}
	c.write(v.Render())
	return v.Type(), nil
}

func (c *ctx) emitBinary(e *qlast.Expr) (qltype.Type, error) {
	lText, lt, err := c.captureExpr(e.L)
	if err != nil {
		return 0, err
	}
	rText, rt, err := c.captureExpr(e.R)
	if err != nil {
		return 0, err
	}
	common, err := e.BinOp.CommonType(lt, rt)
	if err != nil {
		return 0, err
	}
	c.write("(")
	if err := c.emitCastText(lText, lt, common); err != nil {
		return 0, err
	}
	c.write(" ")
	c.write(e.BinOp.SQL(common))
	c.write(" ")
	if err := c.emitCastText(rText, rt, common); err != nil {
		return 0, err
	}
	c.write(")")
	return e.BinOp.ResultType(common), nil
}

func (c *ctx) emitUnary(e *qlast.Expr) (qltype.Type, error) {
	target := e.UnOp.OpType()
	text, t, err := c.captureExpr(e.X)
	if err != nil {
		return 0, err
	}
	c.write("(")
	c.write(e.UnOp.SQL())
	if err := c.emitCastText(text, t, target); err != nil {
		return 0, err
	}
	c.write(")")
	return e.UnOp.ResultType(), nil
}

func (c *ctx) emitCond(e *qlast.Expr) (qltype.Type, error) {
	condText, condT, err := c.captureExpr(e.Cond)
	if err != nil {
		return 0, err
	}
	yesText, yt, err := c.captureExpr(e.Yes)
	if err != nil {
		return 0, err
	}
	noText, nt, err := c.captureExpr(e.No)
	if err != nil {
		return 0, err
	}
	common := yt
	if yt != nt {
		if yt == qltype.String || nt == qltype.String {
			common = qltype.String
		} else {
			common = qltype.Number
		}
	}
	c.write("(CASE WHEN ")
	if err := c.emitCastText(condText, condT, qltype.Boolean); err != nil {
		return 0, err
	}
	c.write(" THEN ")
	if err := c.emitCastText(yesText, yt, common); err != nil {
		return 0, err
	}
	c.write(" ELSE ")
	if err := c.emitCastText(noText, nt, common); err != nil {
		return 0, err
	}
	c.write(" END)")
	return common, nil
}

func (c *ctx) emitCast(e *qlast.Expr) (qltype.Type, error) {
	text, t, err := c.captureExpr(e.CastX)
	if err != nil {
		return 0, err
	}
	if err := c.emitCastText(text, t, e.CastTarget); err != nil {
		return 0, err
	}
	return e.CastTarget, nil
}

func (c *ctx) emitQuant(e *qlast.Expr) (qltype.Type, error) {
	fromParts, bindings, err := c.prepareFrom(e.QuantRVs)
	if err != nil {
		return 0, err
	}
	c.pushBinds(bindings)
	defer c.popBinds(len(bindings))

	var thisRV *qlast.RangeVar
	if len(e.QuantRVs) == 1 {
		thisRV = e.QuantRVs[0]
	}
	if thisRV != nil {
		c.pushThis(thisRV)
		defer c.popThis()
	}

	if e.Universal {
		c.write("(NOT EXISTS (SELECT 1 FROM ")
	} else {
		c.write("(EXISTS (SELECT 1 FROM ")
	}
	c.write(strings.Join(fromParts, ", "))
	c.write(" WHERE ")
	if e.Universal {
		c.write("NOT (")
	}
	pred := e.Pred
	if err := c.emitCoerced(&pred, qltype.Boolean); err != nil {
		return 0, err
	}
	if e.Universal {
		c.write(")")
	}
	c.write("))")
	return qltype.Boolean, nil
}

// emitMultiFieldExpr writes a field reference used as a scalar expression:
// a direct column reference for a non-foreign path, or a correlated
// sub-select for a `->` dereference chain.
func (c *ctx) emitMultiFieldExpr(mf *qlast.MultiField) (qltype.Type, error) {
	if mf.IsMulti() {
		return 0, qlerr.New(qlerr.Query, "multi-field used as a scalar expression")
	}
	rv := mf.RV
	bare := false
	if rv.Name == "" {
		this := c.resolveThis()
		if this == nil {
			return 0, qlerr.New(qlerr.Query, "bare field reference with no enclosing \"this\"")
		}
		rv = this
		bare = c.bareThis
	}
	if !mf.IsForeign() {
		header, ok := c.header(rv)
		if !ok {
			return 0, qlerr.New(qlerr.Query, "rangevar %q is not bound here", rv.Name)
		}
		name := mf.Path[0].Names[0]
		attr, ok := header.Find(name)
		if !ok {
			return 0, qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", name)
		}
		if bare {
			c.write(quoteIdent(name))
		} else {
			c.write(quoteIdent(aliasFor(rv)) + "." + quoteIdent(name))
		}
		return attr.Type, nil
	}
	return c.emitForeignDeref(rv, mf.Path)
}

// emitForeignDeref walks a `->` dereference chain starting at rv, emitting
// a correlated sub-select: (SELECT "<last>"."<field>" FROM <chain> WHERE
// <joins>).
func (c *ctx) emitForeignDeref(rv *qlast.RangeVar, path []qlast.PathSeg) (qltype.Type, error) {
	if rv.Rel == nil || rv.Rel.Tag != qlast.RelBase {
		return 0, qlerr.New(qlerr.Query, "operator -> used on a rangevar not bound to a relvar")
	}

	curRel := rv.Rel.Name
	curAlias := quoteIdent(aliasFor(rv))

	var fromParts []string
	var whereParts []string

	for _, seg := range path[:len(path)-1] {
		refRelVar, refAttrs, err := c.schema.FollowReference(curRel, seg.Names)
		if err != nil {
			return 0, err
		}
		refAlias := quoteIdent(refRelVar)
		fromParts = append(fromParts, refAlias)
		for i, name := range seg.Names {
			whereParts = append(whereParts, fmt.Sprintf("%s.%s = %s.%s",
				curAlias, quoteIdent(name), refAlias, quoteIdent(refAttrs[i])))
		}
		curRel = refRelVar
		curAlias = refAlias
	}

	lastSeg := path[len(path)-1]
	if len(lastSeg.Names) != 1 {
		return 0, qlerr.New(qlerr.Query, "multi-field used as a scalar expression")
	}
	fieldName := lastSeg.Names[0]

	header, err := c.schema.Header(curRel)
	if err != nil {
		return 0, err
	}
	attr, ok := header.Find(fieldName)
	if !ok {
		return 0, qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", fieldName)
	}

	c.write(fmt.Sprintf("(SELECT %s.%s FROM %s WHERE %s)",
		curAlias, quoteIdent(fieldName), strings.Join(fromParts, ", "), strings.Join(whereParts, " AND ")))
	return attr.Type, nil
}
