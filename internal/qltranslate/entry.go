package qltranslate

import (
	"fmt"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
)

// Unlimited marks the absence of a LIMIT clause in TranslateQuery.
const Unlimited = -1

// Compiler translates parsed QL trees into backend SQL text against a fixed
// Schema. It holds no per-call state; every translation starts a fresh ctx.
type Compiler struct {
	schema Schema
}

func NewCompiler(schema Schema) *Compiler {
	return &Compiler{schema: schema}
}

// TranslateQuery compiles rel into a full SELECT, optionally wrapped to
// apply an ORDER BY / LIMIT / OFFSET against a synthetic outer rangevar
// named "@" whose header is rel's own output header. orderBy expressions
// are resolved against their own, independent orderByParams list, mirroring
// how the embedding layer keeps cursor parameters distinct from query
// parameters. A `->` dereference against "@" fails, since it is synthetic
// and not bound to any relvar.
func (c *Compiler) TranslateQuery(
	rel *qlast.Rel,
	params []Draft,
	orderBy []string,
	orderByParams []Draft,
	offset, length int,
) (string, *qltype.Header, error) {
	ctx := newCtx(c.schema, params)
	innerText, innerHeader, err := ctx.captureRel(rel)
	if err != nil {
		return "", nil, err
	}
	if len(orderBy) == 0 && offset == 0 && length == Unlimited {
		return innerText, innerHeader, nil
	}

	atRV := &qlast.RangeVar{Name: "@"}
	out := newCtx(c.schema, orderByParams)
	out.pushBinds([]bindEntry{{atRV, innerHeader}})
	out.pushThis(atRV)

	out.write(`SELECT * FROM (`)
	out.write(innerText)
	out.write(`) AS "@"`)

	if len(orderBy) > 0 {
		out.write(" ORDER BY ")
		for i, src := range orderBy {
			if i > 0 {
				out.write(", ")
			}
			e, err := parseOrderExpr(src)
			if err != nil {
				return "", nil, err
			}
			if _, err := out.emitExpr(e); err != nil {
				return "", nil, err
			}
		}
	}
	if length != Unlimited {
		out.write(fmt.Sprintf(" LIMIT %d", length))
	}
	if offset != 0 {
		out.write(fmt.Sprintf(" OFFSET %d", offset))
	}

	out.popThis()
	out.popBinds(1)
	return out.result(), innerHeader, nil
}

// TranslateCount compiles rel into a row-count query.
func (c *Compiler) TranslateCount(rel *qlast.Rel, params []Draft) (string, error) {
	ctx := newCtx(c.schema, params)
	innerText, _, err := ctx.captureRel(rel)
	if err != nil {
		return "", err
	}
	return `SELECT COUNT(*) FROM (` + innerText + `) AS "@"`, nil
}

// Assignment is one `field: expr` entry of an UPDATE's set list. Accepted as
// an ordered slice, not a map, so SET clauses render in a deterministic,
// caller-chosen order.
type Assignment struct {
	Name string
	Expr *qlast.Expr
}

// TranslateUpdate compiles an UPDATE against relVarName: where (own
// whereParams) gates the rows touched, and each assignment's expr (shared
// exprParams) is coerced to its target attribute's type.
func (c *Compiler) TranslateUpdate(
	relVarName string,
	where *qlast.Expr,
	whereParams []Draft,
	assignments []Assignment,
	exprParams []Draft,
) (string, error) {
	if len(assignments) == 0 {
		return "", qlerr.New(qlerr.VALUE, "empty update field set")
	}

	header, err := c.schema.Header(relVarName)
	if err != nil {
		return "", err
	}
	thisRV := &qlast.RangeVar{Name: relVarName, Rel: qlast.NewBase(relVarName)}

	ctx := newCtx(c.schema, exprParams)
	ctx.pushBinds([]bindEntry{{thisRV, header}})
	ctx.pushThis(thisRV)

	ctx.write(`UPDATE `)
	ctx.write(quoteIdent(relVarName))
	ctx.write(` SET `)
	for i, a := range assignments {
		if i > 0 {
			ctx.write(", ")
		}
		attr, ok := header.Find(a.Name)
		if !ok {
			return "", qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", a.Name)
		}
		ctx.write(quoteIdent(a.Name))
		ctx.write(` = `)
		if err := ctx.emitCoerced(a.Expr, attr.Type); err != nil {
			return "", err
		}
	}
	ctx.popThis()
	ctx.popBinds(1)

	if !isTrivialTrue(where) {
		ctx.params = whereParams
		ctx.pushBinds([]bindEntry{{thisRV, header}})
		ctx.pushThis(thisRV)
		ctx.write(" WHERE ")
		if err := ctx.emitCoerced(where, qltype.Boolean); err != nil {
			return "", err
		}
		ctx.popThis()
		ctx.popBinds(1)
	}

	return ctx.result(), nil
}

// TranslateDelete compiles a DELETE against relVarName gated by where.
func (c *Compiler) TranslateDelete(relVarName string, where *qlast.Expr, whereParams []Draft) (string, error) {
	header, err := c.schema.Header(relVarName)
	if err != nil {
		return "", err
	}
	thisRV := &qlast.RangeVar{Name: relVarName, Rel: qlast.NewBase(relVarName)}

	ctx := newCtx(c.schema, whereParams)
	ctx.write(`DELETE FROM `)
	ctx.write(quoteIdent(relVarName))

	if !isTrivialTrue(where) {
		ctx.pushBinds([]bindEntry{{thisRV, header}})
		ctx.pushThis(thisRV)
		ctx.write(" WHERE ")
		if err := ctx.emitCoerced(where, qltype.Boolean); err != nil {
			return "", err
		}
		ctx.popThis()
		ctx.popBinds(1)
	}
	return ctx.result(), nil
}

// TranslateCheckExpr compiles a boolean-valued expression — a CHECK
// constraint or similar standalone predicate — against header directly,
// without looking it up in the schema (its caller, Catalog.AddCheckConstraint,
// passes the RelVar's own header).
func (c *Compiler) TranslateCheckExpr(e *qlast.Expr, header *qltype.Header) (string, error) {
	thisRV := &qlast.RangeVar{Name: "this"}
	ctx := newCtx(c.schema, nil)
	ctx.bareThis = true
	ctx.pushBinds([]bindEntry{{thisRV, header}})
	ctx.pushThis(thisRV)
	if err := ctx.emitCoerced(e, qltype.Boolean); err != nil {
		return "", err
	}
	ctx.popThis()
	ctx.popBinds(1)
	return ctx.result(), nil
}
