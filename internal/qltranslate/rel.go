package qltranslate

import (
	"strings"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
)

// translateRel writes rel's SQL rendering to the current buffer and returns
// its output header.
func (c *ctx) translateRel(rel *qlast.Rel) (*qltype.Header, error) {
	switch rel.Tag {
	case qlast.RelBase:
		h, err := c.schema.Header(rel.Name)
		if err != nil {
			return nil, err
		}
		c.write(quoteIdent(rel.Name))
		return h, nil
	case qlast.RelUnion:
		return c.translateUnion(rel)
	default:
		return c.translateSelect(rel)
	}
}

func (c *ctx) translateUnion(rel *qlast.Rel) (*qltype.Header, error) {
	lh, err := c.translateRel(rel.L)
	if err != nil {
		return nil, err
	}
	c.write(" UNION ")
	rh, err := c.translateRel(rel.R)
	if err != nil {
		return nil, err
	}
	if lh.Len() != rh.Len() {
		return nil, qlerr.New(qlerr.Query, "union operand headers don't match")
	}
	for _, a := range lh.Attrs() {
		b, ok := rh.Find(a.Name)
		if !ok || !(a.Type == b.Type || (a.Type.IsNumeric() && b.Type.IsNumeric())) {
			return nil, qlerr.New(qlerr.Query, "union operand headers don't match")
		}
	}
	return lh, nil
}

// prepareFrom resolves a distinct, ordered set of rangevars into their FROM
// fragments and their (rv, header) bindings, without writing anything or
// pushing the bindings onto the bind stack — the caller decides when.
func (c *ctx) prepareFrom(rvs []*qlast.RangeVar) ([]string, []bindEntry, error) {
	fromParts := make([]string, 0, len(rvs))
	bindings := make([]bindEntry, 0, len(rvs))
	for _, rv := range rvs {
		if rv.Rel.Tag == qlast.RelBase {
			h, err := c.schema.Header(rv.Rel.Name)
			if err != nil {
				return nil, nil, err
			}
			fromParts = append(fromParts, quoteIdent(rv.Rel.Name))
			bindings = append(bindings, bindEntry{rv, h})
		} else {
			text, h, err := c.captureRel(rv.Rel)
			if err != nil {
				return nil, nil, err
			}
			fromParts = append(fromParts, "("+text+") AS "+quoteIdent(rv.Name))
			bindings = append(bindings, bindEntry{rv, h})
		}
	}
	return fromParts, bindings, nil
}

// translateSelect implements the Select translation rule: collect the
// rangevars the header and where reference that aren't already bound by an
// enclosing scope, bind them to a FROM clause, render the header as the
// select list, then render where (skipped when it is the literal true).
func (c *ctx) translateSelect(sel *qlast.Rel) (*qltype.Header, error) {
	rvs := c.collectRangeVars(sel)
	fromParts, bindings, err := c.prepareFrom(rvs)
	if err != nil {
		return nil, err
	}

	c.pushBinds(bindings)
	defer c.popBinds(len(bindings))

	c.write("SELECT DISTINCT ")
	header := qltype.NewHeader()
	seen := map[string]bool{}
	for i := range sel.Protos {
		if i > 0 {
			c.write(", ")
		}
		attrs, err := c.emitProto(&sel.Protos[i])
		if err != nil {
			return nil, err
		}
		for _, a := range attrs {
			if seen[a.Name] {
				return nil, qlerr.New(qlerr.Query, "duplicate output column %q", a.Name)
			}
			seen[a.Name] = true
			header.Add(a)
		}
	}

	if len(fromParts) > 0 {
		c.write(" FROM ")
		c.write(strings.Join(fromParts, ", "))
	}

	if !isTrivialTrue(&sel.Where) {
		var thisRV *qlast.RangeVar
		if len(sel.Protos) == 1 {
			switch sel.Protos[0].Tag {
			case qlast.ProtoRangeVar:
				thisRV = sel.Protos[0].RV
			case qlast.ProtoMultiField:
				thisRV = sel.Protos[0].Field.RV
			}
		}
		if thisRV != nil {
			c.pushThis(thisRV)
			defer c.popThis()
		}
		c.write(" WHERE ")
		if err := c.emitCoerced(&sel.Where, qltype.Boolean); err != nil {
			return nil, err
		}
	}

	return header, nil
}

func isTrivialTrue(e *qlast.Expr) bool {
	if e.Tag != qlast.ExprLiteral {
		return false
	}
	v := e.Value
	switch v.Type() {
	case qltype.Boolean:
		return v.Bool()
	case qltype.Number, qltype.Integer, qltype.Serial:
		return v.Number() != 0
	case qltype.String, qltype.JSON, qltype.Binary:
		return v.Str() != ""
	default:
		return false
	}
}
