package qltranslate

import (
	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
)

// emitProto writes one header entry's SQL rendering (already preceded by any
// needed comma by the caller) and returns the attribute(s) it contributes.
func (c *ctx) emitProto(p *qlast.Proto) ([]qltype.Attr, error) {
	switch p.Tag {
	case qlast.ProtoRangeVar:
		header, ok := c.header(p.RV)
		if !ok {
			return nil, qlerr.New(qlerr.Query, "rangevar %q is not bound here", p.RV.Name)
		}
		c.write(quoteIdent(aliasFor(p.RV)) + ".*")
		return header.Attrs(), nil

	case qlast.ProtoMultiField:
		return c.emitMultiFieldProto(p.Field)

	default: // ProtoNamedExpr
		t, err := c.emitExpr(&p.Expr)
		if err != nil {
			return nil, err
		}
		c.write(` AS "` + p.Name + `"`)
		return []qltype.Attr{{Name: p.Name, Type: t}}, nil
	}
}

func (c *ctx) emitMultiFieldProto(mf *qlast.MultiField) ([]qltype.Attr, error) {
	if mf.IsForeign() {
		return c.emitForeignFieldProto(mf)
	}

	header, ok := c.header(mf.RV)
	if !ok {
		return nil, qlerr.New(qlerr.Query, "rangevar %q is not bound here", mf.RV.Name)
	}
	alias := quoteIdent(aliasFor(mf.RV))

	names := mf.Path[0].Names
	attrs := make([]qltype.Attr, 0, len(names))
	for i, name := range names {
		if i > 0 {
			c.write(", ")
		}
		a, ok := header.Find(name)
		if !ok {
			return nil, qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", name)
		}
		c.write(alias + "." + quoteIdent(name))
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// emitForeignFieldProto expands a foreign multi-field proto into one
// NamedExpr-style emission per final-segment name, each a dereference
// sub-select aliased to that name.
func (c *ctx) emitForeignFieldProto(mf *qlast.MultiField) ([]qltype.Attr, error) {
	lastSeg := mf.Path[len(mf.Path)-1]
	prefix := mf.Path[:len(mf.Path)-1]

	attrs := make([]qltype.Attr, 0, len(lastSeg.Names))
	for i, name := range lastSeg.Names {
		if i > 0 {
			c.write(", ")
		}
		path := append(append([]qlast.PathSeg{}, prefix...), qlast.PathSeg{Names: []string{name}})
		t, err := c.emitForeignDeref(mf.RV, path)
		if err != nil {
			return nil, err
		}
		c.write(` AS "` + name + `"`)
		attrs = append(attrs, qltype.Attr{Name: name, Type: t})
	}
	return attrs, nil
}
