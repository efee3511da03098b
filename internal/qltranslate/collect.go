package qltranslate

import "github.com/akshell/patsak/internal/qlast"

// collectRangeVars returns the distinct rangevars sel's header and where
// reference, in header-then-where order, skipping any rangevar already
// bound by an enclosing scope (so a correlated nested select resolves it
// through the outer FROM rather than re-introducing it) and skipping any
// rangevar introduced by a nested quantifier (which binds its own FROM).
func (c *ctx) collectRangeVars(sel *qlast.Rel) []*qlast.RangeVar {
	var order []*qlast.RangeVar
	seen := map[*qlast.RangeVar]bool{}

	add := func(rv *qlast.RangeVar) {
		if rv == nil || rv.Name == "" || seen[rv] || c.isBound(rv) {
			return
		}
		seen[rv] = true
		order = append(order, rv)
	}

	for _, p := range sel.Protos {
		switch p.Tag {
		case qlast.ProtoRangeVar:
			add(p.RV)
		case qlast.ProtoMultiField:
			add(p.Field.RV)
		case qlast.ProtoNamedExpr:
			collectFromExpr(&p.Expr, nil, add)
		}
	}

	collectFromExpr(&sel.Where, nil, add)
	return order
}

func collectFromExpr(e *qlast.Expr, localBound map[*qlast.RangeVar]bool, add func(*qlast.RangeVar)) {
	if e == nil {
		return
	}
	switch e.Tag {
	case qlast.ExprMultiField:
		rv := e.Field.RV
		if rv.Name != "" && !localBound[rv] {
			add(rv)
		}
	case qlast.ExprQuant:
		inner := make(map[*qlast.RangeVar]bool, len(localBound)+len(e.QuantRVs))
		for rv := range localBound {
			inner[rv] = true
		}
		for _, rv := range e.QuantRVs {
			inner[rv] = true
		}
		collectFromExpr(&e.Pred, inner, add)
	case qlast.ExprBinary:
		collectFromExpr(e.L, localBound, add)
		collectFromExpr(e.R, localBound, add)
	case qlast.ExprUnary:
		collectFromExpr(e.X, localBound, add)
	case qlast.ExprCond:
		collectFromExpr(e.Cond, localBound, add)
		collectFromExpr(e.Yes, localBound, add)
		collectFromExpr(e.No, localBound, add)
	case qlast.ExprCast:
		collectFromExpr(e.CastX, localBound, add)
	}
}
