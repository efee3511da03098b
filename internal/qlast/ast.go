// Package qlast defines the QL abstract syntax tree: a tagged-variant tree
// for relations and expressions. Nodes are immutable after construction;
// traversal is a dispatch on Tag rather than a set of interface methods.
package qlast

import "github.com/akshell/patsak/internal/qltype"

// RelTag discriminates the Rel variants.
type RelTag int

const (
	RelBase RelTag = iota
	RelUnion
	RelSelect
)

// Rel is a tagged relation node: Base(name) | Union(L, R) | Select(Protos, Where).
type Rel struct {
	Tag RelTag

	// RelBase
	Name string

	// RelUnion
	L, R *Rel

	// RelSelect
	Protos []Proto
	Where  Expr
}

func NewBase(name string) *Rel { return &Rel{Tag: RelBase, Name: name} }
func NewUnion(l, r *Rel) *Rel  { return &Rel{Tag: RelUnion, L: l, R: r} }
func NewSelect(protos []Proto, where Expr) *Rel {
	return &Rel{Tag: RelSelect, Protos: protos, Where: where}
}

// ProtoTag discriminates the Proto variants appearing in a Select header.
type ProtoTag int

const (
	ProtoRangeVar ProtoTag = iota
	ProtoMultiField
	ProtoNamedExpr
)

// Proto is one entry in a Select's header: a bare rangevar, a multi-field
// path, or a named expression.
type Proto struct {
	Tag   ProtoTag
	RV    *RangeVar   // ProtoRangeVar, ProtoMultiField
	Field *MultiField // ProtoMultiField
	Name  string      // ProtoNamedExpr
	Expr  Expr        // ProtoNamedExpr
}

// RangeVar binds a name to a Rel. Two occurrences of the same name within
// one scope share one *RangeVar instance (identity-equal), so the
// translator can recognize that two field references name the same
// binding without comparing strings.
type RangeVar struct {
	Name string
	Rel  *Rel
}

// ExprTag discriminates the Expr variants.
type ExprTag int

const (
	ExprLiteral ExprTag = iota
	ExprMultiField
	ExprPosArg
	ExprQuant
	ExprBinary
	ExprUnary
	ExprCond
	ExprCast
)

// Expr is a tagged expression node.
type Expr struct {
	Tag ExprTag

	// ExprLiteral
	Value qltype.Value

	// ExprMultiField
	Field *MultiField

	// ExprPosArg
	Index int

	// ExprQuant
	Universal bool
	QuantRVs  []*RangeVar
	Pred      Expr

	// ExprBinary
	BinOp   qltype.BinaryOp
	L, R    *Expr

	// ExprUnary
	UnOp UnaryOp
	X    *Expr

	// ExprCond
	Cond     *Expr
	Yes, No  *Expr

	// ExprCast
	CastTarget qltype.Type
	CastX      *Expr
}

// UnaryOp aliases qltype.UnaryOp for readability in AST node literals.
type UnaryOp = qltype.UnaryOp

// MultiField is a path expression starting at a rangevar: rv . seg (-> seg)*
// where each seg is one or more names (a "multi" seg when >1, legal only as
// the final segment of a proto).
type MultiField struct {
	RV   *RangeVar
	Path []PathSeg
}

// PathSeg is one segment of a MultiField path: a non-empty set of names.
type PathSeg struct {
	Names []string
}

// IsMulti reports whether the last path segment names more than one
// attribute — legal only when MultiField appears as a Proto, not as a
// scalar Expr.
func (m *MultiField) IsMulti() bool {
	if len(m.Path) == 0 {
		return false
	}
	return len(m.Path[len(m.Path)-1].Names) > 1
}

// IsForeign reports whether the path crosses a foreign-key dereference
// (path length > 1), i.e. uses the `->` operator.
func (m *MultiField) IsForeign() bool {
	return len(m.Path) > 1
}

func Literal(v qltype.Value) Expr { return Expr{Tag: ExprLiteral, Value: v} }

func FieldExpr(mf *MultiField) Expr { return Expr{Tag: ExprMultiField, Field: mf} }

func PosArg(i int) Expr { return Expr{Tag: ExprPosArg, Index: i} }

func Quant(universal bool, rvs []*RangeVar, pred Expr) Expr {
	return Expr{Tag: ExprQuant, Universal: universal, QuantRVs: rvs, Pred: pred}
}

func Binary(op qltype.BinaryOp, l, r Expr) Expr {
	return Expr{Tag: ExprBinary, BinOp: op, L: &l, R: &r}
}

func Unary(op UnaryOp, x Expr) Expr {
	return Expr{Tag: ExprUnary, UnOp: op, X: &x}
}

func Cond(t, yes, no Expr) Expr {
	return Expr{Tag: ExprCond, Cond: &t, Yes: &yes, No: &no}
}

// Cast is the explicit `cast(expr as type)` surface syntax, distinct from
// the implicit coercions the translator inserts around operators.
func Cast(target qltype.Type, x Expr) Expr {
	return Expr{Tag: ExprCast, CastTarget: target, CastX: &x}
}
