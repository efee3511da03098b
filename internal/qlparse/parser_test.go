package qlparse

import (
	"testing"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBareRangeVar(t *testing.T) {
	rel, err := Parse("User")
	require.NoError(t, err)
	require.Equal(t, qlast.RelSelect, rel.Tag)
	require.Len(t, rel.Protos, 1)
	assert.Equal(t, qlast.ProtoRangeVar, rel.Protos[0].Tag)
	assert.Equal(t, "User", rel.Protos[0].RV.Name)
	assert.Equal(t, qlast.RelBase, rel.Protos[0].RV.Rel.Tag)
}

func TestParseForBindsSharedRangeVar(t *testing.T) {
	rel, err := Parse("for (x in r) x.name")
	require.NoError(t, err)
	require.Equal(t, qlast.RelSelect, rel.Tag)
	require.Len(t, rel.Protos, 1)
	mf := rel.Protos[0].Field
	require.NotNil(t, mf)
	assert.Equal(t, "x", mf.RV.Name)
	assert.Equal(t, qlast.RelBase, mf.RV.Rel.Tag)
	assert.Equal(t, "r", mf.RV.Rel.Name)
	assert.False(t, mf.IsMulti())
	assert.False(t, mf.IsForeign())
}

func TestParseWhereBareFieldIsThis(t *testing.T) {
	rel, err := Parse("User where flooder")
	require.NoError(t, err)
	require.Equal(t, qlast.ExprMultiField, rel.Where.Tag)
	assert.Equal(t, "", rel.Where.Field.RV.Name)
	assert.Equal(t, []string{"flooder"}, rel.Where.Field.Path[0].Names)
}

func TestParseUnion(t *testing.T) {
	rel, err := Parse("union(User, Post)")
	require.NoError(t, err)
	require.Equal(t, qlast.RelUnion, rel.Tag)
	assert.Equal(t, "User", rel.L.Protos[0].RV.Name)
	assert.Equal(t, "Post", rel.R.Protos[0].RV.Name)
}

func TestParseQuantForall(t *testing.T) {
	rel, err := Parse("User where forall (x in Post) x.title == \"a\"")
	require.NoError(t, err)
	require.Equal(t, qlast.ExprQuant, rel.Where.Tag)
	assert.True(t, rel.Where.Universal)
	require.Len(t, rel.Where.QuantRVs, 1)
	assert.Equal(t, "x", rel.Where.QuantRVs[0].Name)
	require.Equal(t, qlast.ExprBinary, rel.Where.Pred.Tag)
}

func TestParsePosArgDefaultsToOne(t *testing.T) {
	rel, err := Parse("User where id == $")
	require.NoError(t, err)
	right := rel.Where.R
	require.Equal(t, qlast.ExprPosArg, right.Tag)
	assert.Equal(t, 1, right.Index)
}

// $0 must parse to an explicit index of 0, distinct from the bare "$"
// default-to-1 case above — qltranslate's emitPosArg is what actually
// fails QUERY on index 0, but that guard only fires if the parser hands it
// a real 0 instead of silently promoting $0 to $1.
func TestParsePosArgZeroIsExplicitNotDefaulted(t *testing.T) {
	rel, err := Parse("User where id == $0")
	require.NoError(t, err)
	right := rel.Where.R
	require.Equal(t, qlast.ExprPosArg, right.Tag)
	assert.Equal(t, 0, right.Index)
}

func TestParseForeignDeref(t *testing.T) {
	rel, err := Parse("for (x in sp) x.sid->sname")
	require.NoError(t, err)
	mf := rel.Protos[0].Field
	require.NotNil(t, mf)
	assert.True(t, mf.IsForeign())
	require.Len(t, mf.Path, 2)
	assert.Equal(t, []string{"sid"}, mf.Path[0].Names)
	assert.Equal(t, []string{"sname"}, mf.Path[1].Names)
}

func TestParseNamedExprProto(t *testing.T) {
	rel, err := Parse(`{name: $1, age: $2}`)
	require.NoError(t, err)
	require.Len(t, rel.Protos, 2)
	assert.Equal(t, qlast.ProtoNamedExpr, rel.Protos[0].Tag)
	assert.Equal(t, "name", rel.Protos[0].Name)
	assert.Equal(t, 1, rel.Protos[0].Expr.Index)
	assert.Equal(t, "age", rel.Protos[1].Name)
	assert.Equal(t, 2, rel.Protos[1].Expr.Index)
}

func TestParseMultiFieldBracketProto(t *testing.T) {
	rel, err := Parse("User[id,name]")
	require.NoError(t, err)
	mf := rel.Protos[0].Field
	require.NotNil(t, mf)
	assert.True(t, mf.IsMulti())
	assert.Equal(t, []string{"id", "name"}, mf.Path[0].Names)
}

func TestParseRejectsBareDollarSpaceNumber(t *testing.T) {
	_, err := Parse("User where id == $ 1")
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.Query))
}

func TestParseRejectsNumberAsRel(t *testing.T) {
	_, err := Parse("1")
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.Query))
}

func TestParseRejectsDuplicateRvDefNames(t *testing.T) {
	_, err := Parse("for (x, x in r) x")
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.Query))
}

func TestParseRejectsUnknownConstruct(t *testing.T) {
	_, err := Parse("foreach (a, a) true")
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.Query))
}

func TestParseRejectsDuplicateProtoNames(t *testing.T) {
	_, err := Parse("{User, User}")
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.Query))
}

func TestParseCondTernary(t *testing.T) {
	rel, err := Parse(`User where id == 0 ? true : false`)
	require.NoError(t, err)
	require.Equal(t, qlast.ExprCond, rel.Where.Tag)
}

func TestParseCastSurfaceSyntax(t *testing.T) {
	rel, err := Parse(`User where cast(id as string) == "1"`)
	require.NoError(t, err)
	left := rel.Where.L
	require.Equal(t, qlast.ExprCast, left.Tag)
}
