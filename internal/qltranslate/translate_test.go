package qltranslate

import (
	"testing"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qlparse"
	"github.com/akshell/patsak/internal/qltype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRelVar struct {
	header *qltype.Header
	fks    map[string]fakeFK
}

type fakeFK struct {
	refRelVar string
	refAttrs  []string
}

type fakeSchema struct {
	relVars map[string]fakeRelVar
}

func (s *fakeSchema) Header(name string) (*qltype.Header, error) {
	rv, ok := s.relVars[name]
	if !ok {
		return nil, assertableNoSuchRelVar(name)
	}
	return rv.header, nil
}

func (s *fakeSchema) FollowReference(relVarName string, keyAttrNames []string) (string, []string, error) {
	rv := s.relVars[relVarName]
	fk, ok := rv.fks[keyAttrNames[0]]
	if !ok {
		return "", nil, assertableNoSuchRelVar(relVarName + "->" + keyAttrNames[0])
	}
	return fk.refRelVar, fk.refAttrs, nil
}

func assertableNoSuchRelVar(what string) error {
	return &notFoundErr{what}
}

type notFoundErr struct{ what string }

func (e *notFoundErr) Error() string { return "no such: " + e.what }

func newTestSchema() *fakeSchema {
	return &fakeSchema{relVars: map[string]fakeRelVar{
		"User": {header: qltype.HeaderOf(
			qltype.Attr{Name: "id", Type: qltype.Integer},
			qltype.Attr{Name: "name", Type: qltype.String},
			qltype.Attr{Name: "age", Type: qltype.Integer},
			qltype.Attr{Name: "flooder", Type: qltype.Boolean},
		)},
		"r": {header: qltype.HeaderOf(
			qltype.Attr{Name: "age", Type: qltype.Integer},
		)},
		"s": {header: qltype.HeaderOf(
			qltype.Attr{Name: "sid", Type: qltype.Integer},
			qltype.Attr{Name: "sname", Type: qltype.String},
		)},
		"sp": {
			header: qltype.HeaderOf(
				qltype.Attr{Name: "sid", Type: qltype.Integer},
				qltype.Attr{Name: "pid", Type: qltype.Integer},
			),
			fks: map[string]fakeFK{
				"sid": {refRelVar: "s", refAttrs: []string{"sid"}},
			},
		},
	}}
}

func mustParse(t *testing.T, src string) *qlast.Rel {
	t.Helper()
	rel, err := qlparse.Parse(src)
	require.NoError(t, err)
	return rel
}

func TestTranslateNamedExprLiterals(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `{name: $1, age: $2}`)
	sql, header, err := c.TranslateQuery(rel, []Draft{RawDraft{"anton"}, RawDraft{23.0}}, nil, nil, 0, Unlimited)
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT 'anton' AS "name", 23 AS "age"`, sql)
	assert.Equal(t, 2, header.Len())
	nameAttr, _ := header.Find("name")
	assert.Equal(t, qltype.String, nameAttr.Type)
	ageAttr, _ := header.Find("age")
	assert.Equal(t, qltype.Number, ageAttr.Type)
}

func TestTranslatePosArgZeroFailsQuery(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `{smth: $0}`)
	_, _, err := c.TranslateQuery(rel, []Draft{RawDraft{"x"}}, nil, nil, 0, Unlimited)
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.Query))
}

func TestTranslateQueryWithOrderByLimitOffset(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `User`)
	sql, _, err := c.TranslateQuery(rel, nil, []string{"id % $1", "name + $2"}, []Draft{RawDraft{42.0}, RawDraft{"abc"}}, 3, 4)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM (SELECT DISTINCT "User".* FROM "User") AS "@" ORDER BY ("@"."id" % 42), ("@"."name" || 'abc') LIMIT 4 OFFSET 3`,
		sql)
}

func TestTranslateForBindsBaseAlias(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `for (x in r) x.age`)
	sql, header, err := c.TranslateQuery(rel, nil, nil, nil, 0, Unlimited)
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT "r"."age" FROM "r"`, sql)
	attr, ok := header.Find("age")
	require.True(t, ok)
	assert.Equal(t, qltype.Integer, attr.Type)
}

func TestTranslateForeignKeyDeref(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `for (x in sp) x.sid->sname`)
	sql, _, err := c.TranslateQuery(rel, nil, nil, nil, 0, Unlimited)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT DISTINCT (SELECT "s"."sname" FROM "s" WHERE "sp"."sid" = "s"."sid") AS "sname" FROM "sp"`,
		sql)
}

func TestTranslateForeignKeyDerefOnSyntheticOuterFails(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `User`)
	_, _, err := c.TranslateQuery(rel, nil, []string{"id->name"}, nil, 0, 1)
	require.Error(t, err)
}

func TestTranslateQuantForall(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `User where forall (x in r) x.age > 18`)
	sql, _, err := c.TranslateQuery(rel, nil, nil, nil, 0, Unlimited)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT DISTINCT "User".* FROM "User" WHERE (NOT EXISTS (SELECT 1 FROM "r" WHERE NOT (("r"."age" > 18))))`,
		sql)
}

func TestTranslateCount(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `User where id == $1`)
	sql, err := c.TranslateCount(rel, []Draft{RawDraft{1.0}})
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT COUNT(*) FROM (SELECT DISTINCT "User".* FROM "User" WHERE ("User"."id" = 1)) AS "@"`,
		sql)
}

func TestTranslateUpdate(t *testing.T) {
	c := NewCompiler(newTestSchema())
	where, err := qlparse.ParseExpr(`id % $ == 0`)
	require.NoError(t, err)
	flooderExpr, err := qlparse.ParseExpr(`id == 0 || !flooder`)
	require.NoError(t, err)
	nameExpr, err := qlparse.ParseExpr(`name + id + $`)
	require.NoError(t, err)

	sql, err := c.TranslateUpdate(
		"User",
		where,
		[]Draft{RawDraft{2.0}},
		[]Assignment{
			{Name: "flooder", Expr: flooderExpr},
			{Name: "name", Expr: nameExpr},
		},
		[]Draft{RawDraft{"abc"}},
	)
	require.NoError(t, err)
	assert.Contains(t, sql, `UPDATE "User" SET "flooder" =`)
	assert.Contains(t, sql, `"name" =`)
	assert.Contains(t, sql, `to_string("User"."id")`)
	assert.Contains(t, sql, `WHERE (("User"."id" % 2) = 0)`)
}

func TestTranslateUpdateEmptyFieldSetFails(t *testing.T) {
	c := NewCompiler(newTestSchema())
	where := &qlast.Expr{Tag: qlast.ExprLiteral, Value: qltype.NewBoolean(true)}
	_, err := c.TranslateUpdate("User", where, nil, nil, nil)
	require.Error(t, err)
}

func TestTranslateDelete(t *testing.T) {
	c := NewCompiler(newTestSchema())
	where, err := qlparse.ParseExpr(`id == 1`)
	require.NoError(t, err)
	sql, err := c.TranslateDelete("User", where, nil)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "User" WHERE ("User"."id" = 1)`, sql)
}

func TestTranslateCheckExprUsesBareColumnNames(t *testing.T) {
	c := NewCompiler(newTestSchema())
	header := qltype.HeaderOf(qltype.Attr{Name: "age", Type: qltype.Integer})
	e, err := qlparse.ParseExpr(`age >= 0`)
	require.NoError(t, err)
	sql, err := c.TranslateCheckExpr(e, header)
	require.NoError(t, err)
	assert.Equal(t, `("age" >= 0)`, sql)
}

func TestTranslateUnionHeaderMismatchFails(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `union(r, s)`)
	_, _, err := c.TranslateQuery(rel, nil, nil, nil, 0, Unlimited)
	require.Error(t, err)
}

func TestTranslateCastSurfaceSyntax(t *testing.T) {
	c := NewCompiler(newTestSchema())
	rel := mustParse(t, `User where cast(id as string) == "1"`)
	sql, _, err := c.TranslateQuery(rel, nil, nil, nil, 0, Unlimited)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT DISTINCT "User".* FROM "User" WHERE (to_string("User"."id") = '1')`,
		sql)
}
