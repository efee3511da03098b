package catalog

import (
	"context"
	"testing"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor records every statement it's asked to run and never talks to
// a real backend; Query is unused by the mutation-API tests below.
type fakeExecutor struct {
	stmts   []string
	failOn  string
	failErr error
}

func (f *fakeExecutor) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	return &emptyRows{}, nil
}

func (f *fakeExecutor) Exec(ctx context.Context, sql string, args ...interface{}) error {
	f.stmts = append(f.stmts, sql)
	return nil
}

func (f *fakeExecutor) ExecAffecting(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	f.stmts = append(f.stmts, sql)
	return 0, nil
}

func (f *fakeExecutor) ExecSafely(ctx context.Context, savepoint, sql string, args ...interface{}) error {
	f.stmts = append(f.stmts, sql)
	if f.failOn != "" && containsSubstr(sql, f.failOn) {
		return f.failErr
	}
	return nil
}

func containsSubstr(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

type emptyRows struct{}

func (r *emptyRows) Next() bool                 { return false }
func (r *emptyRows) Scan(dest ...interface{}) error { return nil }
func (r *emptyRows) Close() error               { return nil }
func (r *emptyRows) Err() error                 { return nil }

func newIntAttr(name string) qltype.DefAttr {
	return qltype.DefAttr{Attr: qltype.Attr{Name: name, Type: qltype.Integer}}
}

func TestCreateRelVarAddsImplicitUniqueKey(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	err := c.CreateRelVar(context.Background(), "User",
		[]qltype.DefAttr{newIntAttr("id"), {Attr: qltype.Attr{Name: "name", Type: qltype.String}}}, nil)
	require.NoError(t, err)

	rv, ok := c.Meta().Get("User")
	require.True(t, ok)
	require.Len(t, rv.UniqueKeys, 1)
	assert.ElementsMatch(t, []string{"id", "name"}, rv.UniqueKeys[0])
}

func TestCreateRelVarRejectsDuplicateName(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User", []qltype.DefAttr{newIntAttr("id")}, nil))
	err := c.CreateRelVar(context.Background(), "User", []qltype.DefAttr{newIntAttr("id")}, nil)
	require.Error(t, err)
	assert.Equal(t, qlerr.RelVarExists, qlerr.KindOf(err))
}

func TestAddAttrsOnPreviouslyEmptyRelVarAddsImplicitKey(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "Tag", nil, nil))
	rv, _ := c.Meta().Get("Tag")
	require.Empty(t, rv.UniqueKeys)

	err := c.AddAttrs(context.Background(), "Tag", []qltype.DefAttr{newIntAttr("id")})
	require.NoError(t, err)
	assert.Len(t, rv.UniqueKeys, 1)
	assert.Equal(t, []string{"id"}, rv.UniqueKeys[0])
}

func TestAddAttrsRejectsSerial(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User", []qltype.DefAttr{newIntAttr("id")}, nil))
	err := c.AddAttrs(context.Background(), "User", []qltype.DefAttr{{Attr: qltype.Attr{Name: "pk", Type: qltype.Serial}}})
	require.Error(t, err)
	assert.Equal(t, qlerr.NotImplemented, qlerr.KindOf(err))
}

func TestAddAttrsRejectsDuplicateName(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User", []qltype.DefAttr{newIntAttr("id")}, nil))
	err := c.AddAttrs(context.Background(), "User", []qltype.DefAttr{newIntAttr("id")})
	require.Error(t, err)
	assert.Equal(t, qlerr.AttrExists, qlerr.KindOf(err))
}

func TestDropAttrsRestoresImplicitUniqueKey(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User",
		[]qltype.DefAttr{newIntAttr("id"), {Attr: qltype.Attr{Name: "name", Type: qltype.String}}},
		[][]string{{"name"}}))

	err := c.DropAttrs(context.Background(), "User", []string{"name"})
	require.NoError(t, err)
	rv, _ := c.Meta().Get("User")
	require.Len(t, rv.UniqueKeys, 1)
	assert.Equal(t, []string{"id"}, rv.UniqueKeys[0])
}

func TestDropAttrsUnknownAttrFails(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User", []qltype.DefAttr{newIntAttr("id")}, nil))
	err := c.DropAttrs(context.Background(), "User", []string{"ghost"})
	require.Error(t, err)
	assert.Equal(t, qlerr.NoSuchAttr, qlerr.KindOf(err))
}

func TestDropRelVarsRejectsDependency(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "Topic",
		[]qltype.DefAttr{newIntAttr("tid")}, [][]string{{"tid"}}))
	require.NoError(t, c.CreateRelVar(context.Background(), "Post",
		[]qltype.DefAttr{newIntAttr("pid"), newIntAttr("tid")}, [][]string{{"pid"}}))
	require.NoError(t, c.AddForeignKeyConstraint(context.Background(), "Post", []string{"tid"}, "Topic", []string{"tid"}))

	err := c.DropRelVars(context.Background(), []string{"Topic"})
	require.Error(t, err)
	assert.Equal(t, qlerr.Dependency, qlerr.KindOf(err))

	_, stillThere := c.Meta().Get("Topic")
	assert.True(t, stillThere)
}

func TestDropRelVarsMissingNameFails(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	err := c.DropRelVars(context.Background(), []string{"Ghost"})
	require.Error(t, err)
	assert.Equal(t, qlerr.NoSuchRelVar, qlerr.KindOf(err))
}

func TestAddForeignKeyRequiresUniqueKeyOnTarget(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	// Topic's only unique key is the implicit all-attrs one (tid, extra),
	// so a foreign key on "tid" alone doesn't reference a unique key.
	require.NoError(t, c.CreateRelVar(context.Background(), "Topic",
		[]qltype.DefAttr{newIntAttr("tid"), newIntAttr("extra")}, nil))
	require.NoError(t, c.CreateRelVar(context.Background(), "Post",
		[]qltype.DefAttr{newIntAttr("pid"), newIntAttr("tid")}, [][]string{{"pid"}}))

	err := c.AddForeignKeyConstraint(context.Background(), "Post", []string{"tid"}, "Topic", []string{"tid"})
	require.Error(t, err)
	assert.Equal(t, qlerr.Constraint, qlerr.KindOf(err))
}

func TestAddCheckConstraintTranslatesExpression(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User", []qltype.DefAttr{newIntAttr("age")}, nil))

	err := c.AddCheckConstraint(context.Background(), "User", "age >= 0")
	require.NoError(t, err)
	require.NotEmpty(t, ex.stmts)
	assert.Contains(t, ex.stmts[len(ex.stmts)-1], `CHECK (("age" >= 0))`)
}

func TestAddCheckConstraintCachesParsedExpr(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User", []qltype.DefAttr{newIntAttr("age")}, nil))
	require.NoError(t, c.CreateRelVar(context.Background(), "Pet", []qltype.DefAttr{newIntAttr("age")}, nil))

	require.NoError(t, c.AddCheckConstraint(context.Background(), "User", "age >= 0"))
	_, hit := c.checks.cache.Get("age >= 0")
	assert.True(t, hit)
	require.NoError(t, c.AddCheckConstraint(context.Background(), "Pet", "age >= 0"))
}

// scriptedRows replays one fixed set of column values for a single row, for
// Insert/Count tests that need Query to return something.
type scriptedRows struct {
	vals []interface{}
	read bool
}

func (r *scriptedRows) Next() bool {
	if r.read {
		return false
	}
	r.read = true
	return true
}

func (r *scriptedRows) Scan(dest ...interface{}) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *int32:
			*p = r.vals[i].(int32)
		case *string:
			*p = r.vals[i].(string)
		case *int64:
			*p = r.vals[i].(int64)
		}
	}
	return nil
}

func (r *scriptedRows) Close() error { return nil }
func (r *scriptedRows) Err() error   { return nil }

type scriptedExecutor struct {
	fakeExecutor
	rows *scriptedRows
}

func (f *scriptedExecutor) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	f.stmts = append(f.stmts, sql)
	return f.rows, nil
}

func TestInsertReturnsStoredRow(t *testing.T) {
	ex := &scriptedExecutor{rows: &scriptedRows{vals: []interface{}{int32(1), "Ann"}}}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User",
		[]qltype.DefAttr{newIntAttr("id"), {Attr: qltype.Attr{Name: "name", Type: qltype.String}}}, nil))

	row, err := c.Insert(context.Background(), "User", map[string]qltype.Value{
		"id": qltype.NewInteger(1), "name": qltype.NewString("Ann"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", row["name"].Str())
}

func TestInsertRejectsMissingRequiredAttr(t *testing.T) {
	ex := &fakeExecutor{}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User",
		[]qltype.DefAttr{newIntAttr("id"), {Attr: qltype.Attr{Name: "name", Type: qltype.String}}}, nil))

	_, err := c.Insert(context.Background(), "User", map[string]qltype.Value{"id": qltype.NewInteger(1)})
	require.Error(t, err)
	assert.Equal(t, qlerr.VALUE, qlerr.KindOf(err))
}

func TestCountScansSingleValue(t *testing.T) {
	ex := &scriptedExecutor{rows: &scriptedRows{vals: []interface{}{int64(3)}}}
	c := NewEmpty(ex, "public")
	require.NoError(t, c.CreateRelVar(context.Background(), "User", []qltype.DefAttr{newIntAttr("id")}, nil))

	n, err := c.Count(context.Background(), qlast.NewBase("User"), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
