package catalog

import (
	"context"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qltranslate"
	"github.com/akshell/patsak/internal/qltype"
)

// Catalog is the mutation-API façade: the external face of Meta plus the
// DDL composition rules against one backend connection. One Catalog is
// built per work unit by internal/txn, which owns Meta-rebuild-on-drift
// and commit/rollback.
type Catalog struct {
	ex     Executor
	schema string
	meta   *Meta
	checks *checkExprCache
	tr     *qltranslate.Compiler
}

// New wraps an already-loaded Meta with the mutation API.
func New(ex Executor, schema string, meta *Meta) *Catalog {
	c := &Catalog{ex: ex, schema: schema, meta: meta, checks: newCheckExprCache()}
	c.tr = qltranslate.NewCompiler(c)
	return c
}

// NewEmpty builds a Catalog over a schema with no RelVars yet, for use
// before the first create_rel_var call.
func NewEmpty(ex Executor, schema string) *Catalog {
	return New(ex, schema, empty(schema))
}

// LoadCatalog rebuilds a Catalog's Meta from the backend.
func LoadCatalog(ctx context.Context, ex Executor, schema string) (*Catalog, error) {
	meta, err := Load(ctx, ex, schema)
	if err != nil {
		return nil, err
	}
	return New(ex, schema, meta), nil
}

// Mutator is the full external face of a Catalog: the DDL mutation calls
// plus the data operations (Insert/Query/Count/Update/Delete). internal/txn
// hands callers this interface,
// backed by a decorator that tracks whether a work unit touched the schema,
// rather than a bare *Catalog — so every mutating call, including ones made
// through an interface value, passes through that tracking.
type Mutator interface {
	Meta() *Meta
	Header(relVarName string) (*qltype.Header, error)
	FollowReference(relVarName string, keyAttrNames []string) (string, []string, error)

	CreateRelVar(ctx context.Context, name string, attrs []qltype.DefAttr, uniqueKeys [][]string) error
	DropRelVars(ctx context.Context, names []string) error
	AddAttrs(ctx context.Context, relVarName string, attrs []qltype.DefAttr) error
	DropAttrs(ctx context.Context, relVarName string, attrNames []string) error
	AddDefault(ctx context.Context, relVarName, attrName string, v qltype.Value) error
	DropDefault(ctx context.Context, relVarName, attrName string) error
	AddUniqueConstraint(ctx context.Context, relVarName string, attrNames []string) error
	AddForeignKeyConstraint(ctx context.Context, relVarName string, localAttrs []string, refRelVar string, refAttrs []string) error
	AddCheckConstraint(ctx context.Context, relVarName, expr string) error
	DropAllConstrs(ctx context.Context, relVarName string) error

	Insert(ctx context.Context, relVarName string, values map[string]qltype.Value) (map[string]qltype.Value, error)
	Query(ctx context.Context, rel *qlast.Rel, params []qltranslate.Draft, orderBy []string, orderByParams []qltranslate.Draft, offset, length int) ([]map[string]qltype.Value, *qltype.Header, error)
	Count(ctx context.Context, rel *qlast.Rel, params []qltranslate.Draft) (int64, error)
	Update(ctx context.Context, relVarName string, where *qlast.Expr, whereParams []qltranslate.Draft, assignments []qltranslate.Assignment, exprParams []qltranslate.Draft) (int64, error)
	Delete(ctx context.Context, relVarName string, where *qlast.Expr, whereParams []qltranslate.Draft) (int64, error)
}

var _ Mutator = (*Catalog)(nil)

// Meta returns the Catalog's current schema snapshot.
func (c *Catalog) Meta() *Meta { return c.meta }

// Header implements qltranslate.Schema by delegating to Meta.
func (c *Catalog) Header(relVarName string) (*qltype.Header, error) {
	return c.meta.Header(relVarName)
}

// FollowReference implements qltranslate.Schema by delegating to Meta.
func (c *Catalog) FollowReference(relVarName string, keyAttrNames []string) (string, []string, error) {
	return c.meta.FollowReference(relVarName, keyAttrNames)
}
