package txn

import (
	"context"

	"github.com/akshell/patsak/internal/catalog"
	"github.com/akshell/patsak/internal/qltype"
)

// trackedCatalog wraps a *catalog.Catalog so every schema-mutating DDL call
// that actually succeeds marks the owning work unit's metaChanged flag.
// Data operations (Insert/Query/Count/Update/Delete) and read-only lookups
// pass straight through via the embedded Catalog.
type trackedCatalog struct {
	*catalog.Catalog
	wu *WorkUnit
}

// trackedCatalog must satisfy catalog.Mutator so WorkUnit.Catalog can hand
// callers the interface rather than the embedded *catalog.Catalog directly
// — returning the embedded pointer would let callers bypass every override
// below and silently skip metaChanged tracking.
var _ catalog.Mutator = (*trackedCatalog)(nil)

func (c *trackedCatalog) markIfOK(err error) error {
	if err == nil {
		c.wu.metaChanged = true
	}
	return err
}

func (c *trackedCatalog) CreateRelVar(ctx context.Context, name string, attrs []qltype.DefAttr, uniqueKeys [][]string) error {
	return c.markIfOK(c.Catalog.CreateRelVar(ctx, name, attrs, uniqueKeys))
}

func (c *trackedCatalog) DropRelVars(ctx context.Context, names []string) error {
	return c.markIfOK(c.Catalog.DropRelVars(ctx, names))
}

func (c *trackedCatalog) AddAttrs(ctx context.Context, relVarName string, attrs []qltype.DefAttr) error {
	return c.markIfOK(c.Catalog.AddAttrs(ctx, relVarName, attrs))
}

func (c *trackedCatalog) DropAttrs(ctx context.Context, relVarName string, attrNames []string) error {
	return c.markIfOK(c.Catalog.DropAttrs(ctx, relVarName, attrNames))
}

func (c *trackedCatalog) AddDefault(ctx context.Context, relVarName, attrName string, v qltype.Value) error {
	return c.markIfOK(c.Catalog.AddDefault(ctx, relVarName, attrName, v))
}

func (c *trackedCatalog) DropDefault(ctx context.Context, relVarName, attrName string) error {
	return c.markIfOK(c.Catalog.DropDefault(ctx, relVarName, attrName))
}

func (c *trackedCatalog) AddUniqueConstraint(ctx context.Context, relVarName string, attrNames []string) error {
	return c.markIfOK(c.Catalog.AddUniqueConstraint(ctx, relVarName, attrNames))
}

func (c *trackedCatalog) AddForeignKeyConstraint(ctx context.Context, relVarName string, localAttrs []string, refRelVar string, refAttrs []string) error {
	return c.markIfOK(c.Catalog.AddForeignKeyConstraint(ctx, relVarName, localAttrs, refRelVar, refAttrs))
}

func (c *trackedCatalog) AddCheckConstraint(ctx context.Context, relVarName, expr string) error {
	return c.markIfOK(c.Catalog.AddCheckConstraint(ctx, relVarName, expr))
}

func (c *trackedCatalog) DropAllConstrs(ctx context.Context, relVarName string) error {
	return c.markIfOK(c.Catalog.DropAllConstrs(ctx, relVarName))
}
