package catalog

import (
	"context"

	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
)

// execDDL runs each statement in stmts inside its own savepoint, in order,
// stopping at the first failure.
func (c *Catalog) execDDL(ctx context.Context, stmts []string) error {
	for _, s := range stmts {
		if err := c.ex.ExecSafely(ctx, newSavepointName(), s); err != nil {
			return err
		}
	}
	return nil
}

// CreateRelVar creates a new RelVar named name with attrs, adding an
// implicit all-attrs unique key when uniqueKeys is empty and attrs is
// non-empty.
func (c *Catalog) CreateRelVar(ctx context.Context, name string, attrs []qltype.DefAttr, uniqueKeys [][]string) error {
	if err := validateIdentifier("relation variable", name); err != nil {
		return err
	}
	if _, ok := c.meta.Get(name); ok {
		return qlerr.New(qlerr.RelVarExists, "relation variable %q already exists", name)
	}
	if len(c.meta.order) >= MaxRelVars {
		return qlerr.TooMany("relation variables", MaxRelVars)
	}
	if len(attrs) > MaxAttrs {
		return qlerr.TooMany("attributes", MaxAttrs)
	}
	seen := map[string]bool{}
	for _, a := range attrs {
		if err := validateIdentifier("attribute", a.Name); err != nil {
			return err
		}
		if seen[a.Name] {
			return qlerr.New(qlerr.AttrExists, "duplicate attribute %q", a.Name)
		}
		seen[a.Name] = true
	}
	if len(uniqueKeys) == 0 && len(attrs) > 0 {
		all := make([]string, len(attrs))
		for i, a := range attrs {
			all[i] = a.Name
		}
		uniqueKeys = [][]string{all}
	}

	stmts := createTableDDL(name, attrs, uniqueKeys)
	if err := c.execDDL(ctx, stmts); err != nil {
		return qlerr.Wrap(qlerr.DB, err, "creating relation variable %q", name)
	}

	rv := newRelVar(name)
	for _, a := range attrs {
		rv.addAttr(a)
	}
	rv.UniqueKeys = uniqueKeys
	c.meta.relVars[name] = rv
	c.meta.order = append(c.meta.order, name)
	return nil
}

// DropRelVars drops every RelVar named in names in one call, rejecting the
// whole batch if any surviving RelVar still references a dropped one.
func (c *Catalog) DropRelVars(ctx context.Context, names []string) error {
	dropSet := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := c.meta.Get(n); !ok {
			return qlerr.New(qlerr.NoSuchRelVar, "no such relation variable: %q", n)
		}
		dropSet[n] = true
	}
	for _, rv := range c.meta.RelVars() {
		if dropSet[rv.Name] {
			continue
		}
		for _, fk := range rv.ForeignKeys {
			if dropSet[fk.RefRelVar] {
				return qlerr.New(qlerr.Dependency,
					"%q is referenced by %q and cannot be dropped", fk.RefRelVar, rv.Name)
			}
		}
	}

	// Erase in reverse index order so earlier indexes stay valid as later
	// ones are removed from the ordered slice.
	var idxs []int
	for i, n := range c.meta.order {
		if dropSet[n] {
			idxs = append(idxs, i)
		}
	}
	for _, n := range names {
		if err := c.execDDL(ctx, []string{dropTableDDL(n)}); err != nil {
			return qlerr.Wrap(qlerr.DB, err, "dropping relation variable %q", n)
		}
	}
	for i := len(idxs) - 1; i >= 0; i-- {
		idx := idxs[i]
		delete(c.meta.relVars, c.meta.order[idx])
		c.meta.order = append(c.meta.order[:idx], c.meta.order[idx+1:]...)
	}
	return nil
}

// AddAttrs adds attrs to relVar, backfilling any default value into
// existing rows and adding the implicit all-attrs unique key if relVar
// previously had none.
func (c *Catalog) AddAttrs(ctx context.Context, relVarName string, attrs []qltype.DefAttr) error {
	if len(attrs) == 0 {
		return nil
	}
	rv, err := c.meta.MustGet(relVarName)
	if err != nil {
		return err
	}
	if len(rv.Attrs)+len(attrs) > MaxAttrs {
		return qlerr.TooMany("attributes", MaxAttrs)
	}
	for _, a := range attrs {
		if err := validateIdentifier("attribute", a.Name); err != nil {
			return err
		}
		if _, ok := rv.findAttr(a.Name); ok {
			return qlerr.New(qlerr.AttrExists, "attribute %q already exists", a.Name)
		}
		if a.Type == qltype.Serial {
			return qlerr.New(qlerr.NotImplemented, "cannot add a serial attribute to an existing relation variable")
		}
	}

	wasEmpty := len(rv.UniqueKeys) == 0
	var stmts []string
	for _, a := range attrs {
		stmts = append(stmts, addAttrDDL(relVarName, a)...)
	}
	if wasEmpty {
		all := make([]string, 0, len(rv.Attrs)+len(attrs))
		for _, a := range rv.Attrs {
			all = append(all, a.Name)
		}
		for _, a := range attrs {
			all = append(all, a.Name)
		}
		stmts = append(stmts, addUniqueDDL(relVarName, all))
	}
	if err := c.execDDL(ctx, stmts); err != nil {
		return qlerr.Wrap(qlerr.DB, err, "adding attributes to %q", relVarName)
	}

	for _, a := range attrs {
		rv.addAttr(a)
	}
	if wasEmpty {
		all := make([]string, len(rv.Attrs))
		for i, a := range rv.Attrs {
			all[i] = a.Name
		}
		rv.UniqueKeys = [][]string{all}
	}
	return nil
}

// DropAttrs removes attrs from relVar, recomputing its unique-key and
// foreign-key sets and restoring an implicit all-attrs unique key if the
// resulting header would otherwise have none.
func (c *Catalog) DropAttrs(ctx context.Context, relVarName string, attrNames []string) error {
	rv, err := c.meta.MustGet(relVarName)
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(attrNames))
	for _, n := range attrNames {
		if _, ok := rv.findAttr(n); !ok {
			return qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", n)
		}
		names[n] = true
	}

	var stmts []string
	for _, n := range attrNames {
		stmts = append(stmts, dropAttrDDL(relVarName, n))
	}
	remaining := len(rv.Attrs) - len(attrNames)
	keptKeys := rv.UniqueKeys
	rv.dropKeysIntersecting(names)
	needsImplicit := remaining > 0 && len(rv.UniqueKeys) == 0
	var survivingAttrs []string
	if needsImplicit {
		for _, a := range rv.Attrs {
			if !names[a.Name] {
				survivingAttrs = append(survivingAttrs, a.Name)
			}
		}
		stmts = append(stmts, addUniqueDDL(relVarName, survivingAttrs))
	}

	if err := c.execDDL(ctx, stmts); err != nil {
		rv.UniqueKeys = keptKeys
		if qlerr.Is(err, qlerr.Constraint) {
			return qlerr.Wrap(qlerr.Constraint, err, "dropping attributes from %q: remaining tuples have duplicates", relVarName)
		}
		return qlerr.Wrap(qlerr.Dependency, err, "%q is referenced by other relation variable", relVarName)
	}

	if needsImplicit {
		rv.UniqueKeys = [][]string{survivingAttrs}
	}
	rv.removeAttrs(names)
	rv.dropFKsIntersecting(names)
	return nil
}

// AddDefault sets relVarName.attrName's default to v.
func (c *Catalog) AddDefault(ctx context.Context, relVarName, attrName string, v qltype.Value) error {
	rv, err := c.meta.MustGet(relVarName)
	if err != nil {
		return err
	}
	i, ok := rv.attrIndex[attrName]
	if !ok {
		return qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", attrName)
	}
	if err := c.execDDL(ctx, []string{addDefaultDDL(relVarName, attrName, v)}); err != nil {
		return qlerr.Wrap(qlerr.DB, err, "adding default for %q.%q", relVarName, attrName)
	}
	rv.Attrs[i].Default = v
	rv.Attrs[i].HasDefault = true
	return nil
}

// DropDefault clears relVarName.attrName's default.
func (c *Catalog) DropDefault(ctx context.Context, relVarName, attrName string) error {
	rv, err := c.meta.MustGet(relVarName)
	if err != nil {
		return err
	}
	i, ok := rv.attrIndex[attrName]
	if !ok {
		return qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", attrName)
	}
	if !rv.Attrs[i].HasDefault {
		return qlerr.New(qlerr.DB, "%q.%q has no default", relVarName, attrName)
	}
	if err := c.execDDL(ctx, []string{dropDefaultDDL(relVarName, attrName)}); err != nil {
		return qlerr.Wrap(qlerr.DB, err, "dropping default for %q.%q", relVarName, attrName)
	}
	rv.Attrs[i].HasDefault = false
	rv.Attrs[i].Default = qltype.Value{}
	return nil
}

// AddUniqueConstraint adds a unique key on attrNames to relVar.
func (c *Catalog) AddUniqueConstraint(ctx context.Context, relVarName string, attrNames []string) error {
	rv, err := c.meta.MustGet(relVarName)
	if err != nil {
		return err
	}
	if len(attrNames) == 0 {
		return qlerr.New(qlerr.Constraint, "unique key must name at least one attribute")
	}
	for _, n := range attrNames {
		if _, ok := rv.findAttr(n); !ok {
			return qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", n)
		}
	}
	if err := c.execDDL(ctx, []string{addUniqueDDL(relVarName, attrNames)}); err != nil {
		return qlerr.Wrap(qlerr.Constraint, err, "adding unique constraint to %q", relVarName)
	}
	rv.UniqueKeys = append(rv.UniqueKeys, attrNames)
	return nil
}

// AddForeignKeyConstraint adds a foreign key from relVarName.localAttrs to
// refRelVar's unique key refAttrs, validating arity and type compatibility
// (integer<->serial permitted).
func (c *Catalog) AddForeignKeyConstraint(ctx context.Context, relVarName string, localAttrs []string, refRelVar string, refAttrs []string) error {
	rv, err := c.meta.MustGet(relVarName)
	if err != nil {
		return err
	}
	target := rv
	if refRelVar == relVarName {
		target = rv // self-referential: resolve in the RelVar under construction
	} else {
		target, err = c.meta.MustGet(refRelVar)
		if err != nil {
			return err
		}
	}
	if len(localAttrs) != len(refAttrs) || len(localAttrs) == 0 {
		return qlerr.New(qlerr.Constraint, "foreign key arity mismatch")
	}
	if !target.hasUniqueKeyOn(refAttrs) {
		return qlerr.New(qlerr.Constraint, "%q is not a unique key of %q", refAttrs, refRelVar)
	}
	for i, n := range localAttrs {
		la, ok := rv.findAttr(n)
		if !ok {
			return qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", n)
		}
		ra, ok := target.findAttr(refAttrs[i])
		if !ok {
			return qlerr.New(qlerr.NoSuchAttr, "no such attribute: %q", refAttrs[i])
		}
		if !typeCompatible(la.Type, ra.Type) {
			return qlerr.New(qlerr.TYPE, "foreign key type mismatch between %q and %q", n, refAttrs[i])
		}
	}
	if err := c.execDDL(ctx, []string{addForeignKeyDDL(relVarName, localAttrs, refRelVar, refAttrs)}); err != nil {
		return qlerr.Wrap(qlerr.Constraint, err, "adding foreign key to %q", relVarName)
	}
	rv.ForeignKeys = append(rv.ForeignKeys, ForeignKey{LocalAttrs: localAttrs, RefRelVar: refRelVar, RefAttrs: refAttrs})
	return nil
}

func typeCompatible(a, b qltype.Type) bool {
	if a == b {
		return true
	}
	numericKey := func(t qltype.Type) bool { return t == qltype.Integer || t == qltype.Serial }
	return numericKey(a) && numericKey(b)
}

// AddCheckConstraint validates that expr (QL source) is a boolean
// expression over relVar's header, and adds it as a backend CHECK.
func (c *Catalog) AddCheckConstraint(ctx context.Context, relVarName, expr string) error {
	rv, err := c.meta.MustGet(relVarName)
	if err != nil {
		return err
	}
	e, err := c.checks.parse(expr)
	if err != nil {
		return err
	}
	sql, err := c.tr.TranslateCheckExpr(e, rv.Header())
	if err != nil {
		return err
	}
	if err := c.execDDL(ctx, []string{addCheckDDL(relVarName, sql)}); err != nil {
		return qlerr.Wrap(qlerr.Constraint, err, "adding check constraint to %q", relVarName)
	}
	return nil
}

// DropAllConstrs drops every non-primary-key constraint on relVar and
// restores the implicit all-attrs unique key.
func (c *Catalog) DropAllConstrs(ctx context.Context, relVarName string) error {
	rv, err := c.meta.MustGet(relVarName)
	if err != nil {
		return err
	}
	if err := c.execDDL(ctx, []string{dropAllConstrsDDL(relVarName)}); err != nil {
		if isIndexTooLong(err) {
			return qlerr.Wrap(qlerr.Quota, err, "unique string is too long")
		}
		return qlerr.Wrap(qlerr.Dependency, err, "dropping constraints on %q", relVarName)
	}
	all := make([]string, len(rv.Attrs))
	for i, a := range rv.Attrs {
		all[i] = a.Name
	}
	if err := c.execDDL(ctx, []string{addUniqueDDL(relVarName, all)}); err != nil {
		return qlerr.Wrap(qlerr.DB, err, "restoring implicit unique key on %q", relVarName)
	}
	rv.UniqueKeys = [][]string{all}
	rv.ForeignKeys = nil
	return nil
}

func isIndexTooLong(err error) bool {
	return qlerr.KindOf(err) == qlerr.Quota
}
