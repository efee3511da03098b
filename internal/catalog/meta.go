package catalog

import (
	"context"

	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
)

// Meta is the ordered, per-process in-memory mirror of the backend schema:
// one RelVar per table, loaded once per work unit and rebuilt when the
// backend's meta-state version drifts.
type Meta struct {
	schema  string
	order   []string
	relVars map[string]*RelVar
}

// Load rebuilds a Meta for schema from the backend, invoking
// get_schema_tables followed by one describe_table/describe_constrs pair
// per RelVar.
func Load(ctx context.Context, ex Executor, schema string) (*Meta, error) {
	rows, err := ex.Query(ctx, `SELECT name FROM get_schema_tables($1)`, schema)
	if err != nil {
		return nil, qlerr.Wrap(qlerr.DB, err, "get_schema_tables(%q)", schema)
	}
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, qlerr.Wrap(qlerr.DB, err, "scanning get_schema_tables(%q)", schema)
		}
		names = append(names, n)
	}
	scanErr := rows.Err()
	rows.Close()
	if scanErr != nil {
		return nil, qlerr.Wrap(qlerr.DB, scanErr, "get_schema_tables(%q)", schema)
	}

	m := &Meta{schema: schema, relVars: make(map[string]*RelVar, len(names))}
	for _, n := range names {
		rv, err := loadRelVar(ctx, ex, n)
		if err != nil {
			return nil, err
		}
		m.relVars[n] = rv
		m.order = append(m.order, n)
	}
	if err := resolveForeignKeyNames(m.relVars); err != nil {
		return nil, err
	}
	return m, nil
}

// empty returns a Meta with no RelVars, used as the starting point before
// the first create_rel_var call in a fresh schema.
func empty(schema string) *Meta {
	return &Meta{schema: schema, relVars: make(map[string]*RelVar)}
}

// RelVars returns the RelVars in load order.
func (m *Meta) RelVars() []*RelVar {
	out := make([]*RelVar, len(m.order))
	for i, n := range m.order {
		out[i] = m.relVars[n]
	}
	return out
}

// Get returns the RelVar named name, if present.
func (m *Meta) Get(name string) (*RelVar, bool) {
	rv, ok := m.relVars[name]
	return rv, ok
}

// MustGet returns the RelVar named name, or a NoSuchRelVar error.
func (m *Meta) MustGet(name string) (*RelVar, error) {
	rv, ok := m.relVars[name]
	if !ok {
		return nil, qlerr.New(qlerr.NoSuchRelVar, "no such relation variable: %q", name)
	}
	return rv, nil
}

// Header implements qltranslate.Schema: the plain (name, type) header for
// relVarName.
func (m *Meta) Header(relVarName string) (*qltype.Header, error) {
	rv, err := m.MustGet(relVarName)
	if err != nil {
		return nil, err
	}
	return rv.Header(), nil
}

// FollowReference implements qltranslate.Schema: given relVarName's
// foreign key whose local attributes are keyAttrNames (order-insensitive
// match against the key's shape, positionally correct result), returns the
// referenced RelVar name and its corresponding attribute names in the same
// order as keyAttrNames.
func (m *Meta) FollowReference(relVarName string, keyAttrNames []string) (string, []string, error) {
	rv, err := m.MustGet(relVarName)
	if err != nil {
		return "", nil, err
	}
	for _, fk := range rv.ForeignKeys {
		if !equalSorted(sortedCopy(fk.LocalAttrs), sortedCopy(keyAttrNames)) {
			continue
		}
		pos := make(map[string]string, len(fk.LocalAttrs))
		for i, n := range fk.LocalAttrs {
			pos[n] = fk.RefAttrs[i]
		}
		refNames := make([]string, len(keyAttrNames))
		for i, n := range keyAttrNames {
			refNames[i] = pos[n]
		}
		return fk.RefRelVar, refNames, nil
	}
	return "", nil, qlerr.New(qlerr.Query, "%q has no foreign key on %v", relVarName, keyAttrNames)
}
