package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
)

// loadRelVar builds one RelVar by invoking the backend's describe_table and
// describe_constrs stored helpers.
func loadRelVar(ctx context.Context, ex Executor, name string) (*RelVar, error) {
	rv := newRelVar(name)

	rows, err := ex.Query(ctx, `SELECT attr_name, storage_type, default_text FROM describe_table($1)`, quoteIdent(name))
	if err != nil {
		return nil, qlerr.Wrap(qlerr.DB, err, "describe_table(%q)", name)
	}
	defer rows.Close()
	for rows.Next() {
		var attrName, storageType string
		var defaultText *string
		if err := rows.Scan(&attrName, &storageType, &defaultText); err != nil {
			return nil, qlerr.Wrap(qlerr.DB, err, "scanning describe_table(%q)", name)
		}
		t, err := qltype.ReadBackendType(storageType)
		if err != nil {
			return nil, err
		}
		a := qltype.DefAttr{Attr: qltype.Attr{Name: attrName, Type: t}}
		if defaultText != nil {
			text := strings.TrimSpace(*defaultText)
			if t == qltype.Integer && strings.HasPrefix(text, "nextval(") {
				a.Type = qltype.Serial
			} else if text != "" {
				v, ok, err := defaultFromBackendText(t, text)
				if err != nil {
					return nil, err
				}
				a.HasDefault = ok
				a.Default = v
			}
		}
		rv.addAttr(a)
	}
	if err := rows.Err(); err != nil {
		return nil, qlerr.Wrap(qlerr.DB, err, "describe_table(%q)", name)
	}

	crows, err := ex.Query(ctx, `SELECT kind, attr_indexes, ref_rel_var, ref_indexes FROM describe_constrs($1)`, quoteIdent(name))
	if err != nil {
		return nil, qlerr.Wrap(qlerr.DB, err, "describe_constrs(%q)", name)
	}
	defer crows.Close()
	for crows.Next() {
		var kind string
		var attrIdx []int
		var refRelVar *string
		var refIdx []int
		if err := crows.Scan(&kind, &attrIdx, &refRelVar, &refIdx); err != nil {
			return nil, qlerr.Wrap(qlerr.DB, err, "scanning describe_constrs(%q)", name)
		}
		names := make([]string, len(attrIdx))
		for i, idx := range attrIdx {
			if idx < 0 || idx >= len(rv.Attrs) {
				return nil, qlerr.New(qlerr.DB, "describe_constrs(%q): attribute index out of range", name)
			}
			names[i] = rv.Attrs[idx].Name
		}
		switch kind {
		case "p", "u":
			rv.UniqueKeys = append(rv.UniqueKeys, names)
		case "f":
			if refRelVar == nil {
				return nil, qlerr.New(qlerr.DB, "describe_constrs(%q): foreign key missing referenced relation variable", name)
			}
			refNames := make([]string, len(refIdx))
			// ref_indexes are positions into the referenced RelVar's own
			// header; resolved lazily by the Meta loader once every RelVar
			// is loaded, since the referenced RelVar may not be loaded yet.
			for i, idx := range refIdx {
				refNames[i] = strconv.Itoa(idx)
			}
			rv.ForeignKeys = append(rv.ForeignKeys, ForeignKey{
				LocalAttrs: names,
				RefRelVar:  *refRelVar,
				RefAttrs:   refNames, // placeholder indexes, resolved below
			})
		}
		// CHECK constraints ("c") are intentionally not restored: the
		// compiled AST isn't stored by the backend, only enforced there.
	}
	if err := crows.Err(); err != nil {
		return nil, qlerr.Wrap(qlerr.DB, err, "describe_constrs(%q)", name)
	}

	return rv, nil
}

// resolveForeignKeyNames replaces the placeholder index strings left by
// loadRelVar with the referenced RelVar's actual attribute names, once every
// RelVar in the schema has been loaded (needed for self-referential and
// forward-referencing foreign keys alike).
func resolveForeignKeyNames(relVars map[string]*RelVar) error {
	for _, rv := range relVars {
		for i, fk := range rv.ForeignKeys {
			ref, ok := relVars[fk.RefRelVar]
			if !ok {
				return qlerr.New(qlerr.DB, "foreign key on %q references unknown relation variable %q", rv.Name, fk.RefRelVar)
			}
			names := make([]string, len(fk.RefAttrs))
			for j, idxStr := range fk.RefAttrs {
				idx, err := strconv.Atoi(idxStr)
				if err != nil || idx < 0 || idx >= len(ref.Attrs) {
					return qlerr.New(qlerr.DB, "foreign key on %q: bad referenced attribute index", rv.Name)
				}
				names[j] = ref.Attrs[idx].Name
			}
			rv.ForeignKeys[i].RefAttrs = names
		}
	}
	return nil
}

// defaultFromBackendText parses a stored default literal's text into a
// Value of type t. Numeric types use the same round-trip parser the
// translator uses for re-read values; string-shaped types take the quoted
// literal's inner text; boolean recognizes "true"/"false".
func defaultFromBackendText(t qltype.Type, text string) (qltype.Value, bool, error) {
	switch t {
	case qltype.Number, qltype.Integer, qltype.Serial:
		f, err := qltype.ParseNumberLiteral(text)
		if err != nil {
			return qltype.Value{}, false, err
		}
		switch t {
		case qltype.Integer:
			return qltype.NewInteger(f), true, nil
		default:
			return qltype.NewNumber(f), true, nil
		}
	case qltype.Boolean:
		return qltype.NewBoolean(strings.EqualFold(text, "true") || text == "1"), true, nil
	case qltype.String, qltype.JSON, qltype.Binary:
		return qltype.NewString(unquoteSQLString(text)), true, nil
	default:
		// Date defaults aren't a supported backend default shape.
		return qltype.Value{}, false, nil
	}
}

func unquoteSQLString(text string) string {
	s := text
	if i := strings.Index(s, "::"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, "''", "'")
	}
	return s
}
