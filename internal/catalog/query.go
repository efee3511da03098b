package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltranslate"
	"github.com/akshell/patsak/internal/qltype"
)

// Insert adds one tuple to relVarName. Every attribute with neither a
// default nor a Serial type must appear in values; omitted Serial/defaulted
// attributes are left to the backend to fill in, and the full stored row is
// returned.
func (c *Catalog) Insert(ctx context.Context, relVarName string, values map[string]qltype.Value) (map[string]qltype.Value, error) {
	rv, err := c.meta.MustGet(relVarName)
	if err != nil {
		return nil, err
	}

	if len(rv.Attrs) == 0 {
		if err := c.ex.Exec(ctx, insertIntoEmptyDDL(relVarName)); err != nil {
			return nil, qlerr.Wrap(qlerr.DB, err, "inserting into %q", relVarName)
		}
		return map[string]qltype.Value{}, nil
	}

	var cols, vals []string
	for _, a := range rv.Attrs {
		v, ok := values[a.Name]
		switch {
		case ok:
			cols = append(cols, quoteIdent(a.Name))
			vals = append(vals, v.Render())
		case a.HasDefault, a.Type == qltype.Serial:
			continue
		default:
			return nil, qlerr.New(qlerr.VALUE, "value of attribute %q must be supplied", a.Name)
		}
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		quoteIdent(relVarName), strings.Join(cols, ", "), strings.Join(vals, ", "))
	rows, err := c.ex.Query(ctx, sql)
	if err != nil {
		return nil, qlerr.Wrap(qlerr.Constraint, err, "inserting into %q", relVarName)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, qlerr.Wrap(qlerr.DB, rows.Err(), "inserting into %q: no row returned", relVarName)
	}
	return scanRow(rows, rv.Header())
}

// Query runs rel as a SELECT and returns every row as a name-keyed map, in
// the order the backend produced them, along with the output header.
func (c *Catalog) Query(
	ctx context.Context,
	rel *qlast.Rel,
	params []qltranslate.Draft,
	orderBy []string,
	orderByParams []qltranslate.Draft,
	offset, length int,
) ([]map[string]qltype.Value, *qltype.Header, error) {
	sql, header, err := c.tr.TranslateQuery(rel, params, orderBy, orderByParams, offset, length)
	if err != nil {
		return nil, nil, err
	}
	rows, err := c.ex.Query(ctx, sql)
	if err != nil {
		return nil, nil, qlerr.Wrap(qlerr.Query, err, "running query")
	}
	defer rows.Close()

	var out []map[string]qltype.Value
	for rows.Next() {
		row, err := scanRow(rows, header)
		if err != nil {
			return nil, nil, qlerr.Wrap(qlerr.Query, err, "reading query row")
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, qlerr.Wrap(qlerr.Query, err, "running query")
	}
	return out, header, nil
}

// Count runs rel as a row-count query.
func (c *Catalog) Count(ctx context.Context, rel *qlast.Rel, params []qltranslate.Draft) (int64, error) {
	sql, err := c.tr.TranslateCount(rel, params)
	if err != nil {
		return 0, err
	}
	rows, err := c.ex.Query(ctx, sql)
	if err != nil {
		return 0, qlerr.Wrap(qlerr.Query, err, "counting rows")
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, qlerr.Wrap(qlerr.DB, rows.Err(), "counting rows: no row returned")
	}
	var n int64
	if err := rows.Scan(&n); err != nil {
		return 0, qlerr.Wrap(qlerr.DB, err, "counting rows")
	}
	return n, nil
}

// Update runs an UPDATE against relVarName and reports the affected row
// count.
func (c *Catalog) Update(
	ctx context.Context,
	relVarName string,
	where *qlast.Expr,
	whereParams []qltranslate.Draft,
	assignments []qltranslate.Assignment,
	exprParams []qltranslate.Draft,
) (int64, error) {
	sql, err := c.tr.TranslateUpdate(relVarName, where, whereParams, assignments, exprParams)
	if err != nil {
		return 0, err
	}
	n, err := c.ex.ExecAffecting(ctx, sql)
	if err != nil {
		return 0, qlerr.Wrap(qlerr.Constraint, err, "updating %q", relVarName)
	}
	return n, nil
}

// Delete runs a DELETE against relVarName and reports the affected row
// count.
func (c *Catalog) Delete(ctx context.Context, relVarName string, where *qlast.Expr, whereParams []qltranslate.Draft) (int64, error) {
	sql, err := c.tr.TranslateDelete(relVarName, where, whereParams)
	if err != nil {
		return 0, err
	}
	n, err := c.ex.ExecAffecting(ctx, sql)
	if err != nil {
		return 0, qlerr.Wrap(qlerr.Dependency, err, "deleting from %q", relVarName)
	}
	return n, nil
}
