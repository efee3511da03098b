package catalog

import (
	"fmt"
	"strings"

	"github.com/akshell/patsak/internal/qltype"
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createTableDDL composes the CREATE SEQUENCE (one per serial attr, issued
// before the table) and CREATE TABLE statements for a brand-new RelVar.
func createTableDDL(name string, attrs []qltype.DefAttr, uniqueKeys [][]string) []string {
	var stmts []string
	for _, a := range attrs {
		if a.Type == qltype.Serial {
			stmts = append(stmts, fmt.Sprintf("CREATE SEQUENCE %s", quoteIdent(seqName(name, a.Name))))
		}
	}

	cols := make([]string, len(attrs))
	for i, a := range attrs {
		cols[i] = columnDDL(a)
	}
	for _, key := range uniqueKeys {
		cols = append(cols, fmt.Sprintf("UNIQUE (%s)", quoteIdentList(key)))
	}
	stmts = append(stmts, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(cols, ", ")))

	for _, a := range attrs {
		if a.Type == qltype.Serial {
			stmts = append(stmts, fmt.Sprintf(
				"ALTER SEQUENCE %s OWNED BY %s.%s",
				quoteIdent(seqName(name, a.Name)), quoteIdent(name), quoteIdent(a.Name)))
			stmts = append(stmts, fmt.Sprintf(
				"ALTER TABLE %s ALTER COLUMN %s SET DEFAULT nextval(%s)",
				quoteIdent(name), quoteIdent(a.Name), sqlQuoteLiteral(seqName(name, a.Name))))
		}
	}
	return stmts
}

func seqName(relVar, attr string) string { return relVar + "_" + attr + "_seq" }

func sqlQuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func columnDDL(a qltype.DefAttr) string {
	backend := a.Type.BackendName()
	if a.Type == qltype.Serial {
		backend = "int4"
	}
	col := fmt.Sprintf("%s %s NOT NULL", quoteIdent(a.Name), backend)
	if a.HasDefault {
		col += " DEFAULT " + a.Default.Render()
	}
	return col
}

func quoteIdentList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return strings.Join(out, ", ")
}

func dropTableDDL(name string) string {
	return fmt.Sprintf("DROP TABLE %s CASCADE", quoteIdent(name))
}

func addAttrDDL(relVar string, a qltype.DefAttr) []string {
	stmts := []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		quoteIdent(relVar), quoteIdent(a.Name), a.Type.BackendName())}
	if a.HasDefault {
		stmts = append(stmts, fmt.Sprintf("UPDATE %s SET %s = %s",
			quoteIdent(relVar), quoteIdent(a.Name), a.Default.Render()))
	}
	stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL",
		quoteIdent(relVar), quoteIdent(a.Name)))
	return stmts
}

func dropAttrDDL(relVar, attr string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(relVar), quoteIdent(attr))
}

func addUniqueDDL(relVar string, attrs []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD UNIQUE (%s)", quoteIdent(relVar), quoteIdentList(attrs))
}

func addForeignKeyDDL(relVar string, local []string, refRelVar string, ref []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(relVar), quoteIdentList(local), quoteIdent(refRelVar), quoteIdentList(ref))
}

func addCheckDDL(relVar, sqlExpr string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CHECK (%s)", quoteIdent(relVar), sqlExpr)
}

func addDefaultDDL(relVar, attr string, v qltype.Value) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s",
		quoteIdent(relVar), quoteIdent(attr), v.Render())
}

func dropDefaultDDL(relVar, attr string) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", quoteIdent(relVar), quoteIdent(attr))
}

func dropAllConstrsDDL(relVar string) string {
	return fmt.Sprintf("SELECT drop_all_constrs(%s)", sqlQuoteLiteral(relVar))
}

func insertIntoEmptyDDL(relVar string) string {
	return fmt.Sprintf("SELECT insert_into_empty(%s)", sqlQuoteLiteral(relVar))
}
