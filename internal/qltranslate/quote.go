package qltranslate

import "strings"

// quoteIdent double-quotes a backend SQL identifier, doubling any embedded
// quote characters (identifiers are already validated against the QL
// identifier rule by the catalog, so this is a defensive escape, not a
// primary validation path).
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
