package qltranslate

import (
	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlparse"
)

// parseOrderExpr parses one ORDER BY source expression. Field references in
// it are bare (no rangevar prefix) and resolve against the synthetic "@"
// rangevar bound by TranslateQuery, the same way a bare field resolves to
// "this" anywhere else.
func parseOrderExpr(src string) (*qlast.Expr, error) {
	return qlparse.ParseExpr(src)
}
