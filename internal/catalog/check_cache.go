package catalog

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qlparse"
)

// checkCacheSize bounds the number of distinct CHECK-constraint expression
// strings whose parsed AST is kept across add_constrs calls in one process.
const checkCacheSize = 256

// checkExprCache memoizes qlparse.ParseExpr for CHECK-constraint source
// text, since add_constrs re-parses the same handful of expressions across
// many RelVars (id-is-positive, name-not-empty, and similar shapes recur).
type checkExprCache struct {
	cache *lru.Cache
}

func newCheckExprCache() *checkExprCache {
	c, err := lru.New(checkCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size, which checkCacheSize never is
	}
	return &checkExprCache{cache: c}
}

func (c *checkExprCache) parse(src string) (*qlast.Expr, error) {
	if v, ok := c.cache.Get(src); ok {
		return v.(*qlast.Expr), nil
	}
	e, err := qlparse.ParseExpr(src)
	if err != nil {
		return nil, qlerr.Wrap(qlerr.VALUE, err, "parsing check expression %q", src)
	}
	c.cache.Add(src, e)
	return e, nil
}
