package qltranslate

import (
	"bytes"

	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qltype"
)

// bindEntry associates a rangevar with the header it resolves to while in
// scope.
type bindEntry struct {
	rv     *qlast.RangeVar
	header *qltype.Header
}

// ctx carries the two stacks the translator threads through a single
// compile: an output-buffer stack, used to sub-render an operand into a
// throwaway buffer so its type can be learned before a wrapping cast is
// emitted, and a rangevar bind stack, searched innermost-first.
type ctx struct {
	schema Schema
	params []Draft

	bufs  []*bytes.Buffer
	binds []bindEntry
	this  []*qlast.RangeVar

	// bareThis, when set, makes a bare ("this") field reference render as
	// a plain column name with no table-alias prefix — used by
	// TranslateCheckExpr, where the rendered text sits inside a CHECK
	// constraint's own column-expression context and a qualified name
	// would be invalid SQL there.
	bareThis bool
}

func newCtx(schema Schema, params []Draft) *ctx {
	c := &ctx{schema: schema, params: params}
	c.bufs = append(c.bufs, &bytes.Buffer{})
	return c
}

func (c *ctx) cur() *bytes.Buffer { return c.bufs[len(c.bufs)-1] }

func (c *ctx) write(s string) { c.cur().WriteString(s) }

// result returns the text accumulated in the base buffer. Only meaningful
// once every pushBuf has been matched by a popBuf.
func (c *ctx) result() string { return c.bufs[0].String() }

func (c *ctx) pushBuf() { c.bufs = append(c.bufs, &bytes.Buffer{}) }

func (c *ctx) popBuf() string {
	b := c.bufs[len(c.bufs)-1]
	c.bufs = c.bufs[:len(c.bufs)-1]
	return b.String()
}

// captureRel sub-renders rel into a fresh buffer and returns its SQL text
// and header without touching the caller's current buffer.
func (c *ctx) captureRel(rel *qlast.Rel) (string, *qltype.Header, error) {
	c.pushBuf()
	h, err := c.translateRel(rel)
	text := c.popBuf()
	if err != nil {
		return "", nil, err
	}
	return text, h, nil
}

// captureExpr sub-renders e into a fresh buffer and returns its SQL text
// and natural type.
func (c *ctx) captureExpr(e *qlast.Expr) (string, qltype.Type, error) {
	c.pushBuf()
	t, err := c.emitExpr(e)
	text := c.popBuf()
	if err != nil {
		return "", 0, err
	}
	return text, t, nil
}

func (c *ctx) pushBinds(entries []bindEntry) {
	c.binds = append(c.binds, entries...)
}

func (c *ctx) popBinds(n int) {
	c.binds = c.binds[:len(c.binds)-n]
}

func (c *ctx) isBound(rv *qlast.RangeVar) bool {
	for _, b := range c.binds {
		if b.rv == rv {
			return true
		}
	}
	return false
}

func (c *ctx) header(rv *qlast.RangeVar) (*qltype.Header, bool) {
	for i := len(c.binds) - 1; i >= 0; i-- {
		if c.binds[i].rv == rv {
			return c.binds[i].header, true
		}
	}
	return nil, false
}

func (c *ctx) pushThis(rv *qlast.RangeVar) { c.this = append(c.this, rv) }
func (c *ctx) popThis()                    { c.this = c.this[:len(c.this)-1] }

func (c *ctx) resolveThis() *qlast.RangeVar {
	if len(c.this) == 0 {
		return nil
	}
	return c.this[len(c.this)-1]
}

// aliasFor returns the SQL alias a bound rangevar is addressed by: the
// underlying base relvar name for a Base binding (its own Name is a purely
// parse-time scoping label, never surfaced to SQL), or the rangevar's own
// name for a Union/Select binding (rendered as a derived subquery aliased
// to that name).
func aliasFor(rv *qlast.RangeVar) string {
	if rv.Rel != nil && rv.Rel.Tag == qlast.RelBase {
		return rv.Rel.Name
	}
	return rv.Name
}
