package qltranslate

import (
	"github.com/akshell/patsak/internal/qlast"
	"github.com/akshell/patsak/internal/qltype"
)

// emitCastText writes text, already a rendering of a value of type from, to
// the current buffer, wrapped in a backend cast function if to differs from
// from and a cast is actually required. to == Dummy leaves text untouched.
func (c *ctx) emitCastText(text string, from, to qltype.Type) error {
	if to == Dummy || to == from {
		c.write(text)
		return nil
	}
	fn, err := qltype.CastFunction(from, to)
	if err != nil {
		return err
	}
	if fn == "" {
		c.write(text)
		return nil
	}
	c.write(fn)
	c.write("(")
	c.write(text)
	c.write(")")
	return nil
}

// emitCoerced sub-renders e and writes it to the current buffer coerced to
// target.
func (c *ctx) emitCoerced(e *qlast.Expr, target qltype.Type) error {
	text, t, err := c.captureExpr(e)
	if err != nil {
		return err
	}
	return c.emitCastText(text, t, target)
}
