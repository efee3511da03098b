// Package qltranslate compiles a parsed QL relation or expression tree
// (internal/qlast) into backend SQL text, resolving rangevar bindings and
// positional parameters against a Schema and a Draft list as it goes.
package qltranslate

import "github.com/akshell/patsak/internal/qltype"

// Schema is the catalog lookup surface the translator needs: the header of
// a base relvar, and the far side of a foreign-key dereference. Implemented
// by internal/catalog.Meta; kept as a narrow interface here so this package
// never imports the catalog.
type Schema interface {
	// Header returns the attribute header of the base relvar named
	// relVarName, or a NoSuchRelVar error.
	Header(relVarName string) (*qltype.Header, error)

	// FollowReference resolves a `->` step: given the relvar on the near
	// side of the foreign key and the attribute names forming it, returns
	// the relvar and attribute names on the far side. Fails with Query if
	// no such foreign key exists.
	FollowReference(relVarName string, keyAttrNames []string) (refRelVar string, refAttrNames []string, err error)
}

// Draft is a lazily-typed parameter value supplied by the embedding layer.
// Realize coerces it to target, or to its own natural type when target is
// Dummy.
type Draft interface {
	Realize(target qltype.Type) (qltype.Value, error)
}

// Dummy is the internal sentinel target type meaning "no particular type is
// being requested — resolve the draft to its own natural type, and skip any
// cast wrapper that would otherwise coerce a rendered sub-expression to a
// caller-supplied target." It is never a member of the eight QL scalar
// types and is never reachable from QL source.
const Dummy qltype.Type = -1
