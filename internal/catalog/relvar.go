package catalog

import (
	"sort"

	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
)

// MaxAttrs and MaxRelVars are the quota limits on a RelVar's attribute
// count and on the number of RelVars in one schema.
const (
	MaxAttrs    = 500
	MaxRelVars  = 500
	MaxNameLen  = 60
)

// ForeignKey is one foreign key: LocalAttrs (in this RelVar, in key order)
// reference RefAttrs (a unique key) of RefRelVar, by name rather than by
// pointer — so a self-referential FK and cross-RelVar drop validation both
// resolve the referenced RelVar by name lookup in the owning Meta.
type ForeignKey struct {
	LocalAttrs []string
	RefRelVar  string
	RefAttrs   []string
}

// RelVar is one named relational variable: its ordered attribute list with
// defaults, its unique key set, and its foreign key set.
type RelVar struct {
	Name        string
	Attrs       []qltype.DefAttr
	UniqueKeys  [][]string
	ForeignKeys []ForeignKey

	attrIndex map[string]int
}

func newRelVar(name string) *RelVar {
	return &RelVar{Name: name, attrIndex: make(map[string]int)}
}

// Header returns the plain (name, type) header derived from the RelVar's
// attribute list, satisfying qltranslate.Schema.
func (rv *RelVar) Header() *qltype.Header {
	h := qltype.NewHeader()
	for _, a := range rv.Attrs {
		h.Add(a.Attr)
	}
	return h
}

func (rv *RelVar) findAttr(name string) (qltype.DefAttr, bool) {
	i, ok := rv.attrIndex[name]
	if !ok {
		return qltype.DefAttr{}, false
	}
	return rv.Attrs[i], true
}

func (rv *RelVar) addAttr(a qltype.DefAttr) {
	rv.attrIndex[a.Name] = len(rv.Attrs)
	rv.Attrs = append(rv.Attrs, a)
}

// removeAttrs drops the named attributes, preserving relative order of the
// rest, and reindexes attrIndex.
func (rv *RelVar) removeAttrs(names map[string]bool) {
	kept := rv.Attrs[:0:0]
	for _, a := range rv.Attrs {
		if !names[a.Name] {
			kept = append(kept, a)
		}
	}
	rv.Attrs = kept
	rv.attrIndex = make(map[string]int, len(kept))
	for i, a := range kept {
		rv.attrIndex[a.Name] = i
	}
}

// hasUniqueKeyOn reports whether attrNames (as a set) exactly matches one
// of rv's unique keys.
func (rv *RelVar) hasUniqueKeyOn(attrNames []string) bool {
	want := sortedCopy(attrNames)
	for _, k := range rv.UniqueKeys {
		if equalSorted(sortedCopy(k), want) {
			return true
		}
	}
	return false
}

func (rv *RelVar) dropKeysIntersecting(names map[string]bool) {
	kept := rv.UniqueKeys[:0:0]
	for _, k := range rv.UniqueKeys {
		if !anyIn(k, names) {
			kept = append(kept, k)
		}
	}
	rv.UniqueKeys = kept
}

func (rv *RelVar) dropFKsIntersecting(names map[string]bool) {
	kept := rv.ForeignKeys[:0:0]
	for _, fk := range rv.ForeignKeys {
		if !anyIn(fk.LocalAttrs, names) {
			kept = append(kept, fk)
		}
	}
	rv.ForeignKeys = kept
}

func anyIn(names []string, set map[string]bool) bool {
	for _, n := range names {
		if set[n] {
			return true
		}
	}
	return false
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func equalSorted(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validateIdentifier enforces the name-length quota shared by RelVar and
// attribute names.
func validateIdentifier(kind, name string) error {
	if name == "" {
		return qlerr.New(qlerr.VALUE, "%s name must not be empty", kind)
	}
	if len(name) > MaxNameLen {
		return qlerr.NameTooLong(name)
	}
	return nil
}
