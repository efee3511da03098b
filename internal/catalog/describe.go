package catalog

import "github.com/akshell/patsak/internal/qltype"

// RelVarDef is an immutable snapshot of a RelVar's shape, returned to
// scripting code or a diagnostic caller that needs to reflect on a table
// without holding a reference into the live Meta.
type RelVarDef struct {
	Name        string
	Attrs       []qltype.DefAttr
	UniqueKeys  [][]string
	ForeignKeys []ForeignKey
}

// Describe snapshots rv's current shape into a plain, detached value.
func (rv *RelVar) Describe() RelVarDef {
	return RelVarDef{
		Name:        rv.Name,
		Attrs:       append([]qltype.DefAttr(nil), rv.Attrs...),
		UniqueKeys:  append([][]string(nil), rv.UniqueKeys...),
		ForeignKeys: append([]ForeignKey(nil), rv.ForeignKeys...),
	}
}
