package qltype

import "github.com/akshell/patsak/internal/qlerr"

// Attr is a (name, Type) pair.
type Attr struct {
	Name string
	Type Type
}

// DefAttr extends Attr with an optional default value, used on a RelVar
// definition's header.
type DefAttr struct {
	Attr
	Default    Value
	HasDefault bool
}

// ValAttr extends Attr with a current value. Catalog.AddAttrs backfills new
// attributes from DefAttr.Default and does not build ValAttrs.
type ValAttr struct {
	Attr
	Value Value
}

// Header is an ordered set of Attr keyed by name: iteration order is
// insertion order, and names are unique.
type Header struct {
	attrs []Attr
	index map[string]int
}

func NewHeader() *Header {
	return &Header{index: make(map[string]int)}
}

func HeaderOf(attrs ...Attr) *Header {
	h := NewHeader()
	for _, a := range attrs {
		h.Add(a)
	}
	return h
}

// Add inserts attr if its name isn't already present; no-op otherwise.
func (h *Header) Add(attr Attr) {
	if _, ok := h.index[attr.Name]; ok {
		return
	}
	h.index[attr.Name] = len(h.attrs)
	h.attrs = append(h.attrs, attr)
}

// AddOrFail inserts attr, failing if the name already exists.
func (h *Header) AddOrFail(attr Attr) error {
	if _, ok := h.index[attr.Name]; ok {
		return qlerr.New(qlerr.AttrExists, "attribute %q already exists", attr.Name)
	}
	h.Add(attr)
	return nil
}

// Find returns the Attr named name, if present.
func (h *Header) Find(name string) (Attr, bool) {
	i, ok := h.index[name]
	if !ok {
		return Attr{}, false
	}
	return h.attrs[i], true
}

// Remove drops the attribute named name, preserving relative order of the
// rest.
func (h *Header) Remove(name string) {
	i, ok := h.index[name]
	if !ok {
		return
	}
	h.attrs = append(h.attrs[:i], h.attrs[i+1:]...)
	delete(h.index, name)
	for n, idx := range h.index {
		if idx > i {
			h.index[n] = idx - 1
		}
	}
}

// Attrs returns the attributes in insertion order. Callers must not mutate
// the returned slice.
func (h *Header) Attrs() []Attr { return h.attrs }

// Len returns the number of attributes.
func (h *Header) Len() int { return len(h.attrs) }

// Names returns attribute names in insertion order.
func (h *Header) Names() []string {
	out := make([]string, len(h.attrs))
	for i, a := range h.attrs {
		out[i] = a.Name
	}
	return out
}

// Equal reports set equality: same attributes (name+type), order
// insensitive.
func (h *Header) Equal(o *Header) bool {
	if h.Len() != o.Len() {
		return false
	}
	for _, a := range h.attrs {
		b, ok := o.Find(a.Name)
		if !ok || b.Type != a.Type {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of h.
func (h *Header) Clone() *Header {
	out := NewHeader()
	for _, a := range h.attrs {
		out.Add(a)
	}
	return out
}
