package server

import (
	"context"
	"strings"

	"github.com/akshell/patsak/internal/catalog"
	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qlparse"
	"github.com/akshell/patsak/internal/qltranslate"
	"github.com/akshell/patsak/internal/qltype"
)

// Handler is the seam between the stream-socket front door and whatever
// runs application code against an open work unit. The request path ('H')
// is entirely out of scope here — it belongs to an embedding/scripting
// layer outside this module — so a real deployment supplies its own
// Handler.Handle. Evaluate is implemented in-house for the 'E' diagnostic
// path, since it only needs the compiler and catalog this module already
// builds.
type Handler interface {
	// Handle processes an opaque 'H' request against cat and returns the
	// opaque response bytes a real embedding layer defines the shape of.
	Handle(ctx context.Context, cat catalog.Mutator, req []byte) ([]byte, error)

	// Evaluate runs a QL query string directly against cat and renders its
	// result rows as text, for the 'E' diagnostic opcode.
	Evaluate(ctx context.Context, cat catalog.Mutator, query string) (string, error)
}

// DiagnosticHandler implements the 'E' opcode by parsing and running a QL
// query straight against the catalog, with no parameters and no paging. It
// returns qlerr.NotImplemented for the 'H' opcode, since request handling
// is the out-of-scope embedding layer's job.
type DiagnosticHandler struct{}

func (DiagnosticHandler) Handle(context.Context, catalog.Mutator, []byte) ([]byte, error) {
	return nil, qlerr.New(qlerr.NotImplemented, "request handling requires an embedding layer")
}

func (DiagnosticHandler) Evaluate(ctx context.Context, cat catalog.Mutator, query string) (string, error) {
	rel, err := qlparse.Parse(query)
	if err != nil {
		return "", err
	}
	rows, header, err := cat.Query(ctx, rel, nil, nil, nil, 0, qltranslate.Unlimited)
	if err != nil {
		return "", err
	}
	return renderRows(rows, header), nil
}

func renderRows(rows []map[string]qltype.Value, header *qltype.Header) string {
	attrs := header.Attrs()
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}

	var b strings.Builder
	b.WriteString(strings.Join(names, "\t"))
	for _, row := range rows {
		b.WriteByte('\n')
		cells := make([]string, len(names))
		for i, name := range names {
			if v, ok := row[name]; ok {
				cells[i] = v.Render()
			}
		}
		b.WriteString(strings.Join(cells, "\t"))
	}
	return b.String()
}
