package catalog

import (
	"time"

	"github.com/akshell/patsak/internal/qltype"
)

// scanRow reads one row from rows into a name-keyed Value map, using header
// to pick a Go buffer type per attribute's backend storage type. header's
// attribute order must match the row's column order, which holds for every
// caller here: RETURNING * and SELECT * both preserve RelVar declaration
// order.
func scanRow(rows Rows, header *qltype.Header) (map[string]qltype.Value, error) {
	attrs := header.Attrs()
	dest := make([]interface{}, len(attrs))
	bufs := make([]interface{}, len(attrs))
	for i, a := range attrs {
		switch a.Type {
		case qltype.Number:
			bufs[i] = new(float64)
		case qltype.Integer, qltype.Serial:
			bufs[i] = new(int32)
		case qltype.Boolean:
			bufs[i] = new(bool)
		case qltype.Date:
			bufs[i] = new(time.Time)
		case qltype.Binary:
			bufs[i] = new([]byte)
		default: // String, JSON
			bufs[i] = new(string)
		}
		dest[i] = bufs[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	out := make(map[string]qltype.Value, len(attrs))
	for i, a := range attrs {
		switch a.Type {
		case qltype.Number:
			out[a.Name] = qltype.NewNumber(*bufs[i].(*float64))
		case qltype.Integer:
			out[a.Name] = qltype.NewInteger(float64(*bufs[i].(*int32)))
		case qltype.Serial:
			out[a.Name] = qltype.NewSerial(float64(*bufs[i].(*int32)))
		case qltype.Boolean:
			out[a.Name] = qltype.NewBoolean(*bufs[i].(*bool))
		case qltype.Date:
			out[a.Name] = qltype.NewDate(*bufs[i].(*time.Time))
		case qltype.Binary:
			out[a.Name] = qltype.NewBinary(string(*bufs[i].(*[]byte)))
		case qltype.JSON:
			out[a.Name] = qltype.NewJSON(*bufs[i].(*string))
		default: // String
			out[a.Name] = qltype.NewString(*bufs[i].(*string))
		}
	}
	return out, nil
}
