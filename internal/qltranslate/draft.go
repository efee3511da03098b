package qltranslate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/akshell/patsak/internal/qlerr"
	"github.com/akshell/patsak/internal/qltype"
)

// RawDraft wraps a plain Go value produced by the embedding layer's own
// value conversion (string, float64, bool, time.Time) and realizes it
// against a requested QL type, converting where the conversion is
// unambiguous. Requesting Dummy returns the value's own natural QL type
// with no conversion attempted.
type RawDraft struct {
	V interface{}
}

func (d RawDraft) Realize(target qltype.Type) (qltype.Value, error) {
	switch v := d.V.(type) {
	case string:
		return realizeString(v, target)
	case float64:
		return realizeNumber(v, target)
	case int:
		return realizeNumber(float64(v), target)
	case bool:
		return realizeBool(v, target)
	case time.Time:
		return realizeDate(v, target)
	default:
		return qltype.Value{}, qlerr.New(qlerr.VALUE, "no QL representation for %T", d.V)
	}
}

func realizeString(v string, target qltype.Type) (qltype.Value, error) {
	switch target {
	case Dummy, qltype.String:
		return qltype.NewString(v), nil
	case qltype.JSON:
		return qltype.NewJSON(v), nil
	case qltype.Binary:
		return qltype.NewBinary(v), nil
	case qltype.Number, qltype.Integer, qltype.Serial:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return qltype.Value{}, qlerr.Wrap(qlerr.VALUE, err, "not a number: %q", v)
		}
		return numberValue(target, f), nil
	case qltype.Boolean:
		return qltype.NewBoolean(v == "true"), nil
	default:
		return qltype.Value{}, qlerr.New(qlerr.VALUE, "cannot realize string as %s", target)
	}
}

func realizeNumber(v float64, target qltype.Type) (qltype.Value, error) {
	switch target {
	case Dummy, qltype.Number:
		return qltype.NewNumber(v), nil
	case qltype.Integer, qltype.Serial:
		return numberValue(target, v), nil
	case qltype.String:
		return qltype.NewString(fmt.Sprintf("%g", v)), nil
	case qltype.Boolean:
		return qltype.NewBoolean(v != 0), nil
	default:
		return qltype.Value{}, qlerr.New(qlerr.VALUE, "cannot realize number as %s", target)
	}
}

func realizeBool(v bool, target qltype.Type) (qltype.Value, error) {
	switch target {
	case Dummy, qltype.Boolean:
		return qltype.NewBoolean(v), nil
	case qltype.Number, qltype.Integer, qltype.Serial:
		n := 0.0
		if v {
			n = 1.0
		}
		return numberValue(target, n), nil
	case qltype.String:
		return qltype.NewString(strconv.FormatBool(v)), nil
	default:
		return qltype.Value{}, qlerr.New(qlerr.VALUE, "cannot realize boolean as %s", target)
	}
}

func realizeDate(v time.Time, target qltype.Type) (qltype.Value, error) {
	switch target {
	case Dummy, qltype.Date:
		return qltype.NewDate(v), nil
	default:
		return qltype.Value{}, qlerr.New(qlerr.VALUE, "cannot realize date as %s", target)
	}
}

func numberValue(target qltype.Type, f float64) qltype.Value {
	switch target {
	case qltype.Integer:
		return qltype.NewInteger(f)
	case qltype.Serial:
		return qltype.NewSerial(f)
	default:
		return qltype.NewNumber(f)
	}
}
