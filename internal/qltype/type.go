// Package qltype implements the QL type and value model: the closed set of
// eight scalar types, literal rendering to the backend SQL dialect, and the
// cast-function/operator algebra used by the translator.
package qltype

import (
	"fmt"

	"github.com/akshell/patsak/internal/qlerr"
)

// Type is one of the eight QL scalar types.
type Type int

const (
	Number Type = iota
	Integer
	Serial
	String
	Boolean
	Date
	JSON
	Binary
)

var names = [...]string{"number", "integer", "serial", "string", "boolean", "date", "json", "binary"}

// backendNames are the storage type names used by the Postgres backend, in
// declaration order matching the Type const block above.
var backendNames = [...]string{"float8", "int4", "int4", "text", "bool", "timestamp(3)", "json", "bytea"}

func (t Type) String() string {
	if int(t) < 0 || int(t) >= len(names) {
		return "invalid"
	}
	return names[t]
}

// BackendName returns the storage type name this Type maps to.
func (t Type) BackendName() string {
	return backendNames[t]
}

// IsNumeric reports whether t is one of number, integer, serial.
func (t Type) IsNumeric() bool {
	return t == Number || t == Integer || t == Serial
}

// ReadType parses a QL display name into a Type.
func ReadType(name string) (Type, error) {
	for i, n := range names {
		if n == name {
			return Type(i), nil
		}
	}
	return 0, qlerr.New(qlerr.VALUE, "no such type: %q", name)
}

// ReadBackendType maps a backend storage-type name to a Type. Serial is
// never produced here: the catalog loader promotes integer columns with a
// nextval(...) default to Serial after reading them (see internal/catalog).
func ReadBackendType(storageName string) (Type, error) {
	switch storageName {
	case "float8":
		return Number, nil
	case "int4":
		return Integer, nil
	case "text":
		return String, nil
	case "bool":
		return Boolean, nil
	case "timestamp(3)", "timestamp without time zone", "timestamp":
		return Date, nil
	case "json", "jsonb":
		return JSON, nil
	case "bytea":
		return Binary, nil
	default:
		return 0, qlerr.New(qlerr.VALUE, "no such backend type: %q", storageName)
	}
}

// CastFunction returns the backend function name used to coerce a value of
// type from to type to, or "" if no cast is required.
func CastFunction(from, to Type) (string, error) {
	switch {
	case from == to:
		return "", nil
	case from.IsNumeric() && to.IsNumeric():
		return "", nil
	case to == Date || to == JSON:
		return "", qlerr.New(qlerr.TYPE, "cannot coerce to %s", to)
	case from == Binary && to != Boolean:
		return "", qlerr.New(qlerr.TYPE, "cannot coerce %s to %s", from, to)
	case to.IsNumeric():
		return "to_number", nil
	default:
		return fmt.Sprintf("to_%s", to), nil
	}
}
