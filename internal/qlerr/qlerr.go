// Package qlerr defines the closed set of error kinds the QL compiler and
// relational runtime can raise. Backend SQL errors are classified into these
// kinds by internal/txn.
package qlerr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories a QL operation can fail with.
type Kind int

const (
	Unknown Kind = iota
	TYPE
	RANGE
	VALUE
	NotImplemented
	Quota
	DB
	RelVarExists
	NoSuchRelVar
	AttrExists
	NoSuchAttr
	Constraint
	Query
	Dependency
	FS
	EntryExists
	NoSuchEntry
	EntryIsFolder
	EntryIsFile
	Conversion
	Socket
)

func (k Kind) String() string {
	switch k {
	case TYPE:
		return "TYPE"
	case RANGE:
		return "RANGE"
	case VALUE:
		return "VALUE"
	case NotImplemented:
		return "NOT_IMPLEMENTED"
	case Quota:
		return "QUOTA"
	case DB:
		return "DB"
	case RelVarExists:
		return "REL_VAR_EXISTS"
	case NoSuchRelVar:
		return "NO_SUCH_REL_VAR"
	case AttrExists:
		return "ATTR_EXISTS"
	case NoSuchAttr:
		return "NO_SUCH_ATTR"
	case Constraint:
		return "CONSTRAINT"
	case Query:
		return "QUERY"
	case Dependency:
		return "DEPENDENCY"
	case FS:
		return "FS"
	case EntryExists:
		return "ENTRY_EXISTS"
	case NoSuchEntry:
		return "NO_SUCH_ENTRY"
	case EntryIsFolder:
		return "ENTRY_IS_FOLDER"
	case EntryIsFile:
		return "ENTRY_IS_FILE"
	case Conversion:
		return "CONVERSION"
	case Socket:
		return "SOCKET"
	default:
		return "UNKNOWN"
	}
}

// Error is the error type every QL-facing operation returns. It carries a
// closed Kind so callers can switch on failure category, a human message,
// and an optional wrapped cause from the backend driver.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a bare Error with no wrapped cause.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that carries cause as its Unwrap target.
func Wrap(k Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// KindOf extracts the Kind from err, or Unknown if err isn't a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// NameTooLong builds the QUOTA error used when an identifier exceeds the
// 60-character limit. Kept distinct from TooMany so callers and tests can
// tell the two quota failure shapes apart.
func NameTooLong(name string) *Error {
	return New(Quota, "Name %q is too long", name)
}

// TooMany builds the QUOTA error used when a count-based limit (attributes
// per RelVar, RelVars per schema) is exceeded.
func TooMany(what string, limit int) *Error {
	return New(Quota, "Too many %s: limit is %d", what, limit)
}
