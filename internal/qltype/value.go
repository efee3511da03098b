package qltype

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/akshell/patsak/internal/qlerr"
)

// Escaper renders a string or binary payload into a backend-safe quoted
// literal. Installed once at startup by the embedding layer (out of scope
// here); a default SQL-standard escaper is provided for tests and for the
// thin server in internal/server.
type Escaper func(s string) string

// DefaultEscaper doubles single quotes, the SQL-standard escape, and wraps
// the result in single quotes.
func DefaultEscaper(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var escaper Escaper = DefaultEscaper

// SetEscaper installs the callback used by Value.Render for string/binary
// payloads, once by the embedding layer at process start.
func SetEscaper(e Escaper) { escaper = e }

// Value is a Type together with its payload. Exactly one of the payload
// fields is meaningful, selected by Type.
type Value struct {
	typ Type

	num float64 // number, integer, serial, boolean (0/1), date (ms since epoch)
	str string  // string, json, binary
}

func NewNumber(v float64) Value  { return Value{typ: Number, num: v} }
func NewInteger(v float64) Value { return Value{typ: Integer, num: v} }
func NewSerial(v float64) Value  { return Value{typ: Serial, num: v} }
func NewString(v string) Value   { return Value{typ: String, str: v} }
func NewJSON(v string) Value     { return Value{typ: JSON, str: v} }
func NewBinary(v string) Value   { return Value{typ: Binary, str: v} }

func NewBoolean(v bool) Value {
	n := 0.0
	if v {
		n = 1.0
	}
	return Value{typ: Boolean, num: n}
}

func NewDate(t time.Time) Value {
	ms := float64(t.UnixMilli())
	return Value{typ: Date, num: ms}
}

func (v Value) Type() Type      { return v.typ }
func (v Value) Number() float64 { return v.num }
func (v Value) Bool() bool      { return v.num != 0 }
func (v Value) Str() string     { return v.str }

func (v Value) Date() time.Time {
	return time.UnixMilli(int64(v.num)).UTC()
}

// Render produces a self-typed backend SQL literal for v.
func (v Value) Render() string {
	switch v.typ {
	case Number, Integer, Serial:
		return renderNumeric(v.num)
	case Boolean:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case Date:
		t := v.Date()
		return fmt.Sprintf("'%s'::timestamp(3)", t.Format("2006-01-02 15:04:05.000"))
	case String, JSON, Binary:
		return escaper(v.str)
	default:
		return "NULL"
	}
}

// renderNumeric renders a float as a backend numeric literal, special-casing
// NaN and Inf so that a value re-read from storage round-trips to the same
// Value.
func renderNumeric(f float64) string {
	switch {
	case math.IsNaN(f):
		return "'NaN'::float8"
	case math.IsInf(f, 1):
		return "'Infinity'::float8"
	case math.IsInf(f, -1):
		return "'-Infinity'::float8"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return fmt.Sprintf("%d", int64(f))
	default:
		return fmt.Sprintf("%g", f)
	}
}

// ParseNumberLiteral parses a backend-rendered numeric literal (as produced
// by renderNumeric, including the quoted NaN/Infinity spellings) back into a
// float64, completing the round trip.
func ParseNumberLiteral(s string) (float64, error) {
	switch s {
	case "NaN", "'NaN'::float8":
		return math.NaN(), nil
	case "Infinity", "'Infinity'::float8":
		return math.Inf(1), nil
	case "-Infinity", "'-Infinity'::float8":
		return math.Inf(-1), nil
	}
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
		return 0, qlerr.New(qlerr.VALUE, "not a number literal: %q", s)
	}
	return f, nil
}
