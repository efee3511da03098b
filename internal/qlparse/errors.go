package qlparse

import "github.com/akshell/patsak/internal/qlerr"

func newSyntaxError(input string) *qlerr.Error {
	return qlerr.New(qlerr.Query, "Wrong syntax: %q", input)
}

func newDuplicateError() *qlerr.Error {
	return qlerr.New(qlerr.Query, "Duplicating items in a list")
}
