package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnknownOpcodeError(t *testing.T) {
	err := unknownOpcodeError(opcode('Z'))
	assert.Equal(t, "unknown opcode: Z", err.Error())
}
