package qltype

import (
	"math"
	"testing"

	"github.com/akshell/patsak/internal/qlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastFunction(t *testing.T) {
	cases := []struct {
		from, to Type
		want     string
	}{
		{Integer, Integer, ""},
		{Integer, Number, ""},
		{Serial, Integer, ""},
		{String, Boolean, "to_boolean"},
		{Number, String, "to_string"},
		{Boolean, Number, "to_number"},
	}
	for _, c := range cases {
		got, err := CastFunction(c.from, c.to)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "cast %s->%s", c.from, c.to)
	}
}

func TestCastFunctionFails(t *testing.T) {
	_, err := CastFunction(String, Date)
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.TYPE))

	_, err = CastFunction(String, JSON)
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.TYPE))

	_, err = CastFunction(Binary, String)
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.TYPE))

	_, err = CastFunction(Binary, Boolean)
	require.NoError(t, err)
}

func TestBinaryOpCommonType(t *testing.T) {
	ct, err := OpAnd.CommonType(String, Number)
	require.NoError(t, err)
	assert.Equal(t, Boolean, ct)

	ct, err = OpEq.CommonType(Integer, Integer)
	require.NoError(t, err)
	assert.Equal(t, Integer, ct)

	ct, err = OpEq.CommonType(JSON, String)
	require.NoError(t, err)
	assert.Equal(t, String, ct)

	ct, err = OpEq.CommonType(Boolean, Integer)
	require.NoError(t, err)
	assert.Equal(t, Number, ct)

	ct, err = OpAdd.CommonType(String, Integer)
	require.NoError(t, err)
	assert.Equal(t, String, ct)

	ct, err = OpAdd.CommonType(Integer, Integer)
	require.NoError(t, err)
	assert.Equal(t, Number, ct)

	_, err = OpAdd.CommonType(Binary, Integer)
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.TYPE))
}

func TestHeaderOrderedSet(t *testing.T) {
	h := NewHeader()
	h.Add(Attr{Name: "id", Type: Serial})
	h.Add(Attr{Name: "name", Type: String})
	h.Add(Attr{Name: "id", Type: Number}) // no-op, already present

	require.Equal(t, 2, h.Len())
	assert.Equal(t, []string{"id", "name"}, h.Names())

	a, ok := h.Find("id")
	require.True(t, ok)
	assert.Equal(t, Serial, a.Type)

	err := h.AddOrFail(Attr{Name: "id", Type: Number})
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.AttrExists))

	o := NewHeader()
	o.Add(Attr{Name: "name", Type: String})
	o.Add(Attr{Name: "id", Type: Serial})
	assert.True(t, h.Equal(o), "Equal must be order-insensitive")
}

func TestValueRenderRoundTrip(t *testing.T) {
	v := NewNumber(42)
	assert.Equal(t, "42", v.Render())

	f, err := ParseNumberLiteral(v.Render())
	require.NoError(t, err)
	assert.Equal(t, 42.0, f)

	nan := NewNumber(math.NaN())
	rendered := nan.Render()
	f2, err := ParseNumberLiteral(rendered)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(f2))
}
