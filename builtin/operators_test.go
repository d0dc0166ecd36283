package builtin

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverfish-labs/flint/hostreflect"
)

func TestLookup_ArithmeticExactMatch(t *testing.T) {
	op, ok := Lookup(OpAdd, []reflect.Type{intType, intType})
	require.True(t, ok)
	out, err := op.Invoke([]interface{}{int64(2), int64(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out)
}

func TestLookup_StringConcat(t *testing.T) {
	op, ok := Lookup(OpAdd, []reflect.Type{stringType, stringType})
	require.True(t, ok)
	out, err := op.Invoke([]interface{}{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestLookup_NoCrossTypeOverload(t *testing.T) {
	_, ok := Lookup(OpAdd, []reflect.Type{floatType, intType})
	assert.False(t, ok, "builtin table is monomorphic; mixed types need conversion first")
}

func TestDivision_IntegerTruncates(t *testing.T) {
	op, ok := Lookup(OpDiv, []reflect.Type{intType, intType})
	require.True(t, ok)
	out, err := op.Invoke([]interface{}{int64(7), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out)
}

func TestDivision_ByZeroErrors(t *testing.T) {
	op, ok := Lookup(OpDiv, []reflect.Type{intType, intType})
	require.True(t, ok)
	_, err := op.Invoke([]interface{}{int64(1), int64(0)})
	assert.Error(t, err)
}

func TestIncrementDecrement_AllNumericTypes(t *testing.T) {
	for _, typ := range numericKeys {
		op, ok := Lookup(OpIncrement, []reflect.Type{typ})
		require.True(t, ok, typ.String())
		_, err := op.Invoke([]interface{}{fromFloat64(typ, 1)})
		require.NoError(t, err)

		op, ok = Lookup(OpDecrement, []reflect.Type{typ})
		require.True(t, ok, typ.String())
		_, err = op.Invoke([]interface{}{fromFloat64(typ, 1)})
		require.NoError(t, err)
	}
}

func TestConversions_ImplicitMinimumSet(t *testing.T) {
	require.NotEmpty(t, ImplicitConversionsFrom(intType))
	require.NotEmpty(t, ImplicitConversionsFrom(floatType))
	require.NotEmpty(t, ImplicitConversionsFrom(runeType))

	found := false
	for _, c := range ImplicitConversionsFrom(intType) {
		if c.To == floatType {
			found = true
			out, err := c.Fn(int64(4))
			require.NoError(t, err)
			assert.Equal(t, float32(4), out)
		}
	}
	assert.True(t, found, "int->float implicit conversion must exist")
}

func TestConversions_ExplicitMinimumSet(t *testing.T) {
	cases := []struct {
		from, to reflect.Type
	}{
		{floatType, intType},
		{doubleType, floatType},
		{intType, runeType},
	}
	for _, c := range cases {
		found := false
		for _, conv := range ExplicitConversionsFrom(c.from) {
			if conv.To == c.to {
				found = true
			}
		}
		assert.True(t, found, "%s->%s explicit conversion must exist", c.from, c.to)
	}
}

func TestConversions_AnyPrimitiveToString(t *testing.T) {
	for _, typ := range []reflect.Type{intType, floatType, doubleType, boolType} {
		found := false
		for _, c := range ImplicitConversionsFrom(typ) {
			if c.Kind == hostreflect.Implicit && c.To == stringType {
				found = true
			}
		}
		assert.True(t, found, "%s->string implicit conversion must exist", typ)
	}
}
