package compiler

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverfish-labs/flint/env"
	"github.com/silverfish-labs/flint/flinterr"
	"github.com/silverfish-labs/flint/parser"
)

func compileStr(t *testing.T, src string, e *env.Environment) Result {
	t.Helper()
	tok, err := parser.Parse(src)
	require.NoError(t, err, src)
	res, err := Compile(tok, src, e, nil)
	require.NoError(t, err, src)
	return res
}

func TestCompile_LiteralRoundTrip(t *testing.T) {
	res := compileStr(t, "42", env.New())
	assert.Equal(t, reflect.TypeOf(int64(0)), res.StaticType)
	require.Len(t, res.Flow, 1)
	assert.Equal(t, KindValue, res.Flow[0].Kind)
	assert.Equal(t, int64(42), res.Flow[0].Value)
}

func TestCompile_Arithmetic(t *testing.T) {
	res := compileStr(t, "1 + 2 * 3", env.New())
	assert.Equal(t, reflect.TypeOf(int64(0)), res.StaticType)
}

func TestCompile_Comparison(t *testing.T) {
	res := compileStr(t, "10 < 20", env.New())
	assert.Equal(t, reflect.TypeOf(false), res.StaticType)
}

func TestCompile_ImplicitIntToStringInConcat(t *testing.T) {
	e := env.New()
	e.Set("test", "aaa")
	res := compileStr(t, `"aaa" + 10 == test + 10`, e)
	assert.Equal(t, reflect.TypeOf(false), res.StaticType)
}

func TestCompile_Assignment(t *testing.T) {
	e := env.New()
	e.Set("x", int64(1))
	res := compileStr(t, "x = 10", e)
	assert.Equal(t, reflect.TypeOf(int64(0)), res.StaticType)
	last := res.Flow[len(res.Flow)-1]
	assert.Equal(t, KindSetOp, last.Kind)
}

func TestCompile_InvalidAssignmentTarget(t *testing.T) {
	tokSrc := "1 = 2"
	_, err := func() (Result, error) {
		tok, perr := parser.Parse(tokSrc)
		require.NoError(t, perr)
		return Compile(tok, tokSrc, env.New(), nil)
	}()
	require.Error(t, err)
	_, ok := err.(*flinterr.InvalidAssignmentTarget)
	assert.True(t, ok, "%T", err)
}

func TestCompile_MethodNotFound(t *testing.T) {
	src := "true + 1"
	tok, perr := parser.Parse(src)
	require.NoError(t, perr)
	_, err := Compile(tok, src, env.New(), nil)
	require.Error(t, err)
	_, ok := err.(*flinterr.MethodNotFound)
	assert.True(t, ok, "%T", err)
}

func TestCompile_UnknownIdentifier(t *testing.T) {
	src := "foo + 1"
	tok, perr := parser.Parse(src)
	require.NoError(t, perr)
	_, err := Compile(tok, src, env.New(), nil)
	require.Error(t, err)
	_, ok := err.(*flinterr.UnknownIdentifier)
	assert.True(t, ok, "%T", err)
}

func TestCompile_IncrementRequiresPlace(t *testing.T) {
	src := "++10"
	tok, perr := parser.Parse(src)
	require.NoError(t, perr)
	_, err := Compile(tok, src, env.New(), nil)
	require.Error(t, err)
	_, ok := err.(*flinterr.IncrementRequiresPlace)
	assert.True(t, ok, "%T", err)
}

func TestCompile_FunctionCallViaEnvironment(t *testing.T) {
	e := env.New()
	e.Set("abs", func(x int64) int64 {
		if x < 0 {
			return -x
		}
		return x
	})
	res := compileStr(t, "abs(10)", e)
	assert.Equal(t, reflect.TypeOf(int64(0)), res.StaticType)
	last := res.Flow[len(res.Flow)-1]
	assert.Equal(t, KindRunDelegate, last.Kind)
	assert.Equal(t, 1, last.RunDelegate.N)
}

func TestCompile_LargeMixedExpressionStaticType(t *testing.T) {
	e := env.New()
	e.Set("test", int64(10))
	e.Set("abs", func(x int64) int64 {
		if x < 0 {
			return -x
		}
		return x
	})
	e.Set("max", func(a, b int64) int64 {
		if a > b {
			return a
		}
		return b
	})
	res := compileStr(t, "(float)- -2 / 3 + abs(50) + - -test * max(10, 20 * 20) +20 + 2+3*4* -(5 + 6)", e)
	assert.Equal(t, reflect.TypeOf(float32(0)), res.StaticType)
}
