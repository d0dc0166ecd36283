package vm

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverfish-labs/flint/compiler"
	"github.com/silverfish-labs/flint/env"
	"github.com/silverfish-labs/flint/parser"
)

func run(t *testing.T, src string, e *env.Environment) interface{} {
	t.Helper()
	tok, err := parser.Parse(src)
	require.NoError(t, err, src)
	res, err := compiler.Compile(tok, src, e, nil)
	require.NoError(t, err, src)
	out, err := Run(res.Flow, e)
	require.NoError(t, err, src)
	return out
}

func TestRun_Arithmetic(t *testing.T) {
	assert.Equal(t, int64(7), run(t, "1 + 2 * 3", env.New()))
}

func TestRun_Comparison(t *testing.T) {
	assert.Equal(t, true, run(t, "10 < 20", env.New()))
}

func TestRun_StringConcatEquality(t *testing.T) {
	e := env.New()
	e.Set("test", "aaa")
	assert.Equal(t, true, run(t, `"aaa" + 10 == test + 10`, e))
}

func TestRun_LogicalAndComparisonMix(t *testing.T) {
	e := env.New()
	e.Set("test", int64(10))
	assert.Equal(t, true, run(t, "(10.0 - -20) == 30 && (test * 10 == 100)", e))
}

func TestRun_Assignment(t *testing.T) {
	e := env.New()
	e.Set("x", int64(1))
	out := run(t, "x = 10", e)
	assert.Equal(t, int64(10), out)
	v, _ := e.Get("x")
	assert.Equal(t, int64(10), v)
}

func TestRun_ChainedAssignment(t *testing.T) {
	e := env.New()
	e.Set("a", int64(0))
	e.Set("b", int64(0))
	out := run(t, "a = b = 5", e)
	assert.Equal(t, int64(5), out)
	va, _ := e.Get("a")
	vb, _ := e.Get("b")
	assert.Equal(t, int64(5), va)
	assert.Equal(t, int64(5), vb)
}

func TestRun_Increment(t *testing.T) {
	e := env.New()
	e.Set("x", int64(5))
	out := run(t, "++x", e)
	assert.Equal(t, int64(6), out)
	v, _ := e.Get("x")
	assert.Equal(t, int64(6), v)
}

func TestRun_Decrement(t *testing.T) {
	e := env.New()
	e.Set("x", int64(5))
	out := run(t, "--x", e)
	assert.Equal(t, int64(4), out)
}

func TestRun_SliceIndexAssignment(t *testing.T) {
	e := env.New()
	vals := make([]string, 30)
	for i := range vals {
		vals[i] = strconv.Itoa(i)
	}
	e.Set("test", vals)
	out := run(t, "test[10] = test[10] + test[11]", e)
	assert.Equal(t, "1011", out)
	v, _ := e.Get("test")
	assert.Equal(t, "1011", v.([]string)[10])
}

func TestRun_FunctionCall(t *testing.T) {
	e := env.New()
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
	assert.Equal(t, int64(30), run(t, "10 + max(abs(10), abs(20))", e))
}

