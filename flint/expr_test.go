package flint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverfish-labs/flint/flint"
	"github.com/silverfish-labs/flint/flinterr"
	"github.com/silverfish-labs/flint/parser"
)

func eval(t *testing.T, src string, e *flint.Environment, a flint.Adapter) interface{} {
	t.Helper()
	out, err := flint.Eval(src, e, a)
	require.NoError(t, err, src)
	return out
}

// scenario 1
func TestEval_Comparison(t *testing.T) {
	assert.Equal(t, true, eval(t, "10 < 20", flint.NewEnvironment(), nil))
}

// scenario 2
func TestEval_LargeMixedExpression(t *testing.T) {
	e := flint.NewEnvironment()
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
	out := eval(t, "(float)- -2 / 3 + abs(50) + - -test * max(10, 20 * 20) +20 + 2+3*4* -(5 + 6)", e, nil)
	f, ok := out.(float32)
	require.True(t, ok, "%T", out)
	assert.Equal(t, int64(3940), int64(f))
}

// scenario 3
func TestEval_LogicalAndComparison(t *testing.T) {
	e := flint.NewEnvironment()
	e.Set("test", int64(10))
	assert.Equal(t, true, eval(t, "(10.0 - -20) == 30 && (test * 10 == 100)", e, nil))
}

// scenario 4
func TestEval_ImplicitIntToStringInConcat(t *testing.T) {
	e := flint.NewEnvironment()
	e.Set("test", "aaa")
	assert.Equal(t, true, eval(t, `"aaa" + 10 == test + 10`, e, nil))
}

// scenario 5
func TestEval_SliceIndexAssignment(t *testing.T) {
	e := flint.NewEnvironment()
	vals := make([]string, 30)
	for i := range vals {
		vals[i] = string(rune('0' + i%10))
	}
	e.Set("test", vals)
	want := vals[10] + vals[11]
	out := eval(t, "test[10] = test[10] + test[11]", e, nil)
	assert.Equal(t, want, out)
	v, _ := e.Get("test")
	assert.Equal(t, out, v.([]string)[10])
}

// scenario 6
type box struct{ Field int64 }

func TestEval_ChainedMemberAssignment(t *testing.T) {
	e := flint.NewEnvironment()
	b := &box{Field: 0}
	e.Set("test", b)
	e.Set("testInt", int64(0))
	out := eval(t, "testInt = test.Field = 10", e, flint.NewAdapter())
	assert.Equal(t, int64(10), out)
	assert.Equal(t, int64(10), b.Field)
	v, _ := e.Get("testInt")
	assert.Equal(t, int64(10), v)
}

// scenario 7
type grid struct{ data [][]string }

func newGrid(n int) *grid {
	g := &grid{data: make([][]string, n)}
	for i := range g.data {
		g.data[i] = make([]string, n)
		for j := range g.data[i] {
			g.data[i][j] = string(rune('0'+i)) + string(rune('0'+j))
		}
	}
	return g
}

func TestEval_TwoDimensionalIndexer(t *testing.T) {
	a := flint.NewAdapter()
	a.RegisterIndexer(&grid{},
		func(g *grid, i, j int64) string { return g.data[i][j] },
		func(g *grid, i, j int64, v string) { g.data[i][j] = v })

	e := flint.NewEnvironment()
	e.Set("test", newGrid(10))
	assert.Equal(t, "53", eval(t, "test[5, 3]", e, a))
}

// scenario 8
func TestEval_NestedFunctionCalls(t *testing.T) {
	e := flint.NewEnvironment()
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
	assert.Equal(t, int64(30), eval(t, "10 + max(abs(10), abs(20))", e, nil))
}

func TestEval_UnexpectedToken(t *testing.T) {
	for _, src := range []string{"1 +", "(1 + 2", `"abc`} {
		_, err := flint.Parse(src)
		require.Error(t, err, src)
		_, ok := err.(*parser.UnexpectedToken)
		assert.True(t, ok, "%s: %T", src, err)
	}
}

func TestEval_MethodNotFound(t *testing.T) {
	_, err := flint.Eval("true + 1", flint.NewEnvironment(), nil)
	require.Error(t, err)
	_, ok := err.(*flinterr.MethodNotFound)
	assert.True(t, ok, "%T", err)
}

func TestEval_InvalidAssignmentTarget(t *testing.T) {
	_, err := flint.Eval("1 = 2", flint.NewEnvironment(), nil)
	require.Error(t, err)
	_, ok := err.(*flinterr.InvalidAssignmentTarget)
	assert.True(t, ok, "%T", err)
}

type voider struct{}

func (voider) Nop() {}

func TestEval_VoidMethodNotSupported(t *testing.T) {
	e := flint.NewEnvironment()
	e.Set("test", voider{})
	_, err := flint.Eval("test.Nop()", e, flint.NewAdapter())
	require.Error(t, err)
	_, ok := err.(*flinterr.VoidMethodNotSupported)
	assert.True(t, ok, "%T", err)
}

func TestPrepare_ReusableExpr(t *testing.T) {
	pe := flint.NewEnvironment()
	pe.Set("x", int64(0))
	ex, err := flint.Prepare("x + 1", pe, nil)
	require.NoError(t, err)

	e1 := flint.NewEnvironment()
	e1.Set("x", int64(1))
	out1, err := ex.Run(e1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out1)

	e2 := flint.NewEnvironment()
	e2.Set("x", int64(41))
	out2, err := ex.Run(e2)
	require.NoError(t, err)
	assert.Equal(t, int64(42), out2)
}
