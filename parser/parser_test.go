package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverfish-labs/flint/token"
)

// assertNoSingleChildBlocks walks the tree and fails if any Block node has
// exactly one child — spec.md §8's structural invariant.
func assertNoSingleChildBlocks(t *testing.T, tok *token.Token) {
	t.Helper()
	if tok == nil {
		return
	}
	if tok.Kind == token.Block {
		assert.NotEqual(t, 1, len(tok.Children), "Block with exactly one child should have collapsed")
	}
	if tok.Kind == token.Literal {
		assert.NotNil(t, tok.Value, "every Literal must carry a non-nil value")
	}
	if tok.Kind == token.Skip {
		t.Fatalf("Skip token present in final tree")
	}
	for _, c := range tok.Children {
		assertNoSingleChildBlocks(t, c)
	}
}

func TestParse_LiteralRoundTrip(t *testing.T) {
	cases := []struct {
		input string
		want  interface{}
	}{
		{"0", int64(0)},
		{"42", int64(42)},
		{"3.14", 3.14},
		{"0.5", 0.5},
		{`"hello"`, "hello"},
		{`"a\"b"`, `a"b`},
		{"true", true},
		{"false", false},
	}
	for _, c := range cases {
		tr, err := Parse(c.input)
		require.NoError(t, err, c.input)
		require.Equal(t, token.Literal, tr.Kind, c.input)
		require.Equal(t, c.want, tr.Value, c.input)
		assertNoSingleChildBlocks(t, tr)
	}
}

func TestParse_IntegerVsFloatTieBreak(t *testing.T) {
	_, err := Parse("3.")
	// "3." has no digit after the dot, so the number stops at "3" and the
	// trailing "." is left over — which means the parse does NOT cover
	// the whole input and must fail instead.
	require.Error(t, err)
	// In "3.x" the number likewise stops at "3"; ".x" then parses as a
	// member reference on the integer literal.
	tr, err2 := Parse("3.x")
	require.NoError(t, err2)
	require.Len(t, tr.Children, 2)
	assert.Equal(t, int64(3), tr.Children[0].Value)
	assert.Equal(t, token.MemberRef, tr.Children[1].Kind)
}

func TestParse_Arithmetic(t *testing.T) {
	tr, err := Parse("1 + 2 * 3")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
	assert.Equal(t, token.Block, tr.Kind)
}

func TestParse_ComparisonBeatsAssignment(t *testing.T) {
	tr, err := Parse("10 < 20")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)

	tr2, err := Parse("(10.0 - -20) == 30 && (test * 10 == 100)")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr2)
}

func TestParse_Assignment(t *testing.T) {
	tr, err := Parse("x = 10")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
	require.Equal(t, token.Block, tr.Kind)
	require.Len(t, tr.Children, 3)
	assert.Equal(t, token.Reference, tr.Children[0].Kind)
	assert.Equal(t, token.Setter, tr.Children[1].Kind)
	assert.Equal(t, token.Literal, tr.Children[2].Kind)
}

func TestParse_ChainedAssignment(t *testing.T) {
	tr, err := Parse("a = b = v")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
	require.Len(t, tr.Children, 3)
	// RHS of the outer assignment is itself an assignment chain.
	assert.Equal(t, token.Block, tr.Children[2].Kind)
}

func TestParse_MemberAndIndexChain(t *testing.T) {
	tr, err := Parse("test[10] = test[10] + test[11]")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
	require.Len(t, tr.Children, 3)
	lhs := tr.Children[0]
	require.Equal(t, token.Block, lhs.Kind)
	require.Len(t, lhs.Children, 2)
	assert.Equal(t, token.Reference, lhs.Children[0].Kind)
	assert.Equal(t, token.Index, lhs.Children[1].Kind)
}

func TestParse_MemberSetter(t *testing.T) {
	tr, err := Parse("testInt = test.field = 10")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
}

func TestParse_MultiIndex(t *testing.T) {
	tr, err := Parse("test[5, 3]")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
	require.Len(t, tr.Children, 2)
	idx := tr.Children[1]
	require.Equal(t, token.Index, idx.Kind)
	require.Len(t, idx.Children, 2)
}

func TestParse_FunctionCallAndConstructor(t *testing.T) {
	tr, err := Parse("10 + max(abs(10), abs(20))")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)

	tr2, err := Parse("new Vector(1, 2)")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr2)
	require.Equal(t, token.Constructor, tr2.Kind)
	assert.Equal(t, "Vector", tr2.Value)
	require.Len(t, tr2.Children, 2)
}

func TestParse_ExplicitConversion(t *testing.T) {
	tr, err := Parse("(int)1.5")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
	require.Equal(t, token.ExplicitConversion, tr.Kind)
	assert.Equal(t, "int", tr.Value)
	require.Len(t, tr.Children, 1)
}

func TestParse_UnaryAndIncrement(t *testing.T) {
	tr, err := Parse("-x")
	require.NoError(t, err)
	require.Len(t, tr.Children, 2)
	assert.Equal(t, token.Unary, tr.Children[0].Kind)

	tr2, err := Parse("++x")
	require.NoError(t, err)
	require.Len(t, tr2.Children, 2)
	assert.Equal(t, token.Increment, tr2.Children[0].Kind)

	tr3, err := Parse("!flag")
	require.NoError(t, err)
	require.Len(t, tr3.Children, 2)
	assert.Equal(t, token.Unary, tr3.Children[0].Kind)
}

func TestParse_DoubleNegation(t *testing.T) {
	tr, err := Parse("- -2")
	require.NoError(t, err)
	require.Len(t, tr.Children, 2)
	assert.Equal(t, token.Unary, tr.Children[0].Kind)
	// the operand is itself a nested unary block.
	assert.Equal(t, token.Block, tr.Children[1].Kind)
}

func TestParse_LargeMixedExpression(t *testing.T) {
	input := "(float)- -2 / 3 + abs(50) + - -test * max(10, 20 * 20) +20 + 2+3*4* -(5 + 6)"
	tr, err := Parse(input)
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
}

func TestParse_StringConcatEquality(t *testing.T) {
	tr, err := Parse(`"aaa" + 10 == test + 10`)
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
}

func TestParse_NegativeBattery(t *testing.T) {
	cases := []string{
		"1 +",
		"(1 + 2",
		`"abc`,
	}
	for _, input := range cases {
		_, err := Parse(input)
		require.Error(t, err, input)
		ut, ok := err.(*UnexpectedToken)
		require.True(t, ok, input)
		assert.GreaterOrEqual(t, ut.Position, 0, input)
		assert.LessOrEqual(t, ut.Position, len(input), input)
	}
}

func TestParse_Determinism(t *testing.T) {
	input := "1 + 2 * 3 - 4 / 2"
	tr1, err1 := Parse(input)
	require.NoError(t, err1)
	tr2, err2 := Parse(input)
	require.NoError(t, err2)
	assert.Equal(t, tr1, tr2)
}

func TestParse_Whitespace(t *testing.T) {
	tr, err := Parse("  1   +   2  ")
	require.NoError(t, err)
	assertNoSingleChildBlocks(t, tr)
}
