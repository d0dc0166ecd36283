// Package token defines the parse-tree node produced by the flint parser.
//
// A Token is both the unit the combinators build (see package parser) and
// the node the compiler walks. Unlike a conventional lexer token, a flint
// Token may own children: the parser produces a tree directly, there is no
// separate flat token stream.
package token

// Kind identifies the syntactic role of a Token.
type Kind string

const (
	// Block is a grouping node. While parsing, a Block with zero children
	// is dropped and one with exactly one child is replaced by that child;
	// a Block with two or more children (an operator chain, an assignment,
	// a unary operator with its operand, a value with suffixes) stays in
	// the final tree.
	Block Kind = "Block"

	// Skip marks a node that carries no semantic weight (whitespace,
	// punctuation consumed only for its side effect on the cursor). Skip
	// tokens never appear in the final tree.
	Skip Kind = "Skip"

	// Literal is a parsed constant: number, string, or bool. Value holds
	// the parsed Go value.
	Literal Kind = "Literal"

	// Reference is a bare identifier naming a variable or a host type.
	// Value holds the identifier string.
	Reference Kind = "Reference"

	// MemberRef is a ".name" suffix. Value holds the identifier string.
	MemberRef Kind = "MemberRef"

	// Binary is an infix operator token (its lexeme recoverable from
	// Span). It is a leaf carrying only the operator lexeme; its operands
	// are its siblings in the enclosing Block, spliced in by the
	// grammar's chain rules (see the parser's additive rule etc).
	Binary Kind = "Binary"

	// Unary is a prefix operator token ('-', '!') whose lexeme is
	// recoverable from Span.
	Unary Kind = "Unary"

	// Increment is a prefix '++' or '--' token.
	Increment Kind = "Increment"

	// ExplicitConversion is "(Identifier)" preceding a Factor. Value
	// holds the target type name.
	ExplicitConversion Kind = "ExplicitConversion"

	// Function is a parenthesized, comma-separated argument list
	// following a callee. Children is the argument list in source
	// order.
	Function Kind = "Function"

	// Constructor is "new Identifier(args)". Value holds the type name;
	// Children is the argument list.
	Constructor Kind = "Constructor"

	// Index is a bracketed, comma-separated index list. Children is the
	// index list in source order.
	Index Kind = "Index"

	// Setter is the '=' token of an assignment. It is a leaf; the lhs
	// and rhs are its siblings in the enclosing Block.
	Setter Kind = "Setter"
)

// Span locates a parse artifact in the original input: the byte offset it
// starts at and its byte length. Span is also how the compiler recovers an
// operator's lexeme from the source text.
type Span struct {
	Start  int
	Length int
}

// End returns the exclusive end offset of the span.
func (s Span) End() int { return s.Start + s.Length }

// Text returns the substring of src covered by the span.
func (s Span) Text(src string) string {
	return src[s.Start:s.End()]
}

// Token is a node in the flint parse tree.
//
// Invariants (spec.md §3):
//   - every Literal has a non-nil Value whose dynamic type is one of the
//     supported primitive host types (int64, float64, string, bool);
//   - every Reference and MemberRef carries its identifier as Value;
//   - every Binary, Unary, Increment, Setter token's lexeme is recoverable
//     from Span over the original input;
//   - a Function or Index token's Children is its argument list, in
//     source order, and may be empty;
//   - a Block with exactly one child is collapsed into that child during
//     parsing and never appears in the final tree;
//   - Skip never appears in the final tree.
type Token struct {
	Kind     Kind
	Value    interface{}
	Span     Span
	Children []*Token
}

// New creates a leaf token with no children.
func New(kind Kind, span Span) *Token {
	return &Token{Kind: kind, Span: span}
}

// NewWithValue creates a leaf token carrying a parsed value.
func NewWithValue(kind Kind, span Span, value interface{}) *Token {
	return &Token{Kind: kind, Span: span, Value: value}
}

// Lexeme recovers the token's source text from src using its Span.
func (t *Token) Lexeme(src string) string {
	return t.Span.Text(src)
}

// Name returns Value as a string, for Reference/MemberRef/Constructor/
// ExplicitConversion tokens whose Value is always an identifier.
func (t *Token) Name() string {
	if s, ok := t.Value.(string); ok {
		return s
	}
	return ""
}
