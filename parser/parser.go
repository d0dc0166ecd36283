// Package parser implements flint's recursive-descent combinator parser.
//
// Unlike a conventional lexer-then-parser pipeline, the parser consumes the
// input text directly: there is no separate token stream. A small set of
// combinators (match, and, or, zeroOrMore, block) assemble a token.Token
// tree as they go, using a side stack of in-progress Block tokens to track
// the current parent while nested rules run.
package parser

import (
	"strconv"
	"strings"

	"github.com/silverfish-labs/flint/token"
)

// Parser holds the mutable state of a single parse: the input, the cursor,
// and the stack of in-progress parent tokens. A Parser is single-use — call
// Parse once and discard it.
type Parser struct {
	src      string
	pos      int
	furthest int
	stack    []*token.Token
}

// New creates a parser over src.
func New(src string) *Parser {
	return &Parser{src: src}
}

// Parse runs the full Expression grammar over src and returns the
// resulting token tree.
func Parse(src string) (*token.Token, error) {
	return New(src).Parse()
}

// Parse is the instance form of the package-level Parse function. It fails
// with an UnexpectedToken error if the grammar does not accept a prefix of
// the input, or if it accepts a prefix that does not cover the entire
// input — spec.md §4.1's "no recovery" rule.
func (p *Parser) Parse() (*token.Token, error) {
	root := &token.Token{Kind: token.Block}
	p.stack = []*token.Token{root}

	ok := p.expression()
	if !ok || p.pos != len(p.src) || len(root.Children) != 1 {
		return nil, &UnexpectedToken{Position: p.clampedFurthest(), PartialTree: root}
	}
	return root.Children[0], nil
}

func (p *Parser) clampedFurthest() int {
	switch {
	case p.furthest > len(p.src):
		return len(p.src)
	case p.furthest < 0:
		return 0
	default:
		return p.furthest
	}
}

func (p *Parser) markFurthest() {
	if p.pos > p.furthest {
		p.furthest = p.pos
	}
}

// --- combinators ---

func (p *Parser) top() *token.Token {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) pushBlock(start int) *token.Token {
	b := &token.Token{Kind: token.Block, Span: token.Span{Start: start}}
	p.stack = append(p.stack, b)
	return b
}

func (p *Parser) popBlock() *token.Token {
	b := p.top()
	p.stack = p.stack[:len(p.stack)-1]
	return b
}

func (p *Parser) appendChild(t *token.Token) {
	top := p.top()
	top.Children = append(top.Children, t)
}

// match is the atomic combinator: if the input at the cursor equals lit,
// advance past it and, unless kind is Skip, append a leaf token of kind to
// the current parent. It never mutates state on failure.
func (p *Parser) match(lit string, kind token.Kind) bool {
	if !strings.HasPrefix(p.src[p.pos:], lit) {
		return false
	}
	start := p.pos
	p.pos += len(lit)
	p.markFurthest()
	if kind != token.Skip {
		p.appendChild(token.New(kind, token.Span{Start: start, Length: len(lit)}))
	}
	return true
}

// and runs each step in order. On any failure it restores the cursor to
// where it started and discards any children appended to the current
// parent during the attempt.
func (p *Parser) and(steps ...func() bool) bool {
	start := p.pos
	top := p.top()
	savedLen := len(top.Children)
	for _, step := range steps {
		if !step() {
			p.pos = start
			top.Children = top.Children[:savedLen]
			return false
		}
	}
	return true
}

// or tries each alternative in order from the current cursor; the first
// success wins. Failed alternatives leave no trace — match/and/block all
// clean up after themselves.
func (p *Parser) or(alts ...func() bool) bool {
	for _, alt := range alts {
		if alt() {
			return true
		}
	}
	return false
}

// zeroOrMore repeats step (itself usually an and(...) or or(...)) until it
// fails; it always succeeds, even zero times.
func (p *Parser) zeroOrMore(step func() bool) bool {
	for step() {
	}
	return true
}

// block pushes a new Block token as the current parent, runs body, and
// pops it. On success the block is relabeled to kind, its span set to the
// consumed range, and value (if non-nil) is called with the block's
// matched text to compute the token's Value.
//
// If kind is token.Block — i.e. the caller wants plain structural
// grouping rather than a concrete node — the block is collapsed per
// spec.md's structural invariant: a 0-child block contributes nothing to
// its parent, and a 1-child block is replaced by that single child, so
// precedence-climbing wrappers (Expression, Comparison, Additive, ...)
// disappear from the tree whenever there was nothing to chain. Any other
// kind is always appended to the parent, even with zero or one children,
// since it denotes a real node (Function, Index, Constructor, MemberRef,
// ExplicitConversion, ...).
func (p *Parser) block(kind token.Kind, value func(text string) interface{}, body func() bool) bool {
	start := p.pos
	blk := p.pushBlock(start)
	ok := body()
	p.popBlock()
	if !ok {
		p.pos = start
		return false
	}

	blk.Span = token.Span{Start: start, Length: p.pos - start}
	blk.Kind = kind
	if value != nil {
		blk.Value = value(blk.Lexeme(p.src))
	}

	if blk.Kind == token.Block {
		switch len(blk.Children) {
		case 0:
			return true
		case 1:
			p.appendChild(blk.Children[0])
			return true
		}
	}
	p.appendChild(blk)
	return true
}

// --- low-level scanning primitives ---
//
// These behave like Skip-kind matches with variable-length recognition:
// on success they advance the cursor and report true without appending a
// child of their own, leaving the enclosing block/value func to interpret
// the consumed text.

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNum(c byte) bool { return isAlpha(c) || isDigit(c) }

func isIdentCont(c byte) bool { return isAlphaNum(c) || c == '_' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// space consumes zero or more whitespace characters and always succeeds.
func (p *Parser) space() bool {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
	p.markFurthest()
	return true
}

// scanIdentifier recognizes Identifier := [A-Za-z_][A-Za-z0-9]*.
func (p *Parser) scanIdentifier() bool {
	if p.pos >= len(p.src) {
		return false
	}
	c := p.src[p.pos]
	if !(isAlpha(c) || c == '_') {
		return false
	}
	j := p.pos + 1
	for j < len(p.src) && isAlphaNum(p.src[j]) {
		j++
	}
	p.pos = j
	p.markFurthest()
	return true
}

// scanKeyword matches a fixed keyword only at a word boundary — the
// character immediately following must not itself be an identifier
// continuation character. This lets "true"/"false"/"new" be recognized
// without swallowing the first letters of a longer identifier such as
// "trueValue".
func (p *Parser) scanKeyword(kw string) bool {
	if !strings.HasPrefix(p.src[p.pos:], kw) {
		return false
	}
	end := p.pos + len(kw)
	if end < len(p.src) && isIdentCont(p.src[end]) {
		return false
	}
	p.pos = end
	p.markFurthest()
	return true
}

// scanNumber recognizes a decimal number. A decimal point is only
// consumed as part of the number when it is followed by at least one
// digit; otherwise the number stops before the dot and Integer wins, per
// spec.md §4.1's numeric literal tie-break.
func (p *Parser) scanNumber() bool {
	start := p.pos
	j := start
	for j < len(p.src) && isDigit(p.src[j]) {
		j++
	}
	if j == start {
		return false
	}
	if j < len(p.src) && p.src[j] == '.' && j+1 < len(p.src) && isDigit(p.src[j+1]) {
		j++
		for j < len(p.src) && isDigit(p.src[j]) {
			j++
		}
	}
	p.pos = j
	p.markFurthest()
	return true
}

// scanString recognizes a "..." string literal with \" as the only
// escape. It fails if the input ends before a closing quote is found; an
// enclosing and/block rewinds the cursor.
func (p *Parser) scanString() bool {
	if p.pos >= len(p.src) || p.src[p.pos] != '"' {
		return false
	}
	j := p.pos + 1
	for {
		if j >= len(p.src) {
			return false
		}
		if p.src[j] == '\\' && j+1 < len(p.src) && p.src[j+1] == '"' {
			j += 2
			continue
		}
		if p.src[j] == '"' {
			j++
			break
		}
		j++
	}
	p.pos = j
	p.markFurthest()
	return true
}

func parseIntLiteral(text string) interface{} {
	v, _ := strconv.ParseInt(text, 10, 64)
	return v
}

func parseFloatLiteral(text string) interface{} {
	v, _ := strconv.ParseFloat(text, 64)
	return v
}

func parseStringLiteralValue(text string) interface{} {
	inner := text[1 : len(text)-1]
	return strings.ReplaceAll(inner, `\"`, `"`)
}
