package parser

import (
	"fmt"
	"strings"

	"github.com/silverfish-labs/flint/token"
)

// UnexpectedToken is returned when the grammar does not accept the input,
// or accepts only a strict prefix of it. Position is the furthest byte
// offset the parser ever advanced its cursor to while trying alternatives,
// clamped to [0, len(input)] (spec.md §8's testable property). PartialTree
// is whatever was attached to the parser's root block before failure — it
// may be empty.
type UnexpectedToken struct {
	Position    int
	PartialTree *token.Token
}

func (e *UnexpectedToken) Error() string {
	return fmt.Sprintf("parser: unexpected token at offset %d", e.Position)
}

// DumpTree renders a partial tree for diagnostics, one node per line.
func (e *UnexpectedToken) DumpTree() string {
	var sb strings.Builder
	dumpNode(&sb, e.PartialTree, 0)
	return sb.String()
}

func dumpNode(sb *strings.Builder, t *token.Token, depth int) {
	if t == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(sb, "%s", t.Kind)
	if t.Value != nil {
		fmt.Fprintf(sb, " %v", t.Value)
	}
	fmt.Fprintf(sb, " [%d,%d)\n", t.Span.Start, t.Span.End())
	for _, c := range t.Children {
		dumpNode(sb, c, depth+1)
	}
}
