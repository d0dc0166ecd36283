// Package flint is the embeddable expression engine's top-level facade,
// per spec.md §6: parse text to a token tree, compile a token tree
// against an environment and host adapter to an instruction flow plus
// its static type, and run a flow to a value. Each stage is also usable
// on its own via the parser, compiler, and vm packages directly; flint
// just wires the three together the way a host embedding the engine
// normally wants them.
package flint

import (
	"reflect"

	"github.com/silverfish-labs/flint/compiler"
	"github.com/silverfish-labs/flint/env"
	"github.com/silverfish-labs/flint/hostreflect"
	"github.com/silverfish-labs/flint/parser"
	"github.com/silverfish-labs/flint/token"
	"github.com/silverfish-labs/flint/vm"
)

// Environment is the binding table expressions run against: variables,
// host values, and host-function delegates.
type Environment = env.Environment

// NewEnvironment returns an empty Environment.
func NewEnvironment() *Environment { return env.New() }

// Adapter is the compiler's window onto host types: instance methods and
// fields come from reflection alone, while constructors, extension
// methods, conversions, and indexers need the registration API a
// hostreflect.DefaultAdapter exposes.
type Adapter = hostreflect.Adapter

// NewAdapter returns a DefaultAdapter ready for Register* calls.
func NewAdapter() *hostreflect.DefaultAdapter { return hostreflect.NewDefaultAdapter() }

// Parse lexes and parses text into a token tree, per spec.md §2's
// grammar. The only error it can return is *parser.UnexpectedToken.
func Parse(text string) (*token.Token, error) {
	return parser.Parse(text)
}

// Compiled is the result of compiling a token tree: its flow and its
// statically inferred type.
type Compiled struct {
	StaticType reflect.Type
	Flow       compiler.Flow
}

// Compile resolves every operator, member, call, and conversion in tok
// against environment and adapter, and lowers it to a postfix
// instruction flow. adapter may be nil when the expression touches only
// builtin primitive operators and environment-bound values.
func Compile(tok *token.Token, text string, environment *Environment, adapter Adapter) (Compiled, error) {
	res, err := compiler.Compile(tok, text, environment, adapter)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{StaticType: res.StaticType, Flow: res.Flow}, nil
}

// Run interprets a compiled flow against environment and returns its
// single result value.
func Run(flow compiler.Flow, environment *Environment) (interface{}, error) {
	return vm.Run(flow, environment)
}

// Eval is the one-shot convenience spec.md §6 describes for a host that
// just wants a value back: parse, compile, run. adapter may be nil.
func Eval(text string, environment *Environment, adapter Adapter) (interface{}, error) {
	tok, err := Parse(text)
	if err != nil {
		return nil, err
	}
	compiled, err := Compile(tok, text, environment, adapter)
	if err != nil {
		return nil, err
	}
	return Run(compiled.Flow, environment)
}

// Expr is a parsed-and-compiled expression ready to run repeatedly
// against different environments without re-parsing or re-resolving —
// useful for a host that evaluates the same formula in a loop.
type Expr struct {
	StaticType reflect.Type
	flow       compiler.Flow
}

// Prepare parses and compiles text once, returning a reusable Expr.
func Prepare(text string, environment *Environment, adapter Adapter) (*Expr, error) {
	tok, err := Parse(text)
	if err != nil {
		return nil, err
	}
	compiled, err := Compile(tok, text, environment, adapter)
	if err != nil {
		return nil, err
	}
	return &Expr{StaticType: compiled.StaticType, flow: compiled.Flow}, nil
}

// Run executes a prepared expression's flow against environment. The
// flow was resolved against the environment and adapter Prepare was
// given; running it against a binding table with materially different
// shapes is the caller's responsibility to avoid.
func (e *Expr) Run(environment *Environment) (interface{}, error) {
	return vm.Run(e.flow, environment)
}
