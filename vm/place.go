// Package vm implements spec.md §4.3's stack evaluator: it interprets a
// compiler.Flow against an env.Environment, with first-class "place"
// values modeling variables, members, and indexer cells as l-values.
//
// A tree-walking interpreter can afford to resolve an assignment target
// by re-dispatching on the AST node kind (identifier / index / member)
// every time an assignment is evaluated. flint instead reifies "the
// thing being assigned to" as a runtime Place value produced once by
// the compiler's lowering and consumed uniformly by SetOp — spec.md
// §9's "places as first-class" design note.
package vm

import "github.com/silverfish-labs/flint/env"

// Place is a runtime l-value: a location SetOp can write to and any
// consumer can read through.
type Place interface {
	Read(e *env.Environment) (interface{}, error)
	Write(e *env.Environment, value interface{}) error
}

type varPlace struct {
	name string
}

func (p varPlace) Read(e *env.Environment) (interface{}, error) {
	v, ok := e.Get(p.name)
	if !ok {
		return nil, errUnboundVariable(p.name)
	}
	return v, nil
}

func (p varPlace) Write(e *env.Environment, value interface{}) error {
	e.Set(p.name, value)
	return nil
}

// memberPlace is built when the compiler's MemberPlace instruction runs:
// the subject was already popped and read through, so it is fixed at
// construction time, not re-read from the stack.
type memberPlace struct {
	subject interface{}
	get     func(receiver interface{}) (interface{}, error)
	set     func(receiver interface{}, value interface{}) error
}

func (p memberPlace) Read(e *env.Environment) (interface{}, error) {
	return p.get(p.subject)
}

func (p memberPlace) Write(e *env.Environment, value interface{}) error {
	return p.set(p.subject, value)
}

// indexPlace is built when the compiler's IndexPlace instruction runs:
// subject and indices are already popped and read through.
type indexPlace struct {
	subject interface{}
	idx     []interface{}
	get     func(subject interface{}, idx []interface{}) (interface{}, error)
	set     func(subject interface{}, idx []interface{}, value interface{}) error
}

func (p indexPlace) Read(e *env.Environment) (interface{}, error) {
	return p.get(p.subject, p.idx)
}

func (p indexPlace) Write(e *env.Environment, value interface{}) error {
	return p.set(p.subject, p.idx, value)
}

// readThrough resolves v to a plain value: if v is a Place it is read;
// otherwise it is already a value.
func readThrough(v interface{}, e *env.Environment) (interface{}, error) {
	if p, ok := v.(Place); ok {
		return p.Read(e)
	}
	return v, nil
}

type unboundVariableError struct{ name string }

func (e *unboundVariableError) Error() string { return "vm: unbound variable " + e.name }

func errUnboundVariable(name string) error { return &unboundVariableError{name: name} }
