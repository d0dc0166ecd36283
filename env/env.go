// Package env implements spec.md §3's Environment: a flat mapping from
// identifier to host value, consulted by the compiler for static types
// and by the evaluator for values and assignment targets.
//
// flint has no lexical nesting — the expression language defines no
// blocks, declarations, or closures (spec.md §1's Non-goals) — so
// Environment is a single flat map rather than a chain of scopes, with
// host functions stored as plain Go func values instead of a separate
// callable object hierarchy.
package env

import "reflect"

// Environment is the caller-supplied name→value map the engine consults
// at both compile time (for types and dispatch) and run time (for
// values and assignment destinations).
type Environment struct {
	values map[string]interface{}
}

// New creates an empty environment.
func New() *Environment {
	return &Environment{values: make(map[string]interface{})}
}

// Get returns the current value bound to name.
func (e *Environment) Get(name string) (interface{}, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Set rebinds name to value, creating the binding if absent. Assignment
// (spec.md §4.3's VarPlace write) goes through this, as does initial
// population by the host.
func (e *Environment) Set(name string, value interface{}) {
	e.values[name] = value
}

// Has reports whether name is bound.
func (e *Environment) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// TypeOf returns the reflect.Type of name's current binding, used by the
// compiler for static type propagation (spec.md §4.2).
func (e *Environment) TypeOf(name string) (reflect.Type, bool) {
	v, ok := e.values[name]
	if !ok || v == nil {
		return nil, false
	}
	return reflect.TypeOf(v), true
}

// IsCallable reports whether name is bound to a Go function value — the
// engine's representation of a "host function" (spec.md's GLOSSARY).
func (e *Environment) IsCallable(name string) bool {
	v, ok := e.values[name]
	return ok && v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// Names returns every currently bound identifier, in no particular
// order. Hosts use this to introspect an environment — a REPL listing
// its bindings, a debugger dumping state — without needing Environment
// to expose its internal map.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	return names
}
