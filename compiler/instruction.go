// Package compiler implements spec.md §4.2: a single depth-first pass
// over the parser's token tree that resolves every operator, call,
// member, indexer, and constructor to a concrete host callable, inserts
// implicit conversions, and lowers the tree to a postfix instruction
// stream while propagating static types bottom-up.
//
// A fused tree-walking interpreter would walk the tree and immediately
// produce values. flint's Compile instead walks the same tree shape and
// produces an instruction stream plus a static type, deferring
// execution to the vm package — spec.md's three coupled subsystems are
// kept separate because the static-typing phase has nowhere else to
// live.
package compiler

import "reflect"

// Kind discriminates the items that make up a compiled Flow.
type Kind int

const (
	KindValue Kind = iota
	KindCallable
	KindConstructor
	KindRunDelegate
	KindVarPlace
	KindMemberPlace
	KindIndexPlace
	KindSetOp
)

// Callable is a resolved operator, host method, host static method, or
// extension method — anything the vm invokes by popping a fixed arity,
// reading through any places, and pushing one result.
type Callable struct {
	Name   string
	Arity  int
	Invoke func(args []interface{}) (interface{}, error)
	// Void is true for host methods with no return value; the compiler
	// never emits these (spec.md §4.2's VoidMethodNotSupported), but the
	// vm checks it defensively.
	Void bool
}

// ConstructorCall is a resolved constructor overload.
type ConstructorCall struct {
	TypeName string
	Arity    int
	Invoke   func(args []interface{}) (interface{}, error)
}

// VarPlace names a variable binding in the environment.
type VarPlace struct {
	Name string
}

// MemberPlace reads or writes a property/field on the value beneath it
// on the stack (itself possibly another place).
type MemberPlace struct {
	Name string
	Get  func(receiver interface{}) (interface{}, error)
	Set  func(receiver interface{}, value interface{}) error
}

// IndexPlace reads or writes subject[idx1..idxN]; N indices and the
// subject are read-through from the stack beneath it.
type IndexPlace struct {
	N      int
	Get    func(subject interface{}, idx []interface{}) (interface{}, error)
	Set    func(subject interface{}, idx []interface{}, value interface{}) error
}

// RunDelegate invokes a host-function-valued operand with n preceding
// arguments. Per the Open Question in spec.md §9, the vm pops
// RunDelegate's n arguments directly off the stack without re-reversing
// them back to source order, so the delegate sees them top-of-stack
// first. See DESIGN.md's Open Question decisions.
type RunDelegate struct {
	N int
}

// Item is one element of a compiled Flow. Exactly one of the typed
// fields is meaningful, selected by Kind — spec.md §9 calls this a
// tagged union over {Value, Callable, VarPlace, MemberPlace, IndexPlace,
// ...}; Go has no sum type, so Item plays that role explicitly instead
// of smuggling everything through interface{}.
type Item struct {
	Kind        Kind
	Value       interface{}
	Callable    *Callable
	Constructor *ConstructorCall
	RunDelegate *RunDelegate
	VarPlace    *VarPlace
	MemberPlace *MemberPlace
	IndexPlace  *IndexPlace
}

// Flow is the postfix instruction stream the vm executes.
type Flow []Item

// Result is what Compile returns for a (sub)expression: its statically
// inferred Go type and the flow that produces it. StaticType is nil only
// for a callable/function-valued result with no declared return type.
type Result struct {
	StaticType reflect.Type
	Flow       Flow
}
