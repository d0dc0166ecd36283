package compiler

import (
	"reflect"

	"github.com/silverfish-labs/flint/builtin"
	"github.com/silverfish-labs/flint/flinterr"
	"github.com/silverfish-labs/flint/hostreflect"
)

// conversionOption is one candidate for converting a single argument
// before a retried resolution attempt. A nil Convert means identity —
// leave the argument as-is. candidateConversions always returns
// identity first, per spec.md §4.2 step 2's "identity-first ordering".
type conversionOption struct {
	Type    reflect.Type
	Convert func(interface{}) (interface{}, error)
}

func (c *Compiler) candidateConversions(from reflect.Type) []conversionOption {
	opts := []conversionOption{{Type: from, Convert: nil}}
	for _, conv := range builtin.ImplicitConversionsFrom(from) {
		conv := conv
		opts = append(opts, conversionOption{Type: conv.To, Convert: conv.Fn})
	}
	if c.adapter != nil {
		for _, conv := range c.adapter.Conversions(from, hostreflect.Implicit) {
			conv := conv
			opts = append(opts, conversionOption{Type: conv.To, Convert: conv.Fn})
		}
	}
	return opts
}

// maxCombinations caps the cartesian conversion search per spec.md §9's
// "cap the search (e.g. <= 16 combinations)" guidance.
const maxCombinations = 16

// cartesian enumerates index combinations over lists, identity-first
// (all-zero combination first), capped at maxCombinations entries.
func cartesian(sizes []int) [][]int {
	total := 1
	for _, s := range sizes {
		if s == 0 {
			return nil
		}
		total *= s
	}
	if total > maxCombinations {
		total = maxCombinations
	}
	combos := make([][]int, 0, total)
	idx := make([]int, len(sizes))
	for n := 0; n < total; n++ {
		combo := make([]int, len(sizes))
		copy(combo, idx)
		combos = append(combos, combo)
		for pos := len(sizes) - 1; pos >= 0; pos-- {
			idx[pos]++
			if idx[pos] < sizes[pos] {
				break
			}
			idx[pos] = 0
		}
	}
	return combos
}

// exactProbe attempts to resolve a call over exactly argTypes. Each caller
// supplies its own: resolveOperator's tries the builtin operator table and
// then host static methods, compileMemberRef's tries the receiver's
// methods, compileConstructor's tries the type's constructors.
// resolveWithConversions drives the two-step algorithm of spec.md §4.2:
// exact match, then implicit-conversion search.
type exactProbe func(argTypes []reflect.Type) (arity int, invoke func([]interface{}) (interface{}, error), ret reflect.Type, ok bool)

// resolveWithConversions implements spec.md §4.2 steps 1-2 generically:
// try argTypes exactly; on failure, search the cartesian product of
// per-argument implicit conversions (identity-first) and retry.
func (c *Compiler) resolveWithConversions(argTypes []reflect.Type, argFlows []Flow, probe exactProbe) (Flow, reflect.Type, bool) {
	return c.resolveWithConversionsAs(argTypes, argFlows, probe, KindCallable, "")
}

// resolveWithConversionsAs is resolveWithConversions generalized over the
// final instruction Kind, so constructor resolution (which must emit a
// Constructor item per spec.md §3's instruction table, not a Callable)
// can share the same search.
func (c *Compiler) resolveWithConversionsAs(argTypes []reflect.Type, argFlows []Flow, probe exactProbe, finalKind Kind, typeName string) (Flow, reflect.Type, bool) {
	if arity, invoke, ret, ok := probe(argTypes); ok {
		return c.assembleCallAs(argFlows, arity, invoke, finalKind, typeName), ret, true
	}

	options := make([][]conversionOption, len(argTypes))
	sizes := make([]int, len(argTypes))
	for i, t := range argTypes {
		options[i] = c.candidateConversions(t)
		sizes[i] = len(options[i])
	}
	for _, combo := range cartesian(sizes) {
		converted := make([]reflect.Type, len(argTypes))
		for i, optIdx := range combo {
			converted[i] = options[i][optIdx].Type
		}
		arity, invoke, ret, ok := probe(converted)
		if !ok {
			continue
		}
		flows := make([]Flow, len(argFlows))
		for i, optIdx := range combo {
			opt := options[i][optIdx]
			if opt.Convert == nil {
				flows[i] = argFlows[i]
				continue
			}
			flows[i] = append(append(Flow{}, argFlows[i]...), Item{
				Kind: KindCallable,
				Callable: &Callable{
					Name:  "implicit conversion",
					Arity: 1,
					Invoke: func(args []interface{}) (interface{}, error) {
						return opt.Convert(args[0])
					},
				},
			})
		}
		return c.assembleCallAs(flows, arity, invoke, finalKind, typeName), ret, true
	}
	return nil, nil, false
}

func (c *Compiler) assembleCallAs(argFlows []Flow, arity int, invoke func([]interface{}) (interface{}, error), finalKind Kind, typeName string) Flow {
	var flow Flow
	for _, f := range argFlows {
		flow = append(flow, f...)
	}
	if finalKind == KindConstructor {
		flow = append(flow, Item{
			Kind:        KindConstructor,
			Constructor: &ConstructorCall{TypeName: typeName, Arity: arity, Invoke: invoke},
		})
		return flow
	}
	flow = append(flow, Item{
		Kind:     KindCallable,
		Callable: &Callable{Arity: arity, Invoke: invoke},
	})
	return flow
}

// resolveOperator implements the builtin-then-host-static search for an
// operator name (spec.md §4.2 step 1's first sentence covers both).
func (c *Compiler) resolveOperator(name string, argTypes []reflect.Type, argFlows []Flow) (Flow, reflect.Type, error) {
	probe := func(types []reflect.Type) (int, func([]interface{}) (interface{}, error), reflect.Type, bool) {
		if op, ok := builtin.Lookup(name, types); ok {
			return len(types), op.Invoke, op.ReturnType, true
		}
		if c.adapter != nil && len(types) > 0 {
			for _, m := range c.adapter.Methods(types[0], name, true) {
				if paramTypesMatch(m.ParamTypes, types) {
					invoke := m.Invoke
					return len(types), func(args []interface{}) (interface{}, error) {
						return invoke(nil, args)
					}, m.ReturnType, true
				}
			}
		}
		return 0, nil, nil, false
	}
	flow, ret, ok := c.resolveWithConversions(argTypes, argFlows, probe)
	if !ok {
		return nil, nil, &flinterr.MethodNotFound{Name: name, ArgTypes: argTypes}
	}
	return flow, ret, nil
}

func paramTypesMatch(params, args []reflect.Type) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if params[i] != args[i] {
			return false
		}
	}
	return true
}
