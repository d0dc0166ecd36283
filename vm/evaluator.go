package vm

import (
	"fmt"
	"reflect"

	"github.com/silverfish-labs/flint/compiler"
	"github.com/silverfish-labs/flint/env"
	"github.com/silverfish-labs/flint/flinterr"
)

// Run interprets flow against environment and returns the single value
// left on the stack, per spec.md §4.3.
func Run(flow compiler.Flow, environment *env.Environment) (interface{}, error) {
	var stack []interface{}

	push := func(v interface{}) { stack = append(stack, v) }
	pop := func() interface{} {
		n := len(stack) - 1
		v := stack[n]
		stack = stack[:n]
		return v
	}
	popValue := func() (interface{}, error) { return readThrough(pop(), environment) }

	for _, item := range flow {
		switch item.Kind {
		case compiler.KindValue:
			push(item.Value)

		case compiler.KindVarPlace:
			push(varPlace{name: item.VarPlace.Name})

		case compiler.KindMemberPlace:
			subject, err := popValue()
			if err != nil {
				return nil, err
			}
			push(memberPlace{subject: subject, get: item.MemberPlace.Get, set: item.MemberPlace.Set})

		case compiler.KindIndexPlace:
			n := item.IndexPlace.N
			idx := make([]interface{}, n)
			for k := n - 1; k >= 0; k-- {
				v, err := popValue()
				if err != nil {
					return nil, err
				}
				idx[k] = v
			}
			subject, err := popValue()
			if err != nil {
				return nil, err
			}
			push(indexPlace{subject: subject, idx: idx, get: item.IndexPlace.Get, set: item.IndexPlace.Set})

		case compiler.KindCallable:
			if item.Callable.Void {
				return nil, &flinterr.VoidMethodNotSupported{Name: item.Callable.Name}
			}
			k := item.Callable.Arity
			args := make([]interface{}, k)
			for i := k - 1; i >= 0; i-- {
				v, err := popValue()
				if err != nil {
					return nil, err
				}
				args[i] = v
			}
			result, err := item.Callable.Invoke(args)
			if err != nil {
				return nil, &flinterr.HostInvocationFailed{Cause: err}
			}
			push(result)

		case compiler.KindConstructor:
			k := item.Constructor.Arity
			args := make([]interface{}, k)
			for i := k - 1; i >= 0; i-- {
				v, err := popValue()
				if err != nil {
					return nil, err
				}
				args[i] = v
			}
			result, err := item.Constructor.Invoke(args)
			if err != nil {
				return nil, &flinterr.HostInvocationFailed{Cause: err}
			}
			push(result)

		case compiler.KindRunDelegate:
			// Per spec.md §9's Open Question and DESIGN.md's recorded
			// decision: RunDelegate does NOT reverse its popped
			// arguments back to source order. args[0] here is the last
			// argument pushed (top of stack), not the first.
			n := item.RunDelegate.N
			args := make([]interface{}, n)
			for i := 0; i < n; i++ {
				v, err := popValue()
				if err != nil {
					return nil, err
				}
				args[i] = v
			}
			callee, err := popValue()
			if err != nil {
				return nil, err
			}
			result, err := invokeDelegate(callee, args)
			if err != nil {
				return nil, &flinterr.HostInvocationFailed{Cause: err}
			}
			push(result)

		case compiler.KindSetOp:
			value, err := popValue()
			if err != nil {
				return nil, err
			}
			raw := pop()
			place, ok := raw.(Place)
			if !ok {
				return nil, &flinterr.InvalidLeftSide{Actual: raw}
			}
			if err := place.Write(environment, value); err != nil {
				return nil, &flinterr.HostInvocationFailed{Cause: err}
			}
			push(value)
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("vm: program left %d values on the stack, want 1", len(stack))
	}
	return readThrough(stack[0], environment)
}

// invokeDelegate calls a host-function-valued environment binding with
// args in the order the vm hands them (see KindRunDelegate above).
func invokeDelegate(callee interface{}, args []interface{}) (interface{}, error) {
	fv := reflect.ValueOf(callee)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("vm: %v is not callable", callee)
	}
	ft := fv.Type()
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = reflect.Zero(ft.In(i))
			continue
		}
		in[i] = reflect.ValueOf(a)
	}
	out := fv.Call(in)
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type().Implements(errorType) {
		var err error
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		if len(out) == 1 {
			return nil, err
		}
		return out[0].Interface(), err
	}
	return out[0].Interface(), nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
