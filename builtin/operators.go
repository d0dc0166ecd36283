// Package builtin implements spec.md §4.4's Builtin Operator Table: a
// static, read-only registry of monomorphic primitive operators keyed by
// operator name and argument type list, plus the minimum implicit/
// explicit numeric and string conversions spec.md requires.
//
// This is the innermost leaf of the pipeline (spec.md §2): the compiler
// consults it before ever asking the host reflection adapter. It keys a
// flat table of builtins by (operator, argument-type-tuple) rather than
// by name alone, since operators are overloaded across primitive types.
package builtin

import (
	"fmt"
	"reflect"

	"github.com/silverfish-labs/flint/hostreflect"
)

// Operator names, mirroring the op_Xxx convention spec.md §4.2 uses for
// method resolution.
const (
	OpAdd       = "op_Addition"
	OpSub       = "op_Subtraction"
	OpMul       = "op_Multiplication"
	OpDiv       = "op_Division"
	OpMod       = "op_Modulo"
	OpLT        = "op_LessThan"
	OpGT        = "op_GreaterThan"
	OpLE        = "op_LessThanOrEqual"
	OpGE        = "op_GreaterThanOrEqual"
	OpEq        = "op_Equality"
	OpNe        = "op_Inequality"
	OpAnd       = "op_LogicalAnd"
	OpOr        = "op_LogicalOr"
	OpNeg       = "op_UnaryNegation"
	OpNot       = "op_LogicalNot"
	OpIncrement = "op_Increment"
	OpDecrement = "op_Decrement"
)

// Operator is one monomorphic overload: an exact argument-type tuple
// mapped to a callable.
type Operator struct {
	Name       string
	ParamTypes []reflect.Type
	ReturnType reflect.Type
	Invoke     func(args []interface{}) (interface{}, error)
}

var (
	intType     = reflect.TypeOf(int64(0))
	int32Type   = reflect.TypeOf(int32(0))
	floatType   = reflect.TypeOf(float32(0))
	doubleType  = reflect.TypeOf(float64(0))
	stringType  = reflect.TypeOf("")
	boolType    = reflect.TypeOf(false)
	runeType    = reflect.TypeOf(rune(0))
	numericKeys = []reflect.Type{intType, int32Type, floatType, doubleType}
)

var table = map[string][]Operator{}

func add(name string, params []reflect.Type, ret reflect.Type, fn func(args []interface{}) (interface{}, error)) {
	table[name] = append(table[name], Operator{Name: name, ParamTypes: params, ReturnType: ret, Invoke: fn})
}

// Lookup finds the operator overload whose ParamTypes exactly match
// argTypes. It is the first thing method resolution tries (spec.md
// §4.2 step 1).
func Lookup(name string, argTypes []reflect.Type) (Operator, bool) {
	for _, op := range table[name] {
		if typesEqual(op.ParamTypes, argTypes) {
			return op, true
		}
	}
	return Operator{}, false
}

func typesEqual(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func init() {
	registerArithmetic()
	registerComparison()
	registerLogical()
	registerUnary()
	registerIncrementDecrement()
	registerConversions()
}

func registerArithmetic() {
	for _, t := range numericKeys {
		t := t
		add(OpAdd, []reflect.Type{t, t}, t, numAdd(t))
		add(OpSub, []reflect.Type{t, t}, t, numSub(t))
		add(OpMul, []reflect.Type{t, t}, t, numMul(t))
		add(OpDiv, []reflect.Type{t, t}, t, numDiv(t))
		add(OpMod, []reflect.Type{t, t}, t, numMod(t))
	}
	// string concatenation.
	add(OpAdd, []reflect.Type{stringType, stringType}, stringType, func(args []interface{}) (interface{}, error) {
		return args[0].(string) + args[1].(string), nil
	})
}

func numAdd(t reflect.Type) func([]interface{}) (interface{}, error) {
	return func(args []interface{}) (interface{}, error) { return numericOp(t, args, func(a, b float64) float64 { return a + b }) }
}
func numSub(t reflect.Type) func([]interface{}) (interface{}, error) {
	return func(args []interface{}) (interface{}, error) { return numericOp(t, args, func(a, b float64) float64 { return a - b }) }
}
func numMul(t reflect.Type) func([]interface{}) (interface{}, error) {
	return func(args []interface{}) (interface{}, error) { return numericOp(t, args, func(a, b float64) float64 { return a * b }) }
}
func numDiv(t reflect.Type) func([]interface{}) (interface{}, error) {
	return func(args []interface{}) (interface{}, error) {
		if isIntegral(t) {
			a, b := toInt64(args[0]), toInt64(args[1])
			if b == 0 {
				return nil, fmt.Errorf("builtin: division by zero")
			}
			return fromInt64(t, a/b), nil
		}
		return numericOp(t, args, func(a, b float64) float64 { return a / b })
	}
}
func numMod(t reflect.Type) func([]interface{}) (interface{}, error) {
	return func(args []interface{}) (interface{}, error) {
		if isIntegral(t) {
			a, b := toInt64(args[0]), toInt64(args[1])
			if b == 0 {
				return nil, fmt.Errorf("builtin: modulo by zero")
			}
			return fromInt64(t, a%b), nil
		}
		af, bf := toFloat64(args[0]), toFloat64(args[1])
		return fromFloat64(t, float64(int64(af)%int64(bf))), nil
	}
}

func isIntegral(t reflect.Type) bool { return t == intType || t == int32Type }

func numericOp(t reflect.Type, args []interface{}, f func(a, b float64) float64) (interface{}, error) {
	a, b := toFloat64(args[0]), toFloat64(args[1])
	return fromFloat64(t, f(a, b)), nil
}

func toFloat64(v interface{}) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}

func toInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int32:
		return int64(x)
	case float32:
		return int64(x)
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func fromFloat64(t reflect.Type, f float64) interface{} {
	switch t {
	case intType:
		return int64(f)
	case int32Type:
		return int32(f)
	case floatType:
		return float32(f)
	case doubleType:
		return f
	default:
		return f
	}
}

func fromInt64(t reflect.Type, i int64) interface{} {
	switch t {
	case intType:
		return i
	case int32Type:
		return int32(i)
	case floatType:
		return float32(i)
	case doubleType:
		return float64(i)
	default:
		return i
	}
}

func registerComparison() {
	cmps := map[string]func(a, b float64) bool{
		OpLT: func(a, b float64) bool { return a < b },
		OpGT: func(a, b float64) bool { return a > b },
		OpLE: func(a, b float64) bool { return a <= b },
		OpGE: func(a, b float64) bool { return a >= b },
		OpEq: func(a, b float64) bool { return a == b },
		OpNe: func(a, b float64) bool { return a != b },
	}
	for name, f := range cmps {
		for _, t := range numericKeys {
			f := f
			add(name, []reflect.Type{t, t}, boolType, func(args []interface{}) (interface{}, error) {
				return f(toFloat64(args[0]), toFloat64(args[1])), nil
			})
		}
	}
	add(OpEq, []reflect.Type{stringType, stringType}, boolType, func(args []interface{}) (interface{}, error) {
		return args[0].(string) == args[1].(string), nil
	})
	add(OpNe, []reflect.Type{stringType, stringType}, boolType, func(args []interface{}) (interface{}, error) {
		return args[0].(string) != args[1].(string), nil
	})
	add(OpEq, []reflect.Type{boolType, boolType}, boolType, func(args []interface{}) (interface{}, error) {
		return args[0].(bool) == args[1].(bool), nil
	})
	add(OpNe, []reflect.Type{boolType, boolType}, boolType, func(args []interface{}) (interface{}, error) {
		return args[0].(bool) != args[1].(bool), nil
	})
}

func registerLogical() {
	add(OpAnd, []reflect.Type{boolType, boolType}, boolType, func(args []interface{}) (interface{}, error) {
		return args[0].(bool) && args[1].(bool), nil
	})
	add(OpOr, []reflect.Type{boolType, boolType}, boolType, func(args []interface{}) (interface{}, error) {
		return args[0].(bool) || args[1].(bool), nil
	})
}

func registerUnary() {
	for _, t := range numericKeys {
		t := t
		add(OpNeg, []reflect.Type{t}, t, func(args []interface{}) (interface{}, error) {
			return fromFloat64(t, -toFloat64(args[0])), nil
		})
	}
	add(OpNot, []reflect.Type{boolType}, boolType, func(args []interface{}) (interface{}, error) {
		return !args[0].(bool), nil
	})
}

func registerIncrementDecrement() {
	for _, t := range numericKeys {
		t := t
		add(OpIncrement, []reflect.Type{t}, t, func(args []interface{}) (interface{}, error) {
			return fromFloat64(t, toFloat64(args[0])+1), nil
		})
		add(OpDecrement, []reflect.Type{t}, t, func(args []interface{}) (interface{}, error) {
			return fromFloat64(t, toFloat64(args[0])-1), nil
		})
	}
}

// ImplicitConversionsFrom and ExplicitConversionsFrom return the builtin
// conversion table's entries for a given source type; the compiler
// merges these with any host-declared conversions during overload
// resolution (spec.md §4.2 step 2).
func ImplicitConversionsFrom(from reflect.Type) []hostreflect.Conversion {
	return conversions[hostreflect.Implicit][from]
}

func ExplicitConversionsFrom(from reflect.Type) []hostreflect.Conversion {
	return conversions[hostreflect.Explicit][from]
}

var conversions = map[hostreflect.ConversionKind]map[reflect.Type][]hostreflect.Conversion{
	hostreflect.Implicit: {},
	hostreflect.Explicit: {},
}

func addConversion(from, to reflect.Type, kind hostreflect.ConversionKind, fn func(interface{}) (interface{}, error)) {
	conversions[kind][from] = append(conversions[kind][from], hostreflect.Conversion{From: from, To: to, Kind: kind, Fn: fn})
}

func registerConversions() {
	// Implicit: int->float, float->double, char->int, any primitive->string.
	addConversion(intType, floatType, hostreflect.Implicit, func(v interface{}) (interface{}, error) {
		return float32(v.(int64)), nil
	})
	addConversion(floatType, doubleType, hostreflect.Implicit, func(v interface{}) (interface{}, error) {
		return float64(v.(float32)), nil
	})
	addConversion(runeType, intType, hostreflect.Implicit, func(v interface{}) (interface{}, error) {
		return int64(v.(rune)), nil
	})
	for _, t := range []reflect.Type{intType, int32Type, floatType, doubleType, boolType, runeType} {
		t := t
		addConversion(t, stringType, hostreflect.Implicit, func(v interface{}) (interface{}, error) {
			return fmt.Sprintf("%v", v), nil
		})
	}

	// Explicit: float->int, double->float, int->char.
	addConversion(floatType, intType, hostreflect.Explicit, func(v interface{}) (interface{}, error) {
		return int64(v.(float32)), nil
	})
	addConversion(doubleType, floatType, hostreflect.Explicit, func(v interface{}) (interface{}, error) {
		return float32(v.(float64)), nil
	})
	addConversion(intType, runeType, hostreflect.Explicit, func(v interface{}) (interface{}, error) {
		return rune(v.(int64)), nil
	})
	// double->int (explicit) and int->double (implicit) combinations useful in
	// practice even though not in the spec's stated minimum.
	addConversion(doubleType, intType, hostreflect.Explicit, func(v interface{}) (interface{}, error) {
		return int64(v.(float64)), nil
	})
	addConversion(intType, doubleType, hostreflect.Implicit, func(v interface{}) (interface{}, error) {
		return float64(v.(int64)), nil
	})
}

// TypeOf exposes the canonical reflect.Type for the engine's primitive
// kinds, so other packages don't redeclare reflect.TypeOf(int64(0))
// everywhere.
func TypeOf(kind string) reflect.Type {
	switch kind {
	case "int":
		return intType
	case "int32":
		return int32Type
	case "float":
		return floatType
	case "double":
		return doubleType
	case "string":
		return stringType
	case "bool":
		return boolType
	case "char":
		return runeType
	default:
		return nil
	}
}
