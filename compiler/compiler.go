package compiler

import (
	"reflect"

	"github.com/silverfish-labs/flint/builtin"
	"github.com/silverfish-labs/flint/env"
	"github.com/silverfish-labs/flint/flinterr"
	"github.com/silverfish-labs/flint/hostreflect"
	"github.com/silverfish-labs/flint/token"
)

// Compiler walks a token.Token tree exactly once, in depth-first order,
// producing a Result per node while threading the original source text
// through for recovering Binary/Unary/Increment/Setter lexemes (those
// tokens carry no parsed Value — only a span — per token.go's
// invariant).
type Compiler struct {
	src     string
	env     *env.Environment
	adapter hostreflect.Adapter
}

// New creates a Compiler for one compilation. A Compiler is single-use,
// mirroring parser.Parser.
func New(src string, environment *env.Environment, adapter hostreflect.Adapter) *Compiler {
	return &Compiler{src: src, env: environment, adapter: adapter}
}

// Compile lowers tok (the root of a parsed tree) to a Result.
func Compile(tok *token.Token, src string, environment *env.Environment, adapter hostreflect.Adapter) (Result, error) {
	return New(src, environment, adapter).compile(tok)
}

func (c *Compiler) compile(tok *token.Token) (Result, error) {
	switch tok.Kind {
	case token.Literal:
		return Result{StaticType: reflect.TypeOf(tok.Value), Flow: Flow{{Kind: KindValue, Value: tok.Value}}}, nil
	case token.Reference:
		res, isType, _, _, err := c.compileReference(tok, nil)
		if err != nil {
			return Result{}, err
		}
		if isType {
			return Result{}, &flinterr.UnknownIdentifier{Name: tok.Value.(string), Position: tok.Span.Start}
		}
		return res, nil
	case token.Constructor:
		return c.compileConstructor(tok)
	case token.ExplicitConversion:
		return c.compileExplicitConversion(tok)
	case token.Block:
		return c.compileBlock(tok)
	default:
		return Result{}, &flinterr.UnknownIdentifier{Name: tok.Name(), Position: tok.Span.Start}
	}
}

// compileBlock implements spec.md §4.2's "Block:" lowering rule: the
// first child determines how the chain starts (a conversion, a unary/
// increment operator, a constructor, a reference, or any other
// sub-expression); every following sibling extends the running
// accumulator (Binary operator, Setter, MemberRef, Function, Index).
func (c *Compiler) compileBlock(tok *token.Token) (Result, error) {
	children := tok.Children
	if len(children) == 0 {
		return Result{}, &flinterr.UnknownIdentifier{Name: "<empty>", Position: tok.Span.Start}
	}

	first := children[0]
	if first.Kind == token.Unary || first.Kind == token.Increment {
		return c.compileUnaryOrIncrement(first, children[1])
	}

	var acc Result
	isTypeMarker := false
	var markerType reflect.Type
	i := 1

	switch first.Kind {
	case token.ExplicitConversion:
		r, err := c.compileExplicitConversion(first)
		if err != nil {
			return Result{}, err
		}
		acc = r
	case token.Constructor:
		r, err := c.compileConstructor(first)
		if err != nil {
			return Result{}, err
		}
		acc = r
	case token.Reference:
		var next *token.Token
		if len(children) > 1 {
			next = children[1]
		}
		r, isType, mType, consumedNext, err := c.compileReference(first, next)
		if err != nil {
			return Result{}, err
		}
		isTypeMarker, markerType = isType, mType
		acc = r
		if consumedNext {
			i = 2
		}
	default:
		r, err := c.compile(first)
		if err != nil {
			return Result{}, err
		}
		acc = r
	}

	for i < len(children) {
		child := children[i]
		switch child.Kind {
		case token.Binary:
			rhsNode := children[i+1]
			rhs, err := c.compile(rhsNode)
			if err != nil {
				return Result{}, err
			}
			opName := binaryOpName(child.Span.Text(c.src))
			flow, ret, err := c.resolveOperator(opName, []reflect.Type{acc.StaticType, rhs.StaticType}, []Flow{acc.Flow, rhs.Flow})
			if err != nil {
				return Result{}, err
			}
			acc = Result{StaticType: ret, Flow: flow}
			i += 2
		case token.Setter:
			rhsNode := children[i+1]
			rhs, err := c.compile(rhsNode)
			if err != nil {
				return Result{}, err
			}
			if !isPlace(acc.Flow) {
				return Result{}, &flinterr.InvalidAssignmentTarget{Position: tok.Span.Start}
			}
			flow := append(append(Flow{}, acc.Flow...), rhs.Flow...)
			flow = append(flow, Item{Kind: KindSetOp})
			acc = Result{StaticType: rhs.StaticType, Flow: flow}
			i += 2
		case token.MemberRef:
			name := child.Value.(string)
			var next *token.Token
			if i+1 < len(children) {
				next = children[i+1]
			}
			newAcc, consumedNext, err := c.compileMemberRef(acc, isTypeMarker, markerType, name, next, child.Span.Start)
			if err != nil {
				return Result{}, err
			}
			acc = newAcc
			isTypeMarker = false
			i++
			if consumedNext {
				i++
			}
		case token.Function:
			flow, ret, err := c.compileRunDelegate(acc, child)
			if err != nil {
				return Result{}, err
			}
			acc = Result{StaticType: ret, Flow: flow}
			i++
		case token.Index:
			newAcc, err := c.compileIndex(acc, child)
			if err != nil {
				return Result{}, err
			}
			acc = newAcc
			i++
		default:
			return Result{}, &flinterr.UnknownIdentifier{Name: child.Name(), Position: child.Span.Start}
		}
	}
	return acc, nil
}

func binaryOpName(lexeme string) string {
	switch lexeme {
	case "+":
		return builtin.OpAdd
	case "-":
		return builtin.OpSub
	case "*":
		return builtin.OpMul
	case "/":
		return builtin.OpDiv
	case "%":
		return builtin.OpMod
	case "<":
		return builtin.OpLT
	case ">":
		return builtin.OpGT
	case "<=":
		return builtin.OpLE
	case ">=":
		return builtin.OpGE
	case "==":
		return builtin.OpEq
	case "!=":
		return builtin.OpNe
	case "&&":
		return builtin.OpAnd
	case "||":
		return builtin.OpOr
	default:
		return lexeme
	}
}

// isPlace reports whether flow's last item is one the evaluator treats
// as a place (spec.md §4.2's "the LHS instructions must leave a place on
// the stack as their last item").
func isPlace(flow Flow) bool {
	if len(flow) == 0 {
		return false
	}
	switch flow[len(flow)-1].Kind {
	case KindVarPlace, KindMemberPlace, KindIndexPlace:
		return true
	default:
		return false
	}
}

func isNumeric(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Int64, reflect.Int32, reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// compileUnaryOrIncrement handles a Block whose children are exactly
// [opToken, operand] — the unary() / increment production's own Block,
// which never collapses because it always has two children.
func (c *Compiler) compileUnaryOrIncrement(opTok, operandNode *token.Token) (Result, error) {
	operand, err := c.compile(operandNode)
	if err != nil {
		return Result{}, err
	}
	lexeme := opTok.Span.Text(c.src)

	if opTok.Kind == token.Increment {
		if !isPlace(operand.Flow) {
			return Result{}, &flinterr.IncrementRequiresPlace{Position: opTok.Span.Start}
		}
		if !isNumeric(operand.StaticType) {
			return Result{}, &flinterr.IncrementRequiresPrimitive{Type: operand.StaticType}
		}
		name := builtin.OpIncrement
		if lexeme == "--" {
			name = builtin.OpDecrement
		}
		op, ok := builtin.Lookup(name, []reflect.Type{operand.StaticType})
		if !ok {
			return Result{}, &flinterr.MethodNotFound{Name: name, ArgTypes: []reflect.Type{operand.StaticType}}
		}
		flow := append(append(Flow{}, operand.Flow...), operand.Flow...)
		flow = append(flow, Item{Kind: KindCallable, Callable: &Callable{Name: name, Arity: 1, Invoke: op.Invoke}})
		flow = append(flow, Item{Kind: KindSetOp})
		return Result{StaticType: operand.StaticType, Flow: flow}, nil
	}

	name := builtin.OpNeg
	if lexeme == "!" {
		name = builtin.OpNot
	}
	flow, ret, err := c.resolveOperator(name, []reflect.Type{operand.StaticType}, []Flow{operand.Flow})
	if err != nil {
		return Result{}, err
	}
	return Result{StaticType: ret, Flow: flow}, nil
}

// compileExplicitConversion handles "(T)Factor": compile the operand,
// find op_Explicit on its type with return T, falling back to
// op_Implicit with return T.
func (c *Compiler) compileExplicitConversion(tok *token.Token) (Result, error) {
	operand, err := c.compile(tok.Children[0])
	if err != nil {
		return Result{}, err
	}
	typeName := tok.Value.(string)
	target := builtin.TypeOf(typeName)
	if target == nil && c.adapter != nil {
		target, _ = c.adapter.ResolveType(typeName)
	}
	if target == nil {
		return Result{}, &flinterr.NoExplicitConversion{From: operand.StaticType, To: typeName}
	}

	for _, conv := range builtin.ExplicitConversionsFrom(operand.StaticType) {
		if conv.To == target {
			return applyConversion(operand, conv.To, conv.Fn), nil
		}
	}
	if c.adapter != nil {
		for _, conv := range c.adapter.Conversions(operand.StaticType, hostreflect.Explicit) {
			if conv.To == target {
				return applyConversion(operand, conv.To, conv.Fn), nil
			}
		}
	}
	for _, conv := range builtin.ImplicitConversionsFrom(operand.StaticType) {
		if conv.To == target {
			return applyConversion(operand, conv.To, conv.Fn), nil
		}
	}
	if c.adapter != nil {
		for _, conv := range c.adapter.Conversions(operand.StaticType, hostreflect.Implicit) {
			if conv.To == target {
				return applyConversion(operand, conv.To, conv.Fn), nil
			}
		}
	}
	return Result{}, &flinterr.NoExplicitConversion{From: operand.StaticType, To: typeName}
}

func applyConversion(operand Result, to reflect.Type, fn func(interface{}) (interface{}, error)) Result {
	flow := append(append(Flow{}, operand.Flow...), Item{
		Kind: KindCallable,
		Callable: &Callable{
			Name:  "explicit conversion",
			Arity: 1,
			Invoke: func(args []interface{}) (interface{}, error) {
				return fn(args[0])
			},
		},
	})
	return Result{StaticType: to, Flow: flow}
}

// compileConstructor handles "new T(args)": compile args, find a
// constructor of T whose parameters match the argument types, exactly or
// after implicit conversions.
func (c *Compiler) compileConstructor(tok *token.Token) (Result, error) {
	typeName := tok.Value.(string)
	if c.adapter == nil {
		return Result{}, &flinterr.UnknownIdentifier{Name: typeName, Position: tok.Span.Start}
	}
	args := tok.Children
	argFlows := make([]Flow, len(args))
	argTypes := make([]reflect.Type, len(args))
	for i, a := range args {
		r, err := c.compile(a)
		if err != nil {
			return Result{}, err
		}
		argFlows[i] = r.Flow
		argTypes[i] = r.StaticType
	}
	target, _ := c.adapter.ResolveType(typeName)
	probe := func(types []reflect.Type) (int, func([]interface{}) (interface{}, error), reflect.Type, bool) {
		for _, ctor := range c.adapter.Constructors(typeName) {
			if paramTypesMatch(ctor.ParamTypes, types) {
				return len(types), ctor.Invoke, target, true
			}
		}
		return 0, nil, nil, false
	}
	flow, ret, ok := c.resolveWithConversionsAs(argTypes, argFlows, probe, KindConstructor, typeName)
	if !ok {
		return Result{}, &flinterr.MethodNotFound{Name: "new " + typeName, ArgTypes: argTypes}
	}
	return Result{StaticType: ret, Flow: flow}, nil
}

// compileReference lowers a Reference per spec.md §4.2: a call if the
// next sibling is a Function, a VarPlace if bound in the environment, a
// type marker if it names a registered host type, else UnknownIdentifier.
func (c *Compiler) compileReference(tok *token.Token, next *token.Token) (res Result, isTypeMarker bool, markerType reflect.Type, consumedNext bool, err error) {
	name := tok.Value.(string)

	if next != nil && next.Kind == token.Function {
		fnVal, ok := c.env.Get(name)
		if !ok {
			return Result{}, false, nil, false, &flinterr.UnknownIdentifier{Name: name, Position: tok.Span.Start}
		}
		fnType := reflect.TypeOf(fnVal)
		if fnType == nil || fnType.Kind() != reflect.Func {
			return Result{}, false, nil, false, &flinterr.MethodNotFound{Name: name}
		}
		args := next.Children
		if len(args) != fnType.NumIn() {
			return Result{}, false, nil, false, &flinterr.MethodNotFound{Name: name}
		}
		argFlows := make([]Flow, len(args))
		argTypes := make([]reflect.Type, len(args))
		for i, a := range args {
			r, e := c.compile(a)
			if e != nil {
				return Result{}, false, nil, false, e
			}
			argFlows[i] = r.Flow
			argTypes[i] = r.StaticType
		}
		// The vm hands RunDelegate's arguments to the callee last-pushed
		// first (see RunDelegate), so source argument i lands in
		// parameter len(args)-1-i.
		paramTypes := make([]reflect.Type, fnType.NumIn())
		for i := range paramTypes {
			paramTypes[i] = fnType.In(len(paramTypes) - 1 - i)
		}
		converted, ok := c.matchArgsToParams(argTypes, argFlows, paramTypes)
		if !ok {
			return Result{}, false, nil, false, &flinterr.MethodNotFound{Name: name, ArgTypes: argTypes}
		}
		flow := Flow{{Kind: KindVarPlace, VarPlace: &VarPlace{Name: name}}}
		flow = append(flow, converted...)
		flow = append(flow, Item{Kind: KindRunDelegate, RunDelegate: &RunDelegate{N: len(args)}})
		var ret reflect.Type
		if fnType.NumOut() > 0 {
			ret = fnType.Out(0)
		}
		return Result{StaticType: ret, Flow: flow}, false, nil, true, nil
	}

	if v, ok := c.env.Get(name); ok {
		return Result{
			StaticType: reflect.TypeOf(v),
			Flow:       Flow{{Kind: KindVarPlace, VarPlace: &VarPlace{Name: name}}},
		}, false, nil, false, nil
	}
	if c.adapter != nil {
		if t, ok := c.adapter.ResolveType(name); ok {
			return Result{}, true, t, false, nil
		}
	}
	return Result{}, false, nil, false, &flinterr.UnknownIdentifier{Name: name, Position: tok.Span.Start}
}

// compileRunDelegate handles a trailing Function that is not a bare
// reference call — e.g. invoking a delegate-valued member or a
// parenthesized expression's result.
func (c *Compiler) compileRunDelegate(receiver Result, fnTok *token.Token) (Flow, reflect.Type, error) {
	args := fnTok.Children
	argFlows := make([]Flow, len(args))
	for i, a := range args {
		r, err := c.compile(a)
		if err != nil {
			return nil, nil, err
		}
		argFlows[i] = r.Flow
	}
	flow := append(Flow{}, receiver.Flow...)
	for _, f := range argFlows {
		flow = append(flow, f...)
	}
	flow = append(flow, Item{Kind: KindRunDelegate, RunDelegate: &RunDelegate{N: len(args)}})
	var ret reflect.Type
	if t := receiver.StaticType; t != nil && t.Kind() == reflect.Func && t.NumOut() > 0 {
		ret = t.Out(0)
	}
	return flow, ret, nil
}

// compileMemberRef resolves a MemberRef against either static members
// (when the receiver is a type marker) or instance members plus
// extension methods.
func (c *Compiler) compileMemberRef(receiver Result, isTypeMarker bool, markerType reflect.Type, name string, next *token.Token, pos int) (Result, bool, error) {
	if c.adapter == nil {
		return Result{}, false, &flinterr.UnknownIdentifier{Name: name, Position: pos}
	}
	receiverType := markerType
	if !isTypeMarker {
		receiverType = receiver.StaticType
	}

	methods := c.adapter.Methods(receiverType, name, isTypeMarker)
	if !isTypeMarker {
		methods = append(methods, c.adapter.ExtensionMethods(receiverType, name)...)
	}
	if len(methods) > 0 {
		if next == nil || next.Kind != token.Function {
			return Result{}, false, &flinterr.MethodNotFound{Name: name}
		}
		for _, m := range methods {
			if m.ReturnType == nil && len(m.ParamTypes) == len(next.Children) {
				return Result{}, false, &flinterr.VoidMethodNotSupported{Name: name}
			}
		}
		args := next.Children
		argFlows := make([]Flow, len(args))
		argTypes := make([]reflect.Type, len(args))
		for i, a := range args {
			r, err := c.compile(a)
			if err != nil {
				return Result{}, false, err
			}
			argFlows[i] = r.Flow
			argTypes[i] = r.StaticType
		}
		probe := func(types []reflect.Type) (int, func([]interface{}) (interface{}, error), reflect.Type, bool) {
			for _, m := range methods {
				if paramTypesMatch(m.ParamTypes, types) {
					mm := m
					return len(types) + 1, func(callArgs []interface{}) (interface{}, error) {
						return mm.Invoke(callArgs[0], callArgs[1:])
					}, mm.ReturnType, true
				}
			}
			return 0, nil, nil, false
		}
		flow, ret, ok := c.resolveWithConversions(argTypes, argFlows, probe)
		if !ok {
			return Result{}, false, &flinterr.MethodNotFound{Name: name, ArgTypes: argTypes}
		}
		final := append(append(Flow{}, receiver.Flow...), flow...)
		return Result{StaticType: ret, Flow: final}, true, nil
	}

	field, ok := c.adapter.Field(receiverType, name)
	if !ok {
		return Result{}, false, &flinterr.UnknownIdentifier{Name: name, Position: pos}
	}
	flow := append(append(Flow{}, receiver.Flow...), Item{
		Kind: KindMemberPlace,
		MemberPlace: &MemberPlace{
			Name: name,
			Get:  field.Get,
			Set:  field.Set,
		},
	})
	return Result{StaticType: field.Type, Flow: flow}, false, nil
}

// compileIndex resolves subject[idx1..idxN], emitting an IndexPlace.
func (c *Compiler) compileIndex(subject Result, idxTok *token.Token) (Result, error) {
	idxNodes := idxTok.Children
	idxFlows := make([]Flow, len(idxNodes))
	for i, n := range idxNodes {
		r, err := c.compile(n)
		if err != nil {
			return Result{}, err
		}
		idxFlows[i] = r.Flow
	}

	var elemType reflect.Type
	var getIdx func(subject interface{}, idx []interface{}) (interface{}, error)
	var setIdx func(subject interface{}, idx []interface{}, value interface{}) error

	if len(idxNodes) == 1 && subject.StaticType != nil &&
		(subject.StaticType.Kind() == reflect.Slice || subject.StaticType.Kind() == reflect.Array) {
		elemType = subject.StaticType.Elem()
		getIdx = func(s interface{}, idx []interface{}) (interface{}, error) {
			v := reflect.ValueOf(s)
			i := int(builtinToInt(idx[0]))
			return v.Index(i).Interface(), nil
		}
		setIdx = func(s interface{}, idx []interface{}, value interface{}) error {
			v := reflect.ValueOf(s)
			i := int(builtinToInt(idx[0]))
			v.Index(i).Set(reflect.ValueOf(value))
			return nil
		}
	} else if c.adapter != nil {
		indexer, ok := c.adapter.Indexer(subject.StaticType)
		if !ok {
			return Result{}, &flinterr.MethodNotFound{Name: "Item"}
		}
		elemType = indexer.ElemType
		getIdx = indexer.Get
		setIdx = indexer.Set
	} else {
		return Result{}, &flinterr.MethodNotFound{Name: "Item"}
	}

	flow := append(Flow{}, subject.Flow...)
	for _, f := range idxFlows {
		flow = append(flow, f...)
	}
	flow = append(flow, Item{
		Kind: KindIndexPlace,
		IndexPlace: &IndexPlace{
			N:   len(idxNodes),
			Get: getIdx,
			Set: setIdx,
		},
	})
	return Result{StaticType: elemType, Flow: flow}, nil
}

func builtinToInt(v interface{}) int64 {
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

// matchArgsToParams finds a conversion combination (identity-first) that
// makes argTypes equal paramTypes exactly, used for calling environment
// functions whose signature is fixed rather than overloaded.
func (c *Compiler) matchArgsToParams(argTypes []reflect.Type, argFlows []Flow, paramTypes []reflect.Type) (Flow, bool) {
	if len(argTypes) != len(paramTypes) {
		return nil, false
	}
	options := make([][]conversionOption, len(argTypes))
	sizes := make([]int, len(argTypes))
	for i, t := range argTypes {
		options[i] = c.candidateConversions(t)
		sizes[i] = len(options[i])
	}
	for _, combo := range cartesian(sizes) {
		ok := true
		for i, optIdx := range combo {
			if options[i][optIdx].Type != paramTypes[i] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		var flow Flow
		for i, optIdx := range combo {
			opt := options[i][optIdx]
			if opt.Convert == nil {
				flow = append(flow, argFlows[i]...)
				continue
			}
			flow = append(flow, argFlows[i]...)
			fn := opt.Convert
			flow = append(flow, Item{
				Kind: KindCallable,
				Callable: &Callable{
					Name:  "implicit conversion",
					Arity: 1,
					Invoke: func(args []interface{}) (interface{}, error) {
						return fn(args[0])
					},
				},
			})
		}
		return flow, true
	}
	return nil, false
}
