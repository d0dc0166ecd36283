package hostreflect

import (
	"fmt"
	"reflect"
)

// DefaultAdapter is the reflect-backed Adapter implementation. Instance
// method and field lookup require no registration at all; constructors,
// extension methods, conversions, and indexers are registered once, up
// front, by the embedding host.
type DefaultAdapter struct {
	types       map[string]reflect.Type
	ctors       map[string][]ConstructorInfo
	extMethods  map[reflect.Type]map[string][]MethodInfo
	staticMeths map[reflect.Type]map[string][]MethodInfo
	conversions map[reflect.Type][]Conversion
	indexers    map[reflect.Type]IndexerInfo
}

// NewDefaultAdapter creates an adapter with empty registries.
func NewDefaultAdapter() *DefaultAdapter {
	return &DefaultAdapter{
		types:       make(map[string]reflect.Type),
		ctors:       make(map[string][]ConstructorInfo),
		extMethods:  make(map[reflect.Type]map[string][]MethodInfo),
		staticMeths: make(map[reflect.Type]map[string][]MethodInfo),
		conversions: make(map[reflect.Type][]Conversion),
		indexers:    make(map[reflect.Type]IndexerInfo),
	}
}

// RegisterType makes a host type nameable in expressions ("new Name(...)",
// "(Name)x", a bare "Name" used as a static receiver).
func (a *DefaultAdapter) RegisterType(name string, sample interface{}) {
	a.types[name] = reflect.TypeOf(sample)
}

// RegisterConstructor registers one overload of a type's constructor. fn
// must be a func with any arity returning exactly the registered type (or
// a pointer to it).
func (a *DefaultAdapter) RegisterConstructor(typeName string, fn interface{}) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	a.ctors[typeName] = append(a.ctors[typeName], ConstructorInfo{
		TypeName:   typeName,
		ParamTypes: params,
		Invoke: func(args []interface{}) (interface{}, error) {
			return callReflectFunc(fv, args)
		},
	})
}

// RegisterConversion registers a conversion function "func(From) To" as
// implicit or explicit for From.
func (a *DefaultAdapter) RegisterConversion(fn interface{}, kind ConversionKind) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	from, to := ft.In(0), ft.Out(0)
	a.conversions[from] = append(a.conversions[from], Conversion{
		From: from,
		To:   to,
		Kind: kind,
		Fn: func(v interface{}) (interface{}, error) {
			out, err := callReflectFunc(fv, []interface{}{v})
			return out, err
		},
	})
}

// RegisterExtensionMethod registers fn ("func(Receiver, args...) Ret") as
// an extension method named name discoverable on Receiver's type.
func (a *DefaultAdapter) RegisterExtensionMethod(name string, fn interface{}) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	recv := ft.In(0)
	params := make([]reflect.Type, ft.NumIn()-1)
	for i := range params {
		params[i] = ft.In(i + 1)
	}
	info := MethodInfo{
		Name:       name,
		ParamTypes: params,
		ReturnType: outType(ft),
		Invoke: func(receiver interface{}, args []interface{}) (interface{}, error) {
			return callReflectFunc(fv, append([]interface{}{receiver}, args...))
		},
	}
	if a.extMethods[recv] == nil {
		a.extMethods[recv] = make(map[string][]MethodInfo)
	}
	a.extMethods[recv][name] = append(a.extMethods[recv][name], info)
}

// RegisterStaticMethod registers fn as a static method named name on the
// host type registered under typeName.
func (a *DefaultAdapter) RegisterStaticMethod(typeName, name string, fn interface{}) {
	typ, ok := a.types[typeName]
	if !ok {
		panic(fmt.Sprintf("hostreflect: RegisterStaticMethod: unknown type %q", typeName))
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	info := MethodInfo{
		Name:       name,
		ParamTypes: params,
		ReturnType: outType(ft),
		IsStatic:   true,
		Invoke: func(_ interface{}, args []interface{}) (interface{}, error) {
			return callReflectFunc(fv, args)
		},
	}
	if a.staticMeths[typ] == nil {
		a.staticMeths[typ] = make(map[string][]MethodInfo)
	}
	a.staticMeths[typ][name] = append(a.staticMeths[typ][name], info)
}

// RegisterIndexer registers get/set functions for typ's indexer. get must
// be "func(Receiver, idx1, idx2, ...) Elem"; set must be
// "func(Receiver, idx1, idx2, ..., Elem)".
func (a *DefaultAdapter) RegisterIndexer(sample interface{}, get, set interface{}) {
	typ := reflect.TypeOf(sample)
	gv := reflect.ValueOf(get)
	gt := gv.Type()
	params := make([]reflect.Type, gt.NumIn()-1)
	for i := range params {
		params[i] = gt.In(i + 1)
	}
	var sv reflect.Value
	if set != nil {
		sv = reflect.ValueOf(set)
	}
	a.indexers[typ] = IndexerInfo{
		ParamTypes: params,
		ElemType:   gt.Out(0),
		Get: func(receiver interface{}, idx []interface{}) (interface{}, error) {
			return callReflectFunc(gv, append([]interface{}{receiver}, idx...))
		},
		Set: func(receiver interface{}, idx []interface{}, value interface{}) error {
			if set == nil {
				return fmt.Errorf("hostreflect: indexer for %s has no setter", typ)
			}
			args := append([]interface{}{receiver}, idx...)
			args = append(args, value)
			_, err := callReflectFunc(sv, args)
			return err
		},
	}
}

func outType(ft reflect.Type) reflect.Type {
	if ft.NumOut() == 0 {
		return nil
	}
	return ft.Out(0)
}

// callReflectFunc invokes fv with boxed args, unwraps a single return
// value, and turns a trailing error return into a Go error.
func callReflectFunc(fv reflect.Value, args []interface{}) (interface{}, error) {
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

func (a *DefaultAdapter) ResolveType(name string) (reflect.Type, bool) {
	t, ok := a.types[name]
	return t, ok
}

// Methods returns instance methods via typ's reflect method set (no
// registration needed) or registered static methods, depending on
// static.
func (a *DefaultAdapter) Methods(typ reflect.Type, name string, static bool) []MethodInfo {
	if static {
		return a.staticMeths[typ][name]
	}
	var out []MethodInfo
	for _, t := range []reflect.Type{typ, reflect.PtrTo(typ)} {
		m, ok := t.MethodByName(name)
		if !ok {
			continue
		}
		out = append(out, reflectMethodInfo(m))
	}
	return out
}

func reflectMethodInfo(m reflect.Method) MethodInfo {
	ft := m.Func.Type()
	// ft.In(0) is the receiver; skip it.
	params := make([]reflect.Type, ft.NumIn()-1)
	for i := range params {
		params[i] = ft.In(i + 1)
	}
	fn := m.Func
	return MethodInfo{
		Name:       m.Name,
		ParamTypes: params,
		ReturnType: outType(ft),
		Invoke: func(receiver interface{}, args []interface{}) (interface{}, error) {
			return callReflectFunc(fn, append([]interface{}{receiver}, args...))
		},
	}
}

func (a *DefaultAdapter) Field(typ reflect.Type, name string) (FieldInfo, bool) {
	structType := typ
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return FieldInfo{}, false
	}
	sf, ok := structType.FieldByName(name)
	if !ok {
		return FieldInfo{}, false
	}
	return FieldInfo{
		Name: name,
		Type: sf.Type,
		Get: func(receiver interface{}) (interface{}, error) {
			v := reflect.ValueOf(receiver)
			for v.Kind() == reflect.Ptr {
				v = v.Elem()
			}
			return v.FieldByIndex(sf.Index).Interface(), nil
		},
		Set: func(receiver interface{}, value interface{}) error {
			v := reflect.ValueOf(receiver)
			for v.Kind() == reflect.Ptr {
				v = v.Elem()
			}
			if !v.CanSet() {
				return fmt.Errorf("hostreflect: field %s.%s is not addressable (pass a pointer)", structType, name)
			}
			fv := v.FieldByIndex(sf.Index)
			fv.Set(reflect.ValueOf(value).Convert(fv.Type()))
			return nil
		},
	}, true
}

func (a *DefaultAdapter) ExtensionMethods(typ reflect.Type, name string) []MethodInfo {
	return a.extMethods[typ][name]
}

func (a *DefaultAdapter) Constructors(typeName string) []ConstructorInfo {
	return a.ctors[typeName]
}

func (a *DefaultAdapter) Conversions(typ reflect.Type, kind ConversionKind) []Conversion {
	var out []Conversion
	for _, c := range a.conversions[typ] {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (a *DefaultAdapter) Indexer(typ reflect.Type) (IndexerInfo, bool) {
	idx, ok := a.indexers[typ]
	return idx, ok
}
