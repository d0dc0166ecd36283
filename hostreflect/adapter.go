// Package hostreflect implements spec.md §6's Host Reflection Adapter
// contract: given a host type, answer what members/methods/constructors/
// conversions/indexers it exposes, and invoke them.
//
// Go's reflect package already answers "what instance methods and fields
// does this type have" without any registration step, which is the
// reflection-driven dispatch spec.md §4.2 and §9 call for. Go's reflect
// cannot, however, enumerate free functions meant as constructors or
// extension methods, or recover a type from a bare name — those need a
// small registration API, exactly as spec.md §9 anticipates for hosts
// without rich runtime reflection. Adapter therefore mixes both: instance
// member lookup is pure reflect.Type introspection, while constructors,
// extension methods, conversions, and indexers are registered once by the
// host at startup via DefaultAdapter's Register* methods.
package hostreflect

import "reflect"

// ConversionKind distinguishes implicit (auto-inserted by the compiler)
// from explicit (cast-only) conversions, per spec.md's GLOSSARY.
type ConversionKind int

const (
	Implicit ConversionKind = iota
	Explicit
)

// Conversion is a single registered or builtin conversion from one type
// to another.
type Conversion struct {
	From reflect.Type
	To   reflect.Type
	Kind ConversionKind
	Fn   func(interface{}) (interface{}, error)
}

// MethodInfo describes a resolved callable member: an instance method, a
// static method, or an extension method. Invoke handles receiver binding
// so the vm package never needs to know which case it is.
type MethodInfo struct {
	Name       string
	ParamTypes []reflect.Type
	ReturnType reflect.Type // nil means void
	IsStatic   bool
	Invoke     func(receiver interface{}, args []interface{}) (interface{}, error)
}

// FieldInfo describes a resolved property or field member.
type FieldInfo struct {
	Name     string
	Type     reflect.Type
	IsStatic bool
	Get      func(receiver interface{}) (interface{}, error)
	Set      func(receiver interface{}, value interface{}) error
}

// ConstructorInfo describes one overload of a registered constructor.
type ConstructorInfo struct {
	TypeName   string
	ParamTypes []reflect.Type
	Invoke     func(args []interface{}) (interface{}, error)
}

// IndexerInfo describes a type's indexed get/set ("Item" property in
// spec.md §6's terms), including multi-argument indexers (spec.md §8
// scenario 7's 2D array).
type IndexerInfo struct {
	ParamTypes []reflect.Type
	ElemType   reflect.Type
	Get        func(receiver interface{}, idx []interface{}) (interface{}, error)
	Set        func(receiver interface{}, idx []interface{}, value interface{}) error
}

// Adapter is the compiler's sole window onto host types. The vm package
// never implements or calls it directly — only the compiler does, per
// spec.md §4's "the evaluator never reflects".
type Adapter interface {
	// ResolveType returns the reflect.Type registered under a host type
	// name, for "new T(...)", "(T)x", and bare-type static-member
	// references.
	ResolveType(name string) (reflect.Type, bool)

	// Methods returns every overload of name found on typ: its instance
	// methods via typ's reflect method set when static is false, its
	// registered static methods when static is true.
	Methods(typ reflect.Type, name string, static bool) []MethodInfo

	// Field returns the property or field named name on typ, if any.
	Field(typ reflect.Type, name string) (FieldInfo, bool)

	// ExtensionMethods returns registered extension methods named name
	// whose first parameter accepts typ.
	ExtensionMethods(typ reflect.Type, name string) []MethodInfo

	// Constructors returns every registered constructor overload for the
	// named host type.
	Constructors(typeName string) []ConstructorInfo

	// Conversions returns every registered conversion from typ of the
	// given kind.
	Conversions(typ reflect.Type, kind ConversionKind) []Conversion

	// Indexer returns typ's indexer, if any.
	Indexer(typ reflect.Type) (IndexerInfo, bool)
}
