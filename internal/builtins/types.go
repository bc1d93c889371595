package builtins

// BuiltinType represents the type keywords recognized in contract sources
type BuiltinType string

const (
	Number  BuiltinType = "number"
	Boolean BuiltinType = "boolean"
	String  BuiltinType = "string"
	Void    BuiltinType = "void"

	// Named references provided by the tsevm module
	Address BuiltinType = "address"
	Bytes   BuiltinType = "bytes"

	// Generic references
	Record BuiltinType = "Record"
	Array  BuiltinType = "Array"
	Event  BuiltinType = "Event"
)

// BuiltinTypes contains all valid built-in types
var BuiltinTypes = map[string]bool{
	string(Number):  true,
	string(Boolean): true,
	string(String):  true,
	string(Void):    true,
	string(Address): true,
	string(Bytes):   true,
	string(Record):  true,
	string(Array):   true,
	string(Event):   true,
}

// IsBuiltinType checks if a type name is a built-in type
func IsBuiltinType(typeName string) bool {
	return BuiltinTypes[typeName]
}

// IsGenericType checks if a type takes generic arguments
func IsGenericType(typeName string) bool {
	switch BuiltinType(typeName) {
	case Record, Array, Event:
		return true
	default:
		return false
	}
}

// GenericArity returns the number of generic arguments a built-in takes
func GenericArity(typeName string) int {
	switch BuiltinType(typeName) {
	case Record:
		return 2
	case Array, Event:
		return 1
	default:
		return 0
	}
}
