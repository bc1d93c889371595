package lower

import (
	"regexp"

	"tsevm/grammar"
	"tsevm/internal/builtins"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

var addressLiteral = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddressLiteral reports whether a string literal spells an account address.
func IsAddressLiteral(text string) bool {
	return addressLiteral.MatchString(text)
}

// ResolveType maps a type annotation to an IR type. A nil annotation is void.
// literal, when non-empty, is the initializing string literal: a string typed
// value that spells an address resolves to Address.
func ResolveType(node *grammar.TypeRef, scope Scope, literal string) (ir.Type, error) {
	if node == nil {
		return ir.VoidType{}, nil
	}
	base, err := resolveNamed(node, scope)
	if err != nil {
		return nil, err
	}
	if _, ok := base.(ir.StringType); ok && len(node.Array) == 0 && IsAddressLiteral(literal) {
		return ir.AddressType{}, nil
	}
	for range node.Array {
		if ir.IsVoid(base) {
			return nil, errors.UnsupportedType(node.Pos, node.String())
		}
		base = ir.ArrayType{Item: base}
	}
	return base, nil
}

func resolveNamed(node *grammar.TypeRef, scope Scope) (ir.Type, error) {
	if arity := builtins.GenericArity(node.Name); len(node.Generics) != arity {
		if builtins.IsGenericType(node.Name) || len(node.Generics) > 0 {
			return nil, errors.Structural(node.Pos, errors.ErrorStructural,
				"type '%s' expects %d type arguments, got %d", node.Name, arity, len(node.Generics))
		}
	}

	switch builtins.BuiltinType(node.Name) {
	case builtins.Number:
		return ir.NumberType{}, nil
	case builtins.Boolean:
		return ir.BooleanType{}, nil
	case builtins.String:
		return ir.StringType{}, nil
	case builtins.Void:
		return ir.VoidType{}, nil
	case builtins.Address:
		return ir.AddressType{}, nil
	case builtins.Bytes:
		return ir.BytesType{}, nil
	case builtins.Record:
		return resolveRecord(node, scope)
	case builtins.Array:
		item, err := ResolveType(node.Generics[0], scope, "")
		if err != nil {
			return nil, err
		}
		return ir.ArrayType{Item: item}, nil
	case builtins.Event:
		return nil, errors.Unsupported(node.Pos, node.String(), "Event<...> is only allowed as a property type")
	}

	if iface, ok := scope.Interfaces[node.Name]; ok {
		return ir.InterfaceType{Ref: iface}, nil
	}
	if scope.Contracts[node.Name] {
		return ir.AddressType{Contract: node.Name}, nil
	}
	return nil, errors.Unresolved(node.Pos, "type", node.Name, scope.interfaceNames())
}

// resolveRecord unwinds Record<K1, Record<K2, V>> into inputs [K1, K2] and output V.
func resolveRecord(node *grammar.TypeRef, scope Scope) (ir.Type, error) {
	key, err := ResolveType(node.Generics[0], scope, "")
	if err != nil {
		return nil, err
	}
	if !ir.IsWord(key) {
		return nil, errors.UnsupportedType(node.Generics[0].Pos, node.Generics[0].String())
	}
	value, err := ResolveType(node.Generics[1], scope, "")
	if err != nil {
		return nil, err
	}
	switch value := value.(type) {
	case ir.MappingType:
		return ir.MappingType{Inputs: append([]ir.Type{key}, value.Inputs...), Output: value.Output}, nil
	case ir.VoidType, ir.ArrayType, ir.InterfaceType:
		return nil, errors.UnsupportedType(node.Generics[1].Pos, node.Generics[1].String())
	default:
		return ir.MappingType{Inputs: []ir.Type{key}, Output: value}, nil
	}
}
