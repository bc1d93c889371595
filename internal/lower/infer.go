package lower

import (
	"tsevm/internal/builtins"
	"tsevm/internal/ir"
	"tsevm/internal/stdlib"
)

// TypeOf infers the type of a lowered expression for unannotated locals and
// temporaries. Values whose type cannot be known before flattening, such as
// call results, are treated as numbers.
func TypeOf(e ir.Expression, scope Scope) ir.Type {
	switch e := e.(type) {
	case *ir.Value:
		return e.Type
	case *ir.Variable:
		if typ, ok := scope.Locals[e.Name]; ok {
			return typ
		}
	case *ir.Storage:
		if typ, ok := scope.Properties[e.Name]; ok {
			return typ
		}
	case *ir.MappingAccess:
		switch typ := scope.Properties[e.Property].(type) {
		case ir.MappingType:
			return typ.Output
		case ir.ArrayType:
			return typ.Item
		}
	case *ir.Binary:
		if e.Op.YieldsBoolean() {
			return ir.BooleanType{}
		}
	case *ir.Not:
		return ir.BooleanType{}
	case *ir.This:
		return ir.AddressType{}
	case *ir.External:
		return ir.AddressType{Contract: e.Contract}
	case *ir.Deploy:
		return ir.AddressType{Contract: e.Contract}
	case *ir.Conditional:
		return TypeOf(e.Then, scope)
	case *ir.EvmDialect:
		if m, ok := stdlib.LookupMember(e.Environment, e.Member); ok && m.Type.Name == string(builtins.Address) {
			return ir.AddressType{}
		}
	case *ir.InterfaceValue:
		return ir.InterfaceType{Ref: e.Interface}
	case *ir.Hash:
		return ir.BytesType{}
	}
	return ir.NumberType{}
}
