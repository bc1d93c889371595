package ir

import (
	"strings"
)

// IR types for the contract model.
// Every value lives in a single EVM word except Array, Mapping and Interface,
// which only appear as property types, event payloads and return shapes.

// Type is the closed set of contract types.
type Type interface {
	String() string
	isType()
}

type VoidType struct{}

type BooleanType struct{}

type NumberType struct{}

// AddressType is an account address. Contract optionally names the contract
// class the annotation referred to, so calls through it can be resolved.
type AddressType struct {
	Contract string
}

// BytesType is a fixed 32-byte value.
type BytesType struct{}

// StringType is a short string held in one word.
type StringType struct{}

type ArrayType struct {
	Item Type
}

// MappingType maps one or more keys to a value. Inputs is never empty.
type MappingType struct {
	Inputs []Type
	Output Type
}

type InterfaceType struct {
	Ref *Interface
}

func (VoidType) isType()      {}
func (BooleanType) isType()   {}
func (NumberType) isType()    {}
func (AddressType) isType()   {}
func (BytesType) isType()     {}
func (StringType) isType()    {}
func (ArrayType) isType()     {}
func (MappingType) isType()   {}
func (InterfaceType) isType() {}

func (VoidType) String() string    { return "void" }
func (BooleanType) String() string { return "boolean" }
func (NumberType) String() string  { return "number" }
func (BytesType) String() string   { return "bytes" }
func (StringType) String() string  { return "string" }

func (t AddressType) String() string {
	if t.Contract != "" {
		return "address<" + t.Contract + ">"
	}
	return "address"
}

func (t ArrayType) String() string { return t.Item.String() + "[]" }

func (t MappingType) String() string {
	var b strings.Builder
	for _, in := range t.Inputs {
		b.WriteString("Record<")
		b.WriteString(in.String())
		b.WriteString(", ")
	}
	b.WriteString(t.Output.String())
	b.WriteString(strings.Repeat(">", len(t.Inputs)))
	return b.String()
}

func (t InterfaceType) String() string {
	if t.Ref == nil {
		return "<interface>"
	}
	return t.Ref.Name
}

// IsVoid reports whether t is absent or void.
func IsVoid(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(VoidType)
	return ok
}

// IsWord reports whether a value of type t fits in a single stack slot.
func IsWord(t Type) bool {
	switch t.(type) {
	case BooleanType, NumberType, AddressType, BytesType, StringType:
		return true
	default:
		return false
	}
}

// SameType compares two types structurally. Interfaces compare by name.
func SameType(a, b Type) bool {
	switch at := a.(type) {
	case VoidType, BooleanType, NumberType, BytesType, StringType:
		return a == b
	case AddressType:
		_, ok := b.(AddressType)
		return ok
	case ArrayType:
		bt, ok := b.(ArrayType)
		return ok && SameType(at.Item, bt.Item)
	case MappingType:
		bt, ok := b.(MappingType)
		if !ok || len(at.Inputs) != len(bt.Inputs) || !SameType(at.Output, bt.Output) {
			return false
		}
		for i := range at.Inputs {
			if !SameType(at.Inputs[i], bt.Inputs[i]) {
				return false
			}
		}
		return true
	case InterfaceType:
		bt, ok := b.(InterfaceType)
		return ok && at.Ref != nil && bt.Ref != nil && at.Ref.Name == bt.Ref.Name
	default:
		return false
	}
}
