package abi

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"tsevm/internal/ir"
)

// Keccak256 hashes data with the pre-standard Keccak padding the EVM uses.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Signature renders the canonical form name(type,type,...).
func Signature(name string, types []ir.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = TypeName(t)
	}
	return name + "(" + strings.Join(names, ",") + ")"
}

// Selector is the first four bytes of the signature hash.
func Selector(signature string) [4]byte {
	hash := Keccak256([]byte(signature))
	var sel [4]byte
	copy(sel[:], hash[:4])
	return sel
}

// Topic is the full signature hash, used as topic 0 of an event log.
func Topic(signature string) [32]byte {
	return Keccak256([]byte(signature))
}

// SelectorHex formats a selector as a 0x-prefixed assembly literal.
func SelectorHex(signature string) string {
	sel := Selector(signature)
	return "0x" + hex.EncodeToString(sel[:])
}

func TopicHex(signature string) string {
	topic := Topic(signature)
	return "0x" + hex.EncodeToString(topic[:])
}

// AccessorInputs lists the argument types of the getter generated for v.
func AccessorInputs(v *ir.Property) []ir.Type {
	switch t := v.Type.(type) {
	case ir.MappingType:
		return t.Inputs
	case ir.ArrayType:
		return []ir.Type{ir.NumberType{}}
	default:
		return nil
	}
}

// AccessorOutput is the type the getter generated for v returns.
func AccessorOutput(v *ir.Property) ir.Type {
	switch t := v.Type.(type) {
	case ir.MappingType:
		return t.Output
	case ir.ArrayType:
		return t.Item
	default:
		return v.Type
	}
}

// ParamTypes returns the types of params in order.
func ParamTypes(params []*ir.Parameter) []ir.Type {
	types := make([]ir.Type, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return types
}

// FunctionSignatures lists the canonical signature of every externally
// callable entry point of c, accessors first, in ABI order.
func FunctionSignatures(c *ir.Contract) []string {
	var sigs []string
	for _, v := range c.Variables {
		if v.Visibility != ir.Private {
			sigs = append(sigs, Signature(v.Name, AccessorInputs(v)))
		}
	}
	for _, m := range c.Methods {
		if m.Visibility != ir.Private {
			sigs = append(sigs, Signature(m.Name, ParamTypes(m.Params)))
		}
	}
	return sigs
}

// EventSignature is the canonical signature hashed into the event topic.
func EventSignature(ev *ir.Event) string {
	return Signature(ev.Name, ParamTypes(ev.Params))
}
