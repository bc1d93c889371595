// Package abi projects contracts onto their JSON interface description and
// computes the selectors and topics the dispatcher and events rely on.
package abi

import (
	"encoding/json"
	"fmt"

	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

// Entry kinds.
const (
	Function    = "function"
	Constructor = "constructor"
	EventEntry  = "event"
)

// State mutability values.
const (
	View       = "view"
	Payable    = "payable"
	NonPayable = "nonpayable"
)

type Param struct {
	Name    string
	Type    string
	Indexed bool
}

// Entry is one element of the ABI array.
type Entry struct {
	Type            string
	Name            string
	Inputs          []Param
	Outputs         []Param
	StateMutability string
	Anonymous       bool
}

type jsonParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed *bool  `json:"indexed,omitempty"`
}

type jsonFunction struct {
	Type            string      `json:"type"`
	Name            string      `json:"name"`
	Inputs          []jsonParam `json:"inputs"`
	Outputs         []jsonParam `json:"outputs"`
	StateMutability string      `json:"stateMutability"`
}

type jsonConstructor struct {
	Type            string      `json:"type"`
	Inputs          []jsonParam `json:"inputs"`
	StateMutability string      `json:"stateMutability"`
}

type jsonEvent struct {
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Inputs    []jsonParam `json:"inputs"`
	Anonymous bool        `json:"anonymous"`
}

// MarshalJSON writes only the fields that apply to the entry's kind.
func (e Entry) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case Function:
		return json.Marshal(jsonFunction{
			Type:            e.Type,
			Name:            e.Name,
			Inputs:          jsonParams(e.Inputs, false),
			Outputs:         jsonParams(e.Outputs, false),
			StateMutability: e.StateMutability,
		})
	case Constructor:
		return json.Marshal(jsonConstructor{
			Type:            e.Type,
			Inputs:          jsonParams(e.Inputs, false),
			StateMutability: e.StateMutability,
		})
	case EventEntry:
		return json.Marshal(jsonEvent{
			Type:      e.Type,
			Name:      e.Name,
			Inputs:    jsonParams(e.Inputs, true),
			Anonymous: e.Anonymous,
		})
	}
	return nil, fmt.Errorf("abi: unknown entry type %q", e.Type)
}

func jsonParams(params []Param, event bool) []jsonParam {
	out := make([]jsonParam, len(params))
	for i, p := range params {
		out[i] = jsonParam{Name: p.Name, Type: p.Type}
		if event {
			indexed := p.Indexed
			out[i].Indexed = &indexed
		}
	}
	return out
}

// TypeName is the ABI spelling of t.
func TypeName(t ir.Type) string {
	switch t := t.(type) {
	case ir.NumberType:
		return "uint256"
	case ir.BooleanType:
		return "bool"
	case ir.AddressType:
		return "address"
	case ir.BytesType:
		return "bytes32"
	case ir.StringType:
		return "string"
	case ir.ArrayType:
		return TypeName(t.Item) + "[]"
	case ir.InterfaceType:
		return "tuple"
	default:
		return t.String()
	}
}

// Project builds the ABI of c: events, then the constructor if any, then an
// accessor per non-private variable, then every non-private method.
// Mutability must already be analyzed.
func Project(c *ir.Contract) []Entry {
	var entries []Entry

	for _, ev := range c.Events {
		entries = append(entries, Entry{
			Type:   EventEntry,
			Name:   ev.Name,
			Inputs: params(ev.Params),
		})
	}

	if c.Constructor != nil {
		entries = append(entries, Entry{
			Type:            Constructor,
			Inputs:          params(c.Constructor.Params),
			StateMutability: NonPayable,
		})
	}

	for _, v := range c.Variables {
		if v.Visibility == ir.Private {
			continue
		}
		entries = append(entries, Entry{
			Type:            Function,
			Name:            v.Name,
			Inputs:          accessorParams(v),
			Outputs:         []Param{{Type: TypeName(AccessorOutput(v))}},
			StateMutability: View,
		})
	}

	for _, m := range c.Methods {
		if m.Visibility == ir.Private {
			continue
		}
		mutability := Payable
		if m.Mutability == ir.View {
			mutability = View
		}
		entries = append(entries, Entry{
			Type:            Function,
			Name:            m.Name,
			Inputs:          params(m.Params),
			Outputs:         outputs(m.Return),
			StateMutability: mutability,
		})
	}
	return entries
}

// Marshal renders the ABI of c as indented JSON.
func Marshal(c *ir.Contract) ([]byte, error) {
	entries := Project(c)
	if entries == nil {
		entries = []Entry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

func params(ps []*ir.Parameter) []Param {
	out := make([]Param, len(ps))
	for i, p := range ps {
		out[i] = Param{Name: p.Name, Type: TypeName(p.Type)}
	}
	return out
}

func accessorParams(v *ir.Property) []Param {
	if _, ok := v.Type.(ir.ArrayType); ok {
		return []Param{{Name: "index", Type: "uint256"}}
	}
	inputs := AccessorInputs(v)
	out := make([]Param, len(inputs))
	for i, t := range inputs {
		out[i] = Param{Type: TypeName(t)}
	}
	return out
}

func outputs(ret ir.Type) []Param {
	switch t := ret.(type) {
	case nil, ir.VoidType:
		return []Param{}
	case ir.InterfaceType:
		out := make([]Param, len(t.Ref.Fields))
		for i, f := range t.Ref.Fields {
			out[i] = Param{Name: f.Name, Type: TypeName(f.Type)}
		}
		return out
	default:
		return []Param{{Type: TypeName(ret)}}
	}
}

// CheckSelectors rejects contracts whose external entry points share a
// selector, since the dispatcher could not tell them apart.
func CheckSelectors(c *ir.Contract) error {
	seen := map[[4]byte]string{}
	for _, sig := range FunctionSignatures(c) {
		sel := Selector(sig)
		if other, dup := seen[sel]; dup {
			return errors.NewSemanticError(errors.KindStructural, errors.ErrorDuplicateDeclaration,
				fmt.Sprintf("'%s' and '%s' have the same selector", other, sig), c.Pos).
				WithNote("selector " + SelectorHex(sig)).
				Err()
		}
		seen[sel] = sig
	}
	return nil
}
