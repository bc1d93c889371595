package ir

import (
	"fmt"
)

// Interface is a named record type. Immutable once extracted.
type Interface struct {
	Name   string
	Fields []*Parameter
}

// Field returns the index of the named field, or -1.
func (i *Interface) Field(name string) int {
	for idx, f := range i.Fields {
		if f.Name == name {
			return idx
		}
	}
	return -1
}

type Parameter struct {
	Name string
	Type Type
}

type Visibility int

const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// Mutability is assigned by the mutability analyzer.
type Mutability int

const (
	MutabilityUnknown Mutability = iota
	View
	Payable
)

func (m Mutability) String() string {
	switch m {
	case View:
		return "view"
	case Payable:
		return "payable"
	default:
		return "unknown"
	}
}

type Method struct {
	Node
	Name       string
	Return     Type
	Visibility Visibility
	Mutability Mutability
	Params     []*Parameter
	Body       []Statement
}

type Constructor struct {
	Node
	Params []*Parameter
	Body   []Statement
}

// Property is a contract state variable.
type Property struct {
	Node
	Name        string
	Type        Type
	Initializer Expression
	Visibility  Visibility
	Immutable   bool
}

// Event is a loggable record whose parameters come from one Interface.
type Event struct {
	Node
	Name      string
	Interface *Interface
	Params    []*Parameter
}

// Contract is one lowered class.
type Contract struct {
	Node
	Name        string
	File        string
	Extensions  []string
	Constructor *Constructor
	Variables   []*Property
	Methods     []*Method
	Events      []*Event
	Interfaces  map[string]*Interface
	Constants   map[string]Expression
}

func (c *Contract) Variable(name string) *Property {
	for _, v := range c.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func (c *Contract) Method(name string) *Method {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (c *Contract) Event(name string) *Event {
	for _, e := range c.Events {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// MethodNames lists method names in declaration order.
func (c *Contract) MethodNames() []string {
	names := make([]string, len(c.Methods))
	for i, m := range c.Methods {
		names[i] = m.Name
	}
	return names
}

// Namer hands out deterministic temporary names for one compilation.
type Namer struct {
	prefix string
	next   int
}

func NewNamer(prefix string) *Namer {
	return &Namer{prefix: prefix}
}

// Next returns prefix_0, prefix_1, ...
func (n *Namer) Next() string {
	name := fmt.Sprintf("%s_%d", n.prefix, n.next)
	n.next++
	return name
}
