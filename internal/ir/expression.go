package ir

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Node carries the source position of an IR node.
type Node struct {
	Pos lexer.Position
}

func (n Node) Position() lexer.Position { return n.Pos }

// Expression is the closed set of IR expressions.
type Expression interface {
	Position() lexer.Position
	expressionNode()
}

// BinaryOp enumerates binary operators. Strict and loose equality share Equal/NotEqual.
type BinaryOp int

const (
	Plus BinaryOp = iota
	Minus
	Times
	Divide
	Modulo
	Exponent
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	And
	Or
)

var binaryOpNames = [...]string{
	Plus:         "+",
	Minus:        "-",
	Times:        "*",
	Divide:       "/",
	Modulo:       "%",
	Exponent:     "**",
	Equal:        "==",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
	And:          "&&",
	Or:           "||",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// YieldsBoolean reports whether op produces a boolean.
func (op BinaryOp) YieldsBoolean() bool {
	return op >= Equal && op <= Or
}

// Value is a literal. Literal holds the canonical source text:
// decimal or 0x-hex for numbers and addresses, "true"/"false", raw text for strings.
type Value struct {
	Node
	Type    Type
	Literal string
}

// Variable reads a local variable or parameter.
type Variable struct {
	Node
	Name string
}

// Storage reads a contract property.
type Storage struct {
	Node
	Name string
}

// MappingAccess reads a mapping or array property. Indices are ordered base-out.
type MappingAccess struct {
	Node
	Property string
	Indices  []Expression
}

type Binary struct {
	Node
	Op    BinaryOp
	Left  Expression
	Right Expression
}

type Not struct {
	Node
	Value Expression
}

// This is the executing contract, used as a call receiver or as its own address.
type This struct {
	Node
}

// External is a handle to an already deployed contract at Address.
type External struct {
	Node
	Contract string
	Address  Expression
}

// Deploy creates a new instance of Contract and yields its address.
type Deploy struct {
	Node
	Contract string
	Args     []Expression
}

// Call invokes Target on Receiver, which is a *This, *Storage or *External.
type Call struct {
	Node
	Target   string
	Receiver Expression
	Args     []Expression
}

type Conditional struct {
	Node
	Condition Expression
	Then      Expression
	Else      Expression
}

// EvmDialect reads an execution environment value such as msg.sender.
type EvmDialect struct {
	Node
	Environment string
	Member      string
}

// Length reads the length of an array property.
type Length struct {
	Node
	Property string
}

// InterfaceValue builds an interface record. Fields follow the declared field order.
type InterfaceValue struct {
	Node
	Interface *Interface
	Fields    []Expression
}

// Hash is keccak256 over the word-packed inputs.
type Hash struct {
	Node
	Inputs []Expression
}

func (*Value) expressionNode()          {}
func (*Variable) expressionNode()       {}
func (*Storage) expressionNode()        {}
func (*MappingAccess) expressionNode()  {}
func (*Binary) expressionNode()         {}
func (*Not) expressionNode()            {}
func (*This) expressionNode()           {}
func (*External) expressionNode()       {}
func (*Deploy) expressionNode()         {}
func (*Call) expressionNode()           {}
func (*Conditional) expressionNode()    {}
func (*EvmDialect) expressionNode()     {}
func (*Length) expressionNode()         {}
func (*InterfaceValue) expressionNode() {}
func (*Hash) expressionNode()           {}
