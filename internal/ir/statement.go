package ir

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Statement is the closed set of IR statements.
type Statement interface {
	Position() lexer.Position
	statementNode()
}

// StorageUpdate writes a scalar property.
type StorageUpdate struct {
	Node
	Property string
	Value    Expression
}

type VariableDeclaration struct {
	Node
	Name  string
	Type  Type
	Value Expression
}

type VariableUpdate struct {
	Node
	Name  string
	Value Expression
}

// MappingUpdate writes one entry of a mapping or array property.
type MappingUpdate struct {
	Node
	Property string
	Indices  []Expression
	Value    Expression
}

// Return exits the method. Value is nil for a bare return.
type Return struct {
	Node
	Value Expression
}

type If struct {
	Node
	Condition Expression
	Then      []Statement
	Else      []Statement
}

// Throw reverts with Message.
type Throw struct {
	Node
	Message Expression
}

// EmitEvent logs Event. Args follow the event's declared parameter order.
type EmitEvent struct {
	Node
	Event string
	Args  []Expression
}

type ExpressionStatement struct {
	Node
	Value Expression
}

// Ignore is a no-op kept in place of a base constructor call.
type Ignore struct {
	Node
}

func (*StorageUpdate) statementNode()       {}
func (*VariableDeclaration) statementNode() {}
func (*VariableUpdate) statementNode()      {}
func (*MappingUpdate) statementNode()       {}
func (*Return) statementNode()              {}
func (*If) statementNode()                  {}
func (*Throw) statementNode()               {}
func (*EmitEvent) statementNode()           {}
func (*ExpressionStatement) statementNode() {}
func (*Ignore) statementNode()              {}
