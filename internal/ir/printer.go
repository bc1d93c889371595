package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Printer provides pretty-printing for IR
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new IR printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the string representation of a contract
func Print(contract *Contract) string {
	p := NewPrinter()
	p.printContract(contract)
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

// printContract prints the entire contract
func (p *Printer) printContract(c *Contract) {
	if len(c.Extensions) > 0 {
		p.writeLine("CONTRACT %s EXTENDS %s (IR)", c.Name, strings.Join(c.Extensions, ", "))
	} else {
		p.writeLine("CONTRACT %s (IR)", c.Name)
	}
	p.indent++

	for _, ev := range c.Events {
		p.writeLine("EVENT %s(%s)", ev.Name, paramsString(ev.Params))
	}

	for _, v := range c.Variables {
		flags := v.Visibility.String()
		if v.Immutable {
			flags += " immutable"
		}
		if v.Initializer != nil {
			p.writeLine("VAR %s %s: %s = %s", flags, v.Name, v.Type, ExpressionString(v.Initializer))
		} else {
			p.writeLine("VAR %s %s: %s", flags, v.Name, v.Type)
		}
	}

	if c.Constructor != nil {
		p.writeLine("CONSTRUCTOR(%s) {", paramsString(c.Constructor.Params))
		p.printBody(c.Constructor.Body)
		p.writeLine("}")
	}

	for _, m := range c.Methods {
		p.writeLine("FN %s %s %s(%s): %s {", m.Visibility, m.Mutability, m.Name, paramsString(m.Params), typeString(m.Return))
		p.printBody(m.Body)
		p.writeLine("}")
	}

	p.indent--
}

func (p *Printer) printBody(stmts []Statement) {
	p.indent++
	for _, s := range stmts {
		p.printStatement(s)
	}
	p.indent--
}

func (p *Printer) printStatement(s Statement) {
	switch s := s.(type) {
	case *StorageUpdate:
		p.writeLine("this.%s = %s", s.Property, ExpressionString(s.Value))
	case *VariableDeclaration:
		if s.Value == nil {
			p.writeLine("let %s: %s", s.Name, typeString(s.Type))
		} else {
			p.writeLine("let %s: %s = %s", s.Name, typeString(s.Type), ExpressionString(s.Value))
		}
	case *VariableUpdate:
		p.writeLine("%s = %s", s.Name, ExpressionString(s.Value))
	case *MappingUpdate:
		p.writeLine("this.%s%s = %s", s.Property, indicesString(s.Indices), ExpressionString(s.Value))
	case *Return:
		if s.Value == nil {
			p.writeLine("return")
		} else {
			p.writeLine("return %s", ExpressionString(s.Value))
		}
	case *If:
		p.writeLine("if %s {", ExpressionString(s.Condition))
		p.printBody(s.Then)
		if len(s.Else) > 0 {
			p.writeLine("} else {")
			p.printBody(s.Else)
		}
		p.writeLine("}")
	case *Throw:
		p.writeLine("throw %s", ExpressionString(s.Message))
	case *EmitEvent:
		p.writeLine("emit %s(%s)", s.Event, listString(s.Args))
	case *ExpressionStatement:
		p.writeLine("%s", ExpressionString(s.Value))
	case *Ignore:
		p.writeLine("ignore")
	default:
		p.writeLine("<unknown statement %T>", s)
	}
}

// ExpressionString renders e in source-like form.
func ExpressionString(e Expression) string {
	switch e := e.(type) {
	case nil:
		return "<nil>"
	case *Value:
		if _, ok := e.Type.(StringType); ok {
			return strconv.Quote(e.Literal)
		}
		return e.Literal
	case *Variable:
		return e.Name
	case *Storage:
		return "this." + e.Name
	case *MappingAccess:
		return "this." + e.Property + indicesString(e.Indices)
	case *Binary:
		return "(" + ExpressionString(e.Left) + " " + e.Op.String() + " " + ExpressionString(e.Right) + ")"
	case *Not:
		return "!" + ExpressionString(e.Value)
	case *This:
		return "this"
	case *External:
		return e.Contract + ".at(" + ExpressionString(e.Address) + ")"
	case *Deploy:
		return "new " + e.Contract + "(" + listString(e.Args) + ")"
	case *Call:
		return ExpressionString(e.Receiver) + "." + e.Target + "(" + listString(e.Args) + ")"
	case *Conditional:
		return "(" + ExpressionString(e.Condition) + " ? " + ExpressionString(e.Then) + " : " + ExpressionString(e.Else) + ")"
	case *EvmDialect:
		return e.Environment + "." + e.Member
	case *Length:
		return "this." + e.Property + ".length"
	case *InterfaceValue:
		fields := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = e.Interface.Fields[i].Name + ": " + ExpressionString(f)
		}
		return e.Interface.Name + "{" + strings.Join(fields, ", ") + "}"
	case *Hash:
		return "keccak256(" + listString(e.Inputs) + ")"
	default:
		return fmt.Sprintf("<unknown expression %T>", e)
	}
}

func typeString(t Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

func paramsString(params []*Parameter) string {
	parts := make([]string, len(params))
	for i, param := range params {
		parts[i] = param.Name + ": " + typeString(param.Type)
	}
	return strings.Join(parts, ", ")
}

func listString(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = ExpressionString(e)
	}
	return strings.Join(parts, ", ")
}

func indicesString(indices []Expression) string {
	var b strings.Builder
	for _, idx := range indices {
		b.WriteString("[" + ExpressionString(idx) + "]")
	}
	return b.String()
}

func (c *Contract) String() string { return Print(c) }
