package lower

import (
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

// Normalize removes every conditional expression from stmt. Each
// `c ? t : f` becomes a temporary declared with f, an If on c that assigns
// t, and a read of the temporary in place of the original expression.
// Statements without conditionals come back structurally unchanged, so
// normalizing twice equals normalizing once.
func Normalize(stmt ir.Statement, scope Scope) ([]ir.Statement, error) {
	n := &normalizer{scope: scope, temps: map[string]ir.Type{}}
	return n.statement(stmt)
}

// NormalizeAll normalizes a statement list.
func NormalizeAll(stmts []ir.Statement, scope Scope) ([]ir.Statement, error) {
	n := &normalizer{scope: scope, temps: map[string]ir.Type{}}
	return n.statements(stmts)
}

type normalizer struct {
	scope Scope
	// temps holds the types of temporaries introduced so far.
	temps map[string]ir.Type
}

func (n *normalizer) statements(stmts []ir.Statement) ([]ir.Statement, error) {
	var out []ir.Statement
	for _, s := range stmts {
		lowered, err := n.statement(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	return out, nil
}

func (n *normalizer) statement(stmt ir.Statement) ([]ir.Statement, error) {
	switch s := stmt.(type) {
	case *ir.StorageUpdate:
		pre, value, err := n.expression(s.Value)
		if err != nil {
			return nil, err
		}
		return append(pre, &ir.StorageUpdate{Node: s.Node, Property: s.Property, Value: value}), nil

	case *ir.VariableDeclaration:
		if s.Value == nil {
			return []ir.Statement{s}, nil
		}
		pre, value, err := n.expression(s.Value)
		if err != nil {
			return nil, err
		}
		return append(pre, &ir.VariableDeclaration{Node: s.Node, Name: s.Name, Type: s.Type, Value: value}), nil

	case *ir.VariableUpdate:
		pre, value, err := n.expression(s.Value)
		if err != nil {
			return nil, err
		}
		return append(pre, &ir.VariableUpdate{Node: s.Node, Name: s.Name, Value: value}), nil

	case *ir.MappingUpdate:
		pre, indices, err := n.expressions(s.Indices)
		if err != nil {
			return nil, err
		}
		valuePre, value, err := n.expression(s.Value)
		if err != nil {
			return nil, err
		}
		pre = append(pre, valuePre...)
		return append(pre, &ir.MappingUpdate{Node: s.Node, Property: s.Property, Indices: indices, Value: value}), nil

	case *ir.Return:
		if s.Value == nil {
			return []ir.Statement{s}, nil
		}
		pre, value, err := n.expression(s.Value)
		if err != nil {
			return nil, err
		}
		return append(pre, &ir.Return{Node: s.Node, Value: value}), nil

	case *ir.If:
		pre, cond, err := n.expression(s.Condition)
		if err != nil {
			return nil, err
		}
		then, err := n.statements(s.Then)
		if err != nil {
			return nil, err
		}
		els, err := n.statements(s.Else)
		if err != nil {
			return nil, err
		}
		return append(pre, &ir.If{Node: s.Node, Condition: cond, Then: then, Else: els}), nil

	case *ir.Throw:
		pre, msg, err := n.expression(s.Message)
		if err != nil {
			return nil, err
		}
		return append(pre, &ir.Throw{Node: s.Node, Message: msg}), nil

	case *ir.EmitEvent:
		pre, args, err := n.expressions(s.Args)
		if err != nil {
			return nil, err
		}
		return append(pre, &ir.EmitEvent{Node: s.Node, Event: s.Event, Args: args}), nil

	case *ir.ExpressionStatement:
		pre, value, err := n.expression(s.Value)
		if err != nil {
			return nil, err
		}
		return append(pre, &ir.ExpressionStatement{Node: s.Node, Value: value}), nil

	case *ir.Ignore:
		return []ir.Statement{s}, nil

	default:
		return nil, errors.Unsupported(stmt.Position(), "", "unknown statement %T", stmt)
	}
}

func (n *normalizer) expressions(exprs []ir.Expression) ([]ir.Statement, []ir.Expression, error) {
	if exprs == nil {
		return nil, nil, nil
	}
	var pre []ir.Statement
	out := make([]ir.Expression, 0, len(exprs))
	for _, e := range exprs {
		p, lowered, err := n.expression(e)
		if err != nil {
			return nil, nil, err
		}
		pre = append(pre, p...)
		out = append(out, lowered)
	}
	return pre, out, nil
}

// expression returns the statements to run before e and its replacement.
func (n *normalizer) expression(expr ir.Expression) ([]ir.Statement, ir.Expression, error) {
	switch e := expr.(type) {
	case *ir.Value, *ir.Variable, *ir.Storage, *ir.This, *ir.EvmDialect, *ir.Length:
		return nil, e, nil

	case *ir.MappingAccess:
		pre, indices, err := n.expressions(e.Indices)
		if err != nil {
			return nil, nil, err
		}
		return pre, &ir.MappingAccess{Node: e.Node, Property: e.Property, Indices: indices}, nil

	case *ir.Binary:
		pre, operands, err := n.expressions([]ir.Expression{e.Left, e.Right})
		if err != nil {
			return nil, nil, err
		}
		return pre, &ir.Binary{Node: e.Node, Op: e.Op, Left: operands[0], Right: operands[1]}, nil

	case *ir.Not:
		pre, value, err := n.expression(e.Value)
		if err != nil {
			return nil, nil, err
		}
		return pre, &ir.Not{Node: e.Node, Value: value}, nil

	case *ir.External:
		pre, addr, err := n.expression(e.Address)
		if err != nil {
			return nil, nil, err
		}
		return pre, &ir.External{Node: e.Node, Contract: e.Contract, Address: addr}, nil

	case *ir.Deploy:
		pre, args, err := n.expressions(e.Args)
		if err != nil {
			return nil, nil, err
		}
		return pre, &ir.Deploy{Node: e.Node, Contract: e.Contract, Args: args}, nil

	case *ir.Call:
		pre, receiver, err := n.expression(e.Receiver)
		if err != nil {
			return nil, nil, err
		}
		argPre, args, err := n.expressions(e.Args)
		if err != nil {
			return nil, nil, err
		}
		return append(pre, argPre...), &ir.Call{Node: e.Node, Target: e.Target, Receiver: receiver, Args: args}, nil

	case *ir.InterfaceValue:
		pre, fields, err := n.expressions(e.Fields)
		if err != nil {
			return nil, nil, err
		}
		return pre, &ir.InterfaceValue{Node: e.Node, Interface: e.Interface, Fields: fields}, nil

	case *ir.Hash:
		pre, inputs, err := n.expressions(e.Inputs)
		if err != nil {
			return nil, nil, err
		}
		return pre, &ir.Hash{Node: e.Node, Inputs: inputs}, nil

	case *ir.Conditional:
		return n.extract(e)

	default:
		return nil, nil, errors.Unsupported(expr.Position(), "", "unknown expression %T", expr)
	}
}

func (n *normalizer) extract(e *ir.Conditional) ([]ir.Statement, ir.Expression, error) {
	pre, cond, err := n.expression(e.Condition)
	if err != nil {
		return nil, nil, err
	}
	thenPre, then, err := n.expression(e.Then)
	if err != nil {
		return nil, nil, err
	}
	elsePre, els, err := n.expression(e.Else)
	if err != nil {
		return nil, nil, err
	}

	temp := n.scope.Namer.Next()
	typ := n.typeOf(els)
	if ir.IsVoid(typ) {
		typ = n.typeOf(then)
	}
	n.temps[temp] = typ

	pre = append(pre, elsePre...)
	pre = append(pre,
		&ir.VariableDeclaration{Node: e.Node, Name: temp, Type: typ, Value: els},
		&ir.If{
			Node:      e.Node,
			Condition: cond,
			Then:      append(thenPre, &ir.VariableUpdate{Node: e.Node, Name: temp, Value: then}),
		},
	)
	return pre, &ir.Variable{Node: e.Node, Name: temp}, nil
}

func (n *normalizer) typeOf(e ir.Expression) ir.Type {
	if v, ok := e.(*ir.Variable); ok {
		if typ, ok := n.temps[v.Name]; ok {
			return typ
		}
	}
	return TypeOf(e, n.scope)
}
