package lower

import (
	"tsevm/grammar"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

// LowerStatement lowers one statement into a flat, conditional-free list.
// ret is the enclosing method's return type. The returned scope carries the
// locals the statement declares.
func LowerStatement(s *grammar.Statement, ret ir.Type, scope Scope) ([]ir.Statement, Scope, error) {
	stmts, next, err := lowerStatement(s, ret, scope)
	if err != nil {
		return nil, scope, err
	}
	if s.Block != nil {
		return stmts, next, nil
	}
	var out []ir.Statement
	for _, st := range stmts {
		normalized, err := Normalize(st, next)
		if err != nil {
			return nil, scope, err
		}
		out = append(out, normalized...)
	}
	return out, next, nil
}

// LowerBlock lowers a method or constructor body.
func LowerBlock(b *grammar.Block, ret ir.Type, scope Scope) ([]ir.Statement, error) {
	stmts, _, err := lowerStatements(b.Statements, ret, scope)
	return stmts, err
}

func lowerStatements(list []*grammar.Statement, ret ir.Type, scope Scope) ([]ir.Statement, Scope, error) {
	var out []ir.Statement
	for _, s := range list {
		stmts, next, err := LowerStatement(s, ret, scope)
		if err != nil {
			return nil, scope, err
		}
		out = append(out, stmts...)
		scope = next
	}
	return out, scope, nil
}

func lowerStatement(s *grammar.Statement, ret ir.Type, scope Scope) ([]ir.Statement, Scope, error) {
	switch {
	case s.Block != nil:
		// Blocks are flattened into the enclosing body; their locals stay
		// declared so a later redeclaration is reported.
		return lowerStatements(s.Block.Statements, ret, scope)
	case s.Declaration != nil:
		return lowerDeclaration(s.Declaration, scope)
	case s.If != nil:
		stmt, err := lowerIf(s.If, ret, scope)
		return one(stmt), scope, err
	case s.Return != nil:
		stmt, err := lowerReturn(s.Return, ret, scope)
		return one(stmt), scope, err
	case s.Throw != nil:
		stmt, err := lowerThrow(s.Throw, scope)
		return one(stmt), scope, err
	case s.Expression != nil:
		stmt, err := lowerExprStatement(s.Expression, scope)
		return one(stmt), scope, err
	case s.Empty:
		return nil, scope, nil
	}
	return nil, scope, errors.Unsupported(s.Pos, "", "unsupported statement")
}

func one(s ir.Statement) []ir.Statement {
	if s == nil {
		return nil
	}
	return []ir.Statement{s}
}

func lowerDeclaration(d *grammar.Declaration, scope Scope) ([]ir.Statement, Scope, error) {
	if _, exists := scope.Locals[d.Name]; exists {
		return nil, scope, errors.Structural(d.Pos, errors.ErrorDuplicateDeclaration, "variable '%s' is already declared", d.Name)
	}
	if d.Type == nil && d.Value == nil {
		return nil, scope, errors.Structural(d.Pos, errors.ErrorStructural, "variable '%s' needs a type or an initial value", d.Name)
	}

	var value ir.Expression
	if d.Value != nil {
		var err error
		if value, err = LowerExpression(d.Value, scope); err != nil {
			return nil, scope, err
		}
	}

	var typ ir.Type
	if d.Type != nil {
		literal := ""
		if v, ok := value.(*ir.Value); ok {
			literal = v.Literal
		}
		var err error
		if typ, err = ResolveType(d.Type, scope, literal); err != nil {
			return nil, scope, err
		}
		if value != nil {
			value = retagLiteral(value, typ)
		}
	} else {
		typ = TypeOf(value, scope)
	}
	if !ir.IsWord(typ) {
		return nil, scope, errors.Unsupported(d.Pos, d.Name, "local variables must hold a single value, not %s", typ)
	}

	stmt := &ir.VariableDeclaration{Node: node(d.Pos), Name: d.Name, Type: typ, Value: value}
	return []ir.Statement{stmt}, scope.WithLocal(d.Name, typ), nil
}

// retagLiteral gives a string literal the declared word type it stands for.
func retagLiteral(value ir.Expression, typ ir.Type) ir.Expression {
	lit, ok := value.(*ir.Value)
	if !ok {
		return value
	}
	if _, isString := lit.Type.(ir.StringType); !isString {
		return value
	}
	switch typ.(type) {
	case ir.BytesType, ir.AddressType:
		out := *lit
		out.Type = typ
		return &out
	}
	return value
}

func lowerIf(s *grammar.If, ret ir.Type, scope Scope) (ir.Statement, error) {
	cond, err := LowerExpression(s.Condition, scope)
	if err != nil {
		return nil, err
	}
	then, _, err := LowerStatement(s.Then, ret, scope)
	if err != nil {
		return nil, err
	}
	var els []ir.Statement
	if s.Else != nil {
		if els, _, err = LowerStatement(s.Else, ret, scope); err != nil {
			return nil, err
		}
	}
	return &ir.If{Node: node(s.Pos), Condition: cond, Then: then, Else: els}, nil
}

func lowerReturn(r *grammar.Return, ret ir.Type, scope Scope) (ir.Statement, error) {
	if r.Value == nil {
		if !ir.IsVoid(ret) {
			return nil, errors.Structural(r.Pos, errors.ErrorStructural, "missing return value of type %s", ret)
		}
		return &ir.Return{Node: node(r.Pos)}, nil
	}
	if ir.IsVoid(ret) {
		return nil, errors.Structural(r.Pos, errors.ErrorStructural, "void method cannot return a value")
	}

	if iface, ok := ret.(ir.InterfaceType); ok {
		obj := objectLiteral(r.Value)
		if obj == nil {
			return nil, errors.Unsupported(r.Value.Pos, r.Value.String(), "a %s return must be an object literal", iface.Ref.Name)
		}
		value, err := lowerObject(obj, iface.Ref, scope)
		if err != nil {
			return nil, err
		}
		return &ir.Return{Node: node(r.Pos), Value: value}, nil
	}
	if !ir.IsWord(ret) {
		return nil, errors.Unsupported(r.Pos, ret.String(), "methods cannot return %s", ret)
	}

	value, err := LowerExpression(r.Value, scope)
	if err != nil {
		return nil, err
	}
	return &ir.Return{Node: node(r.Pos), Value: retagLiteral(value, ret)}, nil
}

func lowerThrow(t *grammar.Throw, scope Scope) (ir.Statement, error) {
	p := postfixOf(t.Value)
	if p == nil || p.Primary.New == nil || p.Primary.New.Class != "Error" || len(p.Suffix) > 0 {
		return nil, errors.Unsupported(t.Value.Pos, t.Value.String(), "only 'throw new Error(message)' is supported")
	}
	args := p.Primary.New.Args.Args
	if len(args) != 1 {
		return nil, errors.Structural(t.Pos, errors.ErrorThrowArity, "Error takes exactly one argument, got %d", len(args))
	}
	msg, err := LowerExpression(args[0], scope)
	if err != nil {
		return nil, err
	}
	return &ir.Throw{Node: node(t.Pos), Message: msg}, nil
}

// postfixOf returns the single postfix expression e consists of, if any.
func postfixOf(e *grammar.Expression) *grammar.Postfix {
	if e == nil || e.Then != nil || len(e.Condition.Ops) > 0 || len(e.Condition.Left.Operators) > 0 {
		return nil
	}
	return e.Condition.Left.Value
}

func lowerExprStatement(s *grammar.ExprStatement, scope Scope) (ir.Statement, error) {
	if s.Operator != "" {
		return lowerAssignment(s, scope)
	}
	if p := postfixOf(s.Target); p != nil && p.Primary.Ident != nil && len(p.Suffix) == 1 && p.Suffix[0].Call != nil {
		switch *p.Primary.Ident {
		case "super":
			return &ir.Ignore{Node: node(s.Pos)}, nil
		case "emit":
			return lowerEmit(p, scope)
		}
	}
	value, err := LowerExpression(s.Target, scope)
	if err != nil {
		return nil, err
	}
	return &ir.ExpressionStatement{Node: node(s.Pos), Value: value}, nil
}

// lowerEmit handles emit(this.Name({...})) and emit(Name({...})).
func lowerEmit(p *grammar.Postfix, scope Scope) (ir.Statement, error) {
	args := p.Suffix[0].Call.Args
	if len(args) != 1 {
		return nil, errors.Structural(p.Pos, errors.ErrorStructural, "emit takes exactly one event, got %d", len(args))
	}
	ev := postfixOf(args[0])
	if ev == nil {
		return nil, errors.Unsupported(args[0].Pos, args[0].String(), "emit expects an event such as this.Transfer({ ... })")
	}

	var name string
	var call *grammar.Arguments
	switch {
	case ev.Primary.This && len(ev.Suffix) == 2 && ev.Suffix[0].Member != "" && ev.Suffix[1].Call != nil:
		name, call = ev.Suffix[0].Member, ev.Suffix[1].Call
	case ev.Primary.Ident != nil && len(ev.Suffix) == 1 && ev.Suffix[0].Call != nil:
		name, call = *ev.Primary.Ident, ev.Suffix[0].Call
	default:
		return nil, errors.Unsupported(ev.Pos, ev.String(), "emit expects an event such as this.Transfer({ ... })")
	}

	event, ok := scope.Events[name]
	if !ok {
		return nil, errors.UnknownEvent(ev.Pos, name, scope.eventNames())
	}
	if len(call.Args) != 1 || objectLiteral(call.Args[0]) == nil {
		return nil, errors.Unsupported(call.Pos, call.String(), "event '%s' takes one object literal", name)
	}
	record, err := lowerObject(objectLiteral(call.Args[0]), event.Interface, scope)
	if err != nil {
		return nil, err
	}
	return &ir.EmitEvent{Node: node(p.Pos), Event: name, Args: record.Fields}, nil
}

func lowerAssignment(s *grammar.ExprStatement, scope Scope) (ir.Statement, error) {
	value, err := LowerExpression(s.Value, scope)
	if err != nil {
		return nil, err
	}
	target := postfixOf(s.Target)
	if target == nil {
		return nil, errors.Unsupported(s.Target.Pos, s.Target.String(), "invalid assignment target")
	}

	// compound rewrites x op= v into x = x op v
	compound := func(current ir.Expression) ir.Expression {
		switch s.Operator {
		case "+=":
			return &ir.Binary{Node: node(s.Pos), Op: ir.Plus, Left: current, Right: value}
		case "-=":
			return &ir.Binary{Node: node(s.Pos), Op: ir.Minus, Left: current, Right: value}
		}
		return value
	}

	switch {
	case target.Primary.Ident != nil && len(target.Suffix) == 0:
		name := *target.Primary.Ident
		typ, isLocal := scope.Locals[name]
		if !isLocal {
			if _, isConst := scope.Constants[name]; isConst {
				return nil, errors.Structural(s.Pos, errors.ErrorStructural, "cannot assign to constant '%s'", name)
			}
			return nil, errors.Unresolved(target.Pos, "variable", name, localNames(scope))
		}
		current := &ir.Variable{Node: node(target.Pos), Name: name}
		return &ir.VariableUpdate{Node: node(s.Pos), Name: name, Value: retagLiteral(compound(current), typ)}, nil

	case target.Primary.This && len(target.Suffix) == 1 && target.Suffix[0].Member != "":
		name := target.Suffix[0].Member
		typ, known := scope.Properties[name]
		if known && !ir.IsWord(typ) {
			return nil, errors.Structural(s.Pos, errors.ErrorStructural, "cannot assign to %s property '%s' as a whole", typ, name)
		}
		current := &ir.Storage{Node: node(target.Pos), Name: name}
		update := compound(current)
		if known {
			update = retagLiteral(update, typ)
		}
		return &ir.StorageUpdate{Node: node(s.Pos), Property: name, Value: update}, nil

	case target.Primary.This && len(target.Suffix) > 1 && target.Suffix[0].Member != "" && allIndices(target.Suffix[1:]):
		name := target.Suffix[0].Member
		indices, err := lowerIndices(target.Suffix[1:], scope)
		if err != nil {
			return nil, err
		}
		if err := checkIndexArity(target.Pos, name, len(indices), scope); err != nil {
			return nil, err
		}
		current := &ir.MappingAccess{Node: node(target.Pos), Property: name, Indices: indices}
		return &ir.MappingUpdate{Node: node(s.Pos), Property: name, Indices: indices, Value: compound(current)}, nil
	}
	return nil, errors.Unsupported(s.Target.Pos, s.Target.String(), "invalid assignment target")
}
