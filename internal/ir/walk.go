package ir

// Children returns the direct sub-expressions of e.
func Children(e Expression) []Expression {
	switch e := e.(type) {
	case *MappingAccess:
		return e.Indices
	case *Binary:
		return []Expression{e.Left, e.Right}
	case *Not:
		return []Expression{e.Value}
	case *External:
		return []Expression{e.Address}
	case *Deploy:
		return e.Args
	case *Call:
		return append([]Expression{e.Receiver}, e.Args...)
	case *Conditional:
		return []Expression{e.Condition, e.Then, e.Else}
	case *InterfaceValue:
		return e.Fields
	case *Hash:
		return e.Inputs
	default:
		return nil
	}
}

// Operands returns the expressions held directly by s, excluding nested statements.
func Operands(s Statement) []Expression {
	switch s := s.(type) {
	case *StorageUpdate:
		return []Expression{s.Value}
	case *VariableDeclaration:
		if s.Value == nil {
			return nil
		}
		return []Expression{s.Value}
	case *VariableUpdate:
		return []Expression{s.Value}
	case *MappingUpdate:
		return append(append([]Expression{}, s.Indices...), s.Value)
	case *Return:
		if s.Value == nil {
			return nil
		}
		return []Expression{s.Value}
	case *If:
		return []Expression{s.Condition}
	case *Throw:
		return []Expression{s.Message}
	case *EmitEvent:
		return s.Args
	case *ExpressionStatement:
		return []Expression{s.Value}
	default:
		return nil
	}
}

// InspectExpression calls fn on e and its sub-expressions in depth-first
// order, skipping the children of any node for which fn returns false.
func InspectExpression(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, child := range Children(e) {
		InspectExpression(child, fn)
	}
}

// InspectStatements calls fn on every statement, descending into If branches.
func InspectStatements(stmts []Statement, fn func(Statement) bool) {
	for _, s := range stmts {
		if !fn(s) {
			continue
		}
		if s, ok := s.(*If); ok {
			InspectStatements(s.Then, fn)
			InspectStatements(s.Else, fn)
		}
	}
}

// InspectBody visits every expression reachable from stmts.
func InspectBody(stmts []Statement, fn func(Expression) bool) {
	InspectStatements(stmts, func(s Statement) bool {
		for _, e := range Operands(s) {
			InspectExpression(e, fn)
		}
		return true
	})
}

// ContainsConditional reports whether any Conditional remains in stmts.
func ContainsConditional(stmts []Statement) bool {
	found := false
	InspectBody(stmts, func(e Expression) bool {
		if _, ok := e.(*Conditional); ok {
			found = true
		}
		return !found
	})
	return found
}
