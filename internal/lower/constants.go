package lower

import (
	"tsevm/grammar"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

// ExtractConstants lowers the top-level const bindings of a file in source
// order. A constant may refer to constants declared before it; reads of a
// constant are later replaced by its value.
func ExtractConstants(program *grammar.Program, scope Scope) (map[string]ir.Expression, error) {
	constants := map[string]ir.Expression{}
	for _, el := range program.Elements {
		decl := el.Constant
		if decl == nil {
			continue
		}
		if _, dup := constants[decl.Name]; dup {
			return nil, errors.Structural(decl.Pos, errors.ErrorDuplicateDeclaration,
				"constant '%s' is declared twice", decl.Name)
		}
		if decl.Kind != "const" {
			return nil, errors.Unsupported(decl.Pos, "let "+decl.Name, "top-level bindings must be const")
		}

		value, err := LowerExpression(decl.Value, scope)
		if err != nil {
			return nil, err
		}
		if ir.ContainsConditional([]ir.Statement{&ir.ExpressionStatement{Value: value}}) {
			return nil, errors.Unsupported(decl.Value.Pos, decl.Value.String(), "constants cannot use conditional expressions")
		}
		if decl.Type != nil {
			if value, err = annotateLiteral(value, decl.Type, scope); err != nil {
				return nil, err
			}
		}
		constants[decl.Name] = value
		scope = scope.WithConstant(decl.Name, value)
	}
	return constants, nil
}

// annotateLiteral applies an explicit annotation to a literal value.
func annotateLiteral(value ir.Expression, annotation *grammar.TypeRef, scope Scope) (ir.Expression, error) {
	lit, ok := value.(*ir.Value)
	if !ok {
		return value, nil
	}
	typ, err := ResolveType(annotation, scope, lit.Literal)
	if err != nil {
		return nil, err
	}
	if !ir.IsWord(typ) {
		return nil, errors.UnsupportedType(annotation.Pos, annotation.String())
	}
	out := *lit
	out.Type = typ
	return &out, nil
}
