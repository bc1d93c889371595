package lower

import (
	"tsevm/grammar"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

// ExtractInterfaces collects the interface declarations of a file. Fields may
// refer to interfaces already in scope or declared anywhere in the same file,
// but every field must hold a single word.
func ExtractInterfaces(program *grammar.Program, scope Scope) (map[string]*ir.Interface, error) {
	declared := map[string]*ir.Interface{}
	var order []*grammar.Interface
	for _, el := range program.Elements {
		if el.Interface == nil {
			continue
		}
		if _, dup := declared[el.Interface.Name]; dup {
			return nil, errors.Structural(el.Interface.Pos, errors.ErrorDuplicateDeclaration,
				"interface '%s' is declared twice", el.Interface.Name)
		}
		declared[el.Interface.Name] = &ir.Interface{Name: el.Interface.Name}
		order = append(order, el.Interface)
	}

	inner := scope.WithInterfaces(declared)
	for _, decl := range order {
		iface := declared[decl.Name]
		seen := map[string]bool{}
		for _, field := range decl.Fields {
			if seen[field.Name] {
				return nil, errors.Structural(field.Pos, errors.ErrorDuplicateDeclaration,
					"field '%s' is declared twice in interface '%s'", field.Name, decl.Name)
			}
			seen[field.Name] = true
			typ, err := ResolveType(field.Type, inner, "")
			if err != nil {
				return nil, err
			}
			if !ir.IsWord(typ) {
				return nil, errors.UnsupportedType(field.Type.Pos, field.Type.String())
			}
			iface.Fields = append(iface.Fields, &ir.Parameter{Name: field.Name, Type: typ})
		}
	}
	return declared, nil
}
