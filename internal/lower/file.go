package lower

import (
	"tsevm/grammar"
	"tsevm/internal/ir"
)

// Declarations holds the file-level names one source file contributes.
type Declarations struct {
	Interfaces map[string]*ir.Interface
	Constants  map[string]ir.Expression
	Classes    []*grammar.Class
}

// Declare extracts the interfaces and constants of program on top of the
// names already in scope, and returns the scope its classes are lowered in.
func Declare(program *grammar.Program, scope Scope) (*Declarations, Scope, error) {
	interfaces, err := ExtractInterfaces(program, scope)
	if err != nil {
		return nil, scope, err
	}
	scope = scope.WithInterfaces(interfaces)

	constants, err := ExtractConstants(program, scope)
	if err != nil {
		return nil, scope, err
	}
	scope = scope.WithConstants(constants)

	decls := &Declarations{Interfaces: interfaces, Constants: constants}
	for _, el := range program.Elements {
		if el.Class != nil {
			decls.Classes = append(decls.Classes, el.Class)
		}
	}
	return decls, scope, nil
}
