package lower

import (
	"slices"

	"github.com/alecthomas/participle/v2/lexer"

	"tsevm/grammar"
	"tsevm/internal/builtins"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

// CollectEvents builds the events a class declares as Event<I> properties.
func CollectEvents(class *grammar.Class, scope Scope) ([]*ir.Event, error) {
	var events []*ir.Event
	for _, member := range class.Members {
		prop := member.Property
		if prop == nil || !isEventType(prop.Type) {
			continue
		}
		arg := prop.Type.Generics
		if len(arg) != 1 || len(arg[0].Generics) > 0 || len(arg[0].Array) > 0 {
			return nil, errors.Structural(prop.Type.Pos, errors.ErrorStructural, "Event takes one interface type argument")
		}
		iface, ok := scope.Interfaces[arg[0].Name]
		if !ok {
			return nil, errors.Unresolved(arg[0].Pos, "interface", arg[0].Name, scope.interfaceNames())
		}
		events = append(events, &ir.Event{Node: node(prop.Pos), Name: prop.Name, Interface: iface, Params: iface.Fields})
	}
	return events, nil
}

// InheritedEvents gathers the events of every transitive base of class.
// bases maps each class name to its extends list and declared maps it to the
// events the class declares itself. Unknown bases are skipped; the flattener
// reports them.
func InheritedEvents(class string, bases map[string][]string, declared map[string][]*ir.Event) map[string]*ir.Event {
	out := map[string]*ir.Event{}
	seen := map[string]bool{class: true}
	queue := append([]string{}, bases[class]...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		for _, ev := range declared[name] {
			if _, ok := out[ev.Name]; !ok {
				out[ev.Name] = ev
			}
		}
		queue = append(queue, bases[name]...)
	}
	return out
}

func isEventType(t *grammar.TypeRef) bool {
	return t != nil && t.Name == string(builtins.Event) && len(t.Array) == 0
}

func isPrivate(modifiers []string) bool {
	return slices.Contains(modifiers, "private") || slices.Contains(modifiers, "protected")
}

func visibility(modifiers []string) ir.Visibility {
	if isPrivate(modifiers) {
		return ir.Private
	}
	return ir.Public
}

// BuildContract lowers one class. scope.Events must already hold the events
// the class inherits; the class's own events are added here.
func BuildContract(class *grammar.Class, file string, scope Scope) (*ir.Contract, error) {
	events, err := CollectEvents(class, scope)
	if err != nil {
		return nil, err
	}
	own := map[string]*ir.Event{}
	for _, ev := range events {
		if _, dup := own[ev.Name]; dup {
			return nil, errors.Structural(ev.Pos, errors.ErrorDuplicateDeclaration, "event '%s' is declared twice", ev.Name)
		}
		own[ev.Name] = ev
	}

	props, err := propertyTypes(class, scope)
	if err != nil {
		return nil, err
	}
	scope = scope.WithEvents(own).WithProperties(props)

	contract := &ir.Contract{
		Node:       node(class.Pos),
		Name:       class.Name,
		File:       file,
		Extensions: class.Extends,
		Events:     events,
		Interfaces: scope.Interfaces,
		Constants:  scope.Constants,
	}

	names := map[string]bool{}
	declare := func(pos lexer.Position, name string) error {
		if names[name] {
			return errors.Structural(pos, errors.ErrorDuplicateDeclaration, "member '%s' is declared twice in '%s'", name, class.Name)
		}
		names[name] = true
		return nil
	}

	for _, member := range class.Members {
		if slices.Contains(member.Modifiers, "static") {
			return nil, errors.Unsupported(member.Pos, "static", "static members are not supported")
		}
		switch {
		case member.Constructor != nil:
			if contract.Constructor != nil {
				return nil, errors.Structural(member.Pos, errors.ErrorDuplicateDeclaration, "class '%s' has more than one constructor", class.Name)
			}
			if contract.Constructor, err = buildConstructor(member.Constructor, scope); err != nil {
				return nil, err
			}

		case member.Method != nil:
			if err := declare(member.Pos, member.Method.Name); err != nil {
				return nil, err
			}
			m, err := buildMethod(member.Method, visibility(member.Modifiers), scope)
			if err != nil {
				return nil, err
			}
			contract.Methods = append(contract.Methods, m)

		case member.Property != nil && isEventType(member.Property.Type):
			continue

		case member.Property != nil && member.Property.Initializer != nil && member.Property.Initializer.Arrow != nil:
			if err := declare(member.Pos, member.Property.Name); err != nil {
				return nil, err
			}
			m, err := buildArrow(member.Property, visibility(member.Modifiers), scope)
			if err != nil {
				return nil, err
			}
			contract.Methods = append(contract.Methods, m)

		case member.Property != nil:
			if err := declare(member.Pos, member.Property.Name); err != nil {
				return nil, err
			}
			v, err := buildProperty(member, props[member.Property.Name], scope)
			if err != nil {
				return nil, err
			}
			contract.Variables = append(contract.Variables, v)
		}
	}
	return contract, nil
}

// propertyTypes resolves the type of every data property before any body is lowered.
func propertyTypes(class *grammar.Class, scope Scope) (map[string]ir.Type, error) {
	props := map[string]ir.Type{}
	for _, member := range class.Members {
		prop := member.Property
		if prop == nil || isEventType(prop.Type) || (prop.Initializer != nil && prop.Initializer.Arrow != nil) {
			continue
		}
		if prop.Type == nil {
			if prop.Initializer == nil {
				return nil, errors.Structural(prop.Pos, errors.ErrorStructural, "property '%s' needs a type or an initializer", prop.Name)
			}
			init, err := LowerExpression(prop.Initializer.Value, scope.WithProperties(props))
			if err != nil {
				return nil, err
			}
			props[prop.Name] = TypeOf(init, scope.WithProperties(props))
			continue
		}
		literal := ""
		if prop.Initializer != nil {
			if p := postfixOf(prop.Initializer.Value); p != nil && p.Primary.Text != nil && len(p.Suffix) == 0 {
				literal = *p.Primary.Text
			}
		}
		typ, err := ResolveType(prop.Type, scope, literal)
		if err != nil {
			return nil, err
		}
		switch t := typ.(type) {
		case ir.VoidType, ir.InterfaceType:
			return nil, errors.UnsupportedType(prop.Type.Pos, prop.Type.String())
		case ir.ArrayType:
			if !ir.IsWord(t.Item) {
				return nil, errors.UnsupportedType(prop.Type.Pos, prop.Type.String())
			}
		}
		props[prop.Name] = typ
	}
	return props, nil
}

func buildProperty(member *grammar.ClassMember, typ ir.Type, scope Scope) (*ir.Property, error) {
	prop := member.Property
	v := &ir.Property{
		Node:       node(prop.Pos),
		Name:       prop.Name,
		Type:       typ,
		Visibility: visibility(member.Modifiers),
		Immutable:  slices.Contains(member.Modifiers, "readonly"),
	}
	if v.Immutable && !ir.IsWord(typ) {
		return nil, errors.Unsupported(prop.Pos, prop.Name, "readonly %s properties are not supported", typ)
	}
	if prop.Initializer == nil {
		return v, nil
	}
	if !ir.IsWord(typ) {
		return nil, errors.Unsupported(prop.Initializer.Pos, prop.Initializer.Value.String(), "%s properties cannot have an initializer", typ)
	}
	init, err := LowerExpression(prop.Initializer.Value, scope)
	if err != nil {
		return nil, err
	}
	if ir.ContainsConditional([]ir.Statement{&ir.ExpressionStatement{Value: init}}) {
		return nil, errors.Unsupported(prop.Initializer.Pos, prop.Initializer.Value.String(), "property initializers cannot use conditional expressions")
	}
	v.Initializer = retagLiteral(init, typ)
	return v, nil
}

func buildParams(params []*grammar.Param, scope Scope) ([]*ir.Parameter, Scope, error) {
	out := make([]*ir.Parameter, 0, len(params))
	for _, p := range params {
		if _, dup := scope.Locals[p.Name]; dup {
			return nil, scope, errors.Structural(p.Pos, errors.ErrorDuplicateDeclaration, "parameter '%s' is declared twice", p.Name)
		}
		typ, err := ResolveType(p.Type, scope, "")
		if err != nil {
			return nil, scope, err
		}
		if _, ok := typ.(ir.InterfaceType); ok {
			return nil, scope, errors.Unsupported(p.Type.Pos, p.Type.String(), "interface-typed parameters are not supported")
		}
		if !ir.IsWord(typ) {
			return nil, scope, errors.UnsupportedType(p.Type.Pos, p.Type.String())
		}
		out = append(out, &ir.Parameter{Name: p.Name, Type: typ})
		scope = scope.WithLocal(p.Name, typ)
	}
	return out, scope, nil
}

func buildConstructor(c *grammar.Constructor, scope Scope) (*ir.Constructor, error) {
	params, inner, err := buildParams(c.Params, scope.WithoutLocals())
	if err != nil {
		return nil, err
	}
	body, err := LowerBlock(c.Body, ir.VoidType{}, inner)
	if err != nil {
		return nil, err
	}
	return &ir.Constructor{Node: node(c.Pos), Params: params, Body: body}, nil
}

func resolveReturn(t *grammar.TypeRef, scope Scope) (ir.Type, error) {
	ret, err := ResolveType(t, scope, "")
	if err != nil {
		return nil, err
	}
	switch ret.(type) {
	case ir.ArrayType, ir.MappingType:
		return nil, errors.UnsupportedType(t.Pos, t.String())
	}
	return ret, nil
}

func buildMethod(m *grammar.Method, vis ir.Visibility, scope Scope) (*ir.Method, error) {
	params, inner, err := buildParams(m.Params, scope.WithoutLocals())
	if err != nil {
		return nil, err
	}
	ret, err := resolveReturn(m.Return, scope)
	if err != nil {
		return nil, err
	}
	body, err := LowerBlock(m.Body, ret, inner)
	if err != nil {
		return nil, err
	}
	return &ir.Method{Node: node(m.Pos), Name: m.Name, Return: ret, Visibility: vis, Params: params, Body: body}, nil
}

// buildArrow turns `name = (params) => body` into a method. An expression
// body is returned, or evaluated for effect when the method is void.
func buildArrow(prop *grammar.Property, vis ir.Visibility, scope Scope) (*ir.Method, error) {
	arrow := prop.Initializer.Arrow
	params, inner, err := buildParams(arrow.Params, scope.WithoutLocals())
	if err != nil {
		return nil, err
	}
	method := &ir.Method{Node: node(prop.Pos), Name: prop.Name, Visibility: vis, Params: params}

	if arrow.Body != nil {
		if method.Return, err = resolveReturn(arrow.Return, scope); err != nil {
			return nil, err
		}
		if method.Body, err = LowerBlock(arrow.Body, method.Return, inner); err != nil {
			return nil, err
		}
		return method, nil
	}

	if arrow.Return != nil {
		if method.Return, err = resolveReturn(arrow.Return, scope); err != nil {
			return nil, err
		}
	} else {
		value, err := LowerExpression(arrow.Value, inner)
		if err != nil {
			return nil, err
		}
		method.Return = TypeOf(value, inner)
	}

	stmt := &grammar.Statement{Pos: arrow.Value.Pos}
	if ir.IsVoid(method.Return) {
		stmt.Expression = &grammar.ExprStatement{Pos: arrow.Value.Pos, Target: arrow.Value}
	} else {
		stmt.Return = &grammar.Return{Pos: arrow.Value.Pos, Value: arrow.Value}
	}
	if method.Body, _, err = LowerStatement(stmt, method.Return, inner); err != nil {
		return nil, err
	}
	return method, nil
}
