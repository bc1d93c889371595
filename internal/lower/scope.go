package lower

import (
	"maps"

	"tsevm/internal/ir"
)

// Scope is the read-only naming context for lowering one source file or class.
// With* methods return extended copies and never modify the receiver's maps.
type Scope struct {
	Interfaces map[string]*ir.Interface
	Constants  map[string]ir.Expression
	Events     map[string]*ir.Event
	// Contracts holds every class name in the build.
	Contracts map[string]bool
	// Properties holds the property types of the class being lowered.
	Properties map[string]ir.Type
	// Locals holds the parameters and local variables visible at this point.
	Locals map[string]ir.Type
	// Namer names temporaries. It is shared by every copy of a scope.
	Namer *ir.Namer
}

// NewScope returns an empty scope with a fresh temporary namer.
func NewScope() Scope {
	return Scope{
		Interfaces: map[string]*ir.Interface{},
		Constants:  map[string]ir.Expression{},
		Events:     map[string]*ir.Event{},
		Contracts:  map[string]bool{},
		Properties: map[string]ir.Type{},
		Locals:     map[string]ir.Type{},
		Namer:      ir.NewNamer("cond"),
	}
}

func (s Scope) WithInterfaces(add map[string]*ir.Interface) Scope {
	merged := maps.Clone(s.Interfaces)
	if merged == nil {
		merged = map[string]*ir.Interface{}
	}
	maps.Copy(merged, add)
	s.Interfaces = merged
	return s
}

func (s Scope) WithConstants(add map[string]ir.Expression) Scope {
	merged := maps.Clone(s.Constants)
	if merged == nil {
		merged = map[string]ir.Expression{}
	}
	maps.Copy(merged, add)
	s.Constants = merged
	return s
}

func (s Scope) WithConstant(name string, value ir.Expression) Scope {
	return s.WithConstants(map[string]ir.Expression{name: value})
}

func (s Scope) WithEvents(add map[string]*ir.Event) Scope {
	merged := maps.Clone(s.Events)
	if merged == nil {
		merged = map[string]*ir.Event{}
	}
	maps.Copy(merged, add)
	s.Events = merged
	return s
}

func (s Scope) WithProperties(props map[string]ir.Type) Scope {
	s.Properties = maps.Clone(props)
	return s
}

// WithLocal declares a parameter or local variable.
func (s Scope) WithLocal(name string, typ ir.Type) Scope {
	locals := maps.Clone(s.Locals)
	if locals == nil {
		locals = map[string]ir.Type{}
	}
	locals[name] = typ
	s.Locals = locals
	return s
}

// WithoutLocals starts a fresh method body.
func (s Scope) WithoutLocals() Scope {
	s.Locals = map[string]ir.Type{}
	return s
}

func (s Scope) interfaceNames() []string {
	names := make([]string, 0, len(s.Interfaces))
	for name := range s.Interfaces {
		names = append(names, name)
	}
	return names
}

func (s Scope) eventNames() []string {
	names := make([]string, 0, len(s.Events))
	for name := range s.Events {
		names = append(names, name)
	}
	return names
}

func (s Scope) propertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	return names
}
