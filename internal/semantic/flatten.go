package semantic

import (
	"maps"
	"sort"

	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

// Flatten copies base contract members into every contract of a build.
// Bases are flattened before the contracts extending them, so chains of any
// depth are fully merged. Declared members come first and win over inherited
// ones with the same name; when two bases declare the same name the first
// listed base wins. Constructors are not inherited.
func Flatten(contracts map[string]*ir.Contract) error {
	f := &flattener{contracts: contracts, state: map[string]visitState{}}

	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := f.visit(contracts[name], nil); err != nil {
			return err
		}
	}
	return nil
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

type flattener struct {
	contracts map[string]*ir.Contract
	state     map[string]visitState
}

func (f *flattener) visit(c *ir.Contract, path []string) error {
	switch f.state[c.Name] {
	case visited:
		return nil
	case visiting:
		cycle := append(path, c.Name)
		return errors.NewSemanticError(errors.KindStructural, errors.ErrorCycle,
			"contract '"+c.Name+"' extends itself", c.Pos).
			WithNote("extension chain: " + joinChain(cycle)).
			Err()
	}
	f.state[c.Name] = visiting

	bases := make([]*ir.Contract, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		base, ok := f.contracts[ext]
		if !ok {
			return errors.Unresolved(c.Pos, "base contract", ext, contractNames(f.contracts))
		}
		if err := f.visit(base, append(path, c.Name)); err != nil {
			return err
		}
		bases = append(bases, base)
	}

	for _, base := range bases {
		inherit(c, base)
	}
	f.state[c.Name] = visited
	return nil
}

// inherit appends the members of base that c does not already have.
func inherit(c, base *ir.Contract) {
	for _, ev := range base.Events {
		if c.Event(ev.Name) == nil {
			copied := *ev
			c.Events = append(c.Events, &copied)
		}
	}
	for _, v := range base.Variables {
		if c.Variable(v.Name) == nil && c.Method(v.Name) == nil {
			copied := *v
			c.Variables = append(c.Variables, &copied)
		}
	}
	for _, m := range base.Methods {
		if c.Method(m.Name) == nil && c.Variable(m.Name) == nil {
			copied := *m
			copied.Mutability = ir.MutabilityUnknown
			c.Methods = append(c.Methods, &copied)
		}
	}

	interfaces := maps.Clone(c.Interfaces)
	if interfaces == nil {
		interfaces = map[string]*ir.Interface{}
	}
	for name, iface := range base.Interfaces {
		if _, ok := interfaces[name]; !ok {
			interfaces[name] = iface
		}
	}
	c.Interfaces = interfaces
}

func contractNames(contracts map[string]*ir.Contract) []string {
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	return names
}

func joinChain(chain []string) string {
	out := ""
	for i, name := range chain {
		if i > 0 {
			out += " -> "
		}
		out += name
	}
	return out
}
