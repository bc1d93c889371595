package semantic

import (
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

// AnalyzeMutability classifies every method of c as view or payable.
//
// A method is payable when it returns void, when its own body writes storage
// or a mapping, or when it can reach such a method through calls on this, in
// any position. Everything else is view, including methods that only emit
// events, deploy or call other contracts.
// A view method that can reach itself has no base case and is rejected.
func AnalyzeMutability(c *ir.Contract) error {
	a := &mutabilityAnalyzer{
		contract: c,
		calls:    map[string][]string{},
		direct:   map[string]bool{},
	}
	if err := a.collect(); err != nil {
		return err
	}

	for _, m := range c.Methods {
		if a.reaches(m.Name, func(name string) bool { return a.direct[name] }) {
			m.Mutability = ir.Payable
			continue
		}
		if a.reachesSelf(m.Name) {
			return errors.NewSemanticError(errors.KindStructural, errors.ErrorCycle,
				"method '"+m.Name+"' calls itself without ever changing state", m.Pos).
				WithHelp("give the recursion a state-changing branch or remove it").
				Err()
		}
		m.Mutability = ir.View
	}
	return nil
}

type mutabilityAnalyzer struct {
	contract *ir.Contract
	calls    map[string][]string
	direct   map[string]bool
}

// collect records direct payability and the internal call edges of every
// method, and checks that every internal call names a method.
func (a *mutabilityAnalyzer) collect() error {
	if ctor := a.contract.Constructor; ctor != nil {
		if _, err := a.internalCalls(ctor.Body); err != nil {
			return err
		}
	}
	for _, m := range a.contract.Methods {
		targets, err := a.internalCalls(m.Body)
		if err != nil {
			return err
		}
		a.calls[m.Name] = targets
		a.direct[m.Name] = ir.IsVoid(m.Return) || mutatesDirectly(m.Body)
	}
	return nil
}

func (a *mutabilityAnalyzer) internalCalls(body []ir.Statement) ([]string, error) {
	var targets []string
	for _, stmt := range body {
		for _, eff := range ir.GetEffects(stmt) {
			call, ok := eff.(*ir.CallEffect)
			if !ok || !call.Internal {
				continue
			}
			if a.contract.Method(call.Target) == nil {
				return nil, errors.Unresolved(call.Call.Pos, "method", call.Target, a.contract.MethodNames())
			}
			targets = append(targets, call.Target)
		}
	}
	return targets, nil
}

func mutatesDirectly(body []ir.Statement) bool {
	for _, stmt := range body {
		if ir.Mutates(ir.GetEffects(stmt)) {
			return true
		}
	}
	return false
}

// reaches reports whether start, or any method reachable from it, satisfies match.
func (a *mutabilityAnalyzer) reaches(start string, match func(string) bool) bool {
	seen := map[string]bool{}
	stack := []string{start}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if match(name) {
			return true
		}
		stack = append(stack, a.calls[name]...)
	}
	return false
}

func (a *mutabilityAnalyzer) reachesSelf(name string) bool {
	for _, callee := range a.calls[name] {
		if a.reaches(callee, func(n string) bool { return n == name }) {
			return true
		}
	}
	return false
}
