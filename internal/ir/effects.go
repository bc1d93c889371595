package ir

// Effects describe the observable side effects of statements.
// The mutability analyzer classifies methods from them.

// Effect represents one side effect of a statement
type Effect interface {
	EffectKind() string
}

// StorageEffect represents effects on contract storage
type StorageEffect struct {
	Type     string // "read" or "write"
	Property string
}

func (s *StorageEffect) EffectKind() string { return "storage" }

// LogEffect is an emitted event
type LogEffect struct {
	Event string
}

func (l *LogEffect) EffectKind() string { return "log" }

// CallEffect is a method call. Internal calls target the executing contract.
type CallEffect struct {
	Target   string
	Internal bool
	Call     *Call
}

func (c *CallEffect) EffectKind() string { return "call" }

// CreateEffect is a contract deployment
type CreateEffect struct {
	Contract string
}

func (c *CreateEffect) EffectKind() string { return "create" }

// PureEffect indicates no side effects
type PureEffect struct{}

func (p *PureEffect) EffectKind() string { return "pure" }

// GetEffects returns the effects of s, including those of nested If branches
// and of every expression it evaluates.
func GetEffects(s Statement) []Effect {
	var effects []Effect
	InspectStatements([]Statement{s}, func(st Statement) bool {
		switch st := st.(type) {
		case *StorageUpdate:
			effects = append(effects, &StorageEffect{Type: "write", Property: st.Property})
		case *MappingUpdate:
			effects = append(effects, &StorageEffect{Type: "write", Property: st.Property})
		case *EmitEvent:
			effects = append(effects, &LogEffect{Event: st.Event})
		}
		for _, e := range Operands(st) {
			effects = append(effects, expressionEffects(e)...)
		}
		return true
	})
	if len(effects) == 0 {
		return []Effect{&PureEffect{}}
	}
	return effects
}

func expressionEffects(e Expression) []Effect {
	var effects []Effect
	InspectExpression(e, func(e Expression) bool {
		switch e := e.(type) {
		case *Storage:
			effects = append(effects, &StorageEffect{Type: "read", Property: e.Name})
		case *MappingAccess:
			effects = append(effects, &StorageEffect{Type: "read", Property: e.Property})
		case *Length:
			effects = append(effects, &StorageEffect{Type: "read", Property: e.Property})
		case *Call:
			_, internal := e.Receiver.(*This)
			effects = append(effects, &CallEffect{Target: e.Target, Internal: internal, Call: e})
		case *Deploy:
			effects = append(effects, &CreateEffect{Contract: e.Contract})
		}
		return true
	})
	return effects
}

// Mutates reports whether any effect writes contract storage. Logs,
// deployments and calls are not writes.
func Mutates(effects []Effect) bool {
	for _, eff := range effects {
		if s, ok := eff.(*StorageEffect); ok && s.Type == "write" {
			return true
		}
	}
	return false
}
