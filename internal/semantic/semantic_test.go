package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsevm/grammar"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
	"tsevm/internal/lower"
)

// lowerAll builds every class in src the way the compiler does: inherited
// events are made visible before each class is lowered.
func lowerAll(t *testing.T, src string) map[string]*ir.Contract {
	t.Helper()
	program, err := grammar.ParseString("test.ts", src)
	require.NoError(t, err)

	scope := lower.NewScope()
	bases := map[string][]string{}
	for _, el := range program.Elements {
		if el.Class != nil {
			scope.Contracts[el.Class.Name] = true
			bases[el.Class.Name] = el.Class.Extends
		}
	}
	decls, scope, err := lower.Declare(program, scope)
	require.NoError(t, err)

	declared := map[string][]*ir.Event{}
	for _, class := range decls.Classes {
		events, err := lower.CollectEvents(class, scope)
		require.NoError(t, err)
		declared[class.Name] = events
	}

	contracts := map[string]*ir.Contract{}
	for _, class := range decls.Classes {
		inherited := lower.InheritedEvents(class.Name, bases, declared)
		c, err := lower.BuildContract(class, "test.ts", scope.WithEvents(inherited))
		require.NoError(t, err)
		contracts[c.Name] = c
	}
	return contracts
}

func requireCode(t *testing.T, err error, kind errors.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	ce, ok := errors.As(err)
	require.True(t, ok, "expected a CompilerError, got %v", err)
	assert.Equal(t, kind, ce.Kind, ce.Message)
	assert.Equal(t, code, ce.Code, ce.Message)
}

func variableNames(c *ir.Contract) []string {
	names := make([]string, len(c.Variables))
	for i, v := range c.Variables {
		names[i] = v.Name
	}
	return names
}

func eventNames(c *ir.Contract) []string {
	names := make([]string, len(c.Events))
	for i, e := range c.Events {
		names[i] = e.Name
	}
	return names
}

func TestFlattenCopiesBaseMembers(t *testing.T) {
	contracts := lowerAll(t, `
interface Ping { n: number; }

class A {
    Pinged: Event<Ping>;
    x: number = 1;
    m(): number {
        return this.x;
    }
}

class B extends A {}
`)
	require.NoError(t, Flatten(contracts))

	a, b := contracts["A"], contracts["B"]
	assert.Equal(t, variableNames(a), variableNames(b))
	assert.Equal(t, a.MethodNames(), b.MethodNames())
	assert.Equal(t, eventNames(a), eventNames(b))
	assert.Contains(t, b.Interfaces, "Ping")
	assert.Nil(t, b.Constructor)

	// Inherited members are copies, so per-contract analysis never leaks back.
	assert.NotSame(t, a.Methods[0], b.Methods[0])
	assert.NotSame(t, a.Variables[0], b.Variables[0])
}

func TestFlattenSubclassWins(t *testing.T) {
	contracts := lowerAll(t, `
class A {
    x: number = 1;
    m(): number {
        return 1;
    }
}

class B extends A {
    m(): number {
        return 2;
    }
    y: number = 2;
}
`)
	require.NoError(t, Flatten(contracts))

	b := contracts["B"]
	assert.Equal(t, []string{"y", "x"}, variableNames(b))
	require.Equal(t, []string{"m"}, b.MethodNames())
	ret, ok := b.Methods[0].Body[0].(*ir.Return)
	require.True(t, ok)
	assert.Equal(t, "2", ir.ExpressionString(ret.Value))
}

func TestFlattenIsTransitive(t *testing.T) {
	contracts := lowerAll(t, `
class C extends B {
    c: number = 3;
}

class B extends A {
    b: number = 2;
}

class A {
    a: number = 1;
}
`)
	require.NoError(t, Flatten(contracts))

	assert.Equal(t, []string{"a"}, variableNames(contracts["A"]))
	assert.Equal(t, []string{"b", "a"}, variableNames(contracts["B"]))
	assert.Equal(t, []string{"c", "b", "a"}, variableNames(contracts["C"]))
}

func TestFlattenFirstBaseWins(t *testing.T) {
	contracts := lowerAll(t, `
class A {
    v: number = 1;
}

class B {
    v: boolean = true;
    w: number = 2;
}

class C extends A, B {}
`)
	require.NoError(t, Flatten(contracts))

	c := contracts["C"]
	assert.Equal(t, []string{"v", "w"}, variableNames(c))
	assert.Equal(t, ir.NumberType{}, c.Variable("v").Type)
}

func TestFlattenInheritsEvents(t *testing.T) {
	contracts := lowerAll(t, `
interface Ping { n: number; }

class A {
    Pinged: Event<Ping>;
}

class B extends A {
    ping(): void {
        emit(this.Pinged({ n: 1 }));
    }
}
`)
	require.NoError(t, Flatten(contracts))
	assert.Equal(t, []string{"Pinged"}, eventNames(contracts["B"]))
}

func TestFlattenErrors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		contracts := lowerAll(t, `
class A extends B {}
class B extends A {}
`)
		err := Flatten(contracts)
		requireCode(t, err, errors.KindStructural, errors.ErrorCycle)
		assert.Contains(t, err.Error(), "extends itself")
	})

	t.Run("self", func(t *testing.T) {
		contracts := lowerAll(t, `class A extends A {}`)
		requireCode(t, Flatten(contracts), errors.KindStructural, errors.ErrorCycle)
	})

	t.Run("missing base", func(t *testing.T) {
		contracts := lowerAll(t, `class B extends Missing {}`)
		err := Flatten(contracts)
		requireCode(t, err, errors.KindUnresolvedReference, errors.ErrorUnresolvedReference)
		assert.Contains(t, err.Error(), "Missing")
	})
}

const bank = `
interface Amount { value: number; }

class Bank {
    Deposited: Event<Amount>;
    total: number = 0;
    balances: Record<address, number>;

    read(): number {
        return this.total;
    }
    write(): number {
        this.total = 1;
        return 1;
    }
    viaCall(): number {
        return this.write();
    }
    viaHelper(): number {
        return this.double(2);
    }
    double(n: number): number {
        return n * 2;
    }
    nothing(): void {}
    setEntry(a: address): boolean {
        this.balances[a] = 1;
        return true;
    }
    log(): boolean {
        emit(this.Deposited({ value: 1 }));
        return true;
    }
    nested(c: boolean): number {
        if (c) {
            this.total = 2;
        }
        return 1;
    }
    choose(c: boolean): number {
        return c ? this.write() : 2;
    }
    countdown(n: number): number {
        if (n == 0) {
            this.total = 0;
            return 0;
        }
        return this.countdown(n - 1);
    }
    peek(a: address): number {
        return this.balances[a];
    }
}
`

func TestAnalyzeMutability(t *testing.T) {
	c := lowerAll(t, bank)["Bank"]
	require.NoError(t, AnalyzeMutability(c))

	expected := map[string]ir.Mutability{
		"read":      ir.View,
		"write":     ir.Payable,
		"viaCall":   ir.Payable,
		"viaHelper": ir.View,
		"double":    ir.View,
		"nothing":   ir.Payable,
		"setEntry":  ir.Payable,
		"log":       ir.View,
		"nested":    ir.Payable,
		"choose":    ir.Payable,
		"countdown": ir.Payable,
		"peek":      ir.View,
	}
	for name, want := range expected {
		m := c.Method(name)
		require.NotNil(t, m, name)
		assert.Equal(t, want, m.Mutability, name)
	}
}

func TestAnalyzeMutabilityAfterFlatten(t *testing.T) {
	contracts := lowerAll(t, `
class A {
    x: number = 1;
    bump(): number {
        this.x = 2;
        return 1;
    }
    get(): number {
        return this.x;
    }
}

class B extends A {
    callsBump(): number {
        return this.bump();
    }
}
`)
	require.NoError(t, Flatten(contracts))
	for _, c := range contracts {
		require.NoError(t, AnalyzeMutability(c))
	}

	b := contracts["B"]
	assert.Equal(t, ir.Payable, b.Method("callsBump").Mutability)
	assert.Equal(t, ir.Payable, b.Method("bump").Mutability)
	assert.Equal(t, ir.View, b.Method("get").Mutability)
}

func TestAnalyzeMutabilityErrors(t *testing.T) {
	t.Run("unknown call target", func(t *testing.T) {
		c := lowerAll(t, `
class A {
    run(): number {
        return this.missing();
    }
    mission(): number {
        return 1;
    }
}`)["A"]
		err := AnalyzeMutability(c)
		requireCode(t, err, errors.KindUnresolvedReference, errors.ErrorUnresolvedReference)
		ce, _ := errors.As(err)
		require.NotEmpty(t, ce.Suggestions)
		assert.Contains(t, ce.Suggestions[0].Message, "mission")
	})

	t.Run("unknown call in constructor", func(t *testing.T) {
		c := lowerAll(t, `
class A {
    constructor() {
        this.nope();
    }
}`)["A"]
		requireCode(t, AnalyzeMutability(c), errors.KindUnresolvedReference, errors.ErrorUnresolvedReference)
	})

	t.Run("view cycle", func(t *testing.T) {
		c := lowerAll(t, `
class A {
    ping(): number {
        return this.pong();
    }
    pong(): number {
        return this.ping();
    }
}`)["A"]
		requireCode(t, AnalyzeMutability(c), errors.KindStructural, errors.ErrorCycle)
	})
}

func warningCodes(warnings []errors.CompilerError) []string {
	codes := make([]string, len(warnings))
	for i, w := range warnings {
		codes[i] = w.Code
	}
	return codes
}

func TestFlowAnalyzer(t *testing.T) {
	c := lowerAll(t, `
class Flow {
    total: number = 0;

    early(): number {
        return 1;
        this.total = 2;
    }
    partial(c: boolean): number {
        if (c) {
            return 1;
        }
    }
    complete(c: boolean): number {
        if (c) {
            return 1;
        } else {
            throw new Error("no");
        }
    }
    unused(): number {
        let x: number = 1;
        return 2;
    }
    used(): number {
        let x: number = 1;
        return x;
    }
    fails(): number {
        throw new Error("never");
    }
    effect(): void {
        this.total = 1;
    }
}`)["Flow"]

	fa := NewFlowAnalyzer()
	cases := map[string][]string{
		"early":    {errors.WarningUnreachableCode},
		"partial":  {errors.WarningMissingReturn},
		"complete": {},
		"unused":   {errors.WarningUnusedVariable},
		"used":     {},
		"fails":    {},
		"effect":   {},
	}
	for name, want := range cases {
		got := fa.AnalyzeMethod(c.Method(name))
		assert.Equal(t, want, warningCodes(got), name)
		for _, w := range got {
			assert.Equal(t, errors.Warning, w.Level, name)
		}
	}

	all := fa.AnalyzeContract(c)
	assert.Len(t, all, 3)
}
