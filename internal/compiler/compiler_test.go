package compiler

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsevm/internal/config"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

type abiEntry struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	StateMutability string `json:"stateMutability"`
	Inputs          []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"inputs"`
	Outputs []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"outputs"`
}

func compile(t *testing.T, src string) *Result {
	t.Helper()
	result, err := CompileSource("main.ts", src)
	require.NoError(t, err)
	return result
}

func entries(t *testing.T, a *Artifact) []abiEntry {
	t.Helper()
	var out []abiEntry
	require.NoError(t, json.Unmarshal(a.ABI, &out))
	return out
}

func requireCode(t *testing.T, err error, kind errors.Kind, code string) *errors.CompilerError {
	t.Helper()
	require.Error(t, err)
	ce, ok := errors.As(err)
	require.True(t, ok, "expected a CompilerError, got %v", err)
	assert.Equal(t, kind, ce.Kind, ce.Message)
	assert.Equal(t, code, ce.Code, ce.Message)
	return ce
}

func TestScenarioViewMethodsAndScalarAccessor(t *testing.T) {
	result := compile(t, `
class Wallet {
    balance: number = 1;

    getBalanceTimesTwo(): number {
        return this.balance * 2;
    }
}`)
	a := result.Artifact("Wallet")
	require.NotNil(t, a)

	abi := entries(t, a)
	require.Len(t, abi, 2)
	assert.Equal(t, "balance", abi[0].Name)
	assert.Equal(t, "view", abi[0].StateMutability)
	require.Len(t, abi[0].Outputs, 1)
	assert.Equal(t, "", abi[0].Outputs[0].Name)
	assert.Equal(t, "uint256", abi[0].Outputs[0].Type)
	assert.Equal(t, "getBalanceTimesTwo", abi[1].Name)
	assert.Equal(t, "view", abi[1].StateMutability)

	assert.True(t, strings.HasPrefix(a.Assembly, `object "Wallet" {`))
	assert.Contains(t, a.Assembly, `object "Wallet_deployed" {`)
	assert.Empty(t, a.Bytecode)
}

func TestScenarioMappingUpdateIsPayable(t *testing.T) {
	result := compile(t, `
class Ledger {
    balances: Record<address, number>;

    transfer(to: address, amount: number): boolean {
        this.balances[to] += amount;
        return true;
    }
}`)
	abi := entries(t, result.Artifact("Ledger"))
	require.Len(t, abi, 2)

	balances := abi[0]
	require.Len(t, balances.Inputs, 1)
	assert.Equal(t, "", balances.Inputs[0].Name)
	assert.Equal(t, "address", balances.Inputs[0].Type)

	assert.Equal(t, "transfer", abi[1].Name)
	assert.Equal(t, "payable", abi[1].StateMutability)
}

func TestEmitOnlyGetterIsView(t *testing.T) {
	result := compile(t, `
interface Seen { a: number; }

class Watch {
    Looked: Event<Seen>;
    x: number = 3;

    peek(): number {
        emit(this.Looked({ a: 1 }));
        return this.x;
    }
}`)
	abi := entries(t, result.Artifact("Watch"))
	require.Len(t, abi, 3)
	assert.Equal(t, "event", abi[0].Type)
	assert.Equal(t, "peek", abi[2].Name)
	assert.Equal(t, "view", abi[2].StateMutability)
}

func TestScenarioImmutableFromConstructor(t *testing.T) {
	result := compile(t, `
class Person {
    readonly age: number;

    constructor(age_: number) {
        this.age = age_;
    }
}`)
	a := result.Artifact("Person")
	abi := entries(t, a)
	require.Len(t, abi, 2)
	assert.Equal(t, "constructor", abi[0].Type)
	assert.Equal(t, "nonpayable", abi[0].StateMutability)
	assert.Equal(t, "age", abi[1].Name)

	assert.Contains(t, a.Assembly, `loadimmutable("age")`)
	assert.Contains(t, a.Assembly, `setimmutable(`)
	assert.NotContains(t, a.Assembly, "sload")

	_, err := CompileSource("main.ts", `
class Person {
    readonly age: number;
}`)
	requireCode(t, err, errors.KindStructural, errors.ErrorImmutableSource)
}

func TestScenarioConditionalNormalization(t *testing.T) {
	result := compile(t, `
class Pick {
    f(a: number, b: number): number {
        return a > b ? 1 : 2;
    }
}`)
	a := result.Artifact("Pick")
	body := a.Contract.Method("f").Body
	require.Len(t, body, 3)
	assert.IsType(t, &ir.VariableDeclaration{}, body[0])
	assert.IsType(t, &ir.If{}, body[1])
	assert.IsType(t, &ir.Return{}, body[2])
	assert.Equal(t, ir.View, a.Contract.Method("f").Mutability)

	assert.Contains(t, a.Assembly, "let var_cond_0 := 2")
	assert.Empty(t, result.Warnings)
}

func TestScenarioExtensionCopiesShape(t *testing.T) {
	result := compile(t, `
class A {
    x: number = 3;

    m(): number {
        return this.x;
    }
}

class B extends A {}`)
	assert.JSONEq(t, string(result.Artifact("A").ABI), string(result.Artifact("B").ABI))

	names := []string{}
	for _, a := range result.Artifacts {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestMultiFileBuild(t *testing.T) {
	c := &Compiler{Load: MapLoader(map[string]string{
		"contracts/shared/events.ts": `
export interface Deposit { who: address; amount: number; }
export const LIMIT = 1000;
`,
		"contracts/Vault.ts": `
import { msg } from "tsevm";
import { Deposit, LIMIT } from "./shared/events";

export class Vault {
    Deposited: Event<Deposit>;
    total: number;

    deposit(amount: number): void {
        if (amount > LIMIT) {
            throw new Error("too much");
        }
        this.total += amount;
        emit(this.Deposited({ who: msg.sender, amount: amount }));
    }
}`,
	})}

	result, err := c.Compile(context.Background(), "contracts/Vault.ts")
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 1)

	a := result.Artifact("Vault")
	assert.Equal(t, "contracts/Vault.ts", a.File)
	abi := entries(t, a)
	require.Len(t, abi, 3)
	assert.Equal(t, "event", abi[0].Type)
	assert.Equal(t, "Deposited", abi[0].Name)
	assert.Contains(t, a.Assembly, "emit_Deposited")
	assert.Contains(t, a.Assembly, "1000")
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		kind  errors.Kind
		code  string
	}{
		{
			name:  "missing file",
			files: map[string]string{"a.ts": `import { X } from "./gone"; class A {}`},
			kind:  errors.KindUnresolvedReference,
			code:  errors.ErrorUnresolvedReference,
		},
		{
			name:  "bare module",
			files: map[string]string{"a.ts": `import { X } from "lodash"; class A {}`},
			kind:  errors.KindUnresolvedReference,
			code:  errors.ErrorUnresolvedReference,
		},
		{
			name: "unknown export",
			files: map[string]string{
				"a.ts": `import { Nope } from "./b"; class A {}`,
				"b.ts": `export interface Yes { n: number; }`,
			},
			kind: errors.KindUnresolvedReference,
			code: errors.ErrorUnresolvedReference,
		},
		{
			name: "cycle",
			files: map[string]string{
				"a.ts": `import { B } from "./b"; class A {}`,
				"b.ts": `import { A } from "./a"; class B {}`,
			},
			kind: errors.KindStructural,
			code: errors.ErrorCycle,
		},
		{
			name: "duplicate contract",
			files: map[string]string{
				"a.ts": `import { B } from "./b"; class A {}`,
				"b.ts": `class A {} class B {}`,
			},
			kind: errors.KindStructural,
			code: errors.ErrorDuplicateDeclaration,
		},
		{
			name:  "syntax",
			files: map[string]string{"a.ts": `class A { f( }`},
			kind:  errors.KindSyntax,
			code:  errors.ErrorSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Compiler{Load: MapLoader(tt.files)}
			_, err := c.Compile(context.Background(), "a.ts")
			requireCode(t, err, tt.kind, tt.code)
		})
	}
}

func TestNamedClassImportIsAccepted(t *testing.T) {
	c := &Compiler{Load: MapLoader(map[string]string{
		"token.ts": `
export class Token {
    total: number = 5;

    supply(): number {
        return this.total;
    }
}`,
		"app.ts": `
import { Token } from "./token";

class App {
    token: Token;

    supply(): number {
        return this.token.supply();
    }
}`,
	})}
	result, err := c.Compile(context.Background(), "app.ts")
	require.NoError(t, err)
	assert.Len(t, result.Artifacts, 2)
	assert.Contains(t, result.Artifact("App").Assembly, "call_Token_supply")
}

func TestFlowWarningsDoNotStopTheBuild(t *testing.T) {
	result := compile(t, `
class Noisy {
    f(): number {
        let unused = 4;
        return 1;
        return 2;
    }
}`)
	require.NotNil(t, result.Artifact("Noisy"))

	codes := []string{}
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
		assert.Equal(t, errors.Warning, w.Level)
	}
	assert.ElementsMatch(t, []string{errors.WarningUnreachableCode, errors.WarningUnusedVariable}, codes)
}

func TestFailFastOnSemanticErrors(t *testing.T) {
	_, err := CompileSource("main.ts", `
class A extends Missing {}
`)
	requireCode(t, err, errors.KindUnresolvedReference, errors.ErrorUnresolvedReference)
}

type fakeAssembler struct {
	seen map[string]string
}

func (f *fakeAssembler) Assemble(_ context.Context, name, assembly string) (string, error) {
	f.seen[name] = assembly
	return "6080", nil
}

func TestAssemblerReceivesFormattedAssembly(t *testing.T) {
	asm := &fakeAssembler{seen: map[string]string{}}
	c := &Compiler{Load: MapLoader(map[string]string{"a.ts": `class A { n: number = 1; }`}), Assembler: asm}
	result, err := c.Compile(context.Background(), "a.ts")
	require.NoError(t, err)

	a := result.Artifact("A")
	assert.Equal(t, "6080", a.Bytecode)
	assert.Equal(t, a.Assembly, asm.seen["A"])
	assert.NotContains(t, a.Assembly, "// -")
}

func TestSolcAssembler(t *testing.T) {
	cfg := config.Default()
	cfg.Optimizer.Runs = 77

	t.Run("bytecode", func(t *testing.T) {
		s := NewSolcAssembler(cfg)
		var input map[string]any
		s.run = func(_ context.Context, path string, raw []byte) ([]byte, error) {
			assert.Equal(t, "solc", path)
			require.NoError(t, json.Unmarshal(raw, &input))
			return []byte(`{
				"errors": [{"severity": "warning", "formattedMessage": "Warning: unused"}],
				"contracts": {"A.yul": {"A": {"evm": {"bytecode": {"object": "60806040"}}}}}
			}`), nil
		}

		code, err := s.Assemble(context.Background(), "A", `object "A" {}`)
		require.NoError(t, err)
		assert.Equal(t, "60806040", code)

		assert.Equal(t, "Yul", input["language"])
		settings := input["settings"].(map[string]any)
		optimizer := settings["optimizer"].(map[string]any)
		assert.Equal(t, float64(77), optimizer["runs"])
		assert.Equal(t, true, optimizer["details"].(map[string]any)["yul"])
		source := input["sources"].(map[string]any)["A.yul"].(map[string]any)
		assert.Equal(t, `object "A" {}`, source["content"])
	})

	t.Run("errors are forwarded verbatim", func(t *testing.T) {
		s := NewSolcAssembler(cfg)
		s.run = func(context.Context, string, []byte) ([]byte, error) {
			return []byte(`{"errors": [
				{"severity": "error", "formattedMessage": "ParserError: Expected '}'\n --> A.yul:3:1"},
				{"severity": "warning", "message": "just a warning"}
			]}`), nil
		}
		_, err := s.Assemble(context.Background(), "A", "")
		ce := requireCode(t, err, errors.KindExternalTool, errors.ErrorExternalTool)
		assert.Equal(t, []string{"ParserError: Expected '}'\n --> A.yul:3:1"}, ce.Notes)
	})

	t.Run("missing tool", func(t *testing.T) {
		s := &SolcAssembler{Path: "/nonexistent/solc"}
		_, err := s.Assemble(context.Background(), "A", "")
		requireCode(t, err, errors.KindExternalTool, errors.ErrorExternalTool)
	})
}
