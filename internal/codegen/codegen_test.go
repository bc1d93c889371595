package codegen

import (
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsevm/grammar"
	"tsevm/internal/abi"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
	"tsevm/internal/lower"
	"tsevm/internal/semantic"
)

func contracts(t *testing.T, src string) map[string]*ir.Contract {
	t.Helper()
	program, err := grammar.ParseString("test.ts", src)
	require.NoError(t, err)

	scope := lower.NewScope()
	for _, el := range program.Elements {
		if el.Class != nil {
			scope.Contracts[el.Class.Name] = true
		}
	}
	decls, scope, err := lower.Declare(program, scope)
	require.NoError(t, err)

	out := map[string]*ir.Contract{}
	for _, class := range decls.Classes {
		c, err := lower.BuildContract(class, "test.ts", scope)
		require.NoError(t, err)
		require.NoError(t, semantic.AnalyzeMutability(c))
		out[c.Name] = c
	}
	return out
}

func emit(t *testing.T, src, name string) string {
	t.Helper()
	all := contracts(t, src)
	asm, err := NewEmitter(all).Emit(all[name])
	require.NoError(t, err)
	return asm
}

func requireCode(t *testing.T, err error, kind errors.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	ce, ok := errors.As(err)
	require.True(t, ok, "expected a CompilerError, got %v", err)
	assert.Equal(t, kind, ce.Kind, ce.Message)
	assert.Equal(t, code, ce.Code, ce.Message)
}

func TestPlanLayout(t *testing.T) {
	c := contracts(t, `
class Store {
    a: number = 1;
    list: number[];
    b: boolean;
    m1: Record<address, number>;
    m2: Record<address, Record<address, number>>;
    m3: Record<number, boolean>;
    readonly fixed: number = 7;
    c: address;
}`)["Store"]

	layout, err := PlanLayout(c)
	require.NoError(t, err)

	stride := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	at := func(n uint64) *uint256.Int { return new(uint256.Int).AddUint64(stride, n) }

	assert.Equal(t, ScalarSlot, layout.Slot("a").Kind)
	assert.Equal(t, uint256.NewInt(0), layout.Slot("a").Slot)

	list := layout.Slot("list")
	assert.Equal(t, ArraySlot, list.Kind)
	assert.Equal(t, uint256.NewInt(1), list.Slot)
	assert.Equal(t, uint256.NewInt(2), list.Elements())

	assert.Equal(t, at(1), layout.Slot("b").Slot)
	assert.Equal(t, at(2), layout.Slot("c").Slot)
	assert.Equal(t, at(3), layout.Next)

	m1, m2, m3 := layout.Slot("m1"), layout.Slot("m2"), layout.Slot("m3")
	assert.Equal(t, []int{1, 0}, []int{m1.Arity, m1.Bucket})
	assert.Equal(t, []int{2, 0}, []int{m2.Arity, m2.Bucket})
	assert.Equal(t, []int{1, 1}, []int{m3.Arity, m3.Bucket})
	assert.Equal(t, stride, m1.Base)
	assert.Equal(t, new(uint256.Int).Lsh(uint256.NewInt(2), 128), m2.Base)
	assert.Equal(t, at(1), m3.Base)
	assert.Nil(t, m1.Slot)
	assert.Equal(t, []int{1, 2}, layout.Arities)

	fixed := layout.Slot("fixed")
	assert.Equal(t, ImmutableSlot, fixed.Kind)
	assert.True(t, fixed.Inline)
	assert.Nil(t, fixed.Slot)
	assert.Equal(t, 0, layout.StagedCount)

	assert.Contains(t, layout.String(), "m2: mapping arity 2 bucket 0")
}

const person = `
class Person {
    readonly age: number;
    constructor(age_: number) {
        this.age = age_;
    }
    getAge(): number {
        return this.age;
    }
}`

func TestImmutableFromConstructor(t *testing.T) {
	c := contracts(t, person)["Person"]
	layout, err := PlanLayout(c)
	require.NoError(t, err)

	age := layout.Slot("age")
	require.NotNil(t, age)
	assert.Equal(t, ImmutableSlot, age.Kind)
	assert.False(t, age.Inline)
	source, ok := age.Source.(*ir.Variable)
	require.True(t, ok, "source is %T", age.Source)
	assert.Equal(t, "age_", source.Name)
	assert.Equal(t, 1, layout.StagedCount)
	assert.Equal(t, uint256.NewInt(0), layout.Next)

	asm := emit(t, person, "Person")
	assert.Contains(t, asm, `function get_age() -> value { value := loadimmutable("age") }`)
	assert.Contains(t, asm, `function set_age(value) { mstore(128, value) }`)
	assert.Contains(t, asm, `setimmutable(runtime, "age", mload(128))`)
	assert.Contains(t, asm, "mstore(64, 160)")
	assert.Contains(t, asm, `codecopy(args, datasize("Person"), args_size)`)
	assert.Contains(t, asm, "constructor_body(arg_1)")
	assert.NotContains(t, asm, "sload")
	assert.NotContains(t, asm, "sstore")
}

func TestImmutableSourceErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{
			name: "no source",
			src: `
class Person {
    readonly age: number;
}`,
			msg: "has no value",
		},
		{
			name: "initializer and constructor",
			src: `
class Person {
    readonly age: number = 1;
    constructor(a: number) {
        this.age = a;
    }
}`,
			msg: "assigned 2 times",
		},
		{
			name: "assigned twice in constructor",
			src: `
class Person {
    readonly age: number;
    constructor(a: number) {
        this.age = a;
        if (a > 1) {
            this.age = 2;
        }
    }
}`,
			msg: "assigned 2 times",
		},
		{
			name: "assigned in method",
			src: `
class Person {
    readonly age: number = 1;
    grow(): void {
        this.age = 2;
    }
}`,
			msg: "cannot be assigned in method 'grow'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := contracts(t, tt.src)["Person"]
			_, err := PlanLayout(c)
			requireCode(t, err, errors.KindStructural, errors.ErrorImmutableSource)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSectionsInOrder(t *testing.T) {
	asm := emit(t, person, "Person")
	assert.Equal(t, []string{
		"Constructor",
		"Constructor Functions",
		"Constructor Storage Layout",
		"Constructor Storage Access",
		"Constructor Events",
		"Constructor Helpers",
		"Dispatcher",
		"Functions",
		"Storage Layout",
		"Storage Access",
		"Events",
		"Helpers",
	}, Sections(asm))
	assert.True(t, strings.HasPrefix(asm, `object "Person" {`))
	assert.Contains(t, asm, `object "Person_deployed" {`)
}

const token = `
interface Moved { to: address; amount: number; }

class Token {
    Transfer: Event<Moved>;
    balances: Record<address, number>;
    history: number[];

    transfer(to: address, amount: number): boolean {
        if (this.balances[msg.sender] < amount) {
            throw new Error("no");
        }
        this.balances[msg.sender] -= amount;
        this.balances[to] += amount;
        this.history[this.history.length] = amount;
        emit(this.Transfer({ to, amount }));
        return true;
    }
    f(a: number, b: number): number {
        return a > b ? 1 : 2;
    }
    pick(c: boolean): number {
        if (c) {
            return 1;
        } else {
            return 2;
        }
    }
    digest(a: number, b: number): bytes {
        return keccak256(a, b);
    }
}`

func TestDispatcherAndBodies(t *testing.T) {
	asm := emit(t, token, "Token")

	transfer := abi.SelectorHex("transfer(address,uint256)")
	assert.Equal(t, "0xa9059cbb", transfer)
	assert.Contains(t, asm, "case "+transfer+" {")
	assert.Contains(t, asm, "case "+abi.SelectorHex("balances(address)")+" {")
	assert.Contains(t, asm, "case "+abi.SelectorHex("history(uint256)")+" {")
	assert.Contains(t, asm, "switch shr(224, calldataload(0))")
	assert.Contains(t, asm, "let arg_1 := validate_address(calldataload(4))")
	assert.Contains(t, asm, "let arg_2 := calldataload(36)")
	assert.Contains(t, asm, "let ret_1 := fun_transfer(arg_1, arg_2)")

	assert.Contains(t, asm, "function fun_transfer(var_to, var_amount) -> ret {")
	assert.Contains(t, asm, "if lt(get_balances(caller()), var_amount) {")
	assert.Contains(t, asm, "revert_error(0x6e6f"+strings.Repeat("0", 60)+")")
	assert.Contains(t, asm, "set_balances(caller(), checked_sub(get_balances(caller()), var_amount))")
	assert.Contains(t, asm, "set_balances(var_to, checked_add(get_balances(var_to), var_amount))")
	assert.Contains(t, asm, "set_history(length_history(), var_amount)")
	assert.Contains(t, asm, "emit_Transfer(var_to, var_amount)")
	assert.Contains(t, asm, "ret := 1")

	// conditional expressions arrive as a temp plus an if
	assert.Contains(t, asm, strings.Join([]string{
		"let var_cond_0 := 2",
		"if gt(var_a, var_b) {",
		"var_cond_0 := 1",
		"}",
		"ret := var_cond_0",
		"leave",
	}, "\n"))

	assert.Contains(t, asm, strings.Join([]string{
		"switch var_c",
		"case 0 {",
		"ret := 2",
		"leave",
		"}",
		"default {",
		"ret := 1",
		"leave",
		"}",
	}, "\n"))

	assert.Contains(t, asm, "ret := hash_2(var_a, var_b)")
	assert.Contains(t, asm, "function hash_2(word1, word2) -> hash {")
}

func TestStorageAndEventHelpers(t *testing.T) {
	asm := emit(t, token, "Token")

	assert.Contains(t, asm, "function mapping_slot_1(base, key1) -> slot {")
	assert.Contains(t, asm, "function get_balances(key1) -> value { value := sload(mapping_slot_1(0x100000000000000000000000000000000, key1)) }")
	assert.Contains(t, asm, "function length_history() -> length { length := sload(0) }")
	assert.Contains(t, asm, "value := sload(add(1, index))")
	assert.Contains(t, asm, "panic_error(0x32)")

	topic := abi.TopicHex("Transfer(address,uint256)")
	assert.Contains(t, asm, "function emit_Transfer(var_to, var_amount) {")
	assert.Contains(t, asm, topic+")")
	assert.Contains(t, asm, "function checked_add(x, y) -> sum {")
	assert.Contains(t, asm, "function revert_error(message) {")
	assert.Contains(t, asm, "function string_length(word) -> length {")
}

func TestMappingSlotHelperHashesInnermostFirst(t *testing.T) {
	helper := mappingSlotHelper(2)
	assert.Contains(t, helper, "function mapping_slot_2(base, key1, key2) -> slot {")
	inner := strings.Index(helper, "mstore(0, key2)")
	outer := strings.Index(helper, "mstore(0, key1)")
	require.True(t, inner > 0 && outer > 0)
	assert.Less(t, inner, outer)
}

const factory = `
class Child {
    value: number = 1;
    constructor(v: number) {
        this.value = v;
    }
    get(): number {
        return this.value;
    }
}

class Factory {
    child: Child;
    make(): void {
        this.child = new Child(5);
    }
    read(): number {
        return this.child.get();
    }
    readAt(a: address): number {
        return Child.at(a).get();
    }
}`

func TestDeploymentsAndExternalCalls(t *testing.T) {
	asm := emit(t, factory, "Factory")

	assert.Contains(t, asm, "set_child(deploy_Child(5))")
	assert.Contains(t, asm, "function deploy_Child(arg_1) -> addr {")
	assert.Contains(t, asm, `datacopy(ptr, dataoffset("Child"), size)`)
	assert.Contains(t, asm, "ret := call_Child_get(get_child())")
	assert.Contains(t, asm, "ret := call_Child_get(var_a)")
	assert.Contains(t, asm, "mstore(ptr, shl(224, "+abi.SelectorHex("get()")+"))")
	assert.Equal(t, 1, strings.Count(asm, `object "Child" {`))
	assert.Equal(t, 1, strings.Count(asm, "function call_Child_get(target) -> ret {"))

	// Child is nested inside the runtime object, after Factory's runtime code.
	assert.Less(t, strings.Index(asm, `object "Factory_deployed" {`), strings.Index(asm, `object "Child" {`))
}

func TestDeploymentCycle(t *testing.T) {
	all := contracts(t, `
class A {
    make(): void {
        new B();
    }
}

class B {
    make(): void {
        new A();
    }
}`)
	_, err := NewEmitter(all).Emit(all["A"])
	requireCode(t, err, errors.KindStructural, errors.ErrorCycle)
}

func TestInlineImmutable(t *testing.T) {
	asm := emit(t, `
class Config {
    readonly limit: number = 7;
    readonly owner: address = "0x00000000000000000000000000000000000000AA";
    readonly deployer: address = msg.sender;
}`, "Config")

	assert.Contains(t, asm, "function get_limit() -> value { value := 7 }")
	assert.Contains(t, asm, "function get_owner() -> value { value := 0x00000000000000000000000000000000000000aa }")
	assert.Contains(t, asm, "set_deployer(caller())")
	assert.Contains(t, asm, `setimmutable(runtime, "deployer", mload(128))`)
	assert.NotContains(t, asm, `setimmutable(runtime, "limit"`)
}

func TestLiteralWords(t *testing.T) {
	tests := []struct {
		value *ir.Value
		want  string
	}{
		{&ir.Value{Type: ir.NumberType{}, Literal: "42"}, "42"},
		{&ir.Value{Type: ir.BooleanType{}, Literal: "true"}, "1"},
		{&ir.Value{Type: ir.BooleanType{}, Literal: "false"}, "0"},
		{&ir.Value{Type: ir.StringType{}, Literal: ""}, "0"},
		{&ir.Value{Type: ir.StringType{}, Literal: "a"}, "0x61" + strings.Repeat("0", 62)},
		{&ir.Value{Type: ir.BytesType{}, Literal: "0xabcd"}, "0xabcd" + strings.Repeat("0", 60)},
	}
	for _, tt := range tests {
		got, err := literal(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.value.Literal)
	}

	_, err := literal(&ir.Value{Type: ir.AddressType{}, Literal: "nope"})
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	in := strings.Join([]string{
		`object "A" {`,
		"code {",
		"// - Dispatcher -",
		"switch x",
		"case 0 {",
		"revert(0, 0)",
		"}",
		"default { stop() }",
		"",
		"}",
		"}",
	}, "\n")
	want := strings.Join([]string{
		`object "A" {`,
		"    code {",
		"        switch x",
		"        case 0 {",
		"            revert(0, 0)",
		"        }",
		"        default { stop() }",
		"    }",
		"}",
		"",
	}, "\n")
	assert.Equal(t, want, Format(in))
	assert.Equal(t, want, Format(Format(in)))
}

func TestFormattedOutputIsBalanced(t *testing.T) {
	out := Format(emit(t, token, "Token"))
	assert.Empty(t, Sections(out))
	assert.Equal(t, strings.Count(out, "{"), strings.Count(out, "}"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "\n    code {\n")
}
