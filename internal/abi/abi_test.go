package abi

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsevm/grammar"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
	"tsevm/internal/lower"
	"tsevm/internal/semantic"
)

func contract(t *testing.T, src string) *ir.Contract {
	t.Helper()
	program, err := grammar.ParseString("test.ts", src)
	require.NoError(t, err)
	decls, scope, err := lower.Declare(program, lower.NewScope())
	require.NoError(t, err)
	require.Len(t, decls.Classes, 1)
	c, err := lower.BuildContract(decls.Classes[0], "test.ts", scope)
	require.NoError(t, err)
	require.NoError(t, semantic.AnalyzeMutability(c))
	return c
}

func TestKnownSelectors(t *testing.T) {
	tests := []struct {
		signature string
		selector  string
	}{
		{"transfer(address,uint256)", "0xa9059cbb"},
		{"balanceOf(address)", "0x70a08231"},
		{"approve(address,uint256)", "0x095ea7b3"},
		{"totalSupply()", "0x18160ddd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.selector, SelectorHex(tt.signature), tt.signature)
	}

	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		TopicHex("Transfer(address,address,uint256)"))

	transfer := &ir.Event{Name: "Transfer", Params: []*ir.Parameter{
		{Name: "from", Type: ir.AddressType{}},
		{Name: "to", Type: ir.AddressType{}},
		{Name: "amount", Type: ir.NumberType{}},
	}}
	assert.Equal(t, "Transfer(address,address,uint256)", EventSignature(transfer))

	empty := Keccak256()
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", fmt.Sprintf("%x", empty))
}

func TestSelectorsAreDeterministicAndDistinct(t *testing.T) {
	types := []ir.Type{ir.NumberType{}, ir.BooleanType{}, ir.AddressType{}, ir.BytesType{}}
	seen := map[[4]byte]string{}
	for i := 0; i < 60; i++ {
		sig := Signature(fmt.Sprintf("method%d", i), types[:i%len(types)])
		sel := Selector(sig)
		assert.Equal(t, sel, Selector(sig))
		prev, dup := seen[sel]
		assert.False(t, dup, "%s collides with %s", sig, prev)
		seen[sel] = sig
	}
	assert.Len(t, seen, 60)
}

func TestSignature(t *testing.T) {
	assert.Equal(t, "f()", Signature("f", nil))
	assert.Equal(t, "f(uint256,bool,address,bytes32,string)", Signature("f", []ir.Type{
		ir.NumberType{}, ir.BooleanType{}, ir.AddressType{Contract: "Token"}, ir.BytesType{}, ir.StringType{},
	}))
}

func TestScalarPropertyAndViewMethod(t *testing.T) {
	c := contract(t, `
class Wallet {
    balance: number = 1;
    getBalanceTimesTwo(): number {
        return this.balance * 2;
    }
}`)
	entries := Project(c)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, Function, e.Type)
		assert.Equal(t, View, e.StateMutability)
	}
	assert.Equal(t, []Param{{Name: "", Type: "uint256"}}, entries[0].Outputs)

	out, err := json.Marshal(entries[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"function","name":"balance","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}`, string(out))
}

func TestMappingPropertyAndPayableMethod(t *testing.T) {
	c := contract(t, `
class Token {
    balances: Record<address, number>;
    transfer(to: address, amount: number): boolean {
        this.balances[to] += amount;
        return true;
    }
}`)
	entries := Project(c)
	require.Len(t, entries, 2)

	assert.Equal(t, "balances", entries[0].Name)
	assert.Equal(t, []Param{{Type: "address"}}, entries[0].Inputs)
	assert.Equal(t, []Param{{Type: "uint256"}}, entries[0].Outputs)

	assert.Equal(t, "transfer", entries[1].Name)
	assert.Equal(t, Payable, entries[1].StateMutability)
	assert.Equal(t, []Param{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}}, entries[1].Inputs)
	assert.Equal(t, []Param{{Type: "bool"}}, entries[1].Outputs)
}

func TestEntryOrderAndShapes(t *testing.T) {
	c := contract(t, `
interface Moved { from: address; amount: number; }
interface Pair { left: number; right: boolean; }

class Ledger {
    Transfer: Event<Moved>;
    private secret: number;
    history: number[];
    grid: Record<address, Record<number, boolean>>;

    constructor(start: number) {
        this.secret = start;
    }

    pair(): Pair {
        return { left: 1, right: true };
    }
    reset(): void {
        this.secret = 0;
    }
    private hidden(): number {
        return 1;
    }
}`)
	entries := Project(c)

	var kinds, names []string
	for _, e := range entries {
		kinds = append(kinds, e.Type)
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{EventEntry, Constructor, Function, Function, Function, Function}, kinds)
	assert.Equal(t, []string{"Transfer", "", "history", "grid", "pair", "reset"}, names)

	assert.Equal(t, NonPayable, entries[1].StateMutability)
	assert.Equal(t, []Param{{Name: "start", Type: "uint256"}}, entries[1].Inputs)
	assert.Equal(t, []Param{{Name: "index", Type: "uint256"}}, entries[2].Inputs)
	assert.Equal(t, []Param{{Type: "address"}, {Type: "uint256"}}, entries[3].Inputs)
	assert.Equal(t, []Param{{Type: "bool"}}, entries[3].Outputs)
	assert.Equal(t, []Param{{Name: "left", Type: "uint256"}, {Name: "right", Type: "bool"}}, entries[4].Outputs)
	assert.Equal(t, []Param{}, entries[5].Outputs)
	assert.Equal(t, Payable, entries[5].StateMutability)

	out, err := json.Marshal(entries[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]}`, string(out))

	out, err = json.Marshal(entries[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"constructor","inputs":[{"name":"start","type":"uint256"}],"stateMutability":"nonpayable"}`, string(out))

	out, err = json.Marshal(entries[5])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"function","name":"reset","inputs":[],"outputs":[],"stateMutability":"payable"}`, string(out))
}

func TestMarshalEmptyContract(t *testing.T) {
	c := contract(t, `class Empty {}`)
	out, err := Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestFunctionSignaturesAndSelectorCheck(t *testing.T) {
	c := contract(t, `
class Token {
    balances: Record<address, number>;
    private owner: address;
    transfer(to: address, amount: number): boolean {
        return true;
    }
}`)
	assert.Equal(t, []string{"balances(address)", "transfer(address,uint256)"}, FunctionSignatures(c))
	assert.NoError(t, CheckSelectors(c))

	c.Methods = append(c.Methods, &ir.Method{Name: "balances", Params: []*ir.Parameter{{Name: "a", Type: ir.AddressType{}}}})
	err := CheckSelectors(c)
	require.Error(t, err)
	assert.Equal(t, errors.KindStructural, errors.KindOf(err))
}
