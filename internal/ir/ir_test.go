package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func number(lit string) *Value { return &Value{Type: NumberType{}, Literal: lit} }

func sampleContract() *Contract {
	point := &Interface{Name: "Point", Fields: []*Parameter{
		{Name: "x", Type: NumberType{}},
		{Name: "y", Type: NumberType{}},
	}}
	return &Contract{
		Name:       "Token",
		Extensions: []string{"Base"},
		Events:     []*Event{{Name: "Moved", Interface: point, Params: point.Fields}},
		Variables: []*Property{
			{Name: "balances", Type: MappingType{Inputs: []Type{AddressType{}}, Output: NumberType{}}},
			{Name: "owner", Type: AddressType{}, Immutable: true, Initializer: &EvmDialect{Environment: "msg", Member: "sender"}},
		},
		Methods: []*Method{{
			Name:   "transfer",
			Return: BooleanType{},
			Params: []*Parameter{{Name: "to", Type: AddressType{}}, {Name: "amount", Type: NumberType{}}},
			Body: []Statement{
				&MappingUpdate{
					Property: "balances",
					Indices:  []Expression{&Variable{Name: "to"}},
					Value: &Binary{Op: Plus,
						Left:  &MappingAccess{Property: "balances", Indices: []Expression{&Variable{Name: "to"}}},
						Right: &Variable{Name: "amount"}},
				},
				&If{
					Condition: &Binary{Op: Greater, Left: &Variable{Name: "amount"}, Right: number("10")},
					Then:      []Statement{&EmitEvent{Event: "Moved", Args: []Expression{number("1"), number("2")}}},
					Else:      []Statement{&Throw{Message: &Value{Type: StringType{}, Literal: "small"}}},
				},
				&Return{Value: &Value{Type: BooleanType{}, Literal: "true"}},
			},
		}},
	}
}

func TestPrintContract(t *testing.T) {
	out := Print(sampleContract())

	assert.Contains(t, out, "CONTRACT Token EXTENDS Base (IR)")
	assert.Contains(t, out, "EVENT Moved(x: number, y: number)")
	assert.Contains(t, out, "VAR public balances: Record<address, number>")
	assert.Contains(t, out, "VAR public immutable owner: address = msg.sender")
	assert.Contains(t, out, "FN public unknown transfer(to: address, amount: number): boolean {")
	assert.Contains(t, out, "this.balances[to] = (this.balances[to] + amount)")
	assert.Contains(t, out, "} else {")
	assert.Contains(t, out, `throw "small"`)
}

func TestTypeStrings(t *testing.T) {
	nested := MappingType{Inputs: []Type{AddressType{}, AddressType{}}, Output: NumberType{}}
	assert.Equal(t, "Record<address, Record<address, number>>", nested.String())
	assert.Equal(t, "number[]", ArrayType{Item: NumberType{}}.String())
	assert.Equal(t, "address<Vault>", AddressType{Contract: "Vault"}.String())
	assert.True(t, IsVoid(nil))
	assert.True(t, IsVoid(VoidType{}))
	assert.False(t, IsWord(nested))
	assert.True(t, SameType(AddressType{Contract: "A"}, AddressType{}))
	assert.False(t, SameType(nested, MappingType{Inputs: []Type{AddressType{}}, Output: NumberType{}}))
}

func TestGetEffects(t *testing.T) {
	c := sampleContract()
	body := c.Methods[0].Body

	update := GetEffects(body[0])
	require.True(t, Mutates(update))
	assert.Equal(t, "storage", update[0].EffectKind())

	branch := GetEffects(body[1])
	assert.False(t, Mutates(branch), "an emit is not a storage write")
	require.Len(t, branch, 1)
	assert.IsType(t, &LogEffect{}, branch[0])

	ret := GetEffects(body[2])
	require.Len(t, ret, 1)
	assert.IsType(t, &PureEffect{}, ret[0])
	assert.False(t, Mutates(ret))

	internal := GetEffects(&ExpressionStatement{Value: &Call{Target: "helper", Receiver: &This{}}})
	assert.False(t, Mutates(internal))
	call, ok := internal[0].(*CallEffect)
	require.True(t, ok)
	assert.True(t, call.Internal)

	external := GetEffects(&ExpressionStatement{Value: &Call{Target: "pay", Receiver: &Storage{Name: "vault"}}})
	assert.False(t, Mutates(external))
	assert.False(t, external[0].(*CallEffect).Internal)
}

func TestContainsConditional(t *testing.T) {
	stmt := &Return{Value: &Binary{Op: Plus, Left: number("1"),
		Right: &Conditional{Condition: &Variable{Name: "c"}, Then: number("1"), Else: number("2")}}}
	assert.True(t, ContainsConditional([]Statement{stmt}))

	nested := &If{Condition: &Variable{Name: "c"}, Then: []Statement{stmt}}
	assert.True(t, ContainsConditional([]Statement{nested}))
	assert.False(t, ContainsConditional(sampleContract().Methods[0].Body))
}

func TestNamerIsDeterministic(t *testing.T) {
	a, b := NewNamer("cond"), NewNamer("cond")
	for i := 0; i < 3; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
	assert.Equal(t, "cond_3", a.Next())
}

func TestContractLookups(t *testing.T) {
	c := sampleContract()
	assert.NotNil(t, c.Variable("owner"))
	assert.Nil(t, c.Variable("missing"))
	assert.NotNil(t, c.Method("transfer"))
	assert.NotNil(t, c.Event("Moved"))
	assert.Equal(t, []string{"transfer"}, c.MethodNames())
	assert.Equal(t, 1, c.Events[0].Interface.Field("y"))
}
