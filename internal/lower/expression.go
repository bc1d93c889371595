package lower

import (
	"math/big"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/holiman/uint256"

	"tsevm/grammar"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
	"tsevm/internal/stdlib"
)

// maxStringBytes is the longest string literal that fits in one word.
const maxStringBytes = 32

var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "===": 3, "!==": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
	"**": 7,
}

var binaryOps = map[string]ir.BinaryOp{
	"||": ir.Or, "&&": ir.And,
	"==": ir.Equal, "===": ir.Equal, "!=": ir.NotEqual, "!==": ir.NotEqual,
	"<": ir.Less, "<=": ir.LessEqual, ">": ir.Greater, ">=": ir.GreaterEqual,
	"+": ir.Plus, "-": ir.Minus, "*": ir.Times, "/": ir.Divide, "%": ir.Modulo,
	"**": ir.Exponent,
}

func node(pos lexer.Position) ir.Node { return ir.Node{Pos: pos} }

// LowerExpression lowers one source expression. Reads of constants are
// replaced by the constant's value.
func LowerExpression(e *grammar.Expression, scope Scope) (ir.Expression, error) {
	cond, err := lowerBinary(e.Condition, scope)
	if err != nil {
		return nil, err
	}
	if e.Then == nil {
		return cond, nil
	}
	then, err := LowerExpression(e.Then, scope)
	if err != nil {
		return nil, err
	}
	els, err := LowerExpression(e.Else, scope)
	if err != nil {
		return nil, err
	}
	return &ir.Conditional{Node: node(e.Pos), Condition: cond, Then: then, Else: els}, nil
}

func lowerArgs(args []*grammar.Expression, scope Scope) ([]ir.Expression, error) {
	out := make([]ir.Expression, 0, len(args))
	for _, arg := range args {
		lowered, err := LowerExpression(arg, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered)
	}
	return out, nil
}

// climber resolves operator precedence over a flat operator chain.
type climber struct {
	ops      []*grammar.BinOp
	operands []ir.Expression
	pos      int
}

func (c *climber) parse(minPrec int) ir.Expression {
	lhs := c.operands[c.pos]
	for c.pos < len(c.ops) {
		op := c.ops[c.pos]
		prec := precedence[op.Operator]
		if prec < minPrec {
			break
		}
		c.pos++
		next := prec + 1
		if op.Operator == "**" {
			next = prec // right associative
		}
		rhs := c.parse(next)
		lhs = &ir.Binary{Node: node(op.Pos), Op: binaryOps[op.Operator], Left: lhs, Right: rhs}
	}
	return lhs
}

func lowerBinary(b *grammar.Binary, scope Scope) (ir.Expression, error) {
	operands := make([]ir.Expression, 0, len(b.Ops)+1)
	first, err := lowerUnary(b.Left, scope)
	if err != nil {
		return nil, err
	}
	operands = append(operands, first)
	for _, op := range b.Ops {
		right, err := lowerUnary(op.Right, scope)
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	c := &climber{ops: b.Ops, operands: operands}
	return c.parse(1), nil
}

func lowerUnary(u *grammar.Unary, scope Scope) (ir.Expression, error) {
	value, err := lowerPostfix(u.Value, scope)
	if err != nil {
		return nil, err
	}
	for i := len(u.Operators) - 1; i >= 0; i-- {
		switch u.Operators[i] {
		case "!":
			value = &ir.Not{Node: node(u.Pos), Value: value}
		case "-":
			if _, ok := TypeOf(value, scope).(ir.BooleanType); !ok {
				return nil, errors.Unsupported(u.Pos, u.String(), "negative numbers cannot be represented")
			}
			value = &ir.Not{Node: node(u.Pos), Value: value}
		}
	}
	return value, nil
}

func lowerPostfix(p *grammar.Postfix, scope Scope) (ir.Expression, error) {
	prim := p.Primary
	switch {
	case prim.This:
		return lowerThisChain(p, scope)
	case prim.Ident != nil:
		return lowerIdentChain(p, *prim.Ident, scope)
	case prim.New != nil && len(p.Suffix) == 0:
		return lowerNew(prim.New, scope)
	case len(p.Suffix) == 0:
		return lowerPrimary(prim, scope)
	}
	return nil, errors.Unsupported(p.Pos, p.String(), "unsupported expression")
}

func lowerPrimary(prim *grammar.Primary, scope Scope) (ir.Expression, error) {
	switch {
	case prim.Number != nil:
		return lowerNumber(prim.Pos, *prim.Number)
	case prim.Text != nil:
		return lowerString(prim.Pos, *prim.Text)
	case prim.Bool != nil:
		return &ir.Value{Node: node(prim.Pos), Type: ir.BooleanType{}, Literal: *prim.Bool}, nil
	case prim.Parens != nil:
		return LowerExpression(prim.Parens, scope)
	case prim.Object != nil:
		return nil, errors.Unsupported(prim.Pos, prim.String(), "object literals are only allowed in return and emit")
	}
	return nil, errors.Unsupported(prim.Pos, prim.String(), "unsupported expression")
}

func lowerNumber(pos lexer.Position, text string) (ir.Expression, error) {
	digits := strings.ReplaceAll(text, "_", "")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits, base = digits[2:], 16
	}
	b, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, errors.Structural(pos, errors.ErrorStructural, "malformed number literal '%s'", text)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.Structural(pos, errors.ErrorNumericOverflow, "number literal '%s' does not fit in 256 bits", text)
	}
	return &ir.Value{Node: node(pos), Type: ir.NumberType{}, Literal: v.Dec()}, nil
}

func lowerString(pos lexer.Position, text string) (ir.Expression, error) {
	if IsAddressLiteral(text) {
		return &ir.Value{Node: node(pos), Type: ir.AddressType{}, Literal: text}, nil
	}
	if len(text) > maxStringBytes {
		return nil, errors.Structural(pos, errors.ErrorStructural,
			"string literal is %d bytes, at most %d are supported", len(text), maxStringBytes)
	}
	return &ir.Value{Node: node(pos), Type: ir.StringType{}, Literal: text}, nil
}

func lowerNew(n *grammar.New, scope Scope) (ir.Expression, error) {
	if !scope.Contracts[n.Class] {
		if n.Class == "Error" {
			return nil, errors.Unsupported(n.Pos, "new Error(...)", "errors can only be thrown")
		}
		return nil, errors.Unresolved(n.Pos, "contract", n.Class, contractNames(scope))
	}
	args, err := lowerArgs(n.Args.Args, scope)
	if err != nil {
		return nil, err
	}
	return &ir.Deploy{Node: node(n.Pos), Contract: n.Class, Args: args}, nil
}

// lowerThisChain handles this, this.p, this.m(...), this.p.length,
// this.p[k]..., and this.p.m(...).
func lowerThisChain(p *grammar.Postfix, scope Scope) (ir.Expression, error) {
	suffix := p.Suffix
	this := &ir.This{Node: node(p.Pos)}
	if len(suffix) == 0 {
		return this, nil
	}
	if suffix[0].Member == "" {
		return nil, errors.Unsupported(p.Pos, p.String(), "unsupported use of this")
	}
	name := suffix[0].Member
	rest := suffix[1:]

	switch {
	case len(rest) == 0:
		return &ir.Storage{Node: node(suffix[0].Pos), Name: name}, nil

	case len(rest) == 1 && rest[0].Call != nil:
		args, err := lowerArgs(rest[0].Call.Args, scope)
		if err != nil {
			return nil, err
		}
		return &ir.Call{Node: node(p.Pos), Target: name, Receiver: this, Args: args}, nil

	case len(rest) == 1 && rest[0].Member == "length":
		if typ, known := scope.Properties[name]; known {
			if _, ok := typ.(ir.ArrayType); !ok {
				return nil, errors.Unsupported(rest[0].Pos, p.String(), "'%s' is not an array", name)
			}
		}
		return &ir.Length{Node: node(p.Pos), Property: name}, nil

	case len(rest) == 2 && rest[0].Member != "" && rest[1].Call != nil:
		args, err := lowerArgs(rest[1].Call.Args, scope)
		if err != nil {
			return nil, err
		}
		receiver := &ir.Storage{Node: node(suffix[0].Pos), Name: name}
		return &ir.Call{Node: node(p.Pos), Target: rest[0].Member, Receiver: receiver, Args: args}, nil

	case allIndices(rest):
		indices, err := lowerIndices(rest, scope)
		if err != nil {
			return nil, err
		}
		if err := checkIndexArity(p.Pos, name, len(indices), scope); err != nil {
			return nil, err
		}
		return &ir.MappingAccess{Node: node(p.Pos), Property: name, Indices: indices}, nil
	}
	return nil, errors.Unsupported(p.Pos, p.String(), "unsupported property access")
}

func allIndices(suffix []*grammar.Suffix) bool {
	for _, s := range suffix {
		if s.Index == nil {
			return false
		}
	}
	return len(suffix) > 0
}

func lowerIndices(suffix []*grammar.Suffix, scope Scope) ([]ir.Expression, error) {
	indices := make([]ir.Expression, 0, len(suffix))
	for _, s := range suffix {
		idx, err := LowerExpression(s.Index, scope)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// checkIndexArity compares an access site against the property's declared
// shape. Properties not declared on the class being lowered are checked
// after inheritance is flattened.
func checkIndexArity(pos lexer.Position, name string, count int, scope Scope) error {
	typ, known := scope.Properties[name]
	if !known {
		return nil
	}
	want := 0
	switch typ := typ.(type) {
	case ir.MappingType:
		want = len(typ.Inputs)
	case ir.ArrayType:
		want = 1
	default:
		return errors.Structural(pos, errors.ErrorMappingArity, "property '%s' of type %s cannot be indexed", name, typ)
	}
	if count != want {
		return errors.Structural(pos, errors.ErrorMappingArity,
			"property '%s' takes %d index(es), got %d", name, want, count)
	}
	return nil
}

func lowerIdentChain(p *grammar.Postfix, name string, scope Scope) (ir.Expression, error) {
	suffix := p.Suffix
	_, isLocal := scope.Locals[name]

	switch {
	case len(suffix) == 0:
		if value, ok := scope.Constants[name]; ok {
			return value, nil
		}
		if !isLocal {
			return nil, errors.Unresolved(p.Pos, "variable", name, localNames(scope))
		}
		return &ir.Variable{Node: node(p.Pos), Name: name}, nil

	case !isLocal && stdlib.IsEnvironment(name):
		if len(suffix) != 1 || suffix[0].Member == "" {
			return nil, errors.Unsupported(p.Pos, p.String(), "unsupported use of '%s'", name)
		}
		if _, ok := stdlib.LookupMember(name, suffix[0].Member); !ok {
			return nil, errors.Unresolved(suffix[0].Pos, name+" member", suffix[0].Member, stdlib.MemberNames(name))
		}
		return &ir.EvmDialect{Node: node(p.Pos), Environment: name, Member: suffix[0].Member}, nil

	case !isLocal && name == "keccak256" && len(suffix) == 1 && suffix[0].Call != nil:
		inputs, err := lowerArgs(suffix[0].Call.Args, scope)
		if err != nil {
			return nil, err
		}
		if len(inputs) == 0 {
			return nil, errors.Structural(p.Pos, errors.ErrorStructural, "keccak256 needs at least one argument")
		}
		return &ir.Hash{Node: node(p.Pos), Inputs: inputs}, nil

	case !isLocal && scope.Contracts[name] && len(suffix) >= 2 && suffix[0].Member == "at" && suffix[1].Call != nil:
		return lowerExternal(p, name, scope)
	}
	return nil, errors.Unsupported(p.Pos, p.String(), "unsupported expression")
}

// lowerExternal handles X.at(address) and X.at(address).m(...).
func lowerExternal(p *grammar.Postfix, contract string, scope Scope) (ir.Expression, error) {
	suffix := p.Suffix
	atArgs := suffix[1].Call.Args
	if len(atArgs) != 1 {
		return nil, errors.Structural(p.Pos, errors.ErrorStructural, "%s.at expects one address", contract)
	}
	addr, err := LowerExpression(atArgs[0], scope)
	if err != nil {
		return nil, err
	}
	ext := &ir.External{Node: node(p.Pos), Contract: contract, Address: addr}
	rest := suffix[2:]
	switch {
	case len(rest) == 0:
		return ext, nil
	case len(rest) == 2 && rest[0].Member != "" && rest[1].Call != nil:
		args, err := lowerArgs(rest[1].Call.Args, scope)
		if err != nil {
			return nil, err
		}
		return &ir.Call{Node: node(p.Pos), Target: rest[0].Member, Receiver: ext, Args: args}, nil
	}
	return nil, errors.Unsupported(p.Pos, p.String(), "unsupported use of an external contract")
}

// lowerObject builds an interface record from an object literal, ordering
// the values by the interface's declared fields.
func lowerObject(obj *grammar.ObjectLiteral, iface *ir.Interface, scope Scope) (*ir.InterfaceValue, error) {
	given := map[string]*grammar.ObjectField{}
	for _, f := range obj.Fields {
		if _, dup := given[f.Key]; dup {
			return nil, errors.Structural(f.Pos, errors.ErrorDuplicateDeclaration, "field '%s' is given twice", f.Key)
		}
		if iface.Field(f.Key) < 0 {
			return nil, errors.Unresolved(f.Pos, "field of "+iface.Name, f.Key, fieldNames(iface))
		}
		given[f.Key] = f
	}

	out := &ir.InterfaceValue{Node: node(obj.Pos), Interface: iface}
	for _, field := range iface.Fields {
		f, ok := given[field.Name]
		if !ok {
			return nil, errors.MissingField(obj.Pos, iface.Name, field.Name)
		}
		var value ir.Expression
		var err error
		if f.Value == nil {
			value, err = lowerIdentChain(&grammar.Postfix{Pos: f.Pos, Primary: &grammar.Primary{Pos: f.Pos, Ident: &f.Key}}, f.Key, scope)
		} else {
			value, err = LowerExpression(f.Value, scope)
		}
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, value)
	}
	return out, nil
}

// objectLiteral returns the object literal e consists of, if any.
func objectLiteral(e *grammar.Expression) *grammar.ObjectLiteral {
	if e == nil || e.Then != nil || len(e.Condition.Ops) > 0 {
		return nil
	}
	u := e.Condition.Left
	if len(u.Operators) > 0 || len(u.Value.Suffix) > 0 {
		return nil
	}
	return u.Value.Primary.Object
}

func fieldNames(iface *ir.Interface) []string {
	names := make([]string, len(iface.Fields))
	for i, f := range iface.Fields {
		names[i] = f.Name
	}
	return names
}

func localNames(scope Scope) []string {
	names := make([]string, 0, len(scope.Locals)+len(scope.Constants))
	for name := range scope.Locals {
		names = append(names, name)
	}
	for name := range scope.Constants {
		names = append(names, name)
	}
	return names
}

func contractNames(scope Scope) []string {
	names := make([]string, 0, len(scope.Contracts))
	for name := range scope.Contracts {
		names = append(names, name)
	}
	return names
}
