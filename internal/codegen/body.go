package codegen

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"tsevm/internal/abi"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
	"tsevm/internal/stdlib"
)

// context collects what one code block of an object needs: the creation
// code and the runtime code each get their own.
type context struct {
	emitter  *Emitter
	contract *ir.Contract
	layout   *Layout
	creation bool

	helpers   helperSet
	hashes    map[int]bool
	events    map[string]bool
	deploys   map[string]bool
	calls     map[string]string
	callOrder []string
	temps     int
}

func newContext(em *Emitter, c *ir.Contract, layout *Layout, creation bool) *context {
	return &context{
		emitter:  em,
		contract: c,
		layout:   layout,
		creation: creation,
		helpers:  helperSet{},
		hashes:   map[int]bool{},
		events:   map[string]bool{},
		deploys:  map[string]bool{},
		calls:    map[string]string{},
	}
}

func (x *context) temp(prefix string) string {
	x.temps++
	return fmt.Sprintf("%s_%d", prefix, x.temps)
}

func local(name string) string { return "var_" + name }

func methodFunction(name string) string { return "fun_" + name }

// returnVars names the return variables of a function returning t.
func returnVars(t ir.Type) []string {
	switch t := t.(type) {
	case nil, ir.VoidType:
		return nil
	case ir.InterfaceType:
		vars := make([]string, len(t.Ref.Fields))
		for i := range vars {
			vars[i] = fmt.Sprintf("ret_%d", i)
		}
		return vars
	default:
		return []string{"ret"}
	}
}

// returnTypes lists the ABI-level types a function returning t produces.
func returnTypes(t ir.Type) []ir.Type {
	switch t := t.(type) {
	case nil, ir.VoidType:
		return nil
	case ir.InterfaceType:
		return abi.ParamTypes(t.Ref.Fields)
	default:
		return []ir.Type{t}
	}
}

func signatureLine(name string, params []string, rets []string) string {
	line := "function " + name + "(" + strings.Join(params, ", ") + ")"
	if len(rets) > 0 {
		line += " -> " + strings.Join(rets, ", ")
	}
	return line + " {"
}

// function renders one method as an assembly function.
func (x *context) function(m *ir.Method) ([]string, error) {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = local(p.Name)
	}
	body, err := x.statements(m.Body, m.Return)
	if err != nil {
		return nil, err
	}
	lines := []string{signatureLine(methodFunction(m.Name), params, returnVars(m.Return))}
	lines = append(lines, body...)
	return append(lines, "}"), nil
}

func (x *context) constructorFunction(ctor *ir.Constructor) ([]string, error) {
	params := make([]string, len(ctor.Params))
	for i, p := range ctor.Params {
		params[i] = local(p.Name)
	}
	body, err := x.statements(ctor.Body, ir.VoidType{})
	if err != nil {
		return nil, err
	}
	lines := []string{signatureLine("constructor_body", params, nil)}
	lines = append(lines, body...)
	return append(lines, "}"), nil
}

func (x *context) statements(stmts []ir.Statement, ret ir.Type) ([]string, error) {
	var lines []string
	for _, s := range stmts {
		out, err := x.statement(s, ret)
		if err != nil {
			return nil, err
		}
		lines = append(lines, out...)
	}
	return lines, nil
}

func (x *context) statement(s ir.Statement, ret ir.Type) ([]string, error) {
	switch s := s.(type) {
	case *ir.StorageUpdate:
		slot, err := x.slot(s.Pos, s.Property)
		if err != nil {
			return nil, err
		}
		switch {
		case slot.Kind == ScalarSlot:
		case slot.Kind == ImmutableSlot && x.creation && !slot.Inline:
		case slot.Kind == ImmutableSlot:
			return nil, errors.Structural(s.Pos, errors.ErrorImmutableSource,
				"readonly property '%s' can only be assigned during construction", s.Property)
		default:
			return nil, errors.Unsupported(s.Pos, "this."+s.Property, "cannot assign a whole %s property", slot.Kind)
		}
		value, err := x.expr(s.Value)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("set_%s(%s)", s.Property, value)}, nil

	case *ir.MappingUpdate:
		slot, err := x.indexed(s.Pos, s.Property, len(s.Indices))
		if err != nil {
			return nil, err
		}
		args, err := x.exprs(append(append([]ir.Expression{}, s.Indices...), s.Value))
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("set_%s(%s)", slot.Variable.Name, strings.Join(args, ", "))}, nil

	case *ir.VariableDeclaration:
		if s.Value == nil {
			return []string{"let " + local(s.Name)}, nil
		}
		value, err := x.expr(s.Value)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("let %s := %s", local(s.Name), value)}, nil

	case *ir.VariableUpdate:
		value, err := x.expr(s.Value)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s := %s", local(s.Name), value)}, nil

	case *ir.Return:
		return x.returnStatement(s, ret)

	case *ir.If:
		cond, err := x.expr(s.Condition)
		if err != nil {
			return nil, err
		}
		then, err := x.statements(s.Then, ret)
		if err != nil {
			return nil, err
		}
		if len(s.Else) == 0 {
			lines := []string{"if " + cond + " {"}
			lines = append(lines, then...)
			return append(lines, "}"), nil
		}
		els, err := x.statements(s.Else, ret)
		if err != nil {
			return nil, err
		}
		lines := []string{"switch " + cond, "case 0 {"}
		lines = append(lines, els...)
		lines = append(lines, "}", "default {")
		lines = append(lines, then...)
		return append(lines, "}"), nil

	case *ir.Throw:
		msg, err := x.expr(s.Message)
		if err != nil {
			return nil, err
		}
		return []string{x.helpers.use("revert_error") + "(" + msg + ")"}, nil

	case *ir.EmitEvent:
		ev := x.contract.Event(s.Event)
		if ev == nil {
			return nil, errors.UnknownEvent(s.Pos, s.Event, eventNames(x.contract))
		}
		args, err := x.exprs(s.Args)
		if err != nil {
			return nil, err
		}
		x.events[ev.Name] = true
		return []string{fmt.Sprintf("emit_%s(%s)", ev.Name, strings.Join(args, ", "))}, nil

	case *ir.ExpressionStatement:
		value, err := x.expr(s.Value)
		if err != nil {
			return nil, err
		}
		if x.producesValue(s.Value) {
			return []string{"pop(" + value + ")"}, nil
		}
		return []string{value}, nil

	case *ir.Ignore:
		return nil, nil
	}
	return nil, errors.Unsupported(s.Position(), fmt.Sprintf("%T", s), "statement has no code generation rule")
}

func (x *context) returnStatement(s *ir.Return, ret ir.Type) ([]string, error) {
	if s.Value == nil {
		return []string{"leave"}, nil
	}
	vars := returnVars(ret)
	if iv, ok := s.Value.(*ir.InterfaceValue); ok {
		if len(iv.Fields) != len(vars) {
			return nil, errors.Structural(s.Pos, errors.ErrorStructural, "return value does not match %s", ret)
		}
		var lines []string
		for i, f := range iv.Fields {
			value, err := x.expr(f)
			if err != nil {
				return nil, err
			}
			lines = append(lines, vars[i]+" := "+value)
		}
		return append(lines, "leave"), nil
	}
	if len(vars) != 1 {
		return nil, errors.Structural(s.Pos, errors.ErrorStructural, "return value does not match %s", ret)
	}
	value, err := x.expr(s.Value)
	if err != nil {
		return nil, err
	}
	return []string{vars[0] + " := " + value, "leave"}, nil
}

// producesValue reports whether e leaves a word behind that must be popped.
func (x *context) producesValue(e ir.Expression) bool {
	call, ok := e.(*ir.Call)
	if !ok {
		return true
	}
	if _, internal := call.Receiver.(*ir.This); internal {
		m := x.contract.Method(call.Target)
		return m != nil && !ir.IsVoid(m.Return)
	}
	if m := x.externalMethod(call); m != nil {
		return !ir.IsVoid(m.Return)
	}
	return true
}

func (x *context) exprs(es []ir.Expression) ([]string, error) {
	out := make([]string, len(es))
	for i, e := range es {
		s, err := x.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (x *context) expr(e ir.Expression) (string, error) {
	switch e := e.(type) {
	case *ir.Value:
		return literal(e)

	case *ir.Variable:
		return local(e.Name), nil

	case *ir.Storage:
		slot, err := x.slot(e.Pos, e.Name)
		if err != nil {
			return "", err
		}
		if slot.Kind != ScalarSlot && slot.Kind != ImmutableSlot {
			return "", errors.Unsupported(e.Pos, "this."+e.Name, "cannot read a whole %s property", slot.Kind)
		}
		return "get_" + e.Name + "()", nil

	case *ir.MappingAccess:
		slot, err := x.indexed(e.Pos, e.Property, len(e.Indices))
		if err != nil {
			return "", err
		}
		args, err := x.exprs(e.Indices)
		if err != nil {
			return "", err
		}
		return "get_" + slot.Variable.Name + "(" + strings.Join(args, ", ") + ")", nil

	case *ir.Length:
		slot, err := x.slot(e.Pos, e.Property)
		if err != nil {
			return "", err
		}
		if slot.Kind != ArraySlot {
			return "", errors.Unsupported(e.Pos, "this."+e.Property+".length", "'%s' is not an array", e.Property)
		}
		return "length_" + e.Property + "()", nil

	case *ir.Binary:
		left, err := x.expr(e.Left)
		if err != nil {
			return "", err
		}
		right, err := x.expr(e.Right)
		if err != nil {
			return "", err
		}
		return x.binary(e.Op, left, right), nil

	case *ir.Not:
		value, err := x.expr(e.Value)
		if err != nil {
			return "", err
		}
		return "iszero(" + value + ")", nil

	case *ir.This:
		return "address()", nil

	case *ir.External:
		return x.expr(e.Address)

	case *ir.EvmDialect:
		m, ok := stdlib.LookupMember(e.Environment, e.Member)
		if !ok {
			return "", errors.Unresolved(e.Pos, e.Environment+" member", e.Member, stdlib.MemberNames(e.Environment))
		}
		return m.Builtin + "()", nil

	case *ir.Hash:
		args, err := x.exprs(e.Inputs)
		if err != nil {
			return "", err
		}
		x.hashes[len(args)] = true
		return fmt.Sprintf("hash_%d(%s)", len(args), strings.Join(args, ", ")), nil

	case *ir.Call:
		return x.call(e)

	case *ir.Deploy:
		return x.deploy(e)

	case *ir.Conditional:
		return "", errors.Unsupported(e.Pos, ir.ExpressionString(e), "conditional expression was not normalized")

	case *ir.InterfaceValue:
		return "", errors.Unsupported(e.Pos, ir.ExpressionString(e), "object literals are only allowed in return and emit")
	}
	return "", errors.Unsupported(e.Position(), fmt.Sprintf("%T", e), "expression has no code generation rule")
}

func (x *context) binary(op ir.BinaryOp, left, right string) string {
	call := func(fn string) string { return fn + "(" + left + ", " + right + ")" }
	switch op {
	case ir.Plus:
		return call(x.helpers.use("checked_add"))
	case ir.Minus:
		return call(x.helpers.use("checked_sub"))
	case ir.Times:
		return call(x.helpers.use("checked_mul"))
	case ir.Divide:
		return call(x.helpers.use("checked_div"))
	case ir.Modulo:
		return call(x.helpers.use("checked_mod"))
	case ir.Exponent:
		return call(x.helpers.use("checked_exp"))
	case ir.Equal:
		return call("eq")
	case ir.NotEqual:
		return "iszero(" + call("eq") + ")"
	case ir.Less:
		return call("lt")
	case ir.LessEqual:
		return "iszero(" + call("gt") + ")"
	case ir.Greater:
		return call("gt")
	case ir.GreaterEqual:
		return "iszero(" + call("lt") + ")"
	case ir.And:
		return call("and")
	default:
		return call("or")
	}
}

// literal renders a value as an assembly number. Text values are packed
// left-aligned into one word.
func literal(v *ir.Value) (string, error) {
	switch v.Type.(type) {
	case ir.NumberType:
		return v.Literal, nil
	case ir.BooleanType:
		if v.Literal == "true" {
			return "1", nil
		}
		return "0", nil
	case ir.AddressType:
		if !isHexWord(v.Literal, 40) || len(v.Literal) != 42 {
			return "", errors.Structural(v.Pos, errors.ErrorStructural, "%q is not an address", v.Literal)
		}
		return strings.ToLower(v.Literal), nil
	case ir.BytesType:
		if isHexWord(v.Literal, 64) {
			digits := strings.ToLower(v.Literal[2:])
			return "0x" + digits + strings.Repeat("0", 64-len(digits)), nil
		}
		return textWord(v.Literal), nil
	default:
		return textWord(v.Literal), nil
	}
}

func isHexWord(s string, maxDigits int) bool {
	if !strings.HasPrefix(s, "0x") || len(s) == 2 || len(s)-2 > maxDigits {
		return false
	}
	_, err := hex.DecodeString(strings.Repeat("0", len(s)%2) + s[2:])
	return err == nil
}

func textWord(text string) string {
	if text == "" {
		return "0"
	}
	digits := hex.EncodeToString([]byte(text))
	return "0x" + digits + strings.Repeat("0", 64-len(digits))
}

func (x *context) slot(pos lexer.Position, name string) (*Slot, error) {
	slot := x.layout.Slot(name)
	if slot == nil {
		return nil, errors.Unresolved(pos, "property", name, variableNames(x.contract))
	}
	return slot, nil
}

// indexed resolves a mapping or array property accessed with n indices.
func (x *context) indexed(pos lexer.Position, name string, n int) (*Slot, error) {
	slot, err := x.slot(pos, name)
	if err != nil {
		return nil, err
	}
	want := 0
	switch slot.Kind {
	case MappingSlot:
		want = slot.Arity
	case ArraySlot:
		want = 1
	default:
		return nil, errors.Unsupported(pos, "this."+name+"[...]", "'%s' cannot be indexed", name)
	}
	if n != want {
		return nil, errors.Structural(pos, errors.ErrorMappingArity,
			"'%s' takes %d index(es), got %d", name, want, n)
	}
	return slot, nil
}

func (x *context) call(c *ir.Call) (string, error) {
	args, err := x.exprs(c.Args)
	if err != nil {
		return "", err
	}

	if _, internal := c.Receiver.(*ir.This); internal {
		m := x.contract.Method(c.Target)
		if m == nil {
			return "", errors.Unresolved(c.Pos, "method", c.Target, x.contract.MethodNames())
		}
		if len(args) != len(m.Params) {
			return "", errors.Structural(c.Pos, errors.ErrorStructural,
				"'%s' takes %d argument(s), got %d", c.Target, len(m.Params), len(args))
		}
		if _, multi := m.Return.(ir.InterfaceType); multi {
			return "", errors.Unsupported(c.Pos, ir.ExpressionString(c), "calls returning %s cannot be used as values", m.Return)
		}
		return methodFunction(c.Target) + "(" + strings.Join(args, ", ") + ")", nil
	}

	target, contract, err := x.receiver(c)
	if err != nil {
		return "", err
	}
	fn, err := x.externalCall(c, contract)
	if err != nil {
		return "", err
	}
	return fn + "(" + strings.Join(append([]string{target}, args...), ", ") + ")", nil
}

// receiver evaluates the address an external call goes to and names the
// contract behind it.
func (x *context) receiver(c *ir.Call) (string, string, error) {
	switch r := c.Receiver.(type) {
	case *ir.External:
		addr, err := x.expr(r.Address)
		return addr, r.Contract, err
	case *ir.Storage:
		v := x.contract.Variable(r.Name)
		if v == nil {
			return "", "", errors.Unresolved(r.Pos, "property", r.Name, variableNames(x.contract))
		}
		t, ok := v.Type.(ir.AddressType)
		if !ok || t.Contract == "" {
			return "", "", errors.Unsupported(c.Pos, ir.ExpressionString(c), "'%s' is not a contract reference", r.Name)
		}
		addr, err := x.expr(r)
		return addr, t.Contract, err
	}
	return "", "", errors.Unsupported(c.Pos, ir.ExpressionString(c), "unsupported call receiver")
}

func (x *context) externalMethod(c *ir.Call) *ir.Method {
	var name string
	switch r := c.Receiver.(type) {
	case *ir.External:
		name = r.Contract
	case *ir.Storage:
		if v := x.contract.Variable(r.Name); v != nil {
			if t, ok := v.Type.(ir.AddressType); ok {
				name = t.Contract
			}
		}
	}
	if target := x.emitter.lookup(name); target != nil {
		return target.Method(c.Target)
	}
	return nil
}

// externalCall returns the helper that calls method c.Target on a deployed
// contract, generating it on first use.
func (x *context) externalCall(c *ir.Call, contract string) (string, error) {
	target := x.emitter.lookup(contract)
	if target == nil {
		return "", errors.Unresolved(c.Pos, "contract", contract, x.emitter.names())
	}
	m := target.Method(c.Target)
	if m == nil || m.Visibility == ir.Private {
		return "", errors.Unresolved(c.Pos, "method of "+contract, c.Target, target.MethodNames())
	}
	if len(c.Args) != len(m.Params) {
		return "", errors.Structural(c.Pos, errors.ErrorStructural,
			"'%s.%s' takes %d argument(s), got %d", contract, c.Target, len(m.Params), len(c.Args))
	}
	if _, multi := m.Return.(ir.InterfaceType); multi {
		return "", errors.Unsupported(c.Pos, ir.ExpressionString(c), "calls returning %s cannot be used as values", m.Return)
	}

	name := "call_" + contract + "_" + m.Name
	if _, done := x.calls[name]; done {
		return name, nil
	}

	types := abi.ParamTypes(m.Params)
	params := []string{"target"}
	for i := range types {
		params = append(params, fmt.Sprintf("arg_%d", i+1))
	}
	lines := []string{signatureLine(name, params, returnVars(m.Return)), "let ptr := mload(64)"}
	sig := abi.Signature(m.Name, types)
	lines = append(lines, fmt.Sprintf("mstore(ptr, shl(224, %s))", abi.SelectorHex(sig)))
	encoded, end := x.encode("add(ptr, 4)", types, params[1:])
	lines = append(lines, encoded...)
	x.helpers.use("revert_forward")
	lines = append(lines, fmt.Sprintf("if iszero(call(gas(), target, 0, ptr, sub(%s, ptr), 0, 0)) { revert_forward() }", end))
	if !ir.IsVoid(m.Return) {
		lines = append(lines,
			"if lt(returndatasize(), 32) { revert(0, 0) }",
			"returndatacopy(ptr, 0, returndatasize())",
			"ret := "+x.decodeMemory(m.Return, "ptr", "ptr"))
	}
	lines = append(lines, "}")

	x.calls[name] = strings.Join(lines, "\n")
	x.callOrder = append(x.callOrder, name)
	return name, nil
}

func (x *context) deploy(d *ir.Deploy) (string, error) {
	target := x.emitter.lookup(d.Contract)
	if target == nil {
		return "", errors.Unresolved(d.Pos, "contract", d.Contract, x.emitter.names())
	}
	var params []*ir.Parameter
	if target.Constructor != nil {
		params = target.Constructor.Params
	}
	if len(d.Args) != len(params) {
		return "", errors.Structural(d.Pos, errors.ErrorStructural,
			"constructor of '%s' takes %d argument(s), got %d", d.Contract, len(params), len(d.Args))
	}
	args, err := x.exprs(d.Args)
	if err != nil {
		return "", err
	}
	x.deploys[d.Contract] = true
	return "deploy_" + d.Contract + "(" + strings.Join(args, ", ") + ")", nil
}

func (x *context) deployHelper(name string) []string {
	target := x.emitter.lookup(name)
	var types []ir.Type
	if target.Constructor != nil {
		types = abi.ParamTypes(target.Constructor.Params)
	}
	params := make([]string, len(types))
	for i := range types {
		params[i] = fmt.Sprintf("arg_%d", i+1)
	}
	x.helpers.use("revert_forward")
	lines := []string{
		signatureLine("deploy_"+name, params, []string{"addr"}),
		fmt.Sprintf("let size := datasize(%q)", name),
		"let ptr := mload(64)",
		fmt.Sprintf("datacopy(ptr, dataoffset(%q), size)", name),
	}
	encoded, end := x.encode("add(ptr, size)", types, params)
	lines = append(lines, encoded...)
	return append(lines,
		fmt.Sprintf("addr := create(0, ptr, sub(%s, ptr))", end),
		"if iszero(addr) { revert_forward() }",
		"}")
}

func (x *context) eventHelper(ev *ir.Event) []string {
	types := abi.ParamTypes(ev.Params)
	params := make([]string, len(types))
	for i, p := range ev.Params {
		params[i] = local(p.Name)
	}
	lines := []string{signatureLine("emit_"+ev.Name, params, nil), "let ptr := mload(64)"}
	encoded, end := x.encode("ptr", types, params)
	lines = append(lines, encoded...)
	return append(lines,
		fmt.Sprintf("log1(ptr, sub(%s, ptr), %s)", end, abi.TopicHex(abi.EventSignature(ev))),
		"}")
}

// encode writes values in ABI layout at start and returns the lines and the
// name of the variable holding the end of the encoding.
func (x *context) encode(start string, types []ir.Type, values []string) ([]string, string) {
	end := x.temp("end")
	lines := []string{fmt.Sprintf("let %s := add(%s, %d)", end, start, 32*len(types))}
	for i, t := range types {
		head := start
		if i > 0 {
			head = fmt.Sprintf("add(%s, %d)", start, 32*i)
		}
		if _, dynamic := t.(ir.StringType); dynamic {
			x.helpers.use("abi_encode_string")
			lines = append(lines,
				fmt.Sprintf("mstore(%s, sub(%s, %s))", head, end, start),
				fmt.Sprintf("%s := abi_encode_string(%s, %s)", end, end, values[i]))
			continue
		}
		lines = append(lines, fmt.Sprintf("mstore(%s, %s)", head, values[i]))
	}
	return lines, end
}

// decodeCalldata reads an argument of type t whose head is at offset head.
func (x *context) decodeCalldata(t ir.Type, head string) string {
	switch t.(type) {
	case ir.AddressType:
		return x.helpers.use("validate_address") + "(calldataload(" + head + "))"
	case ir.BooleanType:
		return x.helpers.use("validate_bool") + "(calldataload(" + head + "))"
	case ir.StringType:
		return x.helpers.use("decode_string_calldata") + "(" + head + ")"
	default:
		return "calldataload(" + head + ")"
	}
}

// decodeMemory reads a value of type t from an encoding that begins at start.
func (x *context) decodeMemory(t ir.Type, start, head string) string {
	switch t.(type) {
	case ir.AddressType:
		return x.helpers.use("validate_address") + "(mload(" + head + "))"
	case ir.BooleanType:
		return x.helpers.use("validate_bool") + "(mload(" + head + "))"
	case ir.StringType:
		return x.helpers.use("decode_string_memory") + "(" + start + ", " + head + ")"
	default:
		return "mload(" + head + ")"
	}
}

// internalCalls lists the methods reachable from body through calls on this.
func internalCalls(c *ir.Contract, bodies ...[]ir.Statement) []*ir.Method {
	seen := map[string]bool{}
	var queue []string
	visit := func(stmts []ir.Statement) {
		ir.InspectBody(stmts, func(e ir.Expression) bool {
			if call, ok := e.(*ir.Call); ok {
				if _, internal := call.Receiver.(*ir.This); internal && !seen[call.Target] {
					seen[call.Target] = true
					queue = append(queue, call.Target)
				}
			}
			return true
		})
	}
	for _, body := range bodies {
		visit(body)
	}
	for i := 0; i < len(queue); i++ {
		if m := c.Method(queue[i]); m != nil {
			visit(m.Body)
		}
	}

	var methods []*ir.Method
	for _, m := range c.Methods {
		if seen[m.Name] {
			methods = append(methods, m)
		}
	}
	return methods
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
