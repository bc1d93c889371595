// Package codegen turns analyzed contracts into Yul objects.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"tsevm/internal/abi"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

var log = commonlog.GetLogger("tsevm.codegen")

// Section names, in emission order. The creation code carries the
// Constructor variants, the runtime code the plain ones.
const (
	SectionConstructor   = "Constructor"
	SectionDispatcher    = "Dispatcher"
	SectionFunctions     = "Functions"
	SectionStorageLayout = "Storage Layout"
	SectionStorageAccess = "Storage Access"
	SectionEvents        = "Events"
	SectionHelpers       = "Helpers"
)

// stagingStart is the first memory word used to hold immutable values
// until the runtime code has been copied for setimmutable.
const stagingStart = 0x80

// Emitter generates assembly objects. Contracts referenced by deployments
// and external calls are looked up through resolve and nested as needed.
type Emitter struct {
	resolve func(name string) *ir.Contract
	known   []string
	objects map[string]string
	active  map[string]bool
}

// NewEmitter creates an emitter over the contracts of one build.
func NewEmitter(contracts map[string]*ir.Contract) *Emitter {
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Emitter{
		resolve: func(name string) *ir.Contract { return contracts[name] },
		known:   names,
		objects: map[string]string{},
		active:  map[string]bool{},
	}
}

func (em *Emitter) lookup(name string) *ir.Contract {
	if em.resolve == nil || name == "" {
		return nil
	}
	return em.resolve(name)
}

func (em *Emitter) names() []string { return em.known }

// Emit returns the assembly object of c with section marker comments.
// Mutability analysis must already have run.
func (em *Emitter) Emit(c *ir.Contract) (string, error) {
	if obj, done := em.objects[c.Name]; done {
		return obj, nil
	}
	if em.active[c.Name] {
		return "", errors.Structural(c.Pos, errors.ErrorCycle, "contract '%s' deploys itself", c.Name)
	}
	em.active[c.Name] = true
	defer delete(em.active, c.Name)

	if err := abi.CheckSelectors(c); err != nil {
		return "", err
	}
	layout, err := PlanLayout(c)
	if err != nil {
		return "", err
	}
	log.Debugf("layout of %s:\n%s", c.Name, layout)

	creation, err := em.creationCode(c, layout)
	if err != nil {
		return "", err
	}
	runtime, err := em.runtimeCode(c, layout)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "object %q {\n", c.Name)
	b.WriteString(creation.code)
	fmt.Fprintf(&b, "object %q {\n", runtimeName(c.Name))
	b.WriteString(runtime.code)
	for _, nested := range runtime.objects {
		b.WriteString(nested)
	}
	b.WriteString("}\n")
	for _, nested := range creation.objects {
		b.WriteString(nested)
	}
	b.WriteString("}\n")

	em.objects[c.Name] = b.String()
	return em.objects[c.Name], nil
}

func runtimeName(contract string) string { return contract + "_deployed" }

// block is one code block plus the objects it deploys.
type block struct {
	code    string
	objects []string
}

type sectionWriter struct {
	b strings.Builder
}

func (w *sectionWriter) section(name string) {
	fmt.Fprintf(&w.b, "// - %s -\n", name)
}

func (w *sectionWriter) lines(lines ...string) {
	for _, line := range lines {
		w.b.WriteString(line)
		w.b.WriteByte('\n')
	}
}

func (em *Emitter) creationCode(c *ir.Contract, layout *Layout) (*block, error) {
	x := newContext(em, c, layout, true)
	w := &sectionWriter{}
	w.lines("code {")
	w.section(SectionConstructor)
	// The block keeps construction locals out of every function's scope.
	w.lines("{")
	w.lines(fmt.Sprintf("mstore(64, %d)", stagingStart+32*layout.StagedCount))
	w.lines(x.helpers.use("require_no_value") + "()")

	var args []string
	if c.Constructor != nil && len(c.Constructor.Params) > 0 {
		types := abi.ParamTypes(c.Constructor.Params)
		w.lines(
			fmt.Sprintf("let args_size := sub(codesize(), datasize(%q))", c.Name),
			"if lt(args_size, "+fmt.Sprint(32*len(types))+") { revert(0, 0) }",
			"let args := "+x.helpers.use("allocate")+"(args_size)",
			fmt.Sprintf("codecopy(args, datasize(%q), args_size)", c.Name))
		for i, t := range types {
			name := fmt.Sprintf("arg_%d", i+1)
			head := "args"
			if i > 0 {
				head = fmt.Sprintf("add(args, %d)", 32*i)
			}
			w.lines("let " + name + " := " + x.decodeMemory(t, "args", head))
			args = append(args, name)
		}
	}

	var initializers []ir.Statement
	for _, slot := range layout.Slots {
		v := slot.Variable
		if v.Initializer == nil || slot.Inline {
			continue
		}
		initializers = append(initializers, &ir.StorageUpdate{Node: v.Node, Property: v.Name, Value: v.Initializer})
	}
	prologue, err := x.statements(initializers, ir.VoidType{})
	if err != nil {
		return nil, err
	}
	w.lines(prologue...)

	var bodies [][]ir.Statement
	bodies = append(bodies, initializers)
	var ctorFn []string
	if c.Constructor != nil {
		w.lines("constructor_body(" + strings.Join(args, ", ") + ")")
		if ctorFn, err = x.constructorFunction(c.Constructor); err != nil {
			return nil, err
		}
		bodies = append(bodies, c.Constructor.Body)
	}

	w.lines(
		fmt.Sprintf("let runtime_size := datasize(%q)", runtimeName(c.Name)),
		"let runtime := "+x.helpers.use("allocate")+"(runtime_size)",
		fmt.Sprintf("codecopy(runtime, dataoffset(%q), runtime_size)", runtimeName(c.Name)))
	for _, slot := range layout.Slots {
		if slot.Kind == ImmutableSlot && !slot.Inline {
			w.lines(fmt.Sprintf("setimmutable(runtime, %q, mload(%d))", slot.Variable.Name, stagingAddress(slot)))
		}
	}
	w.lines("return(runtime, runtime_size)", "}")

	w.section("Constructor " + SectionFunctions)
	w.lines(ctorFn...)
	for _, m := range internalCalls(c, bodies...) {
		fn, err := x.function(m)
		if err != nil {
			return nil, err
		}
		w.lines(fn...)
	}

	return em.finish(x, w, "Constructor ")
}

func (em *Emitter) runtimeCode(c *ir.Contract, layout *Layout) (*block, error) {
	x := newContext(em, c, layout, false)
	w := &sectionWriter{}
	w.lines("code {")
	w.section(SectionDispatcher)
	dispatch, err := x.dispatcher()
	if err != nil {
		return nil, err
	}
	w.lines(dispatch...)

	w.section(SectionFunctions)
	for _, m := range c.Methods {
		fn, err := x.function(m)
		if err != nil {
			return nil, err
		}
		w.lines(fn...)
	}
	return em.finish(x, w, "")
}

// finish writes the sections shared by both code blocks and generates the
// objects the block deploys.
func (em *Emitter) finish(x *context, w *sectionWriter, prefix string) (*block, error) {
	for _, name := range x.callOrder {
		w.lines(x.calls[name])
	}
	deploys := sortedKeys(x.deploys)
	for _, name := range deploys {
		w.lines(x.deployHelper(name)...)
	}

	w.section(prefix + SectionStorageLayout)
	for _, arity := range x.layout.Arities {
		w.lines(mappingSlotHelper(arity))
	}

	w.section(prefix + SectionStorageAccess)
	for _, slot := range x.layout.Slots {
		w.lines(x.accessors(slot)...)
	}

	w.section(prefix + SectionEvents)
	for _, ev := range x.contract.Events {
		if x.events[ev.Name] {
			w.lines(x.eventHelper(ev)...)
		}
	}

	w.section(prefix + SectionHelpers)
	arities := make([]int, 0, len(x.hashes))
	for arity := range x.hashes {
		arities = append(arities, arity)
	}
	sort.Ints(arities)
	for _, arity := range arities {
		w.lines(hashHelper(arity))
	}
	w.b.WriteString(x.helpers.code())
	w.lines("}")

	out := &block{code: w.b.String()}
	for _, name := range deploys {
		obj, err := em.Emit(em.lookup(name))
		if err != nil {
			return nil, err
		}
		out.objects = append(out.objects, obj)
	}
	return out, nil
}

func stagingAddress(slot *Slot) int {
	return stagingStart + 32*slot.Staged
}

// accessors renders the getter and setter functions of one variable.
func (x *context) accessors(slot *Slot) []string {
	name := slot.Variable.Name
	switch slot.Kind {
	case ScalarSlot:
		return []string{
			fmt.Sprintf("function get_%s() -> value { value := sload(%s) }", name, slot.Slot.Dec()),
			fmt.Sprintf("function set_%s(value) { sstore(%s, value) }", name, slot.Slot.Dec()),
		}

	case ArraySlot:
		x.helpers.use("panic_error")
		length := slot.Slot.Dec()
		elements := slot.Elements().Dec()
		return []string{
			fmt.Sprintf("function length_%s() -> length { length := sload(%s) }", name, length),
			fmt.Sprintf("function get_%s(index) -> value {", name),
			fmt.Sprintf("if iszero(lt(index, sload(%s))) { panic_error(%s) }", length, panicArrayIndex),
			fmt.Sprintf("value := sload(add(%s, index))", elements),
			"}",
			fmt.Sprintf("function set_%s(index, value) {", name),
			fmt.Sprintf("if gt(index, %s) { panic_error(%s) }", maxArrayIndex.Hex(), panicArrayIndex),
			fmt.Sprintf("if iszero(lt(index, sload(%s))) { sstore(%s, add(index, 1)) }", length, length),
			fmt.Sprintf("sstore(add(%s, index), value)", elements),
			"}",
		}

	case MappingSlot:
		keys := make([]string, slot.Arity)
		for i := range keys {
			keys[i] = fmt.Sprintf("key%d", i+1)
		}
		location := fmt.Sprintf("mapping_slot_%d(%s, %s)", slot.Arity, slot.Base.Hex(), strings.Join(keys, ", "))
		return []string{
			fmt.Sprintf("function get_%s(%s) -> value { value := sload(%s) }", name, strings.Join(keys, ", "), location),
			fmt.Sprintf("function set_%s(%s, value) { sstore(%s, value) }", name, strings.Join(keys, ", "), location),
		}

	case ImmutableSlot:
		if slot.Inline {
			value, _ := literal(slot.Source.(*ir.Value))
			return []string{fmt.Sprintf("function get_%s() -> value { value := %s }", name, value)}
		}
		if x.creation {
			return []string{
				fmt.Sprintf("function get_%s() -> value { value := mload(%d) }", name, stagingAddress(slot)),
				fmt.Sprintf("function set_%s(value) { mstore(%d, value) }", name, stagingAddress(slot)),
			}
		}
		return []string{fmt.Sprintf("function get_%s() -> value { value := loadimmutable(%q) }", name, name)}
	}
	return nil
}

// dispatcher routes calldata to accessors and public methods by selector.
func (x *context) dispatcher() ([]string, error) {
	lines := []string{"mstore(64, 128)"}

	type entry struct {
		signature string
		body      []string
	}
	var entries []entry

	for _, slot := range x.layout.Slots {
		v := slot.Variable
		if v.Visibility == ir.Private {
			continue
		}
		inputs := abi.AccessorInputs(v)
		body, err := x.dispatchCase(inputs, "get_"+v.Name, []ir.Type{abi.AccessorOutput(v)}, true)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{abi.Signature(v.Name, inputs), body})
	}
	for _, m := range x.contract.Methods {
		if m.Visibility == ir.Private {
			continue
		}
		inputs := abi.ParamTypes(m.Params)
		body, err := x.dispatchCase(inputs, methodFunction(m.Name), returnTypes(m.Return), m.Mutability == ir.View)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{abi.Signature(m.Name, inputs), body})
	}

	if len(entries) == 0 {
		return append(lines, "revert(0, 0)"), nil
	}
	lines = append(lines,
		"if lt(calldatasize(), 4) { revert(0, 0) }",
		"switch shr(224, calldataload(0))")
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("case %s {", abi.SelectorHex(e.signature)), "// "+e.signature)
		lines = append(lines, e.body...)
		lines = append(lines, "}")
	}
	return append(lines, "default { revert(0, 0) }"), nil
}

func (x *context) dispatchCase(inputs []ir.Type, fn string, outputs []ir.Type, view bool) ([]string, error) {
	var lines []string
	if view {
		lines = append(lines, x.helpers.use("require_no_value")+"()")
	}
	if len(inputs) > 0 {
		lines = append(lines, fmt.Sprintf("%s(%d)", x.helpers.use("require_calldata"), 4+32*len(inputs)))
	}
	args := make([]string, len(inputs))
	for i, t := range inputs {
		args[i] = fmt.Sprintf("arg_%d", i+1)
		lines = append(lines, fmt.Sprintf("let %s := %s", args[i], x.decodeCalldata(t, fmt.Sprint(4+32*i))))
	}
	call := fn + "(" + strings.Join(args, ", ") + ")"
	if len(outputs) == 0 {
		return append(lines, call, "return(0, 0)"), nil
	}

	rets := make([]string, len(outputs))
	for i := range outputs {
		rets[i] = fmt.Sprintf("ret_%d", i+1)
	}
	lines = append(lines, fmt.Sprintf("let %s := %s", strings.Join(rets, ", "), call), "let ptr := mload(64)")
	encoded, end := x.encode("ptr", outputs, rets)
	lines = append(lines, encoded...)
	return append(lines, fmt.Sprintf("return(ptr, sub(%s, ptr))", end)), nil
}
