package codegen

import (
	"sort"
	"strconv"
)

// helper is a shared assembly function emitted at most once per context.
type helper struct {
	deps []string
	code string
}

// Panic codes shared with the rest of the EVM ecosystem.
const (
	panicOverflow   = "0x11"
	panicDivision   = "0x12"
	panicArrayIndex = "0x32"
)

var helpers = map[string]helper{
	"allocate": {code: `
function allocate(size) -> ptr {
    ptr := mload(64)
    mstore(64, add(ptr, size))
}`},

	"panic_error": {code: `
function panic_error(code) {
    mstore(0, shl(224, 0x4e487b71))
    mstore(4, code)
    revert(0, 36)
}`},

	"revert_forward": {code: `
function revert_forward() {
    returndatacopy(0, 0, returndatasize())
    revert(0, returndatasize())
}`},

	"revert_error": {deps: []string{"abi_encode_string"}, code: `
function revert_error(message) {
    let ptr := mload(64)
    mstore(ptr, shl(224, 0x08c379a0))
    mstore(add(ptr, 4), 32)
    let end := abi_encode_string(add(ptr, 36), message)
    revert(ptr, sub(end, ptr))
}`},

	"require_no_value": {code: `
function require_no_value() {
    if callvalue() { revert(0, 0) }
}`},

	"checked_add": {deps: []string{"panic_error"}, code: `
function checked_add(x, y) -> sum {
    sum := add(x, y)
    if lt(sum, x) { panic_error(` + panicOverflow + `) }
}`},

	"checked_sub": {deps: []string{"panic_error"}, code: `
function checked_sub(x, y) -> diff {
    if lt(x, y) { panic_error(` + panicOverflow + `) }
    diff := sub(x, y)
}`},

	"checked_mul": {deps: []string{"panic_error"}, code: `
function checked_mul(x, y) -> product {
    product := mul(x, y)
    if iszero(or(iszero(x), eq(div(product, x), y))) { panic_error(` + panicOverflow + `) }
}`},

	"checked_div": {deps: []string{"panic_error"}, code: `
function checked_div(x, y) -> quotient {
    if iszero(y) { panic_error(` + panicDivision + `) }
    quotient := div(x, y)
}`},

	"checked_mod": {deps: []string{"panic_error"}, code: `
function checked_mod(x, y) -> remainder {
    if iszero(y) { panic_error(` + panicDivision + `) }
    remainder := mod(x, y)
}`},

	"checked_exp": {deps: []string{"checked_mul"}, code: `
function checked_exp(base, exponent) -> power {
    power := 1
    for { } exponent { exponent := shr(1, exponent) } {
        if and(exponent, 1) { power := checked_mul(power, base) }
        if gt(exponent, 1) { base := checked_mul(base, base) }
    }
}`},

	"string_length": {code: `
function string_length(word) -> length {
    for { } lt(length, 32) { length := add(length, 1) } {
        if iszero(byte(length, word)) { break }
    }
}`},

	"abi_encode_string": {deps: []string{"string_length"}, code: `
function abi_encode_string(pos, word) -> end {
    let length := string_length(word)
    mstore(pos, length)
    mstore(add(pos, 32), word)
    end := add(add(pos, 32), mul(iszero(iszero(length)), 32))
}`},

	"require_calldata": {code: `
function require_calldata(size) {
    if lt(calldatasize(), size) { revert(0, 0) }
}`},

	"validate_address": {code: `
function validate_address(value) -> cleaned {
    if shr(160, value) { revert(0, 0) }
    cleaned := value
}`},

	"validate_bool": {code: `
function validate_bool(value) -> cleaned {
    if gt(value, 1) { revert(0, 0) }
    cleaned := value
}`},

	"decode_string_calldata": {code: `
function decode_string_calldata(head) -> word {
    let offset := add(4, calldataload(head))
    let length := calldataload(offset)
    if gt(length, 32) { revert(0, 0) }
    word := and(calldataload(add(offset, 32)), shl(mul(8, sub(32, length)), not(0)))
}`},

	"decode_string_memory": {code: `
function decode_string_memory(start, head) -> word {
    let offset := add(start, mload(head))
    let length := mload(offset)
    if gt(length, 32) { revert(0, 0) }
    word := and(mload(add(offset, 32)), shl(mul(8, sub(32, length)), not(0)))
}`},
}

// mappingSlotHelper hashes keys onto base from the innermost key outwards:
// h = base, then h = keccak256(k_i . h) for i = n..1.
func mappingSlotHelper(arity int) string {
	params := ""
	for i := 1; i <= arity; i++ {
		params += ", key" + strconv.Itoa(i)
	}
	body := "\n    slot := base"
	for i := arity; i >= 1; i-- {
		body += "\n    mstore(0, key" + strconv.Itoa(i) + ")" +
			"\n    mstore(32, slot)" +
			"\n    slot := keccak256(0, 64)"
	}
	return "\nfunction mapping_slot_" + strconv.Itoa(arity) + "(base" + params + ") -> slot {" + body + "\n}"
}

// hashHelper packs its arguments into consecutive words and hashes them.
func hashHelper(arity int) string {
	params := ""
	body := "\n    let ptr := mload(64)"
	for i := 1; i <= arity; i++ {
		if i > 1 {
			params += ", "
		}
		params += "word" + strconv.Itoa(i)
		body += "\n    mstore(add(ptr, " + strconv.Itoa(32*(i-1)) + "), word" + strconv.Itoa(i) + ")"
	}
	body += "\n    hash := keccak256(ptr, " + strconv.Itoa(32*arity) + ")"
	return "\nfunction hash_" + strconv.Itoa(arity) + "(" + params + ") -> hash {" + body + "\n}"
}

// helperSet tracks the helpers one context uses, with their dependencies.
type helperSet map[string]bool

func (h helperSet) use(name string) string {
	if h[name] {
		return name
	}
	h[name] = true
	for _, dep := range helpers[name].deps {
		h.use(dep)
	}
	return name
}

// code renders the used helpers in name order.
func (h helperSet) code() string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for _, name := range names {
		out += helpers[name].code + "\n"
	}
	return out
}
