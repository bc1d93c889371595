package stdlib

import (
	"sort"

	"tsevm/internal/builtins"
)

// ModuleDefinition defines an intrinsic module. Intrinsic modules are never
// resolved to files on disk.
type ModuleDefinition struct {
	Name      string                        // Module name (e.g., "tsevm", "msg")
	Types     map[string]TypeDefinition     // Available types in this module
	Functions map[string]FunctionDefinition // Available functions in this module
	Members   map[string]MemberDefinition   // Readable environment values
}

// TypeDefinition defines a type exported by an intrinsic module
type TypeDefinition struct {
	Name      string
	IsGeneric bool
}

// FunctionDefinition defines an intrinsic function
type FunctionDefinition struct {
	Name       string
	Parameters []ParameterDefinition
	ReturnType *TypeRef // nil if void
	Variadic   bool
	Doc        string
}

// ParameterDefinition defines a function parameter
type ParameterDefinition struct {
	Name string
	Type *TypeRef
}

// MemberDefinition is an environment value such as msg.sender. Builtin is the
// assembly builtin that reads it.
type MemberDefinition struct {
	Name    string
	Builtin string
	Type    *TypeRef
	Doc     string
}

// TypeRef names a built-in type
type TypeRef struct {
	Name string
}

func NewTypeRef(name builtins.BuiltinType) *TypeRef {
	return &TypeRef{Name: string(name)}
}

func AddressType() *TypeRef { return NewTypeRef(builtins.Address) }
func NumberType() *TypeRef  { return NewTypeRef(builtins.Number) }
func BytesType() *TypeRef   { return NewTypeRef(builtins.Bytes) }

func member(name, builtin string, typ *TypeRef, doc string) MemberDefinition {
	return MemberDefinition{Name: name, Builtin: builtin, Type: typ, Doc: doc}
}

// Environments are the dialect namespaces readable from contract code
var environments = map[string]*ModuleDefinition{
	"msg": {
		Name: "msg",
		Members: map[string]MemberDefinition{
			"sender": member("sender", "caller", AddressType(), "address of the direct caller"),
			"value":  member("value", "callvalue", NumberType(), "wei sent with the call"),
		},
	},
	"block": {
		Name: "block",
		Members: map[string]MemberDefinition{
			"number":     member("number", "number", NumberType(), "current block number"),
			"timestamp":  member("timestamp", "timestamp", NumberType(), "current block timestamp in seconds"),
			"coinbase":   member("coinbase", "coinbase", AddressType(), "beneficiary of the current block"),
			"difficulty": member("difficulty", "prevrandao", NumberType(), "previous block randomness"),
			"prevrandao": member("prevrandao", "prevrandao", NumberType(), "previous block randomness"),
			"gaslimit":   member("gaslimit", "gaslimit", NumberType(), "current block gas limit"),
			"basefee":    member("basefee", "basefee", NumberType(), "current block base fee"),
		},
	},
	"chain": {
		Name: "chain",
		Members: map[string]MemberDefinition{
			"id": member("id", "chainid", NumberType(), "chain identifier"),
		},
	},
	"tx": {
		Name: "tx",
		Members: map[string]MemberDefinition{
			"origin":   member("origin", "origin", AddressType(), "sender of the transaction"),
			"gasprice": member("gasprice", "gasprice", NumberType(), "gas price of the transaction"),
		},
	},
}

var tsevmModule = &ModuleDefinition{
	Name: "tsevm",
	Types: map[string]TypeDefinition{
		string(builtins.Address): {Name: string(builtins.Address)},
		string(builtins.Bytes):   {Name: string(builtins.Bytes)},
		string(builtins.Event):   {Name: string(builtins.Event), IsGeneric: true},
	},
	Functions: map[string]FunctionDefinition{
		"emit": {
			Name:       "emit",
			Parameters: []ParameterDefinition{{Name: "event", Type: &TypeRef{Name: "Event"}}},
			Doc:        "log an event: emit(this.Transfer({ ... }))",
		},
		"keccak256": {
			Name:       "keccak256",
			ReturnType: BytesType(),
			Variadic:   true,
			Doc:        "Keccak-256 over the word-packed arguments",
		},
	},
}

// GetStandardModules returns all intrinsic modules keyed by import name
func GetStandardModules() map[string]*ModuleDefinition {
	modules := map[string]*ModuleDefinition{"tsevm": tsevmModule}
	for name, env := range environments {
		modules[name] = env
	}
	return modules
}

// IsKnownModule checks if an import specifier names an intrinsic module
func IsKnownModule(modulePath string) bool {
	_, exists := GetStandardModules()[modulePath]
	return exists
}

// GetModuleDefinition returns the definition for an intrinsic module
func GetModuleDefinition(modulePath string) *ModuleDefinition {
	return GetStandardModules()[modulePath]
}

// IsEnvironment reports whether name is a dialect namespace such as msg or block
func IsEnvironment(name string) bool {
	_, ok := environments[name]
	return ok
}

// LookupMember resolves environment.member
func LookupMember(environment, name string) (MemberDefinition, bool) {
	env, ok := environments[environment]
	if !ok {
		return MemberDefinition{}, false
	}
	m, ok := env.Members[name]
	return m, ok
}

// MemberNames lists the members of an environment in sorted order
func MemberNames(environment string) []string {
	env, ok := environments[environment]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(env.Members))
	for name := range env.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvironmentNames lists the dialect namespaces in sorted order
func EnvironmentNames() []string {
	names := make([]string, 0, len(environments))
	for name := range environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsIntrinsicFunction reports whether name is provided by the tsevm module
func IsIntrinsicFunction(name string) bool {
	_, ok := tsevmModule.Functions[name]
	return ok
}
