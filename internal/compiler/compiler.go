// Package compiler runs the whole pipeline: it loads and lowers source files,
// flattens and analyzes the contracts, and produces an ABI, formatted
// assembly and, when an assembler is configured, bytecode per contract.
package compiler

import (
	"context"
	"fmt"
	"sort"

	"github.com/tliron/commonlog"

	"tsevm/internal/abi"
	"tsevm/internal/codegen"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
	"tsevm/internal/lower"
	"tsevm/internal/semantic"
)

var log = commonlog.GetLogger("tsevm.compiler")

// Artifact is the output for one contract.
type Artifact struct {
	Name     string
	File     string
	Contract *ir.Contract
	ABI      []byte
	// Assembly is the formatted object text handed to the assembler.
	Assembly string
	// Bytecode is the hex creation code; empty without an assembler.
	Bytecode string
}

// Result holds every artifact of a build, sorted by contract name, and the
// warnings raised on the way.
type Result struct {
	Artifacts []*Artifact
	Warnings  []errors.CompilerError
}

func (r *Result) Artifact(name string) *Artifact {
	for _, a := range r.Artifacts {
		if a.Name == name {
			return a
		}
	}
	return nil
}

type Compiler struct {
	Load Loader
	// Assembler is optional. Without it no bytecode is produced.
	Assembler Assembler
}

// New returns a compiler reading sources from disk.
func New(assembler Assembler) *Compiler {
	return &Compiler{Load: FileLoader, Assembler: assembler}
}

// CompileSource compiles a single in-memory file without an assembler.
func CompileSource(name, text string) (*Result, error) {
	c := &Compiler{Load: MapLoader(map[string]string{name: text})}
	return c.Compile(context.Background(), name)
}

// Compile builds every contract reachable from the entry files. The first
// error aborts the whole build.
func (c *Compiler) Compile(ctx context.Context, entries ...string) (*Result, error) {
	l := newLoader(c.Load)
	for _, entry := range entries {
		if _, err := l.visit(entry, nil); err != nil {
			return nil, err
		}
	}

	contracts, warnings, err := lowerFiles(l.files)
	if err != nil {
		return nil, err
	}

	if err := semantic.Flatten(contracts); err != nil {
		return nil, err
	}
	names := sortedNames(contracts)
	for _, name := range names {
		if err := semantic.AnalyzeMutability(contracts[name]); err != nil {
			return nil, err
		}
	}

	result := &Result{Warnings: warnings}
	emitter := codegen.NewEmitter(contracts)
	for _, name := range names {
		artifact, err := c.generate(ctx, emitter, contracts[name])
		if err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, artifact)
	}
	return result, nil
}

func (c *Compiler) generate(ctx context.Context, emitter *codegen.Emitter, contract *ir.Contract) (*Artifact, error) {
	abiJSON, err := abi.Marshal(contract)
	if err != nil {
		return nil, err
	}
	assembly, err := emitter.Emit(contract)
	if err != nil {
		return nil, err
	}
	artifact := &Artifact{
		Name:     contract.Name,
		File:     contract.File,
		Contract: contract,
		ABI:      abiJSON,
		Assembly: codegen.Format(assembly),
	}
	if c.Assembler != nil {
		artifact.Bytecode, err = c.Assembler.Assemble(ctx, contract.Name, artifact.Assembly)
		if err != nil {
			return nil, err
		}
	}
	log.Infof("compiled %s", contract.Name)
	return artifact, nil
}

// lowerFiles lowers every class of files, which must be in dependency order.
// Events are collected for all classes first so a class can emit the events
// of any base, whatever file declares it.
func lowerFiles(files []*sourceFile) (map[string]*ir.Contract, []errors.CompilerError, error) {
	base := lower.NewScope()
	owner := map[string]string{}
	bases := map[string][]string{}
	for _, f := range files {
		for _, el := range f.program.Elements {
			class := el.Class
			if class == nil {
				continue
			}
			if prev, dup := owner[class.Name]; dup {
				return nil, nil, errors.NewSemanticError(errors.KindStructural, errors.ErrorDuplicateDeclaration,
					fmt.Sprintf("contract '%s' is declared more than once", class.Name), class.Pos).
					WithNote(fmt.Sprintf("first declared in %s", prev)).Err()
			}
			owner[class.Name] = f.path
			bases[class.Name] = class.Extends
			base.Contracts[class.Name] = true
		}
	}

	type unit struct {
		file  *sourceFile
		decls *lower.Declarations
		scope lower.Scope
	}
	exported := map[string]*lower.Declarations{}
	var units []unit
	declared := map[string][]*ir.Event{}
	for _, f := range files {
		scope, err := importScope(base, f, exported)
		if err != nil {
			return nil, nil, err
		}
		decls, scope, err := lower.Declare(f.program, scope)
		if err != nil {
			return nil, nil, err
		}
		exported[f.path] = decls
		for _, class := range decls.Classes {
			events, err := lower.CollectEvents(class, scope)
			if err != nil {
				return nil, nil, err
			}
			declared[class.Name] = events
		}
		units = append(units, unit{file: f, decls: decls, scope: scope})
	}

	contracts := map[string]*ir.Contract{}
	var warnings []errors.CompilerError
	for _, u := range units {
		for _, class := range u.decls.Classes {
			inherited := lower.InheritedEvents(class.Name, bases, declared)
			contract, err := lower.BuildContract(class, u.file.path, u.scope.WithEvents(inherited))
			if err != nil {
				return nil, nil, err
			}
			contracts[contract.Name] = contract

			found := semantic.NewFlowAnalyzer().AnalyzeContract(contract)
			for _, w := range found {
				log.Warningf("%s", w.Error())
			}
			warnings = append(warnings, found...)
		}
	}
	return contracts, warnings, nil
}

// importScope extends base with the interfaces and constants f imports.
// Named imports must exist in the imported file; namespace and default
// imports bring in everything it declares.
func importScope(base lower.Scope, f *sourceFile, exported map[string]*lower.Declarations) (lower.Scope, error) {
	scope := base
	for _, dep := range f.imports {
		decls := exported[dep.file.path]
		if len(dep.imp.Names) == 0 {
			scope = scope.WithInterfaces(decls.Interfaces).WithConstants(decls.Constants)
			continue
		}
		for _, name := range dep.imp.Names {
			if iface, ok := decls.Interfaces[name]; ok {
				scope = scope.WithInterfaces(map[string]*ir.Interface{name: iface})
				continue
			}
			if value, ok := decls.Constants[name]; ok {
				scope = scope.WithConstant(name, value)
				continue
			}
			if declaresClass(decls, name) {
				continue
			}
			return scope, errors.Unresolved(dep.imp.Pos, "export of '"+dep.imp.From+"'", name, exportNames(decls))
		}
	}
	return scope, nil
}

func declaresClass(decls *lower.Declarations, name string) bool {
	for _, class := range decls.Classes {
		if class.Name == name {
			return true
		}
	}
	return false
}

func exportNames(decls *lower.Declarations) []string {
	var names []string
	for name := range decls.Interfaces {
		names = append(names, name)
	}
	for name := range decls.Constants {
		names = append(names, name)
	}
	for _, class := range decls.Classes {
		names = append(names, class.Name)
	}
	sort.Strings(names)
	return names
}

func sortedNames(contracts map[string]*ir.Contract) []string {
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
