package compiler

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"tsevm/grammar"
	"tsevm/internal/errors"
	"tsevm/internal/stdlib"
)

// Loader returns the text of a source file.
type Loader func(path string) (string, error)

// FileLoader reads sources from disk.
func FileLoader(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MapLoader serves sources from memory, keyed by slash-separated path.
func MapLoader(files map[string]string) Loader {
	return func(p string) (string, error) {
		text, ok := files[filepath.ToSlash(p)]
		if !ok {
			return "", fmt.Errorf("%s: no such file", p)
		}
		return text, nil
	}
}

// sourceFile is one parsed file of the build.
type sourceFile struct {
	path    string
	text    string
	program *grammar.Program
	imports []*dependency
}

type dependency struct {
	imp  *grammar.Import
	file *sourceFile
}

type loadState int

const (
	unloaded loadState = iota
	loading
	loaded
)

// loader parses files reachable from the entry points. files ends up in
// dependency order: every file follows the files it imports.
type loader struct {
	load   Loader
	state  map[string]loadState
	byPath map[string]*sourceFile
	files  []*sourceFile
}

func newLoader(load Loader) *loader {
	return &loader{load: load, state: map[string]loadState{}, byPath: map[string]*sourceFile{}}
}

func (l *loader) visit(p string, from *grammar.Import) (*sourceFile, error) {
	p = path.Clean(filepath.ToSlash(p))
	switch l.state[p] {
	case loaded:
		return l.byPath[p], nil
	case loading:
		return nil, errors.Structural(from.Pos, errors.ErrorCycle, "import cycle through '%s'", p)
	}
	l.state[p] = loading

	text, err := l.load(p)
	if err != nil {
		if from != nil {
			return nil, errors.NewSemanticError(errors.KindUnresolvedReference, errors.ErrorUnresolvedReference,
				fmt.Sprintf("cannot load module '%s'", from.From), from.Pos).WithNote(err.Error()).Err()
		}
		return nil, err
	}
	program, err := grammar.ParseString(p, text)
	if err != nil {
		return nil, errors.Syntax(p, err)
	}
	file := &sourceFile{path: p, text: text, program: program}

	for _, el := range program.Elements {
		imp := el.Import
		if imp == nil || stdlib.IsKnownModule(imp.From) {
			continue
		}
		if !isRelative(imp.From) {
			return nil, errors.Unresolved(imp.Pos, "module", imp.From, moduleNames())
		}
		dep, err := l.visit(resolveImport(p, imp.From), imp)
		if err != nil {
			return nil, err
		}
		file.imports = append(file.imports, &dependency{imp: imp, file: dep})
	}

	l.state[p] = loaded
	l.byPath[p] = file
	l.files = append(l.files, file)
	log.Debugf("loaded %s (%d imports)", p, len(file.imports))
	return file, nil
}

func isRelative(from string) bool {
	return strings.HasPrefix(from, "./") || strings.HasPrefix(from, "../")
}

// resolveImport maps a relative specifier to a path next to the importer.
// A specifier without an extension refers to a .ts file.
func resolveImport(importer, from string) string {
	target := path.Join(path.Dir(importer), from)
	if path.Ext(target) == "" {
		target += ".ts"
	}
	return target
}

func moduleNames() []string {
	names := make([]string, 0)
	for name := range stdlib.GetStandardModules() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
