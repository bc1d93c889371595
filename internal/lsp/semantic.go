package lsp

import (
	"slices"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"tsevm/grammar"
	"tsevm/internal/stdlib"
)

// SemanticToken is one token before delta encoding. Line and StartChar are
// 0-based; TokenType indexes SemanticTokenTypes and TokenModifiers is a
// bitmask over SemanticTokenModifiers.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

// tokenWalker collects tokens for one document. Syntax nodes only record
// where they start, so names are located in the source text from there.
type tokenWalker struct {
	lines  []string
	tokens []SemanticToken
}

func collectSemanticTokens(program *grammar.Program, text string) []SemanticToken {
	if program == nil {
		return nil
	}
	w := &tokenWalker{lines: strings.Split(text, "\n")}
	for _, el := range program.Elements {
		switch {
		case el.Import != nil:
			w.walkImport(el.Import)
		case el.Interface != nil:
			w.walkInterface(el.Interface)
		case el.Class != nil:
			w.walkClass(el.Class)
		case el.Constant != nil:
			w.name(el.Constant.Pos, el.Constant.Name, "variable", "declaration", "readonly")
			w.walkType(el.Constant.Type)
			w.walkExpression(el.Constant.Value)
		}
	}
	sort.SliceStable(w.tokens, func(i, j int) bool {
		a, b := w.tokens[i], w.tokens[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.StartChar < b.StartChar
	})
	return w.tokens
}

func (w *tokenWalker) walkImport(imp *grammar.Import) {
	pos := imp.Pos
	for _, name := range imp.Names {
		pos = w.name(pos, name, "type")
	}
	if imp.Namespace != "" {
		w.name(imp.Pos, imp.Namespace, "namespace", "declaration")
	}
	if imp.Default != "" {
		w.name(imp.Pos, imp.Default, "namespace", "declaration")
	}
}

func (w *tokenWalker) walkInterface(i *grammar.Interface) {
	w.name(i.Pos, i.Name, "type", "declaration")
	for _, f := range i.Fields {
		w.at(f.Pos, f.Name, "property", "declaration")
		w.walkType(f.Type)
	}
}

func (w *tokenWalker) walkClass(c *grammar.Class) {
	pos := w.name(c.Pos, c.Name, "type", "declaration")
	for _, base := range c.Extends {
		pos = w.name(pos, base, "type")
	}
	for _, m := range c.Members {
		pos = m.Pos
		for _, mod := range m.Modifiers {
			pos = w.name(pos, mod, "modifier")
		}
		switch {
		case m.Constructor != nil:
			w.walkParams(m.Constructor.Params)
			w.walkBlock(m.Constructor.Body)
		case m.Method != nil:
			w.at(m.Method.Pos, m.Method.Name, "function", "declaration")
			w.walkParams(m.Method.Params)
			w.walkType(m.Method.Return)
			w.walkBlock(m.Method.Body)
		case m.Property != nil:
			p := m.Property
			mods := []string{"declaration"}
			if slices.Contains(m.Modifiers, "readonly") {
				mods = append(mods, "readonly")
			}
			w.at(p.Pos, p.Name, "property", mods...)
			w.walkType(p.Type)
			if p.Initializer != nil {
				if a := p.Initializer.Arrow; a != nil {
					w.walkParams(a.Params)
					w.walkType(a.Return)
					w.walkBlock(a.Body)
					w.walkExpression(a.Value)
				}
				w.walkExpression(p.Initializer.Value)
			}
		}
	}
}

func (w *tokenWalker) walkParams(params []*grammar.Param) {
	for _, p := range params {
		w.at(p.Pos, p.Name, "parameter")
		w.walkType(p.Type)
	}
}

func (w *tokenWalker) walkType(t *grammar.TypeRef) {
	if t == nil {
		return
	}
	w.at(t.Pos, t.Name, "type")
	for _, g := range t.Generics {
		w.walkType(g)
	}
}

func (w *tokenWalker) walkBlock(b *grammar.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		w.walkStatement(s)
	}
}

func (w *tokenWalker) walkStatement(s *grammar.Statement) {
	if s == nil {
		return
	}
	switch {
	case s.Block != nil:
		w.walkBlock(s.Block)
	case s.Declaration != nil:
		d := s.Declaration
		mods := []string{"declaration"}
		if d.Kind == "const" {
			mods = append(mods, "readonly")
		}
		w.name(d.Pos, d.Name, "variable", mods...)
		w.walkType(d.Type)
		w.walkExpression(d.Value)
	case s.If != nil:
		w.walkExpression(s.If.Condition)
		w.walkStatement(s.If.Then)
		w.walkStatement(s.If.Else)
	case s.Return != nil:
		w.walkExpression(s.Return.Value)
	case s.Throw != nil:
		w.walkExpression(s.Throw.Value)
	case s.Expression != nil:
		w.walkExpression(s.Expression.Target)
		w.walkExpression(s.Expression.Value)
	}
}

func (w *tokenWalker) walkExpression(e *grammar.Expression) {
	if e == nil {
		return
	}
	w.walkUnary(e.Condition.Left)
	for _, op := range e.Condition.Ops {
		w.walkUnary(op.Right)
	}
	w.walkExpression(e.Then)
	w.walkExpression(e.Else)
}

func (w *tokenWalker) walkUnary(u *grammar.Unary) {
	p := u.Value
	prim := p.Primary
	switch {
	case prim.Ident != nil:
		kind := "variable"
		switch {
		case stdlib.IsEnvironment(*prim.Ident):
			kind = "namespace"
		case len(p.Suffix) > 0 && p.Suffix[0].Call != nil:
			kind = "function"
		}
		w.at(prim.Pos, *prim.Ident, kind)
	case prim.New != nil:
		w.name(prim.New.Pos, prim.New.Class, "type")
		w.walkArgs(prim.New.Args)
	case prim.Number != nil:
		w.at(prim.Pos, *prim.Number, "number")
	case prim.Parens != nil:
		w.walkExpression(prim.Parens)
	case prim.Object != nil:
		for _, f := range prim.Object.Fields {
			w.at(f.Pos, f.Key, "property")
			w.walkExpression(f.Value)
		}
	}

	for i, s := range p.Suffix {
		switch {
		case s.Member != "":
			kind := "property"
			if i+1 < len(p.Suffix) && p.Suffix[i+1].Call != nil {
				kind = "function"
			}
			w.name(s.Pos, s.Member, kind)
		case s.Index != nil:
			w.walkExpression(s.Index)
		case s.Call != nil:
			w.walkArgs(s.Call)
		}
	}
}

func (w *tokenWalker) walkArgs(a *grammar.Arguments) {
	if a == nil {
		return
	}
	for _, arg := range a.Args {
		w.walkExpression(arg)
	}
}

// at records a token that starts exactly at pos.
func (w *tokenWalker) at(pos lexer.Position, text, kind string, modifiers ...string) {
	if text == "" || pos.Line < 1 {
		return
	}
	w.add(pos.Line-1, pos.Column-1, len(text), kind, modifiers)
}

// name records the first occurrence of text as a whole word at or after
// pos on the same line, and returns the position just past it.
func (w *tokenWalker) name(pos lexer.Position, text, kind string, modifiers ...string) lexer.Position {
	if text == "" || pos.Line < 1 || pos.Line > len(w.lines) {
		return pos
	}
	line := w.lines[pos.Line-1]
	col := findWord(line, text, pos.Column-1)
	if col < 0 {
		return pos
	}
	w.add(pos.Line-1, col, len(text), kind, modifiers)
	pos.Column = col + len(text) + 1
	return pos
}

func (w *tokenWalker) add(line, col, length int, kind string, modifiers []string) {
	mask := 0
	for _, m := range modifiers {
		mask |= 1 << indexOf(m, SemanticTokenModifiers)
	}
	w.tokens = append(w.tokens, SemanticToken{
		Line:           uint32(line),
		StartChar:      uint32(col),
		Length:         uint32(length),
		TokenType:      indexOf(kind, SemanticTokenTypes),
		TokenModifiers: mask,
	})
}

func findWord(line, word string, from int) int {
	for from >= 0 && from < len(line) {
		i := strings.Index(line[from:], word)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(word)
		if (start == 0 || !isWordByte(line[start-1])) && (end == len(line) || !isWordByte(line[end])) {
			return start
		}
		from = end
	}
	return -1
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// indexOf returns the index of target in list, or 0 when it is missing.
func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return 0
}
