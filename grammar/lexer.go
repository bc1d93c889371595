package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var SourceLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{Name: "Comment", Pattern: `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`, Action: nil},

		// String literals (single or double quoted)
		{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`, Action: nil},

		// Integer literals, with optional _ separators
		{Name: "Number", Pattern: `0[xX][0-9a-fA-F_]+|[0-9][0-9_]*`, Action: nil},

		// Keywords and Identifiers (order matters)
		{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`, Action: nil},

		// Operators, longest first
		{Name: "Operator", Pattern: `===|!==|\*\*|==|!=|<=|>=|&&|\|\||\+=|-=|=>|[-+*/%<>=!?]`, Action: nil},

		// Punctuation (must come after operators)
		{Name: "Punctuation", Pattern: `[{}\[\]():;,.]`, Action: nil},

		// Whitespace
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})
