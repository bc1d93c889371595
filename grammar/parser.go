package grammar

import (
	"fmt"
	"sync"

	"github.com/alecthomas/participle/v2"
)

var (
	buildOnce   sync.Once
	buildErr    error
	sourceParse *participle.Parser[Program]
)

func parser() (*participle.Parser[Program], error) {
	buildOnce.Do(func() {
		sourceParse, buildErr = participle.Build[Program](
			participle.Lexer(SourceLexer),
			participle.Elide("Whitespace", "Comment"),
			participle.Unquote("String"),
			participle.UseLookahead(64),
		)
		if buildErr != nil {
			buildErr = fmt.Errorf("failed to build parser: %w", buildErr)
		}
	})
	return sourceParse, buildErr
}

// ParseString parses source text; filename is only used for positions.
func ParseString(filename, source string) (*Program, error) {
	p, err := parser()
	if err != nil {
		return nil, err
	}
	return p.ParseString(filename, source)
}
