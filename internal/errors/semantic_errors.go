package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// SemanticErrorBuilder provides a fluent interface for creating semantic errors with suggestions
type SemanticErrorBuilder struct {
	err CompilerError
}

// NewSemanticError creates a new semantic error builder
func NewSemanticError(kind Kind, code, message string, pos lexer.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{
			Level:    Error,
			Kind:     kind,
			Code:     code,
			Message:  message,
			Position: At(pos),
			Length:   1,
		},
	}
}

// NewSemanticWarning creates a new semantic warning builder
func NewSemanticWarning(code, message string, pos lexer.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{
			Level:    Warning,
			Code:     code,
			Message:  message,
			Position: At(pos),
			Length:   1,
		},
	}
}

// WithLength sets the length of the error span
func (b *SemanticErrorBuilder) WithLength(length int) *SemanticErrorBuilder {
	b.err.Length = length
	return b
}

// WithConstruct records the source form of the offending node
func (b *SemanticErrorBuilder) WithConstruct(construct string) *SemanticErrorBuilder {
	b.err.Construct = construct
	if construct != "" {
		b.err.Length = len(construct)
	}
	return b
}

// WithSuggestion adds a suggestion to the error
func (b *SemanticErrorBuilder) WithSuggestion(message string) *SemanticErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithNote adds a note to the error
func (b *SemanticErrorBuilder) WithNote(note string) *SemanticErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error
func (b *SemanticErrorBuilder) WithHelp(help string) *SemanticErrorBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed compiler error
func (b *SemanticErrorBuilder) Build() CompilerError {
	return b.err
}

// Err returns the completed compiler error as an error value
func (b *SemanticErrorBuilder) Err() error {
	err := b.err
	return &err
}

// As extracts a CompilerError from an error chain.
func As(err error) (*CompilerError, bool) {
	var ce *CompilerError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// KindOf reports the taxonomy kind of err, or "" when err is not a CompilerError.
func KindOf(err error) Kind {
	if ce, ok := As(err); ok {
		return ce.Kind
	}
	return ""
}

// Common constructors for the compiler's error taxonomy

// Unsupported reports a syntax form with no lowering rule.
func Unsupported(pos lexer.Position, construct string, format string, args ...any) error {
	return NewSemanticError(KindUnsupportedConstruct, ErrorUnsupportedConstruct, fmt.Sprintf(format, args...), pos).
		WithConstruct(construct).
		WithHelp("only classes, interfaces, constants and a limited statement set are supported").
		Err()
}

// UnsupportedType reports a type annotation that has no contract type.
func UnsupportedType(pos lexer.Position, construct string) error {
	return NewSemanticError(KindUnsupportedConstruct, ErrorUnsupportedType, fmt.Sprintf("unsupported type '%s'", construct), pos).
		WithConstruct(construct).
		WithNote("supported types are number, boolean, string, address, bytes, void, Record<K, V>, T[] and declared interfaces").
		Err()
}

// Unresolved reports a name that does not resolve, suggesting near matches from candidates.
func Unresolved(pos lexer.Position, what, name string, candidates []string) error {
	builder := NewSemanticError(KindUnresolvedReference, ErrorUnresolvedReference, fmt.Sprintf("unknown %s '%s'", what, name), pos).
		WithConstruct(name)

	similar := findSimilarNames(name, candidates)
	switch len(similar) {
	case 0:
	case 1:
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	default:
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean one of: '%s'?", strings.Join(similar, "', '")))
	}
	return builder.Err()
}

// UnknownEvent reports an emit() of an undeclared event.
func UnknownEvent(pos lexer.Position, name string, declared []string) error {
	builder := NewSemanticError(KindUnresolvedReference, ErrorUnknownEvent, fmt.Sprintf("event '%s' is not declared", name), pos).
		WithConstruct(name)
	if similar := findSimilarNames(name, declared); len(similar) > 0 {
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	} else {
		builder = builder.WithHelp(fmt.Sprintf("declare it as a property: %s: Event<Params>;", name))
	}
	return builder.Err()
}

// Structural reports an invalid contract shape.
func Structural(pos lexer.Position, code string, format string, args ...any) error {
	if code == "" {
		code = ErrorStructural
	}
	return NewSemanticError(KindStructural, code, fmt.Sprintf(format, args...), pos).Err()
}

// MissingField reports an object literal that lacks a declared field.
func MissingField(pos lexer.Position, owner, field string) error {
	return NewSemanticError(KindStructural, ErrorMissingField, fmt.Sprintf("missing field '%s' for '%s'", field, owner), pos).
		WithSuggestion(fmt.Sprintf("add '%s: <value>' to the object literal", field)).
		Err()
}

// ImmutableSource reports an immutable property without exactly one value source.
func ImmutableSource(pos lexer.Position, name string, sources int) error {
	builder := NewSemanticError(KindStructural, ErrorImmutableSource, "", pos).WithConstruct(name)
	if sources == 0 {
		builder.err.Message = fmt.Sprintf("immutable property '%s' has no value", name)
		builder = builder.WithSuggestion(fmt.Sprintf("initialize it or assign this.%s once in the constructor", name))
	} else {
		builder.err.Message = fmt.Sprintf("immutable property '%s' is assigned %d times", name, sources)
		builder = builder.WithNote("an immutable property takes its value from its initializer or from exactly one constructor assignment")
	}
	return builder.Err()
}

// ExternalTool wraps error diagnostics reported by the assembler. The text is forwarded unmodified.
func ExternalTool(contract string, diagnostics []string) error {
	err := CompilerError{
		Level:    Error,
		Kind:     KindExternalTool,
		Code:     ErrorExternalTool,
		Message:  fmt.Sprintf("assembler rejected '%s'", contract),
		Position: Position{Filename: contract},
		Notes:    diagnostics,
	}
	return &err
}

// Syntax converts a parser error into a CompilerError.
func Syntax(filename string, err error) error {
	ce := CompilerError{
		Level:    Error,
		Kind:     KindSyntax,
		Code:     ErrorSyntax,
		Message:  err.Error(),
		Position: Position{Filename: filename},
		Length:   1,
	}
	var perr participle.Error
	if stderrors.As(err, &perr) {
		ce.Message = perr.Message()
		ce.Position = At(perr.Position())
		if ce.Position.Filename == "" {
			ce.Position.Filename = filename
		}
	}
	return &ce
}

// findSimilarNames finds names similar to the target using edit distance
func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	maxDistance := len(target) / 3 // allow up to 1/3 of characters to be different
	if maxDistance < 1 {
		maxDistance = 1
	}
	if maxDistance > 3 {
		maxDistance = 3
	}

	for _, candidate := range candidates {
		if candidate == target {
			continue
		}
		if levenshteinDistance(target, candidate) <= maxDistance {
			similar = append(similar, candidate)
		}
	}

	if len(similar) > 3 {
		similar = similar[:3]
	}
	return similar
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}
