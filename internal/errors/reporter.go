package errors

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// Position tracks location information for error reporting and tooling
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// At converts a parser position.
func At(pos lexer.Position) Position {
	return Position{Filename: pos.Filename, Offset: pos.Offset, Line: pos.Line, Column: pos.Column}
}

func (p Position) String() string {
	if p.Line == 0 {
		return p.Filename
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// CompilerError represents a structured error with suggestions and context
type CompilerError struct {
	Level       ErrorLevel
	Kind        Kind
	Code        string       // Error code like E0101
	Message     string       // Primary error message
	Construct   string       // Source form of the offending construct, if known
	Position    Position     // Location in source
	Length      int          // Length of the problematic region
	Suggestions []Suggestion // Suggested fixes
	Notes       []string     // Additional context notes
	HelpText    string       // Help text for the error
}

func (e *CompilerError) Error() string {
	var b strings.Builder
	if e.Position.Filename != "" || e.Position.Line > 0 {
		b.WriteString(e.Position.String())
		b.WriteString(": ")
	}
	if e.Kind != "" {
		b.WriteString(string(e.Kind))
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	for _, note := range e.Notes {
		b.WriteString("\n")
		b.WriteString(note)
	}
	return b.String()
}

// Suggestion represents a suggested fix
type Suggestion struct {
	Message     string   // Description of the suggestion
	Replacement string   // Suggested replacement text (optional)
	Position    Position // Position to apply the fix (optional)
	Length      int      // Length of text to replace (optional)
}

// ErrorReporter renders diagnostics against the text of one source file.
type ErrorReporter struct {
	filename string
	lines    []string
}

func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

var (
	bold  = color.New(color.Bold).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	blue  = color.New(color.FgBlue).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
)

// FormatError renders err as a header, the offending line between its
// neighbours with a caret marker, and any suggestions, notes and help.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var b strings.Builder
	gutter := strings.Repeat(" ", er.gutterWidth(err.Position.Line))

	er.writeHeader(&b, err)
	filename := er.filename
	if err.Position.Filename != "" {
		filename = err.Position.Filename
	}
	fmt.Fprintf(&b, "%s %s %s:%d:%d\n", gutter, dim("-->"), filename, err.Position.Line, err.Position.Column)
	fmt.Fprintf(&b, "%s %s\n", gutter, dim("│"))
	er.writeSnippet(&b, err, gutter)

	if len(err.Suggestions) > 0 {
		fmt.Fprintf(&b, "%s %s\n", gutter, dim("│"))
	}
	for i, suggestion := range err.Suggestions {
		label := "    "
		if i == 0 {
			label = "help: try"
		}
		fmt.Fprintf(&b, "%s %s %s\n", gutter, cyan(label), suggestion.Message)
		if suggestion.Replacement != "" {
			replacement := strings.ReplaceAll(suggestion.Replacement, "\n", fmt.Sprintf("\n%s %s ", gutter, dim("│")))
			fmt.Fprintf(&b, "%s %s %s\n", gutter, cyan("│"), cyan(replacement))
		}
	}
	for _, note := range err.Notes {
		fmt.Fprintf(&b, "%s %s %s %s\n", gutter, dim("│"), blue("note:"), note)
	}
	if err.HelpText != "" {
		fmt.Fprintf(&b, "%s %s %s %s\n", gutter, dim("│"), green("help:"), err.HelpText)
	}

	b.WriteString("\n")
	return b.String()
}

// writeHeader writes "error[E0201]: message", with the kind when known.
func (er *ErrorReporter) writeHeader(b *strings.Builder, err CompilerError) {
	level := levelColor(err.Level)(string(err.Level))
	if err.Code != "" {
		level += "[" + err.Code + "]"
	}
	message := err.Message
	if err.Kind != "" {
		message = string(err.Kind) + ": " + message
	}
	fmt.Fprintf(b, "%s: %s\n", level, message)
}

func (er *ErrorReporter) writeSnippet(b *strings.Builder, err CompilerError, gutter string) {
	line := err.Position.Line
	width := len(gutter)
	context := func(n int) {
		if n >= 1 && n <= len(er.lines) {
			fmt.Fprintf(b, "%s %s %s\n", dim(fmt.Sprintf("%*d", width, n)), dim("│"), er.lines[n-1])
		}
	}

	context(line - 1)
	if line >= 1 && line <= len(er.lines) {
		fmt.Fprintf(b, "%s %s %s\n", bold(fmt.Sprintf("%*d", width, line)), dim("│"), er.lines[line-1])
		fmt.Fprintf(b, "%s %s %s\n", gutter, dim("│"), marker(err.Position.Column, err.Length, err.Level))
	}
	context(line + 1)
}

func levelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// marker underlines length columns starting at column.
func marker(column, length int, level ErrorLevel) string {
	spaces := strings.Repeat(" ", max(0, column-1))
	carets := strings.Repeat("^", max(1, length))
	if level == Warning {
		return spaces + color.New(color.FgYellow, color.Bold).Sprint(carets)
	}
	return spaces + color.New(color.FgRed, color.Bold).Sprint(carets)
}

// gutterWidth is the width of the line number column, at least 3.
func (er *ErrorReporter) gutterWidth(line int) int {
	return max(3, len(fmt.Sprint(line+1)))
}
