package lsp

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"tsevm/internal/errors"
)

const diagnosticSource = "tsevm"

// ConvertError turns a compile failure into diagnostics for the document at
// path. Errors located in another file are pinned to the top of the document.
func ConvertError(path string, err error) []protocol.Diagnostic {
	ce, ok := errors.As(err)
	if !ok {
		return []protocol.Diagnostic{{
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString(diagnosticSource),
			Message:  err.Error(),
		}}
	}
	return []protocol.Diagnostic{convert(path, *ce)}
}

// ConvertWarnings keeps the warnings that belong to the document at path.
func ConvertWarnings(path string, warnings []errors.CompilerError) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, w := range warnings {
		if w.Position.Filename != path {
			continue
		}
		diagnostics = append(diagnostics, convert(path, w))
	}
	return diagnostics
}

func convert(path string, ce errors.CompilerError) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	if ce.Level == errors.Warning {
		severity = protocol.DiagnosticSeverityWarning
	}

	message := ce.Message
	if len(ce.Suggestions) > 0 {
		message += " (" + ce.Suggestions[0].Message + ")"
	}
	if len(ce.Notes) > 0 {
		message += "\n" + strings.Join(ce.Notes, "\n")
	}

	var rng protocol.Range
	if ce.Position.Filename == path && ce.Position.Line > 0 {
		length := max(ce.Length, 1)
		line := uint32(ce.Position.Line - 1)
		start := uint32(max(ce.Position.Column-1, 0))
		rng = protocol.Range{
			Start: protocol.Position{Line: line, Character: start},
			End:   protocol.Position{Line: line, Character: start + uint32(length)},
		}
	} else if ce.Position.Filename != "" {
		message = fmt.Sprintf("%s: %s", ce.Position, message)
	}

	code := protocol.IntegerOrString{Value: ce.Code}
	return protocol.Diagnostic{
		Range:    rng,
		Severity: ptrSeverity(severity),
		Code:     &code,
		Source:   ptrString(diagnosticSource),
		Message:  message,
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
