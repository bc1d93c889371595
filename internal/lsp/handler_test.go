package lsp_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"tsevm/internal/lsp"
)

const bell = `interface Ping { n: number; }
class Bell {
    Rang: Event<Ping>;
    readonly owner: address = msg.sender;
    ring(times: number): number {
        let total = times * 2;
        return total;
    }
}`

// recorder captures published diagnostics.
type recorder struct {
	published []*protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{Notify: func(method string, params any) {
		if method == protocol.ServerTextDocumentPublishDiagnostics {
			r.published = append(r.published, params.(*protocol.PublishDiagnosticsParams))
		}
	}}
}

func (r *recorder) last(t *testing.T) []protocol.Diagnostic {
	t.Helper()
	require.NotEmpty(t, r.published)
	return r.published[len(r.published)-1].Diagnostics
}

func fileURI(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return "file://" + filepath.ToSlash(abs)
}

func TestDiagnosticsFollowEdits(t *testing.T) {
	handler := lsp.NewHandler()
	rec := &recorder{}
	ctx := rec.context()
	uri := fileURI(t, filepath.Join(t.TempDir(), "main.ts"))

	require.NoError(t, handler.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: "class A extends Missing {}\n"},
	}))
	diags := rec.last(t)
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
	assert.Equal(t, "E0201", diags[0].Code.Value)
	assert.Contains(t, diags[0].Message, "Missing")
	assert.Equal(t, uint32(0), diags[0].Range.Start.Line)

	require.NoError(t, handler.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "class A {}\n"}},
	}))
	assert.Empty(t, rec.last(t))
}

func TestDiagnosticsIncludeWarnings(t *testing.T) {
	handler := lsp.NewHandler()
	rec := &recorder{}
	uri := fileURI(t, filepath.Join(t.TempDir(), "main.ts"))

	require.NoError(t, handler.TextDocumentDidOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: `class A {
    f(): number {
        let spare = 1;
        return 2;
    }
}`},
	}))
	diags := rec.last(t)
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *diags[0].Severity)
	assert.Equal(t, uint32(2), diags[0].Range.Start.Line)
	assert.Contains(t, diags[0].Message, "spare")
}

func TestDiagnosticsResolveImportsFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.ts"), []byte("export interface Ping { n: number; }\n"), 0o644))

	handler := lsp.NewHandler()
	rec := &recorder{}
	uri := fileURI(t, filepath.Join(dir, "bell.ts"))
	require.NoError(t, handler.TextDocumentDidOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: `import { Ping } from "./types";
class Bell {
    Rang: Event<Ping>;
    ring(): void { emit(this.Rang({ n: 1 })); }
}`},
	}))
	assert.Empty(t, rec.last(t))

	require.NoError(t, handler.TextDocumentDidOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: `import { Pong } from "./types";
class Bell {}`},
	}))
	diags := rec.last(t)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Pong")
}

func TestTextDocumentSemanticTokensFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bell.ts")
	require.NoError(t, os.WriteFile(path, []byte(bell), 0o644))

	handler := lsp.NewHandler()
	tokens, err := handler.TextDocumentSemanticTokensFull(&glsp.Context{}, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: fileURI(t, path)},
	})
	require.NoError(t, err)

	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err)
	require.Len(t, decoded, 20)

	assertToken(t, &decoded[0], 1, 11, 4, "type", []string{"declaration"})
	assertToken(t, &decoded[1], 1, 18, 1, "property", []string{"declaration"})
	assertToken(t, &decoded[2], 1, 21, 6, "type", nil)
	assertToken(t, &decoded[3], 2, 7, 4, "type", []string{"declaration"})
	assertToken(t, &decoded[4], 3, 5, 4, "property", []string{"declaration"})
	assertToken(t, &decoded[5], 3, 11, 5, "type", nil)
	assertToken(t, &decoded[6], 3, 17, 4, "type", nil)
	assertToken(t, &decoded[7], 4, 5, 8, "modifier", nil)
	assertToken(t, &decoded[8], 4, 14, 5, "property", []string{"declaration", "readonly"})
	assertToken(t, &decoded[9], 4, 21, 7, "type", nil)
	assertToken(t, &decoded[10], 4, 31, 3, "namespace", nil)
	assertToken(t, &decoded[11], 4, 35, 6, "property", nil)
	assertToken(t, &decoded[12], 5, 5, 4, "function", []string{"declaration"})
	assertToken(t, &decoded[13], 5, 10, 5, "parameter", nil)
	assertToken(t, &decoded[14], 5, 17, 6, "type", nil)
	assertToken(t, &decoded[15], 5, 26, 6, "type", nil)
	assertToken(t, &decoded[16], 6, 13, 5, "variable", []string{"declaration"})
	assertToken(t, &decoded[17], 6, 21, 5, "variable", nil)
	assertToken(t, &decoded[18], 6, 29, 1, "number", nil)
	assertToken(t, &decoded[19], 7, 16, 5, "variable", nil)
}

func TestCompletion(t *testing.T) {
	labels := func(items []protocol.CompletionItem) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Label
		}
		return out
	}

	text := "class A {\n    f(): address { return msg.se }\n}"
	items := lsp.Complete(text, protocol.Position{Line: 1, Character: 30})
	assert.Equal(t, []string{"sender", "value"}, labels(items))
	require.NotNil(t, items[0].Detail)
	assert.Equal(t, "address", *items[0].Detail)

	items = lsp.Complete(text, protocol.Position{Line: 1, Character: 4})
	assert.Equal(t, []string{"block", "chain", "msg", "tx", "emit", "keccak256"}, labels(items))

	items = lsp.Complete("this.", protocol.Position{Line: 0, Character: 5})
	assert.Contains(t, labels(items), "msg")
}

type DecodedToken struct {
	Index     int
	Line      uint32
	Char      uint32
	Length    uint32
	Type      string
	Modifiers []string
}

func decodeSemanticTokens(raw []uint32) ([]DecodedToken, error) {
	if len(raw)%5 != 0 {
		return nil, fmt.Errorf("raw token data length %d is not a multiple of 5", len(raw))
	}

	var (
		decoded []DecodedToken
		line    uint32
		char    uint32
	)

	for i := 0; i < len(raw); i += 5 {
		deltaLine := raw[i]
		deltaStart := raw[i+1]

		if deltaLine == 0 {
			char += deltaStart
		} else {
			line += deltaLine
			char = deltaStart
		}

		var modifiers []string
		for j, name := range lsp.SemanticTokenModifiers {
			if raw[i+4]&(1<<j) != 0 {
				modifiers = append(modifiers, name)
			}
		}

		decoded = append(decoded, DecodedToken{
			Index:     i / 5,
			Line:      line + 1,
			Char:      char + 1,
			Length:    raw[i+2],
			Type:      lsp.SemanticTokenTypes[raw[i+3]],
			Modifiers: modifiers,
		})
	}
	return decoded, nil
}

func assertToken(t *testing.T, token *DecodedToken, line, char, length uint32, typ string, modifiers []string) {
	t.Helper()
	require.Equal(t, line, token.Line, "line mismatch at token %d", token.Index)
	require.Equal(t, char, token.Char, "char mismatch at token %d", token.Index)
	require.Equal(t, length, token.Length, "length mismatch at token %d", token.Index)
	require.Equal(t, typ, token.Type, "type mismatch at token %d", token.Index)
	require.ElementsMatch(t, modifiers, token.Modifiers, "modifiers mismatch at token %d", token.Index)
}
