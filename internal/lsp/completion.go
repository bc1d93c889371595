package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"tsevm/internal/stdlib"
)

// Complete lists the completions at pos in text. After "<namespace>." it
// offers the members of that dialect namespace, elsewhere the namespaces and
// intrinsic functions.
func Complete(text string, pos protocol.Position) []protocol.CompletionItem {
	prefix := linePrefix(text, pos)
	if env, ok := namespaceBeforeDot(prefix); ok {
		return memberItems(env)
	}
	return topLevelItems()
}

func linePrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	return line[:min(int(pos.Character), len(line))]
}

// namespaceBeforeDot reports the namespace in "msg.sen" or "msg.".
func namespaceBeforeDot(prefix string) (string, bool) {
	end := len(prefix)
	for end > 0 && isWordByte(prefix[end-1]) {
		end--
	}
	if end == 0 || prefix[end-1] != '.' {
		return "", false
	}
	start := end - 1
	for start > 0 && isWordByte(prefix[start-1]) {
		start--
	}
	env := prefix[start : end-1]
	return env, stdlib.IsEnvironment(env)
}

func memberItems(env string) []protocol.CompletionItem {
	kind := protocol.CompletionItemKindProperty
	items := []protocol.CompletionItem{}
	for _, name := range stdlib.MemberNames(env) {
		member, _ := stdlib.LookupMember(env, name)
		detail := ""
		if member.Type != nil {
			detail = member.Type.Name
		}
		items = append(items, protocol.CompletionItem{
			Label:         name,
			Kind:          &kind,
			Detail:        &detail,
			Documentation: member.Doc,
		})
	}
	return items
}

func topLevelItems() []protocol.CompletionItem {
	module := protocol.CompletionItemKindModule
	function := protocol.CompletionItemKindFunction
	items := []protocol.CompletionItem{}
	for _, env := range stdlib.EnvironmentNames() {
		items = append(items, protocol.CompletionItem{Label: env, Kind: &module})
	}
	intrinsics := stdlib.GetModuleDefinition("tsevm").Functions
	for _, name := range []string{"emit", "keccak256"} {
		if fn, ok := intrinsics[name]; ok {
			items = append(items, protocol.CompletionItem{Label: name, Kind: &function, Documentation: fn.Doc})
		}
	}
	return items
}
