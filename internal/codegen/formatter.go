package codegen

import (
	"regexp"
	"strings"
)

var sectionMarker = regexp.MustCompile(`^//\s*-\s.*\s-$`)

// Format drops section markers and blank lines and indents each line by
// its brace depth. It only looks at braces, never at what the code means.
func Format(assembly string) string {
	const indent = "    "

	var b strings.Builder
	depth := 0
	for _, raw := range strings.Split(assembly, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || sectionMarker.MatchString(line) {
			continue
		}

		closing := len(line) - len(strings.TrimLeft(line, "}"))
		depth -= closing
		if depth < 0 {
			depth = 0
		}
		b.WriteString(strings.Repeat(indent, depth))
		b.WriteString(line)
		b.WriteByte('\n')

		rest := line[closing:]
		depth += strings.Count(rest, "{") - strings.Count(rest, "}")
		if depth < 0 {
			depth = 0
		}
	}
	return b.String()
}

// Sections lists the section markers of unformatted assembly in order.
func Sections(assembly string) []string {
	var names []string
	for _, raw := range strings.Split(assembly, "\n") {
		line := strings.TrimSpace(raw)
		if sectionMarker.MatchString(line) {
			name := strings.TrimSpace(strings.TrimPrefix(line, "//"))
			names = append(names, strings.TrimSpace(strings.Trim(name, "-")))
		}
	}
	return names
}
