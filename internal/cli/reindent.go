package cli

import "strings"

// reindent rewrites each line's leading whitespace to use size-wide
// spaces (or a single tab per level, when tabs is set) instead of
// whatever unit go-fast/generator emits. generator.Generate exposes no
// indent-width option in the corpus (the parser test helpers only ever
// call it with no arguments), so --indent-size/--indent-with-tabs are
// implemented here as a post-process over the printed text rather than
// a printer option, counting one indent level per leading tab
// character the generator wrote.
func reindent(text string, size int, tabs bool) string {
	if size <= 0 {
		size = 2
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, "\t")
		level := len(line) - len(trimmed)
		if level == 0 {
			continue
		}
		var b strings.Builder
		for j := 0; j < level; j++ {
			if tabs {
				b.WriteByte('\t')
			} else {
				b.WriteString(strings.Repeat(" ", size))
			}
		}
		b.WriteString(trimmed)
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
