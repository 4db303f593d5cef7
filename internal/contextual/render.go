package contextual

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders the context as the compact human/agent-readable
// document: query echo, entry points with locations and signatures, related
// symbols grouped by file, then code blocks.
func (c *Context) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Context: %s\n\n", c.Query)

	if len(c.EntryPoints) == 0 {
		b.WriteString("No relevant entities found.\n")
		return b.String()
	}

	b.WriteString("## Entry points\n\n")
	for _, ep := range c.EntryPoints {
		n := ep.Node
		fmt.Fprintf(&b, "- **%s** (%s) — %s:%d", n.QualifiedName, n.Kind, n.FilePath, n.StartLine)
		if n.Signature != "" {
			fmt.Fprintf(&b, " `%s`", n.Signature)
		}
		b.WriteByte('\n')
	}

	if len(c.RelatedByFile) > 0 {
		b.WriteString("\n## Related symbols\n")
		files := make([]string, 0, len(c.RelatedByFile))
		for file := range c.RelatedByFile {
			files = append(files, file)
		}
		sort.Strings(files)
		for _, file := range files {
			fmt.Fprintf(&b, "\n### %s\n\n", file)
			for _, n := range c.RelatedByFile[file] {
				fmt.Fprintf(&b, "- %s (%s) line %d\n", n.Name, n.Kind, n.StartLine)
			}
		}
	}

	if len(c.CodeBlocks) > 0 {
		b.WriteString("\n## Code\n")
		for _, block := range c.CodeBlocks {
			fmt.Fprintf(&b, "\n### %s (%s:%d-%d)\n\n```\n%s\n```\n",
				block.Name, block.Path, block.StartLine, block.EndLine, block.Content)
		}
	}

	return b.String()
}
