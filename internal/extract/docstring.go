package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// precedingComments gathers the contiguous block of comments immediately
// above a declaration, strips the comment markers, and joins the lines.
func (w *Walker) precedingComments(n *sitter.Node) string {
	// Some grammars wrap declarations (decorated_definition,
	// type_declaration); comments sit before the wrapper.
	if p := n.Parent(); p != nil && p.NamedChildCount() == 1 {
		n = p
	}

	var comments []string
	expectedEnd := int(n.StartPoint().Row) - 1
	for prev := n.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if !isCommentType(prev.Type()) {
			break
		}
		if int(prev.EndPoint().Row) < expectedEnd {
			// A blank line separates the comment from the declaration.
			break
		}
		comments = append([]string{w.text(prev)}, comments...)
		expectedEnd = int(prev.StartPoint().Row) - 1
	}
	if len(comments) == 0 {
		return ""
	}
	return stripCommentMarkers(strings.Join(comments, "\n"))
}

func isCommentType(t string) bool {
	switch t {
	case "comment", "line_comment", "block_comment", "doc_comment":
		return true
	}
	return false
}

// stripCommentMarkers removes line and block comment markers, keeping the
// text.
func stripCommentMarkers(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		s := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(s, "///"):
			s = strings.TrimSpace(strings.TrimPrefix(s, "///"))
		case strings.HasPrefix(s, "//!"):
			s = strings.TrimSpace(strings.TrimPrefix(s, "//!"))
		case strings.HasPrefix(s, "//"):
			s = strings.TrimSpace(strings.TrimPrefix(s, "//"))
		case strings.HasPrefix(s, "#"):
			s = strings.TrimSpace(strings.TrimPrefix(s, "#"))
		case strings.HasPrefix(s, "/**"):
			s = strings.TrimSpace(strings.TrimPrefix(s, "/**"))
		case strings.HasPrefix(s, "/*"):
			s = strings.TrimSpace(strings.TrimPrefix(s, "/*"))
		case strings.HasPrefix(s, "*/"):
			s = strings.TrimSpace(strings.TrimPrefix(s, "*/"))
		case strings.HasPrefix(s, "*"):
			s = strings.TrimSpace(strings.TrimPrefix(s, "*"))
		}
		s = strings.TrimSuffix(s, "*/")
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}

// firstStringInBody pulls a leading string literal out of a body node; this
// is how Python docstrings are written.
func (w *Walker) firstStringInBody(n *sitter.Node, bodyField string) string {
	body := n.ChildByFieldName(bodyField)
	if body == nil {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" {
		return ""
	}
	expr := first.NamedChild(0)
	if expr == nil || expr.Type() != "string" {
		return ""
	}
	text := w.text(expr)
	text = strings.Trim(text, "\"'")
	return strings.TrimSpace(text)
}
