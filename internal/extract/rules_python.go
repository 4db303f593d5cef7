package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	registerRules(&LanguageRules{
		Language: parser.Python,

		FunctionTypes: newTypeSet("function_definition"),
		ClassTypes:    newTypeSet("class_definition"),
		ImportTypes:   newTypeSet("import_statement", "import_from_statement"),
		CallTypes:     newTypeSet("call"),

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",
		ReturnField: "return_type",

		ImportName: func(w *Walker, n *sitter.Node) string {
			if n.Type() == "import_from_statement" {
				if m := n.ChildByFieldName("module_name"); m != nil {
					return w.text(m)
				}
			}
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() == "dotted_name" || child.Type() == "aliased_import" {
					return w.text(child)
				}
			}
			return ""
		},

		Visibility: func(w *Walker, n *sitter.Node, name string) string {
			if strings.HasPrefix(name, "_") {
				return store.VisibilityPrivate
			}
			return store.VisibilityPublic
		},

		IsAsync: func(w *Walker, n *sitter.Node) bool {
			return hasTokenChild(n, "async")
		},

		IsStatic: func(w *Walker, n *sitter.Node) bool {
			return pythonHasDecorator(w, n, "staticmethod")
		},

		Heritage: func(w *Walker, n *sitter.Node) (extends, implements []string) {
			supers := n.ChildByFieldName("superclasses")
			if supers == nil {
				return nil, nil
			}
			for i := 0; i < int(supers.NamedChildCount()); i++ {
				child := supers.NamedChild(i)
				switch child.Type() {
				case "identifier", "attribute":
					extends = append(extends, w.text(child))
				}
			}
			return extends, nil
		},

		// Python documentation lives inside the body as a leading string;
		// comments above are the fallback.
		Docstring: func(w *Walker, n *sitter.Node) string {
			if doc := w.firstStringInBody(n, "body"); doc != "" {
				return doc
			}
			return w.precedingComments(n)
		},
	})
}

// pythonHasDecorator checks the decorated_definition wrapper for a named
// decorator.
func pythonHasDecorator(w *Walker, n *sitter.Node, name string) bool {
	p := n.Parent()
	if p == nil || p.Type() != "decorated_definition" {
		return false
	}
	for i := 0; i < int(p.NamedChildCount()); i++ {
		child := p.NamedChild(i)
		if child.Type() == "decorator" && strings.Contains(w.text(child), name) {
			return true
		}
	}
	return false
}
