package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	registerRules(&LanguageRules{
		Language: parser.Kotlin,

		FunctionTypes: newTypeSet("function_declaration"),
		ClassTypes:    newTypeSet("class_declaration", "object_declaration"),
		PropertyTypes: newTypeSet("property_declaration"),
		ImportTypes:   newTypeSet("import_header"),
		CallTypes:     newTypeSet("call_expression"),

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",

		// class_declaration covers interfaces and enum classes; the
		// keyword children disambiguate.
		Classify: func(w *Walker, n *sitter.Node, fallback store.NodeKind) (store.NodeKind, bool) {
			if n.Type() != "class_declaration" {
				return fallback, false
			}
			for i := 0; i < int(n.ChildCount()); i++ {
				switch n.Child(i).Type() {
				case "interface":
					return store.KindInterface, true
				case "enum":
					return store.KindEnum, true
				}
			}
			return fallback, false
		},

		NameNode: func(w *Walker, n *sitter.Node) *sitter.Node {
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.Type() == "simple_identifier" || child.Type() == "type_identifier" {
					return child
				}
			}
			return nil
		},

		// Kotlin call expressions have no function field; the callee is the
		// first child, possibly behind a navigation chain.
		Callee: func(w *Walker, n *sitter.Node) (string, bool) {
			fn := n.Child(0)
			if fn == nil {
				return "", false
			}
			if fn.Type() == "navigation_expression" {
				var last *sitter.Node
				for i := 0; i < int(fn.NamedChildCount()); i++ {
					child := fn.NamedChild(i)
					if child.Type() == "navigation_suffix" {
						last = child
					}
				}
				if last != nil {
					return strings.TrimPrefix(w.text(last), "."), true
				}
			}
			if fn.Type() == "simple_identifier" {
				return w.text(fn), true
			}
			return "", false
		},

		ImportName: func(w *Walker, n *sitter.Node) string {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() == "identifier" {
					return w.text(child)
				}
			}
			return ""
		},

		Visibility: func(w *Walker, n *sitter.Node, name string) string {
			text := ""
			for i := 0; i < int(n.ChildCount()); i++ {
				if n.Child(i).Type() == "modifiers" {
					text = w.text(n.Child(i))
				}
			}
			switch {
			case strings.Contains(text, "private"):
				return store.VisibilityPrivate
			case strings.Contains(text, "protected"):
				return store.VisibilityProtected
			case strings.Contains(text, "internal"):
				return store.VisibilityInternal
			}
			return store.VisibilityPublic
		},
	})
}
