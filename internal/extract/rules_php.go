package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	registerRules(&LanguageRules{
		Language: parser.PHP,

		FunctionTypes:   newTypeSet("function_definition", "anonymous_function_creation_expression"),
		MethodTypes:     newTypeSet("method_declaration"),
		ClassTypes:      newTypeSet("class_declaration"),
		InterfaceTypes:  newTypeSet("interface_declaration", "trait_declaration"),
		EnumTypes:       newTypeSet("enum_declaration"),
		PropertyTypes:   newTypeSet("property_declaration"),
		EnumMemberTypes: newTypeSet("enum_case"),
		ImportTypes:     newTypeSet("namespace_use_declaration"),
		CallTypes: newTypeSet(
			"function_call_expression",
			"member_call_expression",
			"scoped_call_expression",
			"object_creation_expression",
		),

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",
		ReturnField: "return_type",

		Classify: func(w *Walker, n *sitter.Node, fallback store.NodeKind) (store.NodeKind, bool) {
			if n.Type() == "trait_declaration" {
				return store.KindTrait, true
			}
			return fallback, false
		},

		// Scoped calls keep the scope; member calls yield the method name.
		Callee: func(w *Walker, n *sitter.Node) (string, bool) {
			switch n.Type() {
			case "scoped_call_expression":
				scope := n.ChildByFieldName("scope")
				name := n.ChildByFieldName("name")
				if scope != nil && name != nil {
					return w.text(scope) + "::" + w.text(name), true
				}
			case "member_call_expression":
				if name := n.ChildByFieldName("name"); name != nil {
					return w.text(name), true
				}
			case "object_creation_expression":
				for i := 0; i < int(n.NamedChildCount()); i++ {
					child := n.NamedChild(i)
					if child.Type() == "name" || child.Type() == "qualified_name" {
						return w.text(child), true
					}
				}
			case "function_call_expression":
				if fn := n.ChildByFieldName("function"); fn != nil {
					return w.text(fn), true
				}
			}
			return "", false
		},

		ImportName: func(w *Walker, n *sitter.Node) string {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() == "namespace_use_clause" {
					return w.text(child)
				}
			}
			return ""
		},

		Visibility: func(w *Walker, n *sitter.Node, name string) string {
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.Type() == "visibility_modifier" {
					switch w.text(child) {
					case "private":
						return store.VisibilityPrivate
					case "protected":
						return store.VisibilityProtected
					}
				}
			}
			return store.VisibilityPublic
		},

		IsStatic: func(w *Walker, n *sitter.Node) bool {
			return hasTokenChild(n, "static_modifier")
		},

		Heritage: func(w *Walker, n *sitter.Node) (extends, implements []string) {
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				switch child.Type() {
				case "base_clause":
					for j := 0; j < int(child.NamedChildCount()); j++ {
						extends = append(extends, w.text(child.NamedChild(j)))
					}
				case "class_interface_clause":
					for j := 0; j < int(child.NamedChildCount()); j++ {
						implements = append(implements, w.text(child.NamedChild(j)))
					}
				}
			}
			return extends, implements
		},
	})
}
