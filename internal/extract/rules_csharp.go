package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	registerRules(&LanguageRules{
		Language: parser.CSharp,

		MethodTypes:      newTypeSet("method_declaration", "constructor_declaration"),
		ClassTypes:       newTypeSet("class_declaration", "namespace_declaration"),
		InterfaceTypes:   newTypeSet("interface_declaration"),
		StructTypes:      newTypeSet("struct_declaration"),
		EnumTypes:        newTypeSet("enum_declaration"),
		FieldTypes:       newTypeSet("field_declaration"),
		PropertyTypes:    newTypeSet("property_declaration"),
		EnumMemberTypes:  newTypeSet("enum_member_declaration"),
		ImportTypes:      newTypeSet("using_directive"),
		CallTypes:        newTypeSet("invocation_expression"),
		InstantiateTypes: newTypeSet("object_creation_expression"),

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",
		ReturnField: "returns",

		Classify: func(w *Walker, n *sitter.Node, fallback store.NodeKind) (store.NodeKind, bool) {
			if n.Type() == "namespace_declaration" {
				return store.KindNamespace, true
			}
			return fallback, false
		},

		Visibility: func(w *Walker, n *sitter.Node, name string) string {
			switch {
			case csharpHasModifier(w, n, "private"):
				return store.VisibilityPrivate
			case csharpHasModifier(w, n, "protected"):
				return store.VisibilityProtected
			case csharpHasModifier(w, n, "internal"):
				return store.VisibilityInternal
			case csharpHasModifier(w, n, "public"):
				return store.VisibilityPublic
			}
			return store.VisibilityInternal
		},

		IsAsync: func(w *Walker, n *sitter.Node) bool {
			return csharpHasModifier(w, n, "async")
		},

		IsStatic: func(w *Walker, n *sitter.Node) bool {
			return csharpHasModifier(w, n, "static")
		},

		// base_list mixes the base class and interfaces; the first entry is
		// treated as the base type, the rest as implemented interfaces.
		Heritage: func(w *Walker, n *sitter.Node) (extends, implements []string) {
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.Type() != "base_list" {
					continue
				}
				first := true
				for j := 0; j < int(child.NamedChildCount()); j++ {
					name := w.text(child.NamedChild(j))
					if name == "" {
						continue
					}
					if first && n.Type() == "class_declaration" {
						extends = append(extends, name)
						first = false
					} else {
						implements = append(implements, name)
					}
				}
			}
			if n.Type() == "interface_declaration" {
				extends, implements = implements, nil
			}
			return extends, implements
		},
	})
}

func csharpHasModifier(w *Walker, n *sitter.Node, keyword string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == "modifier" && w.text(child) == keyword {
			return true
		}
	}
	return false
}
