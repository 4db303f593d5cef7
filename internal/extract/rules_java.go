package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	registerRules(&LanguageRules{
		Language: parser.Java,

		MethodTypes:      newTypeSet("method_declaration", "constructor_declaration"),
		ClassTypes:       newTypeSet("class_declaration"),
		InterfaceTypes:   newTypeSet("interface_declaration"),
		EnumTypes:        newTypeSet("enum_declaration"),
		FieldTypes:       newTypeSet("field_declaration"),
		EnumMemberTypes:  newTypeSet("enum_constant"),
		ImportTypes:      newTypeSet("import_declaration"),
		CallTypes:        newTypeSet("method_invocation"),
		InstantiateTypes: newTypeSet("object_creation_expression"),

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",
		ReturnField: "type",

		Visibility: func(w *Walker, n *sitter.Node, name string) string {
			switch {
			case javaHasModifier(w, n, "private"):
				return store.VisibilityPrivate
			case javaHasModifier(w, n, "protected"):
				return store.VisibilityProtected
			case javaHasModifier(w, n, "public"):
				return store.VisibilityPublic
			}
			return store.VisibilityInternal
		},

		IsStatic: func(w *Walker, n *sitter.Node) bool {
			return javaHasModifier(w, n, "static")
		},

		Heritage: func(w *Walker, n *sitter.Node) (extends, implements []string) {
			if sc := n.ChildByFieldName("superclass"); sc != nil {
				for i := 0; i < int(sc.NamedChildCount()); i++ {
					extends = append(extends, w.text(sc.NamedChild(i)))
				}
			}
			if ifs := n.ChildByFieldName("interfaces"); ifs != nil {
				implements = append(implements, typeListNames(w, ifs)...)
			}
			return extends, implements
		},
	})
}

// javaHasModifier scans the declaration's modifiers child for a keyword.
func javaHasModifier(w *Walker, n *sitter.Node, keyword string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			if child.Child(j).Type() == keyword {
				return true
			}
		}
	}
	return false
}

// typeListNames descends into a super_interfaces / type_list shape.
func typeListNames(w *Walker, n *sitter.Node) []string {
	var names []string
	var visit func(*sitter.Node)
	visit = func(node *sitter.Node) {
		switch node.Type() {
		case "type_identifier", "scoped_type_identifier", "generic_type":
			names = append(names, w.text(node))
			return
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			visit(node.NamedChild(i))
		}
	}
	visit(n)
	return names
}
