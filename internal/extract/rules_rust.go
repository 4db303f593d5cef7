package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	registerRules(&LanguageRules{
		Language: parser.Rust,

		FunctionTypes:   newTypeSet("function_item", "function_signature_item"),
		ClassTypes:      newTypeSet("mod_item"),
		InterfaceTypes:  newTypeSet("trait_item"),
		StructTypes:     newTypeSet("struct_item"),
		EnumTypes:       newTypeSet("enum_item"),
		FieldTypes:      newTypeSet("field_declaration"),
		EnumMemberTypes: newTypeSet("enum_variant"),
		ConstantTypes:   newTypeSet("const_item"),
		VariableTypes:   newTypeSet("static_item"),
		ImportTypes:     newTypeSet("use_declaration"),
		CallTypes:       newTypeSet("call_expression"),

		// impl blocks name a scope and make their functions methods
		// without being entities themselves.
		ScopeTypes: map[string]string{"impl_item": "type"},

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",
		ReturnField: "return_type",

		Classify: func(w *Walker, n *sitter.Node, fallback store.NodeKind) (store.NodeKind, bool) {
			switch n.Type() {
			case "trait_item":
				return store.KindTrait, true
			case "mod_item":
				return store.KindModule, true
			}
			return fallback, false
		},

		ImportName: func(w *Walker, n *sitter.Node) string {
			if arg := n.ChildByFieldName("argument"); arg != nil {
				return w.text(arg)
			}
			return ""
		},

		Visibility: func(w *Walker, n *sitter.Node, name string) string {
			for i := 0; i < int(n.ChildCount()); i++ {
				if n.Child(i).Type() == "visibility_modifier" {
					if w.text(n.Child(i)) == "pub" {
						return store.VisibilityPublic
					}
					return store.VisibilityInternal
				}
			}
			return store.VisibilityPrivate
		},

		IsAsync: func(w *Walker, n *sitter.Node) bool {
			return hasTokenChild(n, "async")
		},
	})
}
