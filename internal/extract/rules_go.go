package extract

import (
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	registerRules(&LanguageRules{
		Language: parser.Go,

		FunctionTypes: newTypeSet("function_declaration"),
		// Go methods carry an explicit receiver; the syntactic form alone
		// decides.
		MethodTypes:   newTypeSet("method_declaration"),
		ClassTypes:    newTypeSet("type_spec"),
		FieldTypes:    newTypeSet("field_declaration"),
		ConstantTypes: newTypeSet("const_spec"),
		VariableTypes: newTypeSet("var_spec"),
		ImportTypes:   newTypeSet("import_spec"),
		CallTypes:     newTypeSet("call_expression"),

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",
		ReturnField: "result",

		// type_spec overloads struct, interface, and alias declarations.
		Classify: func(w *Walker, n *sitter.Node, fallback store.NodeKind) (store.NodeKind, bool) {
			tn := n.ChildByFieldName("type")
			if tn == nil {
				return fallback, false
			}
			switch tn.Type() {
			case "struct_type":
				return store.KindStruct, true
			case "interface_type":
				return store.KindInterface, true
			default:
				return store.KindTypeAlias, true
			}
		},

		Visibility: func(w *Walker, n *sitter.Node, name string) string {
			if goExported(name) {
				return store.VisibilityPublic
			}
			return store.VisibilityPrivate
		},

		IsExported: func(w *Walker, n *sitter.Node, name string) bool {
			return goExported(name)
		},
	})
}

func goExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
