package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	registerRules(typescriptRules(parser.TypeScript))
	registerRules(typescriptRules(parser.JavaScript))
}

// typescriptRules builds the shared TypeScript/JavaScript table. JavaScript
// simply never produces the TS-only node types.
func typescriptRules(lang parser.Language) *LanguageRules {
	return &LanguageRules{
		Language: lang,

		FunctionTypes: newTypeSet(
			"function_declaration",
			"function_expression",
			"arrow_function",
			"generator_function_declaration",
			"generator_function",
		),
		MethodTypes:    newTypeSet("method_definition"),
		ClassTypes:     newTypeSet("class_declaration", "class_expression", "type_alias_declaration"),
		InterfaceTypes: newTypeSet("interface_declaration"),
		EnumTypes:      newTypeSet("enum_declaration"),
		FieldTypes:     newTypeSet("public_field_definition"),
		ImportTypes:    newTypeSet("import_statement"),
		CallTypes:      newTypeSet("call_expression"),
		InstantiateTypes: newTypeSet(
			"new_expression",
		),

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",
		ReturnField: "return_type",

		Classify: func(w *Walker, n *sitter.Node, fallback store.NodeKind) (store.NodeKind, bool) {
			if n.Type() == "type_alias_declaration" {
				return store.KindTypeAlias, true
			}
			return fallback, false
		},

		// Function expressions and arrows assigned to a variable take the
		// variable's name; truly anonymous functions stay anonymous.
		NameNode: func(w *Walker, n *sitter.Node) *sitter.Node {
			if nn := n.ChildByFieldName("name"); nn != nil {
				return nn
			}
			if p := n.Parent(); p != nil {
				switch p.Type() {
				case "variable_declarator", "public_field_definition", "pair":
					return p.ChildByFieldName("name")
				case "assignment_expression":
					return p.ChildByFieldName("left")
				}
			}
			return nil
		},

		Visibility: func(w *Walker, n *sitter.Node, name string) string {
			for i := 0; i < int(n.ChildCount()); i++ {
				if n.Child(i).Type() == "accessibility_modifier" {
					switch w.text(n.Child(i)) {
					case "private":
						return store.VisibilityPrivate
					case "protected":
						return store.VisibilityProtected
					}
					return store.VisibilityPublic
				}
			}
			return store.VisibilityPublic
		},

		IsExported: func(w *Walker, n *sitter.Node, name string) bool {
			p := n.Parent()
			return p != nil && p.Type() == "export_statement"
		},

		IsAsync: func(w *Walker, n *sitter.Node) bool {
			return hasTokenChild(n, "async")
		},

		IsStatic: func(w *Walker, n *sitter.Node) bool {
			return hasTokenChild(n, "static")
		},

		Heritage: func(w *Walker, n *sitter.Node) (extends, implements []string) {
			// interface_declaration keeps its extends clause directly;
			// classes wrap both clauses in class_heritage.
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				switch child.Type() {
				case "class_heritage":
					for j := 0; j < int(child.ChildCount()); j++ {
						clause := child.Child(j)
						switch clause.Type() {
						case "extends_clause":
							extends = append(extends, clauseNames(w, clause)...)
						case "implements_clause":
							implements = append(implements, clauseNames(w, clause)...)
						}
					}
				case "extends_type_clause", "extends_clause":
					extends = append(extends, clauseNames(w, child)...)
				}
			}
			return extends, implements
		},
	}
}

// clauseNames collects the identifier-ish names out of an heritage clause.
func clauseNames(w *Walker, clause *sitter.Node) []string {
	var names []string
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier", "type_identifier", "nested_type_identifier", "member_expression", "generic_type":
			names = append(names, w.text(child))
		}
	}
	return names
}

// hasTokenChild reports whether n has an anonymous token child of the given
// type ("async", "static").
func hasTokenChild(n *sitter.Node, token string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == token {
			return true
		}
	}
	return false
}
