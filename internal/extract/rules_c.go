package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
)

func init() {
	registerRules(cRules(parser.C))
}

// cRules builds the C table; C++ extends it.
func cRules(lang parser.Language) *LanguageRules {
	return &LanguageRules{
		Language: lang,

		FunctionTypes:   newTypeSet("function_definition"),
		StructTypes:     newTypeSet("struct_specifier"),
		EnumTypes:       newTypeSet("enum_specifier"),
		FieldTypes:      newTypeSet("field_declaration"),
		EnumMemberTypes: newTypeSet("enumerator"),
		ImportTypes:     newTypeSet("preproc_include"),
		CallTypes:       newTypeSet("call_expression"),

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",
		ReturnField: "type",

		// struct/enum specifiers appear in plain usage too; only ones with
		// a body are declarations.
		Filter: func(w *Walker, n *sitter.Node) bool {
			switch n.Type() {
			case "struct_specifier", "enum_specifier", "class_specifier", "union_specifier":
				return n.ChildByFieldName("body") != nil
			}
			return true
		},

		// The identifier hides inside the declarator chain.
		NameNode: func(w *Walker, n *sitter.Node) *sitter.Node {
			if n.Type() != "function_definition" {
				if nn := n.ChildByFieldName("name"); nn != nil {
					return nn
				}
				return nil
			}
			d := n.ChildByFieldName("declarator")
			for d != nil {
				switch d.Type() {
				case "identifier", "field_identifier", "qualified_identifier":
					return d
				case "function_declarator", "pointer_declarator", "reference_declarator":
					next := d.ChildByFieldName("declarator")
					if next == nil {
						next = d.NamedChild(0)
					}
					d = next
				default:
					return nil
				}
			}
			return nil
		},

		Signature: func(w *Walker, n *sitter.Node) string {
			if n.Type() != "function_definition" {
				return ""
			}
			d := n.ChildByFieldName("declarator")
			if d == nil {
				return ""
			}
			var params string
			var visit func(*sitter.Node)
			visit = func(node *sitter.Node) {
				if node.Type() == "function_declarator" {
					if p := node.ChildByFieldName("parameters"); p != nil {
						params = w.text(p)
					}
					return
				}
				for i := 0; i < int(node.NamedChildCount()); i++ {
					visit(node.NamedChild(i))
				}
			}
			visit(d)
			ret := ""
			if tn := n.ChildByFieldName("type"); tn != nil {
				ret = " -> " + w.text(tn)
			}
			return params + ret
		},

		ImportName: func(w *Walker, n *sitter.Node) string {
			if p := n.ChildByFieldName("path"); p != nil {
				return strings.Trim(w.text(p), "\"<>")
			}
			return ""
		},
	}
}
