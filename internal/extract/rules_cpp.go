package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	r := cRules(parser.Cpp)

	r.ClassTypes = newTypeSet("class_specifier", "namespace_definition")
	r.InstantiateTypes = newTypeSet("new_expression")

	r.Classify = func(w *Walker, n *sitter.Node, fallback store.NodeKind) (store.NodeKind, bool) {
		if n.Type() == "namespace_definition" {
			return store.KindNamespace, true
		}
		return fallback, false
	}

	r.Heritage = func(w *Walker, n *sitter.Node) (extends, implements []string) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() != "base_class_clause" {
				continue
			}
			for j := 0; j < int(child.NamedChildCount()); j++ {
				base := child.NamedChild(j)
				switch base.Type() {
				case "type_identifier", "qualified_identifier", "template_type":
					extends = append(extends, w.text(base))
				}
			}
		}
		return extends, nil
	}

	registerRules(r)
}
