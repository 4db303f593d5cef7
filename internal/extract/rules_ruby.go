package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func init() {
	registerRules(&LanguageRules{
		Language: parser.Ruby,

		FunctionTypes: newTypeSet("method"),
		MethodTypes:   newTypeSet("singleton_method"),
		ClassTypes:    newTypeSet("class", "module"),
		CallTypes:     newTypeSet("call"),

		NameField:   "name",
		BodyField:   "body",
		ParamsField: "parameters",

		Classify: func(w *Walker, n *sitter.Node, fallback store.NodeKind) (store.NodeKind, bool) {
			if n.Type() == "module" {
				return store.KindModule, true
			}
			return fallback, false
		},

		Heritage: func(w *Walker, n *sitter.Node) (extends, implements []string) {
			if sc := n.ChildByFieldName("superclass"); sc != nil {
				name := w.text(sc)
				if len(name) > 0 && name[0] == '<' {
					name = name[1:]
				}
				extends = append(extends, strings.TrimSpace(name))
			}
			return extends, nil
		},
	})
}
