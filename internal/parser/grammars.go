package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// grammars maps each tree-parsed language to its grammar loader. Vue is
// absent: its extraction is regex based.
var grammars = map[Language]func() *sitter.Language{
	Go:         golang.GetLanguage,
	TypeScript: typescript.GetLanguage,
	JavaScript: javascript.GetLanguage,
	Python:     python.GetLanguage,
	Rust:       rust.GetLanguage,
	Java:       java.GetLanguage,
	CSharp:     csharp.GetLanguage,
	C:          c.GetLanguage,
	Cpp:        cpp.GetLanguage,
	PHP:        php.GetLanguage,
	Kotlin:     kotlin.GetLanguage,
	Ruby:       ruby.GetLanguage,
}
