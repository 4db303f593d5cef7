package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

// typeSet is a set of concrete-syntax node types.
type typeSet map[string]bool

func newTypeSet(types ...string) typeSet {
	s := make(typeSet, len(types))
	for _, t := range types {
		s[t] = true
	}
	return s
}

// LanguageRules normalizes one language's grammar onto the uniform node and
// edge model. Per-language behavior is this table plus a small set of
// optional hooks; adding a language means adding a table entry, not a type
// hierarchy.
type LanguageRules struct {
	Language parser.Language

	// Node type sets. FunctionTypes create function or method nodes
	// depending on the enclosing scope; MethodTypes are syntactic forms
	// that are unconditionally methods (explicit receivers).
	FunctionTypes    typeSet
	MethodTypes      typeSet
	ClassTypes       typeSet
	InterfaceTypes   typeSet
	StructTypes      typeSet
	EnumTypes        typeSet
	FieldTypes       typeSet
	PropertyTypes    typeSet
	ConstantTypes    typeSet
	VariableTypes    typeSet
	EnumMemberTypes  typeSet
	ImportTypes      typeSet
	CallTypes        typeSet
	InstantiateTypes typeSet

	// ScopeTypes are container forms that contribute a scope name and make
	// enclosed functions methods without emitting a node themselves (Rust
	// impl blocks). The value is the field holding the scope name.
	ScopeTypes map[string]string

	// Field names on concrete nodes.
	NameField   string
	BodyField   string
	ParamsField string
	ReturnField string

	// Classify overrides the node kind for types whose grammar overloads
	// one syntax across several kinds (Go type_spec, C++ specifiers).
	// Returning ok=false falls back to the set-derived kind.
	Classify func(w *Walker, n *sitter.Node, fallback store.NodeKind) (store.NodeKind, bool)

	// Filter vetoes extraction for node types that appear both as
	// declarations and as bare usages (C struct_specifier). Nil extracts
	// everything in the sets.
	Filter func(w *Walker, n *sitter.Node) bool

	// Callee overrides callee-name extraction for grammars whose call
	// shapes the generic rules cannot read.
	Callee func(w *Walker, n *sitter.Node) (string, bool)

	// NameNode overrides name extraction for grammars whose declarator
	// shapes hide the identifier (C function definitions).
	NameNode func(w *Walker, n *sitter.Node) *sitter.Node

	// Signature renders the parameter list and return type as source text.
	// Nil uses the generic params/return field rendering.
	Signature func(w *Walker, n *sitter.Node) string

	// Visibility returns one of the store visibility levels for a named
	// declaration. Nil means public.
	Visibility func(w *Walker, n *sitter.Node, name string) string

	// IsExported reports whether the declaration is visible outside its
	// module. Nil derives it from Visibility.
	IsExported func(w *Walker, n *sitter.Node, name string) bool

	// IsAsync and IsStatic detect the respective modifiers.
	IsAsync  func(w *Walker, n *sitter.Node) bool
	IsStatic func(w *Walker, n *sitter.Node) bool

	// Heritage extracts inheritance clauses: names the declaration extends
	// and interfaces it implements.
	Heritage func(w *Walker, n *sitter.Node) (extends, implements []string)

	// Docstring overrides documentation extraction. Nil gathers contiguous
	// preceding sibling comments.
	Docstring func(w *Walker, n *sitter.Node) string

	// ImportName extracts the imported module path or name. Nil uses the
	// text of the node's name-ish child.
	ImportName func(w *Walker, n *sitter.Node) string
}

// languageRules maps each supported language to its rule table.
var languageRules = map[parser.Language]*LanguageRules{}

// registerRules adds a rule table; called from the per-language files.
func registerRules(r *LanguageRules) {
	languageRules[r.Language] = r
}

// RulesFor returns the rule table for a language, or nil when the language
// has no tree-based rules (Vue, unknown).
func RulesFor(lang parser.Language) *LanguageRules {
	return languageRules[lang]
}

// identifierTypes are node types accepted by the generic name fallback: the
// first child of one of these types names an otherwise anonymous
// declaration.
var identifierTypes = newTypeSet(
	"identifier",
	"type_identifier",
	"field_identifier",
	"property_identifier",
	"simple_identifier",
	"constant",
	"name",
	"word",
)

// anonymousName is the sentinel for declarations with no extractable name.
// Anonymous functions are skipped rather than stored under it.
const anonymousName = "<anonymous>"
