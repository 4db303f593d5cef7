// Package parser maps file extensions to languages and manages tree-sitter
// parsers for them.
//
// Parsers are loaded lazily and cached per language. A grammar that fails to
// load on the host is recorded once and reported as unavailable on every
// later lookup; it is never retried. Languages whose extraction is regex
// based (Vue single-file components) are supported without a tree parser.
package parser

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language identifies a supported programming language.
type Language string

const (
	// Go is the Go programming language.
	Go Language = "go"
	// TypeScript covers .ts and .tsx sources.
	TypeScript Language = "typescript"
	// JavaScript covers .js/.jsx/.mjs/.cjs sources.
	JavaScript Language = "javascript"
	// Python is the Python programming language.
	Python Language = "python"
	// Rust is the Rust programming language.
	Rust Language = "rust"
	// Java is the Java programming language.
	Java Language = "java"
	// CSharp is the C# programming language.
	CSharp Language = "csharp"
	// C is the C programming language.
	C Language = "c"
	// Cpp is the C++ programming language.
	Cpp Language = "cpp"
	// PHP is the PHP programming language.
	PHP Language = "php"
	// Kotlin is the Kotlin programming language.
	Kotlin Language = "kotlin"
	// Ruby is the Ruby programming language.
	Ruby Language = "ruby"
	// Vue is the Vue single-file component format. Extraction for Vue is
	// regex based; no tree parser exists for it.
	Vue Language = "vue"
	// Unknown marks files whose extension is not recognized.
	Unknown Language = ""
)

// extensionLanguages maps file extensions to their language tag.
var extensionLanguages = map[string]Language{
	".go":   Go,
	".ts":   TypeScript,
	".tsx":  TypeScript,
	".js":   JavaScript,
	".jsx":  JavaScript,
	".mjs":  JavaScript,
	".cjs":  JavaScript,
	".py":   Python,
	".pyi":  Python,
	".rs":   Rust,
	".java": Java,
	".cs":   CSharp,
	".c":    C,
	".h":    C,
	".cpp":  Cpp,
	".cc":   Cpp,
	".cxx":  Cpp,
	".hpp":  Cpp,
	".hh":   Cpp,
	".hxx":  Cpp,
	".php":  PHP,
	".kt":   Kotlin,
	".kts":  Kotlin,
	".rb":   Ruby,
	".rake": Ruby,
	".vue":  Vue,
}

// DetectLanguage returns the language for a file path based on its
// extension, or Unknown if the extension is not recognized.
func DetectLanguage(path string) Language {
	return extensionLanguages[filepath.Ext(path)]
}

// SupportedExtensions returns all file extensions the registry recognizes.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}
	return exts
}

// Registry caches one parser per language. Loading a grammar is attempted at
// most once; failures are remembered so an unavailable grammar costs one
// warning, not one per file.
type Registry struct {
	mu      sync.Mutex
	parsers map[Language]*Parser
	failed  map[Language]error
	warn    func(lang Language, err error)
}

// NewRegistry creates an empty parser registry. warn is invoked once per
// language whose grammar fails to load; it may be nil.
func NewRegistry(warn func(lang Language, err error)) *Registry {
	return &Registry{
		parsers: make(map[Language]*Parser),
		failed:  make(map[Language]error),
		warn:    warn,
	}
}

// GetParser returns the cached parser for a language, loading it on first
// use. It returns (nil, nil) for languages that are supported without a tree
// parser and for languages whose grammar previously failed to load.
func (r *Registry) GetParser(lang Language) (*Parser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.parsers[lang]; ok {
		return p, nil
	}
	if _, ok := r.failed[lang]; ok {
		return nil, nil
	}
	if lang == Vue {
		// Regex-extracted language: available, no tree parser.
		return nil, nil
	}

	grammar, ok := grammars[lang]
	if !ok {
		return nil, &UnsupportedLanguageError{Language: string(lang)}
	}

	p, err := newParser(lang, grammar)
	if err != nil {
		r.failed[lang] = err
		if r.warn != nil {
			r.warn(lang, err)
		}
		return nil, nil
	}

	r.parsers[lang] = p
	return p, nil
}

// IsSupported reports whether the registry can extract the language at all.
// A language with a failed grammar load is still "supported" in the sense
// that its files are skipped gracefully rather than rejected.
func (r *Registry) IsSupported(lang Language) bool {
	if lang == Unknown {
		return false
	}
	if lang == Vue {
		return true
	}
	_, ok := grammars[lang]
	return ok
}

// IsAvailable reports whether a parser (or regex rules) can actually run for
// the language on this host.
func (r *Registry) IsAvailable(lang Language) bool {
	if !r.IsSupported(lang) {
		return false
	}
	if lang == Vue {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, failed := r.failed[lang]
	return !failed
}

// Close releases all cached parsers.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for lang, p := range r.parsers {
		p.Close()
		delete(r.parsers, lang)
	}
}

// Parser wraps a tree-sitter parser for one language.
type Parser struct {
	parser *sitter.Parser
	lang   Language
}

// newParser constructs a parser from a grammar loader. Grammar loading is
// where a missing or incompatible native grammar surfaces; the recover
// converts a cgo panic into an error so the registry can degrade.
func newParser(lang Language, grammar func() *sitter.Language) (p *Parser, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = &GrammarLoadError{Language: string(lang), Detail: r}
		}
	}()

	sp := sitter.NewParser()
	sp.SetLanguage(grammar())
	return &Parser{parser: sp, lang: lang}, nil
}

// ParseResult holds a parsed tree together with its source.
type ParseResult struct {
	// Tree is the complete tree-sitter parse tree.
	Tree *sitter.Tree
	// Root is the root node of the tree.
	Root *sitter.Node
	// Source is the source that was parsed.
	Source []byte
	// FilePath is the path of the source file, when parsed from disk.
	FilePath string
	// Language is the language the source was parsed as.
	Language Language
}

// Parse parses source and returns the tree.
func (p *Parser) Parse(ctx context.Context, source []byte) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return &ParseResult{
		Tree:     tree,
		Root:     tree.RootNode(),
		Source:   source,
		Language: p.lang,
	}, nil
}

// ParseFile parses a file from disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "read", Err: err}
	}
	result, err := p.Parse(ctx, source)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.File = path
		}
		return nil, err
	}
	result.FilePath = path
	return result, nil
}

// Language returns the language this parser is configured for.
func (p *Parser) Language() Language {
	return p.lang
}

// Close releases parser resources.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// HasErrors reports whether the parse tree contains syntax errors.
func (r *ParseResult) HasErrors() bool {
	return r.Root != nil && r.Root.HasError()
}

// NodeText returns the source text for a node.
func (r *ParseResult) NodeText(node *sitter.Node) string {
	if node == nil || r.Source == nil {
		return ""
	}
	return node.Content(r.Source)
}
