// Package extract converts parse trees into the uniform node/edge model.
//
// A depth-first walk applies the language's rule table at each syntax node,
// maintaining a stack of open containers. Declarations become nodes with a
// containment edge from their parent scope; calls, imports, and inheritance
// clauses become unresolved references to be tied to concrete nodes later.
// Unresolvable names are first-class data, never errors.
package extract

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

// Result is the outcome of extracting one file.
type Result struct {
	FilePath string
	Language parser.Language
	Nodes    []*store.Node
	Edges    []*store.Edge
	Refs     []*store.UnresolvedRef
	Errors   []error
	Duration time.Duration
}

// Extractor turns (path, source, language) triples into extraction results.
type Extractor struct {
	registry *parser.Registry
}

// New creates an extractor over a parser registry.
func New(registry *parser.Registry) *Extractor {
	return &Extractor{registry: registry}
}

// Extract parses source and walks the tree with the language's rules. A
// parse failure terminates this file's extraction with an error in the
// result; it never fails the call. Languages with no usable parser return an
// empty result so the caller can skip the file.
func (e *Extractor) Extract(ctx context.Context, filePath string, source []byte, lang parser.Language) *Result {
	start := time.Now()
	res := &Result{FilePath: filePath, Language: lang}

	if lang == parser.Vue {
		extractVue(res, filePath, source)
		res.Duration = time.Since(start)
		return res
	}

	rules := RulesFor(lang)
	if rules == nil {
		res.Duration = time.Since(start)
		return res
	}

	p, err := e.registry.GetParser(lang)
	if err != nil || p == nil {
		// Unavailable grammar: skip, not an error.
		res.Duration = time.Since(start)
		return res
	}

	parsed, err := p.Parse(ctx, source)
	if err != nil {
		res.Errors = append(res.Errors, err)
		res.Duration = time.Since(start)
		return res
	}
	defer parsed.Close()

	w := newWalker(rules, parsed, filePath)
	w.run()

	res.Nodes = w.nodes
	res.Edges = w.edges
	res.Refs = w.refs
	if parsed.HasErrors() {
		res.Errors = append(res.Errors, &parser.ParseError{
			File:    filePath,
			Message: "syntax errors in parse tree",
		})
	}
	res.Duration = time.Since(start)
	return res
}

// scopeEntry is one open container on the walk stack.
type scopeEntry struct {
	node *store.Node // nil for anonymous scopes (Rust impl blocks)
	name string
	kind store.NodeKind
}

// Walker carries the state of one file's depth-first extraction.
type Walker struct {
	rules    *LanguageRules
	parsed   *parser.ParseResult
	filePath string
	lineCnt  int

	stack []scopeEntry
	nodes []*store.Node
	edges []*store.Edge
	refs  []*store.UnresolvedRef
	seen  map[uint64]bool
}

func newWalker(rules *LanguageRules, parsed *parser.ParseResult, filePath string) *Walker {
	return &Walker{
		rules:    rules,
		parsed:   parsed,
		filePath: filePath,
		lineCnt:  bytes.Count(parsed.Source, []byte{'\n'}) + 1,
		seen:     make(map[uint64]bool),
	}
}

func (w *Walker) run() {
	fileNode := w.makeFileNode()
	w.nodes = append(w.nodes, fileNode)
	w.stack = append(w.stack, scopeEntry{node: fileNode, name: "", kind: store.KindFile})
	w.walk(w.parsed.Root)
}

// makeFileNode creates the synthetic file-scope node that roots the file's
// containment forest and anchors file-level imports.
func (w *Walker) makeFileNode() *store.Node {
	base := w.filePath
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return &store.Node{
		ID:            NodeID(store.KindFile, w.filePath, base, 1),
		Kind:          store.KindFile,
		Name:          base,
		QualifiedName: w.filePath,
		FilePath:      w.filePath,
		Language:      string(w.parsed.Language),
		StartLine:     1,
		EndLine:       w.lineCnt,
		CodeHash:      CodeHash(w.parsed.Source),
		Visibility:    store.VisibilityPublic,
		IsExported:    true,
	}
}

// walk applies the rule table at n and recurses.
func (w *Walker) walk(n *sitter.Node) {
	t := n.Type()
	r := w.rules

	switch {
	case r.ScopeTypes != nil && r.ScopeTypes[t] != "":
		name := ""
		if field := r.ScopeTypes[t]; field != "" {
			if fn := n.ChildByFieldName(field); fn != nil {
				name = w.text(fn)
			}
		}
		w.stack = append(w.stack, scopeEntry{node: nil, name: name, kind: store.KindStruct})
		w.walkChildren(n)
		w.stack = w.stack[:len(w.stack)-1]
		return

	case r.ClassTypes[t]:
		w.container(n, store.KindClass)
		return

	case r.InterfaceTypes[t]:
		w.container(n, store.KindInterface)
		return

	case r.StructTypes[t]:
		w.container(n, store.KindStruct)
		return

	case r.EnumTypes[t]:
		w.container(n, store.KindEnum)
		return

	case r.MethodTypes[t]:
		w.callable(n, store.KindMethod)
		return

	case r.FunctionTypes[t]:
		kind := store.KindFunction
		if w.insideType() {
			kind = store.KindMethod
		}
		w.callable(n, kind)
		return

	case r.FieldTypes[t]:
		w.leaf(store.KindField, n)
		return

	case r.PropertyTypes[t]:
		w.leaf(store.KindProperty, n)
		return

	case r.ConstantTypes[t]:
		w.leaf(store.KindConstant, n)
		return

	case r.VariableTypes[t]:
		w.leaf(store.KindVariable, n)
		return

	case r.EnumMemberTypes[t]:
		w.leaf(store.KindEnumMember, n)
		return

	case r.ImportTypes[t]:
		if name := w.importName(n); name != "" {
			w.addRef(store.EdgeImports, name, n)
		}
		return

	case r.InstantiateTypes[t]:
		if name, ok := w.calleeName(n); ok {
			w.addRef(store.EdgeInstantiates, name, n)
		}
		w.walkChildren(n)
		return

	case r.CallTypes[t]:
		if name, ok := w.calleeName(n); ok {
			w.addRef(store.EdgeCalls, name, n)
		}
		// Arguments can hold nested calls and function literals.
		w.walkChildren(n)
		return
	}

	w.walkChildren(n)
}

func (w *Walker) walkChildren(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

// leaf creates a non-container node (fields, constants, enum members).
func (w *Walker) leaf(kind store.NodeKind, n *sitter.Node) {
	if w.rules.Filter != nil && !w.rules.Filter(w, n) {
		return
	}
	if node := w.makeNode(kind, n); node != nil {
		w.nodes = append(w.nodes, node)
		w.addContains(node)
	}
}

// container handles class-like declarations: create the node, record
// inheritance references, then recurse into the body with the node open on
// the stack.
func (w *Walker) container(n *sitter.Node, fallback store.NodeKind) {
	if w.rules.Filter != nil && !w.rules.Filter(w, n) {
		w.walkChildren(n)
		return
	}
	kind := fallback
	if w.rules.Classify != nil {
		if k, ok := w.rules.Classify(w, n, fallback); ok {
			kind = k
		}
	}

	node := w.makeNode(kind, n)
	if node == nil {
		w.walkChildren(n)
		return
	}
	w.nodes = append(w.nodes, node)
	w.addContains(node)

	if w.rules.Heritage != nil {
		extends, implements := w.rules.Heritage(w, n)
		for _, name := range extends {
			w.addRefFrom(node, store.EdgeExtends, name, n)
		}
		for _, name := range implements {
			w.addRefFrom(node, store.EdgeImplements, name, n)
		}
	}

	w.stack = append(w.stack, scopeEntry{node: node, name: node.Name, kind: kind})
	w.walkChildren(n)
	w.stack = w.stack[:len(w.stack)-1]
}

// callable handles function-like declarations. Anonymous functions are not
// stored; their bodies are still scanned so calls attach to the enclosing
// scope.
func (w *Walker) callable(n *sitter.Node, kind store.NodeKind) {
	node := w.makeNode(kind, n)
	if node == nil {
		w.walkChildren(n)
		return
	}
	w.nodes = append(w.nodes, node)
	w.addContains(node)

	w.stack = append(w.stack, scopeEntry{node: node, name: node.Name, kind: kind})
	w.walkChildren(n)
	w.stack = w.stack[:len(w.stack)-1]
}

// insideType reports whether the innermost open container is a type-like
// scope, which turns functions into methods.
func (w *Walker) insideType() bool {
	if len(w.stack) == 0 {
		return false
	}
	switch w.stack[len(w.stack)-1].kind {
	case store.KindClass, store.KindStruct, store.KindInterface, store.KindTrait,
		store.KindProtocol, store.KindEnum:
		return true
	}
	return false
}

// makeNode builds a store node for a declaration, or nil for anonymous
// declarations.
func (w *Walker) makeNode(kind store.NodeKind, n *sitter.Node) *store.Node {
	name := w.declName(n)
	if name == anonymousName {
		return nil
	}

	startLine := int(n.StartPoint().Row) + 1
	endLine := int(n.EndPoint().Row) + 1
	text := w.text(n)

	node := &store.Node{
		ID:            NodeID(kind, w.filePath, name, startLine),
		Kind:          kind,
		Name:          name,
		QualifiedName: w.qualifiedName(name),
		FilePath:      w.filePath,
		Language:      string(w.parsed.Language),
		StartLine:     startLine,
		EndLine:       endLine,
		StartColumn:   int(n.StartPoint().Column),
		EndColumn:     int(n.EndPoint().Column),
		CodeSnippet:   Snippet(text),
		CodeHash:      CodeHash([]byte(text)),
		Visibility:    store.VisibilityPublic,
	}

	r := w.rules
	if r.Signature != nil {
		node.Signature = r.Signature(w, n)
	} else {
		node.Signature = w.genericSignature(n)
	}
	if r.Docstring != nil {
		node.Docstring = r.Docstring(w, n)
	} else {
		node.Docstring = w.precedingComments(n)
	}
	if r.Visibility != nil {
		node.Visibility = r.Visibility(w, n, name)
	}
	if r.IsExported != nil {
		node.IsExported = r.IsExported(w, n, name)
	} else {
		node.IsExported = node.Visibility == store.VisibilityPublic
	}
	if r.IsAsync != nil {
		node.IsAsync = r.IsAsync(w, n)
	}
	if r.IsStatic != nil {
		node.IsStatic = r.IsStatic(w, n)
	}
	return node
}

// declName resolves a declaration's name: the declared name field, then the
// first identifier-like child, then the anonymous sentinel.
func (w *Walker) declName(n *sitter.Node) string {
	if w.rules.NameNode != nil {
		if nn := w.rules.NameNode(w, n); nn != nil {
			return w.text(nn)
		}
	}
	field := w.rules.NameField
	if field == "" {
		field = "name"
	}
	if nn := n.ChildByFieldName(field); nn != nil {
		return w.text(nn)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if identifierTypes[child.Type()] {
			return w.text(child)
		}
	}
	return anonymousName
}

// qualifiedName joins the file path and the open scope names with "::".
func (w *Walker) qualifiedName(name string) string {
	parts := make([]string, 0, len(w.stack)+1)
	parts = append(parts, w.filePath)
	for _, entry := range w.stack[1:] {
		if entry.name != "" {
			parts = append(parts, entry.name)
		}
	}
	parts = append(parts, name)
	return strings.Join(parts, "::")
}

// genericSignature renders the params field and return field as source
// text.
func (w *Walker) genericSignature(n *sitter.Node) string {
	params := w.rules.ParamsField
	if params == "" {
		params = "parameters"
	}
	pn := n.ChildByFieldName(params)
	if pn == nil {
		return ""
	}
	sig := w.text(pn)
	if w.rules.ReturnField != "" {
		if rn := n.ChildByFieldName(w.rules.ReturnField); rn != nil {
			sig += " -> " + w.text(rn)
		}
	}
	return sig
}

// addContains emits the containment edge from the innermost open scope.
func (w *Walker) addContains(node *store.Node) {
	parent := w.parentNode()
	if parent == nil {
		return
	}
	w.edges = append(w.edges, &store.Edge{
		SourceID:   parent.ID,
		TargetID:   node.ID,
		Kind:       store.EdgeContains,
		Resolved:   true,
		LineNumber: node.StartLine,
	})
}

// parentNode returns the innermost scope that has a stored node, skipping
// anonymous scopes.
func (w *Walker) parentNode() *store.Node {
	for i := len(w.stack) - 1; i >= 0; i-- {
		if w.stack[i].node != nil {
			return w.stack[i].node
		}
	}
	return nil
}

// addRef records an unresolved reference from the innermost containing
// node.
func (w *Walker) addRef(kind store.EdgeKind, name string, n *sitter.Node) {
	w.addRefFrom(w.parentNode(), kind, name, n)
}

func (w *Walker) addRefFrom(from *store.Node, kind store.EdgeKind, name string, n *sitter.Node) {
	if from == nil || name == "" {
		return
	}
	line := int(n.StartPoint().Row) + 1
	key := xxhash.Sum64String(from.ID + "\x00" + name + "\x00" + string(kind) + "\x00" + itoa(line))
	if w.seen[key] {
		return
	}
	w.seen[key] = true

	w.refs = append(w.refs, &store.UnresolvedRef{
		FromNodeID:    from.ID,
		ReferenceName: name,
		ReferenceKind: kind,
		Line:          line,
		Column:        int(n.StartPoint().Column),
		FilePath:      w.filePath,
		Language:      string(w.parsed.Language),
	})
}

// importName resolves the imported path or name for an import node.
func (w *Walker) importName(n *sitter.Node) string {
	if w.rules.ImportName != nil {
		return w.rules.ImportName(w, n)
	}
	field := w.rules.NameField
	if field == "" {
		field = "name"
	}
	if nn := n.ChildByFieldName(field); nn != nil {
		return trimQuotes(w.text(nn))
	}
	if nn := n.ChildByFieldName("path"); nn != nil {
		return trimQuotes(w.text(nn))
	}
	if nn := n.ChildByFieldName("source"); nn != nil {
		return trimQuotes(w.text(nn))
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "string", "interpreted_string_literal", "string_literal":
			return trimQuotes(w.text(child))
		}
		if identifierTypes[child.Type()] || strings.Contains(child.Type(), "identifier") {
			return w.text(child)
		}
	}
	return ""
}

// calleeName resolves the callee's textual name for a call node: member
// access yields the property name, scoped calls keep the scope.
func (w *Walker) calleeName(n *sitter.Node) (string, bool) {
	if w.rules.Callee != nil {
		return w.rules.Callee(w, n)
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		fn = n.ChildByFieldName("constructor")
	}
	if fn == nil {
		fn = n.ChildByFieldName("type")
	}
	if fn == nil {
		// Ruby-style calls name the method directly; Java invocations use
		// a name field.
		if m := n.ChildByFieldName("method"); m != nil {
			return w.text(m), true
		}
		if m := n.ChildByFieldName("name"); m != nil {
			return w.text(m), true
		}
		return "", false
	}

	switch fn.Type() {
	case "member_expression", "attribute", "field_expression", "navigation_expression",
		"member_access_expression", "selector_expression":
		for _, field := range []string{"property", "attribute", "field", "name"} {
			if p := fn.ChildByFieldName(field); p != nil {
				return w.text(p), true
			}
		}
		// Fall back to the last identifier-like child.
		for i := int(fn.ChildCount()) - 1; i >= 0; i-- {
			child := fn.Child(i)
			if strings.Contains(child.Type(), "identifier") || child.Type() == "name" {
				return w.text(child), true
			}
		}
		return "", false
	case "scoped_identifier", "qualified_name", "scoped_call_expression":
		// Scoped calls keep the scope text.
		return w.text(fn), true
	case "parenthesized_expression":
		return "", false
	}
	name := w.text(fn)
	if name == "" {
		return "", false
	}
	return name, true
}

// text returns the source text of a node.
func (w *Walker) text(n *sitter.Node) string {
	return w.parsed.NodeText(n)
}

func trimQuotes(s string) string {
	return strings.Trim(s, "\"'`")
}
