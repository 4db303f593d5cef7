package extract

import (
	"regexp"
	"strings"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

// Vue single-file components have no tree-sitter grammar here; a small set
// of regexes pulls out the component, its script-level functions, and its
// imports. Lighter than a tree parse, good enough for navigation.
var (
	vueScriptRe   = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)
	vueImportRe   = regexp.MustCompile(`import\s+(?:[\w{}\s,*]+\s+from\s+)?['"]([^'"]+)['"]`)
	vueFunctionRe = regexp.MustCompile(`(?m)^\s*(?:async\s+)?function\s+(\w+)\s*\(`)
	vueMethodRe   = regexp.MustCompile(`(?m)^\s{2,}(?:async\s+)?(\w+)\s*\([^)]*\)\s*\{`)
	vueNameRe     = regexp.MustCompile(`name\s*:\s*['"]([\w-]+)['"]`)
)

// vueReservedBlocks are object keys the method regex would otherwise pick
// up as methods.
var vueReservedBlocks = map[string]bool{
	"data": false, "if": true, "for": true, "while": true, "switch": true, "catch": true,
}

func extractVue(res *Result, filePath string, source []byte) {
	text := string(source)
	lineOf := lineOffsets(text)
	lineCount := strings.Count(text, "\n") + 1

	base := filePath
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}

	fileNode := &store.Node{
		ID:            NodeID(store.KindFile, filePath, base, 1),
		Kind:          store.KindFile,
		Name:          base,
		QualifiedName: filePath,
		FilePath:      filePath,
		Language:      string(parser.Vue),
		StartLine:     1,
		EndLine:       lineCount,
		CodeHash:      CodeHash(source),
		Visibility:    store.VisibilityPublic,
		IsExported:    true,
	}
	res.Nodes = append(res.Nodes, fileNode)

	componentName := strings.TrimSuffix(base, ".vue")
	if m := vueNameRe.FindStringSubmatch(text); m != nil {
		componentName = m[1]
	}
	component := &store.Node{
		ID:            NodeID(store.KindComponent, filePath, componentName, 1),
		Kind:          store.KindComponent,
		Name:          componentName,
		QualifiedName: filePath + "::" + componentName,
		FilePath:      filePath,
		Language:      string(parser.Vue),
		StartLine:     1,
		EndLine:       lineCount,
		CodeSnippet:   Snippet(text),
		CodeHash:      CodeHash(source),
		Visibility:    store.VisibilityPublic,
		IsExported:    true,
	}
	res.Nodes = append(res.Nodes, component)
	res.Edges = append(res.Edges, &store.Edge{
		SourceID:   fileNode.ID,
		TargetID:   component.ID,
		Kind:       store.EdgeContains,
		Resolved:   true,
		LineNumber: 1,
	})

	script := vueScriptRe.FindStringIndex(text)
	if script == nil {
		return
	}
	scriptText := text[script[0]:script[1]]
	scriptBase := script[0]

	for _, m := range vueImportRe.FindAllStringSubmatchIndex(scriptText, -1) {
		path := scriptText[m[2]:m[3]]
		res.Refs = append(res.Refs, &store.UnresolvedRef{
			FromNodeID:    component.ID,
			ReferenceName: path,
			ReferenceKind: store.EdgeImports,
			Line:          lineAt(lineOf, scriptBase+m[0]),
			FilePath:      filePath,
			Language:      string(parser.Vue),
		})
	}

	addFunc := func(name string, offset int) {
		line := lineAt(lineOf, offset)
		fn := &store.Node{
			ID:            NodeID(store.KindFunction, filePath, name, line),
			Kind:          store.KindFunction,
			Name:          name,
			QualifiedName: filePath + "::" + componentName + "::" + name,
			FilePath:      filePath,
			Language:      string(parser.Vue),
			StartLine:     line,
			EndLine:       line,
			Visibility:    store.VisibilityPublic,
		}
		res.Nodes = append(res.Nodes, fn)
		res.Edges = append(res.Edges, &store.Edge{
			SourceID:   component.ID,
			TargetID:   fn.ID,
			Kind:       store.EdgeContains,
			Resolved:   true,
			LineNumber: line,
		})
	}

	seen := map[string]bool{}
	for _, m := range vueFunctionRe.FindAllStringSubmatchIndex(scriptText, -1) {
		name := scriptText[m[2]:m[3]]
		if !seen[name] {
			seen[name] = true
			addFunc(name, scriptBase+m[0])
		}
	}
	for _, m := range vueMethodRe.FindAllStringSubmatchIndex(scriptText, -1) {
		name := scriptText[m[2]:m[3]]
		if blocked, known := vueReservedBlocks[name]; known && blocked {
			continue
		}
		if !seen[name] {
			seen[name] = true
			addFunc(name, scriptBase+m[0])
		}
	}
}

// lineOffsets returns the byte offset of each line start.
func lineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineAt maps a byte offset to a 1-based line number.
func lineAt(offsets []int, pos int) int {
	lo, hi := 0, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}
