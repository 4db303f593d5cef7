package query

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ravescovi/codegraph/internal/store"
)

// SearchResult pairs a node with its relevance score.
type SearchResult struct {
	Node  *store.Node `json:"node"`
	Score float64     `json:"score"`
}

// SearchOptions controls ranked search.
type SearchOptions struct {
	Limit    int
	Kinds    []store.NodeKind
	Language string
}

// stopWords are dropped from queries before matching.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"in": true, "on": true, "to": true, "for": true, "with": true, "is": true,
	"are": true, "fix": true, "bug": true, "add": true, "update": true,
	"make": true, "that": true, "this": true, "all": true, "from": true,
}

// kindBonus ranks node kinds: callables top, UI surfaces near top,
// parameters and files contribute nothing.
func kindBonus(kind store.NodeKind) float64 {
	switch kind {
	case store.KindFunction, store.KindMethod:
		return 10
	case store.KindRoute, store.KindComponent:
		return 8
	case store.KindClass, store.KindStruct, store.KindInterface, store.KindTrait, store.KindProtocol:
		return 6
	case store.KindEnum, store.KindTypeAlias:
		return 4
	case store.KindConstant, store.KindVariable, store.KindProperty, store.KindField, store.KindEnumMember:
		return 2
	case store.KindModule, store.KindNamespace:
		return 1
	case store.KindParameter, store.KindFile:
		return 0
	}
	return 0
}

// ExtractTerms normalizes free text into search terms: punctuation
// stripped, stop words removed, terms under two characters dropped.
func ExtractTerms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	var terms []string
	seen := make(map[string]bool)
	for _, f := range fields {
		if len(f) < 2 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// Search ranks nodes against free text. Scoring combines the kind bonus,
// path relevance, and textual match quality against name and qualified
// name; ties break on kind bonus, then shorter path, then id.
func (e *Engine) Search(text string, opts SearchOptions) ([]SearchResult, error) {
	terms := ExtractTerms(text)
	if len(terms) == 0 {
		return nil, &store.SearchError{Query: text, Err: errEmptyQuery}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultMaxNodes
	}

	storeOpts := store.SearchOptions{
		Kinds:    opts.Kinds,
		Language: opts.Language,
		// Overfetch; re-ranking happens here.
		Limit: limit * 4,
	}

	candidates := make(map[string]*store.Node)
	for _, term := range terms {
		for _, prefix := range []bool{false, true} {
			storeOpts.Prefix = prefix
			nodes, err := e.store.SearchNodes(term, storeOpts)
			if err != nil {
				continue
			}
			for _, n := range nodes {
				candidates[n.ID] = n
			}
		}
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, n := range candidates {
		score := scoreNode(n, terms)
		if score <= 0 {
			continue
		}
		results = append(results, SearchResult{Node: n, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ba, bb := kindBonus(a.Node.Kind), kindBonus(b.Node.Kind)
		if ba != bb {
			return ba > bb
		}
		if len(a.Node.FilePath) != len(b.Node.FilePath) {
			return len(a.Node.FilePath) < len(b.Node.FilePath)
		}
		return a.Node.ID < b.Node.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scoreNode computes the lexical relevance of one node.
func scoreNode(n *store.Node, terms []string) float64 {
	name := strings.ToLower(n.Name)
	qualified := strings.ToLower(n.QualifiedName)
	path := strings.ToLower(n.FilePath)
	fileName := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		fileName = path[i+1:]
	}
	subTokens := splitIdentifier(n.Name)

	var score float64
	matched := false
	for _, term := range terms {
		switch {
		case name == term:
			score += 15
			matched = true
		case strings.HasPrefix(name, term):
			score += 8
			matched = true
		case strings.Contains(name, term):
			score += 5
			matched = true
		case subTokenMatch(subTokens, term):
			// Camel/snake sub-token hits score at half the weight of a
			// whole-name substring hit.
			score += 2.5
			matched = true
		case strings.Contains(qualified, term):
			score += 3
			matched = true
		}

		// Path relevance: filename beats directory beats bare substring.
		switch {
		case strings.HasPrefix(fileName, term):
			score += 5
		case strings.Contains(fileName, term):
			score += 3
		case strings.Contains(path, term+"/"):
			score += 2
		case strings.Contains(path, term):
			score += 1
		}
	}
	if !matched && score == 0 {
		return 0
	}
	return score + kindBonus(n.Kind)
}

// splitIdentifier breaks an identifier into lowercase camel/snake tokens.
func splitIdentifier(name string) []string {
	var tokens []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, strings.ToLower(string(current)))
			current = nil
		}
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			flush()
		case unicode.IsUpper(r):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	return tokens
}

func subTokenMatch(tokens []string, term string) bool {
	for _, tok := range tokens {
		if tok == term {
			return true
		}
	}
	return false
}

var errEmptyQuery = &emptyQueryError{}

type emptyQueryError struct{}

func (*emptyQueryError) Error() string { return "no usable search terms" }
