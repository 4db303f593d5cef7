package query

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ravescovi/codegraph/internal/store"
)

func newEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), ".codegraph"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func addFile(t *testing.T, s *store.Store, path string, nodes []*store.Node) {
	t.Helper()
	err := s.Transaction(func(tx *store.Tx) error {
		if err := tx.UpsertFile(&store.FileRecord{
			Path: path, ContentHash: "h-" + path, Language: "go", IndexedAt: time.Now(),
		}); err != nil {
			return err
		}
		return tx.InsertNodes(nodes)
	})
	require.NoError(t, err)
}

func node(id string, kind store.NodeKind, name, file string) *store.Node {
	return &store.Node{
		ID: id, Kind: kind, Name: name,
		QualifiedName: file + "::" + name,
		FilePath:      file, Language: "go",
		StartLine: 1, EndLine: 10, UpdatedAt: time.Now(),
	}
}

func calls(from, to string, line int) *store.Edge {
	return &store.Edge{SourceID: from, TargetID: to, Kind: store.EdgeCalls, Resolved: true, LineNumber: line}
}

// authGraph builds the call graph shared by the caller/impact scenarios:
// four service methods invoke generate_token, and pay_order reaches it
// through process_payment.
func authGraph(t *testing.T, s *store.Store) {
	addFile(t, s, "src/token.go", []*store.Node{
		node("function:gen", store.KindFunction, "generate_token", "src/token.go"),
	})
	addFile(t, s, "src/auth.go", []*store.Node{
		node("method:register", store.KindMethod, "register", "src/auth.go"),
		node("method:login", store.KindMethod, "login", "src/auth.go"),
		node("function:verify", store.KindFunction, "verify_password", "src/auth.go"),
		node("function:find", store.KindFunction, "find_user_by_email", "src/auth.go"),
		node("function:create", store.KindFunction, "create_token", "src/auth.go"),
	})
	addFile(t, s, "src/payment.go", []*store.Node{
		node("method:process", store.KindMethod, "process_payment", "src/payment.go"),
		node("method:refund", store.KindMethod, "refund_payment", "src/payment.go"),
	})
	addFile(t, s, "src/order.go", []*store.Node{
		node("method:pay", store.KindMethod, "pay_order", "src/order.go"),
		node("method:cancel", store.KindMethod, "cancel_order", "src/order.go"),
	})

	require.NoError(t, s.InsertEdges([]*store.Edge{
		calls("method:register", "function:gen", 10),
		calls("method:login", "function:gen", 20),
		calls("method:process", "function:gen", 30),
		calls("method:refund", "function:gen", 40),
		calls("method:login", "function:find", 21),
		calls("method:login", "function:verify", 22),
		calls("method:login", "function:create", 23),
		calls("method:pay", "method:process", 5),
	}))
}

func TestCallers(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	callers, err := e.Callers("function:gen")
	require.NoError(t, err)

	names := nodeNames(callers)
	require.ElementsMatch(t, []string{"register", "login", "process_payment", "refund_payment"}, names)
}

func TestCallees(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	callees, err := e.Callees("method:login")
	require.NoError(t, err)

	names := nodeNames(callees)
	require.ElementsMatch(t, []string{"generate_token", "find_user_by_email", "verify_password", "create_token"}, names)
}

func TestImpactRadius(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	sg, err := e.ImpactRadius("function:gen", TraverseOptions{MaxDepth: 2})
	require.NoError(t, err)

	// Direct callers plus their callers.
	for _, id := range []string{"method:register", "method:login", "method:process", "method:refund", "method:pay"} {
		require.Contains(t, sg.Nodes, id)
	}
	require.NotContains(t, sg.Nodes, "method:cancel")
}

func TestTraverseDepthZeroReturnsStarts(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	sg, err := e.Traverse([]string{"method:login"}, TraverseOptions{MaxDepth: 0, MaxNodes: 50})
	require.NoError(t, err)
	require.Len(t, sg.Nodes, 1)
	require.Empty(t, sg.Edges)
	require.Equal(t, []string{"method:login"}, sg.EntryPoints)
}

func TestTraverseNodeCap(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	sg, err := e.Traverse([]string{"function:gen"}, TraverseOptions{
		MaxDepth:  5,
		MaxNodes:  3,
		Direction: Inbound,
	})
	require.NoError(t, err)
	require.LessOrEqual(t, len(sg.Nodes), 3)
	require.True(t, sg.Stats.Truncated)
}

func TestTraverseEdgeKindFilter(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)
	require.NoError(t, s.InsertEdges([]*store.Edge{
		{SourceID: "method:login", TargetID: "function:gen", Kind: store.EdgeReferences, Resolved: true, LineNumber: 99},
	}))

	sg, err := e.Traverse([]string{"method:pay"}, TraverseOptions{
		MaxDepth:  3,
		MaxNodes:  50,
		Direction: Outbound,
		EdgeKinds: []store.EdgeKind{store.EdgeCalls},
	})
	require.NoError(t, err)
	for _, edge := range sg.Edges {
		require.Equal(t, store.EdgeCalls, edge.Kind)
	}
}

func TestFindPaths(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	paths, err := e.FindPaths("method:pay", "function:gen", 4, 5)
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	require.Equal(t, []string{"method:pay", "method:process", "function:gen"}, paths[0].NodeIDs)
}

func TestFindPathsNoRoute(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	paths, err := e.FindPaths("function:gen", "method:pay", 4, 5)
	require.NoError(t, err)
	require.Empty(t, paths)
}

func TestSearchRanking(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	results, err := e.Search("login", SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "login", results[0].Node.Name)

	// Stop words and short terms are dropped; what remains still matches.
	results, err = e.Search("fix the login bug", SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "login", results[0].Node.Name)

	_, err = e.Search("a an of", SearchOptions{})
	require.Error(t, err)
}

func TestSearchSnakeCaseSubTokens(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	results, err := e.Search("token", SearchOptions{})
	require.NoError(t, err)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Node.Name)
	}
	require.Contains(t, names, "generate_token")
	require.Contains(t, names, "create_token")
}

func TestSearchDeterministicOrder(t *testing.T) {
	e, s := newEngine(t)
	authGraph(t, s)

	first, err := e.Search("payment", SearchOptions{})
	require.NoError(t, err)
	second, err := e.Search("payment", SearchOptions{})
	require.NoError(t, err)
	require.Equal(t, nodeNamesFromResults(first), nodeNamesFromResults(second))
}

func nodeNames(nodes []*store.Node) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names
}

func nodeNamesFromResults(results []SearchResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Node.Name)
	}
	return names
}
