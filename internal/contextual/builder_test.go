package contextual

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ravescovi/codegraph/internal/query"
	"github.com/ravescovi/codegraph/internal/store"
)

type fixture struct {
	root    string
	store   *store.Store
	builder *Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	s, err := store.Open(filepath.Join(root, ".codegraph"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	engine := query.New(s)
	return &fixture{
		root:    root,
		store:   s,
		builder: New(engine, nil, root),
	}
}

func (f *fixture) addFile(t *testing.T, path, content string, nodes []*store.Node) {
	t.Helper()
	full := filepath.Join(f.root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))

	err := f.store.Transaction(func(tx *store.Tx) error {
		if err := tx.UpsertFile(&store.FileRecord{
			Path: path, ContentHash: "h-" + path, Language: "ts", IndexedAt: time.Now(),
		}); err != nil {
			return err
		}
		return tx.InsertNodes(nodes)
	})
	require.NoError(t, err)
}

func mkNode(id string, kind store.NodeKind, name, file string, start, end int) *store.Node {
	return &store.Node{
		ID: id, Kind: kind, Name: name,
		QualifiedName: file + "::" + name,
		FilePath:      file, Language: "ts",
		StartLine: start, EndLine: end, UpdatedAt: time.Now(),
	}
}

// seed builds the auth scenario: login calls verify_password and touches
// the User entity; cancel_order lives in an unrelated corner.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	authSrc := `export class AuthService {
  login(email, password) {
    const user = findUser(email)
    return verify_password(user, password)
  }
}
function verify_password(user, password) {
  return user.hash === hash(password)
}
`
	f.addFile(t, "src/auth.ts", authSrc, []*store.Node{
		mkNode("method:login", store.KindMethod, "login", "src/auth.ts", 2, 5),
		mkNode("function:verify", store.KindFunction, "verify_password", "src/auth.ts", 7, 9),
	})
	f.addFile(t, "src/user.ts", "export class User {}\n", []*store.Node{
		mkNode("class:user", store.KindClass, "User", "src/user.ts", 1, 1),
	})
	f.addFile(t, "src/order.ts", "export class OrderService { cancel_order() {} }\n", []*store.Node{
		mkNode("method:cancel", store.KindMethod, "cancel_order", "src/order.ts", 1, 1),
	})

	require.NoError(t, f.store.InsertEdges([]*store.Edge{
		{SourceID: "method:login", TargetID: "function:verify", Kind: store.EdgeCalls, Resolved: true, LineNumber: 4},
		{SourceID: "method:login", TargetID: "class:user", Kind: store.EdgeReferences, Resolved: true, LineNumber: 3},
	}))
}

func TestBuildContextScenario(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	result, err := f.builder.Build(context.Background(), "fix login bug", DefaultOptions())
	require.NoError(t, err)

	doc := result.Markdown()
	require.Contains(t, doc, "login")
	require.Contains(t, doc, "verify_password")
	require.Contains(t, doc, "User")
	require.NotContains(t, doc, "cancel_order")
}

func TestBuildContextBounds(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	opts := Options{
		SearchLimit:      2,
		TraversalDepth:   1,
		MaxNodes:         2,
		MaxCodeBlocks:    1,
		MaxCodeBlockSize: 40,
	}
	result, err := f.builder.Build(context.Background(), "login password verification", opts)
	require.NoError(t, err)

	require.LessOrEqual(t, result.NodeCount, 2)
	require.LessOrEqual(t, len(result.CodeBlocks), 1)
	for _, block := range result.CodeBlocks {
		require.LessOrEqual(t, len(block.Content), 40)
	}
}

func TestBuildContextCodeBlocksFromEntryPointsOnly(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	result, err := f.builder.Build(context.Background(), "login", Options{SearchLimit: 1})
	require.NoError(t, err)
	require.NotEmpty(t, result.CodeBlocks)

	// One entry point means at most one code block, whatever got expanded.
	require.Len(t, result.CodeBlocks, 1)
	require.Equal(t, result.EntryPoints[0].Node.ID, result.CodeBlocks[0].NodeID)
	require.True(t, strings.Contains(result.CodeBlocks[0].Content, "login"))
}

func TestBuildContextNoMatches(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	result, err := f.builder.Build(context.Background(), "quantum flux capacitor", DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, result.EntryPoints)
	require.Contains(t, result.Markdown(), "No relevant entities")
}
