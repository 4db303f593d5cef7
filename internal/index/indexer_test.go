package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravescovi/codegraph/internal/config"
	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

type fixture struct {
	root    string
	store   *store.Store
	indexer *Indexer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	s, err := store.Open(filepath.Join(root, config.DirName), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	registry := parser.NewRegistry(nil)
	t.Cleanup(registry.Close)

	return &fixture{
		root:    root,
		store:   s,
		indexer: New(s, registry, root, config.Default()),
	}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const authSource = `package auth

// Login authenticates a user.
func Login(email string) string {
	return generateToken(email)
}

func generateToken(email string) string {
	return "token-" + email
}
`

func TestIndexAll(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/auth.go", authSource)
	f.write(t, "src/notes.txt", "not code")

	var phases []string
	res, err := f.indexer.IndexAll(context.Background(), func(phase string, current, total int, file string) {
		phases = append(phases, phase)
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 1, res.FilesIndexed)
	require.Empty(t, res.Errors)
	require.Contains(t, phases, PhaseScanning)
	require.Contains(t, phases, PhaseParsing)
	require.Contains(t, phases, PhaseStoring)
	require.Contains(t, phases, PhaseResolving)

	rec, err := f.store.GetFileByPath("src/auth.go")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "go", rec.Language)
	require.Greater(t, rec.NodeCount, 0)

	nodes, err := f.store.GetNodesByName("Login")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}

func TestReindexUnchangedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/auth.go", authSource)

	_, err := f.indexer.IndexAll(context.Background(), nil)
	require.NoError(t, err)
	nodesBefore, err := f.store.CountNodes()
	require.NoError(t, err)
	edgesBefore, err := f.store.CountEdges()
	require.NoError(t, err)
	rec, err := f.store.GetFileByPath("src/auth.go")
	require.NoError(t, err)
	indexedAt := rec.IndexedAt

	res, err := f.indexer.IndexAll(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.FilesIndexed)
	require.Equal(t, 1, res.FilesSkipped)

	nodesAfter, _ := f.store.CountNodes()
	edgesAfter, _ := f.store.CountEdges()
	require.Equal(t, nodesBefore, nodesAfter)
	require.Equal(t, edgesBefore, edgesAfter)

	rec, _ = f.store.GetFileByPath("src/auth.go")
	require.Equal(t, indexedAt, rec.IndexedAt)
}

func TestReindexChangedContent(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/auth.go", authSource)
	_, err := f.indexer.IndexAll(context.Background(), nil)
	require.NoError(t, err)

	f.write(t, "src/auth.go", `package auth

func Goodbye() string { return "farewell" }
`)
	res, err := f.indexer.IndexAll(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesIndexed)

	old, err := f.store.GetNodesByName("Login")
	require.NoError(t, err)
	require.Empty(t, old)
	fresh, err := f.store.GetNodesByName("Goodbye")
	require.NoError(t, err)
	require.Len(t, fresh, 1)
}

func TestResolveLinksCalls(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/auth.go", authSource)
	_, err := f.indexer.IndexAll(context.Background(), nil)
	require.NoError(t, err)

	gen, err := f.store.GetNodesByName("generateToken")
	require.NoError(t, err)
	require.Len(t, gen, 1)

	inbound, err := f.store.GetEdgesTo(gen[0].ID)
	require.NoError(t, err)

	var callEdge *store.Edge
	for _, e := range inbound {
		if e.Kind == store.EdgeCalls {
			callEdge = e
		}
	}
	require.NotNil(t, callEdge, "expected a resolved calls edge into generateToken")
	require.True(t, callEdge.Resolved)

	login, err := f.store.GetNodesByName("Login")
	require.NoError(t, err)
	require.Equal(t, login[0].ID, callEdge.SourceID)
}

func TestIndexFilesRestriction(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/a.go", "package a\n\nfunc A() {}\n")
	f.write(t, "src/b.go", "package b\n\nfunc B() {}\n")

	res, err := f.indexer.IndexFiles(context.Background(), []string{"src/a.go"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesIndexed)

	a, _ := f.store.GetNodesByName("A")
	require.Len(t, a, 1)
	b, _ := f.store.GetNodesByName("B")
	require.Empty(t, b)
}

func TestOversizedFileSkippedWithWarning(t *testing.T) {
	f := newFixture(t)
	big := "package big\n//" + string(make([]byte, 4096)) + "\n"
	f.write(t, "src/big.go", big)

	cfg := config.Default()
	cfg.MaxFileSize = 1024
	registry := parser.NewRegistry(nil)
	t.Cleanup(registry.Close)
	ix := New(f.store, registry, f.root, cfg)

	res, err := ix.IndexFiles(context.Background(), []string{"src/big.go"}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.FilesIndexed)
	require.Empty(t, res.Errors)

	n, err := f.store.CountNodes()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestPathEscapeRejected(t *testing.T) {
	f := newFixture(t)
	res, err := f.indexer.IndexFiles(context.Background(), []string{"../outside.go"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Errors)
	require.Equal(t, 0, res.FilesIndexed)
}

func TestCancellationReturnsPartialResult(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a", "b", "c"} {
		f.write(t, "src/"+name+".go", "package "+name+"\n\nfunc F() {}\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.indexer.IndexAll(ctx, nil)
	if err != nil {
		// Cancellation during the scan phase surfaces as a context error.
		require.ErrorIs(t, err, context.Canceled)
		return
	}
	require.False(t, res.Success)
}
