package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravescovi/codegraph/internal/config"
	"github.com/ravescovi/codegraph/internal/index"
	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

type fixture struct {
	root   string
	store  *store.Store
	syncer *Syncer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	s, err := store.Open(filepath.Join(root, config.DirName), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	registry := parser.NewRegistry(nil)
	t.Cleanup(registry.Close)

	cfg := config.Default()
	ix := index.New(s, registry, root, cfg)
	return &fixture{
		root:   root,
		store:  s,
		syncer: New(s, ix, root, cfg),
	}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) remove(t *testing.T, rel string) {
	t.Helper()
	require.NoError(t, os.Remove(filepath.Join(f.root, rel)))
}

func (f *fixture) indexAll(t *testing.T) {
	t.Helper()
	res, err := f.syncer.indexer.IndexAll(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.Success)
}

func (f *fixture) search(t *testing.T, term string) []*store.Node {
	t.Helper()
	nodes, err := f.store.SearchNodes(term, store.SearchOptions{})
	require.NoError(t, err)
	return nodes
}

func TestSyncAfterIndexIsClean(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/hello.ts", "export function hello() { return 'world' }\n")
	f.indexAll(t)

	res, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	require.Zero(t, res.FilesAdded)
	require.Zero(t, res.FilesModified)
	require.Zero(t, res.FilesRemoved)
}

func TestSyncDetectsAddedFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/hello.ts", "export function hello() { return 'world' }\n")
	f.indexAll(t)

	f.write(t, "src/new.ts", "export function new_func() { return 1 }\n")

	changes, err := f.syncer.GetChangedFiles(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"src/new.ts"}, changes.Added)

	res, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesAdded)
	require.Contains(t, res.ChangedPaths, "src/new.ts")

	require.NotEmpty(t, f.search(t, "new_func"))
}

func TestSyncDetectsModifiedFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/greet.ts", "export function hello() { return 'world' }\n")
	f.indexAll(t)

	f.write(t, "src/greet.ts", "export function goodbye() { return 'farewell' }\n")

	res, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesModified)

	require.Empty(t, f.search(t, "hello"))
	require.NotEmpty(t, f.search(t, "goodbye"))
}

func TestSyncDetectsDeletedFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/hello.ts", "export function hello() { return 'world' }\n")
	f.indexAll(t)

	f.remove(t, "src/hello.ts")

	res, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesRemoved)

	require.Empty(t, f.search(t, "hello"))
	rec, err := f.store.GetFileByPath("src/hello.ts")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestSyncInvariantStoreMatchesDisk(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/a.go", "package a\n\nfunc A() {}\n")
	f.write(t, "src/b.go", "package b\n\nfunc B() {}\n")
	f.indexAll(t)

	f.remove(t, "src/a.go")
	f.write(t, "src/b.go", "package b\n\nfunc B2() {}\n")
	f.write(t, "src/c.go", "package c\n\nfunc C() {}\n")

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	records, err := f.store.GetAllFiles()
	require.NoError(t, err)
	for _, r := range records {
		_, statErr := os.Stat(filepath.Join(f.root, r.Path))
		require.NoError(t, statErr, "record %s has no file on disk", r.Path)

		data, readErr := os.ReadFile(filepath.Join(f.root, r.Path))
		require.NoError(t, readErr)
		require.Equal(t, index.ContentHash(data), r.ContentHash, "stale hash for %s", r.Path)
	}
}

func TestSyncTouchWithoutChangeIsNoop(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/a.go", "package a\n\nfunc A() {}\n")
	f.indexAll(t)

	// Rewrite identical content; only the mtime moves.
	f.write(t, "src/a.go", "package a\n\nfunc A() {}\n")

	res, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	require.Zero(t, res.FilesModified)
}
