package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravescovi/codegraph/internal/config"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanWalkBasic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "src/util/helper.go", "package util")
	writeFile(t, root, "README.md", "# readme")

	s := New(root, config.Default())
	paths, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Contains(t, paths, "src/main.go")
	require.Contains(t, paths, "src/util/helper.go")
	require.Contains(t, paths, "README.md")
}

func TestScanExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "node_modules/lib/index.js", "module.exports = {}")
	writeFile(t, root, "dist/bundle.js", "bundled")

	s := New(root, config.Default())
	paths, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Contains(t, paths, "src/main.go")
	require.NotContains(t, paths, "node_modules/lib/index.js")
	require.NotContains(t, paths, "dist/bundle.js")
}

func TestScanIncludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "src/app.ts", "export {}")

	cfg := config.Default()
	cfg.Include = []string{"**/*.go"}
	s := New(root, cfg)
	paths, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Contains(t, paths, "src/main.go")
	require.NotContains(t, paths, "src/app.ts")
}

func TestScanIgnoreMarker(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "generated/"+IgnoreMarker, "")
	writeFile(t, root, "generated/out.go", "package generated")
	writeFile(t, root, "generated/deep/more.go", "package more")

	s := New(root, config.Default())
	paths, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Contains(t, paths, "src/main.go")
	require.NotContains(t, paths, "generated/out.go")
	require.NotContains(t, paths, "generated/deep/more.go")
}

func TestScanMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.go", "package main")
	big := make([]byte, 2048)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.go"), big, 0o644))

	cfg := config.Default()
	cfg.MaxFileSize = 1024
	s := New(root, cfg)
	paths, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Contains(t, paths, "small.go")
	require.NotContains(t, paths, "big.go")
}

func TestScanSymlinkCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	// A symlink pointing back up creates a cycle; the visited set breaks it.
	err := os.Symlink(root, filepath.Join(root, "src", "loop"))
	if err != nil {
		t.Skip("symlinks unavailable")
	}

	s := New(root, config.Default())
	paths, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Contains(t, paths, "src/main.go")
}

func TestScanDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", "package b")
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "c.go", "package c")

	s := New(root, config.Default())
	first, err := s.Scan(context.Background())
	require.NoError(t, err)
	second, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
}
