package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testNode(id string, kind NodeKind, name, file string, line int) *Node {
	return &Node{
		ID:            id,
		Kind:          kind,
		Name:          name,
		QualifiedName: file + "::" + name,
		FilePath:      file,
		Language:      "go",
		StartLine:     line,
		EndLine:       line + 5,
		UpdatedAt:     time.Now(),
	}
}

func insertFileWithNodes(t *testing.T, s *Store, path string, nodes []*Node) {
	t.Helper()
	err := s.Transaction(func(tx *Tx) error {
		if err := tx.UpsertFile(&FileRecord{
			Path:        path,
			ContentHash: "hash-" + path,
			Language:    "go",
			IndexedAt:   time.Now(),
			NodeCount:   len(nodes),
		}); err != nil {
			return err
		}
		return tx.InsertNodes(nodes)
	})
	if err != nil {
		t.Fatalf("insert file %s: %v", path, err)
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, DBFileName)); err != nil {
		t.Errorf("expected database file: %v", err)
	}

	version, err := s.GetMeta("schema_version")
	if err != nil {
		t.Fatalf("get schema version: %v", err)
	}
	if version != "1" {
		t.Errorf("schema_version = %q, want 1", version)
	}
}

func TestLockConflict(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	_, err = Open(dir, Options{})
	var lockErr *LockHeldError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockHeldError, got %v", err)
	}
	if lockErr.PID != os.Getpid() {
		t.Errorf("lock PID = %d, want %d", lockErr.PID, os.Getpid())
	}
}

func TestStaleLockReclaimed(t *testing.T) {
	dir := t.TempDir()
	// A PID that cannot be alive: beyond the default pid_max.
	lockPath := filepath.Join(dir, LockFileName)
	if err := os.WriteFile(lockPath, []byte("99999999\n"), 0o644); err != nil {
		t.Fatalf("write stale lock: %v", err)
	}

	s, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("expected stale lock to be reclaimed: %v", err)
	}
	s.Close()
}

func TestReadOnlySkipsLock(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()

	r, err := Open(dir, Options{ReadOnly: true})
	if err != nil {
		t.Fatalf("expected reader to open alongside writer: %v", err)
	}
	r.Close()
}

func TestFileRoundTrip(t *testing.T) {
	s := testStore(t)

	rec := &FileRecord{
		Path:        "src/auth.go",
		ContentHash: "abc123",
		Language:    "go",
		Size:        1024,
		ModifiedAt:  time.Now().Add(-time.Hour),
		IndexedAt:   time.Now(),
		NodeCount:   3,
	}
	if err := s.UpsertFile(rec); err != nil {
		t.Fatalf("upsert file: %v", err)
	}

	got, err := s.GetFileByPath("src/auth.go")
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if got == nil {
		t.Fatal("expected file record")
	}
	if got.ContentHash != "abc123" || got.Language != "go" || got.Size != 1024 || got.NodeCount != 3 {
		t.Errorf("unexpected record: %+v", got)
	}

	// Upsert with a new hash replaces in place.
	rec.ContentHash = "def456"
	if err := s.UpsertFile(rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, _ = s.GetFileByPath("src/auth.go")
	if got.ContentHash != "def456" {
		t.Errorf("content_hash = %q, want def456", got.ContentHash)
	}

	missing, err := s.GetFileByPath("no/such/file.go")
	if err != nil {
		t.Fatalf("get missing file: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing file")
	}
}

func TestDeleteFileCascades(t *testing.T) {
	s := testStore(t)

	nodes := []*Node{
		testNode("function:aaaa", KindFunction, "hello", "src/a.go", 10),
		testNode("function:bbbb", KindFunction, "world", "src/a.go", 20),
	}
	insertFileWithNodes(t, s, "src/a.go", nodes)

	other := testNode("function:cccc", KindFunction, "other", "src/b.go", 5)
	insertFileWithNodes(t, s, "src/b.go", []*Node{other})

	edges := []*Edge{
		{SourceID: "function:aaaa", TargetID: "function:cccc", Kind: EdgeCalls, Resolved: true, LineNumber: 12},
		{SourceID: "function:cccc", TargetID: "function:aaaa", Kind: EdgeCalls, Resolved: true, LineNumber: 7},
	}
	if err := s.InsertEdges(edges); err != nil {
		t.Fatalf("insert edges: %v", err)
	}
	refs := []*UnresolvedRef{
		{FromNodeID: "function:aaaa", ReferenceName: "fmt.Println", ReferenceKind: EdgeCalls, Line: 11, FilePath: "src/a.go", Language: "go"},
	}
	if err := s.InsertUnresolvedRefs(refs); err != nil {
		t.Fatalf("insert refs: %v", err)
	}

	if err := s.DeleteFile("src/a.go"); err != nil {
		t.Fatalf("delete file: %v", err)
	}

	for _, id := range []string{"function:aaaa", "function:bbbb"} {
		n, err := s.GetNode(id)
		if err != nil {
			t.Fatalf("get node: %v", err)
		}
		if n != nil {
			t.Errorf("expected node %s to be cascaded away", id)
		}
	}

	// Outbound edges of deleted nodes are gone; the surviving node keeps its
	// own outbound edge even though it now dangles.
	out, err := s.GetEdgesFrom("function:aaaa")
	if err != nil {
		t.Fatalf("get edges: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no edges from deleted node, got %d", len(out))
	}
	out, _ = s.GetEdgesFrom("function:cccc")
	if len(out) != 1 {
		t.Errorf("expected surviving node to keep its edge, got %d", len(out))
	}

	gone, err := s.GetUnresolvedRefsByFile("src/a.go")
	if err != nil {
		t.Fatalf("get refs: %v", err)
	}
	if len(gone) != 0 {
		t.Errorf("expected refs to be cascaded away, got %d", len(gone))
	}
}

func TestEdgeUniqueness(t *testing.T) {
	s := testStore(t)
	insertFileWithNodes(t, s, "src/a.go", []*Node{
		testNode("function:aaaa", KindFunction, "hello", "src/a.go", 10),
		testNode("function:bbbb", KindFunction, "world", "src/a.go", 20),
	})

	edge := &Edge{SourceID: "function:aaaa", TargetID: "function:bbbb", Kind: EdgeCalls, Resolved: true, LineNumber: 12}
	if err := s.InsertEdges([]*Edge{edge, edge}); err != nil {
		t.Fatalf("insert duplicate edges: %v", err)
	}
	if err := s.InsertEdges([]*Edge{edge}); err != nil {
		t.Fatalf("re-insert edge: %v", err)
	}

	edges, err := s.GetEdgesFrom("function:aaaa")
	if err != nil {
		t.Fatalf("get edges: %v", err)
	}
	if len(edges) != 1 {
		t.Errorf("expected 1 edge after duplicate inserts, got %d", len(edges))
	}

	// Same pair on a different line is a distinct edge.
	edge2 := &Edge{SourceID: "function:aaaa", TargetID: "function:bbbb", Kind: EdgeCalls, Resolved: true, LineNumber: 14}
	if err := s.InsertEdges([]*Edge{edge2}); err != nil {
		t.Fatalf("insert edge on other line: %v", err)
	}
	edges, _ = s.GetEdgesFrom("function:aaaa")
	if len(edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(edges))
	}
}

func TestGetNodesByKindAndQualifiedName(t *testing.T) {
	s := testStore(t)
	insertFileWithNodes(t, s, "src/a.go", []*Node{
		testNode("function:aaaa", KindFunction, "hello", "src/a.go", 10),
		testNode("class:bbbb", KindClass, "AuthService", "src/a.go", 30),
	})

	funcs, err := s.GetNodesByKind(KindFunction)
	if err != nil {
		t.Fatalf("get by kind: %v", err)
	}
	if len(funcs) != 1 || funcs[0].Name != "hello" {
		t.Errorf("unexpected functions: %+v", funcs)
	}

	n, err := s.GetNodeByQualifiedName("src/a.go::AuthService")
	if err != nil {
		t.Fatalf("get by qualified name: %v", err)
	}
	if n == nil || n.Kind != KindClass {
		t.Errorf("unexpected node: %+v", n)
	}
}

func TestSearchNodes(t *testing.T) {
	s := testStore(t)
	insertFileWithNodes(t, s, "src/auth.go", []*Node{
		testNode("function:aaaa", KindFunction, "generate_token", "src/auth.go", 10),
		testNode("function:bbbb", KindFunction, "verify_password", "src/auth.go", 30),
		testNode("method:cccc", KindMethod, "login", "src/auth.go", 50),
	})

	hits, err := s.SearchNodes("generate_token", SearchOptions{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 || hits[0].Name != "generate_token" {
		t.Errorf("unexpected hits: %+v", hits)
	}

	// Prefix search.
	hits, err = s.SearchNodes("gener", SearchOptions{Prefix: true})
	if err != nil {
		t.Fatalf("prefix search: %v", err)
	}
	if len(hits) == 0 {
		t.Error("expected prefix hit")
	}

	// Kind filter excludes the method.
	hits, err = s.SearchNodes("login", SearchOptions{Kinds: []NodeKind{KindFunction}})
	if err != nil {
		t.Fatalf("filtered search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected kind filter to exclude method, got %+v", hits)
	}

	if _, err := s.SearchNodes("   ", SearchOptions{}); err == nil {
		t.Error("expected error for empty term")
	}
}

func TestTransactionRollsBack(t *testing.T) {
	s := testStore(t)

	sentinel := fmt.Errorf("boom")
	err := s.Transaction(func(tx *Tx) error {
		if err := tx.UpsertFile(&FileRecord{Path: "src/x.go", ContentHash: "h", IndexedAt: time.Now()}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	f, err := s.GetFileByPath("src/x.go")
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if f != nil {
		t.Error("expected rollback to discard the file record")
	}
}

func TestNamedBindTranslation(t *testing.T) {
	query := `INSERT INTO t (a, b) VALUES (:a, :b) ON CONFLICT DO UPDATE SET a = :a2`

	names := namedBindOrder(query)
	want := []string{"a", "b", "a2"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	translated := translateNamed(query)
	if translated != `INSERT INTO t (a, b) VALUES (?, ?) ON CONFLICT DO UPDATE SET a = ?` {
		t.Errorf("unexpected translation: %s", translated)
	}

	// Double colons and string literals are left alone.
	qn := `SELECT 'a::b', ':not_a_bind' FROM t WHERE q = :q`
	if got := translateNamed(qn); got != `SELECT 'a::b', ':not_a_bind' FROM t WHERE q = ?` {
		t.Errorf("unexpected translation: %s", got)
	}
	if got := namedBindOrder(qn); len(got) != 1 || got[0] != "q" {
		t.Errorf("unexpected names: %v", got)
	}
}

func TestCloseReleasesLock(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// The lock is gone, so a new writer can open immediately.
	s2, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	s2.Close()
}
