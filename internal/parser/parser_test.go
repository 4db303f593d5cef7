package parser

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", Go},
		{"src/app.ts", TypeScript},
		{"src/app.tsx", TypeScript},
		{"lib/util.js", JavaScript},
		{"scripts/build.py", Python},
		{"src/lib.rs", Rust},
		{"Main.java", Java},
		{"Program.cs", CSharp},
		{"kernel.c", C},
		{"engine.cpp", Cpp},
		{"index.php", PHP},
		{"App.kt", Kotlin},
		{"model.rb", Ruby},
		{"App.vue", Vue},
		{"README.md", Unknown},
		{"Makefile", Unknown},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRegistrySupported(t *testing.T) {
	r := NewRegistry(nil)
	defer r.Close()

	for _, lang := range []Language{Go, TypeScript, Python, Rust, Vue} {
		if !r.IsSupported(lang) {
			t.Errorf("expected %s to be supported", lang)
		}
	}
	if r.IsSupported(Unknown) {
		t.Error("expected Unknown to be unsupported")
	}
	if r.IsSupported(Language("cobol")) {
		t.Error("expected cobol to be unsupported")
	}
}

func TestRegistryVueHasNoTreeParser(t *testing.T) {
	r := NewRegistry(nil)
	defer r.Close()

	p, err := r.GetParser(Vue)
	if err != nil {
		t.Fatalf("GetParser(Vue): %v", err)
	}
	if p != nil {
		t.Error("expected nil parser for regex-based Vue")
	}
	if !r.IsAvailable(Vue) {
		t.Error("expected Vue to be available without a tree parser")
	}
}

func TestRegistryCachesParser(t *testing.T) {
	r := NewRegistry(nil)
	defer r.Close()

	p1, err := r.GetParser(Go)
	if err != nil {
		t.Fatalf("GetParser(Go): %v", err)
	}
	if p1 == nil {
		t.Skip("go grammar unavailable on host")
	}
	p2, err := r.GetParser(Go)
	if err != nil {
		t.Fatalf("GetParser(Go) second call: %v", err)
	}
	if p1 != p2 {
		t.Error("expected cached parser instance on second lookup")
	}
}

func TestParseGoSource(t *testing.T) {
	r := NewRegistry(nil)
	defer r.Close()

	p, err := r.GetParser(Go)
	if err != nil {
		t.Fatalf("GetParser(Go): %v", err)
	}
	if p == nil {
		t.Skip("go grammar unavailable on host")
	}

	src := []byte("package main\n\nfunc hello() string { return \"world\" }\n")
	result, err := p.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer result.Close()

	if result.Root == nil {
		t.Fatal("expected a root node")
	}
	if result.HasErrors() {
		t.Error("expected no syntax errors")
	}
	if result.Root.Type() != "source_file" {
		t.Errorf("root type = %q, want source_file", result.Root.Type())
	}
}
