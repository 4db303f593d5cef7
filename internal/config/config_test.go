package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("version = %d", cfg.Version)
	}
	if cfg.MaxFileSize == 0 {
		t.Error("expected a default max_file_size")
	}
	if cfg.ChunkStrategy != ChunkAST {
		t.Errorf("chunk_strategy = %q", cfg.ChunkStrategy)
	}
}

func TestLoadMergesWithDefaults(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `{"version": 1, "include": ["src/**"], "embedding_model": "all-minilm"}`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Include) != 1 || cfg.Include[0] != "src/**" {
		t.Errorf("include = %v", cfg.Include)
	}
	if cfg.EmbeddingModel != "all-minilm" {
		t.Errorf("embedding_model = %q", cfg.EmbeddingModel)
	}
	// Unset fields keep their defaults.
	if len(cfg.Exclude) == 0 {
		t.Error("expected default excludes to survive the merge")
	}
}

func TestLoadMalformedIsConfigError(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(root)
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Errorf("expected ConfigError, got %T", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
	}{
		{"bad glob", func(c *Config) { c.Include = []string{"[unclosed"} }},
		{"bad strategy", func(c *Config) { c.ChunkStrategy = "semantic" }},
		{"negative size", func(c *Config) { c.MaxFileSize = -1 }},
		{"future version", func(c *Config) { c.Version = CurrentVersion + 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mod(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestInitLayout(t *testing.T) {
	root := t.TempDir()
	if err := InitLayout(root); err != nil {
		t.Fatalf("init layout: %v", err)
	}

	for _, rel := range []string{FileName, ".gitignore"} {
		if _, err := os.Stat(filepath.Join(root, DirName, rel)); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}

	// Idempotent: a second init keeps the existing config.
	if err := InitLayout(root); err != nil {
		t.Fatalf("second init: %v", err)
	}

	if found := FindRoot(filepath.Join(root)); found != root {
		t.Errorf("FindRoot = %q, want %q", found, root)
	}
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if found := FindRoot(nested); found != root {
		t.Errorf("FindRoot from nested = %q, want %q", found, root)
	}
}
