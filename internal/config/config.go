// Package config loads the per-project JSON configuration from the
// .codegraph directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DirName is the hidden project directory holding the database and
	// configuration.
	DirName = ".codegraph"
	// FileName is the configuration file inside DirName.
	FileName = "config.json"
	// CurrentVersion is the configuration schema major version.
	CurrentVersion = 1
)

// ChunkStrategy controls how the embedding collaborator sees code.
type ChunkStrategy string

const (
	// ChunkAST embeds one chunk per extracted node.
	ChunkAST ChunkStrategy = "ast"
	// ChunkHybrid mixes node chunks with fixed-size windows.
	ChunkHybrid ChunkStrategy = "hybrid"
)

// Config holds the recognized project options.
type Config struct {
	Version        int           `json:"version"`
	Include        []string      `json:"include,omitempty"`
	Exclude        []string      `json:"exclude,omitempty"`
	Frameworks     []string      `json:"frameworks,omitempty"`
	EmbeddingModel string        `json:"embedding_model,omitempty"`
	ChunkStrategy  ChunkStrategy `json:"chunk_strategy,omitempty"`
	MaxFileSize    int64         `json:"max_file_size,omitempty"`
}

// ConfigError reports invalid configuration structure or values. It is
// always fatal to the current invocation.
type ConfigError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Include: []string{"**/*"},
		Exclude: []string{
			"**/node_modules/**",
			"**/vendor/**",
			"**/dist/**",
			"**/build/**",
			"**/target/**",
			"**/.git/**",
			"**/" + DirName + "/**",
		},
		ChunkStrategy: ChunkAST,
		MaxFileSize:   1024 * 1024,
	}
}

// Load reads the project configuration for root, merging with defaults. A
// missing file yields defaults; a malformed one is a ConfigError.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, DirName, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, &ConfigError{Path: path, Err: err}
	}

	loaded := &Config{}
	if err := json.Unmarshal(data, loaded); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	merged := Merge(loaded, Default())
	if err := Validate(merged); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return merged, nil
}

// Merge overlays loaded values onto defaults.
func Merge(loaded, defaults *Config) *Config {
	out := *defaults
	if loaded.Version != 0 {
		out.Version = loaded.Version
	}
	if len(loaded.Include) > 0 {
		out.Include = loaded.Include
	}
	if len(loaded.Exclude) > 0 {
		out.Exclude = loaded.Exclude
	}
	if len(loaded.Frameworks) > 0 {
		out.Frameworks = loaded.Frameworks
	}
	if loaded.EmbeddingModel != "" {
		out.EmbeddingModel = loaded.EmbeddingModel
	}
	if loaded.ChunkStrategy != "" {
		out.ChunkStrategy = loaded.ChunkStrategy
	}
	if loaded.MaxFileSize != 0 {
		out.MaxFileSize = loaded.MaxFileSize
	}
	return &out
}

// Validate checks option values. Globs must parse; the chunk strategy is a
// closed enum.
func Validate(c *Config) error {
	if c.Version > CurrentVersion {
		return fmt.Errorf("unsupported config version %d (this build understands up to %d)", c.Version, CurrentVersion)
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	switch c.ChunkStrategy {
	case ChunkAST, ChunkHybrid, "":
	default:
		return fmt.Errorf("unknown chunk_strategy %q", c.ChunkStrategy)
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must be non-negative")
	}
	return nil
}

// Save writes the configuration into root's .codegraph directory.
func Save(root string, c *Config) error {
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ConfigError{Path: dir, Err: err}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return &ConfigError{Err: err}
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

// InitLayout creates the project layout: the hidden directory, a default
// config, and a local ignore file so the database never gets committed.
func InitLayout(root string) error {
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ConfigError{Path: dir, Err: err}
	}

	configPath := filepath.Join(dir, FileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(root, Default()); err != nil {
			return err
		}
	}

	ignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
		content := "graph.db\ngraph.db-wal\ngraph.db-shm\ndb.lock\n"
		if err := os.WriteFile(ignorePath, []byte(content), 0o644); err != nil {
			return &ConfigError{Path: ignorePath, Err: err}
		}
	}
	return nil
}

// FindRoot walks up from startDir looking for a directory that contains
// DirName. Returns the project root, or "" when none exists.
func FindRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, DirName)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
