// Package scan enumerates the indexable files of a project.
//
// Under version control the file list comes from git, which inherits ignore
// rules at every level. Otherwise a filesystem walk applies the project's
// include/exclude globs, honors the in-tree ignore marker, and breaks
// symlink cycles.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/sirupsen/logrus"

	"github.com/ravescovi/codegraph/internal/config"
	"github.com/ravescovi/codegraph/internal/vcs"
)

// IgnoreMarker is the in-tree marker file: a directory containing it is
// skipped with its whole subtree.
const IgnoreMarker = ".codegraphignore"

// Scanner produces the set of indexable paths, relative to the project
// root.
type Scanner struct {
	root string
	cfg  *config.Config
	git  *vcs.Git
}

// New creates a scanner for a project root.
func New(root string, cfg *config.Config) *Scanner {
	return &Scanner{
		root: root,
		cfg:  cfg,
		git:  vcs.New(root),
	}
}

// Scan lists indexable files, sorted for deterministic processing order.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	var paths []string

	if s.git.IsRepository(ctx) {
		listed, err := s.git.ListFiles(ctx)
		if err == nil {
			paths = s.filter(listed)
			sort.Strings(paths)
			return paths, nil
		}
		log.WithError(err).Debug("git file listing failed, walking filesystem")
	}

	paths, err := s.walk(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// filter applies include/exclude globs and the size cap to a candidate
// list. Paths pointing at files that vanished are dropped silently.
func (s *Scanner) filter(candidates []string) []string {
	var out []string
	for _, rel := range candidates {
		rel = filepath.ToSlash(rel)
		if !s.matches(rel) {
			continue
		}
		info, err := os.Stat(filepath.Join(s.root, rel))
		if err != nil || info.IsDir() {
			continue
		}
		if s.tooLarge(rel, info.Size()) {
			continue
		}
		out = append(out, rel)
	}
	return out
}

// walk is the filesystem fallback: a depth-first traversal with symlink
// resolution and cycle detection on real directory paths.
func (s *Scanner) walk(ctx context.Context) ([]string, error) {
	visited := make(map[string]bool)
	var out []string

	var visit func(dir string) error
	visit = func(dir string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			log.WithError(err).WithField("dir", dir).Warn("skipping unreadable directory")
			return nil
		}
		if visited[real] {
			return nil
		}
		visited[real] = true

		if _, err := os.Stat(filepath.Join(dir, IgnoreMarker)); err == nil {
			return nil
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			log.WithError(err).WithField("dir", dir).Warn("skipping unreadable directory")
			return nil
		}

		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			rel, err := filepath.Rel(s.root, full)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			info, err := os.Stat(full)
			if err != nil {
				// Broken symlink or permission problem.
				log.WithError(err).WithField("path", rel).Warn("skipping unreadable entry")
				continue
			}

			if info.IsDir() {
				if s.excludedDir(rel) {
					continue
				}
				if err := visit(full); err != nil {
					return err
				}
				continue
			}

			if !s.matches(rel) {
				continue
			}
			if s.tooLarge(rel, info.Size()) {
				continue
			}
			out = append(out, rel)
		}
		return nil
	}

	if err := visit(s.root); err != nil {
		return nil, err
	}
	return out, nil
}

// matches applies exclude globs first, then include globs.
func (s *Scanner) matches(rel string) bool {
	for _, pattern := range s.cfg.Exclude {
		if globMatch(pattern, rel) {
			return false
		}
	}
	if len(s.cfg.Include) == 0 {
		return true
	}
	for _, pattern := range s.cfg.Include {
		if globMatch(pattern, rel) {
			return true
		}
	}
	return false
}

// excludedDir checks a directory against the exclude globs, both as the
// bare path and with a trailing separator so directory patterns match.
func (s *Scanner) excludedDir(rel string) bool {
	for _, pattern := range s.cfg.Exclude {
		if globMatch(pattern, rel) || globMatch(pattern, rel+"/") {
			return true
		}
	}
	return false
}

func (s *Scanner) tooLarge(rel string, size int64) bool {
	if s.cfg.MaxFileSize > 0 && size > s.cfg.MaxFileSize {
		log.WithFields(log.Fields{"path": rel, "size": size}).
			Warn("file exceeds max_file_size, skipping")
		return true
	}
	return false
}

// globMatch wraps doublestar matching; ** patterns also match at the top
// level (node_modules/** matches node_modules itself).
func globMatch(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	if err != nil {
		return false
	}
	if ok {
		return true
	}
	if strings.HasSuffix(pattern, "/**") {
		base := strings.TrimSuffix(pattern, "/**")
		if ok, _ := doublestar.Match(base, path); ok {
			return true
		}
	}
	return false
}
