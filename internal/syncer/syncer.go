// Package syncer reconciles the graph store with the filesystem.
//
// Change detection prefers the version-control status fast path and falls
// back to a full scan diff against the file records. Stale subgraphs are
// removed by deleting their file records; the cascades do the rest.
package syncer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ravescovi/codegraph/internal/config"
	"github.com/ravescovi/codegraph/internal/index"
	"github.com/ravescovi/codegraph/internal/scan"
	"github.com/ravescovi/codegraph/internal/store"
	"github.com/ravescovi/codegraph/internal/vcs"
)

// Changes is the detected filesystem divergence from the indexed state.
type Changes struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// Result summarizes one sync pass.
type Result struct {
	FilesChecked  int           `json:"files_checked"`
	FilesAdded    int           `json:"files_added"`
	FilesModified int           `json:"files_modified"`
	FilesRemoved  int           `json:"files_removed"`
	NodesUpdated  int           `json:"nodes_updated"`
	Duration      time.Duration `json:"duration"`
	ChangedPaths  []string      `json:"changed_paths,omitempty"`
}

// Syncer drives incremental re-indexing.
type Syncer struct {
	store   *store.Store
	indexer *index.Indexer
	scanner *scan.Scanner
	git     *vcs.Git
	root    string
}

// New creates a syncer for a project root.
func New(s *store.Store, ix *index.Indexer, root string, cfg *config.Config) *Syncer {
	return &Syncer{
		store:   s,
		indexer: ix,
		scanner: scan.New(root, cfg),
		git:     vcs.New(root),
		root:    root,
	}
}

// GetChangedFiles detects added, modified, and deleted files without
// touching the store's contents.
func (s *Syncer) GetChangedFiles(ctx context.Context) (*Changes, error) {
	if s.git.IsRepository(ctx) {
		changes, err := s.changesFromStatus(ctx)
		if err == nil {
			return changes, nil
		}
		log.WithError(err).Debug("git status failed, falling back to full scan")
	}
	return s.changesFromScan(ctx)
}

// changesFromStatus parses porcelain status into the three sets. Modified
// candidates are confirmed against the stored content hash so touch-only
// changes do not trigger re-indexing.
func (s *Syncer) changesFromStatus(ctx context.Context) (*Changes, error) {
	entries, err := s.git.StatusPorcelain(ctx)
	if err != nil {
		return nil, err
	}

	changes := &Changes{}
	for _, entry := range entries {
		rel := filepath.ToSlash(entry.Path)
		switch {
		case statusDeleted(entry.Code):
			record, err := s.store.GetFileByPath(rel)
			if err != nil {
				return nil, err
			}
			if record != nil {
				changes.Deleted = append(changes.Deleted, rel)
			}
		default:
			kind, err := s.classifyVisible(rel)
			if err != nil {
				return nil, err
			}
			switch kind {
			case changeAdded:
				changes.Added = append(changes.Added, rel)
			case changeModified:
				changes.Modified = append(changes.Modified, rel)
			}
		}
	}
	sortChanges(changes)
	return changes, nil
}

// changesFromScan diffs the scanner's view of the tree against the file
// records.
func (s *Syncer) changesFromScan(ctx context.Context) (*Changes, error) {
	paths, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]bool, len(paths))
	for _, p := range paths {
		onDisk[p] = true
	}

	records, err := s.store.GetAllFiles()
	if err != nil {
		return nil, err
	}
	indexed := make(map[string]*store.FileRecord, len(records))
	for _, r := range records {
		indexed[r.Path] = r
	}

	changes := &Changes{}
	for _, rel := range paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		record := indexed[rel]
		if record == nil {
			changes.Added = append(changes.Added, rel)
			continue
		}
		hash, err := s.hashFile(rel)
		if err != nil {
			log.WithError(err).WithField("file", rel).Warn("hashing failed during sync")
			continue
		}
		if hash != record.ContentHash {
			changes.Modified = append(changes.Modified, rel)
		}
	}
	for _, r := range records {
		if !onDisk[r.Path] {
			changes.Deleted = append(changes.Deleted, r.Path)
		}
	}
	sortChanges(changes)
	return changes, nil
}

// Sync applies the detected changes: removals delete cascading subgraphs,
// additions and modifications re-index. After it returns, every indexable
// file on disk has a matching record and every record a file on disk.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	start := time.Now()
	changes, err := s.GetChangedFiles(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		FilesAdded:    len(changes.Added),
		FilesModified: len(changes.Modified),
		FilesRemoved:  len(changes.Deleted),
	}

	for _, rel := range changes.Deleted {
		if err := s.store.DeleteFile(rel); err != nil {
			return nil, err
		}
		res.ChangedPaths = append(res.ChangedPaths, rel)
	}

	toIndex := append(append([]string{}, changes.Added...), changes.Modified...)
	sort.Strings(toIndex)
	if len(toIndex) > 0 {
		indexRes, err := s.indexer.IndexFiles(ctx, toIndex, nil)
		if err != nil {
			return nil, err
		}
		res.NodesUpdated = indexRes.NodesCreated
		res.ChangedPaths = append(res.ChangedPaths, toIndex...)
	}

	total, err := s.store.CountFiles()
	if err != nil {
		return nil, err
	}
	res.FilesChecked = total + res.FilesRemoved
	res.Duration = time.Since(start)
	syncRuns.Inc()
	return res, nil
}

type changeKind int

const (
	changeNone changeKind = iota
	changeAdded
	changeModified
)

// classifyVisible decides whether a visible (non-deleted) status entry is
// new, modified, or unchanged relative to the store.
func (s *Syncer) classifyVisible(rel string) (changeKind, error) {
	record, err := s.store.GetFileByPath(rel)
	if err != nil {
		return changeNone, err
	}
	if record == nil {
		if _, err := os.Stat(filepath.Join(s.root, rel)); err != nil {
			return changeNone, nil
		}
		return changeAdded, nil
	}
	hash, err := s.hashFile(rel)
	if err != nil {
		return changeNone, nil
	}
	if hash != record.ContentHash {
		return changeModified, nil
	}
	return changeNone, nil
}

func (s *Syncer) hashFile(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		return "", err
	}
	return index.ContentHash(data), nil
}

// statusDeleted reports whether a porcelain XY code means the work tree
// lost the file.
func statusDeleted(code string) bool {
	return len(code) == 2 && (code[0] == 'D' || code[1] == 'D')
}

func sortChanges(c *Changes) {
	sort.Strings(c.Added)
	sort.Strings(c.Modified)
	sort.Strings(c.Deleted)
}
