// Package index orchestrates scan, read, extract, and store.
//
// Files are processed in scanner order, in batches: reads within a batch run
// concurrently, extraction and store writes stay sequential. Each file is
// one transaction. Cancellation is a cooperative probe between files and
// between batches; everything committed before it stays committed.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ravescovi/codegraph/internal/config"
	"github.com/ravescovi/codegraph/internal/extract"
	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/scan"
	"github.com/ravescovi/codegraph/internal/store"
)

// batchSize is the number of files whose reads are issued together.
const batchSize = 10

// Phase names reported through the progress callback.
const (
	PhaseScanning  = "scanning"
	PhaseParsing   = "parsing"
	PhaseStoring   = "storing"
	PhaseResolving = "resolving"
)

// ProgressFunc receives progress updates. currentFile is empty for
// phase-level updates.
type ProgressFunc func(phase string, current, total int, currentFile string)

// Result summarizes one indexing pass.
type Result struct {
	Success      bool
	FilesTotal   int
	FilesIndexed int
	FilesSkipped int
	NodesCreated int
	EdgesCreated int
	Errors       []error
	Duration     time.Duration
}

// Indexer drives the pipeline for one project.
type Indexer struct {
	store     *store.Store
	registry  *parser.Registry
	extractor *extract.Extractor
	scanner   *scan.Scanner
	root      string
	cfg       *config.Config
}

// New creates an indexer for a project root.
func New(s *store.Store, registry *parser.Registry, root string, cfg *config.Config) *Indexer {
	return &Indexer{
		store:     s,
		registry:  registry,
		extractor: extract.New(registry),
		scanner:   scan.New(root, cfg),
		root:      root,
		cfg:       cfg,
	}
}

// IndexAll scans the project and indexes every indexable file.
func (ix *Indexer) IndexAll(ctx context.Context, progress ProgressFunc) (*Result, error) {
	if progress != nil {
		progress(PhaseScanning, 0, 0, "")
	}
	paths, err := ix.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return ix.IndexFiles(ctx, paths, progress)
}

// IndexFiles indexes the given relative paths. Unsupported, oversized, and
// unchanged files are skipped; per-file failures are recorded and the pass
// continues.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string, progress ProgressFunc) (*Result, error) {
	start := time.Now()
	res := &Result{Success: true, FilesTotal: len(paths)}
	var indexedPaths []string

	for batchStart := 0; batchStart < len(paths); batchStart += batchSize {
		if ctx.Err() != nil {
			res.Success = false
			res.Duration = time.Since(start)
			return res, nil
		}

		end := batchStart + batchSize
		if end > len(paths) {
			end = len(paths)
		}
		batch := paths[batchStart:end]
		contents := ix.readBatch(ctx, batch, res)

		for i, rel := range batch {
			if ctx.Err() != nil {
				res.Success = false
				res.Duration = time.Since(start)
				return res, nil
			}
			if progress != nil {
				progress(PhaseParsing, batchStart+i+1, len(paths), rel)
			}

			content := contents[i]
			if content == nil {
				continue
			}
			indexed, err := ix.indexOne(ctx, rel, content, progress, batchStart+i+1, len(paths), res)
			if err != nil {
				res.Errors = append(res.Errors, err)
				indexErrors.Inc()
				log.WithError(err).WithField("file", rel).Warn("indexing failed")
				continue
			}
			if indexed {
				indexedPaths = append(indexedPaths, rel)
				res.FilesIndexed++
				filesIndexed.Inc()
			} else {
				res.FilesSkipped++
			}
		}
	}

	if progress != nil {
		progress(PhaseResolving, len(paths), len(paths), "")
	}
	if err := ix.Resolve(ctx, indexedPaths); err != nil {
		res.Errors = append(res.Errors, err)
	}

	res.Duration = time.Since(start)
	return res, nil
}

// readBatch reads a batch of files concurrently. Read failures are recorded
// as per-file errors and yield nil content.
func (ix *Indexer) readBatch(ctx context.Context, batch []string, res *Result) [][]byte {
	contents := make([][]byte, len(batch))
	readErrs := make([]error, len(batch))
	g, _ := errgroup.WithContext(ctx)
	for i, rel := range batch {
		g.Go(func() error {
			abs, err := ix.safePath(rel)
			if err != nil {
				readErrs[i] = err
				return nil
			}
			data, err := os.ReadFile(abs)
			if err != nil {
				readErrs[i] = &parser.FileError{Path: rel, Op: "read", Err: err}
				return nil
			}
			contents[i] = data
			return nil
		})
	}
	g.Wait()
	for _, err := range readErrs {
		if err != nil {
			res.Errors = append(res.Errors, err)
		}
	}
	return contents
}

// indexOne extracts and stores one file. Returns false when the file was
// skipped (unsupported language, oversized, or unchanged content).
func (ix *Indexer) indexOne(ctx context.Context, rel string, content []byte, progress ProgressFunc, current, total int, res *Result) (bool, error) {
	lang := parser.DetectLanguage(rel)
	if !ix.registry.IsSupported(lang) {
		return false, nil
	}
	if ix.cfg.MaxFileSize > 0 && int64(len(content)) > ix.cfg.MaxFileSize {
		log.WithField("file", rel).Warn("file exceeds max_file_size, skipping")
		return false, nil
	}

	hash := contentHash(content)
	existing, err := ix.store.GetFileByPath(rel)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.ContentHash == hash {
		return false, nil
	}

	extraction := ix.extractor.Extract(ctx, rel, content, lang)
	for _, e := range extraction.Errors {
		res.Errors = append(res.Errors, e)
		log.WithError(e).WithField("file", rel).Warn("extraction issue")
	}

	if progress != nil {
		progress(PhaseStoring, current, total, rel)
	}

	var errText string
	if len(extraction.Errors) > 0 {
		msgs := make([]string, len(extraction.Errors))
		for i, e := range extraction.Errors {
			msgs[i] = e.Error()
		}
		errText = strings.Join(msgs, "; ")
	}

	info, _ := os.Stat(filepath.Join(ix.root, rel))
	record := &store.FileRecord{
		Path:        rel,
		ContentHash: hash,
		Language:    string(lang),
		Size:        int64(len(content)),
		IndexedAt:   time.Now(),
		NodeCount:   len(extraction.Nodes),
		Errors:      errText,
	}
	if info != nil {
		record.ModifiedAt = info.ModTime()
	}

	err = ix.store.Transaction(func(tx *store.Tx) error {
		if existing != nil {
			if err := tx.DeleteFile(rel); err != nil {
				return err
			}
		}
		if err := tx.UpsertFile(record); err != nil {
			return err
		}
		if err := tx.InsertNodes(extraction.Nodes); err != nil {
			return err
		}
		if err := tx.InsertEdges(extraction.Edges); err != nil {
			return err
		}
		return tx.InsertUnresolvedRefs(extraction.Refs)
	})
	if err != nil {
		return false, err
	}

	res.NodesCreated += len(extraction.Nodes)
	res.EdgesCreated += len(extraction.Edges)
	nodesWritten.Add(float64(len(extraction.Nodes)))
	return true, nil
}

// safePath resolves a relative path against the project root and rejects
// results that escape it, lexically and through symlinks.
func (ix *Indexer) safePath(rel string) (string, error) {
	abs := filepath.Join(ix.root, filepath.FromSlash(rel))
	clean := filepath.Clean(abs)
	rootClean := filepath.Clean(ix.root)
	if clean != rootClean && !strings.HasPrefix(clean, rootClean+string(filepath.Separator)) {
		return "", &parser.FileError{Path: rel, Op: "resolve", Err: fmt.Errorf("path escapes project root")}
	}

	real, err := filepath.EvalSymlinks(clean)
	if err != nil {
		// A missing file surfaces as a read error later.
		return clean, nil
	}
	realRoot, err := filepath.EvalSymlinks(rootClean)
	if err != nil {
		return clean, nil
	}
	if real != realRoot && !strings.HasPrefix(real, realRoot+string(filepath.Separator)) {
		return "", &parser.FileError{Path: rel, Op: "resolve", Err: fmt.Errorf("symlink escapes project root")}
	}
	return clean, nil
}

// contentHash is the strong digest used for change detection.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ContentHash exposes the file digest to the sync engine.
func ContentHash(content []byte) string {
	return contentHash(content)
}
