package store

import (
	"database/sql"
	"time"
)

const upsertFileSQL = `
	INSERT INTO files (path, content_hash, language, size, modified_at, indexed_at, node_count, errors)
	VALUES (:path, :content_hash, :language, :size, :modified_at, :indexed_at, :node_count, :errors)
	ON CONFLICT(path) DO UPDATE SET
		content_hash = excluded.content_hash,
		language = excluded.language,
		size = excluded.size,
		modified_at = excluded.modified_at,
		indexed_at = excluded.indexed_at,
		node_count = excluded.node_count,
		errors = excluded.errors`

// UpsertFile inserts or replaces a file record.
func (s *Store) UpsertFile(f *FileRecord) error {
	return s.execNamed("upsert file", upsertFileSQL, fileArgs(f))
}

// UpsertFile inserts or replaces a file record inside the transaction.
func (t *Tx) UpsertFile(f *FileRecord) error {
	query := t.backend.Rewrite(upsertFileSQL)
	args := t.backend.RewriteArgs(upsertFileSQL, fileArgs(f))
	if _, err := t.tx.Exec(query, args...); err != nil {
		return &DatabaseError{Op: "upsert file", Err: err}
	}
	return nil
}

func fileArgs(f *FileRecord) map[string]any {
	indexedAt := f.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}
	return map[string]any{
		"path":         f.Path,
		"content_hash": f.ContentHash,
		"language":     f.Language,
		"size":         f.Size,
		"modified_at":  timeString(f.ModifiedAt),
		"indexed_at":   timeString(indexedAt),
		"node_count":   f.NodeCount,
		"errors":       f.Errors,
	}
}

// DeleteFile removes a file record. Cascades delete the file's nodes, their
// outbound edges, and their pending references.
func (s *Store) DeleteFile(path string) error {
	return s.Transaction(func(tx *Tx) error {
		return tx.DeleteFile(path)
	})
}

// DeleteFile removes a file record inside the transaction.
func (t *Tx) DeleteFile(path string) error {
	if _, err := t.tx.Exec(t.backend.Rewrite(`DELETE FROM files WHERE path = ?`), path); err != nil {
		return &DatabaseError{Op: "delete file", Err: err}
	}
	return nil
}

// GetFileByPath fetches one file record; missing files return (nil, nil).
func (s *Store) GetFileByPath(path string) (*FileRecord, error) {
	row := s.db.QueryRow(s.backend.Rewrite(`
		SELECT path, content_hash, language, size, modified_at, indexed_at, node_count, errors
		FROM files WHERE path = ?`), path)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &DatabaseError{Op: "get file", Err: err}
	}
	return f, nil
}

// GetAllFiles returns every file record, ordered by path.
func (s *Store) GetAllFiles() ([]*FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT path, content_hash, language, size, modified_at, indexed_at, node_count, errors
		FROM files ORDER BY path`)
	if err != nil {
		return nil, &DatabaseError{Op: "get all files", Err: err}
	}
	defer rows.Close()

	var files []*FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, &DatabaseError{Op: "scan file", Err: err}
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// CountFiles returns the number of indexed files.
func (s *Store) CountFiles() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, &DatabaseError{Op: "count files", Err: err}
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*FileRecord, error) {
	var f FileRecord
	var modifiedAt, indexedAt string
	var errors sql.NullString
	err := row.Scan(&f.Path, &f.ContentHash, &f.Language, &f.Size, &modifiedAt, &indexedAt, &f.NodeCount, &errors)
	if err != nil {
		return nil, err
	}
	f.ModifiedAt = parseTime(modifiedAt)
	f.IndexedAt = parseTime(indexedAt)
	f.Errors = errors.String
	return &f, nil
}
