package store

// schemaVersion is the current schema version, stored in meta under
// "schema_version". Migrations run for every version above the stored one.
const schemaVersion = 1

// schemaSQL defines the graph schema. Cascades implement the lifecycle
// rules: deleting a file record deletes its nodes, and deleting a node
// deletes its outbound edges and pending references.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
    path TEXT PRIMARY KEY,
    content_hash TEXT NOT NULL,
    language TEXT NOT NULL DEFAULT '',
    size INTEGER NOT NULL DEFAULT 0,
    modified_at TEXT,
    indexed_at TEXT NOT NULL,
    node_count INTEGER NOT NULL DEFAULT 0,
    errors TEXT
);

CREATE TABLE IF NOT EXISTS nodes (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    qualified_name TEXT NOT NULL,
    file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
    language TEXT NOT NULL DEFAULT '',
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    start_column INTEGER NOT NULL DEFAULT 0,
    end_column INTEGER NOT NULL DEFAULT 0,
    signature TEXT,
    docstring TEXT,
    code_snippet TEXT,
    code_hash TEXT,
    metadata TEXT,
    visibility TEXT,
    is_exported INTEGER NOT NULL DEFAULT 0,
    is_async INTEGER NOT NULL DEFAULT 0,
    is_static INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS edges (
    source_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    target_id TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL,
    resolved INTEGER NOT NULL DEFAULT 0,
    target_name TEXT,
    line_number INTEGER NOT NULL DEFAULT 0,
    metadata TEXT,
    PRIMARY KEY (source_id, target_id, kind, line_number)
);

CREATE TABLE IF NOT EXISTS unresolved_refs (
    from_node_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    reference_name TEXT NOT NULL,
    reference_kind TEXT NOT NULL,
    line INTEGER NOT NULL DEFAULT 0,
    "column" INTEGER NOT NULL DEFAULT 0,
    file_path TEXT NOT NULL,
    language TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file_path);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_language ON nodes(language);
CREATE INDEX IF NOT EXISTS idx_nodes_qualified ON nodes(qualified_name);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
CREATE INDEX IF NOT EXISTS idx_edges_kind ON edges(kind);
CREATE INDEX IF NOT EXISTS idx_edges_resolved ON edges(resolved);
CREATE INDEX IF NOT EXISTS idx_refs_from ON unresolved_refs(from_node_id);
CREATE INDEX IF NOT EXISTS idx_refs_name ON unresolved_refs(reference_name);
CREATE INDEX IF NOT EXISTS idx_refs_file ON unresolved_refs(file_path);

CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
    name,
    qualified_name,
    docstring,
    file_path,
    content='nodes',
    content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS nodes_fts_ai AFTER INSERT ON nodes BEGIN
    INSERT INTO nodes_fts(rowid, name, qualified_name, docstring, file_path)
    VALUES (new.rowid, new.name, new.qualified_name, new.docstring, new.file_path);
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_ad AFTER DELETE ON nodes BEGIN
    INSERT INTO nodes_fts(nodes_fts, rowid, name, qualified_name, docstring, file_path)
    VALUES ('delete', old.rowid, old.name, old.qualified_name, old.docstring, old.file_path);
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_au AFTER UPDATE ON nodes BEGIN
    INSERT INTO nodes_fts(nodes_fts, rowid, name, qualified_name, docstring, file_path)
    VALUES ('delete', old.rowid, old.name, old.qualified_name, old.docstring, old.file_path);
    INSERT INTO nodes_fts(rowid, name, qualified_name, docstring, file_path)
    VALUES (new.rowid, new.name, new.qualified_name, new.docstring, new.file_path);
END;
`

// initSchema creates tables on first open and applies migrations when the
// stored schema version is behind.
func (s *Store) initSchema() error {
	if _, err := s.db.Exec(s.backend.Rewrite(schemaSQL)); err != nil {
		return &DatabaseError{Op: "init schema", Err: err}
	}

	stored, err := s.GetMeta("schema_version")
	if err != nil {
		return err
	}
	current := 0
	if stored != "" {
		current = atoiOrZero(stored)
	}

	for v := current + 1; v <= schemaVersion; v++ {
		if migrate, ok := migrations[v]; ok {
			if err := migrate(s); err != nil {
				return &DatabaseError{Op: "migrate schema", Err: err}
			}
		}
		if err := s.SetMeta("schema_version", itoa(v)); err != nil {
			return err
		}
	}
	return nil
}

// migrations holds schema upgrades keyed by target version. Version 1 is the
// initial schema and needs no migration beyond schemaSQL.
var migrations = map[int]func(*Store) error{}
