package store

import "time"

// NodeKind classifies a code entity in the graph.
type NodeKind string

// Node kinds. The set is closed; extraction rules map concrete syntax onto
// these and nothing else.
const (
	KindFile       NodeKind = "file"
	KindModule     NodeKind = "module"
	KindNamespace  NodeKind = "namespace"
	KindClass      NodeKind = "class"
	KindInterface  NodeKind = "interface"
	KindTrait      NodeKind = "trait"
	KindStruct     NodeKind = "struct"
	KindEnum       NodeKind = "enum"
	KindFunction   NodeKind = "function"
	KindMethod     NodeKind = "method"
	KindVariable   NodeKind = "variable"
	KindConstant   NodeKind = "constant"
	KindProperty   NodeKind = "property"
	KindField      NodeKind = "field"
	KindParameter  NodeKind = "parameter"
	KindTypeAlias  NodeKind = "type_alias"
	KindComponent  NodeKind = "component"
	KindRoute      NodeKind = "route"
	KindImport     NodeKind = "import"
	KindExport     NodeKind = "export"
	KindProtocol   NodeKind = "protocol"
	KindEnumMember NodeKind = "enum_member"
)

// EdgeKind classifies a relationship between nodes.
type EdgeKind string

// Edge kinds.
const (
	EdgeContains     EdgeKind = "contains"
	EdgeImports      EdgeKind = "imports"
	EdgeExports      EdgeKind = "exports"
	EdgeCalls        EdgeKind = "calls"
	EdgeExtends      EdgeKind = "extends"
	EdgeImplements   EdgeKind = "implements"
	EdgeReturnsType  EdgeKind = "returns_type"
	EdgeThrows       EdgeKind = "throws"
	EdgeReads        EdgeKind = "reads"
	EdgeWrites       EdgeKind = "writes"
	EdgeRenders      EdgeKind = "renders"
	EdgeInstantiates EdgeKind = "instantiates"
	EdgeDecorates    EdgeKind = "decorates"
	EdgeDependsOn    EdgeKind = "depends_on"
	EdgeReferences   EdgeKind = "references"
)

// Visibility levels.
const (
	VisibilityPublic    = "public"
	VisibilityPrivate   = "private"
	VisibilityProtected = "protected"
	VisibilityInternal  = "internal"
)

// Node is a code entity in the graph. The id is a pure function of
// (file_path, kind, name, start_line), so two indexing runs over identical
// content produce identical ids.
type Node struct {
	ID            string    `json:"id"`
	Kind          NodeKind  `json:"kind"`
	Name          string    `json:"name"`
	QualifiedName string    `json:"qualified_name"`
	FilePath      string    `json:"file_path"`
	Language      string    `json:"language"`
	StartLine     int       `json:"start_line"`
	EndLine       int       `json:"end_line"`
	StartColumn   int       `json:"start_column"`
	EndColumn     int       `json:"end_column"`
	Signature     string    `json:"signature,omitempty"`
	Docstring     string    `json:"docstring,omitempty"`
	CodeSnippet   string    `json:"code_snippet,omitempty"`
	CodeHash      string    `json:"code_hash,omitempty"`
	Metadata      string    `json:"metadata,omitempty"`
	Visibility    string    `json:"visibility,omitempty"`
	IsExported    bool      `json:"is_exported"`
	IsAsync       bool      `json:"is_async"`
	IsStatic      bool      `json:"is_static"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Edge is a directed, typed relationship. Resolved edges point at an
// existing node id; unresolved edges carry only the raw target name and may
// dangle.
type Edge struct {
	SourceID   string   `json:"source_id"`
	TargetID   string   `json:"target_id,omitempty"`
	Kind       EdgeKind `json:"kind"`
	Resolved   bool     `json:"resolved"`
	TargetName string   `json:"target_name,omitempty"`
	LineNumber int      `json:"line_number,omitempty"`
	Metadata   string   `json:"metadata,omitempty"`
}

// FileRecord tracks one indexed file.
type FileRecord struct {
	Path        string    `json:"path"`
	ContentHash string    `json:"content_hash"`
	Language    string    `json:"language"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modified_at"`
	IndexedAt   time.Time `json:"indexed_at"`
	NodeCount   int       `json:"node_count"`
	Errors      string    `json:"errors,omitempty"`
}

// UnresolvedRef is a pending edge whose target is a name, not an id. The
// file path and language are denormalized so a resolution pass can run
// without joining back through nodes.
type UnresolvedRef struct {
	FromNodeID    string   `json:"from_node_id"`
	ReferenceName string   `json:"reference_name"`
	ReferenceKind EdgeKind `json:"reference_kind"`
	Line          int      `json:"line"`
	Column        int      `json:"column"`
	FilePath      string   `json:"file_path"`
	Language      string   `json:"language"`
}

// SearchOptions controls SearchNodes.
type SearchOptions struct {
	// Kinds restricts results to the given node kinds; empty means all.
	Kinds []NodeKind
	// Language restricts results to one language.
	Language string
	// Limit caps the number of results (0 means the default of 50).
	Limit int
	// Prefix switches from full-text to prefix matching.
	Prefix bool
}
