package entity

import "github.com/google/uuid"

// Modality identifies which corpus an upload or a question targets.
type Modality string

const (
	ModalityDocument Modality = "document"
	ModalitySchema   Modality = "schema"
)

func (m Modality) Valid() bool {
	return m == ModalityDocument || m == ModalitySchema
}

// DocumentChunk is a window of extracted text. Immutable once created and
// belongs to exactly one upload generation.
type DocumentChunk struct {
	Text         string
	SourceOffset int
	ChunkIndex   int
}

// SchemaField is a normalized column description. Type and Nullable stay
// empty/nil when the source structure does not provide them.
type SchemaField struct {
	Name       string
	Type       string
	Nullable   *bool
	PrimaryKey bool
}

// SchemaRelationship is a foreign-key-like link discovered during
// normalization. Resolved is false when the target table is not present in the
// same document; such links are kept so answers can still mention them.
type SchemaRelationship struct {
	TargetTable string
	ViaField    string
	Resolved    bool
}

// SchemaTable is an extracted table. It may be partial if the source
// structure was ambiguous.
type SchemaTable struct {
	Name          string
	Fields        []SchemaField
	Relationships []SchemaRelationship
}

// SchemaDocument is the normalizer output: the ordered table list plus where
// in the uploaded structure it was found and, for SQL input, how many
// statements were skipped.
type SchemaDocument struct {
	Tables            []SchemaTable
	RootPath          string
	SkippedStatements int
}

// EmbeddedEntry is a vectorized piece of text stored in the index.
type EmbeddedEntry struct {
	ID       uuid.UUID
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// Metadata keys attached to embedded entries.
const (
	MetaSource        = "source"
	MetaKind          = "kind"
	MetaTableName     = "table_name"
	MetaFieldCount    = "field_count"
	MetaRelationCount = "relation_count"
	MetaChunkIndex    = "chunk_index"
	MetaSourceOffset  = "source_offset"
)

// Entry kinds stored under MetaKind.
const (
	KindDocumentChunk  = "document_chunk"
	KindSchemaTable    = "schema_table"
	KindSchemaRelation = "schema_relationships"
)

// CorpusInfo describes the active generation of one modality.
type CorpusInfo struct {
	Modality   Modality
	Generation uint64
	EntryCount int
}

// Answer is the QA orchestrator result: generated text plus the entries whose
// text actually made it into the grounding context.
type Answer struct {
	Text       string
	Supporting []EmbeddedEntry
}

// FileData is an uploaded file read into memory.
type FileData struct {
	Filename string
	Content  []byte
}
