package entity

// UploadSchemaRequest carries a schema file (.json/.yml/.yaml/.sql) into the
// schema usecase.
type UploadSchemaRequest struct {
	File FileData
}

// UploadSchemaResponse reports what the normalizer extracted.
type UploadSchemaResponse struct {
	Message           string   `json:"message"`
	Tables            []string `json:"tables"`
	SkippedStatements int      `json:"skipped_statements,omitempty"`
	Generation        uint64   `json:"generation"`
}

// SchemaTableSummary is one table in the summary view.
type SchemaTableSummary struct {
	Name       string `json:"name"`
	FieldCount int    `json:"field_count"`
}

// SchemaSummaryResponse describes the active schema corpus without invoking
// the generation capability.
type SchemaSummaryResponse struct {
	Tables        []SchemaTableSummary `json:"tables"`
	RelationCount int                  `json:"relation_count"`
	Generation    uint64               `json:"generation"`
}
