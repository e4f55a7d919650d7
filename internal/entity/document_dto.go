package entity

// UploadDocumentRequest carries a PDF upload into the document usecase.
type UploadDocumentRequest struct {
	File FileData
}

// UploadDocumentResponse reports what the ingestion produced.
type UploadDocumentResponse struct {
	Message    string `json:"message"`
	ChunkCount int    `json:"chunk_count"`
	Generation uint64 `json:"generation"`
}

// AskRequest is the question body shared by both modalities.
type AskRequest struct {
	Question string `json:"question"`
}

// SourceRef points at one supporting entry for provenance.
type SourceRef struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AskResponse is the answer plus the entries it was grounded on.
type AskResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}
