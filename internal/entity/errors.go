package entity

import "errors"

// Domain errors
var (
	// Upload errors
	ErrUnsupportedFormat = errors.New("unsupported upload format")
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrInvalidExtension  = errors.New("invalid file extension")
	ErrEmptyDocument     = errors.New("document contains no extractable text")

	// Schema normalization errors
	ErrEmptySchema = errors.New("no table-like structures found in schema")

	// Retrieval errors
	ErrNoCorpus    = errors.New("no corpus uploaded for this modality")
	ErrInvalidTopK = errors.New("top-k must be positive")

	// External capability errors
	ErrEmbeddingUnavailable = errors.New("embedding capability unavailable")
	ErrGenerationFailed     = errors.New("answer generation failed")

	// Index invariant violations; should never occur
	ErrIndexCorrupted = errors.New("vector index corrupted")

	// Chunking errors
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorResponse is the JSON error body returned by the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
