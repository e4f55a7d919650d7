package document

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/chunker"
	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/extract"
	"github.com/sgultrafix/trafix-rag-agent/internal/pkg/validator"
)

// DocumentUsecase implements document ingestion and question answering.
// Each upload replaces the whole document corpus with the new file's chunks.
type DocumentUsecase struct {
	chunker  *chunker.Chunker
	embedder Embedder
	corpus   Corpus
	answerer Answerer
	logger   *zap.Logger
}

// NewUsecase creates a new document use case
func NewUsecase(
	chunker *chunker.Chunker,
	embedder Embedder,
	corpus Corpus,
	answerer Answerer,
	logger *zap.Logger,
) *DocumentUsecase {
	return &DocumentUsecase{
		chunker:  chunker,
		embedder: embedder,
		corpus:   corpus,
		answerer: answerer,
		logger:   logger,
	}
}

// Upload extracts text from a PDF, chunks it, embeds the chunks and replaces
// the active document corpus.
func (uc *DocumentUsecase) Upload(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.UploadDocumentResponse, error) {
	text, err := extract.PDFText(req.File.Content)
	if err != nil {
		return nil, fmt.Errorf("extract text from %q: %w", req.File.Filename, err)
	}

	chunks := uc.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %q produced no chunks", entity.ErrEmptyDocument, req.File.Filename)
	}

	ctxzap.Info(ctx, "document chunked",
		zap.String("filename", req.File.Filename),
		zap.Int("text_chars", len(text)),
		zap.Int("chunk_count", len(chunks)),
	)

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	source := validator.SanitizeFilename(req.File.Filename)
	entries := make([]entity.EmbeddedEntry, len(chunks))
	for i, ch := range chunks {
		entries[i] = entity.EmbeddedEntry{
			ID:     uuid.New(),
			Vector: vectors[i],
			Text:   ch.Text,
			Metadata: map[string]string{
				entity.MetaSource:       source,
				entity.MetaKind:         entity.KindDocumentChunk,
				entity.MetaChunkIndex:   strconv.Itoa(ch.ChunkIndex),
				entity.MetaSourceOffset: strconv.Itoa(ch.SourceOffset),
			},
		}
	}

	generation, err := uc.corpus.Replace(ctx, entity.ModalityDocument, entries)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "document corpus replaced",
		zap.String("filename", req.File.Filename),
		zap.Uint64("generation", generation),
	)

	return &entity.UploadDocumentResponse{
		Message:    fmt.Sprintf("Document %q ingested successfully", source),
		ChunkCount: len(chunks),
		Generation: generation,
	}, nil
}

// Ask answers a question grounded in the active document corpus.
func (uc *DocumentUsecase) Ask(ctx context.Context, req *entity.AskRequest) (*entity.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question", entity.ErrMissingField)
	}

	answer, err := uc.answerer.Answer(ctx, question, entity.ModalityDocument)
	if err != nil {
		return nil, err
	}

	return toAskResponse(answer), nil
}

func toAskResponse(answer *entity.Answer) *entity.AskResponse {
	sources := make([]entity.SourceRef, len(answer.Supporting))
	for i, e := range answer.Supporting {
		sources[i] = entity.SourceRef{
			ID:       e.ID.String(),
			Text:     e.Text,
			Metadata: e.Metadata,
		}
	}
	return &entity.AskResponse{
		Answer:  answer.Text,
		Sources: sources,
	}
}
