package schema

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/pkg/validator"
	schemapkg "github.com/sgultrafix/trafix-rag-agent/internal/schema"
)

// SchemaUsecase implements schema ingestion, question answering and the
// summary view. Each upload replaces the whole schema corpus.
type SchemaUsecase struct {
	normalizer *schemapkg.Normalizer
	embedder   Embedder
	corpus     Corpus
	answerer   Answerer
	logger     *zap.Logger
}

// NewUsecase creates a new schema use case
func NewUsecase(
	normalizer *schemapkg.Normalizer,
	embedder Embedder,
	corpus Corpus,
	answerer Answerer,
	logger *zap.Logger,
) *SchemaUsecase {
	return &SchemaUsecase{
		normalizer: normalizer,
		embedder:   embedder,
		corpus:     corpus,
		answerer:   answerer,
		logger:     logger,
	}
}

// Upload normalizes a schema file into tables, serializes each table into a
// text blob, embeds the blobs and replaces the active schema corpus.
func (uc *SchemaUsecase) Upload(ctx context.Context, req *entity.UploadSchemaRequest) (*entity.UploadSchemaResponse, error) {
	format, err := schemapkg.DetectFormat(req.File.Filename)
	if err != nil {
		return nil, err
	}

	doc, err := uc.normalizer.Normalize(req.File.Content, format)
	if err != nil {
		return nil, fmt.Errorf("normalize %q: %w", req.File.Filename, err)
	}

	ctxzap.Info(ctx, "schema normalized",
		zap.String("filename", req.File.Filename),
		zap.String("format", string(format)),
		zap.String("root_path", doc.RootPath),
		zap.Int("table_count", len(doc.Tables)),
		zap.Int("skipped_statements", doc.SkippedStatements),
	)

	serialized := schemapkg.Serialize(doc)

	texts := make([]string, len(serialized))
	for i, s := range serialized {
		texts[i] = s.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed schema tables: %w", err)
	}

	source := validator.SanitizeFilename(req.File.Filename)
	entries := make([]entity.EmbeddedEntry, len(serialized))
	for i, s := range serialized {
		metadata := make(map[string]string, len(s.Metadata)+1)
		for k, v := range s.Metadata {
			metadata[k] = v
		}
		metadata[entity.MetaSource] = source

		entries[i] = entity.EmbeddedEntry{
			ID:       uuid.New(),
			Vector:   vectors[i],
			Text:     s.Text,
			Metadata: metadata,
		}
	}

	generation, err := uc.corpus.Replace(ctx, entity.ModalitySchema, entries)
	if err != nil {
		return nil, err
	}

	tables := make([]string, len(doc.Tables))
	for i, t := range doc.Tables {
		tables[i] = t.Name
	}

	ctxzap.Info(ctx, "schema corpus replaced",
		zap.String("filename", req.File.Filename),
		zap.Uint64("generation", generation),
	)

	return &entity.UploadSchemaResponse{
		Message:           fmt.Sprintf("Schema %q ingested successfully", source),
		Tables:            tables,
		SkippedStatements: doc.SkippedStatements,
		Generation:        generation,
	}, nil
}

// Ask answers a question grounded in the active schema corpus.
func (uc *SchemaUsecase) Ask(ctx context.Context, req *entity.AskRequest) (*entity.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question", entity.ErrMissingField)
	}

	answer, err := uc.answerer.Answer(ctx, question, entity.ModalitySchema)
	if err != nil {
		return nil, err
	}

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
	}, nil
}

// Summary describes the active schema corpus from stored metadata, without
// invoking the generation capability.
func (uc *SchemaUsecase) Summary(ctx context.Context) (*entity.SchemaSummaryResponse, error) {
	index, generation, err := uc.corpus.Active(ctx, entity.ModalitySchema)
	if err != nil {
		return nil, err
	}

	entries, err := index.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot schema corpus: %w", err)
	}

	var (
		tables        []entity.SchemaTableSummary
		relationCount int
	)
	for _, e := range entries {
		if e.Metadata[entity.MetaKind] != entity.KindSchemaTable {
			continue
		}

		fieldCount, err := strconv.Atoi(e.Metadata[entity.MetaFieldCount])
		if err != nil {
			return nil, fmt.Errorf("%w: bad field count for entry %s", entity.ErrIndexCorrupted, e.ID)
		}
		relations, err := strconv.Atoi(e.Metadata[entity.MetaRelationCount])
		if err != nil {
			return nil, fmt.Errorf("%w: bad relation count for entry %s", entity.ErrIndexCorrupted, e.ID)
		}

		tables = append(tables, entity.SchemaTableSummary{
			Name:       e.Metadata[entity.MetaTableName],
			FieldCount: fieldCount,
		})
		relationCount += relations
	}

	return &entity.SchemaSummaryResponse{
		Tables:        tables,
		RelationCount: relationCount,
		Generation:    generation,
	}, nil
}
