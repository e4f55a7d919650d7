package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/pkg/logger"
	"github.com/sgultrafix/trafix-rag-agent/internal/vectorstore"
)

// Embedder turns texts into fixed-size vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text for a prompt via the external capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CorpusSource exposes the read side of the corpus manager.
type CorpusSource interface {
	Active(ctx context.Context, modality entity.Modality) (vectorstore.Index, uint64, error)
}

// Config bounds retrieval: TopK is how many entries are retrieved,
// MaxContextChars caps the grounding context passed to generation.
type Config struct {
	TopK            int
	MaxContextChars int
}

const (
	documentPromptTemplate = `Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context: %s

Question: %s

Answer:`

	schemaPromptTemplate = `You are a database schema expert. Use the following pieces of context to answer the question about the database schema.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context: %s

Question: %s

Instructions for providing the answer:
1. Answer ONLY based on the schema context provided
2. If the answer involves relationships between tables, explain them clearly
3. If the answer involves specific fields or columns, list them
4. If you're unsure about any part of the answer, say so
5. If the context doesn't contain the answer, say "I cannot find information about this in the provided schema."

Answer:`
)

// Orchestrator grounds answers in the active corpus of the requested
// modality.
type Orchestrator struct {
	corpus    CorpusSource
	embedder  Embedder
	generator Generator
	cfg       Config
}

func NewOrchestrator(corpus CorpusSource, embedder Embedder, generator Generator, cfg Config) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = 6000
	}
	return &Orchestrator{
		corpus:    corpus,
		embedder:  embedder,
		generator: generator,
		cfg:       cfg,
	}
}

// Answer retrieves the top-k entries nearest to the question, assembles a
// bounded grounding context and invokes the generation capability. The
// returned supporting entries are exactly those whose text made it into the
// context, so callers can show provenance.
func (o *Orchestrator) Answer(ctx context.Context, question string, modality entity.Modality) (*entity.Answer, error) {
	ctx = logger.WithModality(ctx, string(modality))

	index, generation, err := o.corpus.Active(ctx, modality)
	if err != nil {
		return nil, err
	}

	vectors, err := o.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	retrieved, err := index.Query(ctx, vectors[0], o.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("query %s corpus: %w", modality, err)
	}

	grounding, supporting := o.assembleContext(retrieved)

	ctxzap.Debug(ctx, "grounding context assembled",
		zap.Uint64("generation", generation),
		zap.Int("retrieved", len(retrieved)),
		zap.Int("used", len(supporting)),
		zap.Int("context_chars", len(grounding)),
	)

	prompt := fmt.Sprintf(o.promptTemplate(modality), grounding, question)

	text, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)
	}

	return &entity.Answer{
		Text:       text,
		Supporting: supporting,
	}, nil
}

// assembleContext concatenates retrieved texts nearest-first until the
// context budget is exhausted; lower-ranked entries are dropped first. A
// single oversized top entry is truncated rather than dropped so the answer
// is never generated against an empty context.
func (o *Orchestrator) assembleContext(retrieved []entity.EmbeddedEntry) (string, []entity.EmbeddedEntry) {
	var (
		b          strings.Builder
		supporting []entity.EmbeddedEntry
	)

	for _, e := range retrieved {
		text := e.Text
		if b.Len() == 0 && len(text) > o.cfg.MaxContextChars {
			text = text[:o.cfg.MaxContextChars]
		}
		if b.Len()+len(text)+2 > o.cfg.MaxContextChars && b.Len() > 0 {
			break
		}

		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
		supporting = append(supporting, e)
	}

	return b.String(), supporting
}

func (o *Orchestrator) promptTemplate(modality entity.Modality) string {
	if modality == entity.ModalitySchema {
		return schemaPromptTemplate
	}
	return documentPromptTemplate
}
