package document

import (
	"context"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Corpus interface {
	Replace(ctx context.Context, modality entity.Modality, entries []entity.EmbeddedEntry) (uint64, error)
	Info(ctx context.Context, modality entity.Modality) (entity.CorpusInfo, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string, modality entity.Modality) (*entity.Answer, error)
}
