package document

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/chunker"
	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

type fakeAnswerer struct {
	answer       *entity.Answer
	err          error
	lastQuestion string
	lastModality entity.Modality
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string, modality entity.Modality) (*entity.Answer, error) {
	f.lastQuestion = question
	f.lastModality = modality
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func newAskUsecase(answerer Answerer) *DocumentUsecase {
	c, _ := chunker.New(1000, 200)
	return NewUsecase(c, nil, nil, answerer, zap.NewNop())
}

func TestAsk_EmptyQuestion(t *testing.T) {
	uc := newAskUsecase(&fakeAnswerer{})

	_, err := uc.Ask(context.Background(), &entity.AskRequest{Question: "   "})
	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestAsk_TrimsAndDelegates(t *testing.T) {
	supporting := entity.EmbeddedEntry{
		ID:       uuid.New(),
		Text:     "chunk text",
		Metadata: map[string]string{entity.MetaKind: entity.KindDocumentChunk},
	}
	answerer := &fakeAnswerer{answer: &entity.Answer{
		Text:       "the answer",
		Supporting: []entity.EmbeddedEntry{supporting},
	}}
	uc := newAskUsecase(answerer)

	resp, err := uc.Ask(context.Background(), &entity.AskRequest{Question: "  what is this about?  "})
	require.NoError(t, err)

	assert.Equal(t, "what is this about?", answerer.lastQuestion)
	assert.Equal(t, entity.ModalityDocument, answerer.lastModality)
	assert.Equal(t, "the answer", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, supporting.ID.String(), resp.Sources[0].ID)
	assert.Equal(t, "chunk text", resp.Sources[0].Text)
}

func TestAsk_PropagatesNoCorpus(t *testing.T) {
	uc := newAskUsecase(&fakeAnswerer{err: entity.ErrNoCorpus})

	_, err := uc.Ask(context.Background(), &entity.AskRequest{Question: "anything"})
	assert.ErrorIs(t, err, entity.ErrNoCorpus)
}
