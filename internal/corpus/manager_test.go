package corpus

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/vectorstore/memory"
)

func newManager() *Manager {
	return NewManager(memory.New(), memory.New(), zap.NewNop())
}

func entries(texts ...string) []entity.EmbeddedEntry {
	out := make([]entity.EmbeddedEntry, len(texts))
	for i, text := range texts {
		out[i] = entity.EmbeddedEntry{
			ID:     uuid.New(),
			Vector: []float32{1, 0},
			Text:   text,
		}
	}
	return out
}

func TestActive_NoCorpus(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	_, _, err := m.Active(ctx, entity.ModalityDocument)
	assert.ErrorIs(t, err, entity.ErrNoCorpus)

	_, _, err = m.Active(ctx, entity.ModalitySchema)
	assert.ErrorIs(t, err, entity.ErrNoCorpus)
}

func TestReplace_GenerationIncrements(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	gen, err := m.Replace(ctx, entity.ModalityDocument, entries("a"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)

	gen, err = m.Replace(ctx, entity.ModalityDocument, entries("b", "c"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), gen)

	index, active, err := m.Active(ctx, entity.ModalityDocument)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), active)

	count, err := index.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestReplace_ModalitiesAreIndependent(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	_, err := m.Replace(ctx, entity.ModalityDocument, entries("doc"))
	require.NoError(t, err)

	// Schema corpus stays empty
	_, _, err = m.Active(ctx, entity.ModalitySchema)
	assert.ErrorIs(t, err, entity.ErrNoCorpus)

	_, err = m.Replace(ctx, entity.ModalitySchema, entries("tbl"))
	require.NoError(t, err)

	_, docGen, err := m.Active(ctx, entity.ModalityDocument)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), docGen)

	_, schemaGen, err := m.Active(ctx, entity.ModalitySchema)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), schemaGen)
}

func TestReplace_UnknownModality(t *testing.T) {
	m := newManager()

	_, err := m.Replace(context.Background(), entity.Modality("audio"), entries("x"))
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestInfo(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	_, err := m.Info(ctx, entity.ModalityDocument)
	assert.ErrorIs(t, err, entity.ErrNoCorpus)

	_, err = m.Replace(ctx, entity.ModalityDocument, entries("a", "b", "c"))
	require.NoError(t, err)

	info, err := m.Info(ctx, entity.ModalityDocument)
	require.NoError(t, err)
	assert.Equal(t, entity.ModalityDocument, info.Modality)
	assert.Equal(t, uint64(1), info.Generation)
	assert.Equal(t, 3, info.EntryCount)
}
