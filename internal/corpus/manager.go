package corpus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/vectorstore"
)

// Manager exclusively owns corpus mutation. Each modality holds its own
// index and generation counter: Empty -> Active(1) -> Active(2) -> ... on
// every replacing upload, never back to Empty while the process lives.
// Uploads to the same modality are serialized; modalities share no lock.
type Manager struct {
	states map[entity.Modality]*state
	logger *zap.Logger
}

type state struct {
	uploadMu sync.Mutex // serializes replacing uploads of one modality

	mu         sync.RWMutex
	generation uint64
	index      vectorstore.Index
}

func NewManager(documentIndex, schemaIndex vectorstore.Index, logger *zap.Logger) *Manager {
	return &Manager{
		states: map[entity.Modality]*state{
			entity.ModalityDocument: {index: documentIndex},
			entity.ModalitySchema:   {index: schemaIndex},
		},
		logger: logger,
	}
}

// Replace swaps the modality's whole corpus for the given entries and bumps
// the generation. Entries arrive fully embedded: no external call happens
// while the upload lock is held.
func (m *Manager) Replace(ctx context.Context, modality entity.Modality, entries []entity.EmbeddedEntry) (uint64, error) {
	st, err := m.state(modality)
	if err != nil {
		return 0, err
	}

	st.uploadMu.Lock()
	defer st.uploadMu.Unlock()

	if err := st.index.ReplaceAll(ctx, entries); err != nil {
		return 0, fmt.Errorf("replace %s corpus: %w", modality, err)
	}

	st.mu.Lock()
	st.generation++
	generation := st.generation
	st.mu.Unlock()

	m.logger.Info("corpus replaced",
		zap.String("modality", string(modality)),
		zap.Uint64("generation", generation),
		zap.Int("entry_count", len(entries)),
	)

	return generation, nil
}

// Active returns the modality's index and current generation, or ErrNoCorpus
// when nothing has been uploaded yet.
func (m *Manager) Active(ctx context.Context, modality entity.Modality) (vectorstore.Index, uint64, error) {
	st, err := m.state(modality)
	if err != nil {
		return nil, 0, err
	}

	st.mu.RLock()
	generation := st.generation
	st.mu.RUnlock()

	if generation == 0 {
		return nil, 0, fmt.Errorf("%w: %s", entity.ErrNoCorpus, modality)
	}
	return st.index, generation, nil
}

// Info reports the active generation and entry count for a modality.
func (m *Manager) Info(ctx context.Context, modality entity.Modality) (entity.CorpusInfo, error) {
	index, generation, err := m.Active(ctx, modality)
	if err != nil {
		return entity.CorpusInfo{}, err
	}

	count, err := index.Len(ctx)
	if err != nil {
		return entity.CorpusInfo{}, err
	}

	return entity.CorpusInfo{
		Modality:   modality,
		Generation: generation,
		EntryCount: count,
	}, nil
}

func (m *Manager) state(modality entity.Modality) (*state, error) {
	st, ok := m.states[modality]
	if !ok {
		return nil, fmt.Errorf("%w: unknown modality %q", entity.ErrInvalidParameter, modality)
	}
	return st, nil
}
