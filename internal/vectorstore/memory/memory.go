package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/vectorstore"
)

// Index is a brute-force cosine-similarity store. The entry slice is treated
// as immutable once published: mutations build a fresh slice and swap it
// under the write lock, so readers always rank over a consistent snapshot.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []entity.EmbeddedEntry
}

func New() *Index { return &Index{} }

func (idx *Index) Upsert(ctx context.Context, entries []entity.EmbeddedEntry) error {
	if len(entries) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	dim := idx.dimension
	if err := checkDimensions(entries, &dim); err != nil {
		return err
	}

	next := make([]entity.EmbeddedEntry, 0, len(idx.entries)+len(entries))
	next = append(next, idx.entries...)
	next = append(next, entries...)

	idx.dimension = dim
	idx.entries = next
	return nil
}

func (idx *Index) Query(ctx context.Context, vector []float32, k int) ([]entity.EmbeddedEntry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", entity.ErrInvalidTopK, k)
	}

	idx.mu.RLock()
	snapshot := idx.entries
	dim := idx.dimension
	idx.mu.RUnlock()

	if len(snapshot) == 0 {
		return nil, nil
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d", entity.ErrIndexCorrupted, len(vector), dim)
	}

	type scored struct {
		pos   int
		score float64
	}
	ranked := make([]scored, len(snapshot))
	for i := range snapshot {
		ranked[i] = scored{pos: i, score: vectorstore.Cosine(vector, snapshot[i].Vector)}
	}

	// Stable sort keeps insertion order on equal scores
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	result := make([]entity.EmbeddedEntry, 0, k)
	for i := 0; i < k; i++ {
		result = append(result, snapshot[ranked[i].pos])
	}
	return result, nil
}

func (idx *Index) ReplaceAll(ctx context.Context, entries []entity.EmbeddedEntry) error {
	dim := 0
	if err := checkDimensions(entries, &dim); err != nil {
		return err
	}

	next := make([]entity.EmbeddedEntry, len(entries))
	copy(next, entries)

	idx.mu.Lock()
	idx.dimension = dim
	idx.entries = next
	idx.mu.Unlock()
	return nil
}

func (idx *Index) Len(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

func (idx *Index) Snapshot(ctx context.Context) ([]entity.EmbeddedEntry, error) {
	idx.mu.RLock()
	snapshot := idx.entries
	idx.mu.RUnlock()

	out := make([]entity.EmbeddedEntry, len(snapshot))
	copy(out, snapshot)
	return out, nil
}

func checkDimensions(entries []entity.EmbeddedEntry, dim *int) error {
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("%w: entry %s has empty vector", entity.ErrIndexCorrupted, e.ID)
		}
		if *dim == 0 {
			*dim = len(e.Vector)
		}
		if len(e.Vector) != *dim {
			return fmt.Errorf("%w: entry %s has dimension %d, index dimension %d",
				entity.ErrIndexCorrupted, e.ID, len(e.Vector), *dim)
		}
	}
	return nil
}
