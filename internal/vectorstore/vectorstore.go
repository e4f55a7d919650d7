package vectorstore

import (
	"context"
	"math"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

// Index stores embedded entries for one modality and supports similarity
// retrieval. Ranking must be monotonic in cosine similarity with ties broken
// by insertion order. ReplaceAll swaps the whole stored set atomically:
// concurrent readers observe either the old or the new generation, never a
// mix.
type Index interface {
	Upsert(ctx context.Context, entries []entity.EmbeddedEntry) error
	Query(ctx context.Context, vector []float32, k int) ([]entity.EmbeddedEntry, error)
	ReplaceAll(ctx context.Context, entries []entity.EmbeddedEntry) error
	Len(ctx context.Context) (int, error)
	Snapshot(ctx context.Context) ([]entity.EmbeddedEntry, error)
}

// Cosine returns the cosine similarity of two vectors. Zero-magnitude
// vectors score zero against everything.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
