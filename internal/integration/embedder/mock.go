package embedder

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockDimension = 64

// MockConnector produces deterministic pseudo-embeddings without calling
// the embedding service. Equal texts map to equal vectors, so retrieval
// behaves consistently in tests and local runs.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Info(ctx, "[MOCK] embedding texts", zap.Int("count", len(texts)))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = mockVector(text)
	}
	return vectors, nil
}

func mockVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))

	vec := make([]float32, mockDimension)
	var mag float64
	for i := 0; i < mockDimension; i++ {
		// Two vector components per digest byte, offset to cover [-8, 7].
		b := sum[i/2]
		nibble := b >> 4
		if i%2 == 1 {
			nibble = b & 0x0f
		}
		vec[i] = float32(int(nibble) - 8)
		mag += float64(vec[i]) * float64(vec[i])
	}

	if mag == 0 {
		vec[0] = 1
		return vec
	}
	norm := float32(math.Sqrt(mag))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
