package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/config"
	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/integration/common"
	pkghttp "github.com/sgultrafix/trafix-rag-agent/pkg/http"
)

// Connector talks to the embedding service. Texts are embedded in batches
// with a per-text TTL cache in front, so re-uploading similar content does
// not re-embed unchanged chunks.
type Connector struct {
	config    config.EmbedderConnectorConfig
	connector *pkghttp.Connector
	cache     *gocache.Cache
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbedderConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		cache:     gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:    logger,
	}
}

// Embed returns one vector per input text, in input order.
func (c *Connector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))

	// Collect cache misses, keeping input positions for reassembly.
	var (
		missing    []string
		missingPos []int
	)
	for i, text := range texts {
		if cached, ok := c.cache.Get(cacheKey(text)); ok {
			vectors[i] = cached.([]float32)
			continue
		}
		missing = append(missing, text)
		missingPos = append(missingPos, i)
	}

	ctxzap.Info(ctx, "embedding texts",
		zap.Int("total", len(texts)),
		zap.Int("cached", len(texts)-len(missing)),
	)

	for start := 0; start < len(missing); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		embeddings, err := c.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}

		for i, vec := range embeddings {
			pos := missingPos[start+i]
			vectors[pos] = vec
			c.cache.SetDefault(cacheKey(batch[i]), vec)
		}
	}

	return vectors, nil
}

func (c *Connector) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	req := &entity.EmbedRequest{
		Model: c.config.Model,
		Input: batch,
	}

	resp, err := retry.DoWithData(func() (*entity.EmbedResponse, error) {
		var r entity.EmbedResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.EmbedEndpoint, req, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}, append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(isRetryable),
	)...)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Embeddings) != len(batch) {
		return nil, fmt.Errorf("%w: requested %d embeddings, got %d",
			entity.ErrEmbeddingUnavailable, len(batch), len(resp.Embeddings))
	}
	for i, vec := range resp.Embeddings {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at position %d", entity.ErrEmbeddingUnavailable, i)
		}
	}

	return resp.Embeddings, nil
}

func isRetryable(err error) bool {
	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return false
}

func classifyError(err error) error {
	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", entity.ErrEmbeddingUnavailable, err)
	}
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 500 {
		return fmt.Errorf("%w: %v", entity.ErrEmbeddingUnavailable, err)
	}
	return fmt.Errorf("embed request failed: %w", err)
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
