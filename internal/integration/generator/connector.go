package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/config"
	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/integration/common"
	pkghttp "github.com/sgultrafix/trafix-rag-agent/pkg/http"
)

// Connector talks to the text generation service.
type Connector struct {
	config    config.GeneratorConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.GeneratorConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Generate produces a completion for the prompt.
func (c *Connector) Generate(ctx context.Context, prompt string) (string, error) {
	ctxzap.Info(ctx, "generating answer", zap.Int("prompt_chars", len(prompt)))

	req := &entity.GenerateRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: entity.GenerateOptions{
			Temperature: c.config.Temperature,
			NumCtx:      c.config.NumCtx,
		},
	}

	resp, err := retry.DoWithData(func() (*entity.GenerateResponse, error) {
		var r entity.GenerateResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.GenerateEndpoint, req, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}, append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(isRetryable),
	)...)
	if err != nil {
		return "", classifyError(err)
	}

	answer := strings.TrimSpace(resp.Response)
	if answer == "" {
		return "", fmt.Errorf("%w: empty response from generation service", entity.ErrGenerationFailed)
	}

	ctxzap.Info(ctx, "answer generated", zap.Int("answer_chars", len(answer)))

	return answer, nil
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
	return fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)
}
