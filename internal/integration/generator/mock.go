package generator

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

// MockConnector returns canned answers without calling the generation
// service.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Generate(ctx context.Context, prompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer", zap.Int("prompt_chars", len(prompt)))

	if prompt == "" {
		return "", fmt.Errorf("%w: empty prompt", entity.ErrGenerationFailed)
	}

	return fmt.Sprintf(
		"This is a mock answer produced without a generation backend. The prompt contained %d characters of grounded context.",
		len(prompt),
	), nil
}
