package logger

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// WithAction tags the context logger with the handler action being served.
func WithAction(ctx context.Context, action string) context.Context {
	return ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.String("action", action)))
}

// WithModality tags the context logger with the corpus modality a flow
// operates on, so document and schema logs can be told apart.
func WithModality(ctx context.Context, modality string) context.Context {
	return ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.String("modality", modality)))
}
