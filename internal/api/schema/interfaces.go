package schema

import (
	"context"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

type SchemaUsecase interface {
	Upload(ctx context.Context, req *entity.UploadSchemaRequest) (*entity.UploadSchemaResponse, error)
	Ask(ctx context.Context, req *entity.AskRequest) (*entity.AskResponse, error)
	Summary(ctx context.Context) (*entity.SchemaSummaryResponse, error)
}
