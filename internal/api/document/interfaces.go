package document

import (
	"context"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

type DocumentUsecase interface {
	Upload(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.UploadDocumentResponse, error)
	Ask(ctx context.Context, req *entity.AskRequest) (*entity.AskResponse, error)
}
