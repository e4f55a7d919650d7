package schema

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/config"
	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/pkg/logger"
	"github.com/sgultrafix/trafix-rag-agent/internal/pkg/validator"
)

type Handler struct {
	usecase   SchemaUsecase
	cfg       config.FileUploadConfig
	validator *validator.Validator
}

func NewHandler(
	usecase SchemaUsecase,
	cfg config.FileUploadConfig,
	validator *validator.Validator,
) *Handler {
	return &Handler{
		usecase:   usecase,
		cfg:       cfg,
		validator: validator,
	}
}

// Upload handles POST /schema/upload
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadSchema")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		ctxzap.Warn(ctx, "no file provided")
		h.respondError(ctx, w, http.StatusBadRequest, "file is required", nil)
		return
	}
	fh := headers[0]

	if err := h.validator.ValidateUpload(fh, entity.ModalitySchema); err != nil {
		ctxzap.Error(ctx, "failed to validate upload", zap.Error(err))
		h.handleUsecaseError(ctx, w, err)
		return
	}

	content, err := readFile(fh)
	if err != nil {
		ctxzap.Error(ctx, "failed to read uploaded file", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read uploaded file", err)
		return
	}

	ctxzap.Info(ctx, "uploading schema",
		zap.String("filename", fh.Filename),
		zap.Int64("size_bytes", fh.Size),
	)

	resp, err := h.usecase.Upload(ctx, &entity.UploadSchemaRequest{
		File: entity.FileData{
			Filename: fh.Filename,
			Content:  content,
		},
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "schema uploaded successfully",
		zap.Int("table_count", len(resp.Tables)),
		zap.Uint64("generation", resp.Generation),
	)

	h.respondJSON(w, http.StatusOK, resp)
}

// Ask handles POST /schema/ask
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "AskSchema")

	var req entity.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctxzap.Info(ctx, "answering schema question", zap.Int("question_chars", len(req.Question)))

	resp, err := h.usecase.Ask(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "schema question answered", zap.Int("source_count", len(resp.Sources)))

	h.respondJSON(w, http.StatusOK, resp)
}

// Summary handles GET /schema/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SchemaSummary")

	ctxzap.Debug(ctx, "building schema summary")

	resp, err := h.usecase.Summary(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "schema summary built", zap.Int("table_count", len(resp.Tables)))

	h.respondJSON(w, http.StatusOK, resp)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// Helper methods
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	h.respondJSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrNoCorpus) {
		h.respondError(ctx, w, http.StatusNotFound, "no schema uploaded yet", err)
	} else if errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrMissingField) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	} else if errors.Is(err, entity.ErrInvalidFile) || errors.Is(err, entity.ErrFileTooLarge) || errors.Is(err, entity.ErrInvalidExtension) || errors.Is(err, entity.ErrUnsupportedFormat) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	} else if errors.Is(err, entity.ErrEmptySchema) {
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "no table-like structures found", err)
	} else if errors.Is(err, entity.ErrEmbeddingUnavailable) || errors.Is(err, entity.ErrGenerationFailed) {
		h.respondError(ctx, w, http.StatusBadGateway, "upstream capability failed", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
