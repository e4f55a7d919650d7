package schema

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/config"
	"github.com/sgultrafix/trafix-rag-agent/internal/corpus"
	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/integration/embedder"
	"github.com/sgultrafix/trafix-rag-agent/internal/integration/generator"
	"github.com/sgultrafix/trafix-rag-agent/internal/pkg/validator"
	"github.com/sgultrafix/trafix-rag-agent/internal/qa"
	schemapkg "github.com/sgultrafix/trafix-rag-agent/internal/schema"
	schemauc "github.com/sgultrafix/trafix-rag-agent/internal/usecase/schema"
	"github.com/sgultrafix/trafix-rag-agent/internal/vectorstore/memory"
)

func testRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := zap.NewNop()

	manager := corpus.NewManager(memory.New(), memory.New(), logger)
	embedderConn := embedder.NewMockConnector(logger)
	generatorConn := generator.NewMockConnector(logger)

	orchestrator := qa.NewOrchestrator(manager, embedderConn, generatorConn, qa.Config{})
	normalizer := schemapkg.NewNormalizer(8, 0.25)

	uc := schemauc.NewUsecase(normalizer, embedderConn, manager, orchestrator, logger)

	uploadCfg := config.FileUploadConfig{
		MaxFileSize:   1 << 20,
		MaxUploadSize: 2 << 20,
	}
	handler := NewHandler(uc, uploadCfg, validator.NewFileValidator(uploadCfg))

	r := chi.NewRouter()
	RegisterRoutes(r, handler)
	return r
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func uploadSchema(t *testing.T, r chi.Router, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/schema/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const sampleSchema = `{
	"tables": [
		{"name": "users", "fields": [{"name": "id", "type": "int"}, {"name": "email", "type": "text"}]},
		{"name": "orders", "fields": [{"name": "id", "type": "int"}, {"name": "user_id", "type": "int"}]}
	]
}`

func TestUpload_Success(t *testing.T) {
	r := testRouter(t)

	rec := uploadSchema(t, r, "schema.json", sampleSchema)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.UploadSchemaResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"users", "orders"}, resp.Tables)
	assert.Equal(t, uint64(1), resp.Generation)
}

func TestUpload_InvalidExtension(t *testing.T) {
	r := testRouter(t)

	rec := uploadSchema(t, r, "schema.txt", sampleSchema)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_NoTables(t *testing.T) {
	r := testRouter(t)

	rec := uploadSchema(t, r, "empty.json", `{"settings": {"debug": true}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpload_MissingFile(t *testing.T) {
	r := testRouter(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/schema/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_BeforeUpload(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/schema/ask", strings.NewReader(`{"question": "what tables exist?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAsk_AfterUpload(t *testing.T) {
	r := testRouter(t)

	rec := uploadSchema(t, r, "schema.json", sampleSchema)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/schema/ask", strings.NewReader(`{"question": "how are users and orders related?"}`))
	req.Header.Set("Content-Type", "application/json")
	askRec := httptest.NewRecorder()
	r.ServeHTTP(askRec, req)
	require.Equal(t, http.StatusOK, askRec.Code)

	var resp entity.AskResponse
	require.NoError(t, json.NewDecoder(askRec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Answer)
	assert.NotEmpty(t, resp.Sources)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	r := testRouter(t)

	rec := uploadSchema(t, r, "schema.json", sampleSchema)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/schema/ask", strings.NewReader(`{"question": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	askRec := httptest.NewRecorder()
	r.ServeHTTP(askRec, req)
	assert.Equal(t, http.StatusBadRequest, askRec.Code)
}

func TestSummary(t *testing.T) {
	r := testRouter(t)

	// No schema yet
	req := httptest.NewRequest(http.MethodGet, "/schema/summary", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	uploadRec := uploadSchema(t, r, "schema.json", sampleSchema)
	require.Equal(t, http.StatusOK, uploadRec.Code)

	req = httptest.NewRequest(http.MethodGet, "/schema/summary", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.SchemaSummaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Tables, 2)
	assert.Equal(t, "users", resp.Tables[0].Name)
	assert.Equal(t, 2, resp.Tables[0].FieldCount)
	assert.Equal(t, 1, resp.RelationCount)
	assert.Equal(t, uint64(1), resp.Generation)
}

func TestUpload_ReplacesPreviousSchema(t *testing.T) {
	r := testRouter(t)

	rec := uploadSchema(t, r, "schema.json", sampleSchema)
	require.Equal(t, http.StatusOK, rec.Code)

	second := `{"tables": [{"name": "products", "fields": [{"name": "id", "type": "int"}]}]}`
	rec = uploadSchema(t, r, "v2.json", second)
	require.Equal(t, http.StatusOK, rec.Code)

	var uploadResp entity.UploadSchemaResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&uploadResp))
	assert.Equal(t, uint64(2), uploadResp.Generation)

	req := httptest.NewRequest(http.MethodGet, "/schema/summary", nil)
	sumRec := httptest.NewRecorder()
	r.ServeHTTP(sumRec, req)
	require.Equal(t, http.StatusOK, sumRec.Code)

	var resp entity.SchemaSummaryResponse
	require.NoError(t, json.NewDecoder(sumRec.Body).Decode(&resp))
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, "products", resp.Tables[0].Name)
	assert.Equal(t, uint64(2), resp.Generation)
}
