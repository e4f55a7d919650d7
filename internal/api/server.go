package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sgultrafix/trafix-rag-agent/internal/api/docs"
	documentapi "github.com/sgultrafix/trafix-rag-agent/internal/api/document"
	"github.com/sgultrafix/trafix-rag-agent/internal/api/middleware"
	schemaapi "github.com/sgultrafix/trafix-rag-agent/internal/api/schema"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(documentHandler *documentapi.Handler, schemaHandler *schemaapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                  // Recover from panics
	r.Use(chimiddleware.RequestID)                  // Add request ID
	r.Use(middleware.Logger(logger))                // Log requests
	r.Use(middleware.CORS)                          // Handle CORS
	r.Use(chimiddleware.Timeout(300 * time.Second)) // Generation calls can be slow

	// Service info endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"service":"rag-backend","endpoints":["/documents/upload","/documents/ask","/schema/upload","/schema/ask","/schema/summary"]}`))
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	documentapi.RegisterRoutes(r, documentHandler)
	schemaapi.RegisterRoutes(r, schemaHandler)

	return r
}
