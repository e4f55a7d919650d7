package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgRetry "github.com/sgultrafix/trafix-rag-agent/internal/pkg/retry"
)

const (
	VectorStoreMemory   = "memory"
	VectorStorePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8000"`

	// Vector store backend: memory or postgres
	VectorStore string `env:"VECTOR_STORE" envDefault:"memory"`

	// Database configuration (used when VectorStore is postgres)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbedderCfg  EmbedderConnectorConfig  `envPrefix:"EMBEDDER_"`
	GeneratorCfg GeneratorConnectorConfig `envPrefix:"GENERATOR_"`

	// Pipeline configuration
	ChunkingCfg  ChunkingConfig  `envPrefix:"CHUNK_"`
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`
	SchemaCfg    SchemaConfig    `envPrefix:"SCHEMA_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type EmbedderConnectorConfig struct {
	HTTPClientConfig
	EmbedEndpoint string               `env:"EMBED_ENDPOINT" envDefault:"/api/embed"`
	Model         string               `env:"MODEL" envDefault:"nomic-embed-text"`
	BatchSize     int                  `env:"BATCH_SIZE" envDefault:"32"`
	CacheTTL      time.Duration        `env:"CACHE_TTL" envDefault:"10m"`
	Retry         pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type GeneratorConnectorConfig struct {
	HTTPClientConfig
	GenerateEndpoint string               `env:"GENERATE_ENDPOINT" envDefault:"/api/generate"`
	Model            string               `env:"MODEL" envDefault:"mistral"`
	Temperature      float64              `env:"TEMPERATURE" envDefault:"0.7"`
	NumCtx           int                  `env:"NUM_CTX" envDefault:"4096"`
	Retry            pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"120s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"5s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"30s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"120s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL" envDefault:"http://localhost:11434"`
}

// ChunkingConfig controls how extracted document text is split.
type ChunkingConfig struct {
	Size    int `env:"SIZE" envDefault:"1000"`
	Overlap int `env:"OVERLAP" envDefault:"200"`
}

// RetrievalConfig bounds question answering.
type RetrievalConfig struct {
	TopK            int `env:"TOP_K" envDefault:"4"`
	MaxContextChars int `env:"MAX_CONTEXT_CHARS" envDefault:"6000"`
}

// SchemaConfig controls structural schema normalization.
type SchemaConfig struct {
	MaxDepth     int     `env:"MAX_DEPTH" envDefault:"8"`
	DepthPenalty float64 `env:"DEPTH_PENALTY" envDefault:"0.25"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"20971520"`   // 20 MiB
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB multipart memory
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	switch cfg.VectorStore {
	case VectorStoreMemory:
	case VectorStorePostgres:
		if cfg.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when VECTOR_STORE is postgres")
		}
	default:
		errors = append(errors, fmt.Sprintf("VECTOR_STORE must be memory or postgres, got %q", cfg.VectorStore))
	}

	if cfg.ChunkingCfg.Size < 1 {
		errors = append(errors, fmt.Sprintf("CHUNK_SIZE must be positive, got %d", cfg.ChunkingCfg.Size))
	}
	if cfg.ChunkingCfg.Overlap < 0 || cfg.ChunkingCfg.Overlap >= cfg.ChunkingCfg.Size {
		errors = append(errors, fmt.Sprintf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", cfg.ChunkingCfg.Overlap))
	}

	if cfg.RetrievalCfg.TopK < 1 {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_TOP_K must be positive, got %d", cfg.RetrievalCfg.TopK))
	}
	if cfg.RetrievalCfg.MaxContextChars < 1 {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_MAX_CONTEXT_CHARS must be positive, got %d", cfg.RetrievalCfg.MaxContextChars))
	}

	if cfg.SchemaCfg.MaxDepth < 1 {
		errors = append(errors, fmt.Sprintf("SCHEMA_MAX_DEPTH must be positive, got %d", cfg.SchemaCfg.MaxDepth))
	}
	if cfg.SchemaCfg.DepthPenalty < 0 {
		errors = append(errors, fmt.Sprintf("SCHEMA_DEPTH_PENALTY must not be negative, got %f", cfg.SchemaCfg.DepthPenalty))
	}

	if cfg.FileUploadCfg.MaxFileSize < 1 {
		errors = append(errors, fmt.Sprintf("FILE_UPLOAD_MAX_FILE_SIZE must be positive, got %d", cfg.FileUploadCfg.MaxFileSize))
	}
	if cfg.FileUploadCfg.MaxUploadSize < cfg.FileUploadCfg.MaxFileSize {
		errors = append(errors, "FILE_UPLOAD_MAX_UPLOAD_SIZE must not be smaller than FILE_UPLOAD_MAX_FILE_SIZE")
	}

	if cfg.EmbedderCfg.BatchSize < 1 {
		errors = append(errors, fmt.Sprintf("EMBEDDER_BATCH_SIZE must be positive, got %d", cfg.EmbedderCfg.BatchSize))
	}
	if cfg.EmbedderCfg.Model == "" {
		errors = append(errors, "EMBEDDER_MODEL must not be empty")
	}
	if cfg.GeneratorCfg.Model == "" {
		errors = append(errors, "GENERATOR_MODEL must not be empty")
	}
	if cfg.GeneratorCfg.Temperature < 0 || cfg.GeneratorCfg.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("GENERATOR_TEMPERATURE must be in [0, 2], got %f", cfg.GeneratorCfg.Temperature))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod":
		return ".env.prod"
	case "local":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
