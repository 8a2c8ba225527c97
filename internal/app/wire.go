// Package app assembles stores and the processing pipeline from configuration.
// The binaries under cmd/ share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/contracts-parser/internal/blob"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/contracts"
	"github.com/joseph-ayodele/contracts-parser/internal/extract"
	"github.com/joseph-ayodele/contracts-parser/internal/llm"
	"github.com/joseph-ayodele/contracts-parser/internal/llm/openai"
	"github.com/joseph-ayodele/contracts-parser/internal/merge"
	"github.com/joseph-ayodele/contracts-parser/internal/ocr"
	"github.com/joseph-ayodele/contracts-parser/internal/pipeline"
	"github.com/joseph-ayodele/contracts-parser/internal/repository"
)

// LoadDotEnv loads the nearest .env walking up at most five directories.
// Variables already set in the environment win.
func LoadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// Store is an opened contract repository plus its health probe and cleanup.
type Store struct {
	Repo   repository.ContractRepository
	Health repository.HealthChecker // nil for the memory store
	Close  func()
}

// OpenStore opens the backend named by cfg.Storage.Backend.
func OpenStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Storage.Backend {
	case common.StoreMemory:
		return &Store{Repo: repository.NewMemoryStore(), Close: func() {}}, nil

	case common.StoreSQLite:
		s, err := repository.OpenSQLite(cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Store{Repo: s, Health: s, Close: func() { _ = s.Close() }}, nil

	case common.StorePostgres:
		pool, err := repository.Open(ctx, repository.Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		s := repository.NewPostgresStore(pool, logger)
		if err := s.Migrate(ctx); err != nil {
			repository.Close(pool, logger)
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return &Store{Repo: s, Health: s, Close: func() { repository.Close(pool, logger) }}, nil

	case common.StoreRedis:
		client, err := NewRedisClient(cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		s := repository.NewRedisStore(client, cfg.Redis.KeyPrefix, logger)
		return &Store{Repo: s, Health: s, Close: func() { _ = client.Close() }}, nil
	}
	return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown STORE_BACKEND %q", cfg.Storage.Backend), common.ErrConfig)
}

func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewTextExtractor builds the pdftotext / OCR extractor.
func NewTextExtractor(cfg common.OCRConfig, logger *slog.Logger) extract.TextExtractor {
	ex := ocr.NewExtractor(ocr.Config{
		Pdftotext:   cfg.Pdftotext,
		Pdftoppm:    cfg.Pdftoppm,
		Tesseract:   cfg.Tesseract,
		TessdataDir: cfg.TessdataDir,
		MaxPages:    cfg.MaxPages,
		Fallback:    cfg.Fallback,
	}, logger)
	return extract.NewOCRAdapter(ex, logger)
}

// NewFieldExtractor builds the LLM field extractor over the chat completions client.
func NewFieldExtractor(cfg common.LLMConfig, logger *slog.Logger) llm.FieldExtractor {
	client := openai.NewClient(openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
		JSONMode:    cfg.JSONMode,
	}, logger)
	return llm.NewGroupExtractor(client, logger)
}

// NewProcessor wires the pipeline for repo and blobs.
func NewProcessor(repo repository.ContractRepository, blobs blob.LocalFS, tx extract.TextExtractor, fe llm.FieldExtractor, logger *slog.Logger) (*pipeline.Processor, error) {
	m, err := merge.NewMerger(logger)
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	return pipeline.NewProcessor(logger,
		contracts.NewTracker(repo, logger),
		pipeline.NewTextStage(blobs, tx, logger),
		pipeline.NewFieldsStage(fe, m, logger),
	), nil
}
