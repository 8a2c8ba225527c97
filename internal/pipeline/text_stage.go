package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/contracts-parser/internal/blob"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
	"github.com/joseph-ayodele/contracts-parser/internal/extract"
	"github.com/joseph-ayodele/contracts-parser/internal/telemetry"
)

// TextStage reads the stored PDF of a contract and returns its text.
type TextStage struct {
	Blobs         blob.LocalFS
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewTextStage(blobs blob.LocalFS, tx extract.TextExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{Blobs: blobs, TextExtractor: tx, Logger: logger}
}

func (s *TextStage) Run(ctx context.Context, c *entity.Contract) (string, error) {
	path, err := s.Blobs.Path(c.FileKey)
	if err != nil {
		return "", fmt.Errorf("resolve file: %w", err)
	}

	start := time.Now()
	res, err := s.TextExtractor.Extract(ctx, path)
	telemetry.TextExtractLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	s.Logger.Info("pipeline.extract.ok",
		"contract_id", c.ID,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res.Text, nil
}
