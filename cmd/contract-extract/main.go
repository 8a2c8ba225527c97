package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/app"
	"github.com/joseph-ayodele/contracts-parser/internal/async"
	"github.com/joseph-ayodele/contracts-parser/internal/blob"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/contracts"
	"github.com/joseph-ayodele/contracts-parser/internal/ingest"
	"github.com/joseph-ayodele/contracts-parser/internal/repository"
)

// contract-extract runs the full pipeline on one local PDF and prints the result.
func main() {
	textOnly := flag.Bool("text-only", false, "print the extracted text and skip the LLM")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall deadline")
	flag.Parse()

	app.LoadDotEnv()
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "contract-extract [-text-only] [-timeout 3m] <file.pdf|dir>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	tx := app.NewTextExtractor(cfg.OCR, logger)
	if *textOnly {
		res, err := tx.Extract(ctx, path)
		if err != nil {
			logger.Error("text extraction failed", "path", path, "error", err)
			os.Exit(1)
		}
		logger.Info("text extraction OK", "method", res.Method, "pages", res.Pages, "duration_ms", res.Duration.Milliseconds())
		_, _ = os.Stdout.WriteString(res.Text + "\n")
		return
	}

	workDir, err := os.MkdirTemp("", "contract-extract-*")
	if err != nil {
		logger.Error("temp dir", "error", err)
		os.Exit(1)
	}
	defer os.RemoveAll(workDir)

	repo := repository.NewMemoryStore()
	blobs := blob.LocalFS{Root: workDir}
	proc, err := app.NewProcessor(repo, blobs, tx, app.NewFieldExtractor(cfg.LLM, logger), logger)
	if err != nil {
		logger.Error("pipeline init", "error", err)
		os.Exit(1)
	}
	svc := contracts.NewService(repo, blobs, async.NewInlineQueue(proc, logger, *timeout), logger)

	if st, err := os.Stat(path); err == nil && st.IsDir() {
		code := extractDir(ctx, svc, path, logger)
		_ = os.RemoveAll(workDir)
		os.Exit(code)
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Error("open input", "path", path, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	start := time.Now()
	c, err := svc.Submit(ctx, contracts.SubmitRequest{Filename: filepath.Base(path), Body: f})
	if err != nil {
		logger.Error("submit", "path", path, "error", common.MessageOf(err))
		os.Exit(1)
	}
	c, err = svc.Status(ctx, c.ID)
	if err != nil {
		logger.Error("status", "error", err)
		os.Exit(1)
	}
	if c.Status != constants.StatusCompleted {
		msg := ""
		if c.Error != nil {
			msg = *c.Error
		}
		logger.Error("extraction failed", "contract_id", c.ID, "error", msg, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	logger.Info("extraction OK", "contract_id", c.ID, "score", c.Data.Score, "duration_ms", time.Since(start).Milliseconds())
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(c.Data)
}

type dirSummary struct {
	Path       string   `json:"path"`
	ContractID string   `json:"contract_id,omitempty"`
	Status     string   `json:"status"`
	Score      *float64 `json:"score"`
	Error      string   `json:"error,omitempty"`
}

// extractDir runs every PDF under dir and prints one summary line per file.
func extractDir(ctx context.Context, svc *contracts.Service, dir string, logger *slog.Logger) int {
	results, stats, err := ingest.NewIngestor(svc, logger).IngestDirectory(ctx, dir, true)
	if err != nil {
		logger.Error("ingest directory", "dir", dir, "error", err)
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range results {
		out := dirSummary{Path: r.Path, ContractID: r.ContractID, Error: r.Err}
		if r.ContractID != "" {
			if c, err := svc.Status(ctx, r.ContractID); err == nil {
				out.Status = string(c.Status)
				out.Score = c.Score()
				if c.Error != nil {
					out.Error = *c.Error
				}
			}
		} else {
			out.Status = "rejected"
		}
		_ = enc.Encode(out)
	}
	if stats.Failed > 0 {
		return 1
	}
	return 0
}
