// Package ingest feeds PDFs found on the local filesystem into the contract service.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/contracts-parser/internal/contracts"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

// Submitter is the part of contracts.Service the ingestor needs.
type Submitter interface {
	Submit(ctx context.Context, req contracts.SubmitRequest) (*entity.Contract, error)
}

// FileResult is the per-file ingest outcome.
type FileResult struct {
	Path         string
	ContractID   string
	Deduplicated bool
	HashHex      string
	Err          string
}

// Ingestor submits files once per distinct content for the lifetime of the process.
type Ingestor struct {
	submitter Submitter
	logger    *slog.Logger

	mu     sync.Mutex
	byHash map[string]string // sha256 hex -> contract id
}

func NewIngestor(s Submitter, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{submitter: s, logger: logger, byHash: map[string]string{}}
}

// IngestPath submits one file unless identical content was already submitted.
func (in *Ingestor) IngestPath(ctx context.Context, path string) (FileResult, error) {
	res := FileResult{Path: path}

	sum, err := fileSHA256(path)
	if err != nil {
		return res, err
	}
	res.HashHex = sum

	in.mu.Lock()
	if id, ok := in.byHash[sum]; ok {
		in.mu.Unlock()
		res.ContractID = id
		res.Deduplicated = true
		in.logger.Info("ingest.file.dedup", "path", path, "contract_id", id)
		return res, nil
	}
	in.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	c, err := in.submitter.Submit(ctx, contracts.SubmitRequest{Filename: filepath.Base(path), Body: f})
	if err != nil {
		return res, err
	}
	res.ContractID = c.ID

	in.mu.Lock()
	in.byHash[sum] = c.ID
	in.mu.Unlock()

	in.logger.Info("ingest.file.submitted", "path", path, "contract_id", c.ID, "sha256", sum)
	return res, nil
}

// Run submits every path received on events until ctx is done or events closes.
func (in *Ingestor) Run(ctx context.Context, events <-chan string, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-events:
			if !ok {
				return
			}
			if _, err := in.IngestPath(ctx, p); err != nil {
				in.logger.Error("ingest.file.failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			in.logger.Warn("ingest.watch.error", "error", err)
		}
	}
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
