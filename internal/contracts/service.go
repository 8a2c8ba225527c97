package contracts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/async"
	"github.com/joseph-ayodele/contracts-parser/internal/blob"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
	"github.com/joseph-ayodele/contracts-parser/internal/repository"
	"github.com/joseph-ayodele/contracts-parser/internal/telemetry"
)

// User-facing messages returned by the API.
const (
	MsgNotFound      = "Contract not found."
	MsgNotComplete   = "Contract processing not complete."
	MsgFileNotFound  = "File not found."
	MsgFileRequired  = "file is required"
	MsgQueueShutdown = "Service is shutting down."
)

// Service handles contract upload, lookup and listing.
type Service struct {
	repo   repository.ContractRepository
	blobs  blob.LocalFS
	queue  async.Queue
	logger *slog.Logger
}

// NewService creates a new contract service.
func NewService(repo repository.ContractRepository, blobs blob.LocalFS, queue async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, blobs: blobs, queue: queue, logger: logger}
}

// SubmitRequest is one uploaded file.
type SubmitRequest struct {
	Filename string
	Body     io.Reader
}

// Submit stores the PDF, registers a pending contract and hands it to the queue.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*entity.Contract, error) {
	v := common.NewValidator().Field("filename", req.Filename, common.Required, common.PDFFilename)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Warn("contracts.submit.rejected", "filename", req.Filename, "reason", v.ErrorMessage())
		return nil, err
	}

	id := uuid.NewString()
	stored, err := s.blobs.Put(constants.StoredFilename(id), req.Body)
	if err != nil {
		s.logger.Error("contracts.submit.store_failed", "contract_id", id, "error", err)
		return nil, common.WrapError(err, "store upload")
	}

	now := time.Now().UTC()
	c := &entity.Contract{
		ID:          id,
		Status:      constants.StatusPending,
		Progress:    constants.ProgressPending,
		Filename:    req.Filename,
		FileKey:     stored.Key,
		SizeBytes:   stored.Size,
		ContentHash: stored.SHA256,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("contracts.submit.create_failed", "contract_id", id, "error", err)
		return nil, err
	}

	job := async.Job{ContractID: id, SubmittedAt: now, TraceID: common.RequestIDFromContext(ctx)}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Error("contracts.submit.enqueue_failed", "contract_id", id, "error", err)
		if errors.Is(err, async.ErrQueueClosed) {
			return nil, common.NewAppError("UNAVAILABLE", MsgQueueShutdown, common.ErrUnavailable)
		}
		return nil, err
	}

	telemetry.UploadsCounter.Inc()
	s.logger.Info("contracts.submit.ok",
		"contract_id", id,
		"filename", req.Filename,
		"size_bytes", stored.Size,
		"sha256", stored.SHA256)
	return c, nil
}

// Status returns the contract whatever its state.
func (s *Service) Status(ctx context.Context, id string) (*entity.Contract, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewAppError("NOT_FOUND", MsgNotFound, err)
	}
	return c, err
}

// Data returns the contract only once it has completed.
func (s *Service) Data(ctx context.Context, id string) (*entity.Contract, error) {
	c, err := s.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != constants.StatusCompleted || c.Data == nil {
		return nil, common.NewAppError("NOT_COMPLETE", MsgNotComplete, common.ErrInvalidState)
	}
	return c, nil
}

// List returns contracts in upload order. An empty status means no filter; any
// other value is matched exactly, so an unknown status yields an empty list.
func (s *Service) List(ctx context.Context, status string) ([]*entity.Contract, error) {
	var filter *constants.ContractStatus
	if status != "" {
		st := constants.ContractStatus(status)
		if !st.Valid() {
			return []*entity.Contract{}, nil
		}
		filter = &st
	}
	return s.repo.List(ctx, filter)
}

// OpenFile opens the stored source PDF of a contract.
func (s *Service) OpenFile(ctx context.Context, id string) (*os.File, *entity.Contract, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.NewAppError("NOT_FOUND", MsgFileNotFound, err)
		}
		return nil, nil, err
	}
	f, err := s.blobs.Open(c.FileKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.NewAppError("NOT_FOUND", MsgFileNotFound, err)
		}
		return nil, nil, err
	}
	return f, c, nil
}
