package contracts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
	"github.com/joseph-ayodele/contracts-parser/internal/repository"
)

// Tracker owns the contract state machine:
//
//	pending -> processing -> completed | failed
//
// Progress never decreases and terminal states are final.
type Tracker struct {
	repo   repository.ContractRepository
	logger *slog.Logger
}

func NewTracker(repo repository.ContractRepository, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{repo: repo, logger: logger}
}

func invalidTransition(c *entity.Contract, to constants.ContractStatus) error {
	if c.Status.IsTerminal() {
		return common.WrapError(common.ErrInvalidState,
			fmt.Sprintf("contract %s is already %s", c.ID, c.Status))
	}
	return common.WrapError(common.ErrInvalidState,
		fmt.Sprintf("contract %s: cannot move from %s to %s", c.ID, c.Status, to))
}

// Begin moves a pending contract to processing.
func (t *Tracker) Begin(ctx context.Context, id string) (*entity.Contract, error) {
	c, err := t.repo.Update(ctx, id, func(c *entity.Contract) error {
		if c.Status != constants.StatusPending {
			return invalidTransition(c, constants.StatusProcessing)
		}
		c.Status = constants.StatusProcessing
		c.Progress = constants.ProgressStarted
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.logger.Debug("contracts.tracker.begin", "contract_id", id)
	return c, nil
}

// Advance records intermediate progress on a processing contract.
func (t *Tracker) Advance(ctx context.Context, id string, progress int) (*entity.Contract, error) {
	return t.repo.Update(ctx, id, func(c *entity.Contract) error {
		if c.Status != constants.StatusProcessing {
			return invalidTransition(c, constants.StatusProcessing)
		}
		if progress < c.Progress || progress >= constants.ProgressDone {
			return common.WrapError(common.ErrInvalidState,
				fmt.Sprintf("contract %s: progress %d out of range [%d, %d)", id, progress, c.Progress, constants.ProgressDone))
		}
		c.Progress = progress
		return nil
	})
}

// Complete attaches the merged document and finishes the contract.
func (t *Tracker) Complete(ctx context.Context, id string, doc *entity.Document) (*entity.Contract, error) {
	if doc == nil {
		return nil, common.WrapError(common.ErrInvalidInput, "complete without data")
	}
	c, err := t.repo.Update(ctx, id, func(c *entity.Contract) error {
		if c.Status != constants.StatusProcessing {
			return invalidTransition(c, constants.StatusCompleted)
		}
		c.Status = constants.StatusCompleted
		c.Progress = constants.ProgressDone
		c.Data = doc
		c.Error = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.logger.Info("contracts.tracker.completed", "contract_id", id, "score", doc.Score)
	return c, nil
}

// Fail records msg as the failure reason. No partial data is kept.
func (t *Tracker) Fail(ctx context.Context, id string, msg string) (*entity.Contract, error) {
	c, err := t.repo.Update(ctx, id, func(c *entity.Contract) error {
		if c.Status != constants.StatusProcessing {
			return invalidTransition(c, constants.StatusFailed)
		}
		c.Status = constants.StatusFailed
		c.Progress = constants.ProgressDone
		c.Data = nil
		c.Error = &msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.logger.Warn("contracts.tracker.failed", "contract_id", id, "error", msg)
	return c, nil
}
