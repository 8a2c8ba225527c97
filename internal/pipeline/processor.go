package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/contracts"
	"github.com/joseph-ayodele/contracts-parser/internal/telemetry"
)

// Processor drives one contract through text extraction, field extraction and merge.
type Processor struct {
	logger  *slog.Logger
	tracker *contracts.Tracker
	text    *TextStage
	fields  *FieldsStage
}

func NewProcessor(logger *slog.Logger, tracker *contracts.Tracker, text *TextStage, fields *FieldsStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, tracker: tracker, text: text, fields: fields}
}

// ProcessContract implements async.Processor. Any failure after Begin, panics
// included, ends with the contract marked failed; the returned error mirrors it.
func (p *Processor) ProcessContract(ctx context.Context, id string) (err error) {
	start := time.Now()
	ctx = common.WithContractID(ctx, id)
	c, err := p.tracker.Begin(ctx, id)
	if err != nil {
		p.logger.Error("pipeline.begin.failed", "contract_id", id, "error", err)
		return err
	}
	telemetry.InFlightGauge.Inc()
	defer telemetry.InFlightGauge.Dec()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			p.fail(ctx, id, err)
		}
	}()

	text, err := p.text.Run(ctx, c)
	if err != nil {
		return err
	}
	if _, err := p.tracker.Advance(ctx, id, constants.ProgressTextExtracted); err != nil {
		return err
	}

	doc, err := p.fields.Run(ctx, id, text)
	if err != nil {
		return err
	}

	// a job timeout must not stop the result from being recorded
	if _, err := p.tracker.Complete(context.WithoutCancel(ctx), id, doc); err != nil {
		p.logger.Error("pipeline.complete.failed", "contract_id", id, "error", err)
		return err
	}
	telemetry.CompletedCounter.Inc()
	telemetry.ScoreHistogram.Observe(doc.Score)
	p.logger.Info("pipeline.done",
		"contract_id", id,
		"score", doc.Score,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *Processor) fail(ctx context.Context, id string, cause error) {
	telemetry.FailedCounter.Inc()
	if _, err := p.tracker.Fail(context.WithoutCancel(ctx), id, cause.Error()); err != nil {
		p.logger.Error("pipeline.fail.record_failed", "contract_id", id, "cause", cause, "error", err)
		return
	}
	p.logger.Error("pipeline.failed", "contract_id", id, "error", cause)
}
