package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
	"github.com/joseph-ayodele/contracts-parser/internal/llm"
	"github.com/joseph-ayodele/contracts-parser/internal/merge"
	"github.com/joseph-ayodele/contracts-parser/internal/telemetry"
)

// FieldsStage runs both field-group extractions concurrently and merges them.
type FieldsStage struct {
	Extractor llm.FieldExtractor
	Merger    *merge.Merger
	Logger    *slog.Logger
}

func NewFieldsStage(fe llm.FieldExtractor, m *merge.Merger, logger *slog.Logger) *FieldsStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldsStage{Extractor: fe, Merger: m, Logger: logger}
}

// Run returns the merged, scored document. The first failing group cancels the other.
func (s *FieldsStage) Run(ctx context.Context, contractID, text string) (*entity.Document, error) {
	groups := [2]constants.FieldGroup{constants.GroupParties, constants.GroupTerms}
	var results [2]entity.Fields

	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() (err error) {
			// errgroup does not carry panics across goroutines
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
					s.Logger.Error("pipeline.fields.panic", "contract_id", contractID, "group", group.Name, "panic", r)
				}
			}()
			start := time.Now()
			fields, _, err := s.Extractor.ExtractFields(gctx, llm.ExtractRequest{ContractText: text, Group: group})
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			telemetry.LLMLatency.WithLabelValues(group.Name, outcome).Observe(time.Since(start).Seconds())
			if err != nil {
				s.Logger.Error("pipeline.fields.group_failed", "contract_id", contractID, "group", group.Name, "error", err)
				return err
			}
			results[i] = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := s.Merger.Merge(results[0], results[1])
	s.Logger.Info("pipeline.fields.merged",
		"contract_id", contractID,
		"score", doc.Score,
		"gaps", len(doc.Gaps),
	)
	return doc, nil
}
