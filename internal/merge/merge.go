// Package merge combines the per-group LLM extractions into one scored document.
package merge

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
	"github.com/joseph-ayodele/contracts-parser/internal/scoring"
)

type Merger struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewMerger(logger *slog.Logger) (*Merger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileSchema(BuildDocumentJSONSchema())
	if err != nil {
		return nil, err
	}
	return &Merger{schema: schema, logger: logger}, nil
}

// Union is a shallow merge where later documents win whole keys.
func Union(docs ...entity.Fields) entity.Fields {
	out := entity.Fields{}
	for _, d := range docs {
		for k, v := range d {
			out[k] = v
		}
	}
	return out
}

// Merge never fails: when the union does not coerce to the document schema
// the raw union is scored as-is.
//
// Model-reported confidences override derived ones key by key, and the
// derived gaps replace reported gaps unless there are none.
func (m *Merger) Merge(first, second entity.Fields) *entity.Document {
	combined := Union(first, second)

	doc, err := m.coerce(combined)
	if err != nil {
		m.logger.Warn("merge.schema.fallback", "error", err)
		doc = combined.Clone()
	}
	for _, k := range constants.CategoryFields {
		if _, ok := doc[k]; !ok {
			doc[k] = entity.Null()
		}
	}

	derived, gaps := scoring.DeriveConfidenceAndGaps(doc)

	conf := make(map[string]float64, len(derived))
	for k, v := range derived {
		conf[k] = v
	}
	if reported, ok := doc[constants.FieldConfidenceScores].Map(); ok {
		for k, v := range reported {
			f, ok := v.Float()
			if !ok || math.IsInf(f, 0) {
				m.logger.Debug("merge.confidence.skipped", "key", k, "kind", v.Kind().String())
				continue
			}
			conf[k] = f
		}
	}

	if len(gaps) == 0 {
		gaps = stringItems(doc[constants.FieldGaps])
	}

	fields := make(entity.Fields, len(doc))
	for k, v := range doc {
		switch k {
		case constants.FieldConfidenceScores, constants.FieldGaps, constants.FieldScore:
			continue
		}
		fields[k] = v
	}

	out := &entity.Document{
		Fields:           fields,
		ConfidenceScores: conf,
		Gaps:             gaps,
		Score:            scoring.ComputeContractScore(conf),
	}
	m.logger.Debug("merge.ok", "gaps", len(out.Gaps), "score", out.Score, "coerced", err == nil)
	return out
}

// coerce validates the union and normalizes it: all six categories present,
// confidences as numbers, gaps as a list, unknown keys dropped.
func (m *Merger) coerce(raw entity.Fields) (entity.Fields, error) {
	if err := m.schema.Validate(raw.Any()); err != nil {
		return nil, fmt.Errorf("document does not match schema: %w", err)
	}

	out := make(entity.Fields, len(constants.CategoryFields)+2)
	for _, k := range constants.CategoryFields {
		out[k] = raw[k]
	}

	conf := map[string]entity.Value{}
	if reported, ok := raw[constants.FieldConfidenceScores].Map(); ok {
		for k, v := range reported {
			f, ok := v.Float()
			if !ok {
				return nil, fmt.Errorf("confidence_scores.%s is not a number", k)
			}
			conf[k] = entity.Number(f)
		}
	}
	out[constants.FieldConfidenceScores] = entity.Mapping(conf)

	gaps := []entity.Value{}
	if items, ok := raw[constants.FieldGaps].Items(); ok {
		gaps = items
	}
	out[constants.FieldGaps] = entity.List(gaps)
	return out, nil
}

func stringItems(v entity.Value) []string {
	out := []string{}
	items, _ := v.Items()
	for _, it := range items {
		if s, ok := it.Str(); ok {
			out = append(out, s)
		}
	}
	return out
}
