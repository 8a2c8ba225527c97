// Package scoring turns an extraction document into per-category confidence,
// missing-field gaps and a weighted 0-100 contract score.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

const (
	stringConfidence   = 0.9
	presenceConfidence = 0.8
)

// categorySource maps each scoring category to the extraction field it reads.
var categorySource = []struct {
	Category string
	Field    string
}{
	{constants.ScoreFinancialCompleteness, constants.FieldFinancialDetails},
	{constants.ScorePartyIdentification, constants.FieldPartyIdentification},
	{constants.ScorePaymentTermsClarity, constants.FieldPaymentStructure},
	{constants.ScoreSLADefinition, constants.FieldServiceLevelAgreements},
	{constants.ScoreContactInformation, constants.FieldAccountInformation},
}

// Weights sum to 100.
var Weights = []struct {
	Category string
	Weight   float64
}{
	{constants.ScoreFinancialCompleteness, 30},
	{constants.ScorePartyIdentification, 25},
	{constants.ScorePaymentTermsClarity, 20},
	{constants.ScoreSLADefinition, 15},
	{constants.ScoreContactInformation, 10},
}

// DeriveConfidenceAndGaps scores every category in [0,1] and lists the
// extraction fields that are missing or empty mappings, in category order.
// A model-reported confidence_scores entry can only raise a category.
func DeriveConfidenceAndGaps(doc entity.Fields) (map[string]float64, []string) {
	reported := doc[constants.FieldConfidenceScores]
	scores := make(map[string]float64, len(categorySource))
	gaps := []string{}

	for _, cs := range categorySource {
		derived, gap := deriveField(doc[cs.Field])
		if gap {
			gaps = append(gaps, cs.Field)
		}

		final := derived
		if ext, ok := reported.Get(cs.Category).Float(); ok {
			final = math.Max(derived, ext)
		}
		scores[cs.Category] = Round(clamp01(final), 3)
	}
	return scores, gaps
}

// deriveField scores one field value; gap is true for null and empty mappings.
// An empty or blank string scores 0 without being a gap.
func deriveField(v entity.Value) (score float64, gap bool) {
	switch v.Kind() {
	case entity.KindNull:
		return 0, true
	case entity.KindString:
		s, _ := v.Str()
		if strings.TrimSpace(s) == "" {
			return 0, false
		}
		return stringConfidence, false
	case entity.KindMapping:
		m, _ := v.Map()
		if len(m) == 0 {
			return 0, true
		}
		filled := 0
		for _, x := range m {
			if !x.IsEmpty() {
				filled++
			}
		}
		return math.Min(1, float64(filled)/float64(max(1, len(m)))), false
	default:
		if v.Truthy() {
			return presenceConfidence, false
		}
		return 0, false
	}
}

// ComputeContractScore is the weighted sum of category confidences rounded
// to 2 decimals. Missing categories count as 0 and inputs are not clamped.
func ComputeContractScore(scores map[string]float64) float64 {
	var total float64
	for _, w := range Weights {
		total += scores[w.Category] * w.Weight
	}
	return Round(total, 2)
}

// Round rounds the exact binary value of f to the given number of decimals
// (half-to-even on exact ties), matching decimal formatting.
func Round(f float64, places int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', places, 64), 64)
	if err != nil {
		return f
	}
	return r
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
