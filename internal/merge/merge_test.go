package merge

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

func newTestMerger(t *testing.T) *Merger {
	t.Helper()
	m, err := NewMerger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewMerger: %v", err)
	}
	return m
}

func fields(t *testing.T, m map[string]any) entity.Fields {
	t.Helper()
	f, ok := entity.FieldsFromAny(m)
	if !ok {
		t.Fatalf("fields from %v", m)
	}
	return f
}

func TestUnionLaterWins(t *testing.T) {
	a := fields(t, map[string]any{
		"party_identification": map[string]any{"name": "A"},
		"confidence_scores":    map[string]any{"financial_completeness": 0.1, "party_identification": 0.2},
	})
	b := fields(t, map[string]any{
		"payment_structure": "Net 30",
		"confidence_scores": map[string]any{"sla_definition": 0.3},
	})
	u := Union(a, b)
	conf, _ := u["confidence_scores"].Map()
	if len(conf) != 1 || conf["sla_definition"].Any() != 0.3 {
		t.Fatalf("confidence_scores should be replaced wholesale, got %v", u["confidence_scores"].Any())
	}
	if u["party_identification"].Get("name").Any() != "A" {
		t.Fatalf("lost first group key")
	}
}

func TestMergeTwoGroups(t *testing.T) {
	m := newTestMerger(t)
	g1 := fields(t, map[string]any{
		"party_identification": map[string]any{"name": "ACME Corp"},
		"account_information":  map[string]any{"billing": "123 Main St"},
		"financial_details":    map[string]any{"total": 1000.0},
		"confidence_scores":    map[string]any{"financial_completeness": 0.8},
	})
	g2 := fields(t, map[string]any{
		"payment_structure":        map[string]any{"terms": "Net 30"},
		"revenue_classification":   map[string]any{"type": "recurring"},
		"service_level_agreements": map[string]any{"uptime": "99.9"},
	})

	doc := m.Merge(g1, g2)

	if got := doc.Category("party_identification").Get("name").Any(); got != "ACME Corp" {
		t.Fatalf("party name = %v", got)
	}
	for _, k := range constants.CategoryFields {
		if _, ok := doc.Fields[k]; !ok {
			t.Fatalf("missing category %s", k)
		}
	}
	// Reported 0.8 beats the derived 1.0 at merge time.
	if got := doc.ConfidenceScores["financial_completeness"]; got != 0.8 {
		t.Fatalf("financial_completeness = %v, want 0.8", got)
	}
	if got := doc.ConfidenceScores["sla_definition"]; got != 1 {
		t.Fatalf("sla_definition = %v, want 1", got)
	}
	if len(doc.Gaps) != 0 {
		t.Fatalf("gaps = %v, want none", doc.Gaps)
	}
	if doc.Score != 94 {
		t.Fatalf("score = %v, want 94", doc.Score)
	}
}

func TestMergeFallsBackToRaw(t *testing.T) {
	m := newTestMerger(t)
	g1 := fields(t, map[string]any{
		"party_identification": "ACME Corp",
		"notes":                "kept on fallback",
		"confidence_scores":    map[string]any{"party_identification": "high", "custom": 0.4},
	})

	doc := m.Merge(g1, entity.Fields{})

	if s, ok := doc.Category("party_identification").Str(); !ok || s != "ACME Corp" {
		t.Fatalf("raw string category lost: %v", doc.Category("party_identification").Any())
	}
	if _, ok := doc.Fields["notes"]; !ok {
		t.Fatalf("extra key dropped on fallback")
	}
	for _, k := range constants.CategoryFields {
		if _, ok := doc.Fields[k]; !ok {
			t.Fatalf("missing category %s", k)
		}
	}
	if got := doc.ConfidenceScores["party_identification"]; got != 0.9 {
		t.Fatalf("unparseable reported confidence should be skipped, got %v", got)
	}
	if got := doc.ConfidenceScores["custom"]; got != 0.4 {
		t.Fatalf("custom = %v, want 0.4", got)
	}
	wantGaps := []string{"financial_details", "payment_structure", "service_level_agreements", "account_information"}
	if !reflect.DeepEqual(doc.Gaps, wantGaps) {
		t.Fatalf("gaps = %v, want %v", doc.Gaps, wantGaps)
	}
	if doc.Score != 22.5 {
		t.Fatalf("score = %v, want 22.5", doc.Score)
	}
}

func TestMergeCoercesNumericStrings(t *testing.T) {
	m := newTestMerger(t)
	g1 := fields(t, map[string]any{
		"party_identification": map[string]any{"name": "A"},
		"notes":                "dropped when coerced",
		"confidence_scores":    map[string]any{"contact_information": "0.7"},
	})
	doc := m.Merge(g1, nil)
	if got := doc.ConfidenceScores["contact_information"]; got != 0.7 {
		t.Fatalf("contact_information = %v, want 0.7", got)
	}
	if _, ok := doc.Fields["notes"]; ok {
		t.Fatalf("unknown key should be dropped by coercion")
	}
}

func TestMergeGapsFallBackToReported(t *testing.T) {
	m := newTestMerger(t)
	g1 := fields(t, map[string]any{
		"party_identification": map[string]any{"name": "A"},
		"account_information":  map[string]any{"email": "a@b.c"},
		"financial_details":    map[string]any{"total": 1.0},
		"gaps":                 []any{"ignored"},
	})
	g2 := fields(t, map[string]any{
		"payment_structure":        "Net 30",
		"revenue_classification":   nil,
		"service_level_agreements": map[string]any{"uptime": "99%"},
		"gaps":                     []any{"termination_clause"},
	})
	doc := m.Merge(g1, g2)
	if !reflect.DeepEqual(doc.Gaps, []string{"termination_clause"}) {
		t.Fatalf("gaps = %v, want reported gaps from the second group", doc.Gaps)
	}
}

func TestMergeDerivedGapsWin(t *testing.T) {
	m := newTestMerger(t)
	g1 := fields(t, map[string]any{
		"account_information": nil,
		"gaps":                []any{"something_else"},
	})
	doc := m.Merge(g1, nil)
	if len(doc.Gaps) != 5 || doc.Gaps[0] != "financial_details" {
		t.Fatalf("gaps = %v, want derived gaps", doc.Gaps)
	}
}

func TestMergeDropsReportedScore(t *testing.T) {
	m := newTestMerger(t)
	doc := m.Merge(fields(t, map[string]any{"score": 99.0}), nil)
	if _, ok := doc.Fields["score"]; ok {
		t.Fatalf("reported score should not survive as a field")
	}
	if doc.Score != 0 {
		t.Fatalf("score = %v, want 0", doc.Score)
	}
}
