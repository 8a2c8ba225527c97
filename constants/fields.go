package constants

import "strings"

// Extraction field keys returned by the LLM.
const (
	FieldPartyIdentification    = "party_identification"
	FieldAccountInformation     = "account_information"
	FieldFinancialDetails       = "financial_details"
	FieldPaymentStructure       = "payment_structure"
	FieldRevenueClassification  = "revenue_classification"
	FieldServiceLevelAgreements = "service_level_agreements"

	FieldConfidenceScores = "confidence_scores"
	FieldGaps             = "gaps"
	FieldScore            = "score"
)

// CategoryFields lists the six extraction categories in response order.
var CategoryFields = []string{
	FieldPartyIdentification,
	FieldAccountInformation,
	FieldFinancialDetails,
	FieldPaymentStructure,
	FieldRevenueClassification,
	FieldServiceLevelAgreements,
}

// Scoring categories.
const (
	ScoreFinancialCompleteness = "financial_completeness"
	ScorePartyIdentification   = "party_identification"
	ScorePaymentTermsClarity   = "payment_terms_clarity"
	ScoreSLADefinition         = "sla_definition"
	ScoreContactInformation    = "contact_information"
)

// ScoreCategories lists the scoring categories in weight order.
var ScoreCategories = []string{
	ScoreFinancialCompleteness,
	ScorePartyIdentification,
	ScorePaymentTermsClarity,
	ScoreSLADefinition,
	ScoreContactInformation,
}

// FieldGroup is one batch of categories requested from the LLM in a single call.
type FieldGroup struct {
	Name   string
	Fields []string
}

// Prompt renders the group the way it is listed in the extraction prompt.
func (g FieldGroup) Prompt() string {
	return strings.Join(g.Fields, ", ")
}

var (
	GroupParties = FieldGroup{
		Name:   "parties",
		Fields: []string{FieldPartyIdentification, FieldAccountInformation, FieldFinancialDetails},
	}
	GroupTerms = FieldGroup{
		Name:   "terms",
		Fields: []string{FieldPaymentStructure, FieldRevenueClassification, FieldServiceLevelAgreements},
	}
)
