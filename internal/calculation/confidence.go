package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

// DefaultConfidence is reported when no confidence factors are available
const DefaultConfidence = 75

// FallbackConfidence is reported for the standard calculation path
const FallbackConfidence = 95

// ConfidenceScore returns the importance-weighted mean of the factor values,
// rounded half away from zero
func ConfidenceScore(factors []domain.ConfidenceFactor) int {
	if len(factors) == 0 {
		return DefaultConfidence
	}

	sum := decimal.Zero
	weights := decimal.Zero
	for _, f := range factors {
		w := decimal.NewFromInt(f.Importance.Weight())
		sum = sum.Add(f.Value.Mul(w))
		weights = weights.Add(w)
	}
	return int(sum.Div(weights).Round(0).IntPart())
}

// confidenceFactors builds the orchestrator's named confidence inputs
func confidenceFactors(risk RiskAggregate, input domain.CalculationInput, claims *domain.HistoricalClaimsData, taxResolved bool) []domain.ConfidenceFactor {
	factors := []domain.ConfidenceFactor{
		{Name: "risk_assessment", Value: risk.Confidence, Importance: domain.ImportanceHigh},
		{Name: "data_quality", Value: input.DataQualityScore, Importance: domain.ImportanceMedium},
	}

	demographics := domain.ConfidenceFactor{Name: "demographics", Value: decimal.NewFromInt(60), Importance: domain.ImportanceMedium, Note: "no age distribution"}
	if input.Demographics != nil && len(input.Demographics.AgeDistribution) > 0 {
		demographics.Value = decimal.NewFromInt(90)
		demographics.Note = ""
	}
	factors = append(factors, demographics)

	experience := domain.ConfidenceFactor{Name: "claims_experience", Value: decimal.NewFromInt(60), Importance: domain.ImportanceMedium, Note: "no claims history"}
	if claims != nil {
		experience.Value = decimal.NewFromInt(85)
		experience.Note = ""
	}
	factors = append(factors, experience)

	tax := domain.ConfidenceFactor{Name: "tax_rate", Value: decimal.NewFromInt(60), Importance: domain.ImportanceLow, Note: "tax rate unavailable"}
	if taxResolved {
		tax.Value = decimal.NewFromInt(95)
		tax.Note = ""
	}
	return append(factors, tax)
}
