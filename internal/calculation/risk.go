package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

var (
	neutralMultiplier = decimal.NewFromInt(1)
	noRiskConfidence  = decimal.NewFromInt(50)
	maxRiskConfidence = decimal.NewFromInt(95)
	riskCoverageSpan  = decimal.NewFromInt(45)
)

// RiskLookup is the outcome of a single risk matrix lookup
type RiskLookup struct {
	Multiplier decimal.Decimal
	Tier       string
	Confidence decimal.Decimal
	Matched    bool
}

// RiskAggregate is the risk adjustment for a member or group
type RiskAggregate struct {
	MeanScore  decimal.Decimal
	Multiplier decimal.Decimal
	Tier       string
	Confidence decimal.Decimal
	Resolved   int
	Requested  int
}

// Complete reports whether every requested assessment resolved
func (ra RiskAggregate) Complete() bool {
	return ra.Requested > 0 && ra.Resolved == ra.Requested
}

// RiskTierCalculator maps risk scores to premium multipliers
type RiskTierCalculator struct {
	Matrix []domain.RiskTier
}

// NewRiskTierCalculator creates a calculator over a validated matrix
func NewRiskTierCalculator(matrix []domain.RiskTier) (*RiskTierCalculator, error) {
	if err := domain.ValidateRiskMatrix(matrix); err != nil {
		return nil, err
	}
	rows := make([]domain.RiskTier, len(matrix))
	copy(rows, matrix)
	return &RiskTierCalculator{Matrix: rows}, nil
}

// Lookup returns the highest-threshold row whose MinScore is at or below score.
// Scores below every threshold get the neutral multiplier.
func (rtc *RiskTierCalculator) Lookup(score decimal.Decimal) RiskLookup {
	for _, row := range rtc.Matrix {
		if row.MinScore.LessThanOrEqual(score) {
			return RiskLookup{
				Multiplier: row.Multiplier,
				Tier:       row.Tier,
				Confidence: row.Confidence,
				Matched:    true,
			}
		}
	}
	return RiskLookup{Multiplier: neutralMultiplier, Confidence: noRiskConfidence}
}

// Aggregate applies the lookup once to the mean of the resolved scores. requested
// is the number of assessments asked for; unresolved ones are simply absent from
// scores. Groups blend confidence by coverage, single members use the row confidence.
func (rtc *RiskTierCalculator) Aggregate(scores []decimal.Decimal, requested int, group bool) RiskAggregate {
	agg := RiskAggregate{
		Multiplier: neutralMultiplier,
		Confidence: noRiskConfidence,
		Resolved:   len(scores),
		Requested:  requested,
	}
	if len(scores) == 0 {
		return agg
	}

	agg.MeanScore = decimal.Avg(scores[0], scores[1:]...)
	lookup := rtc.Lookup(agg.MeanScore)
	agg.Multiplier = lookup.Multiplier
	agg.Tier = lookup.Tier

	if !group {
		agg.Confidence = lookup.Confidence
		return agg
	}

	total := requested
	if total < len(scores) {
		total = len(scores)
	}
	coverage := decimal.NewFromInt(int64(len(scores))).Div(decimal.NewFromInt(int64(total)))
	agg.Confidence = decimal.Min(maxRiskConfidence, noRiskConfidence.Add(coverage.Mul(riskCoverageSpan)))
	return agg
}
