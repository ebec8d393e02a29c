package calculation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/rgehrsitz/premiumcalc/internal/calculation/mocks"
	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
	"github.com/rgehrsitz/premiumcalc/internal/metrics"
)

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type PremiumEngineSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	source  *mocks.MockDataSource
	metrics *metrics.Metrics
	engine  *PremiumEngine
}

func TestPremiumEngineSuite(t *testing.T) {
	suite.Run(t, new(PremiumEngineSuite))
}

func (s *PremiumEngineSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.source = mocks.NewMockDataSource(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.engine = s.newEngine()
}

func (s *PremiumEngineSuite) newEngine(opts ...Option) *PremiumEngine {
	base := []Option{
		WithLogger(zap.NewNop()),
		WithMetrics(s.metrics),
		WithIDGenerator(func() string { return "result-1" }),
		WithClock(func() time.Time { return fixedTime }),
	}
	engine, err := NewPremiumEngine(domain.DefaultRatingTables(), s.source, append(base, opts...)...)
	s.Require().NoError(err)
	return engine
}

// memberInput is a single member in period P1 with a 400 PMPM base rate
func memberInput() domain.CalculationInput {
	return domain.CalculationInput{
		MemberID:         "m1",
		PeriodID:         "P1",
		BaseRate:         decPtr("400"),
		DataQualityScore: dec("80"),
	}
}

func (s *PremiumEngineSuite) expectNoPeriodRate() {
	s.source.EXPECT().GetPremiumRateByPeriod(gomock.Any(), "P1").Return(nil, nil).AnyTimes()
}

func (s *PremiumEngineSuite) expectScore(memberID, score string) {
	s.source.EXPECT().GetRiskAssessment(gomock.Any(), memberID).
		Return(&domain.RiskAssessment{MemberID: memberID, OverallRiskScore: dec(score)}, nil).AnyTimes()
}

func (s *PremiumEngineSuite) factorValue(result *domain.PremiumResult, source domain.FactorSource) decimal.Decimal {
	f, ok := result.Factor(source)
	s.Require().True(ok, "missing %s factor", source)
	return f.Value
}

func (s *PremiumEngineSuite) TestSeniorMemberWithoutRiskData() {
	s.expectNoPeriodRate()
	s.source.EXPECT().GetRiskAssessment(gomock.Any(), "m1").Return(nil, nil)

	input := memberInput()
	input.Demographics = &domain.Demographics{AgeDistribution: map[string]int{"65+": 1}}

	result, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
	s.Require().NoError(err)

	expected := dec("400").Mul(dec("2")).Mul(s.engine.loader.Factor()).Round(2)
	s.True(result.PreTaxPremium.Equal(expected), "pre-tax: got %s want %s", result.PreTaxPremium, expected)
	s.True(result.FinalPremium.Equal(expected))
	s.True(result.TaxAmount.IsZero())
	s.True(result.AdjustedPremium.Equal(dec("800")))

	s.True(s.factorValue(result, domain.SourceRisk).Equal(decimal.NewFromInt(1)))
	s.True(s.factorValue(result, domain.SourceDemographic).Equal(dec("2")))
	s.True(s.factorValue(result, domain.SourceExperience).Equal(decimal.NewFromInt(1)))

	s.Equal(domain.MethodologyHybrid, result.Methodology)
	s.Equal(67, result.ConfidenceScore)
	s.Equal(0, result.Metadata.ResolvedRisk)
	s.Equal(1, result.Metadata.RequestedRisk)
	s.Empty(result.Metadata.FallbackReason)
	s.Equal(string(StateCertified), result.Metadata.StateTrail[len(result.Metadata.StateTrail)-1])
	s.Contains(result.Metadata.Assumptions, "tax rate unavailable; no tax applied")
}

func (s *PremiumEngineSuite) TestHighRiskMember() {
	s.expectNoPeriodRate()
	s.expectScore("m1", "85")

	result, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), memberInput())
	s.Require().NoError(err)

	s.Equal("High-risk", result.RiskTier)
	s.True(s.factorValue(result, domain.SourceRisk).Equal(dec("1.85")))
	s.Equal(domain.MethodologyRiskAdjusted, result.Methodology)
	s.True(result.AdjustedPremium.Equal(dec("740")))

	expected := dec("740").Mul(s.engine.loader.Factor()).Round(2)
	s.True(result.PreTaxPremium.Equal(expected))
}

func (s *PremiumEngineSuite) TestExperienceRating() {
	tests := []struct {
		lossRatio string
		modifier  string
	}{
		{lossRatio: "0.55", modifier: "0.90"},
		{lossRatio: "0.95", modifier: "1.15"},
	}

	for _, tt := range tests {
		s.Run(tt.lossRatio, func() {
			s.expectNoPeriodRate()
			s.expectScore("m1", "45")

			input := memberInput()
			input.HistoricalClaims = &domain.HistoricalClaimsData{LossRatio: dec(tt.lossRatio)}

			result, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
			s.Require().NoError(err)
			s.True(s.factorValue(result, domain.SourceExperience).Equal(dec(tt.modifier)))
		})
	}
}

func (s *PremiumEngineSuite) TestClaimsFetchedForCompany() {
	s.expectNoPeriodRate()
	s.expectScore("m1", "45")
	s.source.EXPECT().GetHistoricalClaims(gomock.Any(), "C1", "P1").
		Return(&domain.HistoricalClaimsData{LossRatio: dec("0.95")}, nil)

	input := memberInput()
	input.CompanyID = "C1"

	result, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
	s.Require().NoError(err)
	s.True(s.factorValue(result, domain.SourceExperience).Equal(dec("1.15")))
}

func (s *PremiumEngineSuite) TestActivePeriodResolution() {
	s.source.EXPECT().GetActivePeriod(gomock.Any()).Return(&domain.Period{ID: "P9", Active: true}, nil)
	s.source.EXPECT().GetPremiumRateByPeriod(gomock.Any(), "P9").
		Return(&domain.PremiumRate{PeriodID: "P9", TaxRate: dec("0.02"), BaseRate: decPtr("500")}, nil)
	s.source.EXPECT().GetRiskAssessment(gomock.Any(), "m1").Return(nil, nil)

	input := memberInput()
	input.PeriodID = ""
	input.BaseRate = nil

	result, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
	s.Require().NoError(err)

	s.Equal("P9", result.PeriodID)
	s.True(result.BasePremium.Equal(dec("500")))
	s.True(result.PreTaxPremium.Equal(dec("617.28")), "pre-tax: got %s", result.PreTaxPremium)
	s.True(result.TaxAmount.Equal(dec("12.35")), "tax: got %s", result.TaxAmount)
	s.True(result.FinalPremium.Equal(result.PreTaxPremium.Add(result.TaxAmount)))
	s.True(s.factorValue(result, domain.SourceTax).Equal(dec("0.02")))
}

func (s *PremiumEngineSuite) TestGroupRiskAggregation() {
	s.expectNoPeriodRate()
	s.expectScore("a", "85")
	s.expectScore("b", "65")
	s.source.EXPECT().GetRiskAssessment(gomock.Any(), "c").Return(nil, nil)
	s.source.EXPECT().GetRiskAssessment(gomock.Any(), "d").Return(nil, fmt.Errorf("connection reset"))

	input := memberInput()
	input.MemberID = ""
	input.MemberIDs = []string{"a", "b", "c", "d"}
	input.CompanyID = "C1"
	input.HistoricalClaims = &domain.HistoricalClaimsData{LossRatio: dec("0.7")}

	result, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
	s.Require().NoError(err)

	s.Equal("Substandard", result.RiskTier)
	s.True(s.factorValue(result, domain.SourceRisk).Equal(dec("1.40")))
	s.Equal(domain.MethodologyHybrid, result.Methodology)
	s.Equal(2, result.Metadata.ResolvedRisk)
	s.Equal(4, result.Metadata.RequestedRisk)
	s.Equal([]string{"a", "b", "c", "d"}, result.MemberIDs)
	s.Equal("group:C1", result.Subject)

	var risk domain.ConfidenceFactor
	for _, f := range result.ConfidenceFactors {
		if f.Name == "risk_assessment" {
			risk = f
		}
	}
	s.True(risk.Value.Equal(dec("72.5")), "risk confidence: got %s", risk.Value)
}

func (s *PremiumEngineSuite) TestFetchTimeoutDegradesToNeutralRisk() {
	s.expectNoPeriodRate()
	s.source.EXPECT().GetRiskAssessment(gomock.Any(), "m1").
		DoAndReturn(func(ctx context.Context, _ string) (*domain.RiskAssessment, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	engine := s.newEngine(WithFetchTimeout(20 * time.Millisecond))
	result, err := engine.CalculateRiskAdjustedPremium(context.Background(), memberInput())
	s.Require().NoError(err)

	s.True(s.factorValue(result, domain.SourceRisk).Equal(decimal.NewFromInt(1)))
	s.Equal(domain.MethodologyHybrid, result.Methodology)
	s.Empty(result.Metadata.FallbackReason)
}

func (s *PremiumEngineSuite) TestFetchTimeoutWithSourceIgnoringContext() {
	s.expectNoPeriodRate()
	release := make(chan struct{})
	s.T().Cleanup(func() { close(release) })
	s.source.EXPECT().GetRiskAssessment(gomock.Any(), "m1").
		DoAndReturn(func(context.Context, string) (*domain.RiskAssessment, error) {
			<-release
			return &domain.RiskAssessment{MemberID: "m1", OverallRiskScore: dec("85")}, nil
		})

	engine := s.newEngine(WithFetchTimeout(20 * time.Millisecond))
	start := time.Now()
	result, err := engine.CalculateRiskAdjustedPremium(context.Background(), memberInput())
	s.Require().NoError(err)

	s.Less(time.Since(start), 2*time.Second)
	s.True(s.factorValue(result, domain.SourceRisk).Equal(decimal.NewFromInt(1)))
	s.Equal(domain.MethodologyHybrid, result.Methodology)
}

func (s *PremiumEngineSuite) TestStageFailureFallsBack() {
	s.expectNoPeriodRate()
	s.expectScore("m1", "85")

	failures := map[string]func(*PremiumEngine, *pipeline) error{
		"error": func(*PremiumEngine, *pipeline) error { return fmt.Errorf("boom") },
		"panic": func(*PremiumEngine, *pipeline) error { panic("boom") },
	}

	for i, st := range defaultStages() {
		for kind, run := range failures {
			s.Run(fmt.Sprintf("%s_%s", st.state, kind), func() {
				engine := s.newEngine()
				engine.stages = defaultStages()
				engine.stages[i].run = run

				result, err := engine.CalculateRiskAdjustedPremium(context.Background(), memberInput())
				s.Require().NoError(err)

				s.Equal(domain.MethodologyStandard, result.Methodology)
				s.Equal(FallbackConfidence, result.ConfidenceScore)
				s.True(result.FinalPremium.Equal(dec("400")))
				s.True(result.PreTaxPremium.Equal(dec("400")))
				s.True(result.TaxAmount.IsZero())
				s.Contains(result.Metadata.FallbackReason, "boom")
				s.Contains(result.Metadata.FallbackReason, string(st.state))

				trail := result.Metadata.StateTrail
				s.Equal(string(StateFallback), trail[len(trail)-1])
				s.NotContains(trail, string(StateCertified))

				s.Require().NotEmpty(result.Breakdown)
				s.Equal(domain.SourceBase, result.Breakdown[0].Source)
				for _, f := range result.Breakdown[1:] {
					s.True(f.IsNeutral(), "%s should be neutral, got %s", f.Name, f.Value)
				}
			})
		}
	}
}

func (s *PremiumEngineSuite) TestNegativeRunningPremiumFallsBack() {
	s.expectNoPeriodRate()
	s.expectScore("m1", "45")

	engine := s.newEngine()
	engine.stages = defaultStages()
	engine.stages[3].run = func(_ *PremiumEngine, p *pipeline) error {
		p.ledger.multiply("geographic", domain.SourceGeographic, dec("-1"), "corrupt table")
		return nil
	}

	result, err := engine.CalculateRiskAdjustedPremium(context.Background(), memberInput())
	s.Require().NoError(err)
	s.Equal(domain.MethodologyStandard, result.Methodology)
	s.Contains(result.Metadata.FallbackReason, "negative")
}

func (s *PremiumEngineSuite) TestIdempotent() {
	s.expectNoPeriodRate()
	s.expectScore("a", "85")
	s.expectScore("b", "20")
	s.expectScore("c", "61")

	input := memberInput()
	input.MemberID = ""
	input.MemberIDs = []string{"a", "b", "c"}
	input.Demographics = &domain.Demographics{
		AgeDistribution: map[string]int{"25-34": 3, "45-54": 1, "65+": 2},
		State:           "TX",
	}
	input.Family = &domain.FamilyComposition{Principal: 1, Spouse: 1, Children: 3}
	input.Discounts = []domain.Discount{{Name: "wellness", Rate: dec("0.05")}}

	first, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
	s.Require().NoError(err)
	second, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
	s.Require().NoError(err)

	s.Equal(first, second)
}

func (s *PremiumEngineSuite) TestRecalculate() {
	s.expectNoPeriodRate()
	s.expectScore("m1", "85")

	prior, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), memberInput())
	s.Require().NoError(err)

	engine := s.newEngine(WithIDGenerator(func() string { return "result-2" }))
	next, err := engine.Recalculate(context.Background(), prior, memberInput())
	s.Require().NoError(err)

	s.Equal("result-2", next.ID)
	s.Equal("result-1", next.SupersedesID)
	s.Empty(prior.SupersedesID)

	_, err = engine.Recalculate(context.Background(), nil, memberInput())
	s.Error(err)
}

func (s *PremiumEngineSuite) TestInvalidInput() {
	years := 0
	tests := []struct {
		name  string
		input domain.CalculationInput
	}{
		{name: "no identity", input: domain.CalculationInput{}},
		{name: "empty member id", input: domain.CalculationInput{MemberIDs: []string{"a", ""}}},
		{name: "data quality above 100", input: domain.CalculationInput{MemberID: "m1", DataQualityScore: dec("101")}},
		{name: "negative base rate", input: domain.CalculationInput{MemberID: "m1", BaseRate: decPtr("-1")}},
		{name: "zero projection years", input: domain.CalculationInput{MemberID: "m1", ProjectionYears: &years}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), tt.input)
			s.Require().Error(err)
			s.True(errors.IsType(err, errors.TypeInput))
		})
	}
}

func (s *PremiumEngineSuite) TestDiscountsClampedAndRecorded() {
	s.expectNoPeriodRate()
	s.expectScore("m1", "45")

	tests := []struct {
		name      string
		discounts []domain.Discount
		expected  string
	}{
		{
			name:      "sum clamped to one",
			discounts: []domain.Discount{{Name: "wellness", Rate: dec("0.6")}, {Name: "loyalty", Rate: dec("0.7")}},
			expected:  "1",
		},
		{
			name:      "single rate above one",
			discounts: []domain.Discount{{Name: "promo", Rate: dec("1.4")}},
			expected:  "1",
		},
		{
			name:      "rates add",
			discounts: []domain.Discount{{Name: "wellness", Rate: dec("0.3")}, {Name: "loyalty", Rate: dec("0.05")}},
			expected:  "0.35",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			input := memberInput()
			input.Discounts = tt.discounts

			result, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
			s.Require().NoError(err)
			s.True(s.factorValue(result, domain.SourceDiscount).Equal(dec(tt.expected)))
			s.Equal(domain.MethodologyRiskAdjusted, result.Methodology)
			if tt.expected == "1" {
				s.True(result.FinalPremium.IsZero())
			}
		})
	}
}

func (s *PremiumEngineSuite) TestNegativeDiscountRejected() {
	input := memberInput()
	input.Discounts = []domain.Discount{
		{Name: "wellness", Rate: dec("0.3")},
		{Name: "bogus", Rate: dec("-0.3")},
	}

	_, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.TypeInput))
	s.Contains(err.Error(), "bogus")
}

func (s *PremiumEngineSuite) TestCommunityRatedNote() {
	s.expectNoPeriodRate()
	s.expectScore("m1", "85")

	input := memberInput()
	input.Jurisdiction = "NY"

	result, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), input)
	s.Require().NoError(err)
	s.Equal("NY", result.Jurisdiction)
	s.NotEmpty(result.Metadata.RegulatoryNotes)
}

func (s *PremiumEngineSuite) TestMetricsRecorded() {
	s.expectNoPeriodRate()
	s.expectScore("m1", "85")

	_, err := s.engine.CalculateRiskAdjustedPremium(context.Background(), memberInput())
	s.Require().NoError(err)

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Calculations.WithLabelValues(string(domain.MethodologyRiskAdjusted))))
}

func (s *PremiumEngineSuite) TestCalculateActuarialRates() {
	tests := []struct {
		jurisdiction string
		status       domain.CertificationStatus
	}{
		{jurisdiction: "federal", status: domain.CertifiedWithAdjustments},
		{jurisdiction: "NY", status: domain.CertifiedWithAdjustments},
		{jurisdiction: "MA", status: domain.NotCertified},
	}

	for _, tt := range tests {
		s.Run(tt.jurisdiction, func() {
			input := technologyInput()
			input.Jurisdiction = tt.jurisdiction

			result, err := s.engine.CalculateActuarialRates(context.Background(), input)
			s.Require().NoError(err)

			constraints := s.engine.Tables().Constraints(tt.jurisdiction)
			s.Equal(tt.status, result.Certification.Status)
			s.Equal("result-1", result.ID)
			s.Equal(fixedTime, result.Certification.CertifiedAt)
			s.True(result.Rates.AgeBanded.Ratio().LessThanOrEqual(constraints.MaxAgeRatio))
			s.True(result.Rates.Smoker.Ratio().LessThanOrEqual(constraints.EffectiveTobaccoRatio()))
			s.True(result.LoadingFactor.Equal(s.engine.loader.Factor()))
			s.Equal("2.1.0", result.Version)
			s.NotEmpty(result.Assumptions)
		})
	}
}

func (s *PremiumEngineSuite) TestCalculateActuarialRatesCertifiesPooledFactors() {
	input := technologyInput()
	input.Demographics.HealthStatus = &domain.HealthStatusMix{Good: dec("0.7"), Fair: dec("0.3")}
	input.Demographics.IndustryRisk = "high"
	input.HistoricalClaims = &domain.HistoricalClaimsData{LossRatio: dec("0.55")}

	result, err := s.engine.CalculateActuarialRates(context.Background(), input)
	s.Require().NoError(err)

	s.Equal(domain.CertifiedWithAdjustments, result.Certification.Status)
	s.False(result.Compliance.RequiresRepricing)
	for _, v := range result.Compliance.Violations {
		s.NotEqual(domain.RuleProhibitedFactor, v.Rule)
	}
	s.Len(result.Compliance.Disclosures, 3)
	for _, d := range result.Compliance.Disclosures {
		s.Equal(domain.RuleProhibitedFactor, d.Rule)
	}
}

func (s *PremiumEngineSuite) TestCalculateActuarialRatesRejectsBadBenefits() {
	input := technologyInput()
	input.Benefits.Deductible = dec("-100")

	_, err := s.engine.CalculateActuarialRates(context.Background(), input)
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.TypeInput))
}

func TestEngineWithoutDataSource(t *testing.T) {
	engine, err := NewPremiumEngine(domain.DefaultRatingTables(), nil)
	require.NoError(t, err)

	result, err := engine.CalculateRiskAdjustedPremium(context.Background(), domain.CalculationInput{MemberID: "m1"})
	require.NoError(t, err)

	assert.True(t, result.BasePremium.Equal(dec("450")))
	assert.Equal(t, domain.MethodologyHybrid, result.Methodology)
	assert.NotEmpty(t, result.ID)
}

func TestNewPremiumEngineRejectsInvalidTables(t *testing.T) {
	tables := domain.DefaultRatingTables()
	tables.Loadings.Administrative = dec("0.9")

	_, err := NewPremiumEngine(tables, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestGenerateActuarialProjections(t *testing.T) {
	engine, err := NewPremiumEngine(domain.DefaultRatingTables(), nil)
	require.NoError(t, err)

	projections, err := engine.GenerateActuarialProjections(dec("1000"), &domain.Demographics{AverageAge: dec("52")}, 2)
	require.NoError(t, err)
	require.Len(t, projections, 2)
	assert.True(t, projections[0].Equal(dec("1072")))
	assert.True(t, projections[1].Equal(dec("1149.18")))
	assert.True(t, engine.ProjectionRate(&domain.Demographics{AverageAge: dec("52")}).Equal(dec("0.072")))

	projection := domain.NewPremiumProjection(dec("1000"), dec("0.072"), projections)
	assert.Equal(t, 2, projection.Years[1].Year)
	assert.True(t, projection.Years[1].CumulativeIncrease.Equal(dec("14.92")))
	assert.True(t, projection.Final().Equal(dec("1149.18")))

	_, err = engine.GenerateActuarialProjections(dec("1000"), nil, 0)
	assert.Error(t, err)
}
