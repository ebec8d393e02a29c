package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

var hundred = decimal.NewFromInt(100)

// SensitivityAnalyzer performs parameter sweep and scenario analysis on the
// gross PMPM rate
type SensitivityAnalyzer struct {
	tables  domain.RatingTables
	builder *ActuarialBaseRateBuilder
	loader  *ExpenseLoader
}

// NewSensitivityAnalyzer creates a new sensitivity analyzer
func NewSensitivityAnalyzer(tables domain.RatingTables) (*SensitivityAnalyzer, error) {
	loader, err := NewExpenseLoader(tables.Loadings)
	if err != nil {
		return nil, err
	}
	return &SensitivityAnalyzer{
		tables:  tables,
		builder: NewActuarialBaseRateBuilder(tables),
		loader:  loader,
	}, nil
}

// GrossRate prices input under the given parameter values. Parameters missing
// from values take their base value.
func (sa *SensitivityAnalyzer) GrossRate(input domain.ActuarialInput, values map[string]decimal.Decimal) (decimal.Decimal, error) {
	v := domain.BaseParameterValues()
	for name, value := range values {
		v[name] = value
	}

	trend := sa.tables.Trend
	if input.Trend != nil {
		trend = *input.Trend
	}
	shifted := trend.Shift(v[domain.ParamMedicalTrend])
	modified := input
	modified.Trend = &shifted

	base, err := sa.builder.BaseCost(modified, sa.tables.Constraints(input.Jurisdiction))
	if err != nil {
		return decimal.Zero, err
	}

	one := decimal.NewFromInt(1)
	utilization := one.Add(v[domain.ParamUtilization])
	riskMix := one.Add(v[domain.ParamRiskMix])
	offset := one.Sub(v[domain.ParamInvestmentReturn].Mul(sa.tables.Pricing.ReserveHoldingYears))
	for name, m := range map[string]decimal.Decimal{
		domain.ParamUtilization:      utilization,
		domain.ParamRiskMix:          riskMix,
		domain.ParamInvestmentReturn: offset,
	} {
		if m.IsNegative() {
			return decimal.Zero, errors.Newf(errors.TypeInput, "%s produces a negative multiplier %s", name, m)
		}
	}

	cost := base.PMPM.Mul(utilization).Mul(riskMix)
	return sa.loader.Load(cost).Mul(offset), nil
}

// AnalyzeSingleParameter sweeps one parameter with every other parameter at its base
func (sa *SensitivityAnalyzer) AnalyzeSingleParameter(
	input domain.ActuarialInput,
	parameter domain.SensitivityParameter,
) (*domain.ParameterSensitivityAnalysis, error) {

	baseRate, err := sa.GrossRate(input, map[string]decimal.Decimal{parameter.Name: parameter.BaseValue})
	if err != nil {
		return nil, fmt.Errorf("failed to price base case: %w", err)
	}

	results, err := sa.sweep(input, parameter, baseRate)
	if err != nil {
		return nil, err
	}

	return &domain.ParameterSensitivityAnalysis{
		BaseRate:     baseRate.Round(2),
		Parameters:   []domain.SensitivityParameter{parameter},
		Results:      results,
		Summary:      sa.calculateSensitivitySummary(map[string][]domain.SensitivityResult{parameter.Name: results}),
		AnalysisType: "single",
	}, nil
}

// AnalyzeMultipleParameters sweeps each parameter independently and ranks them
func (sa *SensitivityAnalyzer) AnalyzeMultipleParameters(
	input domain.ActuarialInput,
	parameters []domain.SensitivityParameter,
) (*domain.ParameterSensitivityAnalysis, error) {

	baseRate, err := sa.GrossRate(input, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to price base case: %w", err)
	}

	byParam := make(map[string][]domain.SensitivityResult, len(parameters))
	allResults := make([]domain.SensitivityResult, 0)
	for _, param := range parameters {
		results, err := sa.sweep(input, param, baseRate)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze parameter %s: %w", param.Name, err)
		}
		byParam[param.Name] = results
		allResults = append(allResults, results...)
	}

	return &domain.ParameterSensitivityAnalysis{
		BaseRate:     baseRate.Round(2),
		Parameters:   parameters,
		Results:      allResults,
		Summary:      sa.calculateSensitivitySummary(byParam),
		AnalysisType: "multi",
	}, nil
}

// AnalyzeScenarios prices each named scenario and bounds the outcome range
// relative to the all-base case
func (sa *SensitivityAnalyzer) AnalyzeScenarios(input domain.ActuarialInput, scenarios []domain.PricingScenario) (*domain.ScenarioAnalysis, error) {
	if len(scenarios) == 0 {
		return nil, errors.Input("at least one scenario is required")
	}

	baseRate, err := sa.GrossRate(input, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to price base case: %w", err)
	}

	analysis := &domain.ScenarioAnalysis{BaseRate: baseRate.Round(2)}
	for i, scenario := range scenarios {
		rate, err := sa.GrossRate(input, scenario.Values)
		if err != nil {
			return nil, fmt.Errorf("failed to price scenario %s: %w", scenario.Name, err)
		}
		rate = rate.Round(2)
		analysis.Outcomes = append(analysis.Outcomes, domain.ScenarioOutcome{
			Name:          scenario.Name,
			Rate:          rate,
			RateChangePct: percentChange(rate, analysis.BaseRate),
		})
		if i == 0 || rate.LessThan(analysis.Low) {
			analysis.Low = rate
		}
		if i == 0 || rate.GreaterThan(analysis.High) {
			analysis.High = rate
		}
	}
	if analysis.BaseRate.IsPositive() {
		analysis.SpreadPct = analysis.High.Sub(analysis.Low).Div(analysis.BaseRate).Mul(hundred).Round(2)
	}
	return analysis, nil
}

func (sa *SensitivityAnalyzer) sweep(input domain.ActuarialInput, parameter domain.SensitivityParameter, baseRate decimal.Decimal) ([]domain.SensitivityResult, error) {
	values := sa.generateParameterValues(parameter)
	results := make([]domain.SensitivityResult, 0, len(values))

	for _, value := range values {
		rate, err := sa.GrossRate(input, map[string]decimal.Decimal{parameter.Name: value})
		if err != nil {
			return nil, fmt.Errorf("failed to price %s=%s: %w", parameter.Name, value, err)
		}

		result := domain.SensitivityResult{
			ParameterValues: map[string]decimal.Decimal{parameter.Name: value},
			ScenarioName:    fmt.Sprintf("%s_%.3f", parameter.Name, value.InexactFloat64()),
			Rate:            rate.Round(2),
			RateChange:      rate.Sub(baseRate).Round(2),
			RateChangePct:   percentChange(rate, baseRate),
		}

		paramChange := parameterChange(parameter, value)
		if !paramChange.IsZero() {
			result.Elasticity = result.RateChangePct.Abs().Div(paramChange.Abs()).Round(4)
		}
		results = append(results, result)
	}
	return results, nil
}

// generateParameterValues generates values for a parameter sweep
func (sa *SensitivityAnalyzer) generateParameterValues(param domain.SensitivityParameter) []decimal.Decimal {
	if param.Steps <= 1 {
		return []decimal.Decimal{param.BaseValue}
	}

	values := make([]decimal.Decimal, 0, param.Steps)
	stepSize := param.MaxValue.Sub(param.MinValue).Div(decimal.NewFromInt(int64(param.Steps - 1)))
	for i := 0; i < param.Steps; i++ {
		values = append(values, param.MinValue.Add(stepSize.Mul(decimal.NewFromInt(int64(i)))))
	}
	return values
}

// calculateSensitivitySummary scores each parameter by its largest elasticity
func (sa *SensitivityAnalyzer) calculateSensitivitySummary(byParam map[string][]domain.SensitivityResult) domain.SensitivitySummary {
	scores := make(map[string]decimal.Decimal, len(byParam))
	maxScore := decimal.NewFromInt(-1)
	mostSensitive := ""

	for _, name := range sortedKeys(byParam) {
		score := decimal.Zero
		for _, r := range byParam[name] {
			if r.Elasticity.GreaterThan(score) {
				score = r.Elasticity
			}
		}
		scores[name] = score
		if score.GreaterThan(maxScore) {
			maxScore = score
			mostSensitive = name
		}
	}

	summary := domain.SensitivitySummary{
		MostSensitiveParameter: mostSensitive,
		SensitivityScores:      scores,
	}
	summary.RiskLevel = summary.DetermineRiskLevel()
	summary.Recommendations = summary.GenerateRecommendations()
	return summary
}

// parameterChange returns the percent change from base, or the change in
// percentage points for parameters whose base is zero
func parameterChange(param domain.SensitivityParameter, value decimal.Decimal) decimal.Decimal {
	delta := value.Sub(param.BaseValue)
	if param.BaseValue.IsZero() {
		return delta.Mul(hundred)
	}
	return delta.Div(param.BaseValue).Mul(hundred)
}

func percentChange(value, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return value.Sub(base).Div(base).Mul(hundred).Round(4)
}
