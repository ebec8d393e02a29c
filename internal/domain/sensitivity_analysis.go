package domain

import (
	"github.com/shopspring/decimal"
)

// Sensitivity parameter names
const (
	ParamMedicalTrend     = "medical_trend"
	ParamUtilization      = "utilization"
	ParamInvestmentReturn = "investment_return"
	ParamRiskMix          = "risk_mix"
)

// Risk levels reported by sensitivity summaries
const (
	RiskLevelLow      = "LOW"
	RiskLevelMedium   = "MEDIUM"
	RiskLevelHigh     = "HIGH"
	RiskLevelCritical = "CRITICAL"
)

// SensitivityParameter represents a pricing assumption to sweep
type SensitivityParameter struct {
	Name        string          `yaml:"name" json:"name"`
	MinValue    decimal.Decimal `yaml:"min_value" json:"minValue"`
	MaxValue    decimal.Decimal `yaml:"max_value" json:"maxValue"`
	Steps       int             `yaml:"steps" json:"steps"`
	BaseValue   decimal.Decimal `yaml:"base_value" json:"baseValue"`
	Unit        string          `yaml:"unit" json:"unit"` // "percent", "ratio"
	Description string          `yaml:"description" json:"description"`
}

// ParameterSensitivityAnalysis represents a complete parameter sensitivity analysis
type ParameterSensitivityAnalysis struct {
	BaseRate     decimal.Decimal        `json:"baseRate"`
	Parameters   []SensitivityParameter `json:"parameters"`
	Results      []SensitivityResult    `json:"results"`
	Summary      SensitivitySummary     `json:"summary"`
	AnalysisType string                 `json:"analysisType"` // "single", "multi"
}

// SensitivityResult is the gross rate produced at one point of a sweep
type SensitivityResult struct {
	ParameterValues map[string]decimal.Decimal `json:"parameterValues"`
	ScenarioName    string                     `json:"scenarioName"`
	Rate            decimal.Decimal            `json:"rate"`
	RateChange      decimal.Decimal            `json:"rateChange"`
	RateChangePct   decimal.Decimal            `json:"rateChangePct"`
	Elasticity      decimal.Decimal            `json:"elasticity"`
}

// SensitivitySummary provides overall analysis summary
type SensitivitySummary struct {
	MostSensitiveParameter string                     `json:"mostSensitiveParameter"`
	SensitivityScores      map[string]decimal.Decimal `json:"sensitivityScores"`
	Recommendations        []string                   `json:"recommendations"`
	RiskLevel              string                     `json:"riskLevel"` // "LOW", "MEDIUM", "HIGH", "CRITICAL"
}

// SensitivityConfig represents configuration for sensitivity analysis
type SensitivityConfig struct {
	Parameters []SensitivityParameter `yaml:"parameters" json:"parameters"`
	Scenarios  []PricingScenario      `yaml:"scenarios" json:"scenarios"`
}

// PricingScenario is a named combination of parameter values
type PricingScenario struct {
	Name   string                     `yaml:"name" json:"name"`
	Values map[string]decimal.Decimal `yaml:"values" json:"values"`
}

// ScenarioOutcome is the gross rate produced by one scenario
type ScenarioOutcome struct {
	Name          string          `json:"name"`
	Rate          decimal.Decimal `json:"rate"`
	RateChangePct decimal.Decimal `json:"rateChangePct"`
}

// ScenarioAnalysis bounds the outcome across named scenarios
type ScenarioAnalysis struct {
	BaseRate  decimal.Decimal   `json:"baseRate"`
	Outcomes  []ScenarioOutcome `json:"outcomes"`
	Low       decimal.Decimal   `json:"low"`
	High      decimal.Decimal   `json:"high"`
	SpreadPct decimal.Decimal   `json:"spreadPct"`
}

// Common sensitivity parameters
var (
	MedicalTrendParam = SensitivityParameter{
		Name:        ParamMedicalTrend,
		MinValue:    decimal.NewFromFloat(-0.02),
		MaxValue:    decimal.NewFromFloat(0.02),
		Steps:       5,
		BaseValue:   decimal.Zero,
		Unit:        "percent",
		Description: "Shift applied to every category trend rate",
	}

	UtilizationParam = SensitivityParameter{
		Name:        ParamUtilization,
		MinValue:    decimal.NewFromFloat(-0.10),
		MaxValue:    decimal.NewFromFloat(0.10),
		Steps:       5,
		BaseValue:   decimal.Zero,
		Unit:        "percent",
		Description: "Change in service utilization relative to the cost model",
	}

	InvestmentReturnParam = SensitivityParameter{
		Name:        ParamInvestmentReturn,
		MinValue:    decimal.NewFromFloat(0.01),
		MaxValue:    decimal.NewFromFloat(0.06),
		Steps:       6,
		BaseValue:   decimal.NewFromFloat(0.035),
		Unit:        "percent",
		Description: "Return earned on reserves held before claims are paid",
	}

	RiskMixParam = SensitivityParameter{
		Name:        ParamRiskMix,
		MinValue:    decimal.NewFromFloat(-0.10),
		MaxValue:    decimal.NewFromFloat(0.15),
		Steps:       6,
		BaseValue:   decimal.Zero,
		Unit:        "percent",
		Description: "Shift in enrolled population morbidity",
	}
)

// GetCommonParameters returns a list of common sensitivity parameters
func GetCommonParameters() []SensitivityParameter {
	return []SensitivityParameter{
		MedicalTrendParam,
		UtilizationParam,
		InvestmentReturnParam,
		RiskMixParam,
	}
}

// BaseParameterValues returns the base value of every common parameter
func BaseParameterValues() map[string]decimal.Decimal {
	values := make(map[string]decimal.Decimal)
	for _, p := range GetCommonParameters() {
		values[p.Name] = p.BaseValue
	}
	return values
}

// DefaultScenarios returns the favorable, expected and adverse pricing scenarios
func DefaultScenarios() []PricingScenario {
	return []PricingScenario{
		{
			Name: "favorable",
			Values: map[string]decimal.Decimal{
				ParamMedicalTrend:     decimal.NewFromFloat(-0.01),
				ParamUtilization:      decimal.NewFromFloat(-0.05),
				ParamInvestmentReturn: decimal.NewFromFloat(0.05),
				ParamRiskMix:          decimal.NewFromFloat(-0.05),
			},
		},
		{
			Name:   "expected",
			Values: BaseParameterValues(),
		},
		{
			Name: "adverse",
			Values: map[string]decimal.Decimal{
				ParamMedicalTrend:     decimal.NewFromFloat(0.02),
				ParamUtilization:      decimal.NewFromFloat(0.08),
				ParamInvestmentReturn: decimal.NewFromFloat(0.01),
				ParamRiskMix:          decimal.NewFromFloat(0.10),
			},
		},
	}
}

// DetermineRiskLevel determines the risk level from the largest elasticity
func (ss *SensitivitySummary) DetermineRiskLevel() string {
	maxScore := decimal.Zero
	for _, score := range ss.SensitivityScores {
		if score.GreaterThan(maxScore) {
			maxScore = score
		}
	}

	if maxScore.LessThan(decimal.NewFromFloat(0.5)) {
		return RiskLevelLow
	} else if maxScore.LessThan(decimal.NewFromFloat(1.5)) {
		return RiskLevelMedium
	} else if maxScore.LessThan(decimal.NewFromInt(3)) {
		return RiskLevelHigh
	} else {
		return RiskLevelCritical
	}
}

// GenerateRecommendations generates recommendations based on sensitivity analysis
func (ss *SensitivitySummary) GenerateRecommendations() []string {
	recommendations := []string{}

	switch ss.DetermineRiskLevel() {
	case RiskLevelLow:
		recommendations = append(recommendations, "Rates are robust to assumption changes")
		recommendations = append(recommendations, "Current assumptions appear reasonable")
	case RiskLevelMedium:
		recommendations = append(recommendations, "Monitor key assumptions each rating cycle")
		recommendations = append(recommendations, "Consider a margin on the most sensitive assumption")
	case RiskLevelHigh:
		recommendations = append(recommendations, "Rates are sensitive to assumption changes")
		recommendations = append(recommendations, "Stress test with the adverse scenario before filing")
		recommendations = append(recommendations, "Review assumptions quarterly")
	case RiskLevelCritical:
		recommendations = append(recommendations, "Rates are highly sensitive to assumption changes")
		recommendations = append(recommendations, "Add an explicit risk margin")
		recommendations = append(recommendations, "Consider reinsurance for adverse deviation")
		recommendations = append(recommendations, "Review assumptions monthly")
	}

	switch ss.MostSensitiveParameter {
	case ParamMedicalTrend:
		recommendations = append(recommendations, "Refresh trend assumptions with recent claims data")
	case ParamUtilization:
		recommendations = append(recommendations, "Track utilization against the cost model")
	case ParamInvestmentReturn:
		recommendations = append(recommendations, "Revisit the reserve investment assumption")
	case ParamRiskMix:
		recommendations = append(recommendations, "Monitor enrollment mix for adverse selection")
	}

	return recommendations
}
