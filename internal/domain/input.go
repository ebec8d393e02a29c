package domain

import (
	"github.com/shopspring/decimal"
)

// CalculationInput describes one pricing request for a member or a group.
// It is treated as an immutable value by every stage of the pipeline.
type CalculationInput struct {
	MemberID     string   `yaml:"member_id" json:"memberId"`
	MemberIDs    []string `yaml:"member_ids" json:"memberIds,omitempty"` // Non-empty for group requests
	CompanyID    string   `yaml:"company_id" json:"companyId,omitempty"`
	PeriodID     string   `yaml:"period_id" json:"periodId,omitempty"` // Empty resolves the active period
	Jurisdiction string   `yaml:"jurisdiction" json:"jurisdiction,omitempty"`

	BaseRate         *decimal.Decimal      `yaml:"base_rate" json:"baseRate,omitempty"` // PMPM override
	Demographics     *Demographics         `yaml:"demographics" json:"demographics,omitempty"`
	Family           *FamilyComposition    `yaml:"family" json:"family,omitempty"`
	Benefits         *BenefitDesign        `yaml:"benefits" json:"benefits,omitempty"`
	HistoricalClaims *HistoricalClaimsData `yaml:"historical_claims" json:"historicalClaims,omitempty"`
	Trend            *TrendRates           `yaml:"trend" json:"trend,omitempty"`
	ProjectionYears  *int                  `yaml:"projection_years" json:"projectionYears,omitempty"`
	Discounts        []Discount            `yaml:"discounts" json:"discounts,omitempty"`

	DataQualityScore decimal.Decimal `yaml:"data_quality_score" json:"dataQualityScore"` // 0-100
}

// IsGroup reports whether the request prices a group of members.
func (ci CalculationInput) IsGroup() bool {
	return len(ci.MemberIDs) > 0
}

// Members returns the member identifiers whose risk assessments should be resolved.
func (ci CalculationInput) Members() []string {
	if ci.IsGroup() {
		return ci.MemberIDs
	}
	if ci.MemberID == "" {
		return nil
	}
	return []string{ci.MemberID}
}

// Subject returns a human readable identifier for logging.
func (ci CalculationInput) Subject() string {
	if ci.IsGroup() {
		if ci.CompanyID != "" {
			return "group:" + ci.CompanyID
		}
		return "group"
	}
	return "member:" + ci.MemberID
}

// Demographics captures the rating-relevant population characteristics.
type Demographics struct {
	AgeDistribution map[string]int   `yaml:"age_distribution" json:"ageDistribution,omitempty"` // band label -> member count
	AverageAge      decimal.Decimal  `yaml:"average_age" json:"averageAge"`
	Gender          *GenderMix       `yaml:"gender" json:"gender,omitempty"`
	HealthStatus    *HealthStatusMix `yaml:"health_status" json:"healthStatus,omitempty"`
	IndustryRisk    string           `yaml:"industry_risk" json:"industryRisk,omitempty"` // low | medium | high
	Industry        string           `yaml:"industry" json:"industry,omitempty"`
	Region          string           `yaml:"region" json:"region,omitempty"`
	State           string           `yaml:"state" json:"state,omitempty"`
	CostIndex       *decimal.Decimal `yaml:"cost_index" json:"costIndex,omitempty"`
}

// MemberCount returns the number of members across all age bands.
func (d Demographics) MemberCount() int {
	total := 0
	for _, count := range d.AgeDistribution {
		total += count
	}
	return total
}

// GenderMix holds population shares by gender; shares are normalized by their sum.
type GenderMix struct {
	Male   decimal.Decimal `yaml:"male" json:"male"`
	Female decimal.Decimal `yaml:"female" json:"female"`
}

// HealthStatusMix holds population shares by self-reported health status.
type HealthStatusMix struct {
	Excellent decimal.Decimal `yaml:"excellent" json:"excellent"`
	Good      decimal.Decimal `yaml:"good" json:"good"`
	Fair      decimal.Decimal `yaml:"fair" json:"fair"`
	Poor      decimal.Decimal `yaml:"poor" json:"poor"`
}

// FamilyComposition describes the covered family unit.
type FamilyComposition struct {
	Principal    int  `yaml:"principal" json:"principal"`
	Spouse       int  `yaml:"spouse" json:"spouse"`
	Children     int  `yaml:"children" json:"children"`
	SpecialNeeds int  `yaml:"special_needs" json:"specialNeeds"`
	SingleParent bool `yaml:"single_parent" json:"singleParent"`
}

// Size returns the number of covered persons.
func (fc FamilyComposition) Size() int {
	return fc.Principal + fc.Spouse + fc.Children
}

// BenefitDesign describes plan cost-sharing.
type BenefitDesign struct {
	Deductible     decimal.Decimal `yaml:"deductible" json:"deductible"`
	Coinsurance    decimal.Decimal `yaml:"coinsurance" json:"coinsurance"` // member share, e.g. 0.20
	OutOfPocketMax decimal.Decimal `yaml:"out_of_pocket_max" json:"outOfPocketMax"`
	NetworkType    string          `yaml:"network_type" json:"networkType"`       // hmo | epo | pos | ppo | indemnity
	CopayStructure string          `yaml:"copay_structure" json:"copayStructure"` // low | standard | high
}

// HistoricalClaimsData summarizes prior claims experience.
type HistoricalClaimsData struct {
	LossRatio       decimal.Decimal `yaml:"loss_ratio" json:"lossRatio"`
	ClaimFrequency  decimal.Decimal `yaml:"claim_frequency" json:"claimFrequency"`
	AverageSeverity decimal.Decimal `yaml:"average_severity" json:"averageSeverity"`
	TrendYears      int             `yaml:"trend_years" json:"trendYears"`
}

// Discount is a named fractional reduction, e.g. a wellness-program credit.
type Discount struct {
	Name string          `yaml:"name" json:"name"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// ActuarialInput is the request for the actuarial rate builder.
type ActuarialInput struct {
	Jurisdiction     string                `yaml:"jurisdiction" json:"jurisdiction"`
	Demographics     Demographics          `yaml:"demographics" json:"demographics"`
	Benefits         BenefitDesign         `yaml:"benefits" json:"benefits"`
	Family           *FamilyComposition    `yaml:"family" json:"family,omitempty"`
	HistoricalClaims *HistoricalClaimsData `yaml:"historical_claims" json:"historicalClaims,omitempty"`
	Trend            *TrendRates           `yaml:"trend" json:"trend,omitempty"`
	ProjectionYears  *int                  `yaml:"projection_years" json:"projectionYears,omitempty"`
	SmokerSurcharge  *decimal.Decimal      `yaml:"smoker_surcharge" json:"smokerSurcharge,omitempty"`
}
