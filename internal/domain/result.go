package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Methodology identifies how a premium was produced
type Methodology string

const (
	MethodologyStandard     Methodology = "standard"
	MethodologyRiskAdjusted Methodology = "risk-adjusted"
	MethodologyHybrid       Methodology = "hybrid"
)

// PremiumResult is the immutable output of one premium calculation. A
// recalculation produces a new result whose SupersedesID points at the prior one.
type PremiumResult struct {
	ID           string `json:"id"`
	SupersedesID string `json:"supersedesId,omitempty"`

	Subject      string   `json:"subject"`
	MemberIDs    []string `json:"memberIds,omitempty"`
	CompanyID    string   `json:"companyId,omitempty"`
	PeriodID     string   `json:"periodId,omitempty"`
	Jurisdiction string   `json:"jurisdiction"`

	BasePremium     decimal.Decimal `json:"basePremium"`
	AdjustedPremium decimal.Decimal `json:"adjustedPremium"` // after risk/demographic/geo/inflation/experience
	PreTaxPremium   decimal.Decimal `json:"preTaxPremium"`   // after discounts and loading
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	FinalPremium    decimal.Decimal `json:"finalPremium"`

	Breakdown         []AdjustmentFactor `json:"breakdown"`
	RiskTier          string             `json:"riskTier,omitempty"`
	Methodology       Methodology        `json:"methodology"`
	ConfidenceScore   int                `json:"confidenceScore"`
	ConfidenceFactors []ConfidenceFactor `json:"confidenceFactors,omitempty"`
	Metadata          ResultMetadata     `json:"metadata"`
	CalculatedAt      time.Time          `json:"calculatedAt"`
}

// Factor returns the first breakdown entry with the given source
func (pr *PremiumResult) Factor(source FactorSource) (AdjustmentFactor, bool) {
	for _, f := range pr.Breakdown {
		if f.Source == source {
			return f, true
		}
	}
	return AdjustmentFactor{}, false
}

// ResultMetadata carries the audit context of a result
type ResultMetadata struct {
	Assumptions        []string `json:"assumptions"`
	CalculationVersion string   `json:"calculationVersion"`
	RegulatoryNotes    []string `json:"regulatoryNotes,omitempty"`
	StateTrail         []string `json:"stateTrail"`
	FallbackReason     string   `json:"fallbackReason,omitempty"`
	ResolvedRisk       int      `json:"resolvedRisk"`
	RequestedRisk      int      `json:"requestedRisk"`
}

// ComplianceRule identifies a regulatory check
type ComplianceRule string

const (
	RuleAgeCompression   ComplianceRule = "age_compression"
	RuleTobaccoRatio     ComplianceRule = "tobacco_ratio"
	RuleMinimumLossRatio ComplianceRule = "minimum_loss_ratio"
	RuleProhibitedFactor ComplianceRule = "prohibited_factor"
)

// Violation records one failed regulatory check
type Violation struct {
	Rule     ComplianceRule  `json:"rule"`
	Message  string          `json:"message"`
	Observed decimal.Decimal `json:"observed"`
	Limit    decimal.Decimal `json:"limit"`
	Adjusted bool            `json:"adjusted"` // rates were clamped to resolve it
}

// ComplianceReport lists violations and the actions taken. Violations are data,
// returned for disclosure rather than raised. Disclosures are findings that must
// be filed but do not bear on certification.
type ComplianceReport struct {
	Jurisdiction      string          `json:"jurisdiction"`
	Violations        []Violation     `json:"violations"`
	Disclosures       []Violation     `json:"disclosures,omitempty"`
	Actions           []string        `json:"actions"`
	Compliant         bool            `json:"compliant"`         // no violations found
	RequiresRepricing bool            `json:"requiresRepricing"` // an unresolved violation remains
	LossRatio         decimal.Decimal `json:"lossRatio"`
}

// CertificationStatus is the outcome of actuarial certification
type CertificationStatus string

const (
	Certified                CertificationStatus = "certified"
	CertifiedWithAdjustments CertificationStatus = "certified_with_adjustments"
	NotCertified             CertificationStatus = "not_certified"
)

// Certification states whether a rate filing is actuarially sound
type Certification struct {
	Status      CertificationStatus `json:"status"`
	Reasons     []string            `json:"reasons"`
	CertifiedAt time.Time           `json:"certifiedAt"`
}

// ActuarialRateResult is the output of the rate builder, loading, compliance and
// certification stages
type ActuarialRateResult struct {
	ID            string             `json:"id"`
	Jurisdiction  string             `json:"jurisdiction"`
	BaseCostPMPM  decimal.Decimal    `json:"baseCostPmpm"`
	Factors       []AdjustmentFactor `json:"factors"`
	UnloadedRates RateStructure      `json:"unloadedRates"`
	Rates         RateStructure      `json:"rates"`
	LoadingFactor decimal.Decimal    `json:"loadingFactor"`
	Compliance    ComplianceReport   `json:"compliance"`
	Certification Certification      `json:"certification"`
	Assumptions   []string           `json:"assumptions"`
	Version       string             `json:"version"`
}
