package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a rating period
type Period struct {
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	StartDate time.Time `yaml:"start_date" json:"startDate"`
	EndDate   time.Time `yaml:"end_date" json:"endDate"`
	Active    bool      `yaml:"active" json:"active"`
}

// PremiumRate holds the per-period rate parameters
type PremiumRate struct {
	PeriodID string           `yaml:"period_id" json:"periodId"`
	TaxRate  decimal.Decimal  `yaml:"tax_rate" json:"taxRate"`
	BaseRate *decimal.Decimal `yaml:"base_rate" json:"baseRate,omitempty"`
}

// RiskAssessment is a member's most recent risk score
type RiskAssessment struct {
	MemberID         string          `yaml:"member_id" json:"memberId"`
	OverallRiskScore decimal.Decimal `yaml:"overall_risk_score" json:"overallRiskScore"`
	AssessedAt       time.Time       `yaml:"assessed_at" json:"assessedAt"`
}

// ClaimsRecord associates historical claims with a company and period
type ClaimsRecord struct {
	CompanyID string               `yaml:"company_id" json:"companyId"`
	PeriodID  string               `yaml:"period_id" json:"periodId"`
	Claims    HistoricalClaimsData `yaml:"claims" json:"claims"`
}
