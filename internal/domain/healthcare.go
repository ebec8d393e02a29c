package domain

import (
	"github.com/shopspring/decimal"
)

// TrendRates represents annual cost trend by healthcare service category
type TrendRates struct {
	Hospital     decimal.Decimal `yaml:"hospital" json:"hospital"`
	Physician    decimal.Decimal `yaml:"physician" json:"physician"`
	Pharmacy     decimal.Decimal `yaml:"pharmacy" json:"pharmacy"`
	MentalHealth decimal.Decimal `yaml:"mental_health" json:"mentalHealth"`
	Preventive   decimal.Decimal `yaml:"preventive" json:"preventive"`
}

// Categories returns the trend rates in a fixed order
func (tr TrendRates) Categories() []decimal.Decimal {
	return []decimal.Decimal{tr.Hospital, tr.Physician, tr.Pharmacy, tr.MentalHealth, tr.Preventive}
}

// Mean returns the simple mean of the category rates
func (tr TrendRates) Mean() decimal.Decimal {
	rates := tr.Categories()
	sum := decimal.Zero
	for _, r := range rates {
		sum = sum.Add(r)
	}
	return sum.Div(decimal.NewFromInt(int64(len(rates))))
}

// Shift returns a copy with delta added to every category
func (tr TrendRates) Shift(delta decimal.Decimal) TrendRates {
	return TrendRates{
		Hospital:     tr.Hospital.Add(delta),
		Physician:    tr.Physician.Add(delta),
		Pharmacy:     tr.Pharmacy.Add(delta),
		MentalHealth: tr.MentalHealth.Add(delta),
		Preventive:   tr.Preventive.Add(delta),
	}
}

// DefaultTrendRates returns default medical trend assumptions
func DefaultTrendRates() TrendRates {
	return TrendRates{
		Hospital:     decimal.NewFromFloat(0.065), // 6.5% annual increase
		Physician:    decimal.NewFromFloat(0.055), // 5.5% annual increase
		Pharmacy:     decimal.NewFromFloat(0.08),  // 8% annual increase
		MentalHealth: decimal.NewFromFloat(0.07),  // 7% annual increase
		Preventive:   decimal.NewFromFloat(0.04),  // 4% annual increase
	}
}

// HealthStatusFactors maps health status categories to relative cost
type HealthStatusFactors struct {
	Excellent decimal.Decimal `yaml:"excellent" json:"excellent"`
	Good      decimal.Decimal `yaml:"good" json:"good"`
	Fair      decimal.Decimal `yaml:"fair" json:"fair"`
	Poor      decimal.Decimal `yaml:"poor" json:"poor"`
}

// DefaultHealthStatusFactors returns default health status relative costs
func DefaultHealthStatusFactors() HealthStatusFactors {
	return HealthStatusFactors{
		Excellent: decimal.NewFromFloat(0.85),
		Good:      decimal.NewFromFloat(1.0),
		Fair:      decimal.NewFromFloat(1.2),
		Poor:      decimal.NewFromFloat(1.5),
	}
}

// GenderFactors maps gender to relative cost
type GenderFactors struct {
	Male   decimal.Decimal `yaml:"male" json:"male"`
	Female decimal.Decimal `yaml:"female" json:"female"`
}

// DefaultGenderFactors returns default gender relative costs
func DefaultGenderFactors() GenderFactors {
	return GenderFactors{
		Male:   decimal.NewFromFloat(0.95),
		Female: decimal.NewFromFloat(1.05),
	}
}

// BenefitDesignFactors holds the bounded multipliers derived from plan cost-sharing
type BenefitDesignFactors struct {
	DeductibleFloor   decimal.Decimal            `yaml:"deductible_floor" json:"deductibleFloor"`     // 0.8
	DeductibleCeiling decimal.Decimal            `yaml:"deductible_ceiling" json:"deductibleCeiling"` // 1.5
	DeductibleDivisor decimal.Decimal            `yaml:"deductible_divisor" json:"deductibleDivisor"` // 5000
	CoinsuranceFloor  decimal.Decimal            `yaml:"coinsurance_floor" json:"coinsuranceFloor"`   // 0.85
	CoinsuranceCap    decimal.Decimal            `yaml:"coinsurance_cap" json:"coinsuranceCap"`       // 1.1
	OOPFloor          decimal.Decimal            `yaml:"oop_floor" json:"oopFloor"`                   // 0.9
	OOPCeiling        decimal.Decimal            `yaml:"oop_ceiling" json:"oopCeiling"`               // 1.2
	OOPDivisor        decimal.Decimal            `yaml:"oop_divisor" json:"oopDivisor"`               // 20000
	Network           map[string]decimal.Decimal `yaml:"network" json:"network"`
	Copay             map[string]decimal.Decimal `yaml:"copay" json:"copay"`
}

// DefaultBenefitDesignFactors returns default benefit design multipliers
func DefaultBenefitDesignFactors() BenefitDesignFactors {
	return BenefitDesignFactors{
		DeductibleFloor:   decimal.NewFromFloat(0.8),
		DeductibleCeiling: decimal.NewFromFloat(1.5),
		DeductibleDivisor: decimal.NewFromInt(5000),
		CoinsuranceFloor:  decimal.NewFromFloat(0.85),
		CoinsuranceCap:    decimal.NewFromFloat(1.1),
		OOPFloor:          decimal.NewFromFloat(0.9),
		OOPCeiling:        decimal.NewFromFloat(1.2),
		OOPDivisor:        decimal.NewFromInt(20000),
		Network: map[string]decimal.Decimal{
			"hmo":       decimal.NewFromFloat(0.90),
			"epo":       decimal.NewFromFloat(0.95),
			"pos":       decimal.NewFromFloat(0.97),
			"ppo":       decimal.NewFromFloat(1.00),
			"indemnity": decimal.NewFromFloat(1.15),
		},
		Copay: map[string]decimal.Decimal{
			"low":      decimal.NewFromFloat(1.05),
			"standard": decimal.NewFromFloat(1.00),
			"high":     decimal.NewFromFloat(0.95),
		},
	}
}
