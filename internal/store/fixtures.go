// Package store holds the record fixtures shared by the data source implementations.
package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// Fixtures is the on-disk layout of seed records
type Fixtures struct {
	Periods         []domain.Period         `yaml:"periods"`
	PremiumRates    []domain.PremiumRate    `yaml:"premium_rates"`
	RiskAssessments []domain.RiskAssessment `yaml:"risk_assessments"`
	Claims          []domain.ClaimsRecord   `yaml:"claims"`
}

// LoadFixtures reads and validates a YAML fixture file
func LoadFixtures(filename string) (*Fixtures, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures %s: %w", filename, err)
	}

	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "failed to parse fixtures", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that every record carries its key
func (f Fixtures) Validate() error {
	for i, p := range f.Periods {
		if p.ID == "" {
			return errors.Newf(errors.TypeConfig, "period %d: id is required", i)
		}
	}
	for i, r := range f.PremiumRates {
		if r.PeriodID == "" {
			return errors.Newf(errors.TypeConfig, "premium rate %d: period_id is required", i)
		}
	}
	for i, a := range f.RiskAssessments {
		if a.MemberID == "" {
			return errors.Newf(errors.TypeConfig, "risk assessment %d: member_id is required", i)
		}
	}
	for i, c := range f.Claims {
		if c.CompanyID == "" || c.PeriodID == "" {
			return errors.Newf(errors.TypeConfig, "claims %d: company_id and period_id are required", i)
		}
	}
	return nil
}
