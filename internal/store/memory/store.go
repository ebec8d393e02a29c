// Package memory provides an in-memory DataSource, loadable from a YAML fixture file.
package memory

import (
	"context"
	"sync"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/store"
)

// Store is a concurrency-safe in-memory data source.
type Store struct {
	mu      sync.RWMutex
	periods map[string]domain.Period
	rates   map[string]domain.PremiumRate
	risk    map[string]domain.RiskAssessment
	claims  map[string]domain.HistoricalClaimsData
}

// New creates an empty store.
func New() *Store {
	return &Store{
		periods: make(map[string]domain.Period),
		rates:   make(map[string]domain.PremiumRate),
		risk:    make(map[string]domain.RiskAssessment),
		claims:  make(map[string]domain.HistoricalClaimsData),
	}
}

// NewFromFixtures creates a store seeded with the given records.
func NewFromFixtures(f store.Fixtures) *Store {
	s := New()
	for _, p := range f.Periods {
		s.PutPeriod(p)
	}
	for _, r := range f.PremiumRates {
		s.PutPremiumRate(r)
	}
	for _, a := range f.RiskAssessments {
		s.PutRiskAssessment(a)
	}
	for _, c := range f.Claims {
		s.PutHistoricalClaims(c.CompanyID, c.PeriodID, c.Claims)
	}
	return s
}

// Load reads a YAML fixture file into a new store.
func Load(filename string) (*Store, error) {
	f, err := store.LoadFixtures(filename)
	if err != nil {
		return nil, err
	}
	return NewFromFixtures(*f), nil
}

// PutPeriod stores or replaces a period.
func (s *Store) PutPeriod(p domain.Period) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[p.ID] = p
}

// PutPremiumRate stores or replaces the rate for a period.
func (s *Store) PutPremiumRate(r domain.PremiumRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[r.PeriodID] = r
}

// PutRiskAssessment records an assessment. Only the most recent assessment per
// member is kept.
func (s *Store) PutRiskAssessment(a domain.RiskAssessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.risk[a.MemberID]; ok && current.AssessedAt.After(a.AssessedAt) {
		return
	}
	s.risk[a.MemberID] = a
}

// PutHistoricalClaims stores claims experience for a company and period.
func (s *Store) PutHistoricalClaims(companyID, periodID string, claims domain.HistoricalClaimsData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[claimsKey(companyID, periodID)] = claims
}

// GetActivePeriod returns the active period with the latest start date.
func (s *Store) GetActivePeriod(ctx context.Context) (*domain.Period, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active *domain.Period
	for _, p := range s.periods {
		if !p.Active {
			continue
		}
		if active == nil || p.StartDate.After(active.StartDate) ||
			(p.StartDate.Equal(active.StartDate) && p.ID > active.ID) {
			active = &p
		}
	}
	return active, nil
}

// GetPremiumRateByPeriod returns the rate for a period, or nil when none is stored.
func (s *Store) GetPremiumRateByPeriod(ctx context.Context, periodID string) (*domain.PremiumRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rates[periodID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// GetRiskAssessment returns a member's latest assessment, or nil when none is stored.
func (s *Store) GetRiskAssessment(ctx context.Context, memberID string) (*domain.RiskAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.risk[memberID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// GetHistoricalClaims returns claims for a company and period, or nil when none are stored.
func (s *Store) GetHistoricalClaims(ctx context.Context, companyID, periodID string) (*domain.HistoricalClaimsData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.claims[claimsKey(companyID, periodID)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func claimsKey(companyID, periodID string) string {
	return companyID + "\x00" + periodID
}
