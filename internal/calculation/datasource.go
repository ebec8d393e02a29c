package calculation

import (
	"context"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

//go:generate mockgen -source=datasource.go -destination=mocks/mocks.go -package=mocks DataSource

// DataSource supplies the records the engine reads before pricing. Every method
// returns (nil, nil) when the record does not exist; an error means the source
// could not answer. Implementations should return once ctx is done; the engine
// stops waiting at the fetch timeout either way.
type DataSource interface {
	GetActivePeriod(ctx context.Context) (*domain.Period, error)
	GetPremiumRateByPeriod(ctx context.Context, periodID string) (*domain.PremiumRate, error)
	GetRiskAssessment(ctx context.Context, memberID string) (*domain.RiskAssessment, error)
	GetHistoricalClaims(ctx context.Context, companyID, periodID string) (*domain.HistoricalClaimsData, error)
}

// Fetch sources used for metrics and spans
const (
	SourcePeriod           = "period"
	SourcePremiumRate      = "premium_rate"
	SourceRiskAssessment   = "risk_assessment"
	SourceHistoricalClaims = "historical_claims"
)
