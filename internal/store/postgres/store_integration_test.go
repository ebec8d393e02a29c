//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/rgehrsitz/premiumcalc/internal/calculation"
	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/store"
	"github.com/rgehrsitz/premiumcalc/internal/store/postgres"
)

var _ calculation.DataSource = (*postgres.Store)(nil)

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	store     *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("premium"),
		tcpostgres.WithUsername("premium"),
		tcpostgres.WithPassword("premium"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.store, err = postgres.Open(ctx, dsn)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Migrate(ctx))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	base := decimal.NewFromInt(500)

	s.Require().NoError(s.store.Seed(ctx, store.Fixtures{
		Periods: []domain.Period{
			{ID: "P1", Name: "2024", StartDate: date(2024, 1, 1), EndDate: date(2024, 12, 31)},
			{ID: "P2", Name: "2025", StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31), Active: true},
		},
		PremiumRates: []domain.PremiumRate{
			{PeriodID: "P1", TaxRate: decimal.NewFromFloat(0.015)},
			{PeriodID: "P2", TaxRate: decimal.NewFromFloat(0.02), BaseRate: &base},
		},
		RiskAssessments: []domain.RiskAssessment{
			{MemberID: "m1", OverallRiskScore: decimal.NewFromInt(88), AssessedAt: date(2024, 6, 1)},
			{MemberID: "m1", OverallRiskScore: decimal.NewFromInt(72), AssessedAt: date(2025, 2, 1)},
		},
		Claims: []domain.ClaimsRecord{
			{CompanyID: "C1", PeriodID: "P2", Claims: domain.HistoricalClaimsData{
				LossRatio:       decimal.NewFromFloat(0.95),
				ClaimFrequency:  decimal.NewFromFloat(3.2),
				AverageSeverity: decimal.NewFromInt(1800),
				TrendYears:      3,
			}},
		},
	}))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) TestActivePeriod() {
	period, err := s.store.GetActivePeriod(context.Background())
	s.Require().NoError(err)
	s.Require().NotNil(period)
	s.Equal("P2", period.ID)
	s.True(period.StartDate.Equal(date(2025, 1, 1)))
}

func (s *PostgresStoreSuite) TestPremiumRate() {
	ctx := context.Background()

	rate, err := s.store.GetPremiumRateByPeriod(ctx, "P2")
	s.Require().NoError(err)
	s.Require().NotNil(rate.BaseRate)
	s.True(rate.BaseRate.Equal(decimal.NewFromInt(500)))
	s.True(rate.TaxRate.Equal(decimal.NewFromFloat(0.02)))

	rate, err = s.store.GetPremiumRateByPeriod(ctx, "P1")
	s.Require().NoError(err)
	s.Nil(rate.BaseRate)

	rate, err = s.store.GetPremiumRateByPeriod(ctx, "P9")
	s.NoError(err)
	s.Nil(rate)
}

func (s *PostgresStoreSuite) TestLatestRiskAssessment() {
	ctx := context.Background()

	assessment, err := s.store.GetRiskAssessment(ctx, "m1")
	s.Require().NoError(err)
	s.Require().NotNil(assessment)
	s.True(assessment.OverallRiskScore.Equal(decimal.NewFromInt(72)))

	missing, err := s.store.GetRiskAssessment(ctx, "nobody")
	s.NoError(err)
	s.Nil(missing)
}

func (s *PostgresStoreSuite) TestHistoricalClaims() {
	ctx := context.Background()

	claims, err := s.store.GetHistoricalClaims(ctx, "C1", "P2")
	s.Require().NoError(err)
	s.Require().NotNil(claims)
	s.True(claims.LossRatio.Equal(decimal.NewFromFloat(0.95)))
	s.Equal(3, claims.TrendYears)

	missing, err := s.store.GetHistoricalClaims(ctx, "C2", "P2")
	s.NoError(err)
	s.Nil(missing)
}
