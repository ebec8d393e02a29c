// Package postgres provides a PostgreSQL-backed DataSource.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
	"github.com/rgehrsitz/premiumcalc/internal/store"
)

//go:embed schema.sql
var schema string

// Store reads rating records from PostgreSQL.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.DataUnavailable("postgres", err)
	}
	return New(db), nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the rating tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// GetActivePeriod returns the active period with the latest start date.
func (s *Store) GetActivePeriod(ctx context.Context) (*domain.Period, error) {
	query := `
		SELECT id, name, start_date, end_date, active
		FROM periods
		WHERE active
		ORDER BY start_date DESC, id DESC
		LIMIT 1
	`
	var p domain.Period
	err := s.db.QueryRowContext(ctx, query).Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, classify("get active period", err)
	}
	return &p, nil
}

// GetPremiumRateByPeriod returns the rate for a period.
func (s *Store) GetPremiumRateByPeriod(ctx context.Context, periodID string) (*domain.PremiumRate, error) {
	query := `SELECT period_id, tax_rate, base_rate FROM premium_rates WHERE period_id = $1`

	var r domain.PremiumRate
	var baseRate decimal.NullDecimal
	err := s.db.QueryRowContext(ctx, query, periodID).Scan(&r.PeriodID, &r.TaxRate, &baseRate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, classify("get premium rate", err)
	}
	if baseRate.Valid {
		r.BaseRate = &baseRate.Decimal
	}
	return &r, nil
}

// GetRiskAssessment returns the member's most recent assessment.
func (s *Store) GetRiskAssessment(ctx context.Context, memberID string) (*domain.RiskAssessment, error) {
	query := `
		SELECT member_id, overall_risk_score, assessed_at
		FROM risk_assessments
		WHERE member_id = $1
		ORDER BY assessed_at DESC, id DESC
		LIMIT 1
	`
	var a domain.RiskAssessment
	err := s.db.QueryRowContext(ctx, query, memberID).Scan(&a.MemberID, &a.OverallRiskScore, &a.AssessedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, classify("get risk assessment", err)
	}
	return &a, nil
}

// GetHistoricalClaims returns claims experience for a company and period.
func (s *Store) GetHistoricalClaims(ctx context.Context, companyID, periodID string) (*domain.HistoricalClaimsData, error) {
	query := `
		SELECT loss_ratio, claim_frequency, average_severity, trend_years
		FROM historical_claims
		WHERE company_id = $1 AND period_id = $2
	`
	var c domain.HistoricalClaimsData
	err := s.db.QueryRowContext(ctx, query, companyID, periodID).
		Scan(&c.LossRatio, &c.ClaimFrequency, &c.AverageSeverity, &c.TrendYears)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, classify("get historical claims", err)
	}
	return &c, nil
}

// Seed upserts fixture records in a single transaction.
func (s *Store) Seed(ctx context.Context, f store.Fixtures) (err error) {
	if err := f.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin seed", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range f.Periods {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO periods (id, name, start_date, end_date, active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				start_date = EXCLUDED.start_date,
				end_date = EXCLUDED.end_date,
				active = EXCLUDED.active
		`, p.ID, p.Name, p.StartDate, p.EndDate, p.Active)
		if err != nil {
			return classify("seed period "+p.ID, err)
		}
	}

	for _, r := range f.PremiumRates {
		var baseRate decimal.NullDecimal
		if r.BaseRate != nil {
			baseRate = decimal.NewNullDecimal(*r.BaseRate)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO premium_rates (period_id, tax_rate, base_rate)
			VALUES ($1, $2, $3)
			ON CONFLICT (period_id) DO UPDATE SET
				tax_rate = EXCLUDED.tax_rate,
				base_rate = EXCLUDED.base_rate
		`, r.PeriodID, r.TaxRate, baseRate)
		if err != nil {
			return classify("seed premium rate "+r.PeriodID, err)
		}
	}

	for _, a := range f.RiskAssessments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO risk_assessments (member_id, overall_risk_score, assessed_at)
			VALUES ($1, $2, $3)
		`, a.MemberID, a.OverallRiskScore, a.AssessedAt)
		if err != nil {
			return classify("seed risk assessment "+a.MemberID, err)
		}
	}

	for _, c := range f.Claims {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO historical_claims (company_id, period_id, loss_ratio, claim_frequency, average_severity, trend_years)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (company_id, period_id) DO UPDATE SET
				loss_ratio = EXCLUDED.loss_ratio,
				claim_frequency = EXCLUDED.claim_frequency,
				average_severity = EXCLUDED.average_severity,
				trend_years = EXCLUDED.trend_years
		`, c.CompanyID, c.PeriodID, c.Claims.LossRatio, c.Claims.ClaimFrequency, c.Claims.AverageSeverity, c.Claims.TrendYears)
		if err != nil {
			return classify("seed claims "+c.CompanyID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return classify("commit seed", err)
	}
	return nil
}

// classify maps driver errors onto the engine's error types. A missing table
// is a deployment problem rather than an outage.
func classify(op string, err error) error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "42":
			return errors.Wrapf(errors.TypeConfig, err, "%s: %s", op, pqErr.Code.Name())
		case "23":
			return errors.Wrapf(errors.TypeInput, err, "%s: %s", op, pqErr.Code.Name())
		}
	}
	return errors.DataUnavailable(op, err)
}
