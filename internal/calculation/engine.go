package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
	"github.com/rgehrsitz/premiumcalc/internal/metrics"
)

const (
	tracerName = "github.com/rgehrsitz/premiumcalc/internal/calculation"

	// DefaultFetchConcurrency bounds concurrent risk assessment fetches
	DefaultFetchConcurrency = 8

	// DefaultFetchTimeout bounds each data source call
	DefaultFetchTimeout = 2 * time.Second
)

// PremiumEngine orchestrates data fetches and the premium pipeline. It holds no
// per-request state and is safe for concurrent use.
type PremiumEngine struct {
	tables  domain.RatingTables
	source  DataSource
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	newID        func() string
	now          func() time.Time
	concurrency  int
	fetchTimeout time.Duration

	risk        *RiskTierCalculator
	demographic DemographicCalculator
	family      FamilyCalculator
	geographic  GeographicCalculator
	inflation   InflationProjector
	experience  ExperienceRatingCalculator
	builder     *ActuarialBaseRateBuilder
	loader      *ExpenseLoader
	compliance  ComplianceValidator

	stages []stage
}

// Option configures a PremiumEngine
type Option func(*PremiumEngine)

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *PremiumEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *PremiumEngine) { e.metrics = m }
}

// WithTracer sets the tracer used for calculation spans
func WithTracer(tracer trace.Tracer) Option {
	return func(e *PremiumEngine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithIDGenerator sets the result identifier generator
func WithIDGenerator(gen func() string) Option {
	return func(e *PremiumEngine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithClock sets the clock used for result timestamps
func WithClock(now func() time.Time) Option {
	return func(e *PremiumEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithConcurrency bounds concurrent risk assessment fetches
func WithConcurrency(n int) Option {
	return func(e *PremiumEngine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithFetchTimeout bounds each data source call
func WithFetchTimeout(d time.Duration) Option {
	return func(e *PremiumEngine) {
		if d > 0 {
			e.fetchTimeout = d
		}
	}
}

// NewPremiumEngine creates an engine over validated rating tables. source may be
// nil, in which case every fetch resolves as unavailable.
func NewPremiumEngine(tables domain.RatingTables, source DataSource, opts ...Option) (*PremiumEngine, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rating tables: %w", err)
	}

	risk, err := NewRiskTierCalculator(tables.RiskMatrix)
	if err != nil {
		return nil, err
	}
	loader, err := NewExpenseLoader(tables.Loadings)
	if err != nil {
		return nil, err
	}

	e := &PremiumEngine{
		tables:       tables,
		source:       source,
		logger:       zap.NewNop(),
		tracer:       otel.Tracer(tracerName),
		newID:        uuid.NewString,
		now:          time.Now,
		concurrency:  DefaultFetchConcurrency,
		fetchTimeout: DefaultFetchTimeout,
		risk:         risk,
		demographic:  NewDemographicCalculator(tables),
		family:       NewFamilyCalculator(tables.Family),
		geographic:   NewGeographicCalculator(tables.Geographic),
		inflation:    NewInflationProjector(tables.Trend),
		experience:   NewExperienceRatingCalculator(tables.ExperienceBands),
		builder:      NewActuarialBaseRateBuilder(tables),
		loader:       loader,
		compliance:   NewComplianceValidator(tables.Pricing),
		stages:       defaultStages(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Tables returns the rating tables the engine was built with
func (e *PremiumEngine) Tables() domain.RatingTables {
	return e.tables
}

// CalculateRiskAdjustedPremium prices one member or group. The only errors
// returned are for structurally invalid input; every other failure degrades to
// the standard calculation.
func (e *PremiumEngine) CalculateRiskAdjustedPremium(ctx context.Context, input domain.CalculationInput) (*domain.PremiumResult, error) {
	if err := validateCalculationInput(input); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "premium.calculate", trace.WithAttributes(
		attribute.String("subject", input.Subject()),
		attribute.Int("members", len(input.Members())),
	))
	defer span.End()

	logger := e.logger.With(zap.String("subject", input.Subject()))
	data := e.fetch(ctx, input, logger)
	p := e.newPipeline(input, data)

	var result *domain.PremiumResult
	if err := e.runPipeline(ctx, p); err != nil {
		logger.Error("premium pipeline failed, using standard calculation",
			zap.String("state", string(p.state)),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback")
		result = e.fallbackResult(p, err)
	} else {
		result = e.pipelineResult(p)
	}

	span.SetAttributes(
		attribute.String("methodology", string(result.Methodology)),
		attribute.Int("confidence", result.ConfidenceScore),
	)
	e.metrics.IncrementCalculation(string(result.Methodology))
	e.metrics.ObserveCalculateLatency(time.Since(start))
	return result, nil
}

// Recalculate prices input again and links the new result to prior. prior is
// never modified.
func (e *PremiumEngine) Recalculate(ctx context.Context, prior *domain.PremiumResult, input domain.CalculationInput) (*domain.PremiumResult, error) {
	if prior == nil {
		return nil, errors.Input("recalculation requires a prior result")
	}
	result, err := e.CalculateRiskAdjustedPremium(ctx, input)
	if err != nil {
		return nil, err
	}
	result.SupersedesID = prior.ID
	return result, nil
}

// CalculateActuarialRates builds base cost and rate tables, applies loadings,
// validates compliance and certifies the result
func (e *PremiumEngine) CalculateActuarialRates(ctx context.Context, input domain.ActuarialInput) (*domain.ActuarialRateResult, error) {
	_, span := e.tracer.Start(ctx, "premium.actuarial", trace.WithAttributes(
		attribute.String("jurisdiction", input.Jurisdiction),
	))
	defer span.End()

	constraints := e.tables.Constraints(input.Jurisdiction)

	base, err := e.builder.BaseCost(input, constraints)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to compute base cost: %w", err)
	}

	unloaded, err := e.builder.BuildRates(base.PMPM, input)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build rate tables: %w", err)
	}

	loaded := e.loader.Apply(unloaded)
	rates, report := e.compliance.Validate(loaded, constraints, base.Factors, nil)
	for _, v := range report.Violations {
		e.metrics.IncrementViolation(string(v.Rule))
		e.logger.Warn("compliance violation",
			zap.String("jurisdiction", constraints.Jurisdiction),
			zap.String("rule", string(v.Rule)),
			zap.String("observed", v.Observed.String()),
			zap.String("limit", v.Limit.String()),
			zap.Bool("adjusted", v.Adjusted),
		)
	}
	for _, d := range report.Disclosures {
		e.logger.Info("rating factor disclosure",
			zap.String("jurisdiction", constraints.Jurisdiction),
			zap.String("message", d.Message),
		)
	}

	now := e.now()
	result := &domain.ActuarialRateResult{
		ID:            e.newID(),
		Jurisdiction:  constraints.Jurisdiction,
		BaseCostPMPM:  base.PMPM,
		Factors:       base.Factors,
		UnloadedRates: unloaded,
		Rates:         rates,
		LoadingFactor: e.loader.Factor(),
		Compliance:    report,
		Certification: Certify(report, now),
		Assumptions: []string{
			fmt.Sprintf("industry baseline %s PMPM", base.Baseline.StringFixed(2)),
			fmt.Sprintf("total expense loading %s", e.loader.TotalLoad()),
			fmt.Sprintf("assumed claim ratio %s", e.tables.Pricing.AssumedClaimRatio),
			fmt.Sprintf("mean medical trend %s", e.trendFor(input.Trend).Mean().StringFixed(4)),
		},
		Version: e.tables.Pricing.CalculationVersion,
	}

	span.SetAttributes(attribute.String("certification", string(result.Certification.Status)))
	return result, nil
}

// GenerateActuarialProjections projects currentPremium forward for years at the
// mean default trend plus an aging drift
func (e *PremiumEngine) GenerateActuarialProjections(currentPremium decimal.Decimal, demographics *domain.Demographics, years int) ([]decimal.Decimal, error) {
	return ProjectPremiums(currentPremium, ProjectionRate(e.tables.Trend, demographics), years)
}

// ProjectionRate returns the annual rate GenerateActuarialProjections compounds at.
func (e *PremiumEngine) ProjectionRate(demographics *domain.Demographics) decimal.Decimal {
	return ProjectionRate(e.tables.Trend, demographics)
}

func (e *PremiumEngine) trendFor(trend *domain.TrendRates) domain.TrendRates {
	if trend != nil {
		return *trend
	}
	return e.tables.Trend
}

// fetchedData holds everything resolved from the data source before pricing
type fetchedData struct {
	periodID string
	rate     *domain.PremiumRate
	scores   []decimal.Decimal
	claims   *domain.HistoricalClaimsData
}

// fetch resolves the period, then fans out the rate, claims and per-member risk
// lookups. Failures and timeouts are logged and treated as missing data.
func (e *PremiumEngine) fetch(ctx context.Context, input domain.CalculationInput, logger *zap.Logger) fetchedData {
	data := fetchedData{periodID: input.PeriodID}
	if e.source == nil {
		logger.Debug("no data source configured")
		return data
	}

	if data.periodID == "" {
		period, err := fetchOne(ctx, e, SourcePeriod, func(ctx context.Context) (*domain.Period, error) {
			return e.source.GetActivePeriod(ctx)
		})
		switch {
		case err != nil:
			logger.Warn("active period unavailable", zap.Error(err))
		case period == nil:
			logger.Info("no active period")
		default:
			data.periodID = period.ID
		}
	}

	members := input.Members()
	scores := make([]*decimal.Decimal, len(members))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	if data.periodID != "" {
		g.Go(func() error {
			rate, err := fetchOne(ctx, e, SourcePremiumRate, func(ctx context.Context) (*domain.PremiumRate, error) {
				return e.source.GetPremiumRateByPeriod(ctx, data.periodID)
			})
			if err != nil {
				logger.Warn("premium rate unavailable", zap.String("period_id", data.periodID), zap.Error(err))
				return nil
			}
			data.rate = rate
			return nil
		})
	}

	if input.HistoricalClaims == nil && input.CompanyID != "" && data.periodID != "" {
		g.Go(func() error {
			claims, err := fetchOne(ctx, e, SourceHistoricalClaims, func(ctx context.Context) (*domain.HistoricalClaimsData, error) {
				return e.source.GetHistoricalClaims(ctx, input.CompanyID, data.periodID)
			})
			if err != nil {
				logger.Warn("historical claims unavailable", zap.String("company_id", input.CompanyID), zap.Error(err))
				return nil
			}
			data.claims = claims
			return nil
		})
	}

	for i, memberID := range members {
		g.Go(func() error {
			assessment, err := fetchOne(ctx, e, SourceRiskAssessment, func(ctx context.Context) (*domain.RiskAssessment, error) {
				return e.source.GetRiskAssessment(ctx, memberID)
			})
			switch {
			case err != nil:
				logger.Warn("skipping risk assessment", zap.String("member_id", memberID), zap.Error(err))
			case assessment == nil:
				logger.Info("skipping risk assessment", zap.String("member_id", memberID), zap.String("reason", "not found"))
			default:
				score := assessment.OverallRiskScore
				scores[i] = &score
			}
			return nil
		})
	}

	// Fetches never return errors; Wait only joins them
	_ = g.Wait()

	for _, s := range scores {
		if s != nil {
			data.scores = append(data.scores, *s)
		}
	}
	return data
}

// fetchOne runs one data source call under the fetch timeout with a span and
// latency metric. The call runs on its own goroutine so a source that ignores
// ctx cannot hold the calculation past the timeout; its late answer is dropped.
func fetchOne[T any](ctx context.Context, e *PremiumEngine, source string, call func(context.Context) (*T, error)) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	ctx, span := e.tracer.Start(ctx, "premium.fetch."+source)
	defer span.End()

	type answer struct {
		v   *T
		err error
	}
	done := make(chan answer, 1)

	start := time.Now()
	go func() {
		v, err := call(ctx)
		done <- answer{v, err}
	}()

	var v *T
	var err error
	select {
	case a := <-done:
		v, err = a.v, a.err
	case <-ctx.Done():
		err = ctx.Err()
	}
	e.metrics.ObserveFetchLatency(source, time.Since(start))

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, source+" fetch failed")
		return nil, errors.DataUnavailable(source, err)
	}
	return v, nil
}

func validateCalculationInput(input domain.CalculationInput) error {
	if input.MemberID == "" && len(input.MemberIDs) == 0 && input.CompanyID == "" {
		return errors.Input("a member id, member ids or company id is required")
	}
	for i, id := range input.MemberIDs {
		if id == "" {
			return errors.Newf(errors.TypeInput, "member id at position %d is empty", i)
		}
	}
	if input.DataQualityScore.IsNegative() || input.DataQualityScore.GreaterThan(decimal.NewFromInt(100)) {
		return errors.Newf(errors.TypeInput, "data quality score %s must be between 0 and 100", input.DataQualityScore)
	}
	if input.BaseRate != nil && input.BaseRate.IsNegative() {
		return errors.Newf(errors.TypeInput, "base rate %s must be non-negative", input.BaseRate)
	}
	for _, d := range input.Discounts {
		if d.Rate.IsNegative() {
			return errors.Newf(errors.TypeInput, "discount %q rate %s must be non-negative", d.Name, d.Rate)
		}
	}
	if input.ProjectionYears != nil && *input.ProjectionYears <= 0 {
		return errors.Newf(errors.TypeInput, "projection years must be positive, got %d", *input.ProjectionYears)
	}
	return nil
}
