package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// stage is one transition of the pipeline state machine
type stage struct {
	state PipelineState
	run   func(e *PremiumEngine, p *pipeline) error
}

func defaultStages() []stage {
	return []stage{
		{state: StateBaseRateComputed, run: (*PremiumEngine).computeBaseRate},
		{state: StateRiskAdjusted, run: (*PremiumEngine).adjustRisk},
		{state: StateDemographicAdjusted, run: (*PremiumEngine).adjustDemographics},
		{state: StateGeoAdjusted, run: (*PremiumEngine).adjustGeography},
		{state: StateInflationAdjusted, run: (*PremiumEngine).adjustInflation},
		{state: StateExperienceAdjusted, run: (*PremiumEngine).adjustExperience},
		{state: StateLoaded, run: (*PremiumEngine).applyLoading},
		{state: StateTaxed, run: (*PremiumEngine).applyTax},
		{state: StateCertified, run: (*PremiumEngine).certify},
	}
}

// pipeline is the per-request working state
type pipeline struct {
	input       domain.CalculationInput
	data        fetchedData
	constraints domain.ComplianceConstraints

	state PipelineState
	trail []string

	basePremium decimal.Decimal
	baseSource  string
	ledger      *factorLedger
	risk        RiskAggregate
	claims      *domain.HistoricalClaimsData
	adjusted    decimal.Decimal // after experience, before discounts and loading
	discounted  decimal.Decimal // after discounts, before loading
	preTax      decimal.Decimal
	taxRate     decimal.Decimal
	taxAmount   decimal.Decimal
	taxResolved bool

	assumptions []string
	notes       []string
}

func (e *PremiumEngine) newPipeline(input domain.CalculationInput, data fetchedData) *pipeline {
	p := &pipeline{
		input:       input,
		data:        data,
		constraints: e.tables.Constraints(input.Jurisdiction),
		state:       StateInit,
		trail:       []string{string(StateInit)},
	}

	// Base rate resolution always succeeds so the fallback path has a premium
	switch {
	case input.BaseRate != nil:
		p.basePremium, p.baseSource = *input.BaseRate, "request"
	case data.rate != nil && data.rate.BaseRate != nil && !data.rate.BaseRate.IsNegative():
		p.basePremium, p.baseSource = *data.rate.BaseRate, "period "+data.periodID
	default:
		p.basePremium, p.baseSource = e.tables.Pricing.DefaultBaseRate, "default"
	}
	return p
}

func (p *pipeline) advance(to PipelineState) {
	p.state = to
	p.trail = append(p.trail, string(to))
}

// runPipeline executes every stage in order. A stage error or panic stops the
// machine in its current state and is returned once.
func (e *PremiumEngine) runPipeline(ctx context.Context, p *pipeline) (err error) {
	running := p.state
	defer func() {
		if r := recover(); r != nil {
			err = errors.Stage(string(running), fmt.Errorf("panic: %v", r))
		}
	}()

	for _, s := range e.stages {
		running = s.state
		if err := e.runStage(ctx, s, p); err != nil {
			return errors.Stage(string(s.state), err)
		}
		if p.ledger != nil && p.ledger.amount.IsNegative() {
			return errors.Stage(string(s.state), fmt.Errorf("running premium %s is negative", p.ledger.amount))
		}
		p.advance(s.state)
	}
	return nil
}

func (e *PremiumEngine) runStage(ctx context.Context, s stage, p *pipeline) error {
	_, span := e.tracer.Start(ctx, "premium.stage."+string(s.state))
	defer span.End()

	start := time.Now()
	defer func() { e.metrics.ObserveStageLatency(string(s.state), time.Since(start)) }()

	err := s.run(e, p)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (e *PremiumEngine) computeBaseRate(p *pipeline) error {
	if p.basePremium.IsNegative() {
		return fmt.Errorf("base rate %s is negative", p.basePremium)
	}
	p.ledger = newFactorLedger(p.basePremium)
	p.ledger.record("base_rate", domain.SourceBase, domain.Additive, p.basePremium, "base rate from "+p.baseSource)
	p.assumptions = append(p.assumptions, fmt.Sprintf("base rate %s PMPM from %s", p.basePremium.StringFixed(2), p.baseSource))
	return nil
}

func (e *PremiumEngine) adjustRisk(p *pipeline) error {
	p.risk = e.risk.Aggregate(p.data.scores, len(p.input.Members()), p.input.IsGroup())

	description := "no risk assessment; neutral multiplier"
	if p.risk.Resolved > 0 {
		description = fmt.Sprintf("%s tier, mean score %s (%d/%d assessed)",
			p.risk.Tier, p.risk.MeanScore.StringFixed(1), p.risk.Resolved, p.risk.Requested)
	}
	if p.risk.Multiplier.IsNegative() {
		return fmt.Errorf("risk multiplier %s is negative", p.risk.Multiplier)
	}
	p.ledger.multiply("risk", domain.SourceRisk, p.risk.Multiplier, description)

	if p.constraints.CommunityRated && !p.risk.Multiplier.Equal(neutralMultiplier) {
		p.notes = append(p.notes, fmt.Sprintf("%s is community rated; individual risk rating applies only to internal pricing", p.constraints.Jurisdiction))
	}
	return nil
}

func (e *PremiumEngine) adjustDemographics(p *pipeline) error {
	demographic, err := e.demographic.Calculate(p.input.Demographics)
	if err != nil {
		return err
	}
	p.ledger.multiply("demographic", domain.SourceDemographic, demographic, "age band mix and industry risk")

	family, err := e.family.Calculate(p.input.Family)
	if err != nil {
		return err
	}
	description := "no family composition"
	if p.input.Family != nil {
		description = e.family.Tier(*p.input.Family) + " tier"
	}
	p.ledger.multiply("family", domain.SourceFamily, family, description)
	return nil
}

func (e *PremiumEngine) adjustGeography(p *pipeline) error {
	geo, err := e.geographic.Calculate(p.input.Demographics, p.input.Jurisdiction)
	if err != nil {
		return err
	}
	p.ledger.multiply("geographic", domain.SourceGeographic, geo, "area cost")
	return nil
}

func (e *PremiumEngine) adjustInflation(p *pipeline) error {
	if p.input.Trend == nil {
		p.ledger.multiply("inflation", domain.SourceInflation, neutralMultiplier, "no trend projection requested")
		return nil
	}

	factor, err := e.inflation.Factor(p.input.Trend, p.input.ProjectionYears, nil)
	if err != nil {
		return err
	}
	years := 1
	if p.input.ProjectionYears != nil {
		years = *p.input.ProjectionYears
	}
	p.ledger.multiply("inflation", domain.SourceInflation, factor,
		fmt.Sprintf("mean trend %s over %d year(s)", p.input.Trend.Mean().StringFixed(4), years))
	return nil
}

func (e *PremiumEngine) adjustExperience(p *pipeline) error {
	p.claims = p.input.HistoricalClaims
	if p.claims == nil {
		p.claims = p.data.claims
	}

	modifier, err := e.experience.Modifier(p.claims)
	if err != nil {
		return err
	}
	description := "no claims history"
	if p.claims != nil {
		description = fmt.Sprintf("loss ratio %s", p.claims.LossRatio.StringFixed(2))
	}
	p.ledger.multiply("experience", domain.SourceExperience, modifier, description)
	p.adjusted = p.ledger.amount
	return nil
}

func (e *PremiumEngine) applyLoading(p *pipeline) error {
	total := decimal.Zero
	for _, d := range p.input.Discounts {
		total = total.Add(clamp(d.Rate, decimal.Zero, decimal.NewFromInt(1)))
	}
	total = clamp(total, decimal.Zero, decimal.NewFromInt(1))
	p.ledger.discount("discounts", total, fmt.Sprintf("%d discount(s)", len(p.input.Discounts)))
	p.discounted = p.ledger.amount

	p.ledger.multiply("loading", domain.SourceLoading, e.loader.Factor(),
		fmt.Sprintf("expense loading %s", e.loader.TotalLoad()))
	p.preTax = p.ledger.amount
	return nil
}

func (e *PremiumEngine) applyTax(p *pipeline) error {
	p.taxRate = decimal.Zero
	if p.data.rate != nil {
		if p.data.rate.TaxRate.IsNegative() {
			return fmt.Errorf("tax rate %s is negative", p.data.rate.TaxRate)
		}
		p.taxRate = p.data.rate.TaxRate
		p.taxResolved = true
	} else {
		p.assumptions = append(p.assumptions, "tax rate unavailable; no tax applied")
	}

	p.taxAmount = p.preTax.Mul(p.taxRate)
	p.ledger.add("tax", domain.SourceTax, p.taxRate, p.taxAmount, "premium tax")
	return nil
}

func (e *PremiumEngine) certify(p *pipeline) error {
	claims := p.discounted
	lossRatio, violation := e.compliance.CheckLossRatio(&claims, p.preTax, p.constraints)
	if violation != nil {
		e.metrics.IncrementViolation(string(violation.Rule))
		e.logger.Warn("compliance violation",
			zap.String("subject", p.input.Subject()),
			zap.String("rule", string(violation.Rule)),
			zap.String("observed", violation.Observed.String()),
		)
		p.notes = append(p.notes, violation.Message)
	}
	p.assumptions = append(p.assumptions, fmt.Sprintf("projected loss ratio %s", lossRatio.StringFixed(3)))
	return nil
}

// pipelineResult assembles the result of a completed pipeline
func (e *PremiumEngine) pipelineResult(p *pipeline) *domain.PremiumResult {
	methodology := domain.MethodologyHybrid
	if p.risk.Complete() {
		methodology = domain.MethodologyRiskAdjusted
	}

	factors := confidenceFactors(p.risk, p.input, p.claims, p.taxResolved)
	preTax := p.preTax.Round(2)
	tax := p.taxAmount.Round(2)

	result := e.newResult(p)
	result.BasePremium = p.basePremium.Round(2)
	result.AdjustedPremium = p.adjusted.Round(2)
	result.PreTaxPremium = preTax
	result.TaxAmount = tax
	result.FinalPremium = preTax.Add(tax)
	result.Breakdown = p.ledger.factors
	result.RiskTier = p.risk.Tier
	result.Methodology = methodology
	result.ConfidenceScore = ConfidenceScore(factors)
	result.ConfidenceFactors = factors
	result.Metadata.Assumptions = p.assumptions
	result.Metadata.RegulatoryNotes = p.notes
	return result
}

// fallbackResult is the standard calculation: the base premium with every
// adjustment neutral. It cannot fail.
func (e *PremiumEngine) fallbackResult(p *pipeline, cause error) *domain.PremiumResult {
	p.advance(StateFallback)
	base := p.basePremium
	if base.IsNegative() {
		base = decimal.Zero
	}

	ledger := newFactorLedger(base)
	ledger.record("base_rate", domain.SourceBase, domain.Additive, base, "base rate from "+p.baseSource)
	for _, f := range []struct {
		name   string
		source domain.FactorSource
	}{
		{"risk", domain.SourceRisk},
		{"demographic", domain.SourceDemographic},
		{"family", domain.SourceFamily},
		{"geographic", domain.SourceGeographic},
		{"inflation", domain.SourceInflation},
		{"experience", domain.SourceExperience},
	} {
		ledger.multiply(f.name, f.source, neutralMultiplier, "standard calculation")
	}
	ledger.discount("discounts", decimal.Zero, "standard calculation")
	ledger.multiply("loading", domain.SourceLoading, neutralMultiplier, "standard calculation")
	ledger.add("tax", domain.SourceTax, decimal.Zero, decimal.Zero, "standard calculation")

	rounded := base.Round(2)
	result := e.newResult(p)
	result.BasePremium = rounded
	result.AdjustedPremium = rounded
	result.PreTaxPremium = rounded
	result.TaxAmount = decimal.Zero
	result.FinalPremium = rounded
	result.Breakdown = ledger.factors
	result.Methodology = domain.MethodologyStandard
	result.ConfidenceScore = FallbackConfidence
	result.Metadata.Assumptions = []string{
		fmt.Sprintf("base rate %s PMPM from %s", rounded.StringFixed(2), p.baseSource),
		"standard calculation; all adjustments neutral",
	}
	result.Metadata.FallbackReason = cause.Error()
	return result
}

func (e *PremiumEngine) newResult(p *pipeline) *domain.PremiumResult {
	var members []string
	if p.input.IsGroup() {
		members = append(members, p.input.MemberIDs...)
	} else if p.input.MemberID != "" {
		members = []string{p.input.MemberID}
	}

	return &domain.PremiumResult{
		ID:           e.newID(),
		Subject:      p.input.Subject(),
		MemberIDs:    members,
		CompanyID:    p.input.CompanyID,
		PeriodID:     p.data.periodID,
		Jurisdiction: p.constraints.Jurisdiction,
		Metadata: domain.ResultMetadata{
			CalculationVersion: e.tables.Pricing.CalculationVersion,
			StateTrail:         append([]string(nil), p.trail...),
			ResolvedRisk:       len(p.data.scores),
			RequestedRisk:      len(p.input.Members()),
		},
		CalculatedAt: e.now(),
	}
}
