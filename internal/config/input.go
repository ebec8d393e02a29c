package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
	"github.com/rgehrsitz/premiumcalc/internal/logging"
)

// Data source kinds
const (
	DataSourceNone     = "none"
	DataSourceMemory   = "memory"
	DataSourcePostgres = "postgres"
)

// RatingConfig is the complete engine configuration: every lookup table plus the
// engine, logging and data source settings
type RatingConfig struct {
	Tables     domain.RatingTables `yaml:"tables"`
	Engine     EngineConfig        `yaml:"engine"`
	Logging    logging.Config      `yaml:"logging"`
	DataSource DataSourceConfig    `yaml:"datasource"`
}

// EngineConfig holds orchestrator settings
type EngineConfig struct {
	FetchConcurrency int           `yaml:"fetch_concurrency"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
}

// DataSourceConfig selects where periods, rates, risk assessments and claims come from
type DataSourceConfig struct {
	Type        string       `yaml:"type"`     // none, memory, postgres
	Fixtures    string       `yaml:"fixtures"` // memory: YAML fixture file
	PostgresDSN string       `yaml:"postgres_dsn"`
	Cache       *CacheConfig `yaml:"cache"`
}

// CacheConfig enables the Redis read-through cache in front of the data source
type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

// DefaultRatingConfig returns the built-in tables with default engine settings
// and no data source
func DefaultRatingConfig() RatingConfig {
	return RatingConfig{
		Tables: domain.DefaultRatingTables(),
		Engine: EngineConfig{
			FetchConcurrency: 8,
			FetchTimeout:     2 * time.Second,
		},
		Logging:    logging.DefaultConfig(),
		DataSource: DataSourceConfig{Type: DataSourceNone},
	}
}

// InputParser handles parsing of configuration and request files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadRatingConfig loads a rating configuration from a YAML file. Sections the
// file omits keep their defaults; map-valued tables are merged key by key over
// the defaults and list-valued tables replace them.
func (ip *InputParser) LoadRatingConfig(filename string) (*RatingConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseRatingConfig(data)
}

// ParseRatingConfig parses and validates a YAML rating configuration
func (ip *InputParser) ParseRatingConfig(data []byte) (*RatingConfig, error) {
	config := DefaultRatingConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "failed to parse YAML", err)
	}
	normalizeJurisdictions(&config.Tables)

	if err := ip.ValidateRatingConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// ValidateRatingConfig validates the loaded configuration
func (ip *InputParser) ValidateRatingConfig(config *RatingConfig) error {
	if err := config.Tables.Validate(); err != nil {
		return fmt.Errorf("rating tables validation failed: %w", err)
	}
	if err := ip.validateEngine(&config.Engine); err != nil {
		return fmt.Errorf("engine validation failed: %w", err)
	}
	if err := ip.validateLogging(&config.Logging); err != nil {
		return fmt.Errorf("logging validation failed: %w", err)
	}
	if err := ip.validateDataSource(&config.DataSource); err != nil {
		return fmt.Errorf("datasource validation failed: %w", err)
	}
	return nil
}

func (ip *InputParser) validateEngine(engine *EngineConfig) error {
	if engine.FetchConcurrency < 1 {
		return errors.Newf(errors.TypeConfig, "fetch_concurrency must be at least 1, got %d", engine.FetchConcurrency)
	}
	if engine.FetchTimeout <= 0 {
		return errors.Newf(errors.TypeConfig, "fetch_timeout must be positive, got %s", engine.FetchTimeout)
	}
	return nil
}

func (ip *InputParser) validateLogging(cfg *logging.Config) error {
	switch cfg.Format {
	case "", "console", "json":
	default:
		return errors.Newf(errors.TypeConfig, "unknown log format %q", cfg.Format)
	}
	return nil
}

func (ip *InputParser) validateDataSource(ds *DataSourceConfig) error {
	switch ds.Type {
	case "", DataSourceNone:
	case DataSourceMemory:
		if ds.Fixtures == "" {
			return errors.Config("memory datasource requires a fixtures file")
		}
	case DataSourcePostgres:
		if ds.PostgresDSN == "" {
			return errors.Config("postgres datasource requires postgres_dsn")
		}
	default:
		return errors.Newf(errors.TypeConfig, "unknown datasource type %q", ds.Type)
	}

	if ds.Cache != nil {
		if ds.Cache.Addr == "" {
			return errors.Config("cache requires an address")
		}
		if ds.Cache.TTL < 0 {
			return errors.Newf(errors.TypeConfig, "cache ttl must be non-negative, got %s", ds.Cache.TTL)
		}
	}
	return nil
}

// normalizeJurisdictions fills each constraint set's code from its map key
func normalizeJurisdictions(tables *domain.RatingTables) {
	for code, c := range tables.Jurisdictions {
		if c.Jurisdiction == "" {
			c.Jurisdiction = code
			tables.Jurisdictions[code] = c
		}
	}
}

// LoadCalculationInput loads a premium calculation request
func (ip *InputParser) LoadCalculationInput(filename string) (*domain.CalculationInput, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var input domain.CalculationInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, errors.Wrap(errors.TypeInput, "failed to parse YAML", err)
	}
	if err := ip.ValidateCalculationInput(&input); err != nil {
		return nil, fmt.Errorf("calculation input validation failed: %w", err)
	}
	return &input, nil
}

// ValidateCalculationInput checks the request file for values the engine would
// reject or silently clamp
func (ip *InputParser) ValidateCalculationInput(input *domain.CalculationInput) error {
	if input.MemberID == "" && len(input.MemberIDs) == 0 && input.CompanyID == "" {
		return errors.Input("member_id, member_ids or company_id is required")
	}
	if input.DataQualityScore.IsNegative() || input.DataQualityScore.GreaterThan(decimal.NewFromInt(100)) {
		return errors.Newf(errors.TypeInput, "data_quality_score %s must be between 0 and 100", input.DataQualityScore)
	}
	if input.ProjectionYears != nil && *input.ProjectionYears <= 0 {
		return errors.Newf(errors.TypeInput, "projection_years must be positive, got %d", *input.ProjectionYears)
	}
	for i, d := range input.Discounts {
		if d.Name == "" {
			return errors.Newf(errors.TypeInput, "discount %d: name is required", i)
		}
		if d.Rate.IsNegative() || d.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return errors.Newf(errors.TypeInput, "discount %s: rate %s must be between 0 and 1", d.Name, d.Rate)
		}
	}
	if input.Demographics != nil {
		if err := ip.validateDemographics(input.Demographics); err != nil {
			return fmt.Errorf("demographics validation failed: %w", err)
		}
	}
	return nil
}

// LoadActuarialInput loads an actuarial rate request
func (ip *InputParser) LoadActuarialInput(filename string) (*domain.ActuarialInput, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var input domain.ActuarialInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, errors.Wrap(errors.TypeInput, "failed to parse YAML", err)
	}
	if err := ip.ValidateActuarialInput(&input); err != nil {
		return nil, fmt.Errorf("actuarial input validation failed: %w", err)
	}
	return &input, nil
}

// ValidateActuarialInput validates an actuarial rate request
func (ip *InputParser) ValidateActuarialInput(input *domain.ActuarialInput) error {
	if err := ip.validateDemographics(&input.Demographics); err != nil {
		return fmt.Errorf("demographics validation failed: %w", err)
	}
	b := input.Benefits
	if b.Deductible.IsNegative() || b.OutOfPocketMax.IsNegative() {
		return errors.Input("deductible and out_of_pocket_max must be non-negative")
	}
	if b.Coinsurance.IsNegative() || b.Coinsurance.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Newf(errors.TypeInput, "coinsurance %s must be between 0 and 1", b.Coinsurance)
	}
	if input.ProjectionYears != nil && *input.ProjectionYears <= 0 {
		return errors.Newf(errors.TypeInput, "projection_years must be positive, got %d", *input.ProjectionYears)
	}
	if input.SmokerSurcharge != nil && input.SmokerSurcharge.IsNegative() {
		return errors.Newf(errors.TypeInput, "smoker_surcharge %s must be non-negative", input.SmokerSurcharge)
	}
	return nil
}

func (ip *InputParser) validateDemographics(d *domain.Demographics) error {
	if d.AverageAge.IsNegative() {
		return errors.Newf(errors.TypeInput, "average_age %s must be non-negative", d.AverageAge)
	}
	for band, count := range d.AgeDistribution {
		if count < 0 {
			return errors.Newf(errors.TypeInput, "age band %s has negative count %d", band, count)
		}
	}
	if d.CostIndex != nil && d.CostIndex.IsNegative() {
		return errors.Newf(errors.TypeInput, "cost_index %s must be non-negative", d.CostIndex)
	}
	return nil
}

// LoadSensitivityConfig loads sweep parameters and scenarios. An empty parameter
// list selects the common parameters and an empty scenario list the defaults.
func (ip *InputParser) LoadSensitivityConfig(filename string) (*domain.SensitivityConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var config domain.SensitivityConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.TypeInput, "failed to parse YAML", err)
	}
	if len(config.Parameters) == 0 {
		config.Parameters = domain.GetCommonParameters()
	}
	if len(config.Scenarios) == 0 {
		config.Scenarios = domain.DefaultScenarios()
	}
	if err := ip.ValidateSensitivityConfig(&config); err != nil {
		return nil, fmt.Errorf("sensitivity configuration validation failed: %w", err)
	}
	return &config, nil
}

// ValidateSensitivityConfig validates sweep parameters and scenario values
func (ip *InputParser) ValidateSensitivityConfig(config *domain.SensitivityConfig) error {
	known := domain.BaseParameterValues()

	for i, p := range config.Parameters {
		if _, ok := known[p.Name]; !ok {
			return errors.Newf(errors.TypeInput, "parameter %d: unknown parameter %q (expected one of %s)", i, p.Name, parameterNames())
		}
		if p.Steps < 1 {
			return errors.Newf(errors.TypeInput, "parameter %s: steps must be at least 1", p.Name)
		}
		if p.MinValue.GreaterThan(p.MaxValue) {
			return errors.Newf(errors.TypeInput, "parameter %s: min_value exceeds max_value", p.Name)
		}
	}

	for i, s := range config.Scenarios {
		if s.Name == "" {
			return errors.Newf(errors.TypeInput, "scenario %d: name is required", i)
		}
		for name := range s.Values {
			if _, ok := known[name]; !ok {
				return errors.Newf(errors.TypeInput, "scenario %s: unknown parameter %q", s.Name, name)
			}
		}
	}
	return nil
}

func parameterNames() string {
	names := make([]string, 0, 4)
	for _, p := range domain.GetCommonParameters() {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
