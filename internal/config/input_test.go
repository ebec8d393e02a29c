package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser, "Should create input parser")
}

func TestLoadRatingConfig_FileNotFound(t *testing.T) {
	parser := NewInputParser()

	config, err := parser.LoadRatingConfig("nonexistent.yaml")

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestLoadRatingConfig_InvalidYAML(t *testing.T) {
	parser := NewInputParser()
	path := writeFile(t, "invalid.yaml", "invalid: yaml: content: [unclosed")

	config, err := parser.LoadRatingConfig(path)

	require.Error(t, err)
	assert.Nil(t, config)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseRatingConfig_EmptyUsesDefaults(t *testing.T) {
	parser := NewInputParser()

	config, err := parser.ParseRatingConfig([]byte(""))
	require.NoError(t, err)

	defaults := DefaultRatingConfig()
	assert.Equal(t, defaults.Engine, config.Engine)
	assert.Equal(t, DataSourceNone, config.DataSource.Type)
	assert.Len(t, config.Tables.Jurisdictions, len(defaults.Tables.Jurisdictions))
	assert.True(t, config.Tables.Loadings.Total().Equal(defaults.Tables.Loadings.Total()))
}

func TestParseRatingConfig_MergesOverDefaults(t *testing.T) {
	parser := NewInputParser()

	yamlContent := `
engine:
  fetch_timeout: 5s
tables:
  industry_risk:
    mining: 1.4
  jurisdictions:
    TX:
      max_age_ratio: 3
      max_tobacco_ratio: 1.5
      minimum_loss_ratio: 0.8
      permitted_factors: [age, tobacco, geography, family]
  experience_bands:
    - below: 0.7
      modifier: 0.95
    - below: 100
      modifier: 1.1
datasource:
  type: memory
  fixtures: fixtures.yaml
  cache:
    addr: localhost:6379
    ttl: 30s
`
	config, err := parser.ParseRatingConfig([]byte(yamlContent))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, config.Engine.FetchTimeout)
	assert.Equal(t, 8, config.Engine.FetchConcurrency, "unset fields keep their defaults")

	// Maps merge key by key
	assert.True(t, config.Tables.IndustryRisk["mining"].Equal(decimal.NewFromFloat(1.4)))
	assert.Contains(t, config.Tables.IndustryRisk, "high")
	require.Contains(t, config.Tables.Jurisdictions, "TX")
	assert.Equal(t, "TX", config.Tables.Jurisdictions["TX"].Jurisdiction)
	assert.Contains(t, config.Tables.Jurisdictions, "federal")

	// Lists replace
	assert.Len(t, config.Tables.ExperienceBands, 2)

	assert.Equal(t, DataSourceMemory, config.DataSource.Type)
	require.NotNil(t, config.DataSource.Cache)
	assert.Equal(t, 30*time.Second, config.DataSource.Cache.TTL)
}

func TestParseRatingConfig_Validation(t *testing.T) {
	parser := NewInputParser()

	tests := []struct {
		name        string
		yaml        string
		errContains string
	}{
		{
			name: "loadings at or above one",
			yaml: `
tables:
  loadings:
    administrative: 0.6
    profit_margin: 0.5
`,
			errContains: "total loading",
		},
		{
			name: "risk matrix out of order",
			yaml: `
tables:
  risk_matrix:
    - {min_score: 40, multiplier: 1.1, tier: a, confidence: 80}
    - {min_score: 60, multiplier: 1.4, tier: b, confidence: 80}
`,
			errContains: "risk matrix row 1",
		},
		{
			name: "jurisdiction age ratio below one",
			yaml: `
tables:
  jurisdictions:
    XX:
      max_age_ratio: 0.5
      max_tobacco_ratio: 1
      minimum_loss_ratio: 0.8
`,
			errContains: "jurisdiction XX",
		},
		{
			name:        "zero fetch concurrency",
			yaml:        "engine:\n  fetch_concurrency: 0\n",
			errContains: "fetch_concurrency",
		},
		{
			name:        "unknown log format",
			yaml:        "logging:\n  format: xml\n",
			errContains: "unknown log format",
		},
		{
			name:        "unknown datasource",
			yaml:        "datasource:\n  type: mongo\n",
			errContains: "unknown datasource type",
		},
		{
			name:        "postgres without dsn",
			yaml:        "datasource:\n  type: postgres\n",
			errContains: "postgres_dsn",
		},
		{
			name:        "cache without address",
			yaml:        "datasource:\n  cache:\n    ttl: 1m\n",
			errContains: "cache requires an address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := parser.ParseRatingConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Nil(t, config)
			assert.True(t, errors.IsType(err, errors.TypeConfig), "got %v", err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadCalculationInput(t *testing.T) {
	parser := NewInputParser()

	path := writeFile(t, "member.yaml", `
member_id: m1
period_id: P1
jurisdiction: federal
base_rate: 400
data_quality_score: 80
demographics:
  age_distribution:
    "65+": 1
  average_age: 67
family:
  principal: 1
  spouse: 1
discounts:
  - name: wellness
    rate: 0.05
`)

	input, err := parser.LoadCalculationInput(path)
	require.NoError(t, err)

	assert.Equal(t, "m1", input.MemberID)
	assert.Equal(t, "member:m1", input.Subject())
	require.NotNil(t, input.BaseRate)
	assert.True(t, input.BaseRate.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, 1, input.Demographics.MemberCount())
	require.Len(t, input.Discounts, 1)
	assert.True(t, input.Discounts[0].Rate.Equal(decimal.NewFromFloat(0.05)))
}

func TestValidateCalculationInput(t *testing.T) {
	parser := NewInputParser()
	zero := 0
	negative := decimal.NewFromInt(-1)

	valid := func() domain.CalculationInput {
		return domain.CalculationInput{MemberID: "m1", DataQualityScore: decimal.NewFromInt(50)}
	}

	tests := []struct {
		name        string
		modify      func(*domain.CalculationInput)
		errContains string
	}{
		{name: "valid", modify: func(*domain.CalculationInput) {}},
		{
			name:        "no subject",
			modify:      func(in *domain.CalculationInput) { in.MemberID = "" },
			errContains: "member_id",
		},
		{
			name:        "data quality above 100",
			modify:      func(in *domain.CalculationInput) { in.DataQualityScore = decimal.NewFromInt(101) },
			errContains: "data_quality_score",
		},
		{
			name:        "zero projection years",
			modify:      func(in *domain.CalculationInput) { in.ProjectionYears = &zero },
			errContains: "projection_years",
		},
		{
			name: "discount above one",
			modify: func(in *domain.CalculationInput) {
				in.Discounts = []domain.Discount{{Name: "loyalty", Rate: decimal.NewFromFloat(1.5)}}
			},
			errContains: "discount loyalty",
		},
		{
			name: "unnamed discount",
			modify: func(in *domain.CalculationInput) {
				in.Discounts = []domain.Discount{{Rate: decimal.NewFromFloat(0.1)}}
			},
			errContains: "name is required",
		},
		{
			name: "negative cost index",
			modify: func(in *domain.CalculationInput) {
				in.Demographics = &domain.Demographics{CostIndex: &negative}
			},
			errContains: "cost_index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid()
			tt.modify(&input)
			err := parser.ValidateCalculationInput(&input)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeInput))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadActuarialInput(t *testing.T) {
	parser := NewInputParser()

	path := writeFile(t, "group.yaml", `
jurisdiction: CA
demographics:
  average_age: 42
  industry: technology
benefits:
  deductible: 2500
  coinsurance: 0.2
  out_of_pocket_max: 6000
  network_type: ppo
  copay_structure: standard
smoker_surcharge: 0.3
`)

	input, err := parser.LoadActuarialInput(path)
	require.NoError(t, err)
	assert.Equal(t, "CA", input.Jurisdiction)
	assert.Equal(t, "ppo", input.Benefits.NetworkType)
	require.NotNil(t, input.SmokerSurcharge)
	assert.True(t, input.SmokerSurcharge.Equal(decimal.NewFromFloat(0.3)))

	bad := writeFile(t, "bad.yaml", `
benefits:
  coinsurance: 1.2
`)
	_, err = parser.LoadActuarialInput(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coinsurance")
}

func TestLoadSensitivityConfig(t *testing.T) {
	parser := NewInputParser()

	t.Run("defaults", func(t *testing.T) {
		config, err := parser.LoadSensitivityConfig(writeFile(t, "empty.yaml", "{}"))
		require.NoError(t, err)
		assert.Len(t, config.Parameters, len(domain.GetCommonParameters()))
		assert.Len(t, config.Scenarios, len(domain.DefaultScenarios()))
	})

	t.Run("custom parameter", func(t *testing.T) {
		config, err := parser.LoadSensitivityConfig(writeFile(t, "custom.yaml", `
parameters:
  - name: utilization
    min_value: -0.1
    max_value: 0.1
    steps: 3
    base_value: 0
scenarios:
  - name: shock
    values:
      utilization: 0.15
`))
		require.NoError(t, err)
		require.Len(t, config.Parameters, 1)
		assert.Equal(t, domain.ParamUtilization, config.Parameters[0].Name)
		require.Len(t, config.Scenarios, 1)
		assert.Equal(t, "shock", config.Scenarios[0].Name)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		_, err := parser.LoadSensitivityConfig(writeFile(t, "bad.yaml", `
parameters:
  - name: lapse_rate
    steps: 3
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown parameter")
		assert.Contains(t, err.Error(), domain.ParamMedicalTrend)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := parser.LoadSensitivityConfig(writeFile(t, "range.yaml", `
parameters:
  - name: risk_mix
    min_value: 0.2
    max_value: -0.2
    steps: 3
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "min_value exceeds max_value")
	})
}
