package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturesYAML = `
periods:
  - id: P2
    name: 2025
    start_date: 2025-01-01T00:00:00Z
    end_date: 2025-12-31T00:00:00Z
    active: true
premium_rates:
  - period_id: P2
    tax_rate: 0.02
    base_rate: 500
risk_assessments:
  - member_id: m1
    overall_risk_score: 72
    assessed_at: 2025-02-01T00:00:00Z
`

const groupYAML = `
jurisdiction: federal
demographics:
  average_age: 42
  industry: technology
benefits:
  deductible: 2500
  coinsurance: 0.2
  out_of_pocket_max: 6000
  network_type: ppo
  copay_structure: standard
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// memoryConfig writes a rating config backed by the in-memory fixtures
func memoryConfig(t *testing.T, dir string) string {
	t.Helper()
	fixtures := writeFile(t, dir, "fixtures.yaml", fixturesYAML)
	return writeFile(t, dir, "rating.yaml", `
logging:
  level: error
  output: `+filepath.Join(dir, "premium.log")+`
datasource:
  type: memory
  fixtures: `+fixtures+`
`)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "premium", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, expected := range []string{"calculate", "rates", "project", "sensitivity", "seed", "version"} {
		assert.True(t, names[expected], "missing command %s", expected)
	}

	for _, flag := range []string{"config", "format", "output", "log-level", "metrics-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "premium calculate")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "premium dev (commit none, built unknown)")
}

func TestCalculateCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := memoryConfig(t, dir)
	request := writeFile(t, dir, "request.yaml", `
member_id: m1
data_quality_score: 80
`)
	metricsFile := filepath.Join(dir, "premium.prom")

	out, err := execute(t, "calculate", request, "--config", cfg, "--format", "json", "--metrics-file", metricsFile)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "P2", result["periodId"])
	assert.Equal(t, "risk-adjusted", result["methodology"])
	assert.Equal(t, "500", result["basePremium"])

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `premium_calculations_total{methodology="risk-adjusted"} 1`)
}

func TestCalculateCommand_MemberOverride(t *testing.T) {
	dir := t.TempDir()
	request := writeFile(t, dir, "request.yaml", `
member_ids: [m1, m2]
data_quality_score: 80
`)

	out, err := execute(t, "calculate", request, "--config", memoryConfig(t, dir), "--member", "m9", "--format", "json")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "hybrid", result["methodology"])
	assert.Equal(t, "member:m9", result["subject"])
}

func TestCalculateCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing request",
			args: []string{"calculate", filepath.Join(dir, "missing.yaml")},
			want: "failed to read file",
		},
		{
			name: "invalid request",
			args: []string{"calculate", writeFile(t, dir, "bad.yaml", "data_quality_score: 80\n")},
			want: "member_id",
		},
		{
			name: "bad config",
			args: []string{"calculate", writeFile(t, dir, "ok.yaml", "member_id: m1\n"), "--config", writeFile(t, dir, "rating.yaml", "engine:\n  fetch_concurrency: 0\n")},
			want: "fetch_concurrency",
		},
		{
			name: "unsupported format",
			args: []string{"calculate", writeFile(t, dir, "ok2.yaml", "member_id: m1\n"), "--format", "xml"},
			want: "unsupported format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRatesCommand(t *testing.T) {
	dir := t.TempDir()
	group := writeFile(t, dir, "group.yaml", groupYAML)
	outFile := filepath.Join(dir, "rates.csv")

	out, err := execute(t, "rates", group, "--format", "csv", "--output", outFile, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"table", "segment", "unloaded", "gross"}, rows[0])
	assert.Greater(t, len(rows), 2)
}

func TestRatesCommand_Console(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "rates", writeFile(t, dir, "group.yaml", groupYAML), "--jurisdiction", "federal", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "ACTUARIAL RATE FILING")
}

func TestProjectCommand(t *testing.T) {
	dir := t.TempDir()
	group := writeFile(t, dir, "group.yaml", groupYAML)

	out, err := execute(t, "project", group, "--premium", "1000", "--years", "3", "--format", "json", "--log-level", "error")
	require.NoError(t, err)

	var projection struct {
		CurrentPremium string `json:"currentPremium"`
		Years          []struct {
			Year    int    `json:"year"`
			Premium string `json:"premium"`
		} `json:"years"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &projection))
	assert.Equal(t, "1000", projection.CurrentPremium)
	require.Len(t, projection.Years, 3)
	assert.Equal(t, 3, projection.Years[2].Year)

	_, err = execute(t, "project", group, "--premium", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --premium")

	_, err = execute(t, "project", group)
	require.Error(t, err)
}

func TestProjectCommand_YearsFromInput(t *testing.T) {
	dir := t.TempDir()
	group := writeFile(t, dir, "group.yaml", groupYAML+"projection_years: 2\n")

	out, err := execute(t, "project", group, "--premium", "500", "--format", "csv", "--log-level", "error")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSensitivityCommand(t *testing.T) {
	dir := t.TempDir()
	group := writeFile(t, dir, "group.yaml", groupYAML)

	t.Run("scenarios", func(t *testing.T) {
		out, err := execute(t, "sensitivity", group, "--type", "scenarios", "--format", "json", "--log-level", "error")
		require.NoError(t, err)

		var analysis struct {
			Outcomes []struct {
				Name string `json:"name"`
			} `json:"outcomes"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &analysis))
		require.Len(t, analysis.Outcomes, 3)
		assert.Equal(t, "favorable", analysis.Outcomes[0].Name)
	})

	t.Run("single", func(t *testing.T) {
		out, err := execute(t, "sensitivity", group, "--type", "single", "--parameter", "utilization", "--log-level", "error")
		require.NoError(t, err)
		assert.Contains(t, out, "SENSITIVITY ANALYSIS")
	})

	t.Run("multi from sweep file", func(t *testing.T) {
		sweep := writeFile(t, dir, "sweep.yaml", `
parameters:
  - name: medical_trend
    base_value: 0.07
    min_value: 0.05
    max_value: 0.09
    steps: 3
    unit: percent
`)
		out, err := execute(t, "sensitivity", group, "--sweep", sweep, "--format", "csv", "--log-level", "error")
		require.NoError(t, err)
		rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		_, err := execute(t, "sensitivity", group, "--type", "single", "--parameter", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not in the sweep set")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := execute(t, "sensitivity", group, "--type", "matrix")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown analysis type")
	})
}

func TestSeedCommand_RequiresPostgres(t *testing.T) {
	dir := t.TempDir()
	fixtures := writeFile(t, dir, "fixtures.yaml", fixturesYAML)

	_, err := execute(t, "seed", fixtures, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires --dsn")

	_, err = execute(t, "seed", writeFile(t, dir, "bad.yaml", "periods:\n  - name: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}
