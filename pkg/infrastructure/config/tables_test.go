package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

func TestDefaultTables(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	assert.Equal(t, entities.MY2026, tables.MediumSpecialFrom)
	assert.Equal(t, "1000", tables.Thresholds.Medium.String())
	assert.Equal(t, "5000", tables.Thresholds.Large.String())
	assert.Equal(t, []entities.ZevClass{entities.ZevClassA, entities.ZevClassB, entities.ZevClassC, entities.Unspecified}, tables.ZevClassPriority)

	for _, year := range entities.AllModelYears() {
		_, err := tables.UnspecifiedRatio(entities.Reportable, year)
		assert.NoError(t, err, "unspecified ratio for %s", year)
		_, err = tables.SpecialRatio(entities.SpecialPairs[0], year)
		assert.NoError(t, err, "special ratio for %s", year)
		_, err = tables.PenaltyRate(year)
		assert.NoError(t, err, "penalty rate for %s", year)
	}

	ratio, err := tables.UnspecifiedRatio(entities.Reportable, entities.MY2024)
	require.NoError(t, err)
	assert.Equal(t, "0.195", ratio.String())
}

func TestLoadTables_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	override := `
medium_special_from: "2025"
penalty_rates:
  "MY_2024": "7500.50"
unspecified_ratios:
  REPORTABLE:
    "2024": "0.2"
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o600))

	tables, err := LoadTables(path)
	require.NoError(t, err)

	assert.Equal(t, entities.MY2025, tables.MediumSpecialFrom)
	rate, err := tables.PenaltyRate(entities.MY2024)
	require.NoError(t, err)
	assert.Equal(t, "7500.5", rate.String())
	ratio, err := tables.UnspecifiedRatio(entities.Reportable, entities.MY2024)
	require.NoError(t, err)
	assert.Equal(t, "0.2", ratio.String())

	// untouched entries keep their defaults
	ratio, err = tables.UnspecifiedRatio(entities.Reportable, entities.MY2023)
	require.NoError(t, err)
	assert.Equal(t, "0.17", ratio.String())
}

func TestLoadTables_FromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`medium_special_from: "MY_2030"`), 0o600))
	t.Setenv("ZEVLEDGER_TABLES", path)

	tables, err := LoadTables("")

	require.NoError(t, err)
	assert.Equal(t, entities.MY2030, tables.MediumSpecialFrom)
}

func TestParseTables_Errors(t *testing.T) {
	base, err := DefaultTables()
	require.NoError(t, err)

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "penalty_rate: {}", "field penalty_rate not found"},
		{"bad decimal", `penalty_rates: {"MY_2024": "lots"}`, `penalty_rates.MY_2024: invalid decimal "lots"`},
		{"bad year", `penalty_rates: {"MY_1999": "1"}`, "model year 1999 out of range"},
		{"ratio above one", `unspecified_ratios: {REPORTABLE: {"MY_2024": "1.5"}}`, "must be between 0 and 1"},
		{"special above unspecified", `special_ratios: {REPORTABLE: {A: {"MY_2024": "0.5"}}}`, "exceeds unspecified ratio"},
		{"not a special pair", `special_ratios: {REPORTABLE: {B: {"MY_2024": "0.01"}}}`, "REPORTABLE/B is not a special pair"},
		{"incomplete priority", `zev_class_priority: [A, B, UNSPECIFIED]`, "zev_class_priority: C missing"},
		{"duplicated priority", `zev_class_priority: [A, B, B, C, UNSPECIFIED]`, "zev_class_priority: B listed twice"},
		{"inverted thresholds", `supplier_thresholds: {medium: "6000"}`, "medium 6000 must be below large 5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTables([]byte(tt.yaml), base)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseTables_DoesNotMutateBase(t *testing.T) {
	base, err := DefaultTables()
	require.NoError(t, err)

	_, err = ParseTables([]byte(`penalty_rates: {"MY_2024": "1"}`), base)
	require.NoError(t, err)

	rate, err := base.PenaltyRate(entities.MY2024)
	require.NoError(t, err)
	assert.Equal(t, "5000", rate.String())
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("ZEVLEDGER_DSN", "postgres://localhost/zev")
	t.Setenv("ZEVLEDGER_LOG", "")

	settings := LoadSettings()

	assert.Equal(t, "postgres://localhost/zev", settings.DSN)
	assert.Equal(t, "dev", settings.LogMode)
}
