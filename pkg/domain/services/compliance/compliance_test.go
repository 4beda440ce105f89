package compliance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testTables() entities.StatutoryTables {
	return entities.StatutoryTables{
		Ratios: map[entities.RatioKey]decimal.Decimal{
			{VehicleClass: entities.Reportable, ZevClass: entities.Unspecified, ModelYear: entities.MY2024}: d("0.195"),
			{VehicleClass: entities.Reportable, ZevClass: entities.ZevClassA, ModelYear: entities.MY2024}:   d("0.06"),
			{VehicleClass: entities.Reportable, ZevClass: entities.Unspecified, ModelYear: entities.MY2026}: d("0.26"),
			{VehicleClass: entities.Reportable, ZevClass: entities.ZevClassA, ModelYear: entities.MY2026}:   d("0.08"),
		},
		PenaltyRates: map[entities.ModelYear]decimal.Decimal{
			entities.MY2024: d("200"),
		},
		MediumSpecialFrom: entities.MY2026,
		Thresholds:        entities.SupplierThresholds{Medium: d("1000"), Large: d("5000")},
	}
}

func nv(volume string) map[entities.VehicleClass]decimal.Decimal {
	return map[entities.VehicleClass]decimal.Decimal{entities.Reportable: d(volume)}
}

func record(kind entities.Kind, zc entities.ZevClass, units string) entities.LedgerRecord {
	return entities.LedgerRecord{
		Kind:         kind,
		VehicleClass: entities.Reportable,
		ZevClass:     zc,
		ModelYear:    entities.MY2024,
		Units:        d(units),
	}
}

type reductionLine struct {
	zevClass entities.ZevClass
	ratio    string
	amount   string
}

func lines(reductions []entities.ComplianceReduction) []reductionLine {
	out := make([]reductionLine, len(reductions))
	for i, r := range reductions {
		out[i] = reductionLine{
			zevClass: r.ZevClass,
			ratio:    r.ComplianceRatio.String(),
			amount:   r.Units.StringFixed(2),
		}
	}
	return out
}

func TestReductionsFor(t *testing.T) {
	tests := []struct {
		name      string
		volume    string
		modelYear entities.ModelYear
		class     entities.SupplierClass
		want      []reductionLine
	}{
		{
			name:      "small supplier owes nothing",
			volume:    "1000",
			modelYear: entities.MY2024,
			class:     entities.Small,
			want:      []reductionLine{{entities.Unspecified, "0", "0.00"}},
		},
		{
			name:      "medium supplier before special obligations",
			volume:    "1000",
			modelYear: entities.MY2024,
			class:     entities.Medium,
			want:      []reductionLine{{entities.Unspecified, "0.195", "195.00"}},
		},
		{
			name:      "medium supplier with special obligations",
			volume:    "1000",
			modelYear: entities.MY2026,
			class:     entities.Medium,
			want: []reductionLine{
				{entities.ZevClassA, "0.08", "80.00"},
				{entities.Unspecified, "0.26", "180.00"},
			},
		},
		{
			name:      "large supplier subtracts special amount",
			volume:    "1234",
			modelYear: entities.MY2024,
			class:     entities.Large,
			want: []reductionLine{
				{entities.ZevClassA, "0.06", "74.04"},
				{entities.Unspecified, "0.195", "166.59"},
			},
		},
		{
			name:      "amounts round to two places",
			volume:    "3",
			modelYear: entities.MY2024,
			class:     entities.Medium,
			want:      []reductionLine{{entities.Unspecified, "0.195", "0.59"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reductions, err := ReductionsFor(testTables(), nv(tt.volume), tt.modelYear, tt.class)

			require.NoError(t, err)
			assert.Equal(t, tt.want, lines(reductions))
			for _, r := range reductions {
				assert.Equal(t, entities.Debit, r.Kind)
				assert.Equal(t, tt.modelYear, r.ModelYear)
				assert.True(t, r.NV.Equal(d(tt.volume)))
			}
		})
	}
}

func TestReductionsFor_NoVolume(t *testing.T) {
	reductions, err := ReductionsFor(testTables(), nil, entities.MY2024, entities.Large)

	require.NoError(t, err)
	assert.Empty(t, reductions)
}

func TestReductionsFor_MissingRatio(t *testing.T) {
	tests := []struct {
		name  string
		class entities.SupplierClass
		table string
	}{
		{"unspecified ratio", entities.Medium, "unspecified_ratios"},
		{"special ratio", entities.Large, "special_ratios"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := testTables()
			tables.Ratios = map[entities.RatioKey]decimal.Decimal{
				{VehicleClass: entities.Reportable, ZevClass: entities.Unspecified, ModelYear: entities.MY2025}: d("0.2"),
			}
			if tt.table == "special_ratios" {
				tables.Ratios[entities.RatioKey{VehicleClass: entities.Reportable, ZevClass: entities.Unspecified, ModelYear: entities.MY2024}] = d("0.2")
			}

			_, err := ReductionsFor(tables, nv("1000"), entities.MY2024, tt.class)

			require.ErrorIs(t, err, entities.ErrMissingStatutoryValue)
			var missing *entities.MissingStatutoryValueError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.table, missing.Table)
		})
	}
}

func TestReductionsFor_SpecialRatioAboveUnspecified(t *testing.T) {
	tables := testTables()
	tables.Ratios[entities.RatioKey{VehicleClass: entities.Reportable, ZevClass: entities.ZevClassA, ModelYear: entities.MY2024}] = d("0.3")

	reductions, err := ReductionsFor(tables, nv("1000"), entities.MY2024, entities.Large)

	require.ErrorIs(t, err, entities.ErrInvalidStatutoryValue)
	var invalid *entities.InvalidStatutoryValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "special_ratios", invalid.Table)
	assert.Nil(t, reductions)

	// Equal ratios leave a zero unspecified reduction
	tables.Ratios[entities.RatioKey{VehicleClass: entities.Reportable, ZevClass: entities.ZevClassA, ModelYear: entities.MY2024}] = d("0.195")
	reductions, err = ReductionsFor(tables, nv("1000"), entities.MY2024, entities.Large)
	require.NoError(t, err)
	require.Len(t, reductions, 2)
	assert.True(t, reductions[1].Units.IsZero())
}

func TestReductionsFor_SmallNeedsNoTables(t *testing.T) {
	reductions, err := ReductionsFor(entities.StatutoryTables{}, nv("1000"), entities.MY2030, entities.Small)

	require.NoError(t, err)
	require.Len(t, reductions, 1)
	assert.True(t, reductions[0].Units.IsZero())
}

func TestRecords(t *testing.T) {
	reductions, err := ReductionsFor(testTables(), nv("1000"), entities.MY2024, entities.Large)
	require.NoError(t, err)

	records := Records(reductions)

	require.Len(t, records, 2)
	assert.Equal(t, reductions[0].LedgerRecord, records[0])
	assert.Equal(t, reductions[1].LedgerRecord, records[1])
}

func TestPenalties(t *testing.T) {
	tests := []struct {
		name   string
		prior  []entities.LedgerRecord
		ending []entities.LedgerRecord
		want   string
	}{
		{
			name:   "repeated deficit is priced at the model year rate",
			prior:  []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "4")},
			ending: []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "10")},
			want:   "2000.00",
		},
		{
			name:   "fractional units",
			prior:  []entities.LedgerRecord{record(entities.Debit, entities.ZevClassA, "1")},
			ending: []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "0.125")},
			want:   "25.00",
		},
		{
			name:   "first deficit is not penalized",
			prior:  []entities.LedgerRecord{record(entities.Credit, entities.ZevClassB, "5")},
			ending: []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "10")},
			want:   "0.00",
		},
		{
			name:   "prior deficit cleared this year",
			prior:  []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "4")},
			ending: []entities.LedgerRecord{record(entities.Credit, entities.Unspecified, "1")},
			want:   "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			penalty, err := GetPenalty(testTables(), entities.MY2024, tt.prior, tt.ending)

			require.NoError(t, err)
			assert.Equal(t, tt.want, penalty.StringFixed(2))
		})
	}
}

func TestPenalties_MissingRate(t *testing.T) {
	prior := []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "1")}

	t.Run("fatal when a deficit must be priced", func(t *testing.T) {
		_, err := Penalties(testTables(), entities.MY2025, prior, nil)
		assert.ErrorIs(t, err, entities.ErrMissingStatutoryValue)
	})

	t.Run("not consulted without a prior deficit", func(t *testing.T) {
		penalties, err := Penalties(testTables(), entities.MY2025, nil, prior)
		require.NoError(t, err)
		assert.Empty(t, penalties)
	})
}

func TestEvaluateCompliance(t *testing.T) {
	tests := []struct {
		name      string
		class     entities.SupplierClass
		modelYear entities.ModelYear
		ending    []entities.LedgerRecord
		want      bool
	}{
		{
			name:      "credits only",
			class:     entities.Large,
			modelYear: entities.MY2024,
			ending:    []entities.LedgerRecord{record(entities.Credit, entities.ZevClassB, "1")},
			want:      true,
		},
		{
			name:      "special debit with obligations",
			class:     entities.Large,
			modelYear: entities.MY2024,
			ending: []entities.LedgerRecord{
				record(entities.Credit, entities.ZevClassB, "1"),
				record(entities.Debit, entities.ZevClassA, "1"),
			},
			want: false,
		},
		{
			name:      "special debit before medium obligations",
			class:     entities.Medium,
			modelYear: entities.MY2024,
			ending: []entities.LedgerRecord{
				record(entities.Credit, entities.ZevClassB, "1"),
				record(entities.Debit, entities.ZevClassA, "1"),
			},
			want: true,
		},
		{
			name:      "debit without any credit",
			class:     entities.Medium,
			modelYear: entities.MY2024,
			ending:    []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "3")},
			want:      false,
		},
		{
			name:      "small supplier debit without credit",
			class:     entities.Small,
			modelYear: entities.MY2024,
			ending:    []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "3")},
			want:      true,
		},
		{
			name:      "zero balance rows",
			class:     entities.Large,
			modelYear: entities.MY2024,
			ending: []entities.LedgerRecord{
				record(entities.Credit, entities.ZevClassA, "0"),
				record(entities.Credit, entities.Unspecified, "0"),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcomes, err := EvaluateCompliance(testTables(), tt.class, tt.modelYear, nil, tt.ending)

			require.NoError(t, err)
			require.Len(t, outcomes, len(entities.AllVehicleClasses))
			assert.Equal(t, entities.Reportable, outcomes[0].VehicleClass)
			assert.Equal(t, tt.want, outcomes[0].IsCompliant)
			assert.True(t, outcomes[0].Penalty.IsZero())
		})
	}
}

func TestEvaluateCompliance_CarriesPenalty(t *testing.T) {
	prior := []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "2")}
	ending := []entities.LedgerRecord{record(entities.Debit, entities.Unspecified, "10")}

	outcomes, err := EvaluateCompliance(testTables(), entities.Large, entities.MY2024, prior, ending)

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].IsCompliant)
	assert.Equal(t, "2000.00", outcomes[0].Penalty.StringFixed(2))
}

func TestClassifySupplier(t *testing.T) {
	thresholds := testTables().Thresholds

	tests := []struct {
		name    string
		volumes []string
		want    entities.SupplierClass
	}{
		{"no history", nil, entities.Small},
		{"below medium", []string{"999"}, entities.Small},
		{"exactly medium", []string{"1000"}, entities.Medium},
		{"averaged into medium", []string{"500", "1500", "1300"}, entities.Medium},
		{"exactly large", []string{"5000", "5000"}, entities.Large},
		{"only three years count", []string{"6000", "6000", "6000", "0"}, entities.Large},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			volumes := make([]decimal.Decimal, len(tt.volumes))
			for i, v := range tt.volumes {
				volumes[i] = d(v)
			}
			assert.Equal(t, tt.want, ClassifySupplier(volumes, thresholds))
		})
	}
}
