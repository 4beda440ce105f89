package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.ObserveOperation("assess", "ok", 3*time.Millisecond)
	m.ObserveOperation("assess", "ok", time.Millisecond)
	m.AddOffsetUnits("special-debits", 2.5)
	m.AddOffsetUnits("special-debits", 0)
	m.IncrementAssessment("LARGE", false)
	m.AddPenalty(2000)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("assess", "ok")))
	assert.Equal(t, 2.5, testutil.ToFloat64(m.OffsetUnits.WithLabelValues("special-debits")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Assessments.WithLabelValues("LARGE", "false")))
	assert.Equal(t, 2000.0, testutil.ToFloat64(m.PenaltyAmount))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("balance", "ok", time.Second)
		m.AddOffsetUnits("stage", 1)
		m.IncrementAssessment("SMALL", true)
		m.AddPenalty(1)
	})
	assert.NoError(t, m.WriteToTextfile("unused"))
}

func TestMetrics_WriteToTextfile(t *testing.T) {
	m := New()
	m.ObserveOperation("balance", "ok", time.Millisecond)
	path := filepath.Join(t.TempDir(), "zevledger.prom")

	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `zevledger_operations_total{operation="balance",result="ok"} 1`)
}

func TestNew_IndependentRegistries(t *testing.T) {
	first, second := New(), New()
	first.AddPenalty(10)

	assert.NotSame(t, first.Registry(), second.Registry())
	assert.Equal(t, 1, testutil.CollectAndCount(first.PenaltyAmount))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.PenaltyAmount))

	families, err := first.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	assert.Contains(t, names, "zevledger_penalty_amount_total")

	var none *Metrics
	assert.Nil(t, none.Registry())
}
