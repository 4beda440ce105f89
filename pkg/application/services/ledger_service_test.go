package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/domain/repositories"
	"github.com/vsinha/zevledger/pkg/infrastructure/events"
	"github.com/vsinha/zevledger/pkg/infrastructure/metrics"
	"github.com/vsinha/zevledger/pkg/infrastructure/repositories/memory"
)

var fixedNow = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func units(kind entities.Kind, zc entities.ZevClass, my entities.ModelYear, amount string) entities.LedgerRecord {
	return entities.LedgerRecord{
		Kind:         kind,
		VehicleClass: entities.Reportable,
		ZevClass:     zc,
		ModelYear:    my,
		Units:        decimal.RequireFromString(amount),
	}
}

func booked(org string, year entities.ModelYear, record entities.LedgerRecord) entities.Transaction {
	return entities.Transaction{
		ID:             uuid.New(),
		OrganizationID: org,
		ComplianceYear: year,
		Record:         record,
	}
}

func rendered(records []entities.LedgerRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Kind.String() + " " + r.Pair().String() + " " + r.ModelYear.String() + " " + r.Units.StringFixed(2)
	}
	return out
}

func testObservability() (Observability, *metrics.Metrics, events.EventStore) {
	m := metrics.New()
	store := events.NewInMemoryEventStore(nil)
	return Observability{
		Metrics: m,
		Events:  store,
		Now:     func() time.Time { return fixedNow },
	}, m, store
}

func seededLedger(t *testing.T) *memory.LedgerRepository {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewLedgerRepository(8)

	require.NoError(t, repo.SaveEndingBalance(ctx, entities.EndingBalance{
		OrganizationID: "org-1",
		ComplianceYear: entities.MY2023,
		Records: []entities.LedgerRecord{
			units(entities.Credit, entities.ZevClassA, entities.MY2023, "100"),
		},
	}))
	require.NoError(t, repo.AddTransactions(ctx, []entities.Transaction{
		booked("org-1", entities.MY2023, units(entities.Credit, entities.Unspecified, entities.MY2023, "999")),
		booked("org-1", entities.MY2024, units(entities.Credit, entities.Unspecified, entities.MY2024, "20")),
		booked("org-1", entities.MY2024, units(entities.TransferAway, entities.ZevClassA, entities.MY2023, "30")),
		booked("org-1", entities.MY2025, units(entities.Credit, entities.ZevClassB, entities.MY2025, "5")),
	}))
	return repo
}

func TestLedgerService_CurrentBalance(t *testing.T) {
	obs, m, store := testObservability()
	service := NewLedgerService(seededLedger(t), obs)

	report, err := service.CurrentBalance(context.Background(), "org-1")
	require.NoError(t, err)

	assert.Equal(t, "org-1", report.OrganizationID)
	assert.Nil(t, report.AsOf)
	assert.Equal(t, fixedNow, report.ComputedAt)
	assert.False(t, report.Balance.Deficit)
	assert.ElementsMatch(t, []string{
		"CREDIT REPORTABLE/A MY_2023 70.00",
		"CREDIT REPORTABLE/UNSPECIFIED MY_2024 20.00",
		"CREDIT REPORTABLE/B MY_2025 5.00",
	}, rendered(report.Balance.Records))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(operationBalance, "ok")))
	audit, err := store.ReadEvents("org-1", 0)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, events.BalanceComputedEvent, audit[0].Type())
}

func TestLedgerService_BalanceAsOf(t *testing.T) {
	obs, _, _ := testObservability()
	service := NewLedgerService(seededLedger(t), obs)

	report, err := service.BalanceAsOf(context.Background(), "org-1", entities.MY2024)
	require.NoError(t, err)
	require.NotNil(t, report.AsOf)
	assert.Equal(t, entities.MY2024, *report.AsOf)
	assert.ElementsMatch(t, []string{
		"CREDIT REPORTABLE/A MY_2023 70.00",
		"CREDIT REPORTABLE/UNSPECIFIED MY_2024 20.00",
	}, rendered(report.Balance.Records))

	report, err = service.BalanceAsOf(context.Background(), "org-1", entities.MY2023)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREDIT REPORTABLE/A MY_2023 100.00"}, rendered(report.Balance.Records))
}

func TestLedgerService_Deficit(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewLedgerRepository(0)
	require.NoError(t, repo.SaveEndingBalance(ctx, entities.EndingBalance{
		OrganizationID: "org-2",
		ComplianceYear: entities.MY2024,
		Records: []entities.LedgerRecord{
			units(entities.Debit, entities.Unspecified, entities.MY2024, "12"),
		},
	}))
	service := NewLedgerService(repo, Observability{})

	report, err := service.CurrentBalance(ctx, "org-2")
	require.NoError(t, err)
	assert.True(t, report.Balance.Deficit)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"balance":"deficit"`)
}

func TestLedgerService_UnknownOrganization(t *testing.T) {
	service := NewLedgerService(memory.NewLedgerRepository(0), Observability{})

	report, err := service.CurrentBalance(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, report.Balance.Deficit)
	assert.Empty(t, report.Balance.Records)
}

func TestLedgerService_IsTransferCovered(t *testing.T) {
	obs, _, store := testObservability()
	service := NewLedgerService(seededLedger(t), obs)

	tests := []struct {
		name    string
		content []entities.TransferContent
		covered bool
	}{
		{
			name: "within holdings",
			content: []entities.TransferContent{
				{VehicleClass: entities.Reportable, ZevClass: entities.ZevClassA, ModelYear: entities.MY2023, Units: decimal.NewFromInt(70)},
				{VehicleClass: entities.Reportable, ZevClass: entities.ZevClassB, ModelYear: entities.MY2025, Units: decimal.NewFromInt(5)},
			},
			covered: true,
		},
		{
			name: "more than held",
			content: []entities.TransferContent{
				{VehicleClass: entities.Reportable, ZevClass: entities.ZevClassA, ModelYear: entities.MY2023, Units: decimal.NewFromInt(71)},
			},
			covered: false,
		},
		{
			name: "model year not held",
			content: []entities.TransferContent{
				{VehicleClass: entities.Reportable, ZevClass: entities.Unspecified, ModelYear: entities.MY2025, Units: decimal.NewFromInt(1)},
			},
			covered: false,
		},
		{
			name:    "empty transfer",
			covered: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := service.IsTransferCovered(context.Background(), "org-1", tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.covered, check.Covered)
		})
	}

	audit, err := store.ReadEvents("org-1", 0)
	require.NoError(t, err)
	assert.Len(t, audit, len(tests))
}

func TestLedgerService_TransferFromDeficit(t *testing.T) {
	ctx := context.Background()
	obs, m, _ := testObservability()
	repo := memory.NewLedgerRepository(0)
	require.NoError(t, repo.SaveEndingBalance(ctx, entities.EndingBalance{
		OrganizationID: "org-3",
		ComplianceYear: entities.MY2024,
		Records: []entities.LedgerRecord{
			units(entities.Debit, entities.Unspecified, entities.MY2024, "1"),
		},
	}))
	service := NewLedgerService(repo, obs)

	_, err := service.IsTransferCovered(ctx, "org-3", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrUnexpectedDebit))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(operationTransferCheck, "error")))
}

type failingLedger struct {
	repositories.LedgerRepository
}

func (failingLedger) EndingBalances(context.Context, string) ([]entities.EndingBalance, error) {
	return nil, errors.New("connection refused")
}

func TestLedgerService_RepositoryFailure(t *testing.T) {
	service := NewLedgerService(failingLedger{}, Observability{})

	_, err := service.CurrentBalance(context.Background(), "org-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load ending balances of org-1")
}
