package testing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/infrastructure/repositories/memory"
)

// ScenarioOrganization is the supplier seeded by BuildSupplierScenario
const ScenarioOrganization = "acme-motors"

// Record builds a REPORTABLE ledger record; it panics on invalid input
func Record(kind entities.Kind, zevClass entities.ZevClass, modelYear entities.ModelYear, units string) entities.LedgerRecord {
	record, err := entities.NewLedgerRecord(kind, entities.Reportable, zevClass, modelYear, decimal.RequireFromString(units))
	if err != nil {
		panic(err)
	}
	return *record
}

// Render turns records into comparable strings with fixed precision
func Render(records []entities.LedgerRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Kind.String() + " " + r.Pair().String() + " " + r.ModelYear.String() + " " + r.Units.StringFixed(2)
	}
	return out
}

// BuildSupplierScenario seeds a large supplier with a closed MY_2022
// balance, two years of transactions and five years of supply:
//
//	MY_2022 balance   CREDIT A MY_2021 400, CREDIT UNSPECIFIED MY_2022 150
//	MY_2023 booked    CREDIT A MY_2023 200, TRANSFER_AWAY UNSPECIFIED MY_2022 50, CREDIT B MY_2023 80
//	MY_2024 booked    CREDIT UNSPECIFIED MY_2024 300
//	supply            MY_2020 4000, MY_2021 5000, MY_2022 6000, MY_2023 5500, MY_2024 6000
func BuildSupplierScenario() (*memory.LedgerRepository, *memory.VolumeRepository) {
	ctx := context.Background()
	ledgerRepo := memory.NewLedgerRepository(8)
	volumeRepo := memory.NewVolumeRepository()

	must(ledgerRepo.SaveEndingBalance(ctx, entities.EndingBalance{
		OrganizationID: ScenarioOrganization,
		ComplianceYear: entities.MY2022,
		Records: []entities.LedgerRecord{
			Record(entities.Credit, entities.ZevClassA, entities.MY2021, "400"),
			Record(entities.Credit, entities.Unspecified, entities.MY2022, "150"),
		},
	}))

	booked := []struct {
		year   entities.ModelYear
		record entities.LedgerRecord
	}{
		{entities.MY2023, Record(entities.Credit, entities.ZevClassA, entities.MY2023, "200")},
		{entities.MY2023, Record(entities.TransferAway, entities.Unspecified, entities.MY2022, "50")},
		{entities.MY2023, Record(entities.Credit, entities.ZevClassB, entities.MY2023, "80")},
		{entities.MY2024, Record(entities.Credit, entities.Unspecified, entities.MY2024, "300")},
	}
	transactions := make([]entities.Transaction, len(booked))
	for i, b := range booked {
		transactions[i] = entities.Transaction{
			ID:             uuid.New(),
			OrganizationID: ScenarioOrganization,
			ComplianceYear: b.year,
			Record:         b.record,
		}
	}
	must(ledgerRepo.AddTransactions(ctx, transactions))

	supply := map[entities.ModelYear]int64{
		entities.MY2020: 4000,
		entities.MY2021: 5000,
		entities.MY2022: 6000,
		entities.MY2023: 5500,
		entities.MY2024: 6000,
	}
	var volumes []entities.SupplyVolume
	for year, volume := range supply {
		volumes = append(volumes, entities.SupplyVolume{
			OrganizationID: ScenarioOrganization,
			ModelYear:      year,
			VehicleClass:   entities.Reportable,
			Volume:         decimal.NewFromInt(volume),
		})
	}
	must(volumeRepo.AddSupplyVolumes(ctx, volumes))

	return ledgerRepo, volumeRepo
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
