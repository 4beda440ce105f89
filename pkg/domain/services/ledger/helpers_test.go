package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

func mustRecord(kind entities.Kind, zc entities.ZevClass, my entities.ModelYear, units string) entities.LedgerRecord {
	record, err := entities.NewLedgerRecord(kind, entities.Reportable, zc, my, decimal.RequireFromString(units))
	if err != nil {
		panic(err)
	}
	return *record
}

func credit(zc entities.ZevClass, my entities.ModelYear, units string) entities.LedgerRecord {
	return mustRecord(entities.Credit, zc, my, units)
}

func debit(zc entities.ZevClass, my entities.ModelYear, units string) entities.LedgerRecord {
	return mustRecord(entities.Debit, zc, my, units)
}

func away(zc entities.ZevClass, my entities.ModelYear, units string) entities.LedgerRecord {
	return mustRecord(entities.TransferAway, zc, my, units)
}

// render turns records into comparable strings; decimals with different
// exponents compare equal once rendered with fixed precision.
func render(records []entities.LedgerRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Kind.String() + " " + r.Pair().String() + " " + r.ModelYear.String() + " " + r.Units.StringFixed(2)
	}
	return out
}

var defaultOrdering = []entities.ZevClass{
	entities.ZevClassA,
	entities.ZevClassB,
	entities.ZevClassC,
	entities.Unspecified,
}
