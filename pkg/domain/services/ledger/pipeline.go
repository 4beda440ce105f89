package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// Stage names used in errors and audit output
const (
	StageSpecialDebits           = "special-debits"
	StageUnspecifiedDebits       = "unspecified-debits"
	StageOtherViaUnspecified     = "other-debits-via-unspecified-credits"
	StageOtherViaMatchingCredits = "other-debits-via-matching-credits"
)

// BalanceResult is the outcome of ComputeBalance
type BalanceResult struct {
	// Balance is the flattened remainder after every offsetting stage
	Balance []entities.LedgerRecord
	// OffsetCredits are the credit portions consumed by the stages
	OffsetCredits []entities.LedgerRecord
	// Stages lists the consumed credit portions stage by stage
	Stages []StageAudit
}

// StageAudit is the credit consumption of one offsetting stage
type StageAudit struct {
	Stage    string                  `json:"stage"`
	Consumed []entities.LedgerRecord `json:"consumed"`
}

// ComputeBalance nets transfers away, then applies the four statutory
// offsetting stages in order. When nothing remains, the balance holds a zero
// credit for every supplier-facing pair in reportModelYear so reports always
// have a row to show.
func ComputeBalance(
	records []entities.LedgerRecord,
	ordering []entities.ZevClass,
	reportModelYear entities.ModelYear,
) (*BalanceResult, error) {
	rank, err := priorityRank(ordering)
	if err != nil {
		return nil, err
	}

	netted, err := NetTransfersAway(records)
	if err != nil {
		return nil, fmt.Errorf("failed to net transfers away: %w", err)
	}

	result := &BalanceResult{}
	var audit []entities.LedgerRecord
	record := func(stage string, consumed []entities.LedgerRecord) {
		audit = append(audit, consumed...)
		result.Stages = append(result.Stages, StageAudit{Stage: stage, Consumed: Normalize(consumed)})
	}

	agg := Summarize(netted)
	agg, consumed := OffsetSpecialDebits(agg)
	record(StageSpecialDebits, consumed)

	agg, consumed = offsetUnspecifiedDebits(agg, rank)
	record(StageUnspecifiedDebits, consumed)

	agg, consumed = OffsetOtherDebitsWithUnspecifiedCredits(agg)
	record(StageOtherViaUnspecified, consumed)

	agg, consumed = OffsetOtherDebitsWithMatchingCredits(agg)
	record(StageOtherViaMatchingCredits, consumed)

	result.Balance = Flatten(agg)
	if len(result.Balance) == 0 {
		result.Balance = zeroBalance(reportModelYear)
	}
	result.OffsetCredits = Normalize(audit)

	return result, nil
}

// OffsetSpecialDebits settles debits of each special pair against credits of
// that pair only, oldest model year first.
func OffsetSpecialDebits(agg Aggregate) (Aggregate, []entities.LedgerRecord) {
	next := agg.clone()
	var consumed []entities.LedgerRecord
	for _, pair := range entities.SpecialPairs {
		same := func(p entities.Pair) bool { return p == pair }
		consumed = append(consumed, offsetGroup(next, same, same)...)
	}
	return next, consumed
}

// OffsetUnspecifiedDebits settles UNSPECIFIED debits of each vehicle class
// against that class's credits of every zev class, consumed in the given
// class priority and oldest model year first within a class. ordering must
// name every zev class exactly once.
func OffsetUnspecifiedDebits(agg Aggregate, ordering []entities.ZevClass) (Aggregate, []entities.LedgerRecord, error) {
	rank, err := priorityRank(ordering)
	if err != nil {
		return nil, nil, err
	}
	next, consumed := offsetUnspecifiedDebits(agg, rank)
	return next, consumed, nil
}

func offsetUnspecifiedDebits(agg Aggregate, rank map[entities.ZevClass]int) (Aggregate, []entities.LedgerRecord) {
	next := agg.clone()
	var consumed []entities.LedgerRecord
	for _, vc := range entities.AllVehicleClasses {
		debits := next.collect(entities.Debit, func(p entities.Pair) bool {
			return p.VehicleClass == vc && p.ZevClass == entities.Unspecified
		})
		credits := next.collect(entities.Credit, func(p entities.Pair) bool {
			return p.VehicleClass == vc
		})
		if len(debits) == 0 || len(credits) == 0 {
			continue
		}
		remainder, used := Offset(ByPriorityThenOldest(credits, rank), OldestFirst(debits))
		next.settle([][]entities.LedgerRecord{credits, debits}, remainder)
		consumed = append(consumed, used...)
	}
	return next, consumed
}

// OffsetOtherDebitsWithUnspecifiedCredits settles the debits of every
// non-special pair against UNSPECIFIED credits of the same vehicle class.
func OffsetOtherDebitsWithUnspecifiedCredits(agg Aggregate) (Aggregate, []entities.LedgerRecord) {
	next := agg.clone()
	var consumed []entities.LedgerRecord
	for _, pair := range entities.AllPairs() {
		if pair.IsSpecial() {
			continue
		}
		debitSide := func(p entities.Pair) bool { return p == pair }
		creditSide := func(p entities.Pair) bool {
			return p.VehicleClass == pair.VehicleClass && p.ZevClass == entities.Unspecified
		}
		consumed = append(consumed, offsetGroup(next, creditSide, debitSide)...)
	}
	return next, consumed
}

// OffsetOtherDebitsWithMatchingCredits settles any remaining debits against
// credits of exactly the same pair.
func OffsetOtherDebitsWithMatchingCredits(agg Aggregate) (Aggregate, []entities.LedgerRecord) {
	next := agg.clone()
	var consumed []entities.LedgerRecord
	for _, pair := range entities.AllPairs() {
		same := func(p entities.Pair) bool { return p == pair }
		consumed = append(consumed, offsetGroup(next, same, same)...)
	}
	return next, consumed
}

// offsetGroup offsets the matching debits against the matching credits, both
// oldest first, and writes the remainder back into agg.
func offsetGroup(agg Aggregate, creditSide, debitSide func(entities.Pair) bool) []entities.LedgerRecord {
	debits := agg.collect(entities.Debit, debitSide)
	credits := agg.collect(entities.Credit, creditSide)
	if len(debits) == 0 || len(credits) == 0 {
		return nil
	}
	remainder, consumed := Offset(OldestFirst(credits), OldestFirst(debits))
	agg.settle([][]entities.LedgerRecord{credits, debits}, remainder)
	return consumed
}

func priorityRank(ordering []entities.ZevClass) (map[entities.ZevClass]int, error) {
	rank := make(map[entities.ZevClass]int, len(ordering))
	var duplicated []entities.ZevClass
	for i, class := range ordering {
		if _, seen := rank[class]; seen {
			duplicated = append(duplicated, class)
			continue
		}
		rank[class] = i
	}

	var missing []entities.ZevClass
	for _, class := range entities.AllZevClasses {
		if _, ok := rank[class]; !ok {
			missing = append(missing, class)
		}
	}

	if len(missing) > 0 || len(duplicated) > 0 {
		return nil, &entities.IncompleteOrderingError{
			Stage:      StageUnspecifiedDebits,
			Missing:    missing,
			Duplicated: duplicated,
		}
	}
	return rank, nil
}

func zeroBalance(modelYear entities.ModelYear) []entities.LedgerRecord {
	records := make([]entities.LedgerRecord, 0, len(entities.AllVehicleClasses)*len(entities.SupplierZevClasses))
	for _, vc := range entities.AllVehicleClasses {
		for _, zc := range entities.SupplierZevClasses {
			records = append(records, entities.LedgerRecord{
				Kind:         entities.Credit,
				VehicleClass: vc,
				ZevClass:     zc,
				ModelYear:    modelYear,
				Units:        decimal.Zero,
			})
		}
	}
	return records
}
