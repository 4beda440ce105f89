package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// Sequence is an ordered run of records in consumption priority. It can only
// be built through OldestFirst or ByPriorityThenOldest, so Offset never sees
// an unsorted input.
type Sequence struct {
	records []entities.LedgerRecord
}

// OldestFirst orders records by ascending model year. Records of the same
// model year keep their relative order.
func OldestFirst(records []entities.LedgerRecord) Sequence {
	sorted := make([]entities.LedgerRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ModelYear < sorted[j].ModelYear
	})
	return Sequence{records: sorted}
}

// ByPriorityThenOldest orders records by the rank of their zev class, then by
// ascending model year. rank must cover every class present in records.
func ByPriorityThenOldest(records []entities.LedgerRecord, rank map[entities.ZevClass]int) Sequence {
	sorted := make([]entities.LedgerRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank[sorted[i].ZevClass], rank[sorted[j].ZevClass]
		if ri != rj {
			return ri < rj
		}
		return sorted[i].ModelYear < sorted[j].ModelYear
	})
	return Sequence{records: sorted}
}

// Records returns a copy of the ordered records
func (s Sequence) Records() []entities.LedgerRecord {
	out := make([]entities.LedgerRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records in the sequence
func (s Sequence) Len() int {
	return len(s.records)
}

// Total sums the units of the sequence
func (s Sequence) Total() decimal.Decimal {
	return Total(s.records)
}

// Offset consumes supply against demand in sequence order. The side with the
// larger total survives: remainder holds its unconsumed records, with the
// boundary record split exactly. consumed holds the supply portions that were
// used up.
//
// sum(remainder) = |sum(supply) - sum(demand)| and
// sum(consumed) = min(sum(supply), sum(demand)).
func Offset(supply, demand Sequence) (remainder, consumed []entities.LedgerRecord) {
	if supply.Len() == 0 {
		return demand.Records(), nil
	}
	if demand.Len() == 0 {
		return supply.Records(), nil
	}

	supplyTotal := supply.Total()
	demandTotal := demand.Total()

	switch supplyTotal.Cmp(demandTotal) {
	case -1:
		return splitAt(demand.records, prefixSums(demand.records), supplyTotal), supply.Records()
	case 1:
		sums := prefixSums(supply.records)
		remainder = splitAt(supply.records, sums, demandTotal)
		i := firstAbove(sums, demandTotal)
		consumed = make([]entities.LedgerRecord, 0, i+1)
		consumed = append(consumed, supply.records[:i]...)
		taken := supply.records[i].Units.Sub(sums[i].Sub(demandTotal))
		if !taken.IsZero() {
			consumed = append(consumed, supply.records[i].WithUnits(taken))
		}
		return remainder, consumed
	default:
		return nil, supply.Records()
	}
}

// splitAt drops the first cut units of records and returns what is left
func splitAt(records []entities.LedgerRecord, sums []decimal.Decimal, cut decimal.Decimal) []entities.LedgerRecord {
	i := firstAbove(sums, cut)
	rest := make([]entities.LedgerRecord, 0, len(records)-i)
	rest = append(rest, records[i].WithUnits(sums[i].Sub(cut)))
	rest = append(rest, records[i+1:]...)
	return rest
}

func prefixSums(records []entities.LedgerRecord) []decimal.Decimal {
	sums := make([]decimal.Decimal, len(records))
	running := decimal.Zero
	for i, record := range records {
		running = running.Add(record.Units)
		sums[i] = running
	}
	return sums
}

// firstAbove returns the first index whose prefix sum exceeds limit. Callers
// guarantee the final sum does.
func firstAbove(sums []decimal.Decimal, limit decimal.Decimal) int {
	return sort.Search(len(sums), func(i int) bool {
		return sums[i].GreaterThan(limit)
	})
}
