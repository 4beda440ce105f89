// Package ledger nets ZEV unit records and applies the statutory offsetting
// order. Every function is pure: inputs are never mutated and the same
// inputs always produce the same outputs.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// Aggregate maps each record key to its summed units
type Aggregate map[entities.Key]decimal.Decimal

// Summarize groups records by key and sums their units
func Summarize(records []entities.LedgerRecord) Aggregate {
	agg := make(Aggregate, len(records))
	for _, record := range records {
		agg.add(record)
	}
	return agg
}

// Flatten returns one record per non-zero key, ordered by key
func Flatten(agg Aggregate) []entities.LedgerRecord {
	keys := make([]entities.Key, 0, len(agg))
	for key, units := range agg {
		if units.IsZero() {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})

	records := make([]entities.LedgerRecord, 0, len(keys))
	for _, key := range keys {
		records = append(records, entities.LedgerRecord{
			Kind:         key.Kind,
			VehicleClass: key.VehicleClass,
			ZevClass:     key.ZevClass,
			ModelYear:    key.ModelYear,
			Units:        agg[key],
		})
	}
	return records
}

// Normalize sums records by key and drops zero keys
func Normalize(records []entities.LedgerRecord) []entities.LedgerRecord {
	return Flatten(Summarize(records))
}

// Total sums the units of records regardless of kind
func Total(records []entities.LedgerRecord) decimal.Decimal {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(record.Units)
	}
	return total
}

func (a Aggregate) add(record entities.LedgerRecord) {
	key := record.Key()
	if current, ok := a[key]; ok {
		a[key] = current.Add(record.Units)
		return
	}
	a[key] = record.Units
}

func (a Aggregate) clone() Aggregate {
	out := make(Aggregate, len(a))
	for key, units := range a {
		out[key] = units
	}
	return out
}

// collect returns the non-zero records of kind whose pair satisfies match
func (a Aggregate) collect(kind entities.Kind, match func(entities.Pair) bool) []entities.LedgerRecord {
	var records []entities.LedgerRecord
	for _, record := range Flatten(a) {
		if record.Kind == kind && match(record.Pair()) {
			records = append(records, record)
		}
	}
	return records
}

// settle replaces the offset inputs with the remainder of the offset
func (a Aggregate) settle(inputs [][]entities.LedgerRecord, remainder []entities.LedgerRecord) {
	for _, group := range inputs {
		for _, record := range group {
			delete(a, record.Key())
		}
	}
	for _, record := range remainder {
		a.add(record)
	}
}
