package ledger

import (
	"sort"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// unitKey groups records that differ only by kind
type unitKey struct {
	VehicleClass entities.VehicleClass
	ZevClass     entities.ZevClass
	ModelYear    entities.ModelYear
}

func unitKeyOf(record entities.LedgerRecord) unitKey {
	return unitKey{
		VehicleClass: record.VehicleClass,
		ZevClass:     record.ZevClass,
		ModelYear:    record.ModelYear,
	}
}

func (k unitKey) less(other unitKey) bool {
	if k.VehicleClass != other.VehicleClass {
		return k.VehicleClass < other.VehicleClass
	}
	if k.ZevClass != other.ZevClass {
		return k.ZevClass < other.ZevClass
	}
	return k.ModelYear < other.ModelYear
}

// NetTransfersAway settles every TRANSFER_AWAY record against credits of the
// same vehicle class, zev class and model year. Records of other kinds pass
// through unchanged and come first in the result. A transfer-away that
// same-key credits cannot cover fails with *entities.UncoveredTransferError.
func NetTransfersAway(records []entities.LedgerRecord) ([]entities.LedgerRecord, error) {
	credits := make(map[unitKey][]entities.LedgerRecord)
	transfers := make(map[unitKey][]entities.LedgerRecord)
	var result []entities.LedgerRecord

	for _, record := range records {
		switch record.Kind {
		case entities.Credit:
			key := unitKeyOf(record)
			credits[key] = append(credits[key], record)
		case entities.TransferAway:
			key := unitKeyOf(record)
			transfers[key] = append(transfers[key], record)
		default:
			result = append(result, record)
		}
	}

	keys := make([]unitKey, 0, len(credits)+len(transfers))
	for key := range credits {
		keys = append(keys, key)
	}
	for key := range transfers {
		if _, seen := credits[key]; !seen {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].less(keys[j])
	})

	for _, key := range keys {
		remainder, _ := Offset(OldestFirst(credits[key]), OldestFirst(transfers[key]))
		for _, record := range remainder {
			if record.Kind == entities.TransferAway && record.Units.IsPositive() {
				return nil, &entities.UncoveredTransferError{
					Key:       record.Key(),
					Uncovered: Total(remainder),
				}
			}
		}
		result = append(result, remainder...)
	}

	return result, nil
}
