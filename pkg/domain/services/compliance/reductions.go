// Package compliance derives statutory reductions from supply volumes and
// judges an ending balance against the supplier's obligations.
package compliance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// amountPlaces is the precision of every reduction and penalty amount
const amountPlaces = 2

// ReductionsFor computes the compliance ratio reductions of a supplier for
// modelYear. nv holds the supplied volume of each vehicle class; classes
// absent from nv get no reduction.
//
// Small suppliers get one zero reduction per class. Otherwise each class gets
// an UNSPECIFIED reduction, and when the supplier carries special obligations
// the special pairs of that class are reduced first and their amounts taken
// out of the UNSPECIFIED reduction, whose ratio already includes them.
func ReductionsFor(
	tables entities.StatutoryTables,
	nv map[entities.VehicleClass]decimal.Decimal,
	modelYear entities.ModelYear,
	supplierClass entities.SupplierClass,
) ([]entities.ComplianceReduction, error) {
	var reductions []entities.ComplianceReduction

	for _, vc := range entities.AllVehicleClasses {
		volume, ok := nv[vc]
		if !ok {
			continue
		}

		if supplierClass == entities.Small {
			reductions = append(reductions, reduction(vc, entities.Unspecified, modelYear, decimal.Zero, volume, decimal.Zero))
			continue
		}

		ratio, err := tables.UnspecifiedRatio(vc, modelYear)
		if err != nil {
			return nil, fmt.Errorf("failed to reduce %s for %s: %w", vc, modelYear, err)
		}
		unspecified := applyRatio(ratio, volume)

		if tables.SpecialObligation(supplierClass, modelYear) {
			for _, pair := range entities.SpecialPairs {
				if pair.VehicleClass != vc {
					continue
				}
				specialRatio, err := tables.SpecialRatio(pair, modelYear)
				if err != nil {
					return nil, fmt.Errorf("failed to reduce %s for %s: %w", pair, modelYear, err)
				}
				amount := applyRatio(specialRatio, volume)
				reductions = append(reductions, reduction(vc, pair.ZevClass, modelYear, specialRatio, volume, amount))
				unspecified = unspecified.Sub(amount)
			}
			if unspecified.IsNegative() {
				return nil, fmt.Errorf("failed to reduce %s for %s: %w", vc, modelYear, &entities.InvalidStatutoryValueError{
					Table:  "special_ratios",
					Key:    entities.RatioKey{VehicleClass: vc, ZevClass: entities.Unspecified, ModelYear: modelYear}.String(),
					Reason: "exceeds the unspecified ratio " + ratio.String(),
				})
			}
		}

		reductions = append(reductions, reduction(vc, entities.Unspecified, modelYear, ratio, volume, unspecified))
	}

	return reductions, nil
}

// Records returns the reductions as plain DEBIT records
func Records(reductions []entities.ComplianceReduction) []entities.LedgerRecord {
	records := make([]entities.LedgerRecord, len(reductions))
	for i, r := range reductions {
		records[i] = r.LedgerRecord
	}
	return records
}

func applyRatio(ratio, volume decimal.Decimal) decimal.Decimal {
	return ratio.Mul(volume).Round(amountPlaces)
}

func reduction(
	vc entities.VehicleClass,
	zc entities.ZevClass,
	modelYear entities.ModelYear,
	ratio, volume, amount decimal.Decimal,
) entities.ComplianceReduction {
	return entities.ComplianceReduction{
		LedgerRecord: entities.LedgerRecord{
			Kind:         entities.Debit,
			VehicleClass: vc,
			ZevClass:     zc,
			ModelYear:    modelYear,
			Units:        amount,
		},
		ComplianceRatio: ratio,
		NV:              volume,
	}
}
