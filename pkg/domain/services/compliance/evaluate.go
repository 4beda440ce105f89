package compliance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// Outcome is the compliance result of one vehicle class
type Outcome struct {
	VehicleClass entities.VehicleClass `json:"vehicle_class"`
	IsCompliant  bool                  `json:"is_compliant"`
	Penalty      decimal.Decimal       `json:"penalty"`
}

// classBalance summarizes what an ending balance holds for a vehicle class
type classBalance struct {
	hasDebit        bool
	hasCredit       bool
	hasSpecialDebit bool
}

func inspect(balance []entities.LedgerRecord) map[entities.VehicleClass]classBalance {
	classes := make(map[entities.VehicleClass]classBalance)
	for _, record := range balance {
		if record.Units.IsZero() {
			continue
		}
		state := classes[record.VehicleClass]
		switch record.Kind {
		case entities.Debit:
			state.hasDebit = true
			if record.Pair().IsSpecial() {
				state.hasSpecialDebit = true
			}
		case entities.Credit:
			state.hasCredit = true
		}
		classes[record.VehicleClass] = state
	}
	return classes
}

// EvaluateCompliance judges endingBalance for every vehicle class. A class is
// non-compliant when it holds a special class debit and the supplier carries
// special obligations in modelYear, or when a non-small supplier holds a debit
// with no credit of the same class beside it. The penalty of each class is
// computed by Penalties.
func EvaluateCompliance(
	tables entities.StatutoryTables,
	supplierClass entities.SupplierClass,
	modelYear entities.ModelYear,
	priorBalance, endingBalance []entities.LedgerRecord,
) ([]Outcome, error) {
	penalties, err := Penalties(tables, modelYear, priorBalance, endingBalance)
	if err != nil {
		return nil, err
	}

	special := tables.SpecialObligation(supplierClass, modelYear)
	states := inspect(endingBalance)

	outcomes := make([]Outcome, 0, len(entities.AllVehicleClasses))
	for _, vc := range entities.AllVehicleClasses {
		state := states[vc]
		compliant := true
		if state.hasSpecialDebit && special {
			compliant = false
		}
		if supplierClass != entities.Small && state.hasDebit && !state.hasCredit {
			compliant = false
		}

		penalty, ok := penalties[vc]
		if !ok {
			penalty = decimal.Zero
		}
		outcomes = append(outcomes, Outcome{
			VehicleClass: vc,
			IsCompliant:  compliant,
			Penalty:      penalty,
		})
	}
	return outcomes, nil
}

// Penalties prices the debits of endingBalance for every vehicle class that
// was already in deficit in priorBalance. Classes without a prior deficit are
// absent from the result.
func Penalties(
	tables entities.StatutoryTables,
	modelYear entities.ModelYear,
	priorBalance, endingBalance []entities.LedgerRecord,
) (map[entities.VehicleClass]decimal.Decimal, error) {
	deficits := make(map[entities.VehicleClass]bool)
	for vc, state := range inspect(priorBalance) {
		if state.hasDebit {
			deficits[vc] = true
		}
	}
	if len(deficits) == 0 {
		return map[entities.VehicleClass]decimal.Decimal{}, nil
	}

	rate, err := tables.PenaltyRate(modelYear)
	if err != nil {
		return nil, fmt.Errorf("failed to price deficit for %s: %w", modelYear, err)
	}

	penalties := make(map[entities.VehicleClass]decimal.Decimal, len(deficits))
	for vc := range deficits {
		penalties[vc] = decimal.Zero
	}
	for _, record := range endingBalance {
		if record.Kind != entities.Debit || !deficits[record.VehicleClass] {
			continue
		}
		penalties[record.VehicleClass] = penalties[record.VehicleClass].Add(record.Units.Mul(rate))
	}
	for vc, amount := range penalties {
		penalties[vc] = amount.Round(amountPlaces)
	}
	return penalties, nil
}

// GetPenalty is the total penalty across vehicle classes
func GetPenalty(
	tables entities.StatutoryTables,
	modelYear entities.ModelYear,
	priorBalance, endingBalance []entities.LedgerRecord,
) (decimal.Decimal, error) {
	penalties, err := Penalties(tables, modelYear, priorBalance, endingBalance)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, amount := range penalties {
		total = total.Add(amount)
	}
	return total.Round(amountPlaces), nil
}
