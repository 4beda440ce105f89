package entities

import (
	"github.com/shopspring/decimal"
)

// RatioKey addresses a compliance ratio. Unspecified reductions use
// ZevClass Unspecified; special reductions use the special pair's class.
type RatioKey struct {
	VehicleClass VehicleClass
	ZevClass     ZevClass
	ModelYear    ModelYear
}

func (k RatioKey) String() string {
	return k.VehicleClass.String() + "/" + k.ZevClass.String() + " " + k.ModelYear.String()
}

// SupplierThresholds are the average-volume boundaries between supplier
// classes.
type SupplierThresholds struct {
	Medium decimal.Decimal
	Large  decimal.Decimal
}

// StatutoryTables holds the constants fixed by regulation
type StatutoryTables struct {
	Ratios       map[RatioKey]decimal.Decimal
	PenaltyRates map[ModelYear]decimal.Decimal

	// MediumSpecialFrom is the first model year in which medium suppliers
	// carry special class reductions and obligations.
	MediumSpecialFrom ModelYear

	Thresholds       SupplierThresholds
	ZevClassPriority []ZevClass
}

// UnspecifiedRatio returns the unspecified compliance ratio
func (t StatutoryTables) UnspecifiedRatio(vehicleClass VehicleClass, modelYear ModelYear) (decimal.Decimal, error) {
	return t.ratio("unspecified_ratios", RatioKey{VehicleClass: vehicleClass, ZevClass: Unspecified, ModelYear: modelYear})
}

// SpecialRatio returns the compliance ratio of a special pair
func (t StatutoryTables) SpecialRatio(pair Pair, modelYear ModelYear) (decimal.Decimal, error) {
	return t.ratio("special_ratios", RatioKey{VehicleClass: pair.VehicleClass, ZevClass: pair.ZevClass, ModelYear: modelYear})
}

func (t StatutoryTables) ratio(table string, key RatioKey) (decimal.Decimal, error) {
	ratio, ok := t.Ratios[key]
	if !ok {
		return decimal.Zero, &MissingStatutoryValueError{Table: table, Key: key.String()}
	}
	return ratio, nil
}

// PenaltyRate returns the per-unit penalty of a model year
func (t StatutoryTables) PenaltyRate(modelYear ModelYear) (decimal.Decimal, error) {
	rate, ok := t.PenaltyRates[modelYear]
	if !ok {
		return decimal.Zero, &MissingStatutoryValueError{Table: "penalty_rates", Key: modelYear.String()}
	}
	return rate, nil
}

// SpecialObligation reports whether a supplier carries special class
// reductions and obligations in modelYear.
func (t StatutoryTables) SpecialObligation(class SupplierClass, modelYear ModelYear) bool {
	switch class {
	case Large:
		return true
	case Medium:
		return modelYear >= t.MediumSpecialFrom
	default:
		return false
	}
}
