package entities

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pair identifies a (vehicle class, zev class) combination
type Pair struct {
	VehicleClass VehicleClass
	ZevClass     ZevClass
}

func (p Pair) String() string {
	return p.VehicleClass.String() + "/" + p.ZevClass.String()
}

// SpecialPairs are settled against credits of the same pair before any
// other offsetting rule applies.
var SpecialPairs = []Pair{
	{VehicleClass: Reportable, ZevClass: ZevClassA},
}

// IsSpecial reports whether p is one of SpecialPairs
func (p Pair) IsSpecial() bool {
	for _, special := range SpecialPairs {
		if special == p {
			return true
		}
	}
	return false
}

// AllPairs returns every (vehicle class, zev class) combination
func AllPairs() []Pair {
	pairs := make([]Pair, 0, len(AllVehicleClasses)*len(AllZevClasses))
	for _, vc := range AllVehicleClasses {
		for _, zc := range AllZevClasses {
			pairs = append(pairs, Pair{VehicleClass: vc, ZevClass: zc})
		}
	}
	return pairs
}

// Key is the aggregation key of a ledger record
type Key struct {
	Kind         Kind
	VehicleClass VehicleClass
	ZevClass     ZevClass
	ModelYear    ModelYear
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s/%s %s", k.Kind, k.VehicleClass, k.ZevClass, k.ModelYear)
}

// Pair returns the (vehicle class, zev class) part of the key
func (k Key) Pair() Pair {
	return Pair{VehicleClass: k.VehicleClass, ZevClass: k.ZevClass}
}

// Less orders keys by kind, vehicle class, zev class, then model year
func (k Key) Less(other Key) bool {
	if k.Kind != other.Kind {
		return k.Kind < other.Kind
	}
	if k.VehicleClass != other.VehicleClass {
		return k.VehicleClass < other.VehicleClass
	}
	if k.ZevClass != other.ZevClass {
		return k.ZevClass < other.ZevClass
	}
	return k.ModelYear < other.ModelYear
}

// LedgerRecord is a quantity of ZEV units. The sign lives in Kind; Units is
// never negative.
type LedgerRecord struct {
	Kind         Kind            `json:"type"`
	VehicleClass VehicleClass    `json:"vehicle_class"`
	ZevClass     ZevClass        `json:"zev_class"`
	ModelYear    ModelYear       `json:"model_year"`
	Units        decimal.Decimal `json:"units"`
}

// NewLedgerRecord creates a validated LedgerRecord
func NewLedgerRecord(
	kind Kind,
	vehicleClass VehicleClass,
	zevClass ZevClass,
	modelYear ModelYear,
	units decimal.Decimal,
) (*LedgerRecord, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("invalid record type %d", kind)
	}
	if !vehicleClass.valid() {
		return nil, fmt.Errorf("invalid vehicle class %d", vehicleClass)
	}
	if !zevClass.valid() {
		return nil, fmt.Errorf("invalid zev class %d", zevClass)
	}
	if !modelYear.Valid() {
		return nil, fmt.Errorf("invalid model year %d", modelYear)
	}
	if units.IsNegative() {
		return nil, fmt.Errorf("units cannot be negative, got %s", units)
	}

	return &LedgerRecord{
		Kind:         kind,
		VehicleClass: vehicleClass,
		ZevClass:     zevClass,
		ModelYear:    modelYear,
		Units:        units,
	}, nil
}

// Key returns the aggregation key of the record
func (r LedgerRecord) Key() Key {
	return Key{
		Kind:         r.Kind,
		VehicleClass: r.VehicleClass,
		ZevClass:     r.ZevClass,
		ModelYear:    r.ModelYear,
	}
}

// Pair returns the (vehicle class, zev class) of the record
func (r LedgerRecord) Pair() Pair {
	return Pair{VehicleClass: r.VehicleClass, ZevClass: r.ZevClass}
}

// WithUnits returns a copy of the record carrying units
func (r LedgerRecord) WithUnits(units decimal.Decimal) LedgerRecord {
	r.Units = units
	return r
}

// WithKind returns a copy of the record carrying kind
func (r LedgerRecord) WithKind(kind Kind) LedgerRecord {
	r.Kind = kind
	return r
}

func (r LedgerRecord) String() string {
	return fmt.Sprintf("%s %s/%s %s %s", r.Kind, r.VehicleClass, r.ZevClass, r.ModelYear, r.Units)
}

// ComplianceReduction is a statutory DEBIT together with the ratio and
// supply volume that produced it.
type ComplianceReduction struct {
	LedgerRecord
	ComplianceRatio decimal.Decimal `json:"compliance_ratio"`
	NV              decimal.Decimal `json:"nv"`
}

// Transaction is a ledger record booked against an organization in a
// compliance year.
type Transaction struct {
	ID             uuid.UUID
	OrganizationID string
	ComplianceYear ModelYear
	Record         LedgerRecord
}

// EndingBalance is the stored closing balance of an organization for a
// compliance year. Records are CREDIT or DEBIT only.
type EndingBalance struct {
	OrganizationID string
	ComplianceYear ModelYear
	Records        []LedgerRecord
}

// HasDebit reports whether any stored record is a debit
func (b EndingBalance) HasDebit() bool {
	for _, record := range b.Records {
		if record.Kind == Debit {
			return true
		}
	}
	return false
}

// SupplyVolume is the number of vehicles of a class supplied in a model year
type SupplyVolume struct {
	OrganizationID string
	ModelYear      ModelYear
	VehicleClass   VehicleClass
	Volume         decimal.Decimal
}

// TransferContent is one line of a proposed transfer between suppliers
type TransferContent struct {
	VehicleClass VehicleClass    `json:"vehicle_class"`
	ZevClass     ZevClass        `json:"zev_class"`
	ModelYear    ModelYear       `json:"model_year"`
	Units        decimal.Decimal `json:"units"`
}

// AwayRecord returns the content as a TRANSFER_AWAY record of the sender
func (c TransferContent) AwayRecord() LedgerRecord {
	return LedgerRecord{
		Kind:         TransferAway,
		VehicleClass: c.VehicleClass,
		ZevClass:     c.ZevClass,
		ModelYear:    c.ModelYear,
		Units:        c.Units,
	}
}
