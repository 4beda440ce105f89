package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind carries the sign of a ledger record
type Kind int

const (
	Credit Kind = iota
	Debit
	TransferAway
)

// String method for Kind enum
func (k Kind) String() string {
	switch k {
	case Credit:
		return "CREDIT"
	case Debit:
		return "DEBIT"
	case TransferAway:
		return "TRANSFER_AWAY"
	default:
		return "UNKNOWN"
	}
}

// ParseKind converts a stored name into a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREDIT":
		return Credit, nil
	case "DEBIT":
		return Debit, nil
	case "TRANSFER_AWAY":
		return TransferAway, nil
	default:
		return 0, fmt.Errorf("unknown record type %q", s)
	}
}

func (k Kind) valid() bool {
	return k >= Credit && k <= TransferAway
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// VehicleClass is the statutory vehicle category of a unit
type VehicleClass int

const (
	Reportable VehicleClass = iota
)

// AllVehicleClasses lists every vehicle class in declaration order
var AllVehicleClasses = []VehicleClass{Reportable}

// String method for VehicleClass enum
func (v VehicleClass) String() string {
	switch v {
	case Reportable:
		return "REPORTABLE"
	default:
		return "UNKNOWN"
	}
}

// ParseVehicleClass converts a stored name into a VehicleClass
func ParseVehicleClass(s string) (VehicleClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "REPORTABLE":
		return Reportable, nil
	default:
		return 0, fmt.Errorf("unknown vehicle class %q", s)
	}
}

func (v VehicleClass) valid() bool {
	return v == Reportable
}

// MarshalText implements encoding.TextMarshaler
func (v VehicleClass) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *VehicleClass) UnmarshalText(text []byte) error {
	parsed, err := ParseVehicleClass(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ZevClass is the statutory zero-emission class of a unit
type ZevClass int

const (
	ZevClassA ZevClass = iota
	ZevClassB
	ZevClassC
	Unspecified
)

// AllZevClasses lists every ZEV class in declaration order
var AllZevClasses = []ZevClass{ZevClassA, ZevClassB, ZevClassC, Unspecified}

// SupplierZevClasses are the classes reported back to suppliers
var SupplierZevClasses = []ZevClass{ZevClassA, ZevClassB, Unspecified}

// String method for ZevClass enum
func (z ZevClass) String() string {
	switch z {
	case ZevClassA:
		return "A"
	case ZevClassB:
		return "B"
	case ZevClassC:
		return "C"
	case Unspecified:
		return "UNSPECIFIED"
	default:
		return "UNKNOWN"
	}
}

// ParseZevClass converts a stored name into a ZevClass
func ParseZevClass(s string) (ZevClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return ZevClassA, nil
	case "B":
		return ZevClassB, nil
	case "C":
		return ZevClassC, nil
	case "UNSPECIFIED":
		return Unspecified, nil
	default:
		return 0, fmt.Errorf("unknown zev class %q", s)
	}
}

func (z ZevClass) valid() bool {
	return z >= ZevClassA && z <= Unspecified
}

// MarshalText implements encoding.TextMarshaler
func (z ZevClass) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (z *ZevClass) UnmarshalText(text []byte) error {
	parsed, err := ParseZevClass(string(text))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

// ModelYear is the vehicle model year of a unit. The numeric value is the
// calendar year, so ordinal comparisons are plain integer comparisons.
type ModelYear int

const (
	MY2019 ModelYear = 2019 + iota
	MY2020
	MY2021
	MY2022
	MY2023
	MY2024
	MY2025
	MY2026
	MY2027
	MY2028
	MY2029
	MY2030
	MY2031
	MY2032
	MY2033
	MY2034
	MY2035
)

const (
	firstModelYear = MY2019
	lastModelYear  = MY2035
)

// AllModelYears lists every supported model year, oldest first
func AllModelYears() []ModelYear {
	years := make([]ModelYear, 0, int(lastModelYear-firstModelYear)+1)
	for y := firstModelYear; y <= lastModelYear; y++ {
		years = append(years, y)
	}
	return years
}

// String method for ModelYear enum
func (m ModelYear) String() string {
	return "MY_" + strconv.Itoa(int(m))
}

// Valid reports whether the model year is within the supported range
func (m ModelYear) Valid() bool {
	return m >= firstModelYear && m <= lastModelYear
}

// Previous returns the model year before m
func (m ModelYear) Previous() ModelYear {
	return m - 1
}

// ParseModelYear accepts both "MY_2024" and "2024"
func ParseModelYear(s string) (ModelYear, error) {
	trimmed := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "MY_")
	year, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid model year %q", s)
	}
	my := ModelYear(year)
	if !my.Valid() {
		return 0, fmt.Errorf("model year %d out of range %d-%d", year, firstModelYear, lastModelYear)
	}
	return my, nil
}

// MarshalText implements encoding.TextMarshaler
func (m ModelYear) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *ModelYear) UnmarshalText(text []byte) error {
	parsed, err := ParseModelYear(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SupplierClass is the volume class of a supplier
type SupplierClass int

const (
	Small SupplierClass = iota
	Medium
	Large
)

// String method for SupplierClass enum
func (s SupplierClass) String() string {
	switch s {
	case Small:
		return "SMALL"
	case Medium:
		return "MEDIUM"
	case Large:
		return "LARGE"
	default:
		return "UNKNOWN"
	}
}

// ParseSupplierClass converts a stored name into a SupplierClass
func ParseSupplierClass(s string) (SupplierClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SMALL":
		return Small, nil
	case "MEDIUM":
		return Medium, nil
	case "LARGE":
		return Large, nil
	default:
		return 0, fmt.Errorf("unknown supplier class %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (s SupplierClass) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *SupplierClass) UnmarshalText(text []byte) error {
	parsed, err := ParseSupplierClass(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
