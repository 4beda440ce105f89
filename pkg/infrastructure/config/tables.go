// Package config loads the statutory tables and runtime settings.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

const (
	tablesEnv = "ZEVLEDGER_TABLES"
	dsnEnv    = "ZEVLEDGER_DSN"
	logEnv    = "ZEVLEDGER_LOG"
)

//go:embed defaults.yaml
var defaultTables []byte

// tablesFile is the YAML shape of the statutory tables. Every decimal is a
// string; an empty value in an override file keeps the default.
type tablesFile struct {
	MediumSpecialFrom  string                                  `yaml:"medium_special_from"`
	SupplierThresholds thresholdsFile                          `yaml:"supplier_thresholds"`
	ZevClassPriority   []string                                `yaml:"zev_class_priority"`
	UnspecifiedRatios  map[string]map[string]string            `yaml:"unspecified_ratios"`
	SpecialRatios      map[string]map[string]map[string]string `yaml:"special_ratios"`
	PenaltyRates       map[string]string                       `yaml:"penalty_rates"`
}

type thresholdsFile struct {
	Medium string `yaml:"medium"`
	Large  string `yaml:"large"`
}

// Settings are the runtime options read from the environment
type Settings struct {
	TablesPath string
	DSN        string
	LogMode    string
}

// LoadSettings reads ZEVLEDGER_TABLES, ZEVLEDGER_DSN and ZEVLEDGER_LOG
func LoadSettings() Settings {
	return Settings{
		TablesPath: os.Getenv(tablesEnv),
		DSN:        os.Getenv(dsnEnv),
		LogMode:    getenvDefault(logEnv, "dev"),
	}
}

// DefaultTables returns the embedded statutory tables
func DefaultTables() (entities.StatutoryTables, error) {
	tables, err := ParseTables(defaultTables, entities.StatutoryTables{})
	if err != nil {
		return entities.StatutoryTables{}, fmt.Errorf("embedded tables: %w", err)
	}
	return tables, nil
}

// LoadTables returns the embedded tables overlaid with the file at path.
// An empty path falls back to ZEVLEDGER_TABLES; if that is unset too, the
// defaults are returned unchanged.
func LoadTables(path string) (entities.StatutoryTables, error) {
	tables, err := DefaultTables()
	if err != nil {
		return tables, err
	}

	if path == "" {
		path = os.Getenv(tablesEnv)
	}
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("failed to read tables file %s: %w", path, err)
	}
	tables, err = ParseTables(data, tables)
	if err != nil {
		return tables, fmt.Errorf("tables file %s: %w", path, err)
	}
	return tables, nil
}

// ParseTables decodes YAML tables on top of base and validates the result.
// Unknown keys are rejected.
func ParseTables(data []byte, base entities.StatutoryTables) (entities.StatutoryTables, error) {
	var file tablesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("failed to decode tables: %w", err)
	}

	tables := clone(base)
	if err := file.apply(&tables); err != nil {
		return base, err
	}
	if err := Validate(tables); err != nil {
		return base, err
	}
	return tables, nil
}

func (f tablesFile) apply(tables *entities.StatutoryTables) error {
	if f.MediumSpecialFrom != "" {
		year, err := entities.ParseModelYear(f.MediumSpecialFrom)
		if err != nil {
			return fmt.Errorf("medium_special_from: %w", err)
		}
		tables.MediumSpecialFrom = year
	}

	if f.SupplierThresholds.Medium != "" {
		value, err := parseDecimal("supplier_thresholds.medium", f.SupplierThresholds.Medium)
		if err != nil {
			return err
		}
		tables.Thresholds.Medium = value
	}
	if f.SupplierThresholds.Large != "" {
		value, err := parseDecimal("supplier_thresholds.large", f.SupplierThresholds.Large)
		if err != nil {
			return err
		}
		tables.Thresholds.Large = value
	}

	if len(f.ZevClassPriority) > 0 {
		priority := make([]entities.ZevClass, len(f.ZevClassPriority))
		for i, name := range f.ZevClassPriority {
			class, err := entities.ParseZevClass(name)
			if err != nil {
				return fmt.Errorf("zev_class_priority: %w", err)
			}
			priority[i] = class
		}
		tables.ZevClassPriority = priority
	}

	for _, vcName := range sortedKeys(f.UnspecifiedRatios) {
		vc, err := entities.ParseVehicleClass(vcName)
		if err != nil {
			return fmt.Errorf("unspecified_ratios: %w", err)
		}
		if err := applyYears(f.UnspecifiedRatios[vcName], "unspecified_ratios."+vcName, func(year entities.ModelYear, value decimal.Decimal) {
			tables.Ratios[entities.RatioKey{VehicleClass: vc, ZevClass: entities.Unspecified, ModelYear: year}] = value
		}); err != nil {
			return err
		}
	}

	for _, vcName := range sortedKeys(f.SpecialRatios) {
		vc, err := entities.ParseVehicleClass(vcName)
		if err != nil {
			return fmt.Errorf("special_ratios: %w", err)
		}
		for _, zcName := range sortedKeys(f.SpecialRatios[vcName]) {
			zc, err := entities.ParseZevClass(zcName)
			if err != nil {
				return fmt.Errorf("special_ratios.%s: %w", vcName, err)
			}
			pair := entities.Pair{VehicleClass: vc, ZevClass: zc}
			if !pair.IsSpecial() {
				return fmt.Errorf("special_ratios: %s is not a special pair", pair)
			}
			if err := applyYears(f.SpecialRatios[vcName][zcName], "special_ratios."+pair.String(), func(year entities.ModelYear, value decimal.Decimal) {
				tables.Ratios[entities.RatioKey{VehicleClass: vc, ZevClass: zc, ModelYear: year}] = value
			}); err != nil {
				return err
			}
		}
	}

	return applyYears(f.PenaltyRates, "penalty_rates", func(year entities.ModelYear, value decimal.Decimal) {
		tables.PenaltyRates[year] = value
	})
}

func applyYears(values map[string]string, table string, set func(entities.ModelYear, decimal.Decimal)) error {
	for _, key := range sortedKeys(values) {
		year, err := entities.ParseModelYear(key)
		if err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
		if values[key] == "" {
			continue
		}
		value, err := parseDecimal(table+"."+year.String(), values[key])
		if err != nil {
			return err
		}
		set(year, value)
	}
	return nil
}

// Validate checks the invariants the engine relies on
func Validate(tables entities.StatutoryTables) error {
	if !tables.MediumSpecialFrom.Valid() {
		return fmt.Errorf("medium_special_from %d out of range", tables.MediumSpecialFrom)
	}
	if !tables.Thresholds.Medium.LessThan(tables.Thresholds.Large) {
		return fmt.Errorf("supplier_thresholds: medium %s must be below large %s",
			tables.Thresholds.Medium, tables.Thresholds.Large)
	}
	if err := validatePriority(tables.ZevClassPriority); err != nil {
		return err
	}

	for key, ratio := range tables.Ratios {
		if ratio.IsNegative() || ratio.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("ratio %s for %s must be between 0 and 1", ratio, key)
		}
		if key.ZevClass == entities.Unspecified {
			continue
		}
		unspecified, ok := tables.Ratios[entities.RatioKey{VehicleClass: key.VehicleClass, ZevClass: entities.Unspecified, ModelYear: key.ModelYear}]
		if ok && ratio.GreaterThan(unspecified) {
			return fmt.Errorf("special ratio %s for %s exceeds unspecified ratio %s", ratio, key, unspecified)
		}
	}
	for year, rate := range tables.PenaltyRates {
		if rate.IsNegative() {
			return fmt.Errorf("penalty rate %s for %s cannot be negative", rate, year)
		}
	}
	return nil
}

func validatePriority(priority []entities.ZevClass) error {
	seen := make(map[entities.ZevClass]bool, len(priority))
	for _, class := range priority {
		if seen[class] {
			return fmt.Errorf("zev_class_priority: %s listed twice", class)
		}
		seen[class] = true
	}
	for _, class := range entities.AllZevClasses {
		if !seen[class] {
			return fmt.Errorf("zev_class_priority: %s missing", class)
		}
	}
	return nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q", field, value)
	}
	return parsed, nil
}

func clone(tables entities.StatutoryTables) entities.StatutoryTables {
	ratios := make(map[entities.RatioKey]decimal.Decimal, len(tables.Ratios))
	for k, v := range tables.Ratios {
		ratios[k] = v
	}
	rates := make(map[entities.ModelYear]decimal.Decimal, len(tables.PenaltyRates))
	for k, v := range tables.PenaltyRates {
		rates[k] = v
	}
	tables.Ratios = ratios
	tables.PenaltyRates = rates
	tables.ZevClassPriority = append([]entities.ZevClass(nil), tables.ZevClassPriority...)
	return tables
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
