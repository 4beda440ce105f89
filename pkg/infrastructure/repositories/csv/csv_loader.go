package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

var (
	ledgerHeader   = []string{"organization_id", "compliance_year", "type", "vehicle_class", "zev_class", "model_year", "units"}
	volumeHeader   = []string{"organization_id", "model_year", "vehicle_class", "volume"}
	transferHeader = []string{"vehicle_class", "zev_class", "model_year", "units"}
)

// Loader handles loading ledger data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadTransactions loads transactions from a CSV file
func (l *Loader) LoadTransactions(filename string) ([]entities.Transaction, error) {
	var transactions []entities.Transaction
	err := withFile(filename, "transactions", func(r io.Reader) error {
		var err error
		transactions, err = l.ReadTransactions(r)
		return err
	})
	return transactions, err
}

// ReadTransactions parses transactions; each row gets a fresh ID
func (l *Loader) ReadTransactions(r io.Reader) ([]entities.Transaction, error) {
	rows, err := readRows(r, "transactions", ledgerHeader)
	if err != nil {
		return nil, err
	}

	transactions := make([]entities.Transaction, 0, len(rows))
	for i, row := range rows {
		organizationID, year, record, err := parseLedgerRow(row)
		if err != nil {
			return nil, fmt.Errorf("transactions CSV row %d: %w", i+2, err)
		}
		transactions = append(transactions, entities.Transaction{
			ID:             uuid.New(),
			OrganizationID: organizationID,
			ComplianceYear: year,
			Record:         *record,
		})
	}
	return transactions, nil
}

// LoadEndingBalances loads stored ending balances from a CSV file
func (l *Loader) LoadEndingBalances(filename string) ([]entities.EndingBalance, error) {
	var balances []entities.EndingBalance
	err := withFile(filename, "ending balances", func(r io.Reader) error {
		var err error
		balances, err = l.ReadEndingBalances(r)
		return err
	})
	return balances, err
}

// ReadEndingBalances parses ending balance rows and groups them by
// organization and compliance year, in order of first appearance.
func (l *Loader) ReadEndingBalances(r io.Reader) ([]entities.EndingBalance, error) {
	rows, err := readRows(r, "ending balances", ledgerHeader)
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		organizationID string
		year           entities.ModelYear
	}
	index := make(map[groupKey]int)
	var balances []entities.EndingBalance

	for i, row := range rows {
		organizationID, year, record, err := parseLedgerRow(row)
		if err != nil {
			return nil, fmt.Errorf("ending balances CSV row %d: %w", i+2, err)
		}
		if record.Kind == entities.TransferAway {
			return nil, fmt.Errorf("ending balances CSV row %d: type must be CREDIT or DEBIT, got %s", i+2, record.Kind)
		}

		key := groupKey{organizationID, year}
		at, exists := index[key]
		if !exists {
			at = len(balances)
			index[key] = at
			balances = append(balances, entities.EndingBalance{OrganizationID: organizationID, ComplianceYear: year})
		}
		balances[at].Records = append(balances[at].Records, *record)
	}
	return balances, nil
}

// LoadSupplyVolumes loads supply volumes from a CSV file
func (l *Loader) LoadSupplyVolumes(filename string) ([]entities.SupplyVolume, error) {
	var volumes []entities.SupplyVolume
	err := withFile(filename, "volumes", func(r io.Reader) error {
		var err error
		volumes, err = l.ReadSupplyVolumes(r)
		return err
	})
	return volumes, err
}

// ReadSupplyVolumes parses supply volume rows
func (l *Loader) ReadSupplyVolumes(r io.Reader) ([]entities.SupplyVolume, error) {
	rows, err := readRows(r, "volumes", volumeHeader)
	if err != nil {
		return nil, err
	}

	volumes := make([]entities.SupplyVolume, 0, len(rows))
	for i, row := range rows {
		volume, err := parseVolume(row)
		if err != nil {
			return nil, fmt.Errorf("volumes CSV row %d: %w", i+2, err)
		}
		volumes = append(volumes, volume)
	}
	return volumes, nil
}

// LoadTransferContent loads the lines of a proposed transfer from a CSV file
func (l *Loader) LoadTransferContent(filename string) ([]entities.TransferContent, error) {
	var content []entities.TransferContent
	err := withFile(filename, "transfer", func(r io.Reader) error {
		var err error
		content, err = l.ReadTransferContent(r)
		return err
	})
	return content, err
}

// ReadTransferContent parses transfer content rows
func (l *Loader) ReadTransferContent(r io.Reader) ([]entities.TransferContent, error) {
	rows, err := readRows(r, "transfer", transferHeader)
	if err != nil {
		return nil, err
	}

	content := make([]entities.TransferContent, 0, len(rows))
	for i, row := range rows {
		record, err := parseRecord(entities.TransferAway.String(), row[0], row[1], row[2], row[3])
		if err != nil {
			return nil, fmt.Errorf("transfer CSV row %d: %w", i+2, err)
		}
		content = append(content, entities.TransferContent{
			VehicleClass: record.VehicleClass,
			ZevClass:     record.ZevClass,
			ModelYear:    record.ModelYear,
			Units:        record.Units,
		})
	}
	return content, nil
}

// Helper functions for parsing CSV records

func withFile(filename, name string, read func(io.Reader) error) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()
	return read(file)
}

// readRows validates the header and column count and returns the data rows
func readRows(r io.Reader, name string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	rows := records[1:]
	for i, row := range rows {
		if len(row) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expectedHeader), len(row))
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseLedgerRow(row []string) (string, entities.ModelYear, *entities.LedgerRecord, error) {
	organizationID := strings.TrimSpace(row[0])
	if organizationID == "" {
		return "", 0, nil, fmt.Errorf("organization_id cannot be empty")
	}

	year, err := entities.ParseModelYear(row[1])
	if err != nil {
		return "", 0, nil, fmt.Errorf("invalid compliance_year: %w", err)
	}

	record, err := parseRecord(row[2], row[3], row[4], row[5], row[6])
	if err != nil {
		return "", 0, nil, err
	}
	return organizationID, year, record, nil
}

func parseRecord(kindStr, vehicleClassStr, zevClassStr, modelYearStr, unitsStr string) (*entities.LedgerRecord, error) {
	kind, err := entities.ParseKind(kindStr)
	if err != nil {
		return nil, err
	}
	vehicleClass, err := entities.ParseVehicleClass(vehicleClassStr)
	if err != nil {
		return nil, err
	}
	zevClass, err := entities.ParseZevClass(zevClassStr)
	if err != nil {
		return nil, err
	}
	modelYear, err := entities.ParseModelYear(modelYearStr)
	if err != nil {
		return nil, err
	}
	units, err := decimal.NewFromString(strings.TrimSpace(unitsStr))
	if err != nil {
		return nil, fmt.Errorf("invalid units: %s", unitsStr)
	}

	return entities.NewLedgerRecord(kind, vehicleClass, zevClass, modelYear, units)
}

func parseVolume(row []string) (entities.SupplyVolume, error) {
	organizationID := strings.TrimSpace(row[0])
	if organizationID == "" {
		return entities.SupplyVolume{}, fmt.Errorf("organization_id cannot be empty")
	}

	modelYear, err := entities.ParseModelYear(row[1])
	if err != nil {
		return entities.SupplyVolume{}, err
	}

	vehicleClass, err := entities.ParseVehicleClass(row[2])
	if err != nil {
		return entities.SupplyVolume{}, err
	}

	volume, err := decimal.NewFromString(strings.TrimSpace(row[3]))
	if err != nil {
		return entities.SupplyVolume{}, fmt.Errorf("invalid volume: %s", row[3])
	}
	if volume.IsNegative() {
		return entities.SupplyVolume{}, fmt.Errorf("volume cannot be negative, got %s", volume)
	}

	return entities.SupplyVolume{
		OrganizationID: organizationID,
		ModelYear:      modelYear,
		VehicleClass:   vehicleClass,
		Volume:         volume,
	}, nil
}
