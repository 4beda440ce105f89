package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/domain/repositories"
)

//go:embed schema.sql
var schema string

// Migrate creates the ledger tables when they do not exist
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("ledger repo: nil db")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ledger repo: migrate: %w", err)
	}
	return nil
}

// LedgerRepository persists transactions and ending balances
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

var _ repositories.LedgerRepository = (*LedgerRepository)(nil)

// EndingBalance fetches the stored balance of a compliance year.
func (r *LedgerRepository) EndingBalance(
	ctx context.Context,
	organizationID string,
	year entities.ModelYear,
) (*entities.EndingBalance, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT compliance_year, type, vehicle_class, zev_class, model_year, units
FROM zev_ending_balances
WHERE organization_id = $1 AND compliance_year = $2
ORDER BY line ASC`, organizationID, int(year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances, err := scanBalances(organizationID, rows)
	if err != nil {
		return nil, err
	}
	if len(balances) == 0 {
		return nil, fmt.Errorf("ending balance %s %s: %w", organizationID, year, repositories.ErrNotFound)
	}
	return &balances[0], nil
}

// EndingBalances lists every stored balance of an organization, oldest first.
func (r *LedgerRepository) EndingBalances(ctx context.Context, organizationID string) ([]entities.EndingBalance, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT compliance_year, type, vehicle_class, zev_class, model_year, units
FROM zev_ending_balances
WHERE organization_id = $1
ORDER BY compliance_year ASC, line ASC`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBalances(organizationID, rows)
}

// SaveEndingBalance replaces the stored balance of the compliance year.
func (r *LedgerRepository) SaveEndingBalance(ctx context.Context, balance entities.EndingBalance) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
DELETE FROM zev_ending_balances
WHERE organization_id = $1 AND compliance_year = $2`, balance.OrganizationID, int(balance.ComplianceYear))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for i, record := range balance.Records {
		_, err := tx.ExecContext(ctx, `
INSERT INTO zev_ending_balances (
	organization_id, compliance_year, line, type, vehicle_class, zev_class, model_year, units
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			balance.OrganizationID, int(balance.ComplianceYear), i,
			record.Kind.String(), record.VehicleClass.String(), record.ZevClass.String(), int(record.ModelYear), record.Units)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Transactions lists every transaction of an organization in booking order.
func (r *LedgerRepository) Transactions(ctx context.Context, organizationID string) ([]entities.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, organization_id, compliance_year, type, vehicle_class, zev_class, model_year, units
FROM zev_transactions
WHERE organization_id = $1
ORDER BY seq ASC`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// TransactionsIn lists the transactions booked in a compliance year.
func (r *LedgerRepository) TransactionsIn(
	ctx context.Context,
	organizationID string,
	year entities.ModelYear,
) ([]entities.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, organization_id, compliance_year, type, vehicle_class, zev_class, model_year, units
FROM zev_transactions
WHERE organization_id = $1 AND compliance_year = $2
ORDER BY seq ASC`, organizationID, int(year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// AddTransactions inserts transactions in one database transaction.
func (r *LedgerRepository) AddTransactions(ctx context.Context, transactions []entities.Transaction) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, t := range transactions {
		_, err := tx.ExecContext(ctx, `
INSERT INTO zev_transactions (
	id, organization_id, compliance_year, type, vehicle_class, zev_class, model_year, units
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			t.ID, t.OrganizationID, int(t.ComplianceYear),
			t.Record.Kind.String(), t.Record.VehicleClass.String(), t.Record.ZevClass.String(),
			int(t.Record.ModelYear), t.Record.Units)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBalances(organizationID string, rows *sql.Rows) ([]entities.EndingBalance, error) {
	var balances []entities.EndingBalance
	for rows.Next() {
		var year int
		record, err := scanRecord(rows, &year)
		if err != nil {
			return nil, err
		}
		complianceYear := entities.ModelYear(year)
		if n := len(balances); n == 0 || balances[n-1].ComplianceYear != complianceYear {
			balances = append(balances, entities.EndingBalance{
				OrganizationID: organizationID,
				ComplianceYear: complianceYear,
			})
		}
		last := &balances[len(balances)-1]
		last.Records = append(last.Records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return balances, nil
}

func scanTransactions(rows *sql.Rows) ([]entities.Transaction, error) {
	var transactions []entities.Transaction
	for rows.Next() {
		var t entities.Transaction
		var year int
		record, err := scanRecord(rows, &t.ID, &t.OrganizationID, &year)
		if err != nil {
			return nil, err
		}
		t.ComplianceYear = entities.ModelYear(year)
		t.Record = *record
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

// scanRecord scans leading columns into prefix and the trailing record
// columns into a validated LedgerRecord.
func scanRecord(row rowScanner, prefix ...any) (*entities.LedgerRecord, error) {
	var (
		kind, vehicleClass, zevClass string
		modelYear                    int
		units                        decimal.Decimal
	)
	dest := append(prefix, &kind, &vehicleClass, &zevClass, &modelYear, &units)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	k, err := entities.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	vc, err := entities.ParseVehicleClass(vehicleClass)
	if err != nil {
		return nil, err
	}
	zc, err := entities.ParseZevClass(zevClass)
	if err != nil {
		return nil, err
	}
	return entities.NewLedgerRecord(k, vc, zc, entities.ModelYear(modelYear), units)
}
