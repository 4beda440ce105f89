package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// ErrNotFound is returned when a requested ending balance does not exist
var ErrNotFound = errors.New("not found")

// LedgerRepository provides access to the recorded ledger of organizations
type LedgerRepository interface {
	// EndingBalance returns the stored balance of a compliance year or
	// ErrNotFound.
	EndingBalance(ctx context.Context, organizationID string, year entities.ModelYear) (*entities.EndingBalance, error)
	EndingBalances(ctx context.Context, organizationID string) ([]entities.EndingBalance, error)
	SaveEndingBalance(ctx context.Context, balance entities.EndingBalance) error

	Transactions(ctx context.Context, organizationID string) ([]entities.Transaction, error)
	TransactionsIn(ctx context.Context, organizationID string, year entities.ModelYear) ([]entities.Transaction, error)
	AddTransactions(ctx context.Context, transactions []entities.Transaction) error
}
