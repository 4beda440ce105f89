package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/domain/repositories"
)

type balanceKey struct {
	organizationID string
	year           entities.ModelYear
}

// LedgerRepository provides in-memory ledger storage
type LedgerRepository struct {
	mu sync.RWMutex

	balances     []entities.EndingBalance
	balancesMap  map[balanceKey]int
	transactions []entities.Transaction
}

// NewLedgerRepository creates a new in-memory ledger repository
func NewLedgerRepository(expectedTransactions int) *LedgerRepository {
	return &LedgerRepository{
		balancesMap:  make(map[balanceKey]int),
		transactions: make([]entities.Transaction, 0, expectedTransactions),
	}
}

// Verify interface compliance
var _ repositories.LedgerRepository = (*LedgerRepository)(nil)

// EndingBalance returns the stored balance of a compliance year
func (r *LedgerRepository) EndingBalance(
	_ context.Context,
	organizationID string,
	year entities.ModelYear,
) (*entities.EndingBalance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.balancesMap[balanceKey{organizationID, year}]
	if !exists {
		return nil, fmt.Errorf("ending balance %s %s: %w", organizationID, year, repositories.ErrNotFound)
	}
	balance := copyBalance(r.balances[index])
	return &balance, nil
}

// EndingBalances returns every stored balance of an organization, oldest first
func (r *LedgerRepository) EndingBalances(_ context.Context, organizationID string) ([]entities.EndingBalance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var balances []entities.EndingBalance
	for _, balance := range r.balances {
		if balance.OrganizationID == organizationID {
			balances = append(balances, copyBalance(balance))
		}
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].ComplianceYear < balances[j].ComplianceYear
	})
	return balances, nil
}

// SaveEndingBalance stores a balance, replacing any earlier one of the same
// organization and compliance year.
func (r *LedgerRepository) SaveEndingBalance(_ context.Context, balance entities.EndingBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := balanceKey{balance.OrganizationID, balance.ComplianceYear}
	if index, exists := r.balancesMap[key]; exists {
		r.balances[index] = copyBalance(balance)
		return nil
	}
	r.balancesMap[key] = len(r.balances)
	r.balances = append(r.balances, copyBalance(balance))
	return nil
}

// Transactions returns every transaction of an organization in insertion order
func (r *LedgerRepository) Transactions(_ context.Context, organizationID string) ([]entities.Transaction, error) {
	return r.filter(func(tx entities.Transaction) bool {
		return tx.OrganizationID == organizationID
	}), nil
}

// TransactionsIn returns the transactions booked in a compliance year
func (r *LedgerRepository) TransactionsIn(
	_ context.Context,
	organizationID string,
	year entities.ModelYear,
) ([]entities.Transaction, error) {
	return r.filter(func(tx entities.Transaction) bool {
		return tx.OrganizationID == organizationID && tx.ComplianceYear == year
	}), nil
}

// AddTransactions appends transactions to the ledger
func (r *LedgerRepository) AddTransactions(_ context.Context, transactions []entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transactions = append(r.transactions, transactions...)
	return nil
}

func (r *LedgerRepository) filter(keep func(entities.Transaction) bool) []entities.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var transactions []entities.Transaction
	for _, tx := range r.transactions {
		if keep(tx) {
			transactions = append(transactions, tx)
		}
	}
	return transactions
}

func copyBalance(balance entities.EndingBalance) entities.EndingBalance {
	records := make([]entities.LedgerRecord, len(balance.Records))
	copy(records, balance.Records)
	balance.Records = records
	return balance
}
