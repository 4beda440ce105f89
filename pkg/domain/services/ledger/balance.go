package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// DeficitLabel is reported instead of records when the latest stored ending
// balance carries a debit.
const DeficitLabel = "deficit"

// Balance is the answer to a balance query
type Balance struct {
	Deficit bool
	Records []entities.LedgerRecord
}

// MarshalJSON renders a deficit as the literal "deficit"
func (b Balance) MarshalJSON() ([]byte, error) {
	if b.Deficit {
		return json.Marshal(DeficitLabel)
	}
	records := b.Records
	if records == nil {
		records = []entities.LedgerRecord{}
	}
	return json.Marshal(records)
}

// History is the slice of an organization's ledger a balance is built from:
// the latest ending balance, if any, and every transaction booked after it.
type History struct {
	Prior        *entities.EndingBalance
	Transactions []entities.Transaction
}

// SelectHistory picks the latest ending balance booked at or before asOf and
// the transactions after it up to and including asOf. A nil asOf means no
// upper bound.
func SelectHistory(
	endingBalances []entities.EndingBalance,
	transactions []entities.Transaction,
	asOf *entities.ModelYear,
) History {
	var prior *entities.EndingBalance
	for i := range endingBalances {
		balance := &endingBalances[i]
		if asOf != nil && balance.ComplianceYear > *asOf {
			continue
		}
		if prior == nil || balance.ComplianceYear > prior.ComplianceYear {
			prior = balance
		}
	}

	var selected []entities.Transaction
	for _, tx := range transactions {
		if prior != nil && tx.ComplianceYear <= prior.ComplianceYear {
			continue
		}
		if asOf != nil && tx.ComplianceYear > *asOf {
			continue
		}
		selected = append(selected, tx)
	}

	return History{Prior: prior, Transactions: selected}
}

// PriorBalanceRecords returns the records of a stored ending balance. A
// prior balance may only hold credits; a debit fails with
// *entities.UnexpectedDebitError.
func PriorBalanceRecords(prior *entities.EndingBalance) ([]entities.LedgerRecord, error) {
	if prior == nil {
		return nil, nil
	}
	records := make([]entities.LedgerRecord, 0, len(prior.Records))
	for _, record := range prior.Records {
		if record.Kind == entities.Debit {
			return nil, &entities.UnexpectedDebitError{
				OrganizationID: prior.OrganizationID,
				ComplianceYear: prior.ComplianceYear,
				Record:         record,
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// Records returns the prior balance followed by every transaction record
func (h History) Records() ([]entities.LedgerRecord, error) {
	records, err := PriorBalanceRecords(h.Prior)
	if err != nil {
		return nil, err
	}
	for _, tx := range h.Transactions {
		records = append(records, tx.Record)
	}
	return records, nil
}

// IsTransferCovered reports whether the organization can give away content
// right now. Only an uncovered transfer yields false; any other failure is
// returned.
func IsTransferCovered(history History, content []entities.TransferContent) (bool, error) {
	records, err := history.Records()
	if err != nil {
		return false, err
	}
	for _, line := range content {
		records = append(records, line.AwayRecord())
	}

	if _, err := NetTransfersAway(records); err != nil {
		if errors.Is(err, entities.ErrUncoveredTransfer) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CurrentBalance is the balance after every recorded transaction
func CurrentBalance(endingBalances []entities.EndingBalance, transactions []entities.Transaction) (Balance, error) {
	return balanceOf(SelectHistory(endingBalances, transactions, nil))
}

// BalanceAsOf is the balance at the close of compliance year asOf
func BalanceAsOf(
	endingBalances []entities.EndingBalance,
	transactions []entities.Transaction,
	asOf entities.ModelYear,
) (Balance, error) {
	return balanceOf(SelectHistory(endingBalances, transactions, &asOf))
}

func balanceOf(history History) (Balance, error) {
	if history.Prior != nil && history.Prior.HasDebit() {
		return Balance{Deficit: true}, nil
	}

	records, err := history.Records()
	if err != nil {
		return Balance{}, err
	}
	netted, err := NetTransfersAway(records)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to net transfers away: %w", err)
	}
	return Balance{Records: Normalize(netted)}, nil
}
