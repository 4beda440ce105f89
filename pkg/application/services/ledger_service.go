package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/zevledger/pkg/application/dto"
	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/domain/repositories"
	"github.com/vsinha/zevledger/pkg/domain/services/ledger"
	"github.com/vsinha/zevledger/pkg/infrastructure/events"
	"github.com/vsinha/zevledger/pkg/infrastructure/logging"
	"github.com/vsinha/zevledger/pkg/infrastructure/metrics"
)

const (
	operationBalance       = "balance"
	operationTransferCheck = "transfer_check"
	operationAssess        = "assess"
	operationCommit        = "commit"
)

// Observability bundles the ambient collaborators shared by the services.
// Nil fields are replaced with no-op implementations.
type Observability struct {
	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Events  events.EventStore
	Now     func() time.Time
}

func (o Observability) withDefaults() Observability {
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Events == nil {
		o.Events = events.NewInMemoryEventStore(o.Logger)
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// LedgerService answers balance and transfer coverage queries against the
// recorded ledger.
type LedgerService struct {
	ledgerRepo repositories.LedgerRepository
	obs        Observability
}

// NewLedgerService creates a ledger service
func NewLedgerService(ledgerRepo repositories.LedgerRepository, obs Observability) *LedgerService {
	return &LedgerService{
		ledgerRepo: ledgerRepo,
		obs:        obs.withDefaults(),
	}
}

// CurrentBalance is the balance after every recorded transaction
func (s *LedgerService) CurrentBalance(ctx context.Context, organizationID string) (*dto.BalanceReport, error) {
	return s.balance(ctx, organizationID, nil)
}

// BalanceAsOf is the balance at the close of a compliance year
func (s *LedgerService) BalanceAsOf(
	ctx context.Context,
	organizationID string,
	asOf entities.ModelYear,
) (*dto.BalanceReport, error) {
	return s.balance(ctx, organizationID, &asOf)
}

func (s *LedgerService) balance(
	ctx context.Context,
	organizationID string,
	asOf *entities.ModelYear,
) (report *dto.BalanceReport, err error) {
	start := s.obs.Now()
	logger := s.obs.Logger.With("organization_id", organizationID, "operation", operationBalance)
	defer func() { finish(s.obs, logger, operationBalance, start, err) }()

	balances, transactions, err := s.load(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var balance ledger.Balance
	if asOf == nil {
		balance, err = ledger.CurrentBalance(balances, transactions)
	} else {
		balance, err = ledger.BalanceAsOf(balances, transactions, *asOf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance of %s: %w", organizationID, err)
	}

	record(s.obs, logger, events.NewBalanceComputedEvent(organizationID, asOf, balance.Deficit, balance.Records))
	logger.Debug("balance computed", "deficit", balance.Deficit, "records", len(balance.Records))

	return &dto.BalanceReport{
		OrganizationID: organizationID,
		AsOf:           asOf,
		Balance:        balance,
		ComputedAt:     start,
	}, nil
}

// IsTransferCovered reports whether the organization's current holdings
// cover every line of a proposed transfer.
func (s *LedgerService) IsTransferCovered(
	ctx context.Context,
	organizationID string,
	content []entities.TransferContent,
) (check *dto.TransferCheck, err error) {
	start := s.obs.Now()
	logger := s.obs.Logger.With("organization_id", organizationID, "operation", operationTransferCheck)
	defer func() { finish(s.obs, logger, operationTransferCheck, start, err) }()

	balances, transactions, err := s.load(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	covered, err := ledger.IsTransferCovered(ledger.SelectHistory(balances, transactions, nil), content)
	if err != nil {
		return nil, fmt.Errorf("failed to check transfer of %s: %w", organizationID, err)
	}

	record(s.obs, logger, events.NewTransferCheckedEvent(organizationID, content, covered))
	logger.Info("transfer checked", "lines", len(content), "covered", covered)

	return &dto.TransferCheck{
		OrganizationID: organizationID,
		Content:        content,
		Covered:        covered,
		ComputedAt:     start,
	}, nil
}

func (s *LedgerService) load(
	ctx context.Context,
	organizationID string,
) ([]entities.EndingBalance, []entities.Transaction, error) {
	balances, err := s.ledgerRepo.EndingBalances(ctx, organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ending balances of %s: %w", organizationID, err)
	}
	transactions, err := s.ledgerRepo.Transactions(ctx, organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load transactions of %s: %w", organizationID, err)
	}
	return balances, transactions, nil
}

// record appends an audit event; a failing audit log never fails the caller
func record(obs Observability, logger *logging.Logger, event events.Event) {
	if err := obs.Events.AppendEvent(event.StreamID(), event); err != nil {
		logger.Warn("failed to append audit event", "event_type", event.Type(), "error", err)
	}
}

func finish(obs Observability, logger *logging.Logger, operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		logger.Error("operation failed", "error", err)
	}
	obs.Metrics.ObserveOperation(operation, result, obs.Now().Sub(start))
}
