package events

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
)

const (
	BalanceComputedEvent    = "ledger.balance.computed"
	TransferCheckedEvent    = "ledger.transfer.checked"
	EndingBalanceSavedEvent = "ledger.ending_balance.saved"
	ComplianceAssessedEvent = "compliance.assessed"
)

// AllEventTypes lists every audit event type
var AllEventTypes = []string{
	BalanceComputedEvent,
	TransferCheckedEvent,
	EndingBalanceSavedEvent,
	ComplianceAssessedEvent,
}

type BalanceComputed struct {
	OrganizationID string                  `json:"organization_id"`
	AsOf           *entities.ModelYear     `json:"as_of,omitempty"`
	Deficit        bool                    `json:"deficit"`
	Records        []entities.LedgerRecord `json:"records"`
}

type TransferChecked struct {
	OrganizationID string                     `json:"organization_id"`
	Content        []entities.TransferContent `json:"content"`
	Covered        bool                       `json:"covered"`
}

type EndingBalanceSaved struct {
	Balance entities.EndingBalance `json:"balance"`
}

type ComplianceAssessed struct {
	OrganizationID string                 `json:"organization_id"`
	ModelYear      entities.ModelYear     `json:"model_year"`
	SupplierClass  entities.SupplierClass `json:"supplier_class"`
	Compliant      bool                   `json:"compliant"`
	Penalty        decimal.Decimal        `json:"penalty"`
	// OffsetCredits are the credits the pipeline consumed
	OffsetCredits []entities.LedgerRecord `json:"offset_credits"`
}

func NewBalanceComputedEvent(organizationID string, asOf *entities.ModelYear, deficit bool, records []entities.LedgerRecord) Event {
	return NewEvent(BalanceComputedEvent, organizationID, BalanceComputed{
		OrganizationID: organizationID,
		AsOf:           asOf,
		Deficit:        deficit,
		Records:        records,
	})
}

func NewTransferCheckedEvent(organizationID string, content []entities.TransferContent, covered bool) Event {
	return NewEvent(TransferCheckedEvent, organizationID, TransferChecked{
		OrganizationID: organizationID,
		Content:        content,
		Covered:        covered,
	})
}

func NewEndingBalanceSavedEvent(balance entities.EndingBalance) Event {
	return NewEvent(EndingBalanceSavedEvent, balance.OrganizationID, EndingBalanceSaved{Balance: balance})
}

func NewComplianceAssessedEvent(assessed ComplianceAssessed) Event {
	return NewEvent(ComplianceAssessedEvent, assessed.OrganizationID, assessed)
}
