package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/domain/services/compliance"
	"github.com/vsinha/zevledger/pkg/domain/services/ledger"
)

// BalanceReport is the answer to a balance query of one organization
type BalanceReport struct {
	OrganizationID string              `json:"organization_id"`
	AsOf           *entities.ModelYear `json:"as_of,omitempty"`
	Balance        ledger.Balance      `json:"balance"`
	ComputedAt     time.Time           `json:"computed_at"`
}

// TransferCheck is the coverage verdict for a proposed transfer
type TransferCheck struct {
	OrganizationID string                     `json:"organization_id"`
	Content        []entities.TransferContent `json:"content"`
	Covered        bool                       `json:"covered"`
	ComputedAt     time.Time                  `json:"computed_at"`
}

// Assessment is the model year report of one organization: the balance it
// started from, what was booked and reduced during the year, the ending
// balance after statutory offsetting, and the compliance verdict.
type Assessment struct {
	OrganizationID string                         `json:"organization_id"`
	ModelYear      entities.ModelYear             `json:"model_year"`
	SupplierClass  entities.SupplierClass         `json:"supplier_class"`
	PriorBalance   []entities.LedgerRecord        `json:"prior_balance"`
	Transactions   []entities.LedgerRecord        `json:"transactions"`
	Reductions     []entities.ComplianceReduction `json:"reductions"`
	EndingBalance  []entities.LedgerRecord        `json:"ending_balance"`
	OffsetCredits  []entities.LedgerRecord        `json:"offset_credits"`
	Stages         []ledger.StageAudit            `json:"stages"`
	Outcomes       []compliance.Outcome           `json:"outcomes"`
	Compliant      bool                           `json:"compliant"`
	Penalty        decimal.Decimal                `json:"penalty"`
	ComputedAt     time.Time                      `json:"computed_at"`
}

// Snapshot returns the ending balance as a storable record
func (a *Assessment) Snapshot() entities.EndingBalance {
	records := make([]entities.LedgerRecord, len(a.EndingBalance))
	copy(records, a.EndingBalance)
	return entities.EndingBalance{
		OrganizationID: a.OrganizationID,
		ComplianceYear: a.ModelYear,
		Records:        records,
	}
}
