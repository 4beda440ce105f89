package entities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUncoveredTransfer     = errors.New("uncovered transfer")
	ErrIncompleteOrdering    = errors.New("incomplete zev class ordering")
	ErrUnexpectedDebit       = errors.New("unexpected debit")
	ErrMissingStatutoryValue = errors.New("missing statutory value")
	ErrInvalidStatutoryValue = errors.New("invalid statutory value")
)

// UncoveredTransferError reports a transfer-away that same-key credits could
// not settle.
type UncoveredTransferError struct {
	Key       Key
	Uncovered decimal.Decimal
}

func (e *UncoveredTransferError) Error() string {
	return fmt.Sprintf("transfer away of %s/%s %s exceeds available credits by %s",
		e.Key.VehicleClass, e.Key.ZevClass, e.Key.ModelYear, e.Uncovered)
}

func (e *UncoveredTransferError) Is(target error) bool {
	return target == ErrUncoveredTransfer
}

// IncompleteOrderingError reports a zev class priority ordering that is not
// a total ordering over every class.
type IncompleteOrderingError struct {
	Stage      string
	Missing    []ZevClass
	Duplicated []ZevClass
}

func (e *IncompleteOrderingError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+joinClasses(e.Missing))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, "duplicated "+joinClasses(e.Duplicated))
	}
	return fmt.Sprintf("%s: zev class ordering is not total: %s", e.Stage, strings.Join(parts, ", "))
}

func (e *IncompleteOrderingError) Is(target error) bool {
	return target == ErrIncompleteOrdering
}

func joinClasses(classes []ZevClass) string {
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

// UnexpectedDebitError reports a debit found in a prior balance
type UnexpectedDebitError struct {
	OrganizationID string
	ComplianceYear ModelYear
	Record         LedgerRecord
}

func (e *UnexpectedDebitError) Error() string {
	return fmt.Sprintf("prior balance of %q for %s contains debit %s",
		e.OrganizationID, e.ComplianceYear, e.Record)
}

func (e *UnexpectedDebitError) Is(target error) bool {
	return target == ErrUnexpectedDebit
}

// MissingStatutoryValueError reports a lookup into a statutory table that
// has no entry.
type MissingStatutoryValueError struct {
	Table string
	Key   string
}

func (e *MissingStatutoryValueError) Error() string {
	return fmt.Sprintf("statutory table %s has no entry for %s", e.Table, e.Key)
}

func (e *MissingStatutoryValueError) Is(target error) bool {
	return target == ErrMissingStatutoryValue
}

// InvalidStatutoryValueError reports statutory tables whose entries
// contradict each other.
type InvalidStatutoryValueError struct {
	Table  string
	Key    string
	Reason string
}

func (e *InvalidStatutoryValueError) Error() string {
	return fmt.Sprintf("statutory table %s entry for %s %s", e.Table, e.Key, e.Reason)
}

func (e *InvalidStatutoryValueError) Is(target error) bool {
	return target == ErrInvalidStatutoryValue
}
