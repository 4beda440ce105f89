package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/application/dto"
	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/domain/repositories"
	"github.com/vsinha/zevledger/pkg/domain/services/compliance"
	"github.com/vsinha/zevledger/pkg/domain/services/ledger"
	"github.com/vsinha/zevledger/pkg/infrastructure/events"
)

// classificationYears is how many prior model years of supply decide the
// supplier class.
const classificationYears = 3

// AssessmentRequest selects the organization and model year to assess.
// A nil SupplierClass is derived from the supply volumes of the prior model
// years.
type AssessmentRequest struct {
	OrganizationID string
	ModelYear      entities.ModelYear
	SupplierClass  *entities.SupplierClass
}

// AssessmentService builds model year reports: it reduces the year's supply
// into statutory debits, offsets them against the carried balance and the
// year's transactions, and judges the result.
type AssessmentService struct {
	ledgerRepo repositories.LedgerRepository
	volumeRepo repositories.VolumeRepository
	tables     entities.StatutoryTables
	obs        Observability
}

// NewAssessmentService creates an assessment service
func NewAssessmentService(
	ledgerRepo repositories.LedgerRepository,
	volumeRepo repositories.VolumeRepository,
	tables entities.StatutoryTables,
	obs Observability,
) *AssessmentService {
	return &AssessmentService{
		ledgerRepo: ledgerRepo,
		volumeRepo: volumeRepo,
		tables:     tables,
		obs:        obs.withDefaults(),
	}
}

// Assess computes the model year report of an organization. Nothing is
// stored; see Commit.
func (s *AssessmentService) Assess(ctx context.Context, req AssessmentRequest) (assessment *dto.Assessment, err error) {
	start := s.obs.Now()
	logger := s.obs.Logger.With(
		"organization_id", req.OrganizationID,
		"model_year", req.ModelYear.String(),
		"operation", operationAssess,
	)
	defer func() { finish(s.obs, logger, operationAssess, start, err) }()

	if !req.ModelYear.Valid() {
		return nil, fmt.Errorf("invalid model year %d", req.ModelYear)
	}

	// Step 1: the carried balance, which may hold a deficit
	prior, err := s.priorBalance(ctx, req.OrganizationID, req.ModelYear)
	if err != nil {
		return nil, err
	}

	// Step 2: the year's transactions
	transactions, err := s.ledgerRepo.TransactionsIn(ctx, req.OrganizationID, req.ModelYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions of %s: %w", req.OrganizationID, err)
	}
	transactionRecords := make([]entities.LedgerRecord, len(transactions))
	for i, tx := range transactions {
		transactionRecords[i] = tx.Record
	}

	// Step 3: supply volumes and supplier class
	nv, err := s.supplyByClass(ctx, req.OrganizationID, req.ModelYear)
	if err != nil {
		return nil, err
	}
	supplierClass, err := s.supplierClass(ctx, req)
	if err != nil {
		return nil, err
	}
	logger = logger.With("supplier_class", supplierClass.String())

	// Step 4: statutory reductions
	reductions, err := compliance.ReductionsFor(s.tables, nv, req.ModelYear, supplierClass)
	if err != nil {
		return nil, fmt.Errorf("failed to compute reductions: %w", err)
	}

	// Step 5: offsetting
	records := make([]entities.LedgerRecord, 0, len(prior)+len(transactionRecords)+len(reductions))
	records = append(records, prior...)
	records = append(records, transactionRecords...)
	records = append(records, compliance.Records(reductions)...)

	result, err := ledger.ComputeBalance(records, s.tables.ZevClassPriority, req.ModelYear)
	if err != nil {
		return nil, fmt.Errorf("failed to compute ending balance: %w", err)
	}

	// Step 6: compliance
	outcomes, err := compliance.EvaluateCompliance(s.tables, supplierClass, req.ModelYear, prior, result.Balance)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate compliance: %w", err)
	}
	compliant := true
	penalty := decimal.Zero
	for _, outcome := range outcomes {
		compliant = compliant && outcome.IsCompliant
		penalty = penalty.Add(outcome.Penalty)
	}

	assessment = &dto.Assessment{
		OrganizationID: req.OrganizationID,
		ModelYear:      req.ModelYear,
		SupplierClass:  supplierClass,
		PriorBalance:   prior,
		Transactions:   transactionRecords,
		Reductions:     reductions,
		EndingBalance:  result.Balance,
		OffsetCredits:  result.OffsetCredits,
		Stages:         result.Stages,
		Outcomes:       outcomes,
		Compliant:      compliant,
		Penalty:        penalty,
		ComputedAt:     start,
	}

	// Step 7: audit
	for _, stage := range result.Stages {
		s.obs.Metrics.AddOffsetUnits(stage.Stage, ledger.Total(stage.Consumed).InexactFloat64())
	}
	s.obs.Metrics.IncrementAssessment(supplierClass.String(), compliant)
	s.obs.Metrics.AddPenalty(penalty.InexactFloat64())
	record(s.obs, logger, events.NewComplianceAssessedEvent(events.ComplianceAssessed{
		OrganizationID: req.OrganizationID,
		ModelYear:      req.ModelYear,
		SupplierClass:  supplierClass,
		Compliant:      compliant,
		Penalty:        penalty,
		OffsetCredits:  result.OffsetCredits,
	}))
	logger.Info("compliance assessed",
		"compliant", compliant,
		"penalty", penalty.StringFixed(2),
		"reductions", len(reductions),
		"ending_records", len(result.Balance))

	return assessment, nil
}

// Commit stores the ending balance of an assessment as the organization's
// balance for the model year, replacing any earlier one.
func (s *AssessmentService) Commit(ctx context.Context, assessment *dto.Assessment) (err error) {
	if assessment == nil {
		return errors.New("nil assessment")
	}
	start := s.obs.Now()
	logger := s.obs.Logger.With(
		"organization_id", assessment.OrganizationID,
		"model_year", assessment.ModelYear.String(),
		"operation", operationCommit,
	)
	defer func() { finish(s.obs, logger, operationCommit, start, err) }()

	snapshot := assessment.Snapshot()
	if err := s.ledgerRepo.SaveEndingBalance(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save ending balance: %w", err)
	}

	record(s.obs, logger, events.NewEndingBalanceSavedEvent(snapshot))
	logger.Info("ending balance saved", "records", len(snapshot.Records))
	return nil
}

func (s *AssessmentService) priorBalance(
	ctx context.Context,
	organizationID string,
	modelYear entities.ModelYear,
) ([]entities.LedgerRecord, error) {
	previous := modelYear.Previous()
	if !previous.Valid() {
		return nil, nil
	}
	balance, err := s.ledgerRepo.EndingBalance(ctx, organizationID, previous)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prior balance of %s: %w", organizationID, err)
	}
	return balance.Records, nil
}

func (s *AssessmentService) supplyByClass(
	ctx context.Context,
	organizationID string,
	modelYear entities.ModelYear,
) (map[entities.VehicleClass]decimal.Decimal, error) {
	volumes, err := s.volumeRepo.SupplyVolumes(ctx, organizationID, modelYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load supply volumes of %s for %s: %w", organizationID, modelYear, err)
	}
	nv := make(map[entities.VehicleClass]decimal.Decimal)
	for _, volume := range volumes {
		current, ok := nv[volume.VehicleClass]
		if !ok {
			current = decimal.Zero
		}
		nv[volume.VehicleClass] = current.Add(volume.Volume)
	}
	return nv, nil
}

// supplierClass averages the total supply of the prior model years that
// have any, most recent first.
func (s *AssessmentService) supplierClass(ctx context.Context, req AssessmentRequest) (entities.SupplierClass, error) {
	if req.SupplierClass != nil {
		return *req.SupplierClass, nil
	}

	var history []decimal.Decimal
	year := req.ModelYear.Previous()
	for i := 0; i < classificationYears && year.Valid(); i++ {
		nv, err := s.supplyByClass(ctx, req.OrganizationID, year)
		if err != nil {
			return 0, err
		}
		if len(nv) > 0 {
			total := decimal.Zero
			for _, volume := range nv {
				total = total.Add(volume)
			}
			history = append(history, total)
		}
		year = year.Previous()
	}
	return compliance.ClassifySupplier(history, s.tables.Thresholds), nil
}
