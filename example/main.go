package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vsinha/zevledger/pkg/application/services"
	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/infrastructure/config"
	testhelpers "github.com/vsinha/zevledger/pkg/infrastructure/testing"
	"github.com/vsinha/zevledger/pkg/interfaces/cli/output"
)

func main() {
	ctx := context.Background()

	tables, err := config.DefaultTables()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Seed a large supplier with a closed MY_2022 balance
	ledgerRepo, volumeRepo := testhelpers.BuildSupplierScenario()
	assessments := services.NewAssessmentService(ledgerRepo, volumeRepo, tables, services.Observability{})

	fmt.Println("🚗 Assessing two model years for", testhelpers.ScenarioOrganization)
	for _, year := range []entities.ModelYear{entities.MY2023, entities.MY2024} {
		assessment, err := assessments.Assess(ctx, services.AssessmentRequest{
			OrganizationID: testhelpers.ScenarioOrganization,
			ModelYear:      year,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := output.WriteAssessment(assessment, output.Config{Format: output.FormatText}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()

		// The next year starts from this one's ending balance
		if err := assessments.Commit(ctx, assessment); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	balances := services.NewLedgerService(ledgerRepo, services.Observability{})
	report, err := balances.BalanceAsOf(ctx, testhelpers.ScenarioOrganization, entities.MY2022)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := output.WriteBalance(report, output.Config{Format: output.FormatText}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
