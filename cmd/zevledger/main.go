package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/zevledger/pkg/infrastructure/config"
	"github.com/vsinha/zevledger/pkg/interfaces/cli/commands"
)

func main() {
	if len(os.Args) < 2 {
		if err := commands.NewLedgerCommand(commands.Config{}).Execute(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(2)
	}

	settings := config.LoadSettings()
	command := os.Args[1]
	flags := flag.NewFlagSet(command, flag.ExitOnError)

	// Command line flags
	var (
		org           = flags.String("org", "", "Organization id")
		modelYear     = flags.String("model-year", "", "Model year to assess (MY_2024 or 2024)")
		asOf          = flags.String("as-of", "", "Compliance year for balance queries")
		supplierClass = flags.String("supplier-class", "", "SMALL, MEDIUM or LARGE (derived when omitted)")
		commit        = flags.Bool("commit", false, "Store the assessed ending balance")
		transactions  = flags.String("transactions", "", "Path to transactions CSV file")
		balances      = flags.String("balances", "", "Path to ending balances CSV file")
		volumes       = flags.String("volumes", "", "Path to supply volumes CSV file")
		transfer      = flags.String("transfer", "", "Path to transfer content CSV file")
		tables        = flags.String("tables", settings.TablesPath, "Statutory tables YAML file")
		dsn           = flags.String("dsn", settings.DSN, "Postgres connection string")
		outputDir     = flags.String("output", "", "Output directory for results (optional)")
		format        = flags.String("format", "text", "Output format: text, json, csv, xlsx, pdf, html")
		metricsFile   = flags.String("metrics-file", "", "Write Prometheus metrics to this file")
		verbose       = flags.Bool("verbose", false, "Enable verbose output")
	)

	if err := flags.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg := commands.Config{
		Command:          command,
		OrganizationID:   *org,
		ModelYear:        *modelYear,
		AsOf:             *asOf,
		SupplierClass:    *supplierClass,
		Commit:           *commit,
		TransactionsFile: *transactions,
		BalancesFile:     *balances,
		VolumesFile:      *volumes,
		TransferFile:     *transfer,
		TablesFile:       *tables,
		DSN:              *dsn,
		LogMode:          settings.LogMode,
		OutputDir:        *outputDir,
		Format:           *format,
		MetricsFile:      *metricsFile,
		Verbose:          *verbose,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewLedgerCommand(cfg).Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
