package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vsinha/zevledger/pkg/application/services"
	"github.com/vsinha/zevledger/pkg/domain/entities"
	"github.com/vsinha/zevledger/pkg/domain/repositories"
	appconfig "github.com/vsinha/zevledger/pkg/infrastructure/config"
	"github.com/vsinha/zevledger/pkg/infrastructure/events"
	"github.com/vsinha/zevledger/pkg/infrastructure/logging"
	"github.com/vsinha/zevledger/pkg/infrastructure/metrics"
	"github.com/vsinha/zevledger/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/zevledger/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/zevledger/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/zevledger/pkg/interfaces/cli/output"
)

// Subcommands
const (
	CommandAssess   = "assess"
	CommandReport   = "report"
	CommandBalance  = "balance"
	CommandTransfer = "transfer"
	CommandImport   = "import"
	CommandHelp     = "help"
)

// Config holds configuration for the ledger commands
type Config struct {
	Command        string
	OrganizationID string
	ModelYear      string
	AsOf           string
	SupplierClass  string
	Commit         bool

	// Input CSV files
	TransactionsFile string
	BalancesFile     string
	VolumesFile      string
	TransferFile     string

	TablesFile  string
	DSN         string
	LogMode     string
	OutputDir   string
	Format      string
	MetricsFile string
	Verbose     bool
}

// LedgerCommand wires repositories, services and output for one invocation
type LedgerCommand struct {
	config      Config
	loader      *csv.Loader
	openStorage storageOpener
}

// storage is the database-backed side of a session
type storage struct {
	ledgerRepo repositories.LedgerRepository
	volumeRepo repositories.VolumeRepository
	close      func() error
}

type storageOpener func(ctx context.Context, dsn string) (*storage, error)

func openPostgres(ctx context.Context, dsn string) (*storage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &storage{
		ledgerRepo: postgres.NewLedgerRepository(db),
		volumeRepo: postgres.NewVolumeRepository(db),
		close:      db.Close,
	}, nil
}

// NewLedgerCommand creates a new ledger command with the given configuration
func NewLedgerCommand(config Config) *LedgerCommand {
	if config.Format == "" {
		config.Format = output.FormatText
	}
	return &LedgerCommand{
		config:      config,
		loader:      csv.NewLoader(),
		openStorage: openPostgres,
	}
}

// session is everything a subcommand needs
type session struct {
	logger     *logging.Logger
	metrics    *metrics.Metrics
	events     events.EventStore
	tables     entities.StatutoryTables
	ledgerRepo repositories.LedgerRepository
	volumeRepo repositories.VolumeRepository
	closeStore func() error
}

func (r *session) observability() services.Observability {
	return services.Observability{Logger: r.logger, Metrics: r.metrics, Events: r.events}
}

func (r *session) close() {
	if r.closeStore != nil {
		r.closeStore()
	}
	r.logger.Sync()
}

// Execute runs the configured subcommand
func (c *LedgerCommand) Execute(ctx context.Context) (err error) {
	switch c.config.Command {
	case "", CommandHelp:
		c.showHelp()
		return nil
	case CommandAssess, CommandReport, CommandBalance, CommandTransfer, CommandImport:
	default:
		c.showHelp()
		return fmt.Errorf("unknown command %q", c.config.Command)
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	rt, err := c.setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	defer func() {
		if c.config.MetricsFile == "" {
			return
		}
		if werr := rt.metrics.WriteToTextfile(c.config.MetricsFile); werr != nil && err == nil {
			err = fmt.Errorf("failed to write metrics: %w", werr)
		}
	}()

	switch c.config.Command {
	case CommandAssess, CommandReport:
		return c.runAssess(ctx, rt)
	case CommandBalance:
		return c.runBalance(ctx, rt)
	case CommandTransfer:
		return c.runTransfer(ctx, rt)
	default:
		rt.logger.Info("import finished")
		return nil
	}
}

func (c *LedgerCommand) validateInputs() error {
	needsOrg := c.config.Command != CommandImport
	if needsOrg && c.config.OrganizationID == "" {
		return errors.New("organization is required")
	}
	switch c.config.Command {
	case CommandAssess, CommandReport:
		if c.config.ModelYear == "" {
			return errors.New("model year is required")
		}
	case CommandTransfer:
		if c.config.TransferFile == "" {
			return errors.New("transfer file is required")
		}
	case CommandImport:
		if c.config.DSN == "" {
			return errors.New("import needs a database; set -dsn or ZEVLEDGER_DSN")
		}
	}
	// Only import writes to a database; other commands read it as is.
	if c.config.DSN != "" && c.config.Command != CommandImport && c.hasLedgerInputs() {
		return errors.New("input files are loaded with import when a database is configured")
	}
	return nil
}

func (c *LedgerCommand) hasLedgerInputs() bool {
	return c.config.TransactionsFile != "" || c.config.BalancesFile != "" || c.config.VolumesFile != ""
}

func (c *LedgerCommand) setup(ctx context.Context) (*session, error) {
	logger, err := logging.New(c.config.LogMode, c.config.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store := events.NewInMemoryEventStore(logger)
	if err := store.Subscribe(events.AllEventTypes, events.NewLogHandler(logger)); err != nil {
		return nil, err
	}

	tables, err := appconfig.LoadTables(c.config.TablesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load statutory tables: %w", err)
	}

	rt := &session{
		logger:  logger,
		metrics: metrics.New(),
		events:  store,
		tables:  tables,
	}

	if c.config.DSN == "" {
		rt.ledgerRepo = memory.NewLedgerRepository(0)
		rt.volumeRepo = memory.NewVolumeRepository()
		logger.Debug("using in-memory storage")
	} else {
		store, err := c.openStorage(ctx, c.config.DSN)
		if err != nil {
			return nil, err
		}
		rt.ledgerRepo = store.ledgerRepo
		rt.volumeRepo = store.volumeRepo
		rt.closeStore = store.close
		logger.Debug("using postgres storage")
		if c.config.Command != CommandImport {
			return rt, nil
		}
	}

	if err := c.loadInputs(ctx, rt); err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

// loadInputs copies the CSV inputs into the configured repositories
func (c *LedgerCommand) loadInputs(ctx context.Context, rt *session) error {
	if path := c.config.BalancesFile; path != "" {
		balances, err := c.loader.LoadEndingBalances(path)
		if err != nil {
			return fmt.Errorf("error loading ending balances: %w", err)
		}
		for _, balance := range balances {
			if err := rt.ledgerRepo.SaveEndingBalance(ctx, balance); err != nil {
				return fmt.Errorf("failed to store ending balance: %w", err)
			}
		}
		rt.logger.Info("ending balances loaded", "file", path, "count", len(balances))
	}

	if path := c.config.TransactionsFile; path != "" {
		transactions, err := c.loader.LoadTransactions(path)
		if err != nil {
			return fmt.Errorf("error loading transactions: %w", err)
		}
		if err := rt.ledgerRepo.AddTransactions(ctx, transactions); err != nil {
			return fmt.Errorf("failed to store transactions: %w", err)
		}
		rt.logger.Info("transactions loaded", "file", path, "count", len(transactions))
	}

	if path := c.config.VolumesFile; path != "" {
		volumes, err := c.loader.LoadSupplyVolumes(path)
		if err != nil {
			return fmt.Errorf("error loading supply volumes: %w", err)
		}
		if err := rt.volumeRepo.AddSupplyVolumes(ctx, volumes); err != nil {
			return fmt.Errorf("failed to store supply volumes: %w", err)
		}
		rt.logger.Info("supply volumes loaded", "file", path, "count", len(volumes))
	}
	return nil
}

func (c *LedgerCommand) runAssess(ctx context.Context, rt *session) error {
	modelYear, err := entities.ParseModelYear(c.config.ModelYear)
	if err != nil {
		return err
	}
	req := services.AssessmentRequest{
		OrganizationID: c.config.OrganizationID,
		ModelYear:      modelYear,
	}
	if c.config.SupplierClass != "" {
		class, err := entities.ParseSupplierClass(c.config.SupplierClass)
		if err != nil {
			return err
		}
		req.SupplierClass = &class
	}

	service := services.NewAssessmentService(rt.ledgerRepo, rt.volumeRepo, rt.tables, rt.observability())
	assessment, err := service.Assess(ctx, req)
	if err != nil {
		return fmt.Errorf("error assessing compliance: %w", err)
	}
	if c.config.Commit {
		if err := service.Commit(ctx, assessment); err != nil {
			return err
		}
	}
	return output.WriteAssessment(assessment, c.outputConfig())
}

func (c *LedgerCommand) runBalance(ctx context.Context, rt *session) error {
	service := services.NewLedgerService(rt.ledgerRepo, rt.observability())
	if c.config.AsOf == "" {
		report, err := service.CurrentBalance(ctx, c.config.OrganizationID)
		if err != nil {
			return err
		}
		return output.WriteBalance(report, c.outputConfig())
	}

	asOf, err := entities.ParseModelYear(c.config.AsOf)
	if err != nil {
		return err
	}
	report, err := service.BalanceAsOf(ctx, c.config.OrganizationID, asOf)
	if err != nil {
		return err
	}
	return output.WriteBalance(report, c.outputConfig())
}

func (c *LedgerCommand) runTransfer(ctx context.Context, rt *session) error {
	content, err := c.loader.LoadTransferContent(c.config.TransferFile)
	if err != nil {
		return fmt.Errorf("error loading transfer content: %w", err)
	}
	service := services.NewLedgerService(rt.ledgerRepo, rt.observability())
	check, err := service.IsTransferCovered(ctx, c.config.OrganizationID, content)
	if err != nil {
		return err
	}
	return output.WriteTransferCheck(check, c.outputConfig())
}

func (c *LedgerCommand) outputConfig() output.Config {
	return output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
	}
}

func (c *LedgerCommand) showHelp() {
	help := []string{
		"zevledger - ZEV unit ledger reconciliation and compliance",
		"",
		"Usage:",
		"  zevledger <command> [flags]",
		"",
		"Commands:",
		"  assess    Build the model year report of an organization (alias: report)",
		"  balance   Show the current balance, or the balance as of a compliance year",
		"  transfer  Check whether current holdings cover a proposed transfer",
		"  import    Load CSV inputs into the database",
		"",
		"Flags:",
		"  -org          Organization id",
		"  -model-year   Model year to assess (MY_2024 or 2024)",
		"  -as-of        Compliance year for balance queries",
		"  -supplier-class  SMALL, MEDIUM or LARGE; derived from supply history when omitted",
		"  -commit       Store the assessed ending balance",
		"  -transactions, -balances, -volumes, -transfer  Input CSV files",
		"  -tables       Statutory tables YAML overriding the built-in defaults",
		"  -dsn          Postgres connection string (default $ZEVLEDGER_DSN); only import reads input files then",
		"  -format       text, json, csv, xlsx, pdf or html",
		"  -output       Output directory",
		"  -metrics-file Write Prometheus metrics to this file on exit",
		"  -verbose      Enable debug logging",
	}
	fmt.Fprintln(os.Stdout, strings.Join(help, "\n"))
}
