package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vsinha/zevledger/pkg/application/dto"
	"github.com/vsinha/zevledger/pkg/domain/entities"
)

// Supported formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Stdout receives text and JSON output when OutputDir is empty
	Stdout io.Writer
}

func (c Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// WriteBalance renders a balance report
func WriteBalance(report *dto.BalanceReport, config Config) error {
	name := "balance_" + fileSafe(report.OrganizationID)
	switch config.Format {
	case FormatText:
		return emit(config, name+".txt", func(w io.Writer) error { return balanceText(w, report) })
	case FormatJSON:
		return emitJSON(config, name+".json", report)
	case FormatCSV:
		return emit(config, name+".csv", func(w io.Writer) error {
			return recordsCSV(w, report.Balance.Records, report.Balance.Deficit)
		})
	case FormatXLSX:
		data, err := BuildBalanceXLSX(report)
		if err != nil {
			return err
		}
		return writeFile(config, name+".xlsx", data)
	default:
		return fmt.Errorf("unsupported output format for balance: %s", config.Format)
	}
}

// WriteTransferCheck renders a transfer coverage verdict
func WriteTransferCheck(check *dto.TransferCheck, config Config) error {
	name := "transfer_" + fileSafe(check.OrganizationID)
	switch config.Format {
	case FormatText:
		return emit(config, name+".txt", func(w io.Writer) error {
			verdict := "NOT COVERED"
			if check.Covered {
				verdict = "COVERED"
			}
			fmt.Fprintf(w, "Transfer check for %s: %s\n", check.OrganizationID, verdict)
			return contentTable(w, check.Content)
		})
	case FormatJSON:
		return emitJSON(config, name+".json", check)
	default:
		return fmt.Errorf("unsupported output format for transfer check: %s", config.Format)
	}
}

// WriteAssessment renders a model year report in any supported format
func WriteAssessment(assessment *dto.Assessment, config Config) error {
	name := fmt.Sprintf("assessment_%s_%s", fileSafe(assessment.OrganizationID), assessment.ModelYear)
	switch config.Format {
	case FormatText:
		return emit(config, name+".txt", func(w io.Writer) error { return assessmentText(w, assessment) })
	case FormatJSON:
		return emitJSON(config, name+".json", assessment)
	case FormatCSV:
		return assessmentCSV(assessment, config, name)
	case FormatXLSX:
		data, err := BuildAssessmentXLSX(assessment)
		if err != nil {
			return err
		}
		return writeFile(config, name+".xlsx", data)
	case FormatPDF:
		data, err := BuildAssessmentPDF(assessment)
		if err != nil {
			return err
		}
		return writeFile(config, name+".pdf", data)
	case FormatHTML:
		page, err := NewHTMLReport().Render(assessment)
		if err != nil {
			return err
		}
		return writeFile(config, name+".html", []byte(page))
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func balanceText(w io.Writer, report *dto.BalanceReport) error {
	asOf := "current"
	if report.AsOf != nil {
		asOf = "as of " + report.AsOf.String()
	}
	fmt.Fprintf(w, "📊 Balance of %s (%s)\n", report.OrganizationID, asOf)
	fmt.Fprintf(w, "==============================\n\n")
	if report.Balance.Deficit {
		fmt.Fprintf(w, "⚠️  deficit\n")
		return nil
	}
	return recordTable(w, report.Balance.Records)
}

func assessmentText(w io.Writer, a *dto.Assessment) error {
	fmt.Fprintf(w, "📊 Model Year Report %s %s\n", a.OrganizationID, a.ModelYear)
	fmt.Fprintf(w, "==============================\n\n")
	fmt.Fprintf(w, "Supplier Class: %s\n", a.SupplierClass)
	fmt.Fprintf(w, "Compliant:      %t\n", a.Compliant)
	fmt.Fprintf(w, "Penalty:        %s\n\n", a.Penalty.StringFixed(2))

	sections := []struct {
		title   string
		records []entities.LedgerRecord
	}{
		{"📂 Prior Balance", a.PriorBalance},
		{"📋 Transactions", a.Transactions},
		{"🔄 Credits Offset", a.OffsetCredits},
		{"📦 Ending Balance", a.EndingBalance},
	}
	for _, section := range sections {
		fmt.Fprintf(w, "%s:\n", section.title)
		if err := recordTable(w, section.records); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(a.Reductions) > 0 {
		fmt.Fprintf(w, "📉 Compliance Reductions:\n")
		fmt.Fprintf(w, "%-12s %-12s %-8s %-10s %-12s %-12s\n",
			"Vehicle", "ZEV Class", "Year", "Ratio", "Volume", "Units")
		fmt.Fprintf(w, "%-12s %-12s %-8s %-10s %-12s %-12s\n",
			"------------", "------------", "--------", "----------", "------------", "------------")
		for _, r := range a.Reductions {
			fmt.Fprintf(w, "%-12s %-12s %-8s %-10s %-12s %-12s\n",
				r.VehicleClass, r.ZevClass, r.ModelYear, r.ComplianceRatio.String(),
				r.NV.String(), r.Units.StringFixed(2))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "⚖️  Outcomes:\n")
	for _, outcome := range a.Outcomes {
		mark := "✅"
		if !outcome.IsCompliant {
			mark = "❌"
		}
		fmt.Fprintf(w, "  %s %-12s penalty %s\n", mark, outcome.VehicleClass, outcome.Penalty.StringFixed(2))
	}
	return nil
}

func recordTable(w io.Writer, records []entities.LedgerRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintf(w, "  (none)\n")
		return err
	}
	fmt.Fprintf(w, "%-14s %-12s %-12s %-8s %-12s\n", "Type", "Vehicle", "ZEV Class", "Year", "Units")
	fmt.Fprintf(w, "%-14s %-12s %-12s %-8s %-12s\n",
		"--------------", "------------", "------------", "--------", "------------")
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%-14s %-12s %-12s %-8s %-12s\n",
			r.Kind, r.VehicleClass, r.ZevClass, r.ModelYear, r.Units.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

func contentTable(w io.Writer, content []entities.TransferContent) error {
	records := make([]entities.LedgerRecord, len(content))
	for i, line := range content {
		records[i] = line.AwayRecord()
	}
	return recordTable(w, records)
}

var recordHeader = []string{"type", "vehicle_class", "zev_class", "model_year", "units"}

func recordRow(r entities.LedgerRecord) []string {
	return []string{r.Kind.String(), r.VehicleClass.String(), r.ZevClass.String(), r.ModelYear.String(), r.Units.String()}
}

func recordsCSV(w io.Writer, records []entities.LedgerRecord, deficit bool) error {
	writer := csv.NewWriter(w)
	if deficit {
		if err := writer.Write([]string{"deficit"}); err != nil {
			return err
		}
		writer.Flush()
		return writer.Error()
	}
	if err := writer.Write(recordHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write(recordRow(r)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func assessmentCSV(a *dto.Assessment, config Config, name string) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	files := map[string][]entities.LedgerRecord{
		name + "_ending_balance.csv": a.EndingBalance,
		name + "_offset_credits.csv": a.OffsetCredits,
	}
	for filename, records := range files {
		if err := emit(config, filename, func(w io.Writer) error { return recordsCSV(w, records, false) }); err != nil {
			return err
		}
	}

	return emit(config, name+"_reductions.csv", func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write(append(append([]string{}, recordHeader...), "compliance_ratio", "nv")); err != nil {
			return err
		}
		for _, r := range a.Reductions {
			row := append(recordRow(r.LedgerRecord), r.ComplianceRatio.String(), r.NV.String())
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// emit writes to stdout, or to filename under OutputDir when one is set
func emit(config Config, filename string, render func(io.Writer) error) error {
	if config.OutputDir == "" {
		return render(config.stdout())
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(config.OutputDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(os.Stderr, "💾 Results saved to: %s\n", path)
	}
	return nil
}

func emitJSON(config Config, filename string, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return emit(config, filename, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, string(jsonData))
		return err
	})
}

// writeFile stores binary output; xlsx, pdf and html always go to a file
func writeFile(config Config, filename string, data []byte) error {
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	return emit(config, filename, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
