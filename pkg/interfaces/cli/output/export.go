package output

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/zevledger/pkg/application/dto"
	"github.com/vsinha/zevledger/pkg/domain/entities"
)

var recordColumns = []string{"Type", "Vehicle Class", "ZEV Class", "Model Year", "Units"}

// BuildAssessmentPDF renders a printable model year report.
func BuildAssessmentPDF(a *dto.Assessment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "ZEV Model Year Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{
		fmt.Sprintf("Organization: %s", a.OrganizationID),
		fmt.Sprintf("Model Year: %s", a.ModelYear),
		fmt.Sprintf("Supplier Class: %s", a.SupplierClass),
		fmt.Sprintf("Compliant: %t", a.Compliant),
		fmt.Sprintf("Penalty: %s", a.Penalty.StringFixed(2)),
		fmt.Sprintf("Generated: %s", a.ComputedAt.Format(time.RFC3339)),
	} {
		pdf.Cell(0, 6, line)
		pdf.Ln(5)
	}

	pdfRecords(pdf, "Ending Balance", a.EndingBalance)
	pdfRecords(pdf, "Credits Offset", a.OffsetCredits)

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Compliance Reductions")
	pdf.Ln(6)
	for _, header := range []string{"ZEV Class", "Ratio", "Volume", "Units"} {
		pdf.CellFormat(40, 6, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, r := range a.Reductions {
		pdf.CellFormat(40, 6, r.ZevClass.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, r.ComplianceRatio.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, r.NV.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, r.Units.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfRecords(pdf *gofpdf.Fpdf, title string, records []entities.LedgerRecord) {
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, title)
	pdf.Ln(6)
	for _, header := range recordColumns {
		pdf.CellFormat(34, 6, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, r := range records {
		pdf.CellFormat(34, 6, r.Kind.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(34, 6, r.VehicleClass.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(34, 6, r.ZevClass.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(34, 6, r.ModelYear.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(34, 6, r.Units.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

// BuildAssessmentXLSX renders a model year report as a workbook with a
// summary sheet and one sheet per record list.
func BuildAssessmentXLSX(a *dto.Assessment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	summary := [][2]interface{}{
		{"Organization", a.OrganizationID},
		{"Model Year", a.ModelYear.String()},
		{"Supplier Class", a.SupplierClass.String()},
		{"Compliant", a.Compliant},
		{"Penalty", a.Penalty.InexactFloat64()},
		{"Generated", a.ComputedAt.Format(time.RFC3339)},
	}
	_ = f.SetCellValue(summarySheet, "A1", "ZEV Model Year Report")
	for i, row := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+3), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+3), row[1])
	}

	sheets := []struct {
		name    string
		records []entities.LedgerRecord
	}{
		{"prior_balance", a.PriorBalance},
		{"transactions", a.Transactions},
		{"offset_credits", a.OffsetCredits},
		{"ending_balance", a.EndingBalance},
	}
	for _, sheet := range sheets {
		if err := xlsxRecords(f, sheet.name, sheet.records); err != nil {
			return nil, err
		}
	}

	reductions := "reductions"
	if _, err := f.NewSheet(reductions); err != nil {
		return nil, err
	}
	for i, header := range []string{"Vehicle Class", "ZEV Class", "Model Year", "Ratio", "Volume", "Units"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reductions, cell, header)
	}
	for i, r := range a.Reductions {
		row := i + 2
		_ = f.SetCellValue(reductions, fmt.Sprintf("A%d", row), r.VehicleClass.String())
		_ = f.SetCellValue(reductions, fmt.Sprintf("B%d", row), r.ZevClass.String())
		_ = f.SetCellValue(reductions, fmt.Sprintf("C%d", row), r.ModelYear.String())
		_ = f.SetCellValue(reductions, fmt.Sprintf("D%d", row), r.ComplianceRatio.InexactFloat64())
		_ = f.SetCellValue(reductions, fmt.Sprintf("E%d", row), r.NV.InexactFloat64())
		_ = f.SetCellValue(reductions, fmt.Sprintf("F%d", row), r.Units.InexactFloat64())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildBalanceXLSX renders a balance report as a single sheet
func BuildBalanceXLSX(report *dto.BalanceReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "balance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if report.Balance.Deficit {
		_ = f.SetCellValue(sheet, "A1", "deficit")
	} else {
		writeRecordRows(f, sheet, report.Balance.Records)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxRecords(f *excelize.File, sheet string, records []entities.LedgerRecord) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeRecordRows(f, sheet, records)
	return nil
}

func writeRecordRows(f *excelize.File, sheet string, records []entities.LedgerRecord) {
	for i, header := range recordColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for i, r := range records {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Kind.String())
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.VehicleClass.String())
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.ZevClass.String())
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.ModelYear.String())
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.Units.InexactFloat64())
	}
}
