// Package export renders valuation reports as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	appinv "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SummarySheet      = "Summary"
	TransactionsSheet = "Transactions"
)

// ContentType is the MIME type of the rendered workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ValuationWorkbook renders a valuation result into an XLSX workbook with a
// Summary sheet and a Transactions sheet
type ValuationWorkbook struct {
	currencySymbol string
	dateFormat     string
}

// NewValuationWorkbook creates a renderer. dateFormat is the Go layout used for the Open line.
func NewValuationWorkbook(currencySymbol, dateFormat string) *ValuationWorkbook {
	if dateFormat == "" {
		dateFormat = "02/01/2006"
	}
	return &ValuationWorkbook{currencySymbol: currencySymbol, dateFormat: dateFormat}
}

// Write renders the result and writes the workbook to out
func (w *ValuationWorkbook) Write(out io.Writer, result *appinv.ValuationResult) error {
	f, err := w.Render(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Render builds the workbook. The caller owns the returned file and must close it.
func (w *ValuationWorkbook) Render(result *appinv.ValuationResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	styles, err := w.newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.writeSummary(f, styles, result); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.writeTransactions(f, styles, result.Report); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

type workbookStyles struct {
	header int
	money  int
}

func (w *ValuationWorkbook) newStyles(f *excelize.File) (workbookStyles, error) {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return workbookStyles{}, fmt.Errorf("failed to create header style: %w", err)
	}
	moneyFmt := fmt.Sprintf(`"%s"#,##0.00`, w.currencySymbol)
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return workbookStyles{}, fmt.Errorf("failed to create money style: %w", err)
	}
	return workbookStyles{header: header, money: money}, nil
}

func (w *ValuationWorkbook) writeSummary(f *excelize.File, styles workbookStyles, result *appinv.ValuationResult) error {
	report := result.Report
	summary := report.Summary()
	usage := report.Usage(result.Measure)

	rows := [][]any{
		{"Item", result.ItemName},
		{"Package type", result.PackageType},
		{"Measure", result.Measure},
		{"From", report.Window.From.Format(time.RFC3339)},
		{"To", report.Window.To.Format(time.RFC3339)},
		{"Opening", summary.Opening.InexactFloat64()},
		{"In", summary.In.InexactFloat64()},
		{"Out", summary.Out.InexactFloat64()},
		{"Closing", summary.Closing.InexactFloat64()},
		{"Closing value", summary.ClosingValue.InexactFloat64()},
		{"Used", usage.Total.InexactFloat64()},
		{"Used value", usage.Value.InexactFloat64()},
	}
	for i, row := range rows {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(rows)), styles.header); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	for _, cell := range []string{"B10", "B12"} {
		if err := f.SetCellStyle(SummarySheet, cell, cell, styles.money); err != nil {
			return fmt.Errorf("failed to style summary: %w", err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 22)
}

func (w *ValuationWorkbook) writeTransactions(f *excelize.File, styles workbookStyles, report *inventory.ValuationReport) error {
	if err := setRow(f, TransactionsSheet, 1, []any{"Date", "Type", "Quantity", "Unit value"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(TransactionsSheet, "A1", "D1", styles.header); err != nil {
		return fmt.Errorf("failed to style transactions: %w", err)
	}

	lines := report.Transactions()
	for i, line := range lines {
		date := line.Time.Format(time.RFC3339)
		if line.Flow == inventory.FlowOpen {
			date = line.Time.Format(w.dateFormat)
		}
		row := []any{
			date,
			line.Flow.String(),
			line.SignedQuantity().InexactFloat64(),
			line.UnitValue.Round(2).InexactFloat64(),
		}
		if err := setRow(f, TransactionsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetCellStyle(TransactionsSheet, "D2", fmt.Sprintf("D%d", len(lines)+1), styles.money); err != nil {
		return fmt.Errorf("failed to style transactions: %w", err)
	}
	return f.SetColWidth(TransactionsSheet, "A", "A", 26)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
