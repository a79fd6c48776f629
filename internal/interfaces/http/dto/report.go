package dto

import (
	"time"

	"github.com/shopspring/decimal"
	appinv "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/inventory"
)

// DefaultCurrencySymbol prefixes rendered report values
const DefaultCurrencySymbol = "RM"

// DefaultOpenDateFormat formats the date of the Open line (day/month/year)
const DefaultOpenDateFormat = "02/01/2006"

// ReportSummary is the rounded summary of a valuation window
type ReportSummary struct {
	Opening      int64   `json:"opening"`
	In           int64   `json:"in"`
	Out          int64   `json:"out"`
	Closing      int64   `json:"closing"`
	ClosingValue float64 `json:"closingValue"`
}

// ReportTransaction is one rendered report line.
// Qty is a number for the Open line and a signed string ("+10", "-4") otherwise.
type ReportTransaction struct {
	Time  string `json:"time"`
	Flow  string `json:"flow"`
	Qty   any    `json:"qty"`
	Value string `json:"value"`
}

// ReportUsage is the rounded consumption over the window
type ReportUsage struct {
	Total   int64   `json:"total"`
	Value   float64 `json:"value"`
	Measure string  `json:"measure"`
}

// ValuationReportResponse is the body of GET /transactions
type ValuationReportResponse struct {
	Item         ReportItem          `json:"item"`
	Summary      ReportSummary       `json:"summary"`
	Transactions []ReportTransaction `json:"transactions"`
	Usage        ReportUsage         `json:"usage"`
}

// ReportItem identifies the reported item
type ReportItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PackageType string `json:"package_type"`
	Measure     string `json:"measure"`
}

// ReportRenderer turns numeric valuation results into their display form
type ReportRenderer struct {
	currencySymbol string
	openDateFormat string
}

// NewReportRenderer creates a renderer; empty arguments select the defaults
func NewReportRenderer(currencySymbol, openDateFormat string) *ReportRenderer {
	if currencySymbol == "" {
		currencySymbol = DefaultCurrencySymbol
	}
	if openDateFormat == "" {
		openDateFormat = DefaultOpenDateFormat
	}
	return &ReportRenderer{currencySymbol: currencySymbol, openDateFormat: openDateFormat}
}

// Render converts a valuation result to its response body
func (r *ReportRenderer) Render(result *appinv.ValuationResult) ValuationReportResponse {
	report := result.Report
	summary := report.Summary()
	usage := report.Usage(result.Measure)

	lines := report.Transactions()
	txs := make([]ReportTransaction, 0, len(lines))
	for _, line := range lines {
		txs = append(txs, r.renderLine(line))
	}

	return ValuationReportResponse{
		Item: ReportItem{
			ID:          result.ItemID.String(),
			Name:        result.ItemName,
			PackageType: result.PackageType,
			Measure:     result.Measure,
		},
		Summary: ReportSummary{
			Opening:      summary.Opening.IntPart(),
			In:           summary.In.IntPart(),
			Out:          summary.Out.IntPart(),
			Closing:      summary.Closing.IntPart(),
			ClosingValue: summary.ClosingValue.InexactFloat64(),
		},
		Transactions: txs,
		Usage: ReportUsage{
			Total:   usage.Total.IntPart(),
			Value:   usage.Value.InexactFloat64(),
			Measure: usage.Measure,
		},
	}
}

func (r *ReportRenderer) renderLine(line inventory.ReportLine) ReportTransaction {
	tx := ReportTransaction{
		Flow:  string(line.Flow),
		Value: r.Money(line.UnitValue),
	}
	qty := line.Quantity.Round(0)
	switch line.Flow {
	case inventory.FlowOpen:
		tx.Time = line.Time.Format(r.openDateFormat)
		tx.Qty = qty.IntPart()
	case inventory.FlowOut:
		tx.Time = line.Time.UTC().Format(time.RFC3339)
		tx.Qty = "-" + qty.String()
	default:
		tx.Time = line.Time.UTC().Format(time.RFC3339)
		tx.Qty = "+" + qty.String()
	}
	return tx
}

// Money renders v with the currency symbol and two decimals, e.g. "RM2.17"
func (r *ReportRenderer) Money(v decimal.Decimal) string {
	return r.currencySymbol + v.StringFixed(2)
}
