package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
)

// ValuationService produces valuation reports
type ValuationService interface {
	Valuate(ctx context.Context, req inventoryapp.ValuationRequest) (*inventoryapp.ValuationResult, error)
}

// WorkbookWriter renders a valuation result as a spreadsheet
type WorkbookWriter interface {
	Write(w io.Writer, result *inventoryapp.ValuationResult) error
}

// TransactionHandler serves the valuation report as JSON and as a workbook
type TransactionHandler struct {
	BaseHandler
	valuation   ValuationService
	renderer    *dto.ReportRenderer
	workbook    WorkbookWriter
	contentType string
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(
	valuation ValuationService,
	renderer *dto.ReportRenderer,
	workbook WorkbookWriter,
	contentType string,
) *TransactionHandler {
	if renderer == nil {
		renderer = dto.NewReportRenderer("", "")
	}
	return &TransactionHandler{
		valuation:   valuation,
		renderer:    renderer,
		workbook:    workbook,
		contentType: contentType,
	}
}

// ValuationQuery is the query shared by the report endpoints
type ValuationQuery struct {
	ItemID   string `form:"item_id"`
	UserID   string `form:"user_id"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
}

// Report returns the valuation of an item over [from_date, to_date]
func (h *TransactionHandler) Report(c *gin.Context) {
	result, ok := h.valuate(c)
	if !ok {
		return
	}
	h.Success(c, h.renderer.Render(result))
}

// Export returns the valuation report as an XLSX download
func (h *TransactionHandler) Export(c *gin.Context) {
	if h.workbook == nil {
		c.JSON(http.StatusNotImplemented, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal, "Export is not available", middleware.GetRequestID(c)))
		return
	}
	result, ok := h.valuate(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.workbook.Write(&buf, result); err != nil {
		h.HandleError(c, fmt.Errorf("failed to render workbook: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(result)))
	c.Data(http.StatusOK, h.contentType, buf.Bytes())
}

func (h *TransactionHandler) valuate(c *gin.Context) (*inventoryapp.ValuationResult, bool) {
	var q ValuationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return nil, false
	}

	req := inventoryapp.ValuationRequest{}
	var err error
	if req.ItemID, err = parseUUID(q.ItemID, "item_id"); err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	if req.UserID, err = parseUUID(q.UserID, "user_id"); err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	if req.From, err = parseDate(q.FromDate, "from_date", false); err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	if req.To, err = parseDate(q.ToDate, "to_date", true); err != nil {
		h.HandleError(c, err)
		return nil, false
	}

	result, err := h.valuation.Valuate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return result, true
}

// exportFilename builds a download name such as "cabbage_2024-02-01_2024-02-29.xlsx"
func exportFilename(result *inventoryapp.ValuationResult) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, strings.TrimSpace(result.ItemName))
	if name == "" {
		name = "item"
	}
	window := result.Report.Window
	return fmt.Sprintf("%s_%s_%s.xlsx", name, window.From.Format(dateOnly), window.To.Format(dateOnly))
}
