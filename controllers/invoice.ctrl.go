package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/usdchub/usdchub/ledger"
	"github.com/usdchub/usdchub/lib/service"
)

// InvoiceController : Invoice status and listing controller struct
type InvoiceController struct {
	svc *service.InvoiceService
}

func NewInvoiceController(svc *service.InvoiceService) *InvoiceController {
	return &InvoiceController{svc: svc}
}

type InvoiceStatusResponseBody struct {
	Success           bool                   `json:"success"`
	Invoice           ledger.Invoice         `json:"invoice"`
	DaysUntilDeadline int                    `json:"days_until_deadline"`
	Onchain           *service.OnchainStatus `json:"onchain,omitempty"`
}

type ListInvoicesResponseBody struct {
	Success  bool             `json:"success"`
	Invoices []ledger.Invoice `json:"invoices"`
	Total    int              `json:"total"`
	Network  string           `json:"network"`
}

// GetInvoice returns the stored invoice plus advisory on-chain status. The
// request succeeds even when the rail is unreachable.
func (controller *InvoiceController) GetInvoice(c echo.Context) error {
	status, err := controller.svc.GetInvoiceStatus(c.Request().Context(), c.Param("invoice_id"))
	if err != nil {
		c.Logger().Errorf("Failed to fetch invoice %s: %v", c.Param("invoice_id"), err)
		return svcErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &InvoiceStatusResponseBody{
		Success:           true,
		Invoice:           status.Invoice,
		DaysUntilDeadline: status.DaysUntilDeadline,
		Onchain:           status.Onchain,
	})
}

func (controller *InvoiceController) ListInvoices(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil {
			limit = parsed
		}
	}

	invoices, total, err := controller.svc.ListInvoices(c.Request().Context(), c.QueryParam("status"), limit)
	if err != nil {
		c.Logger().Errorf("Failed to list invoices: %v", err)
		return svcErrorResponse(c, err)
	}
	if invoices == nil {
		invoices = []ledger.Invoice{}
	}

	return c.JSON(http.StatusOK, &ListInvoicesResponseBody{
		Success:  true,
		Invoices: invoices,
		Total:    total,
		Network:  controller.svc.Config.Network,
	})
}
