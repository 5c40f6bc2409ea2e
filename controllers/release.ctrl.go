package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/usdchub/usdchub/ledger"
	"github.com/usdchub/usdchub/lib/service"
)

// ReleasePaymentController : Release payment controller struct
type ReleasePaymentController struct {
	svc *service.InvoiceService
}

func NewReleasePaymentController(svc *service.InvoiceService) *ReleasePaymentController {
	return &ReleasePaymentController{svc: svc}
}

type ReleasePaymentResponseBody struct {
	Success    bool           `json:"success"`
	Invoice    ledger.Invoice `json:"invoice"`
	Settlement string         `json:"settlement"`
	Message    string         `json:"message"`
}

func (controller *ReleasePaymentController) ReleasePayment(c echo.Context) error {
	result, err := controller.svc.ReleasePayment(c.Request().Context(), c.Param("invoice_id"))
	if err != nil {
		c.Logger().Errorf("Failed to release invoice %s: %v", c.Param("invoice_id"), err)
		return svcErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &ReleasePaymentResponseBody{
		Success:    true,
		Invoice:    result.Invoice,
		Settlement: result.Settlement,
		Message:    result.Message,
	})
}
