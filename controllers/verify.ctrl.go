package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/usdchub/usdchub/ledger"
	"github.com/usdchub/usdchub/lib/service"
)

// VerifyWorkController : Verify work controller struct
type VerifyWorkController struct {
	svc *service.InvoiceService
}

func NewVerifyWorkController(svc *service.InvoiceService) *VerifyWorkController {
	return &VerifyWorkController{svc: svc}
}

type VerifyWorkResponseBody struct {
	Success bool           `json:"success"`
	Invoice ledger.Invoice `json:"invoice"`
	Message string         `json:"message"`
}

func (controller *VerifyWorkController) VerifyWork(c echo.Context) error {
	invoice, err := controller.svc.VerifyWork(c.Request().Context(), c.Param("invoice_id"))
	if err != nil {
		c.Logger().Errorf("Failed to verify invoice %s: %v", c.Param("invoice_id"), err)
		return svcErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &VerifyWorkResponseBody{
		Success: true,
		Invoice: *invoice,
		Message: "Work verified. Payment ready for release.",
	})
}
