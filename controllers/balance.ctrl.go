package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/usdchub/usdchub/lib/service"
	"github.com/usdchub/usdchub/rail"
)

// BalanceController : Balance controller struct
type BalanceController struct {
	svc *service.InvoiceService
}

func NewBalanceController(svc *service.InvoiceService) *BalanceController {
	return &BalanceController{svc: svc}
}

type BalanceResponseBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	*rail.BalanceResponse
}

// Balance is a rail pass-through. A rail failure degrades the response
// (success=false) rather than failing the request: balance is advisory and
// the rail being down is normal operation here.
func (controller *BalanceController) Balance(c echo.Context) error {
	address := c.QueryParam("address")
	if address == "" {
		address = controller.svc.Config.AgentAddress
	}

	balance, err := controller.svc.GetBalance(c.Request().Context(), address)
	if err != nil {
		c.Logger().Warnf("Balance lookup failed for %s: %v", address, err)
		return c.JSON(http.StatusOK, &BalanceResponseBody{
			Success: false,
			Error:   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, &BalanceResponseBody{
		Success:         true,
		BalanceResponse: balance,
	})
}
