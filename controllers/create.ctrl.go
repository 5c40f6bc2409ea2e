package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/usdchub/usdchub/ledger"
	"github.com/usdchub/usdchub/lib/responses"
	"github.com/usdchub/usdchub/lib/service"
)

// CreateInvoiceController : Create invoice controller struct
type CreateInvoiceController struct {
	svc *service.InvoiceService
}

func NewCreateInvoiceController(svc *service.InvoiceService) *CreateInvoiceController {
	return &CreateInvoiceController{svc: svc}
}

type CreateInvoiceRequestBody struct {
	From          string  `json:"from" validate:"required"`
	To            string  `json:"to" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Description   string  `json:"description" validate:"required"`
	Escrow        bool    `json:"escrow"`
	DeadlineHours int     `json:"deadline_hours" validate:"gte=0"`
}

type CreateInvoiceResponseBody struct {
	Success      bool           `json:"success"`
	Invoice      ledger.Invoice `json:"invoice"`
	Network      string         `json:"network"`
	UsdcContract string         `json:"usdcContract,omitempty"`
}

func (controller *CreateInvoiceController) CreateInvoice(c echo.Context) error {
	var body CreateInvoiceRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load create invoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid create invoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	invoice, err := controller.svc.CreateInvoice(c.Request().Context(), service.CreateInvoiceParams{
		From:          body.From,
		To:            body.To,
		Amount:        body.Amount,
		Description:   body.Description,
		Escrow:        body.Escrow,
		DeadlineHours: body.DeadlineHours,
	})
	if err != nil {
		c.Logger().Errorf("Failed to create invoice: %v", err)
		return svcErrorResponse(c, err)
	}

	response := CreateInvoiceResponseBody{
		Success: true,
		Invoice: *invoice,
		Network: invoice.Network,
	}
	if cfg, err := controller.svc.RailClient.GetNetworkConfig(invoice.Network); err == nil {
		response.UsdcContract = cfg.TokenAddress
	}
	return c.JSON(http.StatusOK, &response)
}
