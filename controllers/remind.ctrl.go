package controllers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/usdchub/usdchub/lib/service"
)

// ReminderController : Payment reminder controller struct
type ReminderController struct {
	svc *service.InvoiceService
}

func NewReminderController(svc *service.InvoiceService) *ReminderController {
	return &ReminderController{svc: svc}
}

type ReminderResponseBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (controller *ReminderController) AddReminder(c echo.Context) error {
	invoice, err := controller.svc.AddReminder(c.Request().Context(), c.Param("invoice_id"))
	if err != nil {
		c.Logger().Errorf("Failed to add reminder for invoice %s: %v", c.Param("invoice_id"), err)
		return svcErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &ReminderResponseBody{
		Success: true,
		Message: fmt.Sprintf("Reminder sent to %s for invoice %s", invoice.To, invoice.ID),
	})
}
