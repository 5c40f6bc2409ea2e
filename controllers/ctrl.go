package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/usdchub/usdchub/lib/responses"
	"github.com/usdchub/usdchub/lib/service"
)

// svcErrorResponse maps engine errors to the response taxonomy. Anything
// that is not a business error is a storage problem by elimination: rail
// failures never cross the engine boundary as errors.
func svcErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidParams):
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	case errors.Is(err, service.ErrInvoiceNotFound):
		return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
	case errors.Is(err, service.ErrInvalidState):
		return c.JSON(http.StatusBadRequest, responses.InvalidStateError)
	default:
		return c.JSON(http.StatusInternalServerError, responses.StorageUnavailableError)
	}
}
