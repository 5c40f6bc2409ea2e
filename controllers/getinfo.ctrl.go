package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/usdchub/usdchub/lib/responses"
	"github.com/usdchub/usdchub/lib/service"
	"github.com/usdchub/usdchub/rail"
)

// GetInfoController : Network info controller struct
type GetInfoController struct {
	svc *service.InvoiceService
}

func NewGetInfoController(svc *service.InvoiceService) *GetInfoController {
	return &GetInfoController{svc: svc}
}

type GetInfoResponseBody struct {
	Success bool   `json:"success"`
	Network string `json:"network"`
	*rail.NetworkConfig
}

func (controller *GetInfoController) GetInfo(c echo.Context) error {
	network := c.QueryParam("network")
	if network == "" {
		network = controller.svc.Config.Network
	}

	cfg, err := controller.svc.RailClient.GetNetworkConfig(network)
	if err != nil {
		c.Logger().Errorf("Unknown network %s: %v", network, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	return c.JSON(http.StatusOK, &GetInfoResponseBody{
		Success:       true,
		Network:       network,
		NetworkConfig: cfg,
	})
}
