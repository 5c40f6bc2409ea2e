package transport

import (
	"github.com/labstack/echo/v4"
	"github.com/usdchub/usdchub/controllers"
	"github.com/usdchub/usdchub/lib/service"
)

func RegisterEndpoints(svc *service.InvoiceService, e *echo.Echo, strictRateLimitMiddleware echo.MiddlewareFunc, logMw echo.MiddlewareFunc) {
	invoiceCtrl := controllers.NewInvoiceController(svc)

	e.POST("/invoices", controllers.NewCreateInvoiceController(svc).CreateInvoice, strictRateLimitMiddleware, logMw)
	e.GET("/invoices", invoiceCtrl.ListInvoices, logMw)
	e.GET("/invoices/:invoice_id", invoiceCtrl.GetInvoice, logMw)
	// release moves funds, so it shares the strict limit with create
	e.POST("/invoices/:invoice_id/release", controllers.NewReleasePaymentController(svc).ReleasePayment, strictRateLimitMiddleware, logMw)
	e.POST("/invoices/:invoice_id/verify", controllers.NewVerifyWorkController(svc).VerifyWork, logMw)
	e.POST("/invoices/:invoice_id/remind", controllers.NewReminderController(svc).AddReminder, logMw)
	e.GET("/balance", controllers.NewBalanceController(svc).Balance, logMw)
	e.GET("/getinfo", controllers.NewGetInfoController(svc).GetInfo, logMw)
}
