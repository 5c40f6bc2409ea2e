package integration_tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/usdchub/usdchub/controllers"
	"github.com/usdchub/usdchub/ledger"
	"github.com/usdchub/usdchub/lib"
	"github.com/usdchub/usdchub/lib/responses"
	"github.com/usdchub/usdchub/lib/service"
	"github.com/usdchub/usdchub/lib/transport"
	"github.com/usdchub/usdchub/rail"
)

func InvoiceHubTestServiceInit(railClient rail.SettlementClientWrapper) *service.InvoiceService {
	c := &service.Config{
		Network:              rail.NetworkBaseSepolia,
		AgentAddress:         "0x1111111111111111111111111111111111111111",
		RailTimeout:          2,
		DefaultDeadlineHours: 24,
		DefaultListLimit:     20,
	}

	return &service.InvoiceService{
		Config:        c,
		Store:         ledger.NewStore(ledger.NewMemoryStorage()),
		RailClient:    railClient,
		Logger:        lib.Logger(c.LogFilePath),
		InvoicePubSub: service.NewPubsub(),
	}
}

func NewMockRail() *rail.MockClient {
	c := &rail.Config{
		BaseSepoliaRPC:     "https://sepolia.base.org",
		ArbitrumSepoliaRPC: "https://sepolia.arbitrum.org/rpc",
	}
	return rail.NewMockClient(c.NetworkConfigs())
}

type TestSuite struct {
	suite.Suite
	echo *echo.Echo
}

// noopMw stands in for the rate limit and logging middleware, which are not
// under test here.
func noopMw(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}

func (suite *TestSuite) setupEcho(svc *service.InvoiceService) {
	e := echo.New()
	e.HTTPErrorHandler = responses.HTTPErrorHandler
	e.Validator = &lib.CustomValidator{Validator: validator.New()}
	transport.RegisterEndpoints(svc, e, noopMw, noopMw)
	suite.echo = e
}

func checkErrResponse(suite *TestSuite, rec *httptest.ResponseRecorder, httpStatusCode int) *responses.ErrorResponse {
	errorResponse := &responses.ErrorResponse{}
	assert.Equal(suite.T(), httpStatusCode, rec.Code)
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(errorResponse))
	assert.True(suite.T(), errorResponse.Error)
	return errorResponse
}

func (suite *TestSuite) createInvoiceReq(body *controllers.CreateInvoiceRequestBody) *controllers.CreateInvoiceResponseBody {
	rec := httptest.NewRecorder()
	var buf bytes.Buffer
	assert.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/invoices", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	suite.echo.ServeHTTP(rec, req)
	invoiceResponse := &controllers.CreateInvoiceResponseBody{}
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(invoiceResponse))
	return invoiceResponse
}

func (suite *TestSuite) createInvoiceReqError(body *controllers.CreateInvoiceRequestBody) *responses.ErrorResponse {
	rec := httptest.NewRecorder()
	var buf bytes.Buffer
	assert.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/invoices", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	suite.echo.ServeHTTP(rec, req)
	return checkErrResponse(suite, rec, http.StatusBadRequest)
}

func (suite *TestSuite) getInvoiceReq(invoiceID string) *controllers.InvoiceStatusResponseBody {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/"+invoiceID, nil)
	suite.echo.ServeHTTP(rec, req)
	statusResponse := &controllers.InvoiceStatusResponseBody{}
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(statusResponse))
	return statusResponse
}

func (suite *TestSuite) postInvoiceAction(invoiceID, action string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/"+invoiceID+"/"+action, nil)
	suite.echo.ServeHTTP(rec, req)
	return rec
}

func (suite *TestSuite) listInvoicesReq(query string) *controllers.ListInvoicesResponseBody {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices"+query, nil)
	suite.echo.ServeHTTP(rec, req)
	listResponse := &controllers.ListInvoicesResponseBody{}
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(listResponse))
	return listResponse
}
