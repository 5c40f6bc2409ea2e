package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/usdchub/usdchub/common"
	"github.com/usdchub/usdchub/controllers"
	"github.com/usdchub/usdchub/ledger"
	"github.com/usdchub/usdchub/lib/service"
	"github.com/usdchub/usdchub/rabbitmq"
	"github.com/usdchub/usdchub/rail"
)

const testInvoiceExchange = "test_usdchub_invoice"

// RabbitMQTestSuite needs a reachable broker and is skipped unless
// RABBITMQ_URI is set.
type RabbitMQTestSuite struct {
	TestSuite
	service         *service.InvoiceService
	mockRail        *rail.MockClient
	rabbitmqUri     string
	publisherCancel context.CancelFunc
}

func (suite *RabbitMQTestSuite) SetupSuite() {
	uri, ok := os.LookupEnv("RABBITMQ_URI")
	if !ok {
		suite.T().Skip("RABBITMQ_URI not set, skipping rabbitmq integration tests")
	}
	suite.rabbitmqUri = uri

	suite.mockRail = NewMockRail()
	svc := InvoiceHubTestServiceInit(suite.mockRail)

	conn, err := rabbitmq.DialAMQP(uri)
	assert.NoError(suite.T(), err)
	client, err := rabbitmq.NewClient(conn,
		rabbitmq.WithLogger(svc.Logger),
		rabbitmq.WithInvoiceExchange(testInvoiceExchange),
	)
	assert.NoError(suite.T(), err)
	svc.RabbitMQClient = client

	suite.service = svc
	suite.setupEcho(svc)

	ctx, cancel := context.WithCancel(context.Background())
	suite.publisherCancel = cancel
	go func() {
		err := svc.RabbitMQClient.StartPublishInvoices(ctx, svc.SubscribeInvoiceEvents)
		assert.ErrorIs(suite.T(), err, context.Canceled)
	}()
	// give the publisher a moment to subscribe before the first event
	time.Sleep(100 * time.Millisecond)
}

func (suite *RabbitMQTestSuite) TearDownSuite() {
	if suite.publisherCancel != nil {
		suite.publisherCancel()
	}
	if suite.service != nil && suite.service.RabbitMQClient != nil {
		suite.service.RabbitMQClient.Close()
	}
}

func (suite *RabbitMQTestSuite) TestPublishInvoiceEvents() {
	conn, err := amqp.Dial(suite.rabbitmqUri)
	assert.NoError(suite.T(), err)
	defer conn.Close()

	ch, err := conn.Channel()
	assert.NoError(suite.T(), err)
	defer ch.Close()

	q, err := ch.QueueDeclare("test_usdchub_paid", true, false, false, false, nil)
	assert.NoError(suite.T(), err)
	err = ch.QueueBind(q.Name, "invoice.paid", testInvoiceExchange, false, nil)
	assert.NoError(suite.T(), err)

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	assert.NoError(suite.T(), err)

	created := suite.createInvoiceReq(&controllers.CreateInvoiceRequestBody{
		From:        "agent-alpha",
		To:          "agent-beta",
		Amount:      42,
		Description: "rabbitmq delivery",
		Escrow:      true,
	})
	rec := suite.postInvoiceAction(created.Invoice.ID, "release")
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	select {
	case msg := <-msgs:
		var invoice ledger.Invoice
		err = json.NewDecoder(bytes.NewReader(msg.Body)).Decode(&invoice)
		assert.NoError(suite.T(), err)
		assert.Equal(suite.T(), created.Invoice.ID, invoice.ID)
		assert.Equal(suite.T(), common.InvoiceStatusPaid, invoice.Status)
	case <-time.After(10 * time.Second):
		suite.T().Fatal("timeout waiting for rabbitmq message")
	}
}

func TestRabbitMQSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQTestSuite))
}
