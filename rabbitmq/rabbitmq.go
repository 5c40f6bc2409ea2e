package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/usdchub/usdchub/ledger"
	"github.com/ziflex/lecho/v3"
)

// bufPool reuses encode buffers across publishes instead of allocating a new
// one per invoice event.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const contentTypeJSON = "application/json"

// SubscribeToInvoicesFunc hands the publisher a stream of invoice lifecycle
// events plus a function to tear the subscription down.
type SubscribeToInvoicesFunc = func() (invoices chan ledger.Invoice, unsubscribe func(), err error)

type Client interface {
	StartPublishInvoices(ctx context.Context, subscribe SubscribeToInvoicesFunc) error
	// Close will close all connections to rabbitmq
	Close() error
}

type DefaultClient struct {
	conn           *amqp.Connection
	publishChannel *amqp.Channel

	logger *lecho.Logger

	invoiceExchange string
}

type ClientOption = func(client *DefaultClient)

func WithInvoiceExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.invoiceExchange = exchange
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

func DialAMQP(uri string) (*amqp.Connection, error) {
	return amqp.Dial(uri)
}

func NewClient(conn *amqp.Connection, options ...ClientOption) (Client, error) {
	client := &DefaultClient{
		conn:            conn,
		invoiceExchange: "usdchub_invoice",
	}
	for _, opt := range options {
		opt(client)
	}

	publishChannel, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = publishChannel.ExchangeDeclare(
		client.invoiceExchange,
		// topic exchange so consumers can filter by invoice status
		"topic",
		// durable
		true,
		// auto-deleted
		false,
		// internal
		false,
		// no-wait
		false,
		// arguments
		nil,
	)
	if err != nil {
		return nil, err
	}
	client.publishChannel = publishChannel
	return client, nil
}

func (client *DefaultClient) Close() error {
	return client.conn.Close()
}

// StartPublishInvoices publishes every invoice lifecycle event to the
// invoice exchange with routing key "invoice.<status>" until the context is
// cancelled.
func (client *DefaultClient) StartPublishInvoices(ctx context.Context, subscribe SubscribeToInvoicesFunc) error {
	invoices, unsubscribe, err := subscribe()
	if err != nil {
		return err
	}
	defer unsubscribe()

	client.logger.Infof("Starting rabbitmq invoice publisher on exchange %s", client.invoiceExchange)
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case invoice := <-invoices:
			if err := client.publishInvoice(ctx, invoice); err != nil {
				client.logger.Errorf("Failed to publish invoice %s: %v", invoice.ID, err)
			}
		}
	}
}

func (client *DefaultClient) publishInvoice(ctx context.Context, invoice ledger.Invoice) error {
	payload := bufPool.Get().(*bytes.Buffer)
	payload.Reset()
	defer bufPool.Put(payload)

	if err := json.NewEncoder(payload).Encode(invoice); err != nil {
		return err
	}
	key := fmt.Sprintf("invoice.%s", invoice.Status)

	// Broker hiccups are retried with capped exponential backoff; the
	// event is dropped (and logged by the caller) once retries are exhausted.
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(func() error {
		return client.publishChannel.PublishWithContext(ctx,
			client.invoiceExchange,
			key,
			// mandatory
			false,
			// immediate
			false,
			amqp.Publishing{
				ContentType: contentTypeJSON,
				Body:        payload.Bytes(),
			},
		)
	}, backoff.WithContext(policy, ctx))
}
