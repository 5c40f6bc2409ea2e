package service

import (
	"context"
	"time"

	"github.com/usdchub/usdchub/ledger"
	"github.com/usdchub/usdchub/rabbitmq"
	"github.com/usdchub/usdchub/rail"
	"github.com/ziflex/lecho/v3"
)

type InvoiceService struct {
	Config         *Config
	Store          *ledger.Store
	RailClient     rail.SettlementClientWrapper
	Logger         *lecho.Logger
	InvoicePubSub  *Pubsub
	RabbitMQClient rabbitmq.Client
}

// railContext caps every settlement rail call. The rail applies no timeout
// of its own, so an unresponsive RPC endpoint would otherwise hang the
// request forever.
func (svc *InvoiceService) railContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(svc.Config.RailTimeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (svc *InvoiceService) publishInvoiceEvent(invoice ledger.Invoice) {
	if svc.InvoicePubSub != nil {
		svc.InvoicePubSub.Publish(invoice.Status, invoice)
		svc.InvoicePubSub.Publish(TopicAllInvoices, invoice)
	}
}
