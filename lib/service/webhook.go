package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/usdchub/usdchub/common"
	"github.com/usdchub/usdchub/ledger"
)

// TopicAllInvoices receives every lifecycle event, next to the per-status
// topics.
const TopicAllInvoices = "all"

// StartWebhookSubscription posts every paid invoice to the configured
// webhook URL until the context is cancelled.
func (svc *InvoiceService) StartWebhookSubscription(ctx context.Context, url string) {
	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	paidInvoices := make(chan ledger.Invoice)
	subID, err := svc.InvoicePubSub.Subscribe(common.InvoiceStatusPaid, paidInvoices)
	if err != nil {
		svc.Logger.Errorf("Failed to subscribe to paid invoices: %v", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			svc.InvoicePubSub.Unsubscribe(subID, common.InvoiceStatusPaid)
			return
		case invoice := <-paidInvoices:
			svc.postToWebhook(invoice, url)
		}
	}
}

func (svc *InvoiceService) postToWebhook(invoice ledger.Invoice, url string) {
	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(invoice)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	resp, err := http.Post(url, "application/json", payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}

// SubscribeInvoiceEvents exposes the lifecycle event stream in the shape the
// rabbitmq publisher consumes.
func (svc *InvoiceService) SubscribeInvoiceEvents() (chan ledger.Invoice, func(), error) {
	invoices := make(chan ledger.Invoice)
	subID, err := svc.InvoicePubSub.Subscribe(TopicAllInvoices, invoices)
	if err != nil {
		return nil, nil, err
	}
	return invoices, func() {
		svc.InvoicePubSub.Unsubscribe(subID, TopicAllInvoices)
	}, nil
}
