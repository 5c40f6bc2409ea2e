package service

import (
	"context"

	"github.com/usdchub/usdchub/common"
	"github.com/usdchub/usdchub/ledger"
)

// OnchainStatus is advisory information attached to status responses. The
// local ledger stays authoritative for business state: nothing the rail
// reports here is ever written back to the stored invoice.
type OnchainStatus struct {
	Status        string `json:"status"`
	Contract      string `json:"contract,omitempty"`
	Explorer      string `json:"explorer,omitempty"`
	BlockNumber   uint64 `json:"blockNumber,omitempty"`
	Confirmations uint64 `json:"confirmations,omitempty"`
}

// OnchainStatusFor looks up the live rail status for an invoice that carries
// rail linkage. Returns nil when the invoice never touched the rail. A rail
// lookup failure degrades to status "pending" instead of failing the query;
// a flaky rail must not break read-only requests.
func (svc *InvoiceService) OnchainStatusFor(ctx context.Context, invoice *ledger.Invoice) *OnchainStatus {
	if invoice.TxHash == "" && invoice.EscrowID == "" {
		return nil
	}

	result := &OnchainStatus{Status: common.EscrowStatePending}
	cfg, err := svc.RailClient.GetNetworkConfig(invoice.Network)
	if err == nil {
		result.Contract = cfg.TokenAddress
		if invoice.TxHash != "" {
			result.Explorer = cfg.Explorer + "/tx/" + invoice.TxHash
		}
	}
	if invoice.TxHash == "" {
		return result
	}

	railCtx, cancel := svc.railContext(ctx)
	defer cancel()
	status, err := svc.RailClient.GetTxStatus(railCtx, invoice.TxHash, invoice.Network)
	if err != nil {
		svc.Logger.Warnf("Rail status lookup failed for invoice %s (tx %s): %v", invoice.ID, invoice.TxHash, err)
		return result
	}

	result.Status = status.Status
	result.BlockNumber = status.BlockNumber
	result.Confirmations = status.Confirmations
	return result
}
