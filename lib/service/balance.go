package service

import (
	"context"
	"fmt"

	"github.com/usdchub/usdchub/rail"
)

// GetBalance queries the rail for the USDC balance of an address on the
// configured network. Unlike the lifecycle operations this is a plain
// pass-through: the caller decides how to degrade on failure.
func (svc *InvoiceService) GetBalance(ctx context.Context, address string) (*rail.BalanceResponse, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: no address given and AGENT_ADDRESS not set", ErrInvalidParams)
	}
	railCtx, cancel := svc.railContext(ctx)
	defer cancel()
	return svc.RailClient.GetBalance(railCtx, address, svc.Config.Network)
}
