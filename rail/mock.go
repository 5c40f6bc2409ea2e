package rail

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// MockClient is a deterministic in-process settlement rail. It backs local
// development (RAIL_CLIENT_TYPE=mock) and the test suite. Error fields make
// individual capabilities fail on demand; Delay simulates a hanging rail so
// callers can exercise their timeouts.
type MockClient struct {
	networks map[string]*NetworkConfig

	BalanceErr error
	HoldErr    error
	ReleaseErr error
	StatusErr  error
	Delay      time.Duration

	mu       sync.Mutex
	holds    int
	releases int
}

func NewMockClient(networks map[string]*NetworkConfig) *MockClient {
	return &MockClient{networks: networks}
}

func (c *MockClient) wait(ctx context.Context) error {
	if c.Delay == 0 {
		return nil
	}
	select {
	case <-time.After(c.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *MockClient) GetNetworkConfig(network string) (*NetworkConfig, error) {
	cfg, ok := c.networks[network]
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", network)
	}
	return cfg, nil
}

func (c *MockClient) GetBalance(ctx context.Context, address, network string) (*BalanceResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.BalanceErr != nil {
		return nil, c.BalanceErr
	}
	cfg, err := c.GetNetworkConfig(network)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		Address:   address,
		Network:   network,
		Balance:   "100000000",
		Formatted: "100.00 USDC",
		Contract:  cfg.TokenAddress,
	}, nil
}

func (c *MockClient) EscrowHold(ctx context.Context, invoiceID, from, to string, amount float64, network string) (*EscrowHoldResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.HoldErr != nil {
		return nil, c.HoldErr
	}
	c.mu.Lock()
	c.holds++
	c.mu.Unlock()
	return &EscrowHoldResponse{
		EscrowID: mockHash("escrow:" + invoiceID),
		TxHash:   mockHash("hold:" + invoiceID),
	}, nil
}

func (c *MockClient) EscrowRelease(ctx context.Context, escrowID, network string) (*EscrowReleaseResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.ReleaseErr != nil {
		return nil, c.ReleaseErr
	}
	c.mu.Lock()
	c.releases++
	c.mu.Unlock()
	return &EscrowReleaseResponse{
		TxHash: mockHash("release:" + escrowID),
		Status: "released",
	}, nil
}

func (c *MockClient) GetTxStatus(ctx context.Context, txHash, network string) (*TxStatusResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	return &TxStatusResponse{
		TxHash:        txHash,
		Status:        "confirmed",
		BlockNumber:   4242,
		Confirmations: 6,
	}, nil
}

// Holds reports how many escrow holds the mock acknowledged.
func (c *MockClient) Holds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holds
}

// Releases reports how many escrow releases the mock acknowledged.
func (c *MockClient) Releases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releases
}

func mockHash(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return "0x" + hex.EncodeToString(sum[:])
}
