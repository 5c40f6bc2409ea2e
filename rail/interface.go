package rail

// The settlement rail is an external, asynchronous and failure-prone
// dependency. Every operation can fail or hang; callers own their timeouts
// and must treat a failure as "unconfirmed", never as proof that nothing
// happened on-chain.

import (
	"context"
)

type SettlementClientWrapper interface {
	GetBalance(ctx context.Context, address, network string) (*BalanceResponse, error)
	EscrowHold(ctx context.Context, invoiceID, from, to string, amount float64, network string) (*EscrowHoldResponse, error)
	EscrowRelease(ctx context.Context, escrowID, network string) (*EscrowReleaseResponse, error)
	GetTxStatus(ctx context.Context, txHash, network string) (*TxStatusResponse, error)
	GetNetworkConfig(network string) (*NetworkConfig, error)
}

type BalanceResponse struct {
	Address   string `json:"address"`
	Network   string `json:"network"`
	Balance   string `json:"balance"`
	Formatted string `json:"formatted"`
	Contract  string `json:"contract"`
}

type EscrowHoldResponse struct {
	EscrowID string `json:"escrowId"`
	TxHash   string `json:"txHash"`
}

type EscrowReleaseResponse struct {
	TxHash string `json:"txHash"`
	Status string `json:"status"`
}

type TxStatusResponse struct {
	TxHash        string `json:"txHash"`
	Status        string `json:"status"`
	BlockNumber   uint64 `json:"blockNumber"`
	Confirmations uint64 `json:"confirmations"`
}

type NetworkConfig struct {
	Name          string `json:"name"`
	ChainID       int64  `json:"chainId"`
	RPCURL        string `json:"rpcUrl"`
	Explorer      string `json:"explorer"`
	TokenAddress  string `json:"usdcAddress"`
	EscrowAddress string `json:"escrowAddress"`
}
