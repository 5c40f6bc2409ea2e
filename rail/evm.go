package rail

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

const escrowABIJSON = `[
	{"inputs":[{"name":"escrowId","type":"bytes32"}],"name":"release","outputs":[],"type":"function"}
]`

// EVMClient talks to an ERC-20 token plus an escrow contract over JSON-RPC.
// Connections are dialed lazily per network and reused.
type EVMClient struct {
	networks  map[string]*NetworkConfig
	key       *ecdsa.PrivateKey
	from      ethcommon.Address
	erc20ABI  abi.ABI
	escrowABI abi.ABI

	mu      sync.Mutex
	clients map[string]*ethclient.Client
}

func NewEVMClient(c *Config) (*EVMClient, error) {
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, err
	}
	escrowABI, err := abi.JSON(strings.NewReader(escrowABIJSON))
	if err != nil {
		return nil, err
	}

	client := &EVMClient{
		networks:  c.NetworkConfigs(),
		erc20ABI:  erc20ABI,
		escrowABI: escrowABI,
		clients:   map[string]*ethclient.Client{},
	}

	if c.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(c.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid rail private key: %w", err)
		}
		client.key = key
		client.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	return client, nil
}

func (c *EVMClient) GetNetworkConfig(network string) (*NetworkConfig, error) {
	cfg, ok := c.networks[network]
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", network)
	}
	return cfg, nil
}

func (c *EVMClient) dial(ctx context.Context, network string) (*ethclient.Client, *NetworkConfig, error) {
	cfg, err := c.GetNetworkConfig(network)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[network]; ok {
		return client, cfg, nil
	}
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", network, err)
	}
	c.clients[network] = client
	return client, cfg, nil
}

func (c *EVMClient) GetBalance(ctx context.Context, address, network string) (*BalanceResponse, error) {
	client, cfg, err := c.dial(ctx, network)
	if err != nil {
		return nil, err
	}

	data, err := c.erc20ABI.Pack("balanceOf", ethcommon.HexToAddress(address))
	if err != nil {
		return nil, err
	}
	token := ethcommon.HexToAddress(cfg.TokenAddress)
	result, err := client.CallContract(ctx, callMsg(token, data), nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}

	balance := new(big.Int).SetBytes(result)
	return &BalanceResponse{
		Address:   address,
		Network:   network,
		Balance:   balance.String(),
		Formatted: formatUnits(balance),
		Contract:  cfg.TokenAddress,
	}, nil
}

// EscrowHold pledges funds for an invoice by approving the escrow contract
// for the invoice amount. The escrow id is derived deterministically from
// the invoice id so release needs no extra round trip.
func (c *EVMClient) EscrowHold(ctx context.Context, invoiceID, from, to string, amount float64, network string) (*EscrowHoldResponse, error) {
	client, cfg, err := c.dial(ctx, network)
	if err != nil {
		return nil, err
	}
	if cfg.EscrowAddress == "" {
		return nil, fmt.Errorf("no escrow contract configured for %s", network)
	}

	data, err := c.erc20ABI.Pack("approve", ethcommon.HexToAddress(cfg.EscrowAddress), toUnits(amount))
	if err != nil {
		return nil, err
	}
	txHash, err := c.sendTx(ctx, client, cfg, ethcommon.HexToAddress(cfg.TokenAddress), data)
	if err != nil {
		return nil, err
	}

	return &EscrowHoldResponse{
		EscrowID: escrowIDFor(invoiceID),
		TxHash:   txHash,
	}, nil
}

func (c *EVMClient) EscrowRelease(ctx context.Context, escrowID, network string) (*EscrowReleaseResponse, error) {
	client, cfg, err := c.dial(ctx, network)
	if err != nil {
		return nil, err
	}
	if cfg.EscrowAddress == "" {
		return nil, fmt.Errorf("no escrow contract configured for %s", network)
	}

	id, err := parseEscrowID(escrowID)
	if err != nil {
		return nil, err
	}
	data, err := c.escrowABI.Pack("release", id)
	if err != nil {
		return nil, err
	}
	txHash, err := c.sendTx(ctx, client, cfg, ethcommon.HexToAddress(cfg.EscrowAddress), data)
	if err != nil {
		return nil, err
	}

	return &EscrowReleaseResponse{
		TxHash: txHash,
		Status: "released",
	}, nil
}

func (c *EVMClient) GetTxStatus(ctx context.Context, txHash, network string) (*TxStatusResponse, error) {
	client, _, err := c.dial(ctx, network)
	if err != nil {
		return nil, err
	}

	receipt, err := client.TransactionReceipt(ctx, ethcommon.HexToHash(txHash))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt for %s: %w", txHash, err)
	}
	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	status := "failed"
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = "confirmed"
	}
	blockNumber := receipt.BlockNumber.Uint64()
	var confirmations uint64
	if head >= blockNumber {
		confirmations = head - blockNumber + 1
	}
	return &TxStatusResponse{
		TxHash:        txHash,
		Status:        status,
		BlockNumber:   blockNumber,
		Confirmations: confirmations,
	}, nil
}

func (c *EVMClient) sendTx(ctx context.Context, client *ethclient.Client, cfg *NetworkConfig, to ethcommon.Address, data []byte) (string, error) {
	if c.key == nil {
		return "", fmt.Errorf("RAIL_PRIVATE_KEY not set")
	}

	nonce, err := client.PendingNonceAt(ctx, c.from)
	if err != nil {
		return "", err
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", err
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), 120000, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(cfg.ChainID)), c.key)
	if err != nil {
		return "", err
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", err
	}
	return signed.Hash().Hex(), nil
}

func callMsg(to ethcommon.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{To: &to, Data: data}
}

func escrowIDFor(invoiceID string) string {
	return "0x" + hex.EncodeToString(crypto.Keccak256([]byte(invoiceID)))
}

func parseEscrowID(escrowID string) ([32]byte, error) {
	var id [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(escrowID, "0x"))
	if err != nil || len(raw) != 32 {
		return id, fmt.Errorf("invalid escrow id %q", escrowID)
	}
	copy(id[:], raw)
	return id, nil
}

func toUnits(amount float64) *big.Int {
	// Round instead of truncating so 0.29 USDC does not become 289999
	// base units.
	return big.NewInt(int64(math.Round(amount * 1e6)))
}

func formatUnits(units *big.Int) string {
	value := new(big.Float).Quo(new(big.Float).SetInt(units), big.NewFloat(1e6))
	f, _ := value.Float64()
	return fmt.Sprintf("%.2f %s", f, "USDC")
}
