package rail

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/ziflex/lecho/v3"
)

const (
	EVM_CLIENT_TYPE  = "evm"
	MOCK_CLIENT_TYPE = "mock"

	NetworkBaseSepolia     = "base-sepolia"
	NetworkArbitrumSepolia = "arbitrum-sepolia"
)

type Config struct {
	ClientType         string `envconfig:"RAIL_CLIENT_TYPE" default:"evm"` //evm, mock
	Network            string `envconfig:"RAIL_NETWORK" default:"base-sepolia"`
	PrivateKey         string `envconfig:"RAIL_PRIVATE_KEY"`
	BaseSepoliaRPC     string `envconfig:"BASE_SEPOLIA_RPC" default:"https://sepolia.base.org"`
	ArbitrumSepoliaRPC string `envconfig:"ARBITRUM_SEPOLIA_RPC" default:"https://sepolia.arbitrum.org/rpc"`
	EscrowContract     string `envconfig:"ESCROW_CONTRACT"`
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NetworkConfigs returns the supported network configurations. RPC endpoints
// come from the config, contract addresses are the published testnet USDC
// deployments.
func (c *Config) NetworkConfigs() map[string]*NetworkConfig {
	return map[string]*NetworkConfig{
		NetworkBaseSepolia: {
			Name:          NetworkBaseSepolia,
			ChainID:       84532,
			RPCURL:        c.BaseSepoliaRPC,
			Explorer:      "https://sepolia.basescan.org",
			TokenAddress:  "0x036cbd518a9b53f10a5a46d2f77b6e17b4c0fa8b",
			EscrowAddress: c.EscrowContract,
		},
		NetworkArbitrumSepolia: {
			Name:          NetworkArbitrumSepolia,
			ChainID:       421614,
			RPCURL:        c.ArbitrumSepoliaRPC,
			Explorer:      "https://sepolia.arbiscan.io",
			TokenAddress:  "0x2416092f143378150bb3e0c1303fc57c5fc2b81a",
			EscrowAddress: c.EscrowContract,
		},
	}
}

// InitRailClient returns the settlement client selected by the configured
// client type. Business logic never branches on the environment itself; it
// only ever sees the SettlementClientWrapper interface.
func InitRailClient(c *Config, logger *lecho.Logger, ctx context.Context) (SettlementClientWrapper, error) {
	switch c.ClientType {
	case EVM_CLIENT_TYPE:
		return NewEVMClient(c)
	case MOCK_CLIENT_TYPE:
		logger.Warn("Using mock settlement rail client")
		return NewMockClient(c.NetworkConfigs()), nil
	default:
		return nil, fmt.Errorf("unknown rail client type %q", c.ClientType)
	}
}
