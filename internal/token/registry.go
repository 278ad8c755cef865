package token

import "pitboss/pkg/domain"

// TokenInfo describes one supported token on a network. A blank Contract
// means the chain's native asset.
type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Contract string `json:"contract,omitempty"`
	Decimals int    `json:"decimals"`
}

// supportedTokens is the static per-network registry served by GET /tokens
// and used as the read set for on-chain balance lookups.
var supportedTokens = map[domain.Network][]TokenInfo{
	domain.NetworkBase: {
		{Symbol: "ETH", Name: "Ether", Decimals: 18},
		{Symbol: "USDC", Name: "USD Coin", Contract: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
		{Symbol: "WETH", Name: "Wrapped Ether", Contract: "0x4200000000000000000000000000000000000006", Decimals: 18},
		{Symbol: "cbBTC", Name: "Coinbase Wrapped BTC", Contract: "0xcbB7C0000aB88B473b1f5aFd9ef808440eed33Bf", Decimals: 8},
	},
	domain.NetworkBaseSepolia: {
		{Symbol: "ETH", Name: "Ether", Decimals: 18},
		{Symbol: "USDC", Name: "USD Coin", Contract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e", Decimals: 6},
		{Symbol: "WETH", Name: "Wrapped Ether", Contract: "0x4200000000000000000000000000000000000006", Decimals: 18},
	},
	domain.NetworkLocal: {
		{Symbol: "ETH", Name: "Ether", Decimals: 18},
		{Symbol: "HOUSE", Name: "House Token", Contract: "0x5FbDB2315678afecb367f032d93F642f64180aa3", Decimals: 18},
	},
}

// staticBalances is the fallback payload served when no chain RPC is
// configured. Values mirror what the frontend expects in development.
var staticBalances = map[domain.Network][]string{
	domain.NetworkBase:        {"1.2345", "2500.00", "0.5", "0.012"},
	domain.NetworkBaseSepolia: {"10.0", "10000.00", "5.0"},
	domain.NetworkLocal:       {"9999.0", "1000000.0"},
}

// SupportedTokens returns the registry entry for a network, or nil when the
// network is unknown.
func SupportedTokens(network domain.Network) []TokenInfo {
	return supportedTokens[network]
}

// SupportedNetworks lists every network with a registry entry.
func SupportedNetworks() []domain.Network {
	return []domain.Network{domain.NetworkBase, domain.NetworkBaseSepolia, domain.NetworkLocal}
}
