package chain

import (
	"errors"
	"strings"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Chain holds the metadata smartfund needs for one EVM network.
type Chain struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	ChainID        int64    `json:"chain_id"`
	NativeCurrency string   `json:"native_currency"`
	RPCs           []string `json:"rpcs"`
	Explorer       string   `json:"explorer"`
	Testnet        bool     `json:"testnet"`
}

// HexID returns the chain id in the 0x-prefixed form used by wallet requests.
func (c *Chain) HexID() string {
	return ChainIDHex(c.ChainID)
}

// TxURL returns the explorer link for a transaction hash, or "" when the chain
// has no explorer.
func (c *Chain) TxURL(hash string) string {
	if c.Explorer == "" {
		return ""
	}
	return c.Explorer + "/tx/" + hash
}

// Registry is the chain registry.
type Registry struct {
	chains []Chain
	byName map[string]*Chain
	byID   map[int64]*Chain
}

// NewRegistry creates the registry of supported networks.
func NewRegistry() *Registry {
	chains := allChains()
	r := &Registry{
		chains: chains,
		byName: make(map[string]*Chain, len(chains)),
		byID:   make(map[int64]*Chain, len(chains)),
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byName[c.Name] = c
		r.byID[c.ChainID] = c
	}
	return r
}

// All returns every chain in the registry.
func (r *Registry) All() []Chain {
	return r.chains
}

// GetByName finds a chain by its slug name (e.g. "sepolia").
func (r *Registry) GetByName(name string) (*Chain, error) {
	c, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// GetByChainID finds a chain by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (*Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// GetByHexID finds a chain by its 0x-prefixed hex chain ID.
func (r *Registry) GetByHexID(hexID string) (*Chain, error) {
	id, err := ParseChainIDHex(hexID)
	if err != nil {
		return nil, err
	}
	return r.GetByChainID(id)
}

// --- chain data ---

func allChains() []Chain {
	return []Chain{
		{
			Name: "ethereum", DisplayName: "Ethereum", ChainID: 1, NativeCurrency: "ETH",
			RPCs:     []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			Explorer: "https://etherscan.io",
		},
		{
			Name: "sepolia", DisplayName: "Sepolia", ChainID: 11155111, NativeCurrency: "ETH", Testnet: true,
			RPCs:     []string{"https://rpc.sepolia.org", "https://sepolia.gateway.tenderly.co", "https://ethereum-sepolia-rpc.publicnode.com"},
			Explorer: "https://sepolia.etherscan.io",
		},
		{
			Name: "holesky", DisplayName: "Holesky", ChainID: 17000, NativeCurrency: "ETH", Testnet: true,
			RPCs:     []string{"https://ethereum-holesky-rpc.publicnode.com"},
			Explorer: "https://holesky.etherscan.io",
		},
		{
			Name: "base", DisplayName: "Base", ChainID: 8453, NativeCurrency: "ETH",
			RPCs:     []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			Explorer: "https://basescan.org",
		},
		{
			Name: "base-sepolia", DisplayName: "Base Sepolia", ChainID: 84532, NativeCurrency: "ETH", Testnet: true,
			RPCs:     []string{"https://sepolia.base.org"},
			Explorer: "https://sepolia.basescan.org",
		},
		{
			Name: "arbitrum", DisplayName: "Arbitrum", ChainID: 42161, NativeCurrency: "ETH",
			RPCs:     []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum-one-rpc.publicnode.com"},
			Explorer: "https://arbiscan.io",
		},
		{
			Name: "arbitrum-sepolia", DisplayName: "Arb Sepolia", ChainID: 421614, NativeCurrency: "ETH", Testnet: true,
			RPCs:     []string{"https://sepolia-rollup.arbitrum.io/rpc"},
			Explorer: "https://sepolia.arbiscan.io",
		},
		{
			Name: "optimism", DisplayName: "Optimism", ChainID: 10, NativeCurrency: "ETH",
			RPCs:     []string{"https://mainnet.optimism.io", "https://optimism-rpc.publicnode.com"},
			Explorer: "https://optimistic.etherscan.io",
		},
		{
			Name: "optimism-sepolia", DisplayName: "OP Sepolia", ChainID: 11155420, NativeCurrency: "ETH", Testnet: true,
			RPCs:     []string{"https://sepolia.optimism.io"},
			Explorer: "https://sepolia-optimism.etherscan.io",
		},
		{
			Name: "polygon", DisplayName: "Polygon", ChainID: 137, NativeCurrency: "POL",
			RPCs:     []string{"https://polygon-bor-rpc.publicnode.com", "https://polygon-pokt.nodies.app"},
			Explorer: "https://polygonscan.com",
		},
		{
			Name: "amoy", DisplayName: "Amoy", ChainID: 80002, NativeCurrency: "POL", Testnet: true,
			RPCs:     []string{"https://rpc-amoy.polygon.technology"},
			Explorer: "https://amoy.polygonscan.com",
		},
		{
			// Local development node (anvil / hardhat).
			Name: "localhost", DisplayName: "Localhost", ChainID: 31337, NativeCurrency: "ETH", Testnet: true,
			RPCs: []string{"http://127.0.0.1:8545"},
		},
	}
}
