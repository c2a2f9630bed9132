package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultAlgorithm = "fastest"
	defaultLogLevel  = "info"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	sessionFile = "session.json"
	logsDir     = "logs"
)

// Load reads config from dir (or creates defaults), then applies environment
// overrides. dir defaults to ~/.smartfund.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".smartfund")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	if err := loadInto(filepath.Join(dir, configFile), cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Validate checks the fields every contract operation depends on.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("invalid contract address %q", c.ContractAddress)
	}
	if !strings.HasPrefix(c.ChainID, "0x") || len(c.ChainID) < 3 {
		return fmt.Errorf("invalid chain id %q: must be 0x-prefixed hex", c.ChainID)
	}
	if strings.TrimSpace(c.FundAmount) == "" {
		return fmt.Errorf("fund amount is empty")
	}
	return nil
}

// Set updates a single field by its JSON key. Used by `config set`.
func (c *Config) Set(key, value string) error {
	switch key {
	case "chain_id":
		c.ChainID = strings.ToLower(value)
	case "contract_address":
		if !common.IsHexAddress(value) {
			return fmt.Errorf("invalid contract address %q", value)
		}
		c.ContractAddress = value
	case "fund_amount":
		c.FundAmount = value
	case "default_wallet":
		c.DefaultWallet = value
	case "rpc_url":
		c.RPCURL = value
	case "rpc_algorithm":
		if !slices.Contains([]string{"fastest", "round-robin", "failover"}, value) {
			return fmt.Errorf("unknown rpc algorithm %q", value)
		}
		c.RPCAlgorithm = value
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// AddRPC adds a custom RPC URL for a chain id.
func (c *Config) AddRPC(chainID, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chainID], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chainID)
	}
	c.CustomRPCs[chainID] = append(c.CustomRPCs[chainID], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain id.
func (c *Config) RemoveRPC(chainID, url string) error {
	rpcs := c.CustomRPCs[chainID]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chainID)
	}
	c.CustomRPCs[chainID] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a chain id.
func (c *Config) GetRPCs(chainID string) []string {
	return c.CustomRPCs[chainID]
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where the wallet store lives.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// SessionPath is where authorized (unlocked) keys are cached.
func (c *Config) SessionPath() string {
	return filepath.Join(c.configDir, sessionFile)
}

// LogDir is where rotated log files are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.configDir, logsDir)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		ChainID:         DefaultChainID,
		ContractAddress: DefaultContractAddress,
		FundAmount:      DefaultFundAmount,
		RPCAlgorithm:    defaultAlgorithm,
		LogLevel:        defaultLogLevel,
		CustomRPCs:      make(map[string][]string),
		configDir:       dir,
	}
}

func loadInto[T any](path string, v *T) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
