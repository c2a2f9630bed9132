package config

// Config holds all smartfund configuration.
//
// Fields tagged with env can be overridden per invocation by the matching
// environment variable; overrides are applied after config.json is read.
type Config struct {
	// ChainID is hex encoded, e.g. "0xaa36a7".
	ChainID         string `json:"chain_id"         env:"SMARTFUND_CHAIN_ID"`
	ContractAddress string `json:"contract_address" env:"SMARTFUND_CONTRACT"`
	// FundAmount is the decimal ETH value sent with every fund() call.
	FundAmount    string `json:"fund_amount"    env:"SMARTFUND_FUND_AMOUNT"`
	DefaultWallet string `json:"default_wallet" env:"SMARTFUND_WALLET"`
	// RPCURL pins a single endpoint and skips RPC selection.
	RPCURL       string              `json:"rpc_url,omitempty" env:"SMARTFUND_RPC_URL"`
	RPCAlgorithm string              `json:"rpc_algorithm"     env:"SMARTFUND_RPC_ALGORITHM"` // "fastest" | "round-robin" | "failover"
	LogLevel     string              `json:"log_level"         env:"SMARTFUND_LOG_LEVEL"`
	CustomRPCs   map[string][]string `json:"custom_rpcs"`

	// internal: config dir path used for Save()
	configDir string
}
